package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	apperrors "insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/common/logger"
	da "insta-giveaway-backend/internal/domain/analytics"
	"insta-giveaway-backend/internal/domain/audit"
	"insta-giveaway-backend/internal/service/giveaway"
)

const (
	defaultRange     = 30 * 24 * time.Hour
	defaultStaleness = time.Hour
)

// Cache is a JSON read-through cache for dashboard reads.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Service serves creator dashboards from the overview snapshot and the
// daily buckets fed by the audit stream.
type Service struct {
	repo       da.Repository
	staleAfter time.Duration
	cache      Cache
	cacheTTL   time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

func NewService(repo da.Repository, staleAfter time.Duration) *Service {
	if staleAfter <= 0 {
		staleAfter = defaultStaleness
	}
	return &Service{
		repo:       repo,
		staleAfter: staleAfter,
		now:        func() time.Time { return time.Now().UTC() },
		log:        logger.Component("analytics"),
	}
}

// WithCache enables caching of the engagement and top giveaway reads.
func (s *Service) WithCache(c Cache, ttl time.Duration) *Service {
	s.cache = c
	s.cacheTTL = ttl
	return s
}

// cached serves key from the cache, falling back to load and storing its
// result. Cache failures only cost a reload.
func cached[T any](ctx context.Context, s *Service, key string, load func() (T, error)) (T, error) {
	var v T
	if s.cache == nil {
		return load()
	}
	if hit, err := s.cache.Get(ctx, key, &v); err == nil && hit {
		return v, nil
	} else if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Analytics cache read failed")
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if err := s.cache.Set(ctx, key, v, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Analytics cache write failed")
	}
	return v, nil
}

// Overview returns the user's snapshot, recomputing it when missing or stale.
func (s *Service) Overview(ctx context.Context, userID int64) (*da.OverviewStats, error) {
	stats, err := s.repo.GetOverview(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get overview", err)
	}
	if stats != nil && s.now().Sub(stats.LastUpdated) <= s.staleAfter {
		return stats, nil
	}
	return s.regenerate(ctx, userID)
}

func (s *Service) regenerate(ctx context.Context, userID int64) (*da.OverviewStats, error) {
	stats, err := s.repo.ComputeOverview(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("compute overview", err)
	}
	stats.UserID = userID
	stats.LastUpdated = s.now()
	if err := s.repo.SaveOverview(ctx, stats); err != nil {
		return nil, apperrors.NewDatabaseError("save overview", err)
	}
	return stats, nil
}

// Timeseries returns daily activity between from and to. Zero bounds
// default to the last 30 days.
func (s *Service) Timeseries(ctx context.Context, userID int64, from, to time.Time) ([]da.ActivityPoint, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-defaultRange)
	}
	if from.After(to) {
		return nil, apperrors.NewValidationError("from", "from must not be after to")
	}
	points, err := s.repo.Activity(ctx, userID, from, to)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list activity", err)
	}
	if points == nil {
		points = []da.ActivityPoint{}
	}
	return points, nil
}

// EngagementResult is the breakdown plus its total.
type EngagementResult struct {
	da.Engagement
	Total int `json:"total"`
}

// Engagement sums the breakdown of the last 30 days.
func (s *Service) Engagement(ctx context.Context, userID int64) (*EngagementResult, error) {
	return cached(ctx, s, fmt.Sprintf("engagement:%d", userID), func() (*EngagementResult, error) {
		e, err := s.repo.EngagementSince(ctx, userID, s.now().Add(-defaultRange))
		if err != nil {
			return nil, apperrors.NewDatabaseError("engagement breakdown", err)
		}
		return &EngagementResult{Engagement: *e, Total: e.Total()}, nil
	})
}

func (s *Service) TopGiveaways(ctx context.Context, userID int64, limit int) ([]da.TopGiveaway, error) {
	return cached(ctx, s, fmt.Sprintf("top:%d:%d", userID, limit), func() ([]da.TopGiveaway, error) {
		top, err := s.repo.TopGiveaways(ctx, userID, limit)
		if err != nil {
			return nil, apperrors.NewDatabaseError("top giveaways", err)
		}
		if top == nil {
			top = []da.TopGiveaway{}
		}
		return top, nil
	})
}

// RegenerateAll recomputes the overview of every user owning a giveaway and
// returns how many were refreshed. It stops at the first failure.
func (s *Service) RegenerateAll(ctx context.Context) (int, error) {
	ids, err := s.repo.CreatorIDs(ctx)
	if err != nil {
		return 0, apperrors.NewDatabaseError("list creators", err)
	}
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := s.regenerate(ctx, id); err != nil {
			return i, err
		}
	}
	s.log.Info().Int("users", len(ids)).Msg("Analytics regenerated")
	return len(ids), nil
}

// ApplyEvent folds one audit stream message into the daily buckets. Events
// other than entry creation and first verification are ignored.
func (s *Service) ApplyEvent(ctx context.Context, values map[string]interface{}) error {
	action, _ := values["action_type"].(string)
	switch audit.ActionType(action) {
	case audit.ActionEntryCreated, audit.ActionEntryVerified:
	default:
		return nil
	}

	var details struct {
		GiveawayID        string                 `json:"giveaway_id"`
		Results           map[string]interface{} `json:"verification_results"`
		FirstVerification *bool                  `json:"first_verification"`
	}
	raw, _ := values["details"].(string)
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return fmt.Errorf("decode event details: %w", err)
	}
	if details.GiveawayID == "" {
		return fmt.Errorf("event %v has no giveaway_id", values["id"])
	}
	// forced re-verifications of an entry are counted once
	if details.FirstVerification != nil && !*details.FirstVerification {
		return nil
	}

	day := s.now()
	if ts, ok := values["timestamp"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			day = t.UTC()
		}
	}

	creator, err := s.repo.CreatorOf(ctx, details.GiveawayID)
	if err != nil {
		return fmt.Errorf("lookup creator: %w", err)
	}
	if creator == 0 {
		// giveaway deleted since the event was written
		return nil
	}

	var d da.DailyDelta
	if audit.ActionType(action) == audit.ActionEntryCreated {
		d.Participants = 1
	} else {
		d.Verified = 1
		d.Engagement = engagementOf(details.Results)
	}
	return s.repo.ApplyDelta(ctx, creator, details.GiveawayID, day, d)
}

func engagementOf(results map[string]interface{}) da.Engagement {
	passed := func(key string) int {
		if ok, _ := results[key].(bool); ok {
			return 1
		}
		return 0
	}
	return da.Engagement{
		Follows:  passed(giveaway.ResultFollow),
		Likes:    passed(giveaway.ResultLike),
		Comments: passed(giveaway.ResultComment),
		Tags:     passed(giveaway.ResultTags),
	}
}

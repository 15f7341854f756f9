package giveaway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	rediscache "insta-giveaway-backend/internal/cache/redis"
	apperrors "insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/domain/audit"
	dg "insta-giveaway-backend/internal/domain/giveaway"
	"insta-giveaway-backend/internal/metrics"
	"insta-giveaway-backend/internal/utils/random"
)

const selectLockTTL = 30 * time.Second

// SelectWinners draws up to count winners from the verified entries of an
// ended giveaway. count nil means the giveaway's winner_count. Entries that
// already won are returned as-is, so repeated draws never duplicate winners.
func (s *Service) SelectWinners(ctx context.Context, actor Actor, giveawayID string, count *int) ([]dg.Winner, error) {
	g, err := s.loadManaged(ctx, actor, giveawayID)
	if err != nil {
		return nil, err
	}
	if !g.IsEnded() {
		s.log.Warn().Str("giveaway_id", g.ID).Msg("Attempted to select winners for active giveaway")
		return nil, apperrors.NewVerificationError("Cannot select winners for an active giveaway")
	}

	n := g.WinnerCount
	if count != nil {
		n = *count
	}
	if n <= 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidWinners, "Winner count must be positive")
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, "giveaway:select_winners:"+g.ID, selectLockTTL)
		if err != nil {
			if errors.Is(err, rediscache.ErrAlreadyLocked) {
				return nil, apperrors.NewConflictError("giveaway", "Winner selection is already in progress")
			}
			return nil, apperrors.NewCacheError("acquire lock", err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn().Err(err).Str("giveaway_id", g.ID).Msg("Failed to release selection lock")
			}
		}()
	}

	pool, err := s.entries.ListByStatus(ctx, g.ID, dg.VerificationVerified)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list verified entries", err)
	}

	picked, err := random.Sample(pool, n)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to draw winners")
	}

	now := s.now()
	winners := make([]dg.Winner, 0, len(picked))
	ids := make([]string, 0, len(picked))
	for _, e := range picked {
		w, created, err := s.winners.GetOrCreate(ctx, &dg.Winner{
			ID:         uuid.NewString(),
			GiveawayID: g.ID,
			EntryID:    e.ID,
			SelectedAt: now,
		})
		if err != nil {
			return nil, apperrors.NewDatabaseError("create winner", err)
		}
		if created {
			metrics.WinnersSelected.Inc()
		}
		winners = append(winners, *w)
		ids = append(ids, e.ID)
	}

	s.record(ctx, actor, audit.ActionWinnerSelected, audit.ObjectGiveaway, g.ID, map[string]interface{}{
		"winner_count": len(winners),
		"winners":      ids,
	})

	s.log.Info().
		Str("giveaway_id", g.ID).
		Int("pool", len(pool)).
		Int("selected", len(winners)).
		Msg("Winners selected")
	return winners, nil
}

// ListWinners applies winner visibility for the actor.
func (s *Service) ListWinners(ctx context.Context, actor Actor, f dg.WinnerFilter) ([]dg.Winner, error) {
	if err := giveawayFilter(f.GiveawayID); err != nil {
		return nil, err
	}
	f.Viewer = dg.Viewer{UserID: actor.UserID, IsStaff: actor.IsStaff}
	out, err := s.winners.List(ctx, f)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list winners", err)
	}
	return out, nil
}

// MarkContacted flags a winner as contacted.
func (s *Service) MarkContacted(ctx context.Context, actor Actor, winnerID string) (*dg.Winner, error) {
	return s.updateWinner(ctx, actor, winnerID, audit.ActionWinnerContacted, func(w *dg.Winner, now time.Time) {
		w.MarkContacted(now)
	})
}

// MarkClaimed flags a winner's prize as claimed.
func (s *Service) MarkClaimed(ctx context.Context, actor Actor, winnerID string) (*dg.Winner, error) {
	return s.updateWinner(ctx, actor, winnerID, audit.ActionPrizeClaimed, func(w *dg.Winner, now time.Time) {
		w.MarkClaimed(now)
	})
}

func (s *Service) updateWinner(ctx context.Context, actor Actor, winnerID string, action audit.ActionType, apply func(*dg.Winner, time.Time)) (*dg.Winner, error) {
	notFound := apperrors.New(apperrors.ErrCodeWinnerNotFound, fmt.Sprintf("Winner not found: %s", winnerID)).
		WithDetail("winner_id", winnerID)
	if !validID(winnerID) {
		return nil, notFound
	}
	w, err := s.winners.GetByID(ctx, winnerID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get winner", err)
	}
	if w == nil {
		return nil, notFound
	}
	if _, err := s.loadManaged(ctx, actor, w.GiveawayID); err != nil {
		return nil, err
	}

	apply(w, s.now())
	if err := s.winners.Save(ctx, w); err != nil {
		return nil, apperrors.NewDatabaseError("save winner", err)
	}

	s.record(ctx, actor, action, audit.ObjectWinner, w.ID, map[string]interface{}{
		"giveaway_id": w.GiveawayID,
		"entry_id":    w.EntryID,
	})
	return w, nil
}

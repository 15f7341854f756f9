package giveaway

import (
	"context"
	"fmt"

	apperrors "insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/domain/audit"
	dg "insta-giveaway-backend/internal/domain/giveaway"
	"insta-giveaway-backend/internal/metrics"
)

// RevalidateResult summarizes a revalidation run.
type RevalidateResult struct {
	ValidatedCount int    `json:"validated_count"`
	TotalPending   int    `json:"total_pending"`
	Message        string `json:"message"`
}

// RevalidateEntries retries verification for every pending entry whose
// account still has a valid token. Per-entry failures are logged and skipped.
func (s *Service) RevalidateEntries(ctx context.Context, actor Actor, giveawayID string) (*RevalidateResult, error) {
	g, err := s.loadManaged(ctx, actor, giveawayID)
	if err != nil {
		return nil, err
	}

	pending, err := s.entries.ListByStatus(ctx, g.ID, dg.VerificationPending)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list pending entries", err)
	}

	now := s.now()
	validated := 0
	for i := range pending {
		e := &pending[i]
		acc, err := s.accountFor(ctx, e)
		if err != nil {
			s.log.Error().Err(err).Str("entry_id", e.ID).Msg("Error loading entry account")
			continue
		}
		if acc == nil || !acc.IsTokenValid(now) {
			continue
		}
		ok, err := s.verify(ctx, g, e, acc, false)
		if err != nil {
			s.log.Error().Err(err).Str("entry_id", e.ID).Msg("Error revalidating entry")
			continue
		}
		if ok {
			validated++
		}
	}

	s.log.Info().
		Str("giveaway_id", g.ID).
		Int("validated", validated).
		Int("pending", len(pending)).
		Msg("Entries revalidated")

	s.record(ctx, actor, audit.ActionEntriesRevalidated, audit.ObjectGiveaway, g.ID, map[string]interface{}{
		"pending_count":   len(pending),
		"validated_count": validated,
	})

	stillPending := 0
	for _, e := range pending {
		if e.VerificationStatus == dg.VerificationPending {
			stillPending++
		}
	}
	return &RevalidateResult{
		ValidatedCount: validated,
		TotalPending:   stillPending,
		Message:        fmt.Sprintf("Successfully revalidated %d entries", validated),
	}, nil
}

// EndExpired ends every active giveaway whose end date has passed.
// It returns the number of giveaways ended.
func (s *Service) EndExpired(ctx context.Context) (int, error) {
	now := s.now()
	expired, err := s.giveaways.ListExpiredActive(ctx, now)
	if err != nil {
		return 0, apperrors.NewDatabaseError("list expired giveaways", err)
	}

	ended := 0
	for _, g := range expired {
		if err := s.giveaways.UpdateStatus(ctx, g.ID, dg.GiveawayStatusEnded); err != nil {
			s.log.Error().Err(err).Str("giveaway_id", g.ID).Msg("Failed to end expired giveaway")
			continue
		}
		ended++
		metrics.GiveawaysExpired.Inc()
		s.record(ctx, Actor{}, audit.ActionGiveawayStatusChanged, audit.ObjectGiveaway, g.ID, map[string]interface{}{
			"old_status": string(dg.GiveawayStatusActive),
			"new_status": string(dg.GiveawayStatusEnded),
			"reason":     "expired",
		})
	}
	if ended > 0 {
		s.log.Info().Int("count", ended).Msg("Expired giveaways ended")
	}
	return ended, nil
}

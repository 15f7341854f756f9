package giveaway

import (
	"context"

	apperrors "insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/domain/audit"
	dg "insta-giveaway-backend/internal/domain/giveaway"
	"insta-giveaway-backend/internal/domain/social"
	"insta-giveaway-backend/internal/metrics"
)

// Keys of the verification results map.
const (
	ResultFollow  = "follow"
	ResultLike    = "like"
	ResultComment = "comment"
	ResultTags    = "tags"
)

// VerifyEntry runs the giveaway's checks against an entry. Allowed for staff,
// the giveaway creator and the owner of the entry's Instagram account.
func (s *Service) VerifyEntry(ctx context.Context, actor Actor, entryID string, force bool) (*dg.Entry, bool, error) {
	e, err := s.loadEntry(ctx, entryID)
	if err != nil {
		return nil, false, err
	}
	g, err := s.load(ctx, e.GiveawayID)
	if err != nil {
		return nil, false, err
	}

	if !g.CanManage(actor.UserID, actor.IsStaff) {
		owns, err := s.ownsEntryAccount(ctx, actor, e)
		if err != nil {
			return nil, false, err
		}
		if !owns {
			return nil, false, apperrors.NewForbiddenError("You do not have permission to verify this entry")
		}
	}

	acc, err := s.accountFor(ctx, e)
	if err != nil {
		return nil, false, err
	}
	ok, err := s.verify(ctx, g, e, acc, force)
	return e, ok, err
}

// verify evaluates every enabled rule and persists the outcome on e.
// Failures that stop verification still mark the entry failed before the
// error is returned.
func (s *Service) verify(ctx context.Context, g *dg.Giveaway, e *dg.Entry, acc *social.Account, force bool) (bool, error) {
	if e.IsVerified() && !force {
		metrics.Verifications.WithLabelValues("skipped").Inc()
		return true, nil
	}

	now := s.now()
	if acc == nil {
		s.log.Error().Str("entry_id", e.ID).Msg("Cannot verify entry without Instagram account access")
		if err := s.fail(ctx, e, map[string]interface{}{"error": "No Instagram account connected"}); err != nil {
			return false, err
		}
		return false, apperrors.NewVerificationError("Cannot verify entry without Instagram account access")
	}
	if !acc.IsTokenValid(now) {
		s.log.Error().Str("entry_id", e.ID).Str("account", acc.Username).Msg("Invalid Instagram token")
		if err := s.fail(ctx, e, map[string]interface{}{"error": "Instagram token is invalid or expired"}); err != nil {
			return false, err
		}
		return false, apperrors.NewVerificationError("Instagram authorization is invalid or expired")
	}

	results, passed, err := s.runChecks(ctx, g, acc)
	if apperrors.HasCode(err, apperrors.ErrCodeDatabaseError) {
		return false, err
	}
	if err != nil {
		msg := err.Error()
		if appErr, ok := apperrors.AsAppError(err); ok {
			msg = appErr.Message
		}
		s.log.Error().Err(err).Str("entry_id", e.ID).Msg("Instagram API error during verification")
		if ferr := s.fail(ctx, e, map[string]interface{}{"error": msg}); ferr != nil {
			return false, ferr
		}
		return false, apperrors.NewVerificationError("Instagram API error: " + msg)
	}

	details := map[string]interface{}{
		"giveaway_id":          g.ID,
		"instagram_username":   e.InstagramUsername,
		"verification_results": results,
	}
	system := Actor{}

	if passed {
		// verified_at survives later failures, so it marks the first pass
		details["first_verification"] = e.VerifiedAt == nil
		e.MarkVerified(results, s.now())
		if err := s.entries.Save(ctx, e); err != nil {
			return false, apperrors.NewDatabaseError("save entry", err)
		}
		metrics.Verifications.WithLabelValues("verified").Inc()
		s.record(ctx, system, audit.ActionEntryVerified, audit.ObjectEntry, e.ID, details)
		return true, nil
	}

	e.MarkFailed(map[string]interface{}{"error": "Failed verification checks", "details": results}, s.now())
	if err := s.entries.Save(ctx, e); err != nil {
		return false, apperrors.NewDatabaseError("save entry", err)
	}
	metrics.Verifications.WithLabelValues("failed").Inc()
	s.record(ctx, system, audit.ActionEntryFailed, audit.ObjectEntry, e.ID, details)
	return false, nil
}

// runChecks returns the per-rule results and whether all required rules passed.
func (s *Service) runChecks(ctx context.Context, g *dg.Giveaway, acc *social.Account) (map[string]interface{}, bool, error) {
	results := map[string]interface{}{}
	passed := true

	check := func(key string, fn func() (bool, error)) error {
		ok, err := fn()
		if err != nil {
			return err
		}
		results[key] = ok
		passed = passed && ok
		return nil
	}

	if g.VerifyFollow && g.AccountToFollow != "" {
		if err := check(ResultFollow, func() (bool, error) {
			return s.social.VerifyFollow(ctx, acc, g.AccountToFollow)
		}); err != nil {
			return nil, false, err
		}
	}
	if g.VerifyLike && g.PostToLike != "" {
		if err := check(ResultLike, func() (bool, error) {
			return s.social.VerifyLike(ctx, acc, g.PostToLike)
		}); err != nil {
			return nil, false, err
		}
	}
	if g.VerifyComment && g.PostToComment != "" {
		if err := check(ResultComment, func() (bool, error) {
			return s.social.VerifyComment(ctx, acc, g.PostToComment)
		}); err != nil {
			return nil, false, err
		}
	}
	if g.VerifyTags && g.RequiredTagCount > 0 && g.PostToComment != "" {
		if err := check(ResultTags, func() (bool, error) {
			return s.social.VerifyTag(ctx, acc, g.PostToComment, g.RequiredTagCount)
		}); err != nil {
			return nil, false, err
		}
	}

	rules, err := s.rules.ListByGiveaway(ctx, g.ID)
	if err != nil {
		return nil, false, apperrors.NewDatabaseError("list rules", err)
	}
	for _, r := range rules {
		// custom rule types have no evaluator yet, they always pass
		ok := true
		results[r.ResultKey()] = ok
		if r.IsRequired {
			passed = passed && ok
		}
	}
	return results, passed, nil
}

func (s *Service) fail(ctx context.Context, e *dg.Entry, details map[string]interface{}) error {
	e.MarkFailed(details, s.now())
	if err := s.entries.Save(ctx, e); err != nil {
		return apperrors.NewDatabaseError("save entry", err)
	}
	metrics.Verifications.WithLabelValues("error").Inc()
	return nil
}

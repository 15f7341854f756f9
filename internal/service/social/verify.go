package social

import (
	"context"

	apperrors "insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/domain/social"
)

// The Basic Display API exposes no follower, like or comment lists, so the
// checks below cannot be answered upstream. Each one records the interaction
// as verified and passes.
// TODO: evaluate against the Graph API once the app has instagram_manage_comments.

func (s *Service) VerifyFollow(ctx context.Context, acc *social.Account, target string) (bool, error) {
	return s.placeholder(ctx, acc, social.InteractionFollow, target, "")
}

func (s *Service) VerifyLike(ctx context.Context, acc *social.Account, mediaID string) (bool, error) {
	return s.placeholder(ctx, acc, social.InteractionLike, "", mediaID)
}

func (s *Service) VerifyComment(ctx context.Context, acc *social.Account, mediaID string) (bool, error) {
	return s.placeholder(ctx, acc, social.InteractionComment, "", mediaID)
}

func (s *Service) VerifyTag(ctx context.Context, acc *social.Account, mediaID string, required int) (bool, error) {
	s.log.Debug().Int("required_tags", required).Str("media_id", mediaID).Msg("Tag check requested")
	return s.placeholder(ctx, acc, social.InteractionTag, "", mediaID)
}

func (s *Service) placeholder(ctx context.Context, acc *social.Account, kind social.InteractionType, target, mediaID string) (bool, error) {
	s.log.Warn().
		Str("check", string(kind)).
		Str("account", acc.Username).
		Str("target", target).
		Str("media_id", mediaID).
		Msg("Instagram interaction check is not backed by the API, assuming it passed")

	now := s.now()
	in := &social.Interaction{
		AccountID:      acc.ID,
		TargetUsername: target,
		TargetMediaID:  mediaID,
		Type:           kind,
		Verified:       true,
		VerifiedAt:     &now,
	}
	if err := s.repo.UpsertInteraction(ctx, in); err != nil {
		return false, apperrors.NewDatabaseError("record interaction", err)
	}
	return true, nil
}

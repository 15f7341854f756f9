package giveaway

import (
	"context"
	"errors"

	"github.com/google/uuid"

	apperrors "insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/common/validation"
	"insta-giveaway-backend/internal/domain/audit"
	dg "insta-giveaway-backend/internal/domain/giveaway"
	"insta-giveaway-backend/internal/domain/jsonb"
	"insta-giveaway-backend/internal/domain/social"
	"insta-giveaway-backend/internal/metrics"
)

const (
	msgNotActive      = "This giveaway is not currently active"
	msgDuplicateEntry = "You have already submitted an entry for this giveaway"
)

// CreateEntry submits an Instagram handle into a giveaway. When the actor
// has a linked account with a valid token the entry is verified right away;
// a failed verification never undoes the entry.
func (s *Service) CreateEntry(ctx context.Context, actor Actor, giveawayID, instagramUsername string) (*dg.Entry, error) {
	username := validation.NormalizeInstagramUsername(instagramUsername)
	if err := validation.ValidateInstagramUsername(username); err != nil {
		return nil, apperrors.NewValidationError("instagram_username", err.Error())
	}

	g, err := s.Get(ctx, actor, giveawayID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !g.IsActive(now) {
		metrics.EntriesRejected.WithLabelValues("inactive").Inc()
		s.log.Warn().Str("giveaway_id", g.ID).Msg("Attempted to create entry for inactive giveaway")
		return nil, apperrors.NewVerificationError(msgNotActive)
	}

	exists, err := s.entries.Exists(ctx, g.ID, username)
	if err != nil {
		return nil, apperrors.NewDatabaseError("check entry", err)
	}
	if exists {
		metrics.EntriesRejected.WithLabelValues("duplicate").Inc()
		s.log.Warn().Str("giveaway_id", g.ID).Str("instagram_username", username).Msg("Duplicate entry attempt")
		return nil, apperrors.NewVerificationError(msgDuplicateEntry)
	}

	acc, err := s.social.AccountByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	e := &dg.Entry{
		ID:                  uuid.NewString(),
		GiveawayID:          g.ID,
		InstagramUsername:   username,
		VerificationStatus:  dg.VerificationPending,
		VerificationDetails: jsonb.Map{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if acc != nil {
		id := acc.ID
		e.InstagramAccountID = &id
	}

	if err := s.entries.Create(ctx, e); err != nil {
		// lost a race with a concurrent identical submission
		if errors.Is(err, dg.ErrDuplicateEntry) {
			metrics.EntriesRejected.WithLabelValues("duplicate").Inc()
			return nil, apperrors.NewVerificationError(msgDuplicateEntry)
		}
		return nil, apperrors.NewDatabaseError("create entry", err)
	}
	metrics.EntriesCreated.Inc()

	s.record(ctx, actor, audit.ActionEntryCreated, audit.ObjectEntry, e.ID, map[string]interface{}{
		"giveaway_id":        g.ID,
		"instagram_username": username,
	})

	if acc != nil && acc.IsTokenValid(now) {
		if _, err := s.verify(ctx, g, e, acc, false); err != nil {
			s.log.Warn().Err(err).Str("entry_id", e.ID).Msg("Entry initial verification failed")
		}
	}
	return e, nil
}

// GetEntry returns an entry visible to the actor.
func (s *Service) GetEntry(ctx context.Context, actor Actor, id string) (*dg.Entry, error) {
	e, err := s.loadEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsStaff {
		return e, nil
	}

	g, err := s.load(ctx, e.GiveawayID)
	if err != nil {
		return nil, err
	}
	if g.CreatedBy == actor.UserID {
		return e, nil
	}
	owns, err := s.ownsEntryAccount(ctx, actor, e)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, apperrors.NewEntryNotFoundError(id)
	}
	return e, nil
}

func (s *Service) loadEntry(ctx context.Context, id string) (*dg.Entry, error) {
	if !validID(id) {
		return nil, apperrors.NewEntryNotFoundError(id)
	}
	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get entry", err)
	}
	if e == nil {
		return nil, apperrors.NewEntryNotFoundError(id)
	}
	return e, nil
}

// ListEntries applies entry visibility for the actor.
func (s *Service) ListEntries(ctx context.Context, actor Actor, f dg.EntryFilter) ([]dg.Entry, error) {
	if err := giveawayFilter(f.GiveawayID); err != nil {
		return nil, err
	}
	viewer, err := s.viewer(ctx, actor)
	if err != nil {
		return nil, err
	}
	f.Viewer = viewer
	out, err := s.entries.List(ctx, f)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list entries", err)
	}
	return out, nil
}

// MyEntries lists entries made with the actor's linked Instagram account.
func (s *Service) MyEntries(ctx context.Context, actor Actor, limit, offset int) ([]dg.Entry, error) {
	acc, err := s.social.AccountByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return []dg.Entry{}, nil
	}
	id := acc.ID
	f := dg.EntryFilter{
		Viewer:    dg.Viewer{UserID: actor.UserID, AccountID: &id},
		AccountID: &id,
		Limit:     limit,
		Offset:    offset,
	}
	out, err := s.entries.List(ctx, f)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list entries", err)
	}
	return out, nil
}

func (s *Service) viewer(ctx context.Context, actor Actor) (dg.Viewer, error) {
	v := dg.Viewer{UserID: actor.UserID, IsStaff: actor.IsStaff}
	if actor.IsStaff {
		return v, nil
	}
	acc, err := s.social.AccountByUserID(ctx, actor.UserID)
	if err != nil {
		return v, err
	}
	if acc != nil {
		id := acc.ID
		v.AccountID = &id
	}
	return v, nil
}

func (s *Service) ownsEntryAccount(ctx context.Context, actor Actor, e *dg.Entry) (bool, error) {
	if e.InstagramAccountID == nil {
		return false, nil
	}
	acc, err := s.accountFor(ctx, e)
	if err != nil {
		return false, err
	}
	return acc != nil && acc.UserID == actor.UserID, nil
}

func (s *Service) accountFor(ctx context.Context, e *dg.Entry) (*social.Account, error) {
	if e.InstagramAccountID == nil {
		return nil, nil
	}
	return s.social.AccountByID(ctx, *e.InstagramAccountID)
}

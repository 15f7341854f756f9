package giveaway

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"

	apperrors "insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/common/logger"
	"insta-giveaway-backend/internal/common/validation"
	"insta-giveaway-backend/internal/domain/audit"
	dg "insta-giveaway-backend/internal/domain/giveaway"
	"insta-giveaway-backend/internal/domain/social"
)

var (
	ErrNotFound = errors.New("giveaway not found")
	ErrNotOwner = errors.New("you are not the owner of this giveaway")
)

// Actor is the authenticated caller of a service method.
type Actor struct {
	UserID  int64
	IsStaff bool
	IP      string
}

// Auditor appends audit rows.
type Auditor interface {
	Record(ctx context.Context, l *audit.Log) error
}

// SocialBridge is the part of the Instagram bridge the campaign manager needs.
type SocialBridge interface {
	AccountByID(ctx context.Context, id int64) (*social.Account, error)
	AccountByUserID(ctx context.Context, userID int64) (*social.Account, error)
	VerifyFollow(ctx context.Context, acc *social.Account, target string) (bool, error)
	VerifyLike(ctx context.Context, acc *social.Account, mediaID string) (bool, error)
	VerifyComment(ctx context.Context, acc *social.Account, mediaID string) (bool, error)
	VerifyTag(ctx context.Context, acc *social.Account, mediaID string, required int) (bool, error)
}

// Locker takes a short-lived exclusive lock and returns its release func.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Deps groups the collaborators of Service. Locker may be nil.
type Deps struct {
	Giveaways dg.Repository
	Entries   dg.EntryRepository
	Winners   dg.WinnerRepository
	Rules     dg.RuleRepository
	Audit     Auditor
	Social    SocialBridge
	Locker    Locker
}

// Service implements the campaign manager: giveaways, entries, winners and rules.
type Service struct {
	giveaways dg.Repository
	entries   dg.EntryRepository
	winners   dg.WinnerRepository
	rules     dg.RuleRepository
	audit     Auditor
	social    SocialBridge
	locker    Locker
	now       func() time.Time
	log       zerolog.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		giveaways: d.Giveaways,
		entries:   d.Entries,
		winners:   d.Winners,
		rules:     d.Rules,
		audit:     d.Audit,
		social:    d.Social,
		locker:    d.Locker,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger.Component("giveaway"),
	}
}

// CreateInput is the body of a create request.
type CreateInput struct {
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	PrizeDescription string            `json:"prize_description"`
	StartDate        time.Time         `json:"start_date"`
	EndDate          time.Time         `json:"end_date"`
	Status           dg.GiveawayStatus `json:"status"`
	WinnerCount      *int              `json:"winner_count"`
	VerifyFollow     bool              `json:"verify_follow"`
	VerifyLike       bool              `json:"verify_like"`
	VerifyComment    bool              `json:"verify_comment"`
	VerifyTags       bool              `json:"verify_tags"`
	AccountToFollow  string            `json:"instagram_account_to_follow"`
	PostToLike       string            `json:"instagram_post_to_like"`
	PostToComment    string            `json:"instagram_post_to_comment"`
	RequiredTagCount int               `json:"required_tag_count"`
}

func validateGiveaway(g *dg.Giveaway) error {
	if err := validation.ValidateTitle(g.Title); err != nil {
		return apperrors.NewValidationError("title", err.Error())
	}
	if err := validation.ValidateDescription(g.Description); err != nil {
		return apperrors.NewValidationError("description", err.Error())
	}
	if g.StartDate.IsZero() || g.EndDate.IsZero() {
		return apperrors.NewValidationError("start_date", "start_date and end_date are required")
	}
	if !g.EndDate.After(g.StartDate) {
		return apperrors.NewValidationError("end_date", "end_date must be after start_date")
	}
	if g.WinnerCount < 1 {
		return apperrors.NewValidationError("winner_count", "winner_count must be at least 1")
	}
	if g.RequiredTagCount < 0 {
		return apperrors.NewValidationError("required_tag_count", "required_tag_count cannot be negative")
	}
	if !g.Status.Valid() {
		return apperrors.NewValidationError("status", "unknown status")
	}
	if g.AccountToFollow != "" {
		if err := validation.ValidateInstagramUsername(g.AccountToFollow); err != nil {
			return apperrors.NewValidationError("instagram_account_to_follow", err.Error())
		}
	}
	return nil
}

func makeSlug(title string) string {
	base := slug.Make(title)
	if base == "" {
		base = "giveaway"
	}
	return base + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Create persists a new giveaway owned by the actor.
func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (*dg.Giveaway, error) {
	now := s.now()
	g := &dg.Giveaway{
		ID:               uuid.NewString(),
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		PrizeDescription: in.PrizeDescription,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		Status:           in.Status,
		WinnerCount:      1,
		VerifyFollow:     in.VerifyFollow,
		VerifyLike:       in.VerifyLike,
		VerifyComment:    in.VerifyComment,
		VerifyTags:       in.VerifyTags,
		AccountToFollow:  validation.NormalizeInstagramUsername(in.AccountToFollow),
		PostToLike:       in.PostToLike,
		PostToComment:    in.PostToComment,
		RequiredTagCount: in.RequiredTagCount,
		CreatedBy:        actor.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if g.Status == "" {
		g.Status = dg.GiveawayStatusDraft
	}
	if in.WinnerCount != nil {
		g.WinnerCount = *in.WinnerCount
	}
	if err := validateGiveaway(g); err != nil {
		return nil, err
	}
	g.Slug = makeSlug(g.Title)

	if err := s.giveaways.Create(ctx, g); err != nil {
		return nil, apperrors.NewDatabaseError("create giveaway", err)
	}

	s.record(ctx, actor, audit.ActionGiveawayCreated, audit.ObjectGiveaway, g.ID, map[string]interface{}{
		"title":  g.Title,
		"status": string(g.Status),
	})

	s.log.Info().Str("giveaway_id", g.ID).Int64("user_id", actor.UserID).Msg("Giveaway created")
	return g, nil
}

// Get returns a giveaway visible to the actor.
func (s *Service) Get(ctx context.Context, actor Actor, id string) (*dg.Giveaway, error) {
	g, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !g.IsPublic() && !g.CanManage(actor.UserID, actor.IsStaff) {
		return nil, giveawayNotFound(id)
	}
	return g, nil
}

// Update applies a partial update. Only the creator or staff may update.
func (s *Service) Update(ctx context.Context, actor Actor, id string, patch dg.Patch) (*dg.Giveaway, error) {
	g, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if patch.AccountToFollow != nil {
		v := validation.NormalizeInstagramUsername(*patch.AccountToFollow)
		patch.AccountToFollow = &v
	}
	changed := patch.Apply(g)
	if len(changed) == 0 {
		return g, nil
	}
	if err := validateGiveaway(g); err != nil {
		return nil, err
	}

	g.UpdatedAt = s.now()
	if err := s.giveaways.Update(ctx, g); err != nil {
		return nil, apperrors.NewDatabaseError("update giveaway", err)
	}

	s.record(ctx, actor, audit.ActionGiveawayUpdated, audit.ObjectGiveaway, g.ID, map[string]interface{}{
		"changed_fields": changed,
	})
	return g, nil
}

// ChangeStatus moves a giveaway to a new status.
func (s *Service) ChangeStatus(ctx context.Context, actor Actor, id string, status dg.GiveawayStatus) (*dg.Giveaway, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status", "unknown status")
	}
	g, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	old := g.Status
	if old == status {
		return g, nil
	}

	if err := s.giveaways.UpdateStatus(ctx, id, status); err != nil {
		return nil, apperrors.NewDatabaseError("update giveaway status", err)
	}
	g.Status = status
	g.UpdatedAt = s.now()

	s.record(ctx, actor, audit.ActionGiveawayStatusChanged, audit.ObjectGiveaway, g.ID, map[string]interface{}{
		"old_status": string(old),
		"new_status": string(status),
	})
	return g, nil
}

func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.loadManaged(ctx, actor, id); err != nil {
		return err
	}
	if err := s.giveaways.Delete(ctx, id); err != nil {
		return apperrors.NewDatabaseError("delete giveaway", err)
	}
	s.log.Info().Str("giveaway_id", id).Int64("user_id", actor.UserID).Msg("Giveaway deleted")
	return nil
}

// List returns giveaways visible to the actor.
func (s *Service) List(ctx context.Context, actor Actor, f dg.ListFilter) ([]dg.Giveaway, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperrors.NewValidationError("status", "unknown status")
	}
	f.Viewer = dg.Viewer{UserID: actor.UserID, IsStaff: actor.IsStaff}
	out, err := s.giveaways.List(ctx, f)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list giveaways", err)
	}
	return out, nil
}

// MyGiveaways lists giveaways created by the actor.
func (s *Service) MyGiveaways(ctx context.Context, actor Actor, limit, offset int) ([]dg.Giveaway, error) {
	uid := actor.UserID
	return s.List(ctx, actor, dg.ListFilter{CreatedBy: &uid, Limit: limit, Offset: offset})
}

// validID reports whether id is a well-formed UUID. Malformed ids never
// reach the database and are reported as missing rows.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// giveawayFilter checks an optional ?giveaway= filter value.
func giveawayFilter(id string) error {
	if id != "" && !validID(id) {
		return apperrors.NewValidationError("giveaway", "Must be a valid UUID")
	}
	return nil
}

func giveawayNotFound(id string) *apperrors.AppError {
	e := apperrors.NewGiveawayNotFoundError(id)
	e.Cause = ErrNotFound
	return e
}

func (s *Service) load(ctx context.Context, id string) (*dg.Giveaway, error) {
	if !validID(id) {
		return nil, giveawayNotFound(id)
	}
	g, err := s.giveaways.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get giveaway", err)
	}
	if g == nil {
		return nil, giveawayNotFound(id)
	}
	return g, nil
}

// loadManaged loads a giveaway the actor may manage. Non-public giveaways of
// other users are reported as missing.
func (s *Service) loadManaged(ctx context.Context, actor Actor, id string) (*dg.Giveaway, error) {
	g, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !g.CanManage(actor.UserID, actor.IsStaff) {
		if !g.IsPublic() {
			return nil, giveawayNotFound(id)
		}
		return nil, apperrors.Wrap(ErrNotOwner, apperrors.ErrCodeNotOwner, "Only the giveaway creator can perform this action")
	}
	return g, nil
}

// record appends an audit row. Failures are logged, the caller's action stands.
func (s *Service) record(ctx context.Context, actor Actor, action audit.ActionType, objectType, objectID string, details map[string]interface{}) {
	l := &audit.Log{
		ActionType:    action,
		ActionDetails: details,
		ObjectID:      objectID,
		ObjectType:    objectType,
		Timestamp:     s.now(),
	}
	if actor.UserID != 0 {
		uid := actor.UserID
		l.UserID = &uid
	}
	if actor.IP != "" {
		ip := actor.IP
		l.IPAddress = &ip
	}
	if err := s.audit.Record(ctx, l); err != nil {
		s.log.Error().Err(err).Str("action", string(action)).Str("object_id", objectID).Msg("Failed to write audit log")
	}
}

package social

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	rediscache "insta-giveaway-backend/internal/cache/redis"
	apperrors "insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/common/logger"
	"insta-giveaway-backend/internal/domain/jsonb"
	"insta-giveaway-backend/internal/domain/social"
	"insta-giveaway-backend/internal/platform/instagram"
	"insta-giveaway-backend/internal/utils/random"
)

const (
	tokenTypeBearer   = "Bearer"
	defaultMediaLimit = 25
	maxMediaLimit     = 100
)

// Instagram is the subset of the Graph client used by the bridge.
type Instagram interface {
	AuthorizeURL(state string) (string, error)
	ExchangeCode(ctx context.Context, code string) (*instagram.Token, error)
	ExchangeLongLived(ctx context.Context, shortLived string) (*instagram.Token, error)
	RefreshToken(ctx context.Context, accessToken string) (*instagram.Token, error)
	Me(ctx context.Context, accessToken string) (*instagram.Profile, error)
	Media(ctx context.Context, accessToken string, limit int, after string) (*instagram.MediaPage, error)
}

// StateStore keeps one-time OAuth state values.
type StateStore interface {
	Save(ctx context.Context, state string, userID int64) error
	Consume(ctx context.Context, state string) (int64, error)
}

// Service links local users to Instagram accounts and performs the
// interaction checks used by entry verification.
type Service struct {
	repo        social.Repository
	client      Instagram
	states      StateStore
	frontendURL string
	now         func() time.Time
	log         zerolog.Logger
}

func NewService(repo social.Repository, client Instagram, states StateStore, frontendURL string) *Service {
	return &Service{
		repo:        repo,
		client:      client,
		states:      states,
		frontendURL: frontendURL,
		now:         func() time.Time { return time.Now().UTC() },
		log:         logger.Component("social"),
	}
}

func notConnected() *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeAccountNotConnected, "Instagram account not connected")
}

// AuthURL starts the OAuth flow for userID.
func (s *Service) AuthURL(ctx context.Context, userID int64) (string, error) {
	state, err := random.Token(16)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "generate oauth state")
	}
	authURL, err := s.client.AuthorizeURL(state)
	if err != nil {
		return "", apperrors.NewExternalAPIError("build authorize url", err)
	}
	if err := s.states.Save(ctx, state, userID); err != nil {
		return "", apperrors.NewCacheError("save oauth state", err)
	}
	return authURL, nil
}

// CallbackParams are the query parameters Instagram redirects back with.
type CallbackParams struct {
	Code        string `form:"code"`
	State       string `form:"state"`
	Error       string `form:"error"`
	ErrorReason string `form:"error_reason"`
}

// HandleCallback completes the OAuth flow and returns the frontend URL the
// browser should be sent to.
func (s *Service) HandleCallback(ctx context.Context, p CallbackParams) string {
	if p.Error != "" || p.Code == "" {
		reason := p.ErrorReason
		if reason == "" {
			reason = p.Error
		}
		if reason == "" {
			reason = "missing_code"
		}
		s.log.Warn().Str("error", p.Error).Str("reason", reason).Msg("Instagram authorization denied")
		return s.errorRedirect(reason)
	}

	userID, err := s.states.Consume(ctx, p.State)
	if err != nil {
		if !errors.Is(err, rediscache.ErrStateNotFound) {
			s.log.Error().Err(err).Msg("Failed to read oauth state")
		}
		return s.errorRedirect("invalid_state")
	}

	acc, err := s.link(ctx, userID, p.Code)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("Instagram token exchange failed")
		return s.errorRedirect("token_exchange_failed")
	}
	s.log.Info().Int64("user_id", userID).Str("username", acc.Username).Msg("Instagram account connected")
	return s.frontendURL + "/instagram-auth-success"
}

func (s *Service) errorRedirect(reason string) string {
	return s.frontendURL + "/instagram-auth-error?error=" + url.QueryEscape(reason)
}

func (s *Service) link(ctx context.Context, userID int64, code string) (*social.Account, error) {
	short, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	long, err := s.client.ExchangeLongLived(ctx, short.AccessToken)
	if err != nil {
		return nil, err
	}
	me, err := s.client.Me(ctx, long.AccessToken)
	if err != nil {
		return nil, err
	}

	acc := &social.Account{
		UserID:          userID,
		InstagramUserID: me.ID,
		Username:        me.Username,
	}
	acc.UpdateToken(long.AccessToken, tokenTypeBearer, long.ExpiresIn, s.now())
	if err := s.repo.Upsert(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// GetMine returns the caller's linked account.
func (s *Service) GetMine(ctx context.Context, userID int64) (*social.Account, error) {
	acc, err := s.AccountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, notConnected()
	}
	return acc, nil
}

// Refresh extends the caller's long-lived token.
func (s *Service) Refresh(ctx context.Context, userID int64) (*social.Account, error) {
	acc, err := s.GetMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *Service) refresh(ctx context.Context, acc *social.Account) error {
	tok, err := s.client.RefreshToken(ctx, acc.AccessToken)
	if err != nil {
		return apperrors.NewExternalAPIError("refresh token", err)
	}
	acc.UpdateToken(tok.AccessToken, "", tok.ExpiresIn, s.now())
	if err := s.repo.SaveToken(ctx, acc); err != nil {
		return apperrors.NewDatabaseError("save token", err)
	}
	return nil
}

// Disconnect unlinks the caller's account. Entries keep their username.
func (s *Service) Disconnect(ctx context.Context, userID int64) error {
	if _, err := s.GetMine(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
		return apperrors.NewDatabaseError("delete instagram account", err)
	}
	s.log.Info().Int64("user_id", userID).Msg("Instagram account disconnected")
	return nil
}

// ListMedia returns the cached media of the caller's account.
func (s *Service) ListMedia(ctx context.Context, userID int64) ([]social.Media, error) {
	acc, err := s.GetMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListMedia(ctx, acc.ID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list media", err)
	}
	return items, nil
}

// MediaResult is one refreshed page.
type MediaResult struct {
	Media []social.Media `json:"media"`
	After string         `json:"after,omitempty"`
}

// RefreshMedia pulls one page of the caller's feed into the cache.
func (s *Service) RefreshMedia(ctx context.Context, userID int64, limit int, after string) (*MediaResult, error) {
	acc, err := s.GetMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !acc.IsTokenValid(s.now()) {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "Instagram token is invalid or expired")
	}
	if limit <= 0 {
		limit = defaultMediaLimit
	}
	if limit > maxMediaLimit {
		limit = maxMediaLimit
	}

	page, err := s.client.Media(ctx, acc.AccessToken, limit, after)
	if err != nil {
		return nil, apperrors.NewExternalAPIError("fetch media", err)
	}

	now := s.now()
	items := make([]social.Media, 0, len(page.Items))
	for _, it := range page.Items {
		ts, err := it.PublishedAt()
		if err != nil {
			ts = now
		}
		items = append(items, social.Media{
			MediaID:       it.ID,
			AccountID:     acc.ID,
			MediaType:     it.MediaType,
			Permalink:     it.Permalink,
			Caption:       it.Caption,
			LikeCount:     it.LikeCount,
			CommentsCount: it.CommentsCount,
			Timestamp:     ts,
			RawData:       jsonb.Map(it.Raw),
			UpdatedAt:     now,
		})
	}
	if err := s.repo.UpsertMedia(ctx, items); err != nil {
		return nil, apperrors.NewDatabaseError("cache media", err)
	}
	return &MediaResult{Media: items, After: page.After}, nil
}

func (s *Service) AccountByID(ctx context.Context, id int64) (*social.Account, error) {
	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get instagram account", err)
	}
	return acc, nil
}

func (s *Service) AccountByUserID(ctx context.Context, userID int64) (*social.Account, error) {
	acc, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get instagram account", err)
	}
	return acc, nil
}

// RefreshExpiring renews every token expiring within the window and returns
// how many were refreshed. Per-account failures are logged and skipped.
func (s *Service) RefreshExpiring(ctx context.Context, within time.Duration) (int, error) {
	accounts, err := s.repo.ListExpiring(ctx, s.now().Add(within))
	if err != nil {
		return 0, apperrors.NewDatabaseError("list expiring accounts", err)
	}
	refreshed := 0
	for i := range accounts {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		acc := &accounts[i]
		if err := s.refresh(ctx, acc); err != nil {
			s.log.Error().Err(err).Int64("account_id", acc.ID).Str("username", acc.Username).Msg("Failed to refresh Instagram token")
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

package account

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	apperrors "insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/common/logger"
	"insta-giveaway-backend/internal/common/validation"
	"insta-giveaway-backend/internal/domain/account"
)

// UserCache is the cache-aside store for authenticated users.
type UserCache interface {
	Set(ctx context.Context, u *account.User) error
	GetByID(ctx context.Context, id int64) (*account.User, error)
	GetByEmail(ctx context.Context, email string) (*account.User, error)
	Invalidate(ctx context.Context, u *account.User) error
}

// Service resolves bearer tokens to users and manages profiles.
type Service struct {
	repo  account.Repository
	cache UserCache
	log   zerolog.Logger
}

// NewService builds the service. cache may be nil.
func NewService(repo account.Repository, cache UserCache) *Service {
	return &Service{repo: repo, cache: cache, log: logger.Component("account")}
}

// Authenticate maps a bearer token to a user by its email claim.
//
// The token signature is NOT verified: the identity provider in front of the
// API is trusted to have done so. Keep every use of the claim inside this
// function.
func (s *Service) Authenticate(ctx context.Context, token string) (*account.User, error) {
	email, ok := emailFromToken(token)
	if !ok {
		return nil, apperrors.NewUnauthorizedError("invalid token")
	}
	u, err := s.byEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperrors.NewUnauthorizedError("user not found")
	}
	if !u.IsActive {
		return nil, apperrors.New(apperrors.ErrCodeUserInactive, "User account is disabled")
	}
	return u, nil
}

func emailFromToken(token string) (string, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", false
	}
	email, _ := claims["email"].(string)
	email = strings.TrimSpace(email)
	return email, email != ""
}

func (s *Service) byEmail(ctx context.Context, email string) (*account.User, error) {
	if s.cache != nil {
		if u, err := s.cache.GetByEmail(ctx, email); err == nil && u != nil {
			return u, nil
		} else if err != nil {
			s.log.Warn().Err(err).Msg("User cache read failed")
		}
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get user by email", err)
	}
	if u != nil && s.cache != nil {
		if err := s.cache.Set(ctx, u); err != nil {
			s.log.Warn().Err(err).Int64("user_id", u.ID).Msg("User cache write failed")
		}
	}
	return u, nil
}

// RegisterSSO creates or updates the user behind an SSO login.
func (s *Service) RegisterSSO(ctx context.Context, reg account.SSORegistration) (*account.User, error) {
	reg.Email = strings.TrimSpace(strings.ToLower(reg.Email))
	if reg.Email == "" {
		return nil, apperrors.NewValidationError("email", "email is required")
	}
	if reg.Provider == "" {
		return nil, apperrors.NewValidationError("provider", "provider is required")
	}
	if err := validation.ValidateFirstName(reg.FirstName); err != nil {
		return nil, apperrors.NewValidationError("first_name", err.Error())
	}
	if err := validation.ValidateLastName(reg.LastName); err != nil {
		return nil, apperrors.NewValidationError("last_name", err.Error())
	}

	u, err := s.repo.RegisterSSO(ctx, reg)
	if err != nil {
		return nil, apperrors.NewDatabaseError("register sso user", err)
	}
	s.invalidate(ctx, u)
	s.log.Info().Int64("user_id", u.ID).Str("provider", reg.Provider).Msg("SSO user registered")
	return s.GetMe(ctx, u)
}

// GetMe returns u with its profile attached.
func (s *Service) GetMe(ctx context.Context, u *account.User) (*account.User, error) {
	p, err := s.repo.GetProfile(ctx, u.ID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get profile", err)
	}
	out := *u
	if p == nil {
		p = &account.Profile{UserID: u.ID}
	}
	out.Profile = p
	return &out, nil
}

// UpdateProfile applies a partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, u *account.User, patch account.ProfilePatch) (*account.User, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProfile(ctx, u.ID, patch); err != nil {
		return nil, apperrors.NewDatabaseError("update profile", err)
	}
	s.invalidate(ctx, u)

	fresh, err := s.repo.GetByID(ctx, u.ID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get user", err)
	}
	if fresh == nil {
		return nil, apperrors.New(apperrors.ErrCodeUserNotFound, "User not found")
	}
	return s.GetMe(ctx, fresh)
}

func validatePatch(p account.ProfilePatch) error {
	if p.FirstName != nil {
		if err := validation.ValidateFirstName(*p.FirstName); err != nil {
			return apperrors.NewValidationError("first_name", err.Error())
		}
	}
	if p.LastName != nil {
		if err := validation.ValidateLastName(*p.LastName); err != nil {
			return apperrors.NewValidationError("last_name", err.Error())
		}
	}
	if p.DisplayName != nil {
		if err := validation.ValidateDisplayName(*p.DisplayName); err != nil {
			return apperrors.NewValidationError("display_name", err.Error())
		}
	}
	if p.Bio != nil {
		if err := validation.ValidateBio(*p.Bio); err != nil {
			return apperrors.NewValidationError("bio", err.Error())
		}
	}
	if p.Website != nil {
		if err := validation.ValidateURL(*p.Website); err != nil {
			return apperrors.NewValidationError("website", err.Error())
		}
	}
	return nil
}

// List returns every user to staff and only the caller otherwise.
func (s *Service) List(ctx context.Context, u *account.User, limit, offset int) ([]account.User, error) {
	if !u.IsStaff {
		return []account.User{*u}, nil
	}
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list users", err)
	}
	return users, nil
}

func (s *Service) invalidate(ctx context.Context, u *account.User) {
	if s.cache == nil || u == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, u); err != nil {
		s.log.Warn().Err(err).Int64("user_id", u.ID).Msg("User cache invalidation failed")
	}
}

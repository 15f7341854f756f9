package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"insta-giveaway-backend/internal/domain/account"
)

// UserRepository stores users and their profiles.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository { return &UserRepository{db: db} }

const userColumns = `id, username, email, first_name, last_name, is_staff, is_active, created_at, updated_at`

// GetByID returns a user or nil if not found.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*account.User, error) {
	var u account.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id=$1`, id); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail matches case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	var u account.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1)`, strings.TrimSpace(email))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetProfile returns the profile with the derived Instagram flag. A user
// without a profile row gets an empty profile.
func (r *UserRepository) GetProfile(ctx context.Context, userID int64) (*account.Profile, error) {
	const q = `
	SELECT u.id AS user_id,
	       COALESCE(p.display_name, '') AS display_name,
	       COALESCE(p.bio, '') AS bio,
	       COALESCE(p.website, '') AS website,
	       COALESCE(p.auth_provider, '') AS auth_provider,
	       COALESCE(p.provider_user_id, '') AS provider_user_id,
	       COALESCE(p.provider_profile_url, '') AS provider_profile_url,
	       COALESCE(p.provider_image_url, '') AS provider_image_url,
	       COALESCE(p.last_login_provider, '') AS last_login_provider,
	       COALESCE(p.auth_token, '') AS auth_token,
	       COALESCE(p.created_at, u.created_at) AS created_at,
	       COALESCE(p.updated_at, u.updated_at) AS updated_at,
	       EXISTS (SELECT 1 FROM instagram_accounts ia WHERE ia.user_id = u.id) AS has_instagram_connected
	FROM users u
	LEFT JOIN user_profiles p ON p.user_id = u.id
	WHERE u.id = $1`
	var p account.Profile
	if err := r.db.GetContext(ctx, &p, q, userID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// List returns users ordered by id.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]account.User, error) {
	l, o := clampPage(limit, offset)
	q, args, err := psql.Select(userColumns).From("users").OrderBy("id").Limit(l).Offset(o).ToSql()
	if err != nil {
		return nil, err
	}
	var out []account.User
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterSSO upserts the user by email and records provider details on the
// profile in one transaction.
func (r *UserRepository) RegisterSSO(ctx context.Context, reg account.SSORegistration) (*account.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const qUser = `
	INSERT INTO users (username, email, first_name, last_name)
	VALUES ($1, lower($2), $3, $4)
	ON CONFLICT (email) DO UPDATE SET
		first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), users.first_name),
		last_name  = COALESCE(NULLIF(EXCLUDED.last_name, ''), users.last_name),
		updated_at = now()
	RETURNING ` + userColumns
	var u account.User
	if err = tx.GetContext(ctx, &u, qUser, reg.Username, reg.Email, reg.FirstName, reg.LastName); err != nil {
		return nil, err
	}

	const qProfile = `
	INSERT INTO user_profiles (user_id, auth_provider, provider_user_id, provider_profile_url, provider_image_url, last_login_provider, auth_token)
	VALUES ($1, $2, $3, $4, $5, $2, $6)
	ON CONFLICT (user_id) DO UPDATE SET
		auth_provider        = EXCLUDED.auth_provider,
		provider_user_id     = COALESCE(NULLIF(EXCLUDED.provider_user_id, ''), user_profiles.provider_user_id),
		provider_profile_url = COALESCE(NULLIF(EXCLUDED.provider_profile_url, ''), user_profiles.provider_profile_url),
		provider_image_url   = COALESCE(NULLIF(EXCLUDED.provider_image_url, ''), user_profiles.provider_image_url),
		last_login_provider  = EXCLUDED.last_login_provider,
		auth_token           = EXCLUDED.auth_token,
		updated_at           = now()`
	if _, err = tx.ExecContext(ctx, qProfile, u.ID, reg.Provider, reg.ProviderUserID, reg.ProviderProfileURL, reg.ProviderImageURL, reg.AuthToken); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile applies a partial update to users and user_profiles.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, patch account.ProfilePatch) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if patch.FirstName != nil || patch.LastName != nil {
		q := psql.Update("users").Set("updated_at", squirrelNow).Where("id = ?", userID)
		if patch.FirstName != nil {
			q = q.Set("first_name", *patch.FirstName)
		}
		if patch.LastName != nil {
			q = q.Set("last_name", *patch.LastName)
		}
		var sqlStr string
		var args []interface{}
		if sqlStr, args, err = q.ToSql(); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO user_profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return err
	}

	if patch.DisplayName != nil || patch.Bio != nil || patch.Website != nil {
		q := psql.Update("user_profiles").Set("updated_at", squirrelNow).Where("user_id = ?", userID)
		if patch.DisplayName != nil {
			q = q.Set("display_name", *patch.DisplayName)
		}
		if patch.Bio != nil {
			q = q.Set("bio", *patch.Bio)
		}
		if patch.Website != nil {
			q = q.Set("website", *patch.Website)
		}
		var sqlStr string
		var args []interface{}
		if sqlStr, args, err = q.ToSql(); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}

	err = tx.Commit()
	return err
}

package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"insta-giveaway-backend/internal/domain/social"
)

// SocialRepository stores linked Instagram accounts, interactions and media.
type SocialRepository struct {
	db *sqlx.DB
}

func NewSocialRepository(db *sqlx.DB) *SocialRepository { return &SocialRepository{db: db} }

const accountColumns = `id, user_id, instagram_user_id, username, access_token, token_type, expires_at, created_at, updated_at`

func (r *SocialRepository) GetByUserID(ctx context.Context, userID int64) (*social.Account, error) {
	var a social.Account
	if err := r.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM instagram_accounts WHERE user_id=$1`, userID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *SocialRepository) GetByID(ctx context.Context, id int64) (*social.Account, error) {
	var a social.Account
	if err := r.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM instagram_accounts WHERE id=$1`, id); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// Upsert links (or relinks) the user's account and fills a.ID.
func (r *SocialRepository) Upsert(ctx context.Context, a *social.Account) error {
	const q = `
	INSERT INTO instagram_accounts (user_id, instagram_user_id, username, access_token, token_type, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (user_id) DO UPDATE SET
		instagram_user_id = EXCLUDED.instagram_user_id,
		username = EXCLUDED.username,
		access_token = EXCLUDED.access_token,
		token_type = EXCLUDED.token_type,
		expires_at = EXCLUDED.expires_at,
		updated_at = now()
	RETURNING id, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, a.UserID, a.InstagramUserID, a.Username, a.AccessToken, a.TokenType, a.ExpiresAt).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *SocialRepository) SaveToken(ctx context.Context, a *social.Account) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE instagram_accounts SET access_token=$2, token_type=$3, expires_at=$4, updated_at=now() WHERE id=$1`,
		a.ID, a.AccessToken, a.TokenType, a.ExpiresAt)
	return err
}

func (r *SocialRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM instagram_accounts WHERE user_id=$1`, userID)
	return err
}

// ListExpiring returns accounts holding a token that expires before the
// given time.
func (r *SocialRepository) ListExpiring(ctx context.Context, before time.Time) ([]social.Account, error) {
	var out []social.Account
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+accountColumns+` FROM instagram_accounts
		 WHERE access_token <> '' AND expires_at IS NOT NULL AND expires_at > now() AND expires_at < $1
		 ORDER BY expires_at`, before)
	return out, err
}

// UpsertInteraction marks the interaction verified, creating it on first use.
func (r *SocialRepository) UpsertInteraction(ctx context.Context, i *social.Interaction) error {
	const q = `
	INSERT INTO instagram_interactions (account_id, target_username, target_media_id, interaction_type, verified, verified_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (account_id, target_username, target_media_id, interaction_type) DO UPDATE SET
		verified = EXCLUDED.verified,
		verified_at = COALESCE(instagram_interactions.verified_at, EXCLUDED.verified_at),
		updated_at = now()
	RETURNING id, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, i.AccountID, i.TargetUsername, i.TargetMediaID, i.Type, i.Verified, i.VerifiedAt).
		Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
}

func (r *SocialRepository) CountVerifiedInteractions(ctx context.Context, accountID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM instagram_interactions WHERE account_id=$1 AND verified`, accountID)
	return n, err
}

// UpsertMedia writes the batch in one transaction.
func (r *SocialRepository) UpsertMedia(ctx context.Context, items []social.Media) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const q = `
	INSERT INTO instagram_media_cache (media_id, account_id, media_type, permalink, caption, like_count, comments_count, timestamp, raw_data)
	VALUES (:media_id, :account_id, :media_type, :permalink, :caption, :like_count, :comments_count, :timestamp, :raw_data)
	ON CONFLICT (media_id) DO UPDATE SET
		media_type = EXCLUDED.media_type,
		permalink = EXCLUDED.permalink,
		caption = EXCLUDED.caption,
		like_count = EXCLUDED.like_count,
		comments_count = EXCLUDED.comments_count,
		timestamp = EXCLUDED.timestamp,
		raw_data = EXCLUDED.raw_data,
		updated_at = now()`
	for i := range items {
		if _, err = tx.NamedExecContext(ctx, q, &items[i]); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

func (r *SocialRepository) ListMedia(ctx context.Context, accountID int64) ([]social.Media, error) {
	var out []social.Media
	err := r.db.SelectContext(ctx, &out, `
	SELECT media_id, account_id, media_type, permalink, caption, like_count, comments_count, timestamp, raw_data, updated_at
	FROM instagram_media_cache WHERE account_id=$1 ORDER BY timestamp DESC`, accountID)
	return out, err
}

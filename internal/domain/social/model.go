package social

import (
	"time"

	"insta-giveaway-backend/internal/domain/jsonb"
)

// Account is the Instagram account linked to a local user (one per user).
type Account struct {
	ID              int64      `json:"id" db:"id"`
	UserID          int64      `json:"user_id" db:"user_id"`
	InstagramUserID string     `json:"instagram_user_id" db:"instagram_user_id"`
	Username        string     `json:"username" db:"username"`
	AccessToken     string     `json:"-" db:"access_token"`
	TokenType       string     `json:"token_type" db:"token_type"`
	ExpiresAt       *time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// IsTokenValid is true iff a token is present and it expires after now.
func (a *Account) IsTokenValid(now time.Time) bool {
	if a == nil || a.AccessToken == "" || a.ExpiresAt == nil {
		return false
	}
	return a.ExpiresAt.After(now)
}

// UpdateToken replaces the token; expiresIn is in seconds.
func (a *Account) UpdateToken(accessToken, tokenType string, expiresIn int64, now time.Time) {
	a.AccessToken = accessToken
	if tokenType != "" {
		a.TokenType = tokenType
	}
	exp := now.Add(time.Duration(expiresIn) * time.Second)
	a.ExpiresAt = &exp
	a.UpdatedAt = now
}

// InteractionType enumerates recorded interaction checks.
type InteractionType string

const (
	InteractionFollow  InteractionType = "follow"
	InteractionLike    InteractionType = "like"
	InteractionComment InteractionType = "comment"
	InteractionTag     InteractionType = "tag"
)

// Interaction records that a check for account -> target was performed.
type Interaction struct {
	ID             int64           `json:"id" db:"id"`
	AccountID      int64           `json:"instagram_account" db:"account_id"`
	TargetUsername string          `json:"target_username" db:"target_username"`
	TargetMediaID  string          `json:"target_media_id" db:"target_media_id"`
	Type           InteractionType `json:"interaction_type" db:"interaction_type"`
	Verified       bool            `json:"verified" db:"verified"`
	VerifiedAt     *time.Time      `json:"verified_at" db:"verified_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// Media is a cached item of an account's media feed.
type Media struct {
	MediaID       string    `json:"id" db:"media_id"`
	AccountID     int64     `json:"-" db:"account_id"`
	MediaType     string    `json:"media_type" db:"media_type"`
	Permalink     string    `json:"permalink" db:"permalink"`
	Caption       string    `json:"caption" db:"caption"`
	LikeCount     int       `json:"like_count" db:"like_count"`
	CommentsCount int       `json:"comments_count" db:"comments_count"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
	RawData       jsonb.Map `json:"raw_data" db:"raw_data"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

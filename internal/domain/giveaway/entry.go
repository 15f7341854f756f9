package giveaway

import (
	"time"

	"insta-giveaway-backend/internal/domain/jsonb"
)

// VerificationStatus is the state of an entry's rule checks.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationFailed   VerificationStatus = "failed"
)

// Entry is a submission of an Instagram handle into a giveaway. The pair
// (GiveawayID, InstagramUsername) is unique.
type Entry struct {
	ID                  string             `json:"id" db:"id"`
	GiveawayID          string             `json:"giveaway" db:"giveaway_id"`
	InstagramUsername   string             `json:"instagram_username" db:"instagram_username"`
	InstagramAccountID  *int64             `json:"instagram_account,omitempty" db:"instagram_account_id"`
	VerificationStatus  VerificationStatus `json:"verification_status" db:"verification_status"`
	VerificationDetails jsonb.Map          `json:"verification_details" db:"verification_details"`
	VerifiedAt          *time.Time         `json:"verified_at" db:"verified_at"`
	CreatedAt           time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at" db:"updated_at"`
}

// MarkVerified merges details into the bag and stamps verified_at.
func (e *Entry) MarkVerified(details map[string]interface{}, now time.Time) {
	e.VerificationStatus = VerificationVerified
	e.VerifiedAt = &now
	e.VerificationDetails.Merge(details)
	e.UpdatedAt = now
}

// MarkFailed merges details into the bag. verified_at is left as is.
func (e *Entry) MarkFailed(details map[string]interface{}, now time.Time) {
	e.VerificationStatus = VerificationFailed
	e.VerificationDetails.Merge(details)
	e.UpdatedAt = now
}

// IsVerified is true once the entry passed its checks.
func (e *Entry) IsVerified() bool {
	return e.VerificationStatus == VerificationVerified
}

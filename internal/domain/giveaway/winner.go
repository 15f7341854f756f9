package giveaway

import "time"

// Winner links a verified entry to its giveaway. EntryID is unique, so an
// entry wins at most once.
type Winner struct {
	ID           string     `json:"id" db:"id"`
	GiveawayID   string     `json:"giveaway" db:"giveaway_id"`
	EntryID      string     `json:"entry" db:"entry_id"`
	SelectedAt   time.Time  `json:"selected_at" db:"selected_at"`
	Contacted    bool       `json:"contacted" db:"contacted"`
	ContactedAt  *time.Time `json:"contacted_at" db:"contacted_at"`
	PrizeClaimed bool       `json:"prize_claimed" db:"prize_claimed"`
	ClaimedAt    *time.Time `json:"claimed_at" db:"claimed_at"`
	Notes        string     `json:"notes" db:"notes"`

	InstagramUsername string `json:"instagram_username,omitempty" db:"instagram_username"`
}

func (w *Winner) MarkContacted(now time.Time) {
	w.Contacted = true
	w.ContactedAt = &now
}

func (w *Winner) MarkClaimed(now time.Time) {
	w.PrizeClaimed = true
	w.ClaimedAt = &now
}

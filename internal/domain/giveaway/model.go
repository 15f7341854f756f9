package giveaway

import "time"

// GiveawayStatus represents the lifecycle state of a giveaway.
type GiveawayStatus string

const (
	GiveawayStatusDraft  GiveawayStatus = "draft"
	GiveawayStatusActive GiveawayStatus = "active"
	GiveawayStatusPaused GiveawayStatus = "paused"
	GiveawayStatusEnded  GiveawayStatus = "ended"
)

// Valid reports whether s is a known status.
func (s GiveawayStatus) Valid() bool {
	switch s {
	case GiveawayStatusDraft, GiveawayStatusActive, GiveawayStatusPaused, GiveawayStatusEnded:
		return true
	}
	return false
}

// Giveaway is a campaign created by a user. The Verify* flags select which
// Instagram checks an entry has to pass.
type Giveaway struct {
	ID               string         `json:"id" db:"id"`
	Title            string         `json:"title" db:"title"`
	Slug             string         `json:"slug" db:"slug"`
	Description      string         `json:"description" db:"description"`
	PrizeDescription string         `json:"prize_description" db:"prize_description"`
	StartDate        time.Time      `json:"start_date" db:"start_date"`
	EndDate          time.Time      `json:"end_date" db:"end_date"`
	Status           GiveawayStatus `json:"status" db:"status"`
	WinnerCount      int            `json:"winner_count" db:"winner_count"`

	VerifyFollow  bool `json:"verify_follow" db:"verify_follow"`
	VerifyLike    bool `json:"verify_like" db:"verify_like"`
	VerifyComment bool `json:"verify_comment" db:"verify_comment"`
	VerifyTags    bool `json:"verify_tags" db:"verify_tags"`

	AccountToFollow  string `json:"instagram_account_to_follow" db:"instagram_account_to_follow"`
	PostToLike       string `json:"instagram_post_to_like" db:"instagram_post_to_like"`
	PostToComment    string `json:"instagram_post_to_comment" db:"instagram_post_to_comment"`
	RequiredTagCount int    `json:"required_tag_count" db:"required_tag_count"`

	CreatedBy int64     `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Read-side counters filled by list/get queries.
	EntryCount         int `json:"entry_count" db:"entry_count"`
	VerifiedEntryCount int `json:"verified_entry_count" db:"verified_entry_count"`
	SelectedWinners    int `json:"selected_winner_count" db:"selected_winner_count"`
}

// IsActive reports whether entries are accepted at now: the status must be
// active and now must fall inside [StartDate, EndDate].
func (g *Giveaway) IsActive(now time.Time) bool {
	if g.Status != GiveawayStatusActive {
		return false
	}
	return !now.Before(g.StartDate) && !now.After(g.EndDate)
}

// IsEnded reports whether winners may be drawn.
func (g *Giveaway) IsEnded() bool {
	return g.Status == GiveawayStatusEnded
}

// CanManage reports whether the user may edit the giveaway and act on its
// entries, winners and rules.
func (g *Giveaway) CanManage(userID int64, staff bool) bool {
	return staff || g.CreatedBy == userID
}

// IsPublic reports whether non-owners may see the giveaway.
func (g *Giveaway) IsPublic() bool {
	return g.Status == GiveawayStatusActive || g.Status == GiveawayStatusEnded
}

// Patch is a partial update of a giveaway; nil fields are kept.
type Patch struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	PrizeDescription *string    `json:"prize_description"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	WinnerCount      *int       `json:"winner_count"`
	VerifyFollow     *bool      `json:"verify_follow"`
	VerifyLike       *bool      `json:"verify_like"`
	VerifyComment    *bool      `json:"verify_comment"`
	VerifyTags       *bool      `json:"verify_tags"`
	AccountToFollow  *string    `json:"instagram_account_to_follow"`
	PostToLike       *string    `json:"instagram_post_to_like"`
	PostToComment    *string    `json:"instagram_post_to_comment"`
	RequiredTagCount *int       `json:"required_tag_count"`
}

// Apply copies the set fields of p onto g and returns the names of the
// changed fields.
func (p Patch) Apply(g *Giveaway) []string {
	var changed []string
	setStr := func(name string, dst *string, v *string) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = append(changed, name)
		}
	}
	setBool := func(name string, dst *bool, v *bool) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = append(changed, name)
		}
	}
	setInt := func(name string, dst *int, v *int) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = append(changed, name)
		}
	}
	setTime := func(name string, dst *time.Time, v *time.Time) {
		if v != nil && !dst.Equal(*v) {
			*dst = *v
			changed = append(changed, name)
		}
	}

	setStr("title", &g.Title, p.Title)
	setStr("description", &g.Description, p.Description)
	setStr("prize_description", &g.PrizeDescription, p.PrizeDescription)
	setTime("start_date", &g.StartDate, p.StartDate)
	setTime("end_date", &g.EndDate, p.EndDate)
	setInt("winner_count", &g.WinnerCount, p.WinnerCount)
	setBool("verify_follow", &g.VerifyFollow, p.VerifyFollow)
	setBool("verify_like", &g.VerifyLike, p.VerifyLike)
	setBool("verify_comment", &g.VerifyComment, p.VerifyComment)
	setBool("verify_tags", &g.VerifyTags, p.VerifyTags)
	setStr("instagram_account_to_follow", &g.AccountToFollow, p.AccountToFollow)
	setStr("instagram_post_to_like", &g.PostToLike, p.PostToLike)
	setStr("instagram_post_to_comment", &g.PostToComment, p.PostToComment)
	setInt("required_tag_count", &g.RequiredTagCount, p.RequiredTagCount)
	return changed
}

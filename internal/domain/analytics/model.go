package analytics

import (
	"context"
	"time"
)

// OverviewStats is a per-user snapshot, recomputed when stale.
type OverviewStats struct {
	UserID            int64     `json:"-" db:"user_id"`
	TotalGiveaways    int       `json:"total_giveaways" db:"total_giveaways"`
	ActiveGiveaways   int       `json:"active_giveaways" db:"active_giveaways"`
	TotalParticipants int       `json:"total_participants" db:"total_participants"`
	TotalEngagement   int       `json:"total_engagement" db:"total_engagement"`
	CompletionRate    float64   `json:"completion_rate" db:"completion_rate"`
	LastUpdated       time.Time `json:"last_updated" db:"last_updated"`
}

// ActivityPoint is one day of a creator's activity.
type ActivityPoint struct {
	Date           time.Time `json:"date" db:"day"`
	Participants   int       `json:"participants" db:"participants"`
	Engagement     int       `json:"engagement" db:"engagement"`
	CompletionRate float64   `json:"completion_rate" db:"completion_rate"`
}

// Engagement counts interactions by kind.
type Engagement struct {
	Likes    int `json:"likes" db:"likes"`
	Comments int `json:"comments" db:"comments"`
	Shares   int `json:"shares" db:"shares"`
	Follows  int `json:"follows" db:"follows"`
	Tags     int `json:"tags" db:"tags"`
}

// Total is the sum of all kinds.
func (e Engagement) Total() int {
	return e.Likes + e.Comments + e.Shares + e.Follows + e.Tags
}

// TopGiveaway ranks a creator's giveaways by entries.
type TopGiveaway struct {
	ID            string `json:"id" db:"id"`
	Title         string `json:"title" db:"title"`
	Status        string `json:"status" db:"status"`
	EntryCount    int    `json:"entry_count" db:"entry_count"`
	VerifiedCount int    `json:"verified_count" db:"verified_count"`
}

// DailyDelta is applied to one (user, giveaway, day) bucket.
type DailyDelta struct {
	Participants int
	Verified     int
	Engagement   Engagement
}

type Repository interface {
	GetOverview(ctx context.Context, userID int64) (*OverviewStats, error)
	SaveOverview(ctx context.Context, s *OverviewStats) error
	ComputeOverview(ctx context.Context, userID int64) (*OverviewStats, error)

	Activity(ctx context.Context, userID int64, from, to time.Time) ([]ActivityPoint, error)
	EngagementSince(ctx context.Context, userID int64, since time.Time) (*Engagement, error)
	ApplyDelta(ctx context.Context, userID int64, giveawayID string, day time.Time, d DailyDelta) error

	TopGiveaways(ctx context.Context, userID int64, limit int) ([]TopGiveaway, error)
	CreatorIDs(ctx context.Context) ([]int64, error)
	CreatorOf(ctx context.Context, giveawayID string) (int64, error)
}

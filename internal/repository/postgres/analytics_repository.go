package postgres

import (
	"context"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"insta-giveaway-backend/internal/domain/analytics"
)

type AnalyticsRepository struct {
	db *sqlx.DB
}

func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository { return &AnalyticsRepository{db: db} }

func (r *AnalyticsRepository) GetOverview(ctx context.Context, userID int64) (*analytics.OverviewStats, error) {
	var s analytics.OverviewStats
	err := r.db.GetContext(ctx, &s, `
	SELECT user_id, total_giveaways, active_giveaways, total_participants, total_engagement, completion_rate, last_updated
	FROM analytics_overview WHERE user_id=$1`, userID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *AnalyticsRepository) SaveOverview(ctx context.Context, s *analytics.OverviewStats) error {
	_, err := r.db.NamedExecContext(ctx, `
	INSERT INTO analytics_overview (user_id, total_giveaways, active_giveaways, total_participants, total_engagement, completion_rate, last_updated)
	VALUES (:user_id, :total_giveaways, :active_giveaways, :total_participants, :total_engagement, :completion_rate, :last_updated)
	ON CONFLICT (user_id) DO UPDATE SET
		total_giveaways = EXCLUDED.total_giveaways,
		active_giveaways = EXCLUDED.active_giveaways,
		total_participants = EXCLUDED.total_participants,
		total_engagement = EXCLUDED.total_engagement,
		completion_rate = EXCLUDED.completion_rate,
		last_updated = EXCLUDED.last_updated`, s)
	return err
}

// ComputeOverview aggregates the creator's giveaways, entries and the
// verified interactions of the accounts behind those entries.
func (r *AnalyticsRepository) ComputeOverview(ctx context.Context, userID int64) (*analytics.OverviewStats, error) {
	var row struct {
		Total    int `db:"total"`
		Active   int `db:"active"`
		Entries  int `db:"entries"`
		Verified int `db:"verified"`
		Engaged  int `db:"engaged"`
	}
	const q = `
	SELECT
		(SELECT COUNT(*) FROM giveaways WHERE created_by = $1) AS total,
		(SELECT COUNT(*) FROM giveaways WHERE created_by = $1 AND status = 'active') AS active,
		(SELECT COUNT(*) FROM giveaway_entries e JOIN giveaways g ON g.id = e.giveaway_id WHERE g.created_by = $1) AS entries,
		(SELECT COUNT(*) FROM giveaway_entries e JOIN giveaways g ON g.id = e.giveaway_id
			WHERE g.created_by = $1 AND e.verification_status = 'verified') AS verified,
		(SELECT COUNT(*) FROM instagram_interactions i
			WHERE i.verified AND i.account_id IN (
				SELECT e.instagram_account_id FROM giveaway_entries e JOIN giveaways g ON g.id = e.giveaway_id
				WHERE g.created_by = $1 AND e.instagram_account_id IS NOT NULL)) AS engaged`
	if err := r.db.GetContext(ctx, &row, q, userID); err != nil {
		return nil, err
	}

	rate := 0.0
	if row.Entries > 0 {
		rate = math.Round(float64(row.Verified)/float64(row.Entries)*100*100) / 100
	}
	return &analytics.OverviewStats{
		UserID:            userID,
		TotalGiveaways:    row.Total,
		ActiveGiveaways:   row.Active,
		TotalParticipants: row.Entries,
		TotalEngagement:   row.Engaged,
		CompletionRate:    rate,
		LastUpdated:       time.Now().UTC(),
	}, nil
}

// Activity returns one point per day with data, inclusive of both bounds.
func (r *AnalyticsRepository) Activity(ctx context.Context, userID int64, from, to time.Time) ([]analytics.ActivityPoint, error) {
	var out []analytics.ActivityPoint
	err := r.db.SelectContext(ctx, &out, `
	SELECT day,
		SUM(participants) AS participants,
		SUM(likes + comments + shares + follows + tags) AS engagement,
		CASE WHEN SUM(participants) = 0 THEN 0
			ELSE ROUND(SUM(verified)::numeric * 100 / SUM(participants), 2)::float8 END AS completion_rate
	FROM analytics_daily
	WHERE user_id = $1 AND day BETWEEN $2::date AND $3::date
	GROUP BY day
	ORDER BY day`, userID, from, to)
	return out, err
}

func (r *AnalyticsRepository) EngagementSince(ctx context.Context, userID int64, since time.Time) (*analytics.Engagement, error) {
	var e analytics.Engagement
	err := r.db.GetContext(ctx, &e, `
	SELECT COALESCE(SUM(likes), 0) AS likes, COALESCE(SUM(comments), 0) AS comments, COALESCE(SUM(shares), 0) AS shares,
		COALESCE(SUM(follows), 0) AS follows, COALESCE(SUM(tags), 0) AS tags
	FROM analytics_daily WHERE user_id = $1 AND day >= $2::date`, userID, since)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ApplyDelta adds d to the (user, giveaway, day) bucket.
func (r *AnalyticsRepository) ApplyDelta(ctx context.Context, userID int64, giveawayID string, day time.Time, d analytics.DailyDelta) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO analytics_daily (user_id, giveaway_id, day, participants, verified, likes, comments, shares, follows, tags)
	VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (user_id, giveaway_id, day) DO UPDATE SET
		participants = analytics_daily.participants + EXCLUDED.participants,
		verified = analytics_daily.verified + EXCLUDED.verified,
		likes = analytics_daily.likes + EXCLUDED.likes,
		comments = analytics_daily.comments + EXCLUDED.comments,
		shares = analytics_daily.shares + EXCLUDED.shares,
		follows = analytics_daily.follows + EXCLUDED.follows,
		tags = analytics_daily.tags + EXCLUDED.tags`,
		userID, giveawayID, day, d.Participants, d.Verified,
		d.Engagement.Likes, d.Engagement.Comments, d.Engagement.Shares, d.Engagement.Follows, d.Engagement.Tags)
	return err
}

func (r *AnalyticsRepository) TopGiveaways(ctx context.Context, userID int64, limit int) ([]analytics.TopGiveaway, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	var out []analytics.TopGiveaway
	err := r.db.SelectContext(ctx, &out, `
	SELECT g.id, g.title, g.status,
		COUNT(e.id) AS entry_count,
		COUNT(e.id) FILTER (WHERE e.verification_status = 'verified') AS verified_count
	FROM giveaways g
	LEFT JOIN giveaway_entries e ON e.giveaway_id = g.id
	WHERE g.created_by = $1
	GROUP BY g.id
	ORDER BY entry_count DESC, g.created_at DESC
	LIMIT $2`, userID, limit)
	return out, err
}

func (r *AnalyticsRepository) CreatorIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT created_by FROM giveaways ORDER BY created_by`)
	return ids, err
}

// CreatorOf returns 0 when the giveaway no longer exists.
func (r *AnalyticsRepository) CreatorOf(ctx context.Context, giveawayID string) (int64, error) {
	var id int64
	if err := r.db.GetContext(ctx, &id, `SELECT created_by FROM giveaways WHERE id=$1`, giveawayID); err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, err
	}
	return id, nil
}

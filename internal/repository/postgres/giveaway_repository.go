package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	dg "insta-giveaway-backend/internal/domain/giveaway"
)

// GiveawayRepository persists giveaways.
type GiveawayRepository struct {
	db *sqlx.DB
}

func NewGiveawayRepository(db *sqlx.DB) *GiveawayRepository { return &GiveawayRepository{db: db} }

const giveawayColumns = `g.id, g.title, g.slug, g.description, g.prize_description, g.start_date, g.end_date,
	g.status, g.winner_count, g.verify_follow, g.verify_like, g.verify_comment, g.verify_tags,
	g.instagram_account_to_follow, g.instagram_post_to_like, g.instagram_post_to_comment,
	g.required_tag_count, g.created_by, g.created_at, g.updated_at`

const giveawayCounters = `
	(SELECT COUNT(*) FROM giveaway_entries e WHERE e.giveaway_id = g.id) AS entry_count,
	(SELECT COUNT(*) FROM giveaway_entries e WHERE e.giveaway_id = g.id AND e.verification_status = 'verified') AS verified_entry_count,
	(SELECT COUNT(*) FROM giveaway_winners w WHERE w.giveaway_id = g.id) AS selected_winner_count`

// orderings whitelists the ?ordering= values accepted by List.
var orderings = map[string]string{
	"created_at":  "g.created_at ASC",
	"-created_at": "g.created_at DESC",
	"start_date":  "g.start_date ASC",
	"-start_date": "g.start_date DESC",
	"end_date":    "g.end_date ASC",
	"-end_date":   "g.end_date DESC",
	"title":       "g.title ASC",
	"-title":      "g.title DESC",
}

func (r *GiveawayRepository) Create(ctx context.Context, g *dg.Giveaway) error {
	const q = `
	INSERT INTO giveaways (id, title, slug, description, prize_description, start_date, end_date, status, winner_count,
		verify_follow, verify_like, verify_comment, verify_tags,
		instagram_account_to_follow, instagram_post_to_like, instagram_post_to_comment, required_tag_count,
		created_by, created_at, updated_at)
	VALUES (:id, :title, :slug, :description, :prize_description, :start_date, :end_date, :status, :winner_count,
		:verify_follow, :verify_like, :verify_comment, :verify_tags,
		:instagram_account_to_follow, :instagram_post_to_like, :instagram_post_to_comment, :required_tag_count,
		:created_by, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, q, g)
	return err
}

// GetByID returns the giveaway with counters, or nil if not found.
func (r *GiveawayRepository) GetByID(ctx context.Context, id string) (*dg.Giveaway, error) {
	q := `SELECT ` + giveawayColumns + `,` + giveawayCounters + ` FROM giveaways g WHERE g.id = $1`
	var g dg.Giveaway
	if err := r.db.GetContext(ctx, &g, q, id); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// Update writes every mutable column.
func (r *GiveawayRepository) Update(ctx context.Context, g *dg.Giveaway) error {
	const q = `
	UPDATE giveaways SET
		title = :title, description = :description, prize_description = :prize_description,
		start_date = :start_date, end_date = :end_date, status = :status, winner_count = :winner_count,
		verify_follow = :verify_follow, verify_like = :verify_like, verify_comment = :verify_comment, verify_tags = :verify_tags,
		instagram_account_to_follow = :instagram_account_to_follow, instagram_post_to_like = :instagram_post_to_like,
		instagram_post_to_comment = :instagram_post_to_comment, required_tag_count = :required_tag_count,
		updated_at = :updated_at
	WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, q, g)
	return err
}

func (r *GiveawayRepository) UpdateStatus(ctx context.Context, id string, status dg.GiveawayStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE giveaways SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	return err
}

func (r *GiveawayRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM giveaways WHERE id=$1`, id)
	return err
}

// List applies visibility, filters, search and ordering.
func (r *GiveawayRepository) List(ctx context.Context, f dg.ListFilter) ([]dg.Giveaway, error) {
	sqlStr, args, err := giveawayListQuery(f).ToSql()
	if err != nil {
		return nil, err
	}
	var out []dg.Giveaway
	if err := r.db.SelectContext(ctx, &out, sqlStr, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// giveawayListQuery: staff see everything, others see active and ended
// giveaways plus their own.
func giveawayListQuery(f dg.ListFilter) squirrel.SelectBuilder {
	limit, offset := clampPage(f.Limit, f.Offset)
	q := psql.Select(giveawayColumns + "," + giveawayCounters).From("giveaways g")

	if !f.Viewer.IsStaff {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"g.status": []string{string(dg.GiveawayStatusActive), string(dg.GiveawayStatusEnded)}},
			squirrel.Eq{"g.created_by": f.Viewer.UserID},
		})
	}
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"g.status": f.Status})
	}
	if f.CreatedBy != nil {
		q = q.Where(squirrel.Eq{"g.created_by": *f.CreatedBy})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + s + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"g.title": pattern},
			squirrel.ILike{"g.description": pattern},
		})
	}
	order, ok := orderings[f.Ordering]
	if !ok {
		order = orderings["-created_at"]
	}
	return q.OrderBy(order).Limit(limit).Offset(offset)
}

// ListExpiredActive returns active giveaways whose end_date is before now.
func (r *GiveawayRepository) ListExpiredActive(ctx context.Context, now time.Time) ([]dg.Giveaway, error) {
	q := `SELECT ` + giveawayColumns + ` FROM giveaways g WHERE g.status = 'active' AND g.end_date < $1 ORDER BY g.end_date LIMIT 500`
	var out []dg.Giveaway
	if err := r.db.SelectContext(ctx, &out, q, now); err != nil {
		return nil, err
	}
	return out, nil
}

package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	dg "insta-giveaway-backend/internal/domain/giveaway"
)

type EntryRepository struct {
	db *sqlx.DB
}

func NewEntryRepository(db *sqlx.DB) *EntryRepository { return &EntryRepository{db: db} }

const entryColumns = `e.id, e.giveaway_id, e.instagram_username, e.instagram_account_id, e.verification_status,
	e.verification_details, e.verified_at, e.created_at, e.updated_at`

// Create inserts a pending entry. A (giveaway, username) clash returns
// dg.ErrDuplicateEntry.
func (r *EntryRepository) Create(ctx context.Context, e *dg.Entry) error {
	const q = `
	INSERT INTO giveaway_entries (id, giveaway_id, instagram_username, instagram_account_id, verification_status, verification_details, verified_at, created_at, updated_at)
	VALUES (:id, :giveaway_id, :instagram_username, :instagram_account_id, :verification_status, :verification_details, :verified_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, e); err != nil {
		if isUniqueViolation(err, "uq_entry_giveaway_username") {
			return dg.ErrDuplicateEntry
		}
		return err
	}
	return nil
}

func (r *EntryRepository) GetByID(ctx context.Context, id string) (*dg.Entry, error) {
	var e dg.Entry
	if err := r.db.GetContext(ctx, &e, `SELECT `+entryColumns+` FROM giveaway_entries e WHERE e.id=$1`, id); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *EntryRepository) Exists(ctx context.Context, giveawayID, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM giveaway_entries WHERE giveaway_id=$1 AND instagram_username=$2)`, giveawayID, username)
	return exists, err
}

// Save persists the verification outcome.
func (r *EntryRepository) Save(ctx context.Context, e *dg.Entry) error {
	const q = `
	UPDATE giveaway_entries SET
		verification_status = :verification_status,
		verification_details = :verification_details,
		verified_at = :verified_at,
		instagram_account_id = :instagram_account_id,
		updated_at = :updated_at
	WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, q, e)
	return err
}

// List shows staff everything; others see entries of their own giveaways
// and entries submitted through their own Instagram account.
func (r *EntryRepository) List(ctx context.Context, f dg.EntryFilter) ([]dg.Entry, error) {
	sqlStr, args, err := entryListQuery(f).ToSql()
	if err != nil {
		return nil, err
	}
	var out []dg.Entry
	if err := r.db.SelectContext(ctx, &out, sqlStr, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func entryListQuery(f dg.EntryFilter) squirrel.SelectBuilder {
	limit, offset := clampPage(f.Limit, f.Offset)
	q := psql.Select(entryColumns).From("giveaway_entries e").Join("giveaways g ON g.id = e.giveaway_id")

	if !f.Viewer.IsStaff {
		visible := squirrel.Or{squirrel.Eq{"g.created_by": f.Viewer.UserID}}
		if f.Viewer.AccountID != nil {
			visible = append(visible, squirrel.Eq{"e.instagram_account_id": *f.Viewer.AccountID})
		}
		q = q.Where(visible)
	}
	if f.GiveawayID != "" {
		q = q.Where(squirrel.Eq{"e.giveaway_id": f.GiveawayID})
	}
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"e.verification_status": f.Status})
	}
	if f.AccountID != nil {
		q = q.Where(squirrel.Eq{"e.instagram_account_id": *f.AccountID})
	}
	return q.OrderBy("e.created_at DESC").Limit(limit).Offset(offset)
}

// ListByStatus returns all entries of a giveaway in the given state, oldest first.
func (r *EntryRepository) ListByStatus(ctx context.Context, giveawayID string, status dg.VerificationStatus) ([]dg.Entry, error) {
	var out []dg.Entry
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+entryColumns+` FROM giveaway_entries e WHERE e.giveaway_id=$1 AND e.verification_status=$2 ORDER BY e.created_at`,
		giveawayID, status)
	return out, err
}

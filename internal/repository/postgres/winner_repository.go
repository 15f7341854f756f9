package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	dg "insta-giveaway-backend/internal/domain/giveaway"
)

type WinnerRepository struct {
	db *sqlx.DB
}

func NewWinnerRepository(db *sqlx.DB) *WinnerRepository { return &WinnerRepository{db: db} }

const winnerColumns = `w.id, w.giveaway_id, w.entry_id, w.selected_at, w.contacted, w.contacted_at,
	w.prize_claimed, w.claimed_at, w.notes, e.instagram_username`

// GetOrCreate inserts w unless a winner for w.EntryID exists. The bool is
// true when a new row was written.
func (r *WinnerRepository) GetOrCreate(ctx context.Context, w *dg.Winner) (*dg.Winner, bool, error) {
	const q = `
	INSERT INTO giveaway_winners (id, giveaway_id, entry_id, selected_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (entry_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, q, w.ID, w.GiveawayID, w.EntryID, w.SelectedAt)
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	var out dg.Winner
	err = r.db.GetContext(ctx, &out,
		`SELECT `+winnerColumns+` FROM giveaway_winners w JOIN giveaway_entries e ON e.id = w.entry_id WHERE w.entry_id=$1`, w.EntryID)
	if err != nil {
		return nil, false, err
	}
	return &out, n > 0, nil
}

func (r *WinnerRepository) GetByID(ctx context.Context, id string) (*dg.Winner, error) {
	var w dg.Winner
	err := r.db.GetContext(ctx, &w,
		`SELECT `+winnerColumns+` FROM giveaway_winners w JOIN giveaway_entries e ON e.id = w.entry_id WHERE w.id=$1`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *WinnerRepository) Save(ctx context.Context, w *dg.Winner) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE giveaway_winners SET contacted=$2, contacted_at=$3, prize_claimed=$4, claimed_at=$5, notes=$6
	WHERE id=$1`, w.ID, w.Contacted, w.ContactedAt, w.PrizeClaimed, w.ClaimedAt, w.Notes)
	return err
}

// List shows staff everything; others see winners of their own giveaways and
// of ended giveaways.
func (r *WinnerRepository) List(ctx context.Context, f dg.WinnerFilter) ([]dg.Winner, error) {
	sqlStr, args, err := winnerListQuery(f).ToSql()
	if err != nil {
		return nil, err
	}
	var out []dg.Winner
	if err := r.db.SelectContext(ctx, &out, sqlStr, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func winnerListQuery(f dg.WinnerFilter) squirrel.SelectBuilder {
	limit, offset := clampPage(f.Limit, f.Offset)
	q := psql.Select(winnerColumns).
		From("giveaway_winners w").
		Join("giveaway_entries e ON e.id = w.entry_id").
		Join("giveaways g ON g.id = w.giveaway_id")

	if !f.Viewer.IsStaff {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"g.created_by": f.Viewer.UserID},
			squirrel.Eq{"g.status": string(dg.GiveawayStatusEnded)},
		})
	}
	if f.GiveawayID != "" {
		q = q.Where(squirrel.Eq{"w.giveaway_id": f.GiveawayID})
	}
	if f.Contacted != nil {
		q = q.Where(squirrel.Eq{"w.contacted": *f.Contacted})
	}
	if f.PrizeClaimed != nil {
		q = q.Where(squirrel.Eq{"w.prize_claimed": *f.PrizeClaimed})
	}
	return q.OrderBy("w.selected_at DESC").Limit(limit).Offset(offset)
}

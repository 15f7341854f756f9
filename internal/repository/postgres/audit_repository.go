package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"insta-giveaway-backend/internal/domain/audit"
)

// AuditRepository is insert/select only.
type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository { return &AuditRepository{db: db} }

func (r *AuditRepository) Append(ctx context.Context, l *audit.Log) error {
	q, args, err := psql.Insert("audit_logs").
		Columns("user_id", "action_type", "action_details", "object_id", "object_type", "timestamp", "ip_address").
		Values(l.UserID, l.ActionType, l.ActionDetails, l.ObjectID, l.ObjectType, l.Timestamp, l.IPAddress).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}
	return r.db.QueryRowxContext(ctx, q, args...).Scan(&l.ID)
}

func (r *AuditRepository) List(ctx context.Context, f audit.Filter) ([]audit.Log, error) {
	limit, offset := clampPage(f.Limit, f.Offset)
	q := psql.Select("id", "user_id", "action_type", "action_details", "object_id", "object_type", "timestamp", "ip_address").
		From("audit_logs")

	if f.ActionType != "" {
		q = q.Where(squirrel.Eq{"action_type": f.ActionType})
	}
	if f.ObjectType != "" {
		q = q.Where(squirrel.Eq{"object_type": f.ObjectType})
	}
	if f.ObjectID != "" {
		q = q.Where(squirrel.Eq{"object_id": f.ObjectID})
	}
	if f.UserID != nil {
		q = q.Where(squirrel.Eq{"user_id": *f.UserID})
	}
	if f.Since != nil {
		q = q.Where(squirrel.GtOrEq{"timestamp": *f.Since})
	}
	if f.Ascending {
		q = q.OrderBy("timestamp ASC", "id ASC")
	} else {
		q = q.OrderBy("timestamp DESC", "id DESC")
	}

	sqlStr, args, err := q.Limit(limit).Offset(offset).ToSql()
	if err != nil {
		return nil, err
	}
	var out []audit.Log
	if err := r.db.SelectContext(ctx, &out, sqlStr, args...); err != nil {
		return nil, err
	}
	return out, nil
}

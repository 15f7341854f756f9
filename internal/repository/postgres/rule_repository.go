package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	dg "insta-giveaway-backend/internal/domain/giveaway"
)

type RuleRepository struct {
	db *sqlx.DB
}

func NewRuleRepository(db *sqlx.DB) *RuleRepository { return &RuleRepository{db: db} }

const ruleColumns = `r.id, r.giveaway_id, r.name, r.rule_type, r.rule_params, r.is_required, r.created_at, r.updated_at`

func (r *RuleRepository) Create(ctx context.Context, rule *dg.Rule) error {
	_, err := r.db.NamedExecContext(ctx, `
	INSERT INTO verification_rules (id, giveaway_id, name, rule_type, rule_params, is_required, created_at, updated_at)
	VALUES (:id, :giveaway_id, :name, :rule_type, :rule_params, :is_required, :created_at, :updated_at)`, rule)
	return err
}

func (r *RuleRepository) GetByID(ctx context.Context, id string) (*dg.Rule, error) {
	var rule dg.Rule
	if err := r.db.GetContext(ctx, &rule, `SELECT `+ruleColumns+` FROM verification_rules r WHERE r.id=$1`, id); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepository) Update(ctx context.Context, rule *dg.Rule) error {
	_, err := r.db.NamedExecContext(ctx, `
	UPDATE verification_rules SET name=:name, rule_type=:rule_type, rule_params=:rule_params,
		is_required=:is_required, updated_at=:updated_at
	WHERE id=:id`, rule)
	return err
}

func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM verification_rules WHERE id=$1`, id)
	return err
}

// ListByGiveaway returns the rules in creation order.
func (r *RuleRepository) ListByGiveaway(ctx context.Context, giveawayID string) ([]dg.Rule, error) {
	var out []dg.Rule
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+ruleColumns+` FROM verification_rules r WHERE r.giveaway_id=$1 ORDER BY r.created_at`, giveawayID)
	return out, err
}

// List shows staff everything; others see rules of their own giveaways and
// of active or ended giveaways.
func (r *RuleRepository) List(ctx context.Context, f dg.RuleFilter) ([]dg.Rule, error) {
	sqlStr, args, err := ruleListQuery(f).ToSql()
	if err != nil {
		return nil, err
	}
	var out []dg.Rule
	if err := r.db.SelectContext(ctx, &out, sqlStr, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func ruleListQuery(f dg.RuleFilter) squirrel.SelectBuilder {
	q := psql.Select(ruleColumns).From("verification_rules r").Join("giveaways g ON g.id = r.giveaway_id")
	if !f.Viewer.IsStaff {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"g.created_by": f.Viewer.UserID},
			squirrel.Eq{"g.status": []string{string(dg.GiveawayStatusActive), string(dg.GiveawayStatusEnded)}},
		})
	}
	if f.GiveawayID != "" {
		q = q.Where(squirrel.Eq{"r.giveaway_id": f.GiveawayID})
	}
	return q.OrderBy("r.created_at")
}

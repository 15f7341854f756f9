package giveaway

import (
	"time"

	"insta-giveaway-backend/internal/domain/jsonb"
)

// Rule is a custom verification rule attached to a giveaway. Rule types are
// free-form; evaluation is not implemented and every rule passes.
type Rule struct {
	ID         string    `json:"id" db:"id"`
	GiveawayID string    `json:"giveaway" db:"giveaway_id"`
	Name       string    `json:"name" db:"name"`
	RuleType   string    `json:"rule_type" db:"rule_type"`
	RuleParams jsonb.Map `json:"rule_params" db:"rule_params"`
	IsRequired bool      `json:"is_required" db:"is_required"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ResultKey is the key under which the rule's outcome is stored in an
// entry's verification details.
func (r *Rule) ResultKey() string {
	return "custom_rule_" + r.ID
}

// RulePatch is a partial update of a rule.
type RulePatch struct {
	Name       *string                `json:"name"`
	RuleType   *string                `json:"rule_type"`
	RuleParams map[string]interface{} `json:"rule_params"`
	IsRequired *bool                  `json:"is_required"`
}

package giveaway

import (
	"context"
	"strings"

	"github.com/google/uuid"

	apperrors "insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/common/validation"
	"insta-giveaway-backend/internal/domain/audit"
	dg "insta-giveaway-backend/internal/domain/giveaway"
	"insta-giveaway-backend/internal/domain/jsonb"
)

// RuleInput is the body of a rule create request.
type RuleInput struct {
	GiveawayID string                 `json:"giveaway"`
	Name       string                 `json:"name"`
	RuleType   string                 `json:"rule_type"`
	RuleParams map[string]interface{} `json:"rule_params"`
	IsRequired *bool                  `json:"is_required"`
}

func (s *Service) loadRuleOwner(ctx context.Context, actor Actor, giveawayID string) (*dg.Giveaway, error) {
	g, err := s.load(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	if !g.CanManage(actor.UserID, actor.IsStaff) {
		return nil, apperrors.NewForbiddenError("You can only create rules for your own giveaways")
	}
	return g, nil
}

// CreateRule attaches a custom verification rule to a giveaway.
func (s *Service) CreateRule(ctx context.Context, actor Actor, in RuleInput) (*dg.Rule, error) {
	if err := validation.ValidateRuleName(in.Name); err != nil {
		return nil, apperrors.NewValidationError("name", err.Error())
	}
	if strings.TrimSpace(in.RuleType) == "" {
		return nil, apperrors.NewValidationError("rule_type", "rule_type is required")
	}
	g, err := s.loadRuleOwner(ctx, actor, in.GiveawayID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	r := &dg.Rule{
		ID:         uuid.NewString(),
		GiveawayID: g.ID,
		Name:       strings.TrimSpace(in.Name),
		RuleType:   strings.TrimSpace(in.RuleType),
		RuleParams: jsonb.Map(in.RuleParams),
		IsRequired: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if r.RuleParams == nil {
		r.RuleParams = jsonb.Map{}
	}
	if in.IsRequired != nil {
		r.IsRequired = *in.IsRequired
	}

	if err := s.rules.Create(ctx, r); err != nil {
		return nil, apperrors.NewDatabaseError("create rule", err)
	}

	s.record(ctx, actor, audit.ActionVerificationRuleCreated, audit.ObjectRule, r.ID, map[string]interface{}{
		"giveaway_id": g.ID,
		"rule_name":   r.Name,
		"rule_type":   r.RuleType,
	})
	return r, nil
}

// UpdateRule applies a partial update to a rule.
func (s *Service) UpdateRule(ctx context.Context, actor Actor, id string, patch dg.RulePatch) (*dg.Rule, error) {
	r, err := s.loadRule(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if err := validation.ValidateRuleName(*patch.Name); err != nil {
			return nil, apperrors.NewValidationError("name", err.Error())
		}
		r.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.RuleType != nil {
		if strings.TrimSpace(*patch.RuleType) == "" {
			return nil, apperrors.NewValidationError("rule_type", "rule_type is required")
		}
		r.RuleType = strings.TrimSpace(*patch.RuleType)
	}
	if patch.RuleParams != nil {
		r.RuleParams = jsonb.Map(patch.RuleParams)
	}
	if patch.IsRequired != nil {
		r.IsRequired = *patch.IsRequired
	}
	r.UpdatedAt = s.now()

	if err := s.rules.Update(ctx, r); err != nil {
		return nil, apperrors.NewDatabaseError("update rule", err)
	}

	s.record(ctx, actor, audit.ActionVerificationRuleUpdated, audit.ObjectRule, r.ID, map[string]interface{}{
		"giveaway_id": r.GiveawayID,
		"rule_name":   r.Name,
		"rule_type":   r.RuleType,
	})
	return r, nil
}

func (s *Service) DeleteRule(ctx context.Context, actor Actor, id string) error {
	if _, err := s.loadRule(ctx, actor, id); err != nil {
		return err
	}
	if err := s.rules.Delete(ctx, id); err != nil {
		return apperrors.NewDatabaseError("delete rule", err)
	}
	return nil
}

// ListRules applies rule visibility for the actor.
func (s *Service) ListRules(ctx context.Context, actor Actor, giveawayID string) ([]dg.Rule, error) {
	if err := giveawayFilter(giveawayID); err != nil {
		return nil, err
	}
	out, err := s.rules.List(ctx, dg.RuleFilter{
		Viewer:     dg.Viewer{UserID: actor.UserID, IsStaff: actor.IsStaff},
		GiveawayID: giveawayID,
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("list rules", err)
	}
	return out, nil
}

func (s *Service) loadRule(ctx context.Context, actor Actor, id string) (*dg.Rule, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFoundError("verification rule", id)
	}
	r, err := s.rules.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get rule", err)
	}
	if r == nil {
		return nil, apperrors.NewNotFoundError("verification rule", id)
	}
	if _, err := s.loadRuleOwner(ctx, actor, r.GiveawayID); err != nil {
		return nil, err
	}
	return r, nil
}

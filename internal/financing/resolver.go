package financing

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

// FallbackPolicy decides what a product with no associated plans is offered.
type FallbackPolicy string

const (
	// FallbackNone offers nothing.
	FallbackNone FallbackPolicy = "none"
	// FallbackAllActive offers every globally active plan.
	FallbackAllActive FallbackPolicy = "all-active"
)

// ParseFallbackPolicy validates a configured policy name. Empty means FallbackNone.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch p := FallbackPolicy(s); p {
	case "":
		return FallbackNone, nil
	case FallbackNone, FallbackAllActive:
		return p, nil
	default:
		return "", fmt.Errorf("financing: unknown fallback policy %q", s)
	}
}

// Resolution is the outcome of plan resolution for one product.
type Resolution struct {
	Plans  []domain.FinancingPlan `json:"plans"`
	Source domain.PlanSource      `json:"source"`
}

// Resolver picks the plans offered for a product.
// Specific associations win over default ones, which win over the fallback policy.
// Store failures never reach the caller: the affected tier counts as empty.
type Resolver struct {
	plans    store.PlanStorer
	fallback FallbackPolicy
}

// NewResolver creates a new Resolver.
func NewResolver(plans store.PlanStorer, fallback FallbackPolicy) *Resolver {
	if fallback == "" {
		fallback = FallbackNone
	}
	return &Resolver{plans: plans, fallback: fallback}
}

// Resolve evaluates the tiers in order and stops at the first one that yields plans.
func (r *Resolver) Resolve(ctx context.Context, productID int64) Resolution {
	if plans := r.associatedPlans(ctx, domain.AssociationSpecific, productID); len(plans) > 0 {
		return Resolution{Plans: plans, Source: domain.PlanSourceSpecific}
	}
	if plans := r.associatedPlans(ctx, domain.AssociationDefault, productID); len(plans) > 0 {
		return Resolution{Plans: plans, Source: domain.PlanSourceDefault}
	}
	if r.fallback == FallbackAllActive {
		if plans := r.activePlans(ctx, productID); len(plans) > 0 {
			return Resolution{Plans: plans, Source: domain.PlanSourceFallbackAll}
		}
	}
	return Resolution{Plans: []domain.FinancingPlan{}, Source: domain.PlanSourceNone}
}

// ResolvePlansForProduct returns the plans offered for a product, fewest installments first.
func (r *Resolver) ResolvePlansForProduct(ctx context.Context, productID int64) []domain.FinancingPlan {
	return r.Resolve(ctx, productID).Plans
}

// ClassifyPlanSource reports which tier ResolvePlansForProduct would answer from.
func (r *Resolver) ClassifyPlanSource(ctx context.Context, productID int64) domain.PlanSource {
	return r.Resolve(ctx, productID).Source
}

func (r *Resolver) associatedPlans(ctx context.Context, kind domain.AssociationKind, productID int64) []domain.FinancingPlan {
	associations, err := r.plans.FindAssociations(ctx, kind, productID)
	if err != nil {
		zap.L().Warn("Plan tier unavailable, skipping",
			zap.String("tier", string(kind)), zap.Int64("product_id", productID), zap.Error(err))
		return nil
	}

	seen := make(map[int64]struct{}, len(associations))
	plans := make([]domain.FinancingPlan, 0, len(associations))
	for _, a := range associations {
		if !a.Active {
			continue
		}
		if _, dup := seen[a.PlanID]; dup {
			continue
		}
		seen[a.PlanID] = struct{}{}

		plan, err := r.plans.FindPlan(ctx, a.PlanID)
		if err != nil {
			if errors.Is(err, store.ErrPlanNotFound) {
				zap.L().Debug("Associated plan no longer exists",
					zap.String("tier", string(kind)), zap.Int64("product_id", productID), zap.Int64("plan_id", a.PlanID))
				continue
			}
			zap.L().Warn("Plan tier unavailable, skipping",
				zap.String("tier", string(kind)), zap.Int64("product_id", productID),
				zap.Int64("plan_id", a.PlanID), zap.Error(err))
			return nil
		}
		if !plan.Active {
			continue
		}
		plans = append(plans, *plan)
	}

	sortPlans(plans)
	return plans
}

func (r *Resolver) activePlans(ctx context.Context, productID int64) []domain.FinancingPlan {
	all, err := r.plans.FindActivePlans(ctx)
	if err != nil {
		zap.L().Warn("Plan tier unavailable, skipping",
			zap.String("tier", string(domain.PlanSourceFallbackAll)), zap.Int64("product_id", productID), zap.Error(err))
		return nil
	}
	plans := make([]domain.FinancingPlan, 0, len(all))
	for _, p := range all {
		if p.Active {
			plans = append(plans, p)
		}
	}
	sortPlans(plans)
	return plans
}

func sortPlans(plans []domain.FinancingPlan) {
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].Installments != plans[j].Installments {
			return plans[i].Installments < plans[j].Installments
		}
		return plans[i].ID < plans[j].ID
	})
}

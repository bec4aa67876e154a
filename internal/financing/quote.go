package financing

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

// ErrPlanNotApplicable is returned when a plan exists but cannot be offered at the product's price.
var ErrPlanNotApplicable = errors.New("financing: plan not applicable to product price")

// PlanQuote is one plan priced for one product.
type PlanQuote struct {
	Plan                 domain.FinancingPlan     `json:"plan"`
	Result               domain.CalculationResult `json:"result"`
	MinimumUpfront       decimal.Decimal          `json:"minimum_upfront"`
	FormattedInstallment string                   `json:"formatted_installment"`
	FormattedTotal       string                   `json:"formatted_total"`
}

// ProductQuote lists every plan offered for a product with its price breakdown.
type ProductQuote struct {
	Product domain.Product    `json:"product"`
	Source  domain.PlanSource `json:"source"`
	Quotes  []PlanQuote       `json:"quotes"`
}

// Quoter prices products under their financing plans.
type Quoter struct {
	products store.ProductFinder
	plans    store.PlanStorer
	resolver *Resolver
}

// NewQuoter creates a new Quoter.
func NewQuoter(products store.ProductFinder, plans store.PlanStorer, resolver *Resolver) *Quoter {
	return &Quoter{products: products, plans: plans, resolver: resolver}
}

// NewPlanQuote prices price under plan. ok is false when the plan is not eligible.
func NewPlanQuote(price decimal.Decimal, plan domain.FinancingPlan) (PlanQuote, bool) {
	result, ok := ComputeInstallment(price, plan)
	if !ok {
		return PlanQuote{}, false
	}
	return PlanQuote{
		Plan:                 plan,
		Result:               result,
		MinimumUpfront:       ComputeMinimumUpfront(price, plan),
		FormattedInstallment: FormatCurrency(result.InstallmentAmount),
		FormattedTotal:       FormatCurrency(result.FinalPrice),
	}, true
}

// QuoteProduct resolves the plans of a product and prices each eligible one.
func (q *Quoter) QuoteProduct(ctx context.Context, productID int64) (*ProductQuote, error) {
	product, err := q.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	quote := q.QuoteFor(ctx, *product)
	return &quote, nil
}

// QuoteFor prices an already loaded product.
func (q *Quoter) QuoteFor(ctx context.Context, product domain.Product) ProductQuote {
	res := q.resolver.Resolve(ctx, product.ID)

	quotes := make([]PlanQuote, 0, len(res.Plans))
	for _, plan := range res.Plans {
		if pq, ok := NewPlanQuote(product.Price, plan); ok {
			quotes = append(quotes, pq)
		}
	}
	return ProductQuote{Product: product, Source: res.Source, Quotes: quotes}
}

// QuotePlan prices a product under one plan chosen by the caller.
// An inactive plan is reported as store.ErrPlanNotFound.
func (q *Quoter) QuotePlan(ctx context.Context, productID, planID int64) (*PlanQuote, error) {
	product, err := q.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	plan, err := q.plans.FindPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, store.ErrPlanNotFound
	}

	pq, ok := NewPlanQuote(product.Price, *plan)
	if !ok {
		return nil, ErrPlanNotApplicable
	}
	return &pq, nil
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancingPlan is an installment offer: how many payments, what it costs on top of
// the cash price, and which prices qualify for it.
type FinancingPlan struct {
	ID                int64               `json:"id"`
	Name              string              `json:"name"`
	Installments      int                 `json:"installments"`
	SurchargePercent  decimal.Decimal     `json:"surcharge_percent"`
	SurchargeFixed    decimal.Decimal     `json:"surcharge_fixed"`
	MinPrice          decimal.Decimal     `json:"min_price"`
	MaxPrice          decimal.NullDecimal `json:"max_price"`
	Active            bool                `json:"active"`
	MinUpfrontFixed   decimal.NullDecimal `json:"min_upfront_fixed"`
	MinUpfrontPercent decimal.NullDecimal `json:"min_upfront_percent"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// Qualifies reports whether price falls inside the plan's qualifying range.
func (p FinancingPlan) Qualifies(price decimal.Decimal) bool {
	if price.LessThan(p.MinPrice) {
		return false
	}
	if p.MaxPrice.Valid && price.GreaterThan(p.MaxPrice.Decimal) {
		return false
	}
	return true
}

// Eligible reports whether the plan can be offered for price.
func (p FinancingPlan) Eligible(price decimal.Decimal) bool {
	return p.Active && p.Qualifies(price)
}

// AssociationKind distinguishes the two product-to-plan link tables.
type AssociationKind string

const (
	AssociationSpecific AssociationKind = "specific"
	AssociationDefault  AssociationKind = "default"
)

// Valid reports whether k is one of the known association kinds.
func (k AssociationKind) Valid() bool {
	return k == AssociationSpecific || k == AssociationDefault
}

// PlanAssociation links a product to a financing plan.
type PlanAssociation struct {
	ID        int64           `json:"id"`
	Kind      AssociationKind `json:"kind"`
	ProductID int64           `json:"product_id"`
	PlanID    int64           `json:"plan_id"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

// CalculationResult is the derived price breakdown of a product under one plan.
// It is recomputed on every request and never stored.
type CalculationResult struct {
	OriginalPrice     decimal.Decimal `json:"original_price"`
	SurchargeTotal    decimal.Decimal `json:"surcharge_total"`
	FinalPrice        decimal.Decimal `json:"final_price"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	Installments      int             `json:"installments"`
	SurchargePercent  decimal.Decimal `json:"surcharge_percent"`
}

// PlanSource names the resolution tier that produced a product's plans.
type PlanSource string

const (
	PlanSourceSpecific    PlanSource = "specific"
	PlanSourceDefault     PlanSource = "default"
	PlanSourceFallbackAll PlanSource = "fallback-all"
	PlanSourceNone        PlanSource = "none"
)

package financing

import (
	"github.com/shopspring/decimal"

	"storefront-service/internal/domain"
)

// MoneyPlaces is the number of fraction digits displayed prices are rounded to.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// roundMoney rounds half away from zero, which is half-up for the non-negative
// amounts handled here: 10.005 becomes 10.01.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// ComputeInstallment prices a product under plan.
// The second return value is false when the plan cannot be offered for price; that is
// not an error, the plan is simply excluded.
func ComputeInstallment(price decimal.Decimal, plan domain.FinancingPlan) (domain.CalculationResult, bool) {
	if price.IsNegative() || plan.Installments <= 0 || !plan.Eligible(price) {
		return domain.CalculationResult{}, false
	}

	surcharge := price.Mul(plan.SurchargePercent).Div(hundred).Add(plan.SurchargeFixed)
	total := price.Add(surcharge)
	installment := total.Div(decimal.NewFromInt(int64(plan.Installments)))

	return domain.CalculationResult{
		OriginalPrice:     price,
		SurchargeTotal:    surcharge,
		FinalPrice:        total,
		InstallmentAmount: roundMoney(installment),
		Installments:      plan.Installments,
		SurchargePercent:  plan.SurchargePercent,
	}, true
}

// ComputeMinimumUpfront returns the down payment a plan asks for at price.
// A fixed amount wins over a percentage. Eligibility is not checked here.
func ComputeMinimumUpfront(price decimal.Decimal, plan domain.FinancingPlan) decimal.Decimal {
	upfront := decimal.Zero
	switch {
	case plan.MinUpfrontFixed.Valid && plan.MinUpfrontFixed.Decimal.IsPositive():
		upfront = plan.MinUpfrontFixed.Decimal
	case plan.MinUpfrontPercent.Valid && plan.MinUpfrontPercent.Decimal.IsPositive():
		upfront = price.Mul(plan.MinUpfrontPercent.Decimal).Div(hundred)
	}
	return roundMoney(upfront)
}

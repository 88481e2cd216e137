// Package breakeven solves, one variable at a time, for the values that
// bring a deal's monthly cash flow to zero, and ranks the corrective levers
// by how far each must move.
package breakeven

import (
	"math"
	"sort"

	"github.com/iwvelando/deal-analyzer/pkg/amortization"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/deal"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
	"go.uber.org/zap"
)

// Projection and ranking constants.
const (
	RentGrowthRate       = 2.5
	MaxProjectionYears   = 30
	NeverSentinel        = -1
	FeasibleThreshold    = 10.0
	ChallengingThreshold = 20.0
)

// Feasibility buckets for a lever.
const (
	Feasible    = "feasible"
	Challenging = "challenging"
	Difficult   = "difficult"
)

// Lever names.
const (
	LeverRent         = "increase_rent"
	LeverPrice        = "reduce_purchase_price"
	LeverExpenses     = "reduce_expenses"
	LeverInterestRate = "reduce_interest_rate"
)

// Lever is one corrective change and its size.
type Lever struct {
	Name          string  `json:"name"`
	Current       float64 `json:"current"`
	Target        float64 `json:"target"`
	PercentChange float64 `json:"percentChange"`
	Feasibility   string  `json:"feasibility"`
}

// Analysis holds the break-even targets. Shortfall is the monthly amount
// needed to reach zero cash flow; a negative shortfall is a cushion.
// MaxInterestRate is a linear approximation valid for small changes.
type Analysis struct {
	MonthlyCashFlow         float64 `json:"monthlyCashFlow"`
	Shortfall               float64 `json:"shortfall"`
	RequiredRent            float64 `json:"requiredRent"`
	RequiredPurchasePrice   float64 `json:"requiredPurchasePrice"`
	PriceAchievable         bool    `json:"priceAchievable"`
	MaxOperatingExpenses    float64 `json:"maxOperatingExpenses"`
	MaxTotalExpenses        float64 `json:"maxTotalExpenses"`
	MaxVacancyRate          float64 `json:"maxVacancyRate"`
	MaxInterestRate         float64 `json:"maxInterestRate"`
	InterestRateApproximate bool    `json:"interestRateApproximate"`
	YearsToPositive         int     `json:"yearsToPositive"`
	Levers                  []Lever `json:"levers"`
	Recommended             *Lever  `json:"recommended,omitempty"`
}

// FeasibilityFor buckets a percent change.
func FeasibilityFor(percentChange float64) string {
	switch {
	case percentChange < FeasibleThreshold:
		return Feasible
	case percentChange < ChallengingThreshold:
		return Challenging
	default:
		return Difficult
	}
}

// Calculator produces break-even analyses.
type Calculator struct {
	logger *zap.Logger
}

// NewCalculator returns a Calculator. A nil logger is replaced with a no-op
// logger.
func NewCalculator(logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{logger: logger}
}

// Analyze solves each target holding everything else constant.
func (c *Calculator) Analyze(inputs deal.PropertyInputs, analysis deal.DealAnalysis) Analysis {
	net := analysis.CashFlow.MonthlyNet
	shortfall := -net
	exp := analysis.Expenses
	rev := analysis.Revenue

	result := Analysis{
		MonthlyCashFlow:      net,
		Shortfall:            shortfall,
		RequiredRent:         math.Max(0, inputs.MonthlyRent+shortfall),
		MaxOperatingExpenses: math.Max(0, exp.OperatingExpenses-shortfall),
		MaxTotalExpenses:     math.Max(0, exp.TotalMonthly-shortfall),
		YearsToPositive:      YearsToPositive(rev.EffectiveMonthlyIncome, exp.TotalMonthly),
	}
	result.RequiredPurchasePrice, result.PriceAchievable = requiredPrice(inputs, analysis, shortfall)

	if rev.GrossMonthlyIncome > 0 {
		occupancy := exp.TotalMonthly / rev.GrossMonthlyIncome
		result.MaxVacancyRate = mathutil.Clamp((1-occupancy)*constants.PercentageMultiplier, 0, 100)
	}

	if analysis.Financing.TotalMortgage > 0 {
		cushion := net * constants.MonthsPerYear / analysis.Financing.TotalMortgage * constants.PercentageMultiplier
		result.MaxInterestRate = math.Max(0, inputs.InterestRate+cushion)
		result.InterestRateApproximate = true
	}

	if shortfall > 0 {
		result.Levers = levers(inputs, analysis, result)
		if len(result.Levers) > 0 {
			best := result.Levers[0]
			result.Recommended = &best
		}
	}

	c.logger.Debug("computed break-even targets",
		zap.String("op", "breakeven.Analyze"),
		zap.String("property", inputs.Name),
		zap.Float64("shortfall", shortfall),
		zap.Int("yearsToPositive", result.YearsToPositive),
	)
	return result
}

// requiredPrice inverts the payment formula for the mortgage whose payment
// absorbs the shortfall, then divides out the down payment and CMHC premium.
func requiredPrice(inputs deal.PropertyInputs, analysis deal.DealAnalysis, shortfall float64) (float64, bool) {
	if shortfall <= 0 {
		return inputs.PurchasePrice, true
	}
	fin := analysis.Financing
	targetPayment := fin.MonthlyPayment - shortfall
	if targetPayment <= 0 || fin.TotalMortgage <= 0 {
		return 0, false
	}
	totalMortgage := amortization.PrincipalForPayment(targetPayment, inputs.InterestRate, inputs.AmortizationYears)
	financedShare := 1 - analysis.Acquisition.DownPaymentPercent/constants.PercentageMultiplier
	premiumFactor := 1 + fin.CMHC.PremiumRate/constants.PercentageMultiplier
	return totalMortgage / (financedShare * premiumFactor), true
}

// YearsToPositive projects effective income growing at RentGrowthRate with
// flat expenses and returns the first year with non-negative cash flow, or
// NeverSentinel beyond MaxProjectionYears.
func YearsToPositive(effectiveIncome, totalExpenses float64) int {
	growth := 1 + RentGrowthRate/constants.PercentageMultiplier
	for y := 0; y <= MaxProjectionYears; y++ {
		if effectiveIncome*math.Pow(growth, float64(y))-totalExpenses >= 0 {
			return y
		}
	}
	return NeverSentinel
}

func levers(inputs deal.PropertyInputs, analysis deal.DealAnalysis, result Analysis) []Lever {
	var out []Lever
	add := func(name string, current, target float64) {
		change := mathutil.PercentChange(current, target)
		if math.IsInf(change, 0) || math.IsNaN(change) {
			return
		}
		out = append(out, Lever{
			Name:          name,
			Current:       current,
			Target:        target,
			PercentChange: change,
			Feasibility:   FeasibilityFor(change),
		})
	}

	if inputs.MonthlyRent > 0 {
		add(LeverRent, inputs.MonthlyRent, result.RequiredRent)
	}
	if result.PriceAchievable {
		add(LeverPrice, inputs.PurchasePrice, result.RequiredPurchasePrice)
	}
	if analysis.Expenses.OperatingExpenses > 0 {
		add(LeverExpenses, analysis.Expenses.OperatingExpenses, result.MaxOperatingExpenses)
	}
	if result.InterestRateApproximate && inputs.InterestRate > 0 {
		add(LeverInterestRate, inputs.InterestRate, result.MaxInterestRate)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].PercentChange < out[j].PercentChange })
	return out
}

package metrics

import (
	"math"

	"github.com/iwvelando/deal-analyzer/pkg/amortization"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/deal"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
	"github.com/iwvelando/deal-analyzer/pkg/validation"
)

// Assumptions drive the multi-year projection. Rates are percents.
type Assumptions struct {
	HoldPeriodYears   int     `json:"holdPeriodYears"`
	RentGrowthRate    float64 `json:"rentGrowthRate"`
	ExpenseGrowthRate float64 `json:"expenseGrowthRate"`
	AppreciationRate  float64 `json:"appreciationRate"`
	SaleCostsPercent  float64 `json:"saleCostsPercent"`
	DiscountRate      float64 `json:"discountRate"`
	ReinvestmentRate  float64 `json:"reinvestmentRate"`
	FinanceRate       float64 `json:"financeRate"`
}

// MaxHoldPeriodYears bounds the projection horizon.
const MaxHoldPeriodYears = 50

// DefaultAssumptions returns the standard projection assumptions.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		HoldPeriodYears:   10,
		RentGrowthRate:    3,
		ExpenseGrowthRate: 2,
		AppreciationRate:  3,
		SaleCostsPercent:  5,
		DiscountRate:      8,
		ReinvestmentRate:  6,
		FinanceRate:       5,
	}
}

// AssumptionInputs is the caller-facing form of Assumptions. A nil field
// takes its default; an explicit zero is kept.
type AssumptionInputs struct {
	HoldPeriodYears   *int     `yaml:"holdPeriodYears,omitempty" json:"holdPeriodYears,omitempty" mapstructure:"holdPeriodYears"`
	RentGrowthRate    *float64 `yaml:"rentGrowthRate,omitempty" json:"rentGrowthRate,omitempty" mapstructure:"rentGrowthRate"`
	ExpenseGrowthRate *float64 `yaml:"expenseGrowthRate,omitempty" json:"expenseGrowthRate,omitempty" mapstructure:"expenseGrowthRate"`
	AppreciationRate  *float64 `yaml:"appreciationRate,omitempty" json:"appreciationRate,omitempty" mapstructure:"appreciationRate"`
	SaleCostsPercent  *float64 `yaml:"saleCostsPercent,omitempty" json:"saleCostsPercent,omitempty" mapstructure:"saleCostsPercent"`
	DiscountRate      *float64 `yaml:"discountRate,omitempty" json:"discountRate,omitempty" mapstructure:"discountRate"`
	ReinvestmentRate  *float64 `yaml:"reinvestmentRate,omitempty" json:"reinvestmentRate,omitempty" mapstructure:"reinvestmentRate"`
	FinanceRate       *float64 `yaml:"financeRate,omitempty" json:"financeRate,omitempty" mapstructure:"financeRate"`
}

// Resolve fills unset fields from DefaultAssumptions.
func (in AssumptionInputs) Resolve() Assumptions {
	a := DefaultAssumptions()
	if in.HoldPeriodYears != nil {
		a.HoldPeriodYears = *in.HoldPeriodYears
	}
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{in.RentGrowthRate, &a.RentGrowthRate},
		{in.ExpenseGrowthRate, &a.ExpenseGrowthRate},
		{in.AppreciationRate, &a.AppreciationRate},
		{in.SaleCostsPercent, &a.SaleCostsPercent},
		{in.DiscountRate, &a.DiscountRate},
		{in.ReinvestmentRate, &a.ReinvestmentRate},
		{in.FinanceRate, &a.FinanceRate},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return a
}

// Validate rejects assumptions the projection cannot use.
func (a Assumptions) Validate() error {
	if a.HoldPeriodYears < 1 || a.HoldPeriodYears > MaxHoldPeriodYears {
		return validation.NewInputError("holdPeriodYears", a.HoldPeriodYears, "must be between 1 and 50")
	}
	rates := []struct {
		field string
		value float64
	}{
		{"rentGrowthRate", a.RentGrowthRate},
		{"expenseGrowthRate", a.ExpenseGrowthRate},
		{"appreciationRate", a.AppreciationRate},
		{"discountRate", a.DiscountRate},
		{"reinvestmentRate", a.ReinvestmentRate},
		{"financeRate", a.FinanceRate},
	}
	for _, r := range rates {
		if r.value <= -100 {
			return validation.NewInputError(r.field, r.value, "must be greater than -100%")
		}
	}
	return validation.RequireRange("saleCostsPercent", a.SaleCostsPercent, 0, 100)
}

// YearProjection is one year of the hold period. NetCashFlow is the
// operating cash flow; TotalCashFlow adds SaleProceeds, which are non-zero
// only in the final year.
type YearProjection struct {
	Year               int     `json:"year"`
	EffectiveIncome    float64 `json:"effectiveIncome"`
	OperatingExpenses  float64 `json:"operatingExpenses"`
	DebtService        float64 `json:"debtService"`
	NetCashFlow        float64 `json:"netCashFlow"`
	PropertyValue      float64 `json:"propertyValue"`
	LoanBalance        float64 `json:"loanBalance"`
	Equity             float64 `json:"equity"`
	SaleProceeds       float64 `json:"saleProceeds"`
	TotalCashFlow      float64 `json:"totalCashFlow"`
	CumulativeCashFlow float64 `json:"cumulativeCashFlow"`
}

// GenerateCashFlowProjections grows the analysis' annual income and
// operating expenses over the hold period. Debt service stops once the
// amortization ends. The final year adds net sale proceeds: the appreciated
// value less the remaining balance and selling costs.
func GenerateCashFlowProjections(inputs deal.PropertyInputs, analysis deal.DealAnalysis, assumptions Assumptions) ([]YearProjection, error) {
	if err := assumptions.Validate(); err != nil {
		return nil, err
	}

	rentGrowth := 1 + assumptions.RentGrowthRate/constants.PercentageMultiplier
	expenseGrowth := 1 + assumptions.ExpenseGrowthRate/constants.PercentageMultiplier
	appreciation := 1 + assumptions.AppreciationRate/constants.PercentageMultiplier
	years := assumptions.HoldPeriodYears

	projections := make([]YearProjection, 0, years)
	cumulative := 0.0
	for y := 1; y <= years; y++ {
		elapsed := float64(y - 1)
		p := YearProjection{
			Year:              y,
			EffectiveIncome:   analysis.Revenue.AnnualEffectiveIncome * math.Pow(rentGrowth, elapsed),
			OperatingExpenses: analysis.Expenses.AnnualOperating * math.Pow(expenseGrowth, elapsed),
			PropertyValue:     inputs.PurchasePrice * math.Pow(appreciation, float64(y)),
			LoanBalance: amortization.RemainingBalance(analysis.Financing.TotalMortgage,
				inputs.InterestRate, inputs.AmortizationYears, float64(y)),
		}
		if y <= inputs.AmortizationYears {
			p.DebtService = analysis.Financing.AnnualPayment
		}
		p.NetCashFlow = p.EffectiveIncome - p.OperatingExpenses - p.DebtService
		p.Equity = p.PropertyValue - p.LoanBalance
		if y == years {
			p.SaleProceeds = p.PropertyValue - p.LoanBalance -
				mathutil.ApplyPercentage(p.PropertyValue, assumptions.SaleCostsPercent)
		}
		p.TotalCashFlow = p.NetCashFlow + p.SaleProceeds
		cumulative += p.TotalCashFlow
		p.CumulativeCashFlow = cumulative
		projections = append(projections, p)
	}
	return projections, nil
}

// CashFlows extracts the per-year totals used by the rate solvers.
func CashFlows(projections []YearProjection) []float64 {
	flows := make([]float64, len(projections))
	for i, p := range projections {
		flows[i] = p.TotalCashFlow
	}
	return flows
}

// Investment is the cash committed at purchase: acquisition costs plus any
// renovation budget.
func Investment(inputs deal.PropertyInputs, analysis deal.DealAnalysis) float64 {
	return analysis.Acquisition.TotalAcquisitionCost + inputs.RenovationBudget()
}

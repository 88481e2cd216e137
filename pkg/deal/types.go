// Package deal turns a PropertyInputs snapshot into a complete DealAnalysis:
// acquisition costs, financing, revenue, expenses, cash flow, ratios, the
// optional BRRRR refinance block, market comparison, advisory warnings and a
// score.
package deal

import (
	"fmt"
	"strings"

	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/rates"
	"github.com/iwvelando/deal-analyzer/pkg/taxrules"
	"github.com/iwvelando/deal-analyzer/pkg/validation"
)

// Strategy is the investment strategy for a property.
type Strategy string

// Supported strategies.
const (
	StrategyBuyHold         Strategy = "buy_hold"
	StrategyBRRRR           Strategy = "brrrr"
	StrategyFlip            Strategy = "flip"
	StrategyShortTermRental Strategy = "short_term_rental"
)

var strategies = map[Strategy]bool{
	StrategyBuyHold:         true,
	StrategyBRRRR:           true,
	StrategyFlip:            true,
	StrategyShortTermRental: true,
}

// PropertyType is the kind of dwelling, used for market benchmarks.
type PropertyType string

// Supported property types.
const (
	SingleFamily PropertyType = "single_family"
	Condo        PropertyType = "condo"
	Townhouse    PropertyType = "townhouse"
	MultiFamily  PropertyType = "multi_family"
)

var propertyTypes = map[PropertyType]bool{
	SingleFamily: true,
	Condo:        true,
	Townhouse:    true,
	MultiFamily:  true,
}

// PropertyInputs is the caller-supplied description of a deal. Percentages
// are percent values, so 5.5 means 5.5%. Monthly figures are in dollars per
// month and annual figures in dollars per year.
type PropertyInputs struct {
	Name                      string         `json:"name,omitempty"`
	Province                  rates.Province `json:"province"`
	City                      string         `json:"city"`
	PropertyType              PropertyType   `json:"propertyType,omitempty"`
	PurchasePrice             float64        `json:"purchasePrice"`
	DownPaymentPercent        float64        `json:"downPaymentPercent"`
	DownPaymentAmount         float64        `json:"downPaymentAmount,omitempty"`
	InterestRate              float64        `json:"interestRate"`
	AmortizationYears         int            `json:"amortizationYears"`
	Strategy                  Strategy       `json:"strategy,omitempty"`
	MonthlyRent               float64        `json:"monthlyRent"`
	OtherIncome               float64        `json:"otherIncome,omitempty"`
	VacancyRate               float64        `json:"vacancyRate"`
	PropertyTaxAnnual         float64        `json:"propertyTaxAnnual"`
	InsuranceAnnual           float64        `json:"insuranceAnnual"`
	PropertyManagementPercent float64        `json:"propertyManagementPercent"`
	MaintenancePercent        float64        `json:"maintenancePercent"`
	UtilitiesMonthly          float64        `json:"utilitiesMonthly,omitempty"`
	HOAMonthly                float64        `json:"hoaMonthly,omitempty"`
	OtherMonthly              float64        `json:"otherMonthly,omitempty"`
	AfterRepairValue          *float64       `json:"afterRepairValue,omitempty"`
	RenovationCost            *float64       `json:"renovationCost,omitempty"`
	IsFirstTimeBuyer          bool           `json:"isFirstTimeBuyer,omitempty"`
	PropertyAge               *int           `json:"propertyAge,omitempty"`
}

// Normalized returns a copy with defaults applied: the province code is
// upper-cased, and an empty strategy or property type takes buy_hold and
// single_family. Pointer fields are copied so the result shares no memory
// with the receiver.
func (p PropertyInputs) Normalized() PropertyInputs {
	out := p
	if province, ok := rates.ParseProvince(string(p.Province)); ok {
		out.Province = province
	}
	out.City = strings.TrimSpace(p.City)
	if out.Strategy == "" {
		out.Strategy = StrategyBuyHold
	}
	out.Strategy = Strategy(strings.ToLower(string(out.Strategy)))
	if out.PropertyType == "" {
		out.PropertyType = SingleFamily
	}
	out.PropertyType = PropertyType(strings.ToLower(string(out.PropertyType)))
	out.AfterRepairValue = copyFloat(p.AfterRepairValue)
	out.RenovationCost = copyFloat(p.RenovationCost)
	if p.PropertyAge != nil {
		age := *p.PropertyAge
		out.PropertyAge = &age
	}
	return out
}

// DownPayment resolves the down payment amount and percent. A positive
// DownPaymentAmount takes precedence over DownPaymentPercent.
func (p PropertyInputs) DownPayment() (amount, percent float64) {
	if p.DownPaymentAmount > 0 {
		if p.PurchasePrice <= 0 {
			return p.DownPaymentAmount, 0
		}
		return p.DownPaymentAmount, p.DownPaymentAmount / p.PurchasePrice * constants.PercentageMultiplier
	}
	return p.PurchasePrice * p.DownPaymentPercent / constants.PercentageMultiplier, p.DownPaymentPercent
}

// RenovationBudget returns the renovation cost, 0 when unset.
func (p PropertyInputs) RenovationBudget() float64 {
	if p.RenovationCost == nil {
		return 0
	}
	return *p.RenovationCost
}

// Validate checks every field the calculators depend on and returns the first
// problem as a *validation.InputError. The CMHC minimum down payment is
// enforced by the tax rules during analysis.
func (p PropertyInputs) Validate() error {
	if _, ok := rates.ParseProvince(string(p.Province)); !ok {
		return validation.NewInputError("province", p.Province,
			fmt.Sprintf("unsupported province, expected one of %v", rates.Provinces))
	}
	if err := validation.RequirePositive("purchasePrice", p.PurchasePrice); err != nil {
		return err
	}
	if p.DownPaymentAmount < 0 {
		return validation.NewInputError("downPaymentAmount", p.DownPaymentAmount, "cannot be negative")
	}
	if p.DownPaymentAmount > p.PurchasePrice {
		return validation.NewInputError("downPaymentAmount", p.DownPaymentAmount, "cannot exceed the purchase price")
	}
	if p.DownPaymentAmount == 0 {
		if err := validation.RequireRange("downPaymentPercent", p.DownPaymentPercent, 0, 100); err != nil {
			return err
		}
	}
	if err := validation.RequireRange("interestRate", p.InterestRate, 0, constants.MaxInterestRate); err != nil {
		return err
	}
	if p.AmortizationYears < 1 || p.AmortizationYears > constants.MaxAmortizationYears {
		return validation.NewInputError("amortizationYears", p.AmortizationYears,
			fmt.Sprintf("must be between 1 and %d", constants.MaxAmortizationYears))
	}
	if err := validation.RequireRange("vacancyRate", p.VacancyRate, 0, 100); err != nil {
		return err
	}
	if err := validation.RequireRange("propertyManagementPercent", p.PropertyManagementPercent, 0, 100); err != nil {
		return err
	}
	if err := validation.RequireRange("maintenancePercent", p.MaintenancePercent, 0, 100); err != nil {
		return err
	}

	nonNegative := []struct {
		field string
		value float64
	}{
		{"monthlyRent", p.MonthlyRent},
		{"otherIncome", p.OtherIncome},
		{"propertyTaxAnnual", p.PropertyTaxAnnual},
		{"insuranceAnnual", p.InsuranceAnnual},
		{"utilitiesMonthly", p.UtilitiesMonthly},
		{"hoaMonthly", p.HOAMonthly},
		{"otherMonthly", p.OtherMonthly},
	}
	for _, c := range nonNegative {
		if err := validation.RequireNonNegative(c.field, c.value); err != nil {
			return err
		}
	}
	if p.AfterRepairValue != nil {
		if err := validation.RequireNonNegative("afterRepairValue", *p.AfterRepairValue); err != nil {
			return err
		}
	}
	if p.RenovationCost != nil {
		if err := validation.RequireNonNegative("renovationCost", *p.RenovationCost); err != nil {
			return err
		}
	}
	if p.PropertyAge != nil && *p.PropertyAge < 0 {
		return validation.NewInputError("propertyAge", *p.PropertyAge, "cannot be negative")
	}

	strategy := p.Strategy
	if strategy == "" {
		strategy = StrategyBuyHold
	}
	if !strategies[Strategy(strings.ToLower(string(strategy)))] {
		return validation.NewInputError("strategy", p.Strategy, "unknown strategy")
	}
	propertyType := p.PropertyType
	if propertyType == "" {
		propertyType = SingleFamily
	}
	if !propertyTypes[PropertyType(strings.ToLower(string(propertyType)))] {
		return validation.NewInputError("propertyType", p.PropertyType, "unknown property type")
	}
	return nil
}

// Acquisition is the cash needed to close.
type Acquisition struct {
	PurchasePrice        float64            `json:"purchasePrice"`
	DownPayment          float64            `json:"downPayment"`
	DownPaymentPercent   float64            `json:"downPaymentPercent"`
	LandTransferTax      taxrules.LTTResult `json:"landTransferTax"`
	LegalFees            float64            `json:"legalFees"`
	InspectionFee        float64            `json:"inspectionFee"`
	AppraisalFee         float64            `json:"appraisalFee"`
	TitleInsurance       float64            `json:"titleInsurance"`
	ClosingCosts         float64            `json:"closingCosts"`
	TotalAcquisitionCost float64            `json:"totalAcquisitionCost"`
}

// Financing describes the mortgage.
type Financing struct {
	MortgageAmount    float64                   `json:"mortgageAmount"`
	CMHC              taxrules.CMHCResult       `json:"cmhc"`
	TotalMortgage     float64                   `json:"totalMortgage"`
	InterestRate      float64                   `json:"interestRate"`
	AmortizationYears int                       `json:"amortizationYears"`
	MonthlyPayment    float64                   `json:"monthlyPayment"`
	AnnualPayment     float64                   `json:"annualPayment"`
	LoanToValue       float64                   `json:"loanToValue"`
	StressTest        taxrules.StressTestResult `json:"stressTest"`
}

// Revenue is the monthly income picture.
type Revenue struct {
	MonthlyRent            float64 `json:"monthlyRent"`
	OtherIncome            float64 `json:"otherIncome"`
	GrossMonthlyIncome     float64 `json:"grossMonthlyIncome"`
	VacancyRate            float64 `json:"vacancyRate"`
	VacancyLoss            float64 `json:"vacancyLoss"`
	EffectiveMonthlyIncome float64 `json:"effectiveMonthlyIncome"`
	AnnualGrossIncome      float64 `json:"annualGrossIncome"`
	AnnualEffectiveIncome  float64 `json:"annualEffectiveIncome"`
}

// Expenses are monthly costs. OperatingExpenses excludes the mortgage.
type Expenses struct {
	Mortgage           float64 `json:"mortgage"`
	PropertyTax        float64 `json:"propertyTax"`
	Insurance          float64 `json:"insurance"`
	PropertyManagement float64 `json:"propertyManagement"`
	Maintenance        float64 `json:"maintenance"`
	Utilities          float64 `json:"utilities"`
	HOA                float64 `json:"hoa"`
	Other              float64 `json:"other"`
	OperatingExpenses  float64 `json:"operatingExpenses"`
	TotalMonthly       float64 `json:"totalMonthly"`
	AnnualOperating    float64 `json:"annualOperating"`
	AnnualTotal        float64 `json:"annualTotal"`
}

// CashFlow holds net cash flow and net operating income.
type CashFlow struct {
	MonthlyNet float64 `json:"monthlyNet"`
	AnnualNet  float64 `json:"annualNet"`
	MonthlyNOI float64 `json:"monthlyNoi"`
	AnnualNOI  float64 `json:"annualNoi"`
}

// Metrics are the headline investment ratios. CapRate, CashOnCashReturn,
// ExpenseRatio and BreakEvenOccupancy are percents.
type Metrics struct {
	CapRate            float64 `json:"capRate"`
	CashOnCashReturn   float64 `json:"cashOnCashReturn"`
	DSCR               float64 `json:"dscr"`
	GRM                float64 `json:"grm"`
	ExpenseRatio       float64 `json:"expenseRatio"`
	BreakEvenOccupancy float64 `json:"breakEvenOccupancy"`
}

// BRRRR is the refinance outcome for a buy, rehab, rent, refinance, repeat
// deal.
type BRRRR struct {
	AfterRepairValue   float64 `json:"afterRepairValue"`
	RenovationCost     float64 `json:"renovationCost"`
	TotalInvestment    float64 `json:"totalInvestment"`
	RefinanceLTV       float64 `json:"refinanceLtv"`
	RefinanceAmount    float64 `json:"refinanceAmount"`
	BalanceAtRefinance float64 `json:"balanceAtRefinance"`
	CashRecovered      float64 `json:"cashRecovered"`
	CashLeftInDeal     float64 `json:"cashLeftInDeal"`
	InfiniteReturn     bool    `json:"infiniteReturn"`
	NewMonthlyPayment  float64 `json:"newMonthlyPayment"`
	NewMonthlyCashFlow float64 `json:"newMonthlyCashFlow"`
	NewAnnualCashFlow  float64 `json:"newAnnualCashFlow"`
	ReturnOnCashLeft   float64 `json:"returnOnCashLeft"`
}

// MarketComparison relates the deal to the city benchmark. Source is
// "benchmark" when the city is in the tables and "default" otherwise.
type MarketComparison struct {
	City              string  `json:"city"`
	PropertyType      string  `json:"propertyType"`
	MarketCapRate     float64 `json:"marketCapRate"`
	CapRateDelta      float64 `json:"capRateDelta"`
	MarketRentToPrice float64 `json:"marketRentToPrice"`
	RentToPrice       float64 `json:"rentToPrice"`
	Source            string  `json:"source"`
	Assessment        string  `json:"assessment"`
}

// CategoryScore is the points earned in one scoring category.
type CategoryScore struct {
	Name      string `json:"name"`
	Points    int    `json:"points"`
	MaxPoints int    `json:"maxPoints"`
	Reason    string `json:"reason"`
}

// Scoring is the rubric outcome.
type Scoring struct {
	Score      int             `json:"score"`
	Grade      string          `json:"grade"`
	Color      string          `json:"color"`
	Reasons    []string        `json:"reasons"`
	Categories []CategoryScore `json:"categories"`
}

// Flag names set in DealAnalysis.Flags.
const (
	FlagNegativeCashFlow   = "negative_cash_flow"
	FlagLowDSCR            = "low_dscr"
	FlagBelowMarketCapRate = "below_market_cap_rate"
	FlagHighLTV            = "high_ltv"
	FlagHighExpenseRatio   = "high_expense_ratio"
	FlagCMHCRequired       = "cmhc_required"
	FlagCMHCIneligible     = "cmhc_ineligible"
	FlagInfiniteReturn     = "infinite_return"
)

// DealAnalysis is the complete derived record for one PropertyInputs. It is
// a pure function of the inputs and the rate tables.
type DealAnalysis struct {
	Inputs      PropertyInputs   `json:"inputs"`
	TaxYear     int              `json:"taxYear"`
	Acquisition Acquisition      `json:"acquisition"`
	Financing   Financing        `json:"financing"`
	Revenue     Revenue          `json:"revenue"`
	Expenses    Expenses         `json:"expenses"`
	CashFlow    CashFlow         `json:"cashFlow"`
	Metrics     Metrics          `json:"metrics"`
	BRRRR       *BRRRR           `json:"brrrr,omitempty"`
	Market      MarketComparison `json:"marketComparison"`
	Warnings    []string         `json:"warnings"`
	Flags       map[string]bool  `json:"flags"`
	Scoring     Scoring          `json:"scoring"`
}

// HasDebt reports whether the deal carries a mortgage.
func (d DealAnalysis) HasDebt() bool {
	return d.Financing.AnnualPayment > 0
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

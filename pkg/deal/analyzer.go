package deal

import (
	"fmt"

	"github.com/iwvelando/deal-analyzer/pkg/amortization"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/format"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
	"github.com/iwvelando/deal-analyzer/pkg/rates"
	"github.com/iwvelando/deal-analyzer/pkg/taxrules"
	"go.uber.org/zap"
)

// Analyzer produces DealAnalysis records. It holds only read-only state and
// is safe for concurrent use.
type Analyzer struct {
	logger *zap.Logger
	tables *rates.Tables
	rules  *taxrules.Rules
	scorer Scorer
}

// NewAnalyzer returns an Analyzer over the given tables. A nil logger is
// replaced with a no-op logger and nil tables with the built-in defaults.
func NewAnalyzer(logger *zap.Logger, tables *rates.Tables) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	rules := taxrules.New(tables)
	return &Analyzer{
		logger: logger,
		tables: rules.Tables(),
		rules:  rules,
	}
}

// Tables returns the rate tables the analyzer reads.
func (a *Analyzer) Tables() *rates.Tables {
	return a.tables
}

// Rules returns the tax rules the analyzer applies.
func (a *Analyzer) Rules() *taxrules.Rules {
	return a.rules
}

// Analyze runs the full pipeline. It either returns a complete analysis or
// an error with a zero analysis; input problems surface as
// *validation.InputError.
func (a *Analyzer) Analyze(inputs PropertyInputs) (DealAnalysis, error) {
	if err := inputs.Validate(); err != nil {
		return DealAnalysis{}, err
	}
	in := inputs.Normalized()

	analysis, err := a.analyzeUnscored(in)
	if err != nil {
		return DealAnalysis{}, err
	}
	analysis.Scoring = a.scorer.Score(analysis)

	a.logger.Debug(fmt.Sprintf("analyzed %s", describe(in)),
		zap.String("op", "deal.Analyze"),
		zap.Float64("monthlyNet", analysis.CashFlow.MonthlyNet),
		zap.Float64("capRate", analysis.Metrics.CapRate),
		zap.Int("score", analysis.Scoring.Score),
		zap.String("grade", analysis.Scoring.Grade),
	)
	return analysis, nil
}

// analyzeUnscored builds everything except the score, which needs the
// otherwise complete record.
func (a *Analyzer) analyzeUnscored(in PropertyInputs) (DealAnalysis, error) {
	acquisition, err := a.acquisition(in)
	if err != nil {
		return DealAnalysis{}, fmt.Errorf("acquisition costs: %w", err)
	}
	financing, err := a.financing(in, acquisition)
	if err != nil {
		return DealAnalysis{}, fmt.Errorf("financing: %w", err)
	}
	revenue := computeRevenue(in)
	expenses := computeExpenses(in, financing)
	cashFlow := computeCashFlow(revenue, expenses)

	analysis := DealAnalysis{
		Inputs:      in,
		TaxYear:     a.tables.TaxYear,
		Acquisition: acquisition,
		Financing:   financing,
		Revenue:     revenue,
		Expenses:    expenses,
		CashFlow:    cashFlow,
	}
	analysis.Metrics = computeMetrics(in, analysis)

	if in.Strategy == StrategyBRRRR && in.AfterRepairValue != nil {
		brrrr := computeBRRRR(in, analysis)
		analysis.BRRRR = &brrrr
	}

	analysis.Market = CompareMarket(a.tables, in, analysis.Metrics.CapRate)
	analysis.Warnings, analysis.Flags = deriveWarnings(analysis)
	return analysis, nil
}

func (a *Analyzer) acquisition(in PropertyInputs) (Acquisition, error) {
	down, downPercent := in.DownPayment()
	ltt, err := a.rules.LandTransferTax(in.PurchasePrice, in.Province, in.City, in.IsFirstTimeBuyer)
	if err != nil {
		return Acquisition{}, err
	}
	closing := a.tables.ClosingCosts
	return Acquisition{
		PurchasePrice:        in.PurchasePrice,
		DownPayment:          down,
		DownPaymentPercent:   downPercent,
		LandTransferTax:      ltt,
		LegalFees:            closing.Legal,
		InspectionFee:        closing.Inspection,
		AppraisalFee:         closing.Appraisal,
		TitleInsurance:       closing.TitleInsurance,
		ClosingCosts:         closing.Total(),
		TotalAcquisitionCost: down + ltt.NetTax + closing.Total(),
	}, nil
}

func (a *Analyzer) financing(in PropertyInputs, acq Acquisition) (Financing, error) {
	cmhc, err := a.rules.CMHCInsurance(in.PurchasePrice, acq.DownPaymentPercent)
	if err != nil {
		return Financing{}, err
	}
	payment := amortization.MonthlyPayment(cmhc.TotalMortgage, in.InterestRate, in.AmortizationYears)
	return Financing{
		MortgageAmount:    cmhc.MortgageAmount,
		CMHC:              cmhc,
		TotalMortgage:     cmhc.TotalMortgage,
		InterestRate:      in.InterestRate,
		AmortizationYears: in.AmortizationYears,
		MonthlyPayment:    payment,
		AnnualPayment:     payment * constants.MonthsPerYear,
		LoanToValue:       mathutil.Percent(cmhc.TotalMortgage, in.PurchasePrice),
		StressTest:        a.rules.StressTest(cmhc.TotalMortgage, in.InterestRate, in.AmortizationYears),
	}, nil
}

func computeRevenue(in PropertyInputs) Revenue {
	gross := in.MonthlyRent + in.OtherIncome
	vacancyLoss := mathutil.ApplyPercentage(gross, in.VacancyRate)
	effective := gross - vacancyLoss
	return Revenue{
		MonthlyRent:            in.MonthlyRent,
		OtherIncome:            in.OtherIncome,
		GrossMonthlyIncome:     gross,
		VacancyRate:            in.VacancyRate,
		VacancyLoss:            vacancyLoss,
		EffectiveMonthlyIncome: effective,
		AnnualGrossIncome:      gross * constants.MonthsPerYear,
		AnnualEffectiveIncome:  effective * constants.MonthsPerYear,
	}
}

func computeExpenses(in PropertyInputs, fin Financing) Expenses {
	e := Expenses{
		Mortgage:           fin.MonthlyPayment,
		PropertyTax:        in.PropertyTaxAnnual / constants.MonthsPerYear,
		Insurance:          in.InsuranceAnnual / constants.MonthsPerYear,
		PropertyManagement: mathutil.ApplyPercentage(in.MonthlyRent, in.PropertyManagementPercent),
		Maintenance:        mathutil.ApplyPercentage(in.MonthlyRent, in.MaintenancePercent),
		Utilities:          in.UtilitiesMonthly,
		HOA:                in.HOAMonthly,
		Other:              in.OtherMonthly,
	}
	e.OperatingExpenses = e.PropertyTax + e.Insurance + e.PropertyManagement + e.Maintenance +
		e.Utilities + e.HOA + e.Other
	e.TotalMonthly = e.OperatingExpenses + e.Mortgage
	e.AnnualOperating = e.OperatingExpenses * constants.MonthsPerYear
	e.AnnualTotal = e.TotalMonthly * constants.MonthsPerYear
	return e
}

func computeCashFlow(rev Revenue, exp Expenses) CashFlow {
	net := rev.EffectiveMonthlyIncome - exp.TotalMonthly
	noi := rev.EffectiveMonthlyIncome - exp.OperatingExpenses
	return CashFlow{
		MonthlyNet: net,
		AnnualNet:  net * constants.MonthsPerYear,
		MonthlyNOI: noi,
		AnnualNOI:  noi * constants.MonthsPerYear,
	}
}

func computeMetrics(in PropertyInputs, d DealAnalysis) Metrics {
	m := Metrics{
		CapRate:          mathutil.Percent(d.CashFlow.AnnualNOI, in.PurchasePrice),
		CashOnCashReturn: mathutil.Percent(d.CashFlow.AnnualNet, d.Acquisition.TotalAcquisitionCost),
		GRM:              mathutil.SafeDivide(in.PurchasePrice, in.MonthlyRent*constants.MonthsPerYear),
	}
	if d.Financing.AnnualPayment > 0 {
		m.DSCR = d.CashFlow.AnnualNOI / d.Financing.AnnualPayment
	}
	m.ExpenseRatio = mathutil.Percent(d.Expenses.OperatingExpenses, d.Revenue.GrossMonthlyIncome)
	m.BreakEvenOccupancy = mathutil.Percent(d.Expenses.TotalMonthly, d.Revenue.GrossMonthlyIncome)
	return m
}

func computeBRRRR(in PropertyInputs, d DealAnalysis) BRRRR {
	arv := *in.AfterRepairValue
	renovation := in.RenovationBudget()
	totalInvestment := d.Acquisition.TotalAcquisitionCost + renovation
	refinance := mathutil.ApplyPercentage(arv, constants.BRRRRRefinanceLTV)
	balance := amortization.RemainingBalance(d.Financing.TotalMortgage, in.InterestRate,
		in.AmortizationYears, constants.BRRRRSeasoningYears)
	recovered := refinance - balance
	cashLeft := totalInvestment - recovered

	newPayment := amortization.MonthlyPayment(refinance, in.InterestRate, in.AmortizationYears)
	newMonthly := d.CashFlow.MonthlyNet + d.Financing.MonthlyPayment - newPayment

	b := BRRRR{
		AfterRepairValue:   arv,
		RenovationCost:     renovation,
		TotalInvestment:    totalInvestment,
		RefinanceLTV:       constants.BRRRRRefinanceLTV,
		RefinanceAmount:    refinance,
		BalanceAtRefinance: balance,
		CashRecovered:      recovered,
		CashLeftInDeal:     cashLeft,
		InfiniteReturn:     cashLeft <= 0,
		NewMonthlyPayment:  newPayment,
		NewMonthlyCashFlow: newMonthly,
		NewAnnualCashFlow:  newMonthly * constants.MonthsPerYear,
	}
	if !b.InfiniteReturn {
		b.ReturnOnCashLeft = mathutil.Percent(b.NewAnnualCashFlow, cashLeft)
	}
	return b
}

// deriveWarnings collects advisory warnings in a fixed order together with
// their flags.
func deriveWarnings(d DealAnalysis) ([]string, map[string]bool) {
	warnings := []string{}
	flags := map[string]bool{
		FlagNegativeCashFlow:   false,
		FlagLowDSCR:            false,
		FlagBelowMarketCapRate: false,
		FlagHighLTV:            false,
		FlagHighExpenseRatio:   false,
		FlagCMHCRequired:       d.Financing.CMHC.InsuranceRequired,
		FlagCMHCIneligible:     !d.Financing.CMHC.Eligible,
		FlagInfiniteReturn:     d.BRRRR != nil && d.BRRRR.InfiniteReturn,
	}

	if d.CashFlow.MonthlyNet < 0 {
		flags[FlagNegativeCashFlow] = true
		warnings = append(warnings, fmt.Sprintf("Negative monthly cash flow of %s", format.Currency(d.CashFlow.MonthlyNet)))
	}
	if d.HasDebt() && d.Metrics.DSCR < constants.LowDSCRThreshold {
		flags[FlagLowDSCR] = true
		warnings = append(warnings, fmt.Sprintf("DSCR of %s is below the %s lender minimum",
			format.Ratio(d.Metrics.DSCR), format.Ratio(constants.LowDSCRThreshold)))
	}
	if d.Market.CapRateDelta < 0 {
		flags[FlagBelowMarketCapRate] = true
		warnings = append(warnings, fmt.Sprintf("Cap rate of %s is below the %s market benchmark of %s",
			format.Percent(d.Metrics.CapRate), marketName(d.Market), format.Percent(d.Market.MarketCapRate)))
	}
	if d.Financing.LoanToValue > constants.HighLTVThreshold {
		flags[FlagHighLTV] = true
		warnings = append(warnings, fmt.Sprintf("Loan-to-value of %s exceeds %s",
			format.Percent(d.Financing.LoanToValue), format.Percent(constants.HighLTVThreshold)))
	}
	if d.Metrics.ExpenseRatio > constants.HighExpenseRatioThreshold {
		flags[FlagHighExpenseRatio] = true
		warnings = append(warnings, fmt.Sprintf("Operating expense ratio of %s exceeds %s",
			format.Percent(d.Metrics.ExpenseRatio), format.Percent(constants.HighExpenseRatioThreshold)))
	}
	if !d.Financing.CMHC.Eligible && d.Financing.CMHC.Message != "" {
		warnings = append(warnings, d.Financing.CMHC.Message)
	}
	return warnings, flags
}

func marketName(m MarketComparison) string {
	if m.Source == SourceDefault || m.City == "" {
		return "default"
	}
	return m.City
}

func describe(in PropertyInputs) string {
	if in.Name != "" {
		return in.Name
	}
	return fmt.Sprintf("%s %s, %s", format.WholeCurrency(in.PurchasePrice), in.City, in.Province)
}

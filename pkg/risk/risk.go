// Package risk scores a deal on nine banded risk factors grouped into four
// weighted categories and runs fixed stress scenarios against its cash flow.
package risk

import (
	"sort"

	"github.com/iwvelando/deal-analyzer/pkg/amortization"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/deal"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
	"go.uber.org/zap"
)

// Category names and weights.
const (
	CategoryFinancial   = "financial"
	CategoryMarket      = "market"
	CategoryOperational = "operational"
	CategoryLiquidity   = "liquidity"

	FinancialWeight   = 0.4
	MarketWeight      = 0.3
	OperationalWeight = 0.2
	LiquidityWeight   = 0.1
)

// Risk levels.
const (
	LevelLow      = "Low"
	LevelMedium   = "Medium"
	LevelHigh     = "High"
	LevelCritical = "Critical"
)

// RecommendationThreshold is the factor score at which its mitigations are
// recommended.
const RecommendationThreshold = 60

var categoryOrder = []struct {
	name   string
	weight float64
}{
	{CategoryFinancial, FinancialWeight},
	{CategoryMarket, MarketWeight},
	{CategoryOperational, OperationalWeight},
	{CategoryLiquidity, LiquidityWeight},
}

// CategoryScore is the mean factor score of a category and its weighted
// contribution to the overall score.
type CategoryScore struct {
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	Score    float64 `json:"score"`
	Weighted float64 `json:"weighted"`
}

// Scenario is the outcome of one stress test. MonthsToRecover is -1 when
// the cash flow cannot repay a one-time cost.
type Scenario struct {
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	MonthlyCashFlowDelta float64 `json:"monthlyCashFlowDelta"`
	NewMonthlyCashFlow   float64 `json:"newMonthlyCashFlow"`
	OneTimeCost          float64 `json:"oneTimeCost,omitempty"`
	MonthsToRecover      float64 `json:"monthsToRecover,omitempty"`
	EquityDelta          float64 `json:"equityDelta,omitempty"`
	NewLoanToValue       float64 `json:"newLoanToValue,omitempty"`
	Survives             bool    `json:"survives"`
}

// Analysis is the complete risk assessment.
type Analysis struct {
	Factors         []Factor        `json:"factors"`
	Categories      []CategoryScore `json:"categories"`
	OverallScore    float64         `json:"overallScore"`
	Level           string          `json:"level"`
	Scenarios       []Scenario      `json:"scenarios"`
	Recommendations []string        `json:"recommendations"`
}

// Factor returns the named factor.
func (a Analysis) Factor(name string) (Factor, bool) {
	for _, f := range a.Factors {
		if f.Name == name {
			return f, true
		}
	}
	return Factor{}, false
}

// LevelFor maps an overall score to a risk level.
func LevelFor(score float64) string {
	switch {
	case score < 30:
		return LevelLow
	case score < 50:
		return LevelMedium
	case score < 70:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// Analyzer produces risk assessments.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer returns an Analyzer. A nil logger is replaced with a no-op logger.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger}
}

// Analyze scores the deal. It reads only its arguments.
func (r *Analyzer) Analyze(inputs deal.PropertyInputs, analysis deal.DealAnalysis) Analysis {
	factors := []Factor{
		cashFlowMarginFactor(analysis),
		leverageFactor(analysis),
		dscrFactor(analysis),
		vacancyFactor(inputs),
		propertyAgeFactor(inputs),
		valuationFactor(analysis),
		managementFactor(inputs),
		maintenanceFactor(inputs),
		liquidityFactor(inputs, analysis),
	}

	result := Analysis{Factors: factors}
	for _, c := range categoryOrder {
		var scores []float64
		for _, f := range factors {
			if f.Category == c.name {
				scores = append(scores, f.Score)
			}
		}
		mean := mathutil.Mean(scores...)
		result.Categories = append(result.Categories, CategoryScore{
			Name:     c.name,
			Weight:   c.weight,
			Score:    mean,
			Weighted: mean * c.weight,
		})
		result.OverallScore += mean * c.weight
	}
	result.Level = LevelFor(result.OverallScore)
	result.Scenarios = StressScenarios(inputs, analysis)
	result.Recommendations = recommendations(factors)

	r.logger.Debug("computed risk assessment",
		zap.String("op", "risk.Analyze"),
		zap.String("property", inputs.Name),
		zap.Float64("overallScore", result.OverallScore),
		zap.String("level", result.Level),
	)
	return result
}

// recommendations gathers mitigations of factors at or above the threshold,
// riskiest first, without duplicates.
func recommendations(factors []Factor) []string {
	risky := make([]Factor, 0, len(factors))
	for _, f := range factors {
		if f.Score >= RecommendationThreshold {
			risky = append(risky, f)
		}
	}
	sort.SliceStable(risky, func(i, j int) bool { return risky[i].Score > risky[j].Score })

	seen := make(map[string]bool)
	out := []string{}
	for _, f := range risky {
		for _, m := range f.Mitigations {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

// Stress scenario parameters.
const (
	VacancyShockPoints = 5.0
	RateShockPoints    = 2.0
	RepairShockCost    = 10000.0
	ValueShockPercent  = 10.0
)

// StressScenarios applies the four fixed shocks to the deal's cash flow.
func StressScenarios(inputs deal.PropertyInputs, a deal.DealAnalysis) []Scenario {
	net := a.CashFlow.MonthlyNet

	vacancyDelta := -mathutil.ApplyPercentage(a.Revenue.GrossMonthlyIncome, VacancyShockPoints)
	vacancy := Scenario{
		Name:                 "vacancy_increase",
		Description:          "Vacancy rises by 5 percentage points",
		MonthlyCashFlowDelta: vacancyDelta,
		NewMonthlyCashFlow:   net + vacancyDelta,
	}

	shockedPayment := amortization.MonthlyPayment(a.Financing.TotalMortgage,
		inputs.InterestRate+RateShockPoints, inputs.AmortizationYears)
	rateDelta := -(shockedPayment - a.Financing.MonthlyPayment)
	rate := Scenario{
		Name:                 "interest_rate_increase",
		Description:          "Mortgage rate rises by 2 percentage points at renewal",
		MonthlyCashFlowDelta: rateDelta,
		NewMonthlyCashFlow:   net + rateDelta,
	}

	repairDelta := -RepairShockCost / constants.MonthsPerYear
	repair := Scenario{
		Name:                 "major_repair",
		Description:          "A one-time $10,000 repair spread over a year",
		MonthlyCashFlowDelta: repairDelta,
		NewMonthlyCashFlow:   net + repairDelta,
		OneTimeCost:          RepairShockCost,
		MonthsToRecover:      -1,
	}
	if net > 0 {
		repair.MonthsToRecover = RepairShockCost / net
	}

	shockedValue := inputs.PurchasePrice * (1 - ValueShockPercent/constants.PercentageMultiplier)
	value := Scenario{
		Name:               "value_decline",
		Description:        "Property value falls 10%",
		NewMonthlyCashFlow: net,
		EquityDelta:        -mathutil.ApplyPercentage(inputs.PurchasePrice, ValueShockPercent),
		NewLoanToValue:     mathutil.Percent(a.Financing.TotalMortgage, shockedValue),
	}

	scenarios := []Scenario{vacancy, rate, repair, value}
	for i := range scenarios {
		scenarios[i].Survives = scenarios[i].NewMonthlyCashFlow >= 0
	}
	return scenarios
}

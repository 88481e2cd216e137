package risk

import (
	"fmt"

	"github.com/iwvelando/deal-analyzer/pkg/deal"
	"github.com/iwvelando/deal-analyzer/pkg/format"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
)

// Factor names.
const (
	FactorCashFlowMargin = "cash_flow_margin"
	FactorLeverage       = "leverage"
	FactorDSCR           = "debt_service_coverage"
	FactorVacancy        = "vacancy"
	FactorPropertyAge    = "property_age"
	FactorValuation      = "valuation"
	FactorManagement     = "property_management"
	FactorMaintenance    = "maintenance_budget"
	FactorLiquidity      = "liquidity"
)

// Factor is one banded risk measure. Score runs 0 to 100, higher is riskier.
type Factor struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Score       float64  `json:"score"`
	Value       float64  `json:"value"`
	Description string   `json:"description"`
	Impact      string   `json:"impact"`
	Mitigations []string `json:"mitigations"`
}

// band is a threshold rule: the first band whose test passes sets the score.
type band struct {
	test  func(float64) bool
	score float64
}

func atLeast(threshold float64) func(float64) bool {
	return func(v float64) bool { return v >= threshold }
}

func atMost(threshold float64) func(float64) bool {
	return func(v float64) bool { return v <= threshold }
}

func banded(value float64, bands []band, fallback float64) float64 {
	for _, b := range bands {
		if b.test(value) {
			return b.score
		}
	}
	return fallback
}

func cashFlowMarginFactor(a deal.DealAnalysis) Factor {
	margin := mathutil.Percent(a.CashFlow.MonthlyNet, a.Revenue.EffectiveMonthlyIncome)
	if a.Revenue.EffectiveMonthlyIncome == 0 && a.CashFlow.MonthlyNet < 0 {
		margin = -100
	}
	score := banded(margin, []band{
		{atLeast(20), 10}, {atLeast(10), 25}, {atLeast(5), 40}, {atLeast(0), 60}, {atLeast(-10), 80},
	}, 95)
	return Factor{
		Name:        FactorCashFlowMargin,
		Category:    CategoryFinancial,
		Score:       score,
		Value:       margin,
		Description: fmt.Sprintf("Monthly cash flow is %s of effective income", format.Percent(margin)),
		Impact:      "A thin margin leaves little room for rent declines or cost increases",
		Mitigations: []string{
			"Negotiate a lower purchase price",
			"Increase rent to market levels",
			"Reduce operating expenses",
		},
	}
}

func leverageFactor(a deal.DealAnalysis) Factor {
	ltv := a.Financing.LoanToValue
	score := banded(ltv, []band{
		{atMost(65), 15}, {atMost(75), 30}, {atMost(80), 45}, {atMost(90), 65},
	}, 85)
	return Factor{
		Name:        FactorLeverage,
		Category:    CategoryFinancial,
		Score:       score,
		Value:       ltv,
		Description: fmt.Sprintf("Loan-to-value is %s", format.Percent(ltv)),
		Impact:      "High leverage magnifies losses when values fall and limits refinancing",
		Mitigations: []string{
			"Increase the down payment",
			"Build an equity cushion before refinancing",
		},
	}
}

func dscrFactor(a deal.DealAnalysis) Factor {
	dscr := a.Metrics.DSCR
	f := Factor{
		Name:     FactorDSCR,
		Category: CategoryFinancial,
		Value:    dscr,
		Impact:   "Weak coverage means operating income may not meet mortgage payments",
		Mitigations: []string{
			"Extend the amortization to lower payments",
			"Increase net operating income before purchase",
		},
	}
	if !a.HasDebt() {
		f.Score = 5
		f.Description = "No mortgage to service"
		return f
	}
	f.Score = banded(dscr, []band{
		{atLeast(1.5), 10}, {atLeast(1.25), 25}, {atLeast(1.1), 45}, {atLeast(1.0), 65},
	}, 90)
	f.Description = fmt.Sprintf("Debt service coverage is %s", format.Ratio(dscr))
	return f
}

func vacancyFactor(in deal.PropertyInputs) Factor {
	v := in.VacancyRate
	score := banded(v, []band{
		{atMost(3), 15}, {atMost(5), 25}, {atMost(8), 45}, {atMost(12), 65},
	}, 85)
	return Factor{
		Name:        FactorVacancy,
		Category:    CategoryMarket,
		Score:       score,
		Value:       v,
		Description: fmt.Sprintf("Assumed vacancy is %s", format.Percent(v)),
		Impact:      "Extended vacancies remove income while costs continue",
		Mitigations: []string{
			"Screen tenants and offer longer leases",
			"Hold a vacancy reserve of two to three months of expenses",
		},
	}
}

func propertyAgeFactor(in deal.PropertyInputs) Factor {
	f := Factor{
		Name:     FactorPropertyAge,
		Category: CategoryMarket,
		Impact:   "Older buildings carry higher repair and capital replacement costs",
		Mitigations: []string{
			"Commission a detailed building inspection",
			"Budget for roof, furnace and plumbing replacement",
		},
	}
	if in.PropertyAge == nil {
		f.Score = 50
		f.Value = -1
		f.Description = "Property age is unknown"
		return f
	}
	age := float64(*in.PropertyAge)
	f.Value = age
	f.Score = banded(age, []band{
		{atMost(10), 15}, {atMost(25), 30}, {atMost(50), 50}, {atMost(75), 70},
	}, 85)
	f.Description = fmt.Sprintf("Property is %d years old", *in.PropertyAge)
	return f
}

func valuationFactor(a deal.DealAnalysis) Factor {
	grm := a.Metrics.GRM
	score := 85.0
	if grm > 0 {
		score = banded(grm, []band{
			{atMost(10), 15}, {atMost(14), 30}, {atMost(18), 50}, {atMost(22), 70},
		}, 85)
	}
	return Factor{
		Name:        FactorValuation,
		Category:    CategoryMarket,
		Score:       score,
		Value:       grm,
		Description: fmt.Sprintf("Gross rent multiplier is %.2f", grm),
		Impact:      "A high price relative to rent depends on appreciation for returns",
		Mitigations: []string{
			"Compare against recent sales and rents in the area",
			"Target properties with a lower gross rent multiplier",
		},
	}
}

func managementFactor(in deal.PropertyInputs) Factor {
	f := Factor{
		Name:     FactorManagement,
		Category: CategoryOperational,
		Value:    in.PropertyManagementPercent,
		Impact:   "Self-management trades fees for time and execution risk",
	}
	if in.PropertyManagementPercent > 0 {
		f.Score = 20
		f.Description = fmt.Sprintf("Professionally managed at %s of rent", format.Percent(in.PropertyManagementPercent))
		f.Mitigations = []string{"Review the management agreement and performance terms"}
		return f
	}
	f.Score = 45
	f.Description = "Self-managed"
	f.Mitigations = []string{
		"Budget for professional management if circumstances change",
		"Use standard leases and documented procedures",
	}
	return f
}

func maintenanceFactor(in deal.PropertyInputs) Factor {
	m := in.MaintenancePercent
	score := banded(m, []band{
		{atLeast(10), 15}, {atLeast(7), 30}, {atLeast(5), 50}, {atLeast(3), 70},
	}, 85)
	return Factor{
		Name:        FactorMaintenance,
		Category:    CategoryOperational,
		Score:       score,
		Value:       m,
		Description: fmt.Sprintf("Maintenance budget is %s of rent", format.Percent(m)),
		Impact:      "An underfunded maintenance budget defers costs into larger repairs",
		Mitigations: []string{
			"Raise the maintenance reserve to at least 10% of rent",
			"Set aside a capital expenditure reserve",
		},
	}
}

func liquidityFactor(in deal.PropertyInputs, a deal.DealAnalysis) Factor {
	cash := a.Acquisition.TotalAcquisitionCost + in.RenovationBudget()
	score := banded(cash, []band{
		{atMost(50000), 20}, {atMost(100000), 35}, {atMost(200000), 55}, {atMost(350000), 70},
	}, 85)
	return Factor{
		Name:        FactorLiquidity,
		Category:    CategoryLiquidity,
		Score:       score,
		Value:       cash,
		Description: fmt.Sprintf("Cash required to close is %s", format.WholeCurrency(cash)),
		Impact:      "Large cash commitments are hard to recover quickly and concentrate risk",
		Mitigations: []string{
			"Keep an emergency reserve outside the deal",
			"Partner with other investors to share the capital requirement",
		},
	}
}

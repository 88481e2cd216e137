package metrics

import (
	"fmt"

	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/deal"
	"go.uber.org/zap"
)

// AdvancedMetrics summarizes the hold-period returns. IRR, MIRR and
// AnnualizedReturn are percents.
type AdvancedMetrics struct {
	Assumptions      Assumptions      `json:"assumptions"`
	Investment       float64          `json:"investment"`
	Projections      []YearProjection `json:"projections"`
	IRR              float64          `json:"irr"`
	IRRSolver        IRRResult        `json:"irrSolver"`
	NPV              float64          `json:"npv"`
	MIRR             float64          `json:"mirr"`
	PaybackYears     float64          `json:"paybackYears"`
	EquityMultiple   float64          `json:"equityMultiple"`
	AnnualizedReturn float64          `json:"annualizedReturn"`
	TotalCashFlow    float64          `json:"totalCashFlow"`
	TotalProfit      float64          `json:"totalProfit"`
	Approximate      bool             `json:"approximate"`
	Warnings         []string         `json:"warnings,omitempty"`
}

// Engine computes AdvancedMetrics.
type Engine struct {
	logger *zap.Logger
}

// NewEngine returns an Engine. A nil logger is replaced with a no-op logger.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Analyze projects the deal over the hold period and solves the return
// metrics with the assumptions as given. An unconverged IRR is returned with
// Approximate set and a warning, not as an error.
func (e *Engine) Analyze(inputs deal.PropertyInputs, analysis deal.DealAnalysis, assumptions Assumptions) (AdvancedMetrics, error) {
	projections, err := GenerateCashFlowProjections(inputs, analysis, assumptions)
	if err != nil {
		return AdvancedMetrics{}, fmt.Errorf("cash flow projections: %w", err)
	}

	flows := CashFlows(projections)
	investment := Investment(inputs, analysis)
	pct := constants.PercentageMultiplier

	m := AdvancedMetrics{
		Assumptions:    assumptions,
		Investment:     investment,
		Projections:    projections,
		NPV:            CalculateNPV(flows, investment, assumptions.DiscountRate/pct),
		PaybackYears:   CalculatePaybackPeriod(flows, investment),
		EquityMultiple: EquityMultiple(flows, investment),
	}
	m.AnnualizedReturn = AnnualizedReturn(m.EquityMultiple, assumptions.HoldPeriodYears) * pct

	total := 0.0
	for _, p := range projections {
		m.TotalCashFlow += p.NetCashFlow
		total += p.TotalCashFlow
	}
	m.TotalProfit = total - investment

	m.IRRSolver = CalculateIRR(flows, investment)
	m.IRR = m.IRRSolver.Rate * pct
	if err := m.IRRSolver.Err(); err != nil {
		m.Approximate = true
		m.Warnings = append(m.Warnings, "IRR is approximate: the solver did not converge")
		e.logger.Warn("IRR did not converge",
			zap.String("op", "metrics.Analyze"),
			zap.String("property", inputs.Name),
			zap.Int("iterations", m.IRRSolver.Iterations),
			zap.Error(err),
		)
	}

	mirr, err := CalculateMIRR(flows, investment, assumptions.FinanceRate/pct, assumptions.ReinvestmentRate/pct)
	if err != nil {
		m.Warnings = append(m.Warnings, fmt.Sprintf("MIRR unavailable: %v", err))
	} else {
		m.MIRR = mirr * pct
	}

	e.logger.Debug("computed advanced metrics",
		zap.String("op", "metrics.Analyze"),
		zap.String("property", inputs.Name),
		zap.Float64("irr", m.IRR),
		zap.Float64("npv", m.NPV),
		zap.String("method", m.IRRSolver.Method),
	)
	return m, nil
}

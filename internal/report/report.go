// Package report runs every calculator for each configured property and
// collects the results.
package report

import (
	"context"
	"fmt"

	"github.com/iwvelando/deal-analyzer/internal/config"
	"github.com/iwvelando/deal-analyzer/internal/optimizer"
	"github.com/iwvelando/deal-analyzer/pkg/breakeven"
	"github.com/iwvelando/deal-analyzer/pkg/deal"
	"github.com/iwvelando/deal-analyzer/pkg/incometax"
	"github.com/iwvelando/deal-analyzer/pkg/metrics"
	"github.com/iwvelando/deal-analyzer/pkg/optimization"
	"github.com/iwvelando/deal-analyzer/pkg/rates"
	"github.com/iwvelando/deal-analyzer/pkg/risk"
	"go.uber.org/zap"
)

// PropertyReport holds every result for one property.
type PropertyReport struct {
	Name          string                  `json:"name"`
	Inputs        deal.PropertyInputs     `json:"inputs"`
	Analysis      deal.DealAnalysis       `json:"analysis"`
	Advanced      metrics.AdvancedMetrics `json:"advanced"`
	Tax           *incometax.TaxImpact    `json:"tax,omitempty"`
	Risk          risk.Analysis           `json:"risk"`
	BreakEven     breakeven.Analysis      `json:"breakEven"`
	Optimizations []optimization.Summary  `json:"optimizations,omitempty"`
	Warnings      []string                `json:"warnings,omitempty"`
}

// PropertyName returns the property's name.
func (p PropertyReport) PropertyName() string {
	return p.Name
}

// Report is the result of one configuration run.
type Report struct {
	TaxYear    int              `json:"taxYear"`
	Properties []PropertyReport `json:"properties"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// Request is a single-property run. Unset assumptions take their defaults.
// A nil Investor skips the income tax analysis and a nil Optimizer skips the
// exact solvers.
type Request struct {
	Inputs      deal.PropertyInputs
	Assumptions metrics.AssumptionInputs
	Investor    *incometax.TaxProfile
	Optimizer   *optimizer.Options
}

// Generator produces reports. It is safe for concurrent use; the rate
// tables are shared read-only.
type Generator struct {
	logger    *zap.Logger
	tables    *rates.Tables
	analyzer  *deal.Analyzer
	engine    *metrics.Engine
	tax       *incometax.Calculator
	risk      *risk.Analyzer
	breakeven *breakeven.Calculator
}

// NewGenerator returns a Generator over tables. A nil logger is replaced
// with a no-op logger and nil tables with the built-in tables.
func NewGenerator(logger *zap.Logger, tables *rates.Tables) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tables == nil {
		tables = rates.Default()
	}
	return &Generator{
		logger:    logger,
		tables:    tables,
		analyzer:  deal.NewAnalyzer(logger, tables),
		engine:    metrics.NewEngine(logger),
		tax:       incometax.NewCalculator(logger, tables),
		risk:      risk.NewAnalyzer(logger),
		breakeven: breakeven.NewCalculator(logger),
	}
}

// Tables returns the rate tables the generator uses.
func (g *Generator) Tables() *rates.Tables {
	return g.tables
}

// Generate runs every active property in conf. It stops between properties
// when ctx is cancelled, and fails on the first property error.
func (g *Generator) Generate(ctx context.Context, conf *config.Configuration) (*Report, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	result := &Report{
		TaxYear:  g.tables.TaxYear,
		Warnings: conf.ValidateConfiguration(),
	}

	var investor *incometax.TaxProfile
	if conf.Investor != nil {
		profile := conf.Investor.ToTaxProfile()
		investor = &profile
	}
	var opts *optimizer.Options
	if conf.Optimizer.Enabled {
		o := conf.Optimizer.Options()
		opts = &o
	}

	for _, property := range conf.Properties {
		if !property.Active {
			g.logger.Debug(fmt.Sprintf("skipping property %s because it is inactive", property.Name),
				zap.String("op", "report.Generate"),
			)
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("report generation cancelled: %w", err)
		}

		pr, err := g.GenerateProperty(ctx, Request{
			Inputs:      property.ToPropertyInputs(),
			Assumptions: conf.Assumptions,
			Investor:    investor,
			Optimizer:   opts,
		})
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", property.Name, err)
		}
		result.Properties = append(result.Properties, pr)
	}

	g.logger.Info("generated report",
		zap.String("op", "report.Generate"),
		zap.Int("properties", len(result.Properties)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

// GenerateProperty runs Analyze, the hold-period metrics, income tax, risk,
// break-even and, when requested, the exact solvers for one property.
func (g *Generator) GenerateProperty(ctx context.Context, req Request) (PropertyReport, error) {
	if err := ctx.Err(); err != nil {
		return PropertyReport{}, err
	}

	analysis, err := g.analyzer.Analyze(req.Inputs)
	if err != nil {
		return PropertyReport{}, err
	}
	inputs := analysis.Inputs
	assumptions := req.Assumptions.Resolve()

	advanced, err := g.engine.Analyze(inputs, analysis, assumptions)
	if err != nil {
		return PropertyReport{}, err
	}

	pr := PropertyReport{
		Name:      inputs.Name,
		Inputs:    inputs,
		Analysis:  analysis,
		Advanced:  advanced,
		Risk:      g.risk.Analyze(inputs, analysis),
		BreakEven: g.breakeven.Analyze(inputs, analysis),
	}
	pr.Warnings = append(pr.Warnings, analysis.Warnings...)
	pr.Warnings = append(pr.Warnings, advanced.Warnings...)

	if req.Investor != nil {
		impact, err := g.tax.Analyze(inputs, analysis, *req.Investor, assumptions)
		if err != nil {
			return PropertyReport{}, fmt.Errorf("tax impact: %w", err)
		}
		pr.Tax = &impact
	}

	if req.Optimizer != nil {
		runner, err := optimizer.NewRunner(g.logger, g.analyzer, *req.Optimizer)
		if err != nil {
			return PropertyReport{}, err
		}
		summaries, err := runner.Run(inputs)
		if err != nil {
			return PropertyReport{}, err
		}
		pr.Optimizations = summaries
	}

	g.logger.Debug("generated property report",
		zap.String("op", "report.GenerateProperty"),
		zap.String("property", inputs.Name),
		zap.Int("score", analysis.Scoring.Score),
		zap.String("riskLevel", pr.Risk.Level),
	)
	return pr, nil
}

// Package optimizer solves exactly, by bisection over the full deal
// analyzer, for the highest interest rate and purchase price that keep a
// property's monthly cash flow at or above a target.
package optimizer

import (
	"fmt"
	"math"

	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/deal"
	"github.com/iwvelando/deal-analyzer/pkg/format"
	"github.com/iwvelando/deal-analyzer/pkg/optimization"
	"go.uber.org/zap"
)

// Solver fields.
const (
	FieldInterestRate  = "interestRate"
	FieldPurchasePrice = "purchasePrice"
)

const (
	// DefaultTolerance is the cash flow tolerance in dollars per month.
	DefaultTolerance = 0.01
	// DefaultMaxIterations caps each bisection.
	DefaultMaxIterations = 100
	// PriceSearchMultiplier sets the upper purchase price bound relative to
	// the original price.
	PriceSearchMultiplier = 3.0
)

// Options configures a Runner. Zero fields take defaults.
type Options struct {
	TargetMonthlyCashFlow float64
	Tolerance             float64
	MaxIterations         int
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	return o
}

// Runner executes the solvers against one analyzer.
type Runner struct {
	logger   *zap.Logger
	analyzer *deal.Analyzer
	opts     Options
}

type target struct {
	field    string
	original float64
	minValue float64
	maxValue float64
	apply    func(deal.PropertyInputs, float64) deal.PropertyInputs
	display  func(float64) string
}

type evaluation struct {
	value    float64
	cashFlow float64
	target   float64
}

func (e evaluation) feasible() bool {
	return e.cashFlow >= e.target
}

func (e evaluation) headroom() float64 {
	return e.cashFlow - e.target
}

// NewRunner constructs a Runner for the provided analyzer.
func NewRunner(logger *zap.Logger, analyzer *deal.Analyzer, opts Options) (*Runner, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, analyzer: analyzer, opts: opts.withDefaults()}, nil
}

// Run solves every supported field for the property.
func (r *Runner) Run(inputs deal.PropertyInputs) ([]optimization.Summary, error) {
	rate, err := r.MaxInterestRate(inputs)
	if err != nil {
		return nil, err
	}
	price, err := r.MaxPurchasePrice(inputs)
	if err != nil {
		return nil, err
	}
	return []optimization.Summary{rate, price}, nil
}

// MaxInterestRate finds the highest contract rate whose cash flow meets the
// target, holding everything else constant.
func (r *Runner) MaxInterestRate(inputs deal.PropertyInputs) (optimization.Summary, error) {
	return r.solve(inputs, target{
		field:    FieldInterestRate,
		original: inputs.InterestRate,
		minValue: 0,
		maxValue: constants.MaxInterestRate,
		apply: func(in deal.PropertyInputs, v float64) deal.PropertyInputs {
			in.InterestRate = v
			return in
		},
		display: format.Percent,
	})
}

// MaxPurchasePrice finds the highest price whose cash flow meets the target
// at the same down payment percent, rate and amortization. Below the
// insurance-free down payment the search stays on the property's side of the
// CMHC price cap, where the insured mortgage and cash flow are monotonic.
func (r *Runner) MaxPurchasePrice(inputs deal.PropertyInputs) (optimization.Summary, error) {
	_, downPercent := inputs.DownPayment()
	minValue, maxValue := 1.0, inputs.PurchasePrice*PriceSearchMultiplier
	if cmhc := r.analyzer.Tables().CMHC; downPercent < cmhc.InsuranceFreeDownPercent {
		if inputs.PurchasePrice <= cmhc.MaxInsuredPrice {
			maxValue = math.Min(maxValue, cmhc.MaxInsuredPrice)
		} else {
			minValue = math.Nextafter(cmhc.MaxInsuredPrice, math.Inf(1))
		}
	}
	return r.solve(inputs, target{
		field:    FieldPurchasePrice,
		original: inputs.PurchasePrice,
		minValue: minValue,
		maxValue: maxValue,
		apply: func(in deal.PropertyInputs, v float64) deal.PropertyInputs {
			in.PurchasePrice = v
			in.DownPaymentAmount = 0
			in.DownPaymentPercent = downPercent
			return in
		},
		display: format.Currency,
	})
}

func (r *Runner) solve(inputs deal.PropertyInputs, t target) (optimization.Summary, error) {
	lowerEval, err := r.evaluate(inputs, t, t.minValue)
	if err != nil {
		return optimization.Summary{}, err
	}
	upperEval, err := r.evaluate(inputs, t, t.maxValue)
	if err != nil {
		return optimization.Summary{}, err
	}

	summary := optimization.Summary{
		Property:        inputs.Name,
		Field:           t.field,
		Original:        t.original,
		OriginalDisplay: t.display(t.original),
		Target:          r.opts.TargetMonthlyCashFlow,
	}
	finish := func(e evaluation, iterations int, converged bool, notes ...string) optimization.Summary {
		summary.Value = e.value
		summary.ValueDisplay = t.display(e.value)
		summary.CashFlow = e.cashFlow
		summary.Headroom = e.headroom()
		summary.Iterations = iterations
		summary.Converged = converged
		summary.Notes = notes
		r.logger.Info("optimizer solved field",
			zap.String("op", "optimizer.solve"),
			zap.String("property", inputs.Name),
			zap.String("field", t.field),
			zap.Float64("original", t.original),
			zap.Float64("value", e.value),
			zap.Float64("cashFlow", e.cashFlow),
			zap.Int("iterations", iterations),
			zap.Bool("converged", converged),
		)
		return summary
	}

	if !lowerEval.feasible() {
		note := fmt.Sprintf("unable to reach monthly cash flow %s within bounds %s to %s",
			format.Currency(summary.Target), t.display(t.minValue), t.display(t.maxValue))
		return finish(lowerEval, 0, false, note), nil
	}
	if upperEval.feasible() {
		note := fmt.Sprintf("cash flow target met at the upper bound %s", t.display(t.maxValue))
		return finish(upperEval, 0, true, note), nil
	}

	best := lowerEval
	lower, upper := lowerEval.value, upperEval.value
	iterations := 0
	for iterations < r.opts.MaxIterations {
		mid := lower + (upper-lower)/2
		if mid == lower || mid == upper {
			break
		}
		evalMid, err := r.evaluate(inputs, t, mid)
		if err != nil {
			return optimization.Summary{}, err
		}
		iterations++
		if evalMid.feasible() {
			best = evalMid
			lower = mid
			if evalMid.headroom() <= r.opts.Tolerance {
				return finish(best, iterations, true), nil
			}
		} else {
			upper = mid
		}
	}
	return finish(best, iterations, best.headroom() <= r.opts.Tolerance), nil
}

func (r *Runner) evaluate(inputs deal.PropertyInputs, t target, value float64) (evaluation, error) {
	analysis, err := r.analyzer.Analyze(t.apply(inputs, value))
	if err != nil {
		return evaluation{}, fmt.Errorf("optimizer evaluation of %s at %.4f failed: %w", t.field, value, err)
	}
	return evaluation{
		value:    value,
		cashFlow: analysis.CashFlow.MonthlyNet,
		target:   r.opts.TargetMonthlyCashFlow,
	}, nil
}

// Package metrics computes multi-year rate-of-return figures for a deal:
// cash-flow projections, IRR, NPV, MIRR, payback period and equity multiple.
//
// The solver functions take fractional rates (0.08 for 8%). Assumptions and
// the AdvancedMetrics summary use percents like the rest of the module.
package metrics

import (
	"errors"
	"fmt"
	"math"
)

// ErrNonConvergence is reported when a rate solver stops at its iteration cap
// without meeting tolerance.
var ErrNonConvergence = errors.New("rate of return did not converge")

// Solver limits.
const (
	IRRSeed                = 0.10
	NewtonTolerance        = 1e-5
	NewtonMaxIterations    = 100
	BisectionLow           = -0.99
	BisectionHigh          = 10.0
	BisectionTolerance     = 1e-10
	BisectionMaxIterations = 200
)

// Solver methods reported in IRRResult.
const (
	MethodNewton    = "newton"
	MethodBisection = "bisection"
)

// IRRResult is the outcome of CalculateIRR. When Converged is false, Rate is
// the last estimate and must be treated as approximate.
type IRRResult struct {
	Rate       float64 `json:"rate"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
	Method     string  `json:"method"`
}

// Err returns ErrNonConvergence for an unconverged result and nil otherwise.
func (r IRRResult) Err() error {
	if r.Converged {
		return nil
	}
	return fmt.Errorf("%w after %d iterations (last estimate %.6f)", ErrNonConvergence, r.Iterations, r.Rate)
}

// CalculateNPV discounts cashFlows, where cashFlows[t] arrives at the end of
// year t+1, and subtracts the initial investment.
func CalculateNPV(cashFlows []float64, investment, discountRate float64) float64 {
	npv := -investment
	for t, cf := range cashFlows {
		npv += cf / math.Pow(1+discountRate, float64(t+1))
	}
	return npv
}

// npvDerivative is d(NPV)/d(rate).
func npvDerivative(cashFlows []float64, rate float64) float64 {
	d := 0.0
	for t, cf := range cashFlows {
		period := float64(t + 1)
		d -= period * cf / math.Pow(1+rate, period+1)
	}
	return d
}

// CalculateIRR finds the rate at which NPV is zero. Newton-Raphson runs
// first from IRRSeed; if it stalls or diverges and NPV changes sign over
// [BisectionLow, BisectionHigh], bisection takes over. Both loops are capped.
func CalculateIRR(cashFlows []float64, investment float64) IRRResult {
	rate := IRRSeed
	result := IRRResult{Rate: rate, Method: MethodNewton}

	for i := 1; i <= NewtonMaxIterations; i++ {
		result.Iterations = i
		npv := CalculateNPV(cashFlows, investment, rate)
		d := npvDerivative(cashFlows, rate)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			break
		}
		next := rate - npv/d
		if math.IsNaN(next) || math.IsInf(next, 0) || next <= -1 {
			break
		}
		if math.Abs(next-rate) < NewtonTolerance {
			result.Rate = next
			result.Converged = true
			return result
		}
		rate = next
		result.Rate = rate
	}

	if bisected, ok := bisectIRR(cashFlows, investment); ok {
		bisected.Iterations += result.Iterations
		return bisected
	}
	return result
}

func bisectIRR(cashFlows []float64, investment float64) (IRRResult, bool) {
	lo, hi := BisectionLow, BisectionHigh
	npvLo := CalculateNPV(cashFlows, investment, lo)
	npvHi := CalculateNPV(cashFlows, investment, hi)
	if math.IsNaN(npvLo) || math.IsNaN(npvHi) || npvLo*npvHi > 0 {
		return IRRResult{}, false
	}

	result := IRRResult{Method: MethodBisection}
	for i := 1; i <= BisectionMaxIterations; i++ {
		result.Iterations = i
		mid := (lo + hi) / 2
		npvMid := CalculateNPV(cashFlows, investment, mid)
		result.Rate = mid
		if npvMid == 0 || (hi-lo)/2 < BisectionTolerance {
			result.Converged = true
			return result, true
		}
		if (npvMid < 0) == (npvLo < 0) {
			lo, npvLo = mid, npvMid
		} else {
			hi = mid
		}
	}
	return result, true
}

// CalculatePaybackPeriod returns the years until cumulative cash flow
// recovers the investment, interpolating linearly inside the crossing year.
// It returns the full horizon when the investment is never recovered.
func CalculatePaybackPeriod(cashFlows []float64, investment float64) float64 {
	if investment <= 0 {
		return 0
	}
	cumulative := 0.0
	for i, cf := range cashFlows {
		if cf > 0 && cumulative+cf >= investment {
			return float64(i) + (investment-cumulative)/cf
		}
		cumulative += cf
	}
	return float64(len(cashFlows))
}

// CalculateMIRR compounds positive flows to the horizon at reinvestRate,
// discounts negative flows plus the investment at financeRate, and returns
// (FV/PV)^(1/n) - 1.
func CalculateMIRR(cashFlows []float64, investment, financeRate, reinvestRate float64) (float64, error) {
	n := len(cashFlows)
	if n == 0 {
		return 0, fmt.Errorf("MIRR requires at least one cash flow")
	}

	futureValue := 0.0
	presentValue := math.Max(investment, 0)
	for t, cf := range cashFlows {
		if cf > 0 {
			futureValue += cf * math.Pow(1+reinvestRate, float64(n-t-1))
		} else if cf < 0 {
			presentValue += -cf / math.Pow(1+financeRate, float64(t+1))
		}
	}
	if presentValue <= 0 {
		return 0, fmt.Errorf("MIRR requires a negative cash flow or a positive investment")
	}
	if futureValue <= 0 {
		return -1, nil
	}
	return math.Pow(futureValue/presentValue, 1/float64(n)) - 1, nil
}

// EquityMultiple is the sum of cash flows divided by the investment, 0 for a
// non-positive investment.
func EquityMultiple(cashFlows []float64, investment float64) float64 {
	if investment <= 0 {
		return 0
	}
	total := 0.0
	for _, cf := range cashFlows {
		total += cf
	}
	return total / investment
}

// AnnualizedReturn converts an equity multiple over years into a compound
// annual rate. A non-positive multiple is a total loss (-1).
func AnnualizedReturn(multiple float64, years int) float64 {
	if years <= 0 {
		return 0
	}
	if multiple <= 0 {
		return -1
	}
	return math.Pow(multiple, 1/float64(years)) - 1
}

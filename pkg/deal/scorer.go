package deal

import (
	"fmt"

	"github.com/iwvelando/deal-analyzer/pkg/format"
)

// Category maxima. They sum to 100.
const (
	CashFlowPoints     = 30
	CashOnCashPoints   = 25
	CapRatePoints      = 20
	DSCRPoints         = 15
	StressTestPoints   = 10
	MaxScore           = CashFlowPoints + CashOnCashPoints + CapRatePoints + DSCRPoints + StressTestPoints
	stressTestCategory = "Stress test"
)

// Grade is one letter band of the rubric.
type Grade struct {
	Letter   string
	MinScore int
	Color    string
}

// Grades lists the letter bands from best to worst.
var Grades = []Grade{
	{Letter: "A", MinScore: 85, Color: "green"},
	{Letter: "B", MinScore: 70, Color: "lime"},
	{Letter: "C", MinScore: 55, Color: "yellow"},
	{Letter: "D", MinScore: 40, Color: "orange"},
	{Letter: "F", MinScore: 0, Color: "red"},
}

// GradeFor maps a score to its band.
func GradeFor(score int) Grade {
	for _, g := range Grades {
		if score >= g.MinScore {
			return g
		}
	}
	return Grades[len(Grades)-1]
}

// Scorer applies the fixed-weight rubric to an analysis. It has no state.
type Scorer struct{}

// Score rates a completed analysis. The Scoring field of the argument is
// ignored.
func (Scorer) Score(analysis DealAnalysis) Scoring {
	categories := []CategoryScore{
		scoreCashFlow(analysis.CashFlow.MonthlyNet),
		scoreCashOnCash(analysis.Metrics.CashOnCashReturn),
		scoreCapRate(analysis.Market.CapRateDelta),
		scoreDSCR(analysis.Metrics.DSCR, analysis.HasDebt()),
		{
			Name:      stressTestCategory,
			Points:    StressTestPoints,
			MaxPoints: StressTestPoints,
			Reason:    "qualification assumed: no borrower income available to test",
		},
	}

	total := 0
	reasons := make([]string, 0, len(categories))
	for _, c := range categories {
		total += c.Points
		reasons = append(reasons, fmt.Sprintf("%s (%d/%d): %s", c.Name, c.Points, c.MaxPoints, c.Reason))
	}
	if total < 0 {
		total = 0
	}
	if total > MaxScore {
		total = MaxScore
	}

	grade := GradeFor(total)
	return Scoring{
		Score:      total,
		Grade:      grade.Letter,
		Color:      grade.Color,
		Reasons:    reasons,
		Categories: categories,
	}
}

func scoreCashFlow(monthly float64) CategoryScore {
	c := CategoryScore{Name: "Cash flow", MaxPoints: CashFlowPoints}
	amount := format.Currency(monthly)
	switch {
	case monthly > 500:
		c.Points, c.Reason = 30, "strong monthly cash flow of "+amount
	case monthly > 200:
		c.Points, c.Reason = 20, "good monthly cash flow of "+amount
	case monthly > 0:
		c.Points, c.Reason = 10, "thin monthly cash flow of "+amount
	default:
		c.Points, c.Reason = 0, "no positive cash flow ("+amount+" per month)"
	}
	return c
}

func scoreCashOnCash(coc float64) CategoryScore {
	c := CategoryScore{Name: "Cash-on-cash return", MaxPoints: CashOnCashPoints}
	pct := format.Percent(coc)
	switch {
	case coc > 15:
		c.Points, c.Reason = 25, "excellent return of "+pct
	case coc > 10:
		c.Points, c.Reason = 20, "strong return of "+pct
	case coc > 6:
		c.Points, c.Reason = 15, "moderate return of "+pct
	case coc > 0:
		c.Points, c.Reason = 8, "low return of "+pct
	default:
		c.Points, c.Reason = 0, "no cash return ("+pct+")"
	}
	return c
}

func scoreCapRate(delta float64) CategoryScore {
	c := CategoryScore{Name: "Cap rate vs market", MaxPoints: CapRatePoints}
	diff := fmt.Sprintf("%+.2f points", delta)
	switch {
	case delta > 1:
		c.Points, c.Reason = 20, "well above market ("+diff+")"
	case delta >= 0:
		c.Points, c.Reason = 15, "at or above market ("+diff+")"
	case delta > -1:
		c.Points, c.Reason = 8, "slightly below market ("+diff+")"
	default:
		c.Points, c.Reason = 0, "well below market ("+diff+")"
	}
	return c
}

func scoreDSCR(dscr float64, hasDebt bool) CategoryScore {
	c := CategoryScore{Name: "Debt service coverage", MaxPoints: DSCRPoints}
	if !hasDebt {
		c.Points, c.Reason = 15, "no mortgage to service"
		return c
	}
	ratio := format.Ratio(dscr)
	switch {
	case dscr > 1.5:
		c.Points, c.Reason = 15, "comfortable coverage of "+ratio
	case dscr > 1.25:
		c.Points, c.Reason = 10, "adequate coverage of "+ratio
	case dscr > 1.0:
		c.Points, c.Reason = 5, "tight coverage of "+ratio
	default:
		c.Points, c.Reason = 0, "income does not cover debt service ("+ratio+")"
	}
	return c
}

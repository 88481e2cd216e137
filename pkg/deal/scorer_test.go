package deal

import (
	"strings"
	"testing"
)

func TestGradeFor(t *testing.T) {
	tests := []struct {
		score         int
		expectedGrade string
		expectedColor string
	}{
		{100, "A", "green"},
		{85, "A", "green"},
		{84, "B", "lime"},
		{70, "B", "lime"},
		{69, "C", "yellow"},
		{55, "C", "yellow"},
		{54, "D", "orange"},
		{40, "D", "orange"},
		{39, "F", "red"},
		{0, "F", "red"},
	}

	for _, tt := range tests {
		g := GradeFor(tt.score)
		if g.Letter != tt.expectedGrade || g.Color != tt.expectedColor {
			t.Errorf("GradeFor(%d) = %s/%s, expected %s/%s", tt.score, g.Letter, g.Color, tt.expectedGrade, tt.expectedColor)
		}
	}
}

func TestScoreCategoryBands(t *testing.T) {
	tests := []struct {
		name     string
		category CategoryScore
		expected int
	}{
		{"Cash flow above 500", scoreCashFlow(500.01), 30},
		{"Cash flow at 500", scoreCashFlow(500), 20},
		{"Cash flow at 200", scoreCashFlow(200), 10},
		{"Cash flow zero", scoreCashFlow(0), 0},
		{"Cash on cash above 15", scoreCashOnCash(15.5), 25},
		{"Cash on cash at 15", scoreCashOnCash(15), 20},
		{"Cash on cash at 10", scoreCashOnCash(10), 15},
		{"Cash on cash at 6", scoreCashOnCash(6), 8},
		{"Cash on cash negative", scoreCashOnCash(-3), 0},
		{"Cap rate well above", scoreCapRate(1.2), 20},
		{"Cap rate at market", scoreCapRate(0), 15},
		{"Cap rate slightly below", scoreCapRate(-0.5), 8},
		{"Cap rate at minus one", scoreCapRate(-1), 0},
		{"DSCR above 1.5", scoreDSCR(1.6, true), 15},
		{"DSCR at 1.5", scoreDSCR(1.5, true), 10},
		{"DSCR at 1.25", scoreDSCR(1.25, true), 5},
		{"DSCR at 1.0", scoreDSCR(1.0, true), 0},
		{"No debt", scoreDSCR(0, false), 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.category.Points != tt.expected {
				t.Errorf("Points = %d, expected %d (%s)", tt.category.Points, tt.expected, tt.category.Reason)
			}
			if tt.category.Points > tt.category.MaxPoints {
				t.Errorf("Points %d exceed max %d", tt.category.Points, tt.category.MaxPoints)
			}
		})
	}
}

func TestScoreBoundsAndReasons(t *testing.T) {
	if MaxScore != 100 {
		t.Fatalf("category maxima sum to %d, expected 100", MaxScore)
	}

	analyzer := NewAnalyzer(nil, nil)
	var scorer Scorer
	for rent := 0.0; rent <= 5000; rent += 250 {
		inputs := scenarioInputs()
		inputs.MonthlyRent = rent
		analysis, err := analyzer.Analyze(inputs)
		if err != nil {
			t.Fatalf("Analyze(rent=%.0f) error = %v", rent, err)
		}
		s := analysis.Scoring
		if s.Score < 0 || s.Score > 100 {
			t.Errorf("rent %.0f: score %d out of bounds", rent, s.Score)
		}
		if s.Grade != GradeFor(s.Score).Letter {
			t.Errorf("rent %.0f: grade %s does not match score %d", rent, s.Grade, s.Score)
		}
		if len(s.Reasons) != 5 || len(s.Categories) != 5 {
			t.Errorf("rent %.0f: expected five categories, got %d reasons", rent, len(s.Reasons))
		}
		sum := 0
		for _, c := range s.Categories {
			sum += c.Points
		}
		if sum != s.Score {
			t.Errorf("rent %.0f: category points %d != score %d", rent, sum, s.Score)
		}
		if rescored := scorer.Score(analysis); rescored.Score != s.Score {
			t.Errorf("rent %.0f: rescoring changed the score", rent)
		}
	}
}

func TestScoreReasonsAnnotatePoints(t *testing.T) {
	analysis, err := NewAnalyzer(nil, nil).Analyze(scenarioInputs())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	want := []string{"Cash flow (0/30)", "Cash-on-cash return (0/25)", "Cap rate vs market (8/20)", "Debt service coverage (0/15)", "Stress test (10/10)"}
	for i, prefix := range want {
		if !strings.HasPrefix(analysis.Scoring.Reasons[i], prefix) {
			t.Errorf("reason %d = %q, expected prefix %q", i, analysis.Scoring.Reasons[i], prefix)
		}
	}
}

func TestCompareMarket(t *testing.T) {
	tests := []struct {
		name           string
		city           string
		propertyType   PropertyType
		expectedCap    float64
		expectedSource string
	}{
		{"Known city and type", "Toronto", Condo, 3.2, SourceBenchmark},
		{"Known city without typed rate", "Victoria", Townhouse, 3.4, SourceBenchmark},
		{"Unknown city", "Moncton", SingleFamily, 5.0, SourceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs := scenarioInputs()
			inputs.City = tt.city
			inputs.PropertyType = tt.propertyType
			m := CompareMarket(NewAnalyzer(nil, nil).Tables(), inputs, 4.0)
			if m.MarketCapRate != tt.expectedCap || m.Source != tt.expectedSource {
				t.Errorf("got cap %.2f source %s, expected %.2f %s", m.MarketCapRate, m.Source, tt.expectedCap, tt.expectedSource)
			}
			if m.CapRateDelta != 4.0-tt.expectedCap {
				t.Errorf("CapRateDelta = %.4f", m.CapRateDelta)
			}
			if m.Assessment == "" {
				t.Error("expected an assessment")
			}
		})
	}
}

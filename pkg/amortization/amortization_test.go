package amortization

import (
	"math"
	"testing"
)

func TestMonthlyPayment(t *testing.T) {
	tests := []struct {
		name          string
		principal     float64
		annualRate    float64
		years         int
		expectedRange []float64 // [min, max] expected range
	}{
		{
			name:          "Scenario mortgage 5.5% over 25 years",
			principal:     239920,
			annualRate:    5.5,
			years:         25,
			expectedRange: []float64{1473, 1474}, // Around $1473.31
		},
		{
			name:          "Standard 30-year mortgage",
			principal:     240000,
			annualRate:    6.0,
			years:         30,
			expectedRange: []float64{1438, 1440}, // Around $1438.92
		},
		{
			name:          "Zero interest loan",
			principal:     12000,
			annualRate:    0.0,
			years:         5,
			expectedRange: []float64{200, 200},
		},
		{
			name:          "No principal",
			principal:     0,
			annualRate:    5.0,
			years:         25,
			expectedRange: []float64{0, 0},
		},
		{
			name:          "No term",
			principal:     100000,
			annualRate:    5.0,
			years:         0,
			expectedRange: []float64{0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MonthlyPayment(tt.principal, tt.annualRate, tt.years)

			if result < tt.expectedRange[0] || result > tt.expectedRange[1] {
				t.Errorf("MonthlyPayment() = %.2f, expected range [%.2f, %.2f]",
					result, tt.expectedRange[0], tt.expectedRange[1])
			}
		})
	}
}

func TestPrincipalForPaymentInvertsMonthlyPayment(t *testing.T) {
	tests := []struct {
		name       string
		principal  float64
		annualRate float64
		years      int
	}{
		{"Typical mortgage", 480000, 5.25, 25},
		{"Zero rate", 90000, 0, 15},
		{"High rate short term", 50000, 12, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment := MonthlyPayment(tt.principal, tt.annualRate, tt.years)
			got := PrincipalForPayment(payment, tt.annualRate, tt.years)
			if math.Abs(got-tt.principal) > 0.01 {
				t.Errorf("PrincipalForPayment() = %.4f, expected %.2f", got, tt.principal)
			}
		})
	}

	if got := PrincipalForPayment(-5, 5, 25); got != 0 {
		t.Errorf("PrincipalForPayment(negative) = %.2f, expected 0", got)
	}
}

func TestInterestPayment(t *testing.T) {
	tests := []struct {
		name               string
		remainingPrincipal float64
		annualRate         float64
		expected           float64
	}{
		{"Standard mortgage interest", 200000, 6.0, 1000.0},
		{"Fractional rate", 15000, 4.5, 56.25},
		{"Zero interest", 10000, 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := InterestPayment(tt.remainingPrincipal, tt.annualRate)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("InterestPayment() = %.4f, expected %.4f", result, tt.expected)
			}
		})
	}
}

func TestRemainingBalanceRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		principal  float64
		annualRate float64
		years      int
	}{
		{"Scenario mortgage", 239920, 5.5, 25},
		{"Zero rate", 100000, 0, 20},
		{"Short high rate", 35000, 9.9, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemainingBalance(tt.principal, tt.annualRate, tt.years, 0); got != tt.principal {
				t.Errorf("RemainingBalance(elapsed=0) = %.6f, expected %.2f", got, tt.principal)
			}
			start := RemainingBalance(tt.principal, tt.annualRate, tt.years, float64(tt.years)-1.0/12.0)
			if start <= 0 {
				t.Errorf("balance one month before maturity should be positive, got %.2f", start)
			}
			if got := RemainingBalance(tt.principal, tt.annualRate, tt.years, float64(tt.years)); math.Abs(got) > 0.01 {
				t.Errorf("RemainingBalance(elapsed=term) = %.6f, expected ~0", got)
			}
		})
	}
}

func TestRemainingBalanceMatchesSchedule(t *testing.T) {
	principal, rate, years := 300000.0, 4.75, 25
	schedule := MonthlySchedule(principal, rate, years)
	for _, month := range []int{1, 12, 60, 150, 299} {
		closedForm := RemainingBalance(principal, rate, years, float64(month)/12)
		iterated := schedule[month-1].RemainingPrincipal
		if math.Abs(closedForm-iterated) > 0.01 {
			t.Errorf("month %d: closed form %.4f vs schedule %.4f", month, closedForm, iterated)
		}
	}
}

func TestRemainingBalanceClamps(t *testing.T) {
	if got := RemainingBalance(100000, 5, 10, 40); got != 0 {
		t.Errorf("RemainingBalance past maturity = %.2f, expected 0", got)
	}
	if got := RemainingBalance(0, 5, 10, 2); got != 0 {
		t.Errorf("RemainingBalance with no principal = %.2f, expected 0", got)
	}
}

func TestYearlySchedule(t *testing.T) {
	principal, rate, years := 239920.0, 5.5, 25
	summaries := YearlySchedule(principal, rate, years)
	if len(summaries) != years {
		t.Fatalf("expected %d yearly summaries, got %d", years, len(summaries))
	}

	totalPrincipal := 0.0
	for i, s := range summaries {
		if s.Year != i+1 {
			t.Errorf("summary %d has year %d", i, s.Year)
		}
		totalPrincipal += s.Principal
		if i > 0 && math.Abs(s.StartingBalance-summaries[i-1].EndingBalance) > 1e-6 {
			t.Errorf("year %d starting balance %.2f does not match previous ending %.2f",
				s.Year, s.StartingBalance, summaries[i-1].EndingBalance)
		}
	}

	if math.Abs(totalPrincipal-principal) > 0.01 {
		t.Errorf("principal repaid %.2f, expected %.2f", totalPrincipal, principal)
	}
	if summaries[len(summaries)-1].EndingBalance != 0 {
		t.Errorf("expected zero final balance, got %.6f", summaries[len(summaries)-1].EndingBalance)
	}
	if summaries[0].Interest <= summaries[len(summaries)-1].Interest {
		t.Error("interest should decline over the amortization")
	}
}

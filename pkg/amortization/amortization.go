// Package amortization provides fixed-rate mortgage payment math.
//
// Rates are annual percentages compounded monthly; terms are in years.
package amortization

import (
	"math"

	"github.com/iwvelando/deal-analyzer/pkg/constants"
)

// Payment holds the values for a given monthly payment.
type Payment struct {
	Month              int
	Payment            float64
	Principal          float64
	Interest           float64
	RemainingPrincipal float64
}

// YearSummary aggregates twelve monthly payments.
type YearSummary struct {
	Year            int     `json:"year"`
	StartingBalance float64 `json:"startingBalance"`
	Payments        float64 `json:"payments"`
	Interest        float64 `json:"interest"`
	Principal       float64 `json:"principal"`
	EndingBalance   float64 `json:"endingBalance"`
}

func periodicRate(annualRate float64) float64 {
	return annualRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// MonthlyPayment calculates the monthly payment using the standard
// amortization formula P·r(1+r)^n / ((1+r)^n − 1). A zero rate degenerates
// to P/n.
func MonthlyPayment(principal, annualRate float64, years int) float64 {
	n := years * constants.MonthsPerYear
	if principal <= 0 || n <= 0 {
		return 0
	}
	if annualRate == 0 {
		return principal / float64(n)
	}

	r := periodicRate(annualRate)
	power := math.Pow(1+r, float64(n))
	return principal * r * power / (power - 1)
}

// PaymentFactor is the monthly payment per dollar of principal.
func PaymentFactor(annualRate float64, years int) float64 {
	return MonthlyPayment(1, annualRate, years)
}

// PrincipalForPayment inverts MonthlyPayment: it returns the principal that a
// monthly payment retires over the term.
func PrincipalForPayment(payment, annualRate float64, years int) float64 {
	n := years * constants.MonthsPerYear
	if payment <= 0 || n <= 0 {
		return 0
	}
	if annualRate == 0 {
		return payment * float64(n)
	}

	r := periodicRate(annualRate)
	power := math.Pow(1+r, float64(n))
	return payment * (power - 1) / (r * power)
}

// InterestPayment calculates the interest portion of a payment.
func InterestPayment(remainingPrincipal, annualRate float64) float64 {
	return remainingPrincipal * periodicRate(annualRate)
}

// RemainingBalance returns the closed-form loan balance after elapsedYears of
// scheduled payments, clamped to be non-negative.
func RemainingBalance(principal, annualRate float64, totalYears int, elapsedYears float64) float64 {
	if principal <= 0 {
		return 0
	}
	if elapsedYears <= 0 {
		return principal
	}
	n := float64(totalYears * constants.MonthsPerYear)
	k := elapsedYears * constants.MonthsPerYear
	if k >= n {
		return 0
	}

	payment := MonthlyPayment(principal, annualRate, totalYears)
	var balance float64
	if annualRate == 0 {
		balance = principal - payment*k
	} else {
		r := periodicRate(annualRate)
		growth := math.Pow(1+r, k)
		balance = principal*growth - payment*(growth-1)/r
	}
	return math.Max(0, balance)
}

// MonthlySchedule generates every scheduled payment over the term.
func MonthlySchedule(principal, annualRate float64, years int) []Payment {
	n := years * constants.MonthsPerYear
	if principal <= 0 || n <= 0 {
		return nil
	}

	payment := MonthlyPayment(principal, annualRate, years)
	schedule := make([]Payment, 0, n)
	balance := principal
	for month := 1; month <= n; month++ {
		interest := InterestPayment(balance, annualRate)
		principalPart := payment - interest
		if month == n || principalPart > balance {
			// Final payment absorbs floating point drift.
			principalPart = balance
		}
		balance -= principalPart
		schedule = append(schedule, Payment{
			Month:              month,
			Payment:            principalPart + interest,
			Principal:          principalPart,
			Interest:           interest,
			RemainingPrincipal: balance,
		})
	}
	return schedule
}

// YearlySchedule aggregates the monthly schedule by year.
func YearlySchedule(principal, annualRate float64, years int) []YearSummary {
	monthly := MonthlySchedule(principal, annualRate, years)
	if len(monthly) == 0 {
		return nil
	}

	summaries := make([]YearSummary, 0, years)
	current := YearSummary{Year: 1, StartingBalance: principal}
	for _, p := range monthly {
		current.Payments += p.Payment
		current.Interest += p.Interest
		current.Principal += p.Principal
		current.EndingBalance = p.RemainingPrincipal
		if p.Month%constants.MonthsPerYear == 0 {
			summaries = append(summaries, current)
			current = YearSummary{Year: current.Year + 1, StartingBalance: p.RemainingPrincipal}
		}
	}
	return summaries
}

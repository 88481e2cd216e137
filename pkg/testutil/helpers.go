// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/deal-analyzer/pkg/deal"
	"github.com/iwvelando/deal-analyzer/pkg/rates"
)

// Named is implemented by report records that carry a property name.
type Named interface {
	PropertyName() string
}

// FindReport finds a report by property name in the results slice.
// Returns a pointer to the report if found, nil otherwise.
func FindReport[T Named](results []T, name string) *T {
	for i := range results {
		if results[i].PropertyName() == name {
			return &results[i]
		}
	}
	return nil
}

// SampleOntarioInputs returns a 20% down Hamilton duplex that runs a
// negative monthly cash flow at 5.5% over 25 years.
func SampleOntarioInputs() deal.PropertyInputs {
	return deal.PropertyInputs{
		Name:                      "Hamilton duplex",
		Province:                  rates.Ontario,
		City:                      "Hamilton",
		PurchasePrice:             299900,
		DownPaymentPercent:        20,
		InterestRate:              5.5,
		AmortizationYears:         25,
		MonthlyRent:               1800,
		VacancyRate:               5,
		PropertyTaxAnnual:         3000,
		InsuranceAnnual:           1200,
		PropertyManagementPercent: 8,
		MaintenancePercent:        10,
	}
}

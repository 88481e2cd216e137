package config

import (
	"strings"

	"github.com/iwvelando/deal-analyzer/pkg/deal"
	"github.com/iwvelando/deal-analyzer/pkg/incometax"
	"github.com/iwvelando/deal-analyzer/pkg/rates"
)

// ToPropertyInputs converts a configured property to analyzer inputs.
// Pointer fields are copied.
func (p *Property) ToPropertyInputs() deal.PropertyInputs {
	inputs := deal.PropertyInputs{
		Name:                      strings.TrimSpace(p.Name),
		Province:                  rates.Province(strings.ToUpper(strings.TrimSpace(p.Province))),
		City:                      p.City,
		PropertyType:              deal.PropertyType(p.PropertyType),
		Strategy:                  deal.Strategy(p.Strategy),
		PurchasePrice:             p.PurchasePrice,
		DownPaymentPercent:        p.DownPaymentPercent,
		DownPaymentAmount:         p.DownPaymentAmount,
		InterestRate:              p.InterestRate,
		AmortizationYears:         p.AmortizationYears,
		MonthlyRent:               p.MonthlyRent,
		OtherIncome:               p.OtherIncome,
		VacancyRate:               p.VacancyRate,
		PropertyTaxAnnual:         p.PropertyTaxAnnual,
		InsuranceAnnual:           p.InsuranceAnnual,
		PropertyManagementPercent: p.PropertyManagementPercent,
		MaintenancePercent:        p.MaintenancePercent,
		UtilitiesMonthly:          p.UtilitiesMonthly,
		HOAMonthly:                p.HOAMonthly,
		OtherMonthly:              p.OtherMonthly,
		IsFirstTimeBuyer:          p.IsFirstTimeBuyer,
	}
	if p.AfterRepairValue != nil {
		v := *p.AfterRepairValue
		inputs.AfterRepairValue = &v
	}
	if p.RenovationCost != nil {
		v := *p.RenovationCost
		inputs.RenovationCost = &v
	}
	if p.PropertyAge != nil {
		v := *p.PropertyAge
		inputs.PropertyAge = &v
	}
	return inputs
}

// FromPropertyInputs builds an active configured property from analyzer
// inputs.
func FromPropertyInputs(inputs deal.PropertyInputs) Property {
	p := Property{
		Name:                      inputs.Name,
		Active:                    true,
		Province:                  string(inputs.Province),
		City:                      inputs.City,
		PropertyType:              string(inputs.PropertyType),
		Strategy:                  string(inputs.Strategy),
		PurchasePrice:             inputs.PurchasePrice,
		DownPaymentPercent:        inputs.DownPaymentPercent,
		DownPaymentAmount:         inputs.DownPaymentAmount,
		InterestRate:              inputs.InterestRate,
		AmortizationYears:         inputs.AmortizationYears,
		MonthlyRent:               inputs.MonthlyRent,
		OtherIncome:               inputs.OtherIncome,
		VacancyRate:               inputs.VacancyRate,
		PropertyTaxAnnual:         inputs.PropertyTaxAnnual,
		InsuranceAnnual:           inputs.InsuranceAnnual,
		PropertyManagementPercent: inputs.PropertyManagementPercent,
		MaintenancePercent:        inputs.MaintenancePercent,
		UtilitiesMonthly:          inputs.UtilitiesMonthly,
		HOAMonthly:                inputs.HOAMonthly,
		OtherMonthly:              inputs.OtherMonthly,
		IsFirstTimeBuyer:          inputs.IsFirstTimeBuyer,
	}
	normalized := inputs.Normalized()
	p.AfterRepairValue = normalized.AfterRepairValue
	p.RenovationCost = normalized.RenovationCost
	p.PropertyAge = normalized.PropertyAge
	return p
}

// ToTaxProfile converts the investor configuration to a tax profile.
func (i *InvestorConfig) ToTaxProfile() incometax.TaxProfile {
	return incometax.TaxProfile{
		AnnualIncome:         i.AnnualIncome,
		Province:             rates.Province(strings.ToUpper(strings.TrimSpace(i.Province))),
		BuildingValuePercent: i.BuildingValuePercent,
	}
}

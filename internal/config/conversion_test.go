package config

import (
	"reflect"
	"testing"

	"github.com/iwvelando/deal-analyzer/pkg/deal"
	"github.com/iwvelando/deal-analyzer/pkg/rates"
)

func TestToPropertyInputs(t *testing.T) {
	age := 35
	property := Property{
		Name:                      "  Ottawa townhouse ",
		Active:                    true,
		Province:                  " on",
		City:                      "Ottawa",
		PropertyType:              "townhouse",
		Strategy:                  "brrrr",
		PurchasePrice:             450000,
		DownPaymentAmount:         90000,
		InterestRate:              4.9,
		AmortizationYears:         30,
		MonthlyRent:               2900,
		VacancyRate:               4,
		PropertyTaxAnnual:         4200,
		InsuranceAnnual:           1300,
		MaintenancePercent:        7,
		HOAMonthly:                120,
		AfterRepairValue:          floatPtr(520000),
		RenovationCost:            floatPtr(30000),
		IsFirstTimeBuyer:          true,
		PropertyAge:               &age,
		PropertyManagementPercent: 0,
	}

	inputs := property.ToPropertyInputs()

	if inputs.Name != "Ottawa townhouse" {
		t.Errorf("Name = %q", inputs.Name)
	}
	if inputs.Province != rates.Ontario {
		t.Errorf("Province = %q, expected ON", inputs.Province)
	}
	if inputs.Strategy != deal.StrategyBRRRR || inputs.PropertyType != deal.Townhouse {
		t.Errorf("unexpected strategy or type %s %s", inputs.Strategy, inputs.PropertyType)
	}
	if inputs.DownPaymentAmount != 90000 || inputs.HOAMonthly != 120 || !inputs.IsFirstTimeBuyer {
		t.Errorf("unexpected inputs %+v", inputs)
	}
	if inputs.AfterRepairValue == nil || *inputs.AfterRepairValue != 520000 {
		t.Fatalf("AfterRepairValue = %v", inputs.AfterRepairValue)
	}
	if inputs.AfterRepairValue == property.AfterRepairValue || inputs.PropertyAge == property.PropertyAge {
		t.Error("pointer fields must be copied")
	}
	if err := inputs.Validate(); err != nil {
		t.Errorf("converted inputs are invalid: %v", err)
	}
}

func TestToPropertyInputsNilPointers(t *testing.T) {
	inputs := (&Property{Name: "Bare", Province: "AB"}).ToPropertyInputs()
	if inputs.AfterRepairValue != nil || inputs.RenovationCost != nil || inputs.PropertyAge != nil {
		t.Errorf("nil pointers should stay nil: %+v", inputs)
	}
}

func TestFromPropertyInputsRoundTrip(t *testing.T) {
	arv := 400000.0
	original := deal.PropertyInputs{
		Name:               "Edmonton bungalow",
		Province:           rates.Alberta,
		City:               "Edmonton",
		PropertyType:       deal.SingleFamily,
		Strategy:           deal.StrategyBRRRR,
		PurchasePrice:      320000,
		DownPaymentPercent: 20,
		InterestRate:       5.2,
		AmortizationYears:  25,
		MonthlyRent:        2600,
		VacancyRate:        4,
		AfterRepairValue:   &arv,
	}

	property := FromPropertyInputs(original)
	if !property.Active {
		t.Error("converted property should be active")
	}
	if property.AfterRepairValue == &arv {
		t.Error("pointer fields must be copied")
	}
	back := property.ToPropertyInputs()
	if !reflect.DeepEqual(back, original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, original)
	}
}

func TestInvestorToTaxProfile(t *testing.T) {
	investor := &InvestorConfig{AnnualIncome: 100000, Province: "qc ", BuildingValuePercent: 75}
	profile := investor.ToTaxProfile()
	if profile.AnnualIncome != 100000 || profile.Province != rates.Quebec || profile.BuildingValuePercent != 75 {
		t.Errorf("unexpected profile %+v", profile)
	}
}

func TestOptimizerOptions(t *testing.T) {
	opts := OptimizerConfig{Enabled: true, TargetMonthlyCashFlow: 150, Tolerance: 0.5, MaxIterations: 40}.Options()
	if opts.TargetMonthlyCashFlow != 150 || opts.Tolerance != 0.5 || opts.MaxIterations != 40 {
		t.Errorf("unexpected options %+v", opts)
	}
}

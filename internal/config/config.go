// Package config defines the data structures related to configuration and
// includes functions for loading, validating and converting it.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/deal-analyzer/pkg/deal"
	"github.com/iwvelando/deal-analyzer/pkg/metrics"
	"github.com/iwvelando/deal-analyzer/pkg/rates"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for deal-analyzer.
type Configuration struct {
	Logging        LoggingConfig            `yaml:"logging,omitempty" mapstructure:"logging"`
	Output         OutputConfig             `yaml:"output,omitempty" mapstructure:"output"`
	RateTablesFile string                   `yaml:"rateTablesFile,omitempty" mapstructure:"rateTablesFile"`
	Assumptions    metrics.AssumptionInputs `yaml:"assumptions,omitempty" mapstructure:"assumptions"`
	Investor       *InvestorConfig          `yaml:"investor,omitempty" mapstructure:"investor"`
	Properties     []Property               `yaml:"properties" mapstructure:"properties"`
	Optimizer      OptimizerConfig          `yaml:"optimizer,omitempty" mapstructure:"optimizer"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json, markdown
}

// InvestorConfig is the investor's tax profile.
type InvestorConfig struct {
	AnnualIncome         float64 `yaml:"annualIncome" mapstructure:"annualIncome"`
	Province             string  `yaml:"province,omitempty" mapstructure:"province"`
	BuildingValuePercent float64 `yaml:"buildingValuePercent,omitempty" mapstructure:"buildingValuePercent"`
}

// Property holds one deal to analyze.
type Property struct {
	Name                      string   `yaml:"name" mapstructure:"name"`
	Active                    bool     `yaml:"active" mapstructure:"active"`
	Province                  string   `yaml:"province" mapstructure:"province"`
	City                      string   `yaml:"city" mapstructure:"city"`
	PropertyType              string   `yaml:"propertyType,omitempty" mapstructure:"propertyType"`
	Strategy                  string   `yaml:"strategy,omitempty" mapstructure:"strategy"`
	PurchasePrice             float64  `yaml:"purchasePrice" mapstructure:"purchasePrice"`
	DownPaymentPercent        float64  `yaml:"downPaymentPercent,omitempty" mapstructure:"downPaymentPercent"`
	DownPaymentAmount         float64  `yaml:"downPaymentAmount,omitempty" mapstructure:"downPaymentAmount"`
	InterestRate              float64  `yaml:"interestRate" mapstructure:"interestRate"`
	AmortizationYears         int      `yaml:"amortizationYears" mapstructure:"amortizationYears"`
	MonthlyRent               float64  `yaml:"monthlyRent" mapstructure:"monthlyRent"`
	OtherIncome               float64  `yaml:"otherIncome,omitempty" mapstructure:"otherIncome"`
	VacancyRate               float64  `yaml:"vacancyRate" mapstructure:"vacancyRate"`
	PropertyTaxAnnual         float64  `yaml:"propertyTaxAnnual" mapstructure:"propertyTaxAnnual"`
	InsuranceAnnual           float64  `yaml:"insuranceAnnual" mapstructure:"insuranceAnnual"`
	PropertyManagementPercent float64  `yaml:"propertyManagementPercent" mapstructure:"propertyManagementPercent"`
	MaintenancePercent        float64  `yaml:"maintenancePercent" mapstructure:"maintenancePercent"`
	UtilitiesMonthly          float64  `yaml:"utilitiesMonthly,omitempty" mapstructure:"utilitiesMonthly"`
	HOAMonthly                float64  `yaml:"hoaMonthly,omitempty" mapstructure:"hoaMonthly"`
	OtherMonthly              float64  `yaml:"otherMonthly,omitempty" mapstructure:"otherMonthly"`
	AfterRepairValue          *float64 `yaml:"afterRepairValue,omitempty" mapstructure:"afterRepairValue"`
	RenovationCost            *float64 `yaml:"renovationCost,omitempty" mapstructure:"renovationCost"`
	IsFirstTimeBuyer          bool     `yaml:"isFirstTimeBuyer,omitempty" mapstructure:"isFirstTimeBuyer"`
	PropertyAge               *int     `yaml:"propertyAge,omitempty" mapstructure:"propertyAge"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// ActiveProperties returns the properties marked active, in file order.
func (c *Configuration) ActiveProperties() []Property {
	var active []Property
	for _, p := range c.Properties {
		if p.Active {
			active = append(active, p)
		}
	}
	return active
}

// LoadRateTables returns the configured rate tables, or the built-in tables
// when no file is set.
func (c *Configuration) LoadRateTables() (*rates.Tables, error) {
	return rates.Resolve(c.RateTablesFile)
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if len(c.ActiveProperties()) == 0 {
		warnings = append(warnings, "no active properties configured")
	}

	seen := make(map[string]bool)
	for i, p := range c.Properties {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			warnings = append(warnings, fmt.Sprintf("property %d has no name", i+1))
			continue
		}
		if seen[name] {
			warnings = append(warnings, fmt.Sprintf("duplicate property name %q", name))
		}
		seen[name] = true

		if strings.EqualFold(p.Strategy, string(deal.StrategyBRRRR)) && p.AfterRepairValue == nil {
			warnings = append(warnings, fmt.Sprintf("property %q uses the BRRRR strategy without an afterRepairValue; the refinance analysis will be skipped", name))
		}
		if c.Investor != nil && c.Investor.Province != "" && !strings.EqualFold(c.Investor.Province, p.Province) {
			warnings = append(warnings, fmt.Sprintf("investor province %s differs from property %q province %s; income tax uses the investor province", strings.ToUpper(c.Investor.Province), name, strings.ToUpper(p.Province)))
		}
	}

	if c.Optimizer.Enabled && c.Optimizer.Tolerance < 0 {
		warnings = append(warnings, "optimizer tolerance is negative; the default will be used")
	}

	return warnings
}

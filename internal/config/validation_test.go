package config

import (
	"strings"
	"testing"
)

func floatPtr(value float64) *float64 {
	return &value
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name          string
		config        Configuration
		expectedCount int
		contains      string
	}{
		{
			name: "Valid configuration",
			config: Configuration{
				Properties: []Property{{Name: "A", Active: true, Province: "ON"}},
			},
			expectedCount: 0,
		},
		{
			name:          "No properties",
			config:        Configuration{},
			expectedCount: 1,
			contains:      "no active properties",
		},
		{
			name: "Only inactive properties",
			config: Configuration{
				Properties: []Property{{Name: "A", Province: "ON"}},
			},
			expectedCount: 1,
			contains:      "no active properties",
		},
		{
			name: "Duplicate names",
			config: Configuration{
				Properties: []Property{
					{Name: "A", Active: true, Province: "ON"},
					{Name: "A", Active: true, Province: "ON"},
				},
			},
			expectedCount: 1,
			contains:      "duplicate property name",
		},
		{
			name: "Missing name",
			config: Configuration{
				Properties: []Property{{Active: true, Province: "ON"}},
			},
			expectedCount: 1,
			contains:      "has no name",
		},
		{
			name: "BRRRR without ARV",
			config: Configuration{
				Properties: []Property{{Name: "A", Active: true, Province: "ON", Strategy: "BRRRR"}},
			},
			expectedCount: 1,
			contains:      "afterRepairValue",
		},
		{
			name: "BRRRR with ARV",
			config: Configuration{
				Properties: []Property{{Name: "A", Active: true, Province: "ON", Strategy: "brrrr", AfterRepairValue: floatPtr(400000)}},
			},
			expectedCount: 0,
		},
		{
			name: "Investor province differs",
			config: Configuration{
				Investor:   &InvestorConfig{AnnualIncome: 80000, Province: "bc"},
				Properties: []Property{{Name: "A", Active: true, Province: "ON"}},
			},
			expectedCount: 1,
			contains:      "investor province BC",
		},
		{
			name: "Investor province matches case-insensitively",
			config: Configuration{
				Investor:   &InvestorConfig{AnnualIncome: 80000, Province: "on"},
				Properties: []Property{{Name: "A", Active: true, Province: "ON"}},
			},
			expectedCount: 0,
		},
		{
			name: "Negative optimizer tolerance",
			config: Configuration{
				Optimizer:  OptimizerConfig{Enabled: true, Tolerance: -1},
				Properties: []Property{{Name: "A", Active: true, Province: "ON"}},
			},
			expectedCount: 1,
			contains:      "tolerance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := tt.config.ValidateConfiguration()
			if len(warnings) != tt.expectedCount {
				t.Fatalf("expected %d warnings, got %d: %v", tt.expectedCount, len(warnings), warnings)
			}
			if tt.contains != "" && !strings.Contains(warnings[0], tt.contains) {
				t.Errorf("warning %q does not contain %q", warnings[0], tt.contains)
			}
		})
	}
}

func TestValidateConfigurationFixture(t *testing.T) {
	config, err := LoadConfiguration("../../test/test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	warnings := config.ValidateConfiguration()
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
	if !strings.Contains(warnings[0], "Ottawa townhouse") || !strings.Contains(warnings[1], "Inactive condo") {
		t.Errorf("unexpected warnings %v", warnings)
	}
}

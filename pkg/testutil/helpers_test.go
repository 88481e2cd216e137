package testutil

import (
	"testing"
)

type namedRecord struct {
	name  string
	value float64
}

func (r namedRecord) PropertyName() string { return r.name }

func TestFindReport(t *testing.T) {
	results := []namedRecord{
		{name: "Hamilton duplex", value: 1000},
		{name: "Ottawa condo", value: 2000},
		{name: "Edmonton bungalow", value: 3000},
	}

	tests := []struct {
		name          string
		searchName    string
		expectFound   bool
		expectedValue float64
	}{
		{"Find first report", "Hamilton duplex", true, 1000},
		{"Find middle report", "Ottawa condo", true, 2000},
		{"Find last report", "Edmonton bungalow", true, 3000},
		{"Search for non-existent report", "Calgary triplex", false, 0},
		{"Empty search name", "", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindReport(results, tt.searchName)
			if !tt.expectFound {
				if result != nil {
					t.Errorf("FindReport() expected nil, got %+v", result)
				}
				return
			}
			if result == nil {
				t.Fatalf("FindReport() expected to find %q", tt.searchName)
			}
			if result.value != tt.expectedValue {
				t.Errorf("FindReport() value = %.2f, expected %.2f", result.value, tt.expectedValue)
			}
		})
	}
}

func TestFindReportReturnsElementPointer(t *testing.T) {
	results := []namedRecord{{name: "Hamilton duplex", value: 1}}
	FindReport(results, "Hamilton duplex").value = 5
	if results[0].value != 5 {
		t.Error("FindReport() should point into the slice")
	}
}

func TestSampleOntarioInputsValid(t *testing.T) {
	if err := SampleOntarioInputs().Validate(); err != nil {
		t.Fatalf("SampleOntarioInputs() is invalid: %v", err)
	}
}

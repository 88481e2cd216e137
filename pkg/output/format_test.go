package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iwvelando/deal-analyzer/internal/config"
	"github.com/iwvelando/deal-analyzer/internal/report"
	"github.com/iwvelando/deal-analyzer/pkg/testutil"
)

func sampleReport(t *testing.T) *report.Report {
	t.Helper()
	conf := &config.Configuration{
		Investor:   &config.InvestorConfig{AnnualIncome: 100000},
		Optimizer:  config.OptimizerConfig{Enabled: true},
		Properties: []config.Property{config.FromPropertyInputs(testutil.SampleOntarioInputs())},
	}
	r, err := report.NewGenerator(nil, nil).Generate(context.Background(), conf)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	r.Warnings = []string{"duplicate property name \"X\""}
	return r
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := PrettyFormat(&buf, sampleReport(t)); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	output := buf.String()

	expected := []string{
		"--- Results for property Hamilton duplex (Hamilton, ON) ---",
		"Metric               | Value",
		"______               | _____",
		"18/100 (F)",
		"$299,900.00",
		"$2,973.50",
		"$239,920.00",
		"-$437.32",
		"IRR (10 years)",
		"Max interestRate",
		"Max purchasePrice",
		"WARNING: Negative monthly cash flow",
		"CONFIG WARNING: duplicate property name",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("PrettyFormat output missing %q", want)
		}
	}
}

func TestCsvFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, sampleReport(t)); err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV output does not parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header and one row, got %d records", len(records))
	}
	if len(records[0]) != len(CsvHeader) || len(records[1]) != len(CsvHeader) {
		t.Fatalf("column count mismatch: %d %d", len(records[0]), len(records[1]))
	}

	row := map[string]string{}
	for i, column := range records[0] {
		row[column] = records[1][i]
	}
	tests := []struct {
		column   string
		expected string
	}{
		{"property", "Hamilton duplex"},
		{"province", "ON"},
		{"score", "18"},
		{"grade", "F"},
		{"purchase price", "299900.00"},
		{"land transfer tax", "2973.50"},
		{"total mortgage", "239920.00"},
		{"monthly cash flow", "-437.32"},
		{"risk level", "Medium"},
		{"years to positive", "10"},
	}
	for _, tt := range tests {
		if row[tt.column] != tt.expected {
			t.Errorf("column %q = %q, expected %q", tt.column, row[tt.column], tt.expected)
		}
	}
	if !strings.HasPrefix(row["warnings"], "Negative monthly cash flow") {
		t.Errorf("unexpected warnings column %q", row["warnings"])
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONFormat(&buf, sampleReport(t)); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}

	var decoded struct {
		TaxYear    int `json:"taxYear"`
		Properties []struct {
			Name     string `json:"name"`
			Analysis struct {
				Scoring struct {
					Score int `json:"score"`
				} `json:"scoring"`
			} `json:"analysis"`
			Tax           *json.RawMessage  `json:"tax"`
			Optimizations []json.RawMessage `json:"optimizations"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON output does not decode: %v", err)
	}
	if decoded.TaxYear != 2024 || len(decoded.Properties) != 1 {
		t.Fatalf("unexpected report %+v", decoded)
	}
	pr := decoded.Properties[0]
	if pr.Name != "Hamilton duplex" || pr.Analysis.Scoring.Score != 18 {
		t.Errorf("unexpected property %+v", pr)
	}
	if pr.Tax == nil || len(pr.Optimizations) != 2 {
		t.Error("expected tax and optimizer sections")
	}
}

func TestMarkdownDocument(t *testing.T) {
	doc := MarkdownDocument(sampleReport(t))
	expected := []string{
		"# Deal analysis (2024 rate tables)",
		"## Hamilton duplex",
		"Hamilton, Ontario. Score **18/100 (F)**, risk **Medium**.",
		"| Purchase price | $299,900.00 |",
		"| Monthly cash flow | -$437.32 |",
		"### Scoring",
		"### Recommendations",
		"### Warnings",
		"## Configuration warnings",
	}
	for _, want := range expected {
		if !strings.Contains(doc, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := MarkdownFormat(&buf, sampleReport(t)); err != nil {
		t.Fatalf("MarkdownFormat() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Hamilton") {
		t.Error("rendered markdown missing the property name")
	}
}

func TestWrite(t *testing.T) {
	r := sampleReport(t)
	tests := []struct {
		format    string
		wantError bool
		prefix    string
	}{
		{"pretty", false, "--- Results for property"},
		{"csv", false, "property,province"},
		{"json", false, "{"},
		{"markdown", false, ""},
		{"xml", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			err := Write(&buf, tt.format, r)
			if tt.wantError {
				if err == nil {
					t.Error("expected an error for an unsupported format")
				}
				return
			}
			if err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if !strings.HasPrefix(buf.String(), tt.prefix) {
				t.Errorf("output starts with %q, expected %q", firstLine(buf.String()), tt.prefix)
			}
		})
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Package output provides utilities for formatting and displaying deal reports.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/iwvelando/deal-analyzer/internal/report"
	"github.com/iwvelando/deal-analyzer/pkg/breakeven"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/format"
	"github.com/iwvelando/deal-analyzer/pkg/validation"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders r to w in the named format.
func Write(w io.Writer, outputFormat string, r *report.Report) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	switch outputFormat {
	case constants.OutputFormatCSV:
		return CsvFormat(w, r)
	case constants.OutputFormatJSON:
		return JSONFormat(w, r)
	case constants.OutputFormatMarkdown:
		return MarkdownFormat(w, r)
	default:
		return PrettyFormat(w, r)
	}
}

// dollars formats an amount with thousands separators and a leading sign.
func dollars(p *message.Printer, amount float64) string {
	if amount < 0 {
		return p.Sprintf("-$%.2f", math.Abs(amount))
	}
	return p.Sprintf("$%.2f", amount)
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, r *report.Report) error {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	for i, pr := range r.Properties {
		a := pr.Analysis
		fmt.Fprintf(&b, "--- Results for property %s (%s, %s) ---\n", pr.Name, a.Inputs.City, a.Inputs.Province)
		fmt.Fprintf(&b, "Metric               | Value\n")
		fmt.Fprintf(&b, "______               | _____\n")

		row := func(label, value string) {
			fmt.Fprintf(&b, "%-20s | %s\n", label, value)
		}
		row("Score", fmt.Sprintf("%d/100 (%s)", a.Scoring.Score, a.Scoring.Grade))
		row("Purchase price", dollars(p, a.Acquisition.PurchasePrice))
		row("Down payment", fmt.Sprintf("%s (%s)", dollars(p, a.Acquisition.DownPayment), format.Percent(a.Acquisition.DownPaymentPercent)))
		row("Land transfer tax", dollars(p, a.Acquisition.LandTransferTax.NetTax))
		row("Cash to close", dollars(p, a.Acquisition.TotalAcquisitionCost))
		row("Total mortgage", dollars(p, a.Financing.TotalMortgage))
		if a.Financing.CMHC.InsuranceRequired {
			row("CMHC premium", dollars(p, a.Financing.CMHC.Premium))
		}
		row("Monthly payment", dollars(p, a.Financing.MonthlyPayment))
		row("Monthly cash flow", dollars(p, a.CashFlow.MonthlyNet))
		row("Annual NOI", dollars(p, a.CashFlow.AnnualNOI))
		row("Cap rate", format.Percent(a.Metrics.CapRate))
		row("Cash on cash", format.Percent(a.Metrics.CashOnCashReturn))
		row("DSCR", format.Ratio(a.Metrics.DSCR))
		if a.BRRRR != nil {
			row("BRRRR cash left", dollars(p, a.BRRRR.CashLeftInDeal))
		}

		irr := format.Percent(pr.Advanced.IRR)
		if pr.Advanced.Approximate {
			irr += " (approximate)"
		}
		row(fmt.Sprintf("IRR (%d years)", pr.Advanced.Assumptions.HoldPeriodYears), irr)
		row("NPV", dollars(p, pr.Advanced.NPV))
		row("Payback", p.Sprintf("%.1f years", pr.Advanced.PaybackYears))
		row("Risk", p.Sprintf("%s (%.1f)", pr.Risk.Level, pr.Risk.OverallScore))
		row("Break-even rent", dollars(p, pr.BreakEven.RequiredRent))
		row("Years to positive", yearsToPositive(pr.BreakEven.YearsToPositive))
		if pr.Tax != nil {
			row("After-tax cash flow", dollars(p, pr.Tax.Snapshot.AfterTaxCashFlow))
			row("Hold-period tax", dollars(p, pr.Tax.TotalTax))
		}
		for _, s := range pr.Optimizations {
			row("Max "+s.Field, fmt.Sprintf("%s (from %s)", s.ValueDisplay, s.OriginalDisplay))
		}

		for _, warning := range pr.Warnings {
			fmt.Fprintf(&b, "WARNING: %s\n", warning)
		}
		if i < len(r.Properties)-1 {
			b.WriteString("\n")
		}
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(&b, "CONFIG WARNING: %s\n", warning)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func yearsToPositive(years int) string {
	switch years {
	case breakeven.NeverSentinel:
		return fmt.Sprintf("never within %d years", breakeven.MaxProjectionYears)
	case 0:
		return "already positive"
	default:
		return strconv.Itoa(years)
	}
}

// CsvHeader lists the CSV columns in order.
var CsvHeader = []string{
	"property", "province", "city", "score", "grade",
	"purchase price", "down payment", "land transfer tax", "total mortgage", "monthly payment",
	"monthly cash flow", "cap rate", "cash on cash", "dscr",
	"irr", "npv", "risk level", "risk score", "required rent", "years to positive", "warnings",
}

// CsvFormat outputs in comma-separated value format, one row per property.
func CsvFormat(w io.Writer, r *report.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CsvHeader); err != nil {
		return err
	}
	money := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	for _, pr := range r.Properties {
		a := pr.Analysis
		record := []string{
			pr.Name,
			string(a.Inputs.Province),
			a.Inputs.City,
			strconv.Itoa(a.Scoring.Score),
			a.Scoring.Grade,
			money(a.Acquisition.PurchasePrice),
			money(a.Acquisition.DownPayment),
			money(a.Acquisition.LandTransferTax.NetTax),
			money(a.Financing.TotalMortgage),
			money(a.Financing.MonthlyPayment),
			money(a.CashFlow.MonthlyNet),
			strconv.FormatFloat(a.Metrics.CapRate, 'f', 4, 64),
			strconv.FormatFloat(a.Metrics.CashOnCashReturn, 'f', 4, 64),
			strconv.FormatFloat(a.Metrics.DSCR, 'f', 4, 64),
			strconv.FormatFloat(pr.Advanced.IRR, 'f', 4, 64),
			money(pr.Advanced.NPV),
			pr.Risk.Level,
			strconv.FormatFloat(pr.Risk.OverallScore, 'f', 2, 64),
			money(pr.BreakEven.RequiredRent),
			strconv.Itoa(pr.BreakEven.YearsToPositive),
			strings.Join(pr.Warnings, "; "),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONFormat outputs the full report records as indented JSON.
func JSONFormat(w io.Writer, r *report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

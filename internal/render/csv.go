package render

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"weekbudget/internal/core"
)

// TotalsSectionLabel separates the two tables in a single CSV stream.
const TotalsSectionLabel = "category_group_totals"

// WriteReportCSV writes the report table with a header row.
func WriteReportCSV(w io.Writer, rows []core.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.GroupName,
			r.CategoryName,
			formatAmount(r.Budgeted),
			formatAmount(r.Spent),
			formatAmount(r.Balance),
			string(r.Cadence),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", r.CategoryName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTotalsCSV writes the group totals table with a header row.
func WriteTotalsCSV(w io.Writer, totals []core.GroupTotalRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(totalsHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range totals {
		record := []string{t.GroupName, formatAmount(t.Budgeted), formatAmount(t.Spent), formatAmount(t.Balance)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write totals %s: %w", t.GroupName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// PrintCSV streams both tables separated by TotalsSectionLabel.
func PrintCSV(w io.Writer, rows []core.ReportRow, totals []core.GroupTotalRow) error {
	if err := WriteReportCSV(w, rows); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, TotalsSectionLabel); err != nil {
		return err
	}
	return WriteTotalsCSV(w, totals)
}

// TotalsPath derives the sibling file for group totals:
// report.csv becomes report_category_group_totals.csv.
func TotalsPath(path string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	if stem == "" {
		stem = "report"
	}
	if ext == "" {
		ext = ".csv"
	}
	return filepath.Join(filepath.Dir(path), stem+"_"+TotalsSectionLabel+ext)
}

// WriteCSVFiles writes the report to path and the totals next to it.
// It returns the totals path.
func WriteCSVFiles(path string, rows []core.ReportRow, totals []core.GroupTotalRow) (string, error) {
	var report, groups bytes.Buffer
	if err := WriteReportCSV(&report, rows); err != nil {
		return "", err
	}
	if err := WriteTotalsCSV(&groups, totals); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, report.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	totalsPath := TotalsPath(path)
	if err := os.WriteFile(totalsPath, groups.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", totalsPath, err)
	}
	return totalsPath, nil
}

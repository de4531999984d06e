// Package report renders a run report as an Excel workbook.
package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"iara.com/iarasync/core"
	"iara.com/iarasync/utils"
)

const (
	SummarySheet  = "Summary"
	FailuresSheet = "Failures"
)

var summaryHeader = []any{"Stage", "Total", "Synchronized", "Skipped", "Ignored", "Committed", "Duration (s)"}

var failuresHeader = []any{"Stage", "Key", "Reason"}

// Build creates the workbook. The caller owns the returned file.
func Build(report *core.RunReport) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(FailuresSheet); err != nil {
		f.Close()
		return nil, err
	}

	if err := writeSummary(f, report); err != nil {
		f.Close()
		return nil, fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeFailures(f, report.Failures()); err != nil {
		f.Close()
		return nil, fmt.Errorf("failures sheet: %w", err)
	}
	return f, nil
}

func writeSummary(f *excelize.File, report *core.RunReport) error {
	header := []struct {
		label string
		value any
	}{
		{"Run", report.RunID.String()},
		{"Started", report.StartedAt.Format(time.RFC3339)},
		{"Finished", report.FinishedAt.Format(time.RFC3339)},
		{"Dry run", utils.FormatBoolean(report.DryRun, "yes", "no")},
		{"Status", utils.FormatBoolean(report.Succeeded(), "succeeded", "failed")},
		{"Error", report.Error},
	}

	row := 1
	for _, h := range header {
		if err := f.SetSheetRow(SummarySheet, cell(1, row), &[]any{h.label, h.value}); err != nil {
			return err
		}
		row++
	}
	row++

	if err := f.SetSheetRow(SummarySheet, cell(1, row), &summaryHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(SummarySheet, row, row, bold); err != nil {
		return err
	}

	stages := append(append([]core.StageReport{}, report.Stages...), report.Totals())
	for _, s := range stages {
		row++
		values := []any{
			s.Name, s.Total, s.Applied, s.Skipped, s.Failed,
			utils.FormatBoolean(s.Committed, "yes", "no"),
			s.Duration.Seconds(),
		}
		if err := f.SetSheetRow(SummarySheet, cell(1, row), &values); err != nil {
			return err
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 24)
}

func writeFailures(f *excelize.File, failures []core.Failure) error {
	if err := f.SetSheetRow(FailuresSheet, "A1", &failuresHeader); err != nil {
		return err
	}
	for i, failure := range failures {
		values := []any{failure.Stage, failure.Key, failure.Reason}
		if err := f.SetSheetRow(FailuresSheet, cell(1, i+2), &values); err != nil {
			return err
		}
	}
	return f.SetColWidth(FailuresSheet, "C", "C", 80)
}

// Write streams the workbook to w.
func Write(report *core.RunReport, w io.Writer) error {
	f, err := Build(report)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}

// Bytes returns the workbook as xlsx bytes.
func Bytes(report *core.RunReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(report, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the workbook to path.
func Save(report *core.RunReport, path string) error {
	f, err := Build(report)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

// FileName is the object name used for uploads and attachments.
func FileName(report *core.RunReport) string {
	return fmt.Sprintf("iarasync-%s-%s.xlsx", report.StartedAt.Format("20060102T150405"), report.RunID.String()[:8])
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

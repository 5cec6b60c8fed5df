// Package report renders pipeline reports as downloadable documents.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/mjaros/pvweekly/internal/pipeline"
)

// BuildXLSX renders a workbook for a reconciliation report: a summary sheet
// plus daily totals, hourly profile, and calibration factors.
func BuildXLSX(rep *pipeline.Report) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	dailySheet := "daily"
	profileSheet := "hourly_profile"
	calibSheet := "calibration"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(dailySheet)
	f.NewSheet(profileSheet)
	f.NewSheet(calibSheet)

	eco := rep.Economics
	_ = f.SetCellValue(summarySheet, "A1", "Weekly Production Report")
	_ = f.SetCellValue(summarySheet, "A3", "Report ID")
	_ = f.SetCellValue(summarySheet, "B3", rep.ID)
	_ = f.SetCellValue(summarySheet, "A4", "Window")
	_ = f.SetCellValue(summarySheet, "B4", rep.WindowStart+" to "+rep.WindowEnd)
	_ = f.SetCellValue(summarySheet, "A5", "Source")
	_ = f.SetCellValue(summarySheet, "B5", rep.Source)
	_ = f.SetCellValue(summarySheet, "A6", "Generated")
	_ = f.SetCellValue(summarySheet, "B6", rep.GeneratedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A8", "Total Energy (kWh)")
	_ = f.SetCellValue(summarySheet, "B8", eco.TotalEnergyKWh)
	_ = f.SetCellValue(summarySheet, "A9", "Self-Consumption Savings")
	_ = f.SetCellValue(summarySheet, "B9", eco.TotalAutoSavings)
	_ = f.SetCellValue(summarySheet, "A10", "Feed-In Revenue")
	_ = f.SetCellValue(summarySheet, "B10", eco.TotalFeedRevenue)
	_ = f.SetCellValue(summarySheet, "A11", "Peak Energy (kWh)")
	_ = f.SetCellValue(summarySheet, "B11", eco.PeakKWh)
	_ = f.SetCellValue(summarySheet, "A12", "Off-Peak Energy (kWh)")
	_ = f.SetCellValue(summarySheet, "B12", eco.OffPeakKWh)
	_ = f.SetCellValue(summarySheet, "A13", "Observed Days")
	_ = f.SetCellValue(summarySheet, "B13", eco.ObservedDays)
	_ = f.SetCellValue(summarySheet, "A14", "Payback (years)")
	if eco.PaybackYears != nil {
		_ = f.SetCellValue(summarySheet, "B14", *eco.PaybackYears)
	} else {
		_ = f.SetCellValue(summarySheet, "B14", "n/a")
	}
	_ = f.SetCellValue(summarySheet, "A16", "Flags")
	_ = f.SetCellValue(summarySheet, "B16", flagString(rep.Flags))

	_ = f.SetCellValue(dailySheet, "A1", "Date")
	_ = f.SetCellValue(dailySheet, "B1", "Measured (kWh)")
	_ = f.SetCellValue(dailySheet, "C1", "Modeled (kWh)")
	_ = f.SetCellValue(dailySheet, "D1", "Calibrated (kWh)")
	modeledByDate := make(map[string]float64, len(rep.ModeledDaily))
	for _, d := range rep.ModeledDaily {
		modeledByDate[d.Date] = d.EnergyKWh
	}
	calibratedByDate := make(map[string]float64, len(rep.CalibratedDaily))
	for _, d := range rep.CalibratedDaily {
		calibratedByDate[d.Date] = d.EnergyKWh
	}
	for i, d := range rep.MeasuredDaily {
		row := i + 2
		_ = f.SetCellValue(dailySheet, fmt.Sprintf("A%d", row), d.Date)
		_ = f.SetCellValue(dailySheet, fmt.Sprintf("B%d", row), d.EnergyKWh)
		_ = f.SetCellValue(dailySheet, fmt.Sprintf("C%d", row), modeledByDate[d.Date])
		_ = f.SetCellValue(dailySheet, fmt.Sprintf("D%d", row), calibratedByDate[d.Date])
	}

	_ = f.SetCellValue(profileSheet, "A1", "Hour")
	_ = f.SetCellValue(profileSheet, "B1", "Measured Mean (kWh)")
	_ = f.SetCellValue(profileSheet, "C1", "Modeled Mean (kWh)")
	modeledByHour := make(map[int]float64, len(rep.ModeledHourlyProfile))
	for _, h := range rep.ModeledHourlyProfile {
		modeledByHour[h.Hour] = h.EnergyKWh
	}
	for i, h := range eco.HourlyProfile {
		row := i + 2
		_ = f.SetCellValue(profileSheet, fmt.Sprintf("A%d", row), h.Hour)
		_ = f.SetCellValue(profileSheet, fmt.Sprintf("B%d", row), h.EnergyKWh)
		_ = f.SetCellValue(profileSheet, fmt.Sprintf("C%d", row), modeledByHour[h.Hour])
	}

	_ = f.SetCellValue(calibSheet, "A1", "Date")
	_ = f.SetCellValue(calibSheet, "B1", "Hour")
	_ = f.SetCellValue(calibSheet, "C1", "Scale")
	for i, s := range rep.ScaleFactors {
		row := i + 2
		_ = f.SetCellValue(calibSheet, fmt.Sprintf("A%d", row), s.Date)
		_ = f.SetCellValue(calibSheet, fmt.Sprintf("B%d", row), s.Hour)
		_ = f.SetCellValue(calibSheet, fmt.Sprintf("C%d", row), s.Scale)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPDF renders a one-page PDF summary with the daily totals table.
func BuildPDF(rep *pipeline.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	eco := rep.Economics
	pdf.Cell(0, 8, "Weekly Production Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Report: %s", rep.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Window: %s to %s", rep.WindowStart, rep.WindowEnd))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Source: %s", rep.Source))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", rep.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	if fs := flagString(rep.Flags); fs != "none" {
		pdf.Cell(0, 6, fmt.Sprintf("Degradations: %s", fs))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Total Energy (kWh): %.3f", eco.TotalEnergyKWh))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Self-Consumption Savings: %.2f", eco.TotalAutoSavings))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Feed-In Revenue: %.2f", eco.TotalFeedRevenue))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Peak / Off-Peak (kWh): %.3f / %.3f", eco.PeakKWh, eco.OffPeakKWh))
	pdf.Ln(5)
	if eco.PaybackYears != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Payback Horizon (years): %.1f", *eco.PaybackYears))
	} else {
		pdf.Cell(0, 6, "Payback Horizon: n/a")
	}
	pdf.Ln(8)

	// Daily totals table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Measured (kWh)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Modeled (kWh)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	modeledByDate := make(map[string]float64, len(rep.ModeledDaily))
	for _, d := range rep.ModeledDaily {
		modeledByDate[d.Date] = d.EnergyKWh
	}
	for _, d := range rep.MeasuredDaily {
		pdf.CellFormat(40, 6, d.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, fmt.Sprintf("%.3f", d.EnergyKWh), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, fmt.Sprintf("%.3f", modeledByDate[d.Date]), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func flagString(f pipeline.Flags) string {
	var parts []string
	if f.MeasuredEmpty {
		parts = append(parts, "measured_empty")
	}
	if f.ForecastFailed {
		parts = append(parts, "forecast_failed")
	}
	if f.PartialWindow {
		parts = append(parts, "partial_window")
	}
	if len(parts) == 0 {
		return "none"
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

// Package excel renders portfolio insights as an XLSX workbook for the
// ledger product's export surface.
package excel

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/biasharahub/docintel/internal/core/domain"
)

type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// Write renders one workbook: a summary sheet, per-type and per-company
// counts, the monthly value trend, and the anomaly list.
func (w *Writer) Write(insights domain.PortfolioInsights, out io.Writer) error {
	book := excelize.NewFile()
	defer book.Close()

	const summary = "Summary"
	if err := book.SetSheetName("Sheet1", summary); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}

	summaryRows := [][]any{
		{"Metric", "Value"},
		{"Documents", insights.DocumentCount},
		{"Total value", insights.TotalValue.String()},
		{"High risk documents", insights.HighRiskCount},
		{"Average risk score", insights.AverageRiskScore},
		{"Anomalies", len(insights.Anomalies)},
	}
	if err := writeRows(book, summary, summaryRows); err != nil {
		return err
	}

	typeRows := [][]any{{"Document type", "Count"}}
	for _, docType := range sortedTypeKeys(insights.CountsByType) {
		typeRows = append(typeRows, []any{string(docType), insights.CountsByType[docType]})
	}
	if err := addSheet(book, "By Type", typeRows); err != nil {
		return err
	}

	companyRows := [][]any{{"Company", "Count"}}
	for _, company := range sortedKeys(insights.CountsByCompany) {
		companyRows = append(companyRows, []any{company, insights.CountsByCompany[company]})
	}
	if err := addSheet(book, "By Company", companyRows); err != nil {
		return err
	}

	trendRows := [][]any{{"Month", "Value"}}
	for _, month := range sortedKeys(insights.MonthlyValues) {
		trendRows = append(trendRows, []any{month, insights.MonthlyValues[month].String()})
	}
	if err := addSheet(book, "Monthly Trend", trendRows); err != nil {
		return err
	}

	anomalyRows := [][]any{{"Document", "Amount", "Deviation (sigma)"}}
	for _, anomaly := range insights.Anomalies {
		anomalyRows = append(anomalyRows, []any{anomaly.DocumentID, anomaly.Amount.String(), anomaly.DeviationScore})
	}
	if err := addSheet(book, "Anomalies", anomalyRows); err != nil {
		return err
	}

	if err := book.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func addSheet(book *excelize.File, name string, rows [][]any) error {
	if _, err := book.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	return writeRows(book, name, rows)
}

func writeRows(book *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+1, err)
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d on %s: %w", i+1, sheet, err)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedTypeKeys(m map[domain.DocumentType]int) []domain.DocumentType {
	keys := make([]domain.DocumentType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

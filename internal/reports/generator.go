package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/fdg312/nutrition-ledger/internal/status"
)

// Generator renders day rows as PDF/CSV
type Generator struct{}

// NewGenerator creates a new report generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Render renders rows in the requested format
func (g *Generator) Render(req ExportRequest, rows []DayRow) ([]byte, error) {
	switch req.Format {
	case FormatPDF:
		return g.generatePDF(req, rows)
	case FormatCSV:
		return g.generateCSV(rows)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}

// generateCSV generates a CSV report, one line per day
func (g *Generator) generateCSV(rows []DayRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "calories_kcal", "protein_g", "fat_g", "carbs_g", "sugar_g", "fiber_g", "saturated_fat_g", "entries", "goal_kcal", "status"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range rows {
		record := []string{
			row.Date.ISO(),
			formatNumber(row.Calories),
			formatNumber(row.Protein),
			formatNumber(row.Fat),
			formatNumber(row.Carbs),
			formatNumber(row.Sugar),
			formatNumber(row.Fiber),
			formatNumber(row.SaturatedFat),
			strconv.Itoa(row.EntryCount),
			formatNumber(row.Goal),
			string(row.Status),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// generatePDF generates a one-table PDF report.
// Используется встроенный Helvetica: текст отчёта только латиница.
func (g *Generator) generatePDF(req ExportRequest, rows []DayRow) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 16)
	pdf.AddPage()

	pdf.Cell(0, 10, "Nutrition Report")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 12)
	if len(rows) > 0 {
		pdf.Cell(0, 8, fmt.Sprintf("Period: %s - %s", rows[0].Date, rows[len(rows)-1].Date))
	} else {
		pdf.Cell(0, 8, fmt.Sprintf("Period: %s - %s", req.From, req.To))
	}
	pdf.Ln(12)

	summary := calculateSummary(rows)

	pdf.SetFont("Helvetica", "", 14)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Days with entries: %d of %d", summary.LoggedDays, len(rows)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Average intake (logged days): %s kcal", formatAvg(summary.AvgCalories)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Average protein / fat / carbs: %s / %s / %s g",
		formatAvg(summary.AvgProtein), formatAvg(summary.AvgFat), formatAvg(summary.AvgCarbs)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Days under / normal / over goal: %d / %d / %d",
		summary.ByStatus[status.Under], summary.ByStatus[status.Normal], summary.ByStatus[status.Over]))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 14)
	pdf.Cell(0, 8, "Days")
	pdf.Ln(8)

	drawDaysTable(pdf, rows)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

// Summary holds calculated summary statistics
type Summary struct {
	LoggedDays  int
	AvgCalories *float64
	AvgProtein  *float64
	AvgFat      *float64
	AvgCarbs    *float64
	ByStatus    map[status.Status]int
}

// calculateSummary averages over days that have at least one entry
func calculateSummary(rows []DayRow) Summary {
	summary := Summary{ByStatus: make(map[status.Status]int)}

	var kcal, protein, fat, carbs float64
	for _, row := range rows {
		summary.ByStatus[row.Status]++
		if row.EntryCount == 0 {
			continue
		}
		summary.LoggedDays++
		kcal += row.Calories
		protein += row.Protein
		fat += row.Fat
		carbs += row.Carbs
	}

	if summary.LoggedDays > 0 {
		n := float64(summary.LoggedDays)
		summary.AvgCalories = ptr(kcal / n)
		summary.AvgProtein = ptr(protein / n)
		summary.AvgFat = ptr(fat / n)
		summary.AvgCarbs = ptr(carbs / n)
	}

	return summary
}

func drawDaysTable(pdf *gofpdf.Fpdf, rows []DayRow) {
	pdf.SetFont("Helvetica", "", 8)

	pdf.CellFormat(25, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(22, 6, "kcal", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Protein", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Fat", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Carbs", "1", 0, "C", false, 0, "")
	pdf.CellFormat(18, 6, "Entries", "1", 0, "C", false, 0, "")
	pdf.CellFormat(22, 6, "Goal", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Status", "1", 1, "C", false, 0, "")

	for _, row := range rows {
		pdf.CellFormat(25, 6, string(row.Date), "1", 0, "C", false, 0, "")
		pdf.CellFormat(22, 6, formatNumber(row.Calories), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, formatNumber(row.Protein), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, formatNumber(row.Fat), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, formatNumber(row.Carbs), "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, strconv.Itoa(row.EntryCount), "1", 0, "C", false, 0, "")
		pdf.CellFormat(22, 6, formatNumber(row.Goal), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, string(row.Status), "1", 1, "C", false, 0, "")
	}
}

// Helper functions
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatAvg(val *float64) string {
	if val == nil {
		return "no data"
	}
	return fmt.Sprintf("%.1f", math.Round(*val*10)/10)
}

func ptr(v float64) *float64 {
	return &v
}

package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/hamed0406/statuscheck/internal/domain"
)

// RenderPDF writes a summary page followed by one table per category.
func RenderPDF(w io.Writer, r domain.Report, title string) error {
	if title == "" {
		title = DefaultTitle
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 14)
	pdf.SetTitle(title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, safeText(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 6, "Generated at: "+r.GeneratedAt.UTC().Format(time.RFC3339), "", 1, "L", false, 0, "")
	if r.RunID != "" {
		pdf.CellFormat(0, 6, "Run ID: "+r.RunID, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetTextColor(20, 20, 20)
	summary := [][2]string{
		{"Total Tests", fmt.Sprint(r.TotalTests())},
		{"Successful", fmt.Sprint(r.Successful())},
		{"Warnings", fmt.Sprint(r.Warnings())},
		{"Failed", fmt.Sprint(r.Failed())},
		{"Success Rate", fmt.Sprintf("%.1f%%", r.SuccessRate())},
		{"Recommendation", string(r.Recommendation())},
	}
	for _, row := range summary {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(50, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 7, row[1], "1", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range Advice(r.Recommendation()) {
		pdf.MultiCell(0, 5, safeText(line), "", "L", false)
	}

	for _, c := range r.Categories {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(20, 20, 20)
		pdf.CellFormat(0, 7, fmt.Sprintf("%s (%d/%d - %.1f%%)", strings.ToUpper(c.Name), c.Passed(), c.Total(), c.SuccessRate()), "", 1, "L", false, 0, "")
		if len(c.Tests) == 0 {
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(90, 90, 90)
			pdf.MultiCell(0, 5, "(no probes)", "", "L", false)
			continue
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(60, 6, "Probe", "1", 0, "L", true, 0, "")
		pdf.CellFormat(22, 6, "Result", "1", 0, "L", true, 0, "")
		pdf.CellFormat(0, 6, "Details", "1", 1, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, t := range c.Tests {
			setStatusColor(pdf, t.Outcome.Status)
			pdf.CellFormat(60, 6, clip(safeText(t.Name), 34), "1", 0, "L", false, 0, "")
			pdf.CellFormat(22, 6, string(t.Outcome.Status), "1", 0, "L", false, 0, "")
			pdf.SetTextColor(30, 30, 30)
			pdf.CellFormat(0, 6, clip(safeText(t.Outcome.Detail), 60), "1", 1, "L", false, 0, "")
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func setStatusColor(pdf *gofpdf.Fpdf, s domain.Status) {
	switch s {
	case domain.StatusSuccess:
		pdf.SetTextColor(0, 120, 0)
	case domain.StatusWarning:
		pdf.SetTextColor(160, 100, 0)
	default:
		pdf.SetTextColor(180, 0, 0)
	}
}

// safeText keeps the core fonts happy: printable ASCII only.
func safeText(s string) string {
	s = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.TrimSpace(s) {
		if r >= 32 && r <= 126 {
			b.WriteRune(r)
		} else {
			b.WriteRune('?')
		}
	}
	return b.String()
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

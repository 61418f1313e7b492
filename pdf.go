package main

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth  = 210 // A4 width in mm
	pdfMargin     = 10  // margin in mm
	pdfLineHeight = 5   // line height in mm
	pdfFontSize   = 9
)

// generatePDF renders the match report as a PDF at outputPath. Matches keep
// the same partition ordering as the text report.
func generatePDF(needle string, result *SearchResult, summary Summary, outputPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()

	usableWidth := float64(pdfPageWidth - 2*pdfMargin)

	pdf.SetFont("Helvetica", "B", pdfFontSize+2)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(usableWidth, pdfLineHeight, fmt.Sprintf("Search results for %q", needle), "", "L", false)
	pdf.Line(pdfMargin, pdf.GetY(), pdfPageWidth-pdfMargin, pdf.GetY())
	pdf.Ln(pdfLineHeight / 2)

	for _, worker := range result.Workers {
		pdf.SetFont("Helvetica", "B", pdfFontSize)
		pdf.MultiCell(usableWidth, pdfLineHeight, fmt.Sprintf("Worker %d", worker.WorkerID), "", "L", false)

		pdf.SetFont("Courier", "", pdfFontSize)
		if !worker.HadMatches {
			pdf.SetTextColor(128, 128, 128)
			pdf.MultiCell(usableWidth, pdfLineHeight, "no matches in assigned files", "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		}
		for _, m := range worker.Matches {
			line := fmt.Sprintf("%s:%d: %s", m.Path, m.Line, strings.ReplaceAll(m.Text, "\t", "    "))
			pdf.MultiCell(usableWidth, pdfLineHeight, line, "", "L", false)
		}
		pdf.Ln(pdfLineHeight / 2)
	}

	pdf.SetFont("Helvetica", "B", pdfFontSize+1)
	pdf.MultiCell(usableWidth, pdfLineHeight, "--- Summary ---", "", "L", false)

	pdf.SetFont("Helvetica", "", pdfFontSize)
	summaryString := fmt.Sprintf("Total files scanned: %d\nTotal matches: %d\nWorkers: %d (%d idle)",
		summary.TotalFiles, summary.TotalMatches, summary.Workers, summary.IdleWorkers)
	if summary.Warnings > 0 {
		summaryString += fmt.Sprintf("\nWarnings: %d (see log file)", summary.Warnings)
	}
	pdf.MultiCell(usableWidth, pdfLineHeight, summaryString, "", "L", false)

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("failed to save PDF to %s: %w", outputPath, err)
	}

	fmt.Printf("PDF report saved to %s\n", outputPath)
	return nil
}

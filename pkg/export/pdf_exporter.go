package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth  = 277.0 // A4 landscape minus margins
	rowHeight  = 7.0
	headHeight = 8.0
)

// PDFExporter renders sheets as a landscape agenda. Consecutive rows sharing the first
// column are shaded alike so days read as blocks.
type PDFExporter struct {
	// Widths are relative column weights. Missing weights count as 1.
	Widths []float64
}

// NewPDFExporter constructs a PDF exporter with equal column widths.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates the PDF document for sheet.
func (e *PDFExporter) Render(sheet Sheet) ([]byte, error) {
	if err := sheet.validate(); err != nil {
		return nil, err
	}
	widths := e.columnWidths(len(sheet.Headers))

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		if sheet.Title != "" {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 10, tr(sheet.Title), "", 1, "L", false, 0, "")
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(99, 102, 241)
		pdf.SetTextColor(255, 255, 255)
		for i, header := range sheet.Headers {
			pdf.CellFormat(widths[i], headHeight, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d / {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.AddPage()

	pdf.SetFont("Arial", "", 9)
	shaded := false
	previous := ""
	for i, row := range sheet.Rows {
		if i > 0 && row[0] != previous {
			shaded = !shaded
		}
		previous = row[0]
		if shaded {
			pdf.SetFillColor(238, 240, 255)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		for c, value := range row {
			pdf.CellFormat(widths[c], rowHeight, tr(value), "1", 0, "", true, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) columnWidths(n int) []float64 {
	weights := make([]float64, n)
	var total float64
	for i := range weights {
		weights[i] = 1
		if i < len(e.Widths) && e.Widths[i] > 0 {
			weights[i] = e.Widths[i]
		}
		total += weights[i]
	}
	for i := range weights {
		weights[i] = pageWidth * weights[i] / total
	}
	return weights
}

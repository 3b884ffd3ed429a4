package document

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

// A4 portrait geometry in millimetres.
const (
	pdfPageWidth  = 210.0
	pdfPageHeight = 297.0
	pdfMargin     = 15.0
	pdfHeadHeight = 10.0
	pdfFootHeight = 20.0
	pdfMaxFont    = 10.0
	ptToMM        = 25.4 / 72
)

// PDFWriter renders pages in Courier so the fixed-width layout survives.
// Table of contents rows link to their section headings.
type PDFWriter struct{}

func (PDFWriter) Write(w io.Writer, doc *Document) error {
	fontSize, lineHeight := pdfGeometry(doc.Layout)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(doc.Generated)
	pdf.SetModificationDate(doc.Generated)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("manbook", true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)

	links := make(map[string]int, len(doc.Sections))
	for _, s := range doc.Sections {
		links[s.ID] = pdf.AddLink()
	}

	for _, page := range doc.Pages {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, cp1252(page.Running), "", 1, "C", false, 0, "")
		pdf.Ln(4)

		for _, line := range page.Lines {
			switch line.Kind {
			case LineTitle:
				pdf.SetFont("Helvetica", "B", 18)
				pdf.CellFormat(0, lineHeight*2, cp1252(strings.TrimSpace(line.Text)), "", 1, "C", false, 0, "")
				continue
			case LineHeading:
				if link, ok := links[line.Target]; ok {
					pdf.SetLink(link, pdf.GetY(), -1)
				}
				pdf.SetFont("Courier", "B", fontSize)
			default:
				pdf.SetFont("Courier", "", fontSize)
			}
			link := 0
			if line.Kind == LineTOC {
				link = links[line.Target]
			}
			pdf.CellFormat(0, lineHeight, cp1252(line.Text), "", 1, "L", false, link, "")
		}

		pdf.SetY(-pdfFootHeight)
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", page.Number), "", 0, "C", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// pdfGeometry picks the largest Courier size (in points) at which the
// layout fits the printable area, and the matching line height in mm.
func pdfGeometry(l Layout) (fontSize, lineHeight float64) {
	usableWidth := pdfPageWidth - 2*pdfMargin
	usableHeight := pdfPageHeight - pdfMargin - pdfHeadHeight - pdfFootHeight

	// Courier glyphs are 0.6 em wide; lines are 1.2 em apart.
	byWidth := usableWidth / (float64(l.Width) * 0.6 * ptToMM)
	byHeight := usableHeight / (float64(l.Height) * 1.2 * ptToMM)

	fontSize = math.Floor(min(pdfMaxFont, byWidth, byHeight)*10) / 10
	return fontSize, fontSize * 1.2 * ptToMM
}

// cp1252 encodes s for the PDF core fonts; unmappable runes become '?'.
func cp1252(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}

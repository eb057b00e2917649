// Package reports renders the registry's PDF documents: the member
// registration ficha and the companies general report.
package reports

import "github.com/jung-kurt/gofpdf"

// Letterhead colors and strings shared by every document.
const (
	unionName  = "SINDPLAST-AM"
	unionLine1 = "SINDICATO DOS TRABALHADORES NAS INDÚSTRIAS DE MATERIAL"
	unionLine2 = "PLÁSTICO DE MANAUS E DO ESTADO DO AMAZONAS"
)

// Union red.
const (
	redR = 242
	redG = 49
	redB = 31
)

func newDoc() (*gofpdf.Fpdf, func(string) string) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	return pdf, tr
}

// letterhead draws the union header block and the separating rule, leaving
// the cursor below it.
func letterhead(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(redR, redG, redB)
	pdf.CellFormat(0, 10, unionName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 5, tr(unionLine1), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, tr(unionLine2), "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(title), "", 1, "C", false, 0, "")

	pdf.SetDrawColor(redR, redG, redB)
	pdf.SetLineWidth(0.5)
	y := pdf.GetY() + 2
	pdf.Line(14, y, 196, y)
	pdf.SetY(y + 6)
}

// labelled writes a bold label followed by a value at the given position.
func labelled(pdf *gofpdf.Fpdf, tr func(string) string, x, y float64, label, value string) {
	if value == "" {
		value = "N/A"
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(x, y, tr(label))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(x+25, y, tr(value))
}

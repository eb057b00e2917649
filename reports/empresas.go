package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/sindplast-am/go-admin-client/empresas"
)

// EmpresasRelatorioGeral renders the companies general report table to w.
func EmpresasRelatorioGeral(w io.Writer, list []empresas.Empresa) error {
	pdf, tr := newDoc()
	letterhead(pdf, tr, "RELATÓRIO GERAL DE EMPRESAS")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Emitido em %s - %d empresas", time.Now().Format("02/01/2006"), len(list))), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	type column struct {
		title string
		width float64
	}
	columns := []column{
		{"Código", 18},
		{"Razão Social", 60},
		{"CNPJ", 35},
		{"Cidade", 28},
		{"UF", 10},
		{"Funcionários", 31},
	}

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(redR, redG, redB)
		pdf.SetTextColor(255, 255, 255)
		for _, col := range columns {
			pdf.CellFormat(col.width, 7, tr(col.title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
	}
	header()

	for _, e := range list {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			header()
		}
		cells := []string{
			e.CodEmpresa,
			e.RazaoSocial,
			e.CNPJ,
			e.Cidade,
			e.UF,
			fmt.Sprintf("%d", e.NFuncionarios),
		}
		for i, col := range columns {
			align := "L"
			if i >= 4 {
				align = "C"
			}
			pdf.CellFormat(col.width, 6, tr(cells[i]), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	return errors.Wrap(pdf.Output(w), "[reports.EmpresasRelatorioGeral] output")
}

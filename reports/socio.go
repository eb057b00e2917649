package reports

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/sindplast-am/go-admin-client/socios"
)

// SocioFicha renders the complete member ficha to w.
func SocioFicha(w io.Writer, socio socios.Socio) error {
	pdf, tr := newDoc()
	letterhead(pdf, tr, "FICHA COMPLETA DO SÓCIO")

	top := pdf.GetY()

	// Avatar disc with the member's initial.
	pdf.SetFillColor(redR, redG, redB)
	pdf.Circle(30, top+14, 13, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(27.5, top+16, tr(initial(socio.Nome)))
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(60, top+4, tr("Dados Pessoais"))

	y := top + 12
	labelled(pdf, tr, 60, y, "Nome:", socio.Nome)
	labelled(pdf, tr, 150, y, "Status:", socio.Status)
	y += 8
	labelled(pdf, tr, 60, y, "CPF:", socio.CPF)
	labelled(pdf, tr, 150, y, "RG:", socio.RG)
	y += 8
	labelled(pdf, tr, 60, y, "Nascimento:", socio.Nascimento)
	labelled(pdf, tr, 150, y, "Sexo:", socio.Sexo)
	y += 8
	labelled(pdf, tr, 60, y, "Pai:", socio.Pai)
	y += 8
	labelled(pdf, tr, 60, y, "Mãe:", socio.Mae)

	y += 14
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(14, y, tr("Endereço"))
	y += 8
	labelled(pdf, tr, 14, y, "Endereço:", socio.Endereco)
	y += 8
	labelled(pdf, tr, 14, y, "Bairro:", socio.Bairro)
	labelled(pdf, tr, 110, y, "CEP:", socio.CEP)
	y += 8
	labelled(pdf, tr, 14, y, "Celular:", socio.Celular)
	labelled(pdf, tr, 110, y, "Telefone:", socio.Telefone)

	y += 14
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(14, y, tr("Dados Profissionais"))
	y += 8
	labelled(pdf, tr, 14, y, "Empresa:", socio.RazaoSocial)
	y += 8
	labelled(pdf, tr, 14, y, "Função:", socio.Funcao)
	labelled(pdf, tr, 110, y, "CTPS:", socio.CTPS)
	y += 8
	labelled(pdf, tr, 14, y, "Admissão:", socio.DataAdmissao)
	labelled(pdf, tr, 110, y, "Demissão:", socio.DataDemissao)

	y += 14
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(14, y, tr("Sindicato"))
	y += 8
	labelled(pdf, tr, 14, y, "Matrícula:", socio.Matricula)
	labelled(pdf, tr, 110, y, "Mensalidade:", socio.DataMensalidade)
	y += 8
	labelled(pdf, tr, 14, y, "Cadastrante:", socio.Cadastrante)

	if socio.Observacao != "" {
		y += 14
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Text(14, y, tr("Observações"))
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetXY(14, y+3)
		pdf.MultiCell(182, 5, tr(socio.Observacao), "", "L", false)
	}

	return errors.Wrap(pdf.Output(w), "[reports.SocioFicha] output")
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	return strings.ToUpper(string([]rune(name)[0]))
}

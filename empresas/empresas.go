package empresas

// Empresa is a registered company record as served by the /api/empresas
// endpoints.
type Empresa struct {
	ID                int     `json:"id,omitempty"`
	CodEmpresa        string  `json:"codEmpresa,omitempty"`
	CNPJ              string  `json:"cnpj,omitempty"`
	RazaoSocial       string  `json:"razaoSocial"`
	NomeFantasia      string  `json:"nomeFantasia,omitempty"`
	Endereco          string  `json:"endereco,omitempty"`
	Numero            string  `json:"numero,omitempty"`
	Complemento       string  `json:"complemento,omitempty"`
	Bairro            string  `json:"bairro,omitempty"`
	CEP               string  `json:"cep,omitempty"`
	Cidade            string  `json:"cidade,omitempty"`
	UF                string  `json:"uf,omitempty"`
	Telefone01        string  `json:"telefone01,omitempty"`
	Telefone02        string  `json:"telefone02,omitempty"`
	Fax               string  `json:"fax,omitempty"`
	Celular           string  `json:"celular,omitempty"`
	Whatsapp          string  `json:"whatsapp,omitempty"`
	Instagram         string  `json:"instagram,omitempty"`
	Linkedin          string  `json:"linkedin,omitempty"`
	NFuncionarios     int     `json:"nFuncionarios,omitempty"`
	DataContribuicao  string  `json:"dataContribuicao,omitempty"`
	ValorContribuicao float64 `json:"valorContribuicao,omitempty"`
	DataCadastro      string  `json:"dataCadastro,omitempty"`
	Cadastrante       string  `json:"cadastrante,omitempty"`
	Observacao        string  `json:"observacao,omitempty"`
}

// Funcionarios pairs a company with its reported headcount for the
// dashboard chart.
type Funcionarios struct {
	Empresa      string
	Funcionarios int
}

// CountFuncionarios projects headcount per company, preferring the
// fantasy name when present.
func CountFuncionarios(list []Empresa) []Funcionarios {
	out := make([]Funcionarios, 0, len(list))
	for _, e := range list {
		name := e.NomeFantasia
		if name == "" {
			name = e.RazaoSocial
		}
		out = append(out, Funcionarios{Empresa: name, Funcionarios: e.NFuncionarios})
	}
	return out
}

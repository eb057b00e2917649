package socios

// Socio is a union member record as served by the /api/socios endpoints.
type Socio struct {
	ID             int    `json:"id,omitempty"`
	Nome           string `json:"nome"`
	RG             string `json:"rg,omitempty"`
	Emissor        string `json:"emissor,omitempty"`
	CPF            string `json:"cpf,omitempty"`
	Nascimento     string `json:"nascimento,omitempty"`
	Sexo           string `json:"sexo,omitempty"`
	Naturalidade   string `json:"naturalidade,omitempty"`
	NaturalidadeUF string `json:"naturalidadeUF,omitempty"`
	Nacionalidade  string `json:"nacionalidade,omitempty"`
	EstadoCivil    string `json:"estadoCivil,omitempty"`
	Endereco       string `json:"endereco,omitempty"`
	Complemento    string `json:"complemento,omitempty"`
	Bairro         string `json:"bairro,omitempty"`
	CEP            string `json:"cep,omitempty"`
	Celular        string `json:"celular,omitempty"`
	Telefone       string `json:"telefone,omitempty"`
	RedeSocial     string `json:"redeSocial,omitempty"`
	Pai            string `json:"pai,omitempty"`
	Mae            string `json:"mae,omitempty"`
	Cadastrante    string `json:"cadastrante,omitempty"`
	Status         string `json:"status,omitempty"`

	// Membership
	Matricula        string  `json:"matricula,omitempty"`
	DataMensalidade  string  `json:"dataMensalidade,omitempty"`
	ValorMensalidade float64 `json:"valorMensalidade,omitempty"`

	// Employment
	DataAdmissao   string `json:"dataAdmissao,omitempty"`
	CTPS           string `json:"ctps,omitempty"`
	Funcao         string `json:"funcao,omitempty"`
	CodEmpresa     string `json:"codEmpresa,omitempty"`
	CNPJ           string `json:"cnpj,omitempty"`
	RazaoSocial    string `json:"razaoSocial,omitempty"`
	NomeFantasia   string `json:"nomeFantasia,omitempty"`
	DataDemissao   string `json:"dataDemissao,omitempty"`
	MotivoDemissao string `json:"motivoDemissao,omitempty"`

	// Documents issued
	Carta    string `json:"carta,omitempty"`
	Carteira string `json:"carteira,omitempty"`
	Ficha    string `json:"ficha,omitempty"`

	Observacao string `json:"observacao,omitempty"`
}

// CountByStatus aggregates members per status for the dashboard chart.
func CountByStatus(list []Socio) map[string]int {
	counts := make(map[string]int, 4)
	for _, s := range list {
		status := s.Status
		if status == "" {
			status = "INDEFINIDO"
		}
		counts[status]++
	}
	return counts
}

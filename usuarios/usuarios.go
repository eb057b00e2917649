package usuarios

import "strings"

// Profile is the authenticated user identity returned by the login and
// who-am-i endpoints and cached in the persisted session store.
type Profile struct {
	ID      int    `json:"id"`      // Unique identifier for the user
	Nome    string `json:"nome"`    // Display name
	Usuario string `json:"usuario"` // Login name
	Perfil  string `json:"perfil"`  // Access profile (e.g. ADMIN)
	Funcao  string `json:"funcao"`  // Job function within the union
	Email   string `json:"email"`
}

// Valid reports whether the profile carries the minimum identity fields.
func (p Profile) Valid() bool {
	return p.ID != 0 && strings.TrimSpace(p.Usuario) != ""
}

// Usuario is a registry user record as served by the /api/usuarios CRUD
// endpoints. The backend serializes these with capitalized column names.
type Usuario struct {
	IdUsuarios   int    `json:"IdUsuarios,omitempty"`
	Nome         string `json:"Nome"`
	CPF          string `json:"CPF,omitempty"`
	Funcao       string `json:"Funcao,omitempty"`
	Email        string `json:"Email,omitempty"`
	Usuario      string `json:"Usuario"`
	Senha        string `json:"Senha,omitempty"` // Only set on create/update, never returned
	Perfil       string `json:"Perfil,omitempty"`
	Cadastrante  string `json:"Cadastrante,omitempty"`
	DataCadastro string `json:"DataCadastro,omitempty"`
}

// Perfil is an access profile that groups permissions.
type Perfil struct {
	IdPerfil    int    `json:"IdPerfil,omitempty"`
	Perfil      string `json:"Perfil"`
	Descricao   string `json:"Descricao,omitempty"`
	Cadastrante string `json:"Cadastrante,omitempty"`
}

// Permissao is a named permission, optionally bound to a screen.
type Permissao struct {
	IdPermissao int    `json:"IdPermissao,omitempty"`
	Nome        string `json:"Nome"`
	Descricao   string `json:"Descricao,omitempty"`
	Tela        string `json:"Tela,omitempty"`
}

package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sindplast-am/go-admin-client/usuarios"
)

// UsuariosService covers the /api/usuarios CRUD endpoints.
type UsuariosService struct {
	c *Client
}

func (s *UsuariosService) List(ctx context.Context) ([]usuarios.Usuario, error) {
	var out []usuarios.Usuario
	if err := s.c.do(ctx, http.MethodGet, "/api/usuarios", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *UsuariosService) Get(ctx context.Context, id int) (usuarios.Usuario, error) {
	var out usuarios.Usuario
	if err := s.c.do(ctx, http.MethodGet, fmt.Sprintf("/api/usuarios/%d", id), nil, &out); err != nil {
		return usuarios.Usuario{}, err
	}
	return out, nil
}

func (s *UsuariosService) Create(ctx context.Context, u usuarios.Usuario) (usuarios.Usuario, error) {
	var out usuarios.Usuario
	if err := s.c.do(ctx, http.MethodPost, "/api/usuarios", u, &out); err != nil {
		return usuarios.Usuario{}, err
	}
	return out, nil
}

func (s *UsuariosService) Update(ctx context.Context, id int, u usuarios.Usuario) (usuarios.Usuario, error) {
	var out usuarios.Usuario
	if err := s.c.do(ctx, http.MethodPut, fmt.Sprintf("/api/usuarios/%d", id), u, &out); err != nil {
		return usuarios.Usuario{}, err
	}
	return out, nil
}

func (s *UsuariosService) Delete(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/usuarios/%d", id), nil, nil)
}

package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sindplast-am/go-admin-client/usuarios"
)

// PerfisService covers the /api/perfis and /api/permissoes endpoints.
type PerfisService struct {
	c *Client
}

func (s *PerfisService) List(ctx context.Context) ([]usuarios.Perfil, error) {
	var out []usuarios.Perfil
	if err := s.c.do(ctx, http.MethodGet, "/api/perfis", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PerfisService) Create(ctx context.Context, p usuarios.Perfil) (usuarios.Perfil, error) {
	var out usuarios.Perfil
	if err := s.c.do(ctx, http.MethodPost, "/api/perfis", p, &out); err != nil {
		return usuarios.Perfil{}, err
	}
	return out, nil
}

func (s *PerfisService) Update(ctx context.Context, id int, p usuarios.Perfil) (usuarios.Perfil, error) {
	var out usuarios.Perfil
	if err := s.c.do(ctx, http.MethodPut, fmt.Sprintf("/api/perfis/%d", id), p, &out); err != nil {
		return usuarios.Perfil{}, err
	}
	return out, nil
}

func (s *PerfisService) Delete(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/perfis/%d", id), nil, nil)
}

// Permissoes lists the permission catalog.
func (s *PerfisService) Permissoes(ctx context.Context) ([]usuarios.Permissao, error) {
	var out []usuarios.Permissao
	if err := s.c.do(ctx, http.MethodGet, "/api/permissoes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PerfilPermissoes lists the permissions granted to one profile.
func (s *PerfisService) PerfilPermissoes(ctx context.Context, perfilID int) ([]usuarios.Permissao, error) {
	var out []usuarios.Permissao
	if err := s.c.do(ctx, http.MethodGet, fmt.Sprintf("/api/perfis/%d/permissoes", perfilID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetPerfilPermissoes replaces the permission set granted to one profile.
func (s *PerfisService) SetPerfilPermissoes(ctx context.Context, perfilID int, permissaoIDs []int) error {
	body := map[string][]int{"permissoes": permissaoIDs}
	return s.c.do(ctx, http.MethodPost, fmt.Sprintf("/api/perfis/%d/permissoes", perfilID), body, nil)
}

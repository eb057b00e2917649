package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sindplast-am/go-admin-client/empresas"
)

// EmpresasService covers the /api/empresas CRUD endpoints.
type EmpresasService struct {
	c *Client
}

func (s *EmpresasService) List(ctx context.Context) ([]empresas.Empresa, error) {
	var out []empresas.Empresa
	if err := s.c.do(ctx, http.MethodGet, "/api/empresas", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *EmpresasService) Get(ctx context.Context, id int) (empresas.Empresa, error) {
	var out empresas.Empresa
	if err := s.c.do(ctx, http.MethodGet, fmt.Sprintf("/api/empresas/%d", id), nil, &out); err != nil {
		return empresas.Empresa{}, err
	}
	return out, nil
}

func (s *EmpresasService) Create(ctx context.Context, empresa empresas.Empresa) (empresas.Empresa, error) {
	var out empresas.Empresa
	if err := s.c.do(ctx, http.MethodPost, "/api/empresas", empresa, &out); err != nil {
		return empresas.Empresa{}, err
	}
	return out, nil
}

func (s *EmpresasService) Update(ctx context.Context, id int, empresa empresas.Empresa) (empresas.Empresa, error) {
	var out empresas.Empresa
	if err := s.c.do(ctx, http.MethodPut, fmt.Sprintf("/api/empresas/%d", id), empresa, &out); err != nil {
		return empresas.Empresa{}, err
	}
	return out, nil
}

func (s *EmpresasService) Delete(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/empresas/%d", id), nil, nil)
}

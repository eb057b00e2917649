package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sindplast-am/go-admin-client/socios"
)

// SociosService covers the /api/socios CRUD endpoints.
type SociosService struct {
	c *Client
}

func (s *SociosService) List(ctx context.Context) ([]socios.Socio, error) {
	var out []socios.Socio
	if err := s.c.do(ctx, http.MethodGet, "/api/socios", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SociosService) Get(ctx context.Context, id int) (socios.Socio, error) {
	var out socios.Socio
	if err := s.c.do(ctx, http.MethodGet, fmt.Sprintf("/api/socios/%d", id), nil, &out); err != nil {
		return socios.Socio{}, err
	}
	return out, nil
}

func (s *SociosService) Create(ctx context.Context, socio socios.Socio) (socios.Socio, error) {
	var out socios.Socio
	if err := s.c.do(ctx, http.MethodPost, "/api/socios", socio, &out); err != nil {
		return socios.Socio{}, err
	}
	return out, nil
}

func (s *SociosService) Update(ctx context.Context, id int, socio socios.Socio) (socios.Socio, error) {
	var out socios.Socio
	if err := s.c.do(ctx, http.MethodPut, fmt.Sprintf("/api/socios/%d", id), socio, &out); err != nil {
		return socios.Socio{}, err
	}
	return out, nil
}

func (s *SociosService) Delete(ctx context.Context, id int) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/socios/%d", id), nil, nil)
}

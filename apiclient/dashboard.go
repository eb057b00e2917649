package apiclient

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/sindplast-am/go-admin-client/empresas"
	"github.com/sindplast-am/go-admin-client/socios"
)

// DashboardService computes the dashboard aggregates. The backend has no
// dedicated aggregation endpoints; the totals and chart breakdowns are
// derived from the list endpoints, as the dashboard screen does.
type DashboardService struct {
	c *Client
}

type Totals struct {
	Usuarios  int
	Socios    int
	Empresas  int
	UpdatedAt time.Time
}

type Charts struct {
	UsuariosPorPerfil       map[string]int
	SociosPorStatus         map[string]int
	EmpresasPorFuncionarios []empresas.Funcionarios
}

func (s *DashboardService) Totals(ctx context.Context) (Totals, error) {
	us, err := s.c.Usuarios.List(ctx)
	if err != nil {
		return Totals{}, errors.Wrap(err, "[Dashboard.Totals] usuarios")
	}
	so, err := s.c.Socios.List(ctx)
	if err != nil {
		return Totals{}, errors.Wrap(err, "[Dashboard.Totals] socios")
	}
	em, err := s.c.Empresas.List(ctx)
	if err != nil {
		return Totals{}, errors.Wrap(err, "[Dashboard.Totals] empresas")
	}
	return Totals{
		Usuarios:  len(us),
		Socios:    len(so),
		Empresas:  len(em),
		UpdatedAt: time.Now(),
	}, nil
}

func (s *DashboardService) Charts(ctx context.Context) (Charts, error) {
	us, err := s.c.Usuarios.List(ctx)
	if err != nil {
		return Charts{}, errors.Wrap(err, "[Dashboard.Charts] usuarios")
	}
	so, err := s.c.Socios.List(ctx)
	if err != nil {
		return Charts{}, errors.Wrap(err, "[Dashboard.Charts] socios")
	}
	em, err := s.c.Empresas.List(ctx)
	if err != nil {
		return Charts{}, errors.Wrap(err, "[Dashboard.Charts] empresas")
	}

	porPerfil := make(map[string]int)
	for _, u := range us {
		perfil := u.Perfil
		if perfil == "" {
			perfil = "SEM PERFIL"
		}
		porPerfil[perfil]++
	}

	return Charts{
		UsuariosPorPerfil:       porPerfil,
		SociosPorStatus:         socios.CountByStatus(so),
		EmpresasPorFuncionarios: empresas.CountFuncionarios(em),
	}, nil
}

// Package guard gates navigation behind authentication and preserves the
// last visited route across reloads.
package guard

import (
	"github.com/rs/zerolog"

	"github.com/sindplast-am/go-admin-client/session"
	"github.com/sindplast-am/go-admin-client/store"
)

// Decision is what the shell should present for a requested path.
type Decision int

const (
	// ShowLoading renders a loading indicator only; no route content.
	ShowLoading Decision = iota
	// ShowLogin collapses every path to the login screen.
	ShowLogin
	// Redirect sends the user to Resolution.Path instead.
	Redirect
	// Render shows the requested protected route.
	Render
)

func (d Decision) String() string {
	switch d {
	case ShowLoading:
		return "loading"
	case ShowLogin:
		return "login"
	case Redirect:
		return "redirect"
	default:
		return "render"
	}
}

type Resolution struct {
	Decision Decision
	Path     string // target route for Redirect and Render
}

const (
	RouteRoot = "/"
	RouteHome = "/home"
)

// protectedRoutes mirrors the application shell's route table. There is no
// 404 screen: anything else redirects to home.
var protectedRoutes = map[string]bool{
	RouteHome:              true,
	"/usuarios":            true,
	"/perfil":              true,
	"/permissoes":          true,
	"/socios":              true,
	"/empresas":            true,
	"/relatorios-empresas": true,
	"/relatorios-socios":   true,
}

// SessionState is the slice of the session manager the guard reads.
type SessionState interface {
	Snapshot() session.Snapshot
}

type Guard struct {
	sessions SessionState
	kv       store.KV
	log      zerolog.Logger
}

type Option func(*Guard)

// WithGuardLogger sets the guard logger.
func WithGuardLogger(log zerolog.Logger) Option {
	return func(g *Guard) { g.log = log }
}

func New(sessions SessionState, kv store.KV, options ...Option) *Guard {
	g := &Guard{
		sessions: sessions,
		kv:       kv,
		log:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Resolve decides what to present for path. Rendering a protected non-home
// route persists it as the last route, so a reload can restore the user's
// position; that write is a side effect of resolving, not a caller action.
func (g *Guard) Resolve(path string) Resolution {
	snap := g.sessions.Snapshot()

	if snap.Loading {
		return Resolution{Decision: ShowLoading}
	}
	if !snap.IsAuthenticated {
		return Resolution{Decision: ShowLogin}
	}

	if path == RouteRoot || path == "" {
		if last, ok := g.kv.Get(store.KeyLastRoute); ok && last != RouteRoot && last != RouteHome && last != "" {
			g.log.Debug().Str("route", last).Msg("restoring last route")
			return Resolution{Decision: Redirect, Path: last}
		}
		return Resolution{Decision: Redirect, Path: RouteHome}
	}

	if !protectedRoutes[path] {
		return Resolution{Decision: Redirect, Path: RouteHome}
	}

	if path != RouteHome {
		if err := g.kv.Set(store.KeyLastRoute, path); err != nil {
			g.log.Warn().Err(err).Str("route", path).Msg("failed to persist last route")
		}
	}
	return Resolution{Decision: Render, Path: path}
}

// Routes lists the protected route table in no particular order.
func (g *Guard) Routes() []string {
	out := make([]string, 0, len(protectedRoutes))
	for route := range protectedRoutes {
		out = append(out, route)
	}
	return out
}

// Package apiclient is the shared HTTP client for the SINDPLAST backend.
// A single Client instance serves every call in the app: it attaches the
// bearer credential at send time and turns 401 responses into a transparent
// refresh-and-retry sequence (see transport.go).
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx backend response. Message carries the
// server-provided text when the body had one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

type Client struct {
	baseURL string
	log     zerolog.Logger

	// http intercepts 401s; plain does not and is used by the
	// credential-exchange endpoints (login, refresh, logout) so a failed
	// login can never recurse into a refresh attempt.
	http  *http.Client
	plain *http.Client

	Socios    *SociosService
	Empresas  *EmpresasService
	Usuarios  *UsuariosService
	Perfis    *PerfisService
	Dashboard *DashboardService
}

type Option func(*clientSettings)

type clientSettings struct {
	timeout time.Duration
	log     zerolog.Logger
	base    http.RoundTripper
}

// WithTimeout overrides the fixed per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *clientSettings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(log zerolog.Logger) Option {
	return func(s *clientSettings) { s.log = log }
}

// WithBaseTransport overrides the underlying RoundTripper (testing).
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(s *clientSettings) { s.base = rt }
}

// New builds the shared client. provider supplies the bearer credential and
// the refresh flow; it must not be nil.
func New(baseURL string, provider TokenProvider, options ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[apiclient.New] baseURL is required")
	}
	if provider == nil {
		return nil, errors.New("[apiclient.New] token provider is required")
	}

	settings := &clientSettings{
		timeout: defaultTimeout,
		log:     zerolog.Nop(),
		base:    http.DefaultTransport,
	}
	for _, opt := range options {
		opt(settings)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     settings.log,
		http: &http.Client{
			Timeout:   settings.timeout,
			Transport: &transport{base: settings.base, provider: provider},
		},
		plain: &http.Client{
			Timeout:   settings.timeout,
			Transport: settings.base,
		},
	}
	c.Socios = &SociosService{c: c}
	c.Empresas = &EmpresasService{c: c}
	c.Usuarios = &UsuariosService{c: c}
	c.Perfis = &PerfisService{c: c}
	c.Dashboard = &DashboardService{c: c}
	return c, nil
}

// do issues an intercepted JSON request against an /api path and decodes a
// 2xx body into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.send(ctx, c.http, method, path, "", body, out)
}

// doPlain issues an unintercepted request, optionally with an explicit
// bearer token. Used by the auth endpoints.
func (c *Client) doPlain(ctx context.Context, method, path, bearer string, body, out interface{}) error {
	return c.send(ctx, c.plain, method, path, bearer, body, out)
}

func (c *Client) send(ctx context.Context, hc *http.Client, method, path, bearer string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "[apiclient] marshal %s %s", method, path)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrapf(err, "[apiclient] new request %s %s", method, path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := hc.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return errors.Wrapf(err, "[apiclient] %s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return errors.Wrapf(err, "[apiclient] read body %s %s", method, path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: serverMessage(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "[apiclient] decode %s %s", method, path)
	}
	return nil
}

// serverMessage pulls the backend's {message} text out of an error body.
func serverMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.Message
}

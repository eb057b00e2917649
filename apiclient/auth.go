package apiclient

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/sindplast-am/go-admin-client/usuarios"
)

// LoginResult is the credential bundle minted by a successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         usuarios.Profile
}

type loginResponse struct {
	Success      bool             `json:"success"`
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	Usuario      usuarios.Profile `json:"usuario"`
	Message      string           `json:"message"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

type meResponse struct {
	Success bool             `json:"success"`
	Usuario usuarios.Profile `json:"usuario"`
	Message string           `json:"message"`
}

// Login exchanges credentials for a token pair and user profile. A
// server-side rejection comes back as an *APIError carrying the backend's
// message; any other error is a transport failure.
//
// Login goes through the unintercepted client: a 401 here means bad
// credentials, never a refresh trigger.
func (c *Client) Login(ctx context.Context, usuario, senha string) (*LoginResult, error) {
	body := map[string]string{"usuario": usuario, "senha": senha}

	var payload loginResponse
	if err := c.doPlain(ctx, http.MethodPost, "/api/auth/login", "", body, &payload); err != nil {
		return nil, err
	}
	if !payload.Success || payload.AccessToken == "" || !payload.Usuario.Valid() {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: payload.Message}
	}

	return &LoginResult{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		User:         payload.Usuario,
	}, nil
}

// Refresh exchanges the refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	body := map[string]string{"refresh_token": refreshToken}

	var payload refreshResponse
	if err := c.doPlain(ctx, http.MethodPost, "/api/auth/refresh", "", body, &payload); err != nil {
		return "", errors.Wrap(err, "[Client.Refresh]")
	}
	if payload.AccessToken == "" {
		return "", errors.New("[Client.Refresh] no access token in response")
	}
	return payload.AccessToken, nil
}

// Logout notifies the backend that the session is over. Callers treat this
// as best-effort; local teardown must not depend on it succeeding.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.doPlain(ctx, http.MethodPost, "/api/auth/logout", accessToken, nil, nil)
}

// Me returns the server's copy of the authenticated user. It goes through
// the intercepted client: an expired access token is refreshed and the call
// retried before any 401 reaches the caller. A 401 here or a success=false
// body means the server explicitly rejected the session; any other error
// says nothing about validity.
func (c *Client) Me(ctx context.Context) (usuarios.Profile, error) {
	var payload meResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &payload); err != nil {
		return usuarios.Profile{}, err
	}
	if !payload.Success || !payload.Usuario.Valid() {
		return usuarios.Profile{}, &APIError{StatusCode: http.StatusUnauthorized, Message: payload.Message}
	}
	return payload.Usuario, nil
}

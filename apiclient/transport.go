package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// TokenProvider supplies the current access token and performs the refresh
// flow when a request comes back 401. The session manager implements this;
// the transport never caches a token between requests.
type TokenProvider interface {
	// AccessToken returns the current access token, or "" when anonymous.
	AccessToken() string

	// RefreshAccessToken exchanges the refresh token for a new access
	// token. On failure the provider is expected to tear the session down
	// before returning the error.
	RefreshAccessToken(ctx context.Context) (string, error)
}

// transport attaches the bearer credential to every outgoing request and
// transparently retries a request exactly once after a 401, using a freshly
// refreshed token. All other responses pass through untouched; transport
// errors (including timeouts) are never treated as authorization failures.
type transport struct {
	base     http.RoundTripper
	provider TokenProvider
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// The token is read at send time, not captured at client build time.
	if token := t.provider.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if req.Header.Get("X-Request-Id") == "" {
		req.Header.Set("X-Request-Id", uuid.New().String())
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	retry, ok := t.rewind(req)
	if !ok {
		return resp, nil
	}

	// Buffer the 401 body now: it frees the connection for the refresh
	// call and keeps the original rejection readable if refresh fails.
	drain(resp)

	newToken, refreshErr := t.provider.RefreshAccessToken(req.Context())
	if refreshErr != nil {
		// Refresh failed: the original 401 is the caller's answer.
		return resp, nil
	}

	retry.Header.Set("Authorization", "Bearer "+newToken)
	retryResp, err := t.base.RoundTrip(retry)
	if err != nil {
		return nil, err
	}
	return retryResp, nil
}

// rewind produces a one-shot clone of req with a replayable body. Requests
// whose body cannot be replayed are not retried.
func (t *transport) rewind(req *http.Request) (*http.Request, bool) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	clone.Body = body
	return clone, true
}

func drain(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	if err != nil {
		raw = nil
	}
	resp.Body = io.NopCloser(bytes.NewReader(raw))
}

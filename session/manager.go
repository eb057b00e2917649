// Package session owns the client's authentication state machine. A Manager
// caches the persisted session store in memory, performs login, logout,
// refresh and rehydration against the backend, and feeds the bearer
// credential to the shared HTTP client at send time.
package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sindplast-am/go-admin-client/apiclient"
	interrors "github.com/sindplast-am/go-admin-client/internal/errors"
	"github.com/sindplast-am/go-admin-client/store"
	"github.com/sindplast-am/go-admin-client/usuarios"
)

// State is the session lifecycle position. Authenticating and Refreshing
// are transient and always resolve to Anonymous or Authenticated.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "anonymous"
	}
}

// Fallback messages shown when the backend does not provide one. They match
// the backend's language.
const (
	msgInvalidCredentials = "Credenciais inválidas"
	msgAuthFailure        = "Erro na autenticação"
)

// AuthAPI is the slice of the backend client the manager depends on.
type AuthAPI interface {
	Login(ctx context.Context, usuario, senha string) (*apiclient.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, accessToken string) error
	Me(ctx context.Context) (usuarios.Profile, error)
}

// Snapshot is an immutable view of the session state for UI gating.
type Snapshot struct {
	State           State
	User            *usuarios.Profile
	Token           string
	IsAuthenticated bool
	Loading         bool
	Error           string
}

// Manager synchronizes in-memory session state with the persisted store.
// The store is the source of truth shared across contexts; the in-memory
// fields are a cache of it, except Loading and Error which are UI-local.
type Manager struct {
	api      AuthAPI
	sessions *store.Sessions
	kv       store.KV
	log      zerolog.Logger

	mu      sync.Mutex
	state   State
	user    usuarios.Profile
	token   string
	refresh string
	loading bool
	errMsg  string
	nextSub int
	subs    map[int]func(Snapshot)

	sf struct {
		mu       sync.Mutex
		inflight *refreshCall
	}

	cancelStoreSub func()
}

type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

type ManagerOption func(*Manager)

// WithManagerLogger sets the manager logger.
func WithManagerLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

// NewManager wires the manager to the backend and the persisted store, and
// subscribes to external store changes so a login or logout in another
// context is adopted here without a reload.
func NewManager(api AuthAPI, sessions *store.Sessions, options ...ManagerOption) (*Manager, error) {
	if api == nil {
		return nil, errors.New("[session.NewManager] api is required")
	}
	if sessions == nil {
		return nil, errors.New("[session.NewManager] session store is required")
	}

	m := &Manager{
		api:      api,
		sessions: sessions,
		kv:       sessions.KV(),
		log:      zerolog.Nop(),
		state:    StateAnonymous,
		subs:     make(map[int]func(Snapshot)),
	}
	for _, opt := range options {
		opt(m)
	}

	m.cancelStoreSub = m.kv.Subscribe(m.onExternalChange)
	return m, nil
}

// Close cancels the store subscription. It does not touch the session.
func (m *Manager) Close() {
	if m.cancelStoreSub != nil {
		m.cancelStoreSub()
	}
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:           m.state,
		Token:           m.token,
		IsAuthenticated: m.state == StateAuthenticated || m.state == StateRefreshing,
		Loading:         m.loading,
		Error:           m.errMsg,
	}
	if m.user.Valid() {
		user := m.user
		snap.User = &user
	}
	return snap
}

// IsAuthenticated reports whether the manager currently believes the user
// is logged in.
func (m *Manager) IsAuthenticated() bool {
	return m.Snapshot().IsAuthenticated
}

// Subscribe registers fn to run after every state change. The returned
// function cancels the subscription.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// notifyLocked snapshots state and returns a closure that delivers it to
// subscribers. Callers must invoke the closure after releasing the lock.
func (m *Manager) notifyLocked() func() {
	snap := m.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(snap)
		}
	}
}

// AccessToken implements apiclient.TokenProvider. The token is read from
// the persisted store so a rotation in another context is picked up on the
// very next request.
func (m *Manager) AccessToken() string {
	if token, ok := m.kv.Get(store.KeyToken); ok {
		return token
	}
	return ""
}

// Rehydrate reconstructs the session from the persisted store at startup.
// A complete stored session is adopted optimistically, so the UI never
// flashes a login screen on reload; the who-am-i verification then runs in
// the background. A partial or malformed stored session tears everything
// down instead.
func (m *Manager) Rehydrate(ctx context.Context) bool {
	sess, ok := m.sessions.Read()
	if !ok {
		// Never tolerate partial session state: if any key is present at
		// all, scrub the rest.
		if m.anySessionKeyPresent() {
			m.log.Warn().Msg("inconsistent persisted session, tearing down")
			m.teardownLocal(true)
		}
		return false
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.user = sess.User
	m.token = sess.AccessToken
	m.refresh = sess.RefreshToken
	m.errMsg = ""
	notify := m.notifyLocked()
	m.mu.Unlock()
	notify()

	m.log.Debug().Str("usuario", sess.User.Usuario).Msg("session rehydrated")

	go m.verifySession(ctx)
	return true
}

// verifySession asks the server who the stored session belongs to. The call
// runs through the intercepted client, so an expired access token is
// refreshed and retried before anything surfaces here. Only a 401 that
// survived that sequence tears the session down; transport failures and
// transient server errors keep the optimistic local session, since the
// device may simply be offline or the backend briefly unwell.
func (m *Manager) verifySession(ctx context.Context) {
	profile, err := m.api.Me(ctx)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			m.log.Info().Int("status", apiErr.StatusCode).Msg("stored session rejected by server")
			m.Logout(ctx)
			return
		}
		m.log.Warn().Err(err).Msg("could not verify session, keeping local authentication")
		return
	}

	if err := m.sessions.SetUser(profile); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist verified user")
	}

	m.mu.Lock()
	if m.state == StateAuthenticated || m.state == StateRefreshing {
		m.user = profile
	}
	notify := m.notifyLocked()
	m.mu.Unlock()
	notify()
}

// Login authenticates with the backend. It reports success; on failure the
// snapshot's Error field carries the server's message when one was given.
func (m *Manager) Login(ctx context.Context, usuario, senha string) bool {
	m.mu.Lock()
	m.loading = true
	m.errMsg = ""
	m.state = StateAuthenticating
	notify := m.notifyLocked()
	m.mu.Unlock()
	notify()

	result, err := m.api.Login(ctx, usuario, senha)

	// finish always resets loading, whatever path we took.
	finish := func(state State, errMsg string) {
		m.mu.Lock()
		m.state = state
		m.errMsg = errMsg
		m.loading = false
		if state == StateAuthenticated {
			m.user = result.User
			m.token = result.AccessToken
			m.refresh = result.RefreshToken
		}
		notify := m.notifyLocked()
		m.mu.Unlock()
		notify()
	}

	if err != nil {
		m.log.Info().Err(err).Str("usuario", usuario).Msg("login failed")
		finish(StateAnonymous, loginErrorMessage(err))
		return false
	}

	// Store writes happen outside the state lock: on a shared store they
	// synchronously notify other contexts.
	if err := m.sessions.Write(store.Session{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	}); err != nil {
		m.log.Error().Err(err).Msg("failed to persist session")
		finish(StateAnonymous, msgAuthFailure)
		return false
	}

	// Legacy key some form prefills still read.
	if err := m.kv.Set(store.KeyUsuarioLogado, result.User.Usuario); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist usuarioLogado")
	}
	// A fresh login always lands on home, not on a restored route.
	if err := m.kv.Delete(store.KeyLastRoute); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear last route")
	}

	m.log.Info().Str("usuario", result.User.Usuario).Msg("login succeeded")
	finish(StateAuthenticated, "")
	return true
}

func loginErrorMessage(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return msgInvalidCredentials
	}
	return msgAuthFailure
}

// RefreshAccessToken implements apiclient.TokenProvider. Concurrent callers
// coalesce into a single in-flight refresh; every waiter gets the same
// outcome. On any failure the whole session is torn down.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	m.sf.mu.Lock()
	if call := m.sf.inflight; call != nil {
		m.sf.mu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	m.sf.inflight = call
	m.sf.mu.Unlock()

	call.token, call.err = m.doRefresh(ctx)
	close(call.done)

	m.sf.mu.Lock()
	m.sf.inflight = nil
	m.sf.mu.Unlock()

	return call.token, call.err
}

func (m *Manager) doRefresh(ctx context.Context) (string, error) {
	refreshToken, ok := m.kv.Get(store.KeyRefreshToken)
	if !ok || refreshToken == "" {
		return "", interrors.ErrNoRefreshToken
	}

	m.mu.Lock()
	if m.state == StateAuthenticated {
		m.state = StateRefreshing
	}
	m.mu.Unlock()

	token, err := m.api.Refresh(ctx, refreshToken)
	if err != nil {
		m.log.Info().Err(err).Msg("token refresh failed, logging out")
		m.Logout(ctx)
		return "", interrors.Wrapf(interrors.ErrSessionExpired, "refresh failed")
	}

	if err := m.sessions.SetAccessToken(token); err != nil {
		m.log.Error().Err(err).Msg("failed to persist refreshed token")
	}

	m.mu.Lock()
	m.token = token
	if m.state == StateRefreshing {
		m.state = StateAuthenticated
	}
	notify := m.notifyLocked()
	m.mu.Unlock()
	notify()

	return token, nil
}

// Logout ends the session. The server call is best-effort; local teardown
// happens regardless.
func (m *Manager) Logout(ctx context.Context) {
	if token := m.AccessToken(); token != "" {
		if err := m.api.Logout(ctx, token); err != nil {
			m.log.Warn().Err(err).Msg("server logout failed, clearing local session anyway")
		}
	}
	m.teardownLocal(true)
}

// teardownLocal resets in-memory state to anonymous and, when clearStore is
// set, scrubs the persisted session keys as well.
func (m *Manager) teardownLocal(clearStore bool) {
	if clearStore {
		if err := m.sessions.Clear(); err != nil {
			m.log.Error().Err(err).Msg("failed to clear persisted session")
		}
	}

	m.mu.Lock()
	m.state = StateAnonymous
	m.user = usuarios.Profile{}
	m.token = ""
	m.refresh = ""
	m.errMsg = ""
	notify := m.notifyLocked()
	m.mu.Unlock()
	notify()
}

// onExternalChange re-reads the store after another context mutated it. A
// complete session is adopted even if this context was anonymous; a missing
// or partial one forces this context to anonymous. The store is not written
// here: the other context already did.
func (m *Manager) onExternalChange() {
	if sess, ok := m.sessions.Read(); ok {
		m.mu.Lock()
		m.state = StateAuthenticated
		m.user = sess.User
		m.token = sess.AccessToken
		m.refresh = sess.RefreshToken
		notify := m.notifyLocked()
		m.mu.Unlock()
		notify()
		m.log.Debug().Str("usuario", sess.User.Usuario).Msg("adopted session from another context")
		return
	}

	m.mu.Lock()
	wasAuthenticated := m.state != StateAnonymous
	m.mu.Unlock()
	if wasAuthenticated {
		m.log.Debug().Msg("session ended in another context")
	}
	m.teardownLocal(false)
}

// anySessionKeyPresent reports whether the store holds any of the session
// keys, used to spot partial writes during rehydration.
func (m *Manager) anySessionKeyPresent() bool {
	for _, key := range []string{store.KeyToken, store.KeyRefreshToken, store.KeyUser, store.KeyAuth} {
		if _, ok := m.kv.Get(key); ok {
			return true
		}
	}
	return false
}

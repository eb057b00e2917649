package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/sindplast-am/go-admin-client/apiclient"
	interrors "github.com/sindplast-am/go-admin-client/internal/errors"
	"github.com/sindplast-am/go-admin-client/session"
	"github.com/sindplast-am/go-admin-client/store"
	"github.com/sindplast-am/go-admin-client/usuarios"
)

func anaProfile() usuarios.Profile {
	return usuarios.Profile{
		ID:      1,
		Nome:    "Ana",
		Usuario: "ana",
		Perfil:  "ADMIN",
		Funcao:  "DIR",
		Email:   "a@x.com",
	}
}

// backend is a scriptable stand-in for the SINDPLAST REST API.
type backend struct {
	srv *httptest.Server

	mu           sync.Mutex
	loginCalls   int
	refreshCalls int
	meCalls      int
	logoutCalls  int
	failRefresh  bool
	rejectMe     bool
	meBearer     string // bearer required by /api/auth/me; empty accepts any
	meStatus     int    // non-zero forces this status from /api/auth/me
	meProfile    usuarios.Profile
	refreshDelay time.Duration
	sociosBearer string // bearer required by /api/socios; empty accepts any
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{meProfile: anaProfile()}
	b.srv = httptest.NewServer(http.HandlerFunc(b.handle))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/api/auth/login":
		b.mu.Lock()
		b.loginCalls++
		b.mu.Unlock()
		var body struct {
			Usuario string `json:"usuario"`
			Senha   string `json:"senha"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Senha != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"message":"Credenciais inválidas"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success":       true,
			"access_token":  "A1",
			"refresh_token": "R1",
			"usuario":       anaProfile(),
		})

	case "/api/auth/refresh":
		b.mu.Lock()
		b.refreshCalls++
		fail, delay := b.failRefresh, b.refreshDelay
		b.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		if fail {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"message":"refresh token inválido"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"A2"}`))

	case "/api/auth/logout":
		b.mu.Lock()
		b.logoutCalls++
		b.mu.Unlock()
		_, _ = w.Write([]byte(`{"success":true}`))

	case "/api/auth/me":
		b.mu.Lock()
		b.meCalls++
		reject, profile := b.rejectMe, b.meProfile
		bearer, status := b.meBearer, b.meStatus
		b.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"success":false,"message":"banco indisponível"}`))
			return
		}
		if reject || (bearer != "" && r.Header.Get("Authorization") != "Bearer "+bearer) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"message":"Token inválido"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "usuario": profile})

	case "/api/socios":
		b.mu.Lock()
		required := b.sociosBearer
		b.mu.Unlock()
		if required != "" && r.Header.Get("Authorization") != "Bearer "+required {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"nome":"Ana"}]`))

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (b *backend) counts() (login, refresh, me, logout int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loginCalls, b.refreshCalls, b.meCalls, b.logoutCalls
}

// forwarder breaks the client/manager construction cycle, as the app
// wiring does.
type forwarder struct {
	m *session.Manager
}

func (f *forwarder) AccessToken() string {
	if f.m == nil {
		return ""
	}
	return f.m.AccessToken()
}

func (f *forwarder) RefreshAccessToken(ctx context.Context) (string, error) {
	return f.m.RefreshAccessToken(ctx)
}

func newManager(t *testing.T, url string, kv store.KV) (*session.Manager, *apiclient.Client) {
	t.Helper()
	provider := &forwarder{}
	client, err := apiclient.New(url, provider)
	require.NoError(t, err)
	manager, err := session.NewManager(client, store.NewSessions(kv))
	require.NoError(t, err)
	provider.m = manager
	t.Cleanup(manager.Close)
	return manager, client
}

func seedSession(t *testing.T, kv store.KV, token string) {
	t.Helper()
	require.NoError(t, store.NewSessions(kv).Write(store.Session{
		AccessToken:  token,
		RefreshToken: "R1",
		User:         anaProfile(),
	}))
}

func requireSessionKeysAbsent(t *testing.T, kv store.KV) {
	t.Helper()
	for _, key := range []string{store.KeyToken, store.KeyRefreshToken, store.KeyUser, store.KeyAuth, store.KeyUsuarioLogado} {
		_, ok := kv.Get(key)
		require.False(t, ok, "key %s should be absent", key)
	}
}

func TestManager_Login(t *testing.T) {
	t.Run("success persists the whole session", func(t *testing.T) {
		b := newBackend(t)
		kv := store.NewMemory()
		require.NoError(t, kv.Set(store.KeyLastRoute, "/socios"))
		manager, _ := newManager(t, b.srv.URL, kv)

		require.True(t, manager.Login(context.Background(), "ana", "secret"))

		snap := manager.Snapshot()
		require.True(t, snap.IsAuthenticated)
		require.False(t, snap.Loading)
		require.Empty(t, snap.Error)
		require.Equal(t, "ana", snap.User.Usuario)

		token, _ := kv.Get(store.KeyToken)
		require.Equal(t, "A1", token)
		refresh, _ := kv.Get(store.KeyRefreshToken)
		require.Equal(t, "R1", refresh)
		auth, _ := kv.Get(store.KeyAuth)
		require.Equal(t, store.AuthTrue, auth)
		legacy, _ := kv.Get(store.KeyUsuarioLogado)
		require.Equal(t, "ana", legacy)

		rawUser, _ := kv.Get(store.KeyUser)
		var user usuarios.Profile
		require.NoError(t, json.Unmarshal([]byte(rawUser), &user))
		require.Equal(t, anaProfile(), user)

		// A fresh login always lands on home.
		_, ok := kv.Get(store.KeyLastRoute)
		require.False(t, ok)
	})

	t.Run("second login is idempotent", func(t *testing.T) {
		b := newBackend(t)
		kv := store.NewMemory()
		manager, _ := newManager(t, b.srv.URL, kv)

		require.True(t, manager.Login(context.Background(), "ana", "secret"))
		firstUser, _ := kv.Get(store.KeyUser)

		require.True(t, manager.Login(context.Background(), "ana", "secret"))
		require.True(t, manager.IsAuthenticated())
		secondUser, _ := kv.Get(store.KeyUser)
		require.Equal(t, firstUser, secondUser)
	})

	t.Run("rejected credentials surface the server message", func(t *testing.T) {
		b := newBackend(t)
		kv := store.NewMemory()
		manager, _ := newManager(t, b.srv.URL, kv)

		require.False(t, manager.Login(context.Background(), "dev", "wrong"))

		snap := manager.Snapshot()
		require.False(t, snap.IsAuthenticated)
		require.False(t, snap.Loading)
		require.Equal(t, "Credenciais inválidas", snap.Error)
		requireSessionKeysAbsent(t, kv)
	})

	t.Run("transport failure uses the generic message", func(t *testing.T) {
		b := newBackend(t)
		url := b.srv.URL
		b.srv.Close()
		kv := store.NewMemory()
		manager, _ := newManager(t, url, kv)

		require.False(t, manager.Login(context.Background(), "ana", "secret"))

		snap := manager.Snapshot()
		require.False(t, snap.IsAuthenticated)
		require.Equal(t, "Erro na autenticação", snap.Error)
	})
}

func TestManager_Rehydrate(t *testing.T) {
	t.Run("adopts the stored session optimistically then verifies", func(t *testing.T) {
		b := newBackend(t)
		b.mu.Lock()
		b.meProfile.Nome = "Ana Maria"
		b.mu.Unlock()

		kv := store.NewMemory()
		seedSession(t, kv, "A1")
		manager, _ := newManager(t, b.srv.URL, kv)

		require.True(t, manager.Rehydrate(context.Background()))
		// Authenticated immediately, before any network round trip.
		require.True(t, manager.IsAuthenticated())

		// The server's copy of the profile wins once verification lands.
		require.Eventually(t, func() bool {
			snap := manager.Snapshot()
			return snap.User != nil && snap.User.Nome == "Ana Maria"
		}, 2*time.Second, 10*time.Millisecond)

		rawUser, _ := kv.Get(store.KeyUser)
		var user usuarios.Profile
		require.NoError(t, json.Unmarshal([]byte(rawUser), &user))
		require.Equal(t, "Ana Maria", user.Nome)
	})

	t.Run("expired access token refreshes instead of logging out", func(t *testing.T) {
		b := newBackend(t)
		b.mu.Lock()
		b.meBearer = "A2" // the stored token is already stale
		b.mu.Unlock()

		kv := store.NewMemory()
		seedSession(t, kv, "A1")
		manager, _ := newManager(t, b.srv.URL, kv)

		require.True(t, manager.Rehydrate(context.Background()))
		require.Eventually(t, func() bool {
			token, _ := kv.Get(store.KeyToken)
			return token == "A2"
		}, 2*time.Second, 10*time.Millisecond)

		require.True(t, manager.IsAuthenticated(), "a stale token with a valid refresh token must not log out")
		refresh, _ := kv.Get(store.KeyRefreshToken)
		require.Equal(t, "R1", refresh)
		_, refreshCalls, _, _ := b.counts()
		require.Equal(t, 1, refreshCalls)
	})

	t.Run("server error during verification keeps the session", func(t *testing.T) {
		b := newBackend(t)
		b.mu.Lock()
		b.meStatus = http.StatusInternalServerError
		b.mu.Unlock()

		kv := store.NewMemory()
		seedSession(t, kv, "A1")
		manager, _ := newManager(t, b.srv.URL, kv)

		require.True(t, manager.Rehydrate(context.Background()))
		require.Eventually(t, func() bool {
			_, _, me, _ := b.counts()
			return me >= 1
		}, 2*time.Second, 10*time.Millisecond)
		time.Sleep(50 * time.Millisecond)

		require.True(t, manager.IsAuthenticated(), "a 5xx from verification is not a rejection")
		token, _ := kv.Get(store.KeyToken)
		require.Equal(t, "A1", token)
		_, refreshCalls, _, _ := b.counts()
		require.Zero(t, refreshCalls)
	})

	t.Run("keeps the session when verification cannot reach the server", func(t *testing.T) {
		b := newBackend(t)
		url := b.srv.URL
		b.srv.Close()

		kv := store.NewMemory()
		seedSession(t, kv, "A1")
		manager, _ := newManager(t, url, kv)

		require.True(t, manager.Rehydrate(context.Background()))
		time.Sleep(150 * time.Millisecond)
		require.True(t, manager.IsAuthenticated(), "offline verification must not force logout")
	})

	t.Run("tears down when the server rejects the session", func(t *testing.T) {
		b := newBackend(t)
		b.mu.Lock()
		b.rejectMe = true
		b.mu.Unlock()

		kv := store.NewMemory()
		seedSession(t, kv, "A1")
		manager, _ := newManager(t, b.srv.URL, kv)

		require.True(t, manager.Rehydrate(context.Background()))
		require.Eventually(t, func() bool {
			return !manager.IsAuthenticated()
		}, 2*time.Second, 10*time.Millisecond)
		requireSessionKeysAbsent(t, kv)
	})

	t.Run("partial session state rehydrates to anonymous and is scrubbed", func(t *testing.T) {
		b := newBackend(t)
		kv := store.NewMemory()
		require.NoError(t, kv.Set(store.KeyToken, "A1"))
		require.NoError(t, kv.Set(store.KeyAuth, store.AuthTrue))
		// No user record.
		manager, _ := newManager(t, b.srv.URL, kv)

		require.False(t, manager.Rehydrate(context.Background()))
		require.False(t, manager.IsAuthenticated())
		requireSessionKeysAbsent(t, kv)
	})

	t.Run("malformed user record is no session, not a crash", func(t *testing.T) {
		b := newBackend(t)
		kv := store.NewMemory()
		require.NoError(t, kv.Set(store.KeyToken, "A1"))
		require.NoError(t, kv.Set(store.KeyRefreshToken, "R1"))
		require.NoError(t, kv.Set(store.KeyUser, "{broken"))
		require.NoError(t, kv.Set(store.KeyAuth, store.AuthTrue))
		manager, _ := newManager(t, b.srv.URL, kv)

		require.False(t, manager.Rehydrate(context.Background()))
		require.False(t, manager.IsAuthenticated())
		requireSessionKeysAbsent(t, kv)
	})

	t.Run("empty store rehydrates to anonymous without touching anything", func(t *testing.T) {
		b := newBackend(t)
		kv := store.NewMemory()
		manager, _ := newManager(t, b.srv.URL, kv)

		require.False(t, manager.Rehydrate(context.Background()))
		_, _, me, _ := b.counts()
		require.Zero(t, me)
	})
}

func TestManager_Refresh(t *testing.T) {
	t.Run("replaces only the access token", func(t *testing.T) {
		b := newBackend(t)
		kv := store.NewMemory()
		seedSession(t, kv, "A1")
		manager, _ := newManager(t, b.srv.URL, kv)
		require.True(t, manager.Rehydrate(context.Background()))

		token, err := manager.RefreshAccessToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "A2", token)

		stored, _ := kv.Get(store.KeyToken)
		require.Equal(t, "A2", stored)
		refresh, _ := kv.Get(store.KeyRefreshToken)
		require.Equal(t, "R1", refresh, "refresh token must be untouched")

		rawUser, _ := kv.Get(store.KeyUser)
		var user usuarios.Profile
		require.NoError(t, json.Unmarshal([]byte(rawUser), &user))
		require.Equal(t, "ana", user.Usuario, "user must be untouched")
		require.True(t, manager.IsAuthenticated())
	})

	t.Run("failure cascades to a full logout", func(t *testing.T) {
		b := newBackend(t)
		b.mu.Lock()
		b.failRefresh = true
		b.mu.Unlock()

		kv := store.NewMemory()
		seedSession(t, kv, "A1")
		manager, _ := newManager(t, b.srv.URL, kv)
		require.True(t, manager.Rehydrate(context.Background()))

		_, err := manager.RefreshAccessToken(context.Background())
		require.Error(t, err)
		require.True(t, interrors.Is(err, interrors.ErrSessionExpired))

		require.False(t, manager.IsAuthenticated())
		requireSessionKeysAbsent(t, kv)
	})

	t.Run("missing refresh token fails without a network call", func(t *testing.T) {
		b := newBackend(t)
		kv := store.NewMemory()
		manager, _ := newManager(t, b.srv.URL, kv)

		_, err := manager.RefreshAccessToken(context.Background())
		require.True(t, interrors.Is(err, interrors.ErrNoRefreshToken))

		_, refreshCalls, _, _ := b.counts()
		require.Zero(t, refreshCalls)
	})

	// The source app lets two concurrent 401s race into two refresh calls;
	// coalescing them into one in-flight operation is a deliberate
	// strengthening here, so callers still must not assume exactly-once.
	t.Run("concurrent refreshes coalesce into one flight", func(t *testing.T) {
		b := newBackend(t)
		b.mu.Lock()
		b.refreshDelay = 100 * time.Millisecond
		b.mu.Unlock()

		kv := store.NewMemory()
		seedSession(t, kv, "A1")
		manager, _ := newManager(t, b.srv.URL, kv)
		require.True(t, manager.Rehydrate(context.Background()))

		var wg sync.WaitGroup
		tokens := make([]string, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				token, err := manager.RefreshAccessToken(context.Background())
				require.NoError(t, err)
				tokens[i] = token
			}(i)
		}
		wg.Wait()

		require.Equal(t, "A2", tokens[0])
		require.Equal(t, "A2", tokens[1])
		_, refreshCalls, _, _ := b.counts()
		require.Equal(t, 1, refreshCalls)
	})
}

func TestManager_Logout(t *testing.T) {
	t.Run("clears everything and notifies the server", func(t *testing.T) {
		b := newBackend(t)
		kv := store.NewMemory()
		manager, _ := newManager(t, b.srv.URL, kv)
		require.True(t, manager.Login(context.Background(), "ana", "secret"))

		manager.Logout(context.Background())

		require.False(t, manager.IsAuthenticated())
		requireSessionKeysAbsent(t, kv)
		_, _, _, logoutCalls := b.counts()
		require.Equal(t, 1, logoutCalls)
	})

	t.Run("server failure does not prevent local teardown", func(t *testing.T) {
		b := newBackend(t)
		kv := store.NewMemory()
		manager, _ := newManager(t, b.srv.URL, kv)
		require.True(t, manager.Login(context.Background(), "ana", "secret"))
		b.srv.Close()

		manager.Logout(context.Background())

		require.False(t, manager.IsAuthenticated())
		requireSessionKeysAbsent(t, kv)
	})
}

func TestManager_CrossTabSync(t *testing.T) {
	b := newBackend(t)
	shared := store.NewMemory()
	tabA, tabB := shared, shared.NewHandle()

	managerA, _ := newManager(t, b.srv.URL, tabA)
	managerB, _ := newManager(t, b.srv.URL, tabB)

	t.Run("login in one tab logs in the other", func(t *testing.T) {
		require.True(t, managerA.Login(context.Background(), "ana", "secret"))

		snap := managerB.Snapshot()
		require.True(t, snap.IsAuthenticated)
		require.NotNil(t, snap.User)
		require.Equal(t, "ana", snap.User.Usuario)
	})

	t.Run("logout in one tab logs out the other", func(t *testing.T) {
		managerA.Logout(context.Background())
		require.False(t, managerB.IsAuthenticated())
	})
}

func TestManager_TransparentRefreshEndToEnd(t *testing.T) {
	b := newBackend(t)
	b.mu.Lock()
	b.sociosBearer = "A2" // the stored token is already stale
	b.mu.Unlock()

	kv := store.NewMemory()
	seedSession(t, kv, "A1")
	manager, client := newManager(t, b.srv.URL, kv)
	require.True(t, manager.Rehydrate(context.Background()))

	// The caller never sees the 401: the transport refreshes and retries.
	list, err := client.Socios.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	stored, _ := kv.Get(store.KeyToken)
	require.Equal(t, "A2", stored)
	_, refreshCalls, _, _ := b.counts()
	require.Equal(t, 1, refreshCalls)
}

func TestManager_TokenExpiry(t *testing.T) {
	exp := time.Now().Add(8 * time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	b := newBackend(t)
	kv := store.NewMemory()
	require.NoError(t, store.NewSessions(kv).Write(store.Session{
		AccessToken:  signed,
		RefreshToken: "R1",
		User:         anaProfile(),
	}))
	manager, _ := newManager(t, b.srv.URL, kv)

	got, ok := manager.TokenExpiry()
	require.True(t, ok)
	require.Equal(t, exp.Unix(), got.Unix())

	t.Run("opaque token has no expiry", func(t *testing.T) {
		require.NoError(t, store.NewSessions(kv).SetAccessToken("A1"))
		_, ok := manager.TokenExpiry()
		require.False(t, ok)
	})
}

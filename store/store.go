// Package store implements the persisted session store: durable key/value
// storage shared between concurrent client contexts, with external-change
// notification so one context observes another's logins and logouts.
package store

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/sindplast-am/go-admin-client/usuarios"
)

// Keys persisted by the session store. These mirror the browser client's
// origin-scoped storage keys so a session survives a migration between the
// two frontends.
const (
	KeyToken         = "token"
	KeyRefreshToken  = "refreshToken"
	KeyUser          = "user"
	KeyAuth          = "auth"
	KeyUsuarioLogado = "usuarioLogado" // legacy form-prefill key
	KeyLastRoute     = "lastRoute"
)

// AuthTrue is the sentinel value of KeyAuth for an established session.
const AuthTrue = "true"

// KV is durable, origin-scoped key/value storage. Implementations must be
// safe for concurrent use and must deliver Subscribe notifications only for
// changes made by other contexts, never for the subscriber's own writes.
type KV interface {
	// Get returns the raw value, or ok=false when the key is absent.
	Get(key string) (string, bool)

	// Set writes a single key durably before returning.
	Set(key, value string) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error

	// Subscribe registers fn to run after an external context mutates the
	// store. The returned function cancels the subscription.
	Subscribe(fn func()) (cancel func())

	// Close releases watchers and underlying resources.
	Close() error
}

// Session is the credential bundle persisted across the four session keys.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         usuarios.Profile
}

// Sessions layers the session read/write contract over any KV. Writes are
// ordered so that a concurrent reader never observes auth=true without a
// matching user and token, and teardown removes auth first for the same
// reason.
type Sessions struct {
	kv KV
}

func NewSessions(kv KV) *Sessions {
	return &Sessions{kv: kv}
}

// KV exposes the underlying store for the auxiliary keys (lastRoute,
// usuarioLogado) and for change subscriptions.
func (s *Sessions) KV() KV { return s.kv }

// Write persists a complete session. The auth marker is written last.
func (s *Sessions) Write(sess Session) error {
	raw, err := json.Marshal(sess.User)
	if err != nil {
		return errors.Wrap(err, "[Sessions.Write] marshal user")
	}
	if err := s.kv.Set(KeyUser, string(raw)); err != nil {
		return errors.Wrap(err, "[Sessions.Write] set user")
	}
	if err := s.kv.Set(KeyToken, sess.AccessToken); err != nil {
		return errors.Wrap(err, "[Sessions.Write] set token")
	}
	if err := s.kv.Set(KeyRefreshToken, sess.RefreshToken); err != nil {
		return errors.Wrap(err, "[Sessions.Write] set refresh token")
	}
	if err := s.kv.Set(KeyAuth, AuthTrue); err != nil {
		return errors.Wrap(err, "[Sessions.Write] set auth")
	}
	return nil
}

// SetAccessToken replaces only the access token, leaving the refresh token
// and user untouched. Used after a successful refresh.
func (s *Sessions) SetAccessToken(token string) error {
	return errors.Wrap(s.kv.Set(KeyToken, token), "[Sessions.SetAccessToken] set token")
}

// SetUser replaces only the persisted user profile. Used when the who-am-i
// verification returns a newer copy.
func (s *Sessions) SetUser(user usuarios.Profile) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "[Sessions.SetUser] marshal user")
	}
	return errors.Wrap(s.kv.Set(KeyUser, string(raw)), "[Sessions.SetUser] set user")
}

// Read returns the stored session. ok is false when any required key is
// absent, the auth marker is not "true", or the user record does not parse.
// Malformed data is reported as absence, never as an error.
func (s *Sessions) Read() (Session, bool) {
	token, tokenOK := s.kv.Get(KeyToken)
	rawUser, userOK := s.kv.Get(KeyUser)
	auth, authOK := s.kv.Get(KeyAuth)
	if !tokenOK || !userOK || !authOK || token == "" || auth != AuthTrue {
		return Session{}, false
	}

	var user usuarios.Profile
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || !user.Valid() {
		return Session{}, false
	}

	refresh, _ := s.kv.Get(KeyRefreshToken)
	return Session{AccessToken: token, RefreshToken: refresh, User: user}, true
}

// Clear tears down the session keys plus the legacy usuarioLogado key.
// The auth marker goes first so no reader can observe auth=true over
// partially removed data. lastRoute deliberately survives logout; it is
// cleared on the next login.
func (s *Sessions) Clear() error {
	for _, key := range []string{KeyAuth, KeyToken, KeyRefreshToken, KeyUser, KeyUsuarioLogado} {
		if err := s.kv.Delete(key); err != nil {
			return errors.Wrapf(err, "[Sessions.Clear] delete %s", key)
		}
	}
	return nil
}

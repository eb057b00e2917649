package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
    id  INTEGER PRIMARY KEY CHECK (id = 1),
    rev INTEGER NOT NULL
);
INSERT INTO meta (id, rev) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;
`

// SQLite is a KV persisted in a sqlite database. Each mutation runs in a
// transaction that also bumps a revision row, which is what the change
// watcher polls to detect writes from other processes.
type SQLite struct {
	db   *sql.DB
	poll time.Duration
	log  zerolog.Logger

	mu       sync.Mutex
	lastSeen int64
	nextID   int
	subs     map[int]func()
	done     chan struct{}
	watching bool
}

type SQLiteOption func(*SQLite)

// WithSQLitePollInterval overrides how often the watcher checks for
// external writes.
func WithSQLitePollInterval(d time.Duration) SQLiteOption {
	return func(s *SQLite) {
		if d > 0 {
			s.poll = d
		}
	}
}

// WithSQLiteLogger sets the logger used by the change watcher.
func WithSQLiteLogger(log zerolog.Logger) SQLiteOption {
	return func(s *SQLite) { s.log = log }
}

func NewSQLite(path string, options ...SQLiteOption) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "[store.NewSQLite] mkdir")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "[store.NewSQLite] open")
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[store.NewSQLite] busy_timeout")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[store.NewSQLite] schema")
	}

	s := &SQLite{
		db:   db,
		poll: defaultPollInterval,
		log:  zerolog.Nop(),
		subs: make(map[int]func()),
		done: make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}

	if err := db.QueryRow(`SELECT rev FROM meta WHERE id = 1`).Scan(&s.lastSeen); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[store.NewSQLite] read rev")
	}
	return s, nil
}

func (s *SQLite) Get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("session store read failed")
		return "", false
	}
	return value, true
}

func (s *SQLite) Set(key, value string) error {
	return s.mutate(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO kv (key, value) VALUES (?, ?)
			 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
			key, value,
		)
		return err
	})
}

func (s *SQLite) Delete(key string) error {
	return s.mutate(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, key)
		return err
	})
}

func (s *SQLite) Subscribe(fn func()) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	if !s.watching {
		s.watching = true
		go s.watch()
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *SQLite) Close() error {
	s.mu.Lock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.mu.Unlock()
	return s.db.Close()
}

func (s *SQLite) mutate(apply func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "[store.SQLite] begin")
	}
	defer func() { _ = tx.Rollback() }()

	if err := apply(tx); err != nil {
		return errors.Wrap(err, "[store.SQLite] exec")
	}

	var rev int64
	if err := tx.QueryRow(
		`UPDATE meta SET rev = rev + 1 WHERE id = 1 RETURNING rev`,
	).Scan(&rev); err != nil {
		return errors.Wrap(err, "[store.SQLite] bump rev")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "[store.SQLite] commit")
	}

	// Own writes never notify this context's subscribers.
	s.lastSeen = rev
	return nil
}

func (s *SQLite) watch() {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.checkExternal()
		}
	}
}

func (s *SQLite) checkExternal() {
	var rev int64
	if err := s.db.QueryRow(`SELECT rev FROM meta WHERE id = 1`).Scan(&rev); err != nil {
		s.log.Warn().Err(err).Msg("session store watch failed")
		return
	}

	s.mu.Lock()
	changed := rev != s.lastSeen
	s.lastSeen = rev
	notify := make([]func(), 0, len(s.subs))
	if changed {
		for _, fn := range s.subs {
			notify = append(notify, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
}

package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const defaultPollInterval = 500 * time.Millisecond

// fileDoc is the on-disk layout. rev increments on every mutation so a
// watcher can tell external writes from its own.
type fileDoc struct {
	Rev    int64             `json:"rev"`
	Values map[string]string `json:"values"`
}

// File is a KV persisted as a single JSON document. Every mutation rewrites
// the document through a temp file and rename, so a concurrent reader sees
// either the old snapshot or the new one, never a partial write. External
// changes are detected by polling the document revision.
type File struct {
	path string
	poll time.Duration
	log  zerolog.Logger

	mu       sync.Mutex
	lastSeen int64
	nextID   int
	subs     map[int]func()
	done     chan struct{}
	watching bool
}

type FileOption func(*File)

// WithPollInterval overrides how often the watcher checks for external
// writes.
func WithPollInterval(d time.Duration) FileOption {
	return func(f *File) {
		if d > 0 {
			f.poll = d
		}
	}
}

// WithLogger sets the logger used by the change watcher.
func WithLogger(log zerolog.Logger) FileOption {
	return func(f *File) { f.log = log }
}

func NewFile(path string, options ...FileOption) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "[store.NewFile] mkdir")
	}

	f := &File{
		path: path,
		poll: defaultPollInterval,
		log:  zerolog.Nop(),
		subs: make(map[int]func()),
		done: make(chan struct{}),
	}
	for _, opt := range options {
		opt(f)
	}

	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	f.lastSeen = doc.Rev
	return f, nil
}

func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		f.log.Warn().Err(err).Msg("session store read failed")
		return "", false
	}
	v, ok := doc.Values[key]
	return v, ok
}

func (f *File) Set(key, value string) error {
	return f.mutate(func(values map[string]string) {
		values[key] = value
	})
}

func (f *File) Delete(key string) error {
	return f.mutate(func(values map[string]string) {
		delete(values, key)
	})
}

func (f *File) Subscribe(fn func()) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	if !f.watching {
		f.watching = true
		go f.watch()
	}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.done:
	default:
		close(f.done)
	}
	return nil
}

func (f *File) mutate(apply func(values map[string]string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	apply(doc.Values)
	doc.Rev++

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[store.File] marshal")
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.Wrap(err, "[store.File] write temp")
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.Wrap(err, "[store.File] rename")
	}

	// Own writes never notify this context's subscribers.
	f.lastSeen = doc.Rev
	return nil
}

// load reads the current document. A missing or unreadable document is an
// empty store, not an error, except for I/O failures other than not-exist.
func (f *File) load() (fileDoc, error) {
	doc := fileDoc{Values: make(map[string]string)}
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return doc, errors.Wrap(err, "[store.File] read")
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		// Corrupt store: treat as empty rather than failing the caller.
		return fileDoc{Values: make(map[string]string)}, nil
	}
	if doc.Values == nil {
		doc.Values = make(map[string]string)
	}
	return doc, nil
}

func (f *File) watch() {
	ticker := time.NewTicker(f.poll)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.checkExternal()
		}
	}
}

func (f *File) checkExternal() {
	f.mu.Lock()
	doc, err := f.load()
	if err != nil {
		f.mu.Unlock()
		f.log.Warn().Err(err).Msg("session store watch failed")
		return
	}
	changed := doc.Rev != f.lastSeen
	f.lastSeen = doc.Rev
	notify := make([]func(), 0, len(f.subs))
	if changed {
		for _, fn := range f.subs {
			notify = append(notify, fn)
		}
	}
	f.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
}

package store

import "sync"

// memoryCore is the shared state behind one or more Memory handles. Each
// handle models an independent client context ("tab") over the same
// underlying storage.
type memoryCore struct {
	mu     sync.Mutex
	values map[string]string
	nextID int
	subs   map[int]memorySub
}

type memorySub struct {
	owner *Memory
	fn    func()
}

// Memory is an in-process KV used by tests and by the shell when no durable
// store is configured. Handles created with NewHandle share the same values;
// a write through one handle notifies subscribers on every other handle.
type Memory struct {
	core *memoryCore
}

func NewMemory() *Memory {
	return &Memory{core: &memoryCore{
		values: make(map[string]string),
		subs:   make(map[int]memorySub),
	}}
}

// NewHandle returns another view over the same stored values, with its own
// notification identity.
func (m *Memory) NewHandle() *Memory {
	return &Memory{core: m.core}
}

func (m *Memory) Get(key string) (string, bool) {
	m.core.mu.Lock()
	defer m.core.mu.Unlock()
	v, ok := m.core.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.core.mu.Lock()
	m.core.values[key] = value
	notify := m.core.externalSubs(m)
	m.core.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
	return nil
}

func (m *Memory) Delete(key string) error {
	m.core.mu.Lock()
	_, existed := m.core.values[key]
	delete(m.core.values, key)
	var notify []func()
	if existed {
		notify = m.core.externalSubs(m)
	}
	m.core.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
	return nil
}

func (m *Memory) Subscribe(fn func()) (cancel func()) {
	m.core.mu.Lock()
	defer m.core.mu.Unlock()
	id := m.core.nextID
	m.core.nextID++
	m.core.subs[id] = memorySub{owner: m, fn: fn}
	return func() {
		m.core.mu.Lock()
		defer m.core.mu.Unlock()
		delete(m.core.subs, id)
	}
}

func (m *Memory) Close() error { return nil }

// externalSubs collects callbacks registered through other handles.
// Caller holds the lock.
func (c *memoryCore) externalSubs(writer *Memory) []func() {
	out := make([]func(), 0, len(c.subs))
	for _, sub := range c.subs {
		if sub.owner != writer {
			out = append(out, sub.fn)
		}
	}
	return out
}

package recordstore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an ordered in-memory Store.
// Safe for concurrent Put, Append and reads.
type MemoryStore struct {
	mu     sync.RWMutex
	keys   []string
	values map[string][]byte
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string][]byte),
	}
}

// Put stores value under key, replacing any previous value.
func (m *MemoryStore) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(key, value)
}

func (m *MemoryStore) putLocked(key string, value []byte) {
	// Copy to prevent external mutation
	copied := make([]byte, len(value))
	copy(copied, value)

	if _, ok := m.values[key]; !ok {
		i := sort.SearchStrings(m.keys, key)
		m.keys = append(m.keys, "")
		copy(m.keys[i+1:], m.keys[i:])
		m.keys[i] = key
	}
	m.values[key] = copied
}

// Append stores value under the key of the next row and returns that row.
func (m *MemoryStore) Append(value []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := len(m.keys)
	m.putLocked(Key(row), value)
	return row
}

// Len returns the number of records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}

// NewCursor returns a cursor over a snapshot of the current keys.
func (m *MemoryStore) NewCursor() Cursor {
	return &memoryCursor{store: m, pos: -1}
}

// NewTransaction returns a random-access handle.
func (m *MemoryStore) NewTransaction() Transaction {
	return &memoryTransaction{store: m}
}

// Close marks the store closed. Reads after Close fail with ErrClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemoryStore) get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	v, ok := m.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

type memoryCursor struct {
	store *MemoryStore
	keys  []string
	pos   int
}

func (c *memoryCursor) Valid() bool {
	return c.pos >= 0 && c.pos < len(c.keys)
}

func (c *memoryCursor) Next(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.Valid() {
		c.pos++
	}
	return nil
}

func (c *memoryCursor) SeekToFirst(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	if c.store.closed {
		return ErrClosed
	}
	c.keys = append(c.keys[:0], c.store.keys...)
	c.pos = 0
	return nil
}

func (c *memoryCursor) Key() string {
	if !c.Valid() {
		return ""
	}
	return c.keys[c.pos]
}

func (c *memoryCursor) Value() []byte {
	if !c.Valid() {
		return nil
	}
	v, err := c.store.get(c.keys[c.pos])
	if err != nil {
		return nil
	}
	return v
}

type memoryTransaction struct {
	store *MemoryStore
}

func (t *memoryTransaction) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.store.get(key)
}

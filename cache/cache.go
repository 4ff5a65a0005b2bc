// Package cache provides an in-memory recordkit.Cache and the msgpack row
// encoding the repository stores in it.
package cache

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/dialect"
)

type entry struct {
	value   []byte
	expires time.Time
}

// Memory is a mutex guarded map cache with per-entry expiry. Expired entries
// are dropped lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// Option configures a Memory cache.
type Option func(*Memory)

// WithClock sets the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory returns an empty in-memory cache.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get implements recordkit.Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, nil
	}
	return bytes.Clone(e.value), nil
}

// Set implements recordkit.Cache. A zero ttl never expires.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: bytes.Clone(value)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Delete implements recordkit.Cache.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// DeletePrefix implements recordkit.Cache.
func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Clear implements recordkit.Cache.
func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ recordkit.Cache = (*Memory)(nil)

type encodedRow struct {
	Columns []string `msgpack:"c"`
	Values  []any    `msgpack:"v"`
}

// EncodeRows serializes rows with msgpack, keeping column order.
func EncodeRows(rows []dialect.Row) ([]byte, error) {
	out := make([]encodedRow, len(rows))
	for i, r := range rows {
		out[i] = encodedRow{Columns: r.Columns(), Values: r.Values()}
	}
	return msgpack.Marshal(out)
}

// DecodeRows is the inverse of EncodeRows. Integers decode as int64 or
// uint64 and floats as float64.
func DecodeRows(data []byte) ([]dialect.Row, error) {
	var in []encodedRow
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(&in); err != nil {
		return nil, err
	}
	rows := make([]dialect.Row, len(in))
	for i, r := range in {
		rows[i] = dialect.NewRow(r.Columns, r.Values)
	}
	return rows, nil
}

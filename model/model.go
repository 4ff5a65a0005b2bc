package model

import (
	"context"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/query"
)

// Model is a single table-backed entity with ordered attributes. Its stored
// state is inferred from its key: a model whose key attributes are all set
// is stored, anything else is new.
type Model struct {
	db         dialect.Database
	quoting    query.QuotingStrategy
	logger     *slog.Logger
	now        func() time.Time
	timestamps HasTimestamps
	cache      recordkit.Cache

	table string
	key   Key
	order []string
	attrs map[string]any
}

// Option configures a Model.
type Option func(*Model)

// WithTimestamps enables creation and update time tracking.
func WithTimestamps(ts HasTimestamps) Option {
	return func(m *Model) {
		m.timestamps = ts
	}
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithQuoting sets the quoting strategy of the queries the model creates.
func WithQuoting(s query.QuotingStrategy) Option {
	return func(m *Model) {
		m.quoting = s
	}
}

// WithCache makes successful writes drop the cached selects of the model's
// table from c.
func WithCache(c recordkit.Cache) Option {
	return func(m *Model) {
		m.cache = c
	}
}

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		m.now = now
	}
}

// New returns an unstored model of table with the given key and declared
// attribute columns.
func New(db dialect.Database, table string, key Key, fields []string, opts ...Option) *Model {
	m := &Model{
		db:      db,
		quoting: query.Live,
		logger:  slog.Default(),
		now:     time.Now,
		table:   table,
		key:     key,
		order:   slices.Clone(fields),
		attrs:   make(map[string]any, len(fields)),
	}
	for _, c := range key.columns {
		if !slices.Contains(m.order, c) {
			m.order = append([]string{c}, m.order...)
		}
	}
	for _, f := range m.order {
		m.attrs[f] = nil
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TableName returns the table name.
func (m *Model) TableName() string { return m.table }

// TableKey returns the key.
func (m *Model) TableKey() Key { return m.key }

// Database returns the database the model executes against.
func (m *Model) Database() dialect.Database { return m.db }

// SetCache sets the cache invalidated by writes, as WithCache does. Clones
// made afterwards share it.
func (m *Model) SetCache(c recordkit.Cache) { m.cache = c }

// Get returns an attribute value.
func (m *Model) Get(column string) any { return m.attrs[column] }

// Set sets an attribute value. Unknown columns are appended.
func (m *Model) Set(column string, value any) *Model {
	if _, ok := m.attrs[column]; !ok {
		m.order = append(m.order, column)
	}
	m.attrs[column] = value
	return m
}

// Attributes returns the attribute columns in order.
func (m *Model) Attributes() []string { return slices.Clone(m.order) }

// ToMap returns a copy of all attributes.
func (m *Model) ToMap() map[string]any { return maps.Clone(m.attrs) }

// ToMapWithoutEmpty returns the attributes that are neither nil nor the
// empty string.
func (m *Model) ToMapWithoutEmpty() map[string]any {
	out := make(map[string]any, len(m.attrs))
	for _, c := range m.order {
		if v := m.attrs[c]; !isEmpty(v) {
			out[c] = v
		}
	}
	return out
}

// IsStored reports whether every key attribute is set.
func (m *Model) IsStored() bool {
	if len(m.key.columns) == 0 {
		return false
	}
	for _, c := range m.key.columns {
		if isEmpty(m.attrs[c]) {
			return false
		}
	}
	return true
}

// CreateQuery returns a query on the model's table and key.
func (m *Model) CreateQuery() *query.Query {
	return query.New(m.db, m.quoting, query.WithLogger(m.logger)).
		SetTableName(m.table).
		SetTableKey(m.key.columns...)
}

// Populate merges a row into the attributes. The row is assumed to come
// from the database, so a row carrying the key marks the model stored.
func (m *Model) Populate(row dialect.Row) {
	for i, c := range row.Columns() {
		m.Set(c, row.Values()[i])
	}
}

// PopulateMap merges a map into the attributes, unknown columns in sorted
// order.
func (m *Model) PopulateMap(data map[string]any) {
	for _, c := range slices.Sorted(maps.Keys(data)) {
		m.Set(c, data[c])
	}
}

// Reset sets every attribute to nil.
func (m *Model) Reset() {
	for _, c := range m.order {
		m.attrs[c] = nil
	}
}

// Clone returns a copy that shares the database but not the attributes.
func (m *Model) Clone() *Model {
	c := *m
	c.order = slices.Clone(m.order)
	c.attrs = maps.Clone(m.attrs)
	return &c
}

// Save inserts an unstored model or updates a stored one. Inserts leave the
// key out and record the generated id: from the driver's last insert id, or
// on Postgres from a RETURNING clause. A failed save leaves the attributes
// as they were, timestamps included.
func (m *Model) Save(ctx context.Context) error {
	stored := m.IsStored()
	rows, err := m.save(ctx, stored, false)
	if err != nil {
		return err
	}
	if !stored && !m.key.combined {
		if id, ok := m.insertedID(rows); ok {
			m.Set(m.key.First(), id)
		}
	}
	return nil
}

// Delete deletes the row matching the model's key. On success the key
// attributes are cleared, marking the model unstored.
func (m *Model) Delete(ctx context.Context) error {
	if err := m.delete(ctx); err != nil {
		return err
	}
	for _, c := range m.key.columns {
		m.attrs[c] = nil
	}
	return nil
}

// save builds and runs the insert or update. includeKeys keeps set key
// columns in an insert.
func (m *Model) save(ctx context.Context, stored, includeKeys bool) (dialect.Rows, error) {
	now := m.now()
	order, attrs := slices.Clone(m.order), maps.Clone(m.attrs)
	q := m.CreateQuery()
	op := query.Insert
	if stored {
		op = query.Update
		if m.timestamps != nil {
			m.timestamps.SetUpdatedAt(m, now)
		}
	} else if m.timestamps != nil {
		m.timestamps.SetCreatedAt(m, now)
	}
	if err := q.SetAction(op); err != nil {
		return nil, err
	}
	for _, c := range m.order {
		v := m.attrs[c]
		if isEmpty(v) {
			continue
		}
		if op == query.Insert && !includeKeys && m.key.Has(c) {
			continue
		}
		q.AddValue(c, v)
	}
	if op == query.Insert && !includeKeys && m.returnsKey() {
		q.Returning(m.key.First())
	}
	rows, err := m.exec(ctx, q, string(op))
	if err != nil {
		m.order, m.attrs = order, attrs
		return nil, err
	}
	return rows, nil
}

// returnsKey reports whether inserts ask for the generated key with
// RETURNING. lib/pq reports no last insert id.
func (m *Model) returnsKey() bool {
	return !m.key.combined && len(m.key.columns) == 1 &&
		m.db != nil && m.db.Dialect() == dialect.Postgres
}

func (m *Model) insertedID(rows dialect.Rows) (any, bool) {
	if id, ok := rows.LastInsertID(); ok {
		return id, true
	}
	all, err := rows.FetchAll()
	if err != nil || len(all) == 0 {
		return nil, false
	}
	id, ok := all[0].Get(m.key.First())
	return id, ok && !isEmpty(id)
}

func (m *Model) delete(ctx context.Context) error {
	q := m.CreateQuery()
	if err := q.SetAction(query.Delete); err != nil {
		return err
	}
	triples := make([]query.Triple, len(m.key.columns))
	for i, c := range m.key.columns {
		triples[i] = query.Triple{Key: c, Comparator: "=", Value: m.attrs[c]}
	}
	q.Where(q.BuildAndSet(triples...))
	_, err := m.exec(ctx, q, string(query.Delete))
	return err
}

func (m *Model) exec(ctx context.Context, q *query.Query, op string) (dialect.Rows, error) {
	stmt := q.String()
	if stmt == "" {
		return nil, recordkit.NewMutationError(m.table, op, recordkit.ErrEmptyStatement)
	}
	rows, err := m.db.Execute(ctx, stmt)
	if err != nil {
		return nil, recordkit.NewMutationError(m.table, op, err)
	}
	if m.cache != nil {
		if err := m.cache.DeletePrefix(ctx, recordkit.CachePrefix(m.table)); err != nil {
			m.logger.Warn("cache invalidation failed", "table", m.table, "error", err)
		}
	}
	return rows, nil
}

// isEmpty reports nil, typed nil pointers and the empty string.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

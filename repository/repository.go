package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cast"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/cache"
	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/model"
	"github.com/syssam/recordkit/query"
)

// Entity is what a repository hydrates rows into. *model.Model and
// *model.CombinedKey implement it.
type Entity[E any] interface {
	TableName() string
	TableKey() model.Key
	Populate(row dialect.Row)
	Reset()
	Clone() E
}

// combined is implemented by entities with an explicit combined key.
type combined interface {
	HasCombinedKey() bool
}

// cacheAware is implemented by entities whose writes invalidate a cache.
type cacheAware interface {
	SetCache(c recordkit.Cache)
}

type order struct {
	key       string
	direction query.Direction
}

// Repository builds select queries for a template entity, executes them and
// hydrates each row into a clone of the template. The shaping options are
// builder state: a Repository is not safe for concurrent use.
type Repository[E Entity[E]] struct {
	db       dialect.Database
	template E
	logger   *slog.Logger
	quoting  query.QuotingStrategy
	cache    recordkit.Cache
	cacheTTL time.Duration

	onlyCount     bool
	orderBy       *order
	limit, offset int
	returnOne     bool
}

// Option configures a Repository.
type Option func(*config)

type config struct {
	logger   *slog.Logger
	quoting  query.QuotingStrategy
	cache    recordkit.Cache
	cacheTTL time.Duration
}

// WithLogger sets the logger used for fallback and cache diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithQuoting sets the quoting strategy of created queries.
func WithQuoting(s query.QuotingStrategy) Option {
	return func(c *config) {
		c.quoting = s
	}
}

// WithCache caches the rows of every executed select under its rendered
// statement. A zero ttl never expires. The template is handed the cache
// when it accepts one (models do), so saving or deleting the repository's
// entities drops the table's cached selects. Writes through entities built
// elsewhere need model.WithCache with the same cache, or InvalidateCache.
func WithCache(c recordkit.Cache, ttl time.Duration) Option {
	return func(cfg *config) {
		cfg.cache = c
		cfg.cacheTTL = ttl
	}
}

// New returns a repository for template. The template is reset so no
// attribute values leak into hydrated clones.
func New[E Entity[E]](db dialect.Database, template E, opts ...Option) *Repository[E] {
	cfg := config{logger: slog.Default(), quoting: query.Live}
	for _, opt := range opts {
		opt(&cfg)
	}
	template.Reset()
	if ca, ok := any(template).(cacheAware); ok && cfg.cache != nil {
		ca.SetCache(cfg.cache)
	}
	return &Repository[E]{
		db:       db,
		template: template,
		logger:   cfg.logger,
		quoting:  cfg.quoting,
		cache:    cfg.cache,
		cacheTTL: cfg.cacheTTL,
	}
}

// Model returns the template entity.
func (r *Repository[E]) Model() E { return r.template }

// CreateModel returns a fresh clone of the template with no values set.
func (r *Repository[E]) CreateModel() E {
	m := r.template.Clone()
	m.Reset()
	return m
}

// OnlyCount makes getters select count(*) and return the count.
func (r *Repository[E]) OnlyCount(on bool) *Repository[E] {
	r.onlyCount = on
	return r
}

// OrderBy sets the ordering of created queries, replacing any earlier one.
func (r *Repository[E]) OrderBy(key string, direction query.Direction) *Repository[E] {
	r.orderBy = &order{key: key, direction: direction}
	return r
}

// LimitOffset sets paging. ReturnOne overrides it.
func (r *Repository[E]) LimitOffset(limit, offset int) *Repository[E] {
	r.limit, r.offset = limit, offset
	return r
}

// ReturnOne makes list getters return only the first entity and limits
// queries to one row.
func (r *Repository[E]) ReturnOne() *Repository[E] {
	r.returnOne = true
	return r
}

// ReturnAll undoes ReturnOne.
func (r *Repository[E]) ReturnAll() *Repository[E] {
	r.returnOne = false
	return r
}

// CreateQuery returns a select on the template's table with the shaping
// options applied.
func (r *Repository[E]) CreateQuery() *query.Query {
	q := query.New(r.db, r.quoting, query.WithLogger(r.logger)).
		SetTableName(r.template.TableName()).
		SetTableKey(r.template.TableKey().Columns()...)
	if r.onlyCount {
		q.Select(query.Raw("count(*)"))
	}
	if r.orderBy != nil {
		q.OrderBy(r.orderBy.key, r.orderBy.direction)
	}
	if r.limit > 0 || r.offset > 0 {
		q.LimitOffset(r.limit, r.offset)
	}
	if r.returnOne {
		q.LimitOffset(1, 0)
	}
	return q
}

// BuildAndSet returns an AND set bound to the template's table.
func (r *Repository[E]) BuildAndSet(triples ...query.Triple) *query.ConditionSet {
	return r.CreateQuery().BuildAndSet(triples...)
}

// BuildOrSet returns an OR set bound to the template's table.
func (r *Repository[E]) BuildOrSet(triples ...query.Triple) *query.ConditionSet {
	return r.CreateQuery().BuildOrSet(triples...)
}

// GetAll returns every row.
func (r *Repository[E]) GetAll(ctx context.Context) (Result[E], error) {
	return r.get(ctx, r.CreateQuery(), r.returnOne)
}

// GetByID returns the entity whose key equals id. On a combined key only the
// first key column is matched.
func (r *Repository[E]) GetByID(ctx context.Context, id any) (Result[E], error) {
	key := r.template.TableKey()
	if key.IsCombined() {
		r.logger.Warn("get by id on a combined key, matching the first key column only",
			"table", r.template.TableName(), "key", key.String())
	}
	q := r.CreateQuery()
	q.Where(q.BuildAndSet(query.Triple{Key: key.First(), Comparator: "=", Value: id}))
	return r.get(ctx, q, true)
}

// GetByCombinedKey returns the entity whose key columns equal values,
// matched by position. Missing values compare against NULL. Templates
// without a combined key fall back to GetByID with the first value.
func (r *Repository[E]) GetByCombinedKey(ctx context.Context, values ...any) (Result[E], error) {
	key := r.template.TableKey()
	ck, ok := any(r.template).(combined)
	if !ok || !ck.HasCombinedKey() || !key.IsCombined() {
		r.logger.Warn("get by combined key on a single-key model, falling back to get by id",
			"table", r.template.TableName(), "key", key.String())
		var id any
		if len(values) > 0 {
			id = values[0]
		}
		return r.GetByID(ctx, id)
	}
	columns := key.Columns()
	triples := make([]query.Triple, len(columns))
	for i, c := range columns {
		var v any
		if i < len(values) {
			v = values[i]
		}
		triples[i] = query.Triple{Key: c, Comparator: "=", Value: v}
	}
	q := r.CreateQuery()
	q.Where(q.BuildAndSet(triples...))
	return r.get(ctx, q, true)
}

// GetByCondition returns the rows matching a single condition. combinator
// is AND or OR.
func (r *Repository[E]) GetByCondition(ctx context.Context, key, comparator string, value any, combinator string) (Result[E], error) {
	c, err := query.ParseCombinator(combinator)
	if err != nil {
		return Result[E]{}, err
	}
	t := query.Triple{Key: key, Comparator: comparator, Value: value}
	set := r.BuildAndSet(t)
	if c == query.Or {
		set = r.BuildOrSet(t)
	}
	return r.GetByConditionSet(ctx, set)
}

// GetByConditionSet returns the rows matching set.
func (r *Repository[E]) GetByConditionSet(ctx context.Context, set *query.ConditionSet) (Result[E], error) {
	return r.GetByConditionSets(ctx, set)
}

// GetByConditionSets returns the rows matching every set.
func (r *Repository[E]) GetByConditionSets(ctx context.Context, sets ...*query.ConditionSet) (Result[E], error) {
	q := r.CreateQuery()
	q.WhereMany(sets...)
	return r.get(ctx, q, r.returnOne)
}

// InvalidateCache drops every cached select of the template's table.
func (r *Repository[E]) InvalidateCache(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.DeletePrefix(ctx, recordkit.CachePrefix(r.template.TableName()))
}

func (r *Repository[E]) get(ctx context.Context, q *query.Query, one bool) (Result[E], error) {
	rows, err := r.fetch(ctx, q)
	if err != nil {
		return Result[E]{}, err
	}
	return r.handleResult(rows, one)
}

// handleResult turns rows into a count, or into template clones. A count
// query without rows takes the entity path and yields an empty result.
func (r *Repository[E]) handleResult(rows []dialect.Row, one bool) (Result[E], error) {
	if r.onlyCount && len(rows) > 0 {
		v, _ := rows[0].First()
		n, err := cast.ToIntE(v)
		if err != nil {
			return Result[E]{}, recordkit.NewQueryError(r.template.TableName(), "count", err)
		}
		return Result[E]{kind: KindCount, count: n}, nil
	}
	entities := make([]E, 0, len(rows))
	for _, row := range rows {
		e := r.template.Clone()
		e.Populate(row)
		entities = append(entities, e)
	}
	if one {
		if len(entities) > 1 {
			entities = entities[:1]
		}
		return Result[E]{kind: KindOne, entities: entities}, nil
	}
	return Result[E]{kind: KindList, entities: entities}, nil
}

func (r *Repository[E]) fetch(ctx context.Context, q *query.Query) ([]dialect.Row, error) {
	table := r.template.TableName()
	stmt := q.String()
	if stmt == "" {
		return nil, recordkit.NewQueryError(table, string(q.Action()), recordkit.ErrEmptyStatement)
	}
	key := recordkit.CacheKey{Table: table, Statement: stmt}.String()
	if r.cache != nil {
		if rows, ok := r.cached(ctx, key); ok {
			return rows, nil
		}
	}
	res, err := r.db.Execute(ctx, stmt)
	if err != nil {
		return nil, recordkit.NewQueryError(table, "", err)
	}
	rows, err := res.FetchAll()
	if err != nil {
		return nil, recordkit.NewQueryError(table, "fetch", err)
	}
	if r.cache != nil {
		r.store(ctx, key, rows)
	}
	return rows, nil
}

func (r *Repository[E]) cached(ctx context.Context, key string) ([]dialect.Row, bool) {
	data, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache get failed", "key", key, "error", err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	rows, err := cache.DecodeRows(data)
	if err != nil {
		r.logger.Warn("cache entry undecodable, executing", "key", key, "error", err)
		return nil, false
	}
	return rows, true
}

func (r *Repository[E]) store(ctx context.Context, key string, rows []dialect.Row) {
	data, err := cache.EncodeRows(rows)
	if err == nil {
		err = r.cache.Set(ctx, key, data, r.cacheTTL)
	}
	if err != nil {
		r.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

package query

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/dialect"
)

// Action is the kind of statement a Query renders.
type Action string

// Accepted actions.
const (
	Select Action = "select"
	Insert Action = "insert"
	Update Action = "update"
	Delete Action = "delete"
)

var acceptedActions = []Action{Select, Insert, Update, Delete}

// Direction is an ORDER BY direction.
type Direction string

// Order directions.
const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// JoinType selects the join keyword.
type JoinType int

// Join types, rendered in this order.
const (
	JoinInner JoinType = iota + 1
	JoinLeft
	JoinRight
	JoinFull
)

var joinOrder = []JoinType{JoinInner, JoinLeft, JoinRight, JoinFull}

// String returns the SQL keyword of the join type.
func (t JoinType) String() string {
	switch t {
	case JoinInner:
		return "INNER JOIN"
	case JoinLeft:
		return "LEFT JOIN"
	case JoinRight:
		return "RIGHT JOIN"
	case JoinFull:
		return "FULL JOIN"
	}
	return "JOIN"
}

// Query is a statement builder. It is mutable and not reentrant: build one
// Query per statement, render it, execute it and discard it.
type Query struct {
	quoter   dialect.Quoter
	strategy QuotingStrategy
	logger   *slog.Logger

	action    Action
	tableName string
	tableKey  []string
	selects   []SelectExpr
	values    values
	where     []*ConditionSet
	having    []*ConditionSet
	joins     map[JoinType][]*Condition
	orderBy   []orderClause
	groupBy   []groupClause
	limit     int
	offset    int
	returning []string
}

type orderClause struct {
	key       string
	direction Direction
	tableName string
}

type groupClause struct {
	key       string
	tableName string
}

// Option configures a Query.
type Option func(*Query)

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Query) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// New returns a select query for the given quoter. Live requires a non-nil
// quoter; passing nil with Live panics.
func New(quoter dialect.Quoter, strategy QuotingStrategy, opts ...Option) *Query {
	if strategy == Live && quoter == nil {
		panic("query: live quoting requires a database quoter")
	}
	q := &Query{
		quoter:   quoter,
		strategy: strategy,
		logger:   slog.Default(),
		action:   Select,
		selects:  []SelectExpr{Raw("*")},
		joins:    make(map[JoinType][]*Condition),
	}
	if strategy == DebugUnsafe {
		q.quoter = debugQuoter{}
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// SetTableName sets the table to work on.
func (q *Query) SetTableName(table string) *Query {
	q.tableName = table
	return q
}

// TableName returns the table name.
func (q *Query) TableName() string { return q.tableName }

// QuotedTableName returns the table name as an identifier.
func (q *Query) QuotedTableName() string { return q.QuoteIdentifier(q.tableName) }

// SetTableKey sets the key column, or the ordered key columns of a
// combined key.
func (q *Query) SetTableKey(columns ...string) *Query {
	q.tableKey = slices.Clone(columns)
	return q
}

// TableKey returns the key columns.
func (q *Query) TableKey() []string { return q.tableKey }

// SetAction sets the statement kind. Only select, insert, update and delete
// are accepted.
func (q *Query) SetAction(action Action) error {
	if !slices.Contains(acceptedActions, action) {
		accepted := make([]string, len(acceptedActions))
		for i, a := range acceptedActions {
			accepted[i] = string(a)
		}
		return recordkit.NewInvalidActionError(string(action), accepted...)
	}
	q.action = action
	return nil
}

// Action returns the statement kind.
func (q *Query) Action() Action { return q.action }

// Strategy returns the quoting strategy.
func (q *Query) Strategy() QuotingStrategy { return q.strategy }

// Select replaces the select list. An empty list makes a select render empty.
func (q *Query) Select(entries ...SelectExpr) *Query {
	q.selects = slices.Clone(entries)
	return q
}

// Where appends a condition set to the WHERE clause.
func (q *Query) Where(set *ConditionSet) *Query {
	if set != nil {
		q.where = append(q.where, set)
	}
	return q
}

// WhereMany appends condition sets to the WHERE clause.
func (q *Query) WhereMany(sets ...*ConditionSet) *Query {
	for _, set := range sets {
		q.Where(set)
	}
	return q
}

// Having appends a condition set to the HAVING clause.
func (q *Query) Having(set *ConditionSet) *Query {
	if set != nil {
		q.having = append(q.having, set)
	}
	return q
}

// HavingMany appends condition sets to the HAVING clause.
func (q *Query) HavingMany(sets ...*ConditionSet) *Query {
	for _, set := range sets {
		q.Having(set)
	}
	return q
}

// BuildAndSet returns an AND set of predicates on this query's table.
func (q *Query) BuildAndSet(triples ...Triple) *ConditionSet {
	return AndSet(fromTriples(q.tableName, triples)...)
}

// BuildOrSet returns an OR set of predicates on this query's table.
func (q *Query) BuildOrSet(triples ...Triple) *ConditionSet {
	return OrSet(fromTriples(q.tableName, triples)...)
}

// Join adds a join condition of the given type.
func (q *Query) Join(typ JoinType, table, key, comparator string, value any, compareFields bool) *Query {
	q.joins[typ] = append(q.joins[typ], &Condition{
		TableName:     q.tableName,
		JoinTableName: table,
		Key:           key,
		Comparator:    comparator,
		Value:         value,
		CompareFields: compareFields,
	})
	return q
}

// InnerJoin adds an INNER JOIN.
func (q *Query) InnerJoin(table, key, comparator string, value any, compareFields bool) *Query {
	return q.Join(JoinInner, table, key, comparator, value, compareFields)
}

// LeftJoin adds a LEFT JOIN.
func (q *Query) LeftJoin(table, key, comparator string, value any, compareFields bool) *Query {
	return q.Join(JoinLeft, table, key, comparator, value, compareFields)
}

// RightJoin adds a RIGHT JOIN.
func (q *Query) RightJoin(table, key, comparator string, value any, compareFields bool) *Query {
	return q.Join(JoinRight, table, key, comparator, value, compareFields)
}

// FullJoin adds a FULL JOIN.
func (q *Query) FullJoin(table, key, comparator string, value any, compareFields bool) *Query {
	return q.Join(JoinFull, table, key, comparator, value, compareFields)
}

// AddValue sets a column value for insert and update. Setting a column again
// replaces its value and keeps its position.
func (q *Query) AddValue(key string, value any) *Query {
	q.values.set(key, value)
	return q
}

// ValueColumns returns the columns given values, in insertion order.
func (q *Query) ValueColumns() []string { return slices.Clone(q.values.keys) }

// OrderBy appends an ORDER BY entry. The table defaults to the query table.
func (q *Query) OrderBy(key string, direction Direction, table ...string) *Query {
	q.orderBy = append(q.orderBy, orderClause{key: key, direction: direction, tableName: first(table)})
	return q
}

// GroupBy appends a GROUP BY entry. The table defaults to the query table.
func (q *Query) GroupBy(key string, table ...string) *Query {
	q.groupBy = append(q.groupBy, groupClause{key: key, tableName: first(table)})
	return q
}

// LimitOffset sets the limit and offset. Zero leaves either unset.
func (q *Query) LimitOffset(limit, offset int) *Query {
	q.limit, q.offset = limit, offset
	return q
}

// Returning sets the columns an insert reports back with a RETURNING
// clause. Other actions ignore it.
func (q *Query) Returning(columns ...string) *Query {
	q.returning = columns
	return q
}

// Limit returns the limit and offset.
func (q *Query) Limit() (limit, offset int) { return q.limit, q.offset }

// Quote quotes a string value per the query's strategy.
func (q *Query) Quote(s string) string { return q.quoter.Quote(s) }

// QuoteIdentifier quotes an identifier per the query's strategy.
func (q *Query) QuoteIdentifier(s string) string { return q.quoter.QuoteIdentifier(s) }

// quoteValue renders a scalar as NULL or a quoted literal.
func (q *Query) quoteValue(v any) string {
	s, ok := literal(v)
	if !ok {
		return "NULL"
	}
	return q.Quote(s)
}

func (q *Query) column(table, key string) string {
	if table == "" {
		table = q.tableName
	}
	return q.QuoteIdentifier(table) + "." + q.QuoteIdentifier(key)
}

func (q *Query) buildSelect() string {
	parts := make([]string, len(q.selects))
	for i, s := range q.selects {
		parts[i] = s.selectSQL(q)
	}
	return strings.Join(parts, ", ")
}

func (q *Query) buildJoins() string {
	var parts []string
	for _, typ := range joinOrder {
		for _, join := range q.joins[typ] {
			on := AndSet(join).BuildWithoutParentheses(q)
			parts = append(parts, typ.String(), q.QuoteIdentifier(join.JoinTableName)+" ON", on)
		}
	}
	return strings.Join(parts, " ")
}

func (q *Query) buildWhere() string {
	return clause("WHERE", q.where, q)
}

func (q *Query) buildHaving() string {
	return clause("HAVING", q.having, q)
}

func clause(keyword string, sets []*ConditionSet, q *Query) string {
	if len(sets) == 0 {
		return ""
	}
	children := make([]Expr, len(sets))
	for i, s := range sets {
		children[i] = s
	}
	body := AndSet(children...).BuildWithoutParentheses(q)
	if body == "" {
		return ""
	}
	return keyword + " " + body
}

func (q *Query) buildOrderBy() string {
	if len(q.orderBy) == 0 {
		return ""
	}
	parts := make([]string, len(q.orderBy))
	for i, o := range q.orderBy {
		dir := o.direction
		if dir == "" {
			dir = Asc
		}
		parts[i] = q.column(o.tableName, o.key) + " " + string(dir)
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

func (q *Query) buildGroupBy() string {
	if len(q.groupBy) == 0 {
		return ""
	}
	parts := make([]string, len(q.groupBy))
	for i, g := range q.groupBy {
		parts[i] = q.column(g.tableName, g.key)
	}
	return "GROUP BY " + strings.Join(parts, ", ")
}

// buildLimitOffset renders LIMIT offset,limit, LIMIT limit, or LIMIT offset
// when only the offset is set.
func (q *Query) buildLimitOffset() string {
	switch {
	case q.limit > 0 && q.offset > 0:
		return "LIMIT " + strconv.Itoa(q.offset) + "," + strconv.Itoa(q.limit)
	case q.limit > 0:
		return "LIMIT " + strconv.Itoa(q.limit)
	case q.offset > 0:
		return "LIMIT " + strconv.Itoa(q.offset)
	}
	return ""
}

func (q *Query) isKey(column string) bool {
	return slices.Contains(q.tableKey, column)
}

func (q *Query) buildUpdate() []string {
	var (
		set  []string
		keys []string
	)
	for i, key := range q.values.keys {
		v := q.values.vals[i]
		if q.isKey(key) {
			keys = append(keys, q.column("", key)+" = "+q.quoteValue(v))
			continue
		}
		set = append(set, q.QuoteIdentifier(key)+" = "+q.quoteValue(v))
	}
	if len(set) == 0 {
		return nil
	}
	if len(keys) == 0 {
		q.logger.Warn("update without key values, falling back to id = NULL",
			"table", q.tableName, "key", q.tableKey)
		keys = append(keys, q.column("", "id")+" = NULL")
	}
	return []string{
		"UPDATE " + q.QuotedTableName(),
		"SET " + strings.Join(set, ", "),
		"WHERE " + strings.Join(keys, " AND "),
	}
}

func (q *Query) buildInsert() []string {
	columns := make([]string, len(q.values.keys))
	vals := make([]string, len(q.values.keys))
	for i, key := range q.values.keys {
		columns[i] = q.QuoteIdentifier(key)
		vals[i] = q.quoteValue(q.values.vals[i])
	}
	parts := []string{
		"INSERT INTO " + q.QuotedTableName(),
		"(" + strings.Join(columns, ", ") + ")",
		"VALUES",
		"(" + strings.Join(vals, ", ") + ")",
	}
	if len(q.returning) > 0 {
		returning := make([]string, len(q.returning))
		for i, c := range q.returning {
			returning[i] = q.QuoteIdentifier(c)
		}
		parts = append(parts, "RETURNING "+strings.Join(returning, ", "))
	}
	return parts
}

// String renders the statement. Incomplete statements render as the empty
// string and must not be executed: a select without columns, a delete
// without conditions, an insert or update without values.
func (q *Query) String() string {
	var parts []string
	switch q.action {
	case Select:
		if len(q.selects) == 0 {
			return ""
		}
		parts = []string{
			"SELECT " + q.buildSelect(),
			"FROM " + q.QuotedTableName(),
			q.buildJoins(),
			q.buildWhere(),
			q.buildGroupBy(),
			q.buildHaving(),
			q.buildOrderBy(),
			q.buildLimitOffset(),
		}
	case Delete:
		where := q.buildWhere()
		if where == "" {
			return ""
		}
		parts = []string{"DELETE FROM " + q.QuotedTableName(), where}
	case Update:
		if q.values.len() == 0 {
			return ""
		}
		if parts = q.buildUpdate(); parts == nil {
			return ""
		}
	case Insert:
		if q.values.len() == 0 {
			return ""
		}
		parts = q.buildInsert()
	default:
		return ""
	}
	parts = slices.DeleteFunc(parts, func(s string) bool { return strings.TrimSpace(s) == "" })
	return strings.TrimSpace(strings.Join(parts, " ")) + ";"
}

// values is an insertion ordered column to value map.
type values struct {
	keys []string
	vals []any
}

func (v *values) set(key string, value any) {
	if i := slices.Index(v.keys, key); i >= 0 {
		v.vals[i] = value
		return
	}
	v.keys = append(v.keys, key)
	v.vals = append(v.vals, value)
}

func (v *values) len() int { return len(v.keys) }

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

package query

import (
	"strings"
)

// SelectExpr is an entry of the select list.
type SelectExpr interface {
	selectSQL(q *Query) string
}

// Column is a select entry rendered as `table`.`column`.
type Column string

func (c Column) selectSQL(q *Query) string {
	return q.column("", string(c))
}

// Raw is a select entry emitted verbatim, for aggregates and expressions.
type Raw string

func (r Raw) selectSQL(*Query) string {
	return string(r)
}

// Columns returns Column entries for the given names.
func Columns(names ...string) []SelectExpr {
	out := make([]SelectExpr, len(names))
	for i, n := range names {
		out[i] = Column(n)
	}
	return out
}

// passthroughTokens mark a legacy select string as an expression.
var passthroughTokens = []string{"*", "sum", "max", "min", "count", "avg"}

// Passthrough classifies a legacy select string: Raw when its lowercase form
// contains *, sum, max, min, count or avg, Column otherwise. Column names that
// merely contain one of those substrings (e.g. "amount") are classified Raw;
// prefer Column and Raw in new code.
func Passthrough(expr string) SelectExpr {
	lower := strings.ToLower(expr)
	for _, tok := range passthroughTokens {
		if strings.Contains(lower, tok) {
			return Raw(expr)
		}
	}
	return Column(expr)
}

// PassthroughAll classifies every entry with Passthrough.
func PassthroughAll(exprs ...string) []SelectExpr {
	out := make([]SelectExpr, len(exprs))
	for i, e := range exprs {
		out[i] = Passthrough(e)
	}
	return out
}

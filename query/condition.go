package query

import (
	"strings"

	"github.com/syssam/recordkit"
)

// Combinator joins the children of a ConditionSet.
type Combinator string

// Accepted combinators.
const (
	And Combinator = "AND"
	Or  Combinator = "OR"
)

// ParseCombinator validates a combinator name, case-insensitively.
func ParseCombinator(s string) (Combinator, error) {
	switch c := Combinator(strings.ToUpper(strings.TrimSpace(s))); c {
	case And, Or:
		return c, nil
	}
	return "", recordkit.NewInvalidCombinatorError(s)
}

// Expr is a node of a condition tree: a Condition or a ConditionSet.
type Expr interface {
	// Build renders the node against q. Sets render parenthesised.
	Build(q *Query) string
}

// Condition is a single predicate. Its TableName defaults to the table of
// the query it is rendered against.
type Condition struct {
	TableName     string
	JoinTableName string
	Key           string
	Comparator    string
	Value         any
	// CompareFields makes Value a column reference of the join table (or
	// TableName when there is none) instead of a literal.
	CompareFields bool
	// Escape is the LIKE escape character, rendered as an ESCAPE clause.
	Escape string
}

// Triple is the key, comparator, value shorthand used to build sets.
type Triple struct {
	Key        string
	Comparator string
	Value      any
}

// Cond returns a literal predicate.
func Cond(key, comparator string, value any) *Condition {
	return &Condition{Key: key, Comparator: comparator, Value: value}
}

// Build renders `table`.`key` CMP value.
func (c *Condition) Build(q *Query) string {
	table := c.TableName
	if table == "" {
		table = q.tableName
	}
	var b strings.Builder
	b.WriteString(q.QuoteIdentifier(table))
	b.WriteByte('.')
	b.WriteString(q.QuoteIdentifier(c.Key))
	b.WriteByte(' ')
	b.WriteString(c.Comparator)
	b.WriteByte(' ')
	b.WriteString(c.rhs(q, table))
	if c.Escape != "" {
		b.WriteString(" ESCAPE ")
		b.WriteString(q.Quote(c.Escape))
	}
	return b.String()
}

func (c *Condition) rhs(q *Query, table string) string {
	if c.CompareFields {
		join := c.JoinTableName
		if join == "" {
			join = table
		}
		column, _ := literal(c.Value)
		return q.QuoteIdentifier(join) + "." + q.QuoteIdentifier(column)
	}
	switch strings.ToUpper(strings.TrimSpace(c.Comparator)) {
	case "IN", "NOT IN":
		values := list(c.Value)
		if len(values) == 0 {
			return "(NULL)"
		}
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = q.quoteValue(v)
		}
		return "(" + strings.Join(quoted, ", ") + ")"
	}
	return q.quoteValue(c.Value)
}

// ConditionSet is a boolean expression tree of conditions and nested sets.
type ConditionSet struct {
	combinator Combinator
	children   []Expr
}

// NewSet returns a set joining children with combinator, which must be AND
// or OR.
func NewSet(combinator string, children ...Expr) (*ConditionSet, error) {
	c, err := ParseCombinator(combinator)
	if err != nil {
		return nil, err
	}
	return &ConditionSet{combinator: c, children: children}, nil
}

// AndSet returns a set joining children with AND.
func AndSet(children ...Expr) *ConditionSet {
	return &ConditionSet{combinator: And, children: children}
}

// OrSet returns a set joining children with OR.
func OrSet(children ...Expr) *ConditionSet {
	return &ConditionSet{combinator: Or, children: children}
}

// AndSetOf returns an AND set of literal predicates.
func AndSetOf(triples ...Triple) *ConditionSet {
	return AndSet(fromTriples("", triples)...)
}

// OrSetOf returns an OR set of literal predicates.
func OrSetOf(triples ...Triple) *ConditionSet {
	return OrSet(fromTriples("", triples)...)
}

func fromTriples(table string, triples []Triple) []Expr {
	children := make([]Expr, len(triples))
	for i, t := range triples {
		children[i] = &Condition{TableName: table, Key: t.Key, Comparator: t.Comparator, Value: t.Value}
	}
	return children
}

// Combinator returns the set combinator.
func (s *ConditionSet) Combinator() Combinator { return s.combinator }

// Children returns the set children.
func (s *ConditionSet) Children() []Expr { return s.children }

// Add appends children to the set.
func (s *ConditionSet) Add(children ...Expr) *ConditionSet {
	s.children = append(s.children, children...)
	return s
}

// Build renders the set in parentheses. An empty set renders empty.
func (s *ConditionSet) Build(q *Query) string {
	inner := s.BuildWithoutParentheses(q)
	if inner == "" {
		return ""
	}
	return "(" + inner + ")"
}

// BuildWithoutParentheses renders the set without the enclosing
// parentheses. Nested sets keep theirs.
func (s *ConditionSet) BuildWithoutParentheses(q *Query) string {
	parts := make([]string, 0, len(s.children))
	for _, child := range s.children {
		if child == nil {
			continue
		}
		if part := child.Build(q); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " "+string(s.combinator)+" ")
}

var (
	_ Expr = (*Condition)(nil)
	_ Expr = (*ConditionSet)(nil)
)

package query

import "strings"

// Field is a typed column that builds conditions on the owning query's table.
//
// Usage:
//
//	var Age = query.Field[int]("age")
//	q.Where(query.AndSet(Age.GTE(18), Age.NotNull()))
type Field[T any] string

// Name returns the column name.
func (f Field[T]) Name() string { return string(f) }

// EQ returns a condition that checks if the column equals v.
func (f Field[T]) EQ(v T) *Condition { return Cond(string(f), "=", v) }

// NEQ returns a condition that checks if the column does not equal v.
func (f Field[T]) NEQ(v T) *Condition { return Cond(string(f), "!=", v) }

// GT returns a condition that checks if the column is greater than v.
func (f Field[T]) GT(v T) *Condition { return Cond(string(f), ">", v) }

// GTE returns a condition that checks if the column is greater than or equal to v.
func (f Field[T]) GTE(v T) *Condition { return Cond(string(f), ">=", v) }

// LT returns a condition that checks if the column is less than v.
func (f Field[T]) LT(v T) *Condition { return Cond(string(f), "<", v) }

// LTE returns a condition that checks if the column is less than or equal to v.
func (f Field[T]) LTE(v T) *Condition { return Cond(string(f), "<=", v) }

// In returns a condition that checks if the column value is in vs. An empty
// list matches nothing.
func (f Field[T]) In(vs ...T) *Condition { return Cond(string(f), "IN", vs) }

// NotIn returns a condition that checks if the column value is not in vs.
func (f Field[T]) NotIn(vs ...T) *Condition { return Cond(string(f), "NOT IN", vs) }

// IsNull returns a condition that checks if the column is NULL.
func (f Field[T]) IsNull() *Condition { return Cond(string(f), "IS", nil) }

// NotNull returns a condition that checks if the column is not NULL.
func (f Field[T]) NotNull() *Condition { return Cond(string(f), "IS NOT", nil) }

// Column returns the column as a select entry.
func (f Field[T]) Column() SelectExpr { return Column(f) }

// EqualColumn returns a condition comparing the column with another column
// of the same table.
func (f Field[T]) EqualColumn(other string) *Condition {
	return &Condition{Key: string(f), Comparator: "=", Value: other, CompareFields: true}
}

// StringField is a text column with LIKE helpers. The LIKE wildcards % and _
// in the argument are escaped with a backslash, declared by an ESCAPE clause.
type StringField string

// Field returns the column as a generic string field.
func (f StringField) Field() Field[string] { return Field[string](f) }

// EQ returns a condition that checks if the column equals v.
func (f StringField) EQ(v string) *Condition { return f.Field().EQ(v) }

// Contains returns a condition that checks if the column contains v.
func (f StringField) Contains(v string) *Condition {
	return like(f, "%"+escapeLike(v)+"%")
}

// HasPrefix returns a condition that checks if the column starts with v.
func (f StringField) HasPrefix(v string) *Condition {
	return like(f, escapeLike(v)+"%")
}

// HasSuffix returns a condition that checks if the column ends with v.
func (f StringField) HasSuffix(v string) *Condition {
	return like(f, "%"+escapeLike(v))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func like(f StringField, pattern string) *Condition {
	return &Condition{Key: string(f), Comparator: "LIKE", Value: pattern, Escape: `\`}
}

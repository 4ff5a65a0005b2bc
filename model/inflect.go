package model

import (
	"reflect"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/syssam/recordkit/dialect"
)

var rules = inflect.NewDefaultRuleset()

// TableNameFor returns the conventional table name of a Go type: the
// pluralized snake_case type name. Pointers are dereferenced.
//
//	TableNameFor(AccountRole{}) // account_roles
func TableNameFor(v any) string {
	t := indirect(reflect.TypeOf(v))
	if t == nil {
		return ""
	}
	return rules.Underscore(rules.Pluralize(t.Name()))
}

// FieldsFor returns the column names of a struct type. A `db` tag names the
// column and "-" skips the field; untagged exported fields are snake_cased.
func FieldsFor(v any) []string {
	t := indirect(reflect.TypeOf(v))
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	fields := make([]string, 0, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("db"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = rules.Underscore(f.Name)
		}
		fields = append(fields, name)
	}
	return fields
}

// For returns a model for the struct type of v, with its table and fields
// derived by TableNameFor and FieldsFor.
func For(db dialect.Database, v any, key Key, opts ...Option) *Model {
	return New(db, TableNameFor(v), key, FieldsFor(v), opts...)
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

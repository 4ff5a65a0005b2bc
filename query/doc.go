// Package query builds SQL statements from a fluent description.
//
// A Query holds an action (select, insert, update, delete), a table, its key
// column(s), a select list, joins, WHERE/HAVING condition sets, ORDER BY and
// GROUP BY entries, a limit/offset and the values of an insert or update.
// String renders it:
//
//	q := query.New(db, query.Live).SetTableName("user")
//	q.Select(query.Columns("id", "username")...)
//	q.Where(q.BuildAndSet(query.Triple{Key: "active", Comparator: "=", Value: 1}))
//	q.OrderBy("username", query.Desc).LimitOffset(10, 20)
//	q.String()
//	// SELECT `user`.`id`, `user`.`username` FROM `user` WHERE (`user`.`active` = '1')
//	//   ORDER BY `user`.`username` DESC LIMIT 20,10;
//
// # Condition Trees
//
// A ConditionSet joins Conditions and nested sets with AND or OR. Nested sets
// are parenthesised; WHERE, HAVING and JOIN ... ON render their outermost set
// without parentheses:
//
//	query.AndSet(a, query.OrSet(b, c)).Build(q) // (a AND (b OR c))
//
// Field and StringField produce typed conditions for a column:
//
//	age := query.Field[int]("age")
//	q.Where(query.AndSet(age.GTE(18), query.StringField("name").HasPrefix("al")))
//
// # Incomplete Statements
//
// A select with an empty select list, a delete without conditions and an
// insert or update without values render as the empty string. Callers treat
// "" as "do not execute".
//
// # Quoting
//
// Live quoting delegates to the database. DebugUnsafe strips single quotes
// and wraps values in '...'; it is for rendering statements offline and must
// never see untrusted input.
package query

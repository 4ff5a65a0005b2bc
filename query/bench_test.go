package query

import (
	"testing"
)

func BenchmarkSelect_Simple(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		q := New(nil, DebugUnsafe).SetTableName("user")
		q.Select(Columns("id", "name", "email")...)
		q.Where(q.BuildAndSet(Triple{Key: "id", Comparator: "=", Value: i}))
		_ = q.String()
	}
}

func BenchmarkSelect_Complex(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		q := New(nil, DebugUnsafe).SetTableName("user")
		q.Select(Column("role"), Raw("count(*)")).
			InnerJoin("settings", "id", "=", "user_id", true).
			Where(AndSet(Cond("active", "=", 1), OrSet(Cond("age", ">", 18), Cond("verified", "=", true)))).
			GroupBy("role").
			OrderBy("role", Desc).
			LimitOffset(10, 20)
		_ = q.String()
	}
}

func BenchmarkInsert_Small(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		q := New(nil, DebugUnsafe).SetTableName("user")
		_ = q.SetAction(Insert)
		q.AddValue("age", 30).
			AddValue("first_name", "Ariel").
			AddValue("last_name", "Mashraki").
			AddValue("created_at", "2009-11-10 23:00:00")
		_ = q.String()
	}
}

func BenchmarkUpdate_CombinedKey(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		q := New(nil, DebugUnsafe).SetTableName("account_role").SetTableKey("account_id", "role_id")
		_ = q.SetAction(Update)
		q.AddValue("account_id", 1).AddValue("role_id", 2).AddValue("active", true)
		_ = q.String()
	}
}

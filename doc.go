// Package recordkit turns fluent query descriptions into dialect-specific SQL
// and turns result rows back into entities.
//
// # Packages
//
//   - dialect: dialect names and the Database collaborator contract
//   - dialect/sql: database/sql backed Database with per-dialect quoting
//   - query: the statement builder, conditions and condition sets
//   - model: single-key and combined-key entities with save/delete/populate
//   - repository: query shaping, execution and hydration into model clones
//   - cache: in-memory result cache
//   - config: YAML configuration for opening a database
//
// # Usage
//
//	db, err := sql.Open(dialect.SQLite, "file::memory:")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	user := model.New(db, "user", model.SingleKey("id"), []string{"id", "username", "email"})
//	repo := repository.New(db, user)
//	res, err := repo.OrderBy("username", query.Desc).LimitOffset(10, 0).GetAll(ctx)
//
// The rendered statement is a plain string:
//
//	q := query.New(db, query.Live).SetTableName("user")
//	q.Where(q.BuildAndSet(query.Triple{Key: "id", Comparator: "=", Value: 1}))
//	q.String() // SELECT * FROM `user` WHERE (`user`.`id` = '1');
//
// Builders are mutable and not safe for concurrent use; build one Query per
// statement.
package recordkit

// Package model provides table-backed entities.
//
// A Model holds ordered attributes and a Key. Single-key models are stored
// when their key attribute is set; CombinedKey models track the stored state
// explicitly. Save renders an insert or an update, Delete renders a delete
// scoped to the key, and both execute through the model's dialect.Database.
//
//	m := model.New(db, "user", model.SingleKey("id"), []string{"username"},
//	    model.WithTimestamps(model.DefaultTimestamps))
//	m.Set("username", "alice")
//	if err := m.Save(ctx); err != nil {
//	    return err
//	}
//
// Models are not safe for concurrent use.
package model

package model

import (
	"context"

	"github.com/syssam/recordkit/dialect"
)

// CombinedKey is a model identified by several ordered columns. A combined
// key cannot be told apart as new from its attributes alone, so the stored
// state is tracked explicitly.
type CombinedKey struct {
	*Model
	stored bool
}

// NewCombinedKey returns an unstored combined-key model. key should come from
// CombinedKeys; a single key makes Save and Delete take the single-key path.
func NewCombinedKey(db dialect.Database, table string, key Key, fields []string, opts ...Option) *CombinedKey {
	return &CombinedKey{Model: New(db, table, key, fields, opts...)}
}

// HasCombinedKey reports whether the key is configured as a column list.
func (c *CombinedKey) HasCombinedKey() bool { return c.key.combined }

// IsStored reports the explicit stored flag.
func (c *CombinedKey) IsStored() bool {
	if !c.key.combined {
		return c.Model.IsStored()
	}
	return c.stored
}

// SetStored marks the model stored or new. Callers populating synthetic rows
// use it after Populate.
func (c *CombinedKey) SetStored(stored bool) { c.stored = stored }

// Save updates a stored model or inserts a new one, key columns included.
func (c *CombinedKey) Save(ctx context.Context) error {
	if !c.key.combined {
		c.logger.Warn("combined-key save on a single-key model, using single-key path",
			"table", c.table, "key", c.key.String())
		if err := c.Model.Save(ctx); err != nil {
			return err
		}
		c.stored = true
		return nil
	}
	if _, err := c.save(ctx, c.stored, true); err != nil {
		return err
	}
	c.stored = true
	return nil
}

// Delete deletes the row matching every key column, in key order.
func (c *CombinedKey) Delete(ctx context.Context) error {
	if !c.key.combined {
		c.logger.Warn("combined-key delete on a single-key model, using single-key path",
			"table", c.table, "key", c.key.String())
		if err := c.Model.Delete(ctx); err != nil {
			return err
		}
		c.stored = false
		return nil
	}
	if err := c.delete(ctx); err != nil {
		return err
	}
	c.stored = false
	return nil
}

// Populate merges row into the attributes and marks the model stored.
func (c *CombinedKey) Populate(row dialect.Row) {
	c.Model.Populate(row)
	c.stored = true
}

// Reset clears the attributes and marks the model new.
func (c *CombinedKey) Reset() {
	c.Model.Reset()
	c.stored = false
}

// Clone returns an independent copy with the same stored flag.
func (c *CombinedKey) Clone() *CombinedKey {
	return &CombinedKey{Model: c.Model.Clone(), stored: c.stored}
}

package model

import (
	"time"

	"github.com/syssam/recordkit/query"
)

// HasTimestamps is the capability of entities that track creation and update
// times. Save calls SetCreatedAt before an insert and SetUpdatedAt before an
// update; entities without it are saved untouched.
type HasTimestamps interface {
	SetCreatedAt(m *Model, at time.Time)
	SetUpdatedAt(m *Model, at time.Time)
}

// Timestamps stores creation and update times in the named attributes.
// An empty name disables that half.
type Timestamps struct {
	CreatedAt string
	UpdatedAt string
}

// DefaultTimestamps uses the created_at and updated_at columns.
var DefaultTimestamps = Timestamps{CreatedAt: "created_at", UpdatedAt: "updated_at"}

// SetCreatedAt implements HasTimestamps.
func (t Timestamps) SetCreatedAt(m *Model, at time.Time) {
	if t.CreatedAt != "" {
		m.Set(t.CreatedAt, at.Format(query.DateTimeLayout))
	}
}

// SetUpdatedAt implements HasTimestamps.
func (t Timestamps) SetUpdatedAt(m *Model, at time.Time) {
	if t.UpdatedAt != "" {
		m.Set(t.UpdatedAt, at.Format(query.DateTimeLayout))
	}
}

var _ HasTimestamps = Timestamps{}

package repository

// Kind is the shape of a Result.
type Kind int

const (
	// KindList holds every hydrated entity.
	KindList Kind = iota
	// KindOne holds at most one entity.
	KindOne
	// KindCount holds the integer of a count query.
	KindCount
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindOne:
		return "one"
	case KindCount:
		return "count"
	default:
		return "unknown"
	}
}

// Result is what a getter returns: a list of entities, a single optional
// entity, or a count.
type Result[E any] struct {
	kind     Kind
	entities []E
	count    int
}

// Kind returns the result shape.
func (r Result[E]) Kind() Kind { return r.kind }

// All returns the hydrated entities. A KindOne result holds zero or one.
func (r Result[E]) All() []E { return r.entities }

// One returns the first entity, or the zero value and false when there is
// none.
func (r Result[E]) One() (E, bool) {
	if len(r.entities) == 0 {
		var zero E
		return zero, false
	}
	return r.entities[0], true
}

// Count returns the counted value of a KindCount result and the number of
// entities otherwise.
func (r Result[E]) Count() int {
	if r.kind == KindCount {
		return r.count
	}
	return len(r.entities)
}

// Len returns the number of entities.
func (r Result[E]) Len() int { return len(r.entities) }

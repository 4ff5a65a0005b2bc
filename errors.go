package recordkit

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for builder configuration mistakes.
var (
	// ErrInvalidAction is returned when a statement is configured with an
	// action other than select, insert, update or delete.
	ErrInvalidAction = errors.New("recordkit: invalid action")

	// ErrInvalidCombinator is returned when a condition set is configured
	// with a combinator other than AND or OR.
	ErrInvalidCombinator = errors.New("recordkit: invalid combinator")
)

// InvalidActionError is returned by Query.SetAction for an unknown action.
type InvalidActionError struct {
	Action   string
	Accepted []string
}

// Error returns the error string.
func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("recordkit: invalid action %q set, only %s are allowed", e.Action, strings.Join(e.Accepted, ", "))
}

// Is reports whether the target error matches InvalidActionError.
// This allows errors.Is(err, ErrInvalidAction) to return true.
func (e *InvalidActionError) Is(err error) bool {
	return err == ErrInvalidAction
}

// NewInvalidActionError returns a new InvalidActionError.
func NewInvalidActionError(action string, accepted ...string) *InvalidActionError {
	return &InvalidActionError{Action: action, Accepted: accepted}
}

// IsInvalidAction returns true if the error is an InvalidActionError.
func IsInvalidAction(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidActionError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidAction)
}

// InvalidCombinatorError is returned when a condition set combinator is
// neither AND nor OR.
type InvalidCombinatorError struct {
	Combinator string
}

// Error returns the error string.
func (e *InvalidCombinatorError) Error() string {
	return fmt.Sprintf("recordkit: invalid combinator %q given, only AND, OR are allowed", e.Combinator)
}

// Is reports whether the target error matches InvalidCombinatorError.
func (e *InvalidCombinatorError) Is(err error) bool {
	return err == ErrInvalidCombinator
}

// NewInvalidCombinatorError returns a new InvalidCombinatorError.
func NewInvalidCombinatorError(combinator string) *InvalidCombinatorError {
	return &InvalidCombinatorError{Combinator: combinator}
}

// IsInvalidCombinator returns true if the error is an InvalidCombinatorError.
func IsInvalidCombinator(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidCombinatorError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidCombinator)
}

// QueryError wraps a failed select with the table it ran against.
type QueryError struct {
	Table string // Table being queried
	Op    string // Operation (e.g., "all", "by id", "count")
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("recordkit: querying %s (%s): %v", e.Table, e.Op, e.Err)
	}
	return fmt.Sprintf("recordkit: querying %s: %v", e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(table, op string, err error) *QueryError {
	return &QueryError{Table: table, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a failed insert, update or delete.
type MutationError struct {
	Table string // Table being mutated
	Op    string // Operation (insert, update, delete)
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("recordkit: %s %s: %v", e.Op, e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(table, op string, err error) *MutationError {
	return &MutationError{Table: table, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}

// ErrEmptyStatement is returned when a statement renders to the empty
// string and therefore must not be executed: a select without columns, a
// delete without conditions, or an insert/update without values.
var ErrEmptyStatement = errors.New("recordkit: statement is incomplete and was not executed")

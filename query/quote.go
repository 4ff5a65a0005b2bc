package query

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/syssam/recordkit/dialect"
)

// DateTimeLayout is the layout time.Time values are rendered with.
const DateTimeLayout = "2006-01-02 15:04:05"

// QuotingStrategy selects how values and identifiers are quoted.
type QuotingStrategy int

const (
	// Live delegates quoting to the database collaborator.
	Live QuotingStrategy = iota
	// DebugUnsafe strips single quotes from values and wraps them in '...',
	// and wraps identifiers in backticks. It exists for rendering statements
	// without a connection and is not safe against injection.
	DebugUnsafe
)

// String implements fmt.Stringer.
func (s QuotingStrategy) String() string {
	switch s {
	case Live:
		return "live"
	case DebugUnsafe:
		return "debug-unsafe"
	default:
		return fmt.Sprintf("QuotingStrategy(%d)", int(s))
	}
}

// ParseQuotingStrategy parses "live" or "debug-unsafe" (also "debug").
func ParseQuotingStrategy(s string) (QuotingStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "live":
		return Live, nil
	case "debug", "debug-unsafe", "debugunsafe":
		return DebugUnsafe, nil
	default:
		return Live, fmt.Errorf("query: unknown quoting strategy %q", s)
	}
}

// StrategyFor picks Live when db has a live connection and DebugUnsafe
// otherwise. The degrade is logged so it never happens silently.
func StrategyFor(db dialect.Database, logger *slog.Logger) QuotingStrategy {
	if db != nil && db.Connected() {
		return Live
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("no live database connection, falling back to debug-unsafe quoting")
	return DebugUnsafe
}

// debugQuoter is the connection-less quoting used by DebugUnsafe.
type debugQuoter struct{}

func (debugQuoter) Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "") + "'"
}

func (debugQuoter) QuoteIdentifier(s string) string {
	return "`" + s + "`"
}

// literal converts a scalar to the string handed to the quoter. It reports
// false for values that must render as NULL.
func literal(v any) (string, bool) {
	if isNull(v) {
		return "", false
	}
	switch v := v.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case bool:
		if v {
			return "1", true
		}
		return "0", true
	case time.Time:
		return v.Format(DateTimeLayout), true
	case *time.Time:
		return v.Format(DateTimeLayout), true
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v), true
	}
	return s, true
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// list returns the elements of a slice or array value, or v itself.
func list(v any) []any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	if _, ok := v.([]byte); ok {
		return []any{v}
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

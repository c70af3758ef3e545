package expression

import (
	"fmt"
	"math"
	"strconv"

	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

// Context maps variable names to the typed scalars (int64, float64,
// bool or string) an expression may reference.
type Context map[string]any

// ExtractContext builds a Context from a flat attribute list. On
// duplicate names the first occurrence wins. String values are
// classified into typed scalars; values that arrive already typed from
// a JSON payload are kept as-is.
func ExtractContext(attrs []ngsi.Attribute) Context {
	ctx := make(Context, len(attrs))
	for _, a := range attrs {
		if _, ok := ctx[a.Name]; ok {
			continue
		}
		ctx[a.Name] = coerceValue(a.Value)
	}
	return ctx
}

// coerceValue converts a raw attribute value into a context scalar.
func coerceValue(v any) any {
	switch val := v.(type) {
	case string:
		return ClassifyString(val)
	case int64, float64, bool:
		return val
	case int:
		return int64(val)
	case nil:
		return nil
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ClassifyString converts a string into its most specific scalar type.
//
// The precedence is integer, then float, then boolean, then string, and
// it is load-bearing: "21" must become the integer 21 while "21.5" and
// "3.0" become floats (the integer parse rejects a decimal point), and
// "true"/"false" become booleans. Anything else stays a string.
func ClassifyString(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

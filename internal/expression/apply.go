package expression

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

// ApplyToAttribute evaluates an attribute's derivation expression
// against the context and coerces the result per the attribute's
// declared type:
//
//   - Number: float when the result's string form carries a decimal
//     point, else integer when it parses as one, else the evaluated
//     value unchanged
//   - Boolean: true iff the string form is "true" or "1"
//   - None: literal null
//   - anything else: the string form of the result
//
// ObjectID is propagated to the output only in v2 deployments, and only
// when the source attribute declared one.
func (e *Engine) ApplyToAttribute(attr ngsi.Attribute, vars Context, dialect ngsi.Dialect) (ngsi.Attribute, error) {
	result, err := e.Evaluate(attr.Expression, vars)
	if err != nil {
		return ngsi.Attribute{}, err
	}

	out := ngsi.Attribute{
		Name:  attr.Name,
		Type:  attr.Type,
		Value: coerceResult(attr.Type, result),
	}
	if dialect == ngsi.DialectV2 && attr.ObjectID != "" {
		out.ObjectID = attr.ObjectID
	}
	return out, nil
}

// ProcessAttributes applies derivation expressions to a list of
// attribute declarations, preserving input order.
//
// Declarations without an expression are ignored. A declaration whose
// expression fails the scope check is silently dropped, not errored: a
// derived attribute with an out-of-context expression is simply omitted
// from the output while the remaining valid items still apply.
// Evaluation failures on well-scoped expressions do propagate.
func (e *Engine) ProcessAttributes(attrs []ngsi.Attribute, vars Context, dialect ngsi.Dialect) ([]ngsi.Attribute, error) {
	var out []ngsi.Attribute
	for _, attr := range attrs {
		if attr.Expression == "" {
			continue
		}
		if err := e.CheckScope(attr.Expression, vars); err != nil {
			continue
		}

		applied, err := e.ApplyToAttribute(attr, vars, dialect)
		if err != nil {
			return nil, fmt.Errorf("applying expression for %q: %w", attr.Name, err)
		}
		out = append(out, applied)
	}
	return out, nil
}

// coerceResult converts an evaluated value per the declared attribute
// type.
func coerceResult(attrType string, result any) any {
	switch attrType {
	case ngsi.TypeNumber:
		s := fmt.Sprintf("%v", result)
		if strings.Contains(s, ".") {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		return result
	case ngsi.TypeBoolean:
		s := fmt.Sprintf("%v", result)
		return s == "true" || s == "1"
	case ngsi.TypeNone:
		return nil
	default:
		return fmt.Sprintf("%v", result)
	}
}

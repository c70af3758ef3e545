package expression

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// Domain errors for the expression package.
var (
	// ErrInvalidExpression is returned when an expression is
	// syntactically invalid or references an identifier that is neither
	// a context variable nor a registered transform.
	ErrInvalidExpression = errors.New("expression: invalid")

	// ErrEvaluation is returned when a well-scoped expression fails at
	// evaluation time (for example a type mismatch between operands).
	ErrEvaluation = errors.New("expression: evaluation failed")
)

// Engine compiles and evaluates expressions. Construction registers the
// transform functions; the engine itself is immutable afterwards.
type Engine struct {
	transforms []cel.EnvOption
}

// NewEngine creates an engine with the built-in transforms registered.
func NewEngine() *Engine {
	return &Engine{
		transforms: transformDeclarations(),
	}
}

// Evaluate checks an expression against the context's scope and, only
// if every identifier resolves, evaluates it and returns the result.
//
// The check and the evaluation are deliberately separate phases: the
// compile step declares exactly the context's variables plus the
// transforms, so an out-of-scope reference fails the compile and
// evaluation never runs.
func (e *Engine) Evaluate(expr string, vars Context) (any, error) {
	program, err := e.compile(expr, vars)
	if err != nil {
		return nil, err
	}

	out, _, err := program.Eval(map[string]any(vars))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEvaluation, err)
	}
	return out.Value(), nil
}

// CheckScope verifies that every identifier in the expression is either
// a context variable or a registered transform, without evaluating.
func (e *Engine) CheckScope(expr string, vars Context) error {
	_, err := e.compile(expr, vars)
	return err
}

// compile builds an environment scoped to the context and compiles the
// expression in it.
func (e *Engine) compile(expr string, vars Context) (cel.Program, error) {
	opts := make([]cel.EnvOption, 0, len(e.transforms)+len(vars))
	opts = append(opts, e.transforms...)
	for name := range vars {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("building expression environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExpression, issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExpression, err)
	}
	return program, nil
}

// transformDeclarations returns the CEL bindings of the built-in
// transforms. All transforms operate on the string form of their first
// argument, whatever its scalar type.
func transformDeclarations() []cel.EnvOption {
	return []cel.EnvOption{
		cel.Function("indexOf",
			cel.Overload("indexOf_dyn_dyn",
				[]*cel.Type{cel.DynType, cel.DynType}, cel.IntType,
				cel.BinaryBinding(func(s, sub ref.Val) ref.Val {
					return types.Int(strings.Index(stringify(s), stringify(sub)))
				}),
			),
		),
		cel.Function("length",
			cel.Overload("length_dyn",
				[]*cel.Type{cel.DynType}, cel.IntType,
				cel.UnaryBinding(func(s ref.Val) ref.Val {
					return types.Int(len(stringify(s)))
				}),
			),
		),
		cel.Function("trim",
			cel.Overload("trim_dyn",
				[]*cel.Type{cel.DynType}, cel.StringType,
				cel.UnaryBinding(func(s ref.Val) ref.Val {
					return types.String(strings.TrimSpace(stringify(s)))
				}),
			),
		),
		cel.Function("substr",
			cel.Overload("substr_dyn_int_int",
				[]*cel.Type{cel.DynType, cel.IntType, cel.IntType}, cel.StringType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					s := stringify(args[0])
					start, ok1 := args[1].Value().(int64)
					length, ok2 := args[2].Value().(int64)
					if !ok1 || !ok2 {
						return types.NewErr("substr: start and length must be integers")
					}
					return types.String(substr(s, start, length))
				}),
			),
		),
	}
}

// stringify renders any CEL value as its string form.
func stringify(v ref.Val) string {
	return fmt.Sprintf("%v", v.Value())
}

// substr returns the substring [start, start+length), clamped to the
// string's bounds. Out-of-range inputs yield an empty string rather
// than a panic; expressions must not be able to crash a pipeline.
func substr(s string, start, length int64) string {
	if start < 0 || length < 0 || start >= int64(len(s)) {
		return ""
	}
	end := start + length
	if end > int64(len(s)) {
		end = int64(len(s))
	}
	return s[start:end]
}

// Package expression implements the sandboxed expression language used
// to derive attribute values from device measures.
//
// Expressions are CEL programs evaluated against a typed variable
// context built from attribute values. The engine is fail-closed: an
// expression is compiled against an environment declaring exactly the
// context's variables and the registered transforms, so any reference
// to an identifier outside that scope is rejected before evaluation
// runs. Device- or attacker-influenced expressions can therefore never
// read out-of-scope data.
//
// Registered transforms: indexOf, length, trim, substr. All operate on
// the string form of their first argument.
//
// The engine holds no mutable state after construction and is safe for
// concurrent use from multiple request pipelines.
package expression

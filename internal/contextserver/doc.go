// Package contextserver implements the protocol-bridging core of the
// gateway: the pipelines that resolve inbound context operations
// against the device directory and hand them to user-registered
// business handlers.
//
// The package is dialect-agnostic. Wire parsing and response shaping
// for the two NGSI dialects live in the api package; every pipeline
// here works on the neutral entity/attribute model, so handler code
// never sees a wire shape.
//
// Three pipelines exist, one per inbound operation:
//
//   - update: resolve device, split attributes from commands, run the
//     ordered action list (update handler, command dispatch or queue
//     push, command-pending side effects)
//   - query: complete the requested attribute list, invoke the query
//     handler (or the built-in default), merge static attributes
//   - notify: thread the payload through the notification middleware
//     chain, then the terminal notification handler
//
// Batch requests fan out one pipeline per entity; results fan back in
// preserving input order, and the first failure fails the batch.
package contextserver

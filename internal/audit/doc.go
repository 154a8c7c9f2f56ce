// Package audit provides the internal asynchronous audit dispatcher and the
// built-in sink implementations used by the engine. Events are emitted
// best-effort: the dispatcher decouples lifecycle operations from sink
// latency, and a full buffer either drops (DropIfFull) or blocks until the
// caller's context is done.
package audit

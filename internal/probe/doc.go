// Package probe implements the instrumented-execution harness: a three-stage
// arithmetic pipeline whose stages can be wrapped with call tracing, value
// recording, and deterministic fault injection.
//
// ARCHITECTURE:
//
// Capability interfaces (Executor, Transformer, Processor) each expose one
// unary integer operation. Two implementations exist per capability:
//
//   - Plain stages (Multiplier, Offsetter, Scaler) compute the fixed
//     arithmetic chain ((x*scale)+offset)*factor with zero overhead.
//   - Traced stages delegate the same arithmetic through a Tracer, which
//     records Enter/Exit events and input/output values into a shared
//     Recorder and can abort the invocation with an injected fault.
//
// The Recorder is the sole shared mutable state. All traced stages built
// from the same recorder append to one ordered event log and one value map;
// both are guarded by an internal mutex so concurrent pipeline invocations
// need no caller-side locking.
//
// Fault injection is a deliberate, unrecoverable abort: Tracer.Invoke
// panics with *FaultError so that no enclosing stage records its Exit event
// or output value. Callers that want to observe truncated traces recover
// the panic at the invocation boundary (see RunPipeline and the harness
// package).
//
// DETERMINISM:
//
// A pipeline invocation is synchronous and single-stack. For a given input
// and fault configuration the event sequence is exactly reproducible, which
// is what makes golden trace comparison possible.
package probe

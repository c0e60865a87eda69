package probe

import "sync"

// FaultError is the panic payload of an injected fault.
//
// An injected fault is a fatal abort of the current invocation, not a
// recoverable error value: panicking guarantees that neither the faulted
// stage nor any enclosing stage records its Exit event or output value.
// Callers recover at the invocation boundary (see RunPipeline).
type FaultError struct {
	// Label identifies the stage whose invocation was aborted.
	Label string
}

// Error implements the error interface.
func (e *FaultError) Error() string {
	return "Fault injected in " + e.Label
}

// AsFault reports whether a recovered panic value is an injected fault.
func AsFault(v any) (*FaultError, bool) {
	fe, ok := v.(*FaultError)
	return fe, ok
}

// Tracer wraps a single unary integer operation with tracing and optional
// fault injection, independent of which stage it wraps.
//
// Each traced stage owns one Tracer. The fault configuration is per-tracer
// and mutable after construction; the recorder is shared across all tracers
// of one scenario.
//
// The label is caller-supplied rather than introspected: the wrapped
// operation is an opaque closure over arbitrary stage logic, so the tracer
// has no way to recover a stage's identity on its own.
type Tracer struct {
	rec *Recorder

	mu          sync.Mutex
	armed       bool
	faultTarget string
}

// NewTracer creates a tracer recording into rec.
func NewTracer(rec *Recorder) *Tracer {
	return &Tracer{rec: rec}
}

// Recorder returns the recorder this tracer writes to.
func (t *Tracer) Recorder() *Recorder {
	return t.rec
}

// SetFault arms fault injection for invocations whose label equals target.
// A target that never occurs in the pipeline has no observable effect.
func (t *Tracer) SetFault(target string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = true
	t.faultTarget = target
}

// ClearFault disarms fault injection.
func (t *Tracer) ClearFault() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = false
	t.faultTarget = ""
}

// faultFor reports whether an invocation of label must abort.
func (t *Tracer) faultFor(label string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed && t.faultTarget == label
}

// Invoke records entry, optionally raises the configured fault, runs op,
// records the result, and returns it.
//
// Event contract, in order:
//
//	"Enter <label>", <label>_input = x
//	on fault: "FAULT INJECTED", then panic(*FaultError) - no Exit, no output
//	"Exit <label>", <label>_output = result
func (t *Tracer) Invoke(label string, x int64, op func(int64) int64) int64 {
	t.rec.RecordCall("Enter " + label)
	t.rec.RecordValue(label+"_input", x)

	if t.faultFor(label) {
		t.rec.RecordCall("FAULT INJECTED")
		panic(&FaultError{Label: label})
	}

	result := op(x)

	t.rec.RecordCall("Exit " + label)
	t.rec.RecordValue(label+"_output", result)
	return result
}

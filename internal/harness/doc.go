// Package harness executes pipeline conformance scenarios.
//
// A scenario is a YAML document describing one pipeline invocation:
// which variant to build (instrumented or plain), the input value,
// an optional fault target, optional key-value store setup steps, and
// the expected outcome plus trace assertions.
//
// Execution is fully deterministic. Every scenario runs with a fresh
// recorder (and a fresh ephemeral store for setup steps), the pipeline
// stages record events in call order, and an injected fault truncates
// the trace at the faulting stage. That determinism is what makes
// golden-file comparison of trace snapshots possible: the same scenario
// always produces byte-identical canonical JSON.
//
// Results can be persisted to a trace store for later inspection via
// Persist; tests typically compare them against golden files instead
// via RunWithGolden.
package harness

package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/probelab/kvsprobe/internal/kvs"
	"github.com/probelab/kvsprobe/internal/kvsval"
	"github.com/probelab/kvsprobe/internal/probe"
)

// Harness executes a scenario against a fresh pipeline and recorder.
type Harness struct {
	rec    *probe.Recorder
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs with a fresh recorder and, when setup steps are
// present, a fresh ephemeral key-value store, so scenarios are isolated
// from one another and deterministic.
//
// Execution flow:
// 1. Execute setup steps through the traced store wrapper
// 2. Build the pipeline variant (instrumented or plain)
// 3. Arm fault injection if a target is configured
// 4. Invoke the pipeline, recovering an injected fault into an error
// 5. Evaluate the expect clause and assertions
func Run(scenario *Scenario) (*Result, error) {
	h := &Harness{
		rec:    probe.NewRecorder(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult(scenario.Name)
	result.RunToken = scenario.RunToken
	result.Input = scenario.Pipeline.Input

	if err := h.executeSetup(scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	if err := h.executePipeline(&scenario.Pipeline, result); err != nil {
		return nil, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	result.Events = h.rec.Events()
	result.Values = h.rec.Values()

	evaluateExpect(result, scenario.Expect)
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSetup runs all setup steps against a fresh ephemeral store.
//
// The store is wrapped in the traced adapter, so every operation leaves
// an Enter/Exit event pair in the recorder before the pipeline runs.
func (h *Harness) executeSetup(setup []SetupStep, result *Result) error {
	if len(setup) == 0 {
		return nil
	}

	store, err := kvs.Open(kvs.Options{})
	if err != nil {
		return fmt.Errorf("failed to open ephemeral store: %w", err)
	}
	defer store.Close()

	traced := kvs.NewTraced(store, h.rec)

	for i, step := range setup {
		switch step.Op {
		case SetupSetKey:
			value, err := kvsval.FromGo(step.Value)
			if err != nil {
				return fmt.Errorf("setup step %d: failed to convert value: %w", i, err)
			}
			if err := traced.SetValue(step.Key, value); err != nil {
				return fmt.Errorf("setup step %d: setkey %q: %w", i, step.Key, err)
			}
		case SetupRemoveKey:
			if err := traced.RemoveKey(step.Key); err != nil {
				return fmt.Errorf("setup step %d: removekey %q: %w", i, step.Key, err)
			}
		case SetupReset:
			if err := traced.Reset(); err != nil {
				return fmt.Errorf("setup step %d: reset: %w", i, err)
			}
		default:
			return fmt.Errorf("setup step %d: unknown setup op %q", i, step.Op)
		}

		h.logger.Info("setup step completed", "step", i, "op", step.Op, "key", step.Key)
	}

	return nil
}

// executePipeline builds and invokes the configured pipeline variant.
//
// An injected fault surfaces as an error from the invocation boundary;
// the recorded trace is already truncated at the faulting stage by then.
func (h *Harness) executePipeline(spec *PipelineSpec, result *Result) error {
	cfg := pipelineConfig(spec)
	instrumented := spec.Instrumented == nil || *spec.Instrumented

	var exec probe.Executor
	if instrumented {
		pipeline := probe.NewTraced(cfg, h.rec)
		if spec.FaultTarget != "" {
			pipeline.Arm(spec.FaultTarget)
		}
		exec = pipeline.Exec
	} else {
		exec = probe.NewPipeline(cfg, false, nil)
	}

	output, err := probe.RunPipeline(exec, spec.Input)
	if err != nil {
		var fault *probe.FaultError
		if !errors.As(err, &fault) {
			return fmt.Errorf("pipeline invocation: %w", err)
		}
		result.Faulted = true
		result.FaultLabel = fault.Label
		h.logger.Info("pipeline faulted", "input", spec.Input, "label", fault.Label)
		return nil
	}

	result.Output = output
	h.logger.Info("pipeline completed", "input", spec.Input, "output", output)
	return nil
}

// pipelineConfig resolves the stage configuration, applying defaults for
// unset overrides.
func pipelineConfig(spec *PipelineSpec) probe.Config {
	cfg := probe.DefaultConfig()
	if spec.Factor != nil {
		cfg.Factor = *spec.Factor
	}
	if spec.Offset != nil {
		cfg.Offset = *spec.Offset
	}
	if spec.Scale != nil {
		cfg.Scale = *spec.Scale
	}
	return cfg
}

// evaluateExpect validates the invocation outcome against the expect
// clause. A nil clause validates nothing.
func evaluateExpect(result *Result, expect *ExpectClause) {
	if expect == nil {
		return
	}

	if expect.Faulted != result.Faulted {
		result.AddError(fmt.Sprintf("expect: faulted = %v, got %v", expect.Faulted, result.Faulted))
		return
	}

	if expect.Faulted {
		if expect.FaultLabel != "" && expect.FaultLabel != result.FaultLabel {
			result.AddError(fmt.Sprintf("expect: fault_label = %q, got %q", expect.FaultLabel, result.FaultLabel))
		}
		return
	}

	if expect.Result != nil && *expect.Result != result.Output {
		result.AddError(fmt.Sprintf("expect: result = %d, got %d", *expect.Result, result.Output))
	}
}

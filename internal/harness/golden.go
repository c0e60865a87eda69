package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/probelab/kvsprobe/internal/kvsval"
)

// TraceSnapshot captures the complete trace of a scenario execution.
// Serialization uses canonical JSON so snapshots are byte-deterministic.
type TraceSnapshot struct {
	ScenarioName string           `json:"scenario_name"`
	RunToken     string           `json:"run_token,omitempty"`
	Input        int64            `json:"input"`
	Output       int64            `json:"output"`
	Faulted      bool             `json:"faulted"`
	FaultLabel   string           `json:"fault_label,omitempty"`
	Events       []string         `json:"events"`
	Values       map[string]int64 `json:"values"`
}

// NewTraceSnapshot builds a snapshot from an executed result.
func NewTraceSnapshot(result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: result.ScenarioName,
		RunToken:     result.RunToken,
		Input:        result.Input,
		Output:       result.Output,
		Faulted:      result.Faulted,
		FaultLabel:   result.FaultLabel,
		Events:       result.Events,
		Values:       result.Values,
	}
}

// toCanonicalMap converts the snapshot to a map[string]any for canonical
// JSON serialization. Output is omitted for faulted runs (the fault
// aborted before any output existed) and optional fields are omitted
// when empty, keeping golden files minimal.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"input":         s.Input,
		"faulted":       s.Faulted,
		"events":        s.Events,
		"values":        s.Values,
	}
	if !s.Faulted {
		result["output"] = s.Output
	}
	if s.FaultLabel != "" {
		result["fault_label"] = s.FaultLabel
	}
	if s.RunToken != "" {
		result["run_token"] = s.RunToken
	}
	return result
}

// MarshalCanonical serializes the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return kvsval.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace snapshot
// against a golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if scenario execution or serialization fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the
// golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an executed result's trace snapshot against a
// golden file. Useful when the scenario has already run and the caller
// wants the comparison without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := NewTraceSnapshot(result)
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}

package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_FromTestdata(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "normal_flow.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "normal_flow", scenario.Name)
	assert.Equal(t, "golden-run-0001", scenario.RunToken)
	assert.Equal(t, int64(2), scenario.Pipeline.Input)
	require.NotNil(t, scenario.Expect)
	require.NotNil(t, scenario.Expect.Result)
	assert.Equal(t, int64(15), *scenario.Expect.Result)
	assert.Len(t, scenario.Assertions, 5)
}

func TestLoadScenario_FaultScenario(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "faulted_inner.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Scaler::Process", scenario.Pipeline.FaultTarget)
	require.NotNil(t, scenario.Expect)
	assert.True(t, scenario.Expect.Faulted)
	assert.Equal(t, "Scaler::Process", scenario.Expect.FaultLabel)
	assert.Nil(t, scenario.Expect.Result)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenarioFile(t, `
name: typo
description: Unknown top-level fields are typos and must be rejected.
pipeline:
  input: 2
assertion:
  - type: event_contains
    event: "Enter Scaler::Process"
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: No name.
pipeline:
  input: 2
expect:
  result: 15
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: no_description
pipeline:
  input: 2
expect:
  result: 15
`,
			wantErr: "description is required",
		},
		{
			name: "no expect and no assertions",
			content: `
name: empty
description: Nothing to validate.
pipeline:
  input: 2
`,
			wantErr: "at least one of expect or assertions",
		},
		{
			name: "fault target on plain variant",
			content: `
name: plain_fault
description: Plain variant cannot fault.
pipeline:
  input: 2
  instrumented: false
  fault_target: "Scaler::Process"
expect:
  result: 15
`,
			wantErr: "fault_target requires the instrumented variant",
		},
		{
			name: "faulted with result",
			content: `
name: faulted_result
description: A fault aborts before any output.
pipeline:
  input: 2
  fault_target: "Scaler::Process"
expect:
  faulted: true
  result: 15
`,
			wantErr: "result is forbidden when faulted",
		},
		{
			name: "fault label without faulted",
			content: `
name: label_only
description: Fault label needs faulted true.
pipeline:
  input: 2
expect:
  fault_label: "Scaler::Process"
`,
			wantErr: "fault_label requires faulted",
		},
		{
			name: "setkey without key",
			content: `
name: bad_setup
description: Setkey needs a key.
pipeline:
  input: 2
setup:
  - op: setkey
    value: 1
expect:
  result: 15
`,
			wantErr: "setup[0]: key is required",
		},
		{
			name: "unknown setup op",
			content: `
name: bad_setup_op
description: Unknown op.
pipeline:
  input: 2
setup:
  - op: frobnicate
expect:
  result: 15
`,
			wantErr: "unknown setup op",
		},
		{
			name: "unknown assertion type",
			content: `
name: bad_assertion
description: Unknown assertion type.
pipeline:
  input: 2
assertions:
  - type: trace_contains
    event: "Enter Scaler::Process"
`,
			wantErr: "unknown assertion type",
		},
		{
			name: "event_order without events",
			content: `
name: bad_order
description: Order needs events.
pipeline:
  input: 2
assertions:
  - type: event_order
`,
			wantErr: "events list is required",
		},
		{
			name: "value_equals without key",
			content: `
name: bad_value
description: Value assertion needs a key.
pipeline:
  input: 2
assertions:
  - type: value_equals
    value: 4
`,
			wantErr: "key is required for value_equals",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenarioFile(t, tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_InstrumentedDefaultsToUnset(t *testing.T) {
	path := writeScenarioFile(t, `
name: defaults
description: Instrumented defaults to true when unset.
pipeline:
  input: 2
expect:
  result: 15
`)
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Nil(t, scenario.Pipeline.Instrumented)
	assert.Nil(t, scenario.Pipeline.Factor)
	assert.Nil(t, scenario.Pipeline.Offset)
	assert.Nil(t, scenario.Pipeline.Scale)
}

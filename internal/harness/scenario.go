package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a pipeline conformance scenario.
// Scenarios invoke the staged pipeline (optionally with an armed fault)
// and assert on the recorded trace and the invocation outcome.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunToken is an optional fixed run token for deterministic tests.
	// If empty, persistence generates a fresh UUIDv7 token.
	RunToken string `yaml:"run_token,omitempty"`

	// Pipeline configures the invocation under test.
	Pipeline PipelineSpec `yaml:"pipeline"`

	// Setup contains key-value store operations executed before the
	// pipeline invocation. Setup operations run through the traced store
	// wrapper, so their Enter/Exit events appear in the recorded trace.
	Setup []SetupStep `yaml:"setup,omitempty"`

	// Expect specifies the expected invocation outcome.
	// If nil, only assertions are evaluated.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate the recorded trace.
	// Supported types: event_contains, event_order, event_count, value_equals
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// PipelineSpec configures the pipeline invocation of a scenario.
type PipelineSpec struct {
	// Input is the value passed to the outermost stage.
	Input int64 `yaml:"input"`

	// Instrumented selects the traced pipeline variant. Defaults to true;
	// set to false to invoke the plain variant (records nothing).
	Instrumented *bool `yaml:"instrumented,omitempty"`

	// FaultTarget arms fault injection on the stage with this label
	// (e.g. "Scaler::Process"). Empty means no fault. A target that
	// matches no stage label never fires.
	FaultTarget string `yaml:"fault_target,omitempty"`

	// Factor, Offset, and Scale override the stage operands.
	// Unset fields take the default configuration (3, 1, 2).
	Factor *int64 `yaml:"factor,omitempty"`
	Offset *int64 `yaml:"offset,omitempty"`
	Scale  *int64 `yaml:"scale,omitempty"`
}

// SetupStep is one key-value store operation executed before the flow.
type SetupStep struct {
	// Op is the store operation: "setkey", "removekey", or "reset".
	Op string `yaml:"op"`

	// Key is the store key (required for setkey and removekey).
	Key string `yaml:"key,omitempty"`

	// Value is the payload for setkey. YAML scalars, sequences, and
	// mappings are converted to store values during execution.
	Value interface{} `yaml:"value,omitempty"`
}

// Setup operation constants.
const (
	SetupSetKey    = "setkey"
	SetupRemoveKey = "removekey"
	SetupReset     = "reset"
)

// ExpectClause specifies the expected invocation outcome.
type ExpectClause struct {
	// Result is the expected pipeline output. Only validated when set;
	// forbidden for faulted scenarios (a fault aborts before any output).
	Result *int64 `yaml:"result,omitempty"`

	// Faulted indicates the invocation is expected to abort with an
	// injected fault.
	Faulted bool `yaml:"faulted,omitempty"`

	// FaultLabel is the expected faulting stage label.
	// Only validated when Faulted is true.
	FaultLabel string `yaml:"fault_label,omitempty"`
}

// Assertion validates the recorded trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "event_contains": Check the event log contains an event
	// - "event_order": Check events appear in order
	// - "event_count": Check an event appears exactly N times
	// - "value_equals": Check a recorded value by key
	Type string `yaml:"type"`

	// Event is the event text (used by event_contains, event_count).
	Event string `yaml:"event,omitempty"`

	// Events is the expected event order (used by event_order).
	Events []string `yaml:"events,omitempty"`

	// Count is the expected number of occurrences (used by event_count).
	Count int `yaml:"count,omitempty"`

	// Key is the recorded value key (used by value_equals).
	Key string `yaml:"key,omitempty"`

	// Value is the expected recorded value (used by value_equals).
	Value int64 `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertEventContains = "event_contains"
	AssertEventOrder    = "event_order"
	AssertEventCount    = "event_count"
	AssertValueEquals   = "value_equals"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("at least one of expect or assertions is required")
	}

	if s.Pipeline.FaultTarget != "" && s.Pipeline.Instrumented != nil && !*s.Pipeline.Instrumented {
		return fmt.Errorf("pipeline: fault_target requires the instrumented variant")
	}

	if s.Expect != nil {
		if s.Expect.Faulted && s.Expect.Result != nil {
			return fmt.Errorf("expect: result is forbidden when faulted is true (a fault aborts before any output)")
		}
		if !s.Expect.Faulted && s.Expect.FaultLabel != "" {
			return fmt.Errorf("expect: fault_label requires faulted: true")
		}
	}

	for i, step := range s.Setup {
		if err := validateSetupStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateSetupStep validates a single setup step based on its operation.
func validateSetupStep(index int, step *SetupStep) error {
	switch step.Op {
	case SetupSetKey:
		if step.Key == "" {
			return fmt.Errorf("setup[%d]: key is required for setkey", index)
		}
		if step.Value == nil {
			return fmt.Errorf("setup[%d]: value is required for setkey (use an explicit value)", index)
		}
	case SetupRemoveKey:
		if step.Key == "" {
			return fmt.Errorf("setup[%d]: key is required for removekey", index)
		}
	case SetupReset:
		// No fields required.
	case "":
		return fmt.Errorf("setup[%d]: op is required", index)
	default:
		return fmt.Errorf("setup[%d]: unknown setup op %q", index, step.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEventContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_contains", index)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertValueEquals:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for value_equals", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

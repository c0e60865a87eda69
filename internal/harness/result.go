package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if the expect clause matched and all assertions held.
	Pass bool `json:"pass"`

	// ScenarioName is the name of the executed scenario.
	ScenarioName string `json:"scenario_name"`

	// RunToken is the scenario's run token, if one was configured.
	RunToken string `json:"run_token,omitempty"`

	// Input is the value the pipeline was invoked with.
	Input int64 `json:"input"`

	// Output is the pipeline result. Zero when the invocation faulted.
	Output int64 `json:"output"`

	// Faulted indicates the invocation aborted with an injected fault.
	Faulted bool `json:"faulted"`

	// FaultLabel is the faulting stage label when Faulted is true.
	FaultLabel string `json:"fault_label,omitempty"`

	// Events is the recorded event log in insertion order.
	Events []string `json:"events"`

	// Values is the recorded value map.
	Values map[string]int64 `json:"values"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result for a scenario.
func NewResult(scenarioName string) *Result {
	return &Result{
		Pass:         true,
		ScenarioName: scenarioName,
		Events:       []string{},
		Values:       map[string]int64{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/probelab/kvsprobe/internal/probe"
	"github.com/probelab/kvsprobe/internal/tracestore"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Input    int64
	Plain    bool
	Fault    string
	Factor   int64
	Offset   int64
	Scale    int64
	Database string
	Token    string
}

// RunOutput holds the outcome of a single pipeline invocation.
type RunOutput struct {
	Input      int64            `json:"input"`
	Output     int64            `json:"output"`
	Faulted    bool             `json:"faulted"`
	FaultLabel string           `json:"fault_label,omitempty"`
	Events     []string         `json:"events"`
	Values     map[string]int64 `json:"values"`
	RunToken   string           `json:"run_token,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}
	defaults := probe.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Invoke the pipeline once",
		Long: `Invoke the staged arithmetic pipeline once and print the outcome.

By default the instrumented variant runs and the recorded trace is
printed. With --plain the uninstrumented variant runs and no trace is
recorded. With --fault the named stage aborts the invocation and the
trace is truncated at the faulting stage.

Exit codes:
  0 - Invocation completed
  1 - Invocation aborted with an injected fault
  2 - Command error (invalid flags, database not found, etc.)

Examples:
  kvsprobe run --input 2
  kvsprobe run --input 2 --fault "Scaler::Process"
  kvsprobe run --input 5 --plain
  kvsprobe run --input 2 --db ./trace.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Input, "input", 0, "pipeline input value (required)")
	_ = cmd.MarkFlagRequired("input")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "invoke the uninstrumented variant")
	cmd.Flags().StringVar(&opts.Fault, "fault", "", "arm fault injection on this stage label")
	cmd.Flags().Int64Var(&opts.Factor, "factor", defaults.Factor, "multiplier stage operand")
	cmd.Flags().Int64Var(&opts.Offset, "offset", defaults.Offset, "offsetter stage operand")
	cmd.Flags().Int64Var(&opts.Scale, "scale", defaults.Scale, "scaler stage operand")
	cmd.Flags().StringVar(&opts.Database, "db", "", "persist the run to this SQLite database")
	cmd.Flags().StringVar(&opts.Token, "token", "", "fixed run token for persistence (default: generated UUIDv7)")

	return cmd
}

func runPipeline(opts *RunOptions, cmd *cobra.Command) error {
	if opts.Plain && opts.Fault != "" {
		return NewExitError(ExitCommandError, "--fault requires the instrumented variant (drop --plain)")
	}

	cfg := probe.Config{Factor: opts.Factor, Offset: opts.Offset, Scale: opts.Scale}
	rec := probe.NewRecorder()

	var exec probe.Executor
	if opts.Plain {
		exec = probe.NewPipeline(cfg, false, nil)
	} else {
		pipeline := probe.NewTraced(cfg, rec)
		if opts.Fault != "" {
			pipeline.Arm(opts.Fault)
		}
		exec = pipeline.Exec
	}

	out := RunOutput{Input: opts.Input}
	result, err := probe.RunPipeline(exec, opts.Input)
	if err != nil {
		var fault *probe.FaultError
		if !errors.As(err, &fault) {
			return WrapExitError(ExitCommandError, "pipeline invocation failed", err)
		}
		out.Faulted = true
		out.FaultLabel = fault.Label
	} else {
		out.Output = result
	}
	out.Events = rec.Events()
	out.Values = rec.Values()

	if opts.Database != "" {
		token, err := persistRun(opts, &out)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to persist run", err)
		}
		out.RunToken = token
	}

	if opts.Format == "json" {
		if err := outputRunJSON(cmd, out); err != nil {
			return err
		}
	} else {
		outputRunText(cmd, out, opts.Verbose)
	}

	if out.Faulted {
		return NewExitError(ExitFailure, fmt.Sprintf("fault injected in %s", out.FaultLabel))
	}
	return nil
}

func persistRun(opts *RunOptions, out *RunOutput) (string, error) {
	st, err := tracestore.Open(opts.Database)
	if err != nil {
		return "", err
	}
	defer st.Close()

	token := opts.Token
	if token == "" {
		token = tracestore.UUIDv7Generator{}.Generate()
	}

	ctx := context.Background()
	run := tracestore.Run{
		Token:      token,
		Scenario:   "adhoc",
		Input:      out.Input,
		Result:     out.Output,
		Faulted:    out.Faulted,
		FaultLabel: out.FaultLabel,
	}
	if err := st.WriteRun(ctx, run); err != nil {
		return "", err
	}
	if err := st.WriteTrace(ctx, token, out.Events, out.Values); err != nil {
		return "", err
	}
	return token, nil
}

func outputRunJSON(cmd *cobra.Command, out RunOutput) error {
	response := CLIResponse{Status: "ok", Data: out}
	if out.Faulted {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_FAULTED",
			Message: fmt.Sprintf("fault injected in %s", out.FaultLabel),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

func outputRunText(cmd *cobra.Command, out RunOutput, verbose bool) {
	w := cmd.OutOrStdout()

	if out.Faulted {
		fmt.Fprintf(w, "Input:  %d\n", out.Input)
		fmt.Fprintf(w, "Result: FAULT INJECTED (%s)\n", out.FaultLabel)
	} else {
		fmt.Fprintf(w, "Input:  %d\n", out.Input)
		fmt.Fprintf(w, "Result: %d\n", out.Output)
	}
	if out.RunToken != "" {
		fmt.Fprintf(w, "Token:  %s\n", out.RunToken)
	}

	if len(out.Events) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Events ===")
		for i, event := range out.Events {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, event)
		}
	}

	if verbose && len(out.Values) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Values ===")
		for _, key := range sortedValueKeys(out.Values) {
			fmt.Fprintf(w, "  %s = %d\n", key, out.Values[key])
		}
	}
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/probelab/kvsprobe/internal/tracestore"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Token    string // optional - dump a single run instead of listing
}

// RunSummary is one run record in the trace listing.
type RunSummary struct {
	Token      string `json:"token"`
	Scenario   string `json:"scenario,omitempty"`
	Input      int64  `json:"input"`
	Result     int64  `json:"result"`
	Faulted    bool   `json:"faulted"`
	FaultLabel string `json:"fault_label,omitempty"`
}

// TraceDump holds a single run with its full trace.
type TraceDump struct {
	Run    RunSummary       `json:"run"`
	Events []string         `json:"events"`
	Values map[string]int64 `json:"values"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect persisted runs",
		Long: `Inspect runs persisted in a trace database.

Without --token, lists all runs in token order (UUIDv7 tokens sort by
creation time). With --token, dumps one run's record together with its
recorded event log and value map.

Examples:
  kvsprobe trace --db ./trace.db
  kvsprobe trace --db ./trace.db --token 0191f8a2-...
  kvsprobe trace --db ./trace.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Token, "token", "", "dump a single run by token")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := tracestore.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.Token != "" {
		return dumpRun(ctx, st, opts, cmd)
	}
	return listRuns(ctx, st, opts, cmd)
}

func listRuns(ctx context.Context, st *tracestore.Store, opts *TraceOptions, cmd *cobra.Command) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	summaries := make([]RunSummary, len(runs))
	for i, run := range runs {
		summaries[i] = runSummary(run)
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: summaries})
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}
	for _, s := range summaries {
		outcome := fmt.Sprintf("result=%d", s.Result)
		if s.Faulted {
			outcome = fmt.Sprintf("FAULTED (%s)", s.FaultLabel)
		}
		fmt.Fprintf(w, "%s  %-16s input=%d  %s\n", s.Token, s.Scenario, s.Input, outcome)
	}
	return nil
}

func dumpRun(ctx context.Context, st *tracestore.Store, opts *TraceOptions, cmd *cobra.Command) error {
	run, err := st.ReadRun(ctx, opts.Token)
	if err != nil {
		if errors.Is(err, tracestore.ErrRunNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.Token))
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	events, err := st.ReadEvents(ctx, opts.Token)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	values, err := st.ReadValues(ctx, opts.Token)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read values", err)
	}

	dump := TraceDump{Run: runSummary(run), Events: events, Values: values}

	if opts.Format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: dump})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run:      %s\n", dump.Run.Token)
	if dump.Run.Scenario != "" {
		fmt.Fprintf(w, "Scenario: %s\n", dump.Run.Scenario)
	}
	fmt.Fprintf(w, "Input:    %d\n", dump.Run.Input)
	if dump.Run.Faulted {
		fmt.Fprintf(w, "Result:   FAULT INJECTED (%s)\n", dump.Run.FaultLabel)
	} else {
		fmt.Fprintf(w, "Result:   %d\n", dump.Run.Result)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Events ===")
	if len(dump.Events) == 0 {
		fmt.Fprintln(w, "  (no events)")
	} else {
		for i, event := range dump.Events {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, event)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Values ===")
	if len(dump.Values) == 0 {
		fmt.Fprintln(w, "  (no values)")
	} else {
		for _, key := range sortedValueKeys(dump.Values) {
			fmt.Fprintf(w, "  %s = %d\n", key, dump.Values[key])
		}
	}

	return nil
}

func runSummary(run tracestore.Run) RunSummary {
	return RunSummary{
		Token:      run.Token,
		Scenario:   run.Scenario,
		Input:      run.Input,
		Result:     run.Result,
		Faulted:    run.Faulted,
		FaultLabel: run.FaultLabel,
	}
}

// sortedValueKeys returns the value map keys in sorted order for
// deterministic text output.
func sortedValueKeys(values map[string]int64) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

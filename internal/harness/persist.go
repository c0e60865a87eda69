package harness

import (
	"context"
	"fmt"

	"github.com/probelab/kvsprobe/internal/tracestore"
)

// Persist writes an executed result to the trace store and returns the
// run token under which it was stored.
//
// The result's own token is used when present; otherwise gen produces
// one. The run record and the full trace are written together, so a
// persisted run always carries its event log and value map.
func Persist(ctx context.Context, st *tracestore.Store, gen tracestore.TokenGenerator, result *Result) (string, error) {
	token := result.RunToken
	if token == "" {
		token = gen.Generate()
	}

	run := tracestore.Run{
		Token:      token,
		Scenario:   result.ScenarioName,
		Input:      result.Input,
		Result:     result.Output,
		Faulted:    result.Faulted,
		FaultLabel: result.FaultLabel,
	}
	if err := st.WriteRun(ctx, run); err != nil {
		return "", fmt.Errorf("persist run: %w", err)
	}

	if err := st.WriteTrace(ctx, token, result.Events, result.Values); err != nil {
		return "", fmt.Errorf("persist trace: %w", err)
	}

	return token, nil
}

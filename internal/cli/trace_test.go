package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probelab/kvsprobe/internal/tracestore"
)

func seedTraceDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "trace.db")

	st, err := tracestore.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.WriteRun(ctx, tracestore.Run{
		Token: "run-a", Scenario: "normal_flow", Input: 2, Result: 15,
	}))
	require.NoError(t, st.WriteTrace(ctx, "run-a",
		[]string{"Enter Multiplier::Execute", "Exit Multiplier::Execute"},
		map[string]int64{"Multiplier::Execute_output": 15},
	))
	require.NoError(t, st.WriteRun(ctx, tracestore.Run{
		Token: "run-b", Scenario: "faulted_inner", Input: 2,
		Faulted: true, FaultLabel: "Scaler::Process",
	}))

	return dbPath
}

func TestTrace_ListRuns(t *testing.T) {
	dbPath := seedTraceDB(t)

	out, err := executeCommand(t, "trace", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "run-a")
	assert.Contains(t, out, "result=15")
	assert.Contains(t, out, "run-b")
	assert.Contains(t, out, "FAULTED (Scaler::Process)")
}

func TestTrace_EmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	st, err := tracestore.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := executeCommand(t, "trace", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found.")
}

func TestTrace_DumpRun(t *testing.T) {
	dbPath := seedTraceDB(t)

	out, err := executeCommand(t, "trace", "--db", dbPath, "--token", "run-a")
	require.NoError(t, err)
	assert.Contains(t, out, "Run:      run-a")
	assert.Contains(t, out, "Result:   15")
	assert.Contains(t, out, "[1] Enter Multiplier::Execute")
	assert.Contains(t, out, "Multiplier::Execute_output = 15")
}

func TestTrace_DumpFaultedRun(t *testing.T) {
	dbPath := seedTraceDB(t)

	out, err := executeCommand(t, "trace", "--db", dbPath, "--token", "run-b")
	require.NoError(t, err)
	assert.Contains(t, out, "FAULT INJECTED (Scaler::Process)")
	assert.Contains(t, out, "(no events)")
}

func TestTrace_UnknownToken(t *testing.T) {
	dbPath := seedTraceDB(t)

	_, err := executeCommand(t, "trace", "--db", dbPath, "--token", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found")
}

func TestTrace_JSONList(t *testing.T) {
	dbPath := seedTraceDB(t)

	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"trace", "--db", dbPath, "--format", "json"})
	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	runs, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, runs, 2)
}

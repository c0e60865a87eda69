package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probelab/kvsprobe/internal/tracestore"
)

func TestPersist_RoundTrip(t *testing.T) {
	st, err := tracestore.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	scenario := &Scenario{
		Name:        "persisted",
		Description: "Persisted runs carry their full trace",
		RunToken:    "fixed-token-1",
		Pipeline:    PipelineSpec{Input: 2},
		Expect:      &ExpectClause{Result: int64p(15)},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	ctx := context.Background()
	token, err := Persist(ctx, st, tracestore.UUIDv7Generator{}, result)
	require.NoError(t, err)
	assert.Equal(t, "fixed-token-1", token, "a configured run token wins over the generator")

	run, err := st.ReadRun(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "persisted", run.Scenario)
	assert.Equal(t, int64(2), run.Input)
	assert.Equal(t, int64(15), run.Result)
	assert.False(t, run.Faulted)

	events, err := st.ReadEvents(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, result.Events, events)

	values, err := st.ReadValues(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, result.Values, values)
}

func TestPersist_GeneratedToken(t *testing.T) {
	st, err := tracestore.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	scenario := &Scenario{
		Name:        "generated_token",
		Description: "A run without a token gets one from the generator",
		Pipeline:    PipelineSpec{Input: 2, FaultTarget: "Scaler::Process"},
		Expect:      &ExpectClause{Faulted: true},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	ctx := context.Background()
	gen := tracestore.NewFixedGenerator("gen-token-1")
	token, err := Persist(ctx, st, gen, result)
	require.NoError(t, err)
	assert.Equal(t, "gen-token-1", token)

	run, err := st.ReadRun(ctx, token)
	require.NoError(t, err)
	assert.True(t, run.Faulted)
	assert.Equal(t, "Scaler::Process", run.FaultLabel)
	assert.Zero(t, run.Result)
}

func TestPersist_DuplicateTokenRejected(t *testing.T) {
	st, err := tracestore.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	scenario := &Scenario{
		Name:        "dup",
		Description: "A token identifies exactly one run",
		RunToken:    "same-token",
		Pipeline:    PipelineSpec{Input: 2},
		Expect:      &ExpectClause{Result: int64p(15)},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = Persist(ctx, st, tracestore.UUIDv7Generator{}, result)
	require.NoError(t, err)

	_, err = Persist(ctx, st, tracestore.UUIDv7Generator{}, result)
	require.Error(t, err)
}

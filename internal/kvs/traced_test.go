package kvs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probelab/kvsprobe/internal/kvsval"
	"github.com/probelab/kvsprobe/internal/probe"
)

func TestTraced_RecordsEnterExitPairs(t *testing.T) {
	rec := probe.NewRecorder()
	tr := NewTraced(openEphemeral(t), rec)

	require.NoError(t, tr.SetValue("k", kvsval.Number(1)))
	v, err := tr.GetValue("k")
	require.NoError(t, err)
	assert.Equal(t, kvsval.Number(1), v)
	require.NoError(t, tr.RemoveKey("k"))

	require.Equal(t, []string{
		"Enter Kvs::SetValue",
		"Exit Kvs::SetValue",
		"Enter Kvs::GetValue",
		"Exit Kvs::GetValue",
		"Enter Kvs::RemoveKey",
		"Exit Kvs::RemoveKey",
	}, rec.Events())
}

func TestTraced_FailedOperationStillRecordsExit(t *testing.T) {
	rec := probe.NewRecorder()
	tr := NewTraced(openEphemeral(t), rec)

	_, err := tr.GetValue("missing")
	require.Error(t, err)
	assert.True(t, IsKeyNotFound(err))

	// Store errors are ordinary returns, not injected faults: the Exit
	// event is recorded.
	require.Equal(t, []string{"Enter Kvs::GetValue", "Exit Kvs::GetValue"}, rec.Events())
}

func TestTraced_AllOperations(t *testing.T) {
	rec := probe.NewRecorder()
	tr := NewTraced(openEphemeral(t), rec)

	require.NoError(t, tr.SetValue("k", kvsval.Bool(true)))

	exists, err := tr.KeyExists("k")
	require.NoError(t, err)
	assert.True(t, exists)

	keys, err := tr.AllKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)

	require.NoError(t, tr.Reset())
	exists, err = tr.KeyExists("k")
	require.NoError(t, err)
	assert.False(t, exists)

	events := rec.Events()
	assert.Contains(t, events, "Enter Kvs::KeyExists")
	assert.Contains(t, events, "Exit Kvs::AllKeys")
	assert.Contains(t, events, "Exit Kvs::Reset")
	assert.Len(t, events, 10)
}

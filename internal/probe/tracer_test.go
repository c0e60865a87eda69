package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracer_RecordsEntryExitAndValues(t *testing.T) {
	rec := NewRecorder()
	tr := NewTracer(rec)

	result := tr.Invoke("Stage::op", 7, func(x int64) int64 { return x + 1 })

	require.Equal(t, int64(8), result)
	require.Equal(t, []string{"Enter Stage::op", "Exit Stage::op"}, rec.Events())
	require.Equal(t, map[string]int64{
		"Stage::op_input":  7,
		"Stage::op_output": 8,
	}, rec.Values())
}

func TestTracer_FaultAbortsBeforeOperation(t *testing.T) {
	rec := NewRecorder()
	tr := NewTracer(rec)
	tr.SetFault("Stage::op")

	called := false
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected fault panic")
			fe, ok := AsFault(r)
			require.True(t, ok)
			assert.Equal(t, "Stage::op", fe.Label)
			assert.EqualError(t, fe, "Fault injected in Stage::op")
		}()
		tr.Invoke("Stage::op", 7, func(x int64) int64 {
			called = true
			return x
		})
	}()

	assert.False(t, called, "wrapped operation must not run on fault")
	require.Equal(t, []string{"Enter Stage::op", "FAULT INJECTED"}, rec.Events())

	// Input recorded, output never recorded.
	values := rec.Values()
	assert.Equal(t, int64(7), values["Stage::op_input"])
	assert.NotContains(t, values, "Stage::op_output")
}

func TestTracer_FaultTargetMismatchHasNoEffect(t *testing.T) {
	rec := NewRecorder()
	tr := NewTracer(rec)
	tr.SetFault("Other::op")

	result := tr.Invoke("Stage::op", 3, func(x int64) int64 { return x * 2 })

	require.Equal(t, int64(6), result)
	require.Equal(t, []string{"Enter Stage::op", "Exit Stage::op"}, rec.Events())
}

func TestTracer_ClearFaultDisarms(t *testing.T) {
	rec := NewRecorder()
	tr := NewTracer(rec)
	tr.SetFault("Stage::op")
	tr.ClearFault()

	result := tr.Invoke("Stage::op", 3, func(x int64) int64 { return x * 2 })

	require.Equal(t, int64(6), result)
	require.Equal(t, []string{"Enter Stage::op", "Exit Stage::op"}, rec.Events())
}

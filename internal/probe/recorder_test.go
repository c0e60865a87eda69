package probe

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_OrderedEvents(t *testing.T) {
	rec := NewRecorder()

	rec.RecordCall("Enter A")
	rec.RecordCall("Enter B")
	rec.RecordCall("Exit B")
	rec.RecordCall("Exit A")

	require.Equal(t, []string{"Enter A", "Enter B", "Exit B", "Exit A"}, rec.Events())
}

func TestRecorder_LastWritePerKeyWins(t *testing.T) {
	rec := NewRecorder()

	rec.RecordValue("k", 1)
	rec.RecordValue("k", 2)

	require.Equal(t, map[string]int64{"k": 2}, rec.Values())
}

func TestRecorder_CopiesAreIndependent(t *testing.T) {
	rec := NewRecorder()
	rec.RecordCall("Enter A")
	rec.RecordValue("k", 1)

	events := rec.Events()
	values := rec.Values()

	// Mutating the returned copies must not affect the recorder.
	events[0] = "mutated"
	values["k"] = 99

	require.Equal(t, []string{"Enter A"}, rec.Events())
	require.Equal(t, map[string]int64{"k": 1}, rec.Values())
}

func TestRecorder_ClearRestoresFreshState(t *testing.T) {
	rec := NewRecorder()
	rec.RecordCall("Enter A")
	rec.RecordValue("k", 1)

	rec.Clear()

	assert.Empty(t, rec.Events())
	assert.Empty(t, rec.Values())

	// A cleared recorder behaves identically to a never-used one.
	rec.RecordCall("Enter B")
	rec.RecordValue("j", 2)
	require.Equal(t, []string{"Enter B"}, rec.Events())
	require.Equal(t, map[string]int64{"j": 2}, rec.Values())
}

func TestRecorder_ConcurrentWriters(t *testing.T) {
	rec := NewRecorder()

	const writers = 8
	const perWriter = 100

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				rec.RecordCall(fmt.Sprintf("event-%d-%d", w, i))
				rec.RecordValue(fmt.Sprintf("key-%d", w), int64(i))
			}
		}(w)
	}
	wg.Wait()

	require.Len(t, rec.Events(), writers*perWriter)
	require.Len(t, rec.Values(), writers)
	for w := 0; w < writers; w++ {
		assert.Equal(t, int64(perWriter-1), rec.Values()[fmt.Sprintf("key-%d", w)])
	}
}

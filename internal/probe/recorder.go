package probe

import "sync"

// Recorder is the shared observation sink for traced pipeline stages.
//
// It holds an ordered, append-only event log and a label-to-value map.
// The recorder is the sole synchronization boundary: every traced stage
// built from the same recorder appends through its internal mutex, so
// multiple pipeline invocations may share one recorder concurrently
// without caller-side locking.
//
// Lifetime is one test scenario. Clear resets the recorder to its
// never-used state between scenarios.
type Recorder struct {
	mu     sync.Mutex
	events []string
	values map[string]int64
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		values: make(map[string]int64),
	}
}

// RecordCall appends an event to the log. It never fails.
func (r *Recorder) RecordCall(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// RecordValue inserts or overwrites key -> value. Last write per key wins.
func (r *Recorder) RecordValue(key string, value int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
}

// Clear empties both the event log and the value map, restoring the
// recorder to the state of a freshly constructed one.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.values = make(map[string]int64)
}

// Events returns a copy of the recorded event log in insertion order.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

// Values returns a copy of the recorded value map.
func (r *Recorder) Values() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

package kvs

import (
	"github.com/probelab/kvsprobe/internal/kvsval"
	"github.com/probelab/kvsprobe/internal/probe"
)

// Traced wraps a Store and records an Enter/Exit event pair around every
// operation into a probe recorder. Operation results are not recorded as
// values - store payloads are structured, and the recorder's value map is
// numeric by contract.
//
// The wrapper only observes; it never alters results or errors, and a
// failed operation still records its Exit event (store errors are ordinary
// error returns, not injected faults).
type Traced struct {
	store *Store
	rec   *probe.Recorder
}

// NewTraced wraps store with tracing into rec.
func NewTraced(store *Store, rec *probe.Recorder) *Traced {
	return &Traced{store: store, rec: rec}
}

// Store returns the wrapped store.
func (t *Traced) Store() *Store {
	return t.store
}

func (t *Traced) traced(label string, op func() error) error {
	t.rec.RecordCall("Enter Kvs::" + label)
	err := op()
	t.rec.RecordCall("Exit Kvs::" + label)
	return err
}

// KeyExists traces Store.KeyExists.
func (t *Traced) KeyExists(key string) (exists bool, err error) {
	err = t.traced("KeyExists", func() error {
		var opErr error
		exists, opErr = t.store.KeyExists(key)
		return opErr
	})
	return exists, err
}

// GetValue traces Store.GetValue.
func (t *Traced) GetValue(key string) (v kvsval.Value, err error) {
	err = t.traced("GetValue", func() error {
		var opErr error
		v, opErr = t.store.GetValue(key)
		return opErr
	})
	return v, err
}

// SetValue traces Store.SetValue.
func (t *Traced) SetValue(key string, value kvsval.Value) error {
	return t.traced("SetValue", func() error {
		return t.store.SetValue(key, value)
	})
}

// RemoveKey traces Store.RemoveKey.
func (t *Traced) RemoveKey(key string) error {
	return t.traced("RemoveKey", func() error {
		return t.store.RemoveKey(key)
	})
}

// AllKeys traces Store.AllKeys.
func (t *Traced) AllKeys() (keys []string, err error) {
	err = t.traced("AllKeys", func() error {
		var opErr error
		keys, opErr = t.store.AllKeys()
		return opErr
	})
	return keys, err
}

// Reset traces Store.Reset.
func (t *Traced) Reset() error {
	return t.traced("Reset", func() error {
		return t.store.Reset()
	})
}

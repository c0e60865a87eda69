package kvs

import "github.com/probelab/kvsprobe/internal/kvsval"

// WriteTestData populates the store with one value of every variant. Used
// by the createtestdata CLI operation and by tests that need a fully
// populated store.
func WriteTestData(s *Store) error {
	values := map[string]kvsval.Value{
		"number": kvsval.Number(123),
		"bool":   kvsval.Bool(true),
		"string": kvsval.String("First"),
		"null":   kvsval.Null{},
		"array": kvsval.Array{
			kvsval.Number(456),
			kvsval.Bool(false),
			kvsval.String("Second"),
		},
		"object": kvsval.Object{
			"sub-number": kvsval.Number(789),
			"sub-bool":   kvsval.Bool(true),
			"sub-string": kvsval.String("Third"),
			"sub-null":   kvsval.Null{},
			"sub-array": kvsval.Array{
				kvsval.Number(1246),
				kvsval.Bool(false),
				kvsval.String("Fourth"),
			},
		},
	}
	for key, value := range values {
		if err := s.SetValue(key, value); err != nil {
			return err
		}
	}
	return nil
}

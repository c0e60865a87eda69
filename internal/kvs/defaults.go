package kvs

import (
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/probelab/kvsprobe/internal/kvsval"
)

// loadDefaults reads and evaluates the defaults file.
//
// The file is evaluated with CUE, which accepts plain JSON bodies as well
// as CUE expressions, and must reduce to a concrete struct: one default
// value per key.
func loadDefaults(path string) (map[string]kvsval.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &StoreError{Code: ErrCodeFileNotFound, Message: "defaults file not found", Err: err}
		}
		return nil, &StoreError{Code: ErrCodePhysicalStorage, Message: "read defaults file", Err: err}
	}

	ctx := cuecontext.New()
	val := ctx.CompileBytes(data, cue.Filename(path))
	if err := val.Err(); err != nil {
		return nil, &StoreError{Code: ErrCodeParseError, Message: "compile defaults", Err: err}
	}
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return nil, &StoreError{Code: ErrCodeParseError, Message: "defaults are not concrete", Err: err}
	}

	// cue.Value marshals to the JSON the defaults evaluate to.
	jsonBytes, err := val.MarshalJSON()
	if err != nil {
		return nil, &StoreError{Code: ErrCodeParseError, Message: "export defaults", Err: err}
	}
	v, err := kvsval.FromJSON(jsonBytes)
	if err != nil {
		return nil, &StoreError{Code: ErrCodeParseError, Message: "convert defaults", Err: err}
	}
	obj, ok := v.(kvsval.Object)
	if !ok {
		return nil, &StoreError{Code: ErrCodeParseError, Message: "defaults file is not a struct"}
	}
	return map[string]kvsval.Value(obj), nil
}

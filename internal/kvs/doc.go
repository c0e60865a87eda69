// Package kvs implements the persistent key-value store the probe harness
// traces around.
//
// The store keeps its working data in memory and persists it as a JSON file
// with an adler32 checksum sidecar. Flushing rotates previous snapshots:
// kvs_<inst>_0.json is the current data, kvs_<inst>_1..3 are progressively
// older snapshots, each with its own .hash file. Restore verifies a
// snapshot's checksum before loading it.
//
// Default values are declared in a CUE file (kvs_<inst>_default.cue). CUE
// is a superset of JSON, so a plain JSON defaults body loads unchanged;
// CUE additionally rejects malformed or non-concrete defaults at load time.
// A key that was never written resolves to its default; Reset discards all
// written data so every key resolves to its default again.
//
// All operations are safe for concurrent use; the store synchronizes
// internally.
package kvs

package kvs

import (
	"encoding/hex"
	"hash/adler32"
	"os"

	"github.com/probelab/kvsprobe/internal/kvsval"
)

// SnapshotMaxCount returns the maximum number of rotated snapshots.
func (s *Store) SnapshotMaxCount() int {
	return MaxSnapshots
}

// SnapshotCount returns the number of restorable snapshots on disk
// (identifiers 1..count). Ephemeral stores have none.
func (s *Store) SnapshotCount() int {
	if s.dir == "" {
		return 0
	}
	count := 0
	for id := 1; id <= MaxSnapshots; id++ {
		if _, err := os.Stat(s.KvsFilename(id)); err != nil {
			break
		}
		count++
	}
	return count
}

// Flush persists the working data as the current snapshot, rotating older
// snapshots one identifier up. The oldest snapshot beyond MaxSnapshots is
// discarded. Ephemeral stores flush to nothing.
func (s *Store) Flush() error {
	if s.dir == "" {
		return nil
	}

	data, err := kvsval.MarshalCanonical(kvsval.Object(s.snapshot()))
	if err != nil {
		return &StoreError{Code: ErrCodeParseError, Message: "serialize store", Err: err}
	}

	// Rotate: 2 -> 3, 1 -> 2, 0 -> 1. The previous oldest snapshot drops off.
	if err := removeIfExists(s.KvsFilename(MaxSnapshots)); err != nil {
		return err
	}
	if err := removeIfExists(s.HashFilename(MaxSnapshots)); err != nil {
		return err
	}
	for id := MaxSnapshots - 1; id >= 0; id-- {
		if err := renameIfExists(s.KvsFilename(id), s.KvsFilename(id+1)); err != nil {
			return err
		}
		if err := renameIfExists(s.HashFilename(id), s.HashFilename(id+1)); err != nil {
			return err
		}
	}

	if err := os.WriteFile(s.KvsFilename(0), data, 0o644); err != nil {
		return &StoreError{Code: ErrCodePhysicalStorage, Message: "write store file", Err: err}
	}
	if err := os.WriteFile(s.HashFilename(0), []byte(checksum(data)), 0o644); err != nil {
		return &StoreError{Code: ErrCodePhysicalStorage, Message: "write hash file", Err: err}
	}
	return nil
}

// SnapshotRestore replaces the working data with a rotated snapshot.
// Valid identifiers are 1..SnapshotCount; 0 (the current data) and
// anything beyond the available snapshots are rejected.
func (s *Store) SnapshotRestore(id int) error {
	if id < 1 || id > s.SnapshotCount() {
		return &StoreError{
			Code:    ErrCodeInvalidSnapshotID,
			Message: "snapshot id out of restorable range",
		}
	}
	data, err := loadSnapshot(s.KvsFilename(id), s.HashFilename(id))
	if err != nil {
		return err
	}
	s.replace(data)
	return nil
}

// loadSnapshot reads a data file, verifies it against its checksum sidecar,
// and decodes it into a value map.
func loadSnapshot(dataPath, hashPath string) (map[string]kvsval.Value, error) {
	data, err := os.ReadFile(dataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &StoreError{Code: ErrCodeFileNotFound, Message: "store file not found", Err: err}
		}
		return nil, &StoreError{Code: ErrCodePhysicalStorage, Message: "read store file", Err: err}
	}

	want, err := os.ReadFile(hashPath)
	if err != nil {
		// A data file without its checksum sidecar is not trustworthy.
		return nil, &StoreError{Code: ErrCodeValidationFailed, Message: "hash file missing", Err: err}
	}
	if got := checksum(data); got != string(want) {
		return nil, &StoreError{
			Code:    ErrCodeValidationFailed,
			Message: "store file does not match recorded checksum",
		}
	}

	v, err := kvsval.FromJSON(data)
	if err != nil {
		return nil, &StoreError{Code: ErrCodeParseError, Message: "parse store file", Err: err}
	}
	obj, ok := v.(kvsval.Object)
	if !ok {
		return nil, &StoreError{Code: ErrCodeParseError, Message: "store file is not a JSON object"}
	}
	return map[string]kvsval.Value(obj), nil
}

// checksum returns the hex adler32 checksum of the snapshot bytes.
func checksum(data []byte) string {
	sum := adler32.Checksum(data)
	var b [4]byte
	b[0] = byte(sum >> 24)
	b[1] = byte(sum >> 16)
	b[2] = byte(sum >> 8)
	b[3] = byte(sum)
	return hex.EncodeToString(b[:])
}

package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/probelab/kvsprobe/internal/kvs"
	"github.com/probelab/kvsprobe/internal/kvsval"
)

// KvsOptions holds flags shared by the kvs subcommands.
type KvsOptions struct {
	*RootOptions
	Dir          string
	Instance     int
	NeedDefaults bool
	NeedFile     bool
}

// NewKvsCommand creates the kvs command group.
func NewKvsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KvsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "kvs",
		Short: "Operate on a key-value store",
		Long: `Operate on a file-backed key-value store instance.

Data lives in kvs_<instance>_0.json with an Adler-32 checksum sidecar;
older snapshots rotate to IDs 1 through 3. Defaults load from
kvs_<instance>_default.cue when present.

Examples:
  kvsprobe kvs setkey counter 42 --dir ./data
  kvsprobe kvs getkey counter --dir ./data
  kvsprobe kvs listkeys --dir ./data
  kvsprobe kvs snapshotrestore 1 --dir ./data`,
	}

	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", "", "storage directory (required)")
	_ = cmd.MarkPersistentFlagRequired("dir")
	cmd.PersistentFlags().IntVar(&opts.Instance, "instance", 0, "store instance ID")
	cmd.PersistentFlags().BoolVar(&opts.NeedDefaults, "need-defaults", false, "fail if the defaults file is missing")
	cmd.PersistentFlags().BoolVar(&opts.NeedFile, "need-file", false, "fail if the data file is missing")

	cmd.AddCommand(newKvsGetKeyCommand(opts))
	cmd.AddCommand(newKvsSetKeyCommand(opts))
	cmd.AddCommand(newKvsRemoveKeyCommand(opts))
	cmd.AddCommand(newKvsListKeysCommand(opts))
	cmd.AddCommand(newKvsResetCommand(opts))
	cmd.AddCommand(newKvsSnapshotCountCommand(opts))
	cmd.AddCommand(newKvsSnapshotMaxCountCommand(opts))
	cmd.AddCommand(newKvsSnapshotRestoreCommand(opts))
	cmd.AddCommand(newKvsFilenameCommand(opts))
	cmd.AddCommand(newKvsHashFilenameCommand(opts))
	cmd.AddCommand(newKvsCreateTestDataCommand(opts))

	return cmd
}

// openStore opens the store configured by the persistent flags.
func openStore(opts *KvsOptions) (*kvs.Store, error) {
	store, err := kvs.Open(kvs.Options{
		Dir:          opts.Dir,
		InstanceID:   opts.Instance,
		NeedDefaults: opts.NeedDefaults,
		NeedFile:     opts.NeedFile,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return store, nil
}

// withStore runs fn against an open store and flushes it on success.
// Only mutating commands use this; read commands open the store without
// closing it, since a flush rotates a fresh snapshot even when nothing
// changed.
func withStore(opts *KvsOptions, fn func(*kvs.Store) error) error {
	store, err := openStore(opts)
	if err != nil {
		return err
	}
	if err := fn(store); err != nil {
		store.Close()
		return err
	}
	return store.Close()
}

// parseKvsValue parses a setkey payload. JSON payloads become structured
// values; anything that fails to parse as JSON is stored as a string, so
// plain words don't need quoting on the command line.
func parseKvsValue(raw string) (kvsval.Value, error) {
	if v, err := kvsval.FromJSON([]byte(raw)); err == nil {
		return v, nil
	}
	return kvsval.String(raw), nil
}

func formatter(opts *KvsOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func newKvsGetKeyCommand(opts *KvsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "getkey <key>",
		Short:         "Print a key's value as JSON",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(opts)
			if err != nil {
				return err
			}

			value, err := store.GetValue(args[0])
			if err != nil {
				if kvs.IsKeyNotFound(err) {
					return NewExitError(ExitFailure, fmt.Sprintf("key not found: %s", args[0]))
				}
				return WrapExitError(ExitCommandError, "failed to get value", err)
			}

			data, err := kvsval.ToJSON(value)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to serialize value", err)
			}
			return formatter(opts, cmd).Success(string(data))
		},
	}
}

func newKvsSetKeyCommand(opts *KvsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "setkey <key> <value>",
		Short:         "Set a key (value parsed as JSON, falling back to string)",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseKvsValue(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to parse value", err)
			}
			return withStore(opts, func(store *kvs.Store) error {
				if err := store.SetValue(args[0], value); err != nil {
					return WrapExitError(ExitCommandError, "failed to set value", err)
				}
				return formatter(opts, cmd).Success(fmt.Sprintf("set %s", args[0]))
			})
		},
	}
}

func newKvsRemoveKeyCommand(opts *KvsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "removekey <key>",
		Short:         "Remove a key",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(store *kvs.Store) error {
				if err := store.RemoveKey(args[0]); err != nil {
					if kvs.IsKeyNotFound(err) {
						return NewExitError(ExitFailure, fmt.Sprintf("key not found: %s", args[0]))
					}
					return WrapExitError(ExitCommandError, "failed to remove key", err)
				}
				return formatter(opts, cmd).Success(fmt.Sprintf("removed %s", args[0]))
			})
		},
	}
}

func newKvsListKeysCommand(opts *KvsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "listkeys",
		Short:         "List all keys (written and default)",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(opts)
			if err != nil {
				return err
			}

			keys, err := store.AllKeys()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list keys", err)
			}

			if opts.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(CLIResponse{Status: "ok", Data: keys})
			}
			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}
}

func newKvsResetCommand(opts *KvsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "reset",
		Short:         "Remove all written keys",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(store *kvs.Store) error {
				if err := store.Reset(); err != nil {
					return WrapExitError(ExitCommandError, "failed to reset store", err)
				}
				return formatter(opts, cmd).Success("store reset")
			})
		},
	}
}

func newKvsSnapshotCountCommand(opts *KvsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "snapshotcount",
		Short:         "Print the number of rotated snapshots",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			return formatter(opts, cmd).Success(store.SnapshotCount())
		},
	}
}

func newKvsSnapshotMaxCountCommand(opts *KvsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "snapshotmaxcount",
		Short:         "Print the maximum number of snapshots",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			return formatter(opts, cmd).Success(store.SnapshotMaxCount())
		},
	}
}

func newKvsSnapshotRestoreCommand(opts *KvsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "snapshotrestore <id>",
		Short:         "Restore the store from snapshot <id> (1..3)",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid snapshot ID: %s", args[0]))
			}
			return withStore(opts, func(store *kvs.Store) error {
				if err := store.SnapshotRestore(id); err != nil {
					return WrapExitError(ExitFailure, "failed to restore snapshot", err)
				}
				return formatter(opts, cmd).Success(fmt.Sprintf("restored snapshot %d", id))
			})
		},
	}
}

func newKvsFilenameCommand(opts *KvsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "getkvsfilename <id>",
		Short:         "Print the data filename for snapshot <id>",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid snapshot ID: %s", args[0]))
			}
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			return formatter(opts, cmd).Success(store.KvsFilename(id))
		},
	}
}

func newKvsHashFilenameCommand(opts *KvsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "gethashfilename <id>",
		Short:         "Print the checksum filename for snapshot <id>",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid snapshot ID: %s", args[0]))
			}
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			return formatter(opts, cmd).Success(store.HashFilename(id))
		},
	}
}

func newKvsCreateTestDataCommand(opts *KvsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "createtestdata",
		Short:         "Populate the store with fixed test data",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(store *kvs.Store) error {
				if err := kvs.WriteTestData(store); err != nil {
					return WrapExitError(ExitCommandError, "failed to write test data", err)
				}
				return formatter(opts, cmd).Success("test data written")
			})
		},
	}
}

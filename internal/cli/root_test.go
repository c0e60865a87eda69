package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and returns the
// combined output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "kvsprobe", cmd.Use)
	assert.Contains(t, cmd.Long, "instrumented")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"run", "test", "trace", "kvs"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestKvsSubcommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	subcommands := []string{
		"getkey", "setkey", "removekey", "listkeys", "reset",
		"snapshotcount", "snapshotmaxcount", "snapshotrestore",
		"getkvsfilename", "gethashfilename", "createtestdata",
	}

	kvsCmd, _, err := cmd.Find([]string{"kvs"})
	require.NoError(t, err)

	for _, name := range subcommands {
		t.Run(name, func(t *testing.T) {
			found := false
			for _, sub := range kvsCmd.Commands() {
				if sub.Name() == name {
					found = true
					break
				}
			}
			assert.True(t, found, "kvs subcommand %s should exist", name)
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInvalidFormatRejected(t *testing.T) {
	_, err := executeCommand(t, "--format", "xml", "run", "--input", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	for _, flag := range []string{"input", "plain", "fault", "factor", "offset", "scale", "db", "token"} {
		require.NotNil(t, runCmd.Flags().Lookup(flag), "run flag %s should exist", flag)
	}

	// Defaults match the stage configuration.
	assert.Equal(t, "3", runCmd.Flags().Lookup("factor").DefValue)
	assert.Equal(t, "1", runCmd.Flags().Lookup("offset").DefValue)
	assert.Equal(t, "2", runCmd.Flags().Lookup("scale").DefValue)
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	require.NotNil(t, testCmd.Flags().Lookup("update"))
	require.NotNil(t, testCmd.Flags().Lookup("filter"))
}

func TestTraceCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	traceCmd, _, err := cmd.Find([]string{"trace"})
	require.NoError(t, err)

	dbFlag := traceCmd.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	// --db is required, so default is empty
	assert.Equal(t, "", dbFlag.DefValue)
	require.NotNil(t, traceCmd.Flags().Lookup("token"))
}

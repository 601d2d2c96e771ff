package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/probify/formatter"
	"github.com/gnoswap-labs/probify/runner"
)

// Commands share package-level flag variables, so these tests run
// sequentially and reset every flag before executing.

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeProgram(t *testing.T, name, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestRunCommand(t *testing.T) {
	path := writeProgram(t, "double.dice", "x = 1d6\nresult = x + x\n")

	out, err := execute(t, "run", "--no-color", path)
	require.NoError(t, err)
	assert.Contains(t, out, path+" (result)")
	assert.Contains(t, out, "16.67%")
	assert.Contains(t, out, "mean      7 (7.00)")
	assert.Contains(t, out, "range     2..12")
}

func TestRunCommandOutputFlag(t *testing.T) {
	path := writeProgram(t, "vars.dice", "a = 1d4\nresult = a + 10\n")

	out, err := execute(t, "run", "--no-color", "--no-ci", "--output", "a", path)
	require.NoError(t, err)
	assert.Contains(t, out, path+" (a)")
	assert.Contains(t, out, "range     1..4")
	assert.NotContains(t, out, "interval")
}

func TestRunCommandJSON(t *testing.T) {
	path := writeProgram(t, "double.dice", "x = 1d6\nresult = x + x\n")

	out, err := execute(t, "run", "--json", "--decimals", "1", path)
	require.NoError(t, err)

	var docs []formatter.Document
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, path, docs[0].Name)
	assert.Equal(t, "result", docs[0].Output)
	require.Len(t, docs[0].Outcomes, 6)
	assert.Equal(t, "1/6", docs[0].Outcomes[0].Probability)
	assert.Equal(t, "16.7", docs[0].Outcomes[0].Percent)
	assert.Equal(t, "7", docs[0].Summary.Mean)
}

func TestRunCommandJSONFile(t *testing.T) {
	path := writeProgram(t, "one.dice", "result = 1d2\n")
	target := filepath.Join(t.TempDir(), "out.json")

	out, err := execute(t, "run", "-o", target, path)
	require.NoError(t, err)
	assert.Contains(t, out, "Results written to "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	var docs []formatter.Document
	require.NoError(t, json.Unmarshal(data, &docs))
	require.Len(t, docs, 1)
	assert.Len(t, docs[0].Outcomes, 2)
}

func TestRunCommandFailure(t *testing.T) {
	good := writeProgram(t, "good.dice", "result = 1d2\n")
	bad := writeProgram(t, "bad.dice", "result = 1d6 +\n")

	out, err := execute(t, "run", "--no-color", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 programs failed")
	assert.Contains(t, out, good+" (result)")
	assert.Contains(t, out, "error: syntax error")
	assert.Contains(t, out, bad+":1:15")
	assert.Contains(t, out, "1 | result = 1d6 +")

	_, err = execute(t, "run")
	assert.Error(t, err)
}

func TestRollCommand(t *testing.T) {
	out, err := execute(t, "roll", "--no-color", "2d6", "1d4 + 1")
	require.NoError(t, err)
	assert.Contains(t, out, "2d6\n")
	assert.Contains(t, out, "mean      7 (7.00)")
	assert.Contains(t, out, "1d4 + 1\n")
	assert.Contains(t, out, "range     2..5")

	out, err = execute(t, "roll", "--no-color", "2d", "1d2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 expressions failed")
	assert.Contains(t, out, "error: syntax error")
	assert.Contains(t, out, "1d2\n")
}

func TestRollCommandLimits(t *testing.T) {
	out, err := execute(t, "roll", "--no-color", "1d2 * 4611686018427387904")
	require.Error(t, err)
	assert.Contains(t, out, "out of int64 range")

	cfg := filepath.Join(t.TempDir(), "probify.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("max_rows: 1000\n"), 0o644))
	out, err = execute(t, "roll", "--no-color", "--config", cfg, "1d100000000000")
	require.Error(t, err)
	assert.Contains(t, out, "1d100000000000 has more than 1000 outcomes")
}

func TestCompareCommand(t *testing.T) {
	sum := writeProgram(t, "sum.dice", "a = 1d6\nb = 1d6\nresult = a + b\n")
	roll := writeProgram(t, "roll.dice", "result = 2d6\n")
	double := writeProgram(t, "double.dice", "x = 1d6\nresult = x + x\n")

	out, err := execute(t, "compare", "--no-color", sum, roll)
	require.NoError(t, err)
	assert.Contains(t, out, "Equivalent")

	out, err = execute(t, "compare", "--no-color", sum, double)
	assert.ErrorIs(t, err, errNotEquivalent)
	assert.Contains(t, out, "not equivalent")

	_, err = execute(t, "compare", sum)
	assert.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probify.yaml")

	out, err := execute(t, "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file created: "+path)

	loaded, err := runner.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, runner.DefaultConfig(), loaded)

	_, err = execute(t, "init", "--config", path)
	assert.Error(t, err)

	_, err = execute(t, "init", "--config", path, "--force")
	assert.NoError(t, err)
}

func TestConfigFileApplied(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "probify.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("output: damage\nrender:\n  color: false\n"), 0o644))
	path := writeProgram(t, "damage.dice", "damage = 1d8\n")

	out, err := execute(t, "run", "--config", cfg, path)
	require.NoError(t, err)
	assert.Contains(t, out, path+" (damage)")
	assert.NotContains(t, out, "\x1b[")
}

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingSuite = `
name: numbers
cases:
  - name: four is even
    matcher: be_even
    actual: 4
  - name: three is odd
    matcher: be_even
    actual: 3
    negate: true
  - name: close enough
    matcher: be_within
    expected: 0.5
    chain:
      - method: of
        args: [10]
    actual: 10.2
`

const failingSuite = `
name: mixed
cases:
  - name: odd is not even
    matcher: be_even
    actual: 3
  - name: unknown matcher
    matcher: be_purple
    actual: 1
  - name: field errors
    matcher: have_errors_on
    expected: age
    chain:
      - method: with
        args: must be positive
    actual:
      age: [must be positive]
`

// runCmd executes the root command in an empty working directory.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Chdir(t.TempDir())

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--no-color"}, args...))

	err := root.Execute()
	return out.String(), err
}

func writeSuite(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func findCommand(root *cobra.Command, name string) *cobra.Command {
	for _, c := range root.Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd()
	assert.Equal(t, "matchkit", root.Use)

	for _, name := range []string{"list", "check"} {
		assert.NotNil(t, findCommand(root, name), "Missing command: %s", name)
	}
	for _, flag := range []string{"json", "config", "no-color", "quiet", "log-level"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "Missing flag: %s", flag)
	}
	assert.NotNil(t, findCommand(root, "check").Flags().Lookup("metrics-file"))
}

func TestListCmd(t *testing.T) {
	out, err := runCmd(t, "list")
	require.NoError(t, err)

	assert.Contains(t, out, "MATCHERS")
	assert.Contains(t, out, "be_even")
	assert.Contains(t, out, "match_pattern")
}

func TestListCmd_JSON(t *testing.T) {
	out, err := runCmd(t, "list", "--json")
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Contains(t, names, "equal_yaml")
}

func TestCheckCmd_Passing(t *testing.T) {
	path := writeSuite(t, passingSuite)

	out, err := runCmd(t, "check", path, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "3 passed, 0 failed, 0 errored")
	assert.NotContains(t, out, "PASS", "quiet mode hides passing cases")
}

func TestCheckCmd_Failing(t *testing.T) {
	path := writeSuite(t, failingSuite)

	out, err := runCmd(t, "check", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSuiteFailed)

	assert.Contains(t, out, "Suite: mixed")
	assert.Contains(t, out, "FAIL  odd is not even (be even)")
	assert.Contains(t, out, "expected 3 to be even")
	assert.Contains(t, out, "ERROR unknown matcher")
	assert.Contains(t, out, "be_purple")
	assert.Contains(t, out, "PASS  field errors")
	assert.Contains(t, out, "1 passed, 1 failed, 1 errored")
}

func TestCheckCmd_JSON(t *testing.T) {
	path := writeSuite(t, failingSuite)

	out, err := runCmd(t, "check", path, "--json")
	require.ErrorIs(t, err, ErrSuiteFailed)

	var report Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "mixed", report.Suite)
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Errored)
	require.Len(t, report.Cases, 3)
	assert.Equal(t, StatusFail, report.Cases[0].Status)
	assert.Equal(t, "expected 3 to be even", report.Cases[0].Result.Message)
}

func TestCheckCmd_MissingSuite(t *testing.T) {
	_, err := runCmd(t, "check", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSuiteFailed)
	assert.Contains(t, err.Error(), "failed to read suite")
}

func TestCheckCmd_RequiresOneArg(t *testing.T) {
	_, err := runCmd(t, "check")
	assert.Error(t, err)
}

func TestCheckCmd_WritesMetrics(t *testing.T) {
	path := writeSuite(t, passingSuite)
	metricsPath := filepath.Join(t.TempDir(), "metrics.prom")
	t.Setenv("MATCHKIT_METRICS_ENABLED", "true")

	_, err := runCmd(t, "check", path, "--quiet", "--metrics-file", metricsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "matchkit_expect_evaluations_total")
}

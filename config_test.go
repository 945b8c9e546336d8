package coyote_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	coyote "github.com/joeycumines/go-coyote"
)

// TestLoadConfigYAMLAppliesSettings exercises a checked-in settings file
// round-tripping through LoadConfigYAML: scheduling_strategy from the YAML
// document must take effect on the resulting Config exactly as if set via
// the equivalent Option call. The body makes no scheduling choice, so DFS
// has exactly one schedule to explore and stops after one of the three
// configured iterations, where the default random strategy would run all
// three.
func TestLoadConfigYAMLAppliesSettings(t *testing.T) {
	cfg, err := coyote.LoadConfigYAML([]byte(`
testing_iterations: 3
scheduling_strategy: dfs
max_scheduling_steps: 500
`))
	require.NoError(t, err)

	var iterations int64
	report, err := coyote.NewTestEngine(cfg).Run(func(rt *coyote.Runtime, op *coyote.Operation) {
		atomic.AddInt64(&iterations, 1)
	})
	require.NoError(t, err)
	require.True(t, report.Passed())
	require.EqualValues(t, 1, iterations)
}

// TestLoadConfigYAMLZeroFieldsUseDefaults exercises the documented
// zero-value-means-default behavior: an empty settings file must resolve to
// the same defaults as NewConfig with no options.
func TestLoadConfigYAMLZeroFieldsUseDefaults(t *testing.T) {
	cfg, err := coyote.LoadConfigYAML([]byte(``))
	require.NoError(t, err)

	var iterations int64
	report, err := coyote.NewTestEngine(cfg).Run(func(rt *coyote.Runtime, op *coyote.Operation) {
		atomic.AddInt64(&iterations, 1)
	})
	require.NoError(t, err)
	require.True(t, report.Passed())
	require.EqualValues(t, 1, iterations)
}

// TestLoadConfigYAMLRejectsUnknownStrategy confirms a malformed settings
// file (an unrecognized scheduling_strategy name) surfaces the same
// validation error WithSchedulingStrategy would, rather than silently
// falling back to a default.
func TestLoadConfigYAMLRejectsUnknownStrategy(t *testing.T) {
	_, err := coyote.LoadConfigYAML([]byte(`scheduling_strategy: quantum`))
	require.Error(t, err)
}

// TestLoadConfigYAMLExtraOptsOverrideFile confirms extraOpts passed to
// LoadConfigYAML are applied after the file's own settings, so a caller can
// still override specific fields programmatically.
func TestLoadConfigYAMLExtraOptsOverrideFile(t *testing.T) {
	cfg, err := coyote.LoadConfigYAML([]byte(`testing_iterations: 5`), coyote.WithTestingIterations(2))
	require.NoError(t, err)

	var iterations int64
	report, err := coyote.NewTestEngine(cfg).Run(func(rt *coyote.Runtime, op *coyote.Operation) {
		atomic.AddInt64(&iterations, 1)
	})
	require.NoError(t, err)
	require.True(t, report.Passed())
	require.EqualValues(t, 2, iterations)
}

// TestLoadConfigYAMLFileRoundTrip exercises LoadConfigYAMLFile end to end:
// a settings file is written to disk, the same as a checked-in coyote.yaml
// would be, then loaded back by path.
func TestLoadConfigYAMLFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coyote.yaml")
	require.NoError(t, os.WriteFile(path, []byte("testing_iterations: 4\n"), 0o644))

	cfg, err := coyote.LoadConfigYAMLFile(path)
	require.NoError(t, err)

	var iterations int64
	report, err := coyote.NewTestEngine(cfg).Run(func(rt *coyote.Runtime, op *coyote.Operation) {
		atomic.AddInt64(&iterations, 1)
	})
	require.NoError(t, err)
	require.True(t, report.Passed())
	require.EqualValues(t, 4, iterations)
}

// TestLoadConfigYAMLFileMissingReturnsError confirms a missing settings
// file surfaces a wrapped os error rather than a zero Config.
func TestLoadConfigYAMLFileMissingReturnsError(t *testing.T) {
	_, err := coyote.LoadConfigYAMLFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

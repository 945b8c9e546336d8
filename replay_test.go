package coyote_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	coyote "github.com/joeycumines/go-coyote"
	"github.com/joeycumines/go-coyote/examples/unhandledevent"
)

func TestScheduleRecordAndReplayReproducesFailure(t *testing.T) {
	scheduleFile := filepath.Join(t.TempDir(), "schedule.txt")

	cfg, err := coyote.NewConfig(
		coyote.WithTestingIterations(1),
		coyote.WithScheduleFile(scheduleFile),
	)
	require.NoError(t, err)

	report, err := coyote.NewTestEngine(cfg).Run(unhandledevent.Run)
	require.NoError(t, err)
	require.False(t, report.Passed())
	require.NotNil(t, report.FailingSchedule)

	data, err := os.ReadFile(scheduleFile)
	require.NoError(t, err)

	parsed, err := coyote.ParseSchedule(data)
	require.NoError(t, err)
	require.Equal(t, report.FailingSchedule.StrategyName, parsed.StrategyName)

	replayErr := coyote.ReplayFailure(parsed, unhandledevent.Run)
	require.Error(t, replayErr)

	var unhandled *coyote.UnhandledEvent
	require.ErrorAs(t, replayErr, &unhandled)
}

// memScheduleWriter is a [coyote.ScheduleWriter] that keeps the formatted
// bytes in memory, standing in for a non-filesystem sink (object storage, a
// CI artifact upload) a caller might plug in instead of [coyote.FileScheduleWriter].
type memScheduleWriter struct {
	written []byte
}

func (w *memScheduleWriter) WriteSchedule(s *coyote.Schedule) error {
	w.written = s.Format()
	return nil
}

func TestScheduleWriterOverridesFileTarget(t *testing.T) {
	mem := &memScheduleWriter{}

	cfg, err := coyote.NewConfig(
		coyote.WithTestingIterations(1),
		coyote.WithScheduleFile(filepath.Join(t.TempDir(), "unused.txt")),
		coyote.WithScheduleWriter(mem),
	)
	require.NoError(t, err)

	report, err := coyote.NewTestEngine(cfg).Run(unhandledevent.Run)
	require.NoError(t, err)
	require.False(t, report.Passed())
	require.NotEmpty(t, mem.written)

	parsed, err := coyote.ParseSchedule(mem.written)
	require.NoError(t, err)
	require.Equal(t, report.FailingSchedule.StrategyName, parsed.StrategyName)
}

func TestParseScheduleRejectsUnrecognizedLine(t *testing.T) {
	_, err := coyote.ParseSchedule([]byte("STRATEGY random\nSEED 1\nWAT 123\n"))
	require.Error(t, err)
}

func TestParseScheduleRoundTripsThroughFormat(t *testing.T) {
	scheduleFile := filepath.Join(t.TempDir(), "schedule.txt")
	cfg, err := coyote.NewConfig(coyote.WithTestingIterations(1), coyote.WithScheduleFile(scheduleFile))
	require.NoError(t, err)

	report, err := coyote.NewTestEngine(cfg).Run(unhandledevent.Run)
	require.NoError(t, err)
	require.NotNil(t, report.FailingSchedule)

	formatted := report.FailingSchedule.Format()
	reparsed, err := coyote.ParseSchedule(formatted)
	require.NoError(t, err)
	require.Equal(t, formatted, reparsed.Format())
}

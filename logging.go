package coyote

import (
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the package's structured logging handle: a [logiface.Logger]
// bound to stumpy's JSON [stumpy.Event] implementation. The scheduler and
// runtime log diagnostics (deadlocks, failures, replay divergence) through
// the package-level logger installed by [SetStructuredLogger]; a disabled
// logger (the zero-value default) discards everything at negligible cost.
type Logger = logiface.Logger[*stumpy.Event]

var globalLogger struct {
	mu  sync.RWMutex
	log *Logger
}

// SetStructuredLogger installs the package-level logger used for scheduler
// and runtime diagnostics. Passing nil restores the disabled default.
//
//	coyote.SetStructuredLogger(stumpy.L.New(
//	    stumpy.L.WithStumpy(),
//	    stumpy.L.WithLevel(logiface.LevelInformational),
//	))
func SetStructuredLogger(l *Logger) {
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	globalLogger.log = l
}

// logger returns the installed package-level logger, or a disabled one
// (Level() == logiface.LevelDisabled) if none has been installed.
func logger() *Logger {
	globalLogger.mu.RLock()
	defer globalLogger.mu.RUnlock()
	if globalLogger.log != nil {
		return globalLogger.log
	}
	return disabledLogger
}

// disabledLogger is the zero-value [Logger]: its Level() is
// logiface.LevelDisabled, so every Build call it's used from short-circuits
// before any field is written or allocated.
var disabledLogger = &Logger{}

func logFailure(iteration int, steps int, err error) {
	logger().Err().
		Int("iteration", iteration).
		Int("steps", steps).
		Err(err).
		Log("iteration failed")
}

func logIterationPassed(iteration int, steps int) {
	logger().Debug().
		Int("iteration", iteration).
		Int("steps", steps).
		Log("iteration passed")
}

func logReplayDivergence(schedulePath string, err *ReplayDivergence) {
	logger().Warning().
		Str("schedule", schedulePath).
		Int("step", err.StepIndex).
		Str("expected", err.Expected).
		Str("actual", err.Actual).
		Log("replay diverged")
}

// Package buildlog provides the structured logger every compiler phase
// reports progress and diagnostics through. It wraps logrus the way the
// rest of the pack's service manifests do: one shared *logrus.Logger,
// per-phase fields attached with WithFields rather than ad-hoc Printf
// call sites.
package buildlog

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the build-wide structured logger.
type Logger struct {
	*logrus.Logger
}

// New returns a Logger writing to w in text format, with the given level.
// The driver passes os.Stderr; tests pass an io.Discard sink or a
// bytes.Buffer to assert on emitted fields.
func New(w io.Writer, level logrus.Level) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Logger{Logger: l}
}

// Phase returns an entry scoped to one pipeline stage (C1-C7), so every
// line it emits carries the stage name and module being processed.
func (l *Logger) Phase(name, module string) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"phase":  name,
		"module": module,
	})
}

// Timed runs fn and logs its duration under entry at debug level, or an
// error-level line with the failure if fn returns one. The pipeline driver
// wraps constant evaluation, each method's check, lowering and drop
// expansion, and the codegen phase in it.
func Timed(entry *logrus.Entry, step string, fn func() error) error {
	start := timeNow()
	err := fn()
	fields := logrus.Fields{"step": step, "duration": timeNow().Sub(start)}
	if err != nil {
		entry.WithFields(fields).WithError(err).Error("step failed")
		return err
	}
	entry.WithFields(fields).Debug("step complete")
	return nil
}

// timeNow is indirected so tests can't be broken by wall-clock jitter in
// the duration field; production always uses time.Now.
var timeNow = time.Now

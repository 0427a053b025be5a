package buildlog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestPhaseAttachesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, logrus.DebugLevel)

	l.Phase("check", "main").Info("type checking module")

	out := buf.String()
	assert.Contains(t, out, "phase=check")
	assert.Contains(t, out, "module=main")
	assert.Contains(t, out, "type checking module")
}

func TestTimedLogsSuccess(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, logrus.DebugLevel)
	entry := l.Phase("mirlower", "main")

	err := Timed(entry, "lower-method", func() error { return nil })

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "step complete")
	assert.Contains(t, buf.String(), "step=lower-method")
}

func TestTimedLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, logrus.DebugLevel)
	entry := l.Phase("split", "main")
	sentinel := errors.New("boom")

	err := Timed(entry, "hash-module", func() error { return sentinel })

	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, buf.String(), "step failed")
	assert.Contains(t, buf.String(), "boom")
}

package diagnostics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"forge.dev/emberc/internal/diagnostics"
)

func TestSinkSeparatesErrorsFromWarnings(t *testing.T) {
	sink := diagnostics.NewSink()
	sink.Warn(diagnostics.KindUnreachableCode, "main", 1, 1, "unreachable statement")
	sink.Error(diagnostics.KindMovedVariable, "main", 2, 1, "use of moved variable %q", "y")

	assert.True(t, sink.HasErrors())
	assert.Len(t, sink.All(), 2)

	errs := sink.Errors()
	assert.Len(t, errs, 1)
	assert.Equal(t, diagnostics.KindMovedVariable, errs[0].Kind)
	assert.Equal(t, `use of moved variable "y"`, errs[0].Message)
}

func TestSinkWithOnlyWarningsHasNoErrors(t *testing.T) {
	sink := diagnostics.NewSink()
	sink.Warn(diagnostics.KindUnreachableCode, "main", 1, 1, "unreachable statement")

	assert.False(t, sink.HasErrors())
	assert.Empty(t, sink.Errors())
}

func TestDiagnosticStringIncludesPositionWhenKnown(t *testing.T) {
	sink := diagnostics.NewSink()
	sink.Error(diagnostics.KindTypeMismatch, "main", 4, 9, "expected %s, found %s", "Int", "String")

	s := sink.All()[0].String()
	assert.Equal(t, `main:4:9: type-mismatch: expected Int, found String`, s)
}

func TestDiagnosticStringOmitsPositionWhenZero(t *testing.T) {
	sink := diagnostics.NewSink()
	sink.Error(diagnostics.KindTypeMismatch, "", 0, 0, "synthesized mismatch")

	s := sink.All()[0].String()
	assert.Equal(t, `type-mismatch: synthesized mismatch`, s)
}

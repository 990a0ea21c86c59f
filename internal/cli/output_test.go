package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError_CodesAndUnwrap(t *testing.T) {
	base := errors.New("qsub: connection refused")
	err := WrapExitError(ExitFailure, "batch submission failed", base)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "batch submission failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGetExitCode_DefaultsToFailure(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
}

func TestGetExitCode_Wrapped(t *testing.T) {
	inner := NewExitError(ExitCommandError, "bad path")
	wrapped := fmt.Errorf("context: %w", inner)
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestOutputFormatter_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}
	require.NoError(t, f.Success(map[string]int{"total": 3}))
	assert.JSONEq(t, `{"total": 3}`, buf.String())
}

func TestOutputFormatter_Text(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}
	require.NoError(t, f.Success("done"))
	assert.Equal(t, "done\n", buf.String())
}

package logger

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("test message %s", "arg")

	assert.Contains(t, buf.String(), "DBG")
	assert.Contains(t, buf.String(), "test message arg")
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("test message")
	Info("info message")

	assert.Zero(t, buf.Len())
}

func TestWarn_AlwaysEmitted(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Warn("index write failed for %d", 7)

	assert.Contains(t, buf.String(), "WRN")
	assert.Contains(t, buf.String(), "index write failed for 7")
}

func TestError_IncludesCause(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Error(errors.New("boom"), "completion failed")

	assert.Contains(t, buf.String(), "completion failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestSection(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Section("Hidden")
	assert.Zero(t, buf.Len())

	SetVerbose(true)
	Section("Answer")
	assert.Equal(t, "\n=== Answer ===\n", buf.String())
}

func TestWith_AttachesFields(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	With(map[string]any{"request_id": "abc"}).Info("classified")

	assert.Contains(t, buf.String(), "request_id=abc")
	assert.Contains(t, buf.String(), "classified")
}

package webserv

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger()
	l.Output = &buf

	l.Infof("hello %s", "world")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "hello world", entry["message"])
}

func TestLoggerDisabledWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger()
	l.Output = &buf
	l.Enabled = false

	l.Infof("hidden")

	assert.Empty(t, buf.Bytes())
}

func TestLoggerLogRequest(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger()
	l.Output = &buf

	l.LogRequest(&Request{Method: "GET", URIPath: "/"}, 200, "127.0.0.1", 0)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.EqualValues(t, 200, entry["status"])
	assert.Equal(t, "GET", entry["method"])
}

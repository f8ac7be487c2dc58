package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"gotest.tools/v3/assert"
)

func TestNewWritesJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, InfoLevel).Named("test")
	l.Debug("hidden")
	l.Info("visible", String("key", "value"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Equal(t, len(lines), 1)
	var entry map[string]any
	assert.NilError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, entry["msg"], "visible")
	assert.Equal(t, entry["logger"], "test")
	assert.Equal(t, entry["key"], "value")
}

func TestSetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, InfoLevel)
	l.SetLevel(DebugLevel)
	l.Debug("now visible")
	assert.Assert(t, bytes.Contains(buf.Bytes(), []byte("now visible")))
}

func TestWithFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, DebugLevel)
	filtered, err := l.WithFilter("info+:*")
	assert.NilError(t, err)
	filtered.Debug("dropped")
	filtered.Warn("kept")
	assert.Assert(t, !bytes.Contains(buf.Bytes(), []byte("dropped")))
	assert.Assert(t, bytes.Contains(buf.Bytes(), []byte("kept")))
}

func TestContext(t *testing.T) {
	l := New(&bytes.Buffer{}, InfoLevel)
	ctx := AddToContext(context.Background(), l)
	assert.Equal(t, GetFromContext(ctx), l)
	assert.Equal(t, GetFromContext(context.Background()), Default())
}

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return New(&Config{
		Level:       "debug",
		Format:      "json",
		Output:      buf,
		ServiceName: "querydesk-test",
	})
}

func TestNew_JSONFieldMap(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.WithComponent("poller").Info("tick")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "tick", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "querydesk-test", line["service"])
	assert.Equal(t, "poller", line[FieldComponent])
	assert.Contains(t, line, "timestamp")
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: "chatty", Format: "json", Output: &buf})

	log.Debug("hidden")
	assert.Zero(t, buf.Len())

	log.Info("shown")
	assert.NotZero(t, buf.Len())
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := newBufferLogger(&buf).WithContext(context.Background())
	ctx = SetJobID(ctx, "job-1")
	ctx = SetRequestID(ctx, "req-9")

	assert.Equal(t, "job-1", GetJobID(ctx))
	assert.Equal(t, "req-9", GetRequestID(ctx))

	With(Fields{FieldCount: 3}).WithStatus(200).Info(ctx, "polled %s", "status")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "polled status", line["message"])
	assert.Equal(t, "job-1", line[FieldJobID])
	assert.EqualValues(t, 3, line[FieldCount])
	assert.EqualValues(t, 200, line[FieldStatus])
}

func TestFromContext_NilFallsBackToDefault(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	assert.Same(t, GetDefault(), FromContext(nil))
}

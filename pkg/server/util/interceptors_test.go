package util

import (
	"context"
	"errors"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"

	"github.com/coachboard/coachboard-service/pkg/config"
)

type empty struct{}

func sampledContext() (context.Context, trace.TraceID) {
	tid := trace.TraceID{0x01, 0x02, 0x03}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     trace.SpanID{0x0a},
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc), tid
}

func TestTraceIDOnSuccess(t *testing.T) {
	ctx, tid := sampledContext()
	next := func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&empty{}), nil
	}
	res, err := NewTraceIDInterceptor()(next)(ctx, connect.NewRequest(&empty{}))
	assert.NoError(t, err)
	assert.Equal(t, tid.String(), res.Header().Get(traceIDHeader))
}

func TestTraceIDOnError(t *testing.T) {
	ctx, tid := sampledContext()
	next := func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, errors.New("boom")
	}
	_, err := NewTraceIDInterceptor()(next)(ctx, connect.NewRequest(&empty{}))
	var cErr *connect.Error
	assert.ErrorAs(t, err, &cErr)
	assert.Equal(t, connect.CodeUnknown, cErr.Code())
	assert.Equal(t, tid.String(), cErr.Meta().Get(traceIDHeader))
}

func TestTraceIDWithoutSpan(t *testing.T) {
	next := func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&empty{}), nil
	}
	res, err := NewTraceIDInterceptor()(next)(
		context.Background(), connect.NewRequest(&empty{}))
	assert.NoError(t, err)
	assert.Empty(t, res.Header().Get(traceIDHeader))
}

func TestAppContext(t *testing.T) {
	cfg := &config.Config{MaxPayloadBytes: 42}
	var seen *config.Config
	next := func(ctx context.Context, _ connect.AnyRequest) (connect.AnyResponse, error) {
		seen = config.FromContext(ctx)
		return connect.NewResponse(&empty{}), nil
	}
	_, err := NewAppContextInterceptor(cfg)(next)(
		context.Background(), connect.NewRequest(&empty{}))
	assert.NoError(t, err)
	assert.Same(t, cfg, seen)
	assert.Equal(t, config.DefaultConfig, config.FromContext(context.Background()))
}

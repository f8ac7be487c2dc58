// Package util holds connect interceptors shared by all services.
package util

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel/trace"

	"github.com/coachboard/coachboard-service/pkg/config"
)

const traceIDHeader = "X-Trace-ID"

// NewAppContextInterceptor makes cfg available via config.FromContext.
func NewAppContextInterceptor(cfg *config.Config) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (
			connect.AnyResponse, error,
		) {
			return next(config.NewContext(ctx, cfg), req)
		}
	}
}

// NewTraceIDInterceptor echoes the trace id of a sampled request in the
// X-Trace-ID response header, on success and on error.
func NewTraceIDInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (
			connect.AnyResponse, error,
		) {
			sc := trace.SpanContextFromContext(ctx)
			res, err := next(ctx, req)
			if !sc.IsValid() {
				return res, err
			}
			traceID := sc.TraceID().String()
			if err != nil {
				var cErr *connect.Error
				if !errors.As(err, &cErr) {
					cErr = connect.NewError(connect.CodeUnknown, err)
				}
				cErr.Meta().Set(traceIDHeader, traceID)
				return nil, cErr
			}
			res.Header().Set(traceIDHeader, traceID)
			return res, nil
		}
	}
}

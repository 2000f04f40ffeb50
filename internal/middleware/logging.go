package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsplit/internal/metrics"
)

// LoggingInterceptor logs every RPC with its procedure, caller and duration,
// and counts it in metrics.RPCRequests by result code.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			accountID := GetAccountID(ctx) // empty if pre-auth

			resp, err := next(ctx, req)

			procedure := req.Spec().Procedure
			code, level := outcome(err)
			attrs := []any{
				"procedure", procedure,
				"code", code,
				"account_id", accountID,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				attrs = append(attrs, "error", errorMessage(err))
			}
			slog.Log(ctx, level, "RPC finished", attrs...)
			metrics.RPCRequests.WithLabelValues(procedure, code).Inc()

			return resp, err
		}
	}
}

// outcome maps an RPC error to its code label and log level. Errors a client
// can cause are warnings; anything else is logged as an error.
func outcome(err error) (string, slog.Level) {
	if err == nil {
		return "ok", slog.LevelInfo
	}
	code := connect.CodeOf(err)
	switch code {
	case connect.CodeInternal, connect.CodeUnknown, connect.CodeDataLoss, connect.CodeUnavailable:
		return code.String(), slog.LevelError
	}
	return code.String(), slog.LevelWarn
}

func errorMessage(err error) string {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr.Message()
	}
	return err.Error()
}

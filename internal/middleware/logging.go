package middleware

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// with its procedure, device ID, Connect code and duration.
// Install it after DeviceInterceptor so the device ID is available.
//
// Client mistakes (invalid argument, not found) log at WARN; anything else
// that fails logs at ERROR.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"device_id", GetDeviceID(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err == nil {
				slog.InfoContext(ctx, "RPC ok", attrs...)
				return resp, nil
			}

			code := connect.CodeOf(err)
			attrs = append(attrs, "code", code.String(), "error", err)
			switch code {
			case connect.CodeInvalidArgument, connect.CodeNotFound, connect.CodeFailedPrecondition:
				slog.WarnContext(ctx, "RPC error", attrs...)
			default:
				slog.ErrorContext(ctx, "RPC error", attrs...)
			}
			return resp, err
		}
	}
}

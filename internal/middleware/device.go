package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// DeviceIDHeader carries the anonymous per-device identifier set by the web client.
const DeviceIDHeader = "X-Device-Id"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// DeviceIDKey is the context key for storing the caller's device ID.
const DeviceIDKey contextKey = "device_id"

// GetDeviceID extracts the device ID from the context.
// Returns empty string if not found.
func GetDeviceID(ctx context.Context) string {
	deviceID, _ := ctx.Value(DeviceIDKey).(string)
	return deviceID
}

// WithDeviceID returns a copy of ctx carrying deviceID.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, DeviceIDKey, deviceID)
}

// DeviceInterceptor returns a Connect interceptor that copies the device ID
// header into the request context. Requests without the header pass through.
func DeviceInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if deviceID := strings.TrimSpace(req.Header().Get(DeviceIDHeader)); deviceID != "" {
				ctx = WithDeviceID(ctx, deviceID)
			}
			return next(ctx, req)
		}
	}
}

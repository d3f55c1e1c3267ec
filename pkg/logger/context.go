package logger

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	connectionIDKey contextKey = "connection_id"
	remoteAddrKey   contextKey = "remote_addr"
	operationKey    contextKey = "operation"
)

// Fields are attached in this order.
var contextKeys = [...]contextKey{connectionIDKey, remoteAddrKey, operationKey}

// WithConnection tags ctx with a fresh connection id and the peer address.
func WithConnection(ctx context.Context, remoteAddr string) (context.Context, string) {
	connID := uuid.NewString()
	ctx = context.WithValue(ctx, connectionIDKey, connID)
	if remoteAddr != "" {
		ctx = context.WithValue(ctx, remoteAddrKey, remoteAddr)
	}
	return ctx, connID
}

// WithOperation tags ctx with the routed operation name.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey, op)
}

// ConnectionID returns the id set by WithConnection, or "".
func ConnectionID(ctx context.Context) string {
	id, _ := ctx.Value(connectionIDKey).(string)
	return id
}

// WithContext returns log extended with the connection fields found in ctx.
func WithContext(ctx context.Context, log *zap.Logger) *zap.Logger {
	if ctx == nil {
		return log
	}

	var fields []zap.Field
	for _, key := range contextKeys {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}
	if fields == nil {
		return log
	}
	return log.With(fields...)
}

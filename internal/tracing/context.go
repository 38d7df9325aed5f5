package tracing

import "context"

type contextKey string

const operationIDKey contextKey = "operation_id"

// OperationIDFromContext returns the id of the repository operation ctx
// belongs to, or "".
func OperationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(operationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithOperationID tags ctx with an operation id. An empty id leaves
// ctx unchanged.
func ContextWithOperationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, operationIDKey, id)
}

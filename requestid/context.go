package requestid

import (
	"context"

	"github.com/google/uuid"
)

type requestIDCtxKey struct{}

// ContextWithRequestID adds the specified request ID to the context.
func ContextWithRequestID(parent context.Context, requestID string) context.Context {
	return context.WithValue(parent, requestIDCtxKey{}, requestID)
}

// ContextWithNewRequestID adds a freshly generated request ID to the context,
// returning it.
func ContextWithNewRequestID(parent context.Context) (context.Context, string) {
	id := newRequestID()
	return ContextWithRequestID(parent, id), id
}

// FromContext returns the request ID from the context. If there is no request
// ID in the context, ok will be false.
func FromContext(ctx context.Context) (_ string, ok bool) {
	v, ok := ctx.Value(requestIDCtxKey{}).(string)
	return v, ok
}

func newRequestID() string {
	return uuid.NewString()
}

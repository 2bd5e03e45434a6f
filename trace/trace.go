package trace

import (
	"context"
	"net/http"

	"github.com/oklog/ulid/v2"
)

// HeaderRequestID is the name of the HTTP Header which contains the request id.
// Exported so that it can be changed by developers
var (
	HeaderRequestID = "X-Request-ID"
)

type (
	contextKey int
)

const (
	RequestIDKey contextKey = iota
)

// InjectRequestID returns a context which knows the request ID
func InjectRequestID(ctx context.Context, requestID string) context.Context {

	return context.WithValue(ctx, RequestIDKey, requestID)

}

// EnsureRequestID returns ctx unchanged when it already carries a request id,
// otherwise a child context with a freshly generated one.
func EnsureRequestID(ctx context.Context) context.Context {

	if GetRequestIDFromContext(ctx) != "" {
		return ctx
	}

	return InjectRequestID(ctx, GenerateRequestID())

}

// InjectRequestIDFromRequest returns a request whose context knows the request ID.
// The id is taken from the HeaderRequestID header, or generated when the header is empty.
// The id can be retrieved from the context using GetRequestIDFromContext.
func InjectRequestIDFromRequest(req *http.Request) *http.Request {

	id := getRequestID(req)
	if id == "" {
		id = GenerateRequestID()
	}

	return req.WithContext(InjectRequestID(req.Context(), id))
}

// GetRequestIDFromContext returns the request ID from the given context.
// If the context does not contain the request ID, it will return an empty string.
func GetRequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// getRequestID extracts the correlation ID from the HTTP request
func getRequestID(req *http.Request) string {
	return req.Header.Get(HeaderRequestID)
}

// GenerateRequestID generates a new request ID as a ULID string.
func GenerateRequestID() string {
	return ulid.Make().String()
}

package requestid

import (
	"net/http"
)

var _ http.RoundTripper = (*Transport)(nil)

// Transport is a http.RoundTripper that sets the X-Request-ID header on
// outgoing requests to the ID on the request's context. Any X-Request-ID
// already on the request, e.g. copied from an inbound request by a proxy, is
// replaced.
type Transport struct {
	// Base is the base RoundTripper used to make HTTP requests. If nil,
	// http.DefaultTransport is used.
	Base http.RoundTripper
}

// RoundTrip adds the request ID header to the outgoing request, as needed.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID, ok := FromContext(req.Context())
	if !ok || req.Header.Get(RequestIDHeader) == requestID {
		return t.base().RoundTrip(req)
	}

	req2 := req.Clone(req.Context()) // per RoundTripper contract
	req2.Header.Set(RequestIDHeader, requestID)
	return t.base().RoundTrip(req2)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// Package requestid ensures every request carries an ID on its context, and
// propagates that ID to upstream services and log records.
package requestid

// RequestIDHeader is the HTTP header name that we pass the request ID in.
const RequestIDHeader = "X-Request-ID"

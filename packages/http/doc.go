// Package http is courier's synchronous HTTP client.
//
// It wraps the standard library's transport with the courier execution
// model:
//   - Typed requests per verb with ordered, duplicate-friendly headers
//   - A request-interceptor chain re-applied on every redirect hop
//   - Pluggable TLS trust combining platform roots with custom anchors
//   - Bounded redirect following with a typed error taxonomy
//     (TransportError, RedirectError, UnsuccessfulStatusError,
//     TooManyRedirectsError)
package http

package http

import "fmt"

// TransportError reports a network-level failure: DNS resolution, connect,
// TLS handshake (including a rejected certificate chain), timeout, or a
// broken stream. The underlying cause is available through Unwrap.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RedirectError reports a 3xx response that could not or should not be
// followed: either the response carried no Location header, or redirect
// following is disabled. Body holds the response payload, or the literal
// "No Location header" detail.
type RedirectError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("redirect status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// UnsuccessfulStatusError reports a response outside the 2xx and
// followed-3xx ranges. Body holds the error payload, empty when the server
// sent none.
type UnsuccessfulStatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *UnsuccessfulStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request to %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("request to %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}

// TooManyRedirectsError reports that the redirect budget was exhausted
// before reaching a non-redirect response, which is how redirect loops
// surface.
type TooManyRedirectsError struct {
	URL  string
	Hops int
}

func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("stopped after %d redirects, last URL %s", e.Hops, e.URL)
}

package cmd

import (
	"errors"

	"github.com/awalters-dev/courier/packages/http"
	"github.com/awalters-dev/courier/packages/validate"
)

// Exit codes for the courier CLI
const (
	// ExitSuccess indicates the request completed with a successful status
	ExitSuccess = 0

	// ExitRequestFailed indicates a non-2xx status or an unfollowed redirect
	ExitRequestFailed = 1

	// ExitUsageError indicates invalid CLI usage or configuration
	ExitUsageError = 2

	// ExitTransportError indicates a network, DNS, or TLS failure
	ExitTransportError = 3

	// ExitSchemaError indicates the response body failed schema validation
	ExitSchemaError = 4
)

// exitCodeFor maps an error to the process exit code.
func exitCodeFor(err error) int {
	var (
		schemaErr    *validate.Error
		transportErr *http.TransportError
		statusErr    *http.UnsuccessfulStatusError
		redirectErr  *http.RedirectError
		tooManyErr   *http.TooManyRedirectsError
	)

	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &schemaErr):
		return ExitSchemaError
	case errors.As(err, &transportErr):
		return ExitTransportError
	case errors.As(err, &statusErr), errors.As(err, &redirectErr), errors.As(err, &tooManyErr):
		return ExitRequestFailed
	default:
		return ExitUsageError
	}
}

package auth

import (
	"github.com/awalters-dev/courier/packages/http"
)

// Interceptor returns a request interceptor that stamps a bearer token on
// every dispatch, fetching through the provider as needed. A failed token
// fetch aborts the execution.
func (p *Provider) Interceptor() http.Interceptor {
	return http.InterceptorFunc(func(r *http.Request) error {
		token, err := p.Token()
		if err != nil {
			return err
		}
		r.SetHeader("Authorization", "Bearer "+token.AccessToken)
		return nil
	})
}

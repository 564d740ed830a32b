package http

import (
	"encoding/base64"
	"log/slog"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Interceptor mutates a request in place before it is dispatched. The chain
// runs in registration order on every dispatch, including the synthesized
// GET of each redirect hop. Returning a non-nil error aborts the execution;
// the error reaches the caller unwrapped.
type Interceptor interface {
	Intercept(r *Request) error
}

// InterceptorFunc adapts a function to the Interceptor interface.
type InterceptorFunc func(r *Request) error

func (f InterceptorFunc) Intercept(r *Request) error {
	return f(r)
}

// interceptorChain guards the registered interceptors so that add/remove
// may race with in-flight executions. Executions iterate over a snapshot
// taken under the read lock.
type interceptorChain struct {
	mu   sync.RWMutex
	list []Interceptor
}

func (ch *interceptorChain) add(i Interceptor) {
	// A nil entry would panic on dispatch.
	if i == nil {
		return
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.list = append(ch.list, i)
}

func (ch *interceptorChain) remove(i Interceptor) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for idx, registered := range ch.list {
		if sameInterceptor(registered, i) {
			ch.list = append(ch.list[:idx], ch.list[idx+1:]...)
			return
		}
	}
}

func (ch *interceptorChain) clear() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.list = nil
}

func (ch *interceptorChain) snapshot() []Interceptor {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	if len(ch.list) == 0 {
		return nil
	}
	return append([]Interceptor(nil), ch.list...)
}

// sameInterceptor matches comparable interceptors by equality and
// func-backed ones by code pointer, so a previously added InterceptorFunc
// can be removed again.
func sameInterceptor(a, b Interceptor) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == nil || ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	if ta.Kind() == reflect.Func {
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	return false
}

// RequestID stamps a fresh UUID into the named header on every dispatch.
// An empty header name defaults to X-Request-Id.
func RequestID(header string) Interceptor {
	if header == "" {
		header = "X-Request-Id"
	}
	return InterceptorFunc(func(r *Request) error {
		r.SetHeader(header, uuid.New().String())
		return nil
	})
}

// BasicAuth sets an Authorization header with basic credentials.
func BasicAuth(username, password string) Interceptor {
	encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return InterceptorFunc(func(r *Request) error {
		r.SetHeader("Authorization", "Basic "+encoded)
		return nil
	})
}

// BearerAuth sets an Authorization header with a bearer token.
func BearerAuth(token string) Interceptor {
	return InterceptorFunc(func(r *Request) error {
		r.SetHeader("Authorization", "Bearer "+token)
		return nil
	})
}

// UserAgent sets the User-Agent header.
func UserAgent(agent string) Interceptor {
	return InterceptorFunc(func(r *Request) error {
		r.SetHeader("User-Agent", agent)
		return nil
	})
}

// Logging logs every dispatch at debug level.
func Logging(logger *slog.Logger) Interceptor {
	return InterceptorFunc(func(r *Request) error {
		logger.Debug("request intercepted",
			"method", r.Method(),
			"url", r.URL,
			"headers", len(r.Headers))
		return nil
	})
}

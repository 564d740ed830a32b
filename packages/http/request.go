package http

import "strings"

// Header is one name/value pair carried by a request. Requests keep headers
// as an ordered list and may carry the same name more than once; every entry
// is sent.
type Header struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// Request is a single HTTP call to be executed. The method is fixed at
// construction; URL, headers and (for POST/PUT/PATCH) the body stay mutable
// until the request is dispatched, which is how interceptors rewrite
// requests in place.
type Request struct {
	URL     string
	Headers []Header

	method  string
	body    string
	hasBody bool
}

func newRequest(method, url string) *Request {
	return &Request{method: method, URL: url}
}

func newBodyRequest(method, url, body string) *Request {
	return &Request{method: method, URL: url, body: body, hasBody: true}
}

func NewGetRequest(url string) *Request {
	return newRequest("GET", url)
}

func NewHeadRequest(url string) *Request {
	return newRequest("HEAD", url)
}

func NewOptionsRequest(url string) *Request {
	return newRequest("OPTIONS", url)
}

func NewDeleteRequest(url string) *Request {
	return newRequest("DELETE", url)
}

func NewPostRequest(url, body string) *Request {
	return newBodyRequest("POST", url, body)
}

func NewPutRequest(url, body string) *Request {
	return newBodyRequest("PUT", url, body)
}

func NewPatchRequest(url, body string) *Request {
	return newBodyRequest("PATCH", url, body)
}

// Method returns the HTTP verb the request was constructed with.
func (r *Request) Method() string {
	return r.method
}

// Body returns the request payload and whether the request carries one.
// Only POST, PUT and PATCH requests carry a payload.
func (r *Request) Body() (string, bool) {
	return r.body, r.hasBody
}

// AddHeader appends a header, keeping any existing entries with the same
// name.
func (r *Request) AddHeader(name, value string) *Request {
	r.Headers = append(r.Headers, Header{Name: name, Value: value})
	return r
}

// SetHeader replaces every header with the given name (case-insensitive),
// or appends if none is present.
func (r *Request) SetHeader(name, value string) *Request {
	kept := r.Headers[:0]
	for _, h := range r.Headers {
		if !strings.EqualFold(h.Name, name) {
			kept = append(kept, h)
		}
	}
	r.Headers = append(kept, Header{Name: name, Value: value})
	return r
}

// HeaderValue returns the first header value with the given name
// (case-insensitive) and whether it was found.
func (r *Request) HeaderValue(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// SetBody replaces the payload of a body-bearing request. It has no effect
// on methods that do not carry one.
func (r *Request) SetBody(body string) *Request {
	if r.hasBody {
		r.body = body
	}
	return r
}

// ValidMethod reports whether method is one of the verbs a Request can be
// constructed with.
func ValidMethod(method string) bool {
	switch strings.ToUpper(method) {
	case "HEAD", "OPTIONS", "GET", "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}

// MethodHasBody reports whether the verb carries a request payload.
func MethodHasBody(method string) bool {
	switch strings.ToUpper(method) {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

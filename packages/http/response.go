package http

import (
	"encoding/json"
	"strings"
)

// Response is the outcome of a successfully executed request, which in this
// client always means a 2xx status. Redirect and error statuses surface as
// typed errors instead. Repeated response header fields are joined into one
// comma-separated value.
type Response struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Header returns the value for key, matching case-insensitively.
func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType(), "application/json")
}

// BodyJSON decodes the body as JSON.
func (r *Response) BodyJSON() (any, error) {
	var result any
	if err := json.Unmarshal([]byte(r.Body), &result); err != nil {
		return nil, err
	}
	return result, nil
}

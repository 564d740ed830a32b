// Package reqfile loads request definitions from YAML files.
//
// A definition names a verb, a URL, ordered headers and an optional body.
// Values may carry ${VAR} placeholders which are expanded from an override
// map and the process environment before the request is built.
package reqfile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/awalters-dev/courier/packages/http"
)

// Definition is a single request described in a file.
type Definition struct {
	Method  string        `yaml:"method"`
	URL     string        `yaml:"url"`
	Headers []http.Header `yaml:"headers"`
	Body    string        `yaml:"body"`
}

// Load reads and parses a request definition from path.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	return Parse(data)
}

// Parse parses a YAML request definition. The method defaults to GET when
// omitted and is normalized to upper case.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse request file: %w", err)
	}

	if def.URL == "" {
		return nil, fmt.Errorf("request file is missing a url")
	}
	if def.Method == "" {
		def.Method = "GET"
	}
	def.Method = strings.ToUpper(def.Method)

	return &def, nil
}

// Expand replaces ${VAR} placeholders in the URL, header values and body.
// Overrides win over the process environment; names found in neither expand
// to the empty string.
func (d *Definition) Expand(vars map[string]string) {
	lookup := func(name string) string {
		if value, ok := vars[name]; ok {
			return value
		}
		return os.Getenv(name)
	}

	d.URL = os.Expand(d.URL, lookup)
	for i := range d.Headers {
		d.Headers[i].Value = os.Expand(d.Headers[i].Value, lookup)
	}
	d.Body = os.Expand(d.Body, lookup)
}

// Request builds the typed request the definition describes.
func (d *Definition) Request() (*http.Request, error) {
	if !http.ValidMethod(d.Method) {
		return nil, fmt.Errorf("unsupported method %q", d.Method)
	}
	if d.Body != "" && !http.MethodHasBody(d.Method) {
		return nil, fmt.Errorf("%s request cannot carry a body", d.Method)
	}

	var req *http.Request
	switch d.Method {
	case "HEAD":
		req = http.NewHeadRequest(d.URL)
	case "OPTIONS":
		req = http.NewOptionsRequest(d.URL)
	case "DELETE":
		req = http.NewDeleteRequest(d.URL)
	case "POST":
		req = http.NewPostRequest(d.URL, d.Body)
	case "PUT":
		req = http.NewPutRequest(d.URL, d.Body)
	case "PATCH":
		req = http.NewPatchRequest(d.URL, d.Body)
	default:
		req = http.NewGetRequest(d.URL)
	}

	for _, h := range d.Headers {
		req.AddHeader(h.Name, h.Value)
	}

	return req, nil
}

// Package validate checks response bodies against JSON Schemas.
package validate

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Result is the outcome of a schema validation.
type Result struct {
	Valid  bool
	Errors []string
}

// Error reports the violations of an invalid result.
type Error struct {
	Errors []string
}

func (e *Error) Error() string {
	return "schema validation failed: " + strings.Join(e.Errors, "; ")
}

// Err returns nil for a valid result and an *Error carrying every violation
// otherwise.
func (r *Result) Err() error {
	if r.Valid {
		return nil
	}
	return &Error{Errors: r.Errors}
}

// Against validates a JSON body against a schema document.
func Against(body, schema string) (*Result, error) {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewStringLoader(body)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}

	out := &Result{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, desc.String())
	}
	return out, nil
}

// AgainstFile validates a JSON body against the schema stored at path.
func AgainstFile(body, path string) (*Result, error) {
	schema, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Against(body, string(schema))
}

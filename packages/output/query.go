package output

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Query extracts a value from a JSON body with a gjson path expression.
// Scalars render bare; objects and arrays render as raw JSON.
func Query(body, path string) (string, error) {
	if !gjson.Valid(body) {
		return "", fmt.Errorf("response body is not valid JSON")
	}

	result := gjson.Get(body, path)
	if !result.Exists() {
		return "", fmt.Errorf("path %q not found in response body", path)
	}

	if result.IsObject() || result.IsArray() {
		return result.Raw, nil
	}
	return result.String(), nil
}

package output

import (
	"encoding/json"
	"io"

	"github.com/awalters-dev/courier/packages/http"
)

// RenderJSON writes a machine-readable rendering of the response. JSON
// bodies are embedded verbatim; anything else becomes a JSON string.
func RenderJSON(w io.Writer, resp *http.Response) error {
	payload := struct {
		Status  int               `json:"status"`
		Headers map[string]string `json:"headers"`
		Body    json.RawMessage   `json:"body"`
	}{
		Status:  resp.StatusCode,
		Headers: resp.Headers,
	}

	if resp.IsJSON() && json.Valid([]byte(resp.Body)) {
		payload.Body = json.RawMessage(resp.Body)
	} else {
		encoded, err := json.Marshal(resp.Body)
		if err != nil {
			return err
		}
		payload.Body = encoded
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

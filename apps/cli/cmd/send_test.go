package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/awalters-dev/courier/packages/core/config"
	"github.com/awalters-dev/courier/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetSendFlags clears the shared flag variables so tests can set them
// without leaking into each other.
func resetSendFlags(t *testing.T) {
	t.Helper()
	reset := func() {
		methodFlag, dataFlag, fileFlag = "", "", ""
		headerFlags, varFlags = nil, nil
	}
	reset()
	t.Cleanup(reset)
}

func TestBuildSendRequest_URLMode(t *testing.T) {
	resetSendFlags(t)

	req, err := buildSendRequest(&config.Config{}, []string{"https://api.example.com/users"})

	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method())
	assert.Equal(t, "https://api.example.com/users", req.URL)
	_, hasBody := req.Body()
	assert.False(t, hasBody)
}

func TestBuildSendRequest_MethodAndBody(t *testing.T) {
	resetSendFlags(t)
	methodFlag = "post"
	dataFlag = `{"name":"ada"}`

	req, err := buildSendRequest(&config.Config{}, []string{"https://api.example.com/users"})

	require.NoError(t, err)
	assert.Equal(t, "POST", req.Method())
	body, hasBody := req.Body()
	assert.True(t, hasBody)
	assert.Equal(t, `{"name":"ada"}`, body)
}

func TestBuildSendRequest_BodyOnBodylessMethod(t *testing.T) {
	resetSendFlags(t)
	dataFlag = "nope"

	_, err := buildSendRequest(&config.Config{}, []string{"https://api.example.com/users"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot carry a body")
}

func TestBuildSendRequest_HeaderOrder(t *testing.T) {
	resetSendFlags(t)
	headerFlags = []string{"X-Flag: one", "X-Flag: two"}

	fileConfig := &config.Config{Headers: map[string]string{
		"X-Env":  "test",
		"Accept": "application/json",
	}}

	req, err := buildSendRequest(fileConfig, []string{"https://api.example.com"})

	require.NoError(t, err)
	// Config headers come first in name order, then the -H flags in the
	// order given.
	require.Len(t, req.Headers, 4)
	assert.Equal(t, http.Header{Name: "Accept", Value: "application/json"}, req.Headers[0])
	assert.Equal(t, http.Header{Name: "X-Env", Value: "test"}, req.Headers[1])
	assert.Equal(t, http.Header{Name: "X-Flag", Value: "one"}, req.Headers[2])
	assert.Equal(t, http.Header{Name: "X-Flag", Value: "two"}, req.Headers[3])
}

func TestBuildSendRequest_FileMode(t *testing.T) {
	resetSendFlags(t)

	path := filepath.Join(t.TempDir(), "request.yaml")
	content := `method: PUT
url: https://${REQ_HOST}/items/1
headers:
  - name: X-Token
    value: ${REQ_TOKEN}
body: '{"done":true}'
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	fileFlag = path
	varFlags = []string{"REQ_HOST=staging.example.com", "REQ_TOKEN=tok-1"}

	req, err := buildSendRequest(&config.Config{}, nil)

	require.NoError(t, err)
	assert.Equal(t, "PUT", req.Method())
	assert.Equal(t, "https://staging.example.com/items/1", req.URL)
	value, ok := req.HeaderValue("X-Token")
	require.True(t, ok)
	assert.Equal(t, "tok-1", value)
	body, _ := req.Body()
	assert.Equal(t, `{"done":true}`, body)
}

func TestBuildSendRequest_FlagsOverrideFile(t *testing.T) {
	resetSendFlags(t)

	path := filepath.Join(t.TempDir(), "request.yaml")
	content := `method: POST
url: https://api.example.com/items
body: original
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	fileFlag = path
	dataFlag = "replaced"

	req, err := buildSendRequest(&config.Config{}, []string{"https://other.example.com/items"})

	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com/items", req.URL)
	body, _ := req.Body()
	assert.Equal(t, "replaced", body)
}

func TestParseHeaderFlag(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    http.Header
		wantErr bool
	}{
		{name: "plain", raw: "Accept: application/json", want: http.Header{Name: "Accept", Value: "application/json"}},
		{name: "no space after colon", raw: "X-Key:abc", want: http.Header{Name: "X-Key", Value: "abc"}},
		{name: "value with colons", raw: "Referer: https://example.com/x", want: http.Header{Name: "Referer", Value: "https://example.com/x"}},
		{name: "empty value", raw: "X-Empty:", want: http.Header{Name: "X-Empty", Value: ""}},
		{name: "missing colon", raw: "not-a-header", wantErr: true},
		{name: "blank name", raw: ": value", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, err := parseHeaderFlag(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, header)
		})
	}
}

func TestParseVarFlags(t *testing.T) {
	resetSendFlags(t)
	varFlags = []string{"HOST=example.com", "EMPTY=", "EQ=a=b"}

	vars, err := parseVarFlags()

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"HOST": "example.com", "EMPTY": "", "EQ": "a=b"}, vars)
}

func TestParseVarFlagsInvalid(t *testing.T) {
	resetSendFlags(t)
	varFlags = []string{"NOVALUE"}

	_, err := parseVarFlags()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected KEY=VALUE")
}

func TestBuildClientDefaults(t *testing.T) {
	resetSendFlags(t)

	client, err := buildClient(config.DefaultConfig())

	require.NoError(t, err)
	assert.NotNil(t, client)
}

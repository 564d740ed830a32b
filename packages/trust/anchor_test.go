package trust

import (
	"bytes"
	"encoding/pem"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingCloser struct {
	io.Reader
	closed bool
}

func (tc *trackingCloser) Close() error {
	tc.closed = true
	return nil
}

func TestLoadAnchorPEM(t *testing.T) {
	cert := newTestCert(t, "anchor.example.test")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})

	stream := &trackingCloser{Reader: bytes.NewReader(pemBytes)}
	anchor, err := LoadAnchor(stream)
	require.NoError(t, err)

	require.Len(t, anchor.Certificates(), 1)
	assert.Equal(t, cert.Raw, anchor.Certificates()[0].Raw)
	assert.True(t, stream.closed)
}

func TestLoadAnchorDER(t *testing.T) {
	cert := newTestCert(t, "anchor.example.test")

	anchor, err := LoadAnchor(&trackingCloser{Reader: bytes.NewReader(cert.Raw)})
	require.NoError(t, err)
	assert.Equal(t, "anchor.example.test", anchor.Certificates()[0].Subject.CommonName)
}

func TestLoadAnchorClosesStreamOnFailure(t *testing.T) {
	stream := &trackingCloser{Reader: bytes.NewReader([]byte("not a certificate"))}

	_, err := LoadAnchor(stream)
	require.Error(t, err)
	assert.True(t, stream.closed)
}

func TestLoadAnchorRejectsWrongPEMType(t *testing.T) {
	block := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{0x01}})

	_, err := LoadAnchor(&trackingCloser{Reader: bytes.NewReader(block)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CERTIFICATE")
}

func TestLoadAnchorFile(t *testing.T) {
	cert := newTestCert(t, "file.example.test")
	path := filepath.Join(t.TempDir(), "ca.pem")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	require.NoError(t, os.WriteFile(path, pemBytes, 0o600))

	anchor, err := LoadAnchorFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file.example.test", anchor.Certificates()[0].Subject.CommonName)
}

func TestLoadAnchorFileMissing(t *testing.T) {
	_, err := LoadAnchorFile(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)
}

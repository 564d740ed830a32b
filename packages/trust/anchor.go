package trust

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"os"
)

// Anchor is a caller-supplied trust store: a certificate pool the
// aggregator consults after the platform trust store.
type Anchor struct {
	pool  *x509.CertPool
	certs []*x509.Certificate
}

// NewAnchor builds an anchor from already-parsed certificates.
func NewAnchor(certs ...*x509.Certificate) *Anchor {
	pool := x509.NewCertPool()
	for _, cert := range certs {
		pool.AddCert(cert)
	}
	return &Anchor{pool: pool, certs: certs}
}

// LoadAnchor parses one X.509 certificate, PEM or raw DER, from r. The
// stream is always closed, also when parsing fails. Parse failures are
// meant to be fatal at client construction, never deferred to the first
// request.
func LoadAnchor(r io.ReadCloser) (*Anchor, error) {
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading certificate: %w", err)
	}

	cert, err := parseCertificate(data)
	if err != nil {
		return nil, err
	}
	return NewAnchor(cert), nil
}

// LoadAnchorFile loads an anchor from a certificate file.
func LoadAnchorFile(path string) (*Anchor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening certificate %s: %w", path, err)
	}
	return LoadAnchor(f)
}

// Certificates returns the anchor's certificates in load order.
func (a *Anchor) Certificates() []*x509.Certificate {
	return a.certs
}

func parseCertificate(data []byte) (*x509.Certificate, error) {
	if block, _ := pem.Decode(data); block != nil {
		if block.Type != "CERTIFICATE" {
			return nil, fmt.Errorf("unexpected PEM block %q, want CERTIFICATE", block.Type)
		}
		data = block.Bytes
	}

	cert, err := x509.ParseCertificate(data)
	if err != nil {
		return nil, fmt.Errorf("parsing certificate: %w", err)
	}
	return cert, nil
}

package trust

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCert(t *testing.T, cn string, usages ...x509.ExtKeyUsage) *x509.Certificate {
	t.Helper()

	if len(usages) == 0 {
		usages = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth}
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           usages,
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{cn},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func TestAggregatorAcceptsAnchoredChain(t *testing.T) {
	cert := newTestCert(t, "pinned.example.test")
	agg := NewAggregator(NewAnchor(cert))

	// The platform authority rejects this self-signed chain; the anchor
	// authority behind it accepts it, which is enough.
	err := agg.Validate([]*x509.Certificate{cert}, RoleServer)
	assert.NoError(t, err)
}

func TestAggregatorFirstSuccessWins(t *testing.T) {
	other := newTestCert(t, "other.example.test")
	pinned := newTestCert(t, "pinned.example.test")

	agg := NewAggregator(NewAnchor(other), NewAnchor(pinned))

	err := agg.Validate([]*x509.Certificate{pinned}, RoleServer)
	assert.NoError(t, err)
}

func TestAggregatorRejectsUnknownChain(t *testing.T) {
	cert := newTestCert(t, "stranger.example.test")
	agg := NewAggregator()

	err := agg.Validate([]*x509.Certificate{cert}, RoleServer)
	require.Error(t, err)

	var trustErr *Error
	require.ErrorAs(t, err, &trustErr)

	// The failure reveals neither the rejecting authorities nor the chain.
	assert.NotContains(t, err.Error(), "stranger.example.test")
}

func TestAggregatorRejectsEmptyChain(t *testing.T) {
	agg := NewAggregator(NewAnchor(newTestCert(t, "pinned.example.test")))

	var trustErr *Error
	require.ErrorAs(t, agg.Validate(nil, RoleServer), &trustErr)
}

func TestAggregatorHonorsRole(t *testing.T) {
	serverOnly := newTestCert(t, "server.example.test", x509.ExtKeyUsageServerAuth)
	agg := NewAggregator(NewAnchor(serverOnly))

	assert.NoError(t, agg.Validate([]*x509.Certificate{serverOnly}, RoleServer))

	var trustErr *Error
	require.ErrorAs(t, agg.Validate([]*x509.Certificate{serverOnly}, RoleClient), &trustErr)
}

func TestAcceptedIssuersConcatenation(t *testing.T) {
	first := newTestCert(t, "first.example.test")
	second := newTestCert(t, "second.example.test")

	agg := NewAggregator(NewAnchor(first), NewAnchor(second))

	issuers := agg.AcceptedIssuers()
	require.Len(t, issuers, 2)
	assert.Equal(t, "first.example.test", issuers[0].Subject.CommonName)
	assert.Equal(t, "second.example.test", issuers[1].Subject.CommonName)
}

func TestAcceptedIssuersKeepsDuplicates(t *testing.T) {
	cert := newTestCert(t, "shared.example.test")

	agg := NewAggregator(NewAnchor(cert), NewAnchor(cert))

	assert.Len(t, agg.AcceptedIssuers(), 2)
}

func TestTLSConfigDelegatesVerification(t *testing.T) {
	agg := NewAggregator()

	cfg := agg.TLSConfig()
	require.NotNil(t, cfg.VerifyConnection)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.EqualValues(t, tls.VersionTLS12, cfg.MinVersion)
}

func TestTLSConfigForHostCarriesServerName(t *testing.T) {
	agg := NewAggregator()

	// ServerName is what crypto/tls puts into the ClientHello's SNI
	// extension; name-based virtual hosts select their certificate by it.
	cfg := agg.TLSConfigForHost("vhost.example.test")
	assert.Equal(t, "vhost.example.test", cfg.ServerName)
	require.NotNil(t, cfg.VerifyConnection)

	assert.Empty(t, agg.TLSConfig().ServerName)
}

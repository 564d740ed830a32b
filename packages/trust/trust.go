package trust

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
)

// Role selects the extended key usage a certificate chain is validated
// against.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) keyUsage() x509.ExtKeyUsage {
	if r == RoleClient {
		return x509.ExtKeyUsageClientAuth
	}
	return x509.ExtKeyUsageServerAuth
}

// Authority decides whether a presented certificate chain should be
// trusted.
type Authority interface {
	Validate(chain []*x509.Certificate, role Role) error
	AcceptedIssuers() []*x509.Certificate
}

// Error reports that no configured authority accepted a certificate chain.
// It carries neither the individual authorities' failures nor the chain
// contents.
type Error struct{}

func (e *Error) Error() string {
	return "certificate chain is not trusted by any configured authority"
}

// Aggregator consults an ordered list of authorities, always the platform
// default first and then one per custom anchor. It is immutable after
// construction and safe for concurrent use.
type Aggregator struct {
	authorities []Authority
}

func NewAggregator(anchors ...*Anchor) *Aggregator {
	authorities := make([]Authority, 0, len(anchors)+1)
	authorities = append(authorities, systemAuthority{})
	for _, anchor := range anchors {
		authorities = append(authorities, anchorAuthority{anchor: anchor})
	}
	return &Aggregator{authorities: authorities}
}

// Validate accepts the chain as soon as one authority accepts it, in
// construction order. When every authority rejects it, the individual
// failures are discarded and a bare *Error is returned.
func (a *Aggregator) Validate(chain []*x509.Certificate, role Role) error {
	for _, authority := range a.authorities {
		if err := authority.Validate(chain, role); err == nil {
			return nil
		}
	}
	return &Error{}
}

// AcceptedIssuers concatenates every authority's accepted issuers in
// authority order, without deduplication.
func (a *Aggregator) AcceptedIssuers() []*x509.Certificate {
	var issuers []*x509.Certificate
	for _, authority := range a.authorities {
		issuers = append(issuers, authority.AcceptedIssuers()...)
	}
	return issuers
}

// TLSConfig returns a client TLS configuration whose chain verification is
// delegated to the aggregator. Standard verification is replaced, not
// skipped: the handshake still fails when no authority accepts the chain or
// when the leaf does not match the connection's server name.
func (a *Aggregator) TLSConfig() *tls.Config {
	return a.tlsConfig("")
}

// TLSConfigForHost is TLSConfig with host carried in the handshake's SNI
// extension (crypto/tls omits it for IP literals) and the leaf verified
// against host instead of the negotiated server name. Dialers that know the
// target host should prefer this.
func (a *Aggregator) TLSConfigForHost(host string) *tls.Config {
	return a.tlsConfig(host)
}

func (a *Aggregator) tlsConfig(host string) *tls.Config {
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         host,
		InsecureSkipVerify: true,
		VerifyConnection: func(cs tls.ConnectionState) error {
			if err := a.Validate(cs.PeerCertificates, RoleServer); err != nil {
				return err
			}
			name := host
			if name == "" {
				name = cs.ServerName
			}
			return cs.PeerCertificates[0].VerifyHostname(name)
		},
	}
}

// systemAuthority validates against the platform trust store.
type systemAuthority struct{}

func (systemAuthority) Validate(chain []*x509.Certificate, role Role) error {
	return verifyChain(chain, nil, role)
}

// AcceptedIssuers returns nil: the platform does not enumerate its roots.
func (systemAuthority) AcceptedIssuers() []*x509.Certificate {
	return nil
}

// anchorAuthority validates against one caller-supplied anchor.
type anchorAuthority struct {
	anchor *Anchor
}

func (a anchorAuthority) Validate(chain []*x509.Certificate, role Role) error {
	return verifyChain(chain, a.anchor.pool, role)
}

func (a anchorAuthority) AcceptedIssuers() []*x509.Certificate {
	return a.anchor.Certificates()
}

// verifyChain verifies the leaf against roots (nil means platform roots),
// treating the remaining chain entries as intermediates.
func verifyChain(chain []*x509.Certificate, roots *x509.CertPool, role Role) error {
	if len(chain) == 0 {
		return errors.New("empty certificate chain")
	}

	opts := x509.VerifyOptions{
		Roots:         roots,
		Intermediates: x509.NewCertPool(),
		KeyUsages:     []x509.ExtKeyUsage{role.keyUsage()},
	}
	for _, cert := range chain[1:] {
		opts.Intermediates.AddCert(cert)
	}

	_, err := chain[0].Verify(opts)
	return err
}

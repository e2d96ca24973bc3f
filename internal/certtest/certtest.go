// Package certtest mints throwaway certificate authorities and server
// credentials for tests. Nothing in here is suitable for production use;
// the server itself never issues or generates key material.
package certtest

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// KeyType selects the private key family for an issued credential.
type KeyType string

const (
	RSA     KeyType = "rsa"
	ECDSA   KeyType = "ecdsa"
	Ed25519 KeyType = "ed25519"
)

// CA is a self-signed signing authority for test credentials.
type CA struct {
	Cert *x509.Certificate
	Key  crypto.Signer

	// Parents holds the issuing chain above this CA, nearest first.
	// Empty for a root.
	Parents []*CA
}

// Credential is an issued server certificate with its private key and the
// DER chain ordered leaf first.
type Credential struct {
	Cert  *x509.Certificate
	Key   crypto.Signer
	Chain [][]byte
}

type options struct {
	keyType    KeyType
	commonName string
	notBefore  time.Time
	notAfter   time.Time
	dnsNames   []string
}

// Option adjusts an issued credential.
type Option func(*options)

// WithKeyType issues the credential with the given key family.
func WithKeyType(kt KeyType) Option {
	return func(o *options) { o.keyType = kt }
}

// WithValidity pins the certificate validity window.
func WithValidity(notBefore, notAfter time.Time) Option {
	return func(o *options) {
		o.notBefore = notBefore
		o.notAfter = notAfter
	}
}

// WithCommonName overrides the subject common name.
func WithCommonName(cn string) Option {
	return func(o *options) { o.commonName = cn }
}

// WithDNSNames overrides the subject alternative names.
func WithDNSNames(names ...string) Option {
	return func(o *options) { o.dnsNames = names }
}

// NewCA creates a self-signed root authority with an ECDSA P-256 key.
func NewCA(tb testing.TB, name string) *CA {
	tb.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(tb, err)

	tmpl := &x509.Certificate{
		SerialNumber:          newSerial(tb),
		Subject:               pkix.Name{CommonName: name},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, key.Public(), key)
	require.NoError(tb, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(tb, err)

	return &CA{Cert: cert, Key: key}
}

// Intermediate issues a subordinate CA signed by the receiver. Credentials
// issued by the intermediate carry it in their chain.
func (ca *CA) Intermediate(tb testing.TB, name string) *CA {
	tb.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(tb, err)

	tmpl := &x509.Certificate{
		SerialNumber:          newSerial(tb),
		Subject:               pkix.Name{CommonName: name},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, ca.Cert, key.Public(), ca.Key)
	require.NoError(tb, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(tb, err)

	return &CA{Cert: cert, Key: key, Parents: append([]*CA{ca}, ca.Parents...)}
}

// Issue creates a server credential signed by the CA. Defaults: ECDSA P-256
// key, CN "localhost", SANs localhost/127.0.0.1, valid from an hour ago for
// 24 hours.
func (ca *CA) Issue(tb testing.TB, opts ...Option) *Credential {
	tb.Helper()

	o := &options{
		keyType:    ECDSA,
		commonName: "localhost",
		notBefore:  time.Now().Add(-time.Hour),
		notAfter:   time.Now().Add(24 * time.Hour),
		dnsNames:   []string{"localhost"},
	}
	for _, opt := range opts {
		opt(o)
	}

	key := newKey(tb, o.keyType)

	tmpl := &x509.Certificate{
		SerialNumber: newSerial(tb),
		Subject:      pkix.Name{CommonName: o.commonName},
		NotBefore:    o.notBefore,
		NotAfter:     o.notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		DNSNames:     o.dnsNames,
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}
	if o.keyType == RSA {
		tmpl.KeyUsage |= x509.KeyUsageKeyEncipherment
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, ca.Cert, key.Public(), ca.Key)
	require.NoError(tb, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(tb, err)

	chain := [][]byte{der, ca.Cert.Raw}
	for _, parent := range ca.Parents {
		chain = append(chain, parent.Cert.Raw)
	}
	// Drop the root from the served chain; peers are expected to hold it.
	chain = chain[:len(chain)-1]

	return &Credential{Cert: cert, Key: key, Chain: chain}
}

// Root returns the topmost authority above the CA, or the CA itself.
func (ca *CA) Root() *CA {
	if len(ca.Parents) == 0 {
		return ca
	}
	return ca.Parents[len(ca.Parents)-1]
}

// PEM returns the CA certificate as a PEM block.
func (ca *CA) PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ca.Cert.Raw})
}

// ChainPEM returns the credential chain, leaf first, as concatenated PEM.
func (c *Credential) ChainPEM() []byte {
	var out []byte
	for _, der := range c.Chain {
		out = append(out, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})...)
	}
	return out
}

// KeyPEM returns the private key as a PKCS#8 PEM block.
func (c *Credential) KeyPEM(tb testing.TB) []byte {
	tb.Helper()

	der, err := x509.MarshalPKCS8PrivateKey(c.Key)
	require.NoError(tb, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

// WriteFiles writes cert.pem, key.pem and ca.pem under dir and returns the
// three paths. The key file is written owner-read-write only.
func WriteFiles(tb testing.TB, dir string, cred *Credential, ca *CA) (certPath, keyPath, caPath string) {
	tb.Helper()

	certPath = filepath.Join(dir, "cert.pem")
	keyPath = filepath.Join(dir, "key.pem")
	caPath = filepath.Join(dir, "ca.pem")

	require.NoError(tb, os.WriteFile(certPath, cred.ChainPEM(), 0o644))
	require.NoError(tb, os.WriteFile(keyPath, cred.KeyPEM(tb), 0o600))
	require.NoError(tb, os.WriteFile(caPath, ca.Root().PEM(), 0o644))

	return certPath, keyPath, caPath
}

func newKey(tb testing.TB, kt KeyType) crypto.Signer {
	tb.Helper()

	switch kt {
	case RSA:
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(tb, err)
		return key
	case Ed25519:
		_, key, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(tb, err)
		return key
	default:
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(tb, err)
		return key
	}
}

func newSerial(tb testing.TB) *big.Int {
	tb.Helper()

	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	serial, err := rand.Int(rand.Reader, limit)
	require.NoError(tb, err)
	return serial
}

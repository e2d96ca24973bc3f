// Package certs loads and audits the server credential material the process
// serves with: the leaf-first certificate chain, its private key, and the CA
// trust bundle. Material is read once at startup; rotation requires a restart.
package certs

import (
	"crypto"
	"crypto/x509"
	"io/fs"
)

// KeyAlgorithm identifies the private key family.
type KeyAlgorithm string

const (
	KeyRSA     KeyAlgorithm = "rsa"
	KeyECDSA   KeyAlgorithm = "ecdsa"
	KeyEd25519 KeyAlgorithm = "ed25519"
)

// Material is the decoded server credential. The chain is ordered leaf first.
// After the TLS config is built the config is the only long-lived holder of
// the private key; Material itself is discarded by the bootstrap sequence.
type Material struct {
	Leaf       *x509.Certificate
	Chain      []*x509.Certificate // leaf first, intermediates after
	PrivateKey crypto.Signer
	KeyAlg     KeyAlgorithm

	// KeyPath and KeyMode record where the key came from and the permission
	// bits observed at load time, for the ownership audit.
	KeyPath string
	KeyMode fs.FileMode

	// Fingerprint is the base58-encoded SHA-256 of the leaf certificate.
	Fingerprint string
}

// TrustBundle holds the CA certificates used to verify peer certificates
// when the handler layer enables client authentication. Duplicate entries
// are kept as-is.
type TrustBundle struct {
	certs []*x509.Certificate
}

// Certificates returns the bundle entries in file order.
func (b *TrustBundle) Certificates() []*x509.Certificate {
	return b.certs
}

// Len returns the number of entries, duplicates included.
func (b *TrustBundle) Len() int {
	return len(b.certs)
}

// Pool builds a cert pool from the bundle for use as tls.Config.ClientCAs.
func (b *TrustBundle) Pool() *x509.CertPool {
	pool := x509.NewCertPool()
	for _, c := range b.certs {
		pool.AddCert(c)
	}
	return pool
}

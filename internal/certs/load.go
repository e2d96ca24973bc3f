package certs

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io/fs"
	"os"

	"github.com/mr-tron/base58"
)

// Load reads the server certificate chain, its private key and the CA bundle.
// Unreadable paths surface as *IOError, undecodable bytes as *FormatError.
// Load performs no validation beyond decoding; see Validate. Key bytes are
// never logged.
func Load(certPath, keyPath, caBundlePath string) (*Material, *TrustBundle, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, nil, &IOError{Path: certPath, Err: err}
	}

	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, nil, &IOError{Path: keyPath, Err: err}
	}

	keyMode, err := KeyFileMode(keyPath)
	if err != nil {
		return nil, nil, err
	}

	caPEM, err := os.ReadFile(caBundlePath)
	if err != nil {
		return nil, nil, &IOError{Path: caBundlePath, Err: err}
	}

	chain, err := parseCertChain(certPath, certPEM)
	if err != nil {
		return nil, nil, err
	}

	key, alg, err := parsePrivateKey(keyPath, keyPEM)
	if err != nil {
		return nil, nil, err
	}

	bundle, err := parseBundle(caBundlePath, caPEM)
	if err != nil {
		return nil, nil, err
	}

	sum := sha256.Sum256(chain[0].Raw)

	material := &Material{
		Leaf:        chain[0],
		Chain:       chain,
		PrivateKey:  key,
		KeyAlg:      alg,
		KeyPath:     keyPath,
		KeyMode:     keyMode,
		Fingerprint: base58.Encode(sum[:]),
	}

	return material, bundle, nil
}

// KeyFileMode stats the private key file and returns its mode. Validation
// uses the mode captured by Load; callers can re-check with a fresh stat.
func KeyFileMode(path string) (fs.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, &IOError{Path: path, Err: err}
	}
	return info.Mode(), nil
}

func parseCertChain(path string, pemBytes []byte) ([]*x509.Certificate, error) {
	var chain []*x509.Certificate

	rest := pemBytes
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, &FormatError{Path: path, Detail: fmt.Sprintf("certificate %d does not parse", len(chain)), Err: err}
		}
		chain = append(chain, cert)
	}

	if len(chain) == 0 {
		return nil, &FormatError{Path: path, Detail: "no certificates found"}
	}

	return chain, nil
}

func parsePrivateKey(path string, pemBytes []byte) (crypto.Signer, KeyAlgorithm, error) {
	rest := pemBytes
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}

		switch block.Type {
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, "", &FormatError{Path: path, Detail: "PKCS#8 key does not parse", Err: err}
			}
			return signerFor(path, key)
		case "RSA PRIVATE KEY":
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, "", &FormatError{Path: path, Detail: "PKCS#1 key does not parse", Err: err}
			}
			return key, KeyRSA, nil
		case "EC PRIVATE KEY":
			key, err := x509.ParseECPrivateKey(block.Bytes)
			if err != nil {
				return nil, "", &FormatError{Path: path, Detail: "SEC1 key does not parse", Err: err}
			}
			return key, KeyECDSA, nil
		}
	}

	return nil, "", &FormatError{Path: path, Detail: "no private key found"}
}

func signerFor(path string, key any) (crypto.Signer, KeyAlgorithm, error) {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return k, KeyRSA, nil
	case *ecdsa.PrivateKey:
		return k, KeyECDSA, nil
	case ed25519.PrivateKey:
		return k, KeyEd25519, nil
	default:
		return nil, "", &FormatError{Path: path, Detail: fmt.Sprintf("unsupported private key type %T", key)}
	}
}

func parseBundle(path string, pemBytes []byte) (*TrustBundle, error) {
	var entries []*x509.Certificate

	rest := pemBytes
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			return nil, &FormatError{Path: path, Detail: fmt.Sprintf("unexpected %q block in CA bundle", block.Type)}
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, &FormatError{Path: path, Detail: fmt.Sprintf("CA certificate %d does not parse", len(entries)), Err: err}
		}
		entries = append(entries, cert)
	}

	if len(entries) == 0 {
		return nil, &FormatError{Path: path, Detail: "no CA certificates found"}
	}

	return &TrustBundle{certs: entries}, nil
}

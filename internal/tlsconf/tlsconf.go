// Package tlsconf builds the immutable TLS server configuration from
// validated credential material and an explicit protocol policy. The builder
// fails closed: anything the policy names that cannot be honored aborts the
// build, there is no silent downgrade.
package tlsconf

import (
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/koradi/koradi-admin/internal/certs"
	"github.com/koradi/koradi-admin/internal/config"
)

// Policy is the negotiation posture for the listener. Cipher suites and
// curves are allow-lists by standard name; unknown or insecure names are
// build errors, never skipped.
type Policy struct {
	MinVersion   string
	CipherSuites []string
	Curves       []string
	ClientAuth   bool
	NextProtos   []string
}

// PolicyFromConfig derives the policy from the resolved runtime
// configuration.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		MinVersion:   cfg.MinTLSVersion,
		CipherSuites: cfg.AllowedCipherSuites,
		Curves:       cfg.CurvePreferences,
		ClientAuth:   cfg.ClientAuth,
		NextProtos:   []string{"h2", "http/1.1"},
	}
}

// ContextError reports a policy that cannot be satisfied by the supplied
// material. Bootstrap treats it as fatal.
type ContextError struct {
	Detail string
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("tls context rejected: %s", e.Detail)
}

func contextErrorf(format string, args ...any) *ContextError {
	return &ContextError{Detail: fmt.Sprintf(format, args...)}
}

// Build assembles the server TLS configuration. The result is deterministic
// for identical inputs: suite and curve ordering follows the policy, and the
// produced config is the single long-lived holder of the private key.
func Build(material *certs.Material, bundle *certs.TrustBundle, policy Policy) (*tls.Config, error) {
	minVersion, err := resolveMinVersion(policy.MinVersion)
	if err != nil {
		return nil, err
	}

	suites, err := resolveSuites(policy.CipherSuites)
	if err != nil {
		return nil, err
	}

	if minVersion == tls.VersionTLS12 {
		if err := checkSuiteKeyCompat(suites, material.KeyAlg); err != nil {
			return nil, err
		}
	}

	curves, err := resolveCurves(policy.Curves)
	if err != nil {
		return nil, err
	}

	chain := make([][]byte, 0, len(material.Chain))
	for _, c := range material.Chain {
		chain = append(chain, c.Raw)
	}

	cfg := &tls.Config{
		MinVersion: minVersion,
		Certificates: []tls.Certificate{{
			Certificate: chain,
			PrivateKey:  material.PrivateKey,
			Leaf:        material.Leaf,
		}},
		CipherSuites:     suiteIDs(suites),
		CurvePreferences: curves,
		NextProtos:       append([]string(nil), policy.NextProtos...),
	}

	if policy.ClientAuth {
		if bundle == nil || bundle.Len() == 0 {
			return nil, contextErrorf("client auth requested but the trust bundle is empty")
		}
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
		cfg.ClientCAs = bundle.Pool()
	}

	return cfg, nil
}

func resolveMinVersion(v string) (uint16, error) {
	switch v {
	case "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	case "1.0", "1.1":
		return 0, contextErrorf("minimum TLS version %s is below the 1.2 floor", v)
	default:
		return 0, contextErrorf("unknown minimum TLS version %q", v)
	}
}

// resolveSuites maps suite names onto the runtime's secure suite set. Names
// the runtime considers insecure are called out explicitly.
func resolveSuites(names []string) ([]*tls.CipherSuite, error) {
	if len(names) == 0 {
		return nil, contextErrorf("cipher suite allow-list is empty")
	}

	secure := make(map[string]*tls.CipherSuite)
	for _, s := range tls.CipherSuites() {
		secure[s.Name] = s
	}
	insecure := make(map[string]bool)
	for _, s := range tls.InsecureCipherSuites() {
		insecure[s.Name] = true
	}

	resolved := make([]*tls.CipherSuite, 0, len(names))
	for _, name := range names {
		if insecure[name] {
			return nil, contextErrorf("cipher suite %s is insecure and cannot be allowed", name)
		}
		suite, ok := secure[name]
		if !ok {
			return nil, contextErrorf("unknown cipher suite %q", name)
		}
		resolved = append(resolved, suite)
	}

	return resolved, nil
}

// checkSuiteKeyCompat verifies that at least one allowed TLS 1.2 suite can
// be served with the loaded key. An allow-list no 1.2 client could ever
// negotiate is a misconfiguration, not something to paper over.
func checkSuiteKeyCompat(suites []*tls.CipherSuite, alg certs.KeyAlgorithm) error {
	usable := 0
	for _, s := range suites {
		if !supportsTLS12(s) {
			continue
		}
		if suiteMatchesKey(s.Name, alg) {
			usable++
		}
	}
	if usable == 0 {
		return contextErrorf("no allowed TLS 1.2 cipher suite is usable with a %s key", alg)
	}
	return nil
}

func supportsTLS12(s *tls.CipherSuite) bool {
	for _, v := range s.SupportedVersions {
		if v == tls.VersionTLS12 {
			return true
		}
	}
	return false
}

func suiteMatchesKey(name string, alg certs.KeyAlgorithm) bool {
	switch {
	case strings.Contains(name, "_ECDSA_"):
		return alg == certs.KeyECDSA || alg == certs.KeyEd25519
	case strings.Contains(name, "_RSA_"):
		return alg == certs.KeyRSA
	default:
		// TLS 1.3 style suites are key-agnostic.
		return true
	}
}

func suiteIDs(suites []*tls.CipherSuite) []uint16 {
	ids := make([]uint16, 0, len(suites))
	for _, s := range suites {
		ids = append(ids, s.ID)
	}
	return ids
}

func resolveCurves(names []string) ([]tls.CurveID, error) {
	if len(names) == 0 {
		return nil, contextErrorf("curve preference list is empty")
	}

	curves := make([]tls.CurveID, 0, len(names))
	for _, name := range names {
		id, ok := curveByName(name)
		if !ok {
			return nil, contextErrorf("unknown key-exchange group %q", name)
		}
		curves = append(curves, id)
	}

	return curves, nil
}

func curveByName(name string) (tls.CurveID, bool) {
	switch name {
	case "X25519":
		return tls.X25519, true
	case "P-256":
		return tls.CurveP256, true
	case "P-384":
		return tls.CurveP384, true
	case "P-521":
		return tls.CurveP521, true
	case "X25519MLKEM768":
		return tls.X25519MLKEM768, true
	default:
		return 0, false
	}
}

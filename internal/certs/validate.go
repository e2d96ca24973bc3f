package certs

import (
	"crypto"
	"io/fs"
	"time"
)

// Status is the immutable audit snapshot computed once per process start.
// A fresh snapshot requires a full restart; there is no hot reload.
type Status struct {
	Subject      string
	SerialNumber string
	Fingerprint  string
	NotBefore    time.Time
	NotAfter     time.Time
	KeyAlg       KeyAlgorithm
	KeyMode      fs.FileMode
	KeyPairMatch bool
	TrustAnchors int
	CheckedAt    time.Time
}

// ExpiresIn reports how long the leaf remains valid from the audit time.
func (s *Status) ExpiresIn() time.Duration {
	return s.NotAfter.Sub(s.CheckedAt)
}

// Validate audits loaded material against the injected clock value and
// returns the status snapshot. Checks run in a fixed order and stop at the
// first failure, each reported as a *ValidationError:
//
//  1. the leaf is structurally well-formed
//  2. now falls inside [NotBefore, NotAfter], boundaries inclusive
//  3. the private key matches the leaf public key
//  4. the chain is leaf-first and every link verifies
//  5. the key file mode grants no group or world access
//
// now is an argument, not a clock read, so results are reproducible.
func Validate(m *Material, bundle *TrustBundle, now time.Time) (*Status, error) {
	if err := checkLeaf(m); err != nil {
		return nil, err
	}
	if err := checkWindow(m, now); err != nil {
		return nil, err
	}
	if err := checkKeyPair(m); err != nil {
		return nil, err
	}
	if err := checkChain(m); err != nil {
		return nil, err
	}
	if err := CheckKeyMode(m.KeyMode); err != nil {
		return nil, err
	}

	status := &Status{
		Subject:      m.Leaf.Subject.String(),
		SerialNumber: m.Leaf.SerialNumber.Text(16),
		Fingerprint:  m.Fingerprint,
		NotBefore:    m.Leaf.NotBefore,
		NotAfter:     m.Leaf.NotAfter,
		KeyAlg:       m.KeyAlg,
		KeyMode:      m.KeyMode,
		KeyPairMatch: true,
		CheckedAt:    now,
	}
	if bundle != nil {
		status.TrustAnchors = bundle.Len()
	}

	return status, nil
}

// CheckKeyMode enforces the owner-only policy on the private key file mode.
// The check is idempotent: a passing mode always passes again.
func CheckKeyMode(mode fs.FileMode) error {
	if mode.Perm()&0o077 != 0 {
		return &ValidationError{Reason: InsecurePermissions, Detail: insecureModeDetail(mode)}
	}
	return nil
}

func checkLeaf(m *Material) error {
	if m == nil || m.Leaf == nil || len(m.Chain) == 0 {
		return validationErrorf(MalformedChain, "certificate chain is empty")
	}
	leaf := m.Leaf
	if leaf.SerialNumber == nil {
		return validationErrorf(MalformedChain, "leaf certificate has no serial number")
	}
	if leaf.NotBefore.IsZero() || leaf.NotAfter.IsZero() {
		return validationErrorf(MalformedChain, "leaf certificate has no validity window")
	}
	if leaf.NotAfter.Before(leaf.NotBefore) {
		return validationErrorf(MalformedChain, "leaf validity window ends before it begins")
	}
	return nil
}

func checkWindow(m *Material, now time.Time) error {
	if now.Before(m.Leaf.NotBefore) {
		return validationErrorf(ExpiredOrNotYetValid, "certificate not valid before %s", m.Leaf.NotBefore.Format(time.RFC3339))
	}
	if now.After(m.Leaf.NotAfter) {
		return validationErrorf(ExpiredOrNotYetValid, "certificate expired at %s", m.Leaf.NotAfter.Format(time.RFC3339))
	}
	return nil
}

func checkKeyPair(m *Material) error {
	if m.PrivateKey == nil {
		return validationErrorf(KeyMismatch, "no private key loaded")
	}
	pub, ok := m.Leaf.PublicKey.(interface{ Equal(crypto.PublicKey) bool })
	if !ok {
		return validationErrorf(KeyMismatch, "leaf public key type %T is not comparable", m.Leaf.PublicKey)
	}
	if !pub.Equal(m.PrivateKey.Public()) {
		return validationErrorf(KeyMismatch, "private key does not match the leaf certificate public key")
	}
	return nil
}

// checkChain verifies leaf-first ordering: every certificate after the leaf
// must be the issuer of the one before it.
func checkChain(m *Material) error {
	current := m.Chain[0]
	for i, next := range m.Chain[1:] {
		if current.Issuer.String() != next.Subject.String() {
			return validationErrorf(MalformedChain,
				"chain out of order at position %d: issuer %q does not match subject %q",
				i+1, current.Issuer.String(), next.Subject.String())
		}
		if err := current.CheckSignatureFrom(next); err != nil {
			return validationErrorf(MalformedChain, "signature check failed at position %d: %v", i+1, err)
		}
		current = next
	}
	return nil
}

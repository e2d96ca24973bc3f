package certs

import (
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/koradi/koradi-admin/internal/certtest"
)

func loadTestMaterial(t *testing.T, opts ...certtest.Option) (*Material, *TrustBundle) {
	t.Helper()

	ca := certtest.NewCA(t, "koradi test root")
	cred := ca.Issue(t, opts...)
	certPath, keyPath, caPath := certtest.WriteFiles(t, t.TempDir(), cred, ca)

	material, bundle, err := Load(certPath, keyPath, caPath)
	require.NoError(t, err)
	return material, bundle
}

func TestValidate(t *testing.T) {
	notBefore := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	notAfter := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	t.Run("valid material passes and fills the snapshot", func(t *testing.T) {
		material, bundle := loadTestMaterial(t, certtest.WithValidity(notBefore, notAfter))

		now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
		status, err := Validate(material, bundle, now)
		require.NoError(t, err)
		require.True(t, status.KeyPairMatch)
		require.Equal(t, material.Fingerprint, status.Fingerprint)
		require.Equal(t, KeyECDSA, status.KeyAlg)
		require.Equal(t, 1, status.TrustAnchors)
		require.Equal(t, now, status.CheckedAt)
		require.Equal(t, notAfter.Sub(now), status.ExpiresIn())
	})

	t.Run("window boundaries are inclusive", func(t *testing.T) {
		material, bundle := loadTestMaterial(t, certtest.WithValidity(notBefore, notAfter))

		_, err := Validate(material, bundle, material.Leaf.NotBefore)
		require.NoError(t, err)

		_, err = Validate(material, bundle, material.Leaf.NotAfter)
		require.NoError(t, err)
	})

	t.Run("not yet valid fails", func(t *testing.T) {
		material, bundle := loadTestMaterial(t, certtest.WithValidity(notBefore, notAfter))

		_, err := Validate(material, bundle, material.Leaf.NotBefore.Add(-time.Second))
		requireValidationReason(t, err, ExpiredOrNotYetValid)
	})

	t.Run("expired fails", func(t *testing.T) {
		material, bundle := loadTestMaterial(t, certtest.WithValidity(notBefore, notAfter))

		_, err := Validate(material, bundle, material.Leaf.NotAfter.Add(time.Second))
		requireValidationReason(t, err, ExpiredOrNotYetValid)
	})

	t.Run("mismatched key fails with KeyMismatch", func(t *testing.T) {
		material, bundle := loadTestMaterial(t)

		ca := certtest.NewCA(t, "koradi other root")
		other := ca.Issue(t)
		material.PrivateKey = other.Key

		_, err := Validate(material, bundle, time.Now())
		requireValidationReason(t, err, KeyMismatch)
	})

	t.Run("mismatch across key families fails with KeyMismatch", func(t *testing.T) {
		material, bundle := loadTestMaterial(t)

		ca := certtest.NewCA(t, "koradi other root")
		other := ca.Issue(t, certtest.WithKeyType(certtest.RSA))
		material.PrivateKey = other.Key

		_, err := Validate(material, bundle, time.Now())
		requireValidationReason(t, err, KeyMismatch)
	})

	t.Run("intermediate chain in order passes", func(t *testing.T) {
		root := certtest.NewCA(t, "koradi test root")
		inter := root.Intermediate(t, "koradi test intermediate")
		cred := inter.Issue(t)
		certPath, keyPath, caPath := certtest.WriteFiles(t, t.TempDir(), cred, inter)

		material, bundle, err := Load(certPath, keyPath, caPath)
		require.NoError(t, err)

		_, err = Validate(material, bundle, time.Now())
		require.NoError(t, err)
	})

	t.Run("chain with wrong issuer fails with MalformedChain", func(t *testing.T) {
		material, bundle := loadTestMaterial(t)

		stranger := certtest.NewCA(t, "unrelated root")
		material.Chain = append(material.Chain, stranger.Cert)

		_, err := Validate(material, bundle, time.Now())
		requireValidationReason(t, err, MalformedChain)
	})

	t.Run("empty chain fails with MalformedChain", func(t *testing.T) {
		_, bundle := loadTestMaterial(t)

		_, err := Validate(&Material{}, bundle, time.Now())
		requireValidationReason(t, err, MalformedChain)
	})

	t.Run("group readable key fails with InsecurePermissions", func(t *testing.T) {
		material, bundle := loadTestMaterial(t)
		material.KeyMode = 0o640

		_, err := Validate(material, bundle, time.Now())
		requireValidationReason(t, err, InsecurePermissions)
	})

	t.Run("world readable key fails with InsecurePermissions", func(t *testing.T) {
		material, bundle := loadTestMaterial(t)
		material.KeyMode = 0o604

		_, err := Validate(material, bundle, time.Now())
		requireValidationReason(t, err, InsecurePermissions)
	})

	t.Run("tightening the mode flips the result", func(t *testing.T) {
		material, bundle := loadTestMaterial(t)

		material.KeyMode = 0o644
		_, err := Validate(material, bundle, time.Now())
		requireValidationReason(t, err, InsecurePermissions)

		material.KeyMode = 0o600
		_, err = Validate(material, bundle, time.Now())
		require.NoError(t, err)
	})
}

func TestCheckKeyMode(t *testing.T) {
	tests := []struct {
		name string
		mode fs.FileMode
		ok   bool
	}{
		{name: "owner read write", mode: 0o600, ok: true},
		{name: "owner read only", mode: 0o400, ok: true},
		{name: "group readable", mode: 0o640, ok: false},
		{name: "group writable", mode: 0o620, ok: false},
		{name: "world readable", mode: 0o604, ok: false},
		{name: "world everything", mode: 0o777, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckKeyMode(tt.mode)
			if tt.ok {
				require.NoError(t, err)
				// Re-checking a passing mode always passes.
				require.NoError(t, CheckKeyMode(tt.mode))
				return
			}
			requireValidationReason(t, err, InsecurePermissions)
		})
	}
}

func requireValidationReason(t *testing.T, err error, reason Reason) {
	t.Helper()

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, reason, vErr.Reason)
}

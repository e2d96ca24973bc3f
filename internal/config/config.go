// Package config holds the resolved runtime configuration for the transport
// bootstrap. Flag and environment parsing lives in the command layer; the
// core packages only ever see this struct.
package config

import (
	"fmt"
	"net"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the transport-security configuration consumed by the bootstrap
// sequence. It is resolved once at startup and treated as immutable.
type Config struct {
	// ListenAddress is the host:port the TLS listener binds to.
	ListenAddress string `validate:"required,listen_addr"`

	// Credential material paths, read once at startup.
	CertPath     string `validate:"required"`
	KeyPath      string `validate:"required"`
	CABundlePath string `validate:"required"`

	// MinTLSVersion is "1.2" or "1.3". Anything older is rejected.
	MinTLSVersion string `validate:"required,tls_version"`

	// AllowedCipherSuites is the TLS 1.2 suite allow-list by standard name.
	// Suites not listed are never offered.
	AllowedCipherSuites []string `validate:"required,min=1"`

	// CurvePreferences lists the allowed key-exchange groups in preference
	// order.
	CurvePreferences []string `validate:"required,min=1"`

	// ClientAuth requires and verifies peer certificates against the CA
	// bundle when set.
	ClientAuth bool

	// HandshakeTimeout bounds a single TLS handshake.
	HandshakeTimeout time.Duration `validate:"min=0"`

	// DrainGrace bounds graceful shutdown; sessions still open when it
	// expires are force-closed.
	DrainGrace time.Duration `validate:"min=0"`
}

const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultDrainGrace       = 30 * time.Second
)

// DefaultCipherSuites is the out-of-the-box TLS 1.2 allow-list: AEAD-only
// ECDHE suites covering both RSA and ECDSA server keys.
func DefaultCipherSuites() []string {
	return []string{
		"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256",
		"TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384",
		"TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256",
		"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256",
		"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384",
		"TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256",
	}
}

// DefaultCurvePreferences is the out-of-the-box key-exchange group list.
func DefaultCurvePreferences() []string {
	return []string{"X25519", "P-256", "P-384"}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("listen_addr", validateListenAddr)
	_ = v.RegisterValidation("tls_version", validateTLSVersion)

	return v
}

// Validate checks the configuration before bootstrap uses it.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ApplyDefaults fills zero-valued optional fields.
func (c *Config) ApplyDefaults() {
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.DrainGrace == 0 {
		c.DrainGrace = DefaultDrainGrace
	}
	if len(c.AllowedCipherSuites) == 0 {
		c.AllowedCipherSuites = DefaultCipherSuites()
	}
	if len(c.CurvePreferences) == 0 {
		c.CurvePreferences = DefaultCurvePreferences()
	}
}

// validateListenAddr accepts host:port with a numeric port. The host may be
// empty ("all interfaces") or any name/IP; resolution happens at bind time.
func validateListenAddr(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	if addr == "" {
		return true // handled by required
	}

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if port == "" {
		return false
	}
	for _, r := range port {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validateTLSVersion accepts only versions the context builder supports.
func validateTLSVersion(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "1.2", "1.3":
		return true
	case "":
		return true // handled by required
	default:
		return false
	}
}

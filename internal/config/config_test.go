package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		ListenAddress:       "0.0.0.0:8443",
		CertPath:            "/certs/server.pem",
		KeyPath:             "/certs/server.key",
		CABundlePath:        "/certs/ca.pem",
		MinTLSVersion:       "1.2",
		AllowedCipherSuites: DefaultCipherSuites(),
		CurvePreferences:    DefaultCurvePreferences(),
		HandshakeTimeout:    DefaultHandshakeTimeout,
		DrainGrace:          DefaultDrainGrace,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("tls 1.3 passes", func(t *testing.T) {
		cfg := validConfig()
		cfg.MinTLSVersion = "1.3"
		require.NoError(t, cfg.Validate())
	})

	t.Run("missing cert path fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.CertPath = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("missing key path fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.KeyPath = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("missing bundle path fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.CABundlePath = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("legacy tls version fails", func(t *testing.T) {
		for _, v := range []string{"1.0", "1.1", "ssl3", "tls1.2"} {
			cfg := validConfig()
			cfg.MinTLSVersion = v
			require.Error(t, cfg.Validate(), "version %q should be rejected", v)
		}
	})

	t.Run("empty cipher suite list fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.AllowedCipherSuites = nil
		require.Error(t, cfg.Validate())
	})

	t.Run("empty curve list fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.CurvePreferences = nil
		require.Error(t, cfg.Validate())
	})

	t.Run("listen address variants", func(t *testing.T) {
		tests := []struct {
			addr string
			ok   bool
		}{
			{addr: "0.0.0.0:8443", ok: true},
			{addr: ":8443", ok: true},
			{addr: "localhost:443", ok: true},
			{addr: "[::1]:8443", ok: true},
			{addr: "8443", ok: false},
			{addr: "localhost", ok: false},
			{addr: "localhost:", ok: false},
			{addr: "localhost:https", ok: false},
		}

		for _, tt := range tests {
			cfg := validConfig()
			cfg.ListenAddress = tt.addr
			err := cfg.Validate()
			if tt.ok {
				require.NoError(t, err, "address %q", tt.addr)
			} else {
				require.Error(t, err, "address %q", tt.addr)
			}
		}
	})

	t.Run("negative drain grace fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.DrainGrace = -time.Second
		require.Error(t, cfg.Validate())
	})
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := &Config{
		ListenAddress: ":8443",
		CertPath:      "/certs/server.pem",
		KeyPath:       "/certs/server.key",
		CABundlePath:  "/certs/ca.pem",
		MinTLSVersion: "1.2",
	}
	cfg.ApplyDefaults()

	require.Equal(t, DefaultHandshakeTimeout, cfg.HandshakeTimeout)
	require.Equal(t, DefaultDrainGrace, cfg.DrainGrace)
	require.Equal(t, DefaultCipherSuites(), cfg.AllowedCipherSuites)
	require.Equal(t, DefaultCurvePreferences(), cfg.CurvePreferences)
	require.NoError(t, cfg.Validate())
}

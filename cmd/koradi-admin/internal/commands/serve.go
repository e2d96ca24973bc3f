package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"

	"github.com/koradi/koradi-admin/internal/backup"
	"github.com/koradi/koradi-admin/internal/bootstrap"
	"github.com/koradi/koradi-admin/internal/certs"
	"github.com/koradi/koradi-admin/internal/config"
	"github.com/koradi/koradi-admin/internal/logger"
	"github.com/koradi/koradi-admin/internal/server"
	"github.com/koradi/koradi-admin/internal/store"
	memorystore "github.com/koradi/koradi-admin/internal/store/memory"
	postgresstore "github.com/koradi/koradi-admin/internal/store/postgres"
	"github.com/koradi/koradi-admin/internal/telemetry"
)

// ServeCmd boots the TLS listener from the configured credential material and
// serves the admin API until signaled.
type ServeCmd struct {
	// Listener configuration
	Listen           string        `help:"TLS listen address" default:"0.0.0.0:8443" env:"KORADI_LISTEN"`
	Cert             string        `help:"path to the server certificate chain (PEM)" env:"KORADI_TLS_CERT"`
	Key              string        `help:"path to the server private key (PEM)" env:"KORADI_TLS_KEY"`
	CABundle         string        `help:"path to the CA trust bundle (PEM)" env:"KORADI_TLS_CA_BUNDLE"`
	MinTLSVersion    string        `help:"minimum TLS version" default:"1.2" env:"KORADI_TLS_MIN_VERSION" enum:"1.2,1.3"`
	CipherSuites     []string      `help:"TLS 1.2 cipher suite allow-list by standard name" env:"KORADI_TLS_CIPHER_SUITES"`
	Curves           []string      `help:"key-exchange groups in preference order" env:"KORADI_TLS_CURVES"`
	ClientAuth       bool          `help:"require and verify client certificates against the CA bundle" default:"false" env:"KORADI_TLS_CLIENT_AUTH"`
	HandshakeTimeout time.Duration `help:"TLS handshake deadline" default:"10s" env:"KORADI_HANDSHAKE_TIMEOUT"`
	DrainGrace       time.Duration `help:"graceful shutdown window for open sessions" default:"30s" env:"KORADI_DRAIN_GRACE"`

	// API configuration
	CORSOrigins []string `help:"allowed CORS origins for admin API requests" env:"KORADI_CORS_ORIGINS"`
	RateLimit   int      `help:"per-client requests per minute, 0 disables" default:"60" env:"KORADI_RATE_LIMIT"`

	// Operational modes
	Tracing bool `help:"enable OpenTelemetry export" default:"false" env:"KORADI_TRACING"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"KORADI_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`

	// Backup and seed configuration
	Backup     BackupFlags `embed:"" prefix:"backup-"`
	SeedRoster string      `help:"YAML roster seed file applied at startup" env:"KORADI_SEED_ROSTER"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"KORADI_POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections to keep open" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"KORADI_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or KORADI_POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

type BackupFlags struct {
	Dir      string        `help:"directory for snapshot archives, empty disables backups" env:"KORADI_BACKUP_DIR"`
	Interval time.Duration `help:"time between snapshots" default:"1h" env:"KORADI_BACKUP_INTERVAL"`
	Retain   int           `help:"number of archives to keep, 0 keeps all" default:"24" env:"KORADI_BACKUP_RETAIN"`
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting koradi-admin")

	// Setup telemetry if enabled
	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.Init(ctx, "koradi-admin", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	stores, closeStores, err := c.openStores(ctx, log)
	if err != nil {
		return err
	}
	defer closeStores()

	// Restore before seeding, so seed entries top up whatever the newest
	// archive brought back.
	runner := backup.NewRunner(stores, backup.Config{
		Dir:      c.Backup.Dir,
		Interval: c.Backup.Interval,
		Retain:   c.Backup.Retain,
	})
	if err := runner.RestoreLatest(ctx); err != nil {
		return fmt.Errorf("failed to restore from backup: %w", err)
	}

	if c.SeedRoster != "" {
		seed, err := store.LoadRosterSeed(c.SeedRoster)
		if err != nil {
			return err
		}
		if err := store.SeedRosters(ctx, stores.Rosters, seed); err != nil {
			return err
		}
	}

	cfg := &config.Config{
		ListenAddress:       c.Listen,
		CertPath:            c.Cert,
		KeyPath:             c.Key,
		CABundlePath:        c.CABundle,
		MinTLSVersion:       c.MinTLSVersion,
		AllowedCipherSuites: c.CipherSuites,
		CurvePreferences:    c.Curves,
		ClientAuth:          c.ClientAuth,
		HandshakeTimeout:    c.HandshakeTimeout,
		DrainGrace:          c.DrainGrace,
	}

	return bootstrap.Run(ctx, cfg, func(status *certs.Status) bootstrap.SessionServer {
		api := server.New(stores, server.Config{
			CORSOrigins: c.CORSOrigins,
			RateLimit:   c.RateLimit,
			Credential:  status,
		})
		srv := configureHTTPServer(api.Handler(log))
		if err := http2.ConfigureServer(srv, nil); err != nil {
			log.Warn().Err(err).Msg("Failed to configure HTTP/2")
		}
		return srv
	}, runner)
}

// openStores builds the configured store backend. The returned closer is safe
// to call once serving ends.
func (c *ServeCmd) openStores(ctx context.Context, log zerolog.Logger) (*store.Stores, func(), error) {
	if c.StoreType == "postgres" {
		if err := c.PostgresStore.Validate(); err != nil {
			return nil, nil, fmt.Errorf("failed to validate postgres flags: %w", err)
		}

		pool, err := postgresstore.Connect(ctx, &postgresstore.PoolConfig{
			ConnString:      c.PostgresStore.ConnString,
			MaxConns:        c.PostgresStore.MaxConns,
			MinConns:        c.PostgresStore.MinConns,
			MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
			MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}

		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}

		log.Info().Msg("Using PostgreSQL stores")
		return postgresstore.NewStores(pool), pool.Close, nil
	}

	log.Info().Msg("Using in-memory stores")
	return memorystore.NewStores(), func() {}, nil
}

// Package bootstrap sequences process startup: load credential material,
// audit it, build the TLS context, bind the listener, and only then start
// serving sessions. Every step must succeed before the next begins, so the
// process never holds a port it cannot serve on and never serves with
// material that failed a check.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/koradi/koradi-admin/internal/certs"
	"github.com/koradi/koradi-admin/internal/config"
	"github.com/koradi/koradi-admin/internal/listener"
	"github.com/koradi/koradi-admin/internal/tlsconf"
)

// SessionServer consumes established TLS sessions. *http.Server satisfies it
// directly.
type SessionServer interface {
	Serve(l net.Listener) error
	Shutdown(ctx context.Context) error
}

// Task is a background job supervised alongside the listener, the backup
// runner being the usual one. A task returning an error stops the whole
// process; returning nil on context cancellation is a normal stop.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Run executes the boot sequence and serves until ctx is canceled or a
// SIGINT/SIGTERM arrives. The handler factory runs only after the credential
// audit passes, receiving the audit snapshot; rejected material never reaches
// the session layer. The returned error maps onto a process exit code via
// ExitCode.
func Run(ctx context.Context, cfg *config.Config, newHandler func(*certs.Status) SessionServer, tasks ...Task) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	material, bundle, err := certs.Load(cfg.CertPath, cfg.KeyPath, cfg.CABundlePath)
	if err != nil {
		return err
	}

	status, err := certs.Validate(material, bundle, time.Now())
	if err != nil {
		return err
	}

	log.Info().
		Str("subject", status.Subject).
		Str("fingerprint", status.Fingerprint).
		Str("key_alg", string(status.KeyAlg)).
		Time("not_after", status.NotAfter).
		Int("trust_anchors", status.TrustAnchors).
		Msg("Credential validated")

	tlsCfg, err := tlsconf.Build(material, bundle, tlsconf.PolicyFromConfig(cfg))
	if err != nil {
		return err
	}

	mgr := listener.New(listener.Config{
		Addr:             cfg.ListenAddress,
		TLS:              tlsCfg,
		HandshakeTimeout: cfg.HandshakeTimeout,
	})
	if err := mgr.Bind(); err != nil {
		return err
	}

	return supervise(ctx, cfg.DrainGrace, mgr, newHandler(status), tasks)
}

// supervise runs the accept loop, the session server and the tasks until one
// fails or a shutdown signal arrives, then drains within the grace window.
func supervise(ctx context.Context, grace time.Duration, mgr *listener.Manager, handler SessionServer, tasks []Task) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mgr.Serve(gctx)
	})

	g.Go(func() error {
		err := handler.Serve(mgr.Established())
		if errors.Is(err, http.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
			// The established listener closed because draining began.
			return nil
		}
		return err
	})

	for _, task := range tasks {
		g.Go(func() error {
			if err := task.Run(gctx); err != nil {
				return fmt.Errorf("%s task: %w", task.Name(), err)
			}
			return nil
		})
	}

	serveErr := g.Wait()

	graceCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := handler.Shutdown(graceCtx); err != nil {
		log.Warn().Err(err).Msg("Session server shutdown incomplete")
	}

	// An accept-loop failure leaves the manager in the accepting state, so
	// the drain has to be started here before it can be awaited.
	mgr.BeginDrain()
	if _, err := mgr.AwaitDrain(graceCtx); err != nil {
		log.Warn().Err(err).Msg("Listener drain did not settle")
	}

	return serveErr
}

// Package listener owns the TCP bind and the TLS accept loop. A Manager moves
// strictly forward through unbound, bound, accepting, draining and closed.
// Handshakes run in per-connection goroutines so a slow or hostile peer never
// stalls the loop, and only handshake-complete sessions reach the established
// listener handed to the HTTP layer.
package listener

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/koradi/koradi-admin/internal/telemetry"
)

// DefaultHandshakeTimeout bounds a single TLS handshake when the Config does
// not say otherwise.
const DefaultHandshakeTimeout = 10 * time.Second

// State is the lifecycle position of a Manager. Transitions only move
// forward; there is no way back from draining.
type State int

const (
	StateUnbound State = iota
	StateBound
	StateAccepting
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateAccepting:
		return "accepting"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrNotBound is returned by Serve when Bind has not succeeded.
	ErrNotBound = errors.New("listener: not bound")
	// ErrAlreadyBound is returned by a second Bind.
	ErrAlreadyBound = errors.New("listener: already bound")
	// ErrAlreadyServed is returned when the accept loop was already started.
	ErrAlreadyServed = errors.New("listener: accept loop already started")
	// ErrNotDraining is returned by AwaitDrain before BeginDrain.
	ErrNotDraining = errors.New("listener: drain has not begun")
)

// BindError reports a failure to claim the listen address. The wrapped error
// keeps the OS-level cause, address in use and permission denied being the
// usual ones.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Config carries the listener inputs. TLS must be a fully built server
// configuration; the Manager never mutates it.
type Config struct {
	Addr             string
	TLS              *tls.Config
	HandshakeTimeout time.Duration
}

// Manager runs the accept loop for one listen address.
type Manager struct {
	addr             string
	tlsConfig        *tls.Config
	handshakeTimeout time.Duration

	mu       sync.Mutex
	state    State
	tcp      net.Listener
	sessions map[*trackedConn]struct{}

	// wg counts established sessions still open. Adds happen only in the
	// accepting state, under mu, so AwaitDrain sees a stable set.
	wg sync.WaitGroup

	queue *sessionQueue
}

// New creates an unbound Manager.
func New(cfg Config) *Manager {
	timeout := cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}

	m := &Manager{
		addr:             cfg.Addr,
		tlsConfig:        cfg.TLS,
		handshakeTimeout: timeout,
		state:            StateUnbound,
		sessions:         make(map[*trackedConn]struct{}),
	}
	m.queue = newSessionQueue(m)
	return m
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Addr returns the bound address, or nil before Bind. Useful when the
// configured address carries port zero.
func (m *Manager) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tcp == nil {
		return nil
	}
	return m.tcp.Addr()
}

// Bind claims the TCP listen address without accepting anything yet.
func (m *Manager) Bind() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateUnbound {
		return ErrAlreadyBound
	}

	tcp, err := net.Listen("tcp", m.addr)
	if err != nil {
		return &BindError{Addr: m.addr, Err: err}
	}

	m.tcp = tcp
	m.state = StateBound

	log.Info().Str("addr", tcp.Addr().String()).Msg("listener bound")
	return nil
}

// Established returns the listener the HTTP layer consumes. Its Accept yields
// only *tls.Conn values whose handshake already completed, and it unblocks
// with net.ErrClosed once draining begins.
func (m *Manager) Established() net.Listener {
	return m.queue
}

// Serve runs the accept loop until draining begins or ctx is canceled.
// Cancellation starts the drain, so a Serve that returns nil has always
// stopped accepting. It may be called exactly once, after Bind.
func (m *Manager) Serve(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateUnbound:
		m.mu.Unlock()
		return ErrNotBound
	case StateBound:
	default:
		m.mu.Unlock()
		return ErrAlreadyServed
	}
	m.state = StateAccepting
	tcp := m.tcp
	m.mu.Unlock()

	stop := context.AfterFunc(ctx, m.BeginDrain)
	defer stop()

	log.Info().Str("addr", tcp.Addr().String()).Msg("listener accepting sessions")

	for {
		conn, err := tcp.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				// BeginDrain closed the socket.
				return nil
			}
			return fmt.Errorf("accept on %s: %w", tcp.Addr(), err)
		}

		go m.handshake(ctx, conn)
	}
}

// handshake completes the TLS handshake for one raw connection and, on
// success, registers and delivers the session. Failures are counted and
// logged, never propagated to the accept loop.
//
// The tracking wrapper sits beneath the TLS layer: net/http dispatches
// negotiated protocols only on a literal *tls.Conn, so the session handed
// over must be the tls.Conn itself.
func (m *Manager) handshake(ctx context.Context, raw net.Conn) {
	tracked := &trackedConn{Conn: raw, mgr: m}
	tlsConn := tls.Server(tracked, m.tlsConfig)

	hsCtx, cancel := context.WithTimeout(ctx, m.handshakeTimeout)
	defer cancel()

	if err := tlsConn.HandshakeContext(hsCtx); err != nil {
		telemetry.GetMetrics().HandshakesRejectedTotal.Add(ctx, 1)
		log.Debug().
			Err(err).
			Str("peer", raw.RemoteAddr().String()).
			Msg("tls handshake rejected")
		_ = tlsConn.Close()
		return
	}

	if !m.register(tracked) {
		// Drain began while the handshake was in flight.
		log.Debug().
			Str("peer", raw.RemoteAddr().String()).
			Msg("session discarded, listener draining")
		_ = tlsConn.Close()
		return
	}

	metrics := telemetry.GetMetrics()
	metrics.SessionsAcceptedTotal.Add(ctx, 1)
	metrics.ActiveSessions.Add(ctx, 1)
	log.Debug().
		Str("peer", raw.RemoteAddr().String()).
		Str("version", tlsVersionName(tlsConn.ConnectionState().Version)).
		Msg("session established")

	if !m.queue.deliver(tlsConn) {
		_ = tlsConn.Close()
	}
}

func (m *Manager) register(c *trackedConn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAccepting {
		return false
	}

	m.sessions[c] = struct{}{}
	m.wg.Add(1)
	return true
}

func (m *Manager) release(c *trackedConn) {
	m.mu.Lock()
	_, ok := m.sessions[c]
	if ok {
		delete(m.sessions, c)
	}
	m.mu.Unlock()

	if ok {
		telemetry.GetMetrics().ActiveSessions.Add(context.Background(), -1)
		m.wg.Done()
	}
}

// BeginDrain stops the intake: the TCP socket closes, the established
// listener unblocks, and in-flight handshakes are discarded on completion.
// Established sessions keep running. Safe to call more than once.
func (m *Manager) BeginDrain() {
	m.mu.Lock()
	if m.state == StateDraining || m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.state = StateDraining
	tcp := m.tcp
	m.mu.Unlock()

	if tcp != nil {
		_ = tcp.Close()
	}
	_ = m.queue.Close()

	log.Info().Str("addr", m.addr).Msg("listener draining")
}

// AwaitDrain blocks until every established session has closed, then moves to
// the closed state. When ctx expires first the remaining sessions are
// force-closed and counted. The returned count is the number force-closed.
func (m *Manager) AwaitDrain(ctx context.Context) (int, error) {
	m.mu.Lock()
	switch m.state {
	case StateClosed:
		m.mu.Unlock()
		return 0, nil
	case StateDraining:
		m.mu.Unlock()
	default:
		m.mu.Unlock()
		return 0, ErrNotDraining
	}

	settled := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(settled)
	}()

	forced := 0
	select {
	case <-settled:
	case <-ctx.Done():
		forced = m.forceClose()
		<-settled
	}

	m.mu.Lock()
	m.state = StateClosed
	m.mu.Unlock()

	if forced > 0 {
		telemetry.GetMetrics().SessionsForceClosedTotal.Add(context.Background(), int64(forced))
		log.Warn().Int("sessions", forced).Msg("drain grace expired, sessions force-closed")
	}
	log.Info().Str("addr", m.addr).Msg("listener closed")

	return forced, nil
}

func (m *Manager) forceClose() int {
	m.mu.Lock()
	conns := make([]*trackedConn, 0, len(m.sessions))
	for c := range m.sessions {
		conns = append(conns, c)
	}
	m.mu.Unlock()

	// Close outside the lock; each Close re-enters release.
	for _, c := range conns {
		_ = c.Close()
	}
	return len(conns)
}

func tlsVersionName(v uint16) string {
	switch v {
	case tls.VersionTLS12:
		return "1.2"
	case tls.VersionTLS13:
		return "1.3"
	default:
		return fmt.Sprintf("0x%04x", v)
	}
}

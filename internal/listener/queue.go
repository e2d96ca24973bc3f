package listener

import (
	"net"
	"sync"
)

// sessionQueue is the net.Listener facade over established sessions. Delivery
// and shutdown race freely: the done channel is the only thing ever closed,
// so a late deliver can never hit a closed channel.
type sessionQueue struct {
	mgr  *Manager
	ch   chan net.Conn
	done chan struct{}
	once sync.Once
}

func newSessionQueue(mgr *Manager) *sessionQueue {
	return &sessionQueue{
		mgr:  mgr,
		ch:   make(chan net.Conn),
		done: make(chan struct{}),
	}
}

// deliver hands a session to the consumer. It reports false once the queue
// is closed, leaving the caller to dispose of the connection.
func (q *sessionQueue) deliver(c net.Conn) bool {
	select {
	case q.ch <- c:
		return true
	case <-q.done:
		return false
	}
}

// Accept blocks for the next established session. After Close it fails with
// net.ErrClosed, which the HTTP server treats as a normal stop.
func (q *sessionQueue) Accept() (net.Conn, error) {
	select {
	case c := <-q.ch:
		return c, nil
	case <-q.done:
		return nil, net.ErrClosed
	}
}

// Close releases Accept callers. The HTTP server closes the listener during
// Shutdown; draining does the same thing earlier, so this must be idempotent.
func (q *sessionQueue) Close() error {
	q.once.Do(func() {
		close(q.done)
	})
	return nil
}

func (q *sessionQueue) Addr() net.Addr {
	return q.mgr.Addr()
}

// trackedConn ties a session's lifetime to the Manager's drain accounting.
// It wraps the raw TCP conn beneath the TLS layer; closing the TLS session
// above it or force-closing it directly both land here, and the second close
// is a no-op.
type trackedConn struct {
	net.Conn
	mgr  *Manager
	once sync.Once
}

func (c *trackedConn) Close() error {
	var err error
	c.once.Do(func() {
		c.mgr.release(c)
		err = c.Conn.Close()
	})
	return err
}

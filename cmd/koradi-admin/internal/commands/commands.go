package commands

import (
	"net/http"
	"time"
)

// Globals carries the top-level flags shared by every command.
type Globals struct {
	Debug   bool
	Version string
}

// configureHTTPServer applies the shared timeout and header limits. The
// server carries no Addr: it only ever serves the listener manager's
// established session queue.
func configureHTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

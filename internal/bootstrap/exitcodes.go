package bootstrap

import (
	"errors"

	"github.com/koradi/koradi-admin/internal/certs"
	"github.com/koradi/koradi-admin/internal/listener"
	"github.com/koradi/koradi-admin/internal/tlsconf"
)

// Exit codes carried by the process. Each boot failure class gets its own
// code so a supervisor can tell an unreadable key file from a busy port
// without parsing logs.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitIO         = 10
	ExitFormat     = 11
	ExitValidation = 12
	ExitContext    = 13
	ExitBind       = 14
)

// ExitCode maps an error returned by Run onto the process exit code.
// Unrecognized errors, configuration errors included, map to ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		ioErr     *certs.IOError
		formatErr *certs.FormatError
		valErr    *certs.ValidationError
		ctxErr    *tlsconf.ContextError
		bindErr   *listener.BindError
	)
	switch {
	case errors.As(err, &ioErr):
		return ExitIO
	case errors.As(err, &formatErr):
		return ExitFormat
	case errors.As(err, &valErr):
		return ExitValidation
	case errors.As(err, &ctxErr):
		return ExitContext
	case errors.As(err, &bindErr):
		return ExitBind
	default:
		return ExitFailure
	}
}

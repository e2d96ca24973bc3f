package certs

import (
	"fmt"
	"io/fs"
)

// IOError reports a credential file that could not be read at all.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// FormatError reports bytes that were readable but not decodable as the
// expected PEM/DER encoding.
type FormatError struct {
	Path   string
	Detail string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid credential file %s: %s: %v", e.Path, e.Detail, e.Err)
	}
	return fmt.Sprintf("invalid credential file %s: %s", e.Path, e.Detail)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Reason classifies why credential validation rejected the material.
type Reason string

const (
	ExpiredOrNotYetValid Reason = "expired_or_not_yet_valid"
	KeyMismatch          Reason = "key_mismatch"
	MalformedChain       Reason = "malformed_chain"
	InsecurePermissions  Reason = "insecure_permissions"
)

// ValidationError is returned by Validate. Bootstrap treats every reason as
// fatal; the process must not serve with material that failed any check.
type ValidationError struct {
	Reason Reason
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("credential validation failed (%s): %s", e.Reason, e.Detail)
}

func validationErrorf(reason Reason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func insecureModeDetail(mode fs.FileMode) string {
	return fmt.Sprintf("private key file mode %04o allows group or world access, want owner-only", mode.Perm())
}

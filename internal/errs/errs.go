// Package errs defines the transport-agnostic error taxonomy shared by
// every core component. Callers translate these to whatever response
// categories their transport uses; nothing here depends on a wire protocol.
package errs

import "errors"

var (
	// ErrNotFound covers a missing user, post or comment. Authorization
	// failures on update/delete are also reported as ErrNotFound so a
	// non-author cannot probe for a post's existence.
	ErrNotFound = errors.New("not found")

	// ErrConflict covers duplicate likes, duplicate content posts and
	// duplicate email registration.
	ErrConflict = errors.New("conflict")

	// ErrInvalidArgument covers self-follows and malformed composite keys.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnavailable covers downstream persistence or upload failures.
	ErrUnavailable = errors.New("unavailable")
)

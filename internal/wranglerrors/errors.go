// Package wranglerrors defines the closed set of error kinds the control
// loop distinguishes, per the error handling design table. Every kind is a
// sentinel; call sites compare with errors.Is and wrap with Wrap to attach
// context without losing the sentinel for comparison.
package wranglerrors

import "github.com/pkg/errors"

var (
	// ErrNotConfigured means CLI_TOKEN or SERVER_URL is unset.
	ErrNotConfigured = errors.New("wrangler: not configured")

	// ErrTransport means the heartbeat POST failed or timed out.
	ErrTransport = errors.New("wrangler: transport error")

	// ErrBadResponse means the server replied with statusCode != 1 or
	// malformed JSON.
	ErrBadResponse = errors.New("wrangler: bad response")

	// ErrUnknownShell means a task referenced a shell id absent from the
	// registry.
	ErrUnknownShell = errors.New("wrangler: unknown shell")

	// ErrSpawnFailed means PTY creation failed.
	ErrSpawnFailed = errors.New("wrangler: spawn failed")

	// ErrWriteFailed means a command write targeted a dead PTY.
	ErrWriteFailed = errors.New("wrangler: write failed")
)

// Wrap attaches msg as context to err while preserving err's identity for
// errors.Is / errors.As.
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Cause unwraps err to its root cause, mirroring github.com/pkg/errors.
func Cause(err error) error {
	return errors.Cause(err)
}

// Package agentlog gives every control-loop component a component-scoped
// zerolog.Logger, console-formatted for local operation. Warn is for
// retryable transport/ack conditions, Error for spawn/write failures, Info
// for expected not-configured state during first boot.
package agentlog

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// base is the process-wide logger; For scopes it to a component.
var base zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	base = zerolog.New(consoleWriter(os.Stderr)).With().Timestamp().Logger()
}

func consoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
}

// SetLevel parses level (e.g. "debug", "info", "warn", "error") and applies
// it process-wide. Unknown values fall back to info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// For returns a logger scoped to component, e.g. For("heartbeat").
func For(component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}

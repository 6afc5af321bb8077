package inspector

import (
	"github.com/ianremillard/wrangler/internal/heartbeat"
	"github.com/ianremillard/wrangler/internal/proto"
)

// RegistrySource is the subset of *registry.Registry StatusSink depends on.
type RegistrySource interface {
	Snapshot() []proto.ProcessOutput
}

// LedgerSource is the subset of *ledger.Ledger StatusSink depends on.
type LedgerSource interface {
	Snapshot() proto.OutboundCallback
}

// HeartbeatSource is the subset of *heartbeat.Engine StatusSink depends on.
type HeartbeatSource interface {
	LastOutcome() heartbeat.Outcome
}

// StatusSink is the production Sink, composing the registry, ledger, and
// heartbeat engine into the single JSON snapshot /status reports.
type StatusSink struct {
	Registry  RegistrySource
	Ledger    LedgerSource
	Heartbeat HeartbeatSource
}

func (s *StatusSink) Processes() []proto.ProcessOutput {
	return s.Registry.Snapshot()
}

func (s *StatusSink) PendingCallbacks() proto.OutboundCallback {
	return s.Ledger.Snapshot()
}

func (s *StatusSink) LastOutcome() (status string, lastSentUnix int64, latencyMS int64, response *proto.HeartbeatResponse, errMsg string) {
	o := s.Heartbeat.LastOutcome()
	if o.Success {
		status = "ok"
	} else if o.Error != "" {
		status = "error"
	} else {
		status = "unknown"
	}
	if !o.SentAt.IsZero() {
		lastSentUnix = o.SentAt.Unix()
	}
	return status, lastSentUnix, o.LatencyMS, o.Response, o.Error
}

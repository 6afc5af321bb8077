// Package inspector exposes a read-only status snapshot over a loopback
// HTTP endpoint and carries out orderly shutdown when the process receives
// a termination signal.
package inspector

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ianremillard/wrangler/internal/agentlog"
	"github.com/ianremillard/wrangler/internal/proto"
)

var log = agentlog.For("inspector")

// Sink supplies the data an inspector snapshot is built from.
type Sink interface {
	Processes() []proto.ProcessOutput
	PendingCallbacks() proto.OutboundCallback
	LastOutcome() (status string, lastSentUnix int64, latencyMS int64, response *proto.HeartbeatResponse, errMsg string)
}

// Shutdown is the callback invoked to tear down every live shell before
// the process exits.
type Shutdown func()

// Server serves one JSON snapshot over loopback HTTP at GET /status.
type Server struct {
	addr     string
	sink     Sink
	shutdown Shutdown
	srv      *http.Server
}

// New builds a Server bound to addr (host:port, expected to be loopback).
func New(addr string, sink Sink, shutdown Shutdown) *Server {
	return &Server{addr: addr, sink: sink, shutdown: shutdown}
}

// ListenAndServe starts the HTTP server and blocks until it is shut down.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	s.srv = &http.Server{Addr: s.addr, Handler: mux}

	log.Info().Str("addr", s.addr).Msg("inspector listening")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, lastSent, latencyMS, response, errMsg := s.sink.LastOutcome()
	snap := proto.InspectorSnapshot{
		Status:           status,
		LastSent:         lastSent,
		LastLatencyMS:    latencyMS,
		Response:         response,
		Error:            errMsg,
		Processes:        s.sink.Processes(),
		PendingCallbacks: s.sink.PendingCallbacks(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		log.Warn().Err(err).Msg("failed to encode status snapshot")
	}
}

// Close shuts the HTTP server down without interrupting in-flight requests
// longer than the given grace period.
func (s *Server) Close(grace time.Duration) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// RunShutdownHook calls shutdown once, logging its completion. Intended to
// be invoked from the process's signal handler in cmd/wrangler.
func (s *Server) RunShutdownHook() {
	log.Info().Msg("shutdown signal received, killing all shells")
	s.shutdown()
}

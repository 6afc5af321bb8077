// Package heartbeat implements the agent's single outbound operation:
// building a status payload, POSTing it to the remote orchestration
// server, applying the server's acknowledgements, and handing any new
// tasks to the executor.
package heartbeat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ianremillard/wrangler/internal/agentlog"
	"github.com/ianremillard/wrangler/internal/config"
	"github.com/ianremillard/wrangler/internal/proto"
	"github.com/ianremillard/wrangler/internal/wranglerrors"
)

var log = agentlog.For("heartbeat")

const requestTimeout = 10 * time.Second

// Registry is the subset of *registry.Registry the engine depends on.
type Registry interface {
	Snapshot() []proto.ProcessOutput
	ConfirmCommandExecuted(id string)
	ClearOutput(id string)
}

// Ledger is the subset of *ledger.Ledger the engine depends on.
type Ledger interface {
	Snapshot() proto.OutboundCallback
	Clear()
}

// Executor is the subset of *executor.Executor the engine depends on.
type Executor interface {
	Apply(tasks proto.Tasks, callback proto.InboundCallback) (commandExecuted bool)
}

// Telemetry is the subset of telemetry.Provider the engine depends on.
type Telemetry interface {
	Collect() proto.SystemInfo
}

// Outcome is the result of one send_once call, retained for the inspector.
type Outcome struct {
	Success      bool
	SentAt       time.Time
	LatencyMS    int64
	Response     *proto.HeartbeatResponse
	Error        string
	FiredCommand bool
}

// Engine runs send_once under the two-flag mutual exclusion the protocol
// requires: at most one heartbeat and at most one task batch in flight,
// and never both kinds at once.
type Engine struct {
	cfg       *config.Config
	registry  Registry
	ledger    Ledger
	executor  Executor
	telemetry Telemetry
	client    *http.Client

	mu          sync.Mutex
	heartbeatUp bool
	tasksUp     bool

	lastOutcome Outcome
}

// New builds an Engine wired to its collaborators.
func New(cfg *config.Config, reg Registry, l Ledger, exec Executor, tel Telemetry) *Engine {
	return &Engine{
		cfg:       cfg,
		registry:  reg,
		ledger:    l,
		executor:  exec,
		telemetry: tel,
		client:    &http.Client{Timeout: requestTimeout},
	}
}

// LastOutcome returns the most recently recorded send_once result.
func (e *Engine) LastOutcome() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastOutcome
}

// SendOnce performs exactly one heartbeat cycle. It returns immediately,
// doing nothing, if a previous heartbeat or task batch is still running.
// The returned bool reports whether this cycle wrote a command to a shell
// (Outcome.FiredCommand) — the caller uses it to schedule the next
// heartbeat after the short command-response delay instead of the ordinary
// busy/idle interval.
func (e *Engine) SendOnce(ctx context.Context) (commandExecuted bool) {
	if !e.tryAcquire() {
		return false
	}
	defer e.release()

	if !e.cfg.Configured() {
		log.Info().Msg("heartbeat skipped: not configured")
		e.record(Outcome{Success: false, SentAt: time.Now(), Error: wranglerrors.ErrNotConfigured.Error()})
		return false
	}

	req := proto.HeartbeatRequest{
		CLIToken:      e.cfg.CLIToken,
		SystemInfo:    e.telemetry.Collect(),
		ProcessOutput: e.registry.Snapshot(),
		Callback:      e.ledger.Snapshot(),
	}

	start := time.Now()
	resp, err := e.post(ctx, req)
	latency := time.Since(start)

	if err != nil {
		log.Warn().Err(err).Msg("heartbeat request failed")
		e.record(Outcome{
			Success:   false,
			SentAt:    start,
			LatencyMS: latency.Milliseconds(),
			Error:     err.Error(),
		})
		return false
	}

	fired := false
	if resp.StatusCode == proto.StatusCodeOK {
		for _, id := range resp.Callback.CommandExecutedConfirmed {
			e.registry.ConfirmCommandExecuted(id)
		}
		for _, id := range resp.Callback.ProcessOutputUpdateSucceed {
			e.registry.ClearOutput(id)
		}
		e.ledger.Clear()
		fired = e.executor.Apply(resp.Tasks, resp.Callback)
	}

	e.record(Outcome{
		Success:      true,
		SentAt:       start,
		LatencyMS:    latency.Milliseconds(),
		Response:     resp,
		FiredCommand: fired,
	})
	return fired
}

func (e *Engine) post(ctx context.Context, req proto.HeartbeatRequest) (*proto.HeartbeatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal heartbeat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.ServerURL, bytes.NewReader(body))
	if err != nil {
		return nil, wranglerrors.Wrap(err, "build heartbeat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, wranglerrors.Wrapf(wranglerrors.ErrTransport, "%v", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, wranglerrors.Wrap(err, "read heartbeat response body")
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, wranglerrors.Wrapf(wranglerrors.ErrTransport, "unexpected status %d: %s", httpResp.StatusCode, string(data))
	}

	var resp proto.HeartbeatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, wranglerrors.Wrapf(wranglerrors.ErrBadResponse, "%v", err)
	}
	return &resp, nil
}

func (e *Engine) tryAcquire() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.heartbeatUp || e.tasksUp {
		return false
	}
	e.heartbeatUp = true
	e.tasksUp = true
	return true
}

func (e *Engine) release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.heartbeatUp = false
	e.tasksUp = false
}

func (e *Engine) record(o Outcome) {
	e.mu.Lock()
	e.lastOutcome = o
	e.mu.Unlock()
}

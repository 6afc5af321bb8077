// Package executor interprets one server task batch against the shell
// registry: spawning and killing shells, writing normalized commands, and
// confirming deaths and command completions the server has acknowledged.
package executor

import (
	"fmt"

	"github.com/ianremillard/wrangler/internal/agentlog"
	"github.com/ianremillard/wrangler/internal/proto"
)

var log = agentlog.For("executor")

// Registry is the subset of *registry.Registry the executor depends on.
type Registry interface {
	ConfirmDeath(id string)
	Spawn() (string, error)
	Write(id, commandText string) error
	Kill(id string) bool
	ConfirmCommandExecuted(id string)
}

// Executor applies one heartbeat response's tasks and inbound callback to a
// Registry, in the fixed step order the server protocol expects.
type Executor struct {
	registry Registry
}

// New returns an Executor bound to reg.
func New(reg Registry) *Executor {
	return &Executor{registry: reg}
}

// Apply runs the five steps in order against tasks and callback, each a
// no-op when its field is absent. An error in one step is logged and does
// not abort the batch; later steps still run. It returns true if any
// command was written, the signal the caller uses to schedule the next
// heartbeat after a short response delay instead of the busy/idle interval.
func (e *Executor) Apply(tasks proto.Tasks, callback proto.InboundCallback) (commandExecuted bool) {
	for _, id := range tasks.ConfirmProcessDeath {
		e.registry.ConfirmDeath(id)
	}

	if tasks.IfRequireNewProcess == 1 {
		if _, err := e.registry.Spawn(); err != nil {
			log.Error().Err(err).Msg("required spawn failed")
		}
	}

	for _, c := range tasks.Command {
		text, err := coerceCommand(c.Command)
		if err != nil {
			log.Warn().Err(err).Str("pid", c.PID).Msg("skipping unrepresentable command")
			continue
		}
		normalized := Normalize(text)
		composed := Compose(normalized)
		if err := e.registry.Write(c.PID, composed); err != nil {
			log.Warn().Err(err).Str("pid", c.PID).Msg("command write failed")
			continue
		}
		commandExecuted = true
	}

	for _, id := range tasks.KillProcess {
		e.registry.Kill(id)
	}

	for _, id := range callback.CommandExecutedConfirmed {
		e.registry.ConfirmCommandExecuted(id)
	}

	return commandExecuted
}

// coerceCommand accepts the loosely-typed command field — the server always
// sends a JSON string today, but the field is decoded as interface{} so a
// number or bool doesn't break decoding of the rest of the batch.
func coerceCommand(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case nil:
		return "", fmt.Errorf("executor: nil command")
	default:
		return fmt.Sprintf("%v", t), nil
	}
}

// Package registry is the shell registry: the lifecycle authority mapping
// ShellId to {PTY, ring, flags, working directory, timestamps}. It is the
// only package that owns *shell.Shell values; everything else — the task
// executor, the heartbeat engine — talks to shells only through Registry
// methods.
package registry

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/ianremillard/wrangler/internal/agentlog"
	"github.com/ianremillard/wrangler/internal/ledger"
	"github.com/ianremillard/wrangler/internal/proto"
	"github.com/ianremillard/wrangler/internal/ring"
	"github.com/ianremillard/wrangler/internal/shell"
	"github.com/ianremillard/wrangler/internal/wranglerrors"
)

var log = agentlog.For("registry")

// activeIdleWindow is how recently a shell must have produced output to be
// derived as Active instead of Idle.
const activeIdleWindow = 5 * time.Second

// PTY is the subset of *shell.Shell the registry depends on. Depending on
// an interface rather than the concrete type lets tests substitute a fake
// PTY instead of spawning a real bash process.
type PTY interface {
	Pid() int
	OnData(func([]byte))
	OnExit(func(shell.ExitInfo))
	Run()
	Write([]byte) error
	Kill()
}

// entry is one live shell's mutable state. Unexported: callers never see
// this directly, only through Snapshot's ProcessOutput rows.
type entry struct {
	mu sync.Mutex

	id  string
	pty PTY
	cwd string

	ring           *ring.Ring
	commandPending bool
	expectPwd      bool
	lastOutputAt   time.Time
	spawnedAt      time.Time
}

// Spawner abstracts shell.Start so tests can substitute a fake PTY.
type Spawner func(cwd string) (PTY, error)

// Registry owns every live shell and nudges a Scheduler-like callback on
// lifecycle events.
type Registry struct {
	mu      sync.Mutex
	shells  map[string]*entry
	ledger  *ledger.Ledger
	spawn   Spawner
	cwd     string
	nudge   func()
	userAt  string // "{user}@{host}" cached at construction
}

// New returns an empty Registry. spawner is injected so tests can run
// without real bash processes; nudge is called after any event that should
// wake the scheduler (spawn, write, kill, exit) — pass a no-op if unused.
func New(l *ledger.Ledger, agentCwd string, spawner Spawner, nudge func()) *Registry {
	if nudge == nil {
		nudge = func() {}
	}
	return &Registry{
		shells: make(map[string]*entry),
		ledger: l,
		spawn:  spawner,
		cwd:    agentCwd,
		nudge:  nudge,
		userAt: userAtHost(),
	}
}

func userAtHost() string {
	user := os.Getenv("USER")
	if user == "" {
		user = "user"
	}
	host, err := os.Hostname()
	if err != nil {
		host = "host"
	}
	return user + "@" + host
}

// Len reports how many shells are currently live — used by the Scheduler to
// pick the busy/idle interval.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shells)
}

// Spawn starts a new shell, registers it, publishes process_created in the
// ledger, and nudges the scheduler. Returns the new ShellId.
func (r *Registry) Spawn() (string, error) {
	pty, err := r.spawn(r.cwd)
	if err != nil {
		log.Error().Err(err).Msg("spawn failed")
		return "", wranglererrorsSpawn(err)
	}

	id := strconv.Itoa(pty.Pid())
	e := &entry{
		id:           id,
		pty:          pty,
		cwd:          r.cwd,
		ring:         ring.New(),
		lastOutputAt: time.Time{},
		spawnedAt:    time.Now(),
	}

	r.mu.Lock()
	r.shells[id] = e
	r.mu.Unlock()

	pty.OnData(func(b []byte) { r.handleOutput(id, b) })
	pty.OnExit(func(info shell.ExitInfo) { r.handleExit(id, info) })
	pty.Run()

	r.ledger.SetCreated(id)
	log.Info().Str("shell_id", id).Msg("shell spawned")
	r.nudge()
	return id, nil
}

// Write normalizes nothing itself (normalization is the executor's job) —
// it writes command text verbatim, flips command_pending/expect_pwd, and
// nudges the scheduler to fire soon.
func (r *Registry) Write(id, commandText string) error {
	e := r.get(id)
	if e == nil {
		return wranglerErrorsUnknownShell(id)
	}

	e.mu.Lock()
	pty := e.pty
	e.commandPending = true
	e.expectPwd = true
	e.mu.Unlock()

	if pty == nil {
		return wranglerErrorsWrite(id)
	}
	if err := pty.Write([]byte(commandText)); err != nil {
		log.Error().Err(err).Str("shell_id", id).Msg("write failed")
		return wranglerErrorsWrite(id)
	}
	r.nudge()
	return nil
}

// Kill kills the PTY, eagerly removes the Shell from the registry, and
// records the death in the ledger. Returns false if id was already absent.
// The PTY's own exit notification, which arrives later, is then a no-op on
// the already-empty slot (see handleExit).
func (r *Registry) Kill(id string) bool {
	r.mu.Lock()
	e, ok := r.shells[id]
	if ok {
		delete(r.shells, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	pty := e.pty
	e.mu.Unlock()
	if pty != nil {
		pty.Kill()
	}

	r.ledger.AddDeath(id)
	log.Info().Str("shell_id", id).Msg("shell killed")
	r.nudge()
	return true
}

// KillAll kills every live shell, best effort, for shutdown.
func (r *Registry) KillAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.shells))
	for id := range r.shells {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	for _, id := range ids {
		r.Kill(id)
	}
}

// ConfirmDeath marks id as dead in the ledger iff it is not present in the
// registry — confirming a death never forcibly kills a still-live shell.
func (r *Registry) ConfirmDeath(id string) {
	if r.get(id) != nil {
		return
	}
	r.ledger.AddDeath(id)
}

// ConfirmCommandExecuted clears command_pending for id, if present.
func (r *Registry) ConfirmCommandExecuted(id string) {
	e := r.get(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	e.commandPending = false
	e.mu.Unlock()
}

// ClearOutput clears id's output ring, if present.
func (r *Registry) ClearOutput(id string) {
	e := r.get(id)
	if e == nil {
		return
	}
	e.ring.Clear()
}

// get returns the entry for id, or nil.
func (r *Registry) get(id string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shells[id]
}

// handleOutput updates last_output_at, sniffs the trailing pwd line when
// expect_pwd is set, elides the matched path from the bytes, then appends
// the remainder to the ring.
func (r *Registry) handleOutput(id string, b []byte) {
	e := r.get(id)
	if e == nil {
		return // already removed (race with Kill); drop silently.
	}

	e.mu.Lock()
	e.lastOutputAt = time.Now()
	chunk := b
	if e.expectPwd {
		if path, elided, ok := extractTrailingPwd(chunk); ok {
			e.cwd = path
			e.expectPwd = false
			chunk = elided
		}
	}
	e.mu.Unlock()

	e.ring.Append(chunk)
}

func (r *Registry) handleExit(id string, info shell.ExitInfo) {
	r.mu.Lock()
	_, ok := r.shells[id]
	if ok {
		delete(r.shells, id)
	}
	r.mu.Unlock()
	if !ok {
		return // Kill already removed this entry; the exit notification is stale.
	}

	r.ledger.AddDeath(id)
	log.Info().Str("shell_id", id).Int("exit_code", info.ExitCode).Str("signal", info.Signal).Msg("shell exited")
	r.nudge()
}

// Snapshot returns one row per live shell for the outbound heartbeat.
func (r *Registry) Snapshot() []proto.ProcessOutput {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.shells))
	for _, e := range r.shells {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	out := make([]proto.ProcessOutput, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		cwd := e.cwd
		pending := e.commandPending
		lastOutputAt := e.lastOutputAt
		id := e.id
		e.mu.Unlock()

		temp := e.ring.Read()
		out = append(out, proto.ProcessOutput{
			PID:               id,
			Temp:              temp,
			Cwd:               renderPrompt(r.userAt, cwd),
			IfCommandExecuted: boolToInt(pending),
			Status:            deriveStatus(pending, lastOutputAt, temp != ""),
		})
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func deriveStatus(commandPending bool, lastOutputAt time.Time, ringNonEmpty bool) string {
	if commandPending {
		return proto.StatusExecuting
	}
	if !lastOutputAt.IsZero() && time.Since(lastOutputAt) <= activeIdleWindow && ringNonEmpty {
		return proto.StatusActive
	}
	return proto.StatusIdle
}

func renderPrompt(userAtHost, cwd string) string {
	return fmt.Sprintf("%s:%s# ", userAtHost, cwd)
}

func wranglererrorsSpawn(err error) error {
	return wranglerrors.Wrapf(wranglerrors.ErrSpawnFailed, "%v", err)
}

func wranglerErrorsUnknownShell(id string) error {
	return wranglerrors.Wrapf(wranglerrors.ErrUnknownShell, "shell %s", id)
}

func wranglerErrorsWrite(id string) error {
	return wranglerrors.Wrapf(wranglerrors.ErrWriteFailed, "shell %s", id)
}

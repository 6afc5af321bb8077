// Package ledger implements the ack ledger: the set of callbacks the agent
// owes the server. Entries accumulate as shells die or spawn and are
// cleared only after a heartbeat the server confirms receiving (statusCode
// == 1) — ensuring at-least-once delivery in both directions.
package ledger

import (
	"sync"

	"github.com/ianremillard/wrangler/internal/proto"
)

// Ledger is the thread-safe holder of pending acks.
type Ledger struct {
	mu      sync.Mutex
	death   map[string]struct{}
	created *string
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{death: make(map[string]struct{})}
}

// AddDeath records that id has died and has not yet been reported.
// Idempotent: adding the same id twice has no additional effect.
func (l *Ledger) AddDeath(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.death[id] = struct{}{}
}

// HasDeath reports whether id is currently pending in the death set.
func (l *Ledger) HasDeath(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.death[id]
	return ok
}

// SetCreated publishes id as the most recently spawned shell not yet
// included in a successful heartbeat. A later call overwrites the field:
// only the newest spawn is ever reported as created.
func (l *Ledger) SetCreated(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v := id
	l.created = &v
}

// Snapshot returns the outbound callback shape for one heartbeat, without
// clearing the ledger.
func (l *Ledger) Snapshot() proto.OutboundCallback {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.death))
	for id := range l.death {
		ids = append(ids, id)
	}
	var created *string
	if l.created != nil {
		v := *l.created
		created = &v
	}
	return proto.OutboundCallback{ProcessDeath: ids, ProcessCreated: created}
}

// Clear resets both fields to empty/none. Called only after a successful
// heartbeat, before that response's tasks are applied, so a death observed
// during the in-flight heartbeat lands in the fresh ledger instead of being
// lost.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.death = make(map[string]struct{})
	l.created = nil
}

package executor

import (
	"testing"

	"github.com/ianremillard/wrangler/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	confirmedDead  []string
	spawnCalls     int
	spawnErr       error
	spawnID        string
	written        map[string]string
	writeErr       error
	killed         []string
	killResult     bool
	confirmedExecd []string
}

func (f *fakeRegistry) ConfirmDeath(id string) { f.confirmedDead = append(f.confirmedDead, id) }

func (f *fakeRegistry) Spawn() (string, error) {
	f.spawnCalls++
	if f.spawnErr != nil {
		return "", f.spawnErr
	}
	return f.spawnID, nil
}

func (f *fakeRegistry) Write(id, commandText string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.written == nil {
		f.written = make(map[string]string)
	}
	f.written[id] = commandText
	return nil
}

func (f *fakeRegistry) Kill(id string) bool {
	f.killed = append(f.killed, id)
	return f.killResult
}

func (f *fakeRegistry) ConfirmCommandExecuted(id string) {
	f.confirmedExecd = append(f.confirmedExecd, id)
}

func TestApplyConfirmProcessDeath(t *testing.T) {
	reg := &fakeRegistry{}
	e := New(reg)

	e.Apply(proto.Tasks{ConfirmProcessDeath: []string{"100", "200"}}, proto.InboundCallback{})

	assert.Equal(t, []string{"100", "200"}, reg.confirmedDead)
}

func TestApplyRequireNewProcessSpawns(t *testing.T) {
	reg := &fakeRegistry{spawnID: "300"}
	e := New(reg)

	e.Apply(proto.Tasks{IfRequireNewProcess: 1}, proto.InboundCallback{})

	assert.Equal(t, 1, reg.spawnCalls)
}

func TestApplyRequireNewProcessZeroSkipsSpawn(t *testing.T) {
	reg := &fakeRegistry{spawnID: "300"}
	e := New(reg)

	e.Apply(proto.Tasks{IfRequireNewProcess: 0}, proto.InboundCallback{})

	assert.Equal(t, 0, reg.spawnCalls)
}

func TestApplyCommandWritesComposedText(t *testing.T) {
	reg := &fakeRegistry{}
	e := New(reg)

	executed := e.Apply(proto.Tasks{
		Command: []proto.Command{{PID: "100", Command: "echo hi"}},
	}, proto.InboundCallback{})

	require.True(t, executed)
	require.Contains(t, reg.written, "100")
	assert.Equal(t, "echo hi; pwd\n", reg.written["100"])
}

func TestApplyCommandUnescapesJSONString(t *testing.T) {
	reg := &fakeRegistry{}
	e := New(reg)

	e.Apply(proto.Tasks{
		Command: []proto.Command{{PID: "100", Command: `"echo \"hi\""`}},
	}, proto.InboundCallback{})

	assert.Equal(t, "echo \"hi\"; pwd\n", reg.written["100"])
}

func TestApplyCommandWriteFailureDoesNotAbortBatch(t *testing.T) {
	reg := &fakeRegistry{writeErr: assertErr{}}
	e := New(reg)

	executed := e.Apply(proto.Tasks{
		Command: []proto.Command{
			{PID: "100", Command: "echo hi"},
		},
		KillProcess: []string{"200"},
	}, proto.InboundCallback{})

	assert.False(t, executed)
	assert.Equal(t, []string{"200"}, reg.killed)
}

func TestApplyKillProcess(t *testing.T) {
	reg := &fakeRegistry{killResult: true}
	e := New(reg)

	e.Apply(proto.Tasks{KillProcess: []string{"100", "200"}}, proto.InboundCallback{})

	assert.Equal(t, []string{"100", "200"}, reg.killed)
}

func TestApplyCommandExecutedConfirmed(t *testing.T) {
	reg := &fakeRegistry{}
	e := New(reg)

	e.Apply(proto.Tasks{}, proto.InboundCallback{CommandExecutedConfirmed: []string{"100"}})

	assert.Equal(t, []string{"100"}, reg.confirmedExecd)
}

func TestApplyNoCommandsReturnsFalse(t *testing.T) {
	reg := &fakeRegistry{}
	e := New(reg)

	executed := e.Apply(proto.Tasks{}, proto.InboundCallback{})

	assert.False(t, executed)
}

type assertErr struct{}

func (assertErr) Error() string { return "write failed" }

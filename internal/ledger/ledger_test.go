package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddDeathIdempotent(t *testing.T) {
	l := New()
	l.AddDeath("1")
	l.AddDeath("1")
	snap := l.Snapshot()
	assert.ElementsMatch(t, []string{"1"}, snap.ProcessDeath)
}

func TestSetCreatedOverwrites(t *testing.T) {
	l := New()
	l.SetCreated("1")
	l.SetCreated("2")
	snap := l.Snapshot()
	if assert.NotNil(t, snap.ProcessCreated) {
		assert.Equal(t, "2", *snap.ProcessCreated)
	}
}

func TestClearResetsBothFields(t *testing.T) {
	l := New()
	l.AddDeath("1")
	l.SetCreated("2")
	l.Clear()
	snap := l.Snapshot()
	assert.Empty(t, snap.ProcessDeath)
	assert.Nil(t, snap.ProcessCreated)
}

func TestHasDeath(t *testing.T) {
	l := New()
	assert.False(t, l.HasDeath("1"))
	l.AddDeath("1")
	assert.True(t, l.HasDeath("1"))
}

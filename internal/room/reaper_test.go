package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdleReaperClosesStaleRooms(t *testing.T) {
	m := NewManager(Options{Logger: quietLogger()})
	ir := NewIdleReaper(m, 50*time.Millisecond, quietLogger())
	m.SetReaper(ir)

	r, err := m.Create([]string{"alice", "bob"})
	require.NoError(t, err)
	require.NoError(t, r.Start())

	// No further activity; the sweep must close the room.
	assert.Eventually(t, func() bool {
		ir.sweep()
		return r.Closed()
	}, 2*time.Second, 20*time.Millisecond)

	_, ok := m.Get(r.ID)
	assert.False(t, ok)
}

func TestIdleReaperSparesActiveRooms(t *testing.T) {
	m := NewManager(Options{Logger: quietLogger()})
	ir := NewIdleReaper(m, time.Hour, quietLogger())
	m.SetReaper(ir)

	r, err := m.Create([]string{"alice", "bob"})
	require.NoError(t, err)
	require.NoError(t, r.Start())
	t.Cleanup(r.Reap)

	ir.sweep()
	assert.False(t, r.Closed())
}

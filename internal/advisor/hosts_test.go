package advisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostsLifecycle(t *testing.T) {
	h := NewHosts()
	a, b := h.Open(), h.Open()
	assert.Equal(t, 2, h.Len())

	got, err := h.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	assert.True(t, h.Close(a.ID))
	assert.False(t, h.Close(a.ID))
	_, err = h.Get(a.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	got, err = h.Get(b.ID)
	require.NoError(t, err)
	assert.Same(t, b, got)
}

func TestHostsSweepSkipsBusySessions(t *testing.T) {
	h := NewHosts()
	idle, busy := h.Open(), h.Open()
	require.True(t, busy.acquire())
	defer busy.release()

	idle.mu.Lock()
	idle.lastActive = time.Now().Add(-time.Hour)
	idle.mu.Unlock()
	busy.mu.Lock()
	busy.lastActive = time.Now().Add(-time.Hour)
	busy.mu.Unlock()

	assert.Equal(t, 1, h.Sweep(30*time.Minute))
	_, err := h.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = h.Get(busy.ID)
	assert.NoError(t, err)
}

func TestHostsGetKeepsSessionAlive(t *testing.T) {
	h := NewHosts()
	sess := h.Open()
	sess.mu.Lock()
	sess.lastActive = time.Now().Add(-time.Hour)
	sess.mu.Unlock()

	got, err := h.Get(sess.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), got.LastActive(), time.Second)

	assert.Equal(t, 0, h.Sweep(30*time.Minute))
	assert.Equal(t, 1, h.Len())
}

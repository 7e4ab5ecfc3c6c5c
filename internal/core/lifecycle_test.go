package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelis/huddle/internal/core"
)

func TestLifecycle_Transitions(t *testing.T) {
	lc := core.NewLifecycle()
	assert.Equal(t, core.StateConnected, lc.State())
	assert.True(t, lc.Alive())

	require.NoError(t, lc.EnterRoom())
	assert.Equal(t, core.StateInRoom, lc.State())

	lc.LeaveRoom()
	assert.Equal(t, core.StateConnected, lc.State())

	// Cycle again: leave then join another room is legal.
	require.NoError(t, lc.EnterRoom())
	assert.Equal(t, core.StateInRoom, lc.State())
}

func TestLifecycle_LeaveWithoutRoom(t *testing.T) {
	lc := core.NewLifecycle()
	lc.LeaveRoom()
	assert.Equal(t, core.StateConnected, lc.State())
}

func TestLifecycle_TerminateIsFinal(t *testing.T) {
	lc := core.NewLifecycle()
	require.NoError(t, lc.EnterRoom())

	assert.True(t, lc.Terminate(), "first terminate performs the transition")
	assert.False(t, lc.Terminate(), "terminate happens once")
	assert.Equal(t, core.StateTerminated, lc.State())
	assert.False(t, lc.Alive())

	assert.ErrorIs(t, lc.EnterRoom(), core.ErrConnTerminated)
	lc.LeaveRoom()
	assert.Equal(t, core.StateTerminated, lc.State())
}

func TestConnState_String(t *testing.T) {
	assert.Equal(t, "connected", core.StateConnected.String())
	assert.Equal(t, "in_room", core.StateInRoom.String())
	assert.Equal(t, "terminated", core.StateTerminated.String())
}

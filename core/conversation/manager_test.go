package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHistoryIsAppendOnlyCopy(t *testing.T) {
	ctx := &Context{UserID: "u1", Role: RoleEmployee, EmployeeID: "e1"}

	ctx.Append(Message{Role: MessageRoleUser, Content: "hello"})
	ctx.Append(Message{Role: MessageRoleAssistant, Content: "hi"})

	history := ctx.History()
	require.Len(t, history, 2)

	// Mutating the returned slice must not touch session state.
	history[0].Content = "tampered"
	assert.Equal(t, "hello", ctx.History()[0].Content)
}

func TestContextRecentLimitsWindow(t *testing.T) {
	ctx := &Context{}
	for i := 0; i < 5; i++ {
		ctx.Append(Message{Role: MessageRoleUser, Content: "m"})
	}

	assert.Len(t, ctx.Recent(3), 3)
	assert.Len(t, ctx.Recent(0), 5)
	assert.Len(t, ctx.Recent(99), 5)
}

func TestManagerStartAndGet(t *testing.T) {
	m, err := NewManager(ManagerConfig{})
	require.NoError(t, err)

	s := m.Start(&Context{UserID: "u1", Role: RoleAdmin})
	require.NotEmpty(t, s.ID)

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, "u1", got.Ctx.UserID)

	_, ok = m.Get("unknown")
	assert.False(t, ok)
}

func TestManagerIdleExpiry(t *testing.T) {
	m, err := NewManager(ManagerConfig{IdleTimeout: 10 * time.Millisecond})
	require.NoError(t, err)

	s := m.Start(&Context{UserID: "u1"})
	time.Sleep(25 * time.Millisecond)

	_, ok := m.Get(s.ID)
	assert.False(t, ok)
}

func TestManagerSweepEvictsIdleSessions(t *testing.T) {
	m, err := NewManager(ManagerConfig{IdleTimeout: 10 * time.Millisecond})
	require.NoError(t, err)

	m.Start(&Context{UserID: "u1"})
	m.Start(&Context{UserID: "u2"})
	time.Sleep(25 * time.Millisecond)

	assert.Equal(t, 2, m.Sweep())
	assert.Zero(t, m.Len())
}

func TestSessionSingleFlightTurnGuard(t *testing.T) {
	m, err := NewManager(ManagerConfig{})
	require.NoError(t, err)

	s := m.Start(&Context{UserID: "u1"})

	require.True(t, s.BeginTurn())
	assert.False(t, s.BeginTurn())

	s.EndTurn()
	assert.True(t, s.BeginTurn())
}

func TestParseRoleDefaultsToLowestPrivilege(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("ADMIN"))
	assert.Equal(t, RoleManager, ParseRole("MANAGER"))
	assert.Equal(t, RoleEmployee, ParseRole("EMPLOYEE"))
	assert.Equal(t, RoleEmployee, ParseRole("somebody"))
	assert.Equal(t, RoleEmployee, ParseRole(""))
}

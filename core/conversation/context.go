// Package conversation holds per-session state: the authenticated caller
// context and the append-only message history.
package conversation

import (
	"sync"
	"time"
)

// Role is the caller's privilege tier.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

// ParseRole maps a stored role string onto a known tier, defaulting to the
// lowest privilege.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	default:
		return RoleEmployee
	}
}

// MessageRole identifies who authored a message.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Metadata records what a turn touched. Attached to assistant messages.
type Metadata struct {
	Actions     []string `json:"actions,omitempty"`
	DataSources []string `json:"data_sources,omitempty"`
	Confidence  float64  `json:"confidence,omitempty"`
}

// Message is one entry in the session history. Immutable once appended.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Metadata  *Metadata   `json:"metadata,omitempty"`
}

// Context is the per-session caller state. Created at session start,
// mutated by each turn, discarded at session end.
type Context struct {
	UserID      string            `json:"user_id"`
	Role        Role              `json:"role"`
	Department  string            `json:"department,omitempty"`
	TerritoryID string            `json:"territory_id,omitempty"`
	EmployeeID  string            `json:"employee_id"`
	Preferences map[string]string `json:"preferences,omitempty"`

	mu      sync.RWMutex
	history []Message
}

// Append adds a message to the session history.
func (c *Context) Append(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, msg)
}

// History returns a copy of the full message history.
func (c *Context) History() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Message, len(c.history))
	copy(out, c.history)
	return out
}

// Recent returns up to n of the most recent messages.
func (c *Context) Recent(n int) []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n <= 0 || n > len(c.history) {
		n = len(c.history)
	}
	out := make([]Message, n)
	copy(out, c.history[len(c.history)-n:])
	return out
}

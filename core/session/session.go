// Package session tracks the operator's pending multi-step action. The bot
// asks for an input ("send the broadcast text", "send a user id") and the
// very next message from the operator is consumed by the pending action.
package session

import "sync"

// Action identifies a conversation step awaiting the operator's next message.
type Action string

const (
	// ActionNone indicates there is no active conversation.
	ActionNone Action = ""
	// ActionBroadcast awaits the text to copy to every known user.
	ActionBroadcast Action = "broadcast"
	// ActionForward awaits the message to forward to every known user.
	ActionForward Action = "forward"
	// ActionBlock awaits the numeric id of the user to block.
	ActionBlock Action = "block"
	// ActionUnblock awaits the numeric id of the user to unblock.
	ActionUnblock Action = "unblock"
)

// Manager stores pending actions per user id. All methods are safe for
// concurrent use.
type Manager struct {
	mu      sync.RWMutex
	pending map[int64]Action
}

// NewManager constructs an empty in-memory Manager.
func NewManager() *Manager {
	return &Manager{
		pending: make(map[int64]Action),
	}
}

// Set records the pending action for a user, replacing any previous one.
// The most recent prompt always wins.
func (m *Manager) Set(userID int64, action Action) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if action == ActionNone {
		delete(m.pending, userID)
		return
	}
	m.pending[userID] = action
}

// Take returns the pending action for a user and clears it in the same step,
// so an action is consumed by exactly one message even under concurrent
// delivery. Returns ActionNone when nothing is pending.
func (m *Manager) Take(userID int64) Action {
	m.mu.Lock()
	defer m.mu.Unlock()

	action, ok := m.pending[userID]
	if !ok {
		return ActionNone
	}
	delete(m.pending, userID)
	return action
}

// Pending reports the current action without consuming it.
func (m *Manager) Pending(userID int64) Action {
	m.mu.RLock()
	defer m.mu.RUnlock()

	action, ok := m.pending[userID]
	if !ok {
		return ActionNone
	}
	return action
}

// Clear removes the pending action for a user, if any.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pending, userID)
}

// InProgress reports whether the user has a pending action.
func (m *Manager) InProgress(userID int64) bool {
	return m.Pending(userID) != ActionNone
}

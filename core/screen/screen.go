// Package screen keeps each chat showing a single live bot screen. Every
// message the bot sends through the manager is tracked, and rendering a new
// screen first deletes the tracked ones, so stale menus never pile up in the
// chat history.
package screen

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/plushpepe/instabot/core/logger"
)

// Transport abstracts the messaging operations the manager needs. Send and
// Edit return or accept the platform message id of the affected message.
type Transport interface {
	Send(ctx context.Context, chatID int64, text string, markup any) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, text string, markup any) error
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// Pacing delays applied after outbound operations so rapid navigation does
// not trip the platform's flood control.
const (
	sendDelay = 300 * time.Millisecond
	editDelay = 200 * time.Millisecond
)

// Manager tracks the bot's visible messages per chat. Operations on the same
// chat are serialized; distinct chats proceed independently.
type Manager struct {
	transport Transport

	mu    sync.Mutex
	chats map[int64]*chatState
}

type chatState struct {
	mu      sync.Mutex
	tracked []int
}

// NewManager constructs a Manager over the given transport.
func NewManager(transport Transport) *Manager {
	return &Manager{
		transport: transport,
		chats:     make(map[int64]*chatState),
	}
}

func (m *Manager) chat(chatID int64) *chatState {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs, ok := m.chats[chatID]
	if !ok {
		cs = &chatState{}
		m.chats[chatID] = cs
	}
	return cs
}

// ShowFresh deletes every tracked message in the chat and sends the screen
// as a new message. The new message becomes the only tracked one.
func (m *Manager) ShowFresh(ctx context.Context, chatID int64, text string, markup any) (int, error) {
	cs := m.chat(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	m.clearTracked(ctx, chatID, cs)

	id, err := m.transport.Send(ctx, chatID, text, markup)
	if err != nil {
		return 0, err
	}
	cs.tracked = append(cs.tracked, id)
	m.pause(ctx, sendDelay)
	return id, nil
}

// ShowInPlace edits messageID to show the screen, deleting every other
// tracked message it supersedes. A zero messageID targets the most recent
// tracked message. When no target exists, or the edit is rejected, it falls
// back to sending a fresh message. Repeated in-place navigation therefore
// never grows the tracked set.
func (m *Manager) ShowInPlace(ctx context.Context, chatID int64, messageID int, text string, markup any) (int, error) {
	cs := m.chat(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	target := messageID
	if target == 0 && len(cs.tracked) > 0 {
		target = cs.tracked[len(cs.tracked)-1]
	}

	if target != 0 {
		// Every other tracked message is superseded by the edited one.
		for _, id := range cs.tracked {
			if id == target {
				continue
			}
			if err := m.transport.Delete(ctx, chatID, id); err != nil {
				logger.Debug(ctx, "screen", "delete skipped",
					slog.Int64("chat_id", chatID),
					slog.Int("message_id", id),
					slog.String("error", err.Error()),
				)
			}
		}
		cs.tracked = cs.tracked[:0]
		cs.tracked = append(cs.tracked, target)
		if err := m.transport.Edit(ctx, chatID, target, text, markup); err == nil {
			m.pause(ctx, editDelay)
			return target, nil
		}
		// The message may have been deleted by the user or become
		// uneditable. Drop it and re-send.
		logger.Debug(ctx, "screen", "edit fallback",
			slog.Int64("chat_id", chatID),
			slog.Int("message_id", target),
		)
		cs.tracked = cs.tracked[:0]
	}

	id, err := m.transport.Send(ctx, chatID, text, markup)
	if err != nil {
		return 0, err
	}
	cs.tracked = append(cs.tracked, id)
	m.pause(ctx, sendDelay)
	return id, nil
}

// Track registers a message sent outside the manager so the next fresh screen
// cleans it up too.
func (m *Manager) Track(chatID int64, messageID int) {
	cs := m.chat(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.tracked = append(cs.tracked, messageID)
}

// Clear deletes every tracked message in the chat without sending anything.
func (m *Manager) Clear(ctx context.Context, chatID int64) {
	cs := m.chat(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	m.clearTracked(ctx, chatID, cs)
}

// clearTracked must be called with the chat lock held. Deletion is best
// effort: a message already deleted by the user is simply dropped from the
// tracked set.
func (m *Manager) clearTracked(ctx context.Context, chatID int64, cs *chatState) {
	for _, id := range cs.tracked {
		if err := m.transport.Delete(ctx, chatID, id); err != nil {
			logger.Debug(ctx, "screen", "delete skipped",
				slog.Int64("chat_id", chatID),
				slog.Int("message_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
	cs.tracked = cs.tracked[:0]
}

// pause sleeps for the pacing delay unless the context ends first.
func (m *Manager) pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

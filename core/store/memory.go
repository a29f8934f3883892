package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-memory Store implementation for tests and development.
type Memory struct {
	mu         sync.RWMutex
	users      map[int64]*User
	blocked    map[int64]struct{}
	tempBlocks map[int64]time.Time
	disabled   bool
}

// NewMemory constructs an empty in-memory store with the service enabled.
func NewMemory() *Memory {
	return &Memory{
		users:      make(map[int64]*User),
		blocked:    make(map[int64]struct{}),
		tempBlocks: make(map[int64]time.Time),
	}
}

var _ Store = (*Memory)(nil)

// GetUser returns a copy of the record for id, or nil when unknown.
func (m *Memory) GetUser(_ context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	cp.RequestLog = append(RequestLog(nil), u.RequestLog...)
	return &cp, nil
}

// UpsertUser registers the user on first sight and is a no-op afterwards.
func (m *Memory) UpsertUser(_ context.Context, id int64, joinedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		m.users[id] = &User{ID: id, JoinedAt: joinedAt}
	}
	return nil
}

// RecordDownload bumps counters and appends to the request log atomically.
func (m *Memory) RecordDownload(_ context.Context, id int64, at time.Time, window time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return &StorageError{Op: "record download", Err: errUnknownUser}
	}
	u.DownloadCount++
	last := at
	u.LastDownloadAt = &last
	u.RequestLog = append(u.RequestLog.Pruned(at, window), at)
	return nil
}

// IsBlocked reports whether id carries a permanent block.
func (m *Memory) IsBlocked(_ context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, blocked := m.blocked[id]
	return blocked, nil
}

// Block adds a permanent block; already blocked is not an error.
func (m *Memory) Block(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocked[id] = struct{}{}
	return nil
}

// Unblock removes a permanent block; not blocked is not an error.
func (m *Memory) Unblock(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blocked, id)
	return nil
}

// TempBlockUntil returns the active temporary block expiry for id, lazily
// deleting an expired entry.
func (m *Memory) TempBlockUntil(_ context.Context, id int64, now time.Time) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.tempBlocks[id]
	if !ok {
		return time.Time{}, false, nil
	}
	if !now.Before(until) {
		delete(m.tempBlocks, id)
		return time.Time{}, false, nil
	}
	return until, true, nil
}

// SetTempBlock inserts or replaces the temporary block for id.
func (m *Memory) SetTempBlock(_ context.Context, id int64, unblockAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tempBlocks[id] = unblockAt
	return nil
}

// ServiceEnabled reports the global service flag.
func (m *Memory) ServiceEnabled(_ context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.disabled, nil
}

// SetServiceEnabled flips the global service flag.
func (m *Memory) SetServiceEnabled(_ context.Context, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = !enabled
	return nil
}

// ListUserIDs returns every known user id in insertion-independent order.
func (m *Memory) ListUserIDs(_ context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	return ids, nil
}

// GetStats returns the operator panel counters.
func (m *Memory) GetStats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Stats{
		Users:   int64(len(m.users)),
		Blocked: int64(len(m.blocked)),
	}
	for _, u := range m.users {
		st.Downloads += u.DownloadCount
	}
	return st, nil
}

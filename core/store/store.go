// Package store owns durable bot state: known users, permanent and temporary
// blocks, and the global service flag.
package store

import (
	"context"
	"fmt"
	"time"
)

// User is the persisted record for a single chat user.
type User struct {
	ID             int64      `db:"user_id"`
	JoinedAt       time.Time  `db:"joined_at"`
	DownloadCount  int64      `db:"download_count"`
	LastDownloadAt *time.Time `db:"last_download_at"`
	RequestLog     RequestLog `db:"request_log"`
}

// Stats aggregates counters shown on the operator panel.
type Stats struct {
	Users     int64
	Blocked   int64
	Downloads int64
}

// StorageError wraps any durability failure. It is never swallowed: admission
// decisions depend on this state, so callers must see the failure.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Store is the durable state contract shared by the SQL implementation and the
// in-memory one used for tests and development.
type Store interface {
	// GetUser returns the record for id, or nil when the user is unknown.
	GetUser(ctx context.Context, id int64) (*User, error)
	// UpsertUser registers the user on first sight and is a no-op afterwards.
	UpsertUser(ctx context.Context, id int64, joinedAt time.Time) error
	// RecordDownload atomically bumps the download counter, stamps the last
	// download time, and appends at to the request log, pruning entries that
	// fell out of window.
	RecordDownload(ctx context.Context, id int64, at time.Time, window time.Duration) error

	// IsBlocked reports whether id carries a permanent block.
	IsBlocked(ctx context.Context, id int64) (bool, error)
	// Block adds a permanent block; already blocked is not an error.
	Block(ctx context.Context, id int64) error
	// Unblock removes a permanent block; not blocked is not an error.
	Unblock(ctx context.Context, id int64) error

	// TempBlockUntil returns the active temporary block expiry for id.
	// An expired entry is logically absent: the first read that observes
	// expiry deletes it and reports no block.
	TempBlockUntil(ctx context.Context, id int64, now time.Time) (time.Time, bool, error)
	// SetTempBlock inserts or replaces the temporary block for id.
	SetTempBlock(ctx context.Context, id int64, unblockAt time.Time) error

	// ServiceEnabled reports the global service flag.
	ServiceEnabled(ctx context.Context) (bool, error)
	// SetServiceEnabled flips the global service flag.
	SetServiceEnabled(ctx context.Context, enabled bool) error

	// ListUserIDs returns every known user id, for bulk delivery.
	ListUserIDs(ctx context.Context) ([]int64, error)
	// GetStats returns the operator panel counters.
	GetStats(ctx context.Context) (Stats, error)
}

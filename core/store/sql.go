package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQL is the postgres-backed Store.
type SQL struct {
	db *sqlx.DB
}

// NewSQL wraps an open database handle.
func NewSQL(db *sqlx.DB) *SQL {
	return &SQL{db: db}
}

var _ Store = (*SQL)(nil)

// GetUser returns the record for id, or nil when the user is unknown.
func (s *SQL) GetUser(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u,
		`SELECT user_id, joined_at, download_count, last_download_at, request_log
		 FROM users WHERE user_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}
	return &u, nil
}

// UpsertUser registers the user on first sight and is a no-op afterwards.
func (s *SQL) UpsertUser(ctx context.Context, id int64, joinedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, joined_at) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO NOTHING`, id, joinedAt)
	return storageErr("upsert user", err)
}

// RecordDownload applies the download-completion mutation in one transaction.
// The row lock makes the read-modify-write of request_log safe against a
// concurrent event from the same user.
func (s *SQL) RecordDownload(ctx context.Context, id int64, at time.Time, window time.Duration) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("record download", err)
	}
	defer tx.Rollback()

	var log RequestLog
	err = tx.GetContext(ctx, &log,
		`SELECT request_log FROM users WHERE user_id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return storageErr("record download", sql.ErrNoRows)
	}
	if err != nil {
		return storageErr("record download", err)
	}

	log = append(log.Pruned(at, window), at)
	_, err = tx.ExecContext(ctx,
		`UPDATE users
		 SET download_count = download_count + 1,
		     last_download_at = $2,
		     request_log = $3
		 WHERE user_id = $1`, id, at, log)
	if err != nil {
		return storageErr("record download", err)
	}
	return storageErr("record download", tx.Commit())
}

// IsBlocked reports whether id carries a permanent block.
func (s *SQL) IsBlocked(ctx context.Context, id int64) (bool, error) {
	var blocked bool
	err := s.db.GetContext(ctx, &blocked,
		`SELECT EXISTS (SELECT 1 FROM blocked_users WHERE user_id = $1)`, id)
	if err != nil {
		return false, storageErr("is blocked", err)
	}
	return blocked, nil
}

// Block adds a permanent block; already blocked is not an error.
func (s *SQL) Block(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blocked_users (user_id) VALUES ($1)
		 ON CONFLICT (user_id) DO NOTHING`, id)
	return storageErr("block", err)
}

// Unblock removes a permanent block; not blocked is not an error.
func (s *SQL) Unblock(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM blocked_users WHERE user_id = $1`, id)
	return storageErr("unblock", err)
}

// TempBlockUntil returns the active temporary block expiry for id, lazily
// deleting an expired entry.
func (s *SQL) TempBlockUntil(ctx context.Context, id int64, now time.Time) (time.Time, bool, error) {
	var until time.Time
	err := s.db.GetContext(ctx, &until,
		`SELECT unblock_at FROM temp_blocked WHERE user_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, storageErr("temp block lookup", err)
	}
	if !now.Before(until) {
		// Self-healing: the read that observes expiry removes the entry.
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM temp_blocked WHERE user_id = $1 AND unblock_at <= $2`, id, now); err != nil {
			return time.Time{}, false, storageErr("temp block expiry", err)
		}
		return time.Time{}, false, nil
	}
	return until, true, nil
}

// SetTempBlock inserts or replaces the temporary block for id.
func (s *SQL) SetTempBlock(ctx context.Context, id int64, unblockAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO temp_blocked (user_id, unblock_at) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET unblock_at = EXCLUDED.unblock_at`, id, unblockAt)
	return storageErr("set temp block", err)
}

// ServiceEnabled reports the global service flag.
func (s *SQL) ServiceEnabled(ctx context.Context) (bool, error) {
	var enabled bool
	err := s.db.GetContext(ctx, &enabled,
		`SELECT enabled FROM bot_status WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, storageErr("service flag", err)
	}
	return enabled, nil
}

// SetServiceEnabled flips the global service flag.
func (s *SQL) SetServiceEnabled(ctx context.Context, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bot_status (id, enabled) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET enabled = EXCLUDED.enabled`, enabled)
	return storageErr("set service flag", err)
}

// ListUserIDs returns every known user id, for bulk delivery.
func (s *SQL) ListUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM users ORDER BY user_id`)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	return ids, nil
}

// GetStats returns the operator panel counters.
func (s *SQL) GetStats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowxContext(ctx,
		`SELECT
		    (SELECT COUNT(*) FROM users),
		    (SELECT COUNT(*) FROM blocked_users),
		    (SELECT COALESCE(SUM(download_count), 0) FROM users)`,
	).Scan(&st.Users, &st.Blocked, &st.Downloads)
	if err != nil {
		return Stats{}, storageErr("stats", err)
	}
	return st, nil
}

// Package ratelimit implements the per-user admission policy: permanent
// blocks, self-expiring temporary blocks, a sliding-window request threshold,
// and a short cooldown between consecutive downloads.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/plushpepe/instabot/core/logger"
	"github.com/plushpepe/instabot/core/store"
)

// Outcome enumerates admission decisions.
type Outcome int

const (
	// Allowed admits the event. Admission itself mutates nothing: quota is
	// only consumed by Grant.Commit once the action genuinely proceeds.
	Allowed Outcome = iota
	// CooldownWait rejects because the previous download was too recent.
	CooldownWait
	// TempBlocked rejects because a temporary block is active.
	TempBlocked
	// PermanentlyBlocked rejects unconditionally.
	PermanentlyBlocked
)

// String returns the log-friendly name of the outcome.
func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case CooldownWait:
		return "cooldown"
	case TempBlocked:
		return "temp_blocked"
	case PermanentlyBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Decision is the admission result. RetryAfter is meaningful for
// CooldownWait and TempBlocked only.
type Decision struct {
	Outcome    Outcome
	RetryAfter time.Duration
}

// Policy configures the limiter thresholds.
type Policy struct {
	Cooldown  time.Duration
	Window    time.Duration
	Threshold int
	BlockFor  time.Duration
}

// Storage is the slice of the store the limiter needs.
type Storage interface {
	GetUser(ctx context.Context, id int64) (*store.User, error)
	RecordDownload(ctx context.Context, id int64, at time.Time, window time.Duration) error
	IsBlocked(ctx context.Context, id int64) (bool, error)
	TempBlockUntil(ctx context.Context, id int64, now time.Time) (time.Time, bool, error)
	SetTempBlock(ctx context.Context, id int64, unblockAt time.Time) error
}

// Limiter evaluates admission for every inbound event. Decisions and their
// paired state mutations are linearized per user id; unrelated users never
// contend on a shared lock.
type Limiter struct {
	storage Storage
	policy  Policy

	mu    sync.Mutex
	users map[int64]*sync.Mutex
}

// New constructs a Limiter over the given storage.
func New(storage Storage, policy Policy) *Limiter {
	return &Limiter{
		storage: storage,
		policy:  policy,
		users:   make(map[int64]*sync.Mutex),
	}
}

func (l *Limiter) userLock(id int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	mu, ok := l.users[id]
	if !ok {
		mu = &sync.Mutex{}
		l.users[id] = mu
	}
	return mu
}

// Check evaluates the admission rules without reserving anything. It is meant
// for navigation events that never consume quota.
func (l *Limiter) Check(ctx context.Context, userID int64, now time.Time) (Decision, error) {
	mu := l.userLock(userID)
	mu.Lock()
	defer mu.Unlock()
	return l.admit(ctx, userID, now)
}

// Acquire evaluates admission for a content-producing action. When the
// decision is Allowed, the returned Grant keeps the user's admission state
// locked until Commit or Release, so a concurrent event from the same user
// cannot also observe Allowed before this one settles. For any other decision
// the grant is nil and the lock is already released.
func (l *Limiter) Acquire(ctx context.Context, userID int64, now time.Time) (Decision, *Grant, error) {
	mu := l.userLock(userID)
	mu.Lock()

	dec, err := l.admit(ctx, userID, now)
	if err != nil || dec.Outcome != Allowed {
		mu.Unlock()
		return dec, nil, err
	}
	return dec, &Grant{limiter: l, userID: userID, mu: mu}, nil
}

func (l *Limiter) admit(ctx context.Context, userID int64, now time.Time) (Decision, error) {
	blocked, err := l.storage.IsBlocked(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	if blocked {
		return Decision{Outcome: PermanentlyBlocked}, nil
	}

	if until, active, err := l.storage.TempBlockUntil(ctx, userID, now); err != nil {
		return Decision{}, err
	} else if active {
		return Decision{Outcome: TempBlocked, RetryAfter: until.Sub(now)}, nil
	}

	user, err := l.storage.GetUser(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	if user == nil {
		return Decision{Outcome: Allowed}, nil
	}

	if user.RequestLog.Recent(now, l.policy.Window) >= l.policy.Threshold {
		if err := l.storage.SetTempBlock(ctx, userID, now.Add(l.policy.BlockFor)); err != nil {
			return Decision{}, err
		}
		logger.Warn(ctx, "ratelimit", "window threshold exceeded",
			slog.Int64("user_id", userID),
			slog.Duration("block_for", l.policy.BlockFor),
		)
		return Decision{Outcome: TempBlocked, RetryAfter: l.policy.BlockFor}, nil
	}

	if last, ok := user.RequestLog.Last(); ok {
		if elapsed := now.Sub(last); elapsed < l.policy.Cooldown {
			return Decision{Outcome: CooldownWait, RetryAfter: l.policy.Cooldown - elapsed}, nil
		}
	}

	return Decision{Outcome: Allowed}, nil
}

// Grant is an admitted content action awaiting its outcome. Exactly one of
// Commit or Release must be called; both are safe to call more than once.
type Grant struct {
	limiter *Limiter
	userID  int64
	mu      *sync.Mutex
	once    sync.Once
}

// Commit records the completed download and releases the admission lock.
// Call it only when the action genuinely produced content; failed or retried
// attempts must not consume quota.
func (g *Grant) Commit(ctx context.Context, now time.Time) error {
	var err error
	g.once.Do(func() {
		err = g.limiter.storage.RecordDownload(ctx, g.userID, now, g.limiter.policy.Window)
		g.mu.Unlock()
	})
	return err
}

// Release abandons the grant without consuming quota.
func (g *Grant) Release() {
	g.once.Do(func() {
		g.mu.Unlock()
	})
}

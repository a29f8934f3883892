package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/plushpepe/instabot/core/store"
)

var testPolicy = Policy{
	Cooldown:  3 * time.Second,
	Window:    time.Hour,
	Threshold: 500,
	BlockFor:  time.Hour,
}

func newLimiter(t *testing.T) (*Limiter, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return New(mem, testPolicy), mem
}

// download walks the full content path: acquire, then commit at the same instant.
func download(t *testing.T, l *Limiter, userID int64, now time.Time) Decision {
	t.Helper()
	dec, grant, err := l.Acquire(context.Background(), userID, now)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if grant != nil {
		if err := grant.Commit(context.Background(), now); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}
	return dec
}

func TestUnknownUserIsAllowed(t *testing.T) {
	l, _ := newLimiter(t)
	dec, err := l.Check(context.Background(), 1, time.Now())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if dec.Outcome != Allowed {
		t.Errorf("outcome = %v, want allowed", dec.Outcome)
	}
}

func TestPermanentBlockWinsOverEverything(t *testing.T) {
	ctx := context.Background()
	l, mem := newLimiter(t)
	now := time.Now()

	_ = mem.UpsertUser(ctx, 1, now)
	_ = mem.Block(ctx, 1)
	// A temp block and a fresh download would each reject on their own;
	// the permanent block must still be the reported outcome.
	_ = mem.SetTempBlock(ctx, 1, now.Add(time.Hour))
	_ = mem.RecordDownload(ctx, 1, now, time.Hour)

	dec, err := l.Check(ctx, 1, now)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if dec.Outcome != PermanentlyBlocked {
		t.Errorf("outcome = %v, want permanently blocked", dec.Outcome)
	}

	_ = mem.Unblock(ctx, 1)
	dec, _ = l.Check(ctx, 1, now)
	if dec.Outcome != TempBlocked {
		t.Errorf("outcome after unblock = %v, want temp blocked", dec.Outcome)
	}
}

func TestCooldownBoundary(t *testing.T) {
	ctx := context.Background()
	l, mem := newLimiter(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	_ = mem.UpsertUser(ctx, 1, base)
	if dec := download(t, l, 1, base); dec.Outcome != Allowed {
		t.Fatalf("first download outcome = %v", dec.Outcome)
	}

	dec, _ := l.Check(ctx, 1, base.Add(time.Second))
	if dec.Outcome != CooldownWait {
		t.Fatalf("outcome 1s later = %v, want cooldown", dec.Outcome)
	}
	if dec.RetryAfter != 2*time.Second {
		t.Errorf("retry after = %v, want 2s", dec.RetryAfter)
	}

	// Exactly at the cooldown boundary the user is allowed again.
	dec, _ = l.Check(ctx, 1, base.Add(testPolicy.Cooldown))
	if dec.Outcome != Allowed {
		t.Errorf("outcome at boundary = %v, want allowed", dec.Outcome)
	}
}

func TestWindowThresholdBoundary(t *testing.T) {
	ctx := context.Background()
	l, mem := newLimiter(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_ = mem.UpsertUser(ctx, 1, base)
	// 499 downloads spaced past the cooldown, all inside one hour window?
	// 499*3s = ~25min, comfortably within the window.
	now := base
	for i := 0; i < testPolicy.Threshold-1; i++ {
		if dec := download(t, l, 1, now); dec.Outcome != Allowed {
			t.Fatalf("download #%d outcome = %v", i+1, dec.Outcome)
		}
		now = now.Add(testPolicy.Cooldown)
	}

	// The 500th is still admitted: 499 recent entries < threshold.
	if dec := download(t, l, 1, now); dec.Outcome != Allowed {
		t.Fatalf("500th download outcome = %v, want allowed", dec.Outcome)
	}

	// The 501st trips the threshold and creates the temp block.
	dec, _ := l.Check(ctx, 1, now.Add(testPolicy.Cooldown))
	if dec.Outcome != TempBlocked {
		t.Fatalf("501st outcome = %v, want temp blocked", dec.Outcome)
	}
	if dec.RetryAfter != testPolicy.BlockFor {
		t.Errorf("retry after = %v, want %v", dec.RetryAfter, testPolicy.BlockFor)
	}
}

func TestTempBlockExpiresThenReevaluates(t *testing.T) {
	ctx := context.Background()
	l, mem := newLimiter(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_ = mem.UpsertUser(ctx, 1, base)
	_ = mem.SetTempBlock(ctx, 1, base.Add(time.Hour))

	dec, _ := l.Check(ctx, 1, base.Add(30*time.Minute))
	if dec.Outcome != TempBlocked {
		t.Fatalf("outcome mid-block = %v", dec.Outcome)
	}
	if dec.RetryAfter != 30*time.Minute {
		t.Errorf("retry after = %v, want 30m", dec.RetryAfter)
	}

	// At expiry the block is logically absent and rules 3-5 apply again.
	dec, _ = l.Check(ctx, 1, base.Add(time.Hour))
	if dec.Outcome != Allowed {
		t.Errorf("outcome at expiry = %v, want allowed", dec.Outcome)
	}
}

func TestOldEntriesNeverAffectAdmission(t *testing.T) {
	ctx := context.Background()
	l, mem := newLimiter(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_ = mem.UpsertUser(ctx, 1, base)
	// Fill the log right up to the threshold, then jump past the window.
	now := base
	for i := 0; i < testPolicy.Threshold; i++ {
		_ = mem.RecordDownload(ctx, 1, now, testPolicy.Window)
		now = now.Add(time.Second)
	}

	later := now.Add(testPolicy.Window)
	dec, _ := l.Check(ctx, 1, later)
	if dec.Outcome != Allowed {
		t.Errorf("outcome after window passed = %v, want allowed", dec.Outcome)
	}
}

func TestCheckDoesNotConsumeQuota(t *testing.T) {
	ctx := context.Background()
	l, mem := newLimiter(t)
	now := time.Now()

	_ = mem.UpsertUser(ctx, 1, now)
	for i := 0; i < 100; i++ {
		if dec, _ := l.Check(ctx, 1, now); dec.Outcome != Allowed {
			t.Fatalf("probe #%d outcome = %v", i, dec.Outcome)
		}
	}
	u, _ := mem.GetUser(ctx, 1)
	if len(u.RequestLog) != 0 || u.DownloadCount != 0 {
		t.Errorf("probing mutated state: log=%d count=%d", len(u.RequestLog), u.DownloadCount)
	}
}

func TestReleasedGrantConsumesNothing(t *testing.T) {
	ctx := context.Background()
	l, mem := newLimiter(t)
	now := time.Now()
	_ = mem.UpsertUser(ctx, 1, now)

	_, grant, err := l.Acquire(ctx, 1, now)
	if err != nil || grant == nil {
		t.Fatalf("Acquire: %v, grant=%v", err, grant)
	}
	grant.Release()

	u, _ := mem.GetUser(ctx, 1)
	if u.DownloadCount != 0 {
		t.Errorf("released grant consumed quota: count=%d", u.DownloadCount)
	}
	// The lock is free for the next event.
	if dec, _ := l.Check(ctx, 1, now); dec.Outcome != Allowed {
		t.Errorf("outcome after release = %v, want allowed", dec.Outcome)
	}
}

func TestConcurrentSameUserSingleAdmission(t *testing.T) {
	ctx := context.Background()
	l, mem := newLimiter(t)
	now := time.Now()
	_ = mem.UpsertUser(ctx, 1, now)

	// Two rapid-fire events from the same user at the same instant: the
	// grant serializes them, so the loser must observe the winner's
	// committed download and hit the cooldown.
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dec, grant, err := l.Acquire(ctx, 1, now)
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			if grant == nil {
				return
			}
			mu.Lock()
			allowed++
			mu.Unlock()
			if dec.Outcome != Allowed {
				t.Errorf("grant with outcome %v", dec.Outcome)
			}
			if err := grant.Commit(ctx, now); err != nil {
				t.Errorf("Commit: %v", err)
			}
		}()
	}
	wg.Wait()

	if allowed != 1 {
		t.Errorf("admitted %d concurrent events, want exactly 1", allowed)
	}
}

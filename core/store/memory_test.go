package store

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestUpsertUserIsFirstSightOnly(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := m.UpsertUser(ctx, 7, first); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := m.UpsertUser(ctx, 7, first.Add(time.Hour)); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}

	u, err := m.GetUser(ctx, 7)
	if err != nil || u == nil {
		t.Fatalf("GetUser: %v, %v", u, err)
	}
	if !u.JoinedAt.Equal(first) {
		t.Errorf("joined_at = %v, want first-sight %v", u.JoinedAt, first)
	}
}

func TestRecordDownloadPrunesAndAppends(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	window := time.Hour

	if err := m.UpsertUser(ctx, 1, base); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	for i, at := range []time.Time{base, base.Add(30 * time.Minute), base.Add(90 * time.Minute)} {
		if err := m.RecordDownload(ctx, 1, at, window); err != nil {
			t.Fatalf("RecordDownload #%d: %v", i, err)
		}
	}

	u, _ := m.GetUser(ctx, 1)
	if u.DownloadCount != 3 {
		t.Errorf("download count = %d, want 3", u.DownloadCount)
	}
	// The entry at base fell out of the window by the third download.
	if len(u.RequestLog) != 2 {
		t.Errorf("request log length = %d, want 2", len(u.RequestLog))
	}
	if last, ok := u.RequestLog.Last(); !ok || !last.Equal(base.Add(90*time.Minute)) {
		t.Errorf("last log entry = %v, want newest download", last)
	}
	if u.LastDownloadAt == nil || !u.LastDownloadAt.Equal(base.Add(90*time.Minute)) {
		t.Errorf("last_download_at = %v", u.LastDownloadAt)
	}
}

func TestRecordDownloadUnknownUser(t *testing.T) {
	m := NewMemory()
	err := m.RecordDownload(context.Background(), 99, time.Now(), time.Hour)
	if err == nil {
		t.Fatal("RecordDownload for unknown user did not fail")
	}
	if _, ok := err.(*StorageError); !ok {
		t.Errorf("error type = %T, want *StorageError", err)
	}
}

func TestRecordDownloadConcurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	at := time.Now()
	if err := m.UpsertUser(ctx, 1, at); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = m.RecordDownload(ctx, 1, at, time.Hour)
		}()
	}
	wg.Wait()

	u, _ := m.GetUser(ctx, 1)
	if u.DownloadCount != n {
		t.Errorf("download count = %d after %d concurrent downloads", u.DownloadCount, n)
	}
}

func TestBlockUnblockIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i := 0; i < 2; i++ {
		if err := m.Block(ctx, 5); err != nil {
			t.Fatalf("Block: %v", err)
		}
	}
	if blocked, _ := m.IsBlocked(ctx, 5); !blocked {
		t.Error("user not blocked after Block")
	}
	for i := 0; i < 2; i++ {
		if err := m.Unblock(ctx, 5); err != nil {
			t.Fatalf("Unblock: %v", err)
		}
	}
	if blocked, _ := m.IsBlocked(ctx, 5); blocked {
		t.Error("user still blocked after Unblock")
	}
}

func TestTempBlockLazyExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := now.Add(time.Hour)

	if err := m.SetTempBlock(ctx, 3, until); err != nil {
		t.Fatalf("SetTempBlock: %v", err)
	}

	got, active, err := m.TempBlockUntil(ctx, 3, now)
	if err != nil || !active || !got.Equal(until) {
		t.Fatalf("TempBlockUntil before expiry = %v, %v, %v", got, active, err)
	}

	// Exactly at expiry the entry is logically absent and gets deleted.
	if _, active, _ := m.TempBlockUntil(ctx, 3, until); active {
		t.Error("block still active at expiry instant")
	}
	// The deletion is observable on the next read with an earlier clock.
	if _, active, _ := m.TempBlockUntil(ctx, 3, now); active {
		t.Error("expired entry was not deleted")
	}
}

func TestServiceFlag(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if enabled, _ := m.ServiceEnabled(ctx); !enabled {
		t.Fatal("service not enabled by default")
	}
	if err := m.SetServiceEnabled(ctx, false); err != nil {
		t.Fatalf("SetServiceEnabled: %v", err)
	}
	if enabled, _ := m.ServiceEnabled(ctx); enabled {
		t.Error("service still enabled after disable")
	}
}

func TestGetStats(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	at := time.Now()

	for id := int64(1); id <= 3; id++ {
		_ = m.UpsertUser(ctx, id, at)
	}
	_ = m.RecordDownload(ctx, 1, at, time.Hour)
	_ = m.RecordDownload(ctx, 1, at, time.Hour)
	_ = m.RecordDownload(ctx, 2, at, time.Hour)
	_ = m.Block(ctx, 3)

	st, err := m.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	want := Stats{Users: 3, Blocked: 1, Downloads: 3}
	if st != want {
		t.Errorf("stats = %+v, want %+v", st, want)
	}
}

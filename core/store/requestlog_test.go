package store

import (
	"testing"
	"time"
)

func TestRequestLogRoundTrip(t *testing.T) {
	log := RequestLog{
		time.Unix(1700000000, 0),
		time.Unix(1700000100, 0),
	}

	raw, err := log.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if string(raw.([]byte)) != "[1700000000,1700000100]" {
		t.Errorf("encoded = %s", raw)
	}

	var back RequestLog
	if err := back.Scan(raw); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(back) != 2 || !back[0].Equal(log[0]) || !back[1].Equal(log[1]) {
		t.Errorf("round trip = %v, want %v", back, log)
	}
}

func TestRequestLogScanRejectsNonNumeric(t *testing.T) {
	// Anything that is not a plain numeric array must be rejected outright,
	// never interpreted.
	for _, raw := range []string{
		`["os.system('rm -rf /')"]`,
		`{"a": 1}`,
		`[1700000000, "x"]`,
		`not json at all`,
	} {
		var log RequestLog
		if err := log.Scan([]byte(raw)); err == nil {
			t.Errorf("Scan accepted %q", raw)
		}
	}
}

func TestRequestLogScanNil(t *testing.T) {
	log := RequestLog{time.Now()}
	if err := log.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if log != nil {
		t.Errorf("log = %v, want nil", log)
	}
}

func TestRequestLogRecentAndLast(t *testing.T) {
	now := time.Unix(1700003600, 0)
	log := RequestLog{
		now.Add(-2 * time.Hour),
		now.Add(-time.Hour), // exactly window old: excluded (strict <)
		now.Add(-time.Minute),
		now.Add(-time.Second),
	}

	if got := log.Recent(now, time.Hour); got != 2 {
		t.Errorf("Recent = %d, want 2", got)
	}
	last, ok := log.Last()
	if !ok || !last.Equal(now.Add(-time.Second)) {
		t.Errorf("Last = %v, %v", last, ok)
	}

	pruned := log.Pruned(now, time.Hour)
	if len(pruned) != 2 {
		t.Errorf("Pruned length = %d, want 2", len(pruned))
	}

	var empty RequestLog
	if _, ok := empty.Last(); ok {
		t.Error("Last on empty log reported an entry")
	}
}

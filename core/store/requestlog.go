package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RequestLog is the ordered sequence of content-request timestamps for a user.
// It round-trips through the database as a JSON array of unix seconds; the
// decoder accepts numbers only, nothing executable.
type RequestLog []time.Time

// Value implements driver.Valuer.
func (l RequestLog) Value() (driver.Value, error) {
	secs := make([]int64, len(l))
	for i, t := range l {
		secs[i] = t.Unix()
	}
	data, err := json.Marshal(secs)
	if err != nil {
		return nil, fmt.Errorf("request log encode: %w", err)
	}
	return data, nil
}

// Scan implements sql.Scanner.
func (l *RequestLog) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("request log scan: unsupported type %T", src)
	}

	var secs []int64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("request log decode: %w", err)
	}
	log := make(RequestLog, len(secs))
	for i, s := range secs {
		log[i] = time.Unix(s, 0)
	}
	*l = log
	return nil
}

// Recent counts entries younger than window relative to now.
func (l RequestLog) Recent(now time.Time, window time.Duration) int {
	n := 0
	for _, t := range l {
		if now.Sub(t) < window {
			n++
		}
	}
	return n
}

// Last returns the newest entry and whether the log is non-empty.
func (l RequestLog) Last() (time.Time, bool) {
	if len(l) == 0 {
		return time.Time{}, false
	}
	return l[len(l)-1], true
}

// Pruned returns the log without entries that fell out of window.
func (l RequestLog) Pruned(now time.Time, window time.Duration) RequestLog {
	out := make(RequestLog, 0, len(l))
	for _, t := range l {
		if now.Sub(t) < window {
			out = append(out, t)
		}
	}
	return out
}

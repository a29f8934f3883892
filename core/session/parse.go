package session

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError reports operator input that cannot drive the pending action.
type ValidationError struct {
	Input  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

// ParseUserID parses the operator's reply to a block or unblock prompt. The
// input must be a bare positive integer user id.
func ParseUserID(text string) (int64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, &ValidationError{Input: text, Reason: "empty"}
	}
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, &ValidationError{Input: text, Reason: "not a number"}
	}
	if id <= 0 {
		return 0, &ValidationError{Input: text, Reason: "must be positive"}
	}
	return id, nil
}

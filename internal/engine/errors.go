package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPool means the owned-set filter left nothing to sample from
	ErrEmptyPool = errors.New("candidate pool is empty")

	// ErrInvalidLock means a lock names a fighter outside the current pool
	ErrInvalidLock = errors.New("locked fighter is not in the candidate pool")

	// ErrUnknownFighter means a direct choice or promotion names a fighter outside the pool
	ErrUnknownFighter = errors.New("fighter is not in the candidate pool")

	// ErrNoFairPool means no pool combination satisfies the fairness bounds
	ErrNoFairPool = errors.New("no fair pool combination found")
)

// User-facing messages for an empty pool
const (
	MsgNoSetsSelected  = "Please select at least one owned set to get suggestions."
	MsgNoFightersInSet = "No fighters available from the selected sets."
)

// ValidationError reports malformed request fields
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, k := range sortedKeys(e.Fields) {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// emptyPoolError carries the user-facing message for an empty pool
type emptyPoolError struct{ msg string }

func (e *emptyPoolError) Error() string { return e.msg }
func (e *emptyPoolError) Unwrap() error { return ErrEmptyPool }

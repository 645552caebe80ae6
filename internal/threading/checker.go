// Package threading enforces the engine's single-writer concurrency model.
// All index and registry mutation happens on one owning goroutine; public
// entry points assert their caller with a Checker instead of taking locks.
package threading

import (
	"bytes"
	"runtime"
	"strconv"

	"github.com/conneroisu/templink/internal/errors"
)

// Checker reports whether the current goroutine is the engine's owning
// goroutine.
type Checker interface {
	// Check returns an affinity error when called off the owning
	// goroutine and nil otherwise.
	Check(component, op string) error
}

// GoroutineChecker pins affinity to the goroutine that created it.
type GoroutineChecker struct {
	owner uint64
}

// NewGoroutineChecker captures the calling goroutine as the owner.
func NewGoroutineChecker() *GoroutineChecker {
	return &GoroutineChecker{owner: goroutineID()}
}

// Check implements Checker.
func (c *GoroutineChecker) Check(component, op string) error {
	if goroutineID() != c.owner {
		return errors.NewAffinityError(component, op)
	}

	return nil
}

// goroutineID parses the current goroutine's id out of the stack header.
// The header has the fixed form "goroutine N [state]:".
func goroutineID() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	if i := bytes.IndexByte(buf, ' '); i >= 0 {
		buf = buf[:i]
	}

	id, err := strconv.ParseUint(string(buf), 10, 64)
	if err != nil {
		return 0
	}

	return id
}

// NopChecker accepts every caller. Used by tests that drive the engine from
// multiple goroutines deliberately.
type NopChecker struct{}

// Check implements Checker.
func (NopChecker) Check(string, string) error { return nil }

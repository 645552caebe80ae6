package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerErrorFormat(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewSubscriptionError("watcher", "Start", cause).WithPath("/x/_Imports.templ")

	msg := err.Error()
	assert.Contains(t, msg, "[subscription_failed]")
	assert.Contains(t, msg, "component:watcher")
	assert.Contains(t, msg, "op:Start")
	assert.Contains(t, msg, "/x/_Imports.templ")
	assert.Contains(t, msg, "permission denied")
}

func TestTrackerErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewSubscriptionError("watcher", "Stop", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestTrackerErrorIs(t *testing.T) {
	a := NewAffinityError("manager", "AddDocument")
	b := NewAffinityError("manager", "RemoveDocument")
	assert.True(t, errors.Is(a, b), "same type and code should match")

	c := NewInvalidArgumentError("AddDocument", "nil document")
	assert.False(t, errors.Is(a, c))
}

func TestTrackerErrorWrappedThroughFmt(t *testing.T) {
	inner := NewSubscriptionError("watcher", "Start", errors.New("boom"))
	outer := fmt.Errorf("adding document: %w", inner)

	assert.True(t, IsSubscriptionError(outer))
	assert.True(t, IsRecoverable(outer))
	assert.False(t, IsAffinityError(outer))
}

func TestErrorPredicates(t *testing.T) {
	testCases := []struct {
		name        string
		err         error
		recoverable bool
		affinity    bool
	}{
		{"affinity", NewAffinityError("manager", "AddDocument"), false, true},
		{"validation", NewInvalidArgumentError("AddDocument", "nil document"), true, false},
		{"missing parser", NewMissingParserError("/x/page.templ"), true, false},
		{"internal", NewInternalError("watcher_state", "watcher missing", nil), false, false},
		{"plain", errors.New("plain"), false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.recoverable, IsRecoverable(tc.err))
			assert.Equal(t, tc.affinity, IsAffinityError(tc.err))
		})
	}
}

package watch

import "github.com/google/uuid"

// Subscription is an opaque handle returned by change-source registration
// and required for unregistration.
type Subscription struct {
	id uuid.UUID
}

// NewSubscription allocates a fresh handle. Exposed for change-source
// implementations outside this package.
func NewSubscription() Subscription {
	return Subscription{id: uuid.New()}
}

// Zero reports whether the handle was never issued by a change source.
func (s Subscription) Zero() bool {
	return s.id == uuid.Nil
}

// String returns the handle's identifier for logging.
func (s Subscription) String() string {
	return s.id.String()
}

// Package activitytest provides an in-memory activity.Auditor for service tests.
package activitytest

import (
	"context"
	"sync"

	"github.com/hms/hms/internal/platform/activity"
)

type Call struct {
	Action  string
	Details activity.Details
}

// Auditor records every Log call.
type Auditor struct {
	mu    sync.Mutex
	calls []Call
}

func (a *Auditor) Log(_ context.Context, action string, details activity.Details) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, Call{Action: action, Details: details})
}

func (a *Auditor) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Call(nil), a.calls...)
}

// Last returns the most recent call. ok is false when nothing was logged.
func (a *Auditor) Last() (call Call, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.calls) == 0 {
		return Call{}, false
	}
	return a.calls[len(a.calls)-1], true
}

// Description is the description of the most recent call.
func (a *Auditor) Description() string {
	c, _ := a.Last()
	s, _ := c.Details["description"].(string)
	return s
}

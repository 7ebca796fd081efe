// Package browser drives a single Chrome session for the portal automation.
// Every locating or waiting call takes an explicit timeout and fails with
// ErrElementNotFound or ErrTimeout instead of blocking.
package browser

import (
	"context"
	"time"

	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
)

// Driver is the session abstraction the step library is written against
type Driver interface {
	// Open starts the browser. Calling Open on an open session is a no-op.
	Open(ctx context.Context) error

	// Navigate loads url and waits for the document body
	Navigate(ctx context.Context, url string) error

	// Find waits until sel is visible
	Find(ctx context.Context, sel Selector, timeout time.Duration) error

	// WaitClickable waits until sel is visible and enabled
	WaitClickable(ctx context.Context, sel Selector, timeout time.Duration) error

	// Count returns how many elements currently match sel, without waiting
	Count(ctx context.Context, sel Selector) (int, error)

	// Click waits for sel to be clickable and clicks it
	Click(ctx context.Context, sel Selector, timeout time.Duration) error

	// Type clears sel and types text into it
	Type(ctx context.Context, sel Selector, text string, timeout time.Duration) error

	// Upload sends all paths to a file input in one call
	Upload(ctx context.Context, sel Selector, paths []string, timeout time.Duration) error

	// Eval calls the JavaScript function source fn with JSON-encoded args and
	// decodes its return value into out (which may be nil). Scripts can use
	// the helpers __resolve(sel) and __resolveAll(sel) on Selector arguments.
	Eval(ctx context.Context, fn string, out interface{}, args ...interface{}) error

	// WaitUntil polls cond until it holds or timeout elapses
	WaitUntil(ctx context.Context, cond Condition, timeout, interval time.Duration) error

	// CaptureDiagnostics snapshots the page. It never fails; missing
	// fields are left empty and the problem is noted in Error.
	CaptureDiagnostics(ctx context.Context) entity.PageDiagnostics

	// Alive reports whether the browser window is still open
	Alive(ctx context.Context) bool

	// Close ends the session
	Close() error
}

// Timeouts are the three wait budgets used throughout the step library
type Timeouts struct {
	Probe   time.Duration // short existence checks
	Default time.Duration // regular element waits
	Field   time.Duration // optional form fields
}

// DefaultTimeouts returns the standard wait budgets
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Probe:   3 * time.Second,
		Default: 10 * time.Second,
		Field:   5 * time.Second,
	}
}

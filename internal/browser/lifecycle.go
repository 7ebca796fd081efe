package browser

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// startTimeout bounds how long Open waits for Chrome to answer
	startTimeout = 30 * time.Second

	// maxConsoleErrors caps the console errors kept for diagnostics
	maxConsoleErrors = 50
)

// startWithin runs start and waits at most timeout or until ctx is done.
// abort is called only when start fails or the wait gives up; on success
// whatever start created is left running.
func startWithin(ctx context.Context, timeout time.Duration, start func() error, abort func()) error {
	done := make(chan error, 1)
	go func() { done <- start() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			abort()
		}
		return err
	case <-timer.C:
		abort()
		<-done
		return fmt.Errorf("%w: browser did not start within %s", ErrTimeout, timeout)
	case <-ctx.Done():
		abort()
		<-done
		return ctx.Err()
	}
}

// consoleBuffer keeps the most recent error-level console entries
type consoleBuffer struct {
	mu      sync.Mutex
	max     int
	entries []string
}

func newConsoleBuffer(limit int) *consoleBuffer {
	return &consoleBuffer{max: limit}
}

func (b *consoleBuffer) add(entry string) {
	if entry == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry)
	if over := len(b.entries) - b.max; over > 0 {
		b.entries = append([]string(nil), b.entries[over:]...)
	}
}

// snapshot returns a copy, nil when nothing was recorded
func (b *consoleBuffer) snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) == 0 {
		return nil
	}
	return append([]string(nil), b.entries...)
}

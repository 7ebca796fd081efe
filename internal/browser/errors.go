package browser

import "errors"

var (
	// ErrElementNotFound is returned when a selector matched nothing before its timeout
	ErrElementNotFound = errors.New("element not found")

	// ErrTimeout is returned when a wait or condition did not complete in time
	ErrTimeout = errors.New("timed out")

	// ErrNotOpen is returned when the session has not been opened or was closed
	ErrNotOpen = errors.New("browser session not open")
)

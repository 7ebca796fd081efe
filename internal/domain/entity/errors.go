package entity

import "errors"

var (
	// ErrCredentials is returned when portal credentials are absent or incomplete
	ErrCredentials = errors.New("credentials not configured")

	// ErrAutomationInit is returned when the browser session cannot be started
	ErrAutomationInit = errors.New("failed to initialize browser automation")

	// ErrLogin is returned when authentication fails
	ErrLogin = errors.New("login failed")

	// ErrInvalidRequest is returned when a request fails validation
	ErrInvalidRequest = errors.New("invalid submission request")

	// ErrSubmission is returned when a workflow step fails
	ErrSubmission = errors.New("submission failed")

	// ErrUnexpected wraps panics and other failures outside the step contract
	ErrUnexpected = errors.New("unexpected error")
)

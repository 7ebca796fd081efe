package entity

import "time"

// ErrorCode classifies a failed submission for the caller
type ErrorCode string

const (
	ErrorCodeCredentials    ErrorCode = "CREDENTIALS_ERROR"
	ErrorCodeAutomation     ErrorCode = "AUTOMATION_ERROR"
	ErrorCodeLogin          ErrorCode = "LOGIN_ERROR"
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrorCodeSubmission     ErrorCode = "SUBMISSION_ERROR"
	ErrorCodeUnexpected     ErrorCode = "UNEXPECTED_ERROR"
)

// ConfirmationStatus is what the page showed after the final submit
type ConfirmationStatus string

const (
	ConfirmationConfirmed   ConfirmationStatus = "confirmed"
	ConfirmationRejected    ConfirmationStatus = "rejected"
	ConfirmationUnconfirmed ConfirmationStatus = "unconfirmed"
)

// Confirmation is the result of polling for the post-submit page state
type Confirmation struct {
	Status  ConfirmationStatus `json:"status"`
	Message string             `json:"message"`
}

// Succeeded reports whether the confirmation counts as a successful submission
func (c *Confirmation) Succeeded(assumeOnTimeout bool) bool {
	if c == nil {
		return false
	}
	switch c.Status {
	case ConfirmationConfirmed:
		return true
	case ConfirmationUnconfirmed:
		return assumeOnTimeout
	default:
		return false
	}
}

// PageDiagnostics is a snapshot of the page taken when a step fails
type PageDiagnostics struct {
	URL        string   `json:"url,omitempty"`
	Title      string   `json:"title,omitempty"`
	ReadyState string   `json:"ready_state,omitempty"`
	Alerts     []string `json:"alerts,omitempty"`
	// ConsoleErrors holds recent console errors, uncaught exceptions and error log entries
	ConsoleErrors []string  `json:"console_errors,omitempty"`
	CapturedAt    time.Time `json:"captured_at"`
	Error         string    `json:"error,omitempty"`
}

// SubmissionOutcome is the single result of one submission attempt
type SubmissionOutcome struct {
	AttemptID     string           `json:"attempt_id,omitempty"`
	Success       bool             `json:"success"`
	Message       string           `json:"message"`
	ErrorCode     ErrorCode        `json:"error_code,omitempty"`
	PONumber      string           `json:"po_number,omitempty"`
	AutoSubmitted *bool            `json:"auto_submitted,omitempty"`
	FailedStep    string           `json:"failed_step,omitempty"`
	State         string           `json:"state,omitempty"`
	Confirmation  *Confirmation    `json:"confirmation,omitempty"`
	Diagnostics   *PageDiagnostics `json:"diagnostics,omitempty"`
}

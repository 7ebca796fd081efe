package entity

import "fmt"

// StepResult is the outcome of one step against the portal. A step either
// completed its whole contract (OK) or failed with Err.
type StepResult struct {
	Step         string
	OK           bool
	Err          error
	Diagnostics  *PageDiagnostics
	Confirmation *Confirmation
}

// Failure returns the step error as a *StepFailure, or nil when OK
func (r StepResult) Failure() error {
	if r.OK {
		return nil
	}
	return &StepFailure{Step: r.Step, Diagnostics: r.Diagnostics, Err: r.Err}
}

// StepFailure carries the failing step name and the page state at failure
type StepFailure struct {
	Step        string
	Diagnostics *PageDiagnostics
	Err         error
}

func (e *StepFailure) Error() string {
	if e.Diagnostics != nil && e.Diagnostics.URL != "" {
		return fmt.Sprintf("step %s failed at %s: %v", e.Step, e.Diagnostics.URL, e.Err)
	}
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepFailure) Unwrap() error {
	return e.Err
}

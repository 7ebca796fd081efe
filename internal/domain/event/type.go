package event

// Type identifies the type of domain event
type Type string

const (
	TypeSubmissionStarted   Type = "submission.started"
	TypeStepCompleted       Type = "step.completed"
	TypeStepFailed          Type = "step.failed"
	TypeSubmissionCompleted Type = "submission.completed"
	TypeSubmissionFailed    Type = "submission.failed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeSubmissionStarted,
		TypeStepCompleted,
		TypeStepFailed,
		TypeSubmissionCompleted,
		TypeSubmissionFailed:
		return true
	default:
		return false
	}
}

// IsFinal reports whether the event closes an attempt
func (t Type) IsFinal() bool {
	return t == TypeSubmissionCompleted || t == TypeSubmissionFailed
}

package workflow

// State is a point in the submission lifecycle
type State string

const (
	StateInit             State = "INIT"
	StateAuthenticated    State = "AUTHENTICATED"
	StateStudentSelected  State = "STUDENT_SELECTED"
	StateFormStarted      State = "FORM_STARTED"
	StateFilesUploaded    State = "FILES_UPLOADED"
	StateCategorySelected State = "CATEGORY_SELECTED"
	StateDetailsFilled    State = "DETAILS_FILLED"
	StateReviewReached    State = "REVIEW_REACHED"
	StateSubmitted        State = "SUBMITTED"
	StateStoppedForReview State = "STOPPED_FOR_REVIEW"
	StateFailed           State = "FAILED"
)

var validStates = map[State]bool{
	StateInit:             true,
	StateAuthenticated:    true,
	StateStudentSelected:  true,
	StateFormStarted:      true,
	StateFilesUploaded:    true,
	StateCategorySelected: true,
	StateDetailsFilled:    true,
	StateReviewReached:    true,
	StateSubmitted:        true,
	StateStoppedForReview: true,
	StateFailed:           true,
}

var terminalStates = map[State]bool{
	StateSubmitted:        true,
	StateStoppedForReview: true,
	StateFailed:           true,
}

// IsTerminal returns true if no further transitions are allowed
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

package workflow

import "context"

// progressStates are the states a run passes through before the final
// submit decision. Any of them may fail.
var progressStates = []State{
	StateInit,
	StateAuthenticated,
	StateStudentSelected,
	StateFormStarted,
	StateFilesUploaded,
	StateCategorySelected,
	StateDetailsFilled,
	StateReviewReached,
}

// NewSubmissionMachine builds the lifecycle for one submission attempt.
// autoSubmit decides whether the review page leads to SUBMITTED or
// STOPPED_FOR_REVIEW.
func NewSubmissionMachine(autoSubmit bool) StateMachine {
	submit := func(context.Context) bool { return autoSubmit }
	hold := func(context.Context) bool { return !autoSubmit }

	b := NewBuilder()

	b.Configure(StateInit).
		Permit(TriggerLogin, StateAuthenticated)

	b.Configure(StateAuthenticated).
		Permit(TriggerSelectStudent, StateStudentSelected)

	b.Configure(StateStudentSelected).
		Permit(TriggerStartForm, StateFormStarted)

	b.Configure(StateFormStarted).
		Permit(TriggerUploadFiles, StateFilesUploaded)

	b.Configure(StateFilesUploaded).
		Permit(TriggerSelectCategory, StateCategorySelected)

	b.Configure(StateCategorySelected).
		Permit(TriggerFillDetails, StateDetailsFilled)

	// Reimbursement without auto-submit stops on the details page.
	b.Configure(StateDetailsFilled).
		Permit(TriggerReachReview, StateReviewReached).
		PermitIf(TriggerStopForReview, StateStoppedForReview, hold)

	b.Configure(StateReviewReached).
		PermitIf(TriggerSubmit, StateSubmitted, submit).
		PermitIf(TriggerStopForReview, StateStoppedForReview, hold)

	for _, s := range progressStates {
		b.Configure(s).Permit(TriggerFail, StateFailed)
	}

	return b.Build(StateInit)
}

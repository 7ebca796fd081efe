package workflow

// Trigger is the completion of a workflow step
type Trigger string

const (
	TriggerLogin          Trigger = "LOGIN"
	TriggerSelectStudent  Trigger = "SELECT_STUDENT"
	TriggerStartForm      Trigger = "START_FORM"
	TriggerUploadFiles    Trigger = "UPLOAD_FILES"
	TriggerSelectCategory Trigger = "SELECT_CATEGORY"
	TriggerFillDetails    Trigger = "FILL_DETAILS"
	TriggerReachReview    Trigger = "REACH_REVIEW"
	TriggerSubmit         Trigger = "SUBMIT"
	TriggerStopForReview  Trigger = "STOP_FOR_REVIEW"
	TriggerFail           Trigger = "FAIL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

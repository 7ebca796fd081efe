package service

import (
	"errors"
	"fmt"

	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
)

// operatorError carries the message shown to the operator. It unwraps to
// both the entity sentinel that classifies it and the underlying cause.
type operatorError struct {
	message string
	kind    error
	cause   error
}

func newOperatorError(kind error, cause error, format string, args ...interface{}) *operatorError {
	return &operatorError{
		message: fmt.Sprintf(format, args...),
		kind:    kind,
		cause:   cause,
	}
}

func (e *operatorError) Error() string {
	return e.message
}

func (e *operatorError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// ErrorCodeFor maps an orchestration error to its outcome error code
func ErrorCodeFor(err error) entity.ErrorCode {
	switch {
	case errors.Is(err, entity.ErrCredentials):
		return entity.ErrorCodeCredentials
	case errors.Is(err, entity.ErrAutomationInit):
		return entity.ErrorCodeAutomation
	case errors.Is(err, entity.ErrLogin):
		return entity.ErrorCodeLogin
	case errors.Is(err, entity.ErrInvalidRequest):
		return entity.ErrorCodeInvalidRequest
	case errors.Is(err, entity.ErrSubmission):
		return entity.ErrorCodeSubmission
	default:
		return entity.ErrorCodeUnexpected
	}
}

// OperatorMessage returns the human-readable message for err
func OperatorMessage(err error) string {
	var opErr *operatorError
	if errors.As(err, &opErr) {
		return opErr.message
	}
	return fmt.Sprintf("Unexpected error: %v", err)
}

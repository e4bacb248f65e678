package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrTaskNameRequired                      ErrorCode = "TASK_NAME_REQUIRED"
	ErrTaskCodeRequired                      ErrorCode = "TASK_CODE_REQUIRED"
	ErrTaskCodeAlreadyInUse                  ErrorCode = "TASK_CODE_ALREADY_IN_USE"
	ErrTaskUsedByContributions               ErrorCode = "TASK_USED_BY_CONTRIBUTIONS_CANNOT_ACCEPT_SUBTASKS"
	ErrTaskWithAmountsCannotAcceptSubtasks   ErrorCode = "TASK_WITH_AMOUNTS_CANNOT_ACCEPT_SUBTASKS"
	ErrTaskWithSubtasksCannotHaveAmounts     ErrorCode = "TASK_WITH_SUBTASKS_CANNOT_HAVE_AMOUNTS"
	ErrTaskWithSubtaskCannotAcceptContrib    ErrorCode = "TASK_WITH_SUBTASK_CANNOT_ACCEPT_CONTRIBUTIONS"
	ErrTaskCannotBeMovedUnderItself          ErrorCode = "TASK_CANNOT_BE_MOVED_UNDER_ITSELF"
	ErrTaskHasContributions                  ErrorCode = "TASK_HAS_CONTRIBUTIONS"
	ErrTaskClosed                            ErrorCode = "TASK_CLOSED"
	ErrTooManySubtasks                       ErrorCode = "TOO_MANY_SUBTASKS"
	ErrCannotMove                            ErrorCode = "CANNOT_MOVE"
	ErrInvalidTaskNumber                     ErrorCode = "INVALID_TASK_NUMBER"
	ErrInvalidAmount                         ErrorCode = "INVALID_AMOUNT"
	ErrPathUpdateDetected                    ErrorCode = "PATH_UPDATE_DETECTED"
	ErrUnknownTask                           ErrorCode = "UNKNOWN_TASK"
	ErrDuplicateContribution                 ErrorCode = "DUPLICATE_CONTRIBUTION"
	ErrUnknownCollaborator                   ErrorCode = "UNKNOWN_COLLABORATOR"
	ErrCollaboratorInactive                  ErrorCode = "COLLABORATOR_INACTIVE"
	ErrCollaboratorHasContributions          ErrorCode = "COLLABORATOR_HAS_CONTRIBUTIONS"
	ErrLoginRequired                         ErrorCode = "LOGIN_REQUIRED"
	ErrLoginAlreadyInUse                     ErrorCode = "LOGIN_ALREADY_IN_USE"
	ErrUnknownDuration                       ErrorCode = "UNKNOWN_DURATION"
	ErrDurationInactive                      ErrorCode = "DURATION_INACTIVE"
	ErrDurationInUse                         ErrorCode = "DURATION_IN_USE"
	ErrDurationAlreadyExists                 ErrorCode = "DURATION_ALREADY_EXISTS"
	ErrInvalidDuration                       ErrorCode = "INVALID_DURATION"
	ErrInvalidInterval                       ErrorCode = "INVALID_INTERVAL"
	ErrNoContributions                       ErrorCode = "NO_CONTRIBUTIONS"
	ErrTooManyColumns                        ErrorCode = "TOO_MANY_COLUMNS"
)

// ErrConcurrentModification matches any ModelError raised because the
// caller's view of a task no longer matches what is stored.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// ModelError is a recoverable business-rule violation. Code is stable and
// machine checkable; Message is for humans.
type ModelError struct {
	Code    ErrorCode
	Message string
}

func (e *ModelError) Error() string {
	return string(e.Code) + ": " + e.Message
}

func (e *ModelError) Is(target error) bool {
	return target == ErrConcurrentModification && e.Code == ErrPathUpdateDetected
}

// NewModelError builds a ModelError with a formatted message.
func NewModelError(code ErrorCode, format string, args ...any) *ModelError {
	return &ModelError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsModelError reports whether err carries a ModelError with the given code.
func IsModelError(err error, code ErrorCode) bool {
	var me *ModelError
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// ModelErrorCode returns the code of the ModelError carried by err, or "".
func ModelErrorCode(err error) ErrorCode {
	var me *ModelError
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

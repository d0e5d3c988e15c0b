package services

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorInvalid           ErrorCode = "invalid"
	ErrorNotFound          ErrorCode = "not_found"
	ErrorSessionFull       ErrorCode = "session_full"
	ErrorRoleConflict      ErrorCode = "role_conflict"
	ErrorIncompleteSession ErrorCode = "incomplete_session"
	ErrorStore             ErrorCode = "store"
)

// ServiceError carries a code the HTTP layer maps to a status. Two
// ServiceErrors match under errors.Is when their codes are equal.
type ServiceError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	return ok && t.Code == e.Code
}

var (
	ErrInvalid           = &ServiceError{Code: ErrorInvalid, Message: "invalid input"}
	ErrNotFound          = &ServiceError{Code: ErrorNotFound, Message: "not found"}
	ErrSessionFull       = &ServiceError{Code: ErrorSessionFull, Message: "this survey session is already full"}
	ErrRoleConflict      = &ServiceError{Code: ErrorRoleConflict, Message: "role already taken in this session"}
	ErrIncompleteSession = &ServiceError{Code: ErrorIncompleteSession, Message: "session is not ready for report generation"}
	ErrStore             = &ServiceError{Code: ErrorStore, Message: "store failure"}

	errNoParticipant = errors.New("store returned no participant")
)

func NewInvalidError(msg string) error  { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }

func NewRoleConflictError(role string) error {
	return &ServiceError{Code: ErrorRoleConflict, Message: fmt.Sprintf("this session already has a %s", role)}
}

func NewIncompleteSessionError(msg string) error {
	return &ServiceError{Code: ErrorIncompleteSession, Message: msg}
}

// NewStoreError wraps a persistence failure. ServiceErrors pass through
// untouched so store adapters can return domain errors from inside a
// transaction.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsServiceError(err); ok {
		return err
	}
	return &ServiceError{Code: ErrorStore, Message: op, Err: err}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Package errors provides structured error handling for the session manager:
// a semantic error kind, sentinel errors matching spec error kinds, and
// constructor helpers per kind.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies a SessionError by the spec's semantic error kinds.
type ErrorType string

const (
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeSecurityDenied  ErrorType = "security_denied"
	ErrorTypeDisposed        ErrorType = "disposed"
	ErrorTypeTransient       ErrorType = "transient"
)

// Sentinel errors for errors.Is comparisons.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrSecurityDenied  = errors.New("security denied")
	ErrManagerDisposed = errors.New("session manager disposed")
)

// SessionError provides structured error information with operation and
// session context, mirroring the teacher's playback error shape.
type SessionError struct {
	Type      ErrorType
	Op        string
	SessionID string
	DeviceID  string
	UserID    string
	Err       error
	Details   map[string]interface{}
}

func (e *SessionError) Error() string {
	var context []string
	if e.SessionID != "" {
		context = append(context, fmt.Sprintf("session=%s", e.SessionID))
	}
	if e.DeviceID != "" {
		context = append(context, fmt.Sprintf("device=%s", e.DeviceID))
	}
	if e.UserID != "" {
		context = append(context, fmt.Sprintf("user=%s", e.UserID))
	}

	if len(context) > 0 {
		return fmt.Sprintf("%s error in %s [%s]: %v", e.Type, e.Op, context[0], e.Err)
	}
	return fmt.Sprintf("%s error in %s: %v", e.Type, e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func (e *SessionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// New creates a SessionError of the given kind.
func New(errType ErrorType, op string, err error) *SessionError {
	return &SessionError{
		Type:    errType,
		Op:      op,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

func (e *SessionError) WithSession(sessionID string) *SessionError {
	e.SessionID = sessionID
	return e
}

func (e *SessionError) WithDevice(deviceID string) *SessionError {
	e.DeviceID = deviceID
	return e
}

func (e *SessionError) WithUser(userID string) *SessionError {
	e.UserID = userID
	return e
}

func (e *SessionError) WithDetail(key string, value interface{}) *SessionError {
	e.Details[key] = value
	return e
}

// Per-kind constructors.

func InvalidArgumentError(op string, err error) *SessionError {
	return New(ErrorTypeInvalidArgument, op, err)
}

func NotFoundError(op string, err error) *SessionError {
	return New(ErrorTypeNotFound, op, err)
}

func SecurityDeniedError(op string, err error) *SessionError {
	return New(ErrorTypeSecurityDenied, op, err)
}

func DisposedError(op string) *SessionError {
	return New(ErrorTypeDisposed, op, ErrManagerDisposed)
}

func TransientError(op string, err error) *SessionError {
	return New(ErrorTypeTransient, op, err)
}

// Wrap wraps err with operation context unless it is already a SessionError.
func Wrap(err error, errType ErrorType, op string) error {
	if err == nil {
		return nil
	}
	var sErr *SessionError
	if errors.As(err, &sErr) {
		return err
	}
	return New(errType, op, err)
}

// GetType extracts the error type, defaulting to Transient for unknown errors.
func GetType(err error) ErrorType {
	var sErr *SessionError
	if errors.As(err, &sErr) {
		return sErr.Type
	}
	return ErrorTypeTransient
}

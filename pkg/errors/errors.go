package errors

import (
	"errors"
	"fmt"
	"strings"
)

// RunInProgressError indicates an execute request arrived while a run is in progress.
type RunInProgressError struct{}

func NewRunInProgressError() *RunInProgressError {
	return &RunInProgressError{}
}

func (e *RunInProgressError) Error() string {
	return "Server is running"
}

func IsRunInProgressError(err error) bool {
	var e *RunInProgressError
	return errors.As(err, &e)
}

// ValidationError indicates a malformed execution request or query.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// LaunchError indicates the external test runner could not be started.
type LaunchError struct {
	err error
}

func NewLaunchError(err error) *LaunchError {
	return &LaunchError{err: err}
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch test runner: %v", e.err)
}

func (e *LaunchError) Unwrap() error {
	return e.err
}

func IsLaunchError(err error) bool {
	var e *LaunchError
	return errors.As(err, &e)
}

// RunFailedError indicates the runner started but did not finish successfully.
type RunFailedError struct {
	ExitCode int
	Output   string
}

func NewRunFailedError(exitCode int, output string) *RunFailedError {
	return &RunFailedError{ExitCode: exitCode, Output: strings.TrimSpace(output)}
}

func (e *RunFailedError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("test run failed with exit code %d", e.ExitCode)
	}
	return fmt.Sprintf("test run failed with exit code %d: %s", e.ExitCode, e.Output)
}

func IsRunFailedError(err error) bool {
	var e *RunFailedError
	return errors.As(err, &e)
}

// ResourceNotFoundError indicates a resource was not found.
type ResourceNotFoundError struct {
	Kind string
}

func NewResourceNotFoundError(kind string) *ResourceNotFoundError {
	return &ResourceNotFoundError{Kind: kind}
}

func NewSessionNotFoundError() *ResourceNotFoundError {
	return NewResourceNotFoundError("session")
}

func NewRunNotFoundError() *ResourceNotFoundError {
	return NewResourceNotFoundError("run")
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Kind)
}

func IsResourceNotFoundError(err error) bool {
	var e *ResourceNotFoundError
	return errors.As(err, &e)
}

// InvalidStateError indicates an invalid state for the requested operation.
type InvalidStateError struct {
	State string
}

func NewInvalidStateError(state string) *InvalidStateError {
	return &InvalidStateError{State: state}
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state for this operation: %s", e.State)
}

func IsInvalidStateError(err error) bool {
	var e *InvalidStateError
	return errors.As(err, &e)
}

// CentralClientError wraps a rejected request to Test Central.
type CentralClientError struct {
	StatusCode int
	Message    string
}

func NewCentralClientError(statusCode int, message string) *CentralClientError {
	return &CentralClientError{StatusCode: statusCode, Message: message}
}

func (e *CentralClientError) Error() string {
	return fmt.Sprintf("test central error (%d): %s", e.StatusCode, e.Message)
}

func IsCentralClientError(err error) bool {
	var e *CentralClientError
	return errors.As(err, &e)
}

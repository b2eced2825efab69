// Package errors provides custom error types for the outpost.
//
// Each error type includes a constructor, Error() method, and a type-checking
// helper using errors.As for proper error unwrapping.
//
// # Error Types Overview
//
//	┌──────────────────────────┬────────┬─────────────────────────────────────┐
//	│ Error Type               │ HTTP   │ Description                         │
//	├──────────────────────────┼────────┼─────────────────────────────────────┤
//	│ RunInProgressError       │ 500    │ A run is already in progress        │
//	│ ValidationError          │ 500    │ Malformed execute request or query  │
//	│ LaunchError              │ -      │ Test runner could not be started    │
//	│ RunFailedError           │ -      │ Test runner exited unsuccessfully   │
//	│ ResourceNotFoundError    │ 404    │ Session or run doesn't exist        │
//	│ InvalidStateError        │ 500    │ Invalid state for operation         │
//	│ CentralClientError       │ -      │ Test Central rejected a request     │
//	└──────────────────────────┴────────┴─────────────────────────────────────┘
//
// Test Central only looks at the boolean status flag and the message of a
// failed execute request, so RunInProgressError and ValidationError share the
// 500 status code and are told apart by their message.
//
// LaunchError and RunFailedError never reach an HTTP caller: they end a run
// and their message is kept as the outpost's last error.
//
// # Type Checking Pattern
//
// All error types provide Is* helper functions that use errors.As
// for proper error chain unwrapping:
//
//	wrapped := fmt.Errorf("execute: %w", errors.NewRunInProgressError())
//	errors.IsRunInProgressError(wrapped) // returns true
package errors

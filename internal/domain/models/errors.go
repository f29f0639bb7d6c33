package models

import (
	"errors"
	"fmt"
)

var (
	ErrRunInProgress        = errors.New("cleanup run already in progress")
	ErrTransitionNotAllowed = errors.New("transition not allowed")
	ErrReportNotFound       = errors.New("report not found")
	ErrUnknownKind          = errors.New("unknown content kind")
)

// ConfigurationError is fatal: a report reference or a setting is missing or invalid.
type ConfigurationError struct {
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %v", e.Setting, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// QueryExecutionError is fatal: a report could not be created, run or decoded.
type QueryExecutionError struct {
	QueryID string
	Err     error
}

func (e *QueryExecutionError) Error() string {
	if e.QueryID == "" {
		return fmt.Sprintf("query execution failed: %v", e.Err)
	}
	return fmt.Sprintf("query %s execution failed: %v", e.QueryID, e.Err)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }

// ItemMutationError is recovered locally; the run continues with the next item.
type ItemMutationError struct {
	Kind       Kind
	ID         string
	Transition Transition
	Err        error
}

func (e *ItemMutationError) Error() string {
	return fmt.Sprintf("%s of %s %s failed: %v", e.Transition, e.Kind, e.ID, e.Err)
}

func (e *ItemMutationError) Unwrap() error { return e.Err }

// NotificationError is logged and never fails the run.
type NotificationError struct {
	Channel string
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification via %s failed: %v", e.Channel, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// IsFatal reports whether err must abort a run.
func IsFatal(err error) bool {
	var cfgErr *ConfigurationError
	var queryErr *QueryExecutionError
	return errors.As(err, &cfgErr) || errors.As(err, &queryErr)
}

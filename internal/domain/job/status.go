package job

import (
	"errors"
	"strings"
)

// Status is the lifecycle state of an accepted job, driver side.
type Status string

const (
	StatusAssigned  Status = "assigned"
	StatusOnWay     Status = "on_way"
	StatusArrived   Status = "arrived"
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var ErrInvalidStatus = errors.New("invalid job status")

// ParseStatus normalizes (lowercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed job status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusAssigned, StatusOnWay, StatusArrived, StatusStarted, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// CanTransitionTo specifies if the status can transition to the next status.
// Cancellation is reachable only from assigned (driver rejects after accept)
// and arrived (pickup no-show).
func (status Status) CanTransitionTo(next Status) bool {
	switch status {
	case StatusAssigned:
		return next == StatusOnWay || next == StatusCancelled

	case StatusOnWay:
		return next == StatusArrived

	case StatusArrived:
		return next == StatusStarted || next == StatusCancelled

	case StatusStarted:
		return next == StatusCompleted

	case StatusCompleted, StatusCancelled:
		return false

	default:
		return false
	}
}

// Terminal indicates if the status is in a terminal state.
func (status Status) Terminal() bool {
	return status == StatusCompleted || status == StatusCancelled
}

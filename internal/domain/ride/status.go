package ride

import (
	"errors"
	"strings"
)

// Status is the customer-facing state of a ride request. It is distinct
// from the administrative ride records kept by the admin store.
type Status string

const (
	StatusIdle           Status = "idle"
	StatusSearching      Status = "searching"
	StatusQueued         Status = "queued"
	StatusDriverAssigned Status = "driver_assigned"
	StatusDriverOnWay    Status = "driver_on_way"
	StatusDriverArrived  Status = "driver_arrived"
	StatusCompleted      Status = "completed"
	StatusTimeout        Status = "timeout"
)

var ErrInvalidStatus = errors.New("invalid ride status")

// ParseStatus normalizes (lowercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusIdle, StatusSearching, StatusQueued, StatusDriverAssigned,
		StatusDriverOnWay, StatusDriverArrived, StatusCompleted, StatusTimeout:
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
// The timeout branch exists only for queued (cheap-mode) requests, and both
// terminal outcomes return to idle through an explicit reset.
func (status Status) CanTransitionTo(next Status) bool {
	switch status {
	case StatusIdle:
		return next == StatusSearching || next == StatusQueued

	case StatusSearching:
		return next == StatusDriverAssigned

	case StatusQueued:
		return next == StatusDriverAssigned || next == StatusTimeout

	case StatusDriverAssigned:
		return next == StatusDriverOnWay

	case StatusDriverOnWay:
		return next == StatusDriverArrived

	case StatusDriverArrived:
		return next == StatusCompleted

	case StatusCompleted, StatusTimeout:
		return next == StatusIdle

	default:
		return false
	}
}

// Terminal indicates if the request reached an end state awaiting reset.
func (status Status) Terminal() bool {
	return status == StatusCompleted || status == StatusTimeout
}

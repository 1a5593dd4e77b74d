package ride

import (
	"errors"
	"strings"
	"time"
)

// Mode selects how a request is matched: normal rides search actively,
// cheap rides wait in a queue for a passing driver and may time out.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeCheap  Mode = "cheap"
)

var ErrInvalidMode = errors.New("invalid ride mode")

// ParseMode normalizes (lowercases+trims) and validates a mode string.
func ParseMode(in string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(in)))
	if mode.Valid() {
		return mode, nil
	}
	return "", ErrInvalidMode
}

// Valid reports whether mode is one of the allowed mode constants.
func (mode Mode) Valid() bool {
	return mode == ModeNormal || mode == ModeCheap
}

// String returns the string representation of the Mode.
func (mode Mode) String() string {
	return string(mode)
}

// AssignedDriver is the driver record shown to the customer once matched.
type AssignedDriver struct {
	Name  string `json:"name"`
	Bike  string `json:"bike"`
	Plate string `json:"plate"`
}

// Ride is a customer-initiated transport request and its live state.
type Ride struct {
	ID          string
	CustomerID  string
	Mode        Mode
	Pickup      string
	Dropoff     string
	Status      Status
	Driver      *AssignedDriver // nil until driver_assigned
	RequestedAt time.Time
	UpdatedAt   time.Time
}

var (
	ErrPickupRequired    = errors.New("pickup location is required")
	ErrDropoffRequired   = errors.New("dropoff location is required")
	ErrInvalidTransition = errors.New("invalid ride status transition")
)

// New creates a ride request in the idle state, ready to be submitted.
func New(id, customerID string, mode Mode, pickup, dropoff string, now time.Time) (*Ride, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	if pickup = strings.TrimSpace(pickup); pickup == "" {
		return nil, ErrPickupRequired
	}
	if dropoff = strings.TrimSpace(dropoff); dropoff == "" {
		return nil, ErrDropoffRequired
	}

	return &Ride{
		ID:          id,
		CustomerID:  customerID,
		Mode:        mode,
		Pickup:      pickup,
		Dropoff:     dropoff,
		Status:      StatusIdle,
		RequestedAt: now,
		UpdatedAt:   now,
	}, nil
}

// Transition moves the ride to next, rejecting any move that is not an
// edge of the status graph. State is never coerced on error.
func (r *Ride) Transition(next Status, now time.Time) error {
	if !next.Valid() {
		return ErrInvalidStatus
	}
	if !r.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	r.Status = next
	r.UpdatedAt = now
	if next == StatusIdle {
		r.Driver = nil
	}
	return nil
}

// Assign records the matched driver and moves to driver_assigned.
func (r *Ride) Assign(d AssignedDriver, now time.Time) error {
	if err := r.Transition(StatusDriverAssigned, now); err != nil {
		return err
	}
	r.Driver = &d
	return nil
}

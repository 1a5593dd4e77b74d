package job

import (
	"errors"
	"time"

	"moto-hail/internal/domain/offer"
)

// Job is an accepted offer being executed by a driver. A driver session
// owns at most one active Job at a time.
type Job struct {
	offer.Offer

	Status     Status
	AcceptedAt time.Time
	UpdatedAt  time.Time
}

var ErrInvalidTransition = errors.New("invalid job status transition")

// New wraps an accepted offer into a Job in the assigned state.
func New(o offer.Offer, now time.Time) *Job {
	return &Job{
		Offer:      o,
		Status:     StatusAssigned,
		AcceptedAt: now,
		UpdatedAt:  now,
	}
}

// UpdateStatus transitions the job to next, rejecting any move not on
// the lifecycle graph. State is never coerced on error.
func (j *Job) UpdateStatus(next Status, now time.Time) error {
	if !next.Valid() {
		return ErrInvalidStatus
	}
	if !j.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	j.Status = next
	j.UpdatedAt = now
	return nil
}

// Active reports whether the job still occupies the driver session.
func (j *Job) Active() bool {
	return !j.Status.Terminal()
}

package job

import (
	"errors"
	"testing"
	"time"

	"moto-hail/internal/domain/offer"
)

func newTestJob() *Job {
	o := offer.Offer{ID: "offer-1", Kind: offer.KindRide, Pickup: "Market Zone", Dropoff: "Airport", Fare: 1800}
	return New(o, time.Date(2026, time.August, 31, 9, 0, 0, 0, time.UTC))
}

func TestNewJobStartsAssigned(t *testing.T) {
	j := newTestJob()
	if j.Status != StatusAssigned {
		t.Fatalf("status = %s, want assigned", j.Status)
	}
	if !j.Active() {
		t.Fatal("new job not active")
	}
	if j.Fare != 1800 || j.ID != "offer-1" {
		t.Fatalf("offer fields lost: %+v", j)
	}
}

func TestHappyPathLifecycle(t *testing.T) {
	j := newTestJob()
	now := j.AcceptedAt

	for _, next := range []Status{StatusOnWay, StatusArrived, StatusStarted, StatusCompleted} {
		now = now.Add(time.Minute)
		if err := j.UpdateStatus(next, now); err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
		if j.Status != next {
			t.Fatalf("status = %s, want %s", j.Status, next)
		}
		if !j.UpdatedAt.Equal(now) {
			t.Fatalf("UpdatedAt not stamped at %s", next)
		}
	}
	if j.Active() {
		t.Fatal("completed job still active")
	}
}

func TestCancelPaths(t *testing.T) {
	// assigned -> cancelled
	j := newTestJob()
	if err := j.UpdateStatus(StatusCancelled, j.AcceptedAt); err != nil {
		t.Fatalf("cancel from assigned: %v", err)
	}

	// arrived -> cancelled (pickup no-show)
	j = newTestJob()
	for _, next := range []Status{StatusOnWay, StatusArrived, StatusCancelled} {
		if err := j.UpdateStatus(next, j.AcceptedAt); err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
	}

	// started trips cannot be cancelled
	j = newTestJob()
	for _, next := range []Status{StatusOnWay, StatusArrived, StatusStarted} {
		if err := j.UpdateStatus(next, j.AcceptedAt); err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
	}
	if err := j.UpdateStatus(StatusCancelled, j.AcceptedAt); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel from started err = %v", err)
	}
}

func TestInvalidTransitionsLeaveStateAlone(t *testing.T) {
	j := newTestJob()
	before := j.UpdatedAt

	for _, next := range []Status{StatusArrived, StatusStarted, StatusCompleted} {
		if err := j.UpdateStatus(next, before.Add(time.Hour)); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("assigned->%s err = %v", next, err)
		}
	}
	if err := j.UpdateStatus(Status("teleported"), before.Add(time.Hour)); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("bogus status err = %v", err)
	}

	if j.Status != StatusAssigned || !j.UpdatedAt.Equal(before) {
		t.Fatalf("state coerced on error: %+v", j)
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	for _, terminal := range []Status{StatusCompleted, StatusCancelled} {
		if !terminal.Terminal() {
			t.Errorf("%s not terminal", terminal)
		}
		for _, next := range []Status{StatusAssigned, StatusOnWay, StatusArrived, StatusStarted, StatusCompleted, StatusCancelled} {
			if terminal.CanTransitionTo(next) {
				t.Errorf("%s -> %s allowed", terminal, next)
			}
		}
	}
}

func TestParseStatus(t *testing.T) {
	if st, err := ParseStatus(" On_Way "); err != nil || st != StatusOnWay {
		t.Fatalf("ParseStatus = %q, %v", st, err)
	}
	if _, err := ParseStatus("paused"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("invalid parse err = %v", err)
	}
}

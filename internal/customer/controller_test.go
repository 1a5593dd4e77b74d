package customer

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"moto-hail/internal/domain/ride"
	"moto-hail/internal/logger"
)

type recordingNotifier struct {
	updates []ride.Ride
}

func (n *recordingNotifier) RideUpdated(r ride.Ride) {
	n.updates = append(n.updates, r)
}

func (n *recordingNotifier) statuses() []ride.Status {
	out := make([]ride.Status, 0, len(n.updates))
	for _, r := range n.updates {
		out = append(out, r.Status)
	}
	return out
}

func testController(t *testing.T, matchProbability float64) (*Controller, *clock.Mock, *recordingNotifier) {
	t.Helper()
	mock := clock.NewMock()
	cfg := DefaultConfig()
	cfg.MatchProbability = matchProbability
	not := &recordingNotifier{}
	c := NewController("customer-1", mock, rand.New(rand.NewSource(1)), not, logger.New("test"), cfg)
	t.Cleanup(c.Close)
	return c, mock, not
}

func currentStatus(t *testing.T, c *Controller) ride.Status {
	t.Helper()
	r, ok := c.Ride()
	if !ok {
		t.Fatal("no current ride")
	}
	return r.Status
}

func TestNormalRequestFullFlow(t *testing.T) {
	c, mock, not := testController(t, 0.6)

	r, err := c.Request(ride.ModeNormal, "Market Zone", "Airport")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if r.Status != ride.StatusSearching {
		t.Fatalf("status = %s, want searching", r.Status)
	}
	if r.Driver != nil {
		t.Fatal("driver set before match")
	}

	mock.Add(3 * time.Second)
	if got := currentStatus(t, c); got != ride.StatusDriverAssigned {
		t.Fatalf("after search delay status = %s, want driver_assigned", got)
	}
	cur, _ := c.Ride()
	if cur.Driver == nil || cur.Driver.Name != "Jean Moto" {
		t.Fatalf("driver = %+v, want Jean Moto", cur.Driver)
	}

	mock.Add(2 * time.Second)
	if got := currentStatus(t, c); got != ride.StatusDriverOnWay {
		t.Fatalf("status = %s, want driver_on_way", got)
	}

	mock.Add(3 * time.Second)
	if got := currentStatus(t, c); got != ride.StatusDriverArrived {
		t.Fatalf("status = %s, want driver_arrived", got)
	}

	done, err := c.Complete()
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != ride.StatusCompleted {
		t.Fatalf("status = %s, want completed", done.Status)
	}

	reset, err := c.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset.Status != ride.StatusIdle || reset.Driver != nil {
		t.Fatalf("after reset: %+v", reset)
	}

	want := []ride.Status{
		ride.StatusSearching,
		ride.StatusDriverAssigned,
		ride.StatusDriverOnWay,
		ride.StatusDriverArrived,
		ride.StatusCompleted,
		ride.StatusIdle,
	}
	got := not.statuses()
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("notification %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestCheapRequestMatches(t *testing.T) {
	// probability 1 makes the queued decision always match
	c, mock, _ := testController(t, 1)

	r, err := c.Request(ride.ModeCheap, "Station Zone", "Clinic")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if r.Status != ride.StatusQueued {
		t.Fatalf("status = %s, want queued", r.Status)
	}

	mock.Add(4 * time.Second)
	if got := currentStatus(t, c); got != ride.StatusDriverAssigned {
		t.Fatalf("status = %s, want driver_assigned", got)
	}
	cur, _ := c.Ride()
	if cur.Driver == nil || cur.Driver.Name != "Samuel Moto" {
		t.Fatalf("driver = %+v, want Samuel Moto", cur.Driver)
	}

	mock.Add(2500 * time.Millisecond)
	if got := currentStatus(t, c); got != ride.StatusDriverOnWay {
		t.Fatalf("status = %s, want driver_on_way", got)
	}
	mock.Add(3 * time.Second)
	if got := currentStatus(t, c); got != ride.StatusDriverArrived {
		t.Fatalf("status = %s, want driver_arrived", got)
	}
}

func TestCheapRequestTimesOut(t *testing.T) {
	// probability 0 makes the queued decision always time out
	c, mock, _ := testController(t, 0)

	if _, err := c.Request(ride.ModeCheap, "Mall Zone", "Harbor"); err != nil {
		t.Fatalf("request: %v", err)
	}
	mock.Add(4 * time.Second)

	if got := currentStatus(t, c); got != ride.StatusTimeout {
		t.Fatalf("status = %s, want timeout", got)
	}
	if _, err := c.Complete(); !errors.Is(err, ErrNotArrived) {
		t.Fatalf("complete err = %v, want ErrNotArrived", err)
	}

	reset, err := c.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset.Status != ride.StatusIdle {
		t.Fatalf("status = %s, want idle", reset.Status)
	}

	// a fresh request may start after reset
	if _, err := c.Request(ride.ModeNormal, "Mall Zone", "Harbor"); err != nil {
		t.Fatalf("second request: %v", err)
	}
}

func TestOneRequestInFlight(t *testing.T) {
	c, _, _ := testController(t, 0.6)

	if _, err := c.Request(ride.ModeNormal, "Market Zone", "Airport"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := c.Request(ride.ModeNormal, "Market Zone", "Airport"); !errors.Is(err, ErrRequestInFlight) {
		t.Fatalf("err = %v, want ErrRequestInFlight", err)
	}
}

func TestRequestValidation(t *testing.T) {
	c, _, _ := testController(t, 0.6)

	if _, err := c.Request(ride.ModeNormal, "  ", "Airport"); !errors.Is(err, ride.ErrPickupRequired) {
		t.Fatalf("err = %v, want ErrPickupRequired", err)
	}
	if _, err := c.Request(ride.ModeNormal, "Market Zone", ""); !errors.Is(err, ride.ErrDropoffRequired) {
		t.Fatalf("err = %v, want ErrDropoffRequired", err)
	}
	if _, err := c.Request(ride.Mode("luxury"), "Market Zone", "Airport"); !errors.Is(err, ride.ErrInvalidMode) {
		t.Fatalf("err = %v, want ErrInvalidMode", err)
	}
}

func TestCompleteAndResetGuards(t *testing.T) {
	c, mock, _ := testController(t, 0.6)

	if _, err := c.Complete(); !errors.Is(err, ErrNoRequest) {
		t.Fatalf("complete err = %v, want ErrNoRequest", err)
	}
	if _, err := c.Reset(); !errors.Is(err, ErrNoRequest) {
		t.Fatalf("reset err = %v, want ErrNoRequest", err)
	}

	if _, err := c.Request(ride.ModeNormal, "Market Zone", "Airport"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := c.Complete(); !errors.Is(err, ErrNotArrived) {
		t.Fatalf("early complete err = %v, want ErrNotArrived", err)
	}
	if _, err := c.Reset(); !errors.Is(err, ErrNotTerminal) {
		t.Fatalf("early reset err = %v, want ErrNotTerminal", err)
	}

	mock.Add(8 * time.Second)
	if _, err := c.Complete(); err != nil {
		t.Fatalf("complete after arrival: %v", err)
	}
}

func TestCloseDropsPendingTransition(t *testing.T) {
	c, mock, _ := testController(t, 0.6)
	if _, err := c.Request(ride.ModeNormal, "Market Zone", "Airport"); err != nil {
		t.Fatalf("request: %v", err)
	}

	c.Close()
	mock.Add(time.Minute)

	if got := currentStatus(t, c); got != ride.StatusSearching {
		t.Fatalf("status advanced after Close: %s", got)
	}
}

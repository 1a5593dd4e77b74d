package driver

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"moto-hail/internal/domain/job"
	"moto-hail/internal/domain/offer"
	"moto-hail/internal/logger"
)

// recordingNotifier captures every callback for assertions.
type recordingNotifier struct {
	mu         sync.Mutex
	offers     []offer.Offer
	accepted   []job.Job
	updated    []job.Job
	countdowns []int
	closed     []job.Job
}

func (n *recordingNotifier) OfferReceived(o offer.Offer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.offers = append(n.offers, o)
}

func (n *recordingNotifier) JobAccepted(j job.Job) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accepted = append(n.accepted, j)
}

func (n *recordingNotifier) JobUpdated(j job.Job) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, j)
}

func (n *recordingNotifier) CountdownTick(j job.Job, remaining int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.countdowns = append(n.countdowns, remaining)
}

func (n *recordingNotifier) JobClosed(j job.Job) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = append(n.closed, j)
}

func (n *recordingNotifier) closedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.closed)
}

func testController(t *testing.T) (*Controller, *clock.Mock, *recordingNotifier) {
	t.Helper()
	mock := clock.NewMock()
	gen := offer.NewGenerator(rand.New(rand.NewSource(7)))
	not := &recordingNotifier{}
	c := NewController("driver-1", mock, gen, not, logger.New("test"), DefaultConfig())
	t.Cleanup(c.Close)
	return c, mock, not
}

func TestOffersArriveOnInterval(t *testing.T) {
	c, mock, not := testController(t)

	c.GoOnline()
	if !c.Online() {
		t.Fatal("not online after GoOnline")
	}
	if len(c.Offers()) != 0 {
		t.Fatal("offer before first interval")
	}

	mock.Add(3500 * time.Millisecond)
	offers := c.Offers()
	if len(offers) != 1 {
		t.Fatalf("offers = %d, want 1", len(offers))
	}
	if offers[0].ID == "" || offers[0].Fare < offers[0].Kind.BaseFare() {
		t.Fatalf("bad offer: %+v", offers[0])
	}
	if len(not.offers) != 1 {
		t.Fatalf("notifier offers = %d, want 1", len(not.offers))
	}
}

func TestPendingOffersAreCapped(t *testing.T) {
	c, mock, _ := testController(t)
	c.GoOnline()

	for i := 0; i < 6; i++ {
		mock.Add(3500 * time.Millisecond)
	}
	if got := len(c.Offers()); got != 3 {
		t.Fatalf("offers = %d, want cap of 3", got)
	}
}

func TestGoOfflineDiscardsOffers(t *testing.T) {
	c, mock, _ := testController(t)
	c.GoOnline()
	mock.Add(3500 * time.Millisecond)

	c.GoOffline()
	if len(c.Offers()) != 0 {
		t.Fatal("offers survive going offline")
	}

	// no new offers while offline
	mock.Add(10 * time.Second)
	if len(c.Offers()) != 0 {
		t.Fatal("offers generated while offline")
	}
}

func TestAcceptTakesOfferAndClearsRest(t *testing.T) {
	c, mock, not := testController(t)
	c.GoOnline()
	for i := 0; i < 3; i++ {
		mock.Add(3500 * time.Millisecond)
	}
	offers := c.Offers()

	j, err := c.Accept(offers[1].ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if j.ID != offers[1].ID || j.Status != job.StatusAssigned {
		t.Fatalf("job = %+v", j)
	}
	if len(c.Offers()) != 0 {
		t.Fatal("pending offers not cleared on accept")
	}
	if len(not.accepted) != 1 {
		t.Fatalf("notifier accepted = %d, want 1", len(not.accepted))
	}

	// busy driver receives no further offers
	mock.Add(3500 * time.Millisecond)
	if len(c.Offers()) != 0 {
		t.Fatal("offer delivered while job active")
	}

	if _, err := c.Accept("offer-unknown"); !errors.Is(err, ErrJobInProgress) {
		t.Fatalf("second accept err = %v, want ErrJobInProgress", err)
	}
}

func TestAcceptErrors(t *testing.T) {
	c, mock, _ := testController(t)

	if _, err := c.Accept("x"); !errors.Is(err, ErrOffline) {
		t.Fatalf("offline accept err = %v", err)
	}

	c.GoOnline()
	mock.Add(3500 * time.Millisecond)
	if _, err := c.Accept("offer-unknown"); !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("unknown offer err = %v", err)
	}
}

func TestRejectRemovesSingleOffer(t *testing.T) {
	c, mock, _ := testController(t)
	c.GoOnline()
	mock.Add(3500 * time.Millisecond)
	mock.Add(3500 * time.Millisecond)
	offers := c.Offers()

	if err := c.Reject(offers[0].ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	left := c.Offers()
	if len(left) != 1 || left[0].ID != offers[1].ID {
		t.Fatalf("offers after reject = %+v", left)
	}
	if err := c.Reject(offers[0].ID); !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("double reject err = %v", err)
	}
}

func acceptFirstOffer(t *testing.T, c *Controller, mock *clock.Mock) job.Job {
	t.Helper()
	c.GoOnline()
	mock.Add(3500 * time.Millisecond)
	offers := c.Offers()
	if len(offers) == 0 {
		t.Fatal("no offer to accept")
	}
	j, err := c.Accept(offers[0].ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	return j
}

func TestCompletedJobCreditsEarningsAndReleases(t *testing.T) {
	c, mock, not := testController(t)
	c.SeedEarnings(Earnings{Today: 100, Week: 5000, Month: 20000})
	j := acceptFirstOffer(t, c, mock)

	for _, next := range []job.Status{job.StatusOnWay, job.StatusArrived, job.StatusStarted, job.StatusCompleted} {
		if _, err := c.UpdateJobStatus(next); err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
	}

	e := c.Earnings()
	if e.Today != 100+j.Fare {
		t.Fatalf("Today = %d, want %d", e.Today, 100+j.Fare)
	}
	if e.Week != 5000 || e.Month != 20000 {
		t.Fatalf("wider buckets touched: %+v", e)
	}

	// job lingers until the release delay elapses
	if _, ok := c.Job(); !ok {
		t.Fatal("job released before delay")
	}
	mock.Add(1200 * time.Millisecond)
	if _, ok := c.Job(); ok {
		t.Fatal("job not released after delay")
	}
	if not.closedCount() != 1 {
		t.Fatalf("JobClosed calls = %d, want 1", not.closedCount())
	}
}

func TestInvalidJobTransitionRejected(t *testing.T) {
	c, mock, _ := testController(t)
	acceptFirstOffer(t, c, mock)

	if _, err := c.UpdateJobStatus(job.StatusCompleted); !errors.Is(err, job.ErrInvalidTransition) {
		t.Fatalf("assigned->completed err = %v", err)
	}
	got, _ := c.Job()
	if got.Status != job.StatusAssigned {
		t.Fatalf("status coerced to %s", got.Status)
	}
}

func TestUpdateWithoutJob(t *testing.T) {
	c, _, _ := testController(t)
	if _, err := c.UpdateJobStatus(job.StatusOnWay); !errors.Is(err, ErrNoActiveJob) {
		t.Fatalf("err = %v, want ErrNoActiveJob", err)
	}
}

func TestNoShowCountdownCancelsJob(t *testing.T) {
	c, mock, not := testController(t)
	acceptFirstOffer(t, c, mock)

	for _, next := range []job.Status{job.StatusOnWay, job.StatusArrived} {
		if _, err := c.UpdateJobStatus(next); err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
	}
	if c.Countdown() != 90 {
		t.Fatalf("countdown = %d, want 90", c.Countdown())
	}

	mock.Add(time.Second)
	if c.Countdown() != 89 {
		t.Fatalf("countdown after 1s = %d, want 89", c.Countdown())
	}

	for i := 0; i < 89; i++ {
		mock.Add(time.Second)
	}

	j, ok := c.Job()
	if !ok || j.Status != job.StatusCancelled {
		t.Fatalf("job after countdown = %+v (ok=%v), want cancelled", j, ok)
	}
	if c.Earnings().Today != 0 {
		t.Fatal("no-show credited earnings")
	}
	if got := not.countdowns[len(not.countdowns)-1]; got != 0 {
		t.Fatalf("last countdown tick = %d, want 0", got)
	}

	mock.Add(800 * time.Millisecond)
	if _, ok := c.Job(); ok {
		t.Fatal("job not released after cancel delay")
	}
	if not.closedCount() != 1 {
		t.Fatalf("JobClosed calls = %d, want 1", not.closedCount())
	}
}

func TestStartingTripStopsCountdown(t *testing.T) {
	c, mock, _ := testController(t)
	acceptFirstOffer(t, c, mock)

	for _, next := range []job.Status{job.StatusOnWay, job.StatusArrived} {
		if _, err := c.UpdateJobStatus(next); err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
	}
	mock.Add(5 * time.Second)
	if c.Countdown() != 85 {
		t.Fatalf("countdown = %d, want 85", c.Countdown())
	}

	if _, err := c.UpdateJobStatus(job.StatusStarted); err != nil {
		t.Fatalf("start: %v", err)
	}
	if c.Countdown() != 0 {
		t.Fatalf("countdown after start = %d, want 0", c.Countdown())
	}

	// well past the no-show horizon, the trip is unaffected
	mock.Add(2 * time.Minute)
	j, ok := c.Job()
	if !ok || j.Status != job.StatusStarted {
		t.Fatalf("job = %+v (ok=%v), want started", j, ok)
	}
}

func TestCloseStopsTimers(t *testing.T) {
	c, mock, not := testController(t)
	c.GoOnline()
	c.Close()

	mock.Add(time.Minute)
	if len(c.Offers()) != 0 || len(not.offers) != 0 {
		t.Fatal("offers after Close")
	}
	if c.Online() {
		t.Fatal("online after Close")
	}
}

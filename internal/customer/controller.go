package customer

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"moto-hail/internal/domain/ride"
	"moto-hail/internal/logger"
)

var (
	ErrRequestInFlight = errors.New("a ride request is already in flight")
	ErrNoRequest       = errors.New("no ride request in flight")
	ErrNotArrived      = errors.New("driver has not arrived yet")
	ErrNotTerminal     = errors.New("request has not finished yet")
)

// Notifier receives ride progress events. Callbacks run synchronously
// after state has settled and never under the session lock.
type Notifier interface {
	RideUpdated(r ride.Ride)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) RideUpdated(ride.Ride) {}

// Matched drivers are placeholders until a live dispatch feed replaces
// them; normal and cheap requests surface different partner pools.
var (
	normalDriver = ride.AssignedDriver{Name: "Jean Moto", Bike: "Bajaj Boxer", Plate: "LT-239-CM"}
	cheapDriver  = ride.AssignedDriver{Name: "Samuel Moto", Bike: "TVS HLX", Plate: "CM-884-YA"}
)

// Config carries the request timing knobs.
type Config struct {
	SearchDelay      time.Duration // normal: searching -> driver_assigned
	AssignToOnWay    time.Duration // normal: driver_assigned -> driver_on_way
	OnWayToArrived   time.Duration // normal: driver_on_way -> driver_arrived
	QueueDelay       time.Duration // cheap: queued -> match decision
	CheapToOnWay     time.Duration // cheap: driver_assigned -> driver_on_way
	CheapToArrived   time.Duration // cheap: driver_on_way -> driver_arrived
	MatchProbability float64       // chance a queued request finds a driver
}

// DefaultConfig returns the production timing values.
func DefaultConfig() Config {
	return Config{
		SearchDelay:      3 * time.Second,
		AssignToOnWay:    2 * time.Second,
		OnWayToArrived:   3 * time.Second,
		QueueDelay:       4 * time.Second,
		CheapToOnWay:     2500 * time.Millisecond,
		CheapToArrived:   3 * time.Second,
		MatchProbability: 0.6,
	}
}

// Controller runs one customer's ride requests. At most one request is
// in flight at a time; a finished request must be reset before the next
// one starts.
type Controller struct {
	mu     sync.Mutex
	clk    clock.Clock
	cfg    Config
	rng    *rand.Rand
	not    Notifier
	log    *logger.Logger
	logCtx context.Context

	customerID string
	current    *ride.Ride
	timer      *clock.Timer
	closed     bool
}

// NewController builds an idle session for the given customer. The rng
// decides whether queued cheap requests find a driver.
func NewController(customerID string, clk clock.Clock, rng *rand.Rand, not Notifier, log *logger.Logger, cfg Config) *Controller {
	if not == nil {
		not = NopNotifier{}
	}
	if cfg.SearchDelay <= 0 {
		cfg = DefaultConfig()
	}
	return &Controller{
		clk:        clk,
		cfg:        cfg,
		rng:        rng,
		not:        not,
		log:        log,
		logCtx:     context.Background(),
		customerID: customerID,
	}
}

// Request starts a new ride request. Normal requests search actively and
// always match; cheap requests wait in a queue and may time out.
func (c *Controller) Request(mode ride.Mode, pickup, dropoff string) (ride.Ride, error) {
	c.mu.Lock()
	if c.current != nil && !c.current.Status.Terminal() && c.current.Status != ride.StatusIdle {
		c.mu.Unlock()
		return ride.Ride{}, ErrRequestInFlight
	}

	now := c.clk.Now().UTC()
	r, err := ride.New("req-"+uuid.NewString(), c.customerID, mode, pickup, dropoff, now)
	if err != nil {
		c.mu.Unlock()
		return ride.Ride{}, err
	}

	switch mode {
	case ride.ModeNormal:
		if err := r.Transition(ride.StatusSearching, now); err != nil {
			c.mu.Unlock()
			return ride.Ride{}, err
		}
		c.current = r
		c.timer = c.clk.AfterFunc(c.cfg.SearchDelay, c.matchNormal)
	case ride.ModeCheap:
		if err := r.Transition(ride.StatusQueued, now); err != nil {
			c.mu.Unlock()
			return ride.Ride{}, err
		}
		c.current = r
		c.timer = c.clk.AfterFunc(c.cfg.QueueDelay, c.decideCheap)
	}

	out := *r
	c.mu.Unlock()

	c.log.Info(c.logCtx, "request", "ride request submitted", map[string]any{
		"customer_id": c.customerID,
		"ride_id":     out.ID,
		"mode":        mode.String(),
	})
	c.not.RideUpdated(out)
	return out, nil
}

// Ride returns a copy of the in-flight or last finished request.
func (c *Controller) Ride() (ride.Ride, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ride.Ride{}, false
	}
	return *c.current, true
}

// Complete finishes a request whose driver has arrived.
func (c *Controller) Complete() (ride.Ride, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return ride.Ride{}, ErrNoRequest
	}
	if c.current.Status != ride.StatusDriverArrived {
		c.mu.Unlock()
		return ride.Ride{}, ErrNotArrived
	}
	if err := c.current.Transition(ride.StatusCompleted, c.clk.Now().UTC()); err != nil {
		c.mu.Unlock()
		return ride.Ride{}, err
	}
	out := *c.current
	c.mu.Unlock()

	c.log.Info(c.logCtx, "complete", "ride completed", map[string]any{
		"customer_id": c.customerID,
		"ride_id":     out.ID,
	})
	c.not.RideUpdated(out)
	return out, nil
}

// Reset returns a finished request to idle so a new one can start.
func (c *Controller) Reset() (ride.Ride, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return ride.Ride{}, ErrNoRequest
	}
	if !c.current.Status.Terminal() {
		c.mu.Unlock()
		return ride.Ride{}, ErrNotTerminal
	}
	if err := c.current.Transition(ride.StatusIdle, c.clk.Now().UTC()); err != nil {
		c.mu.Unlock()
		return ride.Ride{}, err
	}
	out := *c.current
	c.mu.Unlock()

	c.not.RideUpdated(out)
	return out, nil
}

// Close shuts the session down and cancels any pending transition.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// ----- timer chain -----

func (c *Controller) matchNormal() {
	c.advance(ride.StatusSearching, func(r *ride.Ride, now time.Time) error {
		if err := r.Assign(normalDriver, now); err != nil {
			return err
		}
		c.timer = c.clk.AfterFunc(c.cfg.AssignToOnWay, func() { c.progress(ride.StatusDriverAssigned, ride.StatusDriverOnWay, c.cfg.OnWayToArrived, ride.StatusDriverArrived) })
		return nil
	})
}

func (c *Controller) decideCheap() {
	matched := c.rng.Float64() > 1-c.cfg.MatchProbability
	c.advance(ride.StatusQueued, func(r *ride.Ride, now time.Time) error {
		if !matched {
			return r.Transition(ride.StatusTimeout, now)
		}
		if err := r.Assign(cheapDriver, now); err != nil {
			return err
		}
		c.timer = c.clk.AfterFunc(c.cfg.CheapToOnWay, func() { c.progress(ride.StatusDriverAssigned, ride.StatusDriverOnWay, c.cfg.CheapToArrived, ride.StatusDriverArrived) })
		return nil
	})
}

// progress moves from -> to, then schedules the final hop to last.
func (c *Controller) progress(from, to ride.Status, afterwards time.Duration, last ride.Status) {
	c.advance(from, func(r *ride.Ride, now time.Time) error {
		if err := r.Transition(to, now); err != nil {
			return err
		}
		c.timer = c.clk.AfterFunc(afterwards, func() {
			c.advance(to, func(r *ride.Ride, now time.Time) error {
				return r.Transition(last, now)
			})
		})
		return nil
	})
}

// advance applies fn to the current request if it is still in the
// expected state, then notifies. A reset or completed request silently
// drops the stale timer.
func (c *Controller) advance(expect ride.Status, fn func(r *ride.Ride, now time.Time) error) {
	c.mu.Lock()
	if c.closed || c.current == nil || c.current.Status != expect {
		c.mu.Unlock()
		return
	}
	now := c.clk.Now().UTC()
	if err := fn(c.current, now); err != nil {
		c.mu.Unlock()
		c.log.Error(c.logCtx, "advance", "ride transition failed", err, map[string]any{
			"customer_id": c.customerID,
		})
		return
	}
	out := *c.current
	c.mu.Unlock()

	c.not.RideUpdated(out)
}

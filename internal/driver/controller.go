package driver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"moto-hail/internal/domain/job"
	"moto-hail/internal/domain/offer"
	"moto-hail/internal/logger"
	"moto-hail/internal/observability"
)

var (
	ErrOffline       = errors.New("driver is offline")
	ErrOfferNotFound = errors.New("offer not found")
	ErrJobInProgress = errors.New("another job is already in progress")
	ErrNoActiveJob   = errors.New("no active job")
)

// Notifier receives driver session events. Callbacks are invoked
// synchronously after the session state has settled and never while the
// session lock is held, so implementations may call back into the
// controller.
type Notifier interface {
	OfferReceived(o offer.Offer)
	JobAccepted(j job.Job)
	JobUpdated(j job.Job)
	CountdownTick(j job.Job, remaining int)
	JobClosed(j job.Job)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) OfferReceived(offer.Offer)  {}
func (NopNotifier) JobAccepted(job.Job)        {}
func (NopNotifier) JobUpdated(job.Job)         {}
func (NopNotifier) CountdownTick(job.Job, int) {}
func (NopNotifier) JobClosed(job.Job)          {}

// Earnings tracks a driver's income buckets. Completed fares credit the
// daily bucket; the wider buckets come from settlement, not this session.
type Earnings struct {
	Today int `json:"today"`
	Week  int `json:"week"`
	Month int `json:"month"`
}

// Config carries the session timing knobs.
type Config struct {
	OfferInterval        time.Duration
	MaxPendingOffers     int
	NoShowSeconds        int
	ReleaseAfterComplete time.Duration
	ReleaseAfterCancel   time.Duration
}

// DefaultConfig returns the production timing values.
func DefaultConfig() Config {
	return Config{
		OfferInterval:        3500 * time.Millisecond,
		MaxPendingOffers:     3,
		NoShowSeconds:        90,
		ReleaseAfterComplete: 1200 * time.Millisecond,
		ReleaseAfterCancel:   800 * time.Millisecond,
	}
}

// Controller runs one driver's session: it surfaces incoming offers
// while the driver is online and idle, and drives the accepted job
// through its lifecycle, including the pickup no-show countdown.
type Controller struct {
	mu     sync.Mutex
	clk    clock.Clock
	cfg    Config
	gen    *offer.Generator
	not    Notifier
	log    *logger.Logger
	logCtx context.Context

	driverID  string
	online    bool
	offers    []offer.Offer
	job       *job.Job
	countdown int
	earnings  Earnings
	closed    bool

	offerTimer     *clock.Timer
	countdownTimer *clock.Timer
	releaseTimer   *clock.Timer
}

// NewController builds an offline session for the given driver.
func NewController(driverID string, clk clock.Clock, gen *offer.Generator, not Notifier, log *logger.Logger, cfg Config) *Controller {
	if not == nil {
		not = NopNotifier{}
	}
	if cfg.OfferInterval <= 0 {
		cfg = DefaultConfig()
	}
	return &Controller{
		clk:      clk,
		cfg:      cfg,
		gen:      gen,
		not:      not,
		log:      log,
		logCtx:   context.Background(),
		driverID: driverID,
	}
}

// SeedEarnings sets the starting income buckets, typically from a
// settlement backend.
func (c *Controller) SeedEarnings(e Earnings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.earnings = e
}

// GoOnline starts offer delivery. Going online while already online is a
// no-op.
func (c *Controller) GoOnline() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.online {
		return
	}
	c.online = true
	c.scheduleOfferLocked()
	c.log.Info(c.logCtx, "go_online", "driver is now accepting offers", map[string]any{"driver_id": c.driverID})
}

// GoOffline stops offer delivery and discards pending offers. An active
// job is unaffected and can still be driven to completion.
func (c *Controller) GoOffline() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.online {
		return
	}
	c.online = false
	c.offers = nil
	if c.offerTimer != nil {
		c.offerTimer.Stop()
		c.offerTimer = nil
	}
	c.log.Info(c.logCtx, "go_offline", "driver stopped accepting offers", map[string]any{"driver_id": c.driverID})
}

// Online reports whether the driver is accepting offers.
func (c *Controller) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// Offers returns a copy of the pending offers in arrival order.
func (c *Controller) Offers() []offer.Offer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]offer.Offer(nil), c.offers...)
}

// Job returns a copy of the current job, if any.
func (c *Controller) Job() (job.Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.job == nil {
		return job.Job{}, false
	}
	return *c.job, true
}

// Countdown returns the remaining pickup wait in seconds, zero when no
// countdown is running.
func (c *Controller) Countdown() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countdown
}

// Earnings returns the current income buckets.
func (c *Controller) Earnings() Earnings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.earnings
}

// Accept takes the identified offer as the active job and discards the
// remaining pending offers.
func (c *Controller) Accept(offerID string) (job.Job, error) {
	c.mu.Lock()
	if !c.online {
		c.mu.Unlock()
		return job.Job{}, ErrOffline
	}
	if c.job != nil && c.job.Active() {
		c.mu.Unlock()
		return job.Job{}, ErrJobInProgress
	}

	idx := -1
	for i, o := range c.offers {
		if o.ID == offerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return job.Job{}, ErrOfferNotFound
	}

	accepted := c.offers[idx]
	c.offers = nil
	c.job = job.New(accepted, c.clk.Now().UTC())
	j := *c.job
	c.mu.Unlock()

	c.log.Info(c.logCtx, "accept_offer", "offer accepted", map[string]any{
		"driver_id": c.driverID,
		"offer_id":  accepted.ID,
		"kind":      accepted.Kind.String(),
		"fare":      accepted.Fare,
	})
	c.not.JobAccepted(j)
	return j, nil
}

// Reject discards a single pending offer.
func (c *Controller) Reject(offerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, o := range c.offers {
		if o.ID == offerID {
			c.offers = append(c.offers[:i:i], c.offers[i+1:]...)
			return nil
		}
	}
	return ErrOfferNotFound
}

// UpdateJobStatus moves the active job to next. Arrival starts the
// pickup countdown; starting the trip stops it. Terminal states schedule
// the session release.
func (c *Controller) UpdateJobStatus(next job.Status) (job.Job, error) {
	c.mu.Lock()
	if c.job == nil || !c.job.Active() {
		c.mu.Unlock()
		return job.Job{}, ErrNoActiveJob
	}

	now := c.clk.Now().UTC()
	if err := c.job.UpdateStatus(next, now); err != nil {
		c.mu.Unlock()
		return job.Job{}, err
	}

	switch next {
	case job.StatusArrived:
		c.startCountdownLocked()
	case job.StatusStarted:
		c.stopCountdownLocked()
	case job.StatusCompleted:
		c.stopCountdownLocked()
		c.earnings.Today += c.job.Fare
		c.scheduleReleaseLocked(c.cfg.ReleaseAfterComplete)
	case job.StatusCancelled:
		c.stopCountdownLocked()
		c.scheduleReleaseLocked(c.cfg.ReleaseAfterCancel)
	}

	j := *c.job
	c.mu.Unlock()

	c.log.Info(c.logCtx, "job_status", "job moved to "+next.String(), map[string]any{
		"driver_id": c.driverID,
		"job_id":    j.ID,
	})
	c.not.JobUpdated(j)
	return j, nil
}

// Close shuts the session down and cancels all pending timers.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.online = false
	c.offers = nil
	for _, t := range []*clock.Timer{c.offerTimer, c.countdownTimer, c.releaseTimer} {
		if t != nil {
			t.Stop()
		}
	}
	c.offerTimer, c.countdownTimer, c.releaseTimer = nil, nil, nil
}

// ----- timer chains; all schedule* and stop* helpers require c.mu -----

func (c *Controller) scheduleOfferLocked() {
	c.offerTimer = c.clk.AfterFunc(c.cfg.OfferInterval, c.offerTick)
}

func (c *Controller) offerTick() {
	c.mu.Lock()
	if c.closed || !c.online {
		c.mu.Unlock()
		return
	}
	defer func() {
		c.mu.Lock()
		if !c.closed && c.online {
			c.scheduleOfferLocked()
		}
		c.mu.Unlock()
	}()

	busy := c.job != nil && c.job.Active()
	if busy || len(c.offers) >= c.cfg.MaxPendingOffers {
		c.mu.Unlock()
		return
	}

	o := c.gen.Generate()
	c.offers = append(c.offers, o)
	c.mu.Unlock()

	c.not.OfferReceived(o)
}

func (c *Controller) startCountdownLocked() {
	c.countdown = c.cfg.NoShowSeconds
	c.countdownTimer = c.clk.AfterFunc(time.Second, c.countdownTick)
}

func (c *Controller) stopCountdownLocked() {
	c.countdown = 0
	if c.countdownTimer != nil {
		c.countdownTimer.Stop()
		c.countdownTimer = nil
	}
}

func (c *Controller) countdownTick() {
	c.mu.Lock()
	if c.closed || c.job == nil || c.job.Status != job.StatusArrived || c.countdown == 0 {
		c.mu.Unlock()
		return
	}

	c.countdown--
	j := *c.job
	remaining := c.countdown
	c.mu.Unlock()

	c.not.CountdownTick(j, remaining)

	if remaining > 0 {
		c.mu.Lock()
		if !c.closed && c.job != nil && c.job.Status == job.StatusArrived {
			c.countdownTimer = c.clk.AfterFunc(time.Second, c.countdownTick)
		}
		c.mu.Unlock()
		return
	}

	// Customer never showed: cancel and release the session.
	observability.NoShows.Inc()
	c.log.Info(c.logCtx, "no_show", "pickup wait exhausted, cancelling job", map[string]any{
		"driver_id": c.driverID,
		"job_id":    j.ID,
	})
	if _, err := c.UpdateJobStatus(job.StatusCancelled); err != nil {
		c.log.Error(c.logCtx, "no_show", "failed to cancel job after no-show", err, map[string]any{
			"driver_id": c.driverID,
			"job_id":    j.ID,
		})
	}
}

func (c *Controller) scheduleReleaseLocked(after time.Duration) {
	c.releaseTimer = c.clk.AfterFunc(after, c.releaseTick)
}

func (c *Controller) releaseTick() {
	c.mu.Lock()
	if c.closed || c.job == nil || c.job.Active() {
		c.mu.Unlock()
		return
	}
	j := *c.job
	c.job = nil
	c.countdown = 0
	c.mu.Unlock()

	c.not.JobClosed(j)
}

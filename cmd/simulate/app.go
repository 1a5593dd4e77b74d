package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"moto-hail/internal/admin"
	"moto-hail/internal/bridge"
	"moto-hail/internal/customer"
	"moto-hail/internal/domain/job"
	"moto-hail/internal/domain/offer"
	"moto-hail/internal/domain/ride"
	"moto-hail/internal/driver"
	"moto-hail/internal/logger"
)

// Run drives a local end-to-end simulation: drivers accept and work
// generated offers, customers file ride requests, and the admin store
// accumulates the records. No network dependencies are touched.
func Run(ctx context.Context, drivers, customers int, duration time.Duration) error {
	log := logger.New("moto-hail-sim")
	ctx = log.WithRequestID(ctx, "simulate-001")

	clk := clock.New()
	store := admin.NewStore(clk)
	admin.SeedStore(store)

	runCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	var wg sync.WaitGroup

	for i := 0; i < drivers; i++ {
		subject := fmt.Sprintf("sim-driver-%d", i+1)
		br := bridge.NewDriverBridge(subject, 2000+i, store, nil, nil, nil, log)
		gen := offer.NewGenerator(rand.New(rand.NewSource(int64(i) + 1)))
		c := driver.NewController(subject, clk, gen, br, log, driver.DefaultConfig())
		c.SeedEarnings(driver.Earnings{Today: 4200, Week: 18200, Month: 62400})
		c.GoOnline()

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer c.Close()
			runDriver(runCtx, c)
		}()
	}

	for i := 0; i < customers; i++ {
		subject := fmt.Sprintf("sim-customer-%d", i+1)
		br := bridge.NewCustomerBridge(subject, 3000+i, store, nil, nil, log)
		rng := rand.New(rand.NewSource(int64(i) + 100))
		c := customer.NewController(subject, clk, rng, br, log, customer.DefaultConfig())

		wg.Add(1)
		go func(rng *rand.Rand) {
			defer wg.Done()
			defer c.Close()
			runCustomer(runCtx, c, rng)
		}(rand.New(rand.NewSource(int64(i) + 200)))
	}

	wg.Wait()

	metrics := store.DailyMetrics()
	log.Info(ctx, "simulation_finished", "simulation complete", map[string]any{
		"rides_today":     metrics.RidesToday,
		"orders_today":    metrics.OrdersToday,
		"completed_rides": metrics.CompletedRides,
		"cancelled_rides": metrics.CancelledRides,
		"revenue_today":   metrics.RevenueToday,
	})
	return nil
}

// runDriver accepts the first pending offer and walks the job through
// its lifecycle one step per tick.
func runDriver(ctx context.Context, c *driver.Controller) {
	ticker := time.NewTicker(700 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if j, ok := c.Job(); ok && j.Active() {
			next, ok := nextJobStep(j.Status)
			if !ok {
				continue
			}
			_, _ = c.UpdateJobStatus(next)
			continue
		}

		if offers := c.Offers(); len(offers) > 0 {
			_, _ = c.Accept(offers[0].ID)
		}
	}
}

func nextJobStep(st job.Status) (job.Status, bool) {
	switch st {
	case job.StatusAssigned:
		return job.StatusOnWay, true
	case job.StatusOnWay:
		return job.StatusArrived, true
	case job.StatusArrived:
		return job.StatusStarted, true
	case job.StatusStarted:
		return job.StatusCompleted, true
	default:
		return "", false
	}
}

// runCustomer files a new request whenever the previous one has
// resolved, alternating between normal and cheap modes.
func runCustomer(ctx context.Context, c *customer.Controller, rng *rand.Rand) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	pickups := []string{"Market", "Station", "Mall", "School"}
	dropoffs := []string{"Airport", "Center", "Harbor", "Clinic"}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		r, ok := c.Ride()
		if !ok || r.Status == ride.StatusIdle {
			mode := ride.ModeNormal
			if rng.Float64() < 0.5 {
				mode = ride.ModeCheap
			}
			_, _ = c.Request(mode, pickups[rng.Intn(len(pickups))], dropoffs[rng.Intn(len(dropoffs))])
			continue
		}

		switch r.Status {
		case ride.StatusDriverArrived:
			_, _ = c.Complete()
		case ride.StatusCompleted, ride.StatusTimeout:
			_, _ = c.Reset()
		}
	}
}

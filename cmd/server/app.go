package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"

	"moto-hail/internal/admin"
	"moto-hail/internal/api"
	"moto-hail/internal/auth"
	"moto-hail/internal/bridge"
	"moto-hail/internal/config"
	"moto-hail/internal/contracts"
	"moto-hail/internal/customer"
	"moto-hail/internal/driver"
	"moto-hail/internal/logger"
	"moto-hail/internal/postgres"
	"moto-hail/internal/rabbitmq"
	"moto-hail/internal/ws"
)

// Run starts the HTTP API and blocks until ctx is cancelled.
func Run(ctx context.Context, cfgPath string, maxConcurrent int) error {
	log := logger.New("moto-hail")
	ctx = log.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return err
	}
	if maxConcurrent <= 0 {
		maxConcurrent = cfg.HTTP.MaxConcurrent
	}

	clk := clock.New()
	store := admin.NewStore(clk, admin.WithAlertPolicy(admin.AlertPolicy{
		MaxRidesToday:     cfg.Alerts.RidesToday,
		MaxCancelledToday: cfg.Alerts.CancelledToday,
		MaxRefundsToday:   cfg.Alerts.RefundsToday,
	}))
	admin.SeedStore(store)

	jwtMgr := auth.NewManager(cfg.JWT.SecretKey, cfg.JWT.AccessTTL)
	hub := ws.NewHub(log, jwtMgr)

	var pub bridge.Publisher
	if cfg.RabbitMQ.Enabled {
		mq, err := rabbitmq.Connect(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer mq.Close()
		pub = mq

		// relay the event queues the publisher feeds back onto the
		// admin dashboard stream
		relay := bridge.NewEventRelay(hub, log)
		for _, queue := range []string{contracts.RideEventsQueue, contracts.JobEventsQueue} {
			go consumeQueue(ctx, mq, queue, relay, log)
		}
	}

	var arch bridge.Archiver
	var vsync *bridge.ViolationSync
	if cfg.Database.Enabled {
		pool, err := postgres.NewPool(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer pool.Close()

		a := postgres.NewArchive(pool)
		if err := a.EnsureSchema(ctx); err != nil {
			return err
		}
		arch = a
		vsync = bridge.NewViolationSync(a, log)
	}

	// Every store mutation fans out to admin dashboards, to the
	// violation archive, and to the broker when one is configured.
	unsubscribe := store.Subscribe(func(snap admin.Snapshot) {
		hub.Broadcast(auth.RoleAdmin, "overview", snap)
		if vsync != nil {
			vsync.Sync(snap)
		}
		if pub != nil {
			msg := contracts.StoreEventMessage{Entity: "store", Action: "snapshot"}
			if err := pub.PublishEvent(contracts.AdminFanoutExchange, "", "store.snapshot", msg); err != nil {
				log.Error(ctx, "publish_failed", "failed to publish store snapshot event", err, nil)
			}
		}
	})
	defer unsubscribe()

	dcfg := driver.DefaultConfig()
	dcfg.OfferInterval = cfg.Dispatch.OfferInterval
	dcfg.MaxPendingOffers = cfg.Dispatch.MaxPendingOffers
	dcfg.NoShowSeconds = cfg.Dispatch.NoShowSeconds

	ccfg := customer.DefaultConfig()
	ccfg.MatchProbability = cfg.Dispatch.MatchProbability

	sessions := api.NewSessions(clk, store, pub, hub, arch, log, dcfg, ccfg)
	defer sessions.Close()

	srv := api.NewServer(cfg, log, jwtMgr, hub, sessions, store)
	handler := srv.Routes()

	// concurrency limiter (global) — blocks when capacity is full
	limitedHandler := withConcurrencyLimit(maxConcurrent, handler)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.Info(ctx, "service_started",
		fmt.Sprintf("moto-hail API started on port %d", cfg.HTTP.Port),
		map[string]any{"port": cfg.HTTP.Port, "max_concurrent": maxConcurrent},
	)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "shutdown_failed", "HTTP server shutdown failed", err, nil)
			return err
		}
		log.Info(ctx, "service_stopped", "moto-hail API stopped", nil)
		return nil
	}
}

// consumeQueue relays queue deliveries until ctx is cancelled. Consume
// returns when the channel drops; wait out the reconnect and resume.
func consumeQueue(ctx context.Context, mq *rabbitmq.Client, queue string, relay *bridge.EventRelay, log *logger.Logger) {
	for {
		if err := mq.Consume(ctx, queue, "moto-hail-"+queue, 16, relay.HandleDelivery); err != nil {
			log.Error(ctx, "consume_failed", "broker consume interrupted", err, map[string]any{"queue": queue})
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(3 * time.Second):
		}
	}
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based
// limiter. It controls how many HTTP requests can be in-progress at the
// same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			http.Error(w, "request cancelled", http.StatusServiceUnavailable)
		}
	})
}

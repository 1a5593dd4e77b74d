package api

import (
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"moto-hail/internal/admin"
	"moto-hail/internal/bridge"
	"moto-hail/internal/customer"
	"moto-hail/internal/domain/offer"
	"moto-hail/internal/driver"
	"moto-hail/internal/logger"
)

// Sessions lazily builds one controller per authenticated subject and
// keeps it for the life of the process.
type Sessions struct {
	clk   clock.Clock
	store *admin.Store
	pub   bridge.Publisher
	hub   bridge.Pusher
	arch  bridge.Archiver
	log   *logger.Logger

	driverCfg   driver.Config
	customerCfg customer.Config

	mu        sync.Mutex
	drivers   map[string]*driver.Controller
	customers map[string]*customer.Controller
	adminIDs  map[string]int
	nextID    int
}

// NewSessions builds an empty registry. pub, hub, and arch may be nil.
func NewSessions(clk clock.Clock, store *admin.Store, pub bridge.Publisher, hub bridge.Pusher, arch bridge.Archiver, log *logger.Logger, dcfg driver.Config, ccfg customer.Config) *Sessions {
	return &Sessions{
		clk:         clk,
		store:       store,
		pub:         pub,
		hub:         hub,
		arch:        arch,
		log:         log,
		driverCfg:   dcfg,
		customerCfg: ccfg,
		drivers:     make(map[string]*driver.Controller),
		customers:   make(map[string]*customer.Controller),
		adminIDs:    make(map[string]int),
		nextID:      1000, // seeded records use low ids
	}
}

// Driver returns the session for the subject, creating it on first use.
func (s *Sessions) Driver(subject string) *driver.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.drivers[subject]; ok {
		return c
	}

	id := s.adminIDLocked(subject)
	br := bridge.NewDriverBridge(subject, id, s.store, s.pub, s.hub, s.arch, s.log)
	gen := offer.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano())))
	c := driver.NewController(subject, s.clk, gen, br, s.log, s.driverCfg)
	s.drivers[subject] = c
	return c
}

// Customer returns the session for the subject, creating it on first use.
func (s *Sessions) Customer(subject string) *customer.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.customers[subject]; ok {
		return c
	}

	id := s.adminIDLocked(subject)
	br := bridge.NewCustomerBridge(subject, id, s.store, s.pub, s.hub, s.log)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	c := customer.NewController(subject, s.clk, rng, br, s.log, s.customerCfg)
	s.customers[subject] = c
	return c
}

// Close shuts every session down.
func (s *Sessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.drivers {
		c.Close()
	}
	for _, c := range s.customers {
		c.Close()
	}
}

func (s *Sessions) adminIDLocked(subject string) int {
	if id, ok := s.adminIDs[subject]; ok {
		return id
	}
	s.nextID++
	s.adminIDs[subject] = s.nextID
	return s.nextID
}

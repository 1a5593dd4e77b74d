package admin

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrReasonRequired    = errors.New("a reason is required")
	ErrNameRequired      = errors.New("a name is required")
	ErrDriverUnavailable = errors.New("driver cannot receive assignments")
	ErrInvalidTransition = errors.New("invalid record status transition")
	ErrNoApplicableTypes = errors.New("promotion needs at least one applicable profile type")
	ErrDuplicateID       = errors.New("record id already exists")
)

// Store is the single source of truth for administrative data. It is
// constructed explicitly and injected where needed; all writes go through
// its mutation methods, and every mutation ends with a full snapshot
// delivered synchronously to all subscribers in registration order.
type Store struct {
	mu  sync.Mutex
	clk clock.Clock

	customers  []Customer
	drivers    []Driver
	shops      []Shop
	rides      []Ride
	orders     []Order
	promotions []Promotion
	fareRules  FareRule
	financial  FinancialData

	alertPolicy AlertPolicy

	subs      []*subscriber
	nextSubID int
}

type subscriber struct {
	id     int
	fn     func(Snapshot)
	active bool
}

// Option customizes a Store at construction time.
type Option func(*Store)

// WithAlertPolicy overrides the default alert thresholds.
func WithAlertPolicy(p AlertPolicy) Option {
	return func(s *Store) { s.alertPolicy = p }
}

// NewStore creates an empty store using the given clock for timestamps
// and day-boundary calculations.
func NewStore(clk clock.Clock, opts ...Option) *Store {
	s := &Store{
		clk:         clk,
		fareRules:   DefaultFareRule(),
		alertPolicy: DefaultAlertPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fixtures is an initial data set loaded at construction time.
type Fixtures struct {
	Customers  []Customer
	Drivers    []Driver
	Shops      []Shop
	Rides      []Ride
	Orders     []Order
	Promotions []Promotion
	Financial  *FinancialData
}

// LoadFixtures replaces the collections with copies of the given data.
// It does not notify: it is meant for seeding before subscribers attach.
func (s *Store) LoadFixtures(f Fixtures) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.customers = cloneCustomers(f.Customers)
	s.drivers = cloneDrivers(f.Drivers)
	s.shops = cloneShops(f.Shops)
	s.rides = cloneRides(f.Rides)
	s.orders = cloneOrders(f.Orders)
	s.promotions = clonePromotions(f.Promotions)
	if f.Financial != nil {
		s.financial = *f.Financial
	}
}

// Snapshot is a complete, independent copy of the store state plus the
// derived aggregates recomputed from it. Subscribers may retain it freely.
type Snapshot struct {
	Customers  []Customer    `json:"customers"`
	Drivers    []Driver      `json:"drivers"`
	Shops      []Shop        `json:"shops"`
	Rides      []Ride        `json:"rides"`
	Orders     []Order       `json:"orders"`
	Promotions []Promotion   `json:"promotions"`
	FareRules  FareRule      `json:"fare_rules"`
	Financial  FinancialData `json:"financial_data"`
	Metrics    DailyMetrics  `json:"metrics"`
	Alerts     []Alert       `json:"alerts"`
	TakenAt    time.Time     `json:"taken_at"`
}

// Snapshot returns a full copy of the current state and derived metrics.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Customers:  cloneCustomers(s.customers),
		Drivers:    cloneDrivers(s.drivers),
		Shops:      cloneShops(s.shops),
		Rides:      cloneRides(s.rides),
		Orders:     cloneOrders(s.orders),
		Promotions: clonePromotions(s.promotions),
		FareRules:  s.fareRules,
		Financial:  s.financial,
		Metrics:    s.dailyMetricsLocked(),
		Alerts:     s.alertsLocked(),
		TakenAt:    s.clk.Now().UTC(),
	}
}

// Subscribe registers fn, invokes it immediately with the current
// snapshot, and returns a deregistration handle. Unsubscribing while a
// notification round is in flight is safe; the callback will not be
// invoked again afterwards.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	s.nextSubID++
	sub := &subscriber{id: s.nextSubID, fn: fn, active: true}
	s.subs = append(s.subs, sub)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	fn(snap)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		sub.active = false
		s.subs = slices.DeleteFunc(s.subs, func(x *subscriber) bool { return x.id == sub.id })
	}
}

// notifyLocked builds the post-mutation snapshot while holding the lock,
// then delivers it outside the lock so subscribers may call back into the
// store. Callers must hold s.mu and must not touch state afterwards.
func (s *Store) notifyLocked() {
	snap := s.snapshotLocked()
	subs := slices.Clone(s.subs)
	s.mu.Unlock()
	defer s.mu.Lock()

	for _, sub := range subs {
		s.mu.Lock()
		active := sub.active
		s.mu.Unlock()
		if active {
			sub.fn(snap)
		}
	}
}

// newViolation builds an appendable violation record with a fresh id.
func (s *Store) newViolation(vt ViolationType, reason string) Violation {
	return Violation{
		ID:     "v-" + uuid.NewString(),
		Type:   vt,
		Reason: reason,
		Date:   s.clk.Now().UTC(),
	}
}

// ----- copy helpers: callers never see internal slices -----

func cloneCustomers(in []Customer) []Customer {
	out := slices.Clone(in)
	for i := range out {
		out[i].Violations = slices.Clone(out[i].Violations)
	}
	return out
}

func cloneDrivers(in []Driver) []Driver {
	out := slices.Clone(in)
	for i := range out {
		out[i].Violations = slices.Clone(out[i].Violations)
	}
	return out
}

func cloneShops(in []Shop) []Shop {
	out := slices.Clone(in)
	for i := range out {
		out[i].Violations = slices.Clone(out[i].Violations)
	}
	return out
}

func cloneRide(r Ride) Ride {
	if r.DriverID != nil {
		id := *r.DriverID
		r.DriverID = &id
	}
	if r.StartedAt != nil {
		t := *r.StartedAt
		r.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		r.CompletedAt = &t
	}
	return r
}

func cloneRides(in []Ride) []Ride {
	out := slices.Clone(in)
	for i := range out {
		out[i] = cloneRide(out[i])
	}
	return out
}

func cloneOrder(o Order) Order {
	o.Items = slices.Clone(o.Items)
	if o.DriverID != nil {
		id := *o.DriverID
		o.DriverID = &id
	}
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		o.CompletedAt = &t
	}
	return o
}

func cloneOrders(in []Order) []Order {
	out := slices.Clone(in)
	for i := range out {
		out[i] = cloneOrder(out[i])
	}
	return out
}

func clonePromotions(in []Promotion) []Promotion {
	out := slices.Clone(in)
	for i := range out {
		out[i].ApplicableTo = slices.Clone(out[i].ApplicableTo)
	}
	return out
}

package admin

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func testStore(t *testing.T) (*Store, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	mock.Set(time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC))

	s := NewStore(mock)
	s.LoadFixtures(Fixtures{
		Customers: []Customer{
			{ID: 1, Name: "Alice", ProfileType: ProfileStudent, Status: StatusActive},
			{ID: 2, Name: "Bob", ProfileType: ProfileWorker, Status: StatusActive},
		},
		Drivers: []Driver{
			{ID: 1, Name: "John", Status: StatusActive, Earnings: 1000},
			{ID: 2, Name: "Paul", Status: StatusPending},
		},
		Shops: []Shop{
			{ID: 1, Name: "Fresh Market", Status: StatusPending},
		},
	})
	return s, mock
}

func TestSuspendCustomerAppendsViolation(t *testing.T) {
	s, _ := testStore(t)

	if err := s.SuspendCustomer(1, "fake bookings"); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	c, err := s.Customer(1)
	if err != nil {
		t.Fatalf("customer: %v", err)
	}
	if c.Status != StatusSuspended {
		t.Fatalf("status = %s, want suspended", c.Status)
	}
	if len(c.Violations) != 1 {
		t.Fatalf("violations = %d, want 1", len(c.Violations))
	}
	v := c.Violations[0]
	if v.Type != ViolationPolicy {
		t.Errorf("violation type = %s, want %s", v.Type, ViolationPolicy)
	}
	if v.Reason != "fake bookings" {
		t.Errorf("violation reason = %q", v.Reason)
	}
	if v.ID == "" || v.Date.IsZero() {
		t.Errorf("violation missing id or date: %+v", v)
	}
}

func TestSuspendCustomerRequiresReason(t *testing.T) {
	s, _ := testStore(t)

	if err := s.SuspendCustomer(1, "  "); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("err = %v, want ErrReasonRequired", err)
	}
	if err := s.SuspendCustomer(99, "whatever"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUnsuspendIsIdempotent(t *testing.T) {
	s, _ := testStore(t)

	calls := 0
	unsub := s.Subscribe(func(Snapshot) { calls++ })
	defer unsub()
	if calls != 1 {
		t.Fatalf("calls after subscribe = %d, want 1", calls)
	}

	// customer 1 is active: unsuspend is a no-op and must not notify
	if err := s.UnsuspendCustomer(1); err != nil {
		t.Fatalf("unsuspend active: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls after no-op = %d, want 1", calls)
	}

	if err := s.SuspendCustomer(1, "spam"); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls after suspend = %d, want 2", calls)
	}
	if err := s.UnsuspendCustomer(1); err != nil {
		t.Fatalf("unsuspend: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls after unsuspend = %d, want 3", calls)
	}

	c, _ := s.Customer(1)
	if c.Status != StatusActive {
		t.Fatalf("status = %s, want active", c.Status)
	}
	if len(c.Violations) != 1 {
		t.Fatalf("violations survive unsuspend, got %d", len(c.Violations))
	}
}

func TestApproveAndRejectDriver(t *testing.T) {
	s, _ := testStore(t)

	if err := s.ApproveDriver(2); err != nil {
		t.Fatalf("approve: %v", err)
	}
	d, _ := s.Driver(2)
	if d.Status != StatusActive {
		t.Fatalf("status = %s, want active", d.Status)
	}
	if d.ApprovedAt == nil {
		t.Fatal("ApprovedAt not stamped")
	}

	// approving again is a silent no-op
	calls := 0
	unsub := s.Subscribe(func(Snapshot) { calls++ })
	defer unsub()
	if err := s.ApproveDriver(2); err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if calls != 1 {
		t.Fatalf("re-approve notified, calls = %d", calls)
	}

	if err := s.RejectDriver(1, "expired license"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	d, _ = s.Driver(1)
	if d.Status != StatusRejected {
		t.Fatalf("status = %s, want rejected", d.Status)
	}
	if len(d.Violations) != 1 || d.Violations[0].Type != ViolationOther {
		t.Fatalf("violations = %+v, want one of type other", d.Violations)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	s, _ := testStore(t)

	var got []Snapshot
	unsub := s.Subscribe(func(snap Snapshot) { got = append(got, snap) })

	if len(got) != 1 {
		t.Fatalf("immediate snapshots = %d, want 1", len(got))
	}
	if len(got[0].Customers) != 2 || len(got[0].Drivers) != 2 {
		t.Fatalf("initial snapshot incomplete: %+v", got[0])
	}

	if err := s.SuspendShop(1, "hygiene complaints"); err != nil {
		t.Fatalf("suspend shop: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("snapshots after mutation = %d, want 2", len(got))
	}
	if got[1].Shops[0].Status != StatusSuspended {
		t.Fatalf("snapshot not post-mutation: %+v", got[1].Shops[0])
	}

	unsub()
	if err := s.UnsuspendShop(1); err != nil {
		t.Fatalf("unsuspend shop: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("snapshots after unsubscribe = %d, want 2", len(got))
	}
}

func TestSubscriberMayMutateStore(t *testing.T) {
	s, _ := testStore(t)

	reentered := false
	unsub := s.Subscribe(func(snap Snapshot) {
		// one re-entrant write, guarded so it does not recurse forever
		if !reentered && snap.Customers[0].Status == StatusSuspended {
			reentered = true
			_ = s.UnsuspendCustomer(1)
		}
	})
	defer unsub()

	if err := s.SuspendCustomer(1, "test"); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	c, _ := s.Customer(1)
	if c.Status != StatusActive {
		t.Fatalf("re-entrant unsuspend lost, status = %s", c.Status)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s, _ := testStore(t)
	if err := s.SuspendCustomer(1, "test"); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	snap := s.Snapshot()
	snap.Customers[0].Name = "MUTATED"
	snap.Customers[0].Violations[0].Reason = "MUTATED"
	snap.Drivers[0].Status = StatusRejected

	c, _ := s.Customer(1)
	if c.Name == "MUTATED" || c.Violations[0].Reason == "MUTATED" {
		t.Fatal("snapshot mutation leaked into store")
	}
	d, _ := s.Driver(1)
	if d.Status == StatusRejected {
		t.Fatal("snapshot mutation leaked into driver record")
	}
}

func TestRideLifecycle(t *testing.T) {
	s, mock := testStore(t)

	r := Ride{ID: "ride-1", CustomerID: 1, PickupLocation: "Market Zone", DropoffLocation: "Airport", Fare: 2000}
	if err := s.AddRide(r); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddRide(r); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("duplicate add err = %v", err)
	}

	got, err := s.Ride("ride-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != RidePending {
		t.Fatalf("status = %s, want pending default", got.Status)
	}
	if !got.CreatedAt.Equal(mock.Now().UTC()) {
		t.Fatalf("CreatedAt = %v, want clock now", got.CreatedAt)
	}

	if err := s.AssignRide("ride-1", 1); err != nil {
		t.Fatalf("assign: %v", err)
	}
	// re-assignment to another eligible driver is allowed
	if err := s.ReassignRide("ride-1", 2); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	got, _ = s.Ride("ride-1")
	if got.DriverID == nil || *got.DriverID != 2 {
		t.Fatalf("driver id = %v, want 2", got.DriverID)
	}

	if err := s.UpdateRideStatus("ride-1", RideInProgress); err != nil {
		t.Fatalf("in-progress: %v", err)
	}
	got, _ = s.Ride("ride-1")
	if got.StartedAt == nil {
		t.Fatal("StartedAt not stamped")
	}

	if err := s.UpdateRideStatus("ride-1", RidePending); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("backwards transition err = %v", err)
	}

	if err := s.UpdateRideStatus("ride-1", RideCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, _ = s.Ride("ride-1")
	if got.CompletedAt == nil {
		t.Fatal("CompletedAt not stamped")
	}
	if err := s.UpdateRideStatus("ride-1", RideCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("terminal transition err = %v", err)
	}
}

func TestAssignRideRejectsSuspendedDriver(t *testing.T) {
	s, _ := testStore(t)
	if err := s.AddRide(Ride{ID: "ride-1", CustomerID: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.SuspendDriver(1, "dangerous riding"); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	if err := s.AssignRide("ride-1", 1); !errors.Is(err, ErrDriverUnavailable) {
		t.Fatalf("err = %v, want ErrDriverUnavailable", err)
	}
	if err := s.AssignRide("ride-1", 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestOrderLifecycle(t *testing.T) {
	s, _ := testStore(t)

	o := Order{ID: "order-1", CustomerID: 1, ShopID: 1, Total: 8500, Items: []string{"Bread", "Milk"}}
	if err := s.AddOrder(o); err != nil {
		t.Fatalf("add: %v", err)
	}

	for _, next := range []OrderStatus{OrderAccepted, OrderPreparing, OrderReady} {
		if err := s.UpdateOrderStatus("order-1", next); err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
	}
	if err := s.AssignOrder("order-1", 1); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := s.UpdateOrderStatus("order-1", OrderInDelivery); err != nil {
		t.Fatalf("in-delivery: %v", err)
	}
	if err := s.UpdateOrderStatus("order-1", OrderCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, _ := s.Order("order-1")
	if got.CompletedAt == nil {
		t.Fatal("CompletedAt not stamped")
	}
	if got.DriverID == nil || *got.DriverID != 1 {
		t.Fatalf("driver id = %v, want 1", got.DriverID)
	}
}

func TestDailyMetricsSinceMidnight(t *testing.T) {
	s, mock := testStore(t)
	now := mock.Now()
	yesterday := now.Add(-24 * time.Hour)

	rides := []Ride{
		{ID: "r-old", CustomerID: 1, Status: RideCompleted, Fare: 9999, CreatedAt: yesterday},
		{ID: "r-done", CustomerID: 1, Status: RideCompleted, Fare: 2000, CreatedAt: now.Add(-time.Hour)},
		{ID: "r-gone", CustomerID: 2, Status: RideCancelled, CreatedAt: now.Add(-time.Hour), Penalties: 500},
		{ID: "r-live", CustomerID: 2, Status: RideAssigned, CreatedAt: now},
	}
	orders := []Order{
		{ID: "o-old", CustomerID: 1, Status: OrderCompleted, Total: 7777, CreatedAt: yesterday},
		{ID: "o-done", CustomerID: 1, Status: OrderCompleted, Total: 1500, CreatedAt: now},
	}
	for _, r := range rides {
		if err := s.AddRide(r); err != nil {
			t.Fatalf("add ride %s: %v", r.ID, err)
		}
	}
	for _, o := range orders {
		if err := s.AddOrder(o); err != nil {
			t.Fatalf("add order %s: %v", o.ID, err)
		}
	}

	m := s.DailyMetrics()
	if m.RidesToday != 3 {
		t.Errorf("RidesToday = %d, want 3", m.RidesToday)
	}
	if m.OrdersToday != 1 {
		t.Errorf("OrdersToday = %d, want 1", m.OrdersToday)
	}
	if m.CompletedRides != 1 {
		t.Errorf("CompletedRides = %d, want 1", m.CompletedRides)
	}
	if m.CancelledRides != 1 {
		t.Errorf("CancelledRides = %d, want 1", m.CancelledRides)
	}
	if m.RevenueToday != 3500 {
		t.Errorf("RevenueToday = %.0f, want 3500", m.RevenueToday)
	}
	if m.PenaltiesToday != 500 {
		t.Errorf("PenaltiesToday = %.0f, want 500", m.PenaltiesToday)
	}
	if m.ActiveDrivers != 1 || m.PendingDrivers != 1 {
		t.Errorf("drivers = %d active / %d pending, want 1/1", m.ActiveDrivers, m.PendingDrivers)
	}
	if m.ActiveCustomers != 2 {
		t.Errorf("ActiveCustomers = %d, want 2", m.ActiveCustomers)
	}
}

func TestAlertsThresholds(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC))
	s := NewStore(mock, WithAlertPolicy(AlertPolicy{
		MaxRidesToday:     2,
		MaxCancelledToday: 1,
		MaxRefundsToday:   100,
	}))

	if alerts := s.Alerts(); len(alerts) != 0 {
		t.Fatalf("alerts on empty store: %+v", alerts)
	}

	for i, st := range []RideStatus{RideCancelled, RideCancelled, RidePending} {
		err := s.AddRide(Ride{ID: string(rune('a' + i)), CustomerID: 1, Status: st, CreatedAt: mock.Now()})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	refunds := 250.0
	s.UpdateFinancial(FinancialPatch{RefundsToday: &refunds})

	alerts := s.Alerts()
	if len(alerts) != 3 {
		t.Fatalf("alerts = %+v, want 3", alerts)
	}
	codes := map[string]bool{}
	for _, a := range alerts {
		codes[a.Code] = true
	}
	for _, want := range []string{"ride_volume", "cancelled_rides", "refunds"} {
		if !codes[want] {
			t.Errorf("missing alert %q in %+v", want, alerts)
		}
	}
}

func TestDriverEarningsAggregation(t *testing.T) {
	s, mock := testStore(t)
	one := 1
	now := mock.Now()

	seed := []Ride{
		{ID: "r1", CustomerID: 1, DriverID: &one, Status: RideCompleted, Fare: 2000, CreatedAt: now},
		{ID: "r2", CustomerID: 1, DriverID: &one, Status: RideCancelled, Penalties: 300, CreatedAt: now},
	}
	for _, r := range seed {
		if err := s.AddRide(r); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := s.AddOrder(Order{ID: "o1", CustomerID: 1, DriverID: &one, Status: OrderCompleted, Total: 1500, CreatedAt: now}); err != nil {
		t.Fatalf("add order: %v", err)
	}

	e, err := s.DriverEarnings(1)
	if err != nil {
		t.Fatalf("earnings: %v", err)
	}
	if e.RidesCompleted != 1 || e.OrdersDelivered != 1 {
		t.Errorf("completed = %d rides / %d orders, want 1/1", e.RidesCompleted, e.OrdersDelivered)
	}
	if e.GrossFares != 3500 {
		t.Errorf("GrossFares = %.0f, want 3500", e.GrossFares)
	}
	if e.Penalties != 300 {
		t.Errorf("Penalties = %.0f, want 300", e.Penalties)
	}
	if e.LifetimeTotal != 1000 {
		t.Errorf("LifetimeTotal = %.0f, want 1000", e.LifetimeTotal)
	}

	if _, err := s.DriverEarnings(99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRepeatSuspendAppendsSecondViolation(t *testing.T) {
	s, _ := testStore(t)

	if err := s.SuspendDriver(1, "fraudulent trips"); err != nil {
		t.Fatalf("first suspend: %v", err)
	}
	if err := s.SuspendDriver(1, "abusive conduct"); err != nil {
		t.Fatalf("second suspend: %v", err)
	}

	d, err := s.Driver(1)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	if d.Status != StatusSuspended {
		t.Fatalf("status = %s, want suspended", d.Status)
	}
	if len(d.Violations) != 2 {
		t.Fatalf("violations = %d, want 2", len(d.Violations))
	}
	if d.Violations[0].Reason != "fraudulent trips" {
		t.Errorf("first violation rewritten: %q", d.Violations[0].Reason)
	}
	if d.Violations[1].Reason != "abusive conduct" {
		t.Errorf("second violation = %q", d.Violations[1].Reason)
	}
}

func TestRecordCopiesDetachPointerFields(t *testing.T) {
	s, _ := testStore(t)

	if err := s.AddRide(Ride{ID: "ride-1", CustomerID: 1}); err != nil {
		t.Fatalf("add ride: %v", err)
	}
	if err := s.AssignRide("ride-1", 1); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := s.UpdateRideStatus("ride-1", RideInProgress); err != nil {
		t.Fatalf("start: %v", err)
	}

	got, err := s.Ride("ride-1")
	if err != nil {
		t.Fatalf("ride: %v", err)
	}
	started := *got.StartedAt
	*got.DriverID = 999
	*got.StartedAt = started.Add(time.Hour)

	fresh, _ := s.Ride("ride-1")
	if *fresh.DriverID != 1 {
		t.Fatalf("driver id leaked through copy: %d", *fresh.DriverID)
	}
	if !fresh.StartedAt.Equal(started) {
		t.Fatalf("start time leaked through copy: %v", fresh.StartedAt)
	}

	list := s.Rides(RideFilter{})
	if len(list) != 1 {
		t.Fatalf("rides = %d, want 1", len(list))
	}
	*list[0].DriverID = 777
	fresh, _ = s.Ride("ride-1")
	if *fresh.DriverID != 1 {
		t.Fatalf("driver id leaked through listing: %d", *fresh.DriverID)
	}

	one := 1
	if err := s.AddOrder(Order{ID: "order-1", CustomerID: 1, ShopID: 1, DriverID: &one, Status: OrderAssigned}); err != nil {
		t.Fatalf("add order: %v", err)
	}
	o, err := s.Order("order-1")
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	*o.DriverID = 555
	freshOrder, _ := s.Order("order-1")
	if *freshOrder.DriverID != 1 {
		t.Fatalf("order driver id leaked through copy: %d", *freshOrder.DriverID)
	}
}

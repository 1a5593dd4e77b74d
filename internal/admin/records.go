package admin

// Rides returns a copy of all ride records, optionally filtered.
func (s *Store) Rides(filter RideFilter) []Ride {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Ride, 0, len(s.rides))
	for _, r := range s.rides {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.DriverID != 0 && (r.DriverID == nil || *r.DriverID != filter.DriverID) {
			continue
		}
		out = append(out, cloneRide(r))
	}
	return out
}

// RideFilter narrows a ride listing. Zero fields match everything.
type RideFilter struct {
	Status   RideStatus
	DriverID int
}

// Ride returns a copy of a single ride record.
func (s *Store) Ride(id string) (Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findRide(id)
	if i < 0 {
		return Ride{}, ErrNotFound
	}
	return cloneRide(s.rides[i]), nil
}

// AddRide inserts a new ride record. The status defaults to pending when
// unset; the creation time defaults to now.
func (s *Store) AddRide(r Ride) error {
	s.mu.Lock()
	if s.findRide(r.ID) >= 0 {
		s.mu.Unlock()
		return ErrDuplicateID
	}
	if r.Status == "" {
		r.Status = RidePending
	}
	if !r.Status.Valid() {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.clk.Now().UTC()
	}
	s.rides = append(cloneRides(s.rides), cloneRide(r))

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// AssignRide attaches a driver to a pending or already-assigned ride.
// The driver must exist and must not be suspended or rejected.
func (s *Store) AssignRide(rideID string, driverID int) error {
	s.mu.Lock()
	i := s.findRide(rideID)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	j := s.findDriver(driverID)
	if j < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	if st := s.drivers[j].Status; st == StatusSuspended || st == StatusRejected {
		s.mu.Unlock()
		return ErrDriverUnavailable
	}
	if !s.rides[i].Status.CanTransitionTo(RideAssigned) {
		s.mu.Unlock()
		return ErrInvalidTransition
	}

	r := s.rides[i]
	r.Status = RideAssigned
	r.DriverID = &driverID
	s.rides = replaceRide(s.rides, i, r)

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// ReassignRide swaps the driver on an assigned ride. It shares the
// validation of AssignRide; assigned rides accept a repeat assignment.
func (s *Store) ReassignRide(rideID string, driverID int) error {
	return s.AssignRide(rideID, driverID)
}

// UpdateRideStatus transitions a ride record along its bookkeeping graph.
// Reaching in-progress stamps the start time; reaching a terminal state
// stamps the completion time.
func (s *Store) UpdateRideStatus(rideID string, next RideStatus) error {
	s.mu.Lock()
	i := s.findRide(rideID)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	if !next.Valid() || !s.rides[i].Status.CanTransitionTo(next) {
		s.mu.Unlock()
		return ErrInvalidTransition
	}

	r := s.rides[i]
	r.Status = next
	now := s.clk.Now().UTC()
	switch {
	case next == RideInProgress && r.StartedAt == nil:
		r.StartedAt = &now
	case next.Terminal() && r.CompletedAt == nil:
		r.CompletedAt = &now
	}
	s.rides = replaceRide(s.rides, i, r)

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// Orders returns a copy of all order records, optionally filtered.
func (s *Store) Orders(filter OrderFilter) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.ShopID != 0 && o.ShopID != filter.ShopID {
			continue
		}
		out = append(out, o)
	}
	return cloneOrders(out)
}

// OrderFilter narrows an order listing. Zero fields match everything.
type OrderFilter struct {
	Status OrderStatus
	ShopID int
}

// Order returns a copy of a single order record.
func (s *Store) Order(id string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findOrder(id)
	if i < 0 {
		return Order{}, ErrNotFound
	}
	return cloneOrder(s.orders[i]), nil
}

// AddOrder inserts a new order record. The status defaults to pending
// when unset; the creation time defaults to now.
func (s *Store) AddOrder(o Order) error {
	s.mu.Lock()
	if s.findOrder(o.ID) >= 0 {
		s.mu.Unlock()
		return ErrDuplicateID
	}
	if o.Status == "" {
		o.Status = OrderPending
	}
	if !o.Status.Valid() {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.clk.Now().UTC()
	}
	s.orders = append(cloneOrders(s.orders), cloneOrder(o))

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// AssignOrder attaches a delivery driver to a ready or already-assigned
// order. The driver must exist and must not be suspended or rejected.
func (s *Store) AssignOrder(orderID string, driverID int) error {
	s.mu.Lock()
	i := s.findOrder(orderID)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	j := s.findDriver(driverID)
	if j < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	if st := s.drivers[j].Status; st == StatusSuspended || st == StatusRejected {
		s.mu.Unlock()
		return ErrDriverUnavailable
	}
	if !s.orders[i].Status.CanTransitionTo(OrderAssigned) {
		s.mu.Unlock()
		return ErrInvalidTransition
	}

	o := s.orders[i]
	o.Status = OrderAssigned
	o.DriverID = &driverID
	s.orders = replaceOrder(s.orders, i, o)

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// UpdateOrderStatus transitions an order record along its bookkeeping
// graph, stamping the completion time on terminal states.
func (s *Store) UpdateOrderStatus(orderID string, next OrderStatus) error {
	s.mu.Lock()
	i := s.findOrder(orderID)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	if !next.Valid() || !s.orders[i].Status.CanTransitionTo(next) {
		s.mu.Unlock()
		return ErrInvalidTransition
	}

	o := s.orders[i]
	o.Status = next
	if next.Terminal() && o.CompletedAt == nil {
		now := s.clk.Now().UTC()
		o.CompletedAt = &now
	}
	s.orders = replaceOrder(s.orders, i, o)

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

func (s *Store) findRide(id string) int {
	for i, r := range s.rides {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) findOrder(id string) int {
	for i, o := range s.orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func replaceRide(in []Ride, i int, r Ride) []Ride {
	out := append([]Ride(nil), in...)
	out[i] = r
	return out
}

func replaceOrder(in []Order, i int, o Order) []Order {
	out := append([]Order(nil), in...)
	out[i] = o
	return out
}

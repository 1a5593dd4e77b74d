package admin

import "strings"

// Customers returns a copy of all customer records, optionally filtered.
func (s *Store) Customers(filter CustomerFilter) []Customer {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Customer, 0, len(s.customers))
	for _, c := range s.customers {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.ProfileType != "" && c.ProfileType != filter.ProfileType {
			continue
		}
		out = append(out, c)
	}
	return cloneCustomers(out)
}

// CustomerFilter narrows a customer listing. Zero fields match everything.
type CustomerFilter struct {
	Status      EntityStatus
	ProfileType ProfileType
}

// Customer returns a copy of a single customer record.
func (s *Store) Customer(id int) (Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findCustomer(id)
	if i < 0 {
		return Customer{}, ErrNotFound
	}
	c := s.customers[i]
	c.Violations = append([]Violation(nil), c.Violations...)
	return c, nil
}

// SuspendCustomer marks the customer suspended and appends a
// policy-violation record carrying the given reason.
func (s *Store) SuspendCustomer(id int, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}

	s.mu.Lock()
	i := s.findCustomer(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}

	c := s.customers[i]
	c.Status = StatusSuspended
	c.Violations = append(append([]Violation(nil), c.Violations...),
		s.newViolation(ViolationPolicy, reason))
	s.customers = replaceCustomer(s.customers, i, c)

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// UnsuspendCustomer restores a suspended customer to active. Restoring a
// customer who is not suspended is a no-op and does not notify.
func (s *Store) UnsuspendCustomer(id int) error {
	s.mu.Lock()
	i := s.findCustomer(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	if s.customers[i].Status != StatusSuspended {
		s.mu.Unlock()
		return nil
	}

	c := s.customers[i]
	c.Status = StatusActive
	s.customers = replaceCustomer(s.customers, i, c)

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// Drivers returns a copy of all driver records, optionally filtered by status.
func (s *Store) Drivers(status EntityStatus) []Driver {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		if status != "" && d.Status != status {
			continue
		}
		out = append(out, d)
	}
	return cloneDrivers(out)
}

// Driver returns a copy of a single driver record.
func (s *Store) Driver(id int) (Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findDriver(id)
	if i < 0 {
		return Driver{}, ErrNotFound
	}
	d := s.drivers[i]
	d.Violations = append([]Violation(nil), d.Violations...)
	return d, nil
}

// ApproveDriver moves a pending driver to active and stamps the approval
// time. Approving an already-active driver is a no-op and does not notify.
func (s *Store) ApproveDriver(id int) error {
	s.mu.Lock()
	i := s.findDriver(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	if s.drivers[i].Status == StatusActive {
		s.mu.Unlock()
		return nil
	}

	d := s.drivers[i]
	d.Status = StatusActive
	approved := s.clk.Now().UTC()
	d.ApprovedAt = &approved
	s.drivers = replaceDriver(s.drivers, i, d)

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// RejectDriver marks the driver rejected and appends a violation of
// type other with the given reason.
func (s *Store) RejectDriver(id int, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}

	s.mu.Lock()
	i := s.findDriver(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}

	d := s.drivers[i]
	d.Status = StatusRejected
	d.Violations = append(append([]Violation(nil), d.Violations...),
		s.newViolation(ViolationOther, reason))
	s.drivers = replaceDriver(s.drivers, i, d)

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// SuspendDriver marks the driver suspended and appends a
// policy-violation record carrying the given reason.
func (s *Store) SuspendDriver(id int, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}

	s.mu.Lock()
	i := s.findDriver(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}

	d := s.drivers[i]
	d.Status = StatusSuspended
	d.Violations = append(append([]Violation(nil), d.Violations...),
		s.newViolation(ViolationPolicy, reason))
	s.drivers = replaceDriver(s.drivers, i, d)

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// UnsuspendDriver restores a suspended driver to active. Restoring a
// driver who is not suspended is a no-op and does not notify.
func (s *Store) UnsuspendDriver(id int) error {
	s.mu.Lock()
	i := s.findDriver(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	if s.drivers[i].Status != StatusSuspended {
		s.mu.Unlock()
		return nil
	}

	d := s.drivers[i]
	d.Status = StatusActive
	s.drivers = replaceDriver(s.drivers, i, d)

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// Shops returns a copy of all shop records, optionally filtered by status.
func (s *Store) Shops(status EntityStatus) []Shop {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Shop, 0, len(s.shops))
	for _, sh := range s.shops {
		if status != "" && sh.Status != status {
			continue
		}
		out = append(out, sh)
	}
	return cloneShops(out)
}

// Shop returns a copy of a single shop record.
func (s *Store) Shop(id int) (Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findShop(id)
	if i < 0 {
		return Shop{}, ErrNotFound
	}
	sh := s.shops[i]
	sh.Violations = append([]Violation(nil), sh.Violations...)
	return sh, nil
}

// ApproveShop moves a pending shop to active. Approving an
// already-active shop is a no-op and does not notify.
func (s *Store) ApproveShop(id int) error {
	s.mu.Lock()
	i := s.findShop(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	if s.shops[i].Status == StatusActive {
		s.mu.Unlock()
		return nil
	}

	sh := s.shops[i]
	sh.Status = StatusActive
	s.shops = replaceShop(s.shops, i, sh)

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// RejectShop marks the shop rejected and appends a violation of type
// other with the given reason.
func (s *Store) RejectShop(id int, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}

	s.mu.Lock()
	i := s.findShop(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}

	sh := s.shops[i]
	sh.Status = StatusRejected
	sh.Violations = append(append([]Violation(nil), sh.Violations...),
		s.newViolation(ViolationOther, reason))
	s.shops = replaceShop(s.shops, i, sh)

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// SuspendShop marks the shop suspended and appends a policy-violation
// record carrying the given reason.
func (s *Store) SuspendShop(id int, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}

	s.mu.Lock()
	i := s.findShop(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}

	sh := s.shops[i]
	sh.Status = StatusSuspended
	sh.Violations = append(append([]Violation(nil), sh.Violations...),
		s.newViolation(ViolationPolicy, reason))
	s.shops = replaceShop(s.shops, i, sh)

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// UnsuspendShop restores a suspended shop to active. Restoring a shop
// that is not suspended is a no-op and does not notify.
func (s *Store) UnsuspendShop(id int) error {
	s.mu.Lock()
	i := s.findShop(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	if s.shops[i].Status != StatusSuspended {
		s.mu.Unlock()
		return nil
	}

	sh := s.shops[i]
	sh.Status = StatusActive
	s.shops = replaceShop(s.shops, i, sh)

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// ----- index helpers, callers hold s.mu -----

func (s *Store) findCustomer(id int) int {
	for i, c := range s.customers {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) findDriver(id int) int {
	for i, d := range s.drivers {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) findShop(id int) int {
	for i, sh := range s.shops {
		if sh.ID == id {
			return i
		}
	}
	return -1
}

// replace helpers copy the slice so retained snapshots stay untouched.

func replaceCustomer(in []Customer, i int, c Customer) []Customer {
	out := append([]Customer(nil), in...)
	out[i] = c
	return out
}

func replaceDriver(in []Driver, i int, d Driver) []Driver {
	out := append([]Driver(nil), in...)
	out[i] = d
	return out
}

func replaceShop(in []Shop, i int, sh Shop) []Shop {
	out := append([]Shop(nil), in...)
	out[i] = sh
	return out
}

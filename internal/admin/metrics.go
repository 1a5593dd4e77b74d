package admin

import (
	"fmt"
	"time"
)

// DailyMetrics is the operational summary recomputed on every snapshot.
// "Today" means since local midnight of the store clock, not a rolling
// 24-hour window.
type DailyMetrics struct {
	RidesToday      int     `json:"rides_today"`
	OrdersToday     int     `json:"orders_today"`
	CompletedRides  int     `json:"completed_rides"`
	CancelledRides  int     `json:"cancelled_rides"`
	RevenueToday    float64 `json:"revenue_today"`
	PenaltiesToday  float64 `json:"penalties_today"`
	ActiveDrivers   int     `json:"active_drivers"`
	PendingDrivers  int     `json:"pending_drivers"`
	ActiveCustomers int     `json:"active_customers"`
	OpenShops       int     `json:"open_shops"`
}

// DailyMetrics returns the summary derived from the current state.
func (s *Store) DailyMetrics() DailyMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dailyMetricsLocked()
}

func (s *Store) dailyMetricsLocked() DailyMetrics {
	now := s.clk.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var m DailyMetrics
	for _, r := range s.rides {
		if r.CreatedAt.Before(midnight) {
			continue
		}
		m.RidesToday++
		m.PenaltiesToday += r.Penalties
		switch r.Status {
		case RideCompleted:
			m.CompletedRides++
			m.RevenueToday += r.Fare
		case RideCancelled:
			m.CancelledRides++
		}
	}
	for _, o := range s.orders {
		if o.CreatedAt.Before(midnight) {
			continue
		}
		m.OrdersToday++
		m.PenaltiesToday += o.Penalties
		if o.Status == OrderCompleted {
			m.RevenueToday += o.Total
		}
	}
	for _, d := range s.drivers {
		switch d.Status {
		case StatusActive:
			m.ActiveDrivers++
		case StatusPending:
			m.PendingDrivers++
		}
	}
	for _, c := range s.customers {
		if c.Status == StatusActive {
			m.ActiveCustomers++
		}
	}
	for _, sh := range s.shops {
		if sh.Status == StatusActive {
			m.OpenShops++
		}
	}
	return m
}

// AlertPolicy holds the thresholds that raise operational alerts.
type AlertPolicy struct {
	MaxRidesToday     int     `yaml:"max_rides_today"`
	MaxCancelledToday int     `yaml:"max_cancelled_today"`
	MaxRefundsToday   float64 `yaml:"max_refunds_today"`
}

// DefaultAlertPolicy returns the thresholds used unless overridden.
func DefaultAlertPolicy() AlertPolicy {
	return AlertPolicy{
		MaxRidesToday:     50,
		MaxCancelledToday: 5,
		MaxRefundsToday:   10000,
	}
}

// Alert is a threshold breach surfaced on every snapshot until the
// underlying value drops back below the limit.
type Alert struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Alerts returns the currently raised threshold breaches.
func (s *Store) Alerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alertsLocked()
}

func (s *Store) alertsLocked() []Alert {
	m := s.dailyMetricsLocked()

	var out []Alert
	if m.RidesToday > s.alertPolicy.MaxRidesToday {
		out = append(out, Alert{
			Code:    "ride_volume",
			Message: fmt.Sprintf("ride volume %d exceeds daily limit %d", m.RidesToday, s.alertPolicy.MaxRidesToday),
		})
	}
	if m.CancelledRides > s.alertPolicy.MaxCancelledToday {
		out = append(out, Alert{
			Code:    "cancelled_rides",
			Message: fmt.Sprintf("%d rides cancelled today, limit is %d", m.CancelledRides, s.alertPolicy.MaxCancelledToday),
		})
	}
	if s.financial.RefundsToday > s.alertPolicy.MaxRefundsToday {
		out = append(out, Alert{
			Code:    "refunds",
			Message: fmt.Sprintf("refunds of %.0f today exceed limit %.0f", s.financial.RefundsToday, s.alertPolicy.MaxRefundsToday),
		})
	}
	return out
}

// DriverEarnings summarizes one driver's completed work.
type DriverEarnings struct {
	DriverID        int     `json:"driver_id"`
	RidesCompleted  int     `json:"rides_completed"`
	OrdersDelivered int     `json:"orders_delivered"`
	GrossFares      float64 `json:"gross_fares"`
	Penalties       float64 `json:"penalties"`
	LifetimeTotal   float64 `json:"lifetime_total"`
}

// DriverEarnings aggregates the completed rides and orders attributed to
// the driver, alongside the lifetime figure carried on the record.
func (s *Store) DriverEarnings(driverID int) (DriverEarnings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findDriver(driverID)
	if i < 0 {
		return DriverEarnings{}, ErrNotFound
	}

	e := DriverEarnings{
		DriverID:      driverID,
		LifetimeTotal: s.drivers[i].Earnings,
	}
	for _, r := range s.rides {
		if r.DriverID == nil || *r.DriverID != driverID {
			continue
		}
		if r.Status == RideCompleted {
			e.RidesCompleted++
			e.GrossFares += r.Fare
		}
		e.Penalties += r.Penalties
	}
	for _, o := range s.orders {
		if o.DriverID == nil || *o.DriverID != driverID {
			continue
		}
		if o.Status == OrderCompleted {
			e.OrdersDelivered++
			e.GrossFares += o.Total
		}
		e.Penalties += o.Penalties
	}
	return e, nil
}

package admin

import (
	"errors"
	"strings"
	"time"
)

// EntityStatus is the moderation state shared by customers, drivers, and shops.
type EntityStatus string

const (
	StatusActive    EntityStatus = "active"
	StatusSuspended EntityStatus = "suspended"
	StatusPending   EntityStatus = "pending"
	StatusRejected  EntityStatus = "rejected"
)

var ErrInvalidEntityStatus = errors.New("invalid entity status")

// ParseEntityStatus normalizes (lowercases+trims) and validates a status string.
func ParseEntityStatus(in string) (EntityStatus, error) {
	status := EntityStatus(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidEntityStatus
}

// Valid reports whether status is one of the allowed status constants.
func (status EntityStatus) Valid() bool {
	switch status {
	case StatusActive, StatusSuspended, StatusPending, StatusRejected:
		return true
	default:
		return false
	}
}

// String returns the string representation of the EntityStatus.
func (status EntityStatus) String() string {
	return string(status)
}

// ViolationType categorizes appended violation records.
type ViolationType string

const (
	ViolationPolicy       ViolationType = "policy-violation"
	ViolationFraud        ViolationType = "fraud"
	ViolationAbuse        ViolationType = "abuse"
	ViolationPaymentIssue ViolationType = "payment-issue"
	ViolationOther        ViolationType = "other"
)

// Violation is an append-only moderation record attached to an entity.
type Violation struct {
	ID       string        `json:"id"`
	Type     ViolationType `json:"type"`
	Reason   string        `json:"reason"`
	Date     time.Time     `json:"date"`
	Resolved bool          `json:"resolved"`
}

// ProfileType is the customer profile class used for discount scoping.
type ProfileType string

const (
	ProfileRegular ProfileType = "regular"
	ProfileStudent ProfileType = "student"
	ProfileWorker  ProfileType = "worker"
)

// Valid reports whether the profile type is a known class.
func (p ProfileType) Valid() bool {
	switch p {
	case ProfileRegular, ProfileStudent, ProfileWorker:
		return true
	default:
		return false
	}
}

// Customer is an administrative customer record.
type Customer struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone"`
	ProfileType ProfileType  `json:"profile_type"`
	Status      EntityStatus `json:"status"`
	Wallet      float64      `json:"wallet"`
	JoinedAt    time.Time    `json:"joined_at"`
	LastActive  time.Time    `json:"last_active"`
	Violations  []Violation  `json:"violations"`
	TotalRides  int          `json:"total_rides"`
	Rating      float64      `json:"rating"`
}

// Driver is an administrative driver record.
type Driver struct {
	ID         int          `json:"id"`
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Phone      string       `json:"phone"`
	Bike       string       `json:"bike"`
	Status     EntityStatus `json:"status"`
	ApprovedAt *time.Time   `json:"approved_at,omitempty"`
	Violations []Violation  `json:"violations"`
	Rating     float64      `json:"rating"`
	TotalTrips int          `json:"total_trips"`
	Earnings   float64      `json:"earnings"`
	CancelRate float64      `json:"cancel_rate"`
}

// Shop is an administrative partner-shop record.
type Shop struct {
	ID             int          `json:"id"`
	Name           string       `json:"name"`
	Owner          string       `json:"owner"`
	Phone          string       `json:"phone"`
	Category       string       `json:"category"`
	Status         EntityStatus `json:"status"`
	RegisteredAt   time.Time    `json:"registered_at"`
	Violations     []Violation  `json:"violations"`
	ProductCount   int          `json:"product_count"`
	OrdersAccepted int          `json:"orders_accepted"`
	OrdersRejected int          `json:"orders_rejected"`
	Rating         float64      `json:"rating"`
}

// RideStatus is the bookkeeping state of an administrative ride record.
type RideStatus string

const (
	RidePending    RideStatus = "pending"
	RideAssigned   RideStatus = "assigned"
	RideInProgress RideStatus = "in-progress"
	RideCompleted  RideStatus = "completed"
	RideCancelled  RideStatus = "cancelled"
)

// Valid reports whether status is one of the allowed ride record states.
func (status RideStatus) Valid() bool {
	switch status {
	case RidePending, RideAssigned, RideInProgress, RideCompleted, RideCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo specifies if the ride record may move to the next state.
// Re-assignment keeps a ride in assigned; cancellation is allowed from any
// non-terminal state.
func (status RideStatus) CanTransitionTo(next RideStatus) bool {
	if status.Terminal() {
		return false
	}
	if next == RideCancelled {
		return true
	}
	switch status {
	case RidePending:
		return next == RideAssigned
	case RideAssigned:
		return next == RideAssigned || next == RideInProgress
	case RideInProgress:
		return next == RideCompleted
	default:
		return false
	}
}

// Terminal indicates whether the ride record reached an end state.
func (status RideStatus) Terminal() bool {
	return status == RideCompleted || status == RideCancelled
}

// String returns the string representation of the RideStatus.
func (status RideStatus) String() string {
	return string(status)
}

// Ride is an administrative ride record, independent of the live
// customer-facing request of the same name.
type Ride struct {
	ID              string     `json:"id"`
	CustomerID      int        `json:"customer_id"`
	DriverID        *int       `json:"driver_id,omitempty"`
	PickupLocation  string     `json:"pickup_location"`
	DropoffLocation string     `json:"dropoff_location"`
	Status          RideStatus `json:"status"`
	Fare            float64    `json:"fare"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Distance        float64    `json:"distance"`
	Penalties       float64    `json:"penalties"`
}

// OrderStatus is the bookkeeping state of a shop delivery order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderAccepted   OrderStatus = "accepted"
	OrderPreparing  OrderStatus = "preparing"
	OrderReady      OrderStatus = "ready"
	OrderAssigned   OrderStatus = "assigned"
	OrderInDelivery OrderStatus = "in-delivery"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid reports whether status is one of the allowed order record states.
func (status OrderStatus) Valid() bool {
	switch status {
	case OrderPending, OrderAccepted, OrderPreparing, OrderReady,
		OrderAssigned, OrderInDelivery, OrderCompleted, OrderCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo specifies if the order record may move to the next state.
func (status OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if status.Terminal() {
		return false
	}
	if next == OrderCancelled {
		return true
	}
	switch status {
	case OrderPending:
		return next == OrderAccepted
	case OrderAccepted:
		return next == OrderPreparing
	case OrderPreparing:
		return next == OrderReady
	case OrderReady:
		return next == OrderAssigned
	case OrderAssigned:
		return next == OrderAssigned || next == OrderInDelivery
	case OrderInDelivery:
		return next == OrderCompleted
	default:
		return false
	}
}

// Terminal indicates whether the order record reached an end state.
func (status OrderStatus) Terminal() bool {
	return status == OrderCompleted || status == OrderCancelled
}

// String returns the string representation of the OrderStatus.
func (status OrderStatus) String() string {
	return string(status)
}

// Order is an administrative shop delivery record.
type Order struct {
	ID          string      `json:"id"`
	CustomerID  int         `json:"customer_id"`
	ShopID      int         `json:"shop_id"`
	DriverID    *int        `json:"driver_id,omitempty"`
	Status      OrderStatus `json:"status"`
	Total       float64     `json:"total"`
	Items       []string    `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Penalties   float64     `json:"penalties"`
}

// Promotion is a discount rule scoped to a subset of profile types.
type Promotion struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Discount     float64       `json:"discount"`
	ApplicableTo []ProfileType `json:"applicable_to"`
	Active       bool          `json:"active"`
	CreatedAt    time.Time     `json:"created_at"`
	UsageCount   int           `json:"usage_count"`
}

// FareRule is the single global pricing configuration.
type FareRule struct {
	BaseFare            float64 `json:"base_fare"`
	PerKm               float64 `json:"per_km"`
	PerMinute           float64 `json:"per_minute"`
	StudentDiscount     float64 `json:"student_discount"`
	WorkerDiscount      float64 `json:"worker_discount"`
	GracePeriod         int     `json:"grace_period"`
	NoShowPenalty       float64 `json:"no_show_penalty"`
	MaxDetourPercentage float64 `json:"max_detour_percentage"`
}

// DefaultFareRule returns the pricing configuration used until an admin
// edits it.
func DefaultFareRule() FareRule {
	return FareRule{
		BaseFare:            500,
		PerKm:               50,
		PerMinute:           10,
		StudentDiscount:     15,
		WorkerDiscount:      10,
		GracePeriod:         5,
		NoShowPenalty:       1000,
		MaxDetourPercentage: 10,
	}
}

// FinancialData is the aggregate money block shown on the finance page.
type FinancialData struct {
	TotalUserWallet  float64 `json:"total_user_wallet"`
	TopUpToday       float64 `json:"top_up_today"`
	RideRevenue      float64 `json:"ride_revenue"`
	OrderRevenue     float64 `json:"order_revenue"`
	RefundsToday     float64 `json:"refunds_today"`
	DriverPayoutsDue float64 `json:"driver_payouts_due"`
}

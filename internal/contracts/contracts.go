package contracts

import "time"

// Exchange and queue names shared by every service that touches the broker.
const (
	RideTopicExchange   = "ride_topic"
	JobTopicExchange    = "job_topic"
	AdminFanoutExchange = "admin_fanout"

	RideEventsQueue  = "ride_events"
	JobEventsQueue   = "job_events"
	AdminEventsQueue = "admin_events"
)

// Routing key prefixes; the concrete key appends the event kind, e.g.
// "ride.status.driver_assigned" or "job.status.completed".
const (
	RideStatusPrefix = "ride.status."
	JobStatusPrefix  = "job.status."
	OfferPrefix      = "offer."
)

// Envelope wraps every published message with routing metadata.
type Envelope struct {
	MessageID  string    `json:"message_id"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// RideStatusMessage mirrors a customer request transition.
type RideStatusMessage struct {
	RideID     string `json:"ride_id"`
	CustomerID string `json:"customer_id"`
	Mode       string `json:"mode"`
	Status     string `json:"status"`
	DriverName string `json:"driver_name,omitempty"`
	Pickup     string `json:"pickup"`
	Dropoff    string `json:"dropoff"`
}

// JobStatusMessage mirrors a driver job transition.
type JobStatusMessage struct {
	JobID    string `json:"job_id"`
	DriverID string `json:"driver_id"`
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	Fare     int    `json:"fare"`
	Pickup   string `json:"pickup"`
	Dropoff  string `json:"dropoff"`
}

// OfferMessage mirrors an offer surfaced to a driver.
type OfferMessage struct {
	OfferID  string `json:"offer_id"`
	DriverID string `json:"driver_id"`
	Kind     string `json:"kind"`
	Fare     int    `json:"fare"`
	Pickup   string `json:"pickup"`
	Dropoff  string `json:"dropoff"`
	Distance string `json:"distance"`
	Note     string `json:"note,omitempty"`
}

// StoreEventMessage announces an administrative store mutation; the
// admin fanout carries it to every dashboard.
type StoreEventMessage struct {
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     string `json:"id"`
}

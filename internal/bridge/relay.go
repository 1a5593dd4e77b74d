package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"moto-hail/internal/auth"
	"moto-hail/internal/contracts"
	"moto-hail/internal/logger"
)

// Broadcaster fans an event out to every connected client of a role.
type Broadcaster interface {
	Broadcast(role auth.Role, event string, payload any)
}

// EventRelay turns broker deliveries back into dashboard pushes, so
// admin clients follow traffic from every instance, not just the one
// they are connected to.
type EventRelay struct {
	hub Broadcaster
	log *logger.Logger
}

// NewEventRelay wires the push hub behind a consumer handler.
func NewEventRelay(hub Broadcaster, log *logger.Logger) *EventRelay {
	return &EventRelay{hub: hub, log: log}
}

// HandleDelivery decodes one envelope and pushes it to admin clients.
// A decode error rejects the delivery.
func (r *EventRelay) HandleDelivery(ctx context.Context, d amqp.Delivery) error {
	var env contracts.Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		return fmt.Errorf("decode event %s: %w", d.RoutingKey, err)
	}

	r.hub.Broadcast(auth.RoleAdmin, "event", map[string]any{
		"routing_key": d.RoutingKey,
		"kind":        env.Kind,
		"occurred_at": env.OccurredAt,
		"payload":     env.Payload,
	})
	return nil
}

package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"moto-hail/internal/contracts"
)

func declareTopology(ch *amqp.Channel) error {
	exchanges := []struct {
		name string
		kind string
	}{
		{contracts.RideTopicExchange, "topic"},
		{contracts.JobTopicExchange, "topic"},
		{contracts.AdminFanoutExchange, "fanout"},
	}
	for _, ex := range exchanges {
		if err := ch.ExchangeDeclare(ex.name, ex.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	queues := []string{
		contracts.RideEventsQueue,
		contracts.JobEventsQueue,
		contracts.AdminEventsQueue,
	}
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	bindings := []struct {
		queue      string
		exchange   string
		routingKey string
	}{
		{contracts.RideEventsQueue, contracts.RideTopicExchange, contracts.RideStatusPrefix + "*"},
		{contracts.JobEventsQueue, contracts.JobTopicExchange, contracts.JobStatusPrefix + "*"},
		{contracts.JobEventsQueue, contracts.JobTopicExchange, contracts.OfferPrefix + "*"},
		{contracts.AdminEventsQueue, contracts.AdminFanoutExchange, ""},
	}
	for _, b := range bindings {
		if err := ch.QueueBind(b.queue, b.routingKey, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

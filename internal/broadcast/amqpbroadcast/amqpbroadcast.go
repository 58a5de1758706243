package amqpbroadcast

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"auctionhouse/internal/broadcast"
)

const exchange = "auction.events"

// Publisher implements broadcast.Broadcaster over a RabbitMQ topic exchange.
// Routing keys: auction.<id>.bid and auction.<id>.closed, so downstream
// consumers (notification, payment) can bind per auction or per event kind.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

var _ broadcast.Broadcaster = (*Publisher)(nil)

func New(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, channel: ch}, nil
}

func (p *Publisher) Close() error { return p.channel.Close() }

func (p *Publisher) PublishBid(ctx context.Context, auctionID string, ev broadcast.AcceptedBid) error {
	return p.publish(ctx, "auction."+auctionID+".bid", ev)
}

func (p *Publisher) PublishClosed(ctx context.Context, auctionID string, ev broadcast.AuctionClosed) error {
	return p.publish(ctx, "auction."+auctionID+".closed", ev)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        payload,
		},
	)
}

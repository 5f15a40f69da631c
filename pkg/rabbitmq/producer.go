package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes JSON messages to one exchange, declaring it on first use.
type Publisher struct {
	conn     *Connection
	exchange string
	opts     ExchangeOptions

	mu       sync.Mutex
	declared bool
}

func NewPublisher(conn *Connection, exchange string, opts ExchangeOptions) *Publisher {
	if opts.Kind == "" {
		opts.Kind = amqp.ExchangeTopic
	}
	return &Publisher{conn: conn, exchange: exchange, opts: opts}
}

// PublishJSON marshals payload and publishes it under routingKey. It reconnects
// once when the channel has been closed by the broker.
func (p *Publisher) PublishJSON(ctx context.Context, routingKey string, payload interface{}, options *PublishOptions) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if options == nil {
		o := DefaultPublishOptions()
		options = &o
	}

	channel, err := p.channel()
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Transient,
		Priority:     options.Priority,
		Headers:      options.Headers,
		MessageId:    options.MessageID,
		Expiration:   options.Expiration,
		Timestamp:    time.Now(),
	}
	if options.Persistent {
		msg.DeliveryMode = amqp.Persistent
	}

	if err := channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish to exchange %s: %w", p.exchange, err)
	}
	return nil
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	channel, err := p.conn.Channel()
	if err != nil {
		if cerr := p.conn.Connect(); cerr != nil {
			return nil, cerr
		}
		p.declared = false
		if channel, err = p.conn.Channel(); err != nil {
			return nil, err
		}
	}
	if !p.declared {
		o := p.opts
		if err := channel.ExchangeDeclare(p.exchange, o.Kind, o.Durable, o.AutoDelete, o.Internal, o.NoWait, o.Args); err != nil {
			return nil, fmt.Errorf("declare exchange %s: %w", p.exchange, err)
		}
		p.declared = true
	}
	return channel, nil
}

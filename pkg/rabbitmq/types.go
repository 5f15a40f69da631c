package rabbitmq

import amqp "github.com/rabbitmq/amqp091-go"

// Config holds RabbitMQ connection configuration
type Config struct {
	URL      string
	Prefetch int
}

// ExchangeOptions represents exchange declaration options
type ExchangeOptions struct {
	Kind       string
	Durable    bool
	AutoDelete bool
	Internal   bool
	NoWait     bool
	Args       amqp.Table
}

// DefaultExchangeOptions returns a durable topic exchange
func DefaultExchangeOptions() ExchangeOptions {
	return ExchangeOptions{
		Kind:    amqp.ExchangeTopic,
		Durable: true,
	}
}

// PublishOptions represents message publishing options
type PublishOptions struct {
	Persistent bool
	Priority   uint8
	Expiration string
	Headers    amqp.Table
	MessageID  string
}

// DefaultPublishOptions returns default publish options
func DefaultPublishOptions() PublishOptions {
	return PublishOptions{Persistent: true}
}

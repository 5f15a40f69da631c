package rabbitmq

import (
	"errors"
	"fmt"
	"net/url"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/MiguelT18/trading-bot/pkg/logger"
)

// ErrNotConnected is returned when no channel is open.
var ErrNotConnected = errors.New("rabbitmq: channel not initialized, call Connect first")

// Connection manages RabbitMQ connection and channel
type Connection struct {
	config  Config
	log     *logger.Logger
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.RWMutex
	closed  bool
}

// NewConnection creates a new RabbitMQ connection instance
func NewConnection(config Config, log *logger.Logger) *Connection {
	if log == nil {
		log = logger.NewNop()
	}
	return &Connection{
		config: config,
		log:    log.With(logger.String("component", "rabbitmq")),
	}
}

// Connect establishes connection to RabbitMQ and creates a channel
func (c *Connection) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && c.channel != nil && !c.conn.IsClosed() {
		return nil
	}

	c.log.Info("connecting to rabbitmq", logger.String("url", MaskURL(c.config.URL)))

	conn, err := amqp.Dial(c.config.URL)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if c.config.Prefetch > 0 {
		if err := channel.Qos(c.config.Prefetch, 0, false); err != nil {
			_ = channel.Close()
			_ = conn.Close()
			return fmt.Errorf("set qos: %w", err)
		}
	}

	c.conn = conn
	c.channel = channel
	c.closed = false
	c.watch(conn, channel)

	c.log.Info("rabbitmq connected")
	return nil
}

func (c *Connection) watch(conn *amqp.Connection, channel *amqp.Channel) {
	go func() {
		if closeErr := <-conn.NotifyClose(make(chan *amqp.Error, 1)); closeErr != nil {
			c.log.Error("rabbitmq connection error", logger.Error(closeErr))
		}
	}()
	go func() {
		if closeErr := <-channel.NotifyClose(make(chan *amqp.Error, 1)); closeErr != nil {
			c.log.Error("rabbitmq channel error", logger.Error(closeErr))
		}
	}()
}

// Channel returns the active channel
func (c *Connection) Channel() (*amqp.Channel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.channel == nil || c.channel.IsClosed() {
		return nil, ErrNotConnected
	}
	return c.channel, nil
}

// IsConnected checks if the connection and channel are active
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && c.channel != nil && !c.closed && !c.conn.IsClosed()
}

// Close closes the channel and connection
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
		c.channel = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
		c.conn = nil
	}
	c.closed = true

	c.log.Info("rabbitmq connection closed")
	return errors.Join(errs...)
}

// MaskURL hides the password of an amqp URL for logging.
func MaskURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url"
	}

	if parsed.User != nil {
		if _, hasPassword := parsed.User.Password(); hasPassword {
			parsed.User = url.UserPassword(parsed.User.Username(), "***")
		}
	}
	return parsed.String()
}

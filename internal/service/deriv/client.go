// Package deriv implements a PriceFeed over the Deriv websocket API.
package deriv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
	drepo "github.com/MiguelT18/trading-bot/internal/domain/repository"
	"github.com/MiguelT18/trading-bot/pkg/logger"
)

const DefaultURL = "wss://ws.derivws.com/websockets/v3"

var (
	ErrNotConnected   = errors.New("deriv: not connected")
	ErrRequestTimeout = errors.New("deriv: request timed out")
	ErrConnectionLost = errors.New("deriv: connection lost")
	ErrNoCandles      = errors.New("deriv: empty candles response")
	ErrClosed         = errors.New("deriv: client closed")
)

// APIError is an error object returned by the Deriv API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("deriv api: %s: %s", e.Code, e.Message) }

type Option func(*Client)

func WithURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.websocketURL = u
		}
	}
}

func WithAppID(id string) Option { return func(c *Client) { c.appID = id } }

// WithAPIToken stores the account token. Requests are unauthenticated; the
// token is kept for parity with the configuration.
func WithAPIToken(token string) Option { return func(c *Client) { c.apiToken = token } }

func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) { c.reconnectDelay = d }
}

// WithPingInterval sets the keepalive period; zero disables pings.
func WithPingInterval(d time.Duration) Option {
	return func(c *Client) { c.pingInterval = d }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// Client is a request/response client: every request carries a req_id and
// the read loop routes each reply to the waiting caller.
type Client struct {
	websocketURL   string
	appID          string
	apiToken       string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	requestTimeout time.Duration
	dialer         *websocket.Dialer
	log            *logger.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	pending  map[int64]chan reply
	stopPing chan struct{}
	lastDial time.Time
	closed   bool

	writeMu   sync.Mutex
	nextID    atomic.Int64
	connected atomic.Bool
}

type reply struct {
	env envelope
	err error
}

type envelope struct {
	ReqID   int64     `json:"req_id"`
	MsgType string    `json:"msg_type"`
	Error   *APIError `json:"error,omitempty"`
	Candles []candle  `json:"candles,omitempty"`
}

type candle struct {
	Epoch int64   `json:"epoch"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

type candlesRequest struct {
	TicksHistory    string `json:"ticks_history"`
	End             string `json:"end"`
	Start           int    `json:"start"`
	Style           string `json:"style"`
	AdjustStartTime int    `json:"adjust_start_time"`
	Count           int    `json:"count"`
	ReqID           int64  `json:"req_id"`
}

type pingRequest struct {
	Ping  int   `json:"ping"`
	ReqID int64 `json:"req_id"`
}

// New creates a Deriv client. Connect is lazy: the first fetch dials.
func New(opts ...Option) *Client {
	c := &Client{
		websocketURL:   DefaultURL,
		reconnectDelay: 2 * time.Second,
		pingInterval:   30 * time.Second,
		requestTimeout: 5 * time.Second,
		dialer:         websocket.DefaultDialer,
		log:            logger.NewNop(),
		pending:        make(map[int64]chan reply),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.String("component", "deriv"))
	return c
}

// Endpoint returns the websocket URL including the app_id query.
func (c *Client) Endpoint() (string, error) {
	u, err := url.Parse(c.websocketURL)
	if err != nil {
		return "", fmt.Errorf("deriv url: %w", err)
	}
	if c.appID != "" {
		q := u.Query()
		q.Set("app_id", c.appID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialLocked(ctx)
}

func (c *Client) dialLocked(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	if c.conn != nil {
		return nil
	}
	endpoint, err := c.Endpoint()
	if err != nil {
		return err
	}

	c.lastDial = time.Now()
	conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("deriv connect: %w", err)
	}
	c.conn = conn
	c.stopPing = make(chan struct{})
	c.connected.Store(true)

	go c.readLoop(conn)
	if c.pingInterval > 0 {
		go c.pingLoop(conn, c.stopPing)
	}
	c.log.Info("connected", logger.String("url", c.websocketURL))
	return nil
}

// ensureConnected redials a dropped connection, at most once per reconnect delay.
func (c *Client) ensureConnected(ctx context.Context) error {
	if c.connected.Load() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}
	if c.closed {
		return ErrClosed
	}
	if !c.lastDial.IsZero() && time.Since(c.lastDial) < c.reconnectDelay {
		return ErrNotConnected
	}
	if err := c.dialLocked(ctx); err != nil {
		return errors.Join(ErrNotConnected, err)
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			c.drop(conn, err)
			return
		}
		var env envelope
		if err := json.Unmarshal(b, &env); err != nil {
			c.log.Debug("ignoring undecodable frame", logger.Error(err))
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[env.ReqID]
		delete(c.pending, env.ReqID)
		c.mu.Unlock()
		if !ok {
			// pong or a reply whose caller already gave up
			continue
		}
		ch <- reply{env: env}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := c.write(conn, pingRequest{Ping: 1, ReqID: c.nextID.Add(1)}); err != nil {
				c.log.Warn("ping failed", logger.Error(err))
				return
			}
		}
	}
}

// drop forgets conn and fails every request waiting on it.
func (c *Client) drop(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.connected.Store(false)
	close(c.stopPing)
	pending := c.pending
	c.pending = make(map[int64]chan reply)
	closed := c.closed
	c.mu.Unlock()

	_ = conn.Close()
	for _, ch := range pending {
		ch <- reply{err: fmt.Errorf("%w: %v", ErrConnectionLost, cause)}
	}
	if !closed {
		c.log.Warn("connection lost", logger.Error(cause), logger.Int("failed_requests", len(pending)))
	}
}

func (c *Client) write(conn *websocket.Conn, v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(v)
}

// call sends a request built for reqID and waits for the matching reply.
func (c *Client) call(ctx context.Context, build func(reqID int64) interface{}) (envelope, error) {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return envelope{}, ErrNotConnected
	}
	id := c.nextID.Add(1)
	ch := make(chan reply, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	forget := func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}

	if err := c.write(conn, build(id)); err != nil {
		forget()
		c.drop(conn, err)
		return envelope{}, fmt.Errorf("deriv write: %w", err)
	}

	timer := time.NewTimer(c.requestTimeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.env, r.err
	case <-timer.C:
		forget()
		return envelope{}, ErrRequestTimeout
	case <-ctx.Done():
		forget()
		return envelope{}, ctx.Err()
	}
}

// FetchLatestPrice requests the latest candle of instrument and returns its close.
func (c *Client) FetchLatestPrice(ctx context.Context, instrument string) (models.PriceSample, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return models.PriceSample{}, err
	}
	env, err := c.call(ctx, func(id int64) interface{} {
		return candlesRequest{
			TicksHistory:    instrument,
			End:             "latest",
			Start:           1,
			Style:           "candles",
			AdjustStartTime: 1,
			Count:           1,
			ReqID:           id,
		}
	})
	if err != nil {
		return models.PriceSample{}, err
	}
	if env.Error != nil {
		return models.PriceSample{}, env.Error
	}
	if len(env.Candles) == 0 {
		return models.PriceSample{}, ErrNoCandles
	}

	cd := env.Candles[0]
	ts := time.Now()
	if cd.Epoch > 0 {
		ts = time.Unix(cd.Epoch, 0)
	}
	return models.PriceSample{Instrument: instrument, Price: cd.Close, Time: ts}, nil
}

// Close closes the WS connection. The client cannot be reused afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	// the read loop observes the close and fails pending requests
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return conn.Close()
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected.Load() }

var _ drepo.ConnectedFeed = (*Client)(nil)

package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
	"github.com/MiguelT18/trading-bot/pkg/logger"
	"github.com/MiguelT18/trading-bot/pkg/rabbitmq"
)

var sampleIntent = models.TradeIntent{
	ID:         "3f1c",
	Instrument: "frxEURUSD",
	Direction:  models.DirectionBuy,
	Size:       2,
	Price:      1.0842,
	Time:       time.Unix(1_700_000_000, 0).UTC(),
}

func TestLogIntentSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogIntentSink(logger.NewWriter(&buf, "info"))

	require.NoError(t, sink.Emit(context.Background(), sampleIntent))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "signal emitted", line["message"])
	assert.Equal(t, "buy", line["signal"])
	assert.Equal(t, 2.0, line["trade_size"])
	assert.Equal(t, "3f1c", line["intent_id"])
}

type topicPublisher struct {
	topic string
	key   []byte
	value interface{}
	err   error
}

func (p *topicPublisher) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.topic, p.key, p.value = topic, key, value
	return p.err
}

func (p *topicPublisher) Close() error { return nil }

func TestKafkaIntentPublisher(t *testing.T) {
	pub := &topicPublisher{}
	sink := NewKafkaIntentPublisher(pub, "trade-intents")

	require.NoError(t, sink.Emit(context.Background(), sampleIntent))
	assert.Equal(t, "trade-intents", pub.topic)
	assert.Equal(t, []byte("frxEURUSD"), pub.key)
	assert.Equal(t, sampleIntent, pub.value)
}

type fakeCache struct {
	published map[string][]byte
	stored    map[string][]byte
	ttl       time.Duration
	failSet   bool
	closed    bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{published: map[string][]byte{}, stored: map[string][]byte{}}
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.failSet {
		return errors.New("readonly replica")
	}
	b, _ := json.Marshal(value)
	c.stored[key] = b
	c.ttl = ttl
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	return json.Unmarshal(c.stored[key], dest)
}

func (c *fakeCache) Delete(context.Context, ...string) error { return nil }

func (c *fakeCache) Publish(_ context.Context, channel string, msg interface{}) error {
	b, _ := json.Marshal(msg)
	c.published[channel] = b
	return nil
}

func (c *fakeCache) Ping(context.Context) error { return nil }

func (c *fakeCache) Close() error {
	c.closed = true
	return nil
}

func TestRedisIntentPublisher(t *testing.T) {
	c := newFakeCache()
	sink := NewRedisIntentPublisher(c, "signals.intents", time.Hour)

	require.NoError(t, sink.Emit(context.Background(), sampleIntent))
	require.Contains(t, c.published, "signals.intents.frxEURUSD")

	var got models.TradeIntent
	require.NoError(t, c.Get(context.Background(), LastIntentKey("frxEURUSD"), &got))
	assert.Equal(t, sampleIntent, got)
	assert.Equal(t, time.Hour, c.ttl)
	assert.Equal(t, "last_intent:frxEURUSD", LastIntentKey("frxEURUSD"))

	c.failSet = true
	assert.ErrorContains(t, sink.Emit(context.Background(), sampleIntent), "last intent")

	require.NoError(t, sink.Close())
	assert.True(t, c.closed)
}

type exchangePublisher struct {
	key  string
	opts *rabbitmq.PublishOptions
}

func (p *exchangePublisher) PublishJSON(_ context.Context, key string, _ interface{}, opts *rabbitmq.PublishOptions) error {
	p.key, p.opts = key, opts
	return nil
}

func TestRabbitIntentPublisher(t *testing.T) {
	pub := &exchangePublisher{}
	closed := false
	sink := NewRabbitIntentPublisher(pub, "trade.intent", func() error {
		closed = true
		return nil
	})

	require.NoError(t, sink.Emit(context.Background(), sampleIntent))
	assert.Equal(t, "trade.intent.frxEURUSD", pub.key)
	require.NotNil(t, pub.opts)
	assert.True(t, pub.opts.Persistent)
	assert.Equal(t, "3f1c", pub.opts.MessageID)

	require.NoError(t, sink.Close())
	assert.True(t, closed)
}

func TestMultiSinkAttemptsEverySink(t *testing.T) {
	boom := errors.New("broker down")
	failing := NewKafkaIntentPublisher(&topicPublisher{err: boom}, "t")
	ok := &topicPublisher{}
	m := NewMultiSink(failing, nil, NewKafkaIntentPublisher(ok, "t2"))

	assert.Equal(t, 2, m.Len())
	err := m.Emit(context.Background(), sampleIntent)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "t2", ok.topic)
	assert.NoError(t, m.Close())
}

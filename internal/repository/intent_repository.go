package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
	"github.com/MiguelT18/trading-bot/internal/domain/repository"
	pkgcache "github.com/MiguelT18/trading-bot/pkg/cache"
	"github.com/MiguelT18/trading-bot/pkg/logger"
	"github.com/MiguelT18/trading-bot/pkg/rabbitmq"
)

// LogIntentSink writes every intent as a structured log line.
type LogIntentSink struct {
	log *logger.Logger
}

func NewLogIntentSink(log *logger.Logger) repository.IntentSink {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogIntentSink{log: log}
}

func (s *LogIntentSink) Emit(_ context.Context, in models.TradeIntent) error {
	s.log.Info("signal emitted",
		logger.String("signal", string(in.Direction)),
		logger.Float64("trade_size", in.Size),
		logger.String("instrument", in.Instrument),
		logger.Float64("price", in.Price),
		logger.String("intent_id", in.ID))
	return nil
}

func (s *LogIntentSink) Close() error { return nil }

// TopicPublisher is the part of pkg/kafka.Producer the Kafka sink needs.
type TopicPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaIntentPublisher publishes intents keyed by instrument.
type KafkaIntentPublisher struct {
	producer TopicPublisher
	topic    string
}

// NewKafkaIntentPublisher creates Kafka publisher.
func NewKafkaIntentPublisher(producer TopicPublisher, topic string) repository.IntentSink {
	return &KafkaIntentPublisher{producer: producer, topic: topic}
}

func (p *KafkaIntentPublisher) Emit(ctx context.Context, in models.TradeIntent) error {
	return p.producer.Publish(ctx, p.topic, []byte(in.Instrument), in)
}

func (p *KafkaIntentPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// RedisIntentPublisher publishes intents on "<prefix>.<instrument>" and keeps
// the last one under "last_intent:<instrument>".
type RedisIntentPublisher struct {
	cache  pkgcache.Service
	prefix string
	ttl    time.Duration
}

func NewRedisIntentPublisher(cache pkgcache.Service, channelPrefix string, ttl time.Duration) repository.IntentSink {
	return &RedisIntentPublisher{cache: cache, prefix: channelPrefix, ttl: ttl}
}

// Channel returns the pub/sub channel for an instrument.
func (p *RedisIntentPublisher) Channel(instrument string) string {
	return p.prefix + "." + instrument
}

func (p *RedisIntentPublisher) Emit(ctx context.Context, in models.TradeIntent) error {
	if err := p.cache.Publish(ctx, p.Channel(in.Instrument), in); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	if err := p.cache.Set(ctx, LastIntentKey(in.Instrument), in, p.ttl); err != nil {
		return fmt.Errorf("redis set last intent: %w", err)
	}
	return nil
}

func (p *RedisIntentPublisher) Close() error { return p.cache.Close() }

// LastIntentKey is the cache key holding the newest intent of an instrument.
func LastIntentKey(instrument string) string {
	return pkgcache.GenerateKey("last_intent", instrument)
}

// ExchangePublisher is the part of pkg/rabbitmq.Publisher the sink needs.
type ExchangePublisher interface {
	PublishJSON(ctx context.Context, routingKey string, payload interface{}, options *rabbitmq.PublishOptions) error
}

// RabbitIntentPublisher publishes persistent intents under
// "<routingKey>.<instrument>".
type RabbitIntentPublisher struct {
	pub        ExchangePublisher
	closer     func() error
	routingKey string
}

func NewRabbitIntentPublisher(pub ExchangePublisher, routingKey string, closer func() error) repository.IntentSink {
	return &RabbitIntentPublisher{pub: pub, routingKey: routingKey, closer: closer}
}

func (p *RabbitIntentPublisher) Emit(ctx context.Context, in models.TradeIntent) error {
	opts := rabbitmq.DefaultPublishOptions()
	opts.MessageID = in.ID
	return p.pub.PublishJSON(ctx, p.routingKey+"."+in.Instrument, in, &opts)
}

func (p *RabbitIntentPublisher) Close() error {
	if p.closer != nil {
		return p.closer()
	}
	return nil
}

// MultiSink fans an intent out to every sink. All sinks are attempted and
// their errors joined.
type MultiSink struct {
	sinks []repository.IntentSink
}

func NewMultiSink(sinks ...repository.IntentSink) *MultiSink {
	out := make([]repository.IntentSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &MultiSink{sinks: out}
}

func (m *MultiSink) Emit(ctx context.Context, in models.TradeIntent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Emit(ctx, in); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len reports how many sinks are attached.
func (m *MultiSink) Len() int { return len(m.sinks) }

var (
	_ repository.IntentSink = (*LogIntentSink)(nil)
	_ repository.IntentSink = (*KafkaIntentPublisher)(nil)
	_ repository.IntentSink = (*RedisIntentPublisher)(nil)
	_ repository.IntentSink = (*RabbitIntentPublisher)(nil)
	_ repository.IntentSink = (*MultiSink)(nil)
)

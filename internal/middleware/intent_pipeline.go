package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
	domrepo "github.com/MiguelT18/trading-bot/internal/domain/repository"
	"github.com/MiguelT18/trading-bot/pkg/logger"
)

// ErrBuffered is wrapped by Emit when downstream failed and the intent was
// queued for a background retry.
var ErrBuffered = errors.New("intent buffered for retry")

// IntentPipeline sits between the trading loop and the intent sinks.
// It validates intents, forwards them, and buffers when downstream is unavailable.
type IntentPipeline struct {
	sink       domrepo.IntentSink
	metrics    domrepo.Metrics
	log        *logger.Logger
	bufSize    int
	backoffMin time.Duration
	backoffMax time.Duration
	bufCh      chan models.TradeIntent
	stopCh     chan struct{}
	doneCh     chan struct{}
	started    bool
	mu         sync.Mutex
}

type PipelineOption func(*IntentPipeline)

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *IntentPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBackoff sets the retry backoff range of the flusher.
func WithBackoff(min, max time.Duration) PipelineOption {
	return func(p *IntentPipeline) {
		if min > 0 {
			p.backoffMin = min
		}
		if max >= p.backoffMin {
			p.backoffMax = max
		}
	}
}

func WithPipelineLogger(l *logger.Logger) PipelineOption {
	return func(p *IntentPipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// NewIntentPipeline creates a new pipeline.
func NewIntentPipeline(sink domrepo.IntentSink, metrics domrepo.Metrics, opts ...PipelineOption) *IntentPipeline {
	p := &IntentPipeline{
		sink:       sink,
		metrics:    metrics,
		log:        logger.NewNop(),
		bufSize:    256,
		backoffMin: 50 * time.Millisecond,
		backoffMax: 2 * time.Second,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan models.TradeIntent, p.bufSize)
	p.log = p.log.With(logger.String("component", "intent_pipeline"))
	return p
}

// Start launches background flushing of buffered intents.
func (p *IntentPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.flush(ctx)
}

func (p *IntentPipeline) flush(ctx context.Context) {
	defer close(p.doneCh)
	backoff := p.backoffMin
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case in := <-p.bufCh:
			if err := p.sink.Emit(ctx, in); err != nil {
				p.metrics.RecordError("pipeline_flush")
				// exponential backoff with cap
				if backoff < p.backoffMax {
					backoff *= 2
					if backoff > p.backoffMax {
						backoff = p.backoffMax
					}
				}
				// requeue if space; drop otherwise
				select {
				case p.bufCh <- in:
				default:
					p.metrics.RecordError("pipeline_buffer_drop")
					p.log.Error("dropping trade intent", logger.String("intent_id", in.ID), logger.Error(err))
				}
				select {
				case <-time.After(backoff):
				case <-p.stopCh:
					return
				case <-ctx.Done():
					return
				}
				continue
			}
			backoff = p.backoffMin
			p.log.Debug("buffered intent delivered", logger.String("intent_id", in.ID))
		}
	}
}

// Stop stops the flusher and reports how many intents were left undelivered.
func (p *IntentPipeline) Stop() int {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return len(p.bufCh)
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	<-p.doneCh

	left := len(p.bufCh)
	if left > 0 {
		p.log.Warn("undelivered trade intents on shutdown", logger.Int("count", left))
	}
	return left
}

// Emit validates and forwards in, buffering on downstream errors.
func (p *IntentPipeline) Emit(ctx context.Context, in models.TradeIntent) error {
	start := time.Now()
	if err := validateIntent(in); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}

	if err := p.sink.Emit(ctx, in); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- in:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
			return fmt.Errorf("pipeline downstream (buffer full): %w", err)
		}
		return fmt.Errorf("%w: %v", ErrBuffered, err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// Pending reports intents waiting for a retry.
func (p *IntentPipeline) Pending() int { return len(p.bufCh) }

// Close stops the flusher and closes the downstream sink.
func (p *IntentPipeline) Close() error {
	p.Stop()
	return p.sink.Close()
}

func validateIntent(in models.TradeIntent) error {
	if in.ID == "" {
		return fmt.Errorf("intent id empty")
	}
	if in.Instrument == "" {
		return fmt.Errorf("instrument empty")
	}
	if in.Direction != models.DirectionBuy && in.Direction != models.DirectionSell {
		return fmt.Errorf("invalid direction %q", in.Direction)
	}
	if in.Size <= 0 {
		return fmt.Errorf("non-positive size")
	}
	return nil
}

var _ domrepo.IntentSink = (*IntentPipeline)(nil)

// PipelineGroup manages one pipeline per downstream sink so a failing sink
// retries alone.
type PipelineGroup []*IntentPipeline

// Start starts every pipeline.
func (g PipelineGroup) Start(ctx context.Context) {
	for _, p := range g {
		p.Start(ctx)
	}
}

// Pending sums intents waiting across pipelines.
func (g PipelineGroup) Pending() int {
	n := 0
	for _, p := range g {
		n += p.Pending()
	}
	return n
}

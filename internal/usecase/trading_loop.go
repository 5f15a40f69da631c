package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
	domrepo "github.com/MiguelT18/trading-bot/internal/domain/repository"
	domsvc "github.com/MiguelT18/trading-bot/internal/domain/service"
	"github.com/MiguelT18/trading-bot/internal/services/consensus"
	"github.com/MiguelT18/trading-bot/internal/services/sizing"
	"github.com/MiguelT18/trading-bot/internal/services/strategy"
	"github.com/MiguelT18/trading-bot/internal/services/window"
	"github.com/MiguelT18/trading-bot/pkg/config"
	"github.com/MiguelT18/trading-bot/pkg/logger"
	"github.com/MiguelT18/trading-bot/pkg/metrics"
)

// ErrAlreadyStarted is returned by Start on a running loop.
var ErrAlreadyStarted = errors.New("trading loop already started")

// LoopOption configures TradingLoop.
type LoopOption func(*TradingLoop)

// WithSink sets where trade intents are emitted.
func WithSink(s domrepo.IntentSink) LoopOption {
	return func(l *TradingLoop) { l.sink = s }
}

func WithJournal(j *Journal) LoopOption {
	return func(l *TradingLoop) { l.journal = j }
}

func WithMetrics(m domrepo.Metrics) LoopOption {
	return func(l *TradingLoop) {
		if m != nil {
			l.metrics = m
		}
	}
}

func WithLogger(log *logger.Logger) LoopOption {
	return func(l *TradingLoop) {
		if log != nil {
			l.log = log
		}
	}
}

// WithFetchTimeout caps a single fetch; the tick interval is an upper bound.
func WithFetchTimeout(d time.Duration) LoopOption {
	return func(l *TradingLoop) {
		if d > 0 {
			l.fetchTimeout = d
		}
	}
}

// WithClock overrides time.Now for evaluation timestamps.
func WithClock(now func() time.Time) LoopOption {
	return func(l *TradingLoop) { l.now = now }
}

// WithIDGenerator overrides the intent id source.
func WithIDGenerator(gen func() string) LoopOption {
	return func(l *TradingLoop) { l.newID = gen }
}

// TradingLoop drives the evaluation cycle of one instrument:
// fetch, push, levels, evaluate, decide, then emit or do nothing.
type TradingLoop struct {
	instrument   string
	interval     time.Duration
	fetchTimeout time.Duration

	feed       domrepo.PriceFeed
	sink       domrepo.IntentSink
	window     *window.PriceWindow
	strategies []domsvc.Strategy
	sizer      domsvc.Sizer
	journal    *Journal
	metrics    domrepo.Metrics
	log        *logger.Logger
	now        func() time.Time
	newID      func() string

	// mu serializes window mutation between Tick and direct OnPrice calls.
	mu  sync.Mutex
	seq uint64

	busy        atomic.Bool
	running     atomic.Bool
	ticks       atomic.Uint64
	skipped     atomic.Uint64
	fetchErrors atomic.Uint64
	decisions   atomic.Uint64

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewTradingLoop validates the trading configuration and assembles the
// window, strategies and sizer. It refuses degenerate setups.
func NewTradingLoop(cfg config.Trading, feed domrepo.PriceFeed, opts ...LoopOption) (*TradingLoop, error) {
	if feed == nil {
		return nil, fmt.Errorf("trading loop: price feed is required")
	}
	if cfg.Instrument == "" {
		return nil, fmt.Errorf("trading loop: instrument is required")
	}
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("trading loop: tick interval must be positive, got %s", cfg.TickInterval)
	}
	if len(cfg.Strategies) == 0 {
		return nil, fmt.Errorf("trading loop: strategies array is undefined or empty")
	}

	w, err := window.New(cfg.ShortWindow, cfg.LongWindow)
	if err != nil {
		return nil, fmt.Errorf("trading loop: %w", err)
	}
	ss, err := strategy.Build(cfg.Strategies, strategy.Params{RSIPeriod: cfg.RSIPeriod})
	if err != nil {
		return nil, fmt.Errorf("trading loop: %w", err)
	}
	sz, err := sizing.NewFixedFraction(cfg.Balance, cfg.RiskFraction)
	if err != nil {
		return nil, fmt.Errorf("trading loop: %w", err)
	}

	l := &TradingLoop{
		instrument:   cfg.Instrument,
		interval:     cfg.TickInterval,
		fetchTimeout: cfg.TickInterval,
		feed:         feed,
		window:       w,
		strategies:   ss,
		sizer:        sz,
		metrics:      metrics.Nop{},
		log:          logger.NewNop(),
		now:          time.Now,
		newID:        func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.fetchTimeout > l.interval {
		l.fetchTimeout = l.interval
	}
	l.log = l.log.With(logger.String("component", "trading_loop"), logger.String("instrument", l.instrument))

	for _, s := range ss {
		if r, ok := s.(strategy.RSI); ok && r.Period > w.ShortCap() {
			l.log.Warn("rsi period exceeds short window capacity; rsi will never emit a signal",
				logger.Int("rsi_period", r.Period),
				logger.Int("short_window", w.ShortCap()))
		}
	}
	return l, nil
}

// Start launches the ticker. The first tick fires after one interval.
func (l *TradingLoop) Start(ctx context.Context) error {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()
	if l.cancel != nil {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	l.running.Store(true)

	names := make([]string, len(l.strategies))
	for i, s := range l.strategies {
		names[i] = s.Name()
	}
	l.log.Info("trading loop started",
		logger.Duration("interval", l.interval),
		logger.Strings("strategies", names),
		logger.Float64("trade_size", l.sizer.Size()))

	go l.run(runCtx)
	return nil
}

func (l *TradingLoop) run(ctx context.Context) {
	defer close(l.done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !l.busy.CompareAndSwap(false, true) {
				l.skipped.Add(1)
				l.metrics.RecordTick(l.instrument, domrepo.TickSkippedBusy)
				l.log.Debug("previous tick still running, skipping")
				continue
			}
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				defer l.busy.Store(false)
				l.tick(ctx)
			}()
		}
	}
}

// Stop cancels any pending fetch, stops further ticks and waits for the
// in-flight one to return.
func (l *TradingLoop) Stop(ctx context.Context) error {
	l.lifecycle.Lock()
	cancel, done := l.cancel, l.done
	l.cancel = nil
	l.lifecycle.Unlock()
	if cancel == nil {
		return nil
	}

	cancel()
	defer l.running.Store(false)
	select {
	case <-done:
		l.log.Info("trading loop stopped", logger.Int64("ticks", int64(l.ticks.Load())))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop trading loop: %w", ctx.Err())
	}
}

// Tick runs one cycle synchronously. It reports false when the loop was
// already busy with another tick.
func (l *TradingLoop) Tick(ctx context.Context) bool {
	if !l.busy.CompareAndSwap(false, true) {
		l.skipped.Add(1)
		l.metrics.RecordTick(l.instrument, domrepo.TickSkippedBusy)
		return false
	}
	defer l.busy.Store(false)
	l.tick(ctx)
	return true
}

func (l *TradingLoop) tick(ctx context.Context) {
	l.ticks.Add(1)

	fctx, cancel := context.WithTimeout(ctx, l.fetchTimeout)
	start := time.Now()
	sample, err := l.feed.FetchLatestPrice(fctx, l.instrument)
	cancel()
	l.metrics.RecordLatency("fetch", time.Since(start).Seconds())

	switch {
	case errors.Is(err, domrepo.ErrNoFreshPrice):
		l.metrics.RecordTick(l.instrument, domrepo.TickNoSample)
		return
	case err != nil:
		if ctx.Err() != nil {
			// shutting down
			return
		}
		l.fetchErrors.Add(1)
		l.metrics.RecordTick(l.instrument, domrepo.TickFetchError)
		l.metrics.RecordError("feed")
		l.log.Warn("fetch latest price failed", logger.Error(err))
		return
	}

	l.OnPrice(ctx, sample)
	l.metrics.RecordTick(l.instrument, domrepo.TickEvaluated)
}

// OnPrice runs the post-fetch half of a tick for one sample and returns the
// evaluation together with the emitted intent, if any.
func (l *TradingLoop) OnPrice(ctx context.Context, sample models.PriceSample) (models.Evaluation, *models.TradeIntent) {
	if sample.Time.IsZero() {
		sample.Time = l.now()
	}
	if sample.Instrument == "" {
		sample.Instrument = l.instrument
	}

	l.mu.Lock()
	l.window.Push(sample.Price)
	levels := l.window.Levels()
	snap := l.window.Snapshot(levels)
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	start := time.Now()
	results := strategy.EvaluateAll(l.strategies, snap)
	eval := models.Evaluation{
		Seq:        seq,
		Instrument: sample.Instrument,
		Price:      sample.Price,
		Timestamp:  sample.Time,
		Levels:     levels,
		Signals:    results,
	}
	for _, r := range results {
		l.metrics.RecordSignal(r.Strategy, r.Signal)
	}
	l.metrics.RecordLastPrice(sample.Instrument, sample.Price)

	var intent *models.TradeIntent
	if dir, ok := consensus.Decide(eval.Values()); ok {
		size := l.sizer.Size()
		eval.Decision = &models.TradeDecision{Direction: dir, Size: size}
		intent = &models.TradeIntent{
			ID:         l.newID(),
			Instrument: sample.Instrument,
			Direction:  dir,
			Size:       size,
			Price:      sample.Price,
			Time:       sample.Time,
		}
		eval.IntentID = intent.ID
		l.decisions.Add(1)
		l.metrics.RecordDecision(sample.Instrument, dir)
		l.emit(ctx, *intent)
	} else {
		l.log.Debug("no consensus",
			logger.Float64("price", sample.Price),
			logger.Any("signals", results))
	}
	l.metrics.RecordLatency("evaluate", time.Since(start).Seconds())

	if l.journal != nil {
		l.journal.Record(eval)
	}
	return eval, intent
}

func (l *TradingLoop) emit(ctx context.Context, intent models.TradeIntent) {
	if l.sink == nil {
		return
	}
	if err := l.sink.Emit(ctx, intent); err != nil {
		l.metrics.RecordError("sink")
		l.log.Error("emit trade intent failed",
			logger.String("intent_id", intent.ID),
			logger.Error(err))
	}
}

// Status reports counters and the latest evaluation.
func (l *TradingLoop) Status() models.LoopStatus {
	names := make([]string, len(l.strategies))
	for i, s := range l.strategies {
		names[i] = s.Name()
	}

	l.mu.Lock()
	shortLen, longLen := l.window.Len()
	l.mu.Unlock()

	st := models.LoopStatus{
		Instrument:  l.instrument,
		Running:     l.running.Load(),
		Strategies:  names,
		ShortLen:    shortLen,
		LongLen:     longLen,
		ShortCap:    l.window.ShortCap(),
		LongCap:     l.window.LongCap(),
		Ticks:       l.ticks.Load(),
		Skipped:     l.skipped.Load(),
		FetchErrors: l.fetchErrors.Load(),
		Decisions:   l.decisions.Load(),
		TradeSize:   l.sizer.Size(),
	}
	if l.journal != nil {
		if last, ok := l.journal.Last(); ok {
			st.Last = &last
		}
	}
	return st
}

// Instrument returns the traded instrument.
func (l *TradingLoop) Instrument() string { return l.instrument }

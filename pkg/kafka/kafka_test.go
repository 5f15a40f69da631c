package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestProducerPublishEncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	reg := prometheus.NewRegistry()
	p := NewProducerWithWriter(w, WithProducerRegisterer(reg))

	err := p.Publish(context.Background(), "trade-intents", []byte("frxEURUSD"), map[string]any{"size": 2})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), "raw", nil, []byte("x")))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "trade-intents", w.msgs[0].Topic)
	assert.Equal(t, []byte("frxEURUSD"), w.msgs[0].Key)
	assert.JSONEq(t, `{"size":2}`, string(w.msgs[0].Value))
	assert.Equal(t, []byte("x"), w.msgs[1].Value)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.msgs.WithLabelValues("trade-intents", "gzip", "ok")))
}

func TestProducerPublishWrapsError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&fakeWriter{err: boom})

	err := p.Publish(context.Background(), "t", nil, "v")
	assert.ErrorIs(t, err, boom)
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
	_, err = NewConsumer()
	assert.Error(t, err)
}

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type recordingHandler struct {
	topic string
	fail  int
	mu    sync.Mutex
	calls int
	got   [][]byte
}

func (h *recordingHandler) Topic() string { return h.topic }

func (h *recordingHandler) Handle(_ context.Context, b []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.calls <= h.fail {
		return errors.New("transient")
	}
	h.got = append(h.got, b)
	return nil
}

func TestConsumerDeliversRetriesAndCommits(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{Value: []byte("a")}, {Value: []byte("b")}}}
	h := &recordingHandler{topic: "ticks", fail: 1}

	c := NewConsumerWithReaders(func(string) Reader { return r }, WithConsumerRetry(2, time.Millisecond, 2*time.Millisecond))
	c.RegisterHandler(h)
	c.RegisterHandler(&recordingHandler{topic: "ticks"})
	require.NoError(t, c.Start())

	assert.Eventually(t, func() bool { return r.commits() == 2 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, h.got)
	assert.Equal(t, 3, h.calls)
	assert.True(t, r.closed)
}

func TestConsumerStartWithoutHandlers(t *testing.T) {
	c := NewConsumerWithReaders(func(string) Reader { return &fakeReader{} })
	assert.Error(t, c.Start())
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt < 10; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 100*time.Millisecond, attempt)
		assert.LessOrEqual(t, d, 100*time.Millisecond)
		assert.Greater(t, d, time.Duration(0))
	}
}

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &out))
	return out
}

func TestWriterFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "debug")

	l.Info("signal emitted",
		String("signal", "buy"),
		Float64("trade_size", 2),
		Int("ticks", 25),
		Bool("dry_run", true),
		Duration("latency", 1500*time.Millisecond),
		Strings("strategies", []string{"crossing", "rsi"}),
		Error(errors.New("boom")),
	)

	e := lastLine(t, &buf)
	assert.Equal(t, "info", e["level"])
	assert.Equal(t, "signal emitted", e["message"])
	assert.Equal(t, "buy", e["signal"])
	assert.Equal(t, 2.0, e["trade_size"])
	assert.Equal(t, 25.0, e["ticks"])
	assert.Equal(t, true, e["dry_run"])
	assert.Equal(t, 1500.0, e["latency"])
	assert.Equal(t, "crossing, rsi", e["strategies"])
	assert.Equal(t, "boom", e["error"])
}

func TestWithAddsContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "info").With(String("component", "trading_loop"), Error(errors.New("x")))

	l.Warn("slow tick")
	e := lastLine(t, &buf)
	assert.Equal(t, "trading_loop", e["component"])
	assert.Equal(t, "warn", e["level"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn")
	l.Debug("hidden")
	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Error("shown")
	assert.Equal(t, "shown", lastLine(t, &buf)["message"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	require.Error(t, err)
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	l, err := New(&Config{Level: "info", Format: "json", Output: path, MaxSizeMB: 1})
	require.NoError(t, err)

	l.Info("started", String("instrument", "frxEURUSD"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"instrument":"frxEURUSD"`)
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop().With(String("a", "b")).Error("nothing", Error(nil))
	})
}

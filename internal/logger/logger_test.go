package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_JSONEntry(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo, &buf)

	l.Error("fetch failed", Fields{"url": "https://peps.python.org/", "attempt": 1}, errors.New("boom"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "fetch failed", entry["message"])
	assert.Equal(t, "https://peps.python.org/", entry["url"])
	assert.Equal(t, "boom", entry["error"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		log       func(*Logger)
		shouldLog bool
	}{
		{"debug logs at debug", LevelDebug, func(l *Logger) { l.Debug("test", nil) }, true},
		{"info logs at debug", LevelDebug, func(l *Logger) { l.Info("test", nil) }, true},
		{"debug doesn't log at info", LevelInfo, func(l *Logger) { l.Debug("test", nil) }, false},
		{"warn doesn't log at error", LevelError, func(l *Logger) { l.Warn("test", nil) }, false},
		{"error always logs", LevelDebug, func(l *Logger) { l.Error("test", nil, nil) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(New(tt.minLevel, &buf))
			assert.Equal(t, tt.shouldLog, buf.Len() > 0)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_WithAndObserver(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewFromZap(zap.New(core)).With(Fields{"run_id": "abc"})

	l.Info("first", Fields{"pep": "8"})
	l.Warn("second", nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, "second", entries[1].Message)
	assert.Equal(t, "abc", entries[1].ContextMap()["run_id"])
	assert.Equal(t, "8", entries[0].ContextMap()["pep"])
}

func TestOpen_WritesFileAndConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "parser.log")
	var console bytes.Buffer

	l, closeFn, err := Open(Options{Level: LevelInfo, File: path, Console: &console})
	require.NoError(t, err)

	l.Info("parser started", Fields{"mode": "pep"})
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"parser started"`)
	assert.True(t, strings.Contains(console.String(), "parser started"))
}

func TestMetrics_Counter(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("test_counter")
	m.IncrCounter("test_counter")
	m.IncrCounter("test_counter")

	snapshot := m.GetSnapshot()
	counters := snapshot["counters"].(map[string]int64)

	assert.Equal(t, int64(3), counters["test_counter"])
	assert.Equal(t, int64(3), m.Counter("test_counter"))
	assert.Equal(t, int64(0), m.Counter("missing"))
}

func TestMetrics_Gauge(t *testing.T) {
	m := NewMetrics()

	m.SetGauge("items", 12)
	m.SetGauge("items", 40)

	gauges := m.GetSnapshot()["gauges"].(map[string]float64)
	assert.Equal(t, 40.0, gauges["items"])
}

func TestMetrics_Timing(t *testing.T) {
	m := NewMetrics()

	m.RecordTiming("fetch.http", 100*time.Millisecond)
	m.RecordTiming("fetch.http", 200*time.Millisecond)
	m.RecordTiming("fetch.http", 150*time.Millisecond)

	timings := m.GetSnapshot()["timings"].(map[string]map[string]interface{})
	fetchTiming := timings["fetch.http"]

	assert.Equal(t, 3, fetchTiming["count"])
	assert.Equal(t, "100ms", fetchTiming["min"])
	assert.Equal(t, "200ms", fetchTiming["max"])
	assert.Equal(t, "150ms", fetchTiming["average"])
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	prev := Default()
	SetDefault(New(LevelDebug, &buf))
	defer SetDefault(prev)

	Debug("test debug", nil)
	Info("test info", Fields{"key": "value"})
	Warn("test warning", nil)
	Error("test error", Fields{"component": "test"}, errors.New("test"))
	assert.Equal(t, 4, strings.Count(buf.String(), "\n"))

	IncrCounter("test")
	SetGauge("test", 42.0)
	RecordTiming("test", time.Second)
	assert.NotNil(t, GetMetricsSnapshot())
	assert.GreaterOrEqual(t, DefaultMetrics().Counter("test"), int64(1))
}

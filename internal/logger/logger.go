// Package logger writes one JSON object per line and keeps per-run metrics.
//
// Entries go to stderr unless another writer is given, which leaves stdout free
// for the run summary. A run creates its own Metrics and attaches the snapshot
// to its final log line:
//
//	metrics := logger.NewMetrics()
//	metrics.IncrCounter("rows.skipped")
//	logger.Info("Done", logger.Fields{"metrics": metrics.GetSnapshot()})
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a log severity name as it appears in the output
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel accepts a level name in any case, e.g. "debug" or "WARN".
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelRank[level]; !ok {
		return "", fmt.Errorf("unknown log level: %q", s)
	}
	return level, nil
}

// Fields are attached to an entry under "fields"
type Fields map[string]interface{}

// LogEntry is the JSON shape of one output line
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Logger drops entries below its level and serialises writes to out
type Logger struct {
	mu    sync.Mutex
	level Level
	out   io.Writer
}

var std = New(LevelInfo, os.Stderr)

// New creates a Logger writing entries at level or above to out.
func New(level Level, out io.Writer) *Logger {
	return &Logger{level: level, out: out}
}

// SetDefault replaces the logger behind the package-level functions.
func SetDefault(l *Logger) {
	std = l
}

func (l *Logger) enabled(level Level) bool {
	return levelRank[level] >= levelRank[l.level]
}

func (l *Logger) write(level Level, message string, fields Fields, err error) {
	if !l.enabled(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   message,
		Fields:    fields,
	}
	if err != nil {
		entry.Error = err.Error()
	}

	line, jsonErr := json.Marshal(entry)

	l.mu.Lock()
	defer l.mu.Unlock()

	if jsonErr != nil {
		// fields held something json cannot encode; keep the message anyway
		fmt.Fprintf(l.out, "%s %s %s (fields dropped: %v)\n", entry.Timestamp, entry.Level, entry.Message, jsonErr)
		return
	}
	l.out.Write(append(line, '\n'))
}

func (l *Logger) Debug(message string, fields Fields) {
	l.write(LevelDebug, message, fields, nil)
}

func (l *Logger) Info(message string, fields Fields) {
	l.write(LevelInfo, message, fields, nil)
}

// Warn is used for recovered failures: the run goes on with less data.
func (l *Logger) Warn(message string, fields Fields) {
	l.write(LevelWarn, message, fields, nil)
}

func (l *Logger) Error(message string, fields Fields, err error) {
	l.write(LevelError, message, fields, err)
}

func Debug(message string, fields Fields) { std.Debug(message, fields) }

func Info(message string, fields Fields) { std.Info(message, fields) }

func Warn(message string, fields Fields) { std.Warn(message, fields) }

func Error(message string, fields Fields, err error) { std.Error(message, fields, err) }

// Metrics collects counters, gauges and timings for one run. Safe for concurrent use.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string][]time.Duration),
	}
}

func (m *Metrics) IncrCounter(name string) {
	m.AddCounter(name, 1)
}

func (m *Metrics) AddCounter(name string, delta int64) {
	m.mu.Lock()
	m.counters[name] += delta
	m.mu.Unlock()
}

// Counter returns 0 for a counter that was never touched.
func (m *Metrics) Counter(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	m.gauges[name] = value
	m.mu.Unlock()
}

func (m *Metrics) RecordTiming(name string, d time.Duration) {
	m.mu.Lock()
	m.timings[name] = append(m.timings[name], d)
	m.mu.Unlock()
}

// GetSnapshot copies the current values into a map with the keys "counters"
// (map[string]int64), "gauges" (map[string]float64) and "timings"
// (map[string]map[string]interface{} of count, total, average, min and max).
func (m *Metrics) GetSnapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}

	gauges := make(map[string]float64, len(m.gauges))
	for k, v := range m.gauges {
		gauges[k] = v
	}

	timings := make(map[string]map[string]interface{}, len(m.timings))
	for name, samples := range m.timings {
		if len(samples) > 0 {
			timings[name] = summarize(samples)
		}
	}

	return map[string]interface{}{
		"counters": counters,
		"gauges":   gauges,
		"timings":  timings,
	}
}

// summarize requires a non-empty sample slice
func summarize(samples []time.Duration) map[string]interface{} {
	lo, hi := samples[0], samples[0]
	var total time.Duration
	for _, d := range samples {
		total += d
		lo = min(lo, d)
		hi = max(hi, d)
	}

	return map[string]interface{}{
		"count":   len(samples),
		"total":   total.String(),
		"average": (total / time.Duration(len(samples))).String(),
		"min":     lo.String(),
		"max":     hi.String(),
	}
}

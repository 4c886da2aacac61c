package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event is one recorded log line from an execution.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// recorderState is shared between a Recorder and every handler derived from
// it via WithAttrs/WithGroup, so all of them append to one event list.
type recorderState struct {
	mu     sync.Mutex
	events []Event
}

// Recorder is a slog.Handler that accumulates events in memory so callers
// can read back the full trace of a run alongside its boolean outcome.
// Safe for concurrent use; parallel groups log through the same recorder.
type Recorder struct {
	state *recorderState
	level slog.Level
	attrs []slog.Attr
	group string
}

func NewRecorder(level slog.Level) *Recorder {
	return &Recorder{state: &recorderState{}, level: level}
}

// Logger returns a logger writing into the recorder.
func (r *Recorder) Logger() *slog.Logger {
	return slog.New(r)
}

// Events returns a snapshot of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	out := make([]Event, len(r.state.events))
	copy(out, r.state.events)
	return out
}

func (r *Recorder) Enabled(_ context.Context, level slog.Level) bool {
	return level >= r.level
}

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	ev := Event{
		Time:    rec.Time,
		Level:   rec.Level.String(),
		Message: rec.Message,
	}
	attrs := make(map[string]any, rec.NumAttrs()+len(r.attrs))
	for _, a := range r.attrs {
		attrs[r.key(a.Key)] = a.Value.Resolve().Any()
	}
	rec.Attrs(func(a slog.Attr) bool {
		attrs[r.key(a.Key)] = a.Value.Resolve().Any()
		return true
	})
	if len(attrs) > 0 {
		ev.Attrs = attrs
	}

	r.state.mu.Lock()
	r.state.events = append(r.state.events, ev)
	r.state.mu.Unlock()
	return nil
}

func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *r
	clone.attrs = append(append([]slog.Attr{}, r.attrs...), attrs...)
	return &clone
}

func (r *Recorder) WithGroup(name string) slog.Handler {
	clone := *r
	if clone.group != "" {
		clone.group += "."
	}
	clone.group += name
	return &clone
}

func (r *Recorder) key(k string) string {
	if r.group == "" {
		return k
	}
	return r.group + "." + k
}

package callbacks

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

// LoggingHandler writes one structured log record per event start and end.
type LoggingHandler struct {
	*BaseHandler
	logger  *slog.Logger
	verbose bool
}

// LoggingHandlerOption configures a LoggingHandler.
type LoggingHandlerOption func(*LoggingHandler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoggingHandlerOption {
	return func(h *LoggingHandler) {
		h.logger = logger
	}
}

// WithVerbose adds event payloads to log records.
func WithVerbose(verbose bool) LoggingHandlerOption {
	return func(h *LoggingHandler) {
		h.verbose = verbose
	}
}

// WithLoggingIgnoredEvents sets event types that are not logged.
func WithLoggingIgnoredEvents(events ...EventType) LoggingHandlerOption {
	return func(h *LoggingHandler) {
		h.BaseHandler = NewBaseHandler(WithIgnoredEvents(events...))
	}
}

// NewLoggingHandler creates a new LoggingHandler.
func NewLoggingHandler(opts ...LoggingHandlerOption) *LoggingHandler {
	h := &LoggingHandler{
		BaseHandler: NewBaseHandler(),
		logger:      slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// OnEventStart logs the event start.
func (h *LoggingHandler) OnEventStart(event *Event) {
	args := []any{"event", string(event.Type), "id", event.ID, "parent", event.ParentID}
	if h.verbose {
		args = append(args, payloadAttrs(event.StartPayload)...)
	}
	h.logger.Debug("event started", args...)
}

// OnEventEnd logs the event end with its duration. Failed events are logged at error level.
func (h *LoggingHandler) OnEventEnd(event *Event) {
	args := []any{"event", string(event.Type), "id", event.ID, "duration", event.Duration()}
	if h.verbose {
		args = append(args, payloadAttrs(event.EndPayload)...)
	}
	if event.Err != nil {
		h.logger.Error("event failed", append(args, "error", event.Err.Error())...)
		return
	}
	h.logger.Info("event completed", args...)
}

func payloadAttrs(payload map[string]any) []any {
	if len(payload) == 0 {
		return nil
	}
	attrs := make([]any, 0, len(payload))
	for k, v := range payload {
		attrs = append(attrs, slog.Any(k, v))
	}
	return []any{slog.Group("payload", attrs...)}
}

// StatsHandler accumulates durations per event type.
type StatsHandler struct {
	*BaseHandler
	mu     sync.Mutex
	total  map[EventType]time.Duration
	count  map[EventType]int
	errors map[EventType]int
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler() *StatsHandler {
	h := &StatsHandler{BaseHandler: NewBaseHandler()}
	h.Reset()
	return h
}

// OnEventEnd records the event's duration.
func (h *StatsHandler) OnEventEnd(event *Event) {
	if event.Type == EventException {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.total[event.Type] += event.Duration()
	h.count[event.Type]++
	if event.Err != nil {
		h.errors[event.Type]++
	}
}

// Stats returns the statistics for eventType.
func (h *StatsHandler) Stats(eventType EventType) *EventStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return NewEventStats(h.total[eventType].Seconds(), h.count[eventType], h.errors[eventType])
}

// AllStats returns statistics for every event type seen so far.
func (h *StatsHandler) AllStats() map[EventType]*EventStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[EventType]*EventStats, len(h.count))
	for t, n := range h.count {
		out[t] = NewEventStats(h.total[t].Seconds(), n, h.errors[t])
	}
	return out
}

// Reset clears the statistics.
func (h *StatsHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.total = make(map[EventType]time.Duration)
	h.count = make(map[EventType]int)
	h.errors = make(map[EventType]int)
}

// RecordingHandler keeps every finished event in order.
type RecordingHandler struct {
	*BaseHandler
	mu     sync.Mutex
	starts []*Event
	events []*Event
}

// NewRecordingHandler creates a new RecordingHandler.
func NewRecordingHandler() *RecordingHandler {
	return &RecordingHandler{BaseHandler: NewBaseHandler()}
}

// OnEventStart records the start.
func (h *RecordingHandler) OnEventStart(event *Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts = append(h.starts, event)
}

// OnEventEnd records the finished event.
func (h *RecordingHandler) OnEventEnd(event *Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

// Started returns events in start order.
func (h *RecordingHandler) Started() []*Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Event(nil), h.starts...)
}

// Events returns finished events in end order.
func (h *RecordingHandler) Events() []*Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Event(nil), h.events...)
}

// Types returns the types of finished events in end order.
func (h *RecordingHandler) Types() []EventType {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]EventType, len(h.events))
	for i, e := range h.events {
		out[i] = e.Type
	}
	return out
}

// Ensure the handlers implement Handler.
var (
	_ Handler = (*LoggingHandler)(nil)
	_ Handler = (*StatsHandler)(nil)
	_ Handler = (*RecordingHandler)(nil)
)

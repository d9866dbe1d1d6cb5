package callbacks

// Handler receives pipeline events. Calls for one Manager are serialized.
type Handler interface {
	// OnEventStart is called after the event's start fields are set.
	OnEventStart(event *Event)
	// OnEventEnd is called after the event's end fields are set.
	OnEventEnd(event *Event)
	// Ignores reports whether the handler wants no calls for eventType.
	Ignores(eventType EventType) bool
}

// BaseHandler is a no-op Handler meant for embedding.
type BaseHandler struct {
	ignore []EventType
}

// BaseHandlerOption configures a BaseHandler.
type BaseHandlerOption func(*BaseHandler)

// WithIgnoredEvents sets event types the handler is not called for.
func WithIgnoredEvents(events ...EventType) BaseHandlerOption {
	return func(h *BaseHandler) {
		h.ignore = events
	}
}

// NewBaseHandler creates a new BaseHandler.
func NewBaseHandler(opts ...BaseHandlerOption) *BaseHandler {
	h := &BaseHandler{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *BaseHandler) OnEventStart(event *Event) {}

func (h *BaseHandler) OnEventEnd(event *Event) {}

// Ignores reports whether eventType was configured with WithIgnoredEvents.
func (h *BaseHandler) Ignores(eventType EventType) bool {
	for _, e := range h.ignore {
		if e == eventType {
			return true
		}
	}
	return false
}

// Ensure BaseHandler implements Handler.
var _ Handler = (*BaseHandler)(nil)

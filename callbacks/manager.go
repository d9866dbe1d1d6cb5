package callbacks

import (
	"context"
	"sync"
	"time"
)

type parentKey struct{}

// Manager dispatches pipeline events to handlers and records the parent/child trace.
// The trace holds open top-level events and the most recently finished one; older
// finished traces are dropped. A nil *Manager is valid and does nothing, so callers need
// not check for one.
type Manager struct {
	handlers []Handler
	traceMap map[string][]string
	lastRoot string
	mu       sync.Mutex
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithHandlers sets the handlers.
func WithHandlers(handlers ...Handler) ManagerOption {
	return func(m *Manager) {
		m.handlers = handlers
	}
}

// NewManager creates a new Manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		handlers: []Handler{},
		traceMap: make(map[string][]string),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start begins an event whose parent is the event carried by ctx, if any. The returned
// context carries the new event as parent for nested stages, unless it is a leaf event.
func (m *Manager) Start(ctx context.Context, eventType EventType, payload map[string]any) (context.Context, *Event) {
	event := NewEvent(eventType, payload)
	if parent, ok := ctx.Value(parentKey{}).(string); ok {
		event.ParentID = parent
	}
	if m == nil {
		return ctx, event
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.traceMap[event.ParentID] = append(m.traceMap[event.ParentID], event.ID)
	for _, h := range m.handlers {
		if !h.Ignores(eventType) {
			h.OnEventStart(event)
		}
	}

	if IsLeafEvent(eventType) {
		return ctx, event
	}
	return context.WithValue(ctx, parentKey{}, event.ID), event
}

// End finishes event. A non-nil err is stored on the event and also reported as a
// separate exception event under the same parent.
func (m *Manager) End(event *Event, payload map[string]any, err error) {
	event.EndPayload = payload
	event.EndTime = time.Now()
	event.Err = err
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range m.handlers {
		if !h.Ignores(event.Type) {
			h.OnEventEnd(event)
		}
	}

	if err != nil && event.Type != EventException {
		m.emitException(event, err)
	}
	if event.ParentID == BaseTraceEvent {
		m.finishRoot(event.ID)
	}
}

// finishRoot keeps id's trace as the last finished one and drops the previous. Must hold lock.
func (m *Manager) finishRoot(id string) {
	if m.lastRoot != "" && m.lastRoot != id {
		m.dropTrace(m.lastRoot)
		roots := m.traceMap[BaseTraceEvent]
		for i, r := range roots {
			if r == m.lastRoot {
				m.traceMap[BaseTraceEvent] = append(roots[:i:i], roots[i+1:]...)
				break
			}
		}
	}
	m.lastRoot = id
}

func (m *Manager) dropTrace(id string) {
	for _, child := range m.traceMap[id] {
		m.dropTrace(child)
	}
	delete(m.traceMap, id)
}

// must hold lock
func (m *Manager) emitException(failed *Event, err error) {
	exc := NewEvent(EventException, map[string]any{
		string(PayloadException): err,
		"event_type":             string(failed.Type),
	})
	exc.ParentID = failed.ParentID
	exc.EndTime = exc.StartTime
	exc.Err = err

	// a top-level exception is already finished and belongs to the failed event's trace
	if exc.ParentID != BaseTraceEvent {
		m.traceMap[exc.ParentID] = append(m.traceMap[exc.ParentID], exc.ID)
	}
	for _, h := range m.handlers {
		if !h.Ignores(EventException) {
			h.OnEventStart(exc)
			h.OnEventEnd(exc)
		}
	}
}

// WithEvent runs fn inside an event. fn receives the context to pass to nested stages and
// returns the end payload.
func (m *Manager) WithEvent(
	ctx context.Context,
	eventType EventType,
	startPayload map[string]any,
	fn func(ctx context.Context) (map[string]any, error),
) error {
	ctx, event := m.Start(ctx, eventType, startPayload)
	endPayload, err := fn(ctx)
	m.End(event, endPayload, err)
	return err
}

// AddHandler adds a handler.
func (m *Manager) AddHandler(handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

// RemoveHandler removes a handler.
func (m *Manager) RemoveHandler(handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, h := range m.handlers {
		if h == handler {
			m.handlers = append(m.handlers[:i], m.handlers[i+1:]...)
			return
		}
	}
}

// Handlers returns a copy of the current handlers.
func (m *Manager) Handlers() []Handler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Handler(nil), m.handlers...)
}

// Children returns the IDs of events started under parentID.
func (m *Manager) Children(parentID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.traceMap[parentID]...)
}

// ResetTrace forgets all recorded parent/child links.
func (m *Manager) ResetTrace() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traceMap = make(map[string][]string)
	m.lastRoot = ""
}

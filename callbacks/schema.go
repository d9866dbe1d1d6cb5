// Package callbacks instruments the parse pipeline: every stage emits a start and an end event
// to the registered handlers, with parent links so a whole parse can be reconstructed.
package callbacks

import (
	"time"

	"github.com/google/uuid"
)

// TimestampFormat is the format for event timestamps in log output.
const TimestampFormat = "01/02/2006, 15:04:05.000000"

// BaseTraceEvent is the parent ID of events started without a parent.
const BaseTraceEvent = "root"

// EventType names a pipeline stage.
type EventType string

const (
	// EventParse covers a whole Session.Parse call.
	EventParse EventType = "parse"
	// EventLoadModel covers loading a pretrained parser model.
	EventLoadModel EventType = "load_model"
	// EventSentenceSplit covers sentence segmentation.
	EventSentenceSplit EventType = "sentence_split"
	// EventTokenize covers word tokenization of one sentence.
	EventTokenize EventType = "tokenize"
	// EventSegment covers Chinese word segmentation.
	EventSegment EventType = "segment"
	// EventPredict covers the batched parser call.
	EventPredict EventType = "predict"
	// EventConvert covers conversion of predicted trees.
	EventConvert EventType = "convert"
	// EventException is emitted when a stage fails.
	EventException EventType = "exception"
)

// LeafEvents never have child events.
var LeafEvents = []EventType{
	EventSentenceSplit,
	EventTokenize,
	EventSegment,
	EventPredict,
	EventConvert,
	EventException,
}

// IsLeafEvent reports whether eventType never has children.
func IsLeafEvent(eventType EventType) bool {
	for _, leaf := range LeafEvents {
		if eventType == leaf {
			return true
		}
	}
	return false
}

// PayloadKey is a well-known key in an event payload.
type PayloadKey string

const (
	PayloadText      PayloadKey = "text"
	PayloadLanguage  PayloadKey = "language"
	PayloadModel     PayloadKey = "model"
	PayloadSentences PayloadKey = "sentences"
	PayloadTokens    PayloadKey = "tokens"
	PayloadTrees     PayloadKey = "trees"
	PayloadResults   PayloadKey = "results"
	PayloadCacheHit  PayloadKey = "cache_hit"
	PayloadException PayloadKey = "exception"
)

// Event is one pipeline stage. Start fills StartPayload and StartTime, End fills the rest.
type Event struct {
	Type     EventType
	ID       string
	ParentID string

	StartPayload map[string]any
	EndPayload   map[string]any
	StartTime    time.Time
	EndTime      time.Time
	Err          error
}

// NewEvent creates an event with a fresh ID, started now.
func NewEvent(eventType EventType, payload map[string]any) *Event {
	return &Event{
		Type:         eventType,
		ID:           uuid.New().String(),
		ParentID:     BaseTraceEvent,
		StartPayload: payload,
		StartTime:    time.Now(),
	}
}

// Duration is the time between start and end, or zero while the event is running.
func (e *Event) Duration() time.Duration {
	if e.EndTime.IsZero() {
		return 0
	}
	return e.EndTime.Sub(e.StartTime)
}

// Finished reports whether the event has ended.
func (e *Event) Finished() bool {
	return !e.EndTime.IsZero()
}

// EventStats contains time-based statistics for one event type.
type EventStats struct {
	TotalSecs   float64
	AverageSecs float64
	TotalCount  int
	ErrorCount  int
}

// NewEventStats creates a new EventStats.
func NewEventStats(totalSecs float64, count, errors int) *EventStats {
	avgSecs := 0.0
	if count > 0 {
		avgSecs = totalSecs / float64(count)
	}
	return &EventStats{
		TotalSecs:   totalSecs,
		AverageSecs: avgSecs,
		TotalCount:  count,
		ErrorCount:  errors,
	}
}

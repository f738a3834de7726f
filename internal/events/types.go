// Package events defines the event type taxonomy and base structures for the
// pourover event system. This is the foundation for all event-driven
// communication between the brew coordinator and its observers.
package events

import "time"

// EventType identifies the category and nature of an event.
type EventType string

// Event types emitted during a brewing session and by the surrounding app.
const (
	// Session lifecycle events
	EventSessionStarted   EventType = "session.started"
	EventSessionPaused    EventType = "session.paused"
	EventSessionResumed   EventType = "session.resumed"
	EventSessionCompleted EventType = "session.completed"
	EventSessionReset     EventType = "session.reset"

	// Stage progression events
	EventStageChanged   EventType = "stage.changed"
	EventWaitingStarted EventType = "waiting.started"
	EventCountdownTick  EventType = "countdown.tick"

	// Inventory and journal events
	EventBeanAdded    EventType = "bean.added"
	EventBeanConsumed EventType = "bean.consumed"
	EventNoteRecorded EventType = "note.recorded"

	// Error events
	EventError EventType = "error"
)

// Source constants identify the origin of events.
const (
	SourceBrew      = "brew"
	SourceInventory = "inventory"
	SourceInternal  = "pourover"
)

// Countdown phases distinguish the pre-roll countdown from in-stage waits.
const (
	PhasePreRoll = "preroll"
	PhaseWait    = "wait"
)

// Event is the base interface for all events in the system.
type Event interface {
	Type() EventType
	Timestamp() time.Time
	Source() string
}

// BaseEvent provides the common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"type"`
	Time      time.Time `json:"timestamp"`
	Src       string    `json:"source"`
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.Time
}

// Source returns the origin of the event.
func (e BaseEvent) Source() string {
	return e.Src
}

// SessionState is the snapshot of the brew session published with every
// session event. It is the only session state the rest of the application
// may read; all mutation happens inside the brew coordinator.
// This type is shared between brew, the sinks, and the TUI.
type SessionState struct {
	// CurrentStage is the index of the active stage, or -1 while counting
	// down or before the first pour begins.
	CurrentStage int `json:"current_stage"`
	// Running is true while the session clock is advancing.
	Running bool `json:"running"`
	// Waiting is true inside a post-pour wait interval.
	Waiting bool `json:"waiting"`
	// CountdownRemaining is non-nil only during an active countdown.
	CountdownRemaining *int `json:"countdown_remaining,omitempty"`
	// Complete is set exactly once when the final stage ends.
	Complete bool `json:"complete"`
	// Progress is the elapsed fraction of the current stage, in [0,1].
	Progress float64 `json:"progress"`
}

// SessionStartedEvent is emitted when a brewing session begins.
type SessionStartedEvent struct {
	BaseEvent
	MethodID     string       `json:"method_id"`
	MethodName   string       `json:"method_name"`
	BeanID       string       `json:"bean_id,omitempty"`
	TotalSeconds int          `json:"total_seconds"`
	StageCount   int          `json:"stage_count"`
	State        SessionState `json:"state"`
}

// StageChangedEvent is emitted when the active stage changes.
type StageChangedEvent struct {
	BaseEvent
	StageIndex  int          `json:"stage_index"`
	Label       string       `json:"label"`
	PourType    string       `json:"pour_type"`
	TargetWater float64      `json:"target_water_g"`
	ValveState  string       `json:"valve_state,omitempty"`
	StartOffset int          `json:"start_offset_s"`
	EndOffset   int          `json:"end_offset_s"`
	State       SessionState `json:"state"`
}

// WaitingStartedEvent is emitted when a pour finishes and a wait interval
// begins within the same stage.
type WaitingStartedEvent struct {
	BaseEvent
	StageIndex int          `json:"stage_index"`
	Remaining  int          `json:"remaining_s"`
	State      SessionState `json:"state"`
}

// CountdownTickEvent is emitted once per countdown second, both during the
// pre-roll and during in-stage waits.
type CountdownTickEvent struct {
	BaseEvent
	Phase     string       `json:"phase"`
	Remaining int          `json:"remaining_s"`
	State     SessionState `json:"state"`
}

// SessionPausedEvent is emitted when the session clock stops.
type SessionPausedEvent struct {
	BaseEvent
	ElapsedSeconds float64      `json:"elapsed_s"`
	State          SessionState `json:"state"`
}

// SessionResumedEvent is emitted when a paused session continues.
type SessionResumedEvent struct {
	BaseEvent
	ElapsedSeconds float64      `json:"elapsed_s"`
	State          SessionState `json:"state"`
}

// SessionCompletedEvent is emitted exactly once when elapsed time reaches
// the final stage's end offset.
type SessionCompletedEvent struct {
	BaseEvent
	MethodID       string       `json:"method_id"`
	ElapsedSeconds float64      `json:"elapsed_s"`
	StageCount     int          `json:"stage_count"`
	State          SessionState `json:"state"`
}

// SessionResetEvent is emitted when the session is torn down, whether by
// explicit reset or by navigation away from the brewing flow.
type SessionResetEvent struct {
	BaseEvent
	Reason string       `json:"reason,omitempty"`
	State  SessionState `json:"state"`
}

// BeanAddedEvent is emitted when a bean is added to the inventory.
type BeanAddedEvent struct {
	BaseEvent
	BeanID  string  `json:"bean_id"`
	Name    string  `json:"name"`
	Roaster string  `json:"roaster,omitempty"`
	WeightG float64 `json:"weight_g"`
}

// BeanConsumedEvent is emitted when a brew deducts dose from a bean.
type BeanConsumedEvent struct {
	BaseEvent
	BeanID     string  `json:"bean_id"`
	AmountG    float64 `json:"amount_g"`
	RemainingG float64 `json:"remaining_g"`
}

// NoteRecordedEvent is emitted when a brew note is saved.
type NoteRecordedEvent struct {
	BaseEvent
	NoteID   int64  `json:"note_id"`
	MethodID string `json:"method_id"`
	Rating   int    `json:"rating,omitempty"`
}

// Severity constants for error events.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// ErrorEvent is emitted for any error condition worth surfacing in the feed.
type ErrorEvent struct {
	BaseEvent
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// NewEvent creates a BaseEvent with the given type and source.
func NewEvent(eventType EventType, source string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Time:      time.Now(),
		Src:       source,
	}
}

// NewBrewEvent creates a BaseEvent with the brew coordinator as the source.
func NewBrewEvent(eventType EventType) BaseEvent {
	return NewEvent(eventType, SourceBrew)
}

// NewInventoryEvent creates a BaseEvent with the inventory as the source.
func NewInventoryEvent(eventType EventType) BaseEvent {
	return NewEvent(eventType, SourceInventory)
}

// NewInternalEvent creates a BaseEvent with pourover itself as the source.
func NewInternalEvent(eventType EventType) BaseEvent {
	return NewEvent(eventType, SourceInternal)
}

package testutil

import (
	"sync"
	"time"

	"github.com/tmorelle/pourover/internal/events"
)

// EventCollector subscribes to a router and accumulates everything it
// emits, for assertions after the fact. Emit delivers into the subscriber
// buffer synchronously, so draining on read is deterministic: every event
// emitted before an accessor call is visible to it.
type EventCollector struct {
	mu     sync.Mutex
	ch     <-chan events.Event
	events []events.Event
}

// CollectEvents starts collecting from the router.
func CollectEvents(router *events.Router) *EventCollector {
	return &EventCollector{ch: router.SubscribeBuffered(1000)}
}

func (c *EventCollector) drainLocked() {
	for {
		select {
		case event, ok := <-c.ch:
			if !ok {
				return
			}
			c.events = append(c.events, event)
		default:
			return
		}
	}
}

// Events returns a copy of everything collected so far.
func (c *EventCollector) Events() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drainLocked()
	out := make([]events.Event, len(c.events))
	copy(out, c.events)
	return out
}

// OfType returns the collected events of one type, in order.
func (c *EventCollector) OfType(t events.EventType) []events.Event {
	var out []events.Event
	for _, event := range c.Events() {
		if event.Type() == t {
			out = append(out, event)
		}
	}
	return out
}

// Count returns how many events of the given type were collected.
func (c *EventCollector) Count(t events.EventType) int {
	return len(c.OfType(t))
}

// WaitFor blocks until at least one event of the given type arrives or
// the timeout expires, returning the first match.
func (c *EventCollector) WaitFor(t events.EventType, timeout time.Duration) (events.Event, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if matches := c.OfType(t); len(matches) > 0 {
			return matches[0], true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil, false
}

// NotifierCall records one call into a RecordingNotifier.
type NotifierCall struct {
	Name      string
	Stage     int
	Label     string
	Phase     string
	Remaining int
}

// RecordingNotifier implements brew.Notifier and records every call.
type RecordingNotifier struct {
	mu    sync.Mutex
	calls []NotifierCall
}

func (n *RecordingNotifier) StageChanged(stageIndex int, label string) {
	n.record(NotifierCall{Name: "StageChanged", Stage: stageIndex, Label: label})
}

func (n *RecordingNotifier) WaitingStarted(stageIndex, remaining int) {
	n.record(NotifierCall{Name: "WaitingStarted", Stage: stageIndex, Remaining: remaining})
}

func (n *RecordingNotifier) CountdownTick(phase string, remaining int) {
	n.record(NotifierCall{Name: "CountdownTick", Phase: phase, Remaining: remaining})
}

func (n *RecordingNotifier) Completed() {
	n.record(NotifierCall{Name: "Completed"})
}

func (n *RecordingNotifier) record(call NotifierCall) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, call)
}

// Calls returns a copy of the recorded calls.
func (n *RecordingNotifier) Calls() []NotifierCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]NotifierCall, len(n.calls))
	copy(out, n.calls)
	return out
}

// Named returns the recorded calls with the given name.
func (n *RecordingNotifier) Named(name string) []NotifierCall {
	var out []NotifierCall
	for _, call := range n.Calls() {
		if call.Name == name {
			out = append(out, call)
		}
	}
	return out
}

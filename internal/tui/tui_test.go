package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/tmorelle/pourover/internal/events"
)

// TestTUILifecycle runs the full bubbletea program headlessly: start,
// receive events, handle keys, quit cleanly.
func TestTUILifecycle(t *testing.T) {
	eventChan := make(chan events.Event, 10)
	eventChan <- &events.SessionStartedEvent{
		BaseEvent:    events.NewBrewEvent(events.EventSessionStarted),
		MethodID:     "light-roast-pourover",
		MethodName:   "Light Roast Pour Over",
		TotalSeconds: 55,
		StageCount:   2,
	}

	var quitCalled bool
	fc := newFakeController()
	m := newModel(eventChan, fc, nil, func() { quitCalled = true })

	tm := teatest.NewTestModel(
		t,
		m,
		teatest.WithInitialTermSize(80, 24),
	)

	// Let Init run and the first event land.
	time.Sleep(50 * time.Millisecond)

	tm.Send(tea.KeyMsg{Type: tea.KeyDown})
	tm.Send(tea.KeyMsg{Type: tea.KeyUp})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	if fm == nil {
		t.Fatal("FinalModel returned nil")
	}
	if !quitCalled {
		t.Error("quit callback was not invoked")
	}

	out := tm.FinalOutput(t, teatest.WithFinalTimeout(5*time.Second))
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(out)
	if !strings.Contains(buf.String(), "Light Roast Pour Over") {
		t.Error("expected method name in TUI output")
	}

	close(eventChan)
}

// TestTUIChannelClose verifies that closing the event channel exits the
// program gracefully.
func TestTUIChannelClose(t *testing.T) {
	eventChan := make(chan events.Event, 10)

	m := newModel(eventChan, nil, nil, nil)

	tm := teatest.NewTestModel(
		t,
		m,
		teatest.WithInitialTermSize(80, 24),
	)

	time.Sleep(50 * time.Millisecond)
	close(eventChan)

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	if fm == nil {
		t.Fatal("FinalModel returned nil after channel close")
	}
	if _, ok := fm.(model); !ok {
		t.Fatalf("FinalModel is not of type model: %T", fm)
	}
}

// TestTUIPauseKeyRoundTrip drives the pause key through the program loop.
func TestTUIPauseKeyRoundTrip(t *testing.T) {
	eventChan := make(chan events.Event, 10)
	fc := newFakeController()

	m := newModel(eventChan, fc, nil, nil)

	tm := teatest.NewTestModel(
		t,
		m,
		teatest.WithInitialTermSize(80, 24),
	)

	time.Sleep(50 * time.Millisecond)

	tm.Send(tea.KeyMsg{Type: tea.KeySpace})
	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	if fm == nil {
		t.Fatal("FinalModel returned nil")
	}
	if fc.pauses != 1 {
		t.Errorf("pauses = %d, want 1", fc.pauses)
	}

	close(eventChan)
}

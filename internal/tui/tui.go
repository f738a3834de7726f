// Package tui provides the interactive brewing screen using bubbletea.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tmorelle/pourover/internal/brew"
	"github.com/tmorelle/pourover/internal/events"
)

// Controller is the slice of the brew coordinator the TUI drives.
type Controller interface {
	Pause()
	Resume()
	Reset(reason string)
	JumpToStage(stage int)
	Snapshot() events.SessionState
	Elapsed() float64
	SubEvents() []brew.SubEvent
	MethodName() string
	BeanID() string
	Active() bool
}

// NoteSaver persists a brew note when the user records one at the end of
// a session.
type NoteSaver func(text string, rating int) error

// TUI is the terminal UI for a brewing session.
type TUI struct {
	eventChan  <-chan events.Event
	controller Controller
	saveNote   NoteSaver
	onQuit     func()
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a new TUI reading from the given event channel.
func New(eventChan <-chan events.Event, opts ...Option) *TUI {
	t := &TUI{
		eventChan: eventChan,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithController sets the session controller driven by key presses.
func WithController(c Controller) Option {
	return func(t *TUI) {
		t.controller = c
	}
}

// WithNoteSaver sets the callback used by the end-of-brew note prompt.
func WithNoteSaver(fn NoteSaver) Option {
	return func(t *TUI) {
		t.saveNote = fn
	}
}

// WithOnQuit sets the callback invoked when the user quits.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) {
		t.onQuit = fn
	}
}

// Run starts the TUI and blocks until it exits.
func (t *TUI) Run() error {
	m := newModel(t.eventChan, t.controller, t.saveNote, t.onQuit)

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

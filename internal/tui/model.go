package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tmorelle/pourover/internal/brew"
	"github.com/tmorelle/pourover/internal/events"
)

// stageRow is one line of the stage timeline, aggregated from the
// sub-events of a single source stage.
type stageRow struct {
	Index       int
	Label       string
	TargetWater float64
	ValveState  brew.ValveState
	Start       int
	End         int
}

// eventLine represents a formatted event for the feed.
type eventLine struct {
	Time  time.Time
	Text  string
	Style lipgloss.Style
}

// Layout size constants.
const (
	minWidth  = 50
	minHeight = 16
	// timelineMaxRows caps the stage timeline height so the feed keeps
	// room on small terminals.
	timelineMaxRows = 6
)

// model is the bubbletea model for the brewing screen.
type model struct {
	// Event source
	eventChan <-chan events.Event

	// Session
	controller Controller
	state      events.SessionState
	elapsed    float64
	total      int
	stages     []stageRow

	// Event log
	eventLines []eventLine

	// UI state
	width      int
	height     int
	scrollPos  int
	autoScroll bool
	bar        progress.Model

	// Note prompt
	saveNote       NoteSaver
	notePromptOpen bool
	noteInput      textinput.Model
	noteRating     int
	noteSaved      bool
	noteError      string

	// Callbacks
	onQuit func()
}

// eventMsg wraps an event for the bubbletea message system.
type eventMsg events.Event

// newModel creates a new model with the given configuration.
func newModel(eventChan <-chan events.Event, controller Controller, saveNote NoteSaver, onQuit func()) model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.ShowPercentage = false

	input := textinput.New()
	input.Placeholder = "how was it?"
	input.CharLimit = 200

	m := model{
		eventChan:  eventChan,
		controller: controller,
		state:      events.SessionState{CurrentStage: -1},
		autoScroll: true,
		bar:        bar,
		saveNote:   saveNote,
		noteInput:  input,
		onQuit:     onQuit,
	}
	m.syncFromController()
	return m
}

// syncFromController refreshes session state from the coordinator. The
// coordinator is authoritative; events only fill the gaps between ticks.
func (m *model) syncFromController() {
	if m.controller == nil {
		return
	}
	m.state = m.controller.Snapshot()
	m.elapsed = m.controller.Elapsed()

	subEvents := m.controller.SubEvents()
	m.total = brew.TotalSeconds(subEvents)
	m.stages = buildStageRows(subEvents)
}

// buildStageRows collapses the sub-event schedule back to one row per
// source stage for the timeline display.
func buildStageRows(subEvents []brew.SubEvent) []stageRow {
	var rows []stageRow
	for _, ev := range subEvents {
		if n := len(rows); n > 0 && rows[n-1].Index == ev.SourceStage {
			continue
		}
		rows = append(rows, stageRow{
			Index:       ev.SourceStage,
			Label:       ev.Detail,
			TargetWater: ev.TargetWater,
			ValveState:  ev.ValveState,
			Start:       ev.StageStart,
			End:         ev.StageEnd,
		})
	}
	return rows
}

// currentStageRow returns the timeline row for the active stage. Rows are
// keyed by source-stage index, which can have holes where malformed stages
// were dropped, so the row position is not usable directly.
func (m model) currentStageRow() (stageRow, bool) {
	for _, row := range m.stages {
		if row.Index == m.state.CurrentStage {
			return row, true
		}
	}
	return stageRow{}, false
}

// openNotePrompt shows the inline note prompt after completion. A note is
// recorded at most once per session.
func (m *model) openNotePrompt() {
	if m.saveNote == nil || m.noteSaved || m.notePromptOpen {
		return
	}
	m.notePromptOpen = true
	m.noteRating = 0
	m.noteError = ""
	m.noteInput.SetValue("")
	m.noteInput.Focus()
}

// visibleLines returns the number of feed lines that fit in the viewport.
func (m model) visibleLines() int {
	// Height minus: border (2), header (3), progress (2), timeline,
	// dividers (2), footer (1).
	used := 10 + len(m.timelineRows())
	if m.notePromptOpen {
		used += 3
	}
	return max(1, m.height-used)
}

// timelineRows returns the stage rows that fit the capped timeline.
func (m model) timelineRows() []stageRow {
	if len(m.stages) <= timelineMaxRows {
		return m.stages
	}

	// Keep a window around the current stage's row position, which can
	// trail its index when dropped stages left holes in the row list.
	pos := 0
	for i, row := range m.stages {
		if row.Index == m.state.CurrentStage {
			pos = i
			break
		}
	}
	start := pos - timelineMaxRows/2
	if start < 0 {
		start = 0
	}
	if start+timelineMaxRows > len(m.stages) {
		start = len(m.stages) - timelineMaxRows
	}
	return m.stages[start : start+timelineMaxRows]
}

// status derives the display status from session state.
func (m model) status() string {
	switch {
	case m.controller != nil && !m.controller.Active():
		return "idle"
	case m.state.Complete:
		return "complete"
	case m.state.CountdownRemaining != nil && m.state.CurrentStage < 0:
		return "starting"
	case !m.state.Running:
		return "paused"
	case m.state.Waiting:
		return "waiting"
	default:
		return "pouring"
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.eventChan),
		doTick(),
		tea.EnterAltScreen,
	)
}

// Update, handleKey, handleEvent are implemented in update.go.
// View is implemented in view.go.

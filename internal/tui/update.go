package tui

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tmorelle/pourover/internal/events"
)

const (
	// maxEventLines is the maximum number of feed lines to keep.
	maxEventLines = 1000
	// trimEventLines is the number of lines removed when the buffer
	// exceeds the max.
	trimEventLines = 100
	// refreshInterval is how often the clock and progress bar refresh
	// from the coordinator between events.
	refreshInterval = 500 * time.Millisecond
)

// channelClosedMsg signals that the event channel was closed.
type channelClosedMsg struct{}

// tickMsg signals a periodic display refresh.
type tickMsg time.Time

// waitForEvent creates a command that waits for the next event from the
// channel. Returns channelClosedMsg if the channel is closed.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return eventMsg(event)
	}
}

// doTick creates a command that waits for the refresh interval.
func doTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, m.width-6)
		return m, nil

	case eventMsg:
		m.handleEvent(events.Event(msg))
		return m, waitForEvent(m.eventChan)

	case channelClosedMsg:
		slog.Info("event channel closed, exiting TUI")
		return m, tea.Quit

	case tickMsg:
		m.syncFromController()
		return m, doTick()

	default:
		return m, nil
	}
}

// handleKey processes keyboard input.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit
	}

	if m.notePromptOpen {
		return m.handleNoteKey(msg)
	}

	switch key {
	case "q":
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case " ":
		if m.controller != nil {
			if m.state.Running {
				m.controller.Pause()
			} else {
				m.controller.Resume()
			}
			m.syncFromController()
		}
		return m, nil

	case "n":
		if m.controller != nil {
			m.controller.JumpToStage(m.state.CurrentStage + 1)
			m.syncFromController()
		}
		return m, nil

	case "N":
		if m.controller != nil {
			m.controller.JumpToStage(m.state.CurrentStage - 1)
			m.syncFromController()
		}
		return m, nil

	case "r":
		if m.controller != nil {
			m.controller.Reset("user reset")
			m.syncFromController()
		}
		return m, nil

	case "up", "k":
		m.autoScroll = false
		if m.scrollPos > 0 {
			m.scrollPos--
		}
		return m, nil

	case "down", "j":
		maxScroll := len(m.eventLines) - m.visibleLines()
		if m.scrollPos < maxScroll {
			m.scrollPos++
		}
		if m.scrollPos >= maxScroll {
			m.autoScroll = true
		}
		return m, nil

	case "home", "g":
		m.autoScroll = false
		m.scrollPos = 0
		return m, nil

	case "end", "G":
		m.autoScroll = true
		m.scrollPos = max(0, len(m.eventLines)-m.visibleLines())
		return m, nil

	default:
		return m, nil
	}
}

// handleNoteKey processes input while the note prompt is open.
func (m model) handleNoteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.notePromptOpen = false
		m.noteInput.Blur()
		return m, nil

	case "tab":
		// Cycle the rating 1..5 then back to unrated.
		m.noteRating = (m.noteRating + 1) % 6
		return m, nil

	case "enter":
		if m.saveNote != nil {
			if err := m.saveNote(m.noteInput.Value(), m.noteRating); err != nil {
				m.noteError = err.Error()
				return m, nil
			}
		}
		m.noteSaved = true
		m.notePromptOpen = false
		m.noteInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.noteInput, cmd = m.noteInput.Update(msg)
	return m, cmd
}

// handleEvent updates model state from an event and appends it to the feed.
func (m *model) handleEvent(event events.Event) {
	switch e := event.(type) {
	case *events.SessionStartedEvent:
		m.state = e.State
		m.noteSaved = false
		m.syncFromController()

	case *events.StageChangedEvent:
		m.state = e.State

	case *events.WaitingStartedEvent:
		m.state = e.State

	case *events.CountdownTickEvent:
		m.state = e.State

	case *events.SessionPausedEvent:
		m.state = e.State

	case *events.SessionResumedEvent:
		m.state = e.State

	case *events.SessionCompletedEvent:
		m.state = e.State
		m.elapsed = e.ElapsedSeconds
		m.openNotePrompt()

	case *events.SessionResetEvent:
		m.state = e.State
		m.notePromptOpen = false
	}

	text := events.Format(event)
	if text == "" {
		return
	}

	m.eventLines = append(m.eventLines, eventLine{
		Time:  event.Timestamp(),
		Text:  text,
		Style: StyleForEvent(event),
	})

	if len(m.eventLines) > maxEventLines {
		m.eventLines = m.eventLines[trimEventLines:]
		m.scrollPos = max(0, m.scrollPos-trimEventLines)
	}

	if m.autoScroll {
		maxScroll := len(m.eventLines) - m.visibleLines()
		if maxScroll > 0 {
			m.scrollPos = maxScroll
		}
	}
}

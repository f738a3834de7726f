package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tmorelle/pourover/internal/events"
)

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.width < minWidth || m.height < minHeight {
		return fmt.Sprintf("Terminal too small (%dx%d). Need %dx%d minimum.",
			m.width, m.height, minWidth, minHeight)
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderProgress())
	sections = append(sections, m.renderDivider())
	sections = append(sections, m.renderTimeline())
	sections = append(sections, m.renderDivider())
	sections = append(sections, m.renderFeed())
	if m.notePromptOpen {
		sections = append(sections, m.renderDivider())
		sections = append(sections, m.renderNotePrompt())
	}
	sections = append(sections, m.renderDivider())
	sections = append(sections, m.renderFooter())

	content := strings.Join(sections, "\n")

	rendered := styles.Container.
		Width(safeWidth(m.width - 2)).
		Render(content)

	return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, rendered)
}

// renderHeader renders method, bean, status, and the session clock.
func (m model) renderHeader() string {
	w := m.innerWidth()

	method := "no method selected"
	bean := ""
	if m.controller != nil {
		if name := m.controller.MethodName(); name != "" {
			method = name
		}
		bean = m.controller.BeanID()
	}

	title := styles.Method.Render(events.SafeString(method))
	status := m.renderStatus()
	titleLine := joinEnds(w, title, status)

	var detail string
	if bean != "" {
		detail = fmt.Sprintf("bean: %s", bean)
	} else {
		detail = "no bean selected"
	}
	clock := fmt.Sprintf("%s / %s", events.FormatClock(m.elapsed), events.FormatClock(float64(m.total)))
	detailLine := joinEnds(w, styles.Detail.Render(detail), styles.Clock.Render(clock))

	countdownLine := m.renderCountdown(w)

	return strings.Join([]string{titleLine, detailLine, countdownLine}, "\n")
}

// renderCountdown renders the active countdown or the water target line.
func (m model) renderCountdown(w int) string {
	if m.state.CountdownRemaining != nil {
		r := *m.state.CountdownRemaining
		if m.state.CurrentStage < 0 {
			return styles.Countdown.Render(fmt.Sprintf("starting in %d...", r))
		}
		return styles.Countdown.Render(fmt.Sprintf("next pour in %d", r))
	}

	if row, ok := m.currentStageRow(); ok {
		target := fmt.Sprintf("pour to %.0fg", row.TargetWater)
		if row.ValveState != "" {
			target += fmt.Sprintf("  valve %s", row.ValveState)
		}
		return styles.Water.Render(target)
	}
	return ""
}

// renderProgress renders the whole-session progress bar.
func (m model) renderProgress() string {
	percent := 0.0
	if m.total > 0 {
		percent = m.elapsed / float64(m.total)
	}
	if percent > 1 {
		percent = 1
	}
	return m.bar.ViewAs(percent)
}

// renderTimeline renders the stage list with the current stage highlighted.
func (m model) renderTimeline() string {
	rows := m.timelineRows()
	if len(rows) == 0 {
		return styles.Detail.Render("no stages")
	}

	w := m.innerWidth()
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		marker := "  "
		style := styles.Stage
		switch {
		case row.Index == m.state.CurrentStage:
			marker = "> "
			style = styles.StageCurrent
		case m.state.Complete || row.Index < m.state.CurrentStage:
			marker = "+ "
			style = styles.StageDone
		}

		text := fmt.Sprintf("%s%d. %-14s %7s  %s-%s",
			marker, row.Index+1,
			events.Truncate(row.Label, 14),
			fmt.Sprintf("%.0fg", row.TargetWater),
			events.FormatClock(float64(row.Start)),
			events.FormatClock(float64(row.End)))
		if len(text) > w {
			text = text[:w]
		}
		lines = append(lines, style.Render(text))
	}
	return strings.Join(lines, "\n")
}

// renderFeed renders the scrollable event feed.
func (m model) renderFeed() string {
	visible := m.visibleLines()
	w := m.innerWidth()

	if len(m.eventLines) == 0 {
		placeholder := "Waiting for events..."
		padding := strings.Repeat("\n", visible/2)
		return padding + lipgloss.PlaceHorizontal(w, lipgloss.Center, placeholder)
	}

	scrollPos := safeScroll(m.scrollPos, len(m.eventLines), visible)
	endPos := min(scrollPos+visible, len(m.eventLines))

	var lines []string
	for _, el := range m.eventLines[scrollPos:endPos] {
		lines = append(lines, m.renderEventLine(el, w))
	}
	for len(lines) < visible {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderEventLine renders a single feed line with a timestamp prefix.
func (m model) renderEventLine(el eventLine, maxWidth int) string {
	prefix := el.Time.Format("15:04:05") + " "

	textWidth := maxWidth - len(prefix)
	if textWidth < 10 {
		textWidth = 10
	}
	text := el.Text
	if len(text) > textWidth {
		text = text[:textWidth-3] + "..."
	}

	return styles.Detail.Render(prefix) + el.Style.Render(text)
}

// renderNotePrompt renders the end-of-brew note input.
func (m model) renderNotePrompt() string {
	rating := "unrated"
	if m.noteRating > 0 {
		rating = strings.Repeat("*", m.noteRating)
	}
	header := styles.Countdown.Render(fmt.Sprintf("brew note (tab: rating %s, enter: save, esc: skip)", rating))

	lines := []string{header, m.noteInput.View()}
	if m.noteError != "" {
		lines = append(lines, styles.Error.Render(m.noteError))
	}
	return strings.Join(lines, "\n")
}

// renderStatus renders the status indicator.
func (m model) renderStatus() string {
	status := m.status()
	var style lipgloss.Style
	switch status {
	case "pouring":
		style = styles.StatusActive
	case "waiting", "starting":
		style = styles.StatusWaiting
	case "paused":
		style = styles.StatusPaused
	case "complete":
		style = styles.StatusDone
	default:
		style = styles.StatusIdle
	}
	return style.Render(strings.ToUpper(status))
}

// renderDivider renders a horizontal divider line.
func (m model) renderDivider() string {
	return styles.Divider.Render(strings.Repeat("─", m.innerWidth()))
}

// renderFooter renders keyboard shortcuts.
func (m model) renderFooter() string {
	var help string
	switch {
	case m.notePromptOpen:
		help = "enter: save note  tab: rating  esc: skip"
	case m.status() == "paused":
		help = "space: resume  n/N: stage  r: reset  q: quit  ↑/↓: scroll"
	default:
		help = "space: pause  n/N: stage  r: reset  q: quit  ↑/↓: scroll"
	}
	return styles.Footer.Render(help)
}

// innerWidth is the content width inside the container borders.
func (m model) innerWidth() int {
	return safeWidth(m.width - 4)
}

// joinEnds places left and right at opposite ends of a line of width w.
func joinEnds(w int, left, right string) string {
	gap := max(1, w-lipgloss.Width(left)-lipgloss.Width(right))
	return lipgloss.JoinHorizontal(lipgloss.Top, left, strings.Repeat(" ", gap), right)
}

// safeWidth returns a width that is at least 1.
func safeWidth(w int) int {
	if w < 1 {
		return 1
	}
	return w
}

// safeScroll clamps the scroll position to valid bounds.
func safeScroll(pos, totalLines, visibleLines int) int {
	if pos < 0 {
		return 0
	}
	maxScroll := totalLines - visibleLines
	if maxScroll < 0 {
		return 0
	}
	if pos > maxScroll {
		return maxScroll
	}
	return pos
}

// StyleForEvent returns the feed style for an event type.
func StyleForEvent(event events.Event) lipgloss.Style {
	if event == nil {
		return styles.Detail
	}

	switch event.(type) {
	case *events.SessionStartedEvent, *events.SessionCompletedEvent:
		return styles.Session
	case *events.StageChangedEvent:
		return styles.StageEvent
	case *events.WaitingStartedEvent, *events.CountdownTickEvent:
		return styles.Countdown
	case *events.SessionPausedEvent, *events.SessionResumedEvent, *events.SessionResetEvent:
		return styles.Session
	case *events.BeanAddedEvent, *events.BeanConsumedEvent, *events.NoteRecordedEvent:
		return styles.Detail
	case *events.ErrorEvent:
		return styles.Error
	default:
		return styles.Detail
	}
}

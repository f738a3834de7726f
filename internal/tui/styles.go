package tui

import "github.com/charmbracelet/lipgloss"

// styles contains all lipgloss styles used by the brewing screen.
var styles = struct {
	// Layout styles
	Container lipgloss.Style
	Divider   lipgloss.Style

	// Header styles
	Method    lipgloss.Style
	Detail    lipgloss.Style
	Clock     lipgloss.Style
	Water     lipgloss.Style
	Countdown lipgloss.Style

	// Timeline styles
	Stage        lipgloss.Style
	StageCurrent lipgloss.Style
	StageDone    lipgloss.Style

	// Feed styles
	Session    lipgloss.Style
	StageEvent lipgloss.Style
	Error      lipgloss.Style

	// Status colors
	StatusIdle    lipgloss.Style
	StatusActive  lipgloss.Style
	StatusWaiting lipgloss.Style
	StatusPaused  lipgloss.Style
	StatusDone    lipgloss.Style

	// Footer style
	Footer lipgloss.Style
}{
	Container: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")),

	Divider: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	Method: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("180")),

	Detail: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Clock: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("220")),

	Water: lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")),

	Countdown: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("214")),

	Stage: lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")),

	StageCurrent: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")),

	StageDone: lipgloss.NewStyle().
		Foreground(lipgloss.Color("242")),

	Session: lipgloss.NewStyle().
		Foreground(lipgloss.Color("177")),

	StageEvent: lipgloss.NewStyle().
		Foreground(lipgloss.Color("114")),

	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),

	StatusIdle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	StatusActive: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")),

	StatusWaiting: lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")),

	StatusPaused: lipgloss.NewStyle().
		Foreground(lipgloss.Color("208")),

	StatusDone: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("114")),

	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),
}

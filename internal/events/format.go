package events

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	maxTextLength     = 200
	truncateIndicator = "..."
)

// Format converts an event to a human-readable string for display in the
// TUI feed and the events CLI command.
// Returns empty string for nil or unknown event types.
func Format(event Event) string {
	if event == nil {
		return ""
	}

	switch e := event.(type) {
	case *SessionStartedEvent:
		return formatSessionStarted(e)
	case *StageChangedEvent:
		return formatStageChanged(e)
	case *WaitingStartedEvent:
		return fmt.Sprintf("waiting: %ds until next stage", e.Remaining)
	case *CountdownTickEvent:
		return formatCountdownTick(e)
	case *SessionPausedEvent:
		return fmt.Sprintf("paused at %s", FormatClock(e.ElapsedSeconds))
	case *SessionResumedEvent:
		return fmt.Sprintf("resumed at %s", FormatClock(e.ElapsedSeconds))
	case *SessionCompletedEvent:
		return fmt.Sprintf("[+] brew complete: %d stages in %s", e.StageCount, FormatClock(e.ElapsedSeconds))
	case *SessionResetEvent:
		if e.Reason != "" {
			return fmt.Sprintf("session reset: %s", e.Reason)
		}
		return "session reset"
	case *BeanAddedEvent:
		return fmt.Sprintf("bean added: %s (%.0fg)", SafeString(e.Name), e.WeightG)
	case *BeanConsumedEvent:
		return fmt.Sprintf("used %.0fg of %s (%.0fg left)", e.AmountG, e.BeanID, e.RemainingG)
	case *NoteRecordedEvent:
		if e.Rating > 0 {
			return fmt.Sprintf("note recorded for %s (%d/5)", e.MethodID, e.Rating)
		}
		return fmt.Sprintf("note recorded for %s", e.MethodID)
	case *ErrorEvent:
		return formatError(e)
	default:
		return ""
	}
}

// FormatWithTimestamp formats an event with a timestamp prefix.
func FormatWithTimestamp(event Event) string {
	if event == nil {
		return ""
	}
	ts := event.Timestamp().Format("15:04:05")
	detail := Format(event)
	if detail == "" {
		return fmt.Sprintf("[%s] %s", ts, event.Type())
	}
	return fmt.Sprintf("[%s] %s", ts, detail)
}

func formatSessionStarted(e *SessionStartedEvent) string {
	name := SafeString(e.MethodName)
	if e.BeanID != "" {
		return fmt.Sprintf("brewing %s with %s (%d stages, %s)",
			name, e.BeanID, e.StageCount, FormatClock(float64(e.TotalSeconds)))
	}
	return fmt.Sprintf("brewing %s (%d stages, %s)",
		name, e.StageCount, FormatClock(float64(e.TotalSeconds)))
}

func formatStageChanged(e *StageChangedEvent) string {
	label := SafeString(e.Label)
	base := fmt.Sprintf("stage %d: %s to %.0fg [%s-%s]",
		e.StageIndex+1, label, e.TargetWater,
		FormatClock(float64(e.StartOffset)), FormatClock(float64(e.EndOffset)))
	if e.ValveState != "" {
		base += fmt.Sprintf(" valve %s", e.ValveState)
	}
	return base
}

func formatCountdownTick(e *CountdownTickEvent) string {
	if e.Phase == PhasePreRoll {
		return fmt.Sprintf("starting in %d...", e.Remaining)
	}
	return fmt.Sprintf("next pour in %d", e.Remaining)
}

func formatError(e *ErrorEvent) string {
	severity := e.Severity
	if severity == "" {
		severity = SeverityError
	}
	return fmt.Sprintf("%s: %s", strings.ToUpper(severity), Truncate(SafeString(e.Message), maxTextLength))
}

// FormatClock renders elapsed seconds as m:ss for display.
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Truncate shortens text to maxLen, adding indicator if truncated.
func Truncate(s string, maxLen int) string {
	s = SafeString(s)
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= len(truncateIndicator) {
		return truncateIndicator
	}
	return s[:maxLen-len(truncateIndicator)] + truncateIndicator
}

// SafeString sanitizes a string for single-line display by removing control
// characters and collapsing whitespace.
func SafeString(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == ' ' || !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}

	result := sb.String()
	for strings.Contains(result, "  ") {
		result = strings.ReplaceAll(result, "  ", " ")
	}

	return strings.TrimSpace(result)
}

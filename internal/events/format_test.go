package events

import (
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "nil event",
			event: nil,
			want:  "",
		},
		{
			name: "session started",
			event: &SessionStartedEvent{
				BaseEvent:    NewBrewEvent(EventSessionStarted),
				MethodName:   "Light Roast Pour Over",
				StageCount:   4,
				TotalSeconds: 210,
			},
			want: "brewing Light Roast Pour Over (4 stages, 3:30)",
		},
		{
			name: "session started with bean",
			event: &SessionStartedEvent{
				BaseEvent:    NewBrewEvent(EventSessionStarted),
				MethodName:   "Valve Steep",
				BeanID:       "kiamugumo",
				StageCount:   3,
				TotalSeconds: 150,
			},
			want: "brewing Valve Steep with kiamugumo (3 stages, 2:30)",
		},
		{
			name: "stage changed",
			event: &StageChangedEvent{
				BaseEvent:   NewBrewEvent(EventStageChanged),
				StageIndex:  0,
				Label:       "bloom",
				TargetWater: 45,
				StartOffset: 0,
				EndOffset:   45,
			},
			want: "stage 1: bloom to 45g [0:00-0:45]",
		},
		{
			name: "stage changed with valve",
			event: &StageChangedEvent{
				BaseEvent:   NewBrewEvent(EventStageChanged),
				StageIndex:  2,
				Label:       "drain",
				TargetWater: 300,
				ValveState:  "open",
				StartOffset: 150,
				EndOffset:   210,
			},
			want: "stage 3: drain to 300g [2:30-3:30] valve open",
		},
		{
			name: "waiting started",
			event: &WaitingStartedEvent{
				BaseEvent: NewBrewEvent(EventWaitingStarted),
				Remaining: 15,
			},
			want: "waiting: 15s until next stage",
		},
		{
			name: "pre-roll countdown tick",
			event: &CountdownTickEvent{
				BaseEvent: NewBrewEvent(EventCountdownTick),
				Phase:     PhasePreRoll,
				Remaining: 3,
			},
			want: "starting in 3...",
		},
		{
			name: "wait countdown tick",
			event: &CountdownTickEvent{
				BaseEvent: NewBrewEvent(EventCountdownTick),
				Phase:     PhaseWait,
				Remaining: 9,
			},
			want: "next pour in 9",
		},
		{
			name: "paused",
			event: &SessionPausedEvent{
				BaseEvent:      NewBrewEvent(EventSessionPaused),
				ElapsedSeconds: 75,
			},
			want: "paused at 1:15",
		},
		{
			name: "resumed",
			event: &SessionResumedEvent{
				BaseEvent:      NewBrewEvent(EventSessionResumed),
				ElapsedSeconds: 75.4,
			},
			want: "resumed at 1:15",
		},
		{
			name: "completed",
			event: &SessionCompletedEvent{
				BaseEvent:      NewBrewEvent(EventSessionCompleted),
				StageCount:     2,
				ElapsedSeconds: 55,
			},
			want: "[+] brew complete: 2 stages in 0:55",
		},
		{
			name:  "reset without reason",
			event: &SessionResetEvent{BaseEvent: NewBrewEvent(EventSessionReset)},
			want:  "session reset",
		},
		{
			name: "reset with reason",
			event: &SessionResetEvent{
				BaseEvent: NewBrewEvent(EventSessionReset),
				Reason:    "navigated away",
			},
			want: "session reset: navigated away",
		},
		{
			name: "bean added",
			event: &BeanAddedEvent{
				BaseEvent: NewInventoryEvent(EventBeanAdded),
				Name:      "Kiamugumo AA",
				WeightG:   250,
			},
			want: "bean added: Kiamugumo AA (250g)",
		},
		{
			name: "bean consumed",
			event: &BeanConsumedEvent{
				BaseEvent:  NewInventoryEvent(EventBeanConsumed),
				BeanID:     "kiamugumo",
				AmountG:    15,
				RemainingG: 235,
			},
			want: "used 15g of kiamugumo (235g left)",
		},
		{
			name: "note recorded with rating",
			event: &NoteRecordedEvent{
				BaseEvent: NewInternalEvent(EventNoteRecorded),
				MethodID:  "v60",
				Rating:    4,
			},
			want: "note recorded for v60 (4/5)",
		},
		{
			name: "error with severity",
			event: &ErrorEvent{
				BaseEvent: NewInternalEvent(EventError),
				Message:   "catalog load failed",
				Severity:  SeverityWarning,
			},
			want: "WARNING: catalog load failed",
		},
		{
			name: "error defaults to error severity",
			event: &ErrorEvent{
				BaseEvent: NewInternalEvent(EventError),
				Message:   "boom",
			},
			want: "ERROR: boom",
		},
		{
			name: "multiline label is sanitized",
			event: &StageChangedEvent{
				BaseEvent:   NewBrewEvent(EventStageChanged),
				StageIndex:  0,
				Label:       "bloom\nand  swirl",
				TargetWater: 45,
				EndOffset:   45,
			},
			want: "stage 1: bloom and swirl to 45g [0:00-0:45]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.event); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatWithTimestamp(t *testing.T) {
	event := &WaitingStartedEvent{
		BaseEvent: NewBrewEvent(EventWaitingStarted),
		Remaining: 10,
	}

	got := FormatWithTimestamp(event)
	if !strings.HasPrefix(got, "[") {
		t.Errorf("expected timestamp prefix, got %q", got)
	}
	if !strings.HasSuffix(got, "waiting: 10s until next stage") {
		t.Errorf("expected formatted detail, got %q", got)
	}

	if got := FormatWithTimestamp(nil); got != "" {
		t.Errorf("FormatWithTimestamp(nil) = %q, want empty", got)
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{59.9, "0:59"},
		{60, "1:00"},
		{90, "1:30"},
		{210, "3:30"},
		{-10, "0:00"},
		{600, "10:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.seconds); got != tt.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long string truncated", "hello world", 8, "hello..."},
		{"tiny max returns indicator", "hello", 2, "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestSafeString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello world", "hello world"},
		{"newlines become spaces", "a\nb\r\nc", "a b c"},
		{"control characters stripped", "a\x00b\x1bc", "abc"},
		{"whitespace collapsed", "a   b\t\tc", "a bc"},
		{"leading and trailing trimmed", "  hi  ", "hi"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeString(tt.input); got != tt.want {
				t.Errorf("SafeString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

package events

import (
	"context"
	"testing"
)

func runSummary(t *testing.T, events []Event) BrewSummary {
	t.Helper()

	sink := NewSummarySink()
	ch := make(chan Event, len(events))
	if err := sink.Start(context.Background(), ch); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for _, e := range events {
		ch <- e
	}
	close(ch)
	if err := sink.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	return sink.Summary()
}

func TestSummarySink(t *testing.T) {
	t.Run("completed brew", func(t *testing.T) {
		summary := runSummary(t, []Event{
			&SessionStartedEvent{
				BaseEvent:  NewBrewEvent(EventSessionStarted),
				MethodID:   "v60",
				MethodName: "Light Roast Pour Over",
				BeanID:     "kiamugumo",
				StageCount: 4,
			},
			&StageChangedEvent{BaseEvent: NewBrewEvent(EventStageChanged), StageIndex: 0},
			&SessionPausedEvent{BaseEvent: NewBrewEvent(EventSessionPaused), ElapsedSeconds: 30},
			&SessionResumedEvent{BaseEvent: NewBrewEvent(EventSessionResumed), ElapsedSeconds: 30},
			&SessionCompletedEvent{BaseEvent: NewBrewEvent(EventSessionCompleted), ElapsedSeconds: 210},
		})

		if summary.MethodID != "v60" || summary.MethodName != "Light Roast Pour Over" || summary.BeanID != "kiamugumo" {
			t.Errorf("identity fields wrong: %+v", summary)
		}
		if summary.StageCount != 4 {
			t.Errorf("StageCount = %d, want 4", summary.StageCount)
		}
		if summary.PauseCount != 1 {
			t.Errorf("PauseCount = %d, want 1", summary.PauseCount)
		}
		if !summary.Completed || summary.ElapsedSeconds != 210 {
			t.Errorf("completion wrong: %+v", summary)
		}
		if summary.StartedAt.IsZero() {
			t.Error("StartedAt not recorded")
		}
	})

	t.Run("abandoned brew is not completed", func(t *testing.T) {
		summary := runSummary(t, []Event{
			&SessionStartedEvent{BaseEvent: NewBrewEvent(EventSessionStarted), MethodID: "v60"},
			&SessionPausedEvent{BaseEvent: NewBrewEvent(EventSessionPaused), ElapsedSeconds: 42},
			&SessionResetEvent{BaseEvent: NewBrewEvent(EventSessionReset), Reason: "gave up"},
		})

		if summary.Completed {
			t.Error("abandoned brew marked completed")
		}
		if summary.ElapsedSeconds != 42 {
			t.Errorf("ElapsedSeconds = %v, want 42", summary.ElapsedSeconds)
		}
	})

	t.Run("new session resets the accumulator", func(t *testing.T) {
		summary := runSummary(t, []Event{
			&SessionStartedEvent{BaseEvent: NewBrewEvent(EventSessionStarted), MethodID: "first"},
			&SessionPausedEvent{BaseEvent: NewBrewEvent(EventSessionPaused), ElapsedSeconds: 10},
			&SessionCompletedEvent{BaseEvent: NewBrewEvent(EventSessionCompleted), ElapsedSeconds: 99},
			&SessionStartedEvent{BaseEvent: NewBrewEvent(EventSessionStarted), MethodID: "second", StageCount: 2},
		})

		if summary.MethodID != "second" {
			t.Errorf("MethodID = %q, want second", summary.MethodID)
		}
		if summary.PauseCount != 0 || summary.Completed || summary.ElapsedSeconds != 0 {
			t.Errorf("accumulator not reset: %+v", summary)
		}
	})

	// Teardown reads the summary right after closing the router; Stop must
	// wait for every buffered event, or a completion sitting in the channel
	// would be lost.
	t.Run("stop drains events buffered through the router", func(t *testing.T) {
		router := NewRouter(DefaultBufferSize)
		sink := NewSummarySink()
		if err := sink.Start(context.Background(), router.SubscribeBuffered(SummaryBufferSize)); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		router.Emit(&SessionStartedEvent{
			BaseEvent: NewBrewEvent(EventSessionStarted),
			MethodID:  "light-roast-pourover",
		})
		router.Emit(&SessionCompletedEvent{
			BaseEvent:      NewBrewEvent(EventSessionCompleted),
			MethodID:       "light-roast-pourover",
			ElapsedSeconds: 210,
		})

		router.Close()
		if err := sink.Stop(); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}

		summary := sink.Summary()
		if !summary.Completed {
			t.Error("completion lost: summary not marked completed after Stop")
		}
		if summary.ElapsedSeconds != 210 {
			t.Errorf("ElapsedSeconds = %v, want 210", summary.ElapsedSeconds)
		}
	})

	t.Run("non-session events are ignored", func(t *testing.T) {
		summary := runSummary(t, []Event{
			&SessionStartedEvent{BaseEvent: NewBrewEvent(EventSessionStarted), MethodID: "v60"},
			&BeanAddedEvent{BaseEvent: NewInventoryEvent(EventBeanAdded), Name: "test"},
			&ErrorEvent{BaseEvent: NewInternalEvent(EventError), Message: "oops"},
		})

		if summary.MethodID != "v60" || summary.PauseCount != 0 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})
}

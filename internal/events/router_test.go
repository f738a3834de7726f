package events

import (
	"sync"
	"testing"
	"time"
)

func TestNewRouter(t *testing.T) {
	t.Run("default buffer size", func(t *testing.T) {
		r := NewRouter(0)
		if r.bufferSize != DefaultBufferSize {
			t.Errorf("expected buffer size %d, got %d", DefaultBufferSize, r.bufferSize)
		}
	})

	t.Run("negative buffer size uses default", func(t *testing.T) {
		r := NewRouter(-10)
		if r.bufferSize != DefaultBufferSize {
			t.Errorf("expected buffer size %d, got %d", DefaultBufferSize, r.bufferSize)
		}
	})

	t.Run("custom buffer size", func(t *testing.T) {
		r := NewRouter(50)
		if r.bufferSize != 50 {
			t.Errorf("expected buffer size 50, got %d", r.bufferSize)
		}
	})
}

func TestRouterEmitSubscribe(t *testing.T) {
	t.Run("single subscriber receives event", func(t *testing.T) {
		r := NewRouter(10)
		defer r.Close()

		ch := r.Subscribe()
		event := &StageChangedEvent{
			BaseEvent:  NewBrewEvent(EventStageChanged),
			StageIndex: 2,
			Label:      "main pour",
		}

		r.Emit(event)

		select {
		case received := <-ch:
			if received.Type() != EventStageChanged {
				t.Errorf("expected %s, got %s", EventStageChanged, received.Type())
			}
			stageEvent, ok := received.(*StageChangedEvent)
			if !ok {
				t.Fatalf("expected *StageChangedEvent, got %T", received)
			}
			if stageEvent.StageIndex != 2 || stageEvent.Label != "main pour" {
				t.Errorf("unexpected event payload: %+v", stageEvent)
			}
		case <-time.After(time.Second):
			t.Error("timeout waiting for event")
		}
	})

	t.Run("multiple subscribers each receive all events", func(t *testing.T) {
		r := NewRouter(10)
		defer r.Close()

		ch1 := r.Subscribe()
		ch2 := r.Subscribe()
		ch3 := r.Subscribe()

		for i := 0; i < 3; i++ {
			r.Emit(&CountdownTickEvent{
				BaseEvent: NewBrewEvent(EventCountdownTick),
				Phase:     PhaseWait,
				Remaining: 3 - i,
			})
		}

		for _, ch := range []<-chan Event{ch1, ch2, ch3} {
			for i := 0; i < 3; i++ {
				select {
				case <-ch:
				case <-time.After(time.Second):
					t.Errorf("timeout waiting for event %d", i)
				}
			}
		}
	})

	t.Run("events arrive in emission order", func(t *testing.T) {
		r := NewRouter(10)
		defer r.Close()

		ch := r.Subscribe()
		emitted := []Event{
			&SessionStartedEvent{BaseEvent: NewBrewEvent(EventSessionStarted), MethodID: "v60"},
			&StageChangedEvent{BaseEvent: NewBrewEvent(EventStageChanged), StageIndex: 0},
			&WaitingStartedEvent{BaseEvent: NewBrewEvent(EventWaitingStarted), Remaining: 15},
			&SessionCompletedEvent{BaseEvent: NewBrewEvent(EventSessionCompleted)},
		}

		for _, e := range emitted {
			r.Emit(e)
		}

		for i, expected := range emitted {
			select {
			case received := <-ch:
				if received.Type() != expected.Type() {
					t.Errorf("event %d: expected type %s, got %s", i, expected.Type(), received.Type())
				}
			case <-time.After(time.Second):
				t.Errorf("timeout waiting for event %d", i)
			}
		}
	})
}

func TestRouterFullBufferDrops(t *testing.T) {
	r := NewRouter(2)
	defer r.Close()

	ch := r.SubscribeBuffered(2)

	for i := 0; i < 10; i++ {
		r.Emit(&CountdownTickEvent{BaseEvent: NewBrewEvent(EventCountdownTick), Remaining: i})
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			goto done
		}
	}
done:
	if count != 2 {
		t.Errorf("expected 2 events (buffer full, rest dropped), got %d", count)
	}
}

func TestRouterUnsubscribe(t *testing.T) {
	t.Run("unsubscribe removes subscriber", func(t *testing.T) {
		r := NewRouter(10)
		defer r.Close()

		ch1 := r.Subscribe()
		ch2 := r.Subscribe()

		r.Unsubscribe(ch1)
		r.Emit(&SessionResetEvent{BaseEvent: NewBrewEvent(EventSessionReset)})

		select {
		case _, ok := <-ch1:
			if ok {
				t.Error("expected ch1 to be closed")
			}
		default:
			t.Error("ch1 should be readable (closed)")
		}

		select {
		case <-ch2:
		case <-time.After(time.Second):
			t.Error("timeout waiting for event on ch2")
		}
	})

	t.Run("unsubscribe unknown channel is safe", func(t *testing.T) {
		r := NewRouter(10)
		defer r.Close()

		unknownCh := make(chan Event)
		r.Unsubscribe(unknownCh)
	})
}

func TestRouterClose(t *testing.T) {
	t.Run("close closes all subscriber channels", func(t *testing.T) {
		r := NewRouter(10)

		ch1 := r.Subscribe()
		ch2 := r.Subscribe()

		r.Close()

		for i, ch := range []<-chan Event{ch1, ch2} {
			select {
			case _, ok := <-ch:
				if ok {
					t.Errorf("expected channel %d to be closed", i)
				}
			default:
				t.Errorf("channel %d should be readable (closed)", i)
			}
		}
	})

	t.Run("emit after close is no-op", func(t *testing.T) {
		r := NewRouter(10)
		ch := r.Subscribe()
		r.Close()

		r.Emit(&SessionStartedEvent{BaseEvent: NewBrewEvent(EventSessionStarted)})

		select {
		case _, ok := <-ch:
			if ok {
				t.Error("expected channel to be closed, not receive event")
			}
		default:
			t.Error("channel should be readable (closed)")
		}
	})

	t.Run("subscribe after close returns closed channel", func(t *testing.T) {
		r := NewRouter(10)
		r.Close()

		ch := r.Subscribe()

		select {
		case _, ok := <-ch:
			if ok {
				t.Error("expected channel to be closed")
			}
		default:
			t.Error("channel should be readable (closed)")
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		r := NewRouter(10)
		r.Subscribe()

		r.Close()
		r.Close()
		r.Close()
	})
}

func TestRouterConcurrency(t *testing.T) {
	r := NewRouter(100)
	defer r.Close()

	subscribers := make([]<-chan Event, 10)
	for i := range subscribers {
		subscribers[i] = r.Subscribe()
	}

	var wg sync.WaitGroup
	numEvents := 100

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numEvents; j++ {
				r.Emit(&CountdownTickEvent{
					BaseEvent: NewBrewEvent(EventCountdownTick),
					Remaining: j,
				})
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 10; j++ {
			ch := r.Subscribe()
			r.Unsubscribe(ch)
		}
	}()

	wg.Wait()

	// Drain channels to verify no panics occurred
	for _, ch := range subscribers {
		for {
			select {
			case <-ch:
			default:
				goto next
			}
		}
	next:
	}
}

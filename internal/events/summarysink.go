package events

import (
	"context"
	"sync"
	"time"
)

// SummaryBufferSize is the recommended buffer size for summary sink
// subscriptions.
const SummaryBufferSize = 1000

// BrewSummary folds one session's events into the digest consumed by the
// note-taking flow after completion.
type BrewSummary struct {
	MethodID       string    `json:"method_id"`
	MethodName     string    `json:"method_name"`
	BeanID         string    `json:"bean_id,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	ElapsedSeconds float64   `json:"elapsed_s"`
	StageCount     int       `json:"stage_count"`
	PauseCount     int       `json:"pause_count"`
	Completed      bool      `json:"completed"`
}

// SummarySink accumulates a BrewSummary over the lifetime of one session.
// A new SessionStartedEvent resets the accumulator, so a single sink can
// span several back-to-back brews.
type SummarySink struct {
	summary BrewSummary
	mu      sync.Mutex
	done    chan struct{}
}

// NewSummarySink creates an empty summary sink.
func NewSummarySink() *SummarySink {
	return &SummarySink{
		done: make(chan struct{}),
	}
}

// Start begins processing events. It runs until the context is canceled or
// the events channel is closed.
func (s *SummarySink) Start(ctx context.Context, events <-chan Event) error {
	go s.run(ctx, events)
	return nil
}

func (s *SummarySink) run(ctx context.Context, events <-chan Event) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.handleEvent(event)
		}
	}
}

func (s *SummarySink) handleEvent(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := event.(type) {
	case *SessionStartedEvent:
		s.summary = BrewSummary{
			MethodID:   e.MethodID,
			MethodName: e.MethodName,
			BeanID:     e.BeanID,
			StartedAt:  event.Timestamp(),
			StageCount: e.StageCount,
		}

	case *SessionPausedEvent:
		s.summary.PauseCount++
		s.summary.ElapsedSeconds = e.ElapsedSeconds

	case *SessionCompletedEvent:
		s.summary.Completed = true
		s.summary.ElapsedSeconds = e.ElapsedSeconds
	}
}

// Stop waits for the run goroutine to finish.
func (s *SummarySink) Stop() error {
	<-s.done
	return nil
}

// Summary returns a copy of the current session digest.
func (s *SummarySink) Summary() BrewSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

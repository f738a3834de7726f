// Package notes stores the brew journal: per-brew tasting notes linked to
// the method and bean used.
package notes

import (
	"errors"
	"time"

	"github.com/tmorelle/pourover/internal/events"
)

// ErrNoteNotFound is returned for lookups of unknown note IDs.
var ErrNoteNotFound = errors.New("note not found")

// BrewNote is one journal entry.
type BrewNote struct {
	ID             int64     `json:"id"`
	MethodID       string    `json:"method_id"`
	MethodName     string    `json:"method_name,omitempty"`
	BeanID         string    `json:"bean_id,omitempty"`
	Rating         int       `json:"rating,omitempty"` // 0 = unrated, else 1-5
	Text           string    `json:"text"`
	ElapsedSeconds float64   `json:"elapsed_s,omitempty"`
	Completed      bool      `json:"completed"`
	CreatedAt      time.Time `json:"created_at"`
}

// FromSummary pre-fills a note from a finished session's digest.
func FromSummary(summary events.BrewSummary, text string, rating int) BrewNote {
	return BrewNote{
		MethodID:       summary.MethodID,
		MethodName:     summary.MethodName,
		BeanID:         summary.BeanID,
		Rating:         rating,
		Text:           text,
		ElapsedSeconds: summary.ElapsedSeconds,
		Completed:      summary.Completed,
	}
}

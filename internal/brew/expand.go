package brew

import "sort"

// SubEventKind distinguishes active pours from post-pour waits.
type SubEventKind string

// Sub-event kinds.
const (
	KindPour SubEventKind = "pour"
	KindWait SubEventKind = "wait"
)

// SubEvent is the atomic unit the coordinator schedules: one pour or wait
// interval derived from a stage. The full list is computed once per method
// selection and is immutable for the duration of a session.
type SubEvent struct {
	Kind SubEventKind
	// StartOffset and EndOffset are absolute session offsets in seconds,
	// with EndOffset > StartOffset.
	StartOffset int
	EndOffset   int
	// SourceStage is the index of the originating Stage.
	SourceStage int
	// StageStart and StageEnd are the bounds of the whole source stage,
	// kept here so progress can be computed without the stage list.
	StageStart int
	StageEnd   int
	// Display fields copied from the source stage.
	WaterLabel  string
	TargetWater float64
	Detail      string
	PourType    PourType
	ValveState  ValveState
}

// Duration returns the sub-event length in seconds.
func (e SubEvent) Duration() int {
	return e.EndOffset - e.StartOffset
}

// Expand splits an ordered stage list into atomic pour/wait sub-events.
//
// For each stage the duration is the gap to the previous stage's cumulative
// end. A stage whose duration is not positive is malformed and produces no
// sub-events; everything else degrades gracefully rather than erroring, so
// the worst outcome of bad catalog data is a shorter schedule. The result
// is ordered by StartOffset with no overlaps and covers the schedule
// contiguously except for skipped stages.
func Expand(stages []Stage) []SubEvent {
	out := make([]SubEvent, 0, len(stages)*2)

	prevEnd := 0
	for i, stage := range stages {
		duration := stage.CumulativeEnd - prevEnd
		if duration <= 0 {
			// Non-increasing offset: drop the stage, keep the cursor.
			continue
		}

		pour := duration
		if stage.PourDuration != nil {
			pour = *stage.PourDuration
		}
		if pour < 0 {
			pour = 0
		}
		if pour > duration {
			pour = duration
		}

		base := SubEvent{
			SourceStage: i,
			StageStart:  prevEnd,
			StageEnd:    stage.CumulativeEnd,
			WaterLabel:  stage.WaterLabel(),
			TargetWater: stage.TargetWater,
			Detail:      stage.Label,
			PourType:    stage.PourType,
			ValveState:  stage.ValveState,
		}

		if pour > 0 {
			ev := base
			ev.Kind = KindPour
			ev.StartOffset = prevEnd
			ev.EndOffset = prevEnd + pour
			out = append(out, ev)
		}

		if pour < duration {
			ev := base
			ev.Kind = KindWait
			ev.StartOffset = prevEnd + pour
			ev.EndOffset = stage.CumulativeEnd
			out = append(out, ev)
		}

		prevEnd = stage.CumulativeEnd
	}

	return out
}

// locate returns the index of the sub-event whose [start,end) window
// contains the given elapsed time, or -1 when elapsed falls outside the
// schedule. The list is sorted, so a binary search over start offsets is
// enough.
func locate(subEvents []SubEvent, elapsed float64) int {
	if len(subEvents) == 0 {
		return -1
	}
	if elapsed < float64(subEvents[0].StartOffset) {
		return -1
	}

	// First sub-event starting after elapsed; the candidate is the one before.
	idx := sort.Search(len(subEvents), func(i int) bool {
		return float64(subEvents[i].StartOffset) > elapsed
	})
	idx--

	if elapsed >= float64(subEvents[idx].EndOffset) {
		// Inside a gap left by a skipped malformed stage: treat as still in
		// the preceding sub-event so the stage index never regresses.
		return idx
	}
	return idx
}

// TotalSeconds returns the end offset of the final sub-event, or 0 for an
// empty schedule.
func TotalSeconds(subEvents []SubEvent) int {
	if len(subEvents) == 0 {
		return 0
	}
	return subEvents[len(subEvents)-1].EndOffset
}

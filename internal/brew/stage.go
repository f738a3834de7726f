// Package brew implements the core brewing session engine: stage expansion,
// the session timer coordinator, and the countdown controller.
package brew

import "fmt"

// PourType classifies how water is poured during a stage. It determines the
// visual treatment only and is opaque to the coordinator.
type PourType string

// Known pour types. Unknown strings normalize to PourOther.
const (
	PourCenter     PourType = "center"
	PourCircle     PourType = "circle"
	PourIce        PourType = "ice"
	PourBypass     PourType = "bypass"
	PourExtraction PourType = "extraction"
	PourBeverage   PourType = "beverage"
	PourOther      PourType = "other"
)

// NormalizePourType maps a raw pour-type string to a known PourType,
// falling back to PourOther rather than passing arbitrary strings through.
func NormalizePourType(raw string) PourType {
	switch PourType(raw) {
	case PourCenter, PourCircle, PourIce, PourBypass, PourExtraction, PourBeverage:
		return PourType(raw)
	default:
		return PourOther
	}
}

// ValveState describes the drip valve position during a stage. It is only
// meaningful for equipment with a controllable valve.
type ValveState string

// Valve states. ValveNone marks stages where the field does not apply.
const (
	ValveNone   ValveState = ""
	ValveOpen   ValveState = "open"
	ValveClosed ValveState = "closed"
)

// Stage is one authored brewing instruction.
type Stage struct {
	// CumulativeEnd is the elapsed time in seconds at which this stage ends.
	// Stages are ordered and strictly increasing in this field; stages that
	// violate this are dropped during expansion.
	CumulativeEnd int `yaml:"end" json:"end"`
	// PourDuration is how long active pouring lasts within the stage, in
	// seconds. Nil means pouring lasts the entire stage.
	PourDuration *int `yaml:"pour,omitempty" json:"pour,omitempty"`
	// Label is the human-readable stage name, e.g. "center pour".
	Label string `yaml:"label" json:"label"`
	// TargetWater is the cumulative target water in grams at stage end.
	TargetWater float64 `yaml:"water" json:"water"`
	// PourType selects the pour animation kind.
	PourType PourType `yaml:"pour_type" json:"pour_type"`
	// ValveState is the valve position for this stage, if any.
	ValveState ValveState `yaml:"valve,omitempty" json:"valve,omitempty"`
}

// WaterLabel renders the stage's cumulative water target for display.
func (s Stage) WaterLabel() string {
	return fmt.Sprintf("%.0fg", s.TargetWater)
}

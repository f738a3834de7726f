package testutil

import "github.com/tmorelle/pourover/internal/brew"

// IntPtr returns a pointer to the given int, for Stage.PourDuration.
func IntPtr(v int) *int { return &v }

// TwoStagePlan is a small schedule with a wait in each stage:
// stage 0 pours 0-10s then waits to 25s, stage 1 pours 25-45s then waits
// to 55s.
func TwoStagePlan() []brew.Stage {
	return []brew.Stage{
		{CumulativeEnd: 25, PourDuration: IntPtr(10), Label: "bloom", TargetWater: 50, PourType: brew.PourCenter},
		{CumulativeEnd: 55, PourDuration: IntPtr(20), Label: "main pour", TargetWater: 200, PourType: brew.PourCircle},
	}
}

// SingleStagePlan is one 30 second stage with no separate wait.
func SingleStagePlan() []brew.Stage {
	return []brew.Stage{
		{CumulativeEnd: 30, Label: "steep", TargetWater: 240, PourType: brew.PourCenter},
	}
}

// SampleMethodsYAML is a catalog file with two methods, one of which has a
// malformed stage that must be dropped on load.
const SampleMethodsYAML = `
equipment:
  - id: cone-01
    name: Ceramic Cone
    pour_animation: spiral
  - id: valve-01
    name: Valve Brewer
    pour_animation: pulse
    has_valve: true

methods:
  - id: light-roast
    name: Light Roast Pour Over
    equipment: cone-01
    coffee_grams: 15
    ratio: 16
    stages:
      - end: 45
        pour: 15
        label: bloom
        water: 45
        pour_type: center
      - end: 90
        pour: 30
        label: main pour
        water: 240
        pour_type: circle
  - id: my-valve-steep
    name: My Valve Steep
    equipment: valve-01
    coffee_grams: 20
    ratio: 15
    stages:
      - end: 30
        label: fill
        water: 300
        pour_type: center
        valve: closed
      - end: 20
        label: bogus
        water: 300
        pour_type: circle
      - end: 150
        pour: 0
        label: steep
        water: 300
        pour_type: other
        valve: closed
      - end: 210
        pour: 0
        label: drain
        water: 300
        pour_type: other
        valve: open
`

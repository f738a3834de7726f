// Package catalog loads and serves the brewing method and equipment
// definitions. Methods come from an embedded builtin set plus optional
// user YAML files; malformed stage data is dropped at load time with a
// warning rather than surfacing later as a runtime error.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tmorelle/pourover/internal/brew"
)

// Equipment describes a brewing device. HasValve gates whether stages may
// carry a valve position.
type Equipment struct {
	ID            string `yaml:"id" json:"id"`
	Name          string `yaml:"name" json:"name"`
	PourAnimation string `yaml:"pour_animation,omitempty" json:"pour_animation,omitempty"`
	HasValve      bool   `yaml:"has_valve,omitempty" json:"has_valve,omitempty"`
}

// Method is one brewing recipe: an ordered stage list plus dose hints.
type Method struct {
	ID          string       `yaml:"id" json:"id"`
	Name        string       `yaml:"name" json:"name"`
	EquipmentID string       `yaml:"equipment" json:"equipment"`
	CoffeeGrams float64      `yaml:"coffee_grams,omitempty" json:"coffee_grams,omitempty"`
	Ratio       float64      `yaml:"ratio,omitempty" json:"ratio,omitempty"`
	Grind       string       `yaml:"grind,omitempty" json:"grind,omitempty"`
	WaterTempC  float64      `yaml:"water_temp_c,omitempty" json:"water_temp_c,omitempty"`
	Stages      []brew.Stage `yaml:"stages" json:"stages"`
}

// TotalSeconds returns the end offset of the method's last stage.
func (m Method) TotalSeconds() int {
	if len(m.Stages) == 0 {
		return 0
	}
	return m.Stages[len(m.Stages)-1].CumulativeEnd
}

// TotalWater returns the cumulative water target of the last stage.
func (m Method) TotalWater() float64 {
	if len(m.Stages) == 0 {
		return 0
	}
	return m.Stages[len(m.Stages)-1].TargetWater
}

// file is the on-disk catalog document shape.
type file struct {
	Equipment []Equipment `yaml:"equipment"`
	Methods   []Method    `yaml:"methods"`
}

// Catalog holds the merged method and equipment sets.
type Catalog struct {
	methods   map[string]Method
	equipment map[string]Equipment
	order     []string
	logger    *slog.Logger
}

// Option configures catalog construction.
type Option func(*Catalog)

// WithLogger sets the logger used for load warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// New creates a catalog pre-populated with the builtin methods.
func New(opts ...Option) (*Catalog, error) {
	c := &Catalog{
		methods:   make(map[string]Method),
		equipment: make(map[string]Equipment),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.mergeYAML(builtinYAML, "builtin"); err != nil {
		return nil, fmt.Errorf("load builtin catalog: %w", err)
	}
	return c, nil
}

// MergeFile layers a user catalog file over the current contents. Entries
// with an existing ID replace the builtin definition. A missing file is
// not an error; a file that fails to parse is.
func (c *Catalog) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read catalog file: %w", err)
	}
	if err := c.mergeYAML(data, path); err != nil {
		return fmt.Errorf("load catalog file %s: %w", path, err)
	}
	return nil
}

func (c *Catalog) mergeYAML(data []byte, origin string) error {
	var doc file
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	for _, eq := range doc.Equipment {
		if eq.ID == "" {
			c.logger.Warn("skipping equipment without id", "origin", origin)
			continue
		}
		c.equipment[eq.ID] = eq
	}

	for _, method := range doc.Methods {
		if method.ID == "" {
			c.logger.Warn("skipping method without id", "origin", origin)
			continue
		}

		sanitized := c.sanitize(method, origin)
		if len(sanitized.Stages) == 0 {
			c.logger.Warn("skipping method with no valid stages",
				"method", method.ID, "origin", origin)
			continue
		}

		if _, exists := c.methods[sanitized.ID]; !exists {
			c.order = append(c.order, sanitized.ID)
		}
		c.methods[sanitized.ID] = sanitized
	}

	return nil
}

// sanitize normalizes pour types, strips valve positions from valveless
// equipment, and drops stages whose end offset does not increase. The
// dropped stages get a warning each so authoring mistakes are visible.
func (c *Catalog) sanitize(method Method, origin string) Method {
	eq, hasEquipment := c.equipment[method.EquipmentID]
	if !hasEquipment && method.EquipmentID != "" {
		c.logger.Warn("method references unknown equipment",
			"method", method.ID, "equipment", method.EquipmentID, "origin", origin)
	}

	stages := make([]brew.Stage, 0, len(method.Stages))
	prevEnd := 0
	for i, stage := range method.Stages {
		if stage.CumulativeEnd <= prevEnd {
			c.logger.Warn("dropping malformed stage: end offset does not increase",
				"method", method.ID, "stage", i, "end_s", stage.CumulativeEnd, "origin", origin)
			continue
		}

		stage.PourType = brew.NormalizePourType(string(stage.PourType))

		if stage.ValveState != brew.ValveNone && (!hasEquipment || !eq.HasValve) {
			c.logger.Warn("stripping valve state: equipment has no valve",
				"method", method.ID, "stage", i, "origin", origin)
			stage.ValveState = brew.ValveNone
		}

		stages = append(stages, stage)
		prevEnd = stage.CumulativeEnd
	}

	method.Stages = stages
	return method
}

// Methods returns all methods in load order, builtins first.
func (c *Catalog) Methods() []Method {
	out := make([]Method, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.methods[id])
	}
	return out
}

// Method looks up a method by ID.
func (c *Catalog) Method(id string) (Method, bool) {
	m, ok := c.methods[id]
	return m, ok
}

// Equipment looks up equipment by ID.
func (c *Catalog) Equipment(id string) (Equipment, bool) {
	eq, ok := c.equipment[id]
	return eq, ok
}

// EquipmentList returns all known equipment sorted by ID.
func (c *Catalog) EquipmentList() []Equipment {
	out := make([]Equipment, 0, len(c.equipment))
	for _, eq := range c.equipment {
		out = append(out, eq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Package config holds the print parameters shared by the command, job
// scripts and the planning pipeline.
//
// Parameters come from three places, applied in order: Default, an optional
// YAML file, then named overrides (job script settings and command-line
// flags) through Set.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/chazu/strata/pkg/clip"
	"gopkg.in/yaml.v2"
)

// ErrInvalidParams wraps every validation failure.
var ErrInvalidParams = errors.New("config: invalid parameters")

// ErrUnknownKey is returned by Set for a name it does not recognise.
var ErrUnknownKey = errors.New("config: unknown key")

// Params are the print parameters. Lengths are in millimetres.
type Params struct {
	// LayerHeight is the slice spacing. It doubles as the extrusion width.
	LayerHeight float64 `yaml:"layerHeight"`
	// WallThickness is rounded to a whole number of extrusion widths.
	WallThickness float64 `yaml:"wallThickness"`
	// InfillDensity is the filled fraction of each layer's interior,
	// between 0 and 1.
	InfillDensity float64 `yaml:"infillDensity"`
	// Volume is the build volume. Nil disables clipping.
	Volume *clip.Volume `yaml:"volume,omitempty"`
	// Workers is the number of layers sliced concurrently.
	Workers int `yaml:"workers"`
	// Resolution is the marching cubes cell count along the longest axis
	// of scripted primitives.
	Resolution int `yaml:"resolution"`
}

// Default returns the parameters used when nothing else is given.
func Default() Params {
	return Params{
		LayerHeight:   0.25,
		WallThickness: 1.5,
		InfillDensity: 0.2,
		Workers:       1,
		Resolution:    200,
	}
}

// Parse decodes YAML over the defaults. Unknown keys are an error.
func Parse(data []byte) (Params, error) {
	p := Default()
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return Params{}, fmt.Errorf("config: parse: %w", err)
	}
	return p, nil
}

// Load reads and parses a YAML parameter file.
func Load(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("config: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return Params{}, fmt.Errorf("%w (%s)", err, path)
	}
	return p, nil
}

// Validate reports the first parameter that cannot be planned with.
func (p Params) Validate() error {
	switch {
	case !positive(p.LayerHeight):
		return fmt.Errorf("%w: layerHeight must be positive, got %v", ErrInvalidParams, p.LayerHeight)
	case !(p.WallThickness >= 0) || math.IsInf(p.WallThickness, 1):
		return fmt.Errorf("%w: wallThickness must be zero or positive, got %v", ErrInvalidParams, p.WallThickness)
	case math.IsNaN(p.InfillDensity) || math.IsInf(p.InfillDensity, 0):
		return fmt.Errorf("%w: infillDensity must be finite, got %v", ErrInvalidParams, p.InfillDensity)
	case p.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidParams, p.Workers)
	case p.Resolution < 0:
		return fmt.Errorf("%w: resolution must not be negative, got %d", ErrInvalidParams, p.Resolution)
	}
	if p.Volume != nil {
		if err := p.Volume.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
	}
	return nil
}

// Normalized returns p with the density folded into [0, 1] (its magnitude,
// capped at 1) and zero counts replaced by their defaults.
func (p Params) Normalized() Params {
	p.InfillDensity = math.Min(math.Abs(p.InfillDensity), 1)
	if p.Workers == 0 {
		p.Workers = 1
	}
	if p.Resolution == 0 {
		p.Resolution = Default().Resolution
	}
	if p.Volume != nil {
		v := *p.Volume
		p.Volume = &v
	}
	return p
}

// WallCount returns the number of wall loops: the wall thickness in layer
// heights, rounded, and at least one.
func (p Params) WallCount() int {
	n := int(math.Round(p.WallThickness / p.LayerHeight))
	if n < 1 {
		return 1
	}
	return n
}

// setters maps override names to the field they change.
var setters = map[string]func(p *Params, v float64){
	"layer-height":   func(p *Params, v float64) { p.LayerHeight = v },
	"wall-thickness": func(p *Params, v float64) { p.WallThickness = v },
	"infill-density": func(p *Params, v float64) { p.InfillDensity = v },
	"workers":        func(p *Params, v float64) { p.Workers = int(v) },
	"resolution":     func(p *Params, v float64) { p.Resolution = int(v) },
	"volume-x":       func(p *Params, v float64) { p.volume().X = v },
	"volume-y":       func(p *Params, v float64) { p.volume().Y = v },
	"volume-z":       func(p *Params, v float64) { p.volume().Z = v },
}

// Keys returns the names accepted by Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set returns a copy of p with the named parameter changed. Setting any
// volume-* key enables clipping; unset volume dimensions stay zero and fail
// validation.
func (p Params) Set(key string, value float64) (Params, error) {
	set, ok := setters[key]
	if !ok {
		return p, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if p.Volume != nil {
		v := *p.Volume
		p.Volume = &v
	}
	set(&p, value)
	return p, nil
}

// Apply calls Set for each override in key order.
func (p Params) Apply(overrides map[string]float64) (Params, error) {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var err error
	for _, k := range keys {
		if p, err = p.Set(k, overrides[k]); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (p *Params) volume() *clip.Volume {
	if p.Volume == nil {
		p.Volume = &clip.Volume{}
	}
	return p.Volume
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

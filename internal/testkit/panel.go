// Package testkit provides deterministic synthetic panel datasets for tests.
package testkit

import (
	"fmt"
	"math/rand"

	"equitrends/domain/panel"
)

// PanelConfig configures the synthetic panel generator.
type PanelConfig struct {
	Individuals  int       `json:"individuals"`
	Periods      int       `json:"periods"`
	Placebos     int       `json:"placebos"`
	Controls     int       `json:"controls"`
	PlaceboCoefs []float64 `json:"placebo_coefs,omitempty"` // defaults to zeros (no pre-trend)
	ControlCoefs []float64 `json:"control_coefs,omitempty"` // defaults to ones
	NoiseSD      float64   `json:"noise_sd"`
	TreatedShare float64   `json:"treated_share"`
	Seed         int64     `json:"seed"`
}

// DefaultPanelConfig returns a small balanced panel with no pre-trend.
func DefaultPanelConfig() PanelConfig {
	return PanelConfig{
		Individuals:  20,
		Periods:      5,
		Placebos:     3,
		Controls:     1,
		NoiseSD:      0.1,
		TreatedShare: 0.5,
		Seed:         42,
	}
}

// PanelGenerator builds synthetic pre-trend panels.
type PanelGenerator struct {
	config PanelConfig
	rng    *rand.Rand
}

// NewPanelGenerator creates a generator for the given config.
func NewPanelGenerator(config PanelConfig) *PanelGenerator {
	return &PanelGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces a balanced panel. Rows are individual-major; the design
// carries one treated-by-pre-period placebo indicator per placebo column,
// then the control regressors. The response follows
//
//	y = placebo effects + control effects + noise
//
// with fixed effects deliberately omitted so the design stays full rank.
func (g *PanelGenerator) Generate() (*panel.Dataset, error) {
	c := g.config
	if c.Individuals < 2 || c.Periods < 2 {
		return nil, fmt.Errorf("panel needs at least 2 individuals and 2 periods, got %dx%d", c.Individuals, c.Periods)
	}
	if c.Placebos < 1 || c.Placebos >= c.Periods {
		return nil, fmt.Errorf("placebo count %d must be in [1, periods-1]", c.Placebos)
	}

	placeboCoefs := c.PlaceboCoefs
	if placeboCoefs == nil {
		placeboCoefs = make([]float64, c.Placebos)
	}
	if len(placeboCoefs) != c.Placebos {
		return nil, fmt.Errorf("placebo_coefs has length %d, want %d", len(placeboCoefs), c.Placebos)
	}
	controlCoefs := c.ControlCoefs
	if controlCoefs == nil {
		controlCoefs = make([]float64, c.Controls)
		for i := range controlCoefs {
			controlCoefs[i] = 1.0
		}
	}
	if len(controlCoefs) != c.Controls {
		return nil, fmt.Errorf("control_coefs has length %d, want %d", len(controlCoefs), c.Controls)
	}

	n := c.Individuals * c.Periods
	p := c.Placebos + c.Controls

	columns := make([]string, 0, p)
	for j := 0; j < c.Placebos; j++ {
		columns = append(columns, fmt.Sprintf("placebo_%d", j+1))
	}
	for j := 0; j < c.Controls; j++ {
		columns = append(columns, fmt.Sprintf("control_%d", j+1))
	}

	ds := &panel.Dataset{
		Response: make([]float64, 0, n),
		Design:   make([][]float64, 0, n),
		Columns:  columns,
		Placebos: c.Placebos,
		IDs:      make([]string, 0, n),
		Times:    make([]int, 0, n),
	}

	treatedCut := int(float64(c.Individuals) * c.TreatedShare)
	for i := 0; i < c.Individuals; i++ {
		treated := i < treatedCut
		id := fmt.Sprintf("unit_%03d", i+1)
		for t := 0; t < c.Periods; t++ {
			row := make([]float64, p)
			var y float64
			for j := 0; j < c.Placebos; j++ {
				if treated && t == j {
					row[j] = 1.0
					y += placeboCoefs[j]
				}
			}
			for j := 0; j < c.Controls; j++ {
				v := g.rng.NormFloat64()
				row[c.Placebos+j] = v
				y += controlCoefs[j] * v
			}
			y += c.NoiseSD * g.rng.NormFloat64()

			ds.Response = append(ds.Response, y)
			ds.Design = append(ds.Design, row)
			ds.IDs = append(ds.IDs, id)
			ds.Times = append(ds.Times, t)
		}
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

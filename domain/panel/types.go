package panel

import (
	"equitrends/domain/core"
)

// Dataset is an immutable view of a balanced or unbalanced panel prepared for
// equivalence testing. The design matrix carries the placebo columns first,
// followed by any control regressors. Individual and period fixed effects are
// assumed to have been absorbed upstream; IDs and Times are retained only to
// derive the cardinalities entering the degrees-of-freedom adjustment.
type Dataset struct {
	Response []float64   `json:"response"`
	Design   [][]float64 `json:"design"` // row-major, len(Response) rows
	Columns  []string    `json:"columns"`
	Placebos int         `json:"placebos"` // leading placebo column count
	IDs      []string    `json:"ids"`
	Times    []int       `json:"times"`
}

// Rows returns the number of observations.
func (d *Dataset) Rows() int { return len(d.Response) }

// Cols returns the number of regressors.
func (d *Dataset) Cols() int {
	if len(d.Design) == 0 {
		return 0
	}
	return len(d.Design[0])
}

// Individuals returns the number of distinct individual identifiers.
func (d *Dataset) Individuals() int {
	seen := make(map[string]struct{}, len(d.IDs))
	for _, id := range d.IDs {
		seen[id] = struct{}{}
	}
	return len(seen)
}

// Periods returns the number of distinct time periods.
func (d *Dataset) Periods() int {
	seen := make(map[int]struct{}, len(d.Times))
	for _, t := range d.Times {
		seen[t] = struct{}{}
	}
	return len(seen)
}

// PlaceboNames returns the names of the leading placebo columns.
func (d *Dataset) PlaceboNames() []string {
	if d.Placebos > len(d.Columns) {
		return d.Columns
	}
	return d.Columns[:d.Placebos]
}

// Validate checks internal dimension agreement.
func (d *Dataset) Validate() error {
	n := len(d.Response)
	if n == 0 {
		return core.NewInvalidArgumentError("response", "must not be empty")
	}
	if len(d.Design) != n {
		return core.NewDimensionError("design", len(d.Design), n)
	}
	p := d.Cols()
	for _, row := range d.Design {
		if len(row) != p {
			return core.NewDimensionError("design row", len(row), p)
		}
	}
	if len(d.IDs) != n {
		return core.NewDimensionError("ids", len(d.IDs), n)
	}
	if len(d.Times) != n {
		return core.NewDimensionError("times", len(d.Times), n)
	}
	if d.Placebos < 1 {
		return core.NewInvalidArgumentError("placebos", "must be at least 1")
	}
	if d.Placebos > p {
		return core.NewDimensionError("placebos", d.Placebos, p)
	}
	if len(d.Columns) != 0 && len(d.Columns) != p {
		return core.NewDimensionError("columns", len(d.Columns), p)
	}
	return nil
}

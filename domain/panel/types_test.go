package panel

import (
	"testing"

	"equitrends/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDataset() *Dataset {
	return &Dataset{
		Response: []float64{1, 2, 3, 4},
		Design:   [][]float64{{1, 0}, {0, 1}, {0, 0}, {0, 0}},
		Columns:  []string{"placebo_1", "gdp"},
		Placebos: 1,
		IDs:      []string{"a", "a", "b", "b"},
		Times:    []int{1, 2, 1, 2},
	}
}

func TestDataset_Validate(t *testing.T) {
	require.NoError(t, validDataset().Validate())
}

func TestDataset_ValidateRejectsBadShapes(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Dataset)
	}{
		{"empty response", func(d *Dataset) { d.Response = nil }},
		{"design row count", func(d *Dataset) { d.Design = d.Design[:3] }},
		{"ragged design", func(d *Dataset) { d.Design[2] = []float64{1} }},
		{"ids length", func(d *Dataset) { d.IDs = d.IDs[:2] }},
		{"times length", func(d *Dataset) { d.Times = append(d.Times, 3) }},
		{"zero placebos", func(d *Dataset) { d.Placebos = 0 }},
		{"placebos exceed columns", func(d *Dataset) { d.Placebos = 3 }},
		{"columns length", func(d *Dataset) { d.Columns = []string{"only_one"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ds := validDataset()
			tc.mutate(ds)
			err := ds.Validate()
			require.Error(t, err)
			assert.True(t, core.IsInvalidArgument(err))
		})
	}
}

func TestDataset_Cardinalities(t *testing.T) {
	ds := validDataset()
	assert.Equal(t, 4, ds.Rows())
	assert.Equal(t, 2, ds.Cols())
	assert.Equal(t, 2, ds.Individuals())
	assert.Equal(t, 2, ds.Periods())
	assert.Equal(t, []string{"placebo_1"}, ds.PlaceboNames())
}

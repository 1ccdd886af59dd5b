package optimize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFminbound_Quadratic(t *testing.T) {
	f := func(x float64) float64 { return (x - 2.0) * (x - 2.0) }

	x := Fminbound(f, 0, 5, 1e-10, 0)
	assert.InDelta(t, 2.0, x, 1e-8)
}

func TestFminbound_BoundarySolution(t *testing.T) {
	// Minimum of x^2 over [1, 3] sits on the lower bound.
	f := func(x float64) float64 { return x * x }

	x := Fminbound(f, 1, 3, 1e-8, 0)
	assert.InDelta(t, 1.0, x, 1e-4)
}

func TestFminbound_SwapsReversedBounds(t *testing.T) {
	f := func(x float64) float64 { return (x - 2.0) * (x - 2.0) }

	forward := Fminbound(f, 0, 5, 1e-10, 0)
	reversed := Fminbound(f, 5, 0, 1e-10, 0)
	assert.Equal(t, forward, reversed)
}

func TestFminbound_NonSmooth(t *testing.T) {
	// |x - 1.3| is unimodal but has no derivative at the minimum.
	f := func(x float64) float64 { return math.Abs(x - 1.3) }

	x := Fminbound(f, 0, 4, 1e-12, 0)
	assert.InDelta(t, 1.3, x, 1e-8)
}

func TestFminbound_RespectsEvaluationBudget(t *testing.T) {
	calls := 0
	f := func(x float64) float64 {
		calls++
		return math.Sin(x)
	}

	Fminbound(f, 0, 10, 1e-30, 25)
	assert.LessOrEqual(t, calls, 25)
}

func TestBrentRoot_Sqrt2(t *testing.T) {
	f := func(x float64) float64 { return x*x - 2.0 }

	root, err := BrentRoot(f, 0, 2, 1e-15, 0)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2, root, 1e-12)
}

func TestBrentRoot_TranscendentalRoot(t *testing.T) {
	f := func(x float64) float64 { return math.Cos(x) - x }

	root, err := BrentRoot(f, 0, 1, 1e-15, 0)
	require.NoError(t, err)
	// Dottie number.
	assert.InDelta(t, 0.7390851332151607, root, 1e-12)
}

func TestBrentRoot_RejectsNonBracketingInterval(t *testing.T) {
	f := func(x float64) float64 { return x*x + 1.0 }

	_, err := BrentRoot(f, -1, 1, 1e-12, 0)
	require.Error(t, err)
}

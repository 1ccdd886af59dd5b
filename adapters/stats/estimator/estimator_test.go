package estimator

import (
	"math"
	"math/rand"
	"testing"

	"equitrends/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// buildRegression creates a synthetic regression y = X*beta + noise with a
// seeded generator so results are reproducible.
func buildRegression(t *testing.T, n int, beta []float64, noiseSD float64, seed int64) ([]float64, *mat.Dense) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	p := len(beta)
	x := mat.NewDense(n, p, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		var v float64
		for j := 0; j < p; j++ {
			xi := rng.NormFloat64()
			x.Set(i, j, xi)
			v += xi * beta[j]
		}
		y[i] = v + noiseSD*rng.NormFloat64()
	}
	return y, x
}

func TestOLS_RecoversCoefficientsWithoutNoise(t *testing.T) {
	want := []float64{0.1, -0.2, 0.3}
	y, x := buildRegression(t, 60, want, 0, 1)

	got, err := OLS(y, x)
	require.NoError(t, err)
	for j := range want {
		assert.InDelta(t, want[j], got[j], 1e-10)
	}
}

func TestOLS_DimensionMismatch(t *testing.T) {
	_, x := buildRegression(t, 10, []float64{1}, 0, 1)
	_, err := OLS([]float64{1, 2, 3}, x)
	assert.True(t, core.IsInvalidArgument(err))
}

func TestCoefficientCovariance_DiagonalPositive(t *testing.T) {
	_, x := buildRegression(t, 200, []float64{0.5, -0.5}, 0.1, 2)

	cov, err := CoefficientCovariance(x, 0.04)
	require.NoError(t, err)
	r, c := cov.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 2, c)
	assert.Greater(t, cov.At(0, 0), 0.0)
	assert.Greater(t, cov.At(1, 1), 0.0)
}

func TestConstrainedOLS_FastPathReturnsStartUnchanged(t *testing.T) {
	y, x := buildRegression(t, 100, []float64{0.1, 0.2, 0.3, 0.4, 0.5}, 0.1, 42)
	start := []float64{0.1, 0.2, 0.3, 0.4, 0.5}

	// delta = 0.05 < max(|start[:3]|) = 0.3: constraint already holds.
	fit, err := ConstrainedOLS(y, x, 0.05, 3, start, math.NaN())
	require.NoError(t, err)
	assert.True(t, fit.Converged)
	assert.Equal(t, start, fit.Coefficients)
	assert.Zero(t, fit.Violation)
}

func TestConstrainedOLS_FastPathWithPrecomputedMax(t *testing.T) {
	y, x := buildRegression(t, 50, []float64{0.01, 0.4}, 0.05, 7)
	start := []float64{0.01, 0.4}

	fit, err := ConstrainedOLS(y, x, 0.2, 1, start, 0.25)
	require.NoError(t, err)
	assert.True(t, fit.Converged)
	assert.Equal(t, start, fit.Coefficients)
}

func TestConstrainedOLS_OptimizationSatisfiesMargin(t *testing.T) {
	trueBeta := []float64{0.05, 0.03, 0.02, 0.4, 0.5}
	y, x := buildRegression(t, 100, trueBeta, 0.1, 42)

	start, err := OLS(y, x)
	require.NoError(t, err)
	require.Less(t, MaxAbsLeading(start, 3), 0.5)

	fit, err := ConstrainedOLS(y, x, 0.5, 3, start, math.NaN())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, MaxAbsLeading(fit.Coefficients, 3), 0.5-1e-8)

	// The constrained fit can never beat the unconstrained one.
	unconstrained := meanSquaredResidual(y, x, start)
	constrained := meanSquaredResidual(y, x, fit.Coefficients)
	assert.GreaterOrEqual(t, constrained, unconstrained-1e-12)
}

func TestConstrainedOLS_Validation(t *testing.T) {
	y, x := buildRegression(t, 20, []float64{0.1, 0.2}, 0.1, 3)
	start := []float64{0.1, 0.2}

	_, err := ConstrainedOLS(y, x, 0, 1, start, math.NaN())
	assert.True(t, core.IsInvalidArgument(err))

	_, err = ConstrainedOLS(y, x, -0.5, 1, start, math.NaN())
	assert.True(t, core.IsInvalidArgument(err))

	_, err = ConstrainedOLS(y, x, 0.5, 0, start, math.NaN())
	assert.True(t, core.IsInvalidArgument(err))

	_, err = ConstrainedOLS(y, x, 0.5, 3, start, math.NaN())
	assert.True(t, core.IsInvalidArgument(err))
}

func TestResidualVariance_WellPosedPanel(t *testing.T) {
	// N=100, p=3, n=20, T=5 -> df = 100-3-20-5+1 = 73.
	beta := []float64{0.1, 0.2, 0.3}
	y, x := buildRegression(t, 100, beta, 0.5, 42)

	ids := make([]string, 100)
	times := make([]int, 100)
	for i := 0; i < 100; i++ {
		ids[i] = string(rune('A' + i/5))
		times[i] = i % 5
	}

	v, err := ResidualVariance(beta, x, y, ids, times)
	require.NoError(t, err)
	assert.Greater(t, v, 0.0)
	assert.False(t, math.IsInf(v, 0))
	// Noise SD 0.5 and exact coefficients: variance should land near 0.25
	// after the df adjustment inflates it a little.
	assert.InDelta(t, 0.25, v, 0.15)
}

func TestResidualVariance_DegreesOfFreedomError(t *testing.T) {
	beta := []float64{0.1}
	y, x := buildRegression(t, 10, beta, 0.1, 5)

	// n=10 individuals, T=1: df = 10-1-10-1+1 = -1.
	ids := make([]string, 10)
	times := make([]int, 10)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}

	_, err := ResidualVariance(beta, x, y, ids, times)
	require.Error(t, err)
	assert.True(t, core.IsDegreesOfFreedomError(err))

	var dfErr *core.DegreesOfFreedomError
	require.ErrorAs(t, err, &dfErr)
	assert.Equal(t, 10, dfErr.Obs)
	assert.Equal(t, 1, dfErr.Regressors)
	assert.Equal(t, 10, dfErr.Individuals)
	assert.Equal(t, 1, dfErr.Periods)
}

func TestResidualVariance_EmptyIdentifiers(t *testing.T) {
	beta := []float64{0.1}
	y, x := buildRegression(t, 10, beta, 0.1, 5)

	_, err := ResidualVariance(beta, x, y, nil, []int{1})
	assert.True(t, core.IsInvalidArgument(err))

	_, err = ResidualVariance(beta, x, y, []string{"a"}, nil)
	assert.True(t, core.IsInvalidArgument(err))
}

package threshold

import (
	"math"
	"testing"

	"equitrends/adapters/stats/foldnorm"
	"equitrends/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinThresholdIU_HitsTargetLevel(t *testing.T) {
	delta, err := MinThresholdIU(0.1, 0.05, 0.05)
	require.NoError(t, err)

	p, err := foldnorm.CDF(0.1, delta, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, p, 1e-6)
}

func TestMinThresholdIU_LargeCoefBoundarySolution(t *testing.T) {
	// coef = 5, sd = 0.1: the natural interval [coef-10sd, 10sd] = [4, 1] is
	// reversed; after the swap the search runs over [1, 4] and lands on a
	// boundary instead of failing.
	delta, err := MinThresholdIU(5.0, 0.1, 0.05)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, delta, 1.0)
	assert.LessOrEqual(t, delta, 4.0)
}

func TestMinThresholdMean_HitsTargetLevel(t *testing.T) {
	delta, err := MinThresholdMean(0.1, 0.05, 0.05)
	require.NoError(t, err)

	p, err := foldnorm.CDF(0.1, delta, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, p, 1e-6)
}

func TestMinThresholds_AgreeOnOverlappingIntervals(t *testing.T) {
	// Both variants solve the same equation; where both intervals contain
	// the solution they must agree closely.
	iu, err := MinThresholdIU(0.1, 0.05, 0.05)
	require.NoError(t, err)
	mean, err := MinThresholdMean(0.1, 0.05, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, iu, mean, 1e-6)
}

func TestMinThresholdBootstrap_LocatesStepCrossing(t *testing.T) {
	reject := func(delta float64) bool { return delta >= 3.0 }

	delta, err := MinThresholdBootstrap(reject, 1.0, 0.5)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, delta, 1.0)
	assert.LessOrEqual(t, delta, 8.5)
	assert.InDelta(t, 3.0, delta, 1e-3)
}

func TestMinThresholdBootstrap_AlwaysRejectingPredicate(t *testing.T) {
	// reject everywhere: the wrapper is -exp(-delta), minimized at the lower
	// bound.
	delta, err := MinThresholdBootstrap(func(float64) bool { return true }, 2.0, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, delta, 1e-3)
}

func TestMinThreshold_Validation(t *testing.T) {
	_, err := MinThresholdIU(-0.1, 0.05, 0.05)
	assert.True(t, core.IsInvalidArgument(err))

	_, err = MinThresholdIU(0.1, 0, 0.05)
	assert.True(t, core.IsInvalidArgument(err))

	_, err = MinThresholdIU(0.1, 0.05, 1.0)
	assert.True(t, core.IsInvalidArgument(err))

	_, err = MinThresholdMean(0.1, 0.05, 0)
	assert.True(t, core.IsInvalidArgument(err))

	_, err = MinThresholdBootstrap(nil, 1.0, 0.5)
	assert.True(t, core.IsInvalidArgument(err))

	_, err = MinThresholdBootstrap(func(float64) bool { return true }, -1.0, 0.5)
	assert.True(t, core.IsInvalidArgument(err))

	_, err = MinThresholdBootstrap(func(float64) bool { return true }, 1.0, 0)
	assert.True(t, core.IsInvalidArgument(err))
}

func TestMinThresholdIU_SolutionInsideInterval(t *testing.T) {
	for _, tc := range []struct{ coef, sd, alpha float64 }{
		{0.05, 0.02, 0.05},
		{0.2, 0.1, 0.01},
		{0.0, 0.1, 0.10},
	} {
		delta, err := MinThresholdIU(tc.coef, tc.sd, tc.alpha)
		require.NoError(t, err)
		lo := math.Max(0, tc.coef-10*tc.sd)
		hi := 10 * tc.sd
		if lo > hi {
			lo, hi = hi, lo
		}
		assert.GreaterOrEqual(t, delta, lo)
		assert.LessOrEqual(t, delta, hi)
	}
}

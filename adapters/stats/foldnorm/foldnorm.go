// Package foldnorm evaluates the folded normal distribution: the law of |X|
// for X ~ N(mean, sd^2). Placebo effect magnitudes are modeled this way, so
// both the CDF and its inverse must track the external reference to near
// machine precision.
package foldnorm

import (
	"math"

	"equitrends/domain/core"
	"equitrends/internal/optimize"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// ScaleFloor is the sd below which the distribution is treated as a
	// point mass at |mean|.
	ScaleFloor = 1e-15

	// ShapeCeiling is the |mean|/sd ratio above which the folded tail below
	// zero carries no mass in double precision and N(|mean|, sd^2) clamped
	// at zero is exact.
	ShapeCeiling = 1e10
)

// CDF returns P(|X| <= x) for X ~ N(mean, sd^2).
//
// Uses the direct two-term formula
//
//	F(x) = Phi((x-|mean|)/sd) + Phi((x+|mean|)/sd) - 1
//
// clipped into [0, 1], which stays stable in the tails where a generic
// distribution call loses digits.
func CDF(x, mean, sd float64) (float64, error) {
	if x < 0 {
		return 0, core.NewNonNegativeError("x", x)
	}
	if sd <= 0 {
		return 0, core.NewPositiveError("sd", sd)
	}

	muAbs := math.Abs(mean)

	// Point mass at |mean|: step function.
	if sd < ScaleFloor {
		if x >= muAbs {
			return 1.0, nil
		}
		return 0.0, nil
	}

	p := distuv.UnitNormal.CDF((x-muAbs)/sd) + distuv.UnitNormal.CDF((x+muAbs)/sd) - 1.0
	return clamp01(p), nil
}

// Quantile returns the p-th quantile of |X| for X ~ N(mean, sd^2).
// Only |mean| enters the computation, so Quantile(p, m, s) equals
// Quantile(p, -m, s) exactly.
func Quantile(p, mean, sd float64) (float64, error) {
	if p <= 0 || p >= 1 {
		return 0, core.NewProbabilityError("p", p)
	}
	if sd <= 0 {
		return 0, core.NewPositiveError("sd", sd)
	}

	muAbs := math.Abs(mean)

	// Point mass at |mean|.
	if sd < ScaleFloor {
		return muAbs, nil
	}

	// Extreme shape: the reflected tail is gone to double precision, the
	// distribution is N(|mean|, sd^2) restricted to be non-negative.
	if muAbs/sd > ShapeCeiling {
		return math.Max(0.0, muAbs+sd*distuv.UnitNormal.Quantile(p)), nil
	}

	return invertCDF(p, muAbs, sd)
}

// QuantileVec applies Quantile element-wise across equal-length slices.
func QuantileVec(p, mean, sd []float64) ([]float64, error) {
	if len(mean) != len(p) {
		return nil, core.NewDimensionError("mean", len(mean), len(p))
	}
	if len(sd) != len(p) {
		return nil, core.NewDimensionError("sd", len(sd), len(p))
	}
	out := make([]float64, len(p))
	for i := range p {
		q, err := Quantile(p[i], mean[i], sd[i])
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

// invertCDF solves F(x) = p by Brent root-finding on the stable CDF formula,
// the same approach the reference's generic ppf machinery takes.
func invertCDF(p, muAbs, sd float64) (float64, error) {
	g := func(x float64) float64 {
		v := distuv.UnitNormal.CDF((x-muAbs)/sd) + distuv.UnitNormal.CDF((x+muAbs)/sd) - 1.0
		return clamp01(v) - p
	}

	// F(0) = 0 < p, so zero always works as the lower bracket. Grow the
	// upper bracket geometrically from a 10-sigma start until it clears p.
	hi := muAbs + 10.0*sd
	for i := 0; g(hi) < 0; i++ {
		if i >= 100 {
			return 0, core.ErrNoConvergence
		}
		hi *= 2.0
	}

	return optimize.BrentRoot(g, 0.0, hi, 1e-15*(1.0+hi), 0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

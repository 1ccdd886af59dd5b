// Package threshold locates the smallest equivalence margin at which each of
// the three testing procedures rejects the "no meaningful pre-trend" null.
// Each search is a bounded one-dimensional minimization of a non-negative
// penalty that vanishes at the target margin.
package threshold

import (
	"math"

	"equitrends/adapters/stats/foldnorm"
	"equitrends/domain/core"
	"equitrends/internal/optimize"
)

const (
	// iuPenaltyScale blows the squared probability gap up so that the
	// minimizer's absolute tolerance acts as a relative criterion on the
	// tiny probability scale. The constants are reference parity, not
	// tuning knobs.
	iuPenaltyScale   = 1e20
	meanPenaltyScale = 1e100

	iuTolerance   = 1e-20
	meanTolerance = 1e-25
)

// RejectFunc reports whether the null is rejected at a candidate margin.
// For the bootstrap variant it is supplied by the caller and typically wraps
// a resampling procedure; it must become stably true for large margins.
type RejectFunc func(delta float64) bool

// MinThresholdIU finds the smallest margin at which the intersection-union
// test rejects: the delta solving CDF(coef; delta, sd) = alpha.
//
// The search interval is [max(0, coef-10*sd), 10*sd] with the endpoints
// swapped when the first exceeds the second; a coefficient that is very
// large relative to its standard error therefore yields a boundary solution
// rather than an error.
func MinThresholdIU(coef, sd, alpha float64) (float64, error) {
	if err := validateSearch(coef, sd, alpha); err != nil {
		return 0, err
	}

	objective := func(delta float64) float64 {
		p, _ := foldnorm.CDF(coef, delta, sd)
		diff := p - alpha
		return iuPenaltyScale * diff * diff
	}

	lo := math.Max(0, coef-10*sd)
	hi := 10 * sd
	return optimize.Fminbound(objective, lo, hi, iuTolerance, 0), nil
}

// MinThresholdMean finds the smallest margin at which the mean test rejects,
// over [max(0, coef-4*sd), coef+4*sd].
func MinThresholdMean(coef, sd, alpha float64) (float64, error) {
	if err := validateSearch(coef, sd, alpha); err != nil {
		return 0, err
	}

	objective := func(delta float64) float64 {
		p, _ := foldnorm.CDF(coef, delta, sd)
		diff := p - alpha
		return meanPenaltyScale * diff * diff
	}

	lo := math.Max(0, coef-4*sd)
	hi := coef + 4*sd
	return optimize.Fminbound(objective, lo, hi, meanTolerance, 0), nil
}

// MinThresholdBootstrap finds the smallest margin at which the caller's
// rejection predicate first holds, over [maxAbsCoef, maxAbsCoef+15*maxSD].
//
// The wrapper -exp(-delta) on rejection and +exp(-delta) otherwise is
// negative exactly where the test rejects and decays toward zero either way,
// so its minimum sits at the rejection boundary without any monotonicity
// assumption beyond the predicate's contract.
func MinThresholdBootstrap(reject RejectFunc, maxAbsCoef, maxSD float64) (float64, error) {
	if maxAbsCoef < 0 {
		return 0, core.NewNonNegativeError("maxAbsCoef", maxAbsCoef)
	}
	if maxSD <= 0 {
		return 0, core.NewPositiveError("maxSD", maxSD)
	}
	if reject == nil {
		return 0, core.NewInvalidArgumentError("reject", "must not be nil")
	}

	wrapper := func(delta float64) float64 {
		v := math.Exp(-delta)
		if reject(delta) {
			return -v
		}
		return v
	}

	lo := maxAbsCoef
	hi := maxAbsCoef + 15*maxSD
	return optimize.Fminbound(wrapper, lo, hi, optimize.DefaultXAtol, 0), nil
}

func validateSearch(coef, sd, alpha float64) error {
	if coef < 0 {
		return core.NewNonNegativeError("coef", coef)
	}
	if sd <= 0 {
		return core.NewPositiveError("sd", sd)
	}
	if alpha <= 0 || alpha >= 1 {
		return core.NewProbabilityError("alpha", alpha)
	}
	return nil
}

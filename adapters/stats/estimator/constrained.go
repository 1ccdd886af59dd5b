package estimator

import (
	"fmt"
	"math"

	"equitrends/domain/core"
	"equitrends/domain/equivalence"
	"equitrends/internal"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// searchProfile bundles the tolerance/step/budget settings of one
// optimization attempt. The two profiles reproduce the reference's
// first-try and tightened-retry parameterizations.
type searchProfile struct {
	simplexSize float64
	tol         float64
	maxEvals    int
}

var (
	firstAttempt = searchProfile{simplexSize: 0.5, tol: 1e-8, maxEvals: 2_000_000}
	retryAttempt = searchProfile{simplexSize: 0.1, tol: 1e-10, maxEvals: 5_000_000}
)

// violationWarnLimit is the constraint slack above which a non-fatal
// diagnostic is emitted. The result is still returned.
const violationWarnLimit = 1e-8

// MaxAbsLeading returns max(|beta[0:k]|).
func MaxAbsLeading(beta []float64, k int) float64 {
	var m float64
	for _, b := range beta[:k] {
		if a := math.Abs(b); a > m {
			m = a
		}
	}
	return m
}

// ConstrainedOLS minimizes the mean squared residual subject to
// max(|beta[0:placebos]|) >= delta.
//
// Fast path: when the starting vector already satisfies the constraint the
// start is returned unchanged with converged=true and no optimizer call.
// Pass maxUnconstr = NaN to have it derived from start; a precomputed value
// (from a prior unconstrained fit) skips the scan.
//
// Optimization path: derivative-free Nelder-Mead seeded at start, evaluated
// on the feasible set by snapping the leading placebo coefficient onto the
// margin boundary. A failed first attempt is retried once with a tighter
// tolerance, a smaller initial simplex and a larger evaluation budget. The
// convergence flag reports the underlying optimizer's own success claim.
func ConstrainedOLS(y []float64, x *mat.Dense, delta float64, placebos int, start []float64, maxUnconstr float64) (equivalence.FitResult, error) {
	if delta <= 0 {
		return equivalence.FitResult{}, core.NewPositiveError("delta", delta)
	}
	if placebos < 1 {
		return equivalence.FitResult{}, core.NewInvalidArgumentError("placebos", "must be at least 1")
	}
	n, p := x.Dims()
	if len(y) != n {
		return equivalence.FitResult{}, core.NewDimensionError("response", len(y), n)
	}
	if len(start) != p {
		return equivalence.FitResult{}, core.NewDimensionError("start", len(start), p)
	}
	if placebos > p {
		return equivalence.FitResult{}, core.NewDimensionError("placebos", placebos, p)
	}

	if math.IsNaN(maxUnconstr) {
		maxUnconstr = MaxAbsLeading(start, placebos)
	}

	// Fast path: the unconstrained fit already sits on or beyond the margin.
	if maxUnconstr >= delta {
		out := make([]float64, p)
		copy(out, start)
		return equivalence.FitResult{Coefficients: out, Converged: true}, nil
	}

	objective := func(beta []float64) float64 {
		return meanSquaredResidual(y, x, projectOntoMargin(beta, placebos, delta))
	}

	result, converged := minimizeWithRetry(objective, start)
	if result == nil {
		return equivalence.FitResult{}, fmt.Errorf("%w: constrained search produced no result", core.ErrNoConvergence)
	}

	beta := projectOntoMargin(result.X, placebos, delta)
	violation := delta - MaxAbsLeading(beta, placebos)
	if violation < 0 {
		violation = 0
	}
	if violation > violationWarnLimit {
		internal.DefaultLogger.Warn("constraint violation %.2e exceeds %.0e; results may be unreliable", violation, violationWarnLimit)
	}

	return equivalence.FitResult{Coefficients: beta, Converged: converged, Violation: violation}, nil
}

// minimizeWithRetry runs Nelder-Mead under the first profile and retries once
// with the tightened profile when the optimizer does not claim convergence.
func minimizeWithRetry(objective func([]float64) float64, start []float64) (*optimize.Result, bool) {
	result, ok := minimizeOnce(objective, start, firstAttempt)
	if ok {
		return result, true
	}
	retry, ok := minimizeOnce(objective, start, retryAttempt)
	if retry != nil {
		return retry, ok
	}
	return result, false
}

func minimizeOnce(objective func([]float64) float64, start []float64, prof searchProfile) (*optimize.Result, bool) {
	problem := optimize.Problem{Func: objective}
	method := &optimize.NelderMead{SimplexSize: prof.simplexSize}
	settings := &optimize.Settings{
		FuncEvaluations: prof.maxEvals,
		Converger: &optimize.FunctionConverge{
			Absolute:   prof.tol,
			Iterations: 50,
		},
	}

	x0 := make([]float64, len(start))
	copy(x0, start)

	result, err := optimize.Minimize(problem, x0, settings, method)
	if result == nil {
		return nil, false
	}
	return result, err == nil && result.Status == optimize.FunctionConvergence
}

// projectOntoMargin maps a candidate onto the feasible set by pushing the
// largest-magnitude placebo coefficient out to +-delta when the constraint
// is slack. Candidates already satisfying the constraint pass through.
func projectOntoMargin(beta []float64, placebos int, delta float64) []float64 {
	if MaxAbsLeading(beta, placebos) >= delta {
		return beta
	}
	j := 0
	for i := 1; i < placebos; i++ {
		if math.Abs(beta[i]) > math.Abs(beta[j]) {
			j = i
		}
	}
	out := make([]float64, len(beta))
	copy(out, beta)
	if out[j] < 0 {
		out[j] = -delta
	} else {
		out[j] = delta
	}
	return out
}

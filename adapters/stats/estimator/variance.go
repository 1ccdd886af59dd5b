package estimator

import (
	"equitrends/domain/core"

	"gonum.org/v1/gonum/mat"
)

// ResidualVariance computes the degrees-of-freedom-adjusted residual
// variance sigma^2 = sum((y - X*beta)^2) / df with
//
//	df = N - p - n - T + 1
//
// where n and T are the distinct individual and period counts. The -n-T+1
// term charges for the individual and time fixed effects absorbed upstream.
func ResidualVariance(beta []float64, x *mat.Dense, y []float64, ids []string, times []int) (float64, error) {
	if len(ids) == 0 {
		return 0, core.NewInvalidArgumentError("ids", "must not be empty")
	}
	if len(times) == 0 {
		return 0, core.NewInvalidArgumentError("times", "must not be empty")
	}
	n, p := x.Dims()
	if len(y) != n {
		return 0, core.NewDimensionError("response", len(y), n)
	}
	if len(beta) != p {
		return 0, core.NewDimensionError("beta", len(beta), p)
	}
	if len(ids) != n {
		return 0, core.NewDimensionError("ids", len(ids), n)
	}
	if len(times) != n {
		return 0, core.NewDimensionError("times", len(times), n)
	}

	uniqueIDs := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		uniqueIDs[id] = struct{}{}
	}
	uniqueTimes := make(map[int]struct{}, len(times))
	for _, t := range times {
		uniqueTimes[t] = struct{}{}
	}

	df := n - p - len(uniqueIDs) - len(uniqueTimes) + 1
	if df <= 0 {
		return 0, &core.DegreesOfFreedomError{
			DF:          df,
			Obs:         n,
			Regressors:  p,
			Individuals: len(uniqueIDs),
			Periods:     len(uniqueTimes),
		}
	}

	var ssr float64
	for _, r := range Residuals(y, x, beta) {
		ssr += r * r
	}
	return ssr / float64(df), nil
}

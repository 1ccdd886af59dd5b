// Package estimator fits the placebo regression: unconstrained least squares
// for the test statistics, and a constrained variant whose solution is forced
// onto the equivalence-margin boundary for bootstrap recentring.
package estimator

import (
	"fmt"

	"equitrends/domain/core"

	"gonum.org/v1/gonum/mat"
)

// DesignMatrix builds a dense design matrix from row-major slices.
func DesignMatrix(rows [][]float64) *mat.Dense {
	if len(rows) == 0 {
		return &mat.Dense{}
	}
	p := len(rows[0])
	data := make([]float64, 0, len(rows)*p)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), p, data)
}

// OLS computes the unconstrained least-squares coefficients via QR.
func OLS(y []float64, x *mat.Dense) ([]float64, error) {
	n, p := x.Dims()
	if len(y) != n {
		return nil, core.NewDimensionError("response", len(y), n)
	}
	if n < p {
		return nil, core.NewInvalidArgumentError("design", fmt.Sprintf("has more regressors (%d) than observations (%d)", p, n))
	}

	var qr mat.QR
	qr.Factorize(x)

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, mat.NewVecDense(n, y)); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSingularDesign, err)
	}

	out := make([]float64, p)
	for i := 0; i < p; i++ {
		out[i] = beta.AtVec(i)
	}
	return out, nil
}

// CoefficientCovariance returns sigma2 * (X'X)^-1, the homoskedastic
// covariance of the OLS coefficients.
func CoefficientCovariance(x *mat.Dense, sigma2 float64) (*mat.Dense, error) {
	if sigma2 <= 0 {
		return nil, core.NewPositiveError("sigma2", sigma2)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSingularDesign, err)
	}
	inv.Scale(sigma2, &inv)
	return &inv, nil
}

// meanSquaredResidual is the optimization objective: mean, not sum, of
// squared residuals. The scaling matters for parity with the reference
// optimizer's stopping rules.
func meanSquaredResidual(y []float64, x *mat.Dense, beta []float64) float64 {
	n, p := x.Dims()
	var fitted mat.VecDense
	fitted.MulVec(x, mat.NewVecDense(p, beta))

	var ssr float64
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		ssr += r * r
	}
	return ssr / float64(n)
}

// Residuals returns y - X*beta.
func Residuals(y []float64, x *mat.Dense, beta []float64) []float64 {
	n, p := x.Dims()
	var fitted mat.VecDense
	fitted.MulVec(x, mat.NewVecDense(p, beta))

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = y[i] - fitted.AtVec(i)
	}
	return out
}

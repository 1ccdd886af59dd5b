// Package optimize holds the one-dimensional search primitives the
// equivalence tests are built on: a bounded Brent minimizer matching the
// numerics of scipy's minimize_scalar(method='bounded') / R's optimize(), and
// a Brent-Dekker root finder used to invert the folded normal CDF.
package optimize

import (
	"math"

	"equitrends/domain/core"
)

const (
	// DefaultXAtol is the absolute tolerance used when the caller does not
	// care about sub-default resolution (the reference default).
	DefaultXAtol = 1e-5

	// DefaultMaxIter bounds the number of function evaluations per search
	// (the reference default budget).
	DefaultMaxIter = 500

	// goldenMean is (3 - sqrt(5))/2, the golden-section step fraction.
	goldenMean = 0.5 * (3.0 - 2.2360679774997896964091736687747)
)

var sqrtEps = math.Sqrt(2.2e-16)

// Fminbound minimizes f over the closed interval [lo, hi] using golden-section
// search with successive parabolic interpolation. The iteration, including the
// convergence test |x - mid| <= 2*tol1 - (hi-lo)/2, mirrors the bounded Brent
// routine of the external reference so that threshold searches land on the
// same abscissa to within xatol.
//
// Endpoints are swapped when lo > hi, reproducing the permissive-bounds
// convention of the reference optimizer. Pass xatol <= 0 or maxIter <= 0 to
// get the defaults.
func Fminbound(f func(float64) float64, lo, hi, xatol float64, maxIter int) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if xatol <= 0 {
		xatol = DefaultXAtol
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	a, b := lo, hi
	fulc := a + goldenMean*(b-a)
	nfc, xf := fulc, fulc
	rat, e := 0.0, 0.0
	x := xf
	fx := f(x)
	num := 1
	ffulc, fnfc := fx, fx
	xm := 0.5 * (a + b)
	tol1 := sqrtEps*math.Abs(xf) + xatol/3.0
	tol2 := 2.0 * tol1

	for math.Abs(xf-xm) > tol2-0.5*(b-a) {
		golden := true
		// Parabolic fit when the last step was long enough to trust.
		if math.Abs(e) > tol1 {
			golden = false
			r := (xf - nfc) * (fx - ffulc)
			q := (xf - fulc) * (fx - fnfc)
			p := (xf-fulc)*q - (xf-nfc)*r
			q = 2.0 * (q - r)
			if q > 0.0 {
				p = -p
			}
			q = math.Abs(q)
			r = e
			e = rat
			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-xf) && p < q*(b-xf) {
				rat = p / q
				x = xf + rat
				if x-a < tol2 || b-x < tol2 {
					rat = tol1 * signWithZero(xm-xf)
				}
			} else {
				golden = true
			}
		}
		if golden {
			if xf >= xm {
				e = a - xf
			} else {
				e = b - xf
			}
			rat = goldenMean * e
		}

		x = xf + signWithZero(rat)*math.Max(math.Abs(rat), tol1)
		fu := f(x)
		num++

		if fu <= fx {
			if x >= xf {
				a = xf
			} else {
				b = xf
			}
			fulc, ffulc = nfc, fnfc
			nfc, fnfc = xf, fx
			xf, fx = x, fu
		} else {
			if x < xf {
				a = x
			} else {
				b = x
			}
			if fu <= fnfc || nfc == xf {
				fulc, ffulc = nfc, fnfc
				nfc, fnfc = x, fu
			} else if fu <= ffulc || fulc == xf || fulc == nfc {
				fulc, ffulc = x, fu
			}
		}

		xm = 0.5 * (a + b)
		tol1 = sqrtEps*math.Abs(xf) + xatol/3.0
		tol2 = 2.0 * tol1

		if num >= maxIter {
			break
		}
	}

	return xf
}

// signWithZero returns +1 for x >= 0 and -1 otherwise, matching the
// sign(x) + (x == 0) idiom of the reference implementation.
func signWithZero(x float64) float64 {
	if x >= 0 {
		return 1.0
	}
	return -1.0
}

// BrentRoot locates a root of f on [a, b] with the Brent-Dekker method.
// f(a) and f(b) must bracket a sign change. tol is an absolute tolerance on
// the abscissa; machine precision is added internally, so passing a very
// small tol resolves the root as tightly as float64 allows.
func BrentRoot(f func(float64) float64, a, b, tol float64, maxIter int) (float64, error) {
	if maxIter <= 0 {
		maxIter = 200
	}
	fa, fb := f(a), f(b)
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if (fa > 0) == (fb > 0) {
		return 0, core.NewInvalidArgumentError("bracket", "must straddle a sign change")
	}

	c, fc := a, fa
	d := b - a
	e := d
	for i := 0; i < maxIter; i++ {
		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}
		tol1 := 2.0*2.220446049250313e-16*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, nil
		}
		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// Inverse quadratic interpolation, falling back to secant.
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2.0 * xm * s
				q = 1.0 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2.0*xm*q*(q-r) - (b-a)*(r-1.0))
				q = (q - 1.0) * (r - 1.0) * (s - 1.0)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3.0*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2.0*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}
		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += tol1 * signWithZero(xm)
		}
		fb = f(b)
	}
	return b, core.ErrNoConvergence
}

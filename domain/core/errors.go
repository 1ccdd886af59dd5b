package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Argument errors
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch", ErrInvalidArgument)

	// Estimation errors
	ErrDegreesOfFreedom = errors.New("non-positive degrees of freedom")
	ErrNoConvergence    = errors.New("optimization did not converge")
	ErrSingularDesign   = errors.New("design matrix is singular")

	// Dataset errors
	ErrBadDataset = errors.New("malformed panel dataset")
)

// Error constructors with context
func NewInvalidArgumentError(param string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidArgument, param, reason)
}

func NewProbabilityError(param string, got float64) error {
	return fmt.Errorf("%w: %s must be strictly between 0 and 1, got %g", ErrInvalidArgument, param, got)
}

func NewPositiveError(param string, got float64) error {
	return fmt.Errorf("%w: %s must be strictly positive, got %g", ErrInvalidArgument, param, got)
}

func NewNonNegativeError(param string, got float64) error {
	return fmt.Errorf("%w: %s must be non-negative, got %g", ErrInvalidArgument, param, got)
}

func NewDimensionError(detail string, got, want int) error {
	return fmt.Errorf("%w: %s has length %d, want %d", ErrDimensionMismatch, detail, got, want)
}

// DegreesOfFreedomError reports the panel dimensions that produced a
// non-positive df so the caller can see which margin of the panel is short.
type DegreesOfFreedomError struct {
	DF          int
	Obs         int
	Regressors  int
	Individuals int
	Periods     int
}

func (e *DegreesOfFreedomError) Error() string {
	return fmt.Sprintf("degrees of freedom must be positive, got %d (N=%d, p=%d, n=%d, T=%d)",
		e.DF, e.Obs, e.Regressors, e.Individuals, e.Periods)
}

func (e *DegreesOfFreedomError) Unwrap() error { return ErrDegreesOfFreedom }

// Error checking helpers
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsDegreesOfFreedomError(err error) bool {
	return errors.Is(err, ErrDegreesOfFreedom)
}

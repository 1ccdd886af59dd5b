// Package app wires the estimation, distribution and threshold-search layers
// into the three equivalence testing procedures for pre-trends.
package app

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"equitrends/adapters/stats/estimator"
	"equitrends/adapters/stats/foldnorm"
	"equitrends/adapters/stats/threshold"
	"equitrends/domain/core"
	"equitrends/domain/equivalence"
	"equitrends/domain/panel"
	"equitrends/internal"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// Options controls one equivalence test run.
type Options struct {
	Alpha        float64
	Margin       float64 // equivalence margin to decide at; 0 skips the decision
	Replications int     // bootstrap only
	Workers      int     // bootstrap only
	Seed         int64   // bootstrap only
}

// EquivalenceService runs the IU, Mean and Bootstrap equivalence tests over
// a prepared panel dataset. The service is stateless; every call is a pure
// function of the dataset and options.
type EquivalenceService struct {
	log *internal.Logger
}

// NewEquivalenceService creates an equivalence test service.
func NewEquivalenceService(logger *internal.Logger) *EquivalenceService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &EquivalenceService{log: logger}
}

// baseFit carries the unconstrained estimation shared by all three tests.
type baseFit struct {
	x      *mat.Dense
	betas  []float64
	sigma2 float64
	cov    *mat.Dense
	ses    []float64 // placebo standard errors
}

func (s *EquivalenceService) fit(ds *panel.Dataset) (*baseFit, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	x := estimator.DesignMatrix(ds.Design)
	betas, err := estimator.OLS(ds.Response, x)
	if err != nil {
		return nil, err
	}
	sigma2, err := estimator.ResidualVariance(betas, x, ds.Response, ds.IDs, ds.Times)
	if err != nil {
		return nil, err
	}
	cov, err := estimator.CoefficientCovariance(x, sigma2)
	if err != nil {
		return nil, err
	}

	ses := make([]float64, ds.Placebos)
	for i := 0; i < ds.Placebos; i++ {
		ses[i] = math.Sqrt(cov.At(i, i))
	}
	return &baseFit{x: x, betas: betas, sigma2: sigma2, cov: cov, ses: ses}, nil
}

// RunIU performs the intersection-union test: each placebo coefficient is
// tested individually and the joint null is rejected only when every
// component rejects. The reported minimum threshold is the largest of the
// per-coefficient minimum thresholds.
func (s *EquivalenceService) RunIU(ctx context.Context, ds *panel.Dataset, opt Options) (*equivalence.TestResult, error) {
	started := time.Now()
	if err := validateAlpha(opt.Alpha); err != nil {
		return nil, err
	}
	bf, err := s.fit(ds)
	if err != nil {
		return nil, err
	}

	names := placeboNames(ds)
	details := make([]equivalence.PlaceboDetail, ds.Placebos)
	var overall float64
	for i := 0; i < ds.Placebos; i++ {
		coef := math.Abs(bf.betas[i])
		thr, err := threshold.MinThresholdIU(coef, bf.ses[i], opt.Alpha)
		if err != nil {
			return nil, err
		}
		if thr > overall {
			overall = thr
		}
		details[i] = equivalence.PlaceboDetail{
			Name:         names[i],
			Coefficient:  bf.betas[i],
			StdError:     bf.ses[i],
			MinThreshold: thr,
		}
	}

	result := s.newResult(equivalence.TestIU, opt, overall, started)
	result.Placebos = details
	result.Converged = true
	if opt.Margin > 0 {
		rejectAll := true
		for i := 0; i < ds.Placebos; i++ {
			p, err := foldnorm.CDF(math.Abs(bf.betas[i]), opt.Margin, bf.ses[i])
			if err != nil {
				return nil, err
			}
			if p > opt.Alpha {
				rejectAll = false
				break
			}
		}
		result.Reject = &rejectAll
	}

	s.log.Info("iu test complete: min_threshold=%.6g placebos=%d runtime=%dms", overall, ds.Placebos, result.RuntimeMs)
	return result, nil
}

// RunMean performs the mean test on the equally-weighted average placebo
// coefficient, with its standard error derived from the coefficient
// covariance.
func (s *EquivalenceService) RunMean(ctx context.Context, ds *panel.Dataset, opt Options) (*equivalence.TestResult, error) {
	started := time.Now()
	if err := validateAlpha(opt.Alpha); err != nil {
		return nil, err
	}
	bf, err := s.fit(ds)
	if err != nil {
		return nil, err
	}

	k := ds.Placebos
	var sum float64
	for i := 0; i < k; i++ {
		sum += bf.betas[i]
	}
	meanCoef := math.Abs(sum / float64(k))

	// Var(mean) = w' Cov w with equal weights 1/k.
	var v float64
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			v += bf.cov.At(i, j)
		}
	}
	se := math.Sqrt(v) / float64(k)

	thr, err := threshold.MinThresholdMean(meanCoef, se, opt.Alpha)
	if err != nil {
		return nil, err
	}

	result := s.newResult(equivalence.TestMean, opt, thr, started)
	result.Converged = true
	result.Placebos = []equivalence.PlaceboDetail{{
		Name:        "mean_placebo",
		Coefficient: meanCoef,
		StdError:    se,
	}}
	if opt.Margin > 0 {
		p, err := foldnorm.CDF(meanCoef, opt.Margin, se)
		if err != nil {
			return nil, err
		}
		reject := p <= opt.Alpha
		result.Reject = &reject
	}

	s.log.Info("mean test complete: min_threshold=%.6g runtime=%dms", thr, result.RuntimeMs)
	return result, nil
}

// RunBootstrap performs the bootstrap test: for each candidate margin the
// coefficients are re-estimated under the margin constraint, a cluster
// residual bootstrap yields the critical value of max|placebo coefficient|,
// and the null is rejected when the observed maximum falls below it. The
// minimum threshold is located by searching over the margin.
func (s *EquivalenceService) RunBootstrap(ctx context.Context, ds *panel.Dataset, opt Options) (*equivalence.TestResult, error) {
	started := time.Now()
	if err := validateAlpha(opt.Alpha); err != nil {
		return nil, err
	}
	opt = withBootstrapDefaults(opt)

	bf, err := s.fit(ds)
	if err != nil {
		return nil, err
	}

	maxAbs := estimator.MaxAbsLeading(bf.betas, ds.Placebos)
	maxSD := bf.ses[0]
	for _, se := range bf.ses[1:] {
		if se > maxSD {
			maxSD = se
		}
	}

	boot := newClusterBootstrap(ds, bf, opt)

	var predicateErr error
	reject := func(delta float64) bool {
		r, err := boot.reject(ctx, delta)
		if err != nil {
			if predicateErr == nil {
				predicateErr = err
			}
			s.log.Error("bootstrap evaluation failed at delta=%.6g: %v", delta, err)
			return false
		}
		return r
	}

	thr, err := threshold.MinThresholdBootstrap(reject, maxAbs, maxSD)
	if err != nil {
		return nil, err
	}
	if predicateErr != nil {
		return nil, fmt.Errorf("bootstrap threshold search: %w", predicateErr)
	}

	result := s.newResult(equivalence.TestBootstrap, opt, thr, started)
	result.Converged = true
	if opt.Margin > 0 {
		r, err := boot.reject(ctx, opt.Margin)
		if err != nil {
			return nil, err
		}
		result.Reject = &r
	}

	s.log.Info("bootstrap test complete: min_threshold=%.6g reps=%d runtime=%dms", thr, opt.Replications, result.RuntimeMs)
	return result, nil
}

func (s *EquivalenceService) newResult(tt equivalence.TestType, opt Options, thr float64, started time.Time) *equivalence.TestResult {
	return &equivalence.TestResult{
		RunID:        uuid.NewString(),
		Type:         tt,
		Alpha:        opt.Alpha,
		MinThreshold: thr,
		Margin:       opt.Margin,
		RuntimeMs:    time.Since(started).Milliseconds(),
	}
}

func validateAlpha(alpha float64) error {
	if alpha <= 0 || alpha >= 1 {
		return core.NewProbabilityError("alpha", alpha)
	}
	return nil
}

func withBootstrapDefaults(opt Options) Options {
	if opt.Replications <= 0 {
		opt.Replications = 1000
	}
	if opt.Workers <= 0 {
		opt.Workers = runtime.NumCPU()
	}
	if opt.Seed == 0 {
		opt.Seed = 42
	}
	return opt
}

func placeboNames(ds *panel.Dataset) []string {
	names := make([]string, ds.Placebos)
	cols := ds.PlaceboNames()
	for i := range names {
		if i < len(cols) && cols[i] != "" {
			names[i] = cols[i]
		} else {
			names[i] = fmt.Sprintf("placebo_%d", i+1)
		}
	}
	return names
}

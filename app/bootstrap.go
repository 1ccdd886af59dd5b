package app

import (
	"context"
	"math/rand"

	"equitrends/adapters/stats/estimator"
	"equitrends/domain/panel"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// clusterBootstrap resamples whole individual residual blocks, preserving
// the within-individual dependence structure of the panel. Draws are
// deterministic for a fixed seed and worker count: each worker owns a fixed
// slice of replications and its own seeded generator, and the generators do
// not depend on the candidate margin, so the same resampling noise is reused
// across the threshold search.
type clusterBootstrap struct {
	ds       *panel.Dataset
	bf       *baseFit
	opt      Options
	clusters [][]int // row indices per individual, in first-appearance order
	observed float64 // max |unconstrained placebo coefficient|
}

func newClusterBootstrap(ds *panel.Dataset, bf *baseFit, opt Options) *clusterBootstrap {
	byID := make(map[string][]int)
	var order []string
	for i, id := range ds.IDs {
		if _, ok := byID[id]; !ok {
			order = append(order, id)
		}
		byID[id] = append(byID[id], i)
	}
	clusters := make([][]int, len(order))
	for c, id := range order {
		clusters[c] = byID[id]
	}
	return &clusterBootstrap{
		ds:       ds,
		bf:       bf,
		opt:      opt,
		clusters: clusters,
		observed: estimator.MaxAbsLeading(bf.betas, ds.Placebos),
	}
}

// reject evaluates the bootstrap test at one candidate margin: refit under
// the margin constraint, resample residuals by cluster around the
// constrained fit, and compare the observed max placebo magnitude against
// the alpha-quantile of the bootstrap maxima.
func (b *clusterBootstrap) reject(ctx context.Context, delta float64) (bool, error) {
	fit, err := estimator.ConstrainedOLS(b.ds.Response, b.bf.x, delta, b.ds.Placebos, b.bf.betas, b.observed)
	if err != nil {
		return false, err
	}

	resid := estimator.Residuals(b.ds.Response, b.bf.x, fit.Coefficients)
	n := len(resid)
	fitted := make([]float64, n)
	for i := 0; i < n; i++ {
		fitted[i] = b.ds.Response[i] - resid[i]
	}

	reps := b.opt.Replications
	draws := make([]float64, reps)

	g, ctx := errgroup.WithContext(ctx)
	chunk := (reps + b.opt.Workers - 1) / b.opt.Workers
	for w := 0; w < b.opt.Workers; w++ {
		w := w
		lo := w * chunk
		hi := lo + chunk
		if hi > reps {
			hi = reps
		}
		if lo >= hi {
			break
		}
		g.Go(func() error {
			rng := rand.New(rand.NewSource(b.opt.Seed + int64(w)*7919))
			yStar := make([]float64, n)
			for r := lo; r < hi; r++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				for c := range b.clusters {
					donor := b.clusters[rng.Intn(len(b.clusters))]
					for pos, row := range b.clusters[c] {
						yStar[row] = fitted[row] + resid[donor[pos%len(donor)]]
					}
				}

				betaStar, err := estimator.OLS(yStar, b.bf.x)
				if err != nil {
					return err
				}
				draws[r] = estimator.MaxAbsLeading(betaStar, b.ds.Placebos)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	crit, err := stats.Percentile(stats.Float64Data(draws), b.opt.Alpha*100)
	if err != nil {
		return false, err
	}
	return b.observed < crit, nil
}

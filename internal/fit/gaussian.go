package fit

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// PositionSampler draws walker starting positions from the multivariate
// Gaussian defined by a curvature estimate.
type PositionSampler struct {
	normal *distmv.Normal
	dim    int
}

// NewPositionSampler builds a sampler for the estimate. src may be nil for
// a non-deterministic source. The covariance must be positive definite;
// anything the fitter lets through satisfies that already, so a failure
// here means the estimate was constructed by hand.
func NewPositionSampler(est *Estimate, src rand.Source) (*PositionSampler, error) {
	normal, ok := distmv.NewNormal(est.Mean, est.Covariance, src)
	if !ok {
		return nil, fmt.Errorf("position sampler: covariance is not positive definite: %w", ErrIllConditioned)
	}
	return &PositionSampler{normal: normal, dim: len(est.Mean)}, nil
}

// Draw returns n independent samples as an (n × dim) matrix, one walker
// seed per row.
func (s *PositionSampler) Draw(n int) *mat.Dense {
	out := mat.NewDense(n, s.dim, nil)
	for i := 0; i < n; i++ {
		s.normal.Rand(out.RawRowView(i))
	}
	return out
}

package fit

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Sentinel failure identities for errors.Is.
var (
	// ErrTooFewPoints signals a point cloud below the minimum size for a
	// unique quadratic fit.
	ErrTooFewPoints = errors.New("too few points for quadratic fit")

	// ErrIllConditioned signals a Hessian that could not be inverted into a
	// valid covariance, even after regularization.
	ErrIllConditioned = errors.New("ill-conditioned curvature")
)

// FitError wraps a fitting failure with context. Use errors.Is against the
// sentinels above to distinguish the cause.
type FitError struct {
	Reason string
	Err    error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("curvature fit failed: %s: %v", e.Reason, e.Err)
}

func (e *FitError) Unwrap() error { return e.Err }

// Point is one sample of the objective surface.
type Point struct {
	Position []float64
	Fitness  float64
}

// Estimate is the Gaussian model derived from the curvature fit.
type Estimate struct {
	Mean       []float64
	Covariance *mat.SymDense
}

// Sigma returns the per-dimension standard deviations sqrt(diag(cov)).
func (e *Estimate) Sigma() []float64 {
	d := len(e.Mean)
	sigma := make([]float64, d)
	for i := 0; i < d; i++ {
		sigma[i] = math.Sqrt(e.Covariance.At(i, i))
	}
	return sigma
}

// CurvatureFitter fits a quadratic surrogate
//
//	f(x) ≈ a + bᵀ(x−x₀) + ½ (x−x₀)ᵀ H (x−x₀)
//
// to a point cloud by least squares, anchored at the presumed optimum x₀,
// and inverts the extracted Hessian into a covariance matrix. The objective
// is treated as a negative log-likelihood, so the covariance is H⁻¹ with no
// extra scale factor.
type CurvatureFitter struct {
	// MaxCondition bounds the acceptable eigenvalue ratio of the Hessian.
	// Zero means DefaultMaxCondition.
	MaxCondition float64
}

// DefaultMaxCondition is the conditioning bound used when none is set.
const DefaultMaxCondition = 1e12

// MinPoints returns the smallest point cloud admitting a unique quadratic
// fit in dim dimensions: (d+1)(d+2)/2 coefficients.
func MinPoints(dim int) int {
	return (dim + 1) * (dim + 2) / 2
}

// Fit performs the least-squares fit and returns the mean/covariance pair.
// Points with non-finite fitness are discarded before the size check.
func (f *CurvatureFitter) Fit(points []Point, anchor []float64) (*Estimate, error) {
	dim := len(anchor)
	terms := MinPoints(dim)

	usable := points[:0:0]
	for _, p := range points {
		if len(p.Position) != dim {
			return nil, &FitError{
				Reason: fmt.Sprintf("point dimension %d does not match anchor dimension %d", len(p.Position), dim),
				Err:    ErrTooFewPoints,
			}
		}
		if math.IsNaN(p.Fitness) || math.IsInf(p.Fitness, 0) {
			continue
		}
		usable = append(usable, p)
	}
	if len(usable) < terms {
		return nil, &FitError{
			Reason: fmt.Sprintf("%d usable points, need at least %d for dimension %d", len(usable), terms, dim),
			Err:    ErrTooFewPoints,
		}
	}

	// Design matrix: columns are [1, d_1..d_dim, d_i*d_j for i<=j] with
	// d = position - anchor.
	a := mat.NewDense(len(usable), terms, nil)
	y := mat.NewVecDense(len(usable), nil)
	delta := make([]float64, dim)
	for r, p := range usable {
		for i := 0; i < dim; i++ {
			delta[i] = p.Position[i] - anchor[i]
		}
		col := 0
		a.Set(r, col, 1)
		col++
		for i := 0; i < dim; i++ {
			a.Set(r, col, delta[i])
			col++
		}
		for i := 0; i < dim; i++ {
			for j := i; j < dim; j++ {
				a.Set(r, col, delta[i]*delta[j])
				col++
			}
		}
		y.SetVec(r, p.Fitness)
	}

	var beta mat.VecDense
	if err := beta.SolveVec(a, y); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, &FitError{Reason: "least-squares solve", Err: err}
		}
		slog.Warn("quadratic fit is poorly conditioned", "condition", float64(cond))
	}

	// Recover H from the cross-term coefficients: the surrogate carries
	// ½ dᵀHd, so the diagonal coefficients are H_ii/2 and the off-diagonal
	// ones are H_ij.
	hess := mat.NewSymDense(dim, nil)
	col := 1 + dim
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			if i == j {
				hess.SetSym(i, j, 2*beta.AtVec(col))
			} else {
				hess.SetSym(i, j, beta.AtVec(col))
			}
			col++
		}
	}

	cov, err := f.invert(hess)
	if err != nil {
		return nil, err
	}

	return &Estimate{
		Mean:       append([]float64{}, anchor...),
		Covariance: cov,
	}, nil
}

// invert validates the Hessian spectrum and inverts it into the covariance.
func (f *CurvatureFitter) invert(hess *mat.SymDense) (*mat.SymDense, error) {
	maxCond := f.MaxCondition
	if maxCond <= 0 {
		maxCond = DefaultMaxCondition
	}

	var eig mat.EigenSym
	if !eig.Factorize(hess, false) {
		return nil, &FitError{Reason: "eigendecomposition did not converge", Err: ErrIllConditioned}
	}
	values := eig.Values(nil)
	minEig, maxEig := values[0], values[0]
	for _, v := range values[1:] {
		minEig = math.Min(minEig, v)
		maxEig = math.Max(maxEig, v)
	}
	// A flat or saddle direction, or a spectrum spread beyond the condition
	// bound, would invert into extreme or negative variances. That is an
	// explicit failure, never a silently degenerate covariance.
	if minEig <= 0 {
		return nil, &FitError{
			Reason: fmt.Sprintf("Hessian not positive definite (eigenvalues %g .. %g)", minEig, maxEig),
			Err:    ErrIllConditioned,
		}
	}
	if maxEig/minEig > maxCond {
		return nil, &FitError{
			Reason: fmt.Sprintf("Hessian condition %g exceeds bound %g", maxEig/minEig, maxCond),
			Err:    ErrIllConditioned,
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(hess); !ok {
		return nil, &FitError{
			Reason: fmt.Sprintf("Cholesky factorization failed (min eigenvalue %g)", minEig),
			Err:    ErrIllConditioned,
		}
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, &FitError{Reason: "Hessian inversion", Err: ErrIllConditioned}
	}
	return &cov, nil
}

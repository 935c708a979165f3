package pso

import "fmt"

// ParameterSpace holds immutable per-dimension bounds for the search.
// Min[i] < Max[i] must hold for every dimension.
type ParameterSpace struct {
	min []float64
	max []float64
}

// NewParameterSpace validates the bounds and returns a space.
func NewParameterSpace(min, max []float64) (*ParameterSpace, error) {
	if len(min) == 0 {
		return nil, &BoundsError{Reason: "empty bounds"}
	}
	if len(min) != len(max) {
		return nil, &BoundsError{Reason: fmt.Sprintf("length mismatch: %d min vs %d max", len(min), len(max))}
	}
	for i := range min {
		if !(min[i] < max[i]) {
			return nil, &BoundsError{Dim: i, Reason: fmt.Sprintf("min %g not below max %g", min[i], max[i])}
		}
	}
	s := &ParameterSpace{
		min: append([]float64{}, min...),
		max: append([]float64{}, max...),
	}
	return s, nil
}

// Dim returns the number of dimensions.
func (s *ParameterSpace) Dim() int { return len(s.min) }

// Min returns the lower bound of dimension i.
func (s *ParameterSpace) Min(i int) float64 { return s.min[i] }

// Max returns the upper bound of dimension i.
func (s *ParameterSpace) Max(i int) float64 { return s.max[i] }

// Clamp forces x into [Min(i), Max(i)] and reports whether it was moved.
func (s *ParameterSpace) Clamp(i int, x float64) (float64, bool) {
	if x < s.min[i] {
		return s.min[i], true
	}
	if x > s.max[i] {
		return s.max[i], true
	}
	return x, false
}

// BoundsError reports an invalid parameter space.
type BoundsError struct {
	Dim    int
	Reason string
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("invalid bounds (dim %d): %s", e.Dim, e.Reason)
}

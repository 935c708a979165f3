package pso

import (
	"errors"
	"math"
	"testing"
)

func sphere(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return sum
}

func testSpace(t *testing.T, dim int, low, up float64) *ParameterSpace {
	t.Helper()
	min := make([]float64, dim)
	max := make([]float64, dim)
	for i := range min {
		min[i] = low
		max[i] = up
	}
	space, err := NewParameterSpace(min, max)
	if err != nil {
		t.Fatalf("NewParameterSpace: %v", err)
	}
	return space
}

func TestPositionsStayInsideBounds(t *testing.T) {
	space := testSpace(t, 3, -2, 2)
	opt, err := New(space, 20, NewLocalEvaluator(sphere, 1), WithSeed(7))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, swarm := range opt.Sample(30) {
		for pi, p := range swarm.Particles {
			for d, x := range p.Position {
				if x < space.Min(d) || x > space.Max(d) {
					t.Fatalf("particle %d dim %d out of bounds: %v", pi, d, x)
				}
			}
		}
	}
	if err := opt.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
}

func TestGlobalBestMonotone(t *testing.T) {
	space := testSpace(t, 4, -5, 5)
	opt, err := New(space, 24, NewLocalEvaluator(sphere, 1), WithSeed(11))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	prev := math.Inf(1)
	for _, swarm := range opt.Sample(40) {
		if swarm.BestFitness > prev {
			t.Fatalf("global best regressed: %v after %v", swarm.BestFitness, prev)
		}
		prev = swarm.BestFitness
	}
	if err := opt.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
}

func TestSampleYieldsExactlyMaxIterations(t *testing.T) {
	space := testSpace(t, 2, -1, 1)
	opt, err := New(space, 10, NewLocalEvaluator(sphere, 1), WithSeed(3))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	count := 0
	last := -1
	for it := range opt.Sample(17) {
		count++
		last = it
	}
	if count != 17 || last != 16 {
		t.Errorf("got %d snapshots (last index %d), want 17", count, last)
	}
	if err := opt.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
}

func TestSampleIsNotRestartable(t *testing.T) {
	space := testSpace(t, 2, -1, 1)
	opt, err := New(space, 10, NewLocalEvaluator(sphere, 1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for range opt.Sample(3) {
	}
	for range opt.Sample(3) {
		t.Fatal("second sequence yielded an element")
	}
	if !errors.Is(opt.Err(), ErrSequenceConsumed) {
		t.Errorf("Err = %v, want ErrSequenceConsumed", opt.Err())
	}
}

func TestSphereConverges(t *testing.T) {
	space := testSpace(t, 2, -5, 5)
	opt, err := New(space, 48, NewLocalEvaluator(sphere, 1), WithSeed(42))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var last *Swarm
	for _, swarm := range opt.Sample(50) {
		last = swarm
	}
	if err := opt.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	if last.BestFitness > 1e-3 {
		t.Errorf("best fitness %v, want near 0", last.BestFitness)
	}
	for d, x := range last.BestPosition {
		if math.Abs(x) > 0.1 {
			t.Errorf("best position dim %d = %v, want near 0", d, x)
		}
	}
}

func TestPoolMatchesSerialTrajectory(t *testing.T) {
	// The random source only drives particle moves, so batch evaluation
	// order cannot change the trajectory; a pooled run with the same seed
	// must land on the same best.
	run := func(workers int) float64 {
		space := testSpace(t, 3, -5, 5)
		opt, err := New(space, 30, NewLocalEvaluator(sphere, workers), WithSeed(99))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		var best float64
		for _, swarm := range opt.Sample(25) {
			best = swarm.BestFitness
		}
		if err := opt.Err(); err != nil {
			t.Fatalf("Err: %v", err)
		}
		return best
	}

	serial := run(1)
	pooled := run(4)
	if serial != pooled {
		t.Errorf("pooled best %v differs from serial best %v", pooled, serial)
	}
}

func TestNonFiniteFitnessNeverImproves(t *testing.T) {
	// The objective poisons a region with NaN; the global best must stay
	// finite and monotone regardless.
	poisoned := func(v []float64) float64 {
		if v[0] < 0 {
			return math.NaN()
		}
		return sphere(v)
	}
	space := testSpace(t, 2, -5, 5)
	opt, err := New(space, 20, NewLocalEvaluator(poisoned, 1), WithSeed(5))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	prev := math.Inf(1)
	for _, swarm := range opt.Sample(30) {
		if math.IsNaN(swarm.BestFitness) || math.IsInf(swarm.BestFitness, 0) {
			t.Fatal("global best became non-finite")
		}
		if swarm.BestFitness > prev {
			t.Fatalf("global best regressed: %v after %v", swarm.BestFitness, prev)
		}
		prev = swarm.BestFitness
	}
	if err := opt.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
}

func TestAllNonFiniteFails(t *testing.T) {
	alwaysNaN := func(v []float64) float64 { return math.NaN() }
	space := testSpace(t, 2, -1, 1)
	opt, err := New(space, 10, NewLocalEvaluator(alwaysNaN, 1), WithSeed(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for range opt.Sample(5) {
		t.Fatal("sequence yielded despite unusable fitness")
	}
	var evalErr *EvaluationError
	if !errors.As(opt.Err(), &evalErr) {
		t.Errorf("Err = %v, want EvaluationError", opt.Err())
	}
}

func TestSnapshotsAreIndependentCopies(t *testing.T) {
	space := testSpace(t, 2, -5, 5)
	opt, err := New(space, 10, NewLocalEvaluator(sphere, 1), WithSeed(13))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var snapshots []*Swarm
	for _, swarm := range opt.Sample(5) {
		snapshots = append(snapshots, swarm)
	}
	if err := opt.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}

	// Mutating one snapshot must not leak into another.
	snapshots[0].Particles[0].Position[0] = 1234
	if snapshots[1].Particles[0].Position[0] == 1234 {
		t.Error("snapshots share particle storage")
	}
}

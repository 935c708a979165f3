package pso

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math/rand"
)

// Default swarm constants. The values follow the standard constricted PSO
// parameterization.
const (
	DefaultInertia   = 0.72
	DefaultCognitive = 1.193
	DefaultSocial    = 1.193
)

// ErrSequenceConsumed is returned via Err when Sample is invoked a second
// time on the same optimizer.
var ErrSequenceConsumed = errors.New("pso: sample sequence already consumed")

// EvaluationError reports an iteration whose fitness results left the swarm
// without any usable best point.
type EvaluationError struct {
	Iteration int
	Reason    string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed at iteration %d: %s", e.Iteration, e.Reason)
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithConstants overrides the inertia, cognitive and social weights.
func WithConstants(inertia, cognitive, social float64) Option {
	return func(o *Optimizer) {
		o.inertia = inertia
		o.cognitive = cognitive
		o.social = social
	}
}

// WithSeed fixes the random source for reproducible runs.
func WithSeed(seed int64) Option {
	return func(o *Optimizer) {
		o.rng = rand.New(rand.NewSource(seed))
	}
}

// Optimizer runs a particle swarm minimization over a bounded parameter
// space. It exclusively owns its swarm; every snapshot handed out is a deep
// copy.
type Optimizer struct {
	space *ParameterSpace
	eval  Evaluator
	swarm *Swarm
	rng   *rand.Rand

	inertia   float64
	cognitive float64
	social    float64

	initialized bool
	consumed    bool
	err         error
}

// New creates an optimizer with particleCount particles placed uniformly at
// random inside the bounds, velocities zero. Fitness is not evaluated until
// the sample sequence is first pulled.
func New(space *ParameterSpace, particleCount int, eval Evaluator, opts ...Option) (*Optimizer, error) {
	if space == nil {
		return nil, errors.New("pso: nil parameter space")
	}
	if particleCount < 2 {
		return nil, fmt.Errorf("pso: particle count %d too small", particleCount)
	}
	if eval == nil {
		return nil, errors.New("pso: nil evaluator")
	}

	o := &Optimizer{
		space:     space,
		eval:      eval,
		rng:       rand.New(rand.NewSource(rand.Int63())),
		inertia:   DefaultInertia,
		cognitive: DefaultCognitive,
		social:    DefaultSocial,
	}
	for _, opt := range opts {
		opt(o)
	}

	dim := space.Dim()
	o.swarm = &Swarm{Particles: make([]*Particle, particleCount)}
	for i := range o.swarm.Particles {
		pos := make([]float64, dim)
		for d := 0; d < dim; d++ {
			pos[d] = space.Min(d) + o.rng.Float64()*(space.Max(d)-space.Min(d))
		}
		o.swarm.Particles[i] = &Particle{
			Position: pos,
			Velocity: make([]float64, dim),
		}
	}
	return o, nil
}

// Swarm returns the current swarm state as a deep copy.
func (o *Optimizer) Swarm() *Swarm { return o.swarm.Clone() }

// Err returns the error that terminated the sample sequence early, if any.
// It must be checked after the sequence has been consumed.
func (o *Optimizer) Err() error { return o.err }

// Authoritative reports whether this process may record iteration progress.
func (o *Optimizer) Authoritative() bool { return o.eval.Authoritative() }

// Sample returns a lazy, finite sequence of exactly maxIterations swarm
// snapshots, one per completed iteration. Pulling an element advances the
// optimization by one iteration; iteration state carries over between
// pulls and the sequence cannot be restarted. If an iteration fails the
// sequence stops early and Err reports the cause.
func (o *Optimizer) Sample(maxIterations int) iter.Seq2[int, *Swarm] {
	return func(yield func(int, *Swarm) bool) {
		if o.consumed {
			o.err = ErrSequenceConsumed
			return
		}
		o.consumed = true

		if !o.initialized {
			if err := o.evaluateInitial(); err != nil {
				o.err = err
				return
			}
			o.initialized = true
		}

		for it := 0; it < maxIterations; it++ {
			if err := o.iterate(it); err != nil {
				o.err = err
				return
			}
			if !yield(it, o.swarm.Clone()) {
				return
			}
		}
	}
}

// evaluateInitial scores the randomly placed particles so that personal and
// global bests exist before the first velocity update.
func (o *Optimizer) evaluateInitial() error {
	fitness, err := o.eval.Evaluate(o.positions())
	if err != nil {
		return fmt.Errorf("initial evaluation: %w", err)
	}
	for i, p := range o.swarm.Particles {
		p.update(fitness[i])
	}
	o.updateGlobalBest()
	if o.swarm.BestPosition == nil {
		return &EvaluationError{Iteration: 0, Reason: "no particle returned a finite fitness"}
	}
	slog.Debug("swarm initialized",
		"particles", len(o.swarm.Particles),
		"best_fitness", o.swarm.BestFitness,
	)
	return nil
}

// iterate advances the swarm by one full iteration: velocity and position
// updates for every particle, one batch evaluation, then best-tracking.
// Global best is touched only after the whole batch has reported.
func (o *Optimizer) iterate(iteration int) error {
	for _, p := range o.swarm.Particles {
		o.move(p)
	}

	fitness, err := o.eval.Evaluate(o.positions())
	if err != nil {
		return fmt.Errorf("iteration %d evaluation: %w", iteration, err)
	}
	for i, p := range o.swarm.Particles {
		p.update(fitness[i])
	}
	o.updateGlobalBest()
	return nil
}

// move applies the velocity and position update to one particle. Positions
// are clamped into the bounds; a clamped dimension gets its velocity
// component zeroed so the particle does not press against the bound on the
// next step.
func (o *Optimizer) move(p *Particle) {
	// A particle that has only ever seen non-finite fitness has no personal
	// best; its cognitive term is zero.
	personal := p.BestPosition
	if personal == nil {
		personal = p.Position
	}
	for d := range p.Position {
		r1 := o.rng.Float64()
		r2 := o.rng.Float64()
		p.Velocity[d] = o.inertia*p.Velocity[d] +
			o.cognitive*r1*(personal[d]-p.Position[d]) +
			o.social*r2*(o.swarm.BestPosition[d]-p.Position[d])

		x, clamped := o.space.Clamp(d, p.Position[d]+p.Velocity[d])
		p.Position[d] = x
		if clamped {
			p.Velocity[d] = 0
		}
	}
}

func (o *Optimizer) positions() [][]float64 {
	positions := make([][]float64, len(o.swarm.Particles))
	for i, p := range o.swarm.Particles {
		positions[i] = append([]float64{}, p.Position...)
	}
	return positions
}

// updateGlobalBest scans the personal bests for a new global best. Personal
// bests only ever hold finite fitness, so the global best stays finite and
// monotonically non-increasing.
func (o *Optimizer) updateGlobalBest() {
	for _, p := range o.swarm.Particles {
		if p.BestPosition == nil {
			continue
		}
		if o.swarm.BestPosition == nil || p.BestFitness < o.swarm.BestFitness {
			o.swarm.BestFitness = p.BestFitness
			o.swarm.BestPosition = append([]float64{}, p.BestPosition...)
		}
	}
}

package pso

import "math"

// Particle is one candidate solution: a position and velocity in parameter
// space, the fitness at the current position, and the best point this
// particle has visited.
type Particle struct {
	Position []float64
	Velocity []float64
	Fitness  float64

	BestPosition []float64
	BestFitness  float64
}

// update records a freshly evaluated fitness and refreshes the personal
// best. Non-finite fitness never counts as an improvement.
func (p *Particle) update(fitness float64) {
	p.Fitness = fitness
	if !isFinite(fitness) {
		return
	}
	if p.BestPosition == nil || fitness < p.BestFitness {
		p.BestFitness = fitness
		p.BestPosition = append([]float64{}, p.Position...)
	}
}

// clone deep-copies the particle.
func (p *Particle) clone() *Particle {
	c := &Particle{
		Position:    append([]float64{}, p.Position...),
		Velocity:    append([]float64{}, p.Velocity...),
		Fitness:     p.Fitness,
		BestFitness: p.BestFitness,
	}
	if p.BestPosition != nil {
		c.BestPosition = append([]float64{}, p.BestPosition...)
	}
	return c
}

// Swarm is the particle population together with the best point any
// particle has seen across all iterations so far.
type Swarm struct {
	Particles []*Particle

	BestPosition []float64
	BestFitness  float64
}

// Clone deep-copies the swarm. The optimizer hands out clones so callers
// can retain snapshots while the optimization keeps mutating its own state.
func (s *Swarm) Clone() *Swarm {
	c := &Swarm{
		Particles:   make([]*Particle, len(s.Particles)),
		BestFitness: s.BestFitness,
	}
	if s.BestPosition != nil {
		c.BestPosition = append([]float64{}, s.BestPosition...)
	}
	for i, p := range s.Particles {
		c.Particles[i] = p.clone()
	}
	return c
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

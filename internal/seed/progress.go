package seed

import (
	"log/slog"
	"math"
)

// progress tracks how the global best improves over the run, for logging
// only. The swarm loop always runs its full iteration budget; this tracker
// never stops it.
type progress struct {
	threshold       float64
	best            float64
	lastSignificant float64
	stale           int
	improvements    int
}

// newProgress uses threshold as the minimum relative improvement that
// counts as progress.
func newProgress(threshold float64) *progress {
	return &progress{
		threshold:       threshold,
		best:            math.Inf(1),
		lastSignificant: math.Inf(1),
	}
}

// observe records one iteration's global best.
func (p *progress) observe(iteration int, best float64) {
	if best < p.best {
		p.best = best
	}

	relative := (p.lastSignificant - best) / math.Abs(p.lastSignificant)
	if math.IsInf(p.lastSignificant, 1) || relative >= p.threshold {
		p.lastSignificant = best
		p.stale = 0
		p.improvements++
		slog.Debug("global best improved",
			"iteration", iteration,
			"best_fitness", best,
		)
		return
	}
	p.stale++
}

// staleCount returns how many iterations passed since the last significant
// improvement.
func (p *progress) staleCount() int { return p.stale }

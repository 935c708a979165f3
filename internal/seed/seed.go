// Package seed produces the starting positions for the walkers of a
// downstream ensemble sampler. It locates the optimum of the objective with
// a particle swarm, estimates the local curvature from the collapsed swarm,
// and draws walker seeds from the resulting Gaussian.
package seed

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/swarmseed/internal/config"
	"github.com/cwbudde/swarmseed/internal/fit"
	"github.com/cwbudde/swarmseed/internal/pso"
	"github.com/cwbudde/swarmseed/internal/store"
)

// MinParticleCount floors the derived particle count.
const MinParticleCount = 20

// progressLogEvery is how often the loop emits an info-level progress line.
const progressLogEvery = 50

// FitInfoSink persists the final best-fit summary.
type FitInfoSink func(bestFitness float64, bestPosition []float64, cov mat.Matrix) error

// Generator runs the full seeding pipeline: swarm optimization with
// incremental progress persistence, trailing-window harvest, curvature fit,
// and the final Gaussian draw.
type Generator struct {
	Space     *pso.ParameterSpace
	Evaluator pso.Evaluator
	Walkers   int
	Prefix    string

	// Config may be nil; config.Default() is used then.
	Config *config.Config

	// Sink overrides let tests run the pipeline without real files. Nil
	// fields open the artifacts under Prefix.
	GlobalBestLog store.GlobalBestLog
	SwarmDump     store.SwarmDump
	FitInfo       FitInfoSink

	history *pso.History
}

// Result carries the outputs of one generation run.
type Result struct {
	// Samples is the (Walkers × dim) walker seed matrix.
	Samples *mat.Dense

	// BestFitness and BestPosition are the swarm's final global best.
	BestFitness  float64
	BestPosition []float64

	// Estimate is the fitted Gaussian model.
	Estimate *fit.Estimate

	// Iterations completed.
	Iterations int
}

// DeriveParticleCount grows the swarm logarithmically with the
// dimensionality: int(20 + 20*ln(dim)), floored at MinParticleCount.
func DeriveParticleCount(dim int) int {
	n := int(MinParticleCount + MinParticleCount*math.Log(float64(dim)))
	if n < MinParticleCount {
		return MinParticleCount
	}
	return n
}

// Generate runs the pipeline and returns the walker seeds. Any artifact
// write error aborts the run immediately; partially written artifacts are
// left in place for inspection.
func (g *Generator) Generate() (*Result, error) {
	if g.Space == nil {
		return nil, errors.New("seed: nil parameter space")
	}
	if g.Evaluator == nil {
		return nil, errors.New("seed: nil evaluator")
	}
	if g.Walkers < 1 {
		return nil, fmt.Errorf("seed: walker count %d must be positive", g.Walkers)
	}

	cfg := g.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dim := g.Space.Dim()
	particleCount := cfg.ParticleCount
	if particleCount == 0 {
		particleCount = DeriveParticleCount(dim)
	}

	opts := []pso.Option{
		pso.WithConstants(cfg.Inertia, cfg.Cognitive, cfg.Social),
	}
	if cfg.Seed != 0 {
		opts = append(opts, pso.WithSeed(cfg.Seed))
	}
	optimizer, err := pso.New(g.Space, particleCount, g.Evaluator, opts...)
	if err != nil {
		return nil, err
	}

	slog.Info("Starting position generation",
		"dim", dim,
		"particles", particleCount,
		"max_iterations", cfg.MaxIterations,
		"walkers", g.Walkers,
	)

	iterations, err := g.runSwarm(optimizer, cfg.MaxIterations)
	if err != nil {
		return nil, err
	}

	best := optimizer.Swarm()
	slog.Info("Best fit found",
		"iterations", iterations,
		"best_fitness", best.BestFitness,
		"best_position", best.BestPosition,
	)

	cloud := g.history.Flatten()
	if err := g.dumpSwarm(cloud); err != nil {
		return nil, err
	}

	estimate, err := g.fitCurvature(cloud, best)
	if err != nil {
		return nil, err
	}
	slog.Info("Curvature estimated", "sigma", estimate.Sigma())

	samples, err := g.drawSamples(estimate, cfg.Seed)
	if err != nil {
		return nil, err
	}

	return &Result{
		Samples:      samples,
		BestFitness:  best.BestFitness,
		BestPosition: best.BestPosition,
		Estimate:     estimate,
		Iterations:   iterations,
	}, nil
}

// runSwarm consumes the optimizer's snapshot sequence, recording each
// iteration's global best and retaining the trailing window. The final
// post-loop best is appended as one extra record.
func (g *Generator) runSwarm(optimizer *pso.Optimizer, maxIterations int) (int, error) {
	recorder := g.GlobalBestLog
	if recorder == nil && optimizer.Authoritative() {
		file, err := store.NewGlobalBestFile(g.Prefix)
		if err != nil {
			return 0, err
		}
		recorder = file
	}

	g.history = pso.NewHistory(pso.HistoryWindow)
	prog := newProgress(1e-4)

	iterations := 0
	for it, snapshot := range optimizer.Sample(maxIterations) {
		iterations = it + 1
		if recorder != nil {
			rec := store.IterationRecord{
				Iteration:    it,
				BestFitness:  snapshot.BestFitness,
				BestPosition: snapshot.BestPosition,
			}
			if err := recorder.Append(rec); err != nil {
				recorder.Close()
				return 0, err
			}
		}
		g.history.Push(snapshot)
		prog.observe(it, snapshot.BestFitness)
		if (it+1)%progressLogEvery == 0 {
			slog.Info("Swarm progress",
				"iteration", it+1,
				"best_fitness", snapshot.BestFitness,
				"stale_iterations", prog.staleCount(),
			)
		}
	}
	if err := optimizer.Err(); err != nil {
		if recorder != nil {
			recorder.Close()
		}
		return 0, err
	}

	if recorder != nil {
		final := optimizer.Swarm()
		rec := store.IterationRecord{
			Iteration:    iterations,
			BestFitness:  final.BestFitness,
			BestPosition: final.BestPosition,
		}
		if err := recorder.Append(rec); err != nil {
			recorder.Close()
			return 0, err
		}
		if err := recorder.Close(); err != nil {
			return 0, err
		}
	}
	return iterations, nil
}

// dumpSwarm persists the flattened trailing-window particles.
func (g *Generator) dumpSwarm(cloud []*pso.Particle) error {
	dump := g.SwarmDump
	if dump == nil {
		file, err := store.NewSwarmFile(g.Prefix)
		if err != nil {
			return err
		}
		dump = file
	}
	for _, p := range cloud {
		if err := dump.Append(p.Fitness, p.Position); err != nil {
			dump.Close()
			return err
		}
	}
	return dump.Close()
}

// fitCurvature fits the quadratic surrogate to the point cloud anchored at
// the final global best and persists the summary.
func (g *Generator) fitCurvature(cloud []*pso.Particle, best *pso.Swarm) (*fit.Estimate, error) {
	points := make([]fit.Point, len(cloud))
	for i, p := range cloud {
		points[i] = fit.Point{Position: p.Position, Fitness: p.Fitness}
	}

	fitter := &fit.CurvatureFitter{}
	estimate, err := fitter.Fit(points, best.BestPosition)
	if err != nil {
		return nil, err
	}

	sink := g.FitInfo
	if sink == nil {
		sink = func(bestFitness float64, bestPosition []float64, cov mat.Matrix) error {
			return store.WriteFitInfoFile(g.Prefix, bestFitness, bestPosition, cov)
		}
	}
	if err := sink(best.BestFitness, best.BestPosition, estimate.Covariance); err != nil {
		return nil, err
	}
	return estimate, nil
}

// drawSamples draws the walker seed matrix from the fitted Gaussian.
func (g *Generator) drawSamples(estimate *fit.Estimate, seed int64) (*mat.Dense, error) {
	var src xrand.Source
	if seed != 0 {
		src = xrand.NewSource(uint64(seed))
	}
	sampler, err := fit.NewPositionSampler(estimate, src)
	if err != nil {
		return nil, err
	}
	return sampler.Draw(g.Walkers), nil
}

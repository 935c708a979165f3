package pso

import "sync"

// Objective evaluates one position and returns its fitness. The function
// must be framed so that lower values are better; a failed evaluation is
// reported by returning NaN or an infinity.
type Objective func(position []float64) float64

// Evaluator computes fitness for a whole iteration's batch of positions.
// Evaluate blocks until every position in the batch has a result; the
// returned slice is index-aligned with the input.
//
// Authoritative reports whether this process owns the swarm state and may
// record iteration progress. The local strategies always do; in a
// coordinator/worker deployment only the coordinator does.
type Evaluator interface {
	Evaluate(positions [][]float64) ([]float64, error)
	Authoritative() bool
}

// LocalEvaluator evaluates a batch on a fixed-size goroutine pool. Each
// batch slot is written by exactly one worker, so no locking is needed.
// Workers <= 1 degenerates to a plain serial loop.
type LocalEvaluator struct {
	Objective Objective
	Workers   int
}

// NewLocalEvaluator returns a pool evaluator with the given concurrency.
func NewLocalEvaluator(obj Objective, workers int) *LocalEvaluator {
	return &LocalEvaluator{Objective: obj, Workers: workers}
}

// Evaluate computes the fitness of every position in the batch.
func (e *LocalEvaluator) Evaluate(positions [][]float64) ([]float64, error) {
	fitness := make([]float64, len(positions))

	if e.Workers <= 1 {
		for i, pos := range positions {
			fitness[i] = e.Objective(pos)
		}
		return fitness, nil
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := e.Workers
	if workers > len(positions) {
		workers = len(positions)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fitness[i] = e.Objective(positions[i])
			}
		}()
	}
	for i := range positions {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return fitness, nil
}

// Authoritative is always true for in-process evaluation.
func (e *LocalEvaluator) Authoritative() bool { return true }

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Coordinator dispatches each iteration's position batch across a fixed set
// of evaluation workers and aggregates the returned fitness values. It
// implements the optimizer's Evaluator interface and is the single
// authoritative role of a distributed run: workers never see swarm state.
type Coordinator struct {
	workers []string
	client  *http.Client
	runID   string
}

// NewCoordinator creates a coordinator for the given worker base URLs.
func NewCoordinator(workerURLs []string) (*Coordinator, error) {
	if len(workerURLs) == 0 {
		return nil, fmt.Errorf("coordinator needs at least one worker URL")
	}
	c := &Coordinator{
		workers: append([]string{}, workerURLs...),
		client:  &http.Client{},
		runID:   uuid.New().String(),
	}
	slog.Info("Coordinator created", "run_id", c.runID, "workers", len(c.workers))
	return c, nil
}

// RunID returns the identifier attached to every request of this run.
func (c *Coordinator) RunID() string { return c.runID }

// Authoritative is true: the coordinator owns the swarm and the iteration
// loop.
func (c *Coordinator) Authoritative() bool { return true }

// Evaluate partitions the batch into contiguous chunks, one per worker,
// fans the requests out concurrently and blocks until every worker has
// returned. The result slice is index-aligned with the input; any worker
// failure fails the whole batch.
func (c *Coordinator) Evaluate(positions [][]float64) ([]float64, error) {
	fitness := make([]float64, len(positions))
	start := time.Now()

	g := new(errgroup.Group)
	for w, chunk := range c.partition(len(positions)) {
		if chunk.length == 0 {
			continue
		}
		url := c.workers[w]
		offset := chunk.offset
		batch := positions[chunk.offset : chunk.offset+chunk.length]
		g.Go(func() error {
			values, err := c.evaluateOn(url, batch)
			if err != nil {
				return fmt.Errorf("worker %s: %w", url, err)
			}
			copy(fitness[offset:], values)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("Batch evaluated",
		"run_id", c.runID,
		"positions", len(positions),
		"workers", len(c.workers),
		"duration", time.Since(start),
	)
	return fitness, nil
}

type chunk struct {
	offset int
	length int
}

// partition splits n positions into len(workers) contiguous chunks whose
// sizes differ by at most one.
func (c *Coordinator) partition(n int) []chunk {
	workers := len(c.workers)
	chunks := make([]chunk, workers)
	base := n / workers
	rest := n % workers
	offset := 0
	for i := range chunks {
		length := base
		if i < rest {
			length++
		}
		chunks[i] = chunk{offset: offset, length: length}
		offset += length
	}
	return chunks
}

func (c *Coordinator) evaluateOn(baseURL string, batch [][]float64) ([]float64, error) {
	body, err := json.Marshal(EvaluateRequest{Positions: batch})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RunIDHeader, c.runID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var errResp ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var evalResp EvaluateResponse
	if err := json.NewDecoder(resp.Body).Decode(&evalResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(evalResp.Fitness) != len(batch) {
		return nil, fmt.Errorf("got %d fitness values for %d positions", len(evalResp.Fitness), len(batch))
	}
	return evalResp.Fitness, nil
}

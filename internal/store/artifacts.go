// Package store persists the run artifacts of a position-generation run:
// the incremental global-best log, the trailing swarm dump, and the final
// best-fit summary. All three are plain text under a shared path prefix and
// every append is flushed and synced so a crashed run leaves usable files.
package store

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Artifact file suffixes appended to the run prefix.
const (
	GlobalBestSuffix = "_best_fit_global.out"
	FitInfoSuffix    = "_best_fit_info.out"
	SwarmSuffix      = "swarm"
)

// IterationRecord is one completed iteration's global best.
type IterationRecord struct {
	Iteration    int
	BestFitness  float64
	BestPosition []float64
}

// GlobalBestLog receives one record per completed iteration. Implementations
// must make each appended record durable before returning.
type GlobalBestLog interface {
	Append(rec IterationRecord) error
	Close() error
}

// SwarmDump receives the flattened trailing-window particles.
type SwarmDump interface {
	Append(fitness float64, position []float64) error
	Close() error
}

// GlobalBestFile writes the <prefix>_best_fit_global.out artifact: one
// tab-separated line per iteration, flushed and synced per line so that an
// interrupted run keeps every completed iteration.
type GlobalBestFile struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
}

// NewGlobalBestFile creates (truncating) the global-best log for a run.
func NewGlobalBestFile(prefix string) (*GlobalBestFile, error) {
	path := prefix + GlobalBestSuffix
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create global best log: %w", err)
	}
	return &GlobalBestFile{
		file:   file,
		writer: bufio.NewWriter(file),
		path:   path,
	}, nil
}

// Append writes one iteration record and makes it durable.
func (g *GlobalBestFile) Append(rec IterationRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d\t%f\t", rec.Iteration, rec.BestFitness)
	sb.WriteString(joinFloats(rec.BestPosition, "\t"))
	sb.WriteByte('\n')

	if _, err := g.writer.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to append iteration record: %w", err)
	}
	return g.sync()
}

func (g *GlobalBestFile) sync() error {
	if err := g.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush global best log: %w", err)
	}
	if err := g.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync global best log: %w", err)
	}
	return nil
}

// Close flushes and closes the log.
func (g *GlobalBestFile) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.writer.Flush(); err != nil {
		g.file.Close()
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := g.file.Close(); err != nil {
		return fmt.Errorf("failed to close global best log: %w", err)
	}
	return nil
}

// Path returns the filesystem path of the log.
func (g *GlobalBestFile) Path() string { return g.path }

// SwarmFile writes the <prefix>swarm artifact: one tab-separated line per
// retained particle, fitness first.
type SwarmFile struct {
	file   *os.File
	writer *bufio.Writer
	path   string
}

// NewSwarmFile creates (truncating) the swarm dump for a run.
func NewSwarmFile(prefix string) (*SwarmFile, error) {
	path := prefix + SwarmSuffix
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create swarm dump: %w", err)
	}
	return &SwarmFile{
		file:   file,
		writer: bufio.NewWriter(file),
		path:   path,
	}, nil
}

// Append writes one particle line.
func (s *SwarmFile) Append(fitness float64, position []float64) error {
	var sb strings.Builder
	sb.WriteString(formatFloat(fitness))
	sb.WriteByte('\t')
	sb.WriteString(joinFloats(position, "\t"))
	sb.WriteByte('\n')
	if _, err := s.writer.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to append swarm particle: %w", err)
	}
	return nil
}

// Close flushes, syncs and closes the dump.
func (s *SwarmFile) Close() error {
	if err := s.writer.Flush(); err != nil {
		s.file.Close()
		return fmt.Errorf("failed to flush swarm dump: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return fmt.Errorf("failed to sync swarm dump: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close swarm dump: %w", err)
	}
	return nil
}

// Path returns the filesystem path of the dump.
func (s *SwarmFile) Path() string { return s.path }

// WriteFitInfoFile writes the <prefix>_best_fit_info.out summary: the best
// fitness header, the comma-separated best position, then the covariance
// matrix one bracketed row per line.
func WriteFitInfoFile(prefix string, bestFitness float64, bestPosition []float64, cov mat.Matrix) error {
	path := prefix + FitInfoSuffix
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create fit summary: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "#Best fit: %s\n", formatFloat(bestFitness))
	fmt.Fprintf(w, "%s\n", joinFloats(bestPosition, ", "))
	fmt.Fprintf(w, "#Estimated covariance matrix:\n")
	rows, cols := cov.Dims()
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = cov.At(i, j)
		}
		fmt.Fprintf(w, "[%s]\n", joinFloats(row, ",  "))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush fit summary: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync fit summary: %w", err)
	}
	return nil
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func joinFloats(xs []float64, sep string) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = formatFloat(x)
	}
	return strings.Join(parts, sep)
}

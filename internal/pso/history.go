package pso

// HistoryWindow is the number of trailing iterations whose particle sets
// are retained for the curvature fit.
const HistoryWindow = 4

// History retains the full particle sets of the trailing few iterations.
// The flattened window forms the point cloud the curvature fitter consumes.
type History struct {
	window int
	swarms []*Swarm
}

// NewHistory creates an accumulator retaining the last window iterations.
// window <= 0 falls back to HistoryWindow.
func NewHistory(window int) *History {
	if window <= 0 {
		window = HistoryWindow
	}
	return &History{window: window}
}

// Push records one iteration's swarm snapshot, evicting the oldest entry
// once the window is full. The snapshot is retained as-is; callers must
// hand in clones they no longer mutate.
func (h *History) Push(s *Swarm) {
	h.swarms = append(h.swarms, s)
	if len(h.swarms) > h.window {
		h.swarms = h.swarms[1:]
	}
}

// Len returns the number of retained iterations.
func (h *History) Len() int { return len(h.swarms) }

// Flatten returns every retained particle as one combined point cloud,
// oldest iteration first.
func (h *History) Flatten() []*Particle {
	var particles []*Particle
	for _, s := range h.swarms {
		particles = append(particles, s.Particles...)
	}
	return particles
}

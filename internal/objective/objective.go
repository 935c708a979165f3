// Package objective provides the benchmark objective surfaces available to
// the CLI and the evaluation workers. All functions are framed so that
// lower values are better; positions outside the recommended bounds return
// positive infinity.
package objective

import (
	"fmt"
	"math"
	"sort"
)

// Func is a named objective with its recommended search bounds for dim
// dimensions. Fixed-dimension functions return an error for other sizes.
type Func struct {
	Name string
	Eval func(v []float64) float64

	// Bounds returns the recommended lower/upper bounds for dim dimensions.
	Bounds func(dim int) (low, up []float64, err error)
}

var registry = map[string]Func{
	"sphere": {
		Name: "sphere",
		Eval: func(v []float64) float64 {
			var sum float64
			for _, x := range v {
				sum += x * x
			}
			return sum
		},
		Bounds: uniformBounds(-5, 5),
	},
	"rosenbrock": {
		Name: "rosenbrock",
		Eval: func(v []float64) float64 {
			var sum float64
			for i := 0; i < len(v)-1; i++ {
				a := v[i+1] - v[i]*v[i]
				b := 1 - v[i]
				sum += 100*a*a + b*b
			}
			return sum
		},
		Bounds: uniformBounds(-2.048, 2.048),
	},
	"eggholder": {
		Name: "eggholder",
		Eval: func(v []float64) float64 {
			x, y := v[0], v[1]
			return -(y+47)*math.Sin(math.Sqrt(math.Abs(y+x/2+47))) -
				x*math.Sin(math.Sqrt(math.Abs(x-(y+47))))
		},
		Bounds: func(dim int) ([]float64, []float64, error) {
			if dim != 2 {
				return nil, nil, fmt.Errorf("eggholder is defined for 2 dimensions, not %d", dim)
			}
			return []float64{-512, -512}, []float64{512, 512}, nil
		},
	},
}

func uniformBounds(low, up float64) func(int) ([]float64, []float64, error) {
	return func(dim int) ([]float64, []float64, error) {
		if dim < 1 {
			return nil, nil, fmt.Errorf("dimension must be positive, got %d", dim)
		}
		l := make([]float64, dim)
		u := make([]float64, dim)
		for i := range l {
			l[i] = low
			u[i] = up
		}
		return l, u, nil
	}
}

// Lookup returns the named objective.
func Lookup(name string) (Func, error) {
	fn, ok := registry[name]
	if !ok {
		return Func{}, fmt.Errorf("unknown objective %q (available: %v)", name, Names())
	}
	return fn, nil
}

// Names lists the registered objectives in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

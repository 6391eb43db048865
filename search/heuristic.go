package search

import (
	"errors"
	"fmt"
	"math"
)

// Heuristic estimates the cost of the remaining displacement (dx, dy, dz).
// Arguments are absolute values.
type Heuristic func(dx, dy, dz int) float64

func Manhattan(dx, dy, dz int) float64 {
	return float64(dx + dy + dz)
}

func Euclidean(dx, dy, dz int) float64 {
	return math.Sqrt(float64(dx*dx + dy*dy + dz*dz))
}

func Chebyshev(dx, dy, dz int) float64 {
	return float64(max(dx, dy, dz))
}

// ErrUnknownHeuristic is returned by HeuristicByName for an unrecognized name.
var ErrUnknownHeuristic error = errors.New("unknown heuristic")

// HeuristicByName maps a config name to a heuristic. The empty name selects
// Manhattan.
func HeuristicByName(name string) (Heuristic, error) {
	switch name {
	case "", "manhattan":
		return Manhattan, nil
	case "euclidean":
		return Euclidean, nil
	case "chebyshev":
		return Chebyshev, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownHeuristic, name)
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

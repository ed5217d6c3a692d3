package vector

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// Distance returns the Euclidean distance between a and b. Vectors of different length
// are infinitely far apart.
func Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	if len(a) == 0 {
		return 0
	}
	return float64(vek32.Distance(a, b))
}

package nn

import (
	"math"
	"math/rand"
)

// xavier fills dst from the Xavier (Glorot) uniform distribution
// U(-sqrt(6/(fanIn+fanOut)), sqrt(6/(fanIn+fanOut))).
//
// A nil rng draws from the math/rand global source.
func xavier(dst []float32, fanIn, fanOut int, rng *rand.Rand) {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	next := rand.Float64 //nolint:gosec // weight initialisation is not security-critical
	if rng != nil {
		next = rng.Float64
	}
	for i := range dst {
		dst[i] = float32((next()*2.0 - 1.0) * bound)
	}
}

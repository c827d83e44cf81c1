package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SwissRoll samples n points from a rolled 2-D sheet embedded in 3-D.
//
// Each sample draws t = 1.5π(1 + 2u) and a height h = 21u' (u, u' uniform in
// [0,1)) and maps them to (t·cos t, h, t·sin t). Gaussian noise with standard
// deviation noise is then added to every coordinate. The random stream is
// consumed in a fixed order (all t, all heights, then the noise for x, y and z),
// so equal (n, noise, seed) always produce bit-identical output. seed==0 maps
// to a fixed default seed.
//
// Returns the n×3 point matrix and the roll parameter t of every row.
func SwissRoll(n int, noise float64, seed int64) (*mat.Dense, []float64, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("SwissRoll(n=%d): %w", n, ErrBadSampleCount)
	}
	if noise < 0 || math.IsNaN(noise) || math.IsInf(noise, 0) {
		return nil, nil, fmt.Errorf("SwissRoll(noise=%g): %w", noise, ErrBadNoise)
	}

	rng := rngFromSeed(seed)
	t := make([]float64, n)
	for i := range t {
		t[i] = 1.5 * math.Pi * (1 + 2*rng.Float64())
	}
	height := make([]float64, n)
	for i := range height {
		height[i] = 21 * rng.Float64()
	}

	X := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, t[i]*math.Cos(t[i]))
		X.Set(i, 1, height[i])
		X.Set(i, 2, t[i]*math.Sin(t[i]))
	}
	for j := 0; j < 3; j++ {
		for i := 0; i < n; i++ {
			X.Set(i, j, X.At(i, j)+noise*rng.NormFloat64())
		}
	}

	return X, t, nil
}

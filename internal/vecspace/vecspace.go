package vecspace

import (
	"errors"
	"fmt"
	"math"
)

// #region errors

// ErrDegenerateVector is returned when a distance involves a zero-magnitude vector.
var ErrDegenerateVector = errors.New("degenerate vector: zero magnitude")

// ErrDimensionMismatch is returned when two vectors have different lengths.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// #endregion errors

// MaxDistance is the largest cosine distance two vectors can have. It is also
// the fallback distance for degenerate inputs.
const MaxDistance = 2.0

// #region magnitude

// Dot returns the inner product of u and v. Lengths must match.
func Dot(u, v []float64) float64 {
	var sum float64
	for i := range u {
		sum += u[i] * v[i]
	}
	return sum
}

// Magnitude returns the L2 norm of v.
func Magnitude(v []float64) float64 {
	return math.Sqrt(Dot(v, v))
}

// #endregion magnitude

// #region distance

// Distance returns 1 - cos(u, v). The result lies in [0, 2].
// Zero-magnitude inputs yield ErrDegenerateVector rather than NaN.
func Distance(u, v []float64) (float64, error) {
	if len(u) != len(v) {
		return MaxDistance, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(u), len(v))
	}
	uu, vv := Dot(u, u), Dot(v, v)
	if uu == 0 || vv == 0 {
		return MaxDistance, ErrDegenerateVector
	}
	// sqrt(uu*vv) rather than |u|*|v| keeps distance(u, u) exactly 0
	cos := Dot(u, v) / math.Sqrt(uu*vv)
	// rounding can push |cos| a hair past 1
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return 1 - cos, nil
}

// DistanceOrMax is Distance with errors folded into MaxDistance.
func DistanceOrMax(u, v []float64) float64 {
	d, err := Distance(u, v)
	if err != nil {
		return MaxDistance
	}
	return d
}

// #endregion distance

// #region helpers

// Centroid returns the componentwise mean of vs. It returns nil for an empty input.
func Centroid(vs [][]float64) []float64 {
	if len(vs) == 0 {
		return nil
	}
	out := make([]float64, len(vs[0]))
	for _, v := range vs {
		for i := range out {
			out[i] += v[i]
		}
	}
	for i := range out {
		out[i] /= float64(len(vs))
	}
	return out
}

// Clamp01 bounds x to [0, 1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// #endregion helpers

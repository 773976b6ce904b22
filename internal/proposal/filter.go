package proposal

import "math"

// gaussianFilter1D smooths v with a normalised Gaussian kernel of standard
// deviation sigma (in samples), truncated at 4 sigma. Samples beyond either
// end are mirrored about the edge, so the edge sample repeats once.
func gaussianFilter1D(v []float64, sigma float64) []float64 {
	n := len(v)
	out := make([]float64, n)
	if sigma <= 0 || n == 0 {
		copy(out, v)
		return out
	}

	radius := int(4*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for k := -radius; k <= radius; k++ {
		w := math.Exp(-0.5 * float64(k*k) / (sigma * sigma))
		kernel[k+radius] = w
		sum += w
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	for i := 0; i < n; i++ {
		acc := 0.0
		for k := -radius; k <= radius; k++ {
			acc += kernel[k+radius] * v[reflect(i+k, n)]
		}
		out[i] = acc
	}
	return out
}

// reflect maps an out-of-range index onto [0, n) as d c b a | a b c d | d c b a.
func reflect(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

package audio

import "math"

// ----- Waveform Morph ----- //

// The drone's timbre morphs between sawtooth (0) and triangle (1) by
// blending their Fourier series. Both canonical shapes are sums of
// sines, so the blend lives entirely in the sine (imaginary) basis.

const (
	morphHarmonics    = 32
	morphTableSamples = 2048
	morphSnapLow      = 0.05
	morphSnapHigh     = 0.95
	morphChatter      = 0.01
)

func sawtoothHarmonic(n int) float64 {
	if n < 1 {
		return 0
	}
	return 1.0 / float64(n)
}

func triangleHarmonic(n int) float64 {
	if n < 1 || n%2 == 0 {
		return 0
	}
	amp := 8.0 / (math.Pi * math.Pi * float64(n) * float64(n))
	if ((n-1)/2)%2 == 1 {
		amp = -amp
	}
	return amp
}

// morphCoefficients returns the sine-series amplitudes for the blended
// waveform. Index 0 (DC) is zero and the fundamental is pinned to 1;
// every higher harmonic interpolates linearly between the two series.
func morphCoefficients(openness float64) []float64 {
	coefs := make([]float64, morphHarmonics)
	coefs[0] = 0
	coefs[1] = 1
	for n := 2; n < morphHarmonics; n++ {
		coefs[n] = sawtoothHarmonic(n)*(1-openness) + triangleHarmonic(n)*openness
	}
	return coefs
}

func newMorphTable(openness float64) *wavetable {
	coefs := morphCoefficients(openness)
	wt := newWavetable(morphTableSamples, func(phase float64) float64 {
		value := 0.0
		for n := 1; n < len(coefs); n++ {
			value += coefs[n] * math.Sin(float64(n)*phase)
		}
		return value
	})
	wt.normalize()
	return wt
}

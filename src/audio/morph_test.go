package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMorphCoefficientsAtZeroAreSawtooth(t *testing.T) {
	coefs := morphCoefficients(0)
	require.Len(t, coefs, morphHarmonics)
	assert.Equal(t, 0.0, coefs[0])
	for n := 1; n < morphHarmonics; n++ {
		assert.InDelta(t, 1.0/float64(n), coefs[n], 1e-12, "harmonic %d", n)
	}
}

func TestMorphCoefficientsAtOneAreTriangle(t *testing.T) {
	coefs := morphCoefficients(1)
	assert.Equal(t, 0.0, coefs[0])
	assert.Equal(t, 1.0, coefs[1])
	for n := 2; n < morphHarmonics; n += 2 {
		assert.Equal(t, 0.0, coefs[n], "even harmonic %d", n)
	}
	// odd harmonics alternate sign and fall off as 1/n^2
	assert.InDelta(t, -8.0/(math.Pi*math.Pi*9), coefs[3], 1e-12)
	assert.InDelta(t, 8.0/(math.Pi*math.Pi*25), coefs[5], 1e-12)
	assert.InDelta(t, -8.0/(math.Pi*math.Pi*49), coefs[7], 1e-12)
}

func TestMorphCoefficientsBlendLinearly(t *testing.T) {
	saw := morphCoefficients(0)
	tri := morphCoefficients(1)
	mid := morphCoefficients(0.5)
	for n := 2; n < morphHarmonics; n++ {
		assert.InDelta(t, saw[n]*0.5+tri[n]*0.5, mid[n], 1e-12)
	}
}

func TestMorphTableIsUnitPeakAndZeroMean(t *testing.T) {
	wt := newMorphTable(0.5)
	peak := 0.0
	mean := 0.0
	for _, v := range wt.values {
		if a := math.Abs(v); a > peak {
			peak = a
		}
		mean += v
	}
	mean /= float64(len(wt.values))
	assert.InDelta(t, 1.0, peak, 1e-9)
	assert.InDelta(t, 0.0, mean, 1e-9)
}

func TestWavetableInterpolatesBetweenSamples(t *testing.T) {
	wt := newWavetable(4, func(phase float64) float64 {
		return math.Sin(phase)
	})
	// halfway between sample 0 (0.0) and sample 1 (1.0)
	assert.InDelta(t, 0.5, wt.getAtPhase(math.Pi/4), 1e-9)
	// phase wraps
	assert.InDelta(t, wt.getAtPhase(0), wt.getAtPhase(2*math.Pi), 1e-9)
}

package audio

import "math"

// ----- Wavetable ----- //

type wavetable struct {
	values []float64
}

func newWavetable(samples int, phaseToValue func(phase float64) float64) *wavetable {
	wt := &wavetable{
		values: make([]float64, samples),
	}
	for i := 0; i < samples; i++ {
		phase := 2.0 * math.Pi / float64(samples) * float64(i)
		wt.values[i] = phaseToValue(phase)
	}
	return wt
}

func (wt *wavetable) getAtPhase(phase float64) float64 {
	phase = positiveMod(phase, 2.0*math.Pi)
	length := len(wt.values)
	phasePerSample := 2.0 * math.Pi / float64(length)
	index := int(phase / phasePerSample)
	if index >= length {
		index = length - 1
	}
	nextIndex := index + 1
	if nextIndex >= length {
		nextIndex = 0
	}
	mod := math.Mod(phase, phasePerSample) / phasePerSample
	return wt.values[index]*(1-mod) + wt.values[nextIndex]*mod
}

// normalize scales the table so its peak is 1. Harmonic sums land at
// arbitrary levels depending on the partials, and the canonical shapes
// they sit between are unit-peak.
func (wt *wavetable) normalize() {
	peak := 0.0
	for _, v := range wt.values {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	for i := range wt.values {
		wt.values[i] /= peak
	}
}

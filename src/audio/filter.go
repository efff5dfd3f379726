package audio

import "math"

// ----- Lowpass Filter ----- //

// lowpass is an RBJ-cookbook biquad. The cutoff is driven per sample
// by the LFO; coefficients are refreshed only when it actually moves,
// since a drone spends long stretches at a frozen cutoff.
type lowpass struct {
	freq float64
	q    float64
	a    []float64 // feedforward
	b    []float64 // feedback
	past []float64
}

// Cutoff motion below this is inaudible and not worth a recalc.
const cutoffRecalcThreshold = 0.5 // Hz

func newLowpass(freq float64, q float64) *lowpass {
	f := &lowpass{
		freq: freq,
		q:    q,
		past: make([]float64, 2),
	}
	f.a, f.b = makeBiquadLowpassH(f.freq/sampleRate, f.q)
	return f
}

func (f *lowpass) step(in float64, cutoff float64) float64 {
	if math.Abs(cutoff-f.freq) > cutoffRecalcThreshold {
		f.freq = cutoff
		fc := cutoff / sampleRate
		if fc > 0.49 {
			fc = 0.49
		}
		if fc < 0 {
			fc = 0
		}
		f.a, f.b = makeBiquadLowpassH(fc, f.q)
	}
	// apply b
	for j := 0; j < len(f.b); j++ {
		in -= f.past[j] * f.b[j]
	}
	// apply a
	o := in * f.a[0]
	for j := 1; j < len(f.a); j++ {
		o += f.past[j-1] * f.a[j]
	}
	// unshift past
	for j := len(f.past) - 2; j >= 0; j-- {
		f.past[j+1] = f.past[j]
	}
	f.past[0] = in
	return o
}

func makeBiquadLowpassH(fc float64, q float64) ([]float64, []float64) {
	// from RBJ's cookbook
	w0 := 2 * math.Pi * fc
	alpha := math.Sin(w0) / (2 * q)
	b0 := (1 - math.Cos(w0)) / 2
	b1 := (1 - math.Cos(w0))
	b2 := (1 - math.Cos(w0)) / 2
	a0 := 1 + alpha
	a1 := -2 * math.Cos(w0)
	a2 := 1 - alpha
	return []float64{b0 / a0, b1 / a0, b2 / a0}, []float64{a1 / a0, a2 / a0}
}

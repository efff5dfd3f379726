package audio

import (
	"math"
	"math/rand"
)

// ----- Waveform Shape ----- //

const (
	shapeSaw = iota
	shapeTriangle
	shapeMorph
)

// ----- Voice ----- //

// voice is one oscillator contributing one note of the chord. Its
// frequency is a ramped value so retuning glides instead of stepping.
type voice struct {
	shape int
	table *wavetable // set when shape is shapeMorph
	freq  *rampValue
	phase float64
}

func newVoice(freq float64, shape int, table *wavetable) *voice {
	return &voice{
		shape: shape,
		table: table,
		freq:  newRampValue(freq),
		phase: rand.Float64() * 2.0 * math.Pi,
	}
}

// retune glides the voice to a new frequency. No-op when the target is
// already where the voice is heading.
func (v *voice) retune(freq float64) {
	if math.Abs(freq-v.freq.target()) < 0.001 {
		return
	}
	v.freq.linear(retuneRampMs, freq)
}

func (v *voice) setShape(shape int, table *wavetable) {
	v.shape = shape
	v.table = table
}

func (v *voice) step() float64 {
	v.freq.step()
	value := 0.0
	switch v.shape {
	case shapeSaw:
		p := positiveMod(v.phase/(2.0*math.Pi), 1)
		value = p*2 - 1
	case shapeTriangle:
		p := positiveMod(v.phase/(2.0*math.Pi), 1)
		if p < 0.5 {
			value = p*4 - 1
		} else {
			value = p*(-4) + 3
		}
	case shapeMorph:
		value = v.table.getAtPhase(v.phase)
	}
	v.phase += 2.0 * math.Pi * v.freq.value / float64(sampleRate)
	if v.phase > 2.0*math.Pi {
		v.phase = math.Mod(v.phase, 2.0*math.Pi)
	}
	return value
}

func positiveMod(a float64, b float64) float64 {
	for a < 0 {
		a += b
	}
	return math.Mod(a, b)
}

package audio

import "math"

// ----- LFO State ----- //

const (
	lfoActive = iota
	lfoFrozen
)

// ----- Filter LFO ----- //

// filterLFO sweeps the filter cutoff between minCutoff and maxCutoff:
//
//	cutoff = center + depthAmplitude * sin(phase)
//
// The oscillator and the center offset run for the lifetime of the
// engine and are never stopped. Freezing zeroes the depth contribution
// while simultaneously retargeting the center to the instantaneous
// cutoff, so the sum of the two ramps stays continuous; unfreezing
// reverses both ramps. Without the snapshot, resuming playback would
// jump to an unrelated modulation offset on the first sample.
type filterLFO struct {
	minCutoff float64
	maxCutoff float64
	depth     float64 // fraction of the min/max range
	rate      *rampValue
	depthAmp  *rampValue
	center    *rampValue
	phase     float64
	state     int
}

func newFilterLFO(minCutoff, maxCutoff, rate, depth float64) *filterLFO {
	l := &filterLFO{
		minCutoff: minCutoff,
		maxCutoff: maxCutoff,
		depth:     depth,
		rate:      newRampValue(rate),
		state:     lfoActive,
	}
	l.depthAmp = newRampValue(l.depthAmplitude())
	l.center = newRampValue(l.centerpoint())
	return l
}

func (l *filterLFO) centerpoint() float64 {
	return (l.minCutoff + l.maxCutoff) / 2
}

func (l *filterLFO) depthAmplitude() float64 {
	return (l.maxCutoff - l.minCutoff) * l.depth / 2
}

// cutoff returns the instantaneous filter frequency without advancing
// the clock.
func (l *filterLFO) cutoff() float64 {
	return l.center.value + l.depthAmp.value*math.Sin(l.phase)
}

// step advances one sample and returns the cutoff for it.
func (l *filterLFO) step() float64 {
	l.rate.step()
	l.depthAmp.step()
	l.center.step()
	value := l.cutoff()
	l.phase += 2.0 * math.Pi * l.rate.value * secPerSample
	if l.phase > 2.0*math.Pi {
		l.phase = math.Mod(l.phase, 2.0*math.Pi)
	}
	return value
}

func (l *filterLFO) setRate(hz float64, rampMs float64) {
	l.rate.linear(rampMs, hz)
}

// setRange moves the mutable upper bound of the sweep. The dependent
// center and amplitude ramp only while active; a frozen LFO picks the
// new targets up on unfreeze.
func (l *filterLFO) setRange(maxCutoff float64, rampMs float64) {
	l.maxCutoff = maxCutoff
	if l.state == lfoActive {
		l.center.linear(rampMs, l.centerpoint())
		l.depthAmp.linear(rampMs, l.depthAmplitude())
	}
}

func (l *filterLFO) setDepth(depth float64, rampMs float64) {
	l.depth = depth
	if l.state == lfoActive {
		l.depthAmp.linear(rampMs, l.depthAmplitude())
	}
}

// freeze pins the net cutoff to its instantaneous value: the depth
// contribution ramps to zero while the center ramps to the snapshot,
// both over the same duration.
func (l *filterLFO) freeze(durationMs float64) {
	if l.state == lfoFrozen {
		return
	}
	snapshot := l.cutoff()
	l.depthAmp.linear(durationMs, 0)
	l.center.linear(durationMs, snapshot)
	l.state = lfoFrozen
}

// unfreeze restores the centerpoint and depth amplitude. Idempotent:
// no-op when not frozen.
func (l *filterLFO) unfreeze(durationMs float64) {
	if l.state != lfoFrozen {
		return
	}
	l.center.linear(durationMs, l.centerpoint())
	l.depthAmp.linear(durationMs, l.depthAmplitude())
	l.state = lfoActive
}

func (l *filterLFO) frozen() bool {
	return l.state == lfoFrozen
}

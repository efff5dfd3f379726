package audio

import "math"

// ----- Ramp Kind ----- //

const (
	rampNone = iota
	rampLinear
	rampExponential
)

// ----- Ramp Value ----- //

// rampValue is a parameter that moves toward a target over the sample
// clock instead of jumping. Scheduling a new ramp supersedes the one in
// flight: the new ramp starts from the current interpolated value, so a
// late caller can never race a stale schedule.
type rampValue struct {
	kind         int
	duration     float64 // ms
	endThreshold float64
	initialValue float64
	targetValue  float64
	value        float64
	pos          int
}

func newRampValue(value float64) *rampValue {
	return &rampValue{
		kind:  rampNone,
		value: value,
	}
}

// set cancels any scheduled ramp and pins the value immediately.
func (r *rampValue) set(value float64) {
	r.kind = rampNone
	r.duration = 0
	r.endThreshold = 0
	r.initialValue = 0
	r.targetValue = 0
	r.value = value
	r.pos = 0
}

func (r *rampValue) linear(durationMs float64, targetValue float64) {
	if durationMs <= 0 {
		r.set(targetValue)
		return
	}
	r.kind = rampLinear
	r.duration = durationMs
	r.endThreshold = 0
	r.pos = 0
	r.initialValue = r.value
	r.targetValue = targetValue
}

func (r *rampValue) exponential(durationMs float64, targetValue float64, endThreshold float64) {
	if durationMs <= 0 {
		r.set(targetValue)
		return
	}
	r.kind = rampExponential
	r.duration = durationMs
	r.endThreshold = endThreshold
	r.pos = 0
	r.initialValue = r.value
	r.targetValue = targetValue
}

// target reports where the value is heading: the scheduled target while
// ramping, the current value otherwise.
func (r *rampValue) target() float64 {
	if r.kind == rampNone {
		return r.value
	}
	return r.targetValue
}

func (r *rampValue) ramping() bool {
	return r.kind != rampNone
}

func (r *rampValue) step() bool {
	ended := false
	switch r.kind {
	case rampLinear:
		phaseTime := float64(r.pos) * secPerSample * 1000 // ms
		if phaseTime >= r.duration {
			r.end()
			ended = true
		} else {
			t := phaseTime / r.duration
			r.value = t*r.targetValue + (1-t)*r.initialValue
			r.pos++
		}
	case rampExponential:
		phaseTime := float64(r.pos) * secPerSample * 1000 // ms
		t := phaseTime / r.duration
		r.value = setTargetAtTime(r.initialValue, r.targetValue, t)
		if math.Abs(r.value-r.targetValue) < r.endThreshold {
			r.end()
			ended = true
		} else {
			r.pos++
		}
	case rampNone:
	}
	return ended
}

func (r *rampValue) end() {
	r.kind = rampNone
	r.value = r.targetValue
	r.pos = 0
}

// 63% closer to target when pos=1.0
func setTargetAtTime(initialValue float64, targetValue float64, pos float64) float64 {
	return targetValue + (initialValue-targetValue)*math.Exp(-pos)
}

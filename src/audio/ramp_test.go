package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func stepFor(r *rampValue, ms float64) {
	samples := int(ms / 1000 * sampleRate)
	for i := 0; i < samples; i++ {
		r.step()
	}
}

func TestLinearRampReachesTarget(t *testing.T) {
	r := newRampValue(1)
	r.linear(100, 2)
	stepFor(r, 50)
	assert.InDelta(t, 1.5, r.value, 0.01)
	stepFor(r, 60)
	assert.Equal(t, 2.0, r.value)
	assert.False(t, r.ramping())
}

func TestNewRampSupersedesScheduledOne(t *testing.T) {
	r := newRampValue(0)
	r.linear(100, 1)
	stepFor(r, 50)
	mid := r.value
	// the second ramp starts from the interpolated value, not from
	// the stale initial or target
	r.linear(100, 0)
	assert.InDelta(t, mid, r.value, 1e-9)
	assert.Equal(t, 0.0, r.target())
	stepFor(r, 110)
	assert.Equal(t, 0.0, r.value)
}

func TestSetCancelsRamp(t *testing.T) {
	r := newRampValue(0)
	r.linear(1000, 5)
	r.set(3)
	assert.Equal(t, 3.0, r.value)
	assert.False(t, r.ramping())
	r.step()
	assert.Equal(t, 3.0, r.value)
}

func TestZeroDurationRampIsImmediate(t *testing.T) {
	r := newRampValue(0)
	r.linear(0, 7)
	assert.Equal(t, 7.0, r.value)
	assert.False(t, r.ramping())
}

func TestExponentialRampConverges(t *testing.T) {
	r := newRampValue(1)
	r.exponential(10, 0, 0.001)
	stepFor(r, 200)
	assert.Equal(t, 0.0, r.value)
	assert.False(t, r.ramping())
}

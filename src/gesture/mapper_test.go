package gesture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airchord/src/audio"
	"airchord/src/config"
)

type chordCall struct {
	root      int
	extension audio.Extension
	quality   audio.Quality
}

// fakeSynth records every parameter call in order of arrival.
type fakeSynth struct {
	chords   []chordCall
	cutoffs  []float64
	rates    []float64
	depths   []float64
	morphs   []float64
	fadeIns  int
	fadeOuts int
}

func (s *fakeSynth) SetChord(root int, extension audio.Extension, quality audio.Quality) error {
	s.chords = append(s.chords, chordCall{root, extension, quality})
	return nil
}

func (s *fakeSynth) SetMaxFilterCutoff(hz float64) error {
	s.cutoffs = append(s.cutoffs, hz)
	return nil
}

func (s *fakeSynth) SetLFORate(hz float64) error {
	s.rates = append(s.rates, hz)
	return nil
}

func (s *fakeSynth) SetLFODepth(fraction float64) error {
	s.depths = append(s.depths, fraction)
	return nil
}

func (s *fakeSynth) SetWaveformFromOpenness(morph float64) error {
	s.morphs = append(s.morphs, morph)
	return nil
}

func (s *fakeSynth) FadeIn(seconds float64) error {
	s.fadeIns++
	return nil
}

func (s *fakeSynth) FadeOut(seconds float64) error {
	s.fadeOuts++
	return nil
}

// newTestMapper wires a mapper to a fake synth and a manual clock.
func newTestMapper() (*Mapper, *fakeSynth, *float64) {
	s := &fakeSynth{}
	m := NewMapper(s, config.Default())
	clock := new(float64)
	m.now = func() float64 { return *clock }
	return m, s, clock
}

func handAt(x, y, openness float64) Hand {
	return Hand{Detected: true, CenterX: x, CenterY: y, Openness: openness}
}

func TestFadeTransitionsOnHandPresence(t *testing.T) {
	m, s, _ := newTestMapper()

	// an empty frame before any hand has appeared must not fade out
	m.Update(Frame{})
	assert.Equal(t, 0, s.fadeOuts)

	m.Update(Frame{Right: handAt(0.5, 0.5, 0)})
	assert.Equal(t, 1, s.fadeIns)
	m.Update(Frame{Right: handAt(0.5, 0.5, 0)})
	assert.Equal(t, 1, s.fadeIns, "fade-in fires once per appearance")

	m.Update(Frame{})
	m.Update(Frame{})
	assert.Equal(t, 1, s.fadeOuts, "fade-out fires once per disappearance")
}

func TestRightPinkyRaisesTwoSemitones(t *testing.T) {
	m, s, _ := newTestMapper()
	h := handAt(0.5, 0.5, 0)
	h.PinkyPinch = true
	m.Update(Frame{Right: h})
	require.Len(t, s.chords, 1)
	assert.Equal(t, chordCall{50, audio.Seventh, audio.Minor}, s.chords[0])
}

func TestLeftPinkyLowersTwoSemitones(t *testing.T) {
	m, s, _ := newTestMapper()
	h := handAt(0.5, 0.5, 0)
	h.PinkyPinch = true
	m.Update(Frame{Left: h})
	require.Len(t, s.chords, 1)
	assert.Equal(t, chordCall{46, audio.Seventh, audio.Minor}, s.chords[0])
}

func TestRightIndexRaisesOneAndTogglesQuality(t *testing.T) {
	m, s, _ := newTestMapper()
	h := handAt(0.5, 0.5, 0)
	h.IndexPinch = true
	m.Update(Frame{Right: h})
	require.Len(t, s.chords, 1)
	assert.Equal(t, chordCall{49, audio.Seventh, audio.Major}, s.chords[0])
}

func TestLeftIndexLowersOneAndTogglesQuality(t *testing.T) {
	m, s, _ := newTestMapper()
	h := handAt(0.5, 0.5, 0)
	h.IndexPinch = true
	m.Update(Frame{Left: h})
	require.Len(t, s.chords, 1)
	assert.Equal(t, chordCall{47, audio.Seventh, audio.Major}, s.chords[0])
}

func TestPinkyWinsOverIndexInSameFrame(t *testing.T) {
	m, s, _ := newTestMapper()
	h := handAt(0.5, 0.5, 0)
	h.IndexPinch = true
	h.PinkyPinch = true
	m.Update(Frame{Right: h})
	require.Len(t, s.chords, 1)
	// two semitones, quality untouched
	assert.Equal(t, chordCall{50, audio.Seventh, audio.Minor}, s.chords[0])
}

func TestHeldPinchDoesNotRepeat(t *testing.T) {
	m, s, clock := newTestMapper()
	h := handAt(0.5, 0.5, 0)
	h.PinkyPinch = true
	for i := 0; i < 10; i++ {
		m.Update(Frame{Right: h})
		*clock += 1.0
	}
	assert.Len(t, s.chords, 1, "a held pinch is one event, not one per frame")
}

func TestPitchDebounceWindow(t *testing.T) {
	m, s, clock := newTestMapper()
	pinched := handAt(0.5, 0.5, 0)
	pinched.PinkyPinch = true
	open := handAt(0.5, 0.5, 0)

	m.Update(Frame{Right: pinched})
	*clock = 0.2
	m.Update(Frame{Right: open})
	m.Update(Frame{Right: pinched})
	assert.Len(t, s.chords, 1, "a re-pinch inside the debounce window is dropped")

	*clock = 0.8
	m.Update(Frame{Right: open})
	m.Update(Frame{Right: pinched})
	require.Len(t, s.chords, 2)
	assert.Equal(t, 52, s.chords[1].root)
}

func TestPitchDebounceSharedAcrossGestures(t *testing.T) {
	m, s, clock := newTestMapper()
	pinky := handAt(0.5, 0.5, 0)
	pinky.PinkyPinch = true
	index := handAt(0.5, 0.5, 0)
	index.IndexPinch = true

	m.Update(Frame{Right: pinky})
	*clock = 0.2
	m.Update(Frame{Right: index})
	assert.Len(t, s.chords, 1, "index and pinky share the pitch debounce timer")
}

func TestExtensionToggleOnMiddlePinch(t *testing.T) {
	m, s, clock := newTestMapper()
	h := handAt(0.5, 0.5, 0)
	h.MiddlePinch = true
	m.Update(Frame{Right: h})
	require.Len(t, s.chords, 1)
	assert.Equal(t, chordCall{48, audio.Ninth, audio.Minor}, s.chords[0])

	*clock = 0.5
	m.Update(Frame{Right: handAt(0.5, 0.5, 0)})
	m.Update(Frame{Right: h})
	require.Len(t, s.chords, 2)
	assert.Equal(t, audio.Seventh, s.chords[1].extension)
}

func TestExtensionDebounceIsIndependentOfPitch(t *testing.T) {
	m, s, clock := newTestMapper()
	pinky := handAt(0.5, 0.5, 0)
	pinky.PinkyPinch = true
	middle := handAt(0.5, 0.5, 0)
	middle.MiddlePinch = true

	m.Update(Frame{Right: pinky})
	*clock = 0.1
	m.Update(Frame{Right: middle})
	require.Len(t, s.chords, 2)
	assert.Equal(t, chordCall{50, audio.Ninth, audio.Minor}, s.chords[1])
}

func TestRootClampsAtUpperBound(t *testing.T) {
	m, s, _ := newTestMapper()
	m.root = audio.MaxRoot
	h := handAt(0.5, 0.5, 0)
	h.PinkyPinch = true
	m.Update(Frame{Right: h})
	require.Len(t, s.chords, 1)
	assert.Equal(t, audio.MaxRoot, s.chords[0].root)
}

func TestRightYMapsToCutoffExponentially(t *testing.T) {
	m, s, _ := newTestMapper()
	m.Update(Frame{Right: handAt(0.5, 0.25, 0)})
	require.Len(t, s.cutoffs, 1)
	expected := 300 * math.Pow(20000.0/300.0, 1-0.25)
	assert.InDelta(t, expected, s.cutoffs[0], 1e-6)

	// top of frame is the full ceiling, bottom the minimum
	m2, s2, _ := newTestMapper()
	m2.Update(Frame{Right: handAt(0.5, 0, 0)})
	assert.InDelta(t, 20000, s2.cutoffs[0], 1e-6)
	m3, s3, _ := newTestMapper()
	m3.Update(Frame{Right: handAt(0.5, 1, 0)})
	assert.InDelta(t, 300, s3.cutoffs[0], 1e-6)
}

func TestRightXMapsToRateExponentially(t *testing.T) {
	m, s, _ := newTestMapper()
	m.Update(Frame{Right: handAt(1, 0.5, 0)})
	require.Len(t, s.rates, 1)
	assert.InDelta(t, 7.0, s.rates[0], 1e-6)

	m2, s2, _ := newTestMapper()
	m2.Update(Frame{Right: handAt(0, 0.5, 0)})
	assert.InDelta(t, 0.1, s2.rates[0], 1e-6)
}

func TestRightOpennessMapsToMorph(t *testing.T) {
	m, s, _ := newTestMapper()
	m.Update(Frame{Right: handAt(0.5, 0.5, 0.7)})
	require.Len(t, s.morphs, 1)
	assert.Equal(t, 0.7, s.morphs[0])
}

func TestLeftYMapsToDepthLinearInverse(t *testing.T) {
	m, s, _ := newTestMapper()
	m.Update(Frame{Left: handAt(0.5, 0, 0)})
	require.Len(t, s.depths, 1)
	assert.InDelta(t, 1.0, s.depths[0], 1e-9)

	m2, s2, _ := newTestMapper()
	m2.Update(Frame{Left: handAt(0.5, 1, 0)})
	assert.InDelta(t, 0.1, s2.depths[0], 1e-9)

	m3, s3, _ := newTestMapper()
	m3.Update(Frame{Left: handAt(0.5, 0.5, 0)})
	assert.InDelta(t, 0.55, s3.depths[0], 1e-9)
}

func TestSmoothingRetainsPriorValue(t *testing.T) {
	m, s, _ := newTestMapper()
	m.Update(Frame{Right: handAt(0.5, 0.5, 0)})
	m.Update(Frame{Right: handAt(0.5, 1.0, 0)})
	require.Len(t, s.cutoffs, 2)
	smoothed := 0.5*0.85 + 1.0*0.15
	expected := 300 * math.Pow(20000.0/300.0, 1-smoothed)
	assert.InDelta(t, expected, s.cutoffs[1], 1e-6)
}

func TestCutoffSuspendedWhileIndexPinchHeld(t *testing.T) {
	m, s, _ := newTestMapper()
	h := handAt(0.5, 0.5, 0.3)
	h.IndexPinch = true
	m.Update(Frame{Right: h})
	assert.Empty(t, s.cutoffs, "the pinching motion must not drag the filter")
	// rate and morph still track
	assert.Len(t, s.rates, 1)
	assert.Len(t, s.morphs, 1)
}

func TestCutoffSuspendedWhileLeftIndexPinchHeld(t *testing.T) {
	m, s, _ := newTestMapper()
	left := handAt(0.5, 0.5, 0)
	left.IndexPinch = true
	m.Update(Frame{Left: left, Right: handAt(0.5, 0.5, 0)})
	assert.Empty(t, s.cutoffs)
}

func TestDepthSuspendedWhileLeftPinchHeld(t *testing.T) {
	m, s, _ := newTestMapper()
	h := handAt(0.5, 0.5, 0)
	h.MiddlePinch = true
	m.Update(Frame{Left: h})
	assert.Empty(t, s.depths)
}

func TestRightHandLossRevertsToDefaults(t *testing.T) {
	m, s, _ := newTestMapper()
	m.Update(Frame{Left: handAt(0.5, 0.5, 0), Right: handAt(0.2, 0.2, 0.6)})
	nCutoffs, nRates, nMorphs := len(s.cutoffs), len(s.rates), len(s.morphs)

	// right hand drops out, left stays: no fade, defaults restored once
	m.Update(Frame{Left: handAt(0.5, 0.5, 0)})
	m.Update(Frame{Left: handAt(0.5, 0.5, 0)})
	assert.Equal(t, 0, s.fadeOuts)
	require.Len(t, s.cutoffs, nCutoffs+1)
	require.Len(t, s.rates, nRates+1)
	require.Len(t, s.morphs, nMorphs+1)
	assert.Equal(t, 2000.0, s.cutoffs[nCutoffs])
	assert.Equal(t, 0.5, s.rates[nRates])
	assert.Equal(t, 0.0, s.morphs[nMorphs])
}

func TestLeftHandLossRevertsDepth(t *testing.T) {
	m, s, _ := newTestMapper()
	m.Update(Frame{Left: handAt(0.5, 0.1, 0), Right: handAt(0.5, 0.5, 0)})
	nDepths := len(s.depths)
	m.Update(Frame{Right: handAt(0.5, 0.5, 0)})
	require.Len(t, s.depths, nDepths+1)
	assert.Equal(t, 0.5, s.depths[nDepths])
}

func TestHandReturnDoesNotGlideFromStaleValue(t *testing.T) {
	m, s, _ := newTestMapper()
	m.Update(Frame{Left: handAt(0.5, 0.5, 0), Right: handAt(0.5, 0.9, 0)})
	m.Update(Frame{Left: handAt(0.5, 0.5, 0)})
	// the returning hand primes the smoother at the raw position
	m.Update(Frame{Left: handAt(0.5, 0.5, 0), Right: handAt(0.5, 0.1, 0)})
	last := s.cutoffs[len(s.cutoffs)-1]
	expected := 300 * math.Pow(20000.0/300.0, 1-0.1)
	assert.InDelta(t, expected, last, 1e-6)
}

func TestHandsLostResetsDebounce(t *testing.T) {
	m, s, clock := newTestMapper()
	h := handAt(0.5, 0.5, 0)
	h.PinkyPinch = true
	m.Update(Frame{Right: h})
	require.Len(t, s.chords, 1)

	*clock = 0.1
	m.Update(Frame{})
	m.Update(Frame{Right: h})
	// tracking restarted: the old debounce window no longer applies
	assert.Len(t, s.chords, 2)
}

func TestRingPinchIsIgnored(t *testing.T) {
	m, s, _ := newTestMapper()
	h := handAt(0.5, 0.5, 0)
	h.RingPinch = true
	m.Update(Frame{Right: h})
	assert.Empty(t, s.chords)
}

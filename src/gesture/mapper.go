package gesture

import (
	"log"
	"math"
	"time"

	"airchord/src/audio"
	"airchord/src/config"
)

// Synth is the parameter surface the mapper drives. Calls are
// fire-and-forget: the engine schedules a ramp and returns.
type Synth interface {
	SetChord(root int, extension audio.Extension, quality audio.Quality) error
	SetMaxFilterCutoff(hz float64) error
	SetLFORate(hz float64) error
	SetLFODepth(fraction float64) error
	SetWaveformFromOpenness(morph float64) error
	FadeIn(seconds float64) error
	FadeOut(seconds float64) error
}

// ----- Smoothing ----- //

// ema smooths a jittery continuous channel. The first sample primes
// it so a hand entering the frame does not glide in from zero.
type ema struct {
	value  float64
	primed bool
}

func (s *ema) update(raw float64, retain float64) float64 {
	if !s.primed {
		s.value = raw
		s.primed = true
	} else {
		s.value = s.value*retain + raw*(1-retain)
	}
	return s.value
}

func (s *ema) reset() {
	s.value = 0
	s.primed = false
}

// prior-frame pinch booleans for rising-edge detection
type pinchEdges struct {
	index  bool
	middle bool
	pinky  bool
}

// ----- Mapper ----- //

// Mapper turns per-frame hand data into synth parameter updates:
// smoothed continuous mappings, debounced rising-edge pinch events,
// and fade transitions when hands enter or leave the frame. It runs
// at the perception frame rate and is the engine's sole writer.
type Mapper struct {
	synth    Synth
	cfg      config.GestureConfig
	synthCfg config.SynthConfig
	now      func() float64 // seconds

	rightX ema
	rightY ema
	leftY  ema

	prevRight pinchEdges
	prevLeft  pinchEdges

	lastPitch     float64
	lastExtension float64

	root      int
	extension audio.Extension
	quality   audio.Quality

	handsPresent bool
	rightSeen    bool
	leftSeen     bool
}

func NewMapper(synth Synth, cfg *config.Config) *Mapper {
	return &Mapper{
		synth:    synth,
		cfg:      cfg.Gesture,
		synthCfg: cfg.Synth,
		now: func() float64 {
			return float64(time.Now().UnixNano()) / 1000 / 1000 / 1000
		},
		lastPitch:     math.Inf(-1),
		lastExtension: math.Inf(-1),
		root:          48,
		extension:     audio.Seventh,
		quality:       audio.Minor,
	}
}

// Update evaluates one perception frame.
func (m *Mapper) Update(f Frame) {
	if !f.Left.Detected && !f.Right.Detected {
		if m.handsPresent {
			m.call(m.synth.FadeOut(0))
			m.handsPresent = false
		}
		m.loseRight()
		m.loseLeft()
		// gesture tracking stopped: debounce state goes with it
		m.lastPitch = math.Inf(-1)
		m.lastExtension = math.Inf(-1)
		return
	}
	if !m.handsPresent {
		m.call(m.synth.FadeIn(0))
		m.handsPresent = true
	}
	now := m.now()
	m.handlePitch(now, f)
	m.handleExtension(now, f)
	m.updateRight(f)
	m.updateLeft(f)
	m.rememberPinches(f)
}

// handlePitch fires at most one debounced pitch action per frame.
// Within a hand, the two-semitone gesture (pinky) wins over the
// one-semitone gesture (index); the one-semitone rule is gated off
// entirely while the same hand's pinky pinch is held. Right hand
// raises pitch, left hand lowers it. Only the one-semitone action
// toggles chord quality.
func (m *Mapper) handlePitch(now float64, f Frame) {
	delta := 0
	toggleQuality := false
	switch {
	case f.Right.Detected && f.Right.PinkyPinch && !m.prevRight.pinky:
		delta = 2
	case f.Left.Detected && f.Left.PinkyPinch && !m.prevLeft.pinky:
		delta = -2
	case f.Right.Detected && f.Right.IndexPinch && !m.prevRight.index && !f.Right.PinkyPinch:
		delta = 1
		toggleQuality = true
	case f.Left.Detected && f.Left.IndexPinch && !m.prevLeft.index && !f.Left.PinkyPinch:
		delta = -1
		toggleQuality = true
	default:
		return
	}
	if now-m.lastPitch <= m.cfg.PitchDebounceMs/1000 {
		return
	}
	m.lastPitch = now
	m.root = clampRoot(m.root + delta)
	if toggleQuality {
		m.quality = m.quality.Toggled()
	}
	m.call(m.synth.SetChord(m.root, m.extension, m.quality))
}

// handleExtension toggles seventh/ninth on a middle-finger pinch of
// either hand, with its own debounce timer.
func (m *Mapper) handleExtension(now float64, f Frame) {
	rising := f.Right.Detected && f.Right.MiddlePinch && !m.prevRight.middle ||
		f.Left.Detected && f.Left.MiddlePinch && !m.prevLeft.middle
	if !rising {
		return
	}
	if now-m.lastExtension <= m.cfg.ExtensionDebounceMs/1000 {
		return
	}
	m.lastExtension = now
	m.extension = m.extension.Toggled()
	m.call(m.synth.SetChord(m.root, m.extension, m.quality))
}

// updateRight maps the right hand: Y to max cutoff (exponential,
// top of frame raises it), X to LFO rate (exponential), openness to
// the waveform morph. The Y mapping is suspended while a one-semitone
// pinch is held on either hand so the pinching motion does not also
// perturb the filter.
func (m *Mapper) updateRight(f Frame) {
	if !f.Right.Detected {
		m.loseRight()
		return
	}
	m.rightSeen = true
	oneSemitoneActive := f.Right.IndexPinch || f.Left.Detected && f.Left.IndexPinch
	if !oneSemitoneActive {
		y := m.rightY.update(f.Right.CenterY, m.cfg.Smoothing)
		minC := m.synthCfg.MinCutoff
		maxC := m.synthCfg.MaxCutoffLimit
		m.call(m.synth.SetMaxFilterCutoff(minC * math.Pow(maxC/minC, 1-y)))
	}
	x := m.rightX.update(f.Right.CenterX, m.cfg.Smoothing)
	minR := m.synthCfg.LFO.MinRate
	maxR := m.synthCfg.LFO.RateCeiling()
	m.call(m.synth.SetLFORate(minR * math.Pow(maxR/minR, x)))
	m.call(m.synth.SetWaveformFromOpenness(f.Right.Openness))
}

// updateLeft maps left-hand Y to LFO depth (linear inverse, top of
// frame is full depth), suspended while any left-hand pinch is held.
func (m *Mapper) updateLeft(f Frame) {
	if !f.Left.Detected {
		m.loseLeft()
		return
	}
	m.leftSeen = true
	if f.Left.IndexPinch || f.Left.MiddlePinch || f.Left.PinkyPinch {
		return
	}
	y := m.leftY.update(f.Left.CenterY, m.cfg.Smoothing)
	minD := m.synthCfg.LFO.MinDepth
	maxD := m.synthCfg.LFO.MaxDepth
	m.call(m.synth.SetLFODepth(maxD - y*(maxD-minD)))
}

// loseRight reverts the right hand's parameters to safe defaults
// instead of holding the last value indefinitely.
func (m *Mapper) loseRight() {
	if !m.rightSeen {
		return
	}
	m.rightSeen = false
	m.rightX.reset()
	m.rightY.reset()
	m.prevRight = pinchEdges{}
	m.call(m.synth.SetMaxFilterCutoff(m.cfg.DefaultMaxCutoff))
	m.call(m.synth.SetLFORate(m.cfg.DefaultLFORate))
	m.call(m.synth.SetWaveformFromOpenness(m.cfg.DefaultMorph))
}

func (m *Mapper) loseLeft() {
	if !m.leftSeen {
		return
	}
	m.leftSeen = false
	m.leftY.reset()
	m.prevLeft = pinchEdges{}
	m.call(m.synth.SetLFODepth(m.cfg.DefaultLFODepth))
}

func (m *Mapper) rememberPinches(f Frame) {
	m.prevRight = pinchEdges{}
	if f.Right.Detected {
		m.prevRight = pinchEdges{
			index:  f.Right.IndexPinch,
			middle: f.Right.MiddlePinch,
			pinky:  f.Right.PinkyPinch,
		}
	}
	m.prevLeft = pinchEdges{}
	if f.Left.Detected {
		m.prevLeft = pinchEdges{
			index:  f.Left.IndexPinch,
			middle: f.Left.MiddlePinch,
			pinky:  f.Left.PinkyPinch,
		}
	}
}

func (m *Mapper) call(err error) {
	if err != nil {
		log.Printf("synth call failed: %v\n", err)
	}
}

func clampRoot(root int) int {
	if root < audio.MinRoot {
		return audio.MinRoot
	}
	if root > audio.MaxRoot {
		return audio.MaxRoot
	}
	return root
}

package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"sync"

	"github.com/hajimehoshi/oto"

	"airchord/src/config"
)

const (
	sampleRate      = 48000
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	fftSize         = 2048 // multiple of samplesPerCycle
)

const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096
const secPerSample = 1.0 / sampleRate

const oscGain = 0.1
const retuneRampMs = 50.0
const paramRampMs = 100.0
const silenceThreshold = 0.01
const filterQ = 1.0

var fft = NewFFT(fftSize)

// ----- Engine ----- //

// Engine renders a continuously sounding chord drone: oscillator bank
// -> lowpass filter -> master gain -> analysis tap -> output. Parameter
// setters never write values directly into the render path; they
// schedule ramps on the sample clock, so the renderer always sees a
// continuously interpolated value.
//
// The control surface expects a single writer. Setters are cheap and
// non-blocking: they take the state lock, install a ramp and return.
type Engine struct {
	mu         sync.Mutex
	ctx        context.Context
	otoContext *oto.Context
	cfg        config.SynthConfig

	chord   chord
	voices  []*voice
	morph   float64
	shape   int
	table   *wavetable // shared by all voices while morphing
	lfo     *filterLFO
	filter  *lowpass
	gain    *rampValue
	playing bool

	disposed bool

	pos       int64
	out       []float64 // length: fftSize
	fftResult []float64 // length: fftSize
}

var _ io.Reader = (*Engine)(nil)

// NewEngine constructs the rendering graph and allocates the real-time
// output. Fails when no audio output device is available; the returned
// engine is then nil and must not be used.
func NewEngine(cfg *config.Config) (*Engine, error) {
	e := newEngine(cfg)
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, fmt.Errorf("audio: no output device available: %w", err)
	}
	e.otoContext = otoContext
	return e, nil
}

// newEngine builds the graph without touching the output device. The
// LFO and its center offset start here and run for the lifetime of the
// engine; they are never stopped, only their contribution is zeroed.
func newEngine(cfg *config.Config) *Engine {
	s := cfg.Synth
	return &Engine{
		ctx: context.Background(),
		cfg: s,
		chord: chord{
			root:      48,
			extension: Seventh,
			quality:   Minor,
		},
		morph:     0,
		shape:     shapeSaw,
		lfo:       newFilterLFO(s.MinCutoff, s.DefaultMaxCutoff, s.LFO.DefaultRate, s.LFO.DefaultDepth),
		filter:    newLowpass((s.MinCutoff+s.DefaultMaxCutoff)/2, filterQ),
		gain:      newRampValue(0),
		out:       make([]float64, fftSize),
		fftResult: make([]float64, fftSize),
	}
}

func (e *Engine) guard() error {
	if e == nil || e.lfo == nil {
		return ErrNotInitialized
	}
	if e.disposed {
		return ErrDisposed
	}
	return nil
}

// Start creates one oscillator per chord voice at the current chord's
// frequencies with the current waveform shape, and leaves the master
// gain at zero in preparation for an explicit fade-in. No-op if
// already playing.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	if e.playing {
		return nil
	}
	e.rebuildVoices()
	e.gain.set(0)
	e.playing = true
	return nil
}

// Stop is a hard reset: it discards all voices. The normal
// "hands left frame" path is FadeOut, which keeps voices running.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	e.voices = nil
	e.playing = false
	return nil
}

// Dispose releases the output device. Safe to call on a partially
// initialized engine and safe to call twice.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return nil
	}
	e.voices = nil
	e.playing = false
	e.disposed = true
	if e.otoContext != nil {
		return e.otoContext.Close()
	}
	return nil
}

func (e *Engine) rebuildVoices() {
	freqs := e.chord.frequencies()
	e.voices = make([]*voice, len(freqs))
	for i, freq := range freqs {
		e.voices[i] = newVoice(freq, e.shape, e.table)
	}
}

// SetChord re-voices or retunes the oscillator bank. Clamps root to
// [MinRoot, MaxRoot]; no-op when nothing changed. A voice-count change
// rebuilds the bank; otherwise each voice glides to its new frequency.
func (e *Engine) SetChord(root int, extension Extension, quality Quality) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	next := chord{
		root:      clampRoot(root),
		extension: extension,
		quality:   quality,
	}
	if next == e.chord {
		return nil
	}
	revoice := next.extension.Voices() != e.chord.extension.Voices()
	e.chord = next
	if !e.playing {
		return nil
	}
	if revoice {
		e.rebuildVoices()
		return nil
	}
	freqs := next.frequencies()
	for i, v := range e.voices {
		v.retune(freqs[i])
	}
	return nil
}

// SetWaveformFromOpenness morphs every voice between sawtooth (0) and
// triangle (1). Changes below the chatter threshold are ignored; near
// the endpoints the shape snaps to the canonical waveform.
func (e *Engine) SetWaveformFromOpenness(morph float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	if morph < 0 {
		morph = 0
	}
	if morph > 1 {
		morph = 1
	}
	if math.Abs(morph-e.morph) < morphChatter {
		return nil
	}
	e.morph = morph
	switch {
	case morph <= morphSnapLow:
		e.shape = shapeSaw
		e.table = nil
	case morph >= morphSnapHigh:
		e.shape = shapeTriangle
		e.table = nil
	default:
		e.shape = shapeMorph
		e.table = newMorphTable(morph)
	}
	for _, v := range e.voices {
		v.setShape(e.shape, e.table)
	}
	return nil
}

// SetMaxFilterCutoff moves the upper bound of the filter sweep,
// clamped to [minCutoff+100, the configured ceiling]. The dependent
// centerpoint and depth amplitude ramp over ~100 ms.
func (e *Engine) SetMaxFilterCutoff(hz float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	min := e.cfg.MinCutoff + 100
	if hz < min {
		hz = min
	}
	if hz > e.cfg.MaxCutoffLimit {
		hz = e.cfg.MaxCutoffLimit
	}
	e.lfo.setRange(hz, paramRampMs)
	return nil
}

// SetLFORate ramps the sweep rate over ~100 ms. Callers may request
// values outside the configured range; the engine clamps. Rates above
// the musical ceiling require the wide-range opt-in in the config.
func (e *Engine) SetLFORate(hz float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	if hz < e.cfg.LFO.MinRate {
		hz = e.cfg.LFO.MinRate
	}
	if ceiling := e.cfg.LFO.RateCeiling(); hz > ceiling {
		hz = ceiling
	}
	e.lfo.setRate(hz, paramRampMs)
	return nil
}

// SetLFODepth sets the fraction of the cutoff range the sweep covers.
func (e *Engine) SetLFODepth(fraction float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	if fraction < e.cfg.LFO.MinDepth {
		fraction = e.cfg.LFO.MinDepth
	}
	if fraction > e.cfg.LFO.MaxDepth {
		fraction = e.cfg.LFO.MaxDepth
	}
	e.lfo.setDepth(fraction, paramRampMs)
	return nil
}

// FadeOut freezes the filter sweep at its instantaneous cutoff and
// ramps the master gain to zero, both over the given duration
// (seconds; non-positive means the configured default). Voices keep
// running so a later FadeIn resumes without restart latency.
func (e *Engine) FadeOut(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	if seconds <= 0 {
		seconds = e.cfg.FadeOutSeconds
	}
	durationMs := seconds * 1000
	e.lfo.freeze(durationMs)
	e.gain.linear(durationMs, 0)
	return nil
}

// FadeIn unfreezes the filter sweep (no-op if not frozen) and ramps
// the master gain to the fade target volume.
func (e *Engine) FadeIn(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	if seconds <= 0 {
		seconds = e.cfg.FadeInSeconds
	}
	durationMs := seconds * 1000
	e.lfo.unfreeze(durationMs)
	e.gain.linear(durationMs, e.cfg.FadeTargetVolume)
	return nil
}

// IsPlaying reports whether the oscillator bank is running. The bank
// can run silently: IsPlaying and IsSilent are independent.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// IsSilent reports whether the master gain is effectively zero.
func (e *Engine) IsSilent() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gain.value < silenceThreshold
}

// ----- Render ----- //

func (e *Engine) renderSample() float64 {
	cutoff := e.lfo.step()
	sum := 0.0
	for _, v := range e.voices {
		sum += v.step()
	}
	value := e.filter.step(sum*oscGain, cutoff)
	e.gain.step()
	return value * e.gain.value
}

func (e *Engine) Read(buf []byte) (int, error) {
	select {
	case <-e.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
		e.mu.Lock()
		defer e.mu.Unlock()
		bufSamples := int64(len(buf) / bytesPerSample)
		offset := e.pos % fftSize
		out := e.out[offset : offset+bufSamples]
		for i := range out {
			out[i] = e.renderSample()
		}
		writeBuffer(e.out, offset, buf, 0)
		writeBuffer(e.out, offset, buf, 1)
		e.pos += bufSamples
		return len(buf), nil
	}
}

func writeBuffer(out []float64, outOffset int64, buf []byte, ch int) {
	sampleLength := int(len(buf) / bytesPerSample)
	for i := 0; i < sampleLength; i++ {
		value := out[outOffset+int64(i)]
		const max = 32767
		b := int16(value * max)
		buf[bytesPerSample*i+2*ch] = byte(b)
		buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
	}
}

// Run pumps rendered PCM into the output device until the context is
// cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if err := e.guard(); err != nil {
		e.mu.Unlock()
		return err
	}
	if e.otoContext == nil {
		e.mu.Unlock()
		return ErrNotInitialized
	}
	e.ctx = ctx
	e.mu.Unlock()

	p := e.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	if _, err := io.CopyBuffer(p, e, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Run() ended.")
	return nil
}

// ----- Analysis Tap ----- //

// Spectrum returns frequency-domain magnitudes of the last fftSize
// rendered samples. Pull-based: the visualizer polls it once per
// animation frame.
func (e *Engine) Spectrum() []float64 {
	e.mu.Lock()
	// out:       | 4 | 1 | 2 | 3 |
	// offset:        ^
	// fftResult: | 1 | 2 | 3 | 4 |
	// return:    |<----->|
	offset := e.pos % fftSize
	copy(e.fftResult, e.out[offset:])
	copy(e.fftResult[fftSize-offset:], e.out[:offset])
	e.mu.Unlock()
	hann(e.fftResult)
	fft.CalcAbs(e.fftResult)
	for i, value := range e.fftResult {
		e.fftResult[i] = value * 2 / fftSize
	}
	return e.fftResult[:fftSize/2]
}

// CurrentCutoff returns the instantaneous filter cutoff in Hz.
func (e *Engine) CurrentCutoff() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lfo.cutoff()
}

// LFORate returns the current sweep rate in Hz.
func (e *Engine) LFORate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lfo.rate.value
}

// LFODepth returns the current sweep depth fraction.
func (e *Engine) LFODepth() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lfo.depth
}

// LFOPhase returns the current sweep phase in radians.
func (e *Engine) LFOPhase() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lfo.phase
}

// Morph returns the current waveform morph value.
func (e *Engine) Morph() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.morph
}

// Frozen reports whether the filter sweep is pinned.
func (e *Engine) Frozen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lfo.frozen()
}

// Chord returns the current chord state.
func (e *Engine) Chord() (root int, extension Extension, quality Quality) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chord.root, e.chord.extension, e.chord.quality
}

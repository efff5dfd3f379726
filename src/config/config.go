package config

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// Config represents the main configuration
type Config struct {
	Synth   SynthConfig   `yaml:"synth"`
	Gesture GestureConfig `yaml:"gesture"`
}

// SynthConfig contains synthesis-engine configuration
type SynthConfig struct {
	MinCutoff        float64   `yaml:"min_cutoff"`       // Hz, fixed lower bound of the filter sweep
	MaxCutoffLimit   float64   `yaml:"max_cutoff_limit"` // Hz, hard ceiling for the mutable upper bound
	DefaultMaxCutoff float64   `yaml:"default_max_cutoff"`
	LFO              LFOConfig `yaml:"lfo"`
	FadeInSeconds    float64   `yaml:"fade_in_seconds"`
	FadeOutSeconds   float64   `yaml:"fade_out_seconds"`
	FadeTargetVolume float64   `yaml:"fade_target_volume"`
}

// LFOConfig contains filter-LFO configuration
type LFOConfig struct {
	MinRate      float64 `yaml:"min_rate"` // Hz
	MaxRate      float64 `yaml:"max_rate"` // Hz
	DefaultRate  float64 `yaml:"default_rate"`
	MinDepth     float64 `yaml:"min_depth"` // fraction of the cutoff range
	MaxDepth     float64 `yaml:"max_depth"`
	DefaultDepth float64 `yaml:"default_depth"`
	WideRange    bool    `yaml:"wide_range"` // opt-in: allow rates beyond max_rate
	WideMaxRate  float64 `yaml:"wide_max_rate"`
}

// GestureConfig contains gesture-mapper configuration
type GestureConfig struct {
	Smoothing           float64 `yaml:"smoothing"`       // EMA factor retained per update
	PinchThreshold      float64 `yaml:"pinch_threshold"` // normalized tip distance
	PitchDebounceMs     float64 `yaml:"pitch_debounce_ms"`
	ExtensionDebounceMs float64 `yaml:"extension_debounce_ms"`
	DefaultMaxCutoff    float64 `yaml:"default_max_cutoff"` // used when the right hand is undetected
	DefaultLFORate      float64 `yaml:"default_lfo_rate"`
	DefaultLFODepth     float64 `yaml:"default_lfo_depth"`
	DefaultMorph        float64 `yaml:"default_morph"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Synth: SynthConfig{
			MinCutoff:        300,
			MaxCutoffLimit:   20000,
			DefaultMaxCutoff: 2000,
			LFO: LFOConfig{
				MinRate:      0.1,
				MaxRate:      7,
				DefaultRate:  0.5,
				MinDepth:     0.1,
				MaxDepth:     1.0,
				DefaultDepth: 0.5,
				WideRange:    false,
				WideMaxRate:  40,
			},
			FadeInSeconds:    3.0,
			FadeOutSeconds:   3.0,
			FadeTargetVolume: 0.3,
		},
		Gesture: GestureConfig{
			Smoothing:           0.85,
			PinchThreshold:      0.03,
			PitchDebounceMs:     500,
			ExtensionDebounceMs: 300,
			DefaultMaxCutoff:    2000,
			DefaultLFORate:      0.5,
			DefaultLFODepth:     0.5,
			DefaultMorph:        0,
		},
	}
}

// Load reads configuration from a YAML file, filling unset sections
// with defaults.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	s := &c.Synth
	if s.MinCutoff <= 0 {
		return fmt.Errorf("synth.min_cutoff must be positive, got %v", s.MinCutoff)
	}
	if s.MaxCutoffLimit < s.MinCutoff+100 {
		return fmt.Errorf("synth.max_cutoff_limit must be at least min_cutoff+100, got %v", s.MaxCutoffLimit)
	}
	if s.LFO.MinRate <= 0 || s.LFO.MaxRate < s.LFO.MinRate {
		return fmt.Errorf("invalid synth.lfo rate range [%v, %v]", s.LFO.MinRate, s.LFO.MaxRate)
	}
	if s.LFO.MinDepth <= 0 || s.LFO.MaxDepth > 1 || s.LFO.MaxDepth < s.LFO.MinDepth {
		return fmt.Errorf("invalid synth.lfo depth range [%v, %v]", s.LFO.MinDepth, s.LFO.MaxDepth)
	}
	g := &c.Gesture
	if g.Smoothing < 0 || g.Smoothing >= 1 {
		return fmt.Errorf("gesture.smoothing must be in [0, 1), got %v", g.Smoothing)
	}
	return nil
}

// RateCeiling returns the effective LFO rate ceiling, honoring the
// wide-range opt-in.
func (l *LFOConfig) RateCeiling() float64 {
	if l.WideRange && l.WideMaxRate > l.MaxRate {
		return l.WideMaxRate
	}
	return l.MaxRate
}

package audio

import "math"

// ----- Chord ----- //

// Extension selects how many notes the drone stacks above the triad.
type Extension int

const (
	// Seventh voices root, third, fifth and seventh (4 voices).
	Seventh Extension = iota
	// Ninth adds the ninth on top (5 voices).
	Ninth
)

// Quality selects the third (and seventh) flavor of the chord.
type Quality int

const (
	Minor Quality = iota
	Major
)

// Root note bounds (MIDI pitch indices).
const (
	MinRoot = 36
	MaxRoot = 84
)

const baseFreq = 440.0

func (e Extension) String() string {
	if e == Ninth {
		return "ninth"
	}
	return "seventh"
}

// Voices reports the oscillator-bank size for the extension. It is a
// pure function of the extension: changing it forces a re-voice.
func (e Extension) Voices() int {
	if e == Ninth {
		return 5
	}
	return 4
}

func (q Quality) String() string {
	if q == Major {
		return "major"
	}
	return "minor"
}

// Toggled returns the other quality.
func (q Quality) Toggled() Quality {
	if q == Major {
		return Minor
	}
	return Major
}

// Toggled returns the other extension.
func (e Extension) Toggled() Extension {
	if e == Ninth {
		return Seventh
	}
	return Ninth
}

type chord struct {
	root      int
	extension Extension
	quality   Quality
}

func intervals(e Extension, q Quality) []int {
	switch {
	case e == Seventh && q == Minor:
		return []int{0, 3, 7, 10}
	case e == Seventh && q == Major:
		return []int{0, 4, 7, 11}
	case e == Ninth && q == Minor:
		return []int{0, 3, 7, 10, 14}
	default: // Ninth, Major
		return []int{0, 4, 7, 11, 14}
	}
}

func noteToFreq(note int) float64 {
	return baseFreq * math.Pow(2, float64(note-69)/12)
}

// frequencies returns one frequency per chord voice, lowest first.
func (c chord) frequencies() []float64 {
	iv := intervals(c.extension, c.quality)
	freqs := make([]float64, len(iv))
	for i, interval := range iv {
		freqs[i] = noteToFreq(c.root + interval)
	}
	return freqs
}

func clampRoot(root int) int {
	if root < MinRoot {
		return MinRoot
	}
	if root > MaxRoot {
		return MaxRoot
	}
	return root
}

package gesture

import "strconv"

// ----- Perception Contract ----- //

// Hand is one hand's worth of data from the perception collaborator
// for one processed video frame. Positions are normalized to [0,1]
// with (0,0) at the top-left. A pinch boolean means the thumb tip and
// the named finger tip are closer than the perception-side threshold.
type Hand struct {
	Detected    bool
	CenterX     float64
	CenterY     float64
	Openness    float64
	IndexPinch  bool
	MiddlePinch bool
	RingPinch   bool
	PinkyPinch  bool
}

// Frame carries up to two hands. Handedness resolution is the
// perception collaborator's responsibility.
type Frame struct {
	Left  Hand
	Right Hand
}

const handFieldCount = 8

// ParseFrame decodes the wire form of a frame: two groups of eight
// fields, left hand first:
//
//	<detected> <cx> <cy> <openness> <index> <middle> <ring> <pinky>
//
// A malformed hand degrades to "not detected" for that frame rather
// than failing: a single bad frame must not interrupt audio.
func ParseFrame(fields []string) Frame {
	var f Frame
	if len(fields) >= handFieldCount {
		f.Left = parseHand(fields[:handFieldCount])
	}
	if len(fields) >= 2*handFieldCount {
		f.Right = parseHand(fields[handFieldCount : 2*handFieldCount])
	}
	return f
}

func parseHand(fields []string) Hand {
	var h Hand
	detected, err := parseBool(fields[0])
	if err != nil || !detected {
		return Hand{}
	}
	floats := make([]float64, 3)
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[1+i], 64)
		if err != nil || v < 0 || v > 1 {
			return Hand{}
		}
		floats[i] = v
	}
	pinches := make([]bool, 4)
	for i := 0; i < 4; i++ {
		v, err := parseBool(fields[4+i])
		if err != nil {
			return Hand{}
		}
		pinches[i] = v
	}
	h.Detected = true
	h.CenterX, h.CenterY, h.Openness = floats[0], floats[1], floats[2]
	h.IndexPinch, h.MiddlePinch, h.RingPinch, h.PinkyPinch = pinches[0], pinches[1], pinches[2], pinches[3]
	return h
}

func parseBool(s string) (bool, error) {
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return strconv.ParseBool(s)
}

package common

// PadMode selects how a signal is extended before centered framing
type PadMode int

const (
	// PadConstant pads with zeros
	PadConstant PadMode = iota
	// PadEdge repeats the first and last sample
	PadEdge
)

// CenterPad extends signal by frameLength/2 samples on each side so that
// frame t is centered on sample t*hop.
func CenterPad(signal []float64, frameLength int, mode PadMode) []float64 {
	pad := frameLength / 2
	padded := make([]float64, len(signal)+2*pad)
	copy(padded[pad:], signal)

	if mode == PadEdge && len(signal) > 0 {
		first, last := signal[0], signal[len(signal)-1]
		for i := range pad {
			padded[i] = first
			padded[len(padded)-1-i] = last
		}
	}
	return padded
}

// NumFrames returns how many full frames of frameLength fit in n samples at hop
func NumFrames(n, frameLength, hop int) int {
	if n < frameLength || hop <= 0 {
		return 0
	}
	return (n-frameLength)/hop + 1
}

// Frames splits a signal into centered, overlapping frames. The returned
// frames alias the padded buffer and must not be modified.
func Frames(signal []float64, frameLength, hop int, mode PadMode) [][]float64 {
	padded := CenterPad(signal, frameLength, mode)
	count := NumFrames(len(padded), frameLength, hop)

	frames := make([][]float64, count)
	for t := range count {
		start := t * hop
		frames[t] = padded[start : start+frameLength]
	}
	return frames
}

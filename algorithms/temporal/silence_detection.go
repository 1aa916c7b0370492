package temporal

import (
	"math"
)

// SilenceTrimmer locates the non-silent region of a signal
type SilenceTrimmer struct {
	topDB     float64
	frameSize int
	hopSize   int
	envelope  *Envelope
}

// NewSilenceTrimmer treats frames more than topDB below the loudest frame as silence
func NewSilenceTrimmer(topDB float64) *SilenceTrimmer {
	return &SilenceTrimmer{
		topDB:     topDB,
		frameSize: 2048,
		hopSize:   512,
		envelope:  NewEnvelope(),
	}
}

// Bounds returns the [start, end) sample range of the non-silent region.
// A signal that is digital silence throughout is returned whole.
func (st *SilenceTrimmer) Bounds(signal []float64) (int, int) {
	rms := st.envelope.ComputeRMS(signal, st.frameSize, st.hopSize)
	if len(rms) == 0 {
		return 0, 0
	}

	const amin = 1e-10
	refPower := 0.0
	for _, r := range rms {
		refPower = math.Max(refPower, r*r)
	}
	if refPower <= amin {
		return 0, len(signal)
	}
	refDB := 10 * math.Log10(math.Max(amin, refPower))

	first, last := -1, -1
	for t, r := range rms {
		db := 10*math.Log10(math.Max(amin, r*r)) - refDB
		if db > -st.topDB {
			if first < 0 {
				first = t
			}
			last = t
		}
	}
	if first < 0 {
		return 0, 0
	}

	start := first * st.hopSize
	end := min(len(signal), (last+1)*st.hopSize)
	return start, end
}

// Trim returns the non-silent part of signal and its bounds
func (st *SilenceTrimmer) Trim(signal []float64) ([]float64, int, int) {
	start, end := st.Bounds(signal)
	return signal[start:end], start, end
}

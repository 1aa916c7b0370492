package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-mach/algorithms/common"
)

// Envelope provides amplitude envelope extraction
type Envelope struct{}

// NewEnvelope creates a new envelope extractor
func NewEnvelope() *Envelope {
	return &Envelope{}
}

// ComputeRMS computes the RMS of centered, zero-padded frames. The output has
// 1 + len(signal)/hopSize values, aligned with the STFT frame grid.
func (e *Envelope) ComputeRMS(signal []float64, frameSize, hopSize int) []float64 {
	if len(signal) == 0 || frameSize <= 0 || hopSize <= 0 {
		return []float64{}
	}

	frames := common.Frames(signal, frameSize, hopSize, common.PadConstant)
	envelope := make([]float64, len(frames))
	for t, frame := range frames {
		sumSquares := 0.0
		for _, v := range frame {
			sumSquares += v * v
		}
		envelope[t] = math.Sqrt(sumSquares / float64(frameSize))
	}
	return envelope
}

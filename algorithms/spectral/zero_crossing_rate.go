package spectral

import (
	"math"

	"github.com/RyanBlaney/sonido-mach/algorithms/common"
)

// ZeroCrossingRate counts sign changes per sample over centered frames.
// Frames share the STFT hop grid so the output aligns with spectral features.
type ZeroCrossingRate struct {
	frameSize int
	hopSize   int
}

// NewZeroCrossingRate creates a calculator with a 2048-sample frame and 512 hop
func NewZeroCrossingRate() *ZeroCrossingRate {
	return NewZeroCrossingRateWithParams(2048, 512)
}

// NewZeroCrossingRateWithParams creates calculator with custom parameters
func NewZeroCrossingRateWithParams(frameSize, hopSize int) *ZeroCrossingRate {
	return &ZeroCrossingRate{
		frameSize: frameSize,
		hopSize:   hopSize,
	}
}

// Compute returns crossings divided by frame length for a single frame.
// Zero counts as positive, so digital silence has no crossings.
func (zcr *ZeroCrossingRate) Compute(frame []float64) float64 {
	if len(frame) < 2 {
		return 0.0
	}

	crossings := 0
	for i := 1; i < len(frame); i++ {
		if math.Signbit(frame[i-1]) != math.Signbit(frame[i]) && (frame[i-1] != 0 || frame[i] != 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame))
}

// ComputeFrames returns one rate per hop for the whole signal, padding the
// edges by repeating the boundary samples
func (zcr *ZeroCrossingRate) ComputeFrames(signal []float64) []float64 {
	if len(signal) == 0 {
		return []float64{}
	}

	frames := common.Frames(signal, zcr.frameSize, zcr.hopSize, common.PadEdge)
	rates := make([]float64, len(frames))
	for t, frame := range frames {
		rates[t] = zcr.Compute(frame)
	}
	return rates
}

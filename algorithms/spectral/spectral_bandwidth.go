package spectral

import (
	"math"
)

// SpectralBandwidth computes the p-th order spread of a spectrum around its centroid
type SpectralBandwidth struct {
	sampleRate int
	order      float64
	freqBins   []float64
	centroid   *SpectralCentroid
}

// NewSpectralBandwidth creates a second-order bandwidth calculator
func NewSpectralBandwidth(sampleRate int) *SpectralBandwidth {
	return &SpectralBandwidth{
		sampleRate: sampleRate,
		order:      2.0,
		centroid:   NewSpectralCentroid(sampleRate),
	}
}

// Compute calculates the bandwidth in Hz of a single magnitude spectrum
func (sb *SpectralBandwidth) Compute(spectrum []float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}
	sb.freqBins = binFrequencies(sb.freqBins, sb.sampleRate, len(spectrum))

	total := 0.0
	for _, mag := range spectrum {
		total += mag
	}
	if total == 0 {
		return 0
	}

	centroid := sb.centroid.Compute(spectrum)
	sum := 0.0
	for i, mag := range spectrum {
		sum += (mag / total) * math.Pow(math.Abs(sb.freqBins[i]-centroid), sb.order)
	}
	return math.Pow(sum, 1/sb.order)
}

// ComputeFrames processes every frame of a magnitude spectrogram
func (sb *SpectralBandwidth) ComputeFrames(spectrogram [][]float64) []float64 {
	bandwidths := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		bandwidths[t] = sb.Compute(spectrum)
	}
	return bandwidths
}

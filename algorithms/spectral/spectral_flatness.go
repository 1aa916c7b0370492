package spectral

import (
	"math"
)

// SpectralFlatness computes the ratio of geometric to arithmetic mean of a
// power spectrum (Wiener entropy). Values near 1 are noise-like, values
// near 0 are tonal.
type SpectralFlatness struct {
	amin float64
}

// NewSpectralFlatness creates a new spectral flatness calculator
func NewSpectralFlatness() *SpectralFlatness {
	return &SpectralFlatness{
		amin: 1e-10,
	}
}

// Compute calculates flatness for one power spectrum. Every bin is floored
// at amin first, so an all-silent frame is perfectly flat (1.0).
func (sf *SpectralFlatness) Compute(powerSpectrum []float64) float64 {
	if len(powerSpectrum) == 0 {
		return 0.0
	}

	logSum := 0.0
	sum := 0.0
	for _, p := range powerSpectrum {
		p = math.Max(sf.amin, p)
		logSum += math.Log(p)
		sum += p
	}

	n := float64(len(powerSpectrum))
	geometricMean := math.Exp(logSum / n)
	arithmeticMean := sum / n

	return math.Min(1.0, geometricMean/arithmeticMean)
}

// ComputeFrames processes every frame of a power spectrogram
func (sf *SpectralFlatness) ComputeFrames(spectrogram [][]float64) []float64 {
	flatness := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		flatness[t] = sf.Compute(spectrum)
	}
	return flatness
}

package spectral

// SpectralRolloff finds the frequency below which a fixed share of the
// spectral magnitude lies
type SpectralRolloff struct {
	sampleRate int
	freqBins   []float64
}

// NewSpectralRolloff creates a new spectral rolloff calculator
func NewSpectralRolloff(sampleRate int) *SpectralRolloff {
	return &SpectralRolloff{
		sampleRate: sampleRate,
	}
}

// Compute returns the rolloff frequency of a magnitude spectrum.
// rollPercent is typically 0.85.
func (sr *SpectralRolloff) Compute(spectrum []float64, rollPercent float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}
	sr.freqBins = binFrequencies(sr.freqBins, sr.sampleRate, len(spectrum))

	total := 0.0
	for _, mag := range spectrum {
		total += mag
	}
	target := rollPercent * total

	cumulative := 0.0
	for i, mag := range spectrum {
		cumulative += mag
		if cumulative >= target {
			return sr.freqBins[i]
		}
	}
	return sr.freqBins[len(sr.freqBins)-1]
}

// ComputeFrames processes every frame of a magnitude spectrogram
func (sr *SpectralRolloff) ComputeFrames(spectrogram [][]float64, rollPercent float64) []float64 {
	rolloffs := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		rolloffs[t] = sr.Compute(spectrum, rollPercent)
	}
	return rolloffs
}

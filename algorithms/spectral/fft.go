package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps the real-input transform from go-dsp
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the full complex spectrum of a real frame.
// go-dsp handles non-power-of-two sizes.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// Power returns |X[k]|^2 for the non-negative frequency bins (len(x)/2+1 values)
func (f *FFT) Power(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	spectrum := fft.FFTReal(x)
	bins := len(x)/2 + 1
	power := make([]float64, bins)
	for i := range bins {
		re, im := real(spectrum[i]), imag(spectrum[i])
		power[i] = re*re + im*im
	}
	return power
}

// FrequencyBins returns the center frequency of each of the n/2+1 bins of an n-point FFT
func FrequencyBins(sampleRate, n int) []float64 {
	bins := n/2 + 1
	freqs := make([]float64, bins)
	for i := range bins {
		freqs[i] = float64(i) * float64(sampleRate) / float64(n)
	}
	return freqs
}

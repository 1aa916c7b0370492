package spectral

import (
	"math"
)

// Slaney mel scale constants: linear below 1 kHz, logarithmic above
const (
	slaneyFSp       = 200.0 / 3
	slaneyMinLogHz  = 1000.0
	slaneyMinLogMel = slaneyMinLogHz / slaneyFSp
)

var slaneyLogStep = math.Log(6.4) / 27.0

// MelScale converts between Hz and mel and builds triangular filterbanks
type MelScale struct {
	htk       bool
	normalize bool
}

// NewMelScale creates the Slaney-style scale with area-normalized filters
func NewMelScale() *MelScale {
	return &MelScale{normalize: true}
}

// NewHTKMelScale creates the HTK formula scale (2595*log10(1+f/700)) with
// unnormalized, peak-1 filters
func NewHTKMelScale() *MelScale {
	return &MelScale{htk: true}
}

// HzToMel converts frequency in Hz to mel
func (ms *MelScale) HzToMel(hz float64) float64 {
	if ms.htk {
		return 2595.0 * math.Log10(1.0+hz/700.0)
	}
	if hz < slaneyMinLogHz {
		return hz / slaneyFSp
	}
	return slaneyMinLogMel + math.Log(hz/slaneyMinLogHz)/slaneyLogStep
}

// MelToHz converts mel to frequency in Hz
func (ms *MelScale) MelToHz(mel float64) float64 {
	if ms.htk {
		return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
	}
	if mel < slaneyMinLogMel {
		return mel * slaneyFSp
	}
	return slaneyMinLogHz * math.Exp(slaneyLogStep*(mel-slaneyMinLogMel))
}

// MelFrequencies returns n frequencies evenly spaced on the mel scale over [fmin, fmax]
func (ms *MelScale) MelFrequencies(n int, fmin, fmax float64) []float64 {
	lo, hi := ms.HzToMel(fmin), ms.HzToMel(fmax)
	freqs := make([]float64, n)
	for i := range n {
		mel := lo
		if n > 1 {
			mel = lo + (hi-lo)*float64(i)/float64(n-1)
		}
		freqs[i] = ms.MelToHz(mel)
	}
	return freqs
}

// CreateMelFilterBank builds numFilters triangular filters over the
// fftSize/2+1 bins of an fftSize-point FFT. Filter edges are interpolated
// on bin frequencies rather than snapped to bins, so narrow low-frequency
// filters never collapse to zero.
func (ms *MelScale) CreateMelFilterBank(numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	if numFilters <= 0 || fftSize <= 0 {
		return nil
	}
	if highFreq <= 0 {
		highFreq = float64(sampleRate) / 2
	}

	fftFreqs := FrequencyBins(sampleRate, fftSize)
	melF := ms.MelFrequencies(numFilters+2, lowFreq, highFreq)

	filterBank := make([][]float64, numFilters)
	for m := range numFilters {
		left, center, right := melF[m], melF[m+1], melF[m+2]
		filter := make([]float64, len(fftFreqs))

		for k, f := range fftFreqs {
			lower := (f - left) / (center - left)
			upper := (right - f) / (right - center)
			filter[k] = math.Max(0, math.Min(lower, upper))
		}

		// scale to constant energy per band
		if ms.normalize {
			enorm := 2.0 / (right - left)
			for k := range filter {
				filter[k] *= enorm
			}
		}
		filterBank[m] = filter
	}

	return filterBank
}

// ApplyFilterBank maps one power spectrum onto the filterbank
func (ms *MelScale) ApplyFilterBank(powerSpectrum []float64, filterBank [][]float64) []float64 {
	if len(filterBank) == 0 || len(powerSpectrum) == 0 {
		return []float64{}
	}

	melSpectrum := make([]float64, len(filterBank))
	for i, filter := range filterBank {
		sum := 0.0
		for j := 0; j < len(filter) && j < len(powerSpectrum); j++ {
			sum += powerSpectrum[j] * filter[j]
		}
		melSpectrum[i] = sum
	}
	return melSpectrum
}

// ApplyFrames maps every frame of a power spectrogram onto the filterbank
func (ms *MelScale) ApplyFrames(spectrogram [][]float64, filterBank [][]float64) [][]float64 {
	mel := make([][]float64, len(spectrogram))
	for t, frame := range spectrogram {
		mel[t] = ms.ApplyFilterBank(frame, filterBank)
	}
	return mel
}

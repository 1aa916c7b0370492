package features

import (
	"fmt"

	"github.com/RyanBlaney/sonido-mach/algorithms/spectral"
	"github.com/RyanBlaney/sonido-mach/algorithms/temporal"
	"github.com/RyanBlaney/sonido-mach/apperrors"
)

// Per-frame extractors. All of them use centered frames on the hop grid, so
// their outputs line up with ExtractFrames when HopLength matches.

// ZeroCrossingRate returns sign changes per sample for each frame
func ZeroCrossingRate(samples []float64, frameLength, hopLength int) []float64 {
	return spectral.NewZeroCrossingRateWithParams(frameLength, hopLength).ComputeFrames(samples)
}

// RMS returns the root-mean-square amplitude of each frame
func RMS(samples []float64, frameLength, hopLength int) []float64 {
	return temporal.NewEnvelope().ComputeRMS(samples, frameLength, hopLength)
}

// SpectralCentroid returns the magnitude-weighted mean frequency of each frame in Hz
func SpectralCentroid(w Waveform, nFFT, hopLength int) ([]float64, error) {
	stft, err := spectrogram(w, nFFT, hopLength)
	if err != nil {
		return nil, err
	}
	return spectral.NewSpectralCentroid(w.SampleRate).ComputeFrames(stft.Magnitude()), nil
}

// SpectralBandwidth returns the second-order spread around the centroid of each frame in Hz
func SpectralBandwidth(w Waveform, nFFT, hopLength int) ([]float64, error) {
	stft, err := spectrogram(w, nFFT, hopLength)
	if err != nil {
		return nil, err
	}
	return spectral.NewSpectralBandwidth(w.SampleRate).ComputeFrames(stft.Magnitude()), nil
}

// SpectralRolloff returns, per frame, the frequency below which rollPercent
// of the spectral magnitude lies
func SpectralRolloff(w Waveform, nFFT, hopLength int, rollPercent float64) ([]float64, error) {
	if rollPercent <= 0 || rollPercent >= 1 {
		return nil, apperrors.Validation("roll percent must be in (0, 1), got %.3f", rollPercent)
	}
	stft, err := spectrogram(w, nFFT, hopLength)
	if err != nil {
		return nil, err
	}
	return spectral.NewSpectralRolloff(w.SampleRate).ComputeFrames(stft.Magnitude(), rollPercent), nil
}

// SpectralFlatness returns the geometric/arithmetic mean ratio of each power spectrum
func SpectralFlatness(w Waveform, nFFT, hopLength int) ([]float64, error) {
	stft, err := spectrogram(w, nFFT, hopLength)
	if err != nil {
		return nil, err
	}
	return spectral.NewSpectralFlatness().ComputeFrames(stft.Power), nil
}

// MFCC returns nMFCC cepstral coefficients per frame computed from the
// absolute dB mel spectrogram described by cfg
func MFCC(w Waveform, cfg AudioFeatureConfig, nMFCC int) ([][]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stft, err := spectrogram(w, cfg.NFFT, cfg.HopLength)
	if err != nil {
		return nil, err
	}

	mel := spectral.NewMelScale()
	fb := mel.CreateMelFilterBank(cfg.NMels, cfg.NFFT, w.SampleRate, cfg.FMin, cfg.UpperFrequency(w.SampleRate))
	logMel := spectral.PowerToDB(mel.ApplyFrames(stft.Power, fb), spectral.AbsoluteDecibelParams())

	m, err := spectral.NewMFCC(nMFCC, cfg.NMels)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	return m.ComputeFrames(logMel)
}

func spectrogram(w Waveform, nFFT, hopLength int) (*spectral.STFTResult, error) {
	if len(w.Samples) == 0 {
		return nil, apperrors.Load("waveform is empty", nil)
	}
	res, err := spectral.NewSTFT().Compute(w.Samples, nFFT, hopLength, w.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("stft: %w", err)
	}
	return res, nil
}

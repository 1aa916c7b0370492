package features

import (
	"github.com/RyanBlaney/sonido-mach/apperrors"
)

// AudioFeatureConfig controls log-mel feature extraction
type AudioFeatureConfig struct {
	SampleRate int     `json:"sample_rate" yaml:"sample_rate"`
	NFFT       int     `json:"n_fft" yaml:"n_fft"`
	HopLength  int     `json:"hop_length" yaml:"hop_length"`
	NMels      int     `json:"n_mels" yaml:"n_mels"`
	FMin       float64 `json:"fmin" yaml:"fmin"`
	FMax       float64 `json:"fmax,omitempty" yaml:"fmax,omitempty"` // 0 means Nyquist
}

// DefaultAudioFeatureConfig returns the standard configuration
func DefaultAudioFeatureConfig() AudioFeatureConfig {
	return AudioFeatureConfig{
		SampleRate: 22050,
		NFFT:       2048,
		HopLength:  512,
		NMels:      128,
		FMin:       20.0,
	}
}

// UpperFrequency resolves FMax against the Nyquist frequency of sampleRate
func (c AudioFeatureConfig) UpperFrequency(sampleRate int) float64 {
	nyquist := float64(sampleRate) / 2
	if c.FMax <= 0 || c.FMax > nyquist {
		return nyquist
	}
	return c.FMax
}

// Validate checks that every parameter is usable
func (c AudioFeatureConfig) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return apperrors.Validation("sample rate must be positive, got %d", c.SampleRate).WithField("sample_rate")
	case c.NFFT <= 0:
		return apperrors.Validation("n_fft must be positive, got %d", c.NFFT).WithField("n_fft")
	case c.HopLength <= 0:
		return apperrors.Validation("hop_length must be positive, got %d", c.HopLength).WithField("hop_length")
	case c.NMels <= 0:
		return apperrors.Validation("n_mels must be positive, got %d", c.NMels).WithField("n_mels")
	case c.FMin < 0:
		return apperrors.Validation("fmin must be non-negative, got %.1f", c.FMin).WithField("fmin")
	case c.FMax > 0 && c.FMax <= c.FMin:
		return apperrors.Validation("fmax (%.1f) must exceed fmin (%.1f)", c.FMax, c.FMin).WithField("fmax")
	}
	return nil
}

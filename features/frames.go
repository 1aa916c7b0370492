package features

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-mach/algorithms/spectral"
	"github.com/RyanBlaney/sonido-mach/apperrors"
	"github.com/RyanBlaney/sonido-mach/logging"
)

// FrameSet is a feature matrix with its index-aligned per-frame arrays.
// Features are dB mel energies relative to the loudest bin of the file.
type FrameSet struct {
	Features       [][]float64        `json:"features"`
	Times          []float64          `json:"times"`
	Energy         []float64          `json:"energy"`
	Flatness       []float64          `json:"flatness,omitempty"`
	Centroid       []float64          `json:"centroid,omitempty"`
	MelFrequencies []float64          `json:"mel_frequencies"`
	SampleRate     int                `json:"sample_rate"`
	Config         AudioFeatureConfig `json:"config"`
	Stride         int                `json:"stride"`
}

// Len returns the number of frames
func (fs *FrameSet) Len() int {
	return len(fs.Features)
}

// Dims returns the number of feature columns
func (fs *FrameSet) Dims() int {
	if len(fs.Features) == 0 {
		return 0
	}
	return len(fs.Features[0])
}

// CheckAligned verifies every per-frame array matches the feature row count
func (fs *FrameSet) CheckAligned() error {
	n := fs.Len()
	arrays := []struct {
		name     string
		values   []float64
		optional bool
	}{
		{"times", fs.Times, false},
		{"energy", fs.Energy, false},
		{"flatness", fs.Flatness, true},
		{"centroid", fs.Centroid, true},
	}
	for _, a := range arrays {
		if a.optional && a.values == nil {
			continue
		}
		if len(a.values) != n {
			return apperrors.Validation("%s has %d values but the feature matrix has %d rows", a.name, len(a.values), n)
		}
	}
	return nil
}

// ExtractOption enables optional per-frame arrays
type ExtractOption func(*extractOptions)

type extractOptions struct {
	flatness bool
	centroid bool
}

// WithFlatness also computes spectral flatness per frame
func WithFlatness() ExtractOption {
	return func(o *extractOptions) { o.flatness = true }
}

// WithCentroid also computes spectral centroid per frame
func WithCentroid() ExtractOption {
	return func(o *extractOptions) { o.centroid = true }
}

// ExtractLogMelFrames computes the dB mel feature matrix, frame times and
// mean linear mel energy per frame
func ExtractLogMelFrames(w Waveform, cfg AudioFeatureConfig) (*FrameSet, error) {
	return ExtractFrames(w, cfg)
}

// ExtractFrames runs one STFT pass over w and derives the feature matrix and
// every requested per-frame array from it. Frame t is centered on sample
// t*HopLength, so all arrays share the same time grid.
func ExtractFrames(w Waveform, cfg AudioFeatureConfig, opts ...ExtractOption) (*FrameSet, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "feature_extractor",
		"function":  "ExtractFrames",
	})

	if len(w.Samples) == 0 {
		return nil, apperrors.Load("waveform is empty", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o extractOptions
	for _, opt := range opts {
		opt(&o)
	}

	sr := w.SampleRate
	if sr <= 0 {
		sr = cfg.SampleRate
	}

	stft, err := spectral.NewSTFT().Compute(w.Samples, cfg.NFFT, cfg.HopLength, sr)
	if err != nil {
		return nil, fmt.Errorf("stft: %w", err)
	}

	mel := spectral.NewMelScale()
	fmax := cfg.UpperFrequency(sr)
	filterBank := mel.CreateMelFilterBank(cfg.NMels, cfg.NFFT, sr, cfg.FMin, fmax)
	melPower := mel.ApplyFrames(stft.Power, filterBank)

	fs := &FrameSet{
		Features:       spectral.PowerToDB(melPower, spectral.DefaultDecibelParams()),
		Times:          make([]float64, stft.TimeFrames),
		Energy:         make([]float64, stft.TimeFrames),
		MelFrequencies: melBandCenters(mel, cfg.NMels, cfg.FMin, fmax),
		SampleRate:     sr,
		Config:         cfg,
		Stride:         1,
	}

	for t, bands := range melPower {
		fs.Times[t] = float64(t*cfg.HopLength) / float64(sr)
		sum := 0.0
		for _, p := range bands {
			sum += p
		}
		fs.Energy[t] = sum / float64(len(bands))
	}

	if o.flatness {
		fs.Flatness = spectral.NewSpectralFlatness().ComputeFrames(stft.Power)
	}
	if o.centroid {
		fs.Centroid = spectral.NewSpectralCentroid(sr).ComputeFrames(stft.Magnitude())
	}

	logger.Debug("Extracted log-mel frames", logging.Fields{
		"frames":     fs.Len(),
		"n_mels":     cfg.NMels,
		"duration_s": math.Round(w.Duration()*100) / 100,
		"flatness":   o.flatness,
		"centroid":   o.centroid,
	})

	return fs, nil
}

// melBandCenters returns the center frequency of each mel filter
func melBandCenters(mel *spectral.MelScale, nMels int, fmin, fmax float64) []float64 {
	edges := mel.MelFrequencies(nMels+2, fmin, fmax)
	return edges[1 : nMels+1]
}

package features

import (
	"context"

	"github.com/RyanBlaney/sonido-mach/algorithms/common"
	"github.com/RyanBlaney/sonido-mach/algorithms/temporal"
	"github.com/RyanBlaney/sonido-mach/apperrors"
	"github.com/RyanBlaney/sonido-mach/transcode"
)

// Waveform is a mono signal and its sample rate
type Waveform struct {
	Samples    []float64 `json:"-"`
	SampleRate int       `json:"sample_rate"`
}

// NewWaveform wraps samples, rejecting an empty signal or a bad rate
func NewWaveform(samples []float64, sampleRate int) (Waveform, error) {
	if len(samples) == 0 {
		return Waveform{}, apperrors.Load("waveform is empty", nil)
	}
	if sampleRate <= 0 {
		return Waveform{}, apperrors.Validation("sample rate must be positive, got %d", sampleRate)
	}
	return Waveform{Samples: samples, SampleRate: sampleRate}, nil
}

// Duration returns the length in seconds
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Normalize returns a peak-normalized copy. Near-silent input (peak < 1e-8)
// is returned unchanged.
func (w Waveform) Normalize() Waveform {
	return Waveform{Samples: common.PeakNormalize(w.Samples, 1e-8), SampleRate: w.SampleRate}
}

// TrimSilence drops leading and trailing audio more than topDB below the
// loudest frame and reports the kept [start, end) sample range
func (w Waveform) TrimSilence(topDB float64) (Waveform, int, int) {
	trimmed, start, end := temporal.NewSilenceTrimmer(topDB).Trim(w.Samples)
	return Waveform{Samples: trimmed, SampleRate: w.SampleRate}, start, end
}

// Load decodes path to mono at sampleRate. Missing, unreadable and empty
// sources all fail with a load error.
func Load(ctx context.Context, path string, sampleRate int) (Waveform, error) {
	cfg := transcode.DefaultDecoderConfig()
	cfg.TargetSampleRate = sampleRate
	return LoadWith(ctx, transcode.NewDecoder(cfg), path)
}

// LoadWith decodes path with an explicit decoder
func LoadWith(ctx context.Context, dec *transcode.Decoder, path string) (Waveform, error) {
	audio, err := dec.DecodeFile(ctx, path)
	if err != nil {
		return Waveform{}, err
	}
	return NewWaveform(audio.PCM, audio.SampleRate)
}

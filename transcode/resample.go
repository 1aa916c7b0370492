package transcode

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// resample converts mono samples between rates in-process.
func resample(samples []float64, fromRate, toRate int, quality string) ([]float64, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid resample rates %d -> %d", fromRate, toRate)
	}
	if fromRate == toRate {
		return samples, nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(fromRate),
		OutputRate: float64(toRate),
		Channels:   1,
		Quality:    qualitySpec(quality),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	out, err := r.Process(samples)
	if err != nil {
		return nil, fmt.Errorf("resample failed: %w", err)
	}
	tail, err := r.Flush()
	if err != nil {
		return nil, fmt.Errorf("resample flush failed: %w", err)
	}
	return append(out, tail...), nil
}

func qualitySpec(quality string) resampling.QualitySpec {
	switch quality {
	case "fast":
		return resampling.QualitySpec{Preset: resampling.QualityLow}
	case "medium":
		return resampling.QualitySpec{Preset: resampling.QualityMedium}
	default:
		return resampling.QualitySpec{Preset: resampling.QualityHigh}
	}
}

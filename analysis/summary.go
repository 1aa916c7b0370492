package analysis

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/sonido-mach/algorithms/common"
	"github.com/RyanBlaney/sonido-mach/algorithms/spectral"
	"github.com/RyanBlaney/sonido-mach/algorithms/temporal"
	"github.com/RyanBlaney/sonido-mach/features"
	"github.com/RyanBlaney/sonido-mach/logging"
)

const (
	frameLength = 2048
	hopLength   = 512
	rollPercent = 0.85
)

// Summary is the aggregate description of one recording
type Summary struct {
	DurationS             float64  `json:"duration_s"`
	SampleRate            int      `json:"sample_rate"`
	TempoBPM              float64  `json:"tempo_bpm"`
	BeatCount             int      `json:"beat_count"`
	OnsetCount            int      `json:"onset_count"`
	RMSMean               float64  `json:"rms_mean"`
	RMSMax                float64  `json:"rms_max"`
	SpectralCentroidMean  float64  `json:"spectral_centroid_mean"`
	SpectralBandwidthMean float64  `json:"spectral_bandwidth_mean"`
	SpectralRolloffMean   float64  `json:"spectral_rolloff_mean"`
	SpectralFlatnessMean  float64  `json:"spectral_flatness_mean"`
	ZeroCrossingRateMean  float64  `json:"zero_crossing_rate_mean"`
	Tags                  []string `json:"tags"`
}

// Report bundles the summary with the onset and beat detail it was built from
type Report struct {
	Summary Summary      `json:"summary"`
	Onsets  *OnsetResult `json:"onsets"`
	Beats   *BeatResult  `json:"beats"`
}

// Summarize computes the summary of w using the default tag rules
func Summarize(ctx context.Context, w features.Waveform) (Summary, error) {
	return SummarizeWith(ctx, w, TagRules)
}

// SummarizeWith computes the summary of w, tagging it with rules
func SummarizeWith(ctx context.Context, w features.Waveform, rules []TagRule) (Summary, error) {
	report, err := Analyze(ctx, w, rules)
	if err != nil {
		return Summary{}, err
	}
	return report.Summary, nil
}

// Analyze computes the full report of w. The onset envelope is computed once
// and shared by onset detection and beat tracking.
func Analyze(ctx context.Context, w features.Waveform, rules []TagRule) (*Report, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "analysis",
		"function":  "Analyze",
	})

	if len(w.Samples) == 0 || w.SampleRate <= 0 {
		return nil, fmt.Errorf("cannot analyze an empty waveform")
	}

	detector := temporal.NewOnsetDetection(onsetParams(w.SampleRate))
	onsetFrames, envelope, err := detector.Detect(w.Samples)
	if err != nil {
		return nil, fmt.Errorf("onset detection failed: %w", err)
	}
	onsets := newOnsetResult(onsetFrames, envelope, w.SampleRate)
	beats := trackBeats(envelope, w.SampleRate)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stft, err := spectral.NewSTFT().Compute(w.Samples, frameLength, hopLength, w.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("stft failed: %w", err)
	}
	magnitude := stft.Magnitude()

	rms := features.RMS(w.Samples, frameLength, hopLength)
	summary := Summary{
		DurationS:             w.Duration(),
		SampleRate:            w.SampleRate,
		TempoBPM:              beats.TempoBPM,
		BeatCount:             beats.BeatCount,
		OnsetCount:            onsets.Count,
		RMSMean:               common.Mean(rms),
		RMSMax:                common.Max(rms),
		SpectralCentroidMean:  common.Mean(spectral.NewSpectralCentroid(w.SampleRate).ComputeFrames(magnitude)),
		SpectralBandwidthMean: common.Mean(spectral.NewSpectralBandwidth(w.SampleRate).ComputeFrames(magnitude)),
		SpectralRolloffMean:   common.Mean(spectral.NewSpectralRolloff(w.SampleRate).ComputeFrames(magnitude, rollPercent)),
		SpectralFlatnessMean:  common.Mean(spectral.NewSpectralFlatness().ComputeFrames(stft.Power)),
		ZeroCrossingRateMean:  common.Mean(features.ZeroCrossingRate(w.Samples, frameLength, hopLength)),
	}
	summary.Tags = DeriveTags(summary, rules)

	logger.Debug("Analysis completed", logging.Fields{
		"duration_s":  summary.DurationS,
		"tempo_bpm":   summary.TempoBPM,
		"onset_count": summary.OnsetCount,
		"tags":        summary.Tags,
	})

	return &Report{Summary: summary, Onsets: onsets, Beats: beats}, nil
}

func onsetParams(sampleRate int) temporal.OnsetParams {
	params := temporal.DefaultOnsetParams(sampleRate)
	params.FFTSize = frameLength
	params.HopSize = hopLength
	return params
}

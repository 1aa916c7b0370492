package analysis

import (
	"fmt"

	"github.com/RyanBlaney/sonido-mach/algorithms/temporal"
	"github.com/RyanBlaney/sonido-mach/features"
)

// OnsetResult lists detected onsets with their envelope strengths
type OnsetResult struct {
	Times        []float64 `json:"times"`
	Strengths    []float64 `json:"strengths"`
	Count        int       `json:"count"`
	MeanInterval float64   `json:"mean_interval"`
}

// BeatResult holds the estimated tempo and beat positions
type BeatResult struct {
	TempoBPM  float64   `json:"tempo_bpm"`
	BeatTimes []float64 `json:"beat_times"`
	BeatCount int       `json:"beat_count"`
}

// DetectOnsets picks onsets from the spectral-flux envelope of w
func DetectOnsets(w features.Waveform) (*OnsetResult, error) {
	if len(w.Samples) == 0 || w.SampleRate <= 0 {
		return nil, fmt.Errorf("cannot detect onsets in an empty waveform")
	}
	frames, envelope, err := temporal.NewOnsetDetection(onsetParams(w.SampleRate)).Detect(w.Samples)
	if err != nil {
		return nil, fmt.Errorf("onset detection failed: %w", err)
	}
	return newOnsetResult(frames, envelope, w.SampleRate), nil
}

// TrackBeats estimates the tempo of w and places beats on its onset envelope
func TrackBeats(w features.Waveform) (*BeatResult, error) {
	if len(w.Samples) == 0 || w.SampleRate <= 0 {
		return nil, fmt.Errorf("cannot track beats in an empty waveform")
	}
	envelope, err := temporal.NewOnsetDetection(onsetParams(w.SampleRate)).Strength(w.Samples)
	if err != nil {
		return nil, fmt.Errorf("onset strength failed: %w", err)
	}
	return trackBeats(envelope, w.SampleRate), nil
}

func newOnsetResult(frames []int, envelope []float64, sampleRate int) *OnsetResult {
	times := temporal.FramesToTimes(frames, hopLength, sampleRate)
	strengths := make([]float64, len(frames))
	for i, f := range frames {
		strengths[i] = envelope[f]
	}

	meanInterval := 0.0
	if len(times) > 1 {
		meanInterval = (times[len(times)-1] - times[0]) / float64(len(times)-1)
	}

	return &OnsetResult{
		Times:        times,
		Strengths:    strengths,
		Count:        len(frames),
		MeanInterval: meanInterval,
	}
}

func trackBeats(envelope []float64, sampleRate int) *BeatResult {
	tempo := temporal.NewTempoEstimation(sampleRate, hopLength).Estimate(envelope)
	beats := temporal.NewBeatTracker(sampleRate, hopLength).Track(envelope, tempo)
	times := temporal.FramesToTimes(beats, hopLength, sampleRate)

	return &BeatResult{
		TempoBPM:  tempo,
		BeatTimes: times,
		BeatCount: len(times),
	}
}

package analysis

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/RyanBlaney/sonido-mach/features"
)

func sine(freq float64, seconds float64, sampleRate int) features.Waveform {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return features.Waveform{Samples: samples, SampleRate: sampleRate}
}

func silence(seconds float64, sampleRate int) features.Waveform {
	return features.Waveform{Samples: make([]float64, int(seconds*float64(sampleRate))), SampleRate: sampleRate}
}

func TestSummarizeSilence(t *testing.T) {
	s, err := Summarize(context.Background(), silence(1, 22050))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if s.OnsetCount > 1 {
		t.Errorf("expected at most one onset in silence, got %d", s.OnsetCount)
	}
	if s.ZeroCrossingRateMean != 0 {
		t.Errorf("expected zero ZCR, got %f", s.ZeroCrossingRateMean)
	}
	if s.RMSMax != 0 {
		t.Errorf("expected zero RMS, got %f", s.RMSMax)
	}
	if s.TempoBPM <= 0 {
		t.Errorf("expected positive tempo, got %f", s.TempoBPM)
	}
	if s.Tags == nil {
		t.Error("expected non-nil tags")
	}
}

func TestSummarizeTone(t *testing.T) {
	w := sine(440, 1, 22050)
	s, err := Summarize(context.Background(), w)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if s.TempoBPM <= 0 {
		t.Errorf("expected positive tempo, got %f", s.TempoBPM)
	}
	if math.Abs(s.DurationS-1) > 1e-9 {
		t.Errorf("expected 1s duration, got %f", s.DurationS)
	}
	if s.SampleRate != 22050 {
		t.Errorf("expected 22050, got %d", s.SampleRate)
	}
	if s.SpectralCentroidMean < 300 || s.SpectralCentroidMean > 1500 {
		t.Errorf("expected centroid near 440 Hz, got %f", s.SpectralCentroidMean)
	}
	if s.RMSMax < 0.3 || s.RMSMax > 0.4 {
		t.Errorf("expected RMS max near 0.354, got %f", s.RMSMax)
	}
	if slices.Contains(s.Tags, "bright") || slices.Contains(s.Tags, "noisy") {
		t.Errorf("unexpected tags for a low tone: %v", s.Tags)
	}

	beats, err := TrackBeats(w)
	if err != nil {
		t.Fatalf("TrackBeats: %v", err)
	}
	if beats.TempoBPM <= 0 {
		t.Errorf("expected positive tempo, got %f", beats.TempoBPM)
	}
	if !slices.IsSorted(beats.BeatTimes) {
		t.Errorf("beat times not non-decreasing: %v", beats.BeatTimes)
	}
	if beats.BeatCount != len(beats.BeatTimes) {
		t.Errorf("beat count %d does not match %d times", beats.BeatCount, len(beats.BeatTimes))
	}
}

func TestDetectOnsetsClicks(t *testing.T) {
	sr := 22050
	w := silence(2, sr)
	for start := sr / 4; start < len(w.Samples); start += sr / 2 {
		for i := range 200 {
			w.Samples[start+i] = 0.9 * math.Sin(2*math.Pi*2000*float64(i)/float64(sr))
		}
	}

	onsets, err := DetectOnsets(w)
	if err != nil {
		t.Fatalf("DetectOnsets: %v", err)
	}
	if onsets.Count < 3 || onsets.Count > 5 {
		t.Fatalf("expected about 4 onsets, got %d (%v)", onsets.Count, onsets.Times)
	}
	if len(onsets.Strengths) != onsets.Count {
		t.Errorf("expected one strength per onset")
	}
	if math.Abs(onsets.MeanInterval-0.5) > 0.05 {
		t.Errorf("expected mean interval near 0.5s, got %f", onsets.MeanInterval)
	}
}

func TestDeriveTags(t *testing.T) {
	tests := []struct {
		name    string
		summary Summary
		want    []string
	}{
		{"none", Summary{TempoBPM: 100, ZeroCrossingRateMean: 0.05, SpectralCentroidMean: 1000}, []string{}},
		{"fast", Summary{TempoBPM: 121}, []string{"fast-tempo"}},
		{"slow", Summary{TempoBPM: 79}, []string{"slow-tempo"}},
		{"boundary 120", Summary{TempoBPM: 120}, []string{}},
		{"boundary 80", Summary{TempoBPM: 80}, []string{}},
		{"noisy bright fast", Summary{TempoBPM: 140, ZeroCrossingRateMean: 0.2, SpectralCentroidMean: 4000}, []string{"fast-tempo", "noisy", "bright"}},
		{"slow noisy", Summary{TempoBPM: 60, ZeroCrossingRateMean: 0.11}, []string{"slow-tempo", "noisy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveTags(tt.summary, TagRules)
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSummarizeWithCustomRules(t *testing.T) {
	rules := []TagRule{
		{Tag: "short", Match: func(s Summary) bool { return s.DurationS < 2 }},
	}
	s, err := SummarizeWith(context.Background(), silence(0.5, 22050), rules)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(s.Tags, []string{"short"}) {
		t.Errorf("expected [short], got %v", s.Tags)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	if _, err := Summarize(context.Background(), features.Waveform{SampleRate: 22050}); err == nil {
		t.Error("expected error for empty waveform")
	}
}

package features

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/sonido-mach/apperrors"
)

func sineWave(freq float64, seconds float64, sr int) Waveform {
	n := int(seconds * float64(sr))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sr))
	}
	return Waveform{Samples: samples, SampleRate: sr}
}

func TestExtractFramesAlignment(t *testing.T) {
	tests := []struct {
		name string
		cfg  AudioFeatureConfig
		secs float64
	}{
		{"default", DefaultAudioFeatureConfig(), 1.0},
		{"speech-like", AudioFeatureConfig{SampleRate: 22050, NFFT: 1024, HopLength: 256, NMels: 64, FMin: 80}, 0.7},
		{"long hop", AudioFeatureConfig{SampleRate: 22050, NFFT: 2048, HopLength: 1024, NMels: 128, FMin: 20, FMax: 8000}, 2.3},
		{"tiny clip", DefaultAudioFeatureConfig(), 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := ExtractFrames(sineWave(440, tt.secs, tt.cfg.SampleRate), tt.cfg, WithFlatness(), WithCentroid())
			if err != nil {
				t.Fatal(err)
			}
			n := fs.Len()
			if n == 0 {
				t.Fatal("no frames")
			}
			if len(fs.Times) != n || len(fs.Energy) != n || len(fs.Flatness) != n || len(fs.Centroid) != n {
				t.Errorf("misaligned: features=%d times=%d energy=%d flatness=%d centroid=%d",
					n, len(fs.Times), len(fs.Energy), len(fs.Flatness), len(fs.Centroid))
			}
			if fs.Dims() != tt.cfg.NMels {
				t.Errorf("dims = %d, want %d", fs.Dims(), tt.cfg.NMels)
			}
			if err := fs.CheckAligned(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestOneSecondSineShapeAndStride(t *testing.T) {
	fs, err := ExtractLogMelFrames(sineWave(440, 1, 22050), DefaultAudioFeatureConfig())
	if err != nil {
		t.Fatal(err)
	}
	if fs.Len() != 44 || fs.Dims() != 128 {
		t.Fatalf("shape = (%d, %d), want (44, 128)", fs.Len(), fs.Dims())
	}
	if fs.Flatness != nil || fs.Centroid != nil {
		t.Error("optional arrays should be nil unless requested")
	}

	// dB features are relative to the loudest bin: max 0, floor -80
	maxDB := math.Inf(-1)
	for _, row := range fs.Features {
		for _, v := range row {
			maxDB = math.Max(maxDB, v)
			if v < -80-1e-9 {
				t.Fatalf("value %v below top_db floor", v)
			}
		}
	}
	if maxDB != 0 {
		t.Errorf("max dB = %v, want 0", maxDB)
	}

	if got := fs.Times[10]; math.Abs(got-10*512.0/22050) > 1e-12 {
		t.Errorf("times[10] = %v", got)
	}

	reduced, err := fs.Reduce(2)
	if err != nil {
		t.Fatal(err)
	}
	if reduced.Len() != 22 || reduced.Dims() != 128 || len(reduced.Times) != 22 || len(reduced.Energy) != 22 {
		t.Errorf("reduced shape = (%d, %d)", reduced.Len(), reduced.Dims())
	}
	if reduced.Stride != 2 {
		t.Errorf("stride = %d", reduced.Stride)
	}
	for i := range reduced.Len() {
		if reduced.Times[i] != fs.Times[i*2] || reduced.Energy[i] != fs.Energy[i*2] {
			t.Fatalf("reduced[%d] does not map to original[%d]", i, i*2)
		}
	}
}

func TestStride(t *testing.T) {
	in := []int{0, 1, 2, 3, 4, 5, 6}
	for k := 1; k <= 8; k++ {
		got := Stride(in, k)
		want := (len(in) + k - 1) / k
		if len(got) != want {
			t.Errorf("k=%d len = %d, want %d", k, len(got), want)
		}
		for i, v := range got {
			if v != in[i*k] {
				t.Errorf("k=%d got[%d] = %d, want %d", k, i, v, in[i*k])
			}
		}
	}
	if got := Stride(in, 1); &got[0] != &in[0] {
		t.Error("stride 1 should return the input slice")
	}
}

func TestReduceFrames(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}, {5}}
	times := []float64{0, 0.1, 0.2, 0.3, 0.4}
	energy := []float64{5, 4, 3, 2, 1}

	gotF, gotA, err := ReduceFrames(features, 2, times, energy)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotF) != 3 || gotF[2][0] != 5 || gotA[0][1] != 0.2 || gotA[1][2] != 1 {
		t.Errorf("unexpected reduction: %v %v", gotF, gotA)
	}

	if _, _, err := ReduceFrames(features, 2, times[:4]); !apperrors.IsValidation(err) {
		t.Errorf("misaligned arrays should be a validation error, got %v", err)
	}
	if _, _, err := ReduceFrames(features, 0); !apperrors.IsValidation(err) {
		t.Errorf("stride 0 should be a validation error, got %v", err)
	}
}

func TestReduceIdentity(t *testing.T) {
	fs := &FrameSet{Features: [][]float64{{1}, {2}}, Times: []float64{0, 1}, Energy: []float64{3, 4}, Stride: 1}
	got, err := fs.Reduce(1)
	if err != nil {
		t.Fatal(err)
	}
	if got != fs {
		t.Error("stride 1 should return the same frame set")
	}
}

func TestSilentWaveformZCR(t *testing.T) {
	zcr := ZeroCrossingRate(make([]float64, 22050), 2048, 512)
	for i, v := range zcr {
		if v != 0 {
			t.Fatalf("zcr[%d] = %v", i, v)
		}
	}
}

func TestStandaloneExtractorsShareGrid(t *testing.T) {
	w := sineWave(440, 1, 22050)
	cfg := DefaultAudioFeatureConfig()

	centroid, err := SpectralCentroid(w, cfg.NFFT, cfg.HopLength)
	if err != nil {
		t.Fatal(err)
	}
	bandwidth, err := SpectralBandwidth(w, cfg.NFFT, cfg.HopLength)
	if err != nil {
		t.Fatal(err)
	}
	rolloff, err := SpectralRolloff(w, cfg.NFFT, cfg.HopLength, 0.85)
	if err != nil {
		t.Fatal(err)
	}
	flatness, err := SpectralFlatness(w, cfg.NFFT, cfg.HopLength)
	if err != nil {
		t.Fatal(err)
	}
	mfcc, err := MFCC(w, cfg, 13)
	if err != nil {
		t.Fatal(err)
	}
	zcr := ZeroCrossingRate(w.Samples, cfg.NFFT, cfg.HopLength)
	rms := RMS(w.Samples, cfg.NFFT, cfg.HopLength)

	for name, n := range map[string]int{
		"centroid": len(centroid), "bandwidth": len(bandwidth), "rolloff": len(rolloff),
		"flatness": len(flatness), "mfcc": len(mfcc), "zcr": len(zcr), "rms": len(rms),
	} {
		if n != 44 {
			t.Errorf("%s has %d frames, want 44", name, n)
		}
	}
	if len(mfcc[0]) != 13 {
		t.Errorf("mfcc has %d coefficients", len(mfcc[0]))
	}
	if _, err := SpectralRolloff(w, 2048, 512, 1.5); !apperrors.IsValidation(err) {
		t.Errorf("bad roll percent should be a validation error, got %v", err)
	}
}

func TestWaveformHelpers(t *testing.T) {
	if _, err := NewWaveform(nil, 22050); !apperrors.IsLoad(err) {
		t.Errorf("empty waveform should be a load error, got %v", err)
	}
	if _, err := ExtractFrames(Waveform{SampleRate: 22050}, DefaultAudioFeatureConfig()); !apperrors.IsLoad(err) {
		t.Errorf("extracting from empty waveform should be a load error, got %v", err)
	}

	w := Waveform{Samples: []float64{0.1, -0.25, 0.2}, SampleRate: 3}
	if w.Duration() != 1 {
		t.Errorf("duration = %v", w.Duration())
	}
	n := w.Normalize()
	if n.Samples[1] != -1 || w.Samples[1] != -0.25 {
		t.Errorf("normalize: %v (source %v)", n.Samples, w.Samples)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), 22050)
	if !apperrors.IsLoad(err) {
		t.Errorf("missing file should be a load error, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AudioFeatureConfig)
	}{
		{"zero hop", func(c *AudioFeatureConfig) { c.HopLength = 0 }},
		{"negative mels", func(c *AudioFeatureConfig) { c.NMels = -1 }},
		{"fmax below fmin", func(c *AudioFeatureConfig) { c.FMax = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAudioFeatureConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !apperrors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if DefaultAudioFeatureConfig().UpperFrequency(22050) != 11025 {
		t.Error("fmax 0 should resolve to Nyquist")
	}
}

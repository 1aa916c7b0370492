package presets

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/RyanBlaney/sonido-mach/apperrors"
	"github.com/RyanBlaney/sonido-mach/logging"
	"github.com/RyanBlaney/sonido-mach/presentation"
)

func TestBuiltins(t *testing.T) {
	tests := []struct {
		key        string
		name       string
		nMels      int
		hop        int
		fmin       float64
		nn         int
		minDist    float64
		colorscale string
		colorBy    presentation.ColorMode
		stride     int
	}{
		{"music", "Music", 128, 512, 20, 30, 0.05, "Turbo", presentation.ColorByTime, 2},
		{"speech", "Speech", 64, 256, 80, 20, 0.1, "Viridis", presentation.ColorByEnergy, 3},
		{"nature", "Nature / Field Recording", 128, 1024, 20, 15, 0.2, "Plasma", presentation.ColorByTime, 1},
		{"percussive", "Percussive / Drums", 64, 256, 20, 10, 0.01, "Hot", presentation.ColorByEnergy, 2},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			p, ok := Get(tt.key)
			if !ok {
				t.Fatalf("preset %q not found", tt.key)
			}
			if p.Name != tt.name {
				t.Errorf("expected name %q, got %q", tt.name, p.Name)
			}
			if p.Audio.NMels != tt.nMels || p.Audio.HopLength != tt.hop || p.Audio.FMin != tt.fmin {
				t.Errorf("unexpected audio config %+v", p.Audio)
			}
			if p.Projection.NNeighbors != tt.nn || p.Projection.MinDist != tt.minDist {
				t.Errorf("unexpected projection config %+v", p.Projection)
			}
			if p.Colorscale != tt.colorscale || p.ColorBy != tt.colorBy || p.Stride != tt.stride {
				t.Errorf("unexpected display settings %+v", p)
			}
			if err := p.Validate(); err != nil {
				t.Errorf("built-in preset failed validation: %v", err)
			}
		})
	}
}

func TestGetCaseInsensitive(t *testing.T) {
	for _, key := range []string{"Music", "SPEECH", " nature "} {
		if _, ok := Get(key); !ok {
			t.Errorf("expected %q to resolve", key)
		}
	}
	if _, ok := Get("nonexistent"); ok {
		t.Error("expected unknown preset to be missing")
	}
}

func TestNamesSorted(t *testing.T) {
	want := []string{"music", "nature", "percussive", "speech"}
	if got := Names(); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPresetValidate(t *testing.T) {
	base, _ := Get("music")

	tests := []struct {
		name   string
		mutate func(*Preset)
	}{
		{"empty key", func(p *Preset) { p.Key = "" }},
		{"zero stride", func(p *Preset) { p.Stride = 0 }},
		{"unknown colorscale", func(p *Preset) { p.Colorscale = "Rainbow" }},
		{"unknown color mode", func(p *Preset) { p.ColorBy = "pitch" }},
		{"bad audio", func(p *Preset) { p.Audio.NMels = 0 }},
		{"bad projection", func(p *Preset) { p.Projection.NNeighbors = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			if err := p.Validate(); !apperrors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	logging.SetGlobalLogger(&logging.NoOpLogger{})

	path := filepath.Join(t.TempDir(), "presets.yaml")
	content := `presets:
  - key: Birds
    name: Birdsong
    description: Dawn chorus recordings
    audio:
      fmin: 1000
      hop_length: 256
    projection:
      n_neighbors: 12
    colorscale: magma
    color_by: Flatness
    stride: 2
  - key: music
    name: Music (custom)
    stride: 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	birds, ok := r.Get("birds")
	if !ok {
		t.Fatal("expected birds preset")
	}
	if birds.Audio.FMin != 1000 || birds.Audio.HopLength != 256 {
		t.Errorf("unexpected audio config %+v", birds.Audio)
	}
	if birds.Audio.NMels != 128 || birds.Audio.NFFT != 2048 {
		t.Errorf("expected omitted audio settings to keep defaults, got %+v", birds.Audio)
	}
	if birds.Projection.NNeighbors != 12 || birds.Projection.Metric != "cosine" {
		t.Errorf("unexpected projection config %+v", birds.Projection)
	}
	if birds.Colorscale != "Magma" || birds.ColorBy != presentation.ColorByFlatness {
		t.Errorf("expected canonical display settings, got %q %q", birds.Colorscale, birds.ColorBy)
	}

	music, _ := r.Get("music")
	if music.Name != "Music (custom)" || music.Stride != 4 {
		t.Errorf("expected music preset to be replaced, got %+v", music)
	}
	if len(r.Names()) != 5 {
		t.Errorf("expected 5 presets, got %v", r.Names())
	}

	if _, ok := Get("birds"); ok {
		t.Error("loading into a registry must not change the built-in set")
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	if err := NewRegistry().LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("presets:\n  - key: x\n    stride: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewRegistry().LoadFile(bad); !apperrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}

	garbage := filepath.Join(dir, "garbage.yaml")
	if err := os.WriteFile(garbage, []byte("presets: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewRegistry().LoadFile(garbage); !apperrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

package presets

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-mach/apperrors"
	"github.com/RyanBlaney/sonido-mach/embedding"
	"github.com/RyanBlaney/sonido-mach/features"
	"github.com/RyanBlaney/sonido-mach/logging"
	"github.com/RyanBlaney/sonido-mach/presentation"
)

// Preset bundles extraction, projection and display settings for one kind of
// recording
type Preset struct {
	Key         string                      `json:"key" yaml:"key"`
	Name        string                      `json:"name" yaml:"name"`
	Description string                      `json:"description" yaml:"description"`
	Audio       features.AudioFeatureConfig `json:"audio" yaml:"audio"`
	Projection  embedding.ProjectionConfig  `json:"projection" yaml:"projection"`
	Colorscale  string                      `json:"colorscale" yaml:"colorscale"`
	ColorBy     presentation.ColorMode      `json:"color_by" yaml:"color_by"`
	Stride      int                         `json:"stride" yaml:"stride"`
}

// Validate checks every setting carried by the preset
func (p Preset) Validate() error {
	if strings.TrimSpace(p.Key) == "" {
		return apperrors.Validation("preset key must not be empty").WithField("key")
	}
	if p.Stride < 1 {
		return apperrors.Validation("preset %q: stride must be at least 1, got %d", p.Key, p.Stride).WithField("stride")
	}
	if !slices.Contains(presentation.Colorscales(), p.Colorscale) {
		return apperrors.Validation("preset %q: colorscale must be one of %v, got %q", p.Key, presentation.Colorscales(), p.Colorscale).WithField("colorscale")
	}
	if _, err := presentation.ParseColorMode(string(p.ColorBy)); err != nil {
		return fmt.Errorf("preset %q: %w", p.Key, err)
	}
	if err := p.Audio.Validate(); err != nil {
		return fmt.Errorf("preset %q: %w", p.Key, err)
	}
	if err := p.Projection.Validate(); err != nil {
		return fmt.Errorf("preset %q: %w", p.Key, err)
	}
	return nil
}

func builtin(key, name, description string, nMels, hop int, fmin float64, nn int, minDist float64, colorscale string, colorBy presentation.ColorMode, stride int) Preset {
	audio := features.DefaultAudioFeatureConfig()
	audio.NMels = nMels
	audio.HopLength = hop
	audio.FMin = fmin

	proj := embedding.DefaultProjectionConfig()
	proj.NNeighbors = nn
	proj.MinDist = minDist

	return Preset{
		Key:         key,
		Name:        name,
		Description: description,
		Audio:       audio,
		Projection:  proj,
		Colorscale:  colorscale,
		ColorBy:     colorBy,
		Stride:      stride,
	}
}

// Builtins returns the presets that ship with the application, keyed by name
func Builtins() map[string]Preset {
	return map[string]Preset{
		"music": builtin("music", "Music", "Optimized for songs and musical recordings",
			128, 512, 20, 30, 0.05, "Turbo", presentation.ColorByTime, 2),
		"speech": builtin("speech", "Speech", "Optimized for spoken word and podcasts",
			64, 256, 80, 20, 0.1, "Viridis", presentation.ColorByEnergy, 3),
		"nature": builtin("nature", "Nature / Field Recording", "Optimized for environmental and nature sounds",
			128, 1024, 20, 15, 0.2, "Plasma", presentation.ColorByTime, 1),
		"percussive": builtin("percussive", "Percussive / Drums", "Optimized for rhythmic and percussive content",
			64, 256, 20, 10, 0.01, "Hot", presentation.ColorByEnergy, 2),
	}
}

// Registry is a set of presets addressable by case-insensitive key
type Registry struct {
	presets map[string]Preset
}

// NewRegistry returns a registry holding the built-in presets
func NewRegistry() *Registry {
	return &Registry{presets: Builtins()}
}

// Get looks up a preset by key, ignoring case
func (r *Registry) Get(key string) (Preset, bool) {
	p, ok := r.presets[strings.ToLower(strings.TrimSpace(key))]
	return p, ok
}

// Names returns the sorted preset keys
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.presets))
}

// All returns every preset ordered by key
func (r *Registry) All() []Preset {
	out := make([]Preset, 0, len(r.presets))
	for _, k := range r.Names() {
		out = append(out, r.presets[k])
	}
	return out
}

// Add validates p and stores it, replacing any preset with the same key
func (r *Registry) Add(p Preset) error {
	p.Key = strings.ToLower(strings.TrimSpace(p.Key))
	if mode, err := presentation.ParseColorMode(string(p.ColorBy)); err == nil {
		p.ColorBy = mode
	}
	for _, cs := range presentation.Colorscales() {
		if strings.EqualFold(cs, p.Colorscale) {
			p.Colorscale = cs
		}
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Name == "" {
		p.Name = p.Key
	}
	r.presets[p.Key] = p
	return nil
}

type presetFile struct {
	Presets []yaml.Node `yaml:"presets"`
}

// LoadFile reads a YAML preset file and merges its presets into the registry.
// Settings a preset leaves out keep their default values.
func (r *Registry) LoadFile(path string) error {
	logger := logging.WithFields(logging.Fields{
		"component": "presets",
		"function":  "LoadFile",
		"path":      path,
	})

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read preset file: %w", err)
	}
	return r.load(data, logger)
}

func (r *Registry) load(data []byte, logger logging.Logger) error {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return apperrors.Validation("invalid preset file: %v", err)
	}

	for i := range file.Presets {
		p := Preset{
			Audio:      features.DefaultAudioFeatureConfig(),
			Projection: embedding.DefaultProjectionConfig(),
			Colorscale: "Viridis",
			ColorBy:    presentation.ColorByTime,
			Stride:     1,
		}
		if err := file.Presets[i].Decode(&p); err != nil {
			return apperrors.Validation("preset %d: %v", i, err)
		}
		if err := r.Add(p); err != nil {
			return err
		}
		logger.Debug("Loaded preset", logging.Fields{"preset": p.Key})
	}

	logger.Info("Loaded preset file", logging.Fields{"count": len(file.Presets)})
	return nil
}

var defaultRegistry = NewRegistry()

// Get looks up a built-in preset by key, ignoring case
func Get(key string) (Preset, bool) {
	return defaultRegistry.Get(key)
}

// Names returns the sorted keys of the built-in presets
func Names() []string {
	return defaultRegistry.Names()
}

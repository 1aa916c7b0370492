// Package pipeline wires decoding, feature extraction, projection and figure
// building into the end-to-end operations used by the CLI and the server.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/RyanBlaney/sonido-mach/apperrors"
	"github.com/RyanBlaney/sonido-mach/embedding"
	"github.com/RyanBlaney/sonido-mach/features"
	"github.com/RyanBlaney/sonido-mach/logging"
	"github.com/RyanBlaney/sonido-mach/presentation"
	"github.com/RyanBlaney/sonido-mach/presets"
	"github.com/RyanBlaney/sonido-mach/transcode"
	"github.com/RyanBlaney/sonido-mach/validate"
)

// Options configures one visualization run
type Options struct {
	Audio      features.AudioFeatureConfig `json:"audio"`
	Projection embedding.ProjectionConfig  `json:"projection"`
	Stride     int                         `json:"stride"`
	ColorBy    presentation.ColorMode      `json:"color_by"`
	Colorscale string                      `json:"colorscale"`
	Connect    bool                        `json:"connect"`
	MultiView  bool                        `json:"multi_view"`

	// Title overrides the generated embedding title
	Title string `json:"title,omitempty"`
	// MaxDurationS rejects longer recordings; 0 disables the limit
	MaxDurationS float64 `json:"max_duration_s,omitempty"`
	// Decoder is used for loading; nil builds one for Audio.SampleRate
	Decoder *transcode.Decoder `json:"-"`
}

// DefaultOptions returns the settings of a plain visualization request
func DefaultOptions() Options {
	return Options{
		Audio:      features.DefaultAudioFeatureConfig(),
		Projection: embedding.DefaultProjectionConfig(),
		Stride:     validate.DefaultStride,
		ColorBy:    presentation.ColorByTime,
		Colorscale: "Turbo",
	}
}

// OptionsFromPreset returns default options overridden by p
func OptionsFromPreset(p presets.Preset) Options {
	opts := DefaultOptions()
	opts.Audio = p.Audio
	opts.Projection = p.Projection
	opts.Stride = p.Stride
	opts.ColorBy = p.ColorBy
	opts.Colorscale = p.Colorscale
	return opts
}

// Figures holds every chart of a visualization
type Figures struct {
	Embedding      *presentation.Figure `json:"embedding"`
	Waveform       *presentation.Figure `json:"waveform"`
	MelSpectrogram *presentation.Figure `json:"mel_spectrogram"`
	Energy         *presentation.Figure `json:"energy"`
	Flatness       *presentation.Figure `json:"flatness,omitempty"`
}

// Result is the outcome of a visualization run
type Result struct {
	Title     string             `json:"title"`
	Summary   string             `json:"summary"`
	Frames    *features.FrameSet `json:"frames"`
	Embedding [][]float64        `json:"embedding"`
	Figures   Figures            `json:"figures"`
	Waveform  features.Waveform  `json:"-"`
}

func (o Options) decoder() *transcode.Decoder {
	if o.Decoder != nil {
		return o.Decoder
	}
	cfg := transcode.DefaultDecoderConfig()
	cfg.TargetSampleRate = o.Audio.SampleRate
	return transcode.NewDecoder(cfg)
}

// Visualize decodes path and builds its embedding and figures
func Visualize(ctx context.Context, path string, opts Options) (*Result, error) {
	w, err := features.LoadWith(ctx, opts.decoder(), path)
	if err != nil {
		return nil, err
	}
	if err := validate.Duration(w.Duration(), opts.MaxDurationS); err != nil {
		return nil, err
	}
	if opts.Projection.NComponents == 0 {
		opts.Projection.NComponents = 3
	}
	if opts.Title == "" {
		opts.Title = EmbeddingTitle(filepath.Base(path), opts.Projection.NComponents)
	}
	return VisualizeWaveform(ctx, w, opts)
}

// VisualizeWaveform runs extraction, stride reduction, projection and figure
// building on an already decoded waveform
func VisualizeWaveform(ctx context.Context, w features.Waveform, opts Options) (*Result, error) {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "pipeline",
		"function":  "VisualizeWaveform",
	})

	colorBy, err := presentation.ParseColorMode(string(opts.ColorBy))
	if err != nil {
		return nil, err
	}
	if opts.Projection.NComponents == 0 {
		opts.Projection.NComponents = 3
	}
	if opts.Title == "" {
		opts.Title = EmbeddingTitle("audio", opts.Projection.NComponents)
	}

	frames, err := features.ExtractFrames(w, opts.Audio, features.WithFlatness())
	if err != nil {
		return nil, fmt.Errorf("feature extraction failed: %w", err)
	}
	reduced, err := frames.Reduce(opts.Stride)
	if err != nil {
		return nil, err
	}

	emb, err := embedding.Project(ctx, reduced.Features, opts.Projection)
	if err != nil {
		return nil, err
	}

	figures, err := buildFigures(w, reduced, emb, colorBy, opts)
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("duration=%.2fs frames=%d stride=%d color_by=%s connect=%t multi_view=%t",
		w.Duration(), reduced.Len(), opts.Stride, colorBy, opts.Connect, opts.MultiView)

	logger.Info("Visualization built", logging.Fields{
		"duration_s": math.Round(w.Duration()*100) / 100,
		"frames":     reduced.Len(),
		"stride":     opts.Stride,
		"color_by":   string(colorBy),
	})

	return &Result{
		Title:     opts.Title,
		Summary:   summary,
		Frames:    reduced,
		Embedding: emb,
		Figures:   *figures,
		Waveform:  w,
	}, nil
}

func buildFigures(w features.Waveform, fs *features.FrameSet, emb [][]float64, colorBy presentation.ColorMode, opts Options) (*Figures, error) {
	embFig, err := presentation.BuildEmbeddingFigure(emb,
		presentation.ColorSource{Times: fs.Times, Energy: fs.Energy, Flatness: fs.Flatness},
		presentation.EmbeddingOptions{
			Title:      opts.Title,
			ColorBy:    colorBy,
			Colorscale: opts.Colorscale,
			Connect:    opts.Connect,
			MultiView:  opts.MultiView,
		})
	if err != nil {
		return nil, err
	}

	waveFig, err := presentation.BuildWaveformFigure(w.Samples, w.SampleRate, "Waveform", 0)
	if err != nil {
		return nil, err
	}
	melFig, err := presentation.BuildMelSpectrogramFigure(fs.Features, fs.Times, fs.MelFrequencies, "Log-mel spectrogram (dB)")
	if err != nil {
		return nil, err
	}
	energyFig, err := presentation.BuildEnergyFigure(fs.Times, fs.Energy, "Energy over time")
	if err != nil {
		return nil, err
	}

	figures := &Figures{Embedding: embFig, Waveform: waveFig, MelSpectrogram: melFig, Energy: energyFig}
	if fs.Flatness != nil {
		if figures.Flatness, err = presentation.BuildFlatnessFigure(fs.Times, fs.Flatness, "Spectral flatness"); err != nil {
			return nil, err
		}
	}
	return figures, nil
}

// EmbeddingTitle is the figure title for a recording called name
func EmbeddingTitle(name string, components int) string {
	return fmt.Sprintf("%s — %dD embedding", name, components)
}

// Sections lists the result figures in page order
func (r *Result) Sections() []presentation.Section {
	dims := 3
	if len(r.Embedding) > 0 {
		dims = len(r.Embedding[0])
	}
	return []presentation.Section{
		{Title: fmt.Sprintf("%dD embedding (UMAP)", dims), Figure: r.Figures.Embedding},
		{Title: "Waveform", Figure: r.Figures.Waveform},
		{Title: "Log-mel spectrogram", Figure: r.Figures.MelSpectrogram},
		{Title: "Energy", Figure: r.Figures.Energy},
		{Title: "Spectral flatness", Figure: r.Figures.Flatness},
	}
}

// WriteHTML renders r as a standalone page. backLink may be empty.
func (r *Result) WriteHTML(w io.Writer, backLink string) error {
	if r == nil || r.Figures.Embedding == nil {
		return apperrors.Validation("nothing to render")
	}
	return presentation.RenderHTML(w, presentation.Page{
		Title:    r.Title,
		Summary:  r.Summary,
		BackLink: backLink,
		Sections: r.Sections(),
	})
}

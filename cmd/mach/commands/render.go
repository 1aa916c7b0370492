package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mach/export"
	"github.com/RyanBlaney/sonido-mach/pipeline"
	"github.com/RyanBlaney/sonido-mach/presentation"
	"github.com/RyanBlaney/sonido-mach/transcode"
)

type renderFlags struct {
	output     string
	preset     string
	colorBy    string
	colorscale string
	stride     int
	multiView  bool
	connect    bool

	sampleRate int
	nFFT       int
	hopLength  int
	nMels      int
	fmin       float64
	fmax       float64

	nNeighbors  int
	minDist     float64
	metric      string
	components  int
	randomState int64
}

func newRenderCmd(a *app) *cobra.Command {
	f := &renderFlags{}
	def := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "render <input>",
		Short: "Render an interactive 3D audio map",
		Long: `Decode a recording, embed its frames and write the result.

The output format follows the extension of --output:
  .html     standalone page with Plotly figures (default)
  .json     full result with frames, embedding and figure specs
  .msgpack  the same result as MessagePack

Flags given explicitly override the selected preset.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRender(cmd, args[0], f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "output file (default: <input>.html)")
	fl.StringVar(&f.preset, "preset", "", "start from a named preset")
	fl.StringVar(&f.colorBy, "color-by", string(def.ColorBy), "color points by time, energy or flatness")
	fl.StringVar(&f.colorscale, "colorscale", def.Colorscale, "Plotly colorscale ("+strings.Join(presentation.Colorscales(), ", ")+")")
	fl.IntVar(&f.stride, "stride", def.Stride, "keep every n-th frame")
	fl.BoolVar(&f.multiView, "multi-view", false, "add two extra camera angles")
	fl.BoolVar(&f.connect, "connect", false, "connect consecutive points with lines")

	fl.IntVar(&f.sampleRate, "sr", def.Audio.SampleRate, "target sample rate")
	fl.IntVar(&f.nFFT, "n-fft", def.Audio.NFFT, "FFT size")
	fl.IntVar(&f.hopLength, "hop-length", def.Audio.HopLength, "hop length in samples")
	fl.IntVar(&f.nMels, "n-mels", def.Audio.NMels, "number of mel bands")
	fl.Float64Var(&f.fmin, "fmin", def.Audio.FMin, "lowest mel frequency in Hz")
	fl.Float64Var(&f.fmax, "fmax", 0, "highest mel frequency in Hz (0 = Nyquist)")

	fl.IntVar(&f.nNeighbors, "n-neighbors", def.Projection.NNeighbors, "neighbor graph size")
	fl.Float64Var(&f.minDist, "min-dist", def.Projection.MinDist, "minimum distance between embedded points")
	fl.StringVar(&f.metric, "metric", def.Projection.Metric, "distance metric: euclidean, manhattan, cosine, correlation")
	fl.IntVar(&f.components, "components", def.Projection.NComponents, "embedding dimensions (2 or 3)")
	fl.Int64Var(&f.randomState, "random-state", def.Projection.RandomState, "random seed")
	return cmd
}

// renderOptions merges the preset (if any) with the flags the user set explicitly
func (a *app) renderOptions(cmd *cobra.Command, f *renderFlags) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	if f.preset != "" {
		p, err := a.preset(f.preset)
		if err != nil {
			return opts, err
		}
		opts = pipeline.OptionsFromPreset(p)
	}

	set := func(name string) bool {
		return f.preset == "" || cmd.Flags().Changed(name)
	}
	if set("color-by") {
		opts.ColorBy = presentation.ColorMode(f.colorBy)
	}
	if set("colorscale") {
		opts.Colorscale = presentation.ResolveColorscale(f.colorscale)
	}
	if set("stride") {
		opts.Stride = f.stride
	}
	if set("sr") {
		opts.Audio.SampleRate = f.sampleRate
	}
	if set("n-fft") {
		opts.Audio.NFFT = f.nFFT
	}
	if set("hop-length") {
		opts.Audio.HopLength = f.hopLength
	}
	if set("n-mels") {
		opts.Audio.NMels = f.nMels
	}
	if set("fmin") {
		opts.Audio.FMin = f.fmin
	}
	if set("fmax") {
		opts.Audio.FMax = f.fmax
	}
	if set("n-neighbors") {
		opts.Projection.NNeighbors = f.nNeighbors
	}
	if set("min-dist") {
		opts.Projection.MinDist = f.minDist
	}
	if set("metric") {
		opts.Projection.Metric = strings.ToLower(f.metric)
	}
	if set("components") {
		opts.Projection.NComponents = f.components
	}
	if set("random-state") {
		opts.Projection.RandomState = f.randomState
	}
	opts.MultiView = f.multiView
	opts.Connect = f.connect
	opts.Decoder = a.decoder(opts.Audio.SampleRate)
	return opts, nil
}

func (a *app) runRender(cmd *cobra.Command, input string, f *renderFlags) error {
	opts, err := a.renderOptions(cmd, f)
	if err != nil {
		return err
	}

	output := f.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".html"
	}

	res, err := pipeline.Visualize(cmd.Context(), input, opts)
	if err != nil {
		return err
	}
	if err := writeResult(res, output); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\nWrote %s\n", res.Title, res.Summary, output)
	return nil
}

func writeResult(res *pipeline.Result, output string) error {
	if strings.EqualFold(filepath.Ext(output), ".json") {
		return export.SaveJSON(res, output)
	}

	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	switch strings.ToLower(filepath.Ext(output)) {
	case ".msgpack", ".mpk":
		err = export.WriteMsgpack(out, res)
	default:
		err = res.WriteHTML(out, "")
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}

// decoder builds a decoder for sampleRate using the configured tools
func (a *app) decoder(sampleRate int) *transcode.Decoder {
	cfg := transcode.DefaultDecoderConfig()
	cfg.TargetSampleRate = sampleRate
	cfg.FFmpegPath = a.cfg.Audio.FFmpegPath
	cfg.FFprobePath = a.cfg.Audio.FFprobePath
	return transcode.NewDecoder(cfg)
}

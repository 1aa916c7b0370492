package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mach/export"
	"github.com/RyanBlaney/sonido-mach/features"
)

func newFeaturesCmd(a *app) *cobra.Command {
	var (
		output      string
		compression string
		stride      int
		cfg         = features.DefaultAudioFeatureConfig()
	)

	cmd := &cobra.Command{
		Use:   "features <input>",
		Short: "Export per-frame features",
		Long: `Extract log-mel frames with energy, spectral flatness and spectral
centroid and write them as a table, one row per frame.

The format follows the extension of --output:
  .csv      time_s, energy, flatness, centroid, mel_000 ... columns
  .parquet  columnar file with the mel bands as a list column
  .msgpack  the full frame set`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}

			w, err := features.LoadWith(cmd.Context(), a.decoder(cfg.SampleRate), args[0])
			if err != nil {
				return err
			}
			frames, err := features.ExtractFrames(w, cfg, features.WithFlatness(), features.WithCentroid())
			if err != nil {
				return err
			}
			if frames, err = frames.Reduce(stride); err != nil {
				return err
			}

			if err := writeFrames(frames, output, compression); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d frames x %d bands to %s\n", frames.Len(), frames.Dims(), output)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&output, "output", "o", "", "output file (.csv, .parquet or .msgpack)")
	fl.StringVar(&compression, "compression", "snappy", "parquet compression: snappy, zstd, gzip, none")
	fl.IntVar(&stride, "stride", 1, "keep every n-th frame")
	fl.IntVar(&cfg.SampleRate, "sr", cfg.SampleRate, "target sample rate")
	fl.IntVar(&cfg.NFFT, "n-fft", cfg.NFFT, "FFT size")
	fl.IntVar(&cfg.HopLength, "hop-length", cfg.HopLength, "hop length in samples")
	fl.IntVar(&cfg.NMels, "n-mels", cfg.NMels, "number of mel bands")
	fl.Float64Var(&cfg.FMin, "fmin", cfg.FMin, "lowest mel frequency in Hz")
	fl.Float64Var(&cfg.FMax, "fmax", cfg.FMax, "highest mel frequency in Hz (0 = Nyquist)")
	return cmd
}

func writeFrames(frames *features.FrameSet, output, compression string) error {
	ext := strings.ToLower(filepath.Ext(output))
	switch ext {
	case ".csv", ".parquet", ".msgpack", ".mpk":
	default:
		return fmt.Errorf("unsupported output format %q (use .csv, .parquet or .msgpack)", ext)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	switch ext {
	case ".csv":
		err = export.WriteFramesCSV(out, frames)
	case ".parquet":
		err = export.WriteFramesParquetWith(out, frames, compression)
	default:
		err = export.WriteMsgpack(out, frames)
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}

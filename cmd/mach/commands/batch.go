package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mach/features"
	"github.com/RyanBlaney/sonido-mach/pipeline"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		output     string
		exts       []string
		sampleRate int
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Analyze every supported file under a directory",
		Long: `Recursively analyze every audio file under <dir> and write one JSON
summary per file into --output, mirroring the input layout. Files that fail
are reported and skipped.

Examples:
  mach batch ./recordings -o ./summaries
  mach batch ./recordings -o ./summaries --ext wav --ext flac`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}

			stderr := cmd.ErrOrStderr()
			report, err := pipeline.Batch(cmd.Context(), pipeline.BatchOptions{
				InputDir:   args[0],
				OutputDir:  output,
				Extensions: exts,
				SampleRate: sampleRate,
				Workers:    workers,
				Decoder:    a.decoder(sampleRate),
			}, func(done, total int, item pipeline.BatchItem) {
				name := item.Path
				if rel, err := filepath.Rel(args[0], item.Path); err == nil {
					name = rel
				}
				if item.Err != nil {
					fmt.Fprintf(stderr, "[%d/%d] %s: %v\n", done, total, name, item.Err)
					return
				}
				fmt.Fprintf(stderr, "[%d/%d] %s\n", done, total, name)
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d files: %d succeeded, %d failed\n",
				len(report.Items), report.Succeeded, report.Failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "directory for the JSON summaries")
	cmd.Flags().StringSliceVar(&exts, "ext", nil, "only process these extensions (default: all supported)")
	cmd.Flags().IntVar(&sampleRate, "sr", features.DefaultAudioFeatureConfig().SampleRate, "target sample rate")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = all CPUs)")
	return cmd
}

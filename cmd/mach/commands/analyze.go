package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mach/export"
	"github.com/RyanBlaney/sonido-mach/features"
	"github.com/RyanBlaney/sonido-mach/pipeline"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		sampleRate int
		output     string
		full       bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <input>",
		Short: "Print the analysis summary of a recording",
		Long: `Estimate tempo, onsets, loudness and spectral statistics of a recording
and print them as JSON. Heuristic tags (percussive, bright, dark, noisy, tonal)
are derived from the statistics.

With --full the onset times and beat positions are included as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := pipeline.AnalyzeWith(cmd.Context(), a.decoder(sampleRate), args[0])
			if err != nil {
				return err
			}

			var v any = report.Summary
			if full {
				v = report
			}
			if output != "" {
				if err := export.SaveJSON(v, output); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
				return nil
			}

			data, err := export.ToJSON(v)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().IntVar(&sampleRate, "sr", features.DefaultAudioFeatureConfig().SampleRate, "target sample rate")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the JSON to a file instead of stdout")
	cmd.Flags().BoolVar(&full, "full", false, "include onset and beat detail")
	return cmd
}

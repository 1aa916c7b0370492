package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mach/export"
)

func newPresetsCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List visualization presets",
		Long: `List the built-in presets and any loaded from --presets-file.

Use a preset with 'mach render --preset <key>' or the preset field of the web form.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := a.presets.All()

			if format == "json" {
				data, err := export.ToJSON(all)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tNAME\tN_MELS\tHOP\tNEIGHBORS\tMIN_DIST\tSTRIDE\tCOLOR_BY\tCOLORSCALE")
			for _, p := range all {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%g\t%d\t%s\t%s\n",
					p.Key, p.Name, p.Audio.NMels, p.Audio.HopLength,
					p.Projection.NNeighbors, p.Projection.MinDist, p.Stride, p.ColorBy, p.Colorscale)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table or json")
	return cmd
}

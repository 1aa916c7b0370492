package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mach/config"
	"github.com/RyanBlaney/sonido-mach/logging"
	"github.com/RyanBlaney/sonido-mach/presets"
)

// app carries the state shared by every subcommand of one invocation
type app struct {
	cfg     *config.Config
	presets *presets.Registry

	logLevel    string
	logFormat   string
	presetsFile string
}

// NewRootCmd builds the mach command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "mach",
		Short: "Turn audio into navigable 3D point clouds",
		Long: `mach - map every short frame of a recording into a 3D embedding.

Each point of the map is one frame of audio, positioned by a neighbor-graph
projection of its log-mel spectrum and colored by time, energy or spectral
flatness.

Configuration is read from MACH_* environment variables; flags override them.

Examples:
  # Render a standalone HTML page
  mach render song.mp3 -o song.html --multi-view

  # Use a preset and tweak it
  mach render birds.wav --preset nature --stride 2

  # Summaries for a whole folder
  mach batch ./recordings -o ./summaries

  # Run the web app
  mach serve --addr :8000`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default from MACH_LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text or json (default from MACH_LOG_FORMAT)")
	root.PersistentFlags().StringVar(&a.presetsFile, "presets-file", "", "YAML file with custom presets (default from MACH_PRESETS_FILE)")

	root.AddCommand(
		newRenderCmd(a),
		newAnalyzeCmd(a),
		newBatchCmd(a),
		newFeaturesCmd(a),
		newServeCmd(a),
		newPresetsCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.presetsFile != "" {
		cfg.PresetsFile = a.presetsFile
	}

	if err := logging.Configure(cfg.Log.Format, cfg.Log.Level); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	reg := presets.NewRegistry()
	if cfg.PresetsFile != "" {
		if err := reg.LoadFile(cfg.PresetsFile); err != nil {
			return err
		}
	}

	a.cfg = cfg
	a.presets = reg
	return nil
}

// preset looks up key, listing the available names when it is unknown
func (a *app) preset(key string) (presets.Preset, error) {
	p, ok := a.presets.Get(key)
	if !ok {
		return presets.Preset{}, fmt.Errorf("unknown preset %q (available: %v)", key, a.presets.Names())
	}
	return p, nil
}

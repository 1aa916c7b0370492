package pipeline

import (
	"context"

	"github.com/RyanBlaney/sonido-mach/analysis"
	"github.com/RyanBlaney/sonido-mach/features"
	"github.com/RyanBlaney/sonido-mach/transcode"
)

// Analyze decodes path at sampleRate and computes its analysis report with
// the default tag rules
func Analyze(ctx context.Context, path string, sampleRate int) (*analysis.Report, error) {
	cfg := transcode.DefaultDecoderConfig()
	cfg.TargetSampleRate = sampleRate
	return AnalyzeWith(ctx, transcode.NewDecoder(cfg), path)
}

// AnalyzeWith decodes path with dec and computes its analysis report
func AnalyzeWith(ctx context.Context, dec *transcode.Decoder, path string) (*analysis.Report, error) {
	w, err := features.LoadWith(ctx, dec, path)
	if err != nil {
		return nil, err
	}
	return analysis.Analyze(ctx, w, analysis.TagRules)
}

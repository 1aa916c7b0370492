package presentation

import (
	"strings"

	"github.com/RyanBlaney/sonido-mach/apperrors"
	"github.com/RyanBlaney/sonido-mach/logging"
)

// ColorMode selects the per-frame signal that colors embedding points
type ColorMode string

const (
	ColorByTime     ColorMode = "time"
	ColorByEnergy   ColorMode = "energy"
	ColorByFlatness ColorMode = "flatness"
)

// ParseColorMode resolves a color mode name, case-insensitively
func ParseColorMode(name string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(strings.TrimSpace(name))); mode {
	case ColorByTime, ColorByEnergy, ColorByFlatness:
		return mode, nil
	case "":
		return ColorByTime, nil
	default:
		return "", apperrors.Validation("color_by must be one of time, energy, flatness, got %q", name).WithField("color_by")
	}
}

// ColorSource holds the per-frame arrays a color mode can draw from.
// Flatness is optional.
type ColorSource struct {
	Times    []float64
	Energy   []float64
	Flatness []float64
}

// ResolveColor returns the values and colorbar label for mode. Flatness falls
// back to energy when no flatness array was supplied.
func ResolveColor(mode ColorMode, src ColorSource) ([]float64, string) {
	switch mode {
	case ColorByTime:
		return src.Times, "time (s)"
	case ColorByFlatness:
		if len(src.Flatness) > 0 {
			return src.Flatness, "flatness"
		}
		logging.Warn("Flatness coloring requested without flatness data, using energy", logging.Fields{
			"component": "presentation",
			"color_by":  string(mode),
		})
		return src.Energy, "energy"
	default:
		return src.Energy, "energy"
	}
}

var colorscales = []string{"Turbo", "Viridis", "Plasma", "Inferno", "Magma", "Cividis", "Hot", "Electric"}

// Colorscales lists the supported Plotly color scales
func Colorscales() []string {
	return append([]string(nil), colorscales...)
}

// ResolveColorscale returns the canonical name of a supported colorscale,
// or Viridis for anything else
func ResolveColorscale(name string) string {
	for _, cs := range colorscales {
		if strings.EqualFold(cs, strings.TrimSpace(name)) {
			return cs
		}
	}
	logging.Warn("Unknown colorscale, using Viridis", logging.Fields{
		"component":  "presentation",
		"colorscale": name,
	})
	return "Viridis"
}

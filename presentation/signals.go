package presentation

import (
	"github.com/RyanBlaney/sonido-mach/algorithms/common"
	"github.com/RyanBlaney/sonido-mach/apperrors"
)

// MaxWaveformPoints caps the number of samples drawn in a waveform figure
const MaxWaveformPoints = 50000

const timeAxis = "time (s)"

// BuildWaveformFigure draws the waveform, evenly subsampled to at most maxPoints
// samples. maxPoints <= 0 uses MaxWaveformPoints.
func BuildWaveformFigure(samples []float64, sampleRate int, title string, maxPoints int) (*Figure, error) {
	n := len(samples)
	if n == 0 {
		return nil, apperrors.Validation("cannot plot an empty waveform")
	}
	if sampleRate <= 0 {
		return nil, apperrors.Validation("sample rate must be positive, got %d", sampleRate)
	}
	if maxPoints <= 0 {
		maxPoints = MaxWaveformPoints
	}

	var xs, ys []float64
	if n > maxPoints {
		positions := common.Linspace(0, float64(n-1), maxPoints)
		xs = make([]float64, maxPoints)
		ys = make([]float64, maxPoints)
		for i, p := range positions {
			idx := int(p)
			xs[i] = float64(idx) / float64(sampleRate)
			ys[i] = samples[idx]
		}
	} else {
		xs = make([]float64, n)
		for i := range xs {
			xs[i] = float64(i) / float64(sampleRate)
		}
		ys = samples
	}

	return &Figure{
		Data: []Trace{{
			Type: "scatter",
			Mode: "lines",
			X:    xs,
			Y:    ys,
			Line: &Line{Width: 1, Color: "rgba(147,197,253,0.9)"},
		}},
		Layout: Layout{
			Title:  Text{Text: title},
			Height: 260,
			Margin: Margin{L: 40, R: 10, T: 40, B: 40},
			XAxis:  axis(timeAxis),
			YAxis:  axis("amplitude"),
		},
	}, nil
}

// BuildMelSpectrogramFigure draws frames × bands dB features as a heatmap with
// time on x and mel band center frequency on y
func BuildMelSpectrogramFigure(logMel [][]float64, times, melFrequencies []float64, title string) (*Figure, error) {
	if len(logMel) == 0 {
		return nil, apperrors.Validation("cannot plot an empty spectrogram")
	}
	if len(times) != len(logMel) {
		return nil, apperrors.Validation("spectrogram has %d frames but %d times", len(logMel), len(times))
	}
	bands := len(logMel[0])
	if len(melFrequencies) != bands {
		return nil, apperrors.Validation("spectrogram has %d bands but %d frequencies", bands, len(melFrequencies))
	}

	z := make([][]float64, bands)
	for b := range z {
		z[b] = make([]float64, len(logMel))
		for t, frame := range logMel {
			z[b][t] = frame[b]
		}
	}

	return &Figure{
		Data: []Trace{{
			Type:       "heatmap",
			X:          times,
			Y:          melFrequencies,
			Z:          z,
			Colorscale: "Turbo",
			ColorBar:   &ColorBar{Title: Text{Text: "dB"}},
		}},
		Layout: Layout{
			Title:  Text{Text: title},
			Height: 320,
			Margin: Margin{L: 50, R: 10, T: 40, B: 40},
			XAxis:  axis(timeAxis),
			YAxis:  axis("mel frequency (Hz)"),
		},
	}, nil
}

// BuildEnergyFigure draws per-frame energy over time
func BuildEnergyFigure(times, energy []float64, title string) (*Figure, error) {
	if len(times) != len(energy) {
		return nil, apperrors.Validation("energy has %d values but %d times", len(energy), len(times))
	}

	return &Figure{
		Data: []Trace{{
			Type: "scatter",
			Mode: "lines",
			X:    times,
			Y:    energy,
			Line: &Line{Width: 2, Color: "rgba(251,191,36,0.9)"},
		}},
		Layout: Layout{
			Title:  Text{Text: title},
			Height: 240,
			Margin: Margin{L: 40, R: 10, T: 40, B: 40},
			XAxis:  axis(timeAxis),
			YAxis:  axis("energy"),
		},
	}, nil
}

// BuildFlatnessFigure draws per-frame spectral flatness on a fixed [0, 1] axis
func BuildFlatnessFigure(times, flatness []float64, title string) (*Figure, error) {
	if len(times) != len(flatness) {
		return nil, apperrors.Validation("flatness has %d values but %d times", len(flatness), len(times))
	}

	yAxis := axis("spectral flatness")
	yAxis.Range = []float64{0, 1}

	return &Figure{
		Data: []Trace{{
			Type:      "scatter",
			Mode:      "lines",
			X:         times,
			Y:         flatness,
			Fill:      "tozeroy",
			FillColor: "rgba(56,189,248,0.15)",
			Line:      &Line{Width: 1.5, Color: "rgba(56,189,248,0.85)"},
		}},
		Layout: Layout{
			Title:  Text{Text: title},
			Height: 240,
			Margin: Margin{L: 40, R: 10, T: 40, B: 40},
			XAxis:  axis(timeAxis),
			YAxis:  yAxis,
		},
	}, nil
}

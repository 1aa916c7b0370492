package presentation

import (
	"math"

	"github.com/RyanBlaney/sonido-mach/apperrors"
)

const (
	height2D     = 600
	heightSingle = 700
	heightMulti  = 900

	markerSize2D = 5
	markerSize3D = 3

	// spacing between the stacked multi-view scenes
	multiViewSpacing = 0.02
)

// EmbeddingOptions controls how an embedding is drawn
type EmbeddingOptions struct {
	Title      string
	ColorBy    ColorMode
	Colorscale string
	Connect    bool
	MultiView  bool
}

// CameraPresets returns the three fixed viewpoints of the multi-view layout
func CameraPresets() []Camera {
	return []Camera{
		{Eye: Vec3{X: 1.4, Y: 1.4, Z: 0.9}},
		{Eye: Vec3{X: -1.6, Y: 1.1, Z: 0.6}},
		{Eye: Vec3{X: 0.0, Y: 0.0, Z: 2.2}},
	}
}

// BuildEmbeddingFigure draws a 2- or 3-column embedding colored by one of the
// per-frame arrays in src. Three columns with MultiView set produce three
// stacked scenes seen from the camera presets.
func BuildEmbeddingFigure(embedding [][]float64, src ColorSource, opts EmbeddingOptions) (*Figure, error) {
	if len(embedding) == 0 {
		return nil, apperrors.Validation("embedding is empty")
	}
	dims := len(embedding[0])
	if dims != 2 && dims != 3 {
		return nil, apperrors.Validation("embedding must have 2 or 3 columns, got %d", dims)
	}
	if opts.MultiView && dims != 3 {
		return nil, apperrors.Validation("multi-view needs a 3D embedding, got %d columns", dims)
	}

	colors, label := ResolveColor(opts.ColorBy, src)
	if len(colors) != len(embedding) {
		return nil, apperrors.Validation("color array has %d values for %d points", len(colors), len(embedding))
	}

	colorscale := ResolveColorscale(opts.Colorscale)
	cols := columns(embedding)

	switch {
	case dims == 2:
		return build2D(cols, colors, label, colorscale, opts), nil
	case opts.MultiView:
		return buildMultiView(cols, colors, label, colorscale, opts), nil
	default:
		return buildSingleView(cols, colors, label, colorscale, opts), nil
	}
}

func columns(embedding [][]float64) [][]float64 {
	dims := len(embedding[0])
	cols := make([][]float64, dims)
	for d := range cols {
		cols[d] = make([]float64, len(embedding))
	}
	for i, row := range embedding {
		for d := range dims {
			cols[d][i] = row[d]
		}
	}
	return cols
}

func mode(connect bool) string {
	if connect {
		return "markers+lines"
	}
	return "markers"
}

func build2D(cols [][]float64, colors []float64, label, colorscale string, opts EmbeddingOptions) *Figure {
	trace := Trace{
		Type: "scatter",
		Mode: mode(opts.Connect),
		X:    cols[0],
		Y:    cols[1],
		Marker: &Marker{
			Size:       markerSize2D,
			Color:      colors,
			Colorscale: colorscale,
			Opacity:    0.85,
			ShowScale:  true,
			ColorBar:   &ColorBar{Title: Text{Text: label}},
		},
	}
	if opts.Connect {
		trace.Line = &Line{Width: 1, Color: "rgba(255,255,255,0.15)"}
	}

	return &Figure{
		Data: []Trace{trace},
		Layout: Layout{
			Title:  Text{Text: opts.Title},
			Height: height2D,
			Margin: Margin{L: 40, R: 10, T: 40, B: 40},
			XAxis:  axis("D1"),
			YAxis:  axis("D2"),
		},
	}
}

func scatter3D(cols [][]float64, colors []float64, label, colorscale string, connect, showScale bool) Trace {
	trace := Trace{
		Type: "scatter3d",
		Mode: mode(connect),
		X:    cols[0],
		Y:    cols[1],
		Z:    cols[2],
		Marker: &Marker{
			Size:       markerSize3D,
			Color:      colors,
			Colorscale: colorscale,
			Opacity:    0.95,
			ShowScale:  showScale,
		},
	}
	if showScale {
		trace.Marker.ColorBar = &ColorBar{Title: Text{Text: label}}
	}
	if connect {
		trace.Line = &Line{Width: 2, Color: "rgba(255,255,255,0.25)"}
	}
	return trace
}

func buildSingleView(cols [][]float64, colors []float64, label, colorscale string, opts EmbeddingOptions) *Figure {
	return &Figure{
		Data: []Trace{scatter3D(cols, colors, label, colorscale, opts.Connect, true)},
		Layout: Layout{
			Title:  Text{Text: opts.Title},
			Height: heightSingle,
			Margin: Margin{T: 40},
			Scene:  embeddingScene(),
		},
	}
}

func buildMultiView(cols [][]float64, colors []float64, label, colorscale string, opts EmbeddingOptions) *Figure {
	cameras := CameraPresets()
	rowHeight := (1 - 2*multiViewSpacing) / 3

	scenes := make([]*Scene, 3)
	traces := make([]Trace, 3)
	for i := range 3 {
		top := 1 - float64(i)*(rowHeight+multiViewSpacing)
		scene := embeddingScene()
		scene.Camera = &cameras[i]
		scene.Domain = &Domain{X: []float64{0, 1}, Y: []float64{math.Max(0, top-rowHeight), top}}
		scenes[i] = scene

		traces[i] = scatter3D(cols, colors, label, colorscale, opts.Connect, i == 0)
		if i > 0 {
			traces[i].Scene = sceneID(i)
		}
	}

	showLegend := false
	return &Figure{
		Data: traces,
		Layout: Layout{
			Title:      Text{Text: opts.Title},
			Height:     heightMulti,
			Margin:     Margin{T: 40},
			ShowLegend: &showLegend,
			Scene:      scenes[0],
			Scene2:     scenes[1],
			Scene3:     scenes[2],
		},
	}
}

func sceneID(i int) string {
	if i == 0 {
		return "scene"
	}
	return "scene" + string(rune('1'+i))
}

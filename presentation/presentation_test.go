package presentation

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/RyanBlaney/sonido-mach/apperrors"
)

func embedding(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
		for j := range out[i] {
			out[i][j] = float64(i*cols + j)
		}
	}
	return out
}

func source(n int) ColorSource {
	src := ColorSource{Times: make([]float64, n), Energy: make([]float64, n)}
	for i := range n {
		src.Times[i] = float64(i) * 0.1
		src.Energy[i] = float64(n - i)
	}
	return src
}

func TestResolveColor(t *testing.T) {
	src := source(4)
	withFlatness := src
	withFlatness.Flatness = []float64{0.1, 0.2, 0.3, 0.4}

	tests := []struct {
		name      string
		mode      ColorMode
		src       ColorSource
		want      []float64
		wantLabel string
	}{
		{"time", ColorByTime, src, src.Times, "time (s)"},
		{"energy", ColorByEnergy, src, src.Energy, "energy"},
		{"flatness", ColorByFlatness, withFlatness, withFlatness.Flatness, "flatness"},
		{"flatness fallback", ColorByFlatness, src, src.Energy, "energy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, label := ResolveColor(tt.mode, tt.src)
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if label != tt.wantLabel {
				t.Errorf("expected label %q, got %q", tt.wantLabel, label)
			}
		})
	}
}

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]ColorMode{"time": ColorByTime, "Energy": ColorByEnergy, " FLATNESS ": ColorByFlatness, "": ColorByTime} {
		got, err := ParseColorMode(in)
		if err != nil || got != want {
			t.Errorf("ParseColorMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseColorMode("pitch"); !apperrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestResolveColorscale(t *testing.T) {
	if got := ResolveColorscale("turbo"); got != "Turbo" {
		t.Errorf("expected Turbo, got %s", got)
	}
	if got := ResolveColorscale("Rainbow"); got != "Viridis" {
		t.Errorf("expected Viridis fallback, got %s", got)
	}
	if len(Colorscales()) != 8 {
		t.Errorf("expected 8 colorscales, got %d", len(Colorscales()))
	}
}

func TestBuildEmbeddingFigure(t *testing.T) {
	tests := []struct {
		name       string
		cols       int
		opts       EmbeddingOptions
		traces     int
		traceType  string
		height     int
		markerSize float64
		mode       string
	}{
		{"2d", 2, EmbeddingOptions{ColorBy: ColorByTime}, 1, "scatter", 600, 5, "markers"},
		{"3d single", 3, EmbeddingOptions{ColorBy: ColorByEnergy, Connect: true}, 1, "scatter3d", 700, 3, "markers+lines"},
		{"3d multi", 3, EmbeddingOptions{ColorBy: ColorByTime, MultiView: true}, 3, "scatter3d", 900, 3, "markers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fig, err := BuildEmbeddingFigure(embedding(10, tt.cols), source(10), tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(fig.Data) != tt.traces {
				t.Fatalf("expected %d traces, got %d", tt.traces, len(fig.Data))
			}
			if fig.Layout.Height != tt.height {
				t.Errorf("expected height %d, got %d", tt.height, fig.Layout.Height)
			}
			for _, tr := range fig.Data {
				if tr.Type != tt.traceType {
					t.Errorf("expected type %s, got %s", tt.traceType, tr.Type)
				}
				if tr.Marker.Size != tt.markerSize {
					t.Errorf("expected marker size %v, got %v", tt.markerSize, tr.Marker.Size)
				}
				if tr.Mode != tt.mode {
					t.Errorf("expected mode %s, got %s", tt.mode, tr.Mode)
				}
				if len(tr.X) != 10 {
					t.Errorf("expected 10 points, got %d", len(tr.X))
				}
			}
		})
	}
}

func TestMultiViewScenes(t *testing.T) {
	fig, err := BuildEmbeddingFigure(embedding(5, 3), source(5), EmbeddingOptions{MultiView: true})
	if err != nil {
		t.Fatal(err)
	}

	cameras := CameraPresets()
	scenes := []*Scene{fig.Layout.Scene, fig.Layout.Scene2, fig.Layout.Scene3}
	for i, s := range scenes {
		if s == nil || s.Camera == nil {
			t.Fatalf("scene %d missing camera", i)
		}
		if s.Camera.Eye != cameras[i].Eye {
			t.Errorf("scene %d: expected eye %+v, got %+v", i, cameras[i].Eye, s.Camera.Eye)
		}
	}
	if fig.Data[1].Scene != "scene2" || fig.Data[2].Scene != "scene3" {
		t.Errorf("unexpected scene ids %q %q", fig.Data[1].Scene, fig.Data[2].Scene)
	}
	if !fig.Data[0].Marker.ShowScale || fig.Data[1].Marker.ShowScale {
		t.Error("expected only the first panel to show a colorbar")
	}
}

func TestEmbeddingFlatnessFallbackUsesEnergy(t *testing.T) {
	src := source(6)
	fig, err := BuildEmbeddingFigure(embedding(6, 3), src, EmbeddingOptions{ColorBy: ColorByFlatness})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !slices.Equal(fig.Data[0].Marker.Color, src.Energy) {
		t.Errorf("expected energy colors %v, got %v", src.Energy, fig.Data[0].Marker.Color)
	}
	if fig.Data[0].Marker.ColorBar.Title.Text != "energy" {
		t.Errorf("expected energy label, got %q", fig.Data[0].Marker.ColorBar.Title.Text)
	}
}

func TestBuildEmbeddingFigureInvalid(t *testing.T) {
	tests := []struct {
		name string
		emb  [][]float64
		src  ColorSource
		opts EmbeddingOptions
	}{
		{"empty", nil, source(0), EmbeddingOptions{}},
		{"four columns", embedding(3, 4), source(3), EmbeddingOptions{}},
		{"multi 2d", embedding(3, 2), source(3), EmbeddingOptions{MultiView: true}},
		{"misaligned colors", embedding(3, 3), source(4), EmbeddingOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildEmbeddingFigure(tt.emb, tt.src, tt.opts); !apperrors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestBuildWaveformFigureDownsamples(t *testing.T) {
	samples := make([]float64, 120000)
	fig, err := BuildWaveformFigure(samples, 22050, "Waveform", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(fig.Data[0].X); n != MaxWaveformPoints {
		t.Errorf("expected %d points, got %d", MaxWaveformPoints, n)
	}
	if fig.Layout.Height != 260 {
		t.Errorf("expected height 260, got %d", fig.Layout.Height)
	}

	small, err := BuildWaveformFigure(samples[:100], 22050, "Waveform", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(small.Data[0].X); n != 100 {
		t.Errorf("expected 100 points, got %d", n)
	}

	if _, err := BuildWaveformFigure(nil, 22050, "Waveform", 0); !apperrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestBuildMelSpectrogramFigureTransposes(t *testing.T) {
	logMel := [][]float64{{1, 2, 3}, {4, 5, 6}}
	fig, err := BuildMelSpectrogramFigure(logMel, []float64{0, 0.5}, []float64{100, 200, 300}, "Mel")
	if err != nil {
		t.Fatal(err)
	}
	z, ok := fig.Data[0].Z.([][]float64)
	if !ok {
		t.Fatalf("expected [][]float64 z, got %T", fig.Data[0].Z)
	}
	if len(z) != 3 || len(z[0]) != 2 || z[2][1] != 6 {
		t.Errorf("unexpected z: %v", z)
	}

	if _, err := BuildMelSpectrogramFigure(logMel, []float64{0}, []float64{100, 200, 300}, "Mel"); err == nil {
		t.Error("expected error for misaligned times")
	}
}

func TestBuildFlatnessFigure(t *testing.T) {
	fig, err := BuildFlatnessFigure([]float64{0, 1}, []float64{0.2, 0.4}, "Flatness")
	if err != nil {
		t.Fatal(err)
	}
	if fig.Data[0].Fill != "tozeroy" {
		t.Errorf("expected tozeroy fill, got %q", fig.Data[0].Fill)
	}
	if !slices.Equal(fig.Layout.YAxis.Range, []float64{0, 1}) {
		t.Errorf("expected range [0 1], got %v", fig.Layout.YAxis.Range)
	}
	if _, err := BuildEnergyFigure([]float64{0}, []float64{1, 2}, "Energy"); err == nil {
		t.Error("expected error for misaligned energy")
	}
}

func TestFigureJSON(t *testing.T) {
	fig, err := BuildEmbeddingFigure(embedding(3, 2), source(3), EmbeddingOptions{Title: "demo"})
	if err != nil {
		t.Fatal(err)
	}
	data, err := fig.JSON()
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	traces := decoded["data"].([]any)
	trace := traces[0].(map[string]any)
	if _, hasZ := trace["z"]; hasZ {
		t.Error("2D trace should not carry z")
	}
	if trace["type"] != "scatter" {
		t.Errorf("unexpected type %v", trace["type"])
	}
}

func TestRenderHTML(t *testing.T) {
	fig, err := BuildEnergyFigure([]float64{0, 1}, []float64{1, 2}, "Energy")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	err = RenderHTML(&buf, Page{
		Title:    "clip.wav <3D>",
		Summary:  "duration=1.00s frames=44",
		BackLink: "/",
		Sections: []Section{{Title: "Energy", Figure: fig}, {Title: "Missing"}},
	})
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}

	out := buf.String()
	for _, want := range []string{PlotlyCDN, "duration=1.00s frames=44", "clip.wav &lt;3D&gt;", `id="fig-0"`, "Plotly.newPlot"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if strings.Contains(out, "Missing") {
		t.Error("sections without a figure should be skipped")
	}
}

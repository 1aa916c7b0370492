package presentation

import "encoding/json"

// Figure is a Plotly chart definition: traces plus layout, serialized
// exactly as Plotly.newPlot expects them.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// JSON encodes the figure for embedding in a page
func (f *Figure) JSON() ([]byte, error) {
	return json.Marshal(f)
}

// Trace is one Plotly trace (scatter, scatter3d or heatmap)
type Trace struct {
	Type      string    `json:"type"`
	Mode      string    `json:"mode,omitempty"`
	Name      string    `json:"name,omitempty"`
	X         []float64 `json:"x,omitempty"`
	Y         []float64 `json:"y,omitempty"`
	Z         any       `json:"z,omitempty"`
	Marker    *Marker   `json:"marker,omitempty"`
	Line      *Line     `json:"line,omitempty"`
	Fill      string    `json:"fill,omitempty"`
	FillColor string    `json:"fillcolor,omitempty"`
	Scene     string    `json:"scene,omitempty"`

	// Heatmap only
	Colorscale string    `json:"colorscale,omitempty"`
	ColorBar   *ColorBar `json:"colorbar,omitempty"`
}

// Marker styles scatter points
type Marker struct {
	Size       float64   `json:"size"`
	Color      []float64 `json:"color,omitempty"`
	Colorscale string    `json:"colorscale,omitempty"`
	Opacity    float64   `json:"opacity"`
	ShowScale  bool      `json:"showscale"`
	ColorBar   *ColorBar `json:"colorbar,omitempty"`
}

// Line styles connecting segments
type Line struct {
	Width float64 `json:"width"`
	Color string  `json:"color,omitempty"`
}

// ColorBar labels a color scale
type ColorBar struct {
	Title Text `json:"title"`
}

// Text is a Plotly title object
type Text struct {
	Text string `json:"text"`
}

// Margin is the plot margin in pixels
type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

// Axis configures a 2D or 3D axis
type Axis struct {
	Title Text      `json:"title"`
	Range []float64 `json:"range,omitempty"`
}

// Camera positions the viewpoint of a 3D scene
type Camera struct {
	Eye Vec3 `json:"eye"`
}

// Vec3 is a point in scene coordinates
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Domain is the fraction of the figure a scene occupies
type Domain struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Scene configures a 3D subplot
type Scene struct {
	XAxis  Axis    `json:"xaxis"`
	YAxis  Axis    `json:"yaxis"`
	ZAxis  Axis    `json:"zaxis"`
	Camera *Camera `json:"camera,omitempty"`
	Domain *Domain `json:"domain,omitempty"`
}

// Layout is the Plotly layout object
type Layout struct {
	Title      Text   `json:"title"`
	Height     int    `json:"height"`
	Margin     Margin `json:"margin"`
	Template   string `json:"template,omitempty"`
	ShowLegend *bool  `json:"showlegend,omitempty"`
	XAxis      *Axis  `json:"xaxis,omitempty"`
	YAxis      *Axis  `json:"yaxis,omitempty"`
	Scene      *Scene `json:"scene,omitempty"`
	Scene2     *Scene `json:"scene2,omitempty"`
	Scene3     *Scene `json:"scene3,omitempty"`
}

func axis(title string) *Axis {
	return &Axis{Title: Text{Text: title}}
}

func embeddingScene() *Scene {
	return &Scene{
		XAxis: Axis{Title: Text{Text: "D1"}},
		YAxis: Axis{Title: Text{Text: "D2"}},
		ZAxis: Axis{Title: Text{Text: "D3"}},
	}
}

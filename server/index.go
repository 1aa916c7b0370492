package server

import (
	"html/template"
	"io"

	"github.com/RyanBlaney/sonido-mach/config"
	"github.com/RyanBlaney/sonido-mach/presets"
	"github.com/RyanBlaney/sonido-mach/validate"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <meta name="theme-color" content="#0b0f19" />
    <title>{{.AppName}} | 3D Audio Map</title>
    <style>
      body {
        font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
        margin: 0;
        background: #0b0f19;
        color: #e6e8ef;
      }
      .wrap { max-width: 900px; margin: 0 auto; padding: 24px; }
      h1 { font-size: 22px; margin: 0 0 8px; }
      p { line-height: 1.5; color: #b7bdd1; margin: 0 0 16px; }
      .card {
        background: #121a2b;
        border: 1px solid rgba(255,255,255,0.08);
        border-radius: 12px;
        padding: 16px;
      }
      label { display: block; margin: 10px 0 6px; font-weight: 600; }
      input[type="file"], input[type="url"], select, input[type="number"] {
        width: 100%;
        box-sizing: border-box;
        padding: 10px;
        border-radius: 10px;
        border: 1px solid rgba(255,255,255,0.14);
        background: #0e1526;
        color: #e6e8ef;
      }
      .row { display: grid; grid-template-columns: 1fr 1fr; gap: 12px; }
      .checks { display: flex; flex-wrap: wrap; gap: 14px; margin-top: 10px; }
      .checks label { display: inline-flex; align-items: center; gap: 8px; font-weight: 500; margin: 0; }
      button {
        margin-top: 14px;
        width: 100%;
        padding: 12px 14px;
        border-radius: 10px;
        border: 0;
        background: #3b82f6;
        color: #081024;
        font-weight: 700;
        cursor: pointer;
      }
      .note { font-size: 13px; margin-top: 12px; }
      .note code { background: rgba(255,255,255,0.08); padding: 2px 6px; border-radius: 6px; }
    </style>
  </head>
  <body>
    <div class="wrap">
      <h1>{{.AppName}} | 3D Audio Map</h1>
      <p>Upload any audio (music, speech, bird calls, field recordings) and generate a 3D embedding where each point is a short-time frame.</p>
      <div class="card">
        <form action="/visualize" method="post" enctype="multipart/form-data">
          <label for="file">Audio file ({{.Extensions}})</label>
          <input id="file" name="file" type="file" accept="audio/*" />

          <label for="audio_url">or an audio URL</label>
          <input id="audio_url" name="audio_url" type="url" placeholder="https://example.com/audio.wav" />

          <div class="row">
            <div>
              <label for="preset">Preset</label>
              <select id="preset" name="preset">
                <option value="" selected>None</option>
                {{range .Presets}}<option value="{{.Key}}">{{.Name}}</option>
                {{end}}
              </select>
            </div>
            <div>
              <label for="color_by">Color by</label>
              <select id="color_by" name="color_by">
                <option value="time" selected>Time</option>
                <option value="energy">Energy</option>
                <option value="flatness">Spectral flatness</option>
              </select>
            </div>
          </div>

          <div class="row">
            <div>
              <label for="stride">Stride (downsample frames)</label>
              <input id="stride" name="stride" type="number" min="{{.MinStride}}" max="{{.MaxStride}}" step="1" value="{{.DefaultStride}}" />
            </div>
            <div>
              <label for="colorscale">Colorscale</label>
              <select id="colorscale" name="colorscale">
                {{range .Colorscales}}<option value="{{.}}">{{.}}</option>
                {{end}}
              </select>
            </div>
          </div>

          <div class="row">
            <div>
              <label for="n_neighbors">n_neighbors</label>
              <input id="n_neighbors" name="n_neighbors" type="number" min="{{.MinNeighbors}}" max="{{.MaxNeighbors}}" step="1" value="15" />
            </div>
            <div>
              <label for="min_dist">min_dist</label>
              <input id="min_dist" name="min_dist" type="number" min="0" max="1" step="0.01" value="0.10" />
            </div>
          </div>

          <div class="checks">
            <label><input type="checkbox" name="multi_view" value="1" checked /> Multi-view</label>
            <label><input type="checkbox" name="connect" value="1" /> Connect points</label>
          </div>

          <button type="submit">Generate 3D visualization</button>
          <p class="note">Tip: if the plot feels slow, increase <code>stride</code>. Uploads up to {{.MaxUploadMB}} MB, {{.MaxDurationS}} s.</p>
        </form>
      </div>
    </div>
  </body>
</html>
`))

type indexData struct {
	AppName       string
	Extensions    string
	Presets       []presets.Preset
	Colorscales   []string
	MinStride     int
	MaxStride     int
	DefaultStride int
	MinNeighbors  int
	MaxNeighbors  int
	MaxUploadMB   float64
	MaxDurationS  float64
}

func (s *Server) renderIndex(w io.Writer) error {
	exts := ""
	for i, e := range validate.SupportedExtensions() {
		if i > 0 {
			exts += " "
		}
		exts += e
	}

	return indexTemplate.Execute(w, indexData{
		AppName:       config.AppName,
		Extensions:    exts,
		Presets:       s.presets.All(),
		Colorscales:   colorscaleOptions(),
		MinStride:     validate.MinStride,
		MaxStride:     validate.MaxStride,
		DefaultStride: validate.DefaultStride,
		MinNeighbors:  validate.MinNeighbors,
		MaxNeighbors:  validate.MaxNeighbors,
		MaxUploadMB:   s.cfg.Limits.MaxUploadMB,
		MaxDurationS:  s.cfg.Limits.MaxDurationS,
	})
}

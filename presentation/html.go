package presentation

import (
	"fmt"
	"html/template"
	"io"
)

// PlotlyCDN is the script URL pages load Plotly from
const PlotlyCDN = "https://cdn.plot.ly/plotly-2.35.2.min.js"

// Section is one titled figure on a result page
type Section struct {
	Title  string
	Figure *Figure
}

// Page is a standalone result document
type Page struct {
	Title    string
	Summary  string
	BackLink string
	Sections []Section
}

type renderedSection struct {
	ID     string
	Title  string
	Figure template.JS
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>{{.Title}}</title>
    <script src="{{.PlotlyCDN}}"></script>
    <style>
      body {
        font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
        margin: 0;
        background: #0b0f19;
        color: #e6e8ef;
      }
      .wrap { max-width: 1100px; margin: 0 auto; padding: 14px 18px; }
      a { color: #93c5fd; text-decoration: none; }
      a:hover { text-decoration: underline; }
      .meta { color: #b7bdd1; font-size: 13px; }
      .section-title { font-weight: 800; margin: 6px 0 8px; }
      .plot {
        background: #121a2b;
        border: 1px solid rgba(255,255,255,0.08);
        border-radius: 12px;
        padding: 8px;
      }
    </style>
  </head>
  <body>
    <div class="wrap">
      {{if .BackLink}}<div><a href="{{.BackLink}}">Back</a></div>{{end}}
      <h2 style="margin: 6px 0 2px;">{{.Title}}</h2>
      <div class="meta">{{.Summary}}</div>
      {{range .Sections}}
      <div style="margin-top: 14px;">
        <div class="section-title">{{.Title}}</div>
        <div class="plot"><div id="{{.ID}}"></div></div>
      </div>
      {{end}}
    </div>
    <script>
      const layoutDefaults = { template: "plotly_dark", paper_bgcolor: "#121a2b", plot_bgcolor: "#121a2b" };
      {{range .Sections}}
      (function () {
        const fig = {{.Figure}};
        Plotly.newPlot({{.ID}}, fig.data, Object.assign({}, layoutDefaults, fig.layout), { responsive: true });
      })();
      {{end}}
    </script>
  </body>
</html>
`))

// RenderHTML writes page as a standalone HTML document. Figures are embedded
// as JSON and drawn client-side with Plotly.
func RenderHTML(w io.Writer, page Page) error {
	sections := make([]renderedSection, 0, len(page.Sections))
	for i, s := range page.Sections {
		if s.Figure == nil {
			continue
		}
		data, err := s.Figure.JSON()
		if err != nil {
			return fmt.Errorf("failed to encode figure %q: %w", s.Title, err)
		}
		sections = append(sections, renderedSection{
			ID:     fmt.Sprintf("fig-%d", i),
			Title:  s.Title,
			Figure: template.JS(data),
		})
	}

	return pageTemplate.Execute(w, struct {
		Title     string
		Summary   string
		BackLink  string
		PlotlyCDN string
		Sections  []renderedSection
	}{
		Title:     page.Title,
		Summary:   page.Summary,
		BackLink:  page.BackLink,
		PlotlyCDN: PlotlyCDN,
		Sections:  sections,
	})
}

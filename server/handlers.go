package server

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RyanBlaney/sonido-mach/analysis"
	"github.com/RyanBlaney/sonido-mach/apperrors"
	"github.com/RyanBlaney/sonido-mach/config"
	"github.com/RyanBlaney/sonido-mach/export"
	"github.com/RyanBlaney/sonido-mach/features"
	"github.com/RyanBlaney/sonido-mach/logging"
	"github.com/RyanBlaney/sonido-mach/pipeline"
	"github.com/RyanBlaney/sonido-mach/presentation"
	"github.com/RyanBlaney/sonido-mach/validate"
)

// ErrorResponse is the JSON body of every failed API call
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

var errorTemplate = template.Must(template.New("error").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>Error</title>
    <style>
      body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background: #0b0f19; color: #e6e8ef; }
      .wrap { max-width: 900px; margin: 0 auto; padding: 24px; }
      a { color: #93c5fd; }
    </style>
  </head>
  <body>
    <div class="wrap">
      <h1>Error</h1>
      <p>{{.}}</p>
      <p><a href="/">Back</a></p>
    </div>
  </body>
</html>
`))

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) handleIndex(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.renderIndex(&buf); err != nil {
		logging.WithContext(c.Request.Context()).Error(err, "Failed to render index")
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handlePresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": s.presets.All()})
}

func (s *Server) handleVisualizePage(c *gin.Context) {
	res, err := s.visualize(c)
	if err != nil {
		s.pageError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := res.WriteHTML(&buf, "/"); err != nil {
		s.pageError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleVisualizeAPI(c *gin.Context) {
	res, err := s.visualize(c)
	if err != nil {
		s.apiError(c, err)
		return
	}

	if strings.EqualFold(c.Query("format"), "msgpack") {
		var buf bytes.Buffer
		if err := export.WriteMsgpack(&buf, res); err != nil {
			s.apiError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/msgpack", buf.Bytes())
		return
	}

	data, err := export.ToJSON(res)
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) handleAnalyzeAPI(c *gin.Context) {
	up, err := s.receiveAudio(c)
	if err != nil {
		s.apiError(c, err)
		return
	}
	defer up.remove()

	sampleRate := features.DefaultAudioFeatureConfig().SampleRate
	if sr, ok, err := formInt(c, "sr"); err != nil {
		s.apiError(c, err)
		return
	} else if ok {
		if sr <= 0 {
			s.apiError(c, apperrors.Validation("sr must be positive, got %d", sr).WithField("sr"))
			return
		}
		sampleRate = sr
	}

	release, err := s.acquire(c.Request.Context())
	if err != nil {
		s.apiError(c, err)
		return
	}
	defer release()

	w, err := features.LoadWith(c.Request.Context(), s.decoder(sampleRate), up.Path)
	if err != nil {
		s.apiError(c, err)
		return
	}
	if err := validate.Duration(w.Duration(), s.cfg.Limits.MaxDurationS); err != nil {
		s.apiError(c, err)
		return
	}
	report, err := analysis.Analyze(c.Request.Context(), w, analysis.TagRules)
	if err != nil {
		s.apiError(c, err)
		return
	}

	data, err := export.ToJSON(report)
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// visualize receives the audio, parses the form and runs the pipeline on a
// worker slot. The temp file is gone by the time it returns.
func (s *Server) visualize(c *gin.Context) (*pipeline.Result, error) {
	ctx := c.Request.Context()
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "server",
		"function":  "visualize",
	})

	up, err := s.receiveAudio(c)
	if err != nil {
		return nil, err
	}
	defer up.remove()

	opts, err := s.parseOptions(c)
	if err != nil {
		return nil, err
	}
	opts.Title = pipeline.EmbeddingTitle(up.Filename, opts.Projection.NComponents)
	opts.MaxDurationS = s.cfg.Limits.MaxDurationS
	opts.Decoder = s.decoder(opts.Audio.SampleRate)

	start := time.Now()
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	logger.Debug("Running visualization", logging.Fields{
		"filename": up.Filename,
		"bytes":    up.Size,
		"wait_ms":  waited(start),
	})
	return pipeline.Visualize(ctx, up.Path, opts)
}

// parseOptions starts from the selected preset (or the defaults) and applies
// the form overrides, clamping the numeric knobs into range
func (s *Server) parseOptions(c *gin.Context) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	if key := strings.TrimSpace(c.PostForm("preset")); key != "" {
		p, ok := s.presets.Get(key)
		if !ok {
			return opts, apperrors.Validation("unknown preset %q; available: %s",
				key, strings.Join(s.presets.Names(), ", ")).WithField("preset")
		}
		opts = pipeline.OptionsFromPreset(p)
	}

	if raw := strings.TrimSpace(c.PostForm("color_by")); raw != "" {
		mode, err := presentation.ParseColorMode(raw)
		if err != nil {
			return opts, err
		}
		opts.ColorBy = mode
	}
	if raw := strings.TrimSpace(c.PostForm("colorscale")); raw != "" {
		opts.Colorscale = presentation.ResolveColorscale(raw)
	}
	if raw := strings.TrimSpace(c.PostForm("metric")); raw != "" {
		opts.Projection.Metric = strings.ToLower(raw)
	}

	if v, ok, err := formInt(c, "stride"); err != nil {
		return opts, err
	} else if ok {
		opts.Stride = v
	}
	if v, ok, err := formInt(c, "n_neighbors"); err != nil {
		return opts, err
	} else if ok {
		opts.Projection.NNeighbors = v
	}
	if v, ok, err := formFloat(c, "min_dist"); err != nil {
		return opts, err
	} else if ok {
		opts.Projection.MinDist = v
	}
	opts.Connect = formBool(c, "connect")
	opts.MultiView = formBool(c, "multi_view")

	params := validate.VisualizeParams{
		Stride:     opts.Stride,
		NNeighbors: opts.Projection.NNeighbors,
		MinDist:    opts.Projection.MinDist,
	}.Clamped()
	opts.Stride = params.Stride
	opts.Projection.NNeighbors = params.NNeighbors
	opts.Projection.MinDist = params.MinDist

	if opts.Projection.NComponents == 0 {
		opts.Projection.NComponents = 3
	}
	return opts, nil
}

func (s *Server) apiError(c *gin.Context, err error) {
	status := s.logFailure(c, err)
	resp := ErrorResponse{
		Error:   apperrors.CodeOf(err).String(),
		Message: err.Error(),
	}
	if appErr, ok := asAppError(err); ok {
		resp.Message = appErr.Message
		resp.Field = appErr.Field
	}
	if status == http.StatusInternalServerError {
		resp.Message = "internal server error"
	}
	c.JSON(status, resp)
}

func (s *Server) pageError(c *gin.Context, err error) {
	status := s.logFailure(c, err)
	msg := err.Error()
	if appErr, ok := asAppError(err); ok {
		msg = appErr.Message
	}
	if status == http.StatusInternalServerError {
		msg = "Something went wrong while processing the audio."
	}

	var buf bytes.Buffer
	if err := errorTemplate.Execute(&buf, msg); err != nil {
		c.String(status, msg)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// logFailure logs err at a level matching its status and returns the status
func asAppError(err error) (*apperrors.Error, bool) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func colorscaleOptions() []string {
	return presentation.Colorscales()
}

func (s *Server) logFailure(c *gin.Context, err error) int {
	status := apperrors.HTTPStatus(err)
	fields := logging.Fields{
		"path":   c.Request.URL.Path,
		"status": status,
		"code":   apperrors.CodeOf(err).String(),
	}
	logger := logging.WithContext(c.Request.Context())
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		logger.Error(err, "Request failed", fields)
	} else {
		fields["error"] = err.Error()
		logger.Warn("Request rejected", fields)
	}
	return status
}

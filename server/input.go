package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-mach/apperrors"
	"github.com/RyanBlaney/sonido-mach/logging"
	"github.com/RyanBlaney/sonido-mach/validate"
)

const (
	bytesPerMB = 1024 * 1024
	userAgent  = "Mach/0.2"
)

// upload is received audio spooled to a temporary file
type upload struct {
	Path     string
	Filename string
	Size     int64
}

func (u *upload) remove() {
	if u == nil || u.Path == "" {
		return
	}
	if err := os.Remove(u.Path); err != nil && !os.IsNotExist(err) {
		logging.Warn("Failed to remove temp file", logging.Fields{"path": u.Path, "error": err.Error()})
	}
}

// receiveAudio spools the multipart "file" (or legacy "audio") field, or the
// audio_url download, to a temp file. The caller must call remove on the result.
func (s *Server) receiveAudio(c *gin.Context) (*upload, error) {
	limitBytes := int64(s.cfg.Limits.MaxUploadMB * bytesPerMB)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limitBytes+bytesPerMB)

	header, err := formFile(c, "file", "audio")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, apperrors.AudioTooLarge(float64(tooBig.Limit)/bytesPerMB, s.cfg.Limits.MaxUploadMB)
		}
		return nil, apperrors.Validation("invalid upload: %v", err)
	}

	if header != nil {
		if !validate.AudioExtension(header.Filename) {
			return nil, apperrors.Validation("unsupported file type %q; supported: %s",
				filepath.Ext(header.Filename), strings.Join(validate.SupportedExtensions(), ", ")).WithField("file")
		}
		if err := validate.FileSize(header.Size, s.cfg.Limits.MaxUploadMB); err != nil {
			return nil, err
		}
		f, err := header.Open()
		if err != nil {
			return nil, apperrors.Load("failed to open upload", err)
		}
		defer f.Close()
		return s.spool(f, filepath.Base(header.Filename), limitBytes)
	}

	raw := c.PostForm("audio_url")
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.Validation("No audio received. Upload a file or provide a URL.").WithField("file")
	}
	target := validate.SanitizeURL(raw)
	if target == "" {
		return nil, apperrors.Validation("Only http/https URLs are supported").WithField("audio_url")
	}
	return s.fetch(c.Request.Context(), target, limitBytes)
}

// formFile returns the first present multipart file among names, or nil when
// the request carries none
func formFile(c *gin.Context, names ...string) (*multipart.FileHeader, error) {
	for _, name := range names {
		header, err := c.FormFile(name)
		if err == nil {
			if header.Filename == "" {
				continue
			}
			return header, nil
		}
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			continue
		}
		return nil, err
	}
	return nil, nil
}

// fetch downloads target into a temp file, reading at most limitBytes+1 bytes
// so an oversized body is detected without buffering it
func (s *Server) fetch(ctx context.Context, target string, limitBytes int64) (*upload, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Server.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apperrors.URLFetch("Failed to fetch audio from URL", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.URLFetch("Failed to fetch audio from URL", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.URLFetch(fmt.Sprintf("Failed to fetch audio from URL: HTTP %d", resp.StatusCode), nil)
	}
	if resp.ContentLength > limitBytes {
		return nil, apperrors.AudioTooLarge(float64(resp.ContentLength)/bytesPerMB, s.cfg.Limits.MaxUploadMB)
	}

	filename := "remote_audio.wav"
	if u, err := url.Parse(target); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			filename = base
		}
	}
	return s.spool(resp.Body, filename, limitBytes)
}

// spool copies r into a uniquely named temp file keeping the suffix of
// filename (".wav" when it has none). More than limitBytes is rejected.
func (s *Server) spool(r io.Reader, filename string, limitBytes int64) (*upload, error) {
	suffix := filepath.Ext(filename)
	if suffix == "" {
		suffix = ".wav"
	}

	tmpPath := filepath.Join(s.cfg.Server.TempDir, "mach-"+uuid.NewString()+suffix)
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	u := &upload{Path: tmpPath, Filename: filename}

	n, copyErr := io.Copy(f, io.LimitReader(r, limitBytes+1))
	closeErr := f.Close()
	u.Size = n

	switch {
	case copyErr != nil:
		u.remove()
		var tooBig *http.MaxBytesError
		if errors.As(copyErr, &tooBig) {
			return nil, apperrors.AudioTooLarge(float64(tooBig.Limit)/bytesPerMB, s.cfg.Limits.MaxUploadMB)
		}
		return nil, apperrors.Load("failed to read audio", copyErr)
	case closeErr != nil:
		u.remove()
		return nil, fmt.Errorf("failed to write temp file: %w", closeErr)
	case n > limitBytes:
		u.remove()
		return nil, apperrors.AudioTooLarge(float64(n)/bytesPerMB, s.cfg.Limits.MaxUploadMB)
	case n == 0:
		u.remove()
		return nil, apperrors.Validation("No audio received. Upload a file or provide a URL.").WithField("file")
	}
	return u, nil
}

// formInt parses an optional integer form field
func formInt(c *gin.Context, name string) (int, bool, error) {
	raw := strings.TrimSpace(c.PostForm(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, apperrors.Validation("%s must be an integer, got %q", name, raw).WithField(name)
	}
	return v, true, nil
}

// formFloat parses an optional float form field
func formFloat(c *gin.Context, name string) (float64, bool, error) {
	raw := strings.TrimSpace(c.PostForm(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, apperrors.Validation("%s must be a number, got %q", name, raw).WithField(name)
	}
	return v, true, nil
}

// formBool treats "1", "true", "on" and "yes" as set
func formBool(c *gin.Context, name string) bool {
	switch strings.ToLower(strings.TrimSpace(c.PostForm(name))) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// Package validate holds the input checks applied at the serving boundary:
// upload extensions and sizes, duration limits, URL schemes and the clamping
// of user-supplied parameters.
package validate

import (
	"cmp"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/RyanBlaney/sonido-mach/apperrors"
)

const bytesPerMB = 1024 * 1024

// Request parameter bounds
const (
	MinStride     = 1
	MaxStride     = 50
	MinNeighbors  = 2
	MaxNeighbors  = 200
	MinMinDist    = 0.0
	MaxMinDist    = 1.0
	DefaultStride = 2
)

var supportedExtensions = []string{".aac", ".flac", ".m4a", ".mp3", ".ogg", ".wav", ".wma"}

// SupportedExtensions returns the accepted audio file extensions, sorted
func SupportedExtensions() []string {
	return slices.Clone(supportedExtensions)
}

// AudioExtension reports whether filename has a supported audio extension
func AudioExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext != "" && slices.Contains(supportedExtensions, ext)
}

// FileSize checks sizeBytes against limitMB. A file exactly at the limit is accepted.
func FileSize(sizeBytes int64, limitMB float64) error {
	if float64(sizeBytes) <= limitMB*bytesPerMB {
		return nil
	}
	return apperrors.AudioTooLarge(float64(sizeBytes)/bytesPerMB, limitMB)
}

// Duration checks a decoded duration against limitS. limitS <= 0 disables the check.
func Duration(durationS, limitS float64) error {
	if limitS <= 0 || durationS <= limitS {
		return nil
	}
	return apperrors.AudioTooLong(durationS, limitS)
}

// Clamp bounds v to [lo, hi]
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return max(lo, min(hi, v))
}

// ClampInt bounds an integer to [lo, hi]
func ClampInt(v, lo, hi int) int {
	return Clamp(v, lo, hi)
}

// SanitizeURL trims raw and returns it if it is an absolute http or https URL
// with a host. Anything else yields "".
func SanitizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return raw
}

// VisualizeParams are the user-tunable knobs of a visualization request
type VisualizeParams struct {
	Stride     int
	NNeighbors int
	MinDist    float64
}

// Clamped returns p with every parameter forced into its accepted range
func (p VisualizeParams) Clamped() VisualizeParams {
	return VisualizeParams{
		Stride:     ClampInt(p.Stride, MinStride, MaxStride),
		NNeighbors: ClampInt(p.NNeighbors, MinNeighbors, MaxNeighbors),
		MinDist:    Clamp(p.MinDist, MinMinDist, MaxMinDist),
	}
}

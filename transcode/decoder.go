package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-mach/apperrors"
	"github.com/RyanBlaney/sonido-mach/logging"
)

// AudioData represents decoded mono audio data
type AudioData struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
	Source     string        `json:"source,omitempty"`
	Codec      string        `json:"codec,omitempty"`
	Native     bool          `json:"native"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate" yaml:"target_sample_rate"`
	MaxDuration      time.Duration `json:"max_duration" yaml:"max_duration"`
	ResampleQuality  string        `json:"resample_quality" yaml:"resample_quality"` // "fast", "medium", "high"
	FFmpegPath       string        `json:"ffmpeg_path" yaml:"ffmpeg_path"`
	FFprobePath      string        `json:"ffprobe_path" yaml:"ffprobe_path"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout"`
	// PreferNative decodes PCM WAV files in-process and only falls back to ffmpeg when that fails.
	PreferNative bool `json:"prefer_native" yaml:"prefer_native"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 22050,
		MaxDuration:      0, // No limit
		ResampleQuality:  "high",
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		Timeout:          2 * time.Minute,
		PreferNative:     true,
	}
}

// Decoder turns audio files into mono float64 PCM at a fixed sample rate.
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	if config.TargetSampleRate <= 0 {
		config.TargetSampleRate = DefaultDecoderConfig().TargetSampleRate
	}
	return &Decoder{config: config}
}

// Config returns a copy of the decoder configuration
func (d *Decoder) Config() DecoderConfig {
	return *d.config
}

// DecodeFile decodes an audio file into mono PCM at the target sample rate.
// Every failure is reported as a load error.
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"filename":  filename,
	})

	info, err := os.Stat(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.Load(fmt.Sprintf("audio file not found: %s", filename), err)
		}
		return nil, apperrors.Load(fmt.Sprintf("cannot access audio file: %s", filename), err)
	}
	if info.IsDir() {
		return nil, apperrors.Load(fmt.Sprintf("not a file: %s", filename), nil)
	}
	if info.Size() == 0 {
		return nil, apperrors.Load(fmt.Sprintf("audio file is empty: %s", filename), nil)
	}

	if d.config.PreferNative && strings.EqualFold(filepath.Ext(filename), ".wav") {
		data, err := d.decodeWAVFile(filename)
		if err == nil {
			logger.Debug("Decoded WAV natively", logging.Fields{
				"samples":     len(data.PCM),
				"sample_rate": data.SampleRate,
			})
			return data, nil
		}
		logger.Debug("Native WAV decode failed, falling back to ffmpeg", logging.Fields{
			"error": err.Error(),
		})
	}

	logger.Debug("Starting ffmpeg decode")

	args := append([]string{"-i", filename}, d.buildFFmpegArgs()...)
	output, err := d.runFFmpeg(ctx, args, nil)
	if err != nil {
		return nil, apperrors.Load(fmt.Sprintf("could not decode %s", filepath.Base(filename)), err)
	}

	data, err := d.processFFmpegOutput(output, filename)
	if err != nil {
		return nil, apperrors.Load(fmt.Sprintf("could not decode %s", filepath.Base(filename)), err)
	}
	return data, nil
}

// DecodeBytes decodes an in-memory audio payload.
func (d *Decoder) DecodeBytes(ctx context.Context, data []byte) (*AudioData, error) {
	if len(data) == 0 {
		return nil, apperrors.Load("audio payload is empty", nil)
	}

	if d.config.PreferNative && isWAV(data) {
		if decoded, err := d.decodeWAV(bytes.NewReader(data), ""); err == nil {
			return decoded, nil
		}
	}

	args := append([]string{"-i", "pipe:0"}, d.buildFFmpegArgs()...)
	output, err := d.runFFmpeg(ctx, args, bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Load("could not decode audio payload", err)
	}

	decoded, err := d.processFFmpegOutput(output, "")
	if err != nil {
		return nil, apperrors.Load("could not decode audio payload", err)
	}
	return decoded, nil
}

// DecodeReader buffers the reader and decodes its contents
func (d *Decoder) DecodeReader(ctx context.Context, r io.Reader) (*AudioData, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.Load("failed to read audio stream", err)
	}
	return d.DecodeBytes(ctx, data)
}

func (d *Decoder) runFFmpeg(ctx context.Context, args []string, stdin io.Reader) ([]byte, error) {
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	args = append(args, "pipe:1")
	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	logging.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, strings.TrimSpace(string(exitError.Stderr)))
		}
		return nil, fmt.Errorf("ffmpeg failed: %w", err)
	}
	return output, nil
}

// buildFFmpegArgs builds the ffmpeg output arguments
func (d *Decoder) buildFFmpegArgs() []string {
	args := []string{
		"-vn",
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
	}

	switch d.config.ResampleQuality {
	case "fast":
		args = append(args, "-af", "aresample=resampler=soxr:precision=16")
	case "medium":
		args = append(args, "-af", "aresample=resampler=soxr:precision=20")
	case "high":
		args = append(args, "-af", "aresample=resampler=soxr:precision=28")
	}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.2f", d.config.MaxDuration.Seconds()))
	}

	return append(args, "-v", "error")
}

// processFFmpegOutput processes the raw output from ffmpeg
func (d *Decoder) processFFmpegOutput(output []byte, source string) (*AudioData, error) {
	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded")
	}

	return &AudioData{
		PCM:        samples,
		SampleRate: d.config.TargetSampleRate,
		Channels:   1,
		Duration:   samplesDuration(len(samples), d.config.TargetSampleRate),
		Source:     source,
	}, nil
}

// CheckAvailability reports whether ffmpeg and ffprobe can be executed
func (d *Decoder) CheckAvailability(ctx context.Context) error {
	if err := exec.CommandContext(ctx, d.config.FFmpegPath, "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}
	if err := exec.CommandContext(ctx, d.config.FFprobePath, "-version").Run(); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", d.config.FFprobePath, err)
	}
	return nil
}

// SupportedExtensions lists the file extensions accepted for decoding
func SupportedExtensions() []string {
	return []string{".wav", ".mp3", ".flac", ".ogg", ".m4a", ".aac", ".wma"}
}

// bytesToFloat64 converts raw float64 little-endian bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	data = data[:len(data)-(len(data)%8)]
	if len(data) == 0 {
		return nil
	}

	samples := make([]float64, len(data)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}

func samplesDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(n) / float64(sampleRate) * float64(time.Second))
}

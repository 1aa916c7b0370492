package transcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-mach/apperrors"
)

// AudioInfo holds the properties of an audio file before decoding
type AudioInfo struct {
	Path       string  `json:"path"`
	DurationS  float64 `json:"duration_s"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec,omitempty"`
	Bitrate    int     `json:"bitrate,omitempty"`
	SizeMB     float64 `json:"size_mb"`
}

// Probe inspects an audio file without decoding it. PCM WAV headers are read
// in-process; everything else goes through ffprobe.
func (d *Decoder) Probe(ctx context.Context, filename string) (*AudioInfo, error) {
	stat, err := os.Stat(filename)
	if err != nil {
		return nil, apperrors.Load(fmt.Sprintf("audio file not found: %s", filename), err)
	}
	sizeMB := float64(stat.Size()) / (1024 * 1024)

	if info, err := probeWAV(filename); err == nil {
		info.SizeMB = sizeMB
		return info, nil
	}

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		filename,
	}
	output, err := exec.CommandContext(ctx, d.config.FFprobePath, args...).Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			err = fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, apperrors.Load("could not probe audio file", err)
	}

	info, err := parseFFprobeOutput(output)
	if err != nil {
		return nil, apperrors.Load("could not probe audio file", err)
	}
	info.Path = filename
	info.SizeMB = sizeMB
	return info, nil
}

func probeWAV(filename string) (*AudioInfo, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, err
	}
	bytesPerSecond := int64(dec.SampleRate) * int64(dec.NumChans) * int64(dec.BitDepth) / 8
	if bytesPerSecond <= 0 {
		return nil, fmt.Errorf("invalid wav format")
	}

	return &AudioInfo{
		Path:       filename,
		DurationS:  float64(dec.PCMLen()) / float64(bytesPerSecond),
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Codec:      "pcm",
	}, nil
}

// parseFFprobeOutput parses ffprobe JSON to extract audio properties
func parseFFprobeOutput(jsonData []byte) (*AudioInfo, error) {
	var probe struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Duration   string `json:"duration"`
			BitRate    string `json:"bit_rate"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}
	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	sampleRate, _ := strconv.Atoi(stream.SampleRate)
	duration, _ := strconv.ParseFloat(stream.Duration, 64)
	bitrate, _ := strconv.Atoi(stream.BitRate)

	return &AudioInfo{
		DurationS:  duration,
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Bitrate:    bitrate,
	}, nil
}

package transcode

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func isWAV(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE"))
}

func (d *Decoder) decodeWAVFile(filename string) (*AudioData, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return d.decodeWAV(f, filename)
}

// decodeWAV reads integer PCM from a WAV container, downmixes it to mono and
// resamples it to the target rate.
func (d *Decoder) decodeWAV(r io.ReadSeeker, source string) (*AudioData, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read wav samples: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("wav file has no samples")
	}

	mono := downmix(buf)
	if len(mono) == 0 {
		return nil, fmt.Errorf("wav file has no samples")
	}

	if buf.Format.SampleRate != d.config.TargetSampleRate {
		mono, err = resample(mono, buf.Format.SampleRate, d.config.TargetSampleRate, d.config.ResampleQuality)
		if err != nil {
			return nil, err
		}
	}

	if d.config.MaxDuration > 0 {
		limit := int(d.config.MaxDuration.Seconds() * float64(d.config.TargetSampleRate))
		if limit > 0 && len(mono) > limit {
			mono = mono[:limit]
		}
	}

	return &AudioData{
		PCM:        mono,
		SampleRate: d.config.TargetSampleRate,
		Channels:   1,
		Duration:   samplesDuration(len(mono), d.config.TargetSampleRate),
		Source:     source,
		Codec:      "pcm",
		Native:     true,
	}, nil
}

// downmix averages interleaved integer samples into mono floats in [-1, 1].
func downmix(buf *audio.IntBuffer) []float64 {
	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))
	if bitDepth == 8 {
		// 8-bit WAV is unsigned
		return downmixWith(buf.Data, channels, func(v int) float64 { return float64(v-128) / 128 })
	}

	return downmixWith(buf.Data, channels, func(v int) float64 { return float64(v) / scale })
}

func downmixWith(data []int, channels int, convert func(int) float64) []float64 {
	frames := len(data) / channels
	out := make([]float64, frames)
	for i := range frames {
		var sum float64
		for c := range channels {
			sum += convert(data[i*channels+c])
		}
		out[i] = sum / float64(channels)
	}
	return out
}

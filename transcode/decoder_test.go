package transcode

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-mach/apperrors"
)

func writeWAV(t *testing.T, path string, sampleRate, channels int, data []int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func sineInts(n, sampleRate int, freq float64) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = int(16000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func TestDecodeFileErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.wav")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "nope.wav")},
		{"empty", empty},
		{"directory", dir},
	}

	dec := NewDecoder(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dec.DecodeFile(context.Background(), tt.path)
			if !apperrors.IsLoad(err) {
				t.Fatalf("expected load error, got %v", err)
			}
		})
	}
}

func TestDecodeWAVNative(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	data := sineInts(22050, 22050, 440)
	writeWAV(t, path, 22050, 1, data)

	dec := NewDecoder(DefaultDecoderConfig())
	got, err := dec.DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if !got.Native {
		t.Error("expected native decode")
	}
	if got.SampleRate != 22050 || got.Channels != 1 {
		t.Errorf("unexpected format: %d Hz, %d ch", got.SampleRate, got.Channels)
	}
	if len(got.PCM) != len(data) {
		t.Fatalf("expected %d samples, got %d", len(data), len(got.PCM))
	}
	for _, i := range []int{1, 100, 5000} {
		want := float64(data[i]) / 32768
		if math.Abs(got.PCM[i]-want) > 1e-9 {
			t.Errorf("sample %d: expected %f, got %f", i, want, got.PCM[i])
		}
	}
	if math.Abs(got.Duration.Seconds()-1) > 1e-6 {
		t.Errorf("expected 1s duration, got %v", got.Duration)
	}
}

func TestDecodeWAVDownmix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	mono := sineInts(4410, 22050, 220)
	data := make([]int, 0, 2*len(mono))
	for _, v := range mono {
		data = append(data, v, -v)
	}
	writeWAV(t, path, 22050, 2, data)

	got, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if len(got.PCM) != len(mono) {
		t.Fatalf("expected %d frames, got %d", len(mono), len(got.PCM))
	}
	for i, v := range got.PCM {
		if v != 0 {
			t.Fatalf("frame %d: expected silence after downmix, got %f", i, v)
		}
	}
}

func TestDecodeWAVResample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hi.wav")
	writeWAV(t, path, 44100, 1, sineInts(44100, 44100, 440))

	got, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if got.SampleRate != 22050 {
		t.Fatalf("expected 22050 Hz, got %d", got.SampleRate)
	}
	if n := len(got.PCM); n < 19845 || n > 24255 {
		t.Errorf("expected about 22050 samples, got %d", n)
	}
}

func TestDecodeBytesWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, 22050, 1, sineInts(2205, 22050, 440))

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	got, err := NewDecoder(nil).DecodeBytes(context.Background(), payload)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if len(got.PCM) != 2205 {
		t.Errorf("expected 2205 samples, got %d", len(got.PCM))
	}

	if _, err := NewDecoder(nil).DecodeBytes(context.Background(), nil); !apperrors.IsLoad(err) {
		t.Errorf("expected load error for empty payload, got %v", err)
	}
}

func TestProbeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.wav")
	writeWAV(t, path, 16000, 2, make([]int, 2*8000))

	info, err := NewDecoder(nil).Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if info.SampleRate != 16000 || info.Channels != 2 {
		t.Errorf("unexpected format: %+v", info)
	}
	if math.Abs(info.DurationS-0.5) > 1e-3 {
		t.Errorf("expected 0.5s, got %f", info.DurationS)
	}
	if info.SizeMB <= 0 {
		t.Errorf("expected positive size, got %f", info.SizeMB)
	}
}

func TestParseFFprobeOutput(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
		rate    int
	}{
		{
			name: "audio stream",
			json: `{"streams":[{"codec_type":"audio","codec_name":"mp3","sample_rate":"44100","channels":2,"duration":"12.5","bit_rate":"128000"}]}`,
			rate: 44100,
		},
		{name: "no streams", json: `{"streams":[]}`, wantErr: true},
		{name: "video stream", json: `{"streams":[{"codec_type":"video","channels":1}]}`, wantErr: true},
		{name: "bad channels", json: `{"streams":[{"codec_type":"audio","channels":0}]}`, wantErr: true},
		{name: "garbage", json: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := parseFFprobeOutput([]byte(tt.json))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.SampleRate != tt.rate {
				t.Errorf("expected rate %d, got %d", tt.rate, info.SampleRate)
			}
			if info.DurationS != 12.5 {
				t.Errorf("expected duration 12.5, got %f", info.DurationS)
			}
		})
	}
}

func TestBytesToFloat64(t *testing.T) {
	raw := make([]byte, 8*3+5)
	for i, v := range []float64{0.5, -1, 0.25} {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}

	got := bytesToFloat64(raw)
	if len(got) != 3 || got[0] != 0.5 || got[1] != -1 || got[2] != 0.25 {
		t.Errorf("unexpected samples: %v", got)
	}
	if bytesToFloat64(raw[:7]) != nil {
		t.Error("expected nil for short input")
	}
}

func TestIsWAV(t *testing.T) {
	if !isWAV([]byte("RIFF\x00\x00\x00\x00WAVEfmt ")) {
		t.Error("expected RIFF/WAVE header to be detected")
	}
	if isWAV([]byte("ID3\x03")) {
		t.Error("expected mp3 header to be rejected")
	}
}

package export

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/RyanBlaney/sonido-mach/analysis"
	"github.com/RyanBlaney/sonido-mach/apperrors"
	"github.com/RyanBlaney/sonido-mach/features"
)

func frameSet() *features.FrameSet {
	return &features.FrameSet{
		Features: [][]float64{{-10, -20, -30}, {-11, -21, -31}, {-12, -22, -32}},
		Times:    []float64{0, 0.0232, 0.0464},
		Energy:   []float64{0.5, 0.25, 0.125},
		Flatness: []float64{0.1, 0.2, 0.3},
	}
}

func TestFeaturesToCSV(t *testing.T) {
	tests := []struct {
		name       string
		times      []float64
		columns    []Column
		wantHeader string
		wantLines  int
	}{
		{
			name:       "single column",
			times:      []float64{0, 0.5, 1},
			columns:    []Column{{Name: "energy", Values: []float64{0.1, 0.5, 0.3}}},
			wantHeader: "time_s,energy",
			wantLines:  4,
		},
		{
			name:  "multiple columns",
			times: []float64{0, 1},
			columns: []Column{
				{Name: "energy", Values: []float64{0.5, 0.8}},
				{Name: "zcr", Values: []float64{0.1, 0.2}},
			},
			wantHeader: "time_s,energy,zcr",
			wantLines:  3,
		},
		{
			name:       "no frames",
			times:      nil,
			columns:    []Column{{Name: "energy"}},
			wantHeader: "time_s,energy",
			wantLines:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := FeaturesToCSV(tt.times, tt.columns)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			lines := strings.Split(strings.TrimSpace(out), "\n")
			if lines[0] != tt.wantHeader {
				t.Errorf("expected header %q, got %q", tt.wantHeader, lines[0])
			}
			if len(lines) != tt.wantLines {
				t.Errorf("expected %d lines, got %d", tt.wantLines, len(lines))
			}
		})
	}
}

func TestFeaturesToCSVFormatting(t *testing.T) {
	out, err := FeaturesToCSV([]float64{0.5}, []Column{{Name: "energy", Values: []float64{0.25}}})
	if err != nil {
		t.Fatal(err)
	}
	if want := "time_s,energy\n0.5000,0.250000\n"; out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestFeaturesToCSVMismatch(t *testing.T) {
	_, err := FeaturesToCSV([]float64{0, 1}, []Column{{Name: "energy", Values: []float64{1}}})
	if !apperrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestWriteFramesCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFramesCSV(&buf, frameSet()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if want := "time_s,energy,flatness,mel_000,mel_001,mel_002"; lines[0] != want {
		t.Errorf("expected header %q, got %q", want, lines[0])
	}
	if len(lines) != 4 {
		t.Errorf("expected 4 lines, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[2], "-11.000000,-21.000000,-31.000000") {
		t.Errorf("unexpected mel values in row: %s", lines[2])
	}
}

func TestToJSON(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		original := map[string]any{"name": "test", "score": 0.95, "tags": []any{"a", "b"}}
		data, err := ToJSON(original)
		if err != nil {
			t.Fatal(err)
		}
		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, original) {
			t.Errorf("expected %v, got %v", original, got)
		}
	})

	t.Run("arrays become lists", func(t *testing.T) {
		data, err := ToJSON(map[string]any{"values": []float64{1, 2, 3}})
		if err != nil {
			t.Fatal(err)
		}
		var got struct{ Values []float64 }
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got.Values, []float64{1, 2, 3}) {
			t.Errorf("unexpected values %v", got.Values)
		}
	})

	t.Run("indented", func(t *testing.T) {
		data, err := ToJSON(map[string]int{"a": 1})
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "{\n  \"a\": 1\n}" {
			t.Errorf("unexpected encoding %q", data)
		}
	})

	t.Run("non-finite floats become null", func(t *testing.T) {
		in := struct {
			Mean   float64   `json:"mean"`
			Values []float64 `json:"values"`
			Skip   string    `json:"skip,omitempty"`
			Label  string
		}{Mean: math.NaN(), Values: []float64{1, math.Inf(1)}, Label: "x"}

		data, err := ToJSON(in)
		if err != nil {
			t.Fatal(err)
		}
		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatal(err)
		}
		if got["mean"] != nil {
			t.Errorf("expected null mean, got %v", got["mean"])
		}
		if vals := got["values"].([]any); vals[0] != 1.0 || vals[1] != nil {
			t.Errorf("unexpected values %v", vals)
		}
		if _, ok := got["skip"]; ok {
			t.Error("omitempty field should be dropped")
		}
		if got["Label"] != "x" {
			t.Errorf("expected untagged field under its Go name, got %v", got)
		}
		if strings.Index(string(data), "mean") > strings.Index(string(data), "values") {
			t.Error("expected struct field order to be kept")
		}
	})
}

func TestSaveJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "summary.json")
	summary := analysis.Summary{DurationS: 1.5, SampleRate: 22050, TempoBPM: 120, Tags: []string{"bright"}}
	if err := SaveJSON(summary, path); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got analysis.Summary
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, summary) {
		t.Errorf("expected %+v, got %+v", summary, got)
	}
}

func TestMsgpackRoundtrip(t *testing.T) {
	summary := analysis.Summary{DurationS: 2.25, SampleRate: 16000, OnsetCount: 4, RMSMean: 0.3, Tags: []string{"noisy", "fast-tempo"}}

	var buf bytes.Buffer
	if err := WriteMsgpack(&buf, summary); err != nil {
		t.Fatal(err)
	}

	var generic map[string]any
	if err := ReadMsgpack(bytes.NewReader(buf.Bytes()), &generic); err != nil {
		t.Fatal(err)
	}
	if _, ok := generic["duration_s"]; !ok {
		t.Errorf("expected json field names in msgpack output, got keys %v", generic)
	}

	var got analysis.Summary
	if err := ReadMsgpack(bytes.NewReader(buf.Bytes()), &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, summary) {
		t.Errorf("expected %+v, got %+v", summary, got)
	}

	if err := ReadMsgpack(bytes.NewReader([]byte{0xc1}), &got); err == nil {
		t.Error("expected error for invalid msgpack")
	}
}

func TestParquetRoundtrip(t *testing.T) {
	fs := frameSet()

	var buf bytes.Buffer
	if err := WriteFramesParquet(&buf, fs); err != nil {
		t.Fatalf("WriteFramesParquet: %v", err)
	}

	rows, err := ReadFramesParquet(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadFramesParquet: %v", err)
	}
	if len(rows) != fs.Len() {
		t.Fatalf("expected %d rows, got %d", fs.Len(), len(rows))
	}
	for i, r := range rows {
		if r.TimeS != fs.Times[i] || r.Energy != fs.Energy[i] {
			t.Errorf("row %d: unexpected time/energy %v/%v", i, r.TimeS, r.Energy)
		}
		if r.Flatness == nil || *r.Flatness != fs.Flatness[i] {
			t.Errorf("row %d: unexpected flatness %v", i, r.Flatness)
		}
		if r.Centroid != nil {
			t.Errorf("row %d: expected no centroid, got %v", i, *r.Centroid)
		}
		if !reflect.DeepEqual(r.Mel, fs.Features[i]) {
			t.Errorf("row %d: expected mel %v, got %v", i, fs.Features[i], r.Mel)
		}
	}
}

func TestWriteFramesParquetMisaligned(t *testing.T) {
	fs := frameSet()
	fs.Energy = fs.Energy[:2]
	if err := WriteFramesParquet(&bytes.Buffer{}, fs); !apperrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

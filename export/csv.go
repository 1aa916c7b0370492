package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-mach/apperrors"
	"github.com/RyanBlaney/sonido-mach/features"
)

// Column is one named per-frame value series
type Column struct {
	Name   string
	Values []float64
}

// FeaturesToCSV renders times and columns as CSV text with a time_s column first
func FeaturesToCSV(times []float64, columns []Column) (string, error) {
	var sb strings.Builder
	if err := WriteFeaturesCSV(&sb, times, columns); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteFeaturesCSV writes one header row and one row per time. Every column
// must have exactly one value per time.
func WriteFeaturesCSV(w io.Writer, times []float64, columns []Column) error {
	header := make([]string, 0, len(columns)+1)
	header = append(header, "time_s")
	for _, c := range columns {
		if len(c.Values) != len(times) {
			return apperrors.Validation("column %q has %d values but there are %d times", c.Name, len(c.Values), len(times)).WithField(c.Name)
		}
		header = append(header, c.Name)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(header))
	for i, t := range times {
		record[0] = strconv.FormatFloat(t, 'f', 4, 64)
		for j, c := range columns {
			record[j+1] = strconv.FormatFloat(c.Values[i], 'f', 6, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FrameColumns lists the per-frame arrays of fs as CSV columns: energy, the
// optional flatness and centroid, then one column per mel band.
func FrameColumns(fs *features.FrameSet) []Column {
	cols := []Column{{Name: "energy", Values: fs.Energy}}
	if fs.Flatness != nil {
		cols = append(cols, Column{Name: "flatness", Values: fs.Flatness})
	}
	if fs.Centroid != nil {
		cols = append(cols, Column{Name: "centroid", Values: fs.Centroid})
	}

	for b := range fs.Dims() {
		band := make([]float64, fs.Len())
		for t, row := range fs.Features {
			band[t] = row[b]
		}
		cols = append(cols, Column{Name: fmt.Sprintf("mel_%03d", b), Values: band})
	}
	return cols
}

// WriteFramesCSV writes every per-frame array of fs as CSV
func WriteFramesCSV(w io.Writer, fs *features.FrameSet) error {
	if err := fs.CheckAligned(); err != nil {
		return err
	}
	return WriteFeaturesCSV(w, fs.Times, FrameColumns(fs))
}

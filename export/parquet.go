package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/RyanBlaney/sonido-mach/features"
)

// FrameRow is one analysis frame in the columnar export
type FrameRow struct {
	TimeS    float64   `parquet:"time_s"`
	Energy   float64   `parquet:"energy"`
	Flatness *float64  `parquet:"flatness,optional"`
	Centroid *float64  `parquet:"centroid,optional"`
	Mel      []float64 `parquet:"mel,list"`
}

// FrameRows flattens fs into one row per frame
func FrameRows(fs *features.FrameSet) ([]FrameRow, error) {
	if err := fs.CheckAligned(); err != nil {
		return nil, err
	}

	rows := make([]FrameRow, fs.Len())
	for i := range rows {
		rows[i] = FrameRow{
			TimeS:  fs.Times[i],
			Energy: fs.Energy[i],
			Mel:    fs.Features[i],
		}
		if fs.Flatness != nil {
			rows[i].Flatness = &fs.Flatness[i]
		}
		if fs.Centroid != nil {
			rows[i].Centroid = &fs.Centroid[i]
		}
	}
	return rows, nil
}

// ParquetCompression maps a codec name to a writer option. Unknown names use snappy.
func ParquetCompression(name string) parquet.WriterOption {
	switch strings.ToLower(name) {
	case "zstd":
		return parquet.Compression(&parquet.Zstd)
	case "gzip", "gz":
		return parquet.Compression(&parquet.Gzip)
	case "none", "uncompressed":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Snappy)
	}
}

// WriteFramesParquet writes every frame of fs as a snappy-compressed parquet file
func WriteFramesParquet(w io.Writer, fs *features.FrameSet) error {
	return WriteFramesParquetWith(w, fs, "snappy")
}

// WriteFramesParquetWith writes fs using the named compression codec
func WriteFramesParquetWith(w io.Writer, fs *features.FrameSet, compression string) error {
	rows, err := FrameRows(fs)
	if err != nil {
		return err
	}

	pw := parquet.NewGenericWriter[FrameRow](w, ParquetCompression(compression))
	if _, err := pw.Write(rows); err != nil {
		_ = pw.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ReadFramesParquet reads every row of a file written by WriteFramesParquet
func ReadFramesParquet(ra io.ReaderAt) ([]FrameRow, error) {
	gr := parquet.NewGenericReader[FrameRow](ra)
	defer gr.Close()

	out := make([]FrameRow, 0, 1024)
	batch := make([]FrameRow, 1024)
	for {
		n, err := gr.Read(batch)
		if n > 0 {
			out = append(out, batch[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return out, nil
}

package pipeline

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/RyanBlaney/sonido-mach/apperrors"
	"github.com/RyanBlaney/sonido-mach/export"
	"github.com/RyanBlaney/sonido-mach/logging"
	"github.com/RyanBlaney/sonido-mach/transcode"
	"github.com/RyanBlaney/sonido-mach/validate"
)

// BatchOptions configures a directory analysis run
type BatchOptions struct {
	InputDir   string
	OutputDir  string
	Extensions []string // nil accepts every supported extension
	SampleRate int
	Workers    int // 0 uses all CPUs
	Decoder    *transcode.Decoder
}

// BatchRecord is the per-file JSON document written by Batch
type BatchRecord struct {
	File                 string   `json:"file"`
	DurationS            float64  `json:"duration_s"`
	TempoBPM             float64  `json:"tempo_bpm"`
	OnsetCount           int      `json:"onset_count"`
	RMSMean              float64  `json:"rms_mean"`
	SpectralCentroidMean float64  `json:"spectral_centroid_mean"`
	Tags                 []string `json:"tags"`
}

// BatchItem reports the outcome for one input file
type BatchItem struct {
	Path   string
	Output string
	Err    error
}

// BatchReport tallies a batch run. Items follow the sorted input order.
type BatchReport struct {
	Items     []BatchItem
	Succeeded int
	Failed    int
}

// FindAudioFiles recursively lists files under dir whose extension is in
// exts (case-insensitive), sorted by path
func FindAudioFiles(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = validate.SupportedExtensions()
	}
	wanted := make([]string, len(exts))
	for i, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		wanted[i] = e
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && slices.Contains(wanted, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Load("failed to scan input directory", err)
	}
	slices.Sort(files)
	return files, nil
}

// Batch analyzes every audio file under opts.InputDir and writes one JSON
// record per file, mirroring the input tree below opts.OutputDir. A failing
// file is recorded and the run continues. progress, when non-nil, is called
// once per file from the calling goroutine.
func Batch(ctx context.Context, opts BatchOptions, progress func(done, total int, item BatchItem)) (*BatchReport, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "pipeline",
		"function":  "Batch",
		"input_dir": opts.InputDir,
	})

	files, err := FindAudioFiles(opts.InputDir, opts.Extensions)
	if err != nil {
		return nil, err
	}

	dec := opts.Decoder
	if dec == nil {
		cfg := transcode.DefaultDecoderConfig()
		cfg.TargetSampleRate = opts.SampleRate
		dec = transcode.NewDecoder(cfg)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(1, min(workers, len(files)))

	report := &BatchReport{Items: make([]BatchItem, len(files))}
	jobs := make(chan int)
	done := make(chan int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				report.Items[i] = processFile(ctx, dec, files[i], opts)
				done <- i
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range files {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for i := range done {
		completed++
		item := report.Items[i]
		if item.Err != nil {
			report.Failed++
			logger.Warn("File failed", logging.Fields{"path": item.Path, "error": item.Err.Error()})
		} else {
			report.Succeeded++
		}
		if progress != nil {
			progress(completed, len(files), item)
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	logger.Info("Batch finished", logging.Fields{
		"files":     len(files),
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
	})
	return report, nil
}

func processFile(ctx context.Context, dec *transcode.Decoder, path string, opts BatchOptions) BatchItem {
	item := BatchItem{Path: path}

	rel, err := filepath.Rel(opts.InputDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	item.Output = filepath.Join(opts.OutputDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".json")

	report, err := AnalyzeWith(ctx, dec, path)
	if err != nil {
		item.Err = err
		return item
	}

	s := report.Summary
	item.Err = export.SaveJSON(BatchRecord{
		File:                 path,
		DurationS:            s.DurationS,
		TempoBPM:             s.TempoBPM,
		OnsetCount:           s.OnsetCount,
		RMSMean:              s.RMSMean,
		SpectralCentroidMean: s.SpectralCentroidMean,
		Tags:                 s.Tags,
	}, item.Output)
	return item
}

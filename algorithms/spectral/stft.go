package spectral

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-mach/algorithms/common"
	"github.com/RyanBlaney/sonido-mach/algorithms/windowing"
)

// STFT computes centered short-time power spectra
type STFT struct {
	fft *FFT
}

// STFTResult holds a time-major power spectrogram
type STFTResult struct {
	Power          [][]float64 `json:"power"`           // Time x Frequency power matrix
	TimeFrames     int         `json:"time_frames"`     // Number of time frames
	FreqBins       int         `json:"freq_bins"`       // Number of frequency bins
	SampleRate     int         `json:"sample_rate"`     // Sample rate
	WindowSize     int         `json:"window_size"`     // FFT window size
	HopSize        int         `json:"hop_size"`        // Hop size between frames
	FreqResolution float64     `json:"freq_resolution"` // Hz per bin
	TimeResolution float64     `json:"time_resolution"` // Seconds per frame
}

// Window interface for windowing functions
type Window interface {
	ApplyInPlace(signal []float64) error
}

// NewSTFT creates a new STFT calculator
func NewSTFT() *STFT {
	return &STFT{
		fft: NewFFT(),
	}
}

// Compute runs a centered STFT with a periodic Hann window and zero padding.
// Frame t is centered on sample t*hopSize, so a signal of n samples yields
// 1 + n/hopSize frames.
func (s *STFT) Compute(signal []float64, windowSize, hopSize, sampleRate int) (*STFTResult, error) {
	return s.ComputeWithWindow(signal, windowSize, hopSize, sampleRate, windowing.NewHann(windowSize, false))
}

// ComputeWithWindow computes the STFT with parallel frame processing and a custom window
func (s *STFT) ComputeWithWindow(signal []float64, windowSize, hopSize, sampleRate int, window Window) (*STFTResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive, got %d", hopSize)
	}

	frames := common.Frames(signal, windowSize, hopSize, common.PadConstant)
	numFrames := len(frames)
	if numFrames == 0 {
		return nil, fmt.Errorf("signal too short for window size %d and hop size %d", windowSize, hopSize)
	}

	freqBins := windowSize/2 + 1
	power := make([][]float64, numFrames)

	numWorkers := getOptimalWorkerCount(numFrames)
	jobs := make(chan int, numFrames)
	errs := make(chan error, numWorkers)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// one frame buffer per worker
			frameBuffer := make([]float64, windowSize)
			for t := range jobs {
				copy(frameBuffer, frames[t])
				if window != nil {
					if err := window.ApplyInPlace(frameBuffer); err != nil {
						errs <- fmt.Errorf("frame %d: %w", t, err)
						return
					}
				}
				power[t] = s.fft.Power(frameBuffer)
			}
		}()
	}

	for t := range numFrames {
		jobs <- t
	}
	close(jobs)
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return nil, err
	}

	return &STFTResult{
		Power:          power,
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     sampleRate,
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(sampleRate) / float64(windowSize),
		TimeResolution: float64(hopSize) / float64(sampleRate),
	}, nil
}

// Magnitude returns sqrt(power) for every bin
func (r *STFTResult) Magnitude() [][]float64 {
	mag := make([][]float64, len(r.Power))
	for t, row := range r.Power {
		mag[t] = make([]float64, len(row))
		for f, p := range row {
			mag[t][f] = math.Sqrt(p)
		}
	}
	return mag
}

// Frequencies returns the center frequency of every bin
func (r *STFTResult) Frequencies() []float64 {
	return FrequencyBins(r.SampleRate, r.WindowSize)
}

// getOptimalWorkerCount determines the number of workers based on workload
func getOptimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// small workloads don't benefit from fan-out
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}
	if numFrames < 1000 {
		return max(1, min(numCPU, 8))
	}
	return max(1, numCPU)
}

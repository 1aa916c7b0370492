package temporal

import (
	"math"
)

// TempoEstimation picks the dominant beat period of an onset envelope from
// its autocorrelation, weighted by a log-normal prior around StartBPM
type TempoEstimation struct {
	sampleRate int
	hopSize    int
	startBPM   float64
	stdBPM     float64 // prior width in octaves
	maxBPM     float64
	acSize     float64 // autocorrelation horizon in seconds
}

// NewTempoEstimation creates a tempo estimator with a 120 BPM prior
func NewTempoEstimation(sampleRate, hopSize int) *TempoEstimation {
	return &TempoEstimation{
		sampleRate: sampleRate,
		hopSize:    hopSize,
		startBPM:   120.0,
		stdBPM:     1.0,
		maxBPM:     320.0,
		acSize:     8.0,
	}
}

// LagToBPM converts an autocorrelation lag in frames to beats per minute
func (te *TempoEstimation) LagToBPM(lag int) float64 {
	return 60.0 * float64(te.sampleRate) / (float64(te.hopSize) * float64(lag))
}

// Estimate returns the tempo in BPM. It is always positive: when the
// envelope carries no periodicity the prior alone decides.
func (te *TempoEstimation) Estimate(envelope []float64) float64 {
	maxLag := max(2, int(math.Round(te.acSize*float64(te.sampleRate)/float64(te.hopSize))))
	autocorr := te.calculateAutocorrelation(envelope, maxLag)

	bestLag := 1
	bestScore := math.Inf(-1)
	for lag := 1; lag < maxLag; lag++ {
		bpm := te.LagToBPM(lag)
		if bpm > te.maxBPM {
			continue
		}
		z := (math.Log2(bpm) - math.Log2(te.startBPM)) / te.stdBPM
		score := math.Log1p(1e6*autocorr[lag]) - 0.5*z*z
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}
	return te.LagToBPM(bestLag)
}

// calculateAutocorrelation returns the autocorrelation of a mean-removed
// envelope normalized so lag 0 is 1. Lags beyond the envelope are 0.
func (te *TempoEstimation) calculateAutocorrelation(envelope []float64, maxLag int) []float64 {
	autocorr := make([]float64, maxLag)
	n := len(envelope)
	if n == 0 {
		return autocorr
	}

	mean := 0.0
	for _, v := range envelope {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range envelope {
		centered[i] = v - mean
	}

	for lag := range min(maxLag, n) {
		sum := 0.0
		for i := 0; i+lag < n; i++ {
			sum += centered[i] * centered[i+lag]
		}
		autocorr[lag] = sum
	}

	if autocorr[0] <= 0 {
		return make([]float64, maxLag)
	}
	norm := autocorr[0]
	for lag := range autocorr {
		autocorr[lag] = math.Max(0, autocorr[lag]/norm)
	}
	return autocorr
}

package temporal

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-mach/algorithms/spectral"
)

// OnsetParams configures onset-strength computation and peak picking.
// Durations are in seconds and converted to frames at the configured hop.
type OnsetParams struct {
	SampleRate int     `json:"sample_rate"`
	FFTSize    int     `json:"fft_size"`
	HopSize    int     `json:"hop_size"`
	NumMels    int     `json:"num_mels"`
	PreMax     float64 `json:"pre_max"`
	PostMax    float64 `json:"post_max"`
	PreAvg     float64 `json:"pre_avg"`
	PostAvg    float64 `json:"post_avg"`
	Wait       float64 `json:"wait"`
	Delta      float64 `json:"delta"`
}

// DefaultOnsetParams returns the standard peak-picking windows for sampleRate
func DefaultOnsetParams(sampleRate int) OnsetParams {
	return OnsetParams{
		SampleRate: sampleRate,
		FFTSize:    2048,
		HopSize:    512,
		NumMels:    128,
		PreMax:     0.03,
		PostMax:    0.0,
		PreAvg:     0.10,
		PostAvg:    0.10,
		Wait:       0.03,
		Delta:      0.07,
	}
}

// OnsetDetection computes a spectral-flux onset envelope on a log-mel
// spectrogram and picks onsets from it
type OnsetDetection struct {
	params OnsetParams
	stft   *spectral.STFT
	mel    *spectral.MelScale
}

// NewOnsetDetection creates a new onset detector
func NewOnsetDetection(params OnsetParams) *OnsetDetection {
	return &OnsetDetection{
		params: params,
		stft:   spectral.NewSTFT(),
		mel:    spectral.NewMelScale(),
	}
}

// Params returns the detector configuration
func (od *OnsetDetection) Params() OnsetParams {
	return od.params
}

// Strength returns one onset-strength value per STFT frame: the mean over
// mel bands of the positive first difference of the dB spectrogram.
func (od *OnsetDetection) Strength(signal []float64) ([]float64, error) {
	p := od.params
	res, err := od.stft.Compute(signal, p.FFTSize, p.HopSize, p.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("onset strength: %w", err)
	}

	fb := od.mel.CreateMelFilterBank(p.NumMels, p.FFTSize, p.SampleRate, 0, float64(p.SampleRate)/2)
	logMel := spectral.PowerToDB(od.mel.ApplyFrames(res.Power, fb), spectral.AbsoluteDecibelParams())

	numFrames := len(logMel)
	flux := make([]float64, 0, numFrames)
	for t := 1; t < numFrames; t++ {
		sum := 0.0
		for b := range logMel[t] {
			sum += math.Max(0, logMel[t][b]-logMel[t-1][b])
		}
		flux = append(flux, sum/float64(len(logMel[t])))
	}

	// shift so each value lines up with the frame whose window it describes
	pad := 1 + p.FFTSize/(2*p.HopSize)
	envelope := make([]float64, numFrames)
	for i, v := range flux {
		if i+pad >= numFrames {
			break
		}
		envelope[i+pad] = v
	}
	return envelope, nil
}

// Detect returns onset frame indices and the onset envelope they were picked from
func (od *OnsetDetection) Detect(signal []float64) ([]int, []float64, error) {
	envelope, err := od.Strength(signal)
	if err != nil {
		return nil, nil, err
	}
	return od.PeakPick(envelope), envelope, nil
}

// PeakPick selects onsets from an envelope. The envelope is rescaled to
// [0, 1] first; a flat envelope has no onsets. Frame n is an onset when it
// is the maximum of [n-preMax, n+postMax), exceeds the mean of
// [n-preAvg, n+postAvg) by delta, and is more than wait frames after the
// previous onset.
func (od *OnsetDetection) PeakPick(envelope []float64) []int {
	if len(envelope) == 0 {
		return []int{}
	}

	lo, hi := envelope[0], envelope[0]
	for _, v := range envelope {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo <= 0 {
		return []int{}
	}
	norm := make([]float64, len(envelope))
	for i, v := range envelope {
		norm[i] = (v - lo) / (hi - lo)
	}

	p := od.params
	framesPerSecond := float64(p.SampleRate) / float64(p.HopSize)
	preMax := int(p.PreMax * framesPerSecond)
	postMax := int(p.PostMax*framesPerSecond) + 1
	preAvg := int(p.PreAvg * framesPerSecond)
	postAvg := int(p.PostAvg*framesPerSecond) + 1
	wait := int(p.Wait * framesPerSecond)

	n := len(norm)
	peaks := []int{}
	last := -wait - 1
	for i := range n {
		maxStart, maxEnd := max(0, i-preMax), min(n, i+postMax)
		isMax := true
		for j := maxStart; j < maxEnd; j++ {
			if norm[j] > norm[i] {
				isMax = false
				break
			}
		}
		if !isMax {
			continue
		}

		avgStart, avgEnd := max(0, i-preAvg), min(n, i+postAvg)
		sum := 0.0
		for j := avgStart; j < avgEnd; j++ {
			sum += norm[j]
		}
		if norm[i] < sum/float64(avgEnd-avgStart)+p.Delta {
			continue
		}

		if i-last > wait {
			peaks = append(peaks, i)
			last = i
		}
	}
	return peaks
}

// FramesToTimes converts frame indices to seconds
func FramesToTimes(frames []int, hopSize, sampleRate int) []float64 {
	times := make([]float64, len(frames))
	for i, f := range frames {
		times[i] = float64(f*hopSize) / float64(sampleRate)
	}
	return times
}

package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-mach/algorithms/common"
)

// BeatTracker places beats on an onset envelope by dynamic programming:
// each beat maximizes onset strength plus the score of the best previous
// beat roughly one period earlier, penalized by deviation from the period.
type BeatTracker struct {
	sampleRate int
	hopSize    int
	tightness  float64
}

// NewBeatTracker creates a beat tracker with the conventional tightness of 100
func NewBeatTracker(sampleRate, hopSize int) *BeatTracker {
	return &BeatTracker{
		sampleRate: sampleRate,
		hopSize:    hopSize,
		tightness:  100.0,
	}
}

// Track returns beat frame indices in increasing order
func (bt *BeatTracker) Track(envelope []float64, bpm float64) []int {
	if len(envelope) == 0 || bpm <= 0 || common.MaxAbs(envelope) == 0 {
		return []int{}
	}

	period := math.Round(60.0 * float64(bt.sampleRate) / float64(bt.hopSize) / bpm)
	if period < 1 {
		period = 1
	}

	local := bt.localScore(envelope, period)
	backlink, cumscore := bt.dynamicProgram(local, period)

	tail := bt.lastBeat(cumscore)
	beats := []int{tail}
	for backlink[beats[len(beats)-1]] >= 0 {
		beats = append(beats, backlink[beats[len(beats)-1]])
	}
	for i, j := 0, len(beats)-1; i < j; i, j = i+1, j-1 {
		beats[i], beats[j] = beats[j], beats[i]
	}

	return bt.trimBeats(local, beats)
}

// localScore smooths the std-normalized envelope with a Gaussian matched to the period
func (bt *BeatTracker) localScore(envelope []float64, period float64) []float64 {
	std := common.StandardDeviation(envelope)
	if std == 0 {
		std = 1
	}

	p := int(period)
	kernel := make([]float64, 2*p+1)
	for i := range kernel {
		x := float64(i-p) * 32.0 / period
		kernel[i] = math.Exp(-0.5 * x * x)
	}

	n := len(envelope)
	local := make([]float64, n)
	for i := range n {
		sum := 0.0
		for k, w := range kernel {
			j := i + k - p
			if j >= 0 && j < n {
				sum += w * envelope[j] / std
			}
		}
		local[i] = sum
	}
	return local
}

func (bt *BeatTracker) dynamicProgram(local []float64, period float64) ([]int, []float64) {
	n := len(local)
	backlink := make([]int, n)
	cumscore := make([]float64, n)

	lo := -int(2 * period)
	hi := -int(math.Round(period / 2))
	offsets := make([]int, 0, hi-lo+1)
	weights := make([]float64, 0, hi-lo+1)
	for w := lo; w <= hi; w++ {
		offsets = append(offsets, w)
		l := math.Log(-float64(w) / period)
		weights = append(weights, -bt.tightness*l*l)
	}

	threshold := 0.01 * common.Max(local)
	firstBeat := true
	for i, score := range local {
		best := math.Inf(-1)
		bestIdx := -1
		for k, w := range offsets {
			j := i + w
			candidate := weights[k]
			if j >= 0 {
				candidate += cumscore[j]
			}
			if candidate > best {
				best = candidate
				bestIdx = j
			}
		}

		cumscore[i] = score + best
		if firstBeat && score < threshold {
			backlink[i] = -1
		} else {
			backlink[i] = bestIdx
			firstBeat = false
		}
	}
	return backlink, cumscore
}

// lastBeat picks the final local maximum of cumscore that reaches half the
// median local-maximum score
func (bt *BeatTracker) lastBeat(cumscore []float64) int {
	n := len(cumscore)
	var peaks []int
	for i := range n {
		left := i == 0 || cumscore[i] > cumscore[i-1]
		right := i == n-1 || cumscore[i] >= cumscore[i+1]
		if left && right {
			peaks = append(peaks, i)
		}
	}
	if len(peaks) == 0 {
		return n - 1
	}

	values := make([]float64, len(peaks))
	for i, p := range peaks {
		values[i] = cumscore[p]
	}
	threshold := 0.5 * common.Median(values)

	last := peaks[len(peaks)-1]
	for i := len(peaks) - 1; i >= 0; i-- {
		if cumscore[peaks[i]] >= threshold {
			last = peaks[i]
			break
		}
	}
	return last
}

// trimBeats drops weak leading and trailing beats
func (bt *BeatTracker) trimBeats(local []float64, beats []int) []int {
	if len(beats) == 0 {
		return beats
	}

	hann := []float64{0.0, 0.5, 1.0, 0.5, 0.0}
	smooth := make([]float64, len(beats))
	for i := range beats {
		for k, w := range hann {
			j := i + k - 2
			if j >= 0 && j < len(beats) {
				smooth[i] += w * local[beats[j]]
			}
		}
	}

	sumSq := 0.0
	for _, v := range smooth {
		sumSq += v * v
	}
	threshold := 0.5 * math.Sqrt(sumSq/float64(len(smooth)))

	start, end := 0, len(beats)
	for start < end && local[beats[start]] <= threshold {
		start++
	}
	for end > start && local[beats[end-1]] <= threshold {
		end--
	}
	return beats[start:end]
}

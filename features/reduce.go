package features

import (
	"github.com/RyanBlaney/sonido-mach/apperrors"
)

// Stride keeps every k-th element starting at index 0, so the result has
// ceil(len(s)/k) elements and out[i] == s[i*k]. k <= 1 returns s itself.
func Stride[T any](s []T, k int) []T {
	if k <= 1 {
		return s
	}
	out := make([]T, 0, (len(s)+k-1)/k)
	for i := 0; i < len(s); i += k {
		out = append(out, s[i])
	}
	return out
}

// ReduceFrames applies the same stride to a feature matrix and any number of
// aligned per-frame arrays. Every array must have one value per row.
func ReduceFrames(features [][]float64, stride int, aligned ...[]float64) ([][]float64, [][]float64, error) {
	if stride < 1 {
		return nil, nil, apperrors.Validation("stride must be at least 1, got %d", stride).WithField("stride")
	}
	for i, a := range aligned {
		if len(a) != len(features) {
			return nil, nil, apperrors.Validation("aligned array %d has %d values but the feature matrix has %d rows", i, len(a), len(features))
		}
	}

	reduced := make([][]float64, len(aligned))
	for i, a := range aligned {
		reduced[i] = Stride(a, stride)
	}
	return Stride(features, stride), reduced, nil
}

// Reduce returns a FrameSet holding every stride-th frame of fs. A stride of
// 1 returns fs unchanged. Optional arrays stay nil when they were nil.
func (fs *FrameSet) Reduce(stride int) (*FrameSet, error) {
	if stride < 1 {
		return nil, apperrors.Validation("stride must be at least 1, got %d", stride).WithField("stride")
	}
	if err := fs.CheckAligned(); err != nil {
		return nil, err
	}
	if stride == 1 {
		return fs, nil
	}

	out := *fs
	out.Features = Stride(fs.Features, stride)
	out.Times = Stride(fs.Times, stride)
	out.Energy = Stride(fs.Energy, stride)
	if fs.Flatness != nil {
		out.Flatness = Stride(fs.Flatness, stride)
	}
	if fs.Centroid != nil {
		out.Centroid = Stride(fs.Centroid, stride)
	}
	out.Stride = max(1, fs.Stride) * stride
	return &out, nil
}

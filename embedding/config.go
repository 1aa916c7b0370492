package embedding

import (
	"github.com/RyanBlaney/sonido-mach/algorithms/stats"
	"github.com/RyanBlaney/sonido-mach/apperrors"
)

// ProjectionConfig holds the neighbor-graph projection parameters
type ProjectionConfig struct {
	NNeighbors  int     `json:"n_neighbors" yaml:"n_neighbors"`
	MinDist     float64 `json:"min_dist" yaml:"min_dist"`
	Spread      float64 `json:"spread" yaml:"spread"`
	Metric      string  `json:"metric" yaml:"metric"`
	NComponents int     `json:"n_components" yaml:"n_components"`
	RandomState int64   `json:"random_state" yaml:"random_state"`

	// Optimization settings
	NEpochs            int     `json:"n_epochs,omitempty" yaml:"n_epochs,omitempty"` // 0 picks by dataset size
	LearningRate       float64 `json:"learning_rate" yaml:"learning_rate"`
	NegativeSampleRate int     `json:"negative_sample_rate" yaml:"negative_sample_rate"`
	RepulsionStrength  float64 `json:"repulsion_strength" yaml:"repulsion_strength"`
	Workers            int     `json:"workers,omitempty" yaml:"workers,omitempty"` // neighbor search; 0 uses all CPUs
}

// DefaultProjectionConfig returns default projection configuration
func DefaultProjectionConfig() ProjectionConfig {
	return ProjectionConfig{
		NNeighbors:         15,
		MinDist:            0.1,
		Spread:             1.0,
		Metric:             "cosine",
		NComponents:        3,
		RandomState:        42,
		LearningRate:       1.0,
		NegativeSampleRate: 5,
		RepulsionStrength:  1.0,
	}
}

// withDefaults fills zero-valued optimization settings
func (c ProjectionConfig) withDefaults() ProjectionConfig {
	def := DefaultProjectionConfig()
	if c.Spread == 0 {
		c.Spread = def.Spread
	}
	if c.Metric == "" {
		c.Metric = def.Metric
	}
	if c.NComponents == 0 {
		c.NComponents = def.NComponents
	}
	if c.LearningRate == 0 {
		c.LearningRate = def.LearningRate
	}
	if c.NegativeSampleRate == 0 {
		c.NegativeSampleRate = def.NegativeSampleRate
	}
	if c.RepulsionStrength == 0 {
		c.RepulsionStrength = def.RepulsionStrength
	}
	return c
}

// Validate checks the parameters that do not depend on the input
func (c ProjectionConfig) Validate() error {
	if c.NNeighbors < 2 {
		return apperrors.Validation("n_neighbors must be at least 2, got %d", c.NNeighbors).WithField("n_neighbors")
	}
	if c.NComponents != 2 && c.NComponents != 3 {
		return apperrors.Validation("n_components must be 2 or 3, got %d", c.NComponents).WithField("n_components")
	}
	if c.Spread <= 0 {
		return apperrors.Validation("spread must be positive, got %g", c.Spread).WithField("spread")
	}
	if c.MinDist < 0 || c.MinDist > c.Spread {
		return apperrors.Validation("min_dist must be in [0, %g], got %g", c.Spread, c.MinDist).WithField("min_dist")
	}
	if c.NEpochs < 0 {
		return apperrors.Validation("n_epochs must not be negative, got %d", c.NEpochs).WithField("n_epochs")
	}
	if c.NegativeSampleRate < 0 {
		return apperrors.Validation("negative_sample_rate must not be negative, got %d", c.NegativeSampleRate).WithField("negative_sample_rate")
	}
	if _, err := stats.ParseDistanceMetric(c.Metric); err != nil {
		return apperrors.Validation("metric must be one of %v, got %q", stats.MetricNames(), c.Metric).WithField("metric")
	}
	return nil
}

// epochs returns the number of optimization epochs for n samples
func (c ProjectionConfig) epochs(n int) int {
	if c.NEpochs > 0 {
		return c.NEpochs
	}
	if n <= 10000 {
		return 500
	}
	return 200
}

package embedding

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/RyanBlaney/sonido-mach/algorithms/stats"
	"github.com/RyanBlaney/sonido-mach/apperrors"
	"github.com/RyanBlaney/sonido-mach/logging"
)

// Projector embeds feature matrices with a neighbor-graph manifold projection
type Projector struct {
	config ProjectionConfig
	metric stats.DistanceMetric
	a, b   float64
}

// NewProjector validates the configuration and fits the embedding curve
func NewProjector(cfg ProjectionConfig) (*Projector, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	metric, err := stats.ParseDistanceMetric(cfg.Metric)
	if err != nil {
		return nil, apperrors.Validation("%v", err).WithField("metric")
	}

	a, b := fitCurve(cfg.Spread, cfg.MinDist)
	return &Projector{config: cfg, metric: metric, a: a, b: b}, nil
}

// Config returns the effective configuration
func (p *Projector) Config() ProjectionConfig {
	return p.config
}

// CurveParams returns the fitted a and b of the low-dimensional membership curve
func (p *Projector) CurveParams() (a, b float64) {
	return p.a, p.b
}

// Fit projects x (frames × dims) to an n × NComponents matrix. The same input
// and RandomState always produce the same output.
func (p *Projector) Fit(ctx context.Context, x [][]float64) ([][]float64, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "embedding",
		"function":  "Fit",
	})

	rows, cols, err := checkShape(x)
	if err != nil {
		return nil, err
	}
	if rows < p.config.NNeighbors {
		return nil, apperrors.Validation(
			"not enough frames for the neighbor graph: feature matrix has shape (%d, %d) but n_neighbors=%d; "+
				"decrease stride to keep more frames, or use a longer recording",
			rows, cols, p.config.NNeighbors,
		).WithField("n_neighbors")
	}

	nEpochs := p.config.epochs(rows)
	logger.Debug("Starting projection", logging.Fields{
		"rows":         rows,
		"cols":         cols,
		"n_neighbors":  p.config.NNeighbors,
		"min_dist":     p.config.MinDist,
		"metric":       p.metric.String(),
		"n_components": p.config.NComponents,
		"n_epochs":     nEpochs,
	})

	seed := uint64(p.config.RandomState)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	graph, err := nearestNeighbors(ctx, x, p.config.NNeighbors, p.metric, p.config.Workers)
	if err != nil {
		return nil, fmt.Errorf("neighbor search cancelled: %w", err)
	}

	edges := fuzzySimplicialSet(graph, p.config.NNeighbors)
	edges.prune(nEpochs)

	embedding := principalInit(x, p.config.NComponents, rng)

	err = optimizeLayout(ctx, embedding, edges, layoutParams{
		a:                  p.a,
		b:                  p.b,
		gamma:              p.config.RepulsionStrength,
		learningRate:       p.config.LearningRate,
		negativeSampleRate: p.config.NegativeSampleRate,
		nEpochs:            nEpochs,
	}, rng)
	if err != nil {
		return nil, fmt.Errorf("layout optimization cancelled: %w", err)
	}

	logger.Debug("Projection completed", logging.Fields{
		"edges": edges.Len(),
	})

	return embedding, nil
}

// Project embeds x with the given configuration
func Project(ctx context.Context, x [][]float64, cfg ProjectionConfig) ([][]float64, error) {
	p, err := NewProjector(cfg)
	if err != nil {
		return nil, err
	}
	return p.Fit(ctx, x)
}

// Project2D embeds x into two dimensions
func Project2D(ctx context.Context, x [][]float64, cfg ProjectionConfig) ([][]float64, error) {
	cfg.NComponents = 2
	return Project(ctx, x, cfg)
}

// Project3D embeds x into three dimensions
func Project3D(ctx context.Context, x [][]float64, cfg ProjectionConfig) ([][]float64, error) {
	cfg.NComponents = 3
	return Project(ctx, x, cfg)
}

// checkShape verifies x is a non-empty rectangular matrix of finite values
func checkShape(x [][]float64) (rows, cols int, err error) {
	if len(x) == 0 || len(x[0]) == 0 {
		return 0, 0, apperrors.Validation("expected a 2D feature matrix with at least one row and column, got shape (%d, 0)", len(x))
	}

	cols = len(x[0])
	for i, row := range x {
		if len(row) != cols {
			return 0, 0, apperrors.Validation("expected a 2D feature matrix: row %d has %d columns, want %d", i, len(row), cols)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, 0, apperrors.Validation("feature matrix contains a non-finite value in row %d", i)
			}
		}
	}
	return len(x), cols, nil
}

package embedding

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/RyanBlaney/sonido-mach/apperrors"
)

func randomMatrix(rows, cols int, seed uint64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	x := make([][]float64, rows)
	for i := range x {
		x[i] = make([]float64, cols)
		for j := range x[i] {
			x[i][j] = rng.NormFloat64()
		}
	}
	return x
}

func testConfig() ProjectionConfig {
	cfg := DefaultProjectionConfig()
	cfg.NEpochs = 100
	return cfg
}

func TestProjectShape(t *testing.T) {
	x := randomMatrix(60, 16, 1)

	tests := []struct {
		name string
		fn   func(context.Context, [][]float64, ProjectionConfig) ([][]float64, error)
		cols int
	}{
		{"2d", Project2D, 2},
		{"3d", Project3D, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(context.Background(), x, testConfig())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(x) {
				t.Fatalf("expected %d rows, got %d", len(x), len(got))
			}
			for i, row := range got {
				if len(row) != tt.cols {
					t.Fatalf("row %d: expected %d columns, got %d", i, tt.cols, len(row))
				}
				for _, v := range row {
					if math.IsNaN(v) || math.IsInf(v, 0) {
						t.Fatalf("row %d contains non-finite value", i)
					}
				}
			}
		})
	}
}

func TestProjectNeighborBoundary(t *testing.T) {
	cfg := testConfig()
	cfg.NNeighbors = 15

	got, err := Project(context.Background(), randomMatrix(15, 8, 2), cfg)
	if err != nil {
		t.Fatalf("expected rows == n_neighbors to succeed, got %v", err)
	}
	if len(got) != 15 {
		t.Errorf("expected 15 rows, got %d", len(got))
	}

	_, err = Project(context.Background(), randomMatrix(10, 4, 3), cfg)
	if !apperrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"(10, 4)", "n_neighbors=15", "decrease stride", "longer recording"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected message to contain %q, got %q", want, msg)
		}
	}
}

func TestProjectInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		x      [][]float64
		mutate func(*ProjectionConfig)
	}{
		{"empty", nil, nil},
		{"ragged", [][]float64{{1, 2}, {3}}, nil},
		{"nan", [][]float64{{1, math.NaN()}, {3, 4}}, nil},
		{"components", randomMatrix(20, 4, 4), func(c *ProjectionConfig) { c.NComponents = 4 }},
		{"metric", randomMatrix(20, 4, 4), func(c *ProjectionConfig) { c.Metric = "hamming" }},
		{"min dist", randomMatrix(20, 4, 4), func(c *ProjectionConfig) { c.MinDist = 2 }},
		{"neighbors", randomMatrix(20, 4, 4), func(c *ProjectionConfig) { c.NNeighbors = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.NNeighbors = 2
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			if _, err := Project(context.Background(), tt.x, cfg); !apperrors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestProjectDeterministic(t *testing.T) {
	x := randomMatrix(40, 10, 5)
	cfg := testConfig()
	cfg.NNeighbors = 8

	first, err := Project(context.Background(), x, cfg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Project(context.Background(), x, cfg)
	if err != nil {
		t.Fatal(err)
	}

	for i := range first {
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("runs differ at (%d, %d): %f vs %f", i, j, first[i][j], second[i][j])
			}
		}
	}

	cfg.RandomState = 7
	third, err := Project(context.Background(), x, cfg)
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for i := range first {
		for j := range first[i] {
			if first[i][j] != third[i][j] {
				same = false
			}
		}
	}
	if same {
		t.Error("expected a different seed to change the layout")
	}
}

func TestProjectSeparatesClusters(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	var x [][]float64
	for c := range 2 {
		for range 40 {
			row := make([]float64, 8)
			for j := range row {
				row[j] = float64(c)*20 + rng.NormFloat64()
			}
			x = append(x, row)
		}
	}

	cfg := testConfig()
	cfg.Metric = "euclidean"
	cfg.NNeighbors = 10
	cfg.NComponents = 2

	got, err := Project(context.Background(), x, cfg)
	if err != nil {
		t.Fatal(err)
	}

	centroid := func(rows [][]float64) []float64 {
		c := make([]float64, len(rows[0]))
		for _, r := range rows {
			for j, v := range r {
				c[j] += v / float64(len(rows))
			}
		}
		return c
	}
	spread := func(rows [][]float64, c []float64) float64 {
		s := 0.0
		for _, r := range rows {
			s += math.Sqrt(squaredDistance(r, c)) / float64(len(rows))
		}
		return s
	}

	ca, cb := centroid(got[:40]), centroid(got[40:])
	between := math.Sqrt(squaredDistance(ca, cb))
	within := math.Max(spread(got[:40], ca), spread(got[40:], cb))
	if between <= within {
		t.Errorf("clusters not separated: between=%f within=%f", between, within)
	}
}

func TestProjectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Project(ctx, randomMatrix(30, 4, 6), testConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFitCurve(t *testing.T) {
	a, b := fitCurve(1.0, 0.1)
	if math.Abs(a-1.577) > 0.15 || math.Abs(b-0.895) > 0.08 {
		t.Errorf("unexpected curve parameters a=%f b=%f", a, b)
	}

	// Smaller min_dist gives a sharper curve.
	a2, _ := fitCurve(1.0, 0.01)
	if a2 <= a {
		t.Errorf("expected a to grow as min_dist shrinks: %f vs %f", a2, a)
	}
}

func TestFuzzySimplicialSetSymmetric(t *testing.T) {
	x := randomMatrix(25, 5, 8)
	graph, err := nearestNeighbors(context.Background(), x, 5, 0, 2)
	if err != nil {
		t.Fatal(err)
	}

	edges := fuzzySimplicialSet(graph, 5)
	weights := make(map[[2]int]float64, edges.Len())
	for e := range edges.Len() {
		if edges.heads[e] == edges.tails[e] {
			t.Fatalf("self loop at %d", edges.heads[e])
		}
		w := edges.weights[e]
		if w <= 0 || w > 1 {
			t.Fatalf("weight out of range: %f", w)
		}
		weights[[2]int{edges.heads[e], edges.tails[e]}] = w
	}
	for k, w := range weights {
		if weights[[2]int{k[1], k[0]}] != w {
			t.Fatalf("edge %v not symmetric", k)
		}
	}
}

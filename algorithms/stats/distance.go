package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// DistanceMetric represents the distance measures available for neighbor search
type DistanceMetric int

const (
	EuclideanDistance DistanceMetric = iota
	ManhattanDistance
	CosineDistance
	CorrelationDistance
)

// DistanceFunction is a function type for computing distance between two vectors
type DistanceFunction func(a, b []float64) float64

// ParseDistanceMetric resolves a metric by its lowercase name
func ParseDistanceMetric(name string) (DistanceMetric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "euclidean", "l2":
		return EuclideanDistance, nil
	case "manhattan", "l1", "cityblock":
		return ManhattanDistance, nil
	case "cosine":
		return CosineDistance, nil
	case "correlation", "pearson":
		return CorrelationDistance, nil
	default:
		return 0, fmt.Errorf("unknown distance metric %q", name)
	}
}

// MetricNames lists the canonical metric names
func MetricNames() []string {
	return []string{"euclidean", "manhattan", "cosine", "correlation"}
}

// String returns the canonical metric name
func (m DistanceMetric) String() string {
	switch m {
	case EuclideanDistance:
		return "euclidean"
	case ManhattanDistance:
		return "manhattan"
	case CosineDistance:
		return "cosine"
	case CorrelationDistance:
		return "correlation"
	default:
		return "unknown"
	}
}

// GetDistanceFunction returns the appropriate distance function for the given metric
func GetDistanceFunction(metric DistanceMetric) DistanceFunction {
	switch metric {
	case ManhattanDistance:
		return ManhattanDistanceFunc
	case CosineDistance:
		return CosineDistanceFunc
	case CorrelationDistance:
		return CorrelationDistanceFunc
	default:
		return EuclideanDistanceFunc
	}
}

// EuclideanDistanceFunc calculates Euclidean distance between two points
func EuclideanDistanceFunc(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// ManhattanDistanceFunc calculates Manhattan (L1) distance between two points
func ManhattanDistanceFunc(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

// CosineDistanceFunc calculates cosine distance (1 - cosine similarity).
// A zero vector is at distance 0 from another zero vector and 1 from anything else.
func CosineDistanceFunc(a, b []float64) float64 {
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)

	switch {
	case normA == 0 && normB == 0:
		return 0
	case normA == 0 || normB == 0:
		return 1
	}

	similarity := floats.Dot(a, b) / (normA * normB)
	return math.Max(0, 1-similarity)
}

// CorrelationDistanceFunc calculates 1 - Pearson correlation
func CorrelationDistanceFunc(a, b []float64) float64 {
	n := len(a)
	if n == 0 {
		return 0
	}

	meanA := floats.Sum(a) / float64(n)
	meanB := floats.Sum(b) / float64(n)

	numerator := 0.0
	sumSqA := 0.0
	sumSqB := 0.0
	for i := range a {
		diffA := a[i] - meanA
		diffB := b[i] - meanB
		numerator += diffA * diffB
		sumSqA += diffA * diffA
		sumSqB += diffB * diffB
	}

	switch {
	case sumSqA == 0 && sumSqB == 0:
		return 0
	case sumSqA == 0 || sumSqB == 0:
		return 1
	}

	return math.Max(0, 1-numerator/math.Sqrt(sumSqA*sumSqB))
}

// Neighbor is one entry of a nearest-neighbor list
type Neighbor struct {
	Index    int
	Distance float64
}

// NearestNeighbors finds the k nearest rows of data to query, closest first.
// Ties are broken by the lower index so results are deterministic.
func NearestNeighbors(query []float64, data [][]float64, k int, metric DistanceMetric) []Neighbor {
	if k <= 0 || len(data) == 0 {
		return nil
	}
	if k > len(data) {
		k = len(data)
	}

	distFunc := GetDistanceFunction(metric)
	neighbors := make([]Neighbor, len(data))
	for i, point := range data {
		neighbors[i] = Neighbor{Index: i, Distance: distFunc(query, point)}
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})

	return neighbors[:k]
}

// DistanceMatrix computes pairwise distances between all vectors
func DistanceMatrix(data [][]float64, metric DistanceMetric) [][]float64 {
	n := len(data)
	matrix := make([][]float64, n)
	distFunc := GetDistanceFunction(metric)

	for i := range n {
		matrix[i] = make([]float64, n)
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			d := distFunc(data[i], data[j])
			matrix[i][j] = d
			matrix[j][i] = d
		}
	}

	return matrix
}

package embedding

import (
	"math"
	"slices"
)

const (
	smoothKNNIterations = 64
	smoothKNNTolerance  = 1e-5
	minKDistScale       = 1e-3
)

// edgeList is a symmetric weighted graph stored as parallel arrays
type edgeList struct {
	heads   []int
	tails   []int
	weights []float64
}

func (e *edgeList) Len() int { return len(e.weights) }

// smoothKNNDistances finds, for every row, the distance to its closest
// non-identical neighbor (rho) and the bandwidth (sigma) that makes the
// neighbor memberships sum to log2(k).
func smoothKNNDistances(graph *knnGraph, k int) (rhos, sigmas []float64) {
	n := len(graph.indices)
	rhos = make([]float64, n)
	sigmas = make([]float64, n)
	target := math.Log2(float64(k))

	var meanAll float64
	var count int
	for _, row := range graph.distances {
		for _, d := range row {
			meanAll += d
			count++
		}
	}
	if count > 0 {
		meanAll /= float64(count)
	}

	for i := range n {
		var dists []float64
		for j, idx := range graph.indices[i] {
			if idx != i {
				dists = append(dists, graph.distances[i][j])
			}
		}

		rho := 0.0
		for _, d := range dists {
			if d > 0 {
				rho = d
				break
			}
		}

		lo, hi, mid := 0.0, math.Inf(1), 1.0
		for range smoothKNNIterations {
			psum := 0.0
			for _, d := range dists {
				if dd := d - rho; dd > 0 {
					psum += math.Exp(-dd / mid)
				} else {
					psum += 1
				}
			}

			if math.Abs(psum-target) < smoothKNNTolerance {
				break
			}
			if psum > target {
				hi = mid
				mid = (lo + hi) / 2
			} else {
				lo = mid
				if math.IsInf(hi, 1) {
					mid *= 2
				} else {
					mid = (lo + hi) / 2
				}
			}
		}

		if rho > 0 {
			meanRow := 0.0
			for _, d := range dists {
				meanRow += d
			}
			if len(dists) > 0 {
				meanRow /= float64(len(dists))
			}
			mid = math.Max(mid, minKDistScale*meanRow)
		} else {
			mid = math.Max(mid, minKDistScale*meanAll)
		}
		if mid <= 0 {
			mid = minKDistScale
		}

		rhos[i] = rho
		sigmas[i] = mid
	}

	return rhos, sigmas
}

// fuzzySimplicialSet converts the neighbor graph into symmetric membership
// strengths using the probabilistic union w_ij + w_ji - w_ij*w_ji.
func fuzzySimplicialSet(graph *knnGraph, k int) *edgeList {
	n := len(graph.indices)
	rhos, sigmas := smoothKNNDistances(graph, k)

	key := func(i, j int) uint64 { return uint64(i)*uint64(n) + uint64(j) }
	directed := make(map[uint64]float64, n*k)
	for i := range n {
		for j, idx := range graph.indices[i] {
			if idx == i {
				continue
			}
			d := graph.distances[i][j]
			w := 1.0
			if d-rhos[i] > 0 {
				w = math.Exp(-(d - rhos[i]) / sigmas[i])
			}
			directed[key(i, idx)] = w
		}
	}

	union := make(map[uint64]float64, 2*len(directed))
	for kk, a := range directed {
		i, j := int(kk/uint64(n)), int(kk%uint64(n))
		b := directed[key(j, i)]
		w := a + b - a*b
		union[key(i, j)] = w
		union[key(j, i)] = w
	}

	keys := make([]uint64, 0, len(union))
	for kk, w := range union {
		if w > 0 {
			keys = append(keys, kk)
		}
	}
	slices.Sort(keys)

	edges := &edgeList{
		heads:   make([]int, len(keys)),
		tails:   make([]int, len(keys)),
		weights: make([]float64, len(keys)),
	}
	for e, kk := range keys {
		edges.heads[e] = int(kk / uint64(n))
		edges.tails[e] = int(kk % uint64(n))
		edges.weights[e] = union[kk]
	}
	return edges
}

// prune drops edges too weak to be sampled within nEpochs
func (e *edgeList) prune(nEpochs int) {
	maxW := 0.0
	for _, w := range e.weights {
		maxW = math.Max(maxW, w)
	}
	threshold := maxW / float64(nEpochs)

	kept := 0
	for i, w := range e.weights {
		if w < threshold {
			continue
		}
		e.heads[kept] = e.heads[i]
		e.tails[kept] = e.tails[i]
		e.weights[kept] = w
		kept++
	}
	e.heads = e.heads[:kept]
	e.tails = e.tails[:kept]
	e.weights = e.weights[:kept]
}

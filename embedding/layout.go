package embedding

import (
	"context"
	"math"
	"math/rand/v2"
)

const gradientClip = 4.0

func clip(v float64) float64 {
	return math.Max(-gradientClip, math.Min(gradientClip, v))
}

// layoutParams bundles the constants of the stochastic gradient descent
type layoutParams struct {
	a, b               float64
	gamma              float64
	learningRate       float64
	negativeSampleRate int
	nEpochs            int
}

// optimizeLayout refines the embedding in place. Each edge is sampled in
// proportion to its weight: attraction along sampled edges, repulsion from
// randomly drawn rows. Cancellation is checked between epochs.
func optimizeLayout(ctx context.Context, embedding [][]float64, edges *edgeList, params layoutParams, rng *rand.Rand) error {
	nEdges := edges.Len()
	if nEdges == 0 || params.nEpochs == 0 {
		return nil
	}
	n := len(embedding)
	dim := len(embedding[0])
	a, b := params.a, params.b

	maxW := 0.0
	for _, w := range edges.weights {
		maxW = math.Max(maxW, w)
	}

	epochsPerSample := make([]float64, nEdges)
	epochsPerNegative := make([]float64, nEdges)
	nextSample := make([]float64, nEdges)
	nextNegative := make([]float64, nEdges)
	for e, w := range edges.weights {
		epochsPerSample[e] = maxW / w
		nextSample[e] = epochsPerSample[e]
		if params.negativeSampleRate > 0 {
			epochsPerNegative[e] = epochsPerSample[e] / float64(params.negativeSampleRate)
			nextNegative[e] = epochsPerNegative[e]
		}
	}

	for epoch := range params.nEpochs {
		if err := ctx.Err(); err != nil {
			return err
		}

		alpha := params.learningRate * (1 - float64(epoch)/float64(params.nEpochs))
		fe := float64(epoch)

		for e := range nEdges {
			if nextSample[e] > fe {
				continue
			}

			current := embedding[edges.heads[e]]
			other := embedding[edges.tails[e]]

			distSq := squaredDistance(current, other)
			if distSq > 0 {
				coeff := -2 * a * b * math.Pow(distSq, b-1) / (a*math.Pow(distSq, b) + 1)
				for d := range dim {
					grad := clip(coeff * (current[d] - other[d]))
					current[d] += grad * alpha
					other[d] -= grad * alpha
				}
			}
			nextSample[e] += epochsPerSample[e]

			if params.negativeSampleRate == 0 {
				continue
			}

			nNeg := int((fe - nextNegative[e]) / epochsPerNegative[e])
			for range max(0, nNeg) {
				k := rng.IntN(n)
				if k == edges.heads[e] {
					continue
				}
				other := embedding[k]

				distSq := squaredDistance(current, other)
				coeff := 0.0
				if distSq > 0 {
					coeff = 2 * params.gamma * b / ((0.001 + distSq) * (a*math.Pow(distSq, b) + 1))
				}
				for d := range dim {
					grad := gradientClip
					if coeff > 0 {
						grad = clip(coeff * (current[d] - other[d]))
					}
					current[d] += grad * alpha
				}
			}
			nextNegative[e] += float64(max(0, nNeg)) * epochsPerNegative[e]
		}
	}

	return nil
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

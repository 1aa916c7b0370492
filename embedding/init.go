package embedding

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const initExtent = 10.0

// principalInit places every row at its projection on the leading principal
// axes, scaled to fit within [-10, 10], with a little noise to break ties.
// Components PCA cannot provide are filled with uniform noise.
func principalInit(x [][]float64, nComponents int, rng *rand.Rand) [][]float64 {
	n, d := len(x), len(x[0])
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, nComponents)
	}

	data := mat.NewDense(n, d, nil)
	for i, row := range x {
		data.SetRow(i, row)
	}

	filled := 0
	var pc stat.PC
	if n >= 2 && pc.PrincipalComponents(data, nil) {
		var vecs mat.Dense
		pc.VectorsTo(&vecs)
		_, available := vecs.Dims()
		filled = min(nComponents, available)

		if filled > 0 {
			centered := mat.DenseCopyOf(data)
			for j := range d {
				col := mat.Col(nil, j, data)
				mean := stat.Mean(col, nil)
				for i := range n {
					centered.Set(i, j, col[i]-mean)
				}
			}

			var proj mat.Dense
			proj.Mul(centered, vecs.Slice(0, d, 0, filled))

			maxAbs := 0.0
			for i := range n {
				for j := range filled {
					maxAbs = math.Max(maxAbs, math.Abs(proj.At(i, j)))
				}
			}
			scale := 0.0
			if maxAbs > 0 {
				scale = initExtent / maxAbs
			}

			for i := range n {
				for j := range filled {
					out[i][j] = proj.At(i, j)*scale + rng.NormFloat64()*1e-4
				}
			}
		}
	}

	for i := range n {
		for j := filled; j < nComponents; j++ {
			out[i][j] = (rng.Float64()*2 - 1) * initExtent
		}
	}

	return out
}

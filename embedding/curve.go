package embedding

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Curve parameters for min_dist=0.1, spread=1, used when the fit fails.
const (
	fallbackCurveA = 1.577
	fallbackCurveB = 0.895
)

// fitCurve finds a and b so that 1/(1+a*x^(2b)) approximates the offset
// exponential membership defined by spread and minDist.
func fitCurve(spread, minDist float64) (a, b float64) {
	xs := make([]float64, 300)
	floats.Span(xs, 0, spread*3)

	ys := make([]float64, len(xs))
	for i, x := range xs {
		if x < minDist {
			ys[i] = 1
		} else {
			ys[i] = math.Exp(-(x - minDist) / spread)
		}
	}

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			a, b := p[0], p[1]
			if a <= 0 || b <= 0 {
				return math.Inf(1)
			}
			sum := 0.0
			for i, x := range xs {
				r := 1/(1+a*math.Pow(x, 2*b)) - ys[i]
				sum += r * r
			}
			return sum
		},
	}

	res, err := optimize.Minimize(problem, []float64{1, 1}, nil, &optimize.NelderMead{})
	if res == nil || (err != nil && res.F > 1) {
		return fallbackCurveA, fallbackCurveB
	}

	a, b = res.X[0], res.X[1]
	if !(a > 0) || !(b > 0) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return fallbackCurveA, fallbackCurveB
	}
	return a, b
}

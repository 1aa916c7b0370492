package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MFCC computes mel-frequency cepstral coefficients from a log-mel spectrogram
// with an orthonormal DCT-II
type MFCC struct {
	numCoefficients int
	dct             *mat.Dense // numCoefficients x numMelBands
}

// NewMFCC creates an MFCC computer for numMelBands input bands
func NewMFCC(numCoefficients, numMelBands int) (*MFCC, error) {
	if numCoefficients <= 0 {
		return nil, fmt.Errorf("number of coefficients must be positive, got %d", numCoefficients)
	}
	if numCoefficients > numMelBands {
		return nil, fmt.Errorf("cannot take %d coefficients from %d mel bands", numCoefficients, numMelBands)
	}

	return &MFCC{
		numCoefficients: numCoefficients,
		dct:             dctMatrix(numCoefficients, numMelBands),
	}, nil
}

// dctMatrix builds the first rows of an orthonormal DCT-II basis
func dctMatrix(rows, n int) *mat.Dense {
	m := mat.NewDense(rows, n, nil)
	for k := range rows {
		scale := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		for i := range n {
			m.Set(k, i, scale*math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n))))
		}
	}
	return m
}

// ComputeFrames transforms each dB mel frame into cepstral coefficients
func (m *MFCC) ComputeFrames(logMel [][]float64) ([][]float64, error) {
	if len(logMel) == 0 {
		return [][]float64{}, nil
	}

	_, bands := m.dct.Dims()
	data := make([]float64, 0, len(logMel)*bands)
	for t, frame := range logMel {
		if len(frame) != bands {
			return nil, fmt.Errorf("frame %d has %d bands, expected %d", t, len(frame), bands)
		}
		data = append(data, frame...)
	}

	in := mat.NewDense(len(logMel), bands, data)
	var out mat.Dense
	out.Mul(in, m.dct.T())

	coeffs := make([][]float64, len(logMel))
	for t := range coeffs {
		coeffs[t] = mat.Row(nil, t, &out)
	}
	return coeffs, nil
}

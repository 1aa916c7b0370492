package spectral

import (
	"math"
)

// DecibelParams controls power-to-dB conversion
type DecibelParams struct {
	// Ref is the reference power; values equal to Ref map to 0 dB.
	// RefMax overrides it with the maximum of the input.
	Ref    float64 `json:"ref"`
	RefMax bool    `json:"ref_max"`
	// Amin floors both the input and the reference before taking logs
	Amin float64 `json:"amin"`
	// TopDB clips output to (max - TopDB). Zero disables clipping.
	TopDB float64 `json:"top_db"`
}

// DefaultDecibelParams is relative to the loudest bin with an 80 dB range
func DefaultDecibelParams() DecibelParams {
	return DecibelParams{
		RefMax: true,
		Amin:   1e-10,
		TopDB:  80.0,
	}
}

// AbsoluteDecibelParams references 1.0, the convention for cepstral analysis
func AbsoluteDecibelParams() DecibelParams {
	return DecibelParams{
		Ref:   1.0,
		Amin:  1e-10,
		TopDB: 80.0,
	}
}

// PowerToDB converts a power matrix to decibels. The input is not modified.
func PowerToDB(power [][]float64, params DecibelParams) [][]float64 {
	amin := params.Amin
	if amin <= 0 {
		amin = 1e-10
	}

	ref := params.Ref
	if params.RefMax {
		ref = 0
		for _, row := range power {
			for _, p := range row {
				ref = math.Max(ref, p)
			}
		}
	}
	refDB := 10 * math.Log10(math.Max(amin, ref))

	maxDB := math.Inf(-1)
	out := make([][]float64, len(power))
	for t, row := range power {
		out[t] = make([]float64, len(row))
		for f, p := range row {
			db := 10*math.Log10(math.Max(amin, p)) - refDB
			out[t][f] = db
			maxDB = math.Max(maxDB, db)
		}
	}

	if params.TopDB > 0 {
		floor := maxDB - params.TopDB
		for t := range out {
			for f, db := range out[t] {
				if db < floor {
					out[t][f] = floor
				}
			}
		}
	}

	return out
}

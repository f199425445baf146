package domain

import "math"

// WetBulbStull approximates the wet-bulb temperature in °C from air
// temperature taC (°C) and relative humidity rh (%), using the empirical fit
// of Stull 2011 (DOI: 10.1175/JAMC-D-11-0143.1). Valid near standard surface
// pressure; accuracy is roughly ±0.3 °C over -20..50 °C and 5..99 % RH.
// Returns NaN if either input is NaN. RH is clamped to [0, 100].
func WetBulbStull(taC, rh float64) float64 {
	if math.IsNaN(taC) || math.IsNaN(rh) {
		return math.NaN()
	}
	rh = math.Min(math.Max(rh, 0), 100)

	return taC*math.Atan(0.151977*math.Sqrt(rh+8.313659)) +
		math.Atan(taC+rh) -
		math.Atan(rh-1.676331) +
		0.00391838*math.Pow(rh, 1.5)*math.Atan(0.023101*rh) -
		4.686035
}

// WetBulbGrid maps WetBulbStull over co-registered temperature and relative
// humidity grids. Missing inputs propagate to missing outputs. Returns
// ErrShapeMismatch if the grids are misaligned.
func WetBulbGrid(ta, rh *Field) (*Field, error) {
	if err := checkShapes(ta, rh); err != nil {
		return nil, err
	}
	out := NewField(ta.Rows, ta.Cols)
	for i, t := range ta.Vals {
		out.Vals[i] = WetBulbStull(t, rh.Vals[i])
	}
	return out, nil
}

// SaturationVaporPressure returns the saturation vapour pressure of water in
// hPa at temperature taC (°C), using the Arden Buck equation — the most
// accurate simple formulation for near-surface temperatures.
func SaturationVaporPressure(taC float64) float64 {
	e := (18.678 - taC/234.5) * (taC / (257.14 + taC))
	return 6.1121 * math.Exp(e)
}

// VaporPressure returns the ambient water vapour pressure in hPa given air
// temperature taC (°C) and relative humidity rh (%).
func VaporPressure(taC, rh float64) float64 {
	return rh / 100 * SaturationVaporPressure(taC)
}

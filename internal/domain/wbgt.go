package domain

import (
	"fmt"
	"math"
)

// Mode selects the WBGT combination formula. Outdoor weights in the dry-air
// term for direct sun exposure; indoor folds it into the globe term.
type Mode string

const (
	ModeOutdoor Mode = "outdoor"
	ModeIndoor  Mode = "indoor"
)

// ParseMode validates a mode string from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOutdoor, ModeIndoor:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown WBGT mode %q (want outdoor or indoor)", s)
	}
}

// CombineWBGT applies the fixed WBGT combination formula. All temperatures
// in °C; any NaN input yields NaN.
//
//	outdoor: 0.7·Tnw + 0.2·Tg + 0.1·Ta
//	indoor:  0.7·Tnw + 0.3·Tg
func CombineWBGT(tnw, tg, ta float64, mode Mode) float64 {
	if mode == ModeIndoor {
		return 0.7*tnw + 0.3*tg
	}
	return 0.7*tnw + 0.2*tg + 0.1*ta
}

// CombineWBGTGrid maps CombineWBGT over co-registered wet-bulb, globe, and
// air temperature grids. Missing inputs propagate to missing outputs.
// Returns ErrShapeMismatch if the grids are misaligned.
func CombineWBGTGrid(tnw, tg, ta *Field, mode Mode) (*Field, error) {
	if err := checkShapes(tnw, tg, ta); err != nil {
		return nil, err
	}
	out := NewField(tnw.Rows, tnw.Cols)
	for i := range tnw.Vals {
		out.Vals[i] = CombineWBGT(tnw.Vals[i], tg.Vals[i], ta.Vals[i], mode)
	}
	return out, nil
}

// HeatRisk maps a WBGT value in °C to a four-level risk label, with
// thresholds informed by ACSM and NWS heat guidance: <26 low, <29 elevated,
// <32 high, else extreme. Returns "" for missing values.
func HeatRisk(wbgtC float64) string {
	switch {
	case math.IsNaN(wbgtC):
		return ""
	case wbgtC < 26:
		return "low"
	case wbgtC < 29:
		return "elevated"
	case wbgtC < 32:
		return "high"
	default:
		return "extreme"
	}
}

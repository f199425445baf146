package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"
)

// QualitySummary reports per-grid solver outcome counts so consumers can
// tell how much of a product is trustworthy versus best-effort.
type QualitySummary struct {
	ConvergedCells  int `json:"converged_cells"`
	BestEffortCells int `json:"best_effort_cells"`
	DegenerateCells int `json:"degenerate_cells"`
	MissingCells    int `json:"missing_cells"`
	MaxIterations   int `json:"max_iterations"`
}

// WBGTProduct is one computed time step, destined for the sink topic.
// Grid arrays are row-major with missing cells encoded as MissingValue.
type WBGTProduct struct {
	ID           string    `json:"id"`
	GridID       string    `json:"grid_id"`
	ValidTime    time.Time `json:"valid_time"`
	Rows         int       `json:"rows"`
	Cols         int       `json:"cols"`
	MissingValue float64   `json:"missing_value"`
	Mode         Mode      `json:"mode"`

	WBGTC             []float64 `json:"wbgt_c"`
	GlobeTemperatureC []float64 `json:"globe_temperature_c"`
	NaturalWetBulbC   []float64 `json:"natural_wet_bulb_c"`

	Quality    QualitySummary `json:"quality"`
	RiskCounts map[string]int `json:"risk_counts,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// ComputeWBGTProduct runs the full per-time-step computation: globe
// temperature solve, wet-bulb approximation, WBGT combination, and product
// assembly. workers bounds the solver fan-out (<= 0 means GOMAXPROCS).
func ComputeWBGTProduct(bundle GridBundle, consts PhysicalConstants, mode Mode, workers int) (WBGTProduct, error) {
	globe, err := SolveGlobeGrid(bundle.Ta, bundle.SW, bundle.WS, consts, workers)
	if err != nil {
		return WBGTProduct{}, fmt.Errorf("grid %q: globe solve: %w", bundle.GridID, err)
	}
	tnw, err := WetBulbGrid(bundle.Ta, bundle.RH)
	if err != nil {
		return WBGTProduct{}, fmt.Errorf("grid %q: wet bulb: %w", bundle.GridID, err)
	}
	wbgt, err := CombineWBGTGrid(tnw, globe.Temps, bundle.Ta, mode)
	if err != nil {
		return WBGTProduct{}, fmt.Errorf("grid %q: combine: %w", bundle.GridID, err)
	}

	riskCounts := make(map[string]int)
	for _, v := range wbgt.Vals {
		if label := HeatRisk(v); label != "" {
			riskCounts[label]++
		}
	}

	return WBGTProduct{
		ID:           generateID(bundle.GridID, bundle.ValidTime, wbgt.Rows, wbgt.Cols),
		GridID:       bundle.GridID,
		ValidTime:    bundle.ValidTime,
		Rows:         wbgt.Rows,
		Cols:         wbgt.Cols,
		MissingValue: defaultMissingValue,
		Mode:         mode,

		WBGTC:             encodeGrid(wbgt),
		GlobeTemperatureC: encodeGrid(globe.Temps),
		NaturalWetBulbC:   encodeGrid(tnw),

		Quality: QualitySummary{
			ConvergedCells:  globe.Stats.Converged,
			BestEffortCells: globe.Stats.BestEffort,
			DegenerateCells: globe.Stats.Degenerate,
			MissingCells:    globe.Stats.MissingInput,
			MaxIterations:   globe.Stats.MaxIterations,
		},
		RiskCounts: riskCounts,

		ProcessedAt: clock.Now(),
	}, nil
}

// ProductID returns the deterministic product ID a bundle will produce,
// without computing the product. Useful for cache lookups before a solve.
func ProductID(b GridBundle) string {
	return generateID(b.GridID, b.ValidTime, b.Ta.Rows, b.Ta.Cols)
}

// encodeGrid copies a field's values with NaN replaced by the wire sentinel.
func encodeGrid(f *Field) []float64 {
	out := make([]float64, len(f.Vals))
	for i, v := range f.Vals {
		if math.IsNaN(v) {
			out[i] = defaultMissingValue
		} else {
			out[i] = v
		}
	}
	return out
}

// generateID produces a deterministic ID from the product's key fields.
// Deterministic IDs enable idempotent upserts downstream and replay safety:
// redelivery of the same analysis message yields the same product ID.
func generateID(gridID string, validTime time.Time, rows, cols int) string {
	input := fmt.Sprintf("%s|%s|%dx%d", gridID, validTime.UTC().Format(time.RFC3339), rows, cols)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if gridID == "" {
		return "wbgt-" + short
	}
	return "wbgt-" + gridID + "-" + short
}

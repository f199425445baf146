package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// defaultMissingValue is the conventional meteorological sentinel, assumed
// when a message does not declare its own.
const defaultMissingValue = -9999.0

// RawGridRecord is the flat JSON structure published by the analysis
// collector: one time step of co-registered row-major grids. Cells equal to
// MissingValue are absent (station gaps, coastline masks).
type RawGridRecord struct {
	GridID       string    `json:"grid_id"`
	ValidTime    time.Time `json:"valid_time"`
	Rows         int       `json:"rows"`
	Cols         int       `json:"cols"`
	MissingValue float64   `json:"missing_value"`

	AirTemperatureC     []float64 `json:"air_temperature_c"`
	RelativeHumidityPct []float64 `json:"relative_humidity_pct"`
	ShortwaveWM2        []float64 `json:"shortwave_wm2"`
	WindSpeedMS         []float64 `json:"wind_speed_ms"`
}

// GridBundle holds one time step's decoded input grids, sentinel values
// already converted to NaN.
type GridBundle struct {
	GridID    string
	ValidTime time.Time
	Ta        *Field // air temperature, °C
	RH        *Field // relative humidity, %
	SW        *Field // downward shortwave radiation, W/m²
	WS        *Field // wind speed, m/s
}

// ParseRawEvent deserializes a RawEvent's value into a GridBundle,
// validating that all four grids match the declared shape. A malformed or
// misaligned message is a per-message error; the pipeline skips it and
// keeps going.
func ParseRawEvent(raw RawEvent) (GridBundle, error) {
	var rec RawGridRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return GridBundle{}, fmt.Errorf("parse raw grid: %w", err)
	}

	if rec.Rows <= 0 || rec.Cols <= 0 {
		return GridBundle{}, fmt.Errorf("grid %q: invalid shape %dx%d", rec.GridID, rec.Rows, rec.Cols)
	}
	sentinel := rec.MissingValue
	if sentinel == 0 {
		sentinel = defaultMissingValue
	}

	ta, err := decodeGrid(rec.Rows, rec.Cols, rec.AirTemperatureC, sentinel)
	if err != nil {
		return GridBundle{}, fmt.Errorf("grid %q: air_temperature_c: %w", rec.GridID, err)
	}
	rh, err := decodeGrid(rec.Rows, rec.Cols, rec.RelativeHumidityPct, sentinel)
	if err != nil {
		return GridBundle{}, fmt.Errorf("grid %q: relative_humidity_pct: %w", rec.GridID, err)
	}
	sw, err := decodeGrid(rec.Rows, rec.Cols, rec.ShortwaveWM2, sentinel)
	if err != nil {
		return GridBundle{}, fmt.Errorf("grid %q: shortwave_wm2: %w", rec.GridID, err)
	}
	ws, err := decodeGrid(rec.Rows, rec.Cols, rec.WindSpeedMS, sentinel)
	if err != nil {
		return GridBundle{}, fmt.Errorf("grid %q: wind_speed_ms: %w", rec.GridID, err)
	}

	return GridBundle{
		GridID:    rec.GridID,
		ValidTime: rec.ValidTime,
		Ta:        ta,
		RH:        rh,
		SW:        sw,
		WS:        ws,
	}, nil
}

// decodeGrid wraps a row-major array as a Field, replacing the wire sentinel
// with NaN.
func decodeGrid(rows, cols int, vals []float64, sentinel float64) (*Field, error) {
	f, err := NewFieldFrom(rows, cols, vals)
	if err != nil {
		return nil, err
	}
	for i, v := range f.Vals {
		if v == sentinel {
			f.Vals[i] = math.NaN()
		}
	}
	return f, nil
}

// Command genmock generates synthetic gridded analysis fixtures for the test
// suites: the raw messages a collector would publish and the WBGT products
// the pipeline derives from them. It uses the actual domain package so the
// product fixture matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -rows 12 -cols 16 -steps 4 \
//	  -raw-out data/mock/gridded_analysis_240701.json \
//	  -products-out data/mock/wbgt_products_240701.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/couchcryptid/wbgt-etl-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

var baseTime = time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rows := flag.Int("rows", 12, "grid rows")
	cols := flag.Int("cols", 16, "grid columns")
	steps := flag.Int("steps", 4, "number of hourly time steps")
	seed := flag.Int64("seed", 1, "random seed for reproducible fixtures")
	rawOut := flag.String("raw-out", "", "output path for raw grid message fixture")
	productsOut := flag.String("products-out", "", "output path for WBGT product fixture")
	flag.Parse()

	if *rawOut == "" || *productsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -raw-out, -products-out")
	}

	// Set a fixed clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.July, 1, 18, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewSource(*seed))

	records := make([]domain.RawGridRecord, 0, *steps)
	products := make([]domain.WBGTProduct, 0, *steps)
	for step := 0; step < *steps; step++ {
		rec := makeRecord(rng, *rows, *cols, step)
		records = append(records, rec)

		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %d: %w", step, err)
		}
		bundle, err := domain.ParseRawEvent(domain.RawEvent{Value: payload})
		if err != nil {
			return fmt.Errorf("parse record %d: %w", step, err)
		}
		product, err := domain.ComputeWBGTProduct(bundle, domain.DefaultConstants(), domain.ModeOutdoor, 1)
		if err != nil {
			return fmt.Errorf("compute product %d: %w", step, err)
		}
		products = append(products, product)
		log.Printf("step %d: %d converged, %d missing", step,
			product.Quality.ConvergedCells, product.Quality.MissingCells)
	}

	if err := writeJSON(*rawOut, records); err != nil {
		return err
	}
	if err := writeJSON(*productsOut, products); err != nil {
		return err
	}
	log.Printf("wrote %d raw records and %d products", len(records), len(products))
	return nil
}

// makeRecord builds one time step with a north-south temperature gradient,
// a diurnal shortwave bump, mild wind noise, and a diagonal stripe of
// missing cells standing in for an ocean mask.
func makeRecord(rng *rand.Rand, rows, cols, step int) domain.RawGridRecord {
	n := rows * cols
	ta := make([]float64, n)
	rh := make([]float64, n)
	sw := make([]float64, n)
	ws := make([]float64, n)

	swPeak := 900.0 * math.Sin(math.Pi*float64(step+6)/12.0) // crude diurnal cycle
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if (r+c)%11 == 0 {
				ta[i], rh[i], sw[i], ws[i] = -9999, -9999, -9999, -9999
				continue
			}
			ta[i] = 22 + 12*float64(r)/float64(rows) + rng.Float64()
			rh[i] = 35 + 40*float64(c)/float64(cols) + 5*rng.Float64()
			sw[i] = math.Max(swPeak+50*rng.Float64(), 0)
			ws[i] = 1 + 6*rng.Float64()
		}
	}

	return domain.RawGridRecord{
		GridID:       "mock-conus",
		ValidTime:    baseTime.Add(time.Duration(step) * time.Hour),
		Rows:         rows,
		Cols:         cols,
		MissingValue: -9999,

		AirTemperatureC:     ta,
		RelativeHumidityPct: rh,
		ShortwaveWM2:        sw,
		WindSpeedMS:         ws,
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Command validate performs integrity checks across the mock data fixtures:
// raw grid messages and derived WBGT products. It verifies shapes, missing
// propagation, product IDs, and that recomputing each product from its raw
// record reproduces the fixture bit-for-bit.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw-json data/mock/gridded_analysis_240701.json \
//	  -products-json data/mock/wbgt_products_240701.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/wbgt-etl-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rawJSON := flag.String("raw-json", "", "path to raw grid message fixture")
	productsJSON := flag.String("products-json", "", "path to WBGT product fixture")
	flag.Parse()

	if *rawJSON == "" || *productsJSON == "" {
		flag.Usage()
		os.Exit(2)
	}

	var records []domain.RawGridRecord
	var products []domain.WBGTProduct
	if err := readJSON(*rawJSON, &records); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := readJSON(*productsJSON, &products); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	phases := []*phase{
		checkCounts(records, products),
		checkShapes(products),
		checkMissingPropagation(records, products),
		checkRecompute(records, products),
	}

	failed := false
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS %s\n", p.name)
			continue
		}
		failed = true
		fmt.Printf("FAIL %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("  %s\n", e)
		}
	}
	if failed {
		os.Exit(1)
	}
}

func checkCounts(records []domain.RawGridRecord, products []domain.WBGTProduct) *phase {
	p := &phase{name: "counts"}
	if len(records) == 0 {
		p.errorf("no raw records")
	}
	if len(records) != len(products) {
		p.errorf("%d raw records but %d products", len(records), len(products))
	}
	return p
}

func checkShapes(products []domain.WBGTProduct) *phase {
	p := &phase{name: "shapes"}
	for _, product := range products {
		n := product.Rows * product.Cols
		if len(product.WBGTC) != n || len(product.GlobeTemperatureC) != n || len(product.NaturalWetBulbC) != n {
			p.errorf("product %s: array lengths do not match %dx%d", product.ID, product.Rows, product.Cols)
		}
	}
	return p
}

// checkMissingPropagation verifies that a cell missing in any raw input is
// missing in the product's WBGT array.
func checkMissingPropagation(records []domain.RawGridRecord, products []domain.WBGTProduct) *phase {
	p := &phase{name: "missing propagation"}
	for i := range min(len(records), len(products)) {
		rec, product := records[i], products[i]
		for j := range rec.AirTemperatureC {
			inputMissing := rec.AirTemperatureC[j] == rec.MissingValue ||
				rec.RelativeHumidityPct[j] == rec.MissingValue ||
				rec.ShortwaveWM2[j] == rec.MissingValue ||
				rec.WindSpeedMS[j] == rec.MissingValue
			if inputMissing && product.WBGTC[j] != product.MissingValue {
				p.errorf("product %s cell %d: missing input but wbgt %.2f", product.ID, j, product.WBGTC[j])
			}
		}
	}
	return p
}

// checkRecompute re-runs the domain computation on each raw record under the
// product's own ProcessedAt clock and compares the result to the fixture.
func checkRecompute(records []domain.RawGridRecord, products []domain.WBGTProduct) *phase {
	p := &phase{name: "recompute"}
	defer domain.SetClock(nil)

	for i := range min(len(records), len(products)) {
		rec, want := records[i], products[i]
		payload, err := json.Marshal(rec)
		if err != nil {
			p.errorf("record %d: %v", i, err)
			continue
		}
		bundle, err := domain.ParseRawEvent(domain.RawEvent{Value: payload})
		if err != nil {
			p.errorf("record %d: %v", i, err)
			continue
		}
		domain.SetClock(clockwork.NewFakeClockAt(want.ProcessedAt))
		got, err := domain.ComputeWBGTProduct(bundle, domain.DefaultConstants(), want.Mode, 1)
		if err != nil {
			p.errorf("record %d: %v", i, err)
			continue
		}
		if got.ID != want.ID {
			p.errorf("record %d: id %s, want %s", i, got.ID, want.ID)
		}
		if !equalGrids(got.WBGTC, want.WBGTC) {
			p.errorf("record %d: recomputed wbgt grid differs", i)
		}
		if got.Quality != want.Quality {
			p.errorf("record %d: quality %+v, want %+v", i, got.Quality, want.Quality)
		}
	}
	return p
}

// equalGrids compares grids with a small tolerance to absorb the float
// round-trip through JSON encoding.
func equalGrids(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

package domain

import (
	"math"
	"runtime"
	"sync"
)

const (
	kelvinOffset = 273.15

	// Newton–Raphson policy for the globe temperature solve.
	maxIterations   = 100  // hard ceiling; also the only "timeout"
	toleranceKelvin = 0.01 // |ΔTg| below this is convergence
	derivativeFloor = 1e-7 // |f'| below this aborts the cell
)

// CellStatus tags the outcome of a single-cell globe temperature solve, so
// callers can tell trustworthy results from best-effort fallbacks.
type CellStatus uint8

const (
	// CellMissing means an input at this cell was missing; no solve was attempted.
	CellMissing CellStatus = iota
	// CellConverged means the iteration met tolerance.
	CellConverged
	// CellBestEffort means the iteration budget ran out and the last
	// estimate was accepted anyway.
	CellBestEffort
	// CellDegenerate means the derivative flattened out and the cell was
	// abandoned to avoid dividing by (near) zero.
	CellDegenerate
)

func (s CellStatus) String() string {
	switch s {
	case CellMissing:
		return "missing"
	case CellConverged:
		return "converged"
	case CellBestEffort:
		return "best_effort"
	case CellDegenerate:
		return "degenerate"
	default:
		return "unknown"
	}
}

// CellResult is the outcome of one cell's solve. Value is in °C and only
// meaningful for CellConverged and CellBestEffort.
type CellResult struct {
	Status     CellStatus
	Value      float64
	Iterations int
}

// energyBalance holds the per-cell quantities of the steady-state
// radiative-convective balance of a globe of diameter D in airflow WS,
// absorbing shortwave flux SW and sky longwave, exchanging heat with air at
// taK. They are computed once before iteration; eval is then a pure function
// of the trial globe temperature.
type energyBalance struct {
	taK   float64 // air temperature, K
	hc    float64 // convective heat-transfer coefficient
	left  float64 // absorbed energy input (shortwave + sky longwave)
	emiss float64 // ε·σ
}

// newEnergyBalance precomputes the cell's balance terms. Wind speed below
// zero is clamped to zero first.
func newEnergyBalance(taK, sw, ws float64, c PhysicalConstants) energyBalance {
	ws = math.Max(ws, 0)
	re := ws * c.GlobeDiameter / c.KinematicViscosity
	hc := 0.0014 * math.Pow(re, 0.6) * (c.AirConductivity / c.GlobeDiameter)
	left := c.SolarAbsorptivity*sw +
		c.Emissivity*c.AtmosphericEmissivity*c.StefanBoltzmann*taK*taK*taK*taK
	return energyBalance{
		taK:   taK,
		hc:    hc,
		left:  left,
		emiss: c.Emissivity * c.StefanBoltzmann,
	}
}

// eval returns f(tg) and f'(tg) for the trial globe temperature tg (K):
//
//	f(tg)  = ε·σ·tg⁴ + h_c·(tg − taK) − left
//	f'(tg) = 4·ε·σ·tg³ + h_c
func (b energyBalance) eval(tg float64) (fval, fprime float64) {
	tg3 := tg * tg * tg
	fval = b.emiss*tg3*tg + b.hc*(tg-b.taK) - b.left
	fprime = 4*b.emiss*tg3 + b.hc
	return fval, fprime
}

// SolveCell finds the equilibrium globe temperature for one cell via
// Newton–Raphson, starting from the air temperature. taC in °C, sw in W/m²,
// ws in m/s. Any NaN input yields CellMissing.
func SolveCell(taC, sw, ws float64, c PhysicalConstants) CellResult {
	if math.IsNaN(taC) || math.IsNaN(sw) || math.IsNaN(ws) {
		return CellResult{Status: CellMissing}
	}

	balance := newEnergyBalance(taC+kelvinOffset, sw, ws, c)

	tgPrev := taC + kelvinOffset
	for iter := 0; iter < maxIterations; iter++ {
		fval, fprime := balance.eval(tgPrev)
		if math.Abs(fprime) < derivativeFloor {
			return CellResult{Status: CellDegenerate, Iterations: iter + 1}
		}
		tgNext := tgPrev - fval/fprime
		if math.Abs(tgNext-tgPrev) < toleranceKelvin {
			return CellResult{
				Status:     CellConverged,
				Value:      tgNext - kelvinOffset,
				Iterations: iter + 1,
			}
		}
		if iter == maxIterations-1 {
			// Budget exhausted: accept the last estimate rather than
			// silently dropping the cell.
			return CellResult{
				Status:     CellBestEffort,
				Value:      tgNext - kelvinOffset,
				Iterations: iter + 1,
			}
		}
		tgPrev = tgNext
	}
	// Unreachable: the loop always returns on its final pass.
	return CellResult{Status: CellDegenerate, Iterations: maxIterations}
}

// SolveStats aggregates per-cell solve outcomes over a grid.
type SolveStats struct {
	Converged     int
	BestEffort    int
	Degenerate    int
	MissingInput  int
	MaxIterations int // highest per-cell iteration count observed
}

// GlobeSolution is the result of a whole-grid solve. Temps holds °C values
// with NaN for missing and degenerate cells; Status holds the per-cell
// outcome tag, row-major like Field.Vals.
type GlobeSolution struct {
	Temps  *Field
	Status []CellStatus
	Stats  SolveStats
}

// SolveGlobeGrid maps SolveCell over three co-registered grids and returns a
// shape-matched globe temperature grid. Cells are independent, so rows are
// fanned out across workers writing disjoint output cells; workers <= 0
// means GOMAXPROCS. Returns ErrShapeMismatch if the grids are misaligned.
func SolveGlobeGrid(ta, sw, ws *Field, c PhysicalConstants, workers int) (*GlobeSolution, error) {
	if err := checkShapes(ta, sw, ws); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > ta.Rows && ta.Rows > 0 {
		workers = ta.Rows
	}

	sol := &GlobeSolution{
		Temps:  NewField(ta.Rows, ta.Cols),
		Status: make([]CellStatus, ta.Rows*ta.Cols),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	rowsPerWorker := (ta.Rows + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * rowsPerWorker
		hi := min(lo+rowsPerWorker, ta.Rows)
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			var local SolveStats
			for row := lo; row < hi; row++ {
				for col := 0; col < ta.Cols; col++ {
					res := SolveCell(ta.At(row, col), sw.At(row, col), ws.At(row, col), c)
					sol.Status[row*ta.Cols+col] = res.Status
					switch res.Status {
					case CellConverged:
						sol.Temps.Set(row, col, res.Value)
						local.Converged++
					case CellBestEffort:
						sol.Temps.Set(row, col, res.Value)
						local.BestEffort++
					case CellDegenerate:
						local.Degenerate++
					case CellMissing:
						local.MissingInput++
					}
					if res.Iterations > local.MaxIterations {
						local.MaxIterations = res.Iterations
					}
				}
			}
			mu.Lock()
			sol.Stats.Converged += local.Converged
			sol.Stats.BestEffort += local.BestEffort
			sol.Stats.Degenerate += local.Degenerate
			sol.Stats.MissingInput += local.MissingInput
			if local.MaxIterations > sol.Stats.MaxIterations {
				sol.Stats.MaxIterations = local.MaxIterations
			}
			mu.Unlock()
		}(lo, hi)
	}
	wg.Wait()

	return sol, nil
}

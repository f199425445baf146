package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/wbgt-etl-service/internal/domain"
	"github.com/couchcryptid/wbgt-etl-service/internal/observability"
)

// WBGTTransformer implements Transformer: it parses a raw grid message,
// solves the globe temperature grid, applies the wet-bulb approximation, and
// combines the three temperatures into a WBGT product. Recomputation of
// redelivered messages is avoided through an LRU cache keyed by the
// deterministic product ID.
type WBGTTransformer struct {
	consts  domain.PhysicalConstants
	mode    domain.Mode
	workers int
	cache   *productCache
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a WBGTTransformer. cacheSize <= 0 disables the
// replay cache; workers <= 0 lets the solver pick its own fan-out.
func NewTransformer(consts domain.PhysicalConstants, mode domain.Mode, workers, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *WBGTTransformer {
	t := &WBGTTransformer{
		consts:  consts,
		mode:    mode,
		workers: workers,
		logger:  logger,
		metrics: metrics,
	}
	if cacheSize > 0 {
		t.cache = newProductCache(cacheSize)
	}
	return t
}

func (t *WBGTTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.WBGTProduct, error) {
	bundle, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.WBGTProduct{}, err
	}

	if t.cache != nil {
		key := domain.ProductID(bundle)
		if product, ok := t.cache.get(key); ok {
			t.metrics.ProductCache.WithLabelValues("hit").Inc()
			return product, nil
		}
		t.metrics.ProductCache.WithLabelValues("miss").Inc()
	}

	start := time.Now()
	product, err := domain.ComputeWBGTProduct(bundle, t.consts, t.mode, t.workers)
	if err != nil {
		return domain.WBGTProduct{}, err
	}
	t.observeSolve(product, time.Since(start))

	if product.Quality.DegenerateCells > 0 {
		// Numerical-stability event worth surfacing, but never fatal: the
		// affected cells are simply missing in the product.
		t.logger.Warn("degenerate derivative cells in grid",
			"grid_id", product.GridID,
			"cells", product.Quality.DegenerateCells,
		)
	}

	if t.cache != nil {
		t.cache.put(product.ID, product)
	}
	return product, nil
}

func (t *WBGTTransformer) observeSolve(product domain.WBGTProduct, elapsed time.Duration) {
	t.metrics.GridSolveDuration.Observe(elapsed.Seconds())
	t.metrics.CellsSolved.WithLabelValues("converged").Add(float64(product.Quality.ConvergedCells))
	t.metrics.CellsSolved.WithLabelValues("best_effort").Add(float64(product.Quality.BestEffortCells))
	t.metrics.CellsSolved.WithLabelValues("degenerate").Add(float64(product.Quality.DegenerateCells))
	t.metrics.CellsSolved.WithLabelValues("missing").Add(float64(product.Quality.MissingCells))
	t.metrics.SolverIterations.Observe(float64(product.Quality.MaxIterations))
}

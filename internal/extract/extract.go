// Package extract orchestrates the full extraction pipeline: neighbour
// selection, raw value extraction, and vertical correction over all
// (diagnostic, site) pairs.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/spot-extract/internal/corrector"
	"github.com/couchcryptid/spot-extract/internal/domain"
	"github.com/couchcryptid/spot-extract/internal/gridindex"
	"github.com/couchcryptid/spot-extract/internal/observability"
	"github.com/couchcryptid/spot-extract/internal/selector"
)

// Request describes one extraction run: a diagnostic grid, an optional
// lapse-rate grid on the same coordinate system, an ordered site table, and
// the selection policy.
type Request struct {
	Diagnostic *domain.GridField
	LapseRate  *domain.LapseRateField
	Sites      []domain.Site
	Policy     selector.Policy

	// Strict escalates any per-site failure to a fatal run failure.
	Strict bool
	// Workers bounds site-level parallelism. Values below 1 mean serial.
	Workers int
}

// Extractor runs extraction requests, reusing grid indexes across runs.
// Safe for concurrent use.
type Extractor struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	indexes *gridindex.Cache
}

// New creates an Extractor with an index cache of the given size.
func New(logger *slog.Logger, metrics *observability.Metrics, indexCacheSize int) *Extractor {
	return &Extractor{
		logger:  logger,
		metrics: metrics,
		indexes: gridindex.NewCache(indexCacheSize),
	}
}

// Run executes one extraction. Fatal errors (bad grid, bad policy,
// lapse-rate mismatch, strict-mode escalation, cancelled context) return a
// nil result. Per-site failures in non-strict mode land in the result's
// failure list; every input site appears exactly once, either as a value or
// as a failure.
func (e *Extractor) Run(ctx context.Context, req Request) (*domain.SpotResult, error) {
	start := time.Now()
	e.metrics.ExtractionActive.Set(1)
	defer e.metrics.ExtractionActive.Set(0)
	e.metrics.ExtractionsTotal.Inc()

	diag := req.Diagnostic
	if diag == nil {
		return nil, domain.Configurationf("no diagnostic grid supplied")
	}
	if err := diag.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateSites(req.Sites); err != nil {
		return nil, err
	}
	e.metrics.GridCells.Observe(float64(diag.NumCells()))

	index, err := e.indexFor(diag)
	if err != nil {
		return nil, err
	}
	sel, err := selector.New(diag, index, req.Policy)
	if err != nil {
		return nil, err
	}
	corr, err := corrector.New(req.LapseRate, diag)
	if err != nil {
		return nil, err
	}

	e.logger.Info("extraction started",
		"diagnostic", diag.Name,
		"cells", diag.NumCells(),
		"sites", len(req.Sites),
		"constraint", req.Policy.Constraint.String(),
		"tie_break", req.Policy.TieBreak.String(),
		"lapse_rate", corr.Active(),
	)

	// Each worker writes only its own site's slot, so the slices need no
	// locking and the output order is the input order regardless of
	// scheduling.
	values := make([]domain.SpotValue, len(req.Sites))
	failures := make([]error, len(req.Sites))
	e.runSites(ctx, req, sel, corr, values, failures)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extraction cancelled: %w", err)
	}

	result := domain.NewSpotResult(diag)
	for i, site := range req.Sites {
		if failErr := failures[i]; failErr != nil {
			e.metrics.SiteFailures.WithLabelValues(failureReason(failErr)).Inc()
			result.Failures = append(result.Failures, domain.SiteFailure{
				SiteID: site.ID,
				Reason: failErr.Error(),
				Err:    failErr,
			})
			continue
		}
		result.Sites = append(result.Sites, values[i])
		e.metrics.SitesExtracted.Inc()
	}

	if req.Strict && len(result.Failures) > 0 {
		first := result.Failures[0]
		return nil, fmt.Errorf("strict mode: %d of %d sites failed: %w",
			len(result.Failures), len(req.Sites), first.Err)
	}

	e.metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	e.logger.Info("extraction finished",
		"diagnostic", diag.Name,
		"extracted", len(result.Sites),
		"failed", len(result.Failures),
		"duration", time.Since(start),
	)
	return result, nil
}

// runSites fans the site table out over a bounded worker pool. Workers stop
// picking up new sites once the context is cancelled; sites already in
// flight finish.
func (e *Extractor) runSites(ctx context.Context, req Request, sel *selector.Selector, corr *corrector.Corrector, values []domain.SpotValue, failures []error) {
	workers := req.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(req.Sites) {
		workers = len(req.Sites)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for i := range jobs {
				values[i], failures[i] = extractSite(req.Sites[i], req.Diagnostic, sel, corr)
			}
		}()
	}

feed:
	for i := range req.Sites {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
}

// extractSite runs selection, raw extraction, and correction for one site.
func extractSite(site domain.Site, diag *domain.GridField, sel *selector.Selector, corr *corrector.Corrector) (domain.SpotValue, error) {
	match, err := sel.Select(site)
	if err != nil {
		return domain.SpotValue{}, err
	}

	series := make([]float64, len(diag.Values))
	for t := range diag.Values {
		raw := diag.Values[t][match.Cell]
		corrected, err := corr.Correct(raw, t, match.Cell, match.AltitudeDiff, site.ID)
		if err != nil {
			return domain.SpotValue{}, err
		}
		series[t] = corrected
	}

	return domain.SpotValue{
		Site:      site,
		Values:    series,
		Match:     match,
		Corrected: corr.Active(),
	}, nil
}

// indexFor returns a cached index for the grid's geometry, building one on
// miss.
func (e *Extractor) indexFor(grid *domain.GridField) (*gridindex.Index, error) {
	key := grid.GeometryKey()
	if index, ok := e.indexes.Get(key); ok {
		e.metrics.IndexCache.WithLabelValues("hit").Inc()
		return index, nil
	}
	e.metrics.IndexCache.WithLabelValues("miss").Inc()

	index, err := gridindex.Build(grid)
	if err != nil {
		return nil, err
	}
	e.metrics.IndexBuilds.Inc()
	e.indexes.Put(key, index)
	return index, nil
}

func failureReason(err error) string {
	var ce *domain.CorrectionError
	if errors.As(err, &ce) {
		return "correction"
	}
	return "no_neighbour"
}

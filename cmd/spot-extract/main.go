// Command spot-extract converts gridded diagnostic fields into point (spot)
// forecasts at named site coordinates.
//
// Usage:
//
//	spot-extract <diagnostics-config> <diagnostic-file> <output-dir> [working-dir] \
//	  --diagnostics air_temperature \
//	  --latitudes 51,52,53,54,55 --longitudes -2,-2,-2,-2,-2 --altitudes 10,20,30,40,50
//
// Sites come from either the coordinate list flags or a CSV site table via
// --sites. One spot NetCDF file is written per diagnostic into output-dir;
// --json adds a JSON dump alongside. Exit code 0 on success, including
// non-strict partial per-site failures; non-zero on configuration errors or
// strict-mode failures.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	httpadapter "github.com/couchcryptid/spot-extract/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/spot-extract/internal/adapter/kafka"
	"github.com/couchcryptid/spot-extract/internal/adapter/netcdf"
	"github.com/couchcryptid/spot-extract/internal/adapter/sitetable"
	"github.com/couchcryptid/spot-extract/internal/adapter/spotdb"
	"github.com/couchcryptid/spot-extract/internal/config"
	"github.com/couchcryptid/spot-extract/internal/domain"
	"github.com/couchcryptid/spot-extract/internal/extract"
	"github.com/couchcryptid/spot-extract/internal/gridindex"
	"github.com/couchcryptid/spot-extract/internal/observability"
	"github.com/couchcryptid/spot-extract/internal/selector"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional metrics endpoint, for scheduled or long batch runs.
	status := httpadapter.NewRunStatus()
	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, status, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	diags, err := config.LoadDiagnostics(opts.diagnosticsConfig)
	if err != nil {
		logger.Error("failed to load diagnostics config", "error", err)
		return 1
	}

	sites, err := loadSites(opts)
	if err != nil {
		logger.Error("failed to load sites", "error", err)
		return 1
	}

	var store *spotdb.Store
	if cfg.SpotDBPath != "" {
		if store, err = spotdb.Open(cfg.SpotDBPath); err != nil {
			logger.Error("failed to open spot database", "error", err)
			return 1
		}
		defer store.Close()
	}

	var publisher *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewWriter(cfg, logger)
		defer publisher.Close()
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic)
	}

	extractor := extract.New(logger, metrics, cfg.IndexCacheSize)

	for _, name := range opts.diagnostics {
		status.BeginDiagnostic(name)
		if err := runDiagnostic(ctx, name, opts, cfg, diags, sites, extractor, store, publisher, status, logger); err != nil {
			logger.Error("extraction failed", "diagnostic", name, "error", err)
			return 1
		}
	}
	return 0
}

func runDiagnostic(
	ctx context.Context,
	name string,
	opts *options,
	cfg *config.Config,
	diags *config.Diagnostics,
	sites []domain.Site,
	extractor *extract.Extractor,
	store *spotdb.Store,
	publisher *kafkaadapter.Writer,
	status *httpadapter.RunStatus,
	logger *slog.Logger,
) error {
	grid, err := netcdf.ReadGrid(opts.diagnosticFile, name)
	if err != nil {
		return err
	}

	spec := diags.Spec(name)

	var lapse *domain.LapseRateField
	if spec.LapseRate != "" {
		lapseFile := spec.LapseRateFile
		if lapseFile == "" {
			lapseFile = opts.diagnosticFile
		}
		if lapse, err = netcdf.ReadLapseRate(lapseFile, spec.LapseRate, grid); err != nil {
			return err
		}
	}

	policy, strict, err := buildPolicy(spec, cfg, opts)
	if err != nil {
		return err
	}

	result, err := extractor.Run(ctx, extract.Request{
		Diagnostic: grid,
		LapseRate:  lapse,
		Sites:      sites,
		Policy:     policy,
		Strict:     strict,
		Workers:    cfg.Workers,
	})
	if err != nil {
		return err
	}
	status.FinishDiagnostic(len(result.Sites), len(result.Failures))

	for _, f := range result.Failures {
		logger.Warn("site failed", "diagnostic", name, "site", f.SiteID, "reason", f.Reason)
	}

	outPath := opts.outputPath(name + "_spot.nc")
	if err := netcdf.WriteSpotResult(outPath, result); err != nil {
		return err
	}
	logger.Info("spot file written", "path", outPath, "sites", len(result.Sites))

	if opts.jsonOutput {
		if err := writeJSONResult(opts.outputPath(name+"_spot.json"), result); err != nil {
			return err
		}
	}
	if opts.workingDir != "" {
		if err := writeJSONResult(opts.workingPath(name+"_report.json"), result); err != nil {
			return err
		}
	}
	if store != nil {
		if err := store.SaveResult(result); err != nil {
			return err
		}
	}
	if publisher != nil {
		if err := publisher.PublishResult(ctx, result); err != nil {
			return err
		}
	}
	return nil
}

// buildPolicy merges the diagnostic's spec with the run-wide defaults.
func buildPolicy(spec config.DiagnosticSpec, cfg *config.Config, opts *options) (selector.Policy, bool, error) {
	constraint, err := gridindex.ParseConstraint(spec.Constraint)
	if err != nil {
		return selector.Policy{}, false, err
	}
	tieBreak, err := selector.ParseTieBreak(spec.TieBreak)
	if err != nil {
		return selector.Policy{}, false, err
	}

	policy := selector.Policy{
		Constraint:   constraint,
		TieBreak:     tieBreak,
		K:            spec.K,
		SearchRadius: spec.SearchRadius,
	}
	if policy.K == 0 {
		policy.K = cfg.NeighbourK
	}
	if policy.SearchRadius == 0 {
		policy.SearchRadius = cfg.SearchRadius
	}

	strict := cfg.Strict || opts.strict
	if spec.Strict != nil {
		strict = *spec.Strict
	}
	return policy, strict, nil
}

func loadSites(opts *options) ([]domain.Site, error) {
	if opts.sitesCSV != "" {
		return sitetable.ReadFile(opts.sitesCSV)
	}
	sites, err := domain.SitesFromLists(opts.latitudes, opts.longitudes, opts.altitudes)
	if err != nil {
		return nil, err
	}
	return sites, domain.ValidateSites(sites)
}

func writeJSONResult(path string, result *domain.SpotResult) error {
	data, err := marshalResult(result)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// options holds the parsed command line.
type options struct {
	diagnosticsConfig string
	diagnosticFile    string
	outputDir         string
	workingDir        string

	diagnostics []string
	latitudes   []float64
	longitudes  []float64
	altitudes   []float64
	sitesCSV    string
	strict      bool
	jsonOutput  bool
}

func (o *options) outputPath(name string) string {
	return filepath.Join(o.outputDir, name)
}

func (o *options) workingPath(name string) string {
	return filepath.Join(o.workingDir, name)
}

// parseArgs splits the documented argument order — positionals first, flags
// after — which the flag package does not handle on its own.
func parseArgs(args []string) (*options, error) {
	var positionals, flagArgs []string
	for i, a := range args {
		if strings.HasPrefix(a, "-") {
			flagArgs = args[i:]
			break
		}
		positionals = append(positionals, a)
	}

	if len(positionals) < 3 || len(positionals) > 4 {
		return nil, errors.New("usage: spot-extract <diagnostics-config> <diagnostic-file> <output-dir> [working-dir] [flags]")
	}

	opts := &options{
		diagnosticsConfig: positionals[0],
		diagnosticFile:    positionals[1],
		outputDir:         positionals[2],
	}
	if len(positionals) == 4 {
		opts.workingDir = positionals[3]
	}

	fs := flag.NewFlagSet("spot-extract", flag.ContinueOnError)
	diagnostics := fs.String("diagnostics", "", "comma-separated diagnostic names to extract (required)")
	fs.Var(newFloatList(&opts.latitudes), "latitudes", "comma-separated site latitudes")
	fs.Var(newFloatList(&opts.longitudes), "longitudes", "comma-separated site longitudes")
	fs.Var(newFloatList(&opts.altitudes), "altitudes", "comma-separated site altitudes in metres")
	fs.StringVar(&opts.sitesCSV, "sites", "", "CSV site table (overrides the coordinate lists)")
	fs.BoolVar(&opts.strict, "strict", false, "escalate any per-site failure to a fatal run failure")
	fs.BoolVar(&opts.jsonOutput, "json", false, "also write a JSON dump per diagnostic")
	if err := fs.Parse(flagArgs); err != nil {
		return nil, err
	}

	if *diagnostics == "" {
		return nil, errors.New("--diagnostics is required")
	}
	for _, d := range strings.Split(*diagnostics, ",") {
		if d = strings.TrimSpace(d); d != "" {
			opts.diagnostics = append(opts.diagnostics, d)
		}
	}

	if opts.sitesCSV == "" && len(opts.latitudes) == 0 {
		return nil, errors.New("either --sites or the coordinate list flags are required")
	}
	return opts, nil
}

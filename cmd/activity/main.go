package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"maicli/internal/activity"
	"maicli/internal/config"
	"maicli/internal/exporter"
	"maicli/internal/files"
	"maicli/internal/infrastructure"
)

func main() {
	dataDir := flag.String("data", "", "input directory with provider exports (defaults to configured data dir)")
	outDir := flag.String("out", "", "output directory for derived tables (defaults to configured out dir)")
	group := flag.String("group", "", "restrict the run to one location group")
	locations := flag.String("locations", "", "comma-separated location names to process (defaults to all discovered)")
	country := flag.String("country", "", "country the locations belong to, used for coordinate fixes")
	configFile := flag.String("config", "", "path to config file (defaults to config.yaml if present)")
	workers := flag.Int("workers", 4, "number of locations processed concurrently")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	if *dataDir == "" {
		*dataDir = cfg.Paths.DataDir
	}
	if *outDir == "" {
		*outDir = cfg.Paths.OutDir
	}

	params, err := cfg.Pipeline.Params()
	if err != nil {
		logger.Error("Invalid pipeline configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.WithRunID(ctx, uuid.NewString())

	if err := run(ctx, logger, params, *dataDir, *outDir, *group, *locations, *country, *workers); err != nil {
		logger.ErrorContext(ctx, "Run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, params activity.Params, dataDir, outDir, group, locationList, country string, workers int) error {
	store := files.NewStore(dataDir)
	writer := exporter.NewCSVWriter(outDir)

	locs, err := store.DiscoverLocations()
	if err != nil {
		return fmt.Errorf("discover locations: %w", err)
	}
	locs = filterLocations(locs, group, locationList)
	if len(locs) == 0 {
		return fmt.Errorf("no locations to process in %s", dataDir)
	}

	logger.InfoContext(ctx, "Starting activity run",
		"data_dir", dataDir,
		"out_dir", outDir,
		"locations", len(locs),
		"workers", workers,
	)

	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	processor := activity.NewProcessor(params, logger)
	for _, loc := range locs {
		g.Go(func() error {
			return processLocation(gctx, logger, processor, store, writer, loc, country)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Activity run completed", "locations", len(locs))
	return nil
}

// processLocation derives and writes one location's activity table. Locations
// without a derivable market signal are skipped, not failed: a batch run over
// many markets should survive the empty ones.
func processLocation(ctx context.Context, logger *slog.Logger, processor *activity.Processor, store *files.Store, writer *exporter.CSVWriter, loc files.Location, country string) error {
	props, err := store.LoadImageProperties(loc.Group, loc.Name)
	if err != nil {
		return fmt.Errorf("location %s: %w", loc.Name, err)
	}
	obs, err := store.LoadAreaObservations(loc.Group, loc.Name)
	if err != nil {
		return fmt.Errorf("location %s: %w", loc.Name, err)
	}
	shapes, err := store.LoadAreaShapes(loc.Group, loc.Name)
	if err != nil {
		return fmt.Errorf("location %s: %w", loc.Name, err)
	}

	result, err := processor.Run(ctx, activity.Input{
		Location:      loc.Name,
		LocationGroup: loc.Group,
		Country:       country,
		Properties:    props,
		Observations:  obs,
		Shapes:        shapes,
	})
	if err != nil {
		if errors.Is(err, activity.ErrNoMarketDay) {
			logger.WarnContext(ctx, "Skipping location without market signal", "location", loc.Name)
			return nil
		}
		return fmt.Errorf("location %s: %w", loc.Name, err)
	}

	if err := writer.WriteActivityTable(loc.Name, result.Records); err != nil {
		return fmt.Errorf("location %s: write activity table: %w", loc.Name, err)
	}
	if len(result.MarketShapes) > 0 {
		if err := writer.WriteShapesSummary(loc.Name, result.MarketShapes); err != nil {
			return fmt.Errorf("location %s: write shapes summary: %w", loc.Name, err)
		}
	}
	return nil
}

func filterLocations(locs []files.Location, group, locationList string) []files.Location {
	wanted := make(map[string]bool)
	for _, name := range strings.Split(locationList, ",") {
		if name = strings.TrimSpace(name); name != "" {
			wanted[name] = true
		}
	}

	var out []files.Location
	for _, loc := range locs {
		if group != "" && loc.Group != group {
			continue
		}
		if len(wanted) > 0 && !wanted[loc.Name] {
			continue
		}
		out = append(out, loc)
	}
	return out
}

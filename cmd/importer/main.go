package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"climate-platform/internal/config"
	"climate-platform/internal/nasa"
	"climate-platform/internal/repository"
	"climate-platform/internal/services"
	"climate-platform/pkg/database"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	kindFlag := flag.String("type", "", "Import type: "+kindList())
	file := flag.String("file", "", "JSON payload file, '-' for stdin (weather, regions, climate_indicators, nasa_weather)")
	station := flag.String("station", "", "Station code for sample_weather")
	days := flag.Int("days", services.DefaultSampleDays, "Days of data for sample_weather")
	source := flag.String("source", "cli", "Free-form label for where the data came from")
	flag.Parse()

	kind, err := services.ParseImportKind(*kindFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	payload, err := readPayload(kind, *file, *station, *days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read payload: %v\n", err)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("climate-importer", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "[IMPORTER_START] Starting climate data import", logging.Fields{
		"type":   string(kind),
		"file":   *file,
		"source": *source,
	})

	metricsCollector := metrics.NewCollector("climate_importer")

	db, err := database.NewPostgresDB(cfg.Database.PostgresConfig(), logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[IMPORTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	repo := repository.NewClimateRepository(db, logger)
	fetcher := nasa.NewClient(nasa.Config{
		BaseURL:           cfg.NASA.BaseURL,
		Community:         cfg.NASA.Community,
		Timeout:           cfg.NASA.Timeout,
		RequestsPerSecond: cfg.NASA.RequestsPerSecond,
		Burst:             cfg.NASA.Burst,
	}, logger, metricsCollector)
	importService := services.NewDataImportService(repo, fetcher, services.NewSampleGenerator(nil, nil), logger, metricsCollector)

	report, importErr := importService.ImportPayload(ctx, kind, payload)

	var invalid *services.InvalidWeatherDataError
	switch {
	case errors.As(importErr, &invalid):
		printJSON(invalid.Invalid)
	case report != nil:
		printJSON(report)
	}

	if importErr != nil {
		logger.Error(ctx, "[IMPORTER_ERROR] Import failed", logging.Fields{"type": string(kind)}, importErr)
		db.Close()
		os.Exit(1)
	}

	logger.Info(ctx, "[IMPORTER_COMPLETE] Import finished", logging.Fields{
		"type":       string(kind),
		"total":      report.Total,
		"successful": report.Successful,
		"failed":     report.Failed,
	})
}

func kindList() string {
	kinds := services.ImportKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// readPayload builds the data payload from flags for sample_weather and from
// the file (or stdin) for every other kind.
func readPayload(kind services.ImportKind, file, station string, days int) (json.RawMessage, error) {
	if kind == services.KindSampleWeather {
		return json.Marshal(services.SampleWeatherRequest{StationCode: station, Days: &days})
	}

	switch file {
	case "":
		return nil, fmt.Errorf("-file is required for %s imports", kind)
	case "-":
		return io.ReadAll(os.Stdin)
	default:
		return os.ReadFile(file)
	}
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
	}
}

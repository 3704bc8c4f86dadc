package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"climate-platform/internal/models"
	"climate-platform/internal/repository"
	"climate-platform/internal/services"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

// Runs the import pipeline end to end against the in-memory repository
func main() {
	station := flag.String("station", "WILSON", "Station code to generate data for")
	days := flag.Int("days", 7, "Days of sample data")
	flag.Parse()

	fmt.Println(strings.Repeat("=", 64))
	fmt.Println("CLIMATE PLATFORM - IMPORT PIPELINE DEMONSTRATION")
	fmt.Println(strings.Repeat("=", 64))
	fmt.Println()

	logger := logging.NewStructuredLogger("climate-sample", "1.0.0", logging.InfoLevel)
	defer logger.Sync()
	ctx := context.Background()

	repo := repository.NewMemoryRepository()
	repo.AddStation(models.WeatherStation{
		StationCode: *station,
		StationName: *station + " Demo Station",
		Latitude:    -1.3192,
		Longitude:   36.8142,
		IsActive:    true,
	})

	collector := metrics.NewCollectorWithRegistry("climate_sample", prometheus.NewRegistry())
	importService := services.NewDataImportService(repo, nil, services.NewSampleGenerator(nil, nil), logger, collector)
	weatherService := services.NewWeatherService(repo, logger)

	// Generate and validate
	points := importService.GenerateSample(*station, *days)
	if len(points) == 0 {
		fmt.Fprintln(os.Stderr, "-days must be at least 1")
		os.Exit(2)
	}
	fmt.Printf("Generated %d observations for %s\n\n", len(points), *station)

	for _, p := range points {
		result := services.ValidateWeatherData(p)
		status := "ok"
		if !result.IsValid {
			status = strings.Join(result.Issues, "; ")
		}
		fmt.Printf("  %s  temp=%5.1f°C  humidity=%3.0f%%  rain=%5.1fmm  wind=%4.1fkm/h  %s\n",
			p.Timestamp.Format("2006-01-02"),
			deref(p.TemperatureCelsius),
			deref(p.HumidityPercent),
			deref(p.RainfallMM),
			deref(p.WindSpeedKMH),
			status,
		)
	}
	fmt.Println()

	// Import twice to show upsert keeps one row per (station, timestamp)
	for run := 1; run <= 2; run++ {
		report, err := importService.ImportWeatherData(ctx, points)
		if err != nil {
			logger.Error(ctx, "[SAMPLE_ERROR] Import failed", logging.Fields{"run": run}, err)
			os.Exit(1)
		}
		fmt.Printf("Import run %d: total=%d successful=%d failed=%d stored=%d\n",
			run, report.Total, report.Successful, report.Failed, repo.WeatherCount())
	}

	// One unknown station and one out-of-range record
	bad := []models.WeatherDataPoint{points[0], points[0]}
	bad[0].StationCode = "UNKNOWN"
	bad[1].HumidityPercent = models.Float(140)

	report, err := importService.ImportWeatherData(ctx, bad)
	if err != nil {
		logger.Error(ctx, "[SAMPLE_ERROR] Import failed", logging.Fields{}, err)
		os.Exit(1)
	}
	fmt.Println()
	fmt.Println("Rejected records:")
	for _, r := range report.Results {
		if !r.Success {
			fmt.Printf("  [%d] %s (%s): %s\n", r.Index, r.Key, r.Reason, r.Error)
		}
	}

	summary, err := weatherService.GetWeatherSummary(ctx, *station, nil, nil)
	if err != nil {
		logger.Error(ctx, "[SAMPLE_ERROR] Summary failed", logging.Fields{}, err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("-", 64))
	fmt.Printf("Station:           %s\n", summary.StationCode)
	fmt.Printf("Observations:      %d\n", summary.ObservationCount)
	fmt.Printf("Avg Temperature:   %.2f°C\n", deref(summary.AvgTemperatureCelsius))
	fmt.Printf("Min / Max:         %.1f°C / %.1f°C\n", deref(summary.MinTemperatureCelsius), deref(summary.MaxTemperatureCelsius))
	fmt.Printf("Avg Humidity:      %.1f%%\n", deref(summary.AvgHumidityPercent))
	fmt.Printf("Total Rainfall:    %.1fmm\n", deref(summary.TotalRainfallMM))
	fmt.Printf("Max Wind Speed:    %.1fkm/h\n", deref(summary.MaxWindSpeedKMH))
	fmt.Println(strings.Repeat("-", 64))
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

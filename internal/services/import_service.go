package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"climate-platform/internal/models"
	"climate-platform/internal/repository"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

// WeatherFetcher retrieves daily observations for a point from an external source
type WeatherFetcher interface {
	FetchDaily(ctx context.Context, latitude, longitude float64, start, end models.Date) ([]models.WeatherDataPoint, error)
}

// NASAWeatherRequest describes one POWER import for a station
type NASAWeatherRequest struct {
	StationCode string      `json:"stationCode"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	StartDate   models.Date `json:"startDate"`
	EndDate     models.Date `json:"endDate"`
}

// Validate checks the request before any remote call is made
func (r NASAWeatherRequest) Validate() error {
	switch {
	case r.StationCode == "":
		return &models.ValidationError{Field: "stationCode", Message: "stationCode is required"}
	case r.StartDate.IsZero() || r.EndDate.IsZero():
		return &models.ValidationError{Field: "startDate", Message: "startDate and endDate are required"}
	case r.EndDate.Before(r.StartDate.Time):
		return &models.ValidationError{
			Field:   "endDate",
			Value:   r.EndDate.String(),
			Message: fmt.Sprintf("endDate %s is before startDate %s", r.EndDate, r.StartDate),
		}
	case r.Latitude < -90 || r.Latitude > 90:
		return &models.ValidationError{Field: "latitude", Value: fmt.Sprint(r.Latitude), Message: "latitude must be between -90 and 90"}
	case r.Longitude < -180 || r.Longitude > 180:
		return &models.ValidationError{Field: "longitude", Value: fmt.Sprint(r.Longitude), Message: "longitude must be between -180 and 180"}
	}
	return nil
}

// DataImportService imports observations, regions and indicators record by record
type DataImportService struct {
	repo      repository.ClimateRepository
	fetcher   WeatherFetcher
	generator *SampleGenerator
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewDataImportService creates a new import service
func NewDataImportService(
	repo repository.ClimateRepository,
	fetcher WeatherFetcher,
	generator *SampleGenerator,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *DataImportService {
	return &DataImportService{
		repo:      repo,
		fetcher:   fetcher,
		generator: generator,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// recordFunc imports the i-th record. A non-empty reason marks a record failure.
type recordFunc func(ctx context.Context, i int) (key, id, reason string, err error)

// runBatch drives a batch sequentially in input order. Record failures are
// isolated; a lost database or a cancelled context stops the batch and the
// partial report is returned with the error.
func (s *DataImportService) runBatch(ctx context.Context, kind ImportKind, total int, fn recordFunc) (*models.ImportReport, error) {
	importType := string(kind)
	timer := s.metrics.NewTimer(s.metrics.ImportDuration.WithLabelValues(importType))
	s.metrics.ImportBatchSize.WithLabelValues(importType).Observe(float64(total))

	s.logger.Info(ctx, "[IMPORT_START] Starting import", logging.Fields{
		"import_type": importType,
		"total":       total,
	})

	report := models.NewImportReport(total)

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return report, s.abort(ctx, kind, report, "cancelled", err)
		}

		key, id, reason, err := fn(ctx, i)
		if err == nil {
			report.Succeed(i, key, id)
			s.metrics.RecordImportRecord(importType, metrics.OutcomeSuccess)
			continue
		}

		report.Fail(i, key, reason, err)
		s.metrics.RecordImportRecord(importType, reason)

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return report, s.abort(ctx, kind, report, "cancelled", err)
		}
		if repository.IsConnectionError(err) {
			return report, s.abort(ctx, kind, report, "connection", err)
		}

		s.logger.Warn(ctx, "[IMPORT_RECORD_FAILED] Record skipped", logging.Fields{
			"import_type": importType,
			"index":       i,
			"key":         key,
			"reason":      reason,
			"error":       err.Error(),
		})
	}

	duration := timer.ObserveDuration()

	s.logger.Info(ctx, "[IMPORT_COMPLETE] Import completed", logging.Fields{
		"import_type":      importType,
		"total":            report.Total,
		"successful":       report.Successful,
		"failed":           report.Failed,
		"duration_seconds": duration.Seconds(),
	})

	return report, nil
}

func (s *DataImportService) abort(ctx context.Context, kind ImportKind, report *models.ImportReport, cause string, err error) error {
	s.metrics.RecordImportAbort(string(kind), cause)
	s.logger.Error(ctx, "[IMPORT_ABORTED] Import stopped before completion", logging.Fields{
		"import_type": string(kind),
		"cause":       cause,
		"processed":   report.Processed(),
		"total":       report.Total,
	}, err)
	return fmt.Errorf("%s import aborted after %d of %d records: %w", kind, report.Processed(), report.Total, err)
}

// lookupReason classifies a repository lookup failure
func lookupReason(err error) string {
	if repository.IsNotFound(err) {
		return models.ReasonLookup
	}
	return models.ReasonPersistence
}

// ImportWeatherData validates, resolves and upserts each observation
func (s *DataImportService) ImportWeatherData(ctx context.Context, points []models.WeatherDataPoint) (*models.ImportReport, error) {
	return s.importWeather(ctx, KindWeather, points)
}

func (s *DataImportService) importWeather(ctx context.Context, kind ImportKind, points []models.WeatherDataPoint) (*models.ImportReport, error) {
	stationIDs := make(map[string]string)

	return s.runBatch(ctx, kind, len(points), func(ctx context.Context, i int) (string, string, string, error) {
		point := &points[i]
		key := point.StationCode
		if !point.Timestamp.IsZero() {
			key += "@" + point.Timestamp.UTC().Format(time.RFC3339)
		}

		if result := ValidateWeatherData(*point); !result.IsValid {
			return key, "", models.ReasonValidation, result.asValidationError(point.StationCode)
		}

		stationID, ok := stationIDs[point.StationCode]
		if !ok {
			id, err := s.repo.FindStationIDByCode(ctx, point.StationCode)
			if err != nil {
				return key, "", lookupReason(err), err
			}
			stationID = id
			stationIDs[point.StationCode] = id
		}

		id, err := s.repo.UpsertWeatherData(ctx, stationID, point)
		if err != nil {
			return key, "", models.ReasonPersistence, err
		}
		return key, id, "", nil
	})
}

// ImportRegionData upserts each region on its county code
func (s *DataImportService) ImportRegionData(ctx context.Context, regions []models.Region) (*models.ImportReport, error) {
	return s.runBatch(ctx, KindRegions, len(regions), func(ctx context.Context, i int) (string, string, string, error) {
		region := &regions[i]
		key := region.CountyCode

		if region.CountyCode == "" {
			return region.Name, "", models.ReasonValidation, &models.ValidationError{
				Field:   "county_code",
				Value:   region.Name,
				Message: "Missing county code",
			}
		}

		id, err := s.repo.UpsertRegion(ctx, region)
		if err != nil {
			return key, "", models.ReasonPersistence, err
		}
		return key, id, "", nil
	})
}

// ImportClimateIndicators resolves each indicator's region and appends a new row
func (s *DataImportService) ImportClimateIndicators(ctx context.Context, indicators []models.ClimateIndicator) (*models.ImportReport, error) {
	regionIDs := make(map[string]string)

	return s.runBatch(ctx, KindClimateIndicators, len(indicators), func(ctx context.Context, i int) (string, string, string, error) {
		indicator := &indicators[i]
		key := indicator.RegionName + "/" + indicator.IndicatorName

		if indicator.RegionName == "" {
			return key, "", models.ReasonValidation, &models.ValidationError{
				Field:   "region_name",
				Message: "Missing region name",
			}
		}

		regionID, ok := regionIDs[indicator.RegionName]
		if !ok {
			id, err := s.repo.FindRegionIDByName(ctx, indicator.RegionName)
			if err != nil {
				return key, "", lookupReason(err), err
			}
			regionID = id
			regionIDs[indicator.RegionName] = id
		}

		id, err := s.repo.InsertClimateIndicator(ctx, regionID, indicator)
		if err != nil {
			return key, "", models.ReasonPersistence, err
		}
		return key, id, "", nil
	})
}

// ImportNASAWeather fetches POWER data for the request and imports it for the station.
// A fetch failure aborts before anything is written.
func (s *DataImportService) ImportNASAWeather(ctx context.Context, req NASAWeatherRequest) (*models.ImportReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.fetcher == nil {
		return nil, errors.New("no external weather source configured")
	}

	points, err := s.fetcher.FetchDaily(ctx, req.Latitude, req.Longitude, req.StartDate, req.EndDate)
	if err != nil {
		s.metrics.RecordImportAbort(string(KindNASAWeather), "fetch")
		return nil, fmt.Errorf("failed to fetch weather for %s: %w", req.StationCode, err)
	}

	for i := range points {
		points[i].StationCode = req.StationCode
	}

	return s.importWeather(ctx, KindNASAWeather, points)
}

// ImportSampleWeather generates days of synthetic observations and imports them
func (s *DataImportService) ImportSampleWeather(ctx context.Context, stationCode string, days int) (*models.ImportReport, error) {
	if stationCode == "" {
		return nil, &models.ValidationError{Field: "stationCode", Message: "stationCode is required"}
	}
	return s.importWeather(ctx, KindSampleWeather, s.generator.Generate(stationCode, days))
}

// GenerateSample returns synthetic observations without importing them
func (s *DataImportService) GenerateSample(stationCode string, days int) []models.WeatherDataPoint {
	return s.generator.Generate(stationCode, days)
}

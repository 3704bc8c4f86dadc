package services

import (
	"context"
	"time"

	"climate-platform/internal/models"
	"climate-platform/internal/repository"
	"climate-platform/pkg/logging"
)

// WeatherService handles read-side climate data operations
type WeatherService struct {
	repo   repository.ClimateRepository
	logger *logging.StructuredLogger
}

// NewWeatherService creates a new weather service
func NewWeatherService(repo repository.ClimateRepository, logger *logging.StructuredLogger) *WeatherService {
	return &WeatherService{
		repo:   repo,
		logger: logger,
	}
}

// GetWeatherData retrieves observations with filtering
func (s *WeatherService) GetWeatherData(ctx context.Context, filter repository.WeatherFilter) ([]*models.WeatherRecord, error) {
	return s.repo.GetWeatherData(ctx, filter)
}

// GetWeatherSummary aggregates one station's observations over an optional window
func (s *WeatherService) GetWeatherSummary(ctx context.Context, stationCode string, start, end *time.Time) (*models.WeatherSummary, error) {
	summary, err := s.repo.GetWeatherSummary(ctx, stationCode, start, end)
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "[WEATHER_SUMMARY] Summary computed", logging.Fields{
		"station_code":      stationCode,
		"observation_count": summary.ObservationCount,
	})

	return summary, nil
}

// ListRegions retrieves regions with filtering
func (s *WeatherService) ListRegions(ctx context.Context, filter repository.RegionFilter) ([]*models.Region, error) {
	return s.repo.ListRegions(ctx, filter)
}

// GetStations retrieves weather stations
func (s *WeatherService) GetStations(ctx context.Context, limit, offset int) ([]*models.WeatherStation, error) {
	return s.repo.ListStations(ctx, limit, offset)
}

// HealthCheck reports whether the data store is reachable
func (s *WeatherService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

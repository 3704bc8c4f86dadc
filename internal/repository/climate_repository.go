package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"climate-platform/internal/models"
	"climate-platform/pkg/database"
	"climate-platform/pkg/logging"
)

// ClimateRepository provides data access for stations, regions, observations and indicators
type ClimateRepository interface {
	// Station operations
	FindStationIDByCode(ctx context.Context, stationCode string) (string, error)
	ListStations(ctx context.Context, limit, offset int) ([]*models.WeatherStation, error)
	ListActiveStations(ctx context.Context) ([]*models.WeatherStation, error)

	// Region operations
	UpsertRegion(ctx context.Context, region *models.Region) (string, error)
	FindRegionIDByName(ctx context.Context, name string) (string, error)
	ListRegions(ctx context.Context, filter RegionFilter) ([]*models.Region, error)

	// Observation operations
	UpsertWeatherData(ctx context.Context, stationID string, point *models.WeatherDataPoint) (string, error)
	GetWeatherData(ctx context.Context, filter WeatherFilter) ([]*models.WeatherRecord, error)
	GetWeatherSummary(ctx context.Context, stationCode string, start, end *time.Time) (*models.WeatherSummary, error)

	// Indicator operations
	InsertClimateIndicator(ctx context.Context, regionID string, indicator *models.ClimateIndicator) (string, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// WeatherFilter defines filters for querying observations
type WeatherFilter struct {
	StationCode *string
	StartDate   *time.Time
	EndDate     *time.Time
	Limit       int
	Offset      int
}

// RegionFilter defines filters for querying regions
type RegionFilter struct {
	CountyCode *string
	CountyName *string
	Limit      int
	Offset     int
}

// climateRepository implements ClimateRepository on Postgres
type climateRepository struct {
	db     *database.PostgresDB
	logger *logging.StructuredLogger
}

// NewClimateRepository creates a new Postgres-backed repository
func NewClimateRepository(db *database.PostgresDB, logger *logging.StructuredLogger) ClimateRepository {
	return &climateRepository{
		db:     db,
		logger: logger,
	}
}

// FindStationIDByCode resolves a station code to the station's internal id
func (r *climateRepository) FindStationIDByCode(ctx context.Context, stationCode string) (string, error) {
	query := `SELECT id FROM weather_stations WHERE station_code = $1`

	var id string
	err := r.db.GetContext(ctx, "find_station_id", &id, query, stationCode)

	if errors.Is(err, sql.ErrNoRows) {
		return "", &NotFoundError{
			Resource: "weather_station",
			ID:       stationCode,
		}
	}

	if err != nil {
		return "", fmt.Errorf("failed to look up station: %w", err)
	}

	return id, nil
}

const stationColumns = `id, station_code, station_name, region_id, latitude, longitude, elevation_m, is_active, created_at`

// ListStations retrieves weather stations with pagination
func (r *climateRepository) ListStations(ctx context.Context, limit, offset int) ([]*models.WeatherStation, error) {
	query := `SELECT ` + stationColumns + `
		FROM weather_stations
		ORDER BY station_code
		LIMIT $1 OFFSET $2
	`

	stations := []*models.WeatherStation{}
	if err := r.db.SelectContext(ctx, "list_stations", &stations, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}

	return stations, nil
}

// ListActiveStations retrieves every station flagged active
func (r *climateRepository) ListActiveStations(ctx context.Context) ([]*models.WeatherStation, error) {
	query := `SELECT ` + stationColumns + `
		FROM weather_stations
		WHERE is_active = TRUE
		ORDER BY station_code
	`

	stations := []*models.WeatherStation{}
	if err := r.db.SelectContext(ctx, "list_active_stations", &stations, query); err != nil {
		return nil, fmt.Errorf("failed to list active stations: %w", err)
	}

	return stations, nil
}

// UpsertRegion creates a region or overwrites the one with the same county code
func (r *climateRepository) UpsertRegion(ctx context.Context, region *models.Region) (string, error) {
	query := `
		INSERT INTO regions (
			name, county_code, county_name, sub_county, ward,
			latitude, longitude, area_km2, population, elevation_m
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (county_code) DO UPDATE SET
			name = EXCLUDED.name,
			county_name = EXCLUDED.county_name,
			sub_county = EXCLUDED.sub_county,
			ward = EXCLUDED.ward,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			area_km2 = EXCLUDED.area_km2,
			population = EXCLUDED.population,
			elevation_m = EXCLUDED.elevation_m,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	id, err := r.db.InsertReturningID(ctx, "upsert_region", query,
		region.Name,
		region.CountyCode,
		region.CountyName,
		region.SubCounty,
		region.Ward,
		region.Latitude,
		region.Longitude,
		region.AreaKM2,
		region.Population,
		region.ElevationM,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert region: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_UPSERT_REGION] Region stored", logging.Fields{
		"county_code": region.CountyCode,
		"region_id":   id,
	})

	return id, nil
}

// FindRegionIDByName resolves a region name to its id
func (r *climateRepository) FindRegionIDByName(ctx context.Context, name string) (string, error) {
	query := `SELECT id FROM regions WHERE name = $1 ORDER BY county_code LIMIT 1`

	var id string
	err := r.db.GetContext(ctx, "find_region_id", &id, query, name)

	if errors.Is(err, sql.ErrNoRows) {
		return "", &NotFoundError{
			Resource: "region",
			ID:       name,
		}
	}

	if err != nil {
		return "", fmt.Errorf("failed to look up region: %w", err)
	}

	return id, nil
}

// ListRegions retrieves regions with filtering and pagination
func (r *climateRepository) ListRegions(ctx context.Context, filter RegionFilter) ([]*models.Region, error) {
	query := `
		SELECT id, name, county_code, county_name, sub_county, ward,
		       latitude, longitude, area_km2, population, elevation_m,
		       created_at, updated_at
		FROM regions
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.CountyCode != nil {
		query += fmt.Sprintf(" AND county_code = $%d", argNum)
		args = append(args, *filter.CountyCode)
		argNum++
	}

	if filter.CountyName != nil {
		query += fmt.Sprintf(" AND county_name ILIKE $%d", argNum)
		args = append(args, "%"+*filter.CountyName+"%")
		argNum++
	}

	query += " ORDER BY county_name"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	regions := []*models.Region{}
	if err := r.db.SelectContext(ctx, "list_regions", &regions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}

	return regions, nil
}

// UpsertWeatherData stores an observation, overwriting every measurement of an
// existing (station, timestamp) row. The last write wins.
func (r *climateRepository) UpsertWeatherData(ctx context.Context, stationID string, point *models.WeatherDataPoint) (string, error) {
	query := `
		INSERT INTO weather_data (
			station_id, timestamp, temperature_celsius, humidity_percent,
			rainfall_mm, wind_speed_kmh, wind_direction_degrees,
			atmospheric_pressure_hpa, solar_radiation_wm2,
			visibility_km, cloud_cover_percent, data_quality
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (station_id, timestamp) DO UPDATE SET
			temperature_celsius = EXCLUDED.temperature_celsius,
			humidity_percent = EXCLUDED.humidity_percent,
			rainfall_mm = EXCLUDED.rainfall_mm,
			wind_speed_kmh = EXCLUDED.wind_speed_kmh,
			wind_direction_degrees = EXCLUDED.wind_direction_degrees,
			atmospheric_pressure_hpa = EXCLUDED.atmospheric_pressure_hpa,
			solar_radiation_wm2 = EXCLUDED.solar_radiation_wm2,
			visibility_km = EXCLUDED.visibility_km,
			cloud_cover_percent = EXCLUDED.cloud_cover_percent,
			data_quality = EXCLUDED.data_quality,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	id, err := r.db.InsertReturningID(ctx, "upsert_weather_data", query,
		stationID,
		point.Timestamp.UTC(),
		point.TemperatureCelsius,
		point.HumidityPercent,
		point.RainfallMM,
		point.WindSpeedKMH,
		point.WindDirectionDegrees,
		point.PressureHPA,
		point.SolarRadiationWM2,
		point.VisibilityKM,
		point.CloudCoverPercent,
		point.Quality(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert weather data: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_UPSERT_WEATHER] Observation stored", logging.Fields{
		"station_id": stationID,
		"timestamp":  point.Timestamp.UTC().Format(time.RFC3339),
		"id":         id,
	})

	return id, nil
}

// GetWeatherData retrieves observations joined with station and region, newest first
func (r *climateRepository) GetWeatherData(ctx context.Context, filter WeatherFilter) ([]*models.WeatherRecord, error) {
	query := `
		SELECT
			wd.id, wd.station_id, wd.timestamp,
			wd.temperature_celsius, wd.humidity_percent, wd.rainfall_mm,
			wd.wind_speed_kmh, wd.wind_direction_degrees,
			wd.atmospheric_pressure_hpa, wd.solar_radiation_wm2,
			wd.visibility_km, wd.cloud_cover_percent, wd.data_quality,
			ws.station_code, ws.station_name, ws.latitude, ws.longitude,
			r.county_name, r.name AS region_name
		FROM weather_data wd
		JOIN weather_stations ws ON wd.station_id = ws.id
		LEFT JOIN regions r ON ws.region_id = r.id
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.StationCode != nil {
		query += fmt.Sprintf(" AND ws.station_code = $%d", argNum)
		args = append(args, *filter.StationCode)
		argNum++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND wd.timestamp >= $%d", argNum)
		args = append(args, *filter.StartDate)
		argNum++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND wd.timestamp <= $%d", argNum)
		args = append(args, *filter.EndDate)
		argNum++
	}

	query += " ORDER BY wd.timestamp DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	records := []*models.WeatherRecord{}
	if err := r.db.SelectContext(ctx, "get_weather_data", &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get weather data: %w", err)
	}

	return records, nil
}

// GetWeatherSummary aggregates a station's observations within an optional window
func (r *climateRepository) GetWeatherSummary(ctx context.Context, stationCode string, start, end *time.Time) (*models.WeatherSummary, error) {
	query := `
		SELECT
			ws.station_code,
			COUNT(wd.id) AS observation_count,
			AVG(wd.temperature_celsius) AS avg_temperature_celsius,
			MIN(wd.temperature_celsius) AS min_temperature_celsius,
			MAX(wd.temperature_celsius) AS max_temperature_celsius,
			AVG(wd.humidity_percent) AS avg_humidity_percent,
			SUM(wd.rainfall_mm) AS total_rainfall_mm,
			MAX(wd.wind_speed_kmh) AS max_wind_speed_kmh,
			MIN(wd.timestamp) AS first_observation,
			MAX(wd.timestamp) AS last_observation
		FROM weather_stations ws
		LEFT JOIN weather_data wd ON wd.station_id = ws.id
			AND ($2::timestamptz IS NULL OR wd.timestamp >= $2)
			AND ($3::timestamptz IS NULL OR wd.timestamp <= $3)
		WHERE ws.station_code = $1
		GROUP BY ws.station_code
	`

	var summary models.WeatherSummary
	err := r.db.GetContext(ctx, "weather_summary", &summary, query, stationCode, start, end)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{
			Resource: "weather_station",
			ID:       stationCode,
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to summarize weather data: %w", err)
	}

	return &summary, nil
}

// InsertClimateIndicator appends a new indicator row; indicators are never updated
func (r *climateRepository) InsertClimateIndicator(ctx context.Context, regionID string, indicator *models.ClimateIndicator) (string, error) {
	query := `
		INSERT INTO climate_indicators (
			region_id, indicator_name, indicator_type, value, unit,
			measurement_date, data_source, confidence_level
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	id, err := r.db.InsertReturningID(ctx, "insert_climate_indicator", query,
		regionID,
		indicator.IndicatorName,
		indicator.IndicatorType,
		indicator.Value,
		indicator.Unit,
		indicator.MeasurementDate.Time,
		indicator.DataSource,
		indicator.ConfidenceLevel,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert climate indicator: %w", err)
	}

	return id, nil
}

// HealthCheck performs a repository health check
func (r *climateRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

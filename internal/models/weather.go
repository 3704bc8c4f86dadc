package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// DefaultDataQuality is stored when an observation carries no quality tag.
const DefaultDataQuality = "good"

// WeatherStation represents a weather monitoring station
type WeatherStation struct {
	ID          string    `json:"id" db:"id"`
	StationCode string    `json:"station_code" db:"station_code"`
	StationName string    `json:"station_name" db:"station_name"`
	RegionID    *string   `json:"region_id,omitempty" db:"region_id"`
	Latitude    float64   `json:"latitude" db:"latitude"`
	Longitude   float64   `json:"longitude" db:"longitude"`
	ElevationM  *float64  `json:"elevation_m,omitempty" db:"elevation_m"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// WeatherDataPoint is a single observation as submitted for import.
// Measurements are optional; nil means "not reported", never zero.
type WeatherDataPoint struct {
	StationCode          string    `json:"station_code"`
	Timestamp            time.Time `json:"timestamp"`
	TemperatureCelsius   *float64  `json:"temperature_celsius,omitempty"`
	HumidityPercent      *float64  `json:"humidity_percent,omitempty"`
	RainfallMM           *float64  `json:"rainfall_mm,omitempty"`
	WindSpeedKMH         *float64  `json:"wind_speed_kmh,omitempty"`
	WindDirectionDegrees *float64  `json:"wind_direction_degrees,omitempty"`
	PressureHPA          *float64  `json:"atmospheric_pressure_hpa,omitempty"`
	SolarRadiationWM2    *float64  `json:"solar_radiation_wm2,omitempty"`
	VisibilityKM         *float64  `json:"visibility_km,omitempty"`
	CloudCoverPercent    *float64  `json:"cloud_cover_percent,omitempty"`
	DataQuality          string    `json:"data_quality,omitempty"`
}

// UnmarshalJSON decodes a submitted observation. A null or blank timestamp
// leaves the zero time so validation reports it as missing.
func (p *WeatherDataPoint) UnmarshalJSON(data []byte) error {
	type plain WeatherDataPoint
	aux := struct {
		*plain
		Timestamp json.RawMessage `json:"timestamp"`
	}{plain: (*plain)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.Timestamp)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`)) {
		p.Timestamp = time.Time{}
		return nil
	}
	return json.Unmarshal(raw, &p.Timestamp)
}

// Quality returns the data quality tag, falling back to DefaultDataQuality
func (p *WeatherDataPoint) Quality() string {
	if p.DataQuality == "" {
		return DefaultDataQuality
	}
	return p.DataQuality
}

// WeatherRecord is a stored observation joined with its station and region
type WeatherRecord struct {
	ID                   string    `json:"id" db:"id"`
	StationID            string    `json:"station_id" db:"station_id"`
	Timestamp            time.Time `json:"timestamp" db:"timestamp"`
	TemperatureCelsius   *float64  `json:"temperature_celsius,omitempty" db:"temperature_celsius"`
	HumidityPercent      *float64  `json:"humidity_percent,omitempty" db:"humidity_percent"`
	RainfallMM           *float64  `json:"rainfall_mm,omitempty" db:"rainfall_mm"`
	WindSpeedKMH         *float64  `json:"wind_speed_kmh,omitempty" db:"wind_speed_kmh"`
	WindDirectionDegrees *float64  `json:"wind_direction_degrees,omitempty" db:"wind_direction_degrees"`
	PressureHPA          *float64  `json:"atmospheric_pressure_hpa,omitempty" db:"atmospheric_pressure_hpa"`
	SolarRadiationWM2    *float64  `json:"solar_radiation_wm2,omitempty" db:"solar_radiation_wm2"`
	VisibilityKM         *float64  `json:"visibility_km,omitempty" db:"visibility_km"`
	CloudCoverPercent    *float64  `json:"cloud_cover_percent,omitempty" db:"cloud_cover_percent"`
	DataQuality          string    `json:"data_quality" db:"data_quality"`
	StationCode          string    `json:"station_code" db:"station_code"`
	StationName          string    `json:"station_name" db:"station_name"`
	Latitude             float64   `json:"latitude" db:"latitude"`
	Longitude            float64   `json:"longitude" db:"longitude"`
	CountyName           *string   `json:"county_name,omitempty" db:"county_name"`
	RegionName           *string   `json:"region_name,omitempty" db:"region_name"`
}

// WeatherSummary aggregates a station's observations over a time window
type WeatherSummary struct {
	StationCode           string     `json:"station_code" db:"station_code"`
	ObservationCount      int        `json:"observation_count" db:"observation_count"`
	AvgTemperatureCelsius *float64   `json:"avg_temperature_celsius,omitempty" db:"avg_temperature_celsius"`
	MinTemperatureCelsius *float64   `json:"min_temperature_celsius,omitempty" db:"min_temperature_celsius"`
	MaxTemperatureCelsius *float64   `json:"max_temperature_celsius,omitempty" db:"max_temperature_celsius"`
	AvgHumidityPercent    *float64   `json:"avg_humidity_percent,omitempty" db:"avg_humidity_percent"`
	TotalRainfallMM       *float64   `json:"total_rainfall_mm,omitempty" db:"total_rainfall_mm"`
	MaxWindSpeedKMH       *float64   `json:"max_wind_speed_kmh,omitempty" db:"max_wind_speed_kmh"`
	FirstObservation      *time.Time `json:"first_observation,omitempty" db:"first_observation"`
	LastObservation       *time.Time `json:"last_observation,omitempty" db:"last_observation"`
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}

// Float returns a pointer to v. Handy for optional measurements.
func Float(v float64) *float64 {
	return &v
}

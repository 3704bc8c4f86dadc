package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"climate-platform/internal/models"
)

// ImportKind selects which importer handles a payload
type ImportKind string

const (
	KindWeather           ImportKind = "weather"
	KindRegions           ImportKind = "regions"
	KindClimateIndicators ImportKind = "climate_indicators"
	KindNASAWeather       ImportKind = "nasa_weather"
	KindSampleWeather     ImportKind = "sample_weather"
)

// DefaultSampleDays is used when a sample_weather payload omits days
const DefaultSampleDays = 30

// MaxSampleDays bounds sample_weather payloads
const MaxSampleDays = 3650

var importKinds = []ImportKind{
	KindWeather,
	KindRegions,
	KindClimateIndicators,
	KindNASAWeather,
	KindSampleWeather,
}

// ImportKinds lists every supported import type
func ImportKinds() []ImportKind {
	out := make([]ImportKind, len(importKinds))
	copy(out, importKinds)
	return out
}

// ParseImportKind maps a type discriminator onto an ImportKind
func ParseImportKind(s string) (ImportKind, error) {
	for _, k := range importKinds {
		if string(k) == s {
			return k, nil
		}
	}

	names := make([]string, len(importKinds))
	for i, k := range importKinds {
		names[i] = string(k)
	}
	return "", &models.ValidationError{
		Field:   "type",
		Value:   s,
		Message: fmt.Sprintf("Invalid import type %q, expected one of: %s", s, strings.Join(names, ", ")),
	}
}

// SampleWeatherRequest is the sample_weather payload
type SampleWeatherRequest struct {
	StationCode string `json:"stationCode"`
	Days        *int   `json:"days,omitempty"`
}

// InvalidRecord is one weather record rejected by the pre-check
type InvalidRecord struct {
	Index  int                     `json:"index"`
	Record models.WeatherDataPoint `json:"record"`
	Issues []string                `json:"issues"`
}

// InvalidWeatherDataError rejects a whole weather payload when any record fails validation
type InvalidWeatherDataError struct {
	Invalid []InvalidRecord
}

func (e *InvalidWeatherDataError) Error() string {
	return fmt.Sprintf("%d weather records failed validation", len(e.Invalid))
}

// IsTransient returns false as validation errors are permanent
func (e *InvalidWeatherDataError) IsTransient() bool {
	return false
}

// PrevalidateWeather checks every record and returns an *InvalidWeatherDataError
// listing all failures, or nil when the whole batch is valid.
func PrevalidateWeather(points []models.WeatherDataPoint) error {
	var invalid []InvalidRecord
	for i, p := range points {
		if result := ValidateWeatherData(p); !result.IsValid {
			invalid = append(invalid, InvalidRecord{
				Index:  i,
				Record: p,
				Issues: result.Issues,
			})
		}
	}
	if len(invalid) > 0 {
		return &InvalidWeatherDataError{Invalid: invalid}
	}
	return nil
}

func decodePayload(raw json.RawMessage, dest interface{}) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("null")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return &models.ValidationError{
			Field:   "data",
			Message: fmt.Sprintf("Invalid data payload: %v", err),
		}
	}
	return nil
}

// ImportPayload decodes raw according to kind and runs the matching importer.
// Weather payloads are all-or-nothing at validation: one bad record rejects the request.
func (s *DataImportService) ImportPayload(ctx context.Context, kind ImportKind, raw json.RawMessage) (*models.ImportReport, error) {
	switch kind {
	case KindWeather:
		var points []models.WeatherDataPoint
		if err := decodePayload(raw, &points); err != nil {
			return nil, err
		}
		if err := PrevalidateWeather(points); err != nil {
			return nil, err
		}
		return s.ImportWeatherData(ctx, points)

	case KindRegions:
		var regions []models.Region
		if err := decodePayload(raw, &regions); err != nil {
			return nil, err
		}
		return s.ImportRegionData(ctx, regions)

	case KindClimateIndicators:
		var indicators []models.ClimateIndicator
		if err := decodePayload(raw, &indicators); err != nil {
			return nil, err
		}
		return s.ImportClimateIndicators(ctx, indicators)

	case KindNASAWeather:
		var req NASAWeatherRequest
		if err := decodePayload(raw, &req); err != nil {
			return nil, err
		}
		return s.ImportNASAWeather(ctx, req)

	case KindSampleWeather:
		var req SampleWeatherRequest
		if err := decodePayload(raw, &req); err != nil {
			return nil, err
		}
		days := DefaultSampleDays
		if req.Days != nil {
			days = *req.Days
		}
		if days < 1 || days > MaxSampleDays {
			return nil, &models.ValidationError{
				Field:   "days",
				Value:   fmt.Sprint(days),
				Message: fmt.Sprintf("days must be between 1 and %d", MaxSampleDays),
			}
		}
		return s.ImportSampleWeather(ctx, req.StationCode, days)
	}

	_, err := ParseImportKind(string(kind))
	return nil, err
}

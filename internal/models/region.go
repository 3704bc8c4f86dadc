package models

import (
	"time"
)

// Region is a first-level administrative area identified by its county code
type Region struct {
	ID         string    `json:"id,omitempty" db:"id"`
	Name       string    `json:"name" db:"name"`
	CountyCode string    `json:"county_code" db:"county_code"`
	CountyName string    `json:"county_name" db:"county_name"`
	SubCounty  *string   `json:"sub_county,omitempty" db:"sub_county"`
	Ward       *string   `json:"ward,omitempty" db:"ward"`
	Latitude   float64   `json:"latitude" db:"latitude"`
	Longitude  float64   `json:"longitude" db:"longitude"`
	AreaKM2    *float64  `json:"area_km2,omitempty" db:"area_km2"`
	Population *int64    `json:"population,omitempty" db:"population"`
	ElevationM *float64  `json:"elevation_m,omitempty" db:"elevation_m"`
	CreatedAt  time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// ClimateIndicator is a time-series fact about a region, e.g. an annual rainfall anomaly.
// Indicators are append-only: every import creates a new row.
type ClimateIndicator struct {
	RegionName      string   `json:"region_name"`
	IndicatorName   string   `json:"indicator_name"`
	IndicatorType   string   `json:"indicator_type"`
	Value           float64  `json:"value"`
	Unit            string   `json:"unit"`
	MeasurementDate Date     `json:"measurement_date"`
	DataSource      *string  `json:"data_source,omitempty"`
	ConfidenceLevel *float64 `json:"confidence_level,omitempty"`
}

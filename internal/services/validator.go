package services

import (
	"fmt"

	"climate-platform/internal/models"
)

// Accepted measurement ranges, inclusive
const (
	MinTemperatureCelsius = -50.0
	MaxTemperatureCelsius = 60.0
	MinHumidityPercent    = 0.0
	MaxHumidityPercent    = 100.0
	MinRainfallMM         = 0.0
	MaxRainfallMM         = 1000.0
	MinWindSpeedKMH       = 0.0
	MaxWindSpeedKMH       = 200.0
)

// ValidationResult lists every problem found in one observation
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Issues  []string `json:"issues"`
}

// ValidateWeatherData checks an observation for required fields and plausible
// measurement ranges. Absent measurements are not checked.
func ValidateWeatherData(point models.WeatherDataPoint) ValidationResult {
	issues := []string{}

	if point.StationCode == "" {
		issues = append(issues, "Missing station code")
	}

	if point.Timestamp.IsZero() {
		issues = append(issues, "Missing timestamp")
	}

	if v := point.TemperatureCelsius; v != nil && outside(*v, MinTemperatureCelsius, MaxTemperatureCelsius) {
		issues = append(issues, fmt.Sprintf("Temperature %.1f°C outside valid range (-50 to 60°C)", *v))
	}

	if v := point.HumidityPercent; v != nil && outside(*v, MinHumidityPercent, MaxHumidityPercent) {
		issues = append(issues, fmt.Sprintf("Humidity %.1f%% outside valid range (0 to 100%%)", *v))
	}

	if v := point.RainfallMM; v != nil && outside(*v, MinRainfallMM, MaxRainfallMM) {
		issues = append(issues, fmt.Sprintf("Rainfall %.1fmm outside valid range (0 to 1000mm)", *v))
	}

	if v := point.WindSpeedKMH; v != nil && outside(*v, MinWindSpeedKMH, MaxWindSpeedKMH) {
		issues = append(issues, fmt.Sprintf("Wind speed %.1fkm/h outside valid range (0 to 200km/h)", *v))
	}

	return ValidationResult{
		IsValid: len(issues) == 0,
		Issues:  issues,
	}
}

// NaN fails both comparisons, so it is reported as out of range too.
func outside(v, lo, hi float64) bool {
	return !(v >= lo && v <= hi)
}

// asValidationError converts a failed result into the shared validation error type
func (r ValidationResult) asValidationError(stationCode string) *models.ValidationError {
	msg := "invalid weather data"
	if len(r.Issues) > 0 {
		msg = r.Issues[0]
		for _, issue := range r.Issues[1:] {
			msg += "; " + issue
		}
	}
	return &models.ValidationError{
		Field:   "weather_data",
		Value:   stationCode,
		Message: msg,
	}
}

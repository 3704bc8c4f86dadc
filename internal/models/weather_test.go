package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestWeatherDataPoint_DecodeOptionalFields(t *testing.T) {
	body := `{
		"station_code": "WILSON",
		"timestamp": "2024-01-01T06:30:00Z",
		"temperature_celsius": 0,
		"rainfall_mm": 12.5
	}`

	var p WeatherDataPoint
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if p.StationCode != "WILSON" {
		t.Errorf("StationCode = %v, want %v", p.StationCode, "WILSON")
	}

	expected := time.Date(2024, 1, 1, 6, 30, 0, 0, time.UTC)
	if !p.Timestamp.Equal(expected) {
		t.Errorf("Timestamp = %v, want %v", p.Timestamp, expected)
	}

	// An explicit zero is a reported value, not a missing one.
	if p.TemperatureCelsius == nil {
		t.Error("TemperatureCelsius should not be nil for explicit 0")
	} else if *p.TemperatureCelsius != 0 {
		t.Errorf("TemperatureCelsius = %v, want 0", *p.TemperatureCelsius)
	}

	if p.HumidityPercent != nil {
		t.Error("HumidityPercent should be nil when absent")
	}

	if p.RainfallMM == nil || *p.RainfallMM != 12.5 {
		t.Errorf("RainfallMM = %v, want 12.5", p.RainfallMM)
	}

	if p.Quality() != DefaultDataQuality {
		t.Errorf("Quality() = %v, want %v", p.Quality(), DefaultDataQuality)
	}
}

func TestWeatherDataPoint_DecodeTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantZero bool
		wantErr  bool
	}{
		{name: "rfc3339", body: `{"station_code":"WILSON","timestamp":"2024-01-01T06:30:00+03:00"}`},
		{name: "blank", body: `{"station_code":"WILSON","timestamp":""}`, wantZero: true},
		{name: "null", body: `{"station_code":"WILSON","timestamp":null}`, wantZero: true},
		{name: "absent", body: `{"station_code":"WILSON"}`, wantZero: true},
		{name: "malformed", body: `{"station_code":"WILSON","timestamp":"yesterday"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p WeatherDataPoint
			err := json.Unmarshal([]byte(tt.body), &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if p.StationCode != "WILSON" {
				t.Errorf("StationCode = %v, want WILSON", p.StationCode)
			}
			if p.Timestamp.IsZero() != tt.wantZero {
				t.Errorf("Timestamp = %v, wantZero %v", p.Timestamp, tt.wantZero)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "iso date", input: "2024-03-15", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "compact date", input: "20240315", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "rfc3339 truncated to day", input: "2024-03-15T23:10:00+03:00", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", input: "15/03/2024", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("error should be a *ValidationError, got %T", err)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate() = %v, want %v", got.Time, tt.want)
			}
		})
	}
}

func TestDate_JSON(t *testing.T) {
	var ind ClimateIndicator
	if err := json.Unmarshal([]byte(`{"region_name":"Nairobi","measurement_date":"20230101"}`), &ind); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if ind.MeasurementDate.String() != "2023-01-01" {
		t.Errorf("MeasurementDate = %v, want 2023-01-01", ind.MeasurementDate)
	}
	if ind.MeasurementDate.Compact() != "20230101" {
		t.Errorf("Compact() = %v, want 20230101", ind.MeasurementDate.Compact())
	}

	out, err := json.Marshal(ind.MeasurementDate)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != `"2023-01-01"` {
		t.Errorf("Marshal() = %s, want \"2023-01-01\"", out)
	}

	if err := json.Unmarshal([]byte(`{"measurement_date":"yesterday"}`), &ind); err == nil {
		t.Error("Unmarshal() should reject an unparseable date")
	}
}

func TestImportReport_Counts(t *testing.T) {
	report := NewImportReport(3)
	report.Succeed(0, "WILSON", "id-1")
	report.Fail(1, "NOWHERE", ReasonLookup, errors.New("weather_station not found: NOWHERE"))
	report.Succeed(2, "WILSON", "id-2")

	if report.Total != 3 || report.Successful != 2 || report.Failed != 1 {
		t.Errorf("report = %+v, want total=3 successful=2 failed=1", report)
	}
	if report.Processed() != 3 {
		t.Errorf("Processed() = %d, want 3", report.Processed())
	}
	for i, r := range report.Results {
		if r.Index != i {
			t.Errorf("Results[%d].Index = %d, input order not preserved", i, r.Index)
		}
	}
	if report.Results[1].Reason != ReasonLookup || report.Results[1].Error == "" {
		t.Errorf("Results[1] = %+v, want lookup failure with message", report.Results[1])
	}
}

// TestValidationError tests error handling
func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "date",
		Value:   "invalid",
		Message: "invalid date format",
	}

	if err.Error() != "invalid date format" {
		t.Errorf("Error() = %v, want %v", err.Error(), "invalid date format")
	}

	if err.IsTransient() {
		t.Error("ValidationError should not be transient")
	}
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-platform/internal/models"
	"climate-platform/internal/nasa"
	"climate-platform/internal/repository"
	"climate-platform/internal/services"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

type stubFetcher struct {
	points []models.WeatherDataPoint
	err    error
}

func (s *stubFetcher) FetchDaily(_ context.Context, _, _ float64, _, _ models.Date) ([]models.WeatherDataPoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.WeatherDataPoint(nil), s.points...), nil
}

type testServer struct {
	router  http.Handler
	repo    *repository.MemoryRepository
	fetcher *stubFetcher
	metrics *metrics.Collector
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := repository.NewMemoryRepository()
	repo.AddStation(models.WeatherStation{StationCode: "WILSON", StationName: "Wilson Airport", Latitude: -1.3217, Longitude: 36.8148, IsActive: true})

	logger := logging.NewNop()
	collector := metrics.NewCollectorWithRegistry("test", prometheus.NewRegistry())
	fetcher := &stubFetcher{}
	gen := services.NewSampleGenerator(clockwork.NewFakeClockAt(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)), rand.New(rand.NewSource(3)))

	importService := services.NewDataImportService(repo, fetcher, gen, logger, collector)
	weatherService := services.NewWeatherService(repo, logger)

	router := NewRouter(
		NewImportHandler(importService, logger, collector),
		NewWeatherHandler(weatherService, logger, collector),
		nil,
		logger,
		collector,
	)

	return &testServer{router: router, repo: repo, fetcher: fetcher, metrics: collector}
}

func (s *testServer) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestImport_InvalidWeatherRejected(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/data/import", map[string]interface{}{
		"type": "weather",
		"data": []map[string]interface{}{
			{"station_code": "WILSON", "timestamp": "2024-01-01T00:00:00Z", "temperature_celsius": 200},
		},
		"source": "manual",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Invalid weather data detected", body["error"])

	invalid, ok := body["invalidData"].([]interface{})
	require.True(t, ok)
	require.Len(t, invalid, 1)

	entry := invalid[0].(map[string]interface{})
	record := entry["record"].(map[string]interface{})
	assert.Equal(t, "WILSON", record["station_code"])
	assert.Equal(t, 200.0, record["temperature_celsius"])

	issues := entry["issues"].([]interface{})
	assert.Contains(t, issues, "Temperature 200.0°C outside valid range (-50 to 60°C)")

	assert.Equal(t, 0, srv.repo.WeatherCount())
}

func TestImport_BlankTimestampReportedAsMissing(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/data/import", map[string]interface{}{
		"type": "weather",
		"data": []map[string]interface{}{
			{"station_code": "WILSON", "timestamp": ""},
		},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Invalid weather data detected", body["error"])

	invalid, ok := body["invalidData"].([]interface{})
	require.True(t, ok)
	require.Len(t, invalid, 1)

	issues := invalid[0].(map[string]interface{})["issues"].([]interface{})
	assert.Contains(t, issues, "Missing timestamp")
	assert.Equal(t, 0, srv.repo.WeatherCount())
}

func TestImport_Weather(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/data/import", map[string]interface{}{
		"type": "weather",
		"data": []map[string]interface{}{
			{"station_code": "WILSON", "timestamp": "2024-01-01T00:00:00Z", "temperature_celsius": 21.5},
			{"station_code": "NOWHERE", "timestamp": "2024-01-01T00:00:00Z", "temperature_celsius": 19},
		},
		"source": "field-upload",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Successfully imported weather data", body["message"])
	assert.Equal(t, "field-upload", body["source"])

	result := body["result"].(map[string]interface{})
	assert.Equal(t, 2.0, result["total"])
	assert.Equal(t, 1.0, result["successful"])
	assert.Equal(t, 1.0, result["failed"])
}

func TestImport_SampleWeather(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/data/import", map[string]interface{}{
		"type": "sample_weather",
		"data": map[string]interface{}{"stationCode": "WILSON"},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode(t, rec)["result"].(map[string]interface{})
	assert.Equal(t, float64(services.DefaultSampleDays), result["successful"])
	assert.Equal(t, services.DefaultSampleDays, srv.repo.WeatherCount())
}

func TestImport_NASAFetchFailure(t *testing.T) {
	srv := newTestServer(t)
	srv.fetcher.err = &nasa.FetchError{Op: "request", StatusCode: 503, Err: errors.New("service unavailable")}

	rec := srv.do(t, http.MethodPost, "/api/data/import", map[string]interface{}{
		"type": "nasa_weather",
		"data": map[string]interface{}{
			"stationCode": "WILSON",
			"latitude":    -1.3217,
			"longitude":   36.8148,
			"startDate":   "2024-01-01",
			"endDate":     "2024-01-07",
		},
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Failed to import data", body["error"])
	assert.Contains(t, body["details"], "status 503")
	assert.Equal(t, 0, srv.repo.WeatherCount())
}

func TestImport_BadRequests(t *testing.T) {
	tests := []struct {
		name      string
		body      interface{}
		wantError string
	}{
		{name: "malformed json", body: `{"type":`, wantError: "Invalid request body"},
		{name: "unknown type", body: map[string]interface{}{"type": "satellite", "data": []interface{}{}}, wantError: `Invalid import type "satellite"`},
		{name: "missing type", body: map[string]interface{}{"data": []interface{}{}}, wantError: "Invalid import type"},
		{name: "bad payload shape", body: map[string]interface{}{"type": "regions", "data": "nairobi"}, wantError: "Invalid data payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)

			rec := srv.do(t, http.MethodPost, "/api/data/import", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode(t, rec)["error"], tt.wantError)
		})
	}
}

func TestImport_Describe(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/data/import", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Data import API is ready", body["message"])
	assert.Len(t, body["supportedTypes"], 5)

	rec = srv.do(t, http.MethodGet, "/api/data/import?type=sample", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].([]interface{})
	require.Len(t, data, 7)
	assert.Equal(t, "WILSON", data[0].(map[string]interface{})["station_code"])
	assert.Equal(t, 0, srv.repo.WeatherCount(), "sample preview does not import")
}

func TestWeatherQueries(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/data/import", map[string]interface{}{
		"type": "weather",
		"data": []map[string]interface{}{
			{"station_code": "WILSON", "timestamp": "2024-01-01T06:00:00Z", "temperature_celsius": 18},
			{"station_code": "WILSON", "timestamp": "2024-01-02T06:00:00Z", "temperature_celsius": 24},
			{"station_code": "WILSON", "timestamp": "2024-01-03T06:00:00Z", "temperature_celsius": 21},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/data/weather?station_code=WILSON&end_date=2024-01-02&limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 2.0, body["count"])
	first := body["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, 24.0, first["temperature_celsius"], "newest first")

	rec = srv.do(t, http.MethodGet, "/api/data/weather?start_date=01-01-2024", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/data/weather/summary?station_code=WILSON", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, 3.0, summary["observation_count"])
	assert.Equal(t, 24.0, summary["max_temperature_celsius"])

	rec = srv.do(t, http.MethodGet, "/api/data/weather/summary?station_code=NOWHERE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/data/weather/summary", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegionsAndStations(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/data/import", map[string]interface{}{
		"type": "regions",
		"data": []map[string]interface{}{
			{"name": "Nairobi", "county_code": "047", "county_name": "Nairobi City", "latitude": -1.29, "longitude": 36.82},
			{"name": "Mombasa", "county_code": "001", "county_name": "Mombasa", "latitude": -4.04, "longitude": 39.67},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/data/regions?county_name=nairobi", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 1.0, body["count"])
	assert.Equal(t, false, body["pagination"].(map[string]interface{})["hasMore"])

	rec = srv.do(t, http.MethodGet, "/api/data/stations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, decode(t, rec)["count"])
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])

	srv.repo.SetUnavailable(errors.New("connection refused"))
	rec = srv.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "down", decode(t, rec)["database"])
}

func TestRequestIDAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/health", nil)
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\nforged")
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid\nforged", rec.Header().Get(RequestIDHeader))

	assert.Equal(t, 3.0, testutil.ToFloat64(srv.metrics.APIRequestsTotal.WithLabelValues("/health", "GET", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(srv.metrics.InFlightRequests))
}

func TestOpenAPIDocument(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, OpenAPIPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "3.0.0", body["openapi"])
	paths := body["paths"].(map[string]interface{})
	for _, p := range []string{"/api/data/import", "/api/data/weather", "/api/data/weather/summary", "/api/data/regions", "/api/data/stations", "/health"} {
		assert.Contains(t, paths, p)
	}

	rec = srv.do(t, http.MethodGet, "/api/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Climate Data Platform API")
}

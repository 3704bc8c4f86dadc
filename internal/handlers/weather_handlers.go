package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"climate-platform/internal/models"
	"climate-platform/internal/repository"
	"climate-platform/internal/services"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// WeatherHandler serves read-only climate data endpoints
type WeatherHandler struct {
	weatherService *services.WeatherService
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
}

// NewWeatherHandler creates a new weather handler
func NewWeatherHandler(
	weatherService *services.WeatherService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *WeatherHandler {
	return &WeatherHandler{
		weatherService: weatherService,
		logger:         logger,
		metrics:        metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Pagination describes the window a list response covers
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// ListResponse wraps a page of results
type ListResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Count      int         `json:"count"`
	Pagination Pagination  `json:"pagination"`
}

func newListResponse(data interface{}, count, limit, offset int) ListResponse {
	return ListResponse{
		Success: true,
		Data:    data,
		Count:   count,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: count == limit,
		},
	}
}

// parsePage reads limit and offset, ignoring malformed values
func parsePage(r *http.Request) (limit, offset int) {
	limit = defaultLimit

	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= maxLimit {
		limit = l
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o > 0 {
		offset = o
	}

	return limit, offset
}

// parseTimeParam accepts an RFC 3339 timestamp or a calendar date. A date used
// as an upper bound covers the whole day.
func parseTimeParam(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}

	d, err := models.ParseDate(value)
	if err != nil {
		return nil, err
	}
	t := d.Time
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

func (h *WeatherHandler) parseWindow(w http.ResponseWriter, r *http.Request) (start, end *time.Time, ok bool) {
	start, err := parseTimeParam(r.URL.Query().Get("start_date"), false)
	if err != nil {
		h.sendError(w, r, "invalid start_date format, expected YYYY-MM-DD", http.StatusBadRequest)
		return nil, nil, false
	}

	end, err = parseTimeParam(r.URL.Query().Get("end_date"), true)
	if err != nil {
		h.sendError(w, r, "invalid end_date format, expected YYYY-MM-DD", http.StatusBadRequest)
		return nil, nil, false
	}

	return start, end, true
}

// GetWeatherData handles GET /api/data/weather
func (h *WeatherHandler) GetWeatherData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := parsePage(r)
	filter := repository.WeatherFilter{
		Limit:  limit,
		Offset: offset,
	}

	if stationCode := r.URL.Query().Get("station_code"); stationCode != "" {
		filter.StationCode = &stationCode
	}

	start, end, ok := h.parseWindow(w, r)
	if !ok {
		return
	}
	filter.StartDate = start
	filter.EndDate = end

	records, err := h.weatherService.GetWeatherData(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_WEATHER_ERROR] Failed to get weather data", logging.Fields{
			"limit":  limit,
			"offset": offset,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/data/weather")
		h.sendError(w, r, "failed to fetch weather data", http.StatusInternalServerError)
		return
	}

	sendJSON(w, newListResponse(records, len(records), limit, offset), http.StatusOK)
}

// GetWeatherSummary handles GET /api/data/weather/summary
func (h *WeatherHandler) GetWeatherSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stationCode := r.URL.Query().Get("station_code")
	if stationCode == "" {
		h.sendError(w, r, "station_code is required", http.StatusBadRequest)
		return
	}

	start, end, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	summary, err := h.weatherService.GetWeatherSummary(ctx, stationCode, start, end)
	if repository.IsNotFound(err) {
		h.sendError(w, r, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error(ctx, "[API_GET_SUMMARY_ERROR] Failed to summarize weather data", logging.Fields{
			"station_code": stationCode,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/data/weather/summary")
		h.sendError(w, r, "failed to summarize weather data", http.StatusInternalServerError)
		return
	}

	sendJSON(w, map[string]interface{}{
		"success": true,
		"data":    summary,
	}, http.StatusOK)
}

// ListRegions handles GET /api/data/regions
func (h *WeatherHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := parsePage(r)
	filter := repository.RegionFilter{
		Limit:  limit,
		Offset: offset,
	}

	if code := r.URL.Query().Get("county_code"); code != "" {
		filter.CountyCode = &code
	}
	if name := r.URL.Query().Get("county_name"); name != "" {
		filter.CountyName = &name
	}

	regions, err := h.weatherService.ListRegions(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_REGIONS_ERROR] Failed to list regions", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/data/regions")
		h.sendError(w, r, "failed to fetch regions", http.StatusInternalServerError)
		return
	}

	sendJSON(w, newListResponse(regions, len(regions), limit, offset), http.StatusOK)
}

// ListStations handles GET /api/data/stations
func (h *WeatherHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := parsePage(r)

	stations, err := h.weatherService.GetStations(ctx, limit, offset)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_STATIONS_ERROR] Failed to list stations", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/data/stations")
		h.sendError(w, r, "failed to fetch stations", http.StatusInternalServerError)
		return
	}

	sendJSON(w, newListResponse(stations, len(stations), limit, offset), http.StatusOK)
}

// HealthCheck handles GET /health
func (h *WeatherHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"database":  "up",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.weatherService.HealthCheck(ctx); err != nil {
		h.logger.Warn(ctx, "[HEALTH_CHECK] Database unreachable", logging.Fields{
			"error": err.Error(),
		})
		status["status"] = "unhealthy"
		status["database"] = "down"
		sendJSON(w, status, http.StatusServiceUnavailable)
		return
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	sendJSON(w, status, http.StatusOK)
}

// sendJSON sends a JSON response
func sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *WeatherHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all read API routes
func (h *WeatherHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/data/weather", h.GetWeatherData).Methods("GET")
	router.HandleFunc("/api/data/weather/summary", h.GetWeatherSummary).Methods("GET")
	router.HandleFunc("/api/data/regions", h.ListRegions).Methods("GET")
	router.HandleFunc("/api/data/stations", h.ListStations).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}

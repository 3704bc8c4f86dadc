package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"climate-platform/internal/models"
	"climate-platform/internal/services"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

// maxImportBody bounds POST /api/data/import request bodies
const maxImportBody = 10 << 20

// ImportHandler serves the data import endpoint
type ImportHandler struct {
	importService *services.DataImportService
	logger        *logging.StructuredLogger
	metrics       *metrics.Collector
}

// NewImportHandler creates a new import handler
func NewImportHandler(
	importService *services.DataImportService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		logger:        logger,
		metrics:       metricsCollector,
	}
}

// ImportRequest is the POST /api/data/import body
type ImportRequest struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
	Source string          `json:"source,omitempty"`
}

// ImportResponse is returned when an import ran to completion
type ImportResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Result  *models.ImportReport `json:"result"`
	Source  string               `json:"source,omitempty"`
}

// ImportErrorResponse is returned when an import was rejected or failed
type ImportErrorResponse struct {
	Error       string                   `json:"error"`
	Details     string                   `json:"details,omitempty"`
	InvalidData []services.InvalidRecord `json:"invalidData,omitempty"`
	Result      *models.ImportReport     `json:"result,omitempty"`
}

// Import handles POST /api/data/import
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ImportRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBody))
	if err := dec.Decode(&req); err != nil {
		h.metrics.RecordAPIError("bad_request", "/api/data/import")
		sendJSON(w, ImportErrorResponse{
			Error:   "Invalid request body",
			Details: err.Error(),
		}, http.StatusBadRequest)
		return
	}

	kind, err := services.ParseImportKind(req.Type)
	if err != nil {
		h.metrics.RecordAPIError("bad_request", "/api/data/import")
		sendJSON(w, ImportErrorResponse{Error: err.Error()}, http.StatusBadRequest)
		return
	}

	log := h.logger.WithFields(logging.Fields{
		"import_type": string(kind),
		"source":      req.Source,
	})

	report, err := h.importService.ImportPayload(ctx, kind, req.Data)
	if err != nil {
		var invalid *services.InvalidWeatherDataError
		var vErr *models.ValidationError

		switch {
		case errors.As(err, &invalid):
			log.Warn(ctx, "[API_IMPORT_REJECTED] Weather payload failed validation", logging.Fields{
				"invalid_records": len(invalid.Invalid),
			})
			h.metrics.RecordAPIError("validation", "/api/data/import")
			sendJSON(w, ImportErrorResponse{
				Error:       "Invalid weather data detected",
				InvalidData: invalid.Invalid,
			}, http.StatusBadRequest)

		case errors.As(err, &vErr):
			h.metrics.RecordAPIError("validation", "/api/data/import")
			sendJSON(w, ImportErrorResponse{Error: vErr.Error()}, http.StatusBadRequest)

		default:
			log.Error(ctx, "[API_IMPORT_ERROR] Import failed", logging.Fields{}, err)
			h.metrics.RecordAPIError("internal_error", "/api/data/import")
			sendJSON(w, ImportErrorResponse{
				Error:   "Failed to import data",
				Details: err.Error(),
				Result:  report,
			}, http.StatusInternalServerError)
		}
		return
	}

	log.Info(ctx, "[API_IMPORT_COMPLETE] Import request served", logging.Fields{
		"total":      report.Total,
		"successful": report.Successful,
		"failed":     report.Failed,
	})

	sendJSON(w, ImportResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully imported %s data", kind),
		Result:  report,
		Source:  req.Source,
	}, http.StatusOK)
}

// Describe handles GET /api/data/import; ?type=sample returns generated test data
func (h *ImportHandler) Describe(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("type") == "sample" {
		sendJSON(w, map[string]interface{}{
			"success": true,
			"data":    h.importService.GenerateSample("WILSON", 7),
			"message": "Sample weather data generated for testing",
		}, http.StatusOK)
		return
	}

	sendJSON(w, map[string]interface{}{
		"success":        true,
		"message":        "Data import API is ready",
		"supportedTypes": services.ImportKinds(),
		"endpoints": map[string]string{
			"POST /api/data/import":             "Import data from various sources",
			"GET /api/data/import?type=sample": "Generate sample weather data",
		},
	}, http.StatusOK)
}

// RegisterRoutes registers the import routes
func (h *ImportHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/data/import", h.Import).Methods("POST")
	router.HandleFunc("/api/data/import", h.Describe).Methods("GET")
}

package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

// NewRouter wires every API route behind the request-id and instrumentation middleware.
// metricsHandler is mounted at /metrics when non-nil.
func NewRouter(
	importHandler *ImportHandler,
	weatherHandler *WeatherHandler,
	metricsHandler http.Handler,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestID)
	router.Use(Instrument(logger, metricsCollector))

	importHandler.RegisterRoutes(router)
	weatherHandler.RegisterRoutes(router)

	router.HandleFunc(OpenAPIPath, OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")

	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler).Methods("GET")
	}

	return router
}

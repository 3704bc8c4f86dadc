package handlers

import (
	"net/http"

	"climate-platform/internal/services"
)

// OpenAPIPath is where the generated document is served
const OpenAPIPath = "/api/docs/openapi.json"

type schema = map[string]interface{}

func queryParam(name, description, typ string, required bool) schema {
	return schema{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    required,
		"schema":      schema{"type": typ},
	}
}

func jsonContent(s schema) schema {
	return schema{"application/json": schema{"schema": s}}
}

func ref(name string) schema {
	return schema{"$ref": "#/components/schemas/" + name}
}

func response(description string, s schema) schema {
	return schema{"description": description, "content": jsonContent(s)}
}

func listOf(item string) schema {
	return schema{
		"type": "object",
		"properties": schema{
			"success": schema{"type": "boolean"},
			"data":    schema{"type": "array", "items": ref(item)},
			"count":   schema{"type": "integer"},
			"pagination": schema{
				"type": "object",
				"properties": schema{
					"limit":   schema{"type": "integer"},
					"offset":  schema{"type": "integer"},
					"hasMore": schema{"type": "boolean"},
				},
			},
		},
	}
}

func nullableNumber() schema {
	return schema{"type": "number", "nullable": true}
}

var pageParams = []schema{
	queryParam("limit", "Records per page, 1 to 1000 (default: 100)", "integer", false),
	queryParam("offset", "Records to skip (default: 0)", "integer", false),
}

var windowParams = []schema{
	queryParam("start_date", "Inclusive lower bound (YYYY-MM-DD or RFC 3339)", "string", false),
	queryParam("end_date", "Inclusive upper bound (YYYY-MM-DD or RFC 3339)", "string", false),
}

func params(groups ...[]schema) []schema {
	var out []schema
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func importKindNames() []string {
	kinds := services.ImportKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

// OpenAPIDocument builds the OpenAPI 3.0 description of the HTTP API
func OpenAPIDocument() schema {
	measurement := schema{
		"station_code":             schema{"type": "string"},
		"timestamp":                schema{"type": "string", "format": "date-time"},
		"temperature_celsius":      nullableNumber(),
		"humidity_percent":         nullableNumber(),
		"rainfall_mm":              nullableNumber(),
		"wind_speed_kmh":           nullableNumber(),
		"wind_direction_degrees":   nullableNumber(),
		"atmospheric_pressure_hpa": nullableNumber(),
		"solar_radiation_wm2":      nullableNumber(),
		"visibility_km":            nullableNumber(),
		"cloud_cover_percent":      nullableNumber(),
		"data_quality":             schema{"type": "string"},
	}

	return schema{
		"openapi": "3.0.0",
		"info": schema{
			"title":       "Climate Data Platform API",
			"description": "Import and query weather observations, regions and climate indicators",
			"version":     "1.0.0",
		},
		"servers": []schema{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": schema{
			"/api/data/import": schema{
				"post": schema{
					"summary": "Import data",
					"requestBody": schema{
						"required": true,
						"content":  jsonContent(ref("ImportRequest")),
					},
					"responses": schema{
						"200": response("Import ran; per-record outcomes in result", ref("ImportResponse")),
						"400": response("Unknown type, malformed payload or invalid weather data", ref("ImportError")),
						"500": response("Fetch failure or aborted import", ref("ImportError")),
					},
				},
				"get": schema{
					"summary":    "Describe the import API, or generate sample data with type=sample",
					"parameters": []schema{queryParam("type", "Set to 'sample' for 7 generated WILSON observations", "string", false)},
					"responses":  schema{"200": response("Readiness information or sample data", schema{"type": "object"})},
				},
			},
			"/api/data/weather": schema{
				"get": schema{
					"summary":    "List weather observations, newest first",
					"parameters": params([]schema{queryParam("station_code", "Filter by station code", "string", false)}, windowParams, pageParams),
					"responses": schema{
						"200": response("Observations", listOf("WeatherRecord")),
						"400": response("Invalid date", ref("Error")),
					},
				},
			},
			"/api/data/weather/summary": schema{
				"get": schema{
					"summary":    "Aggregate a station's observations",
					"parameters": params([]schema{queryParam("station_code", "Station code", "string", true)}, windowParams),
					"responses": schema{
						"200": response("Summary", schema{"type": "object", "properties": schema{"success": schema{"type": "boolean"}, "data": ref("WeatherSummary")}}),
						"404": response("Unknown station", ref("Error")),
					},
				},
			},
			"/api/data/regions": schema{
				"get": schema{
					"summary": "List regions",
					"parameters": params([]schema{
						queryParam("county_code", "Exact county code", "string", false),
						queryParam("county_name", "Case-insensitive substring of the county name", "string", false),
					}, pageParams),
					"responses": schema{"200": response("Regions", listOf("Region"))},
				},
			},
			"/api/data/stations": schema{
				"get": schema{
					"summary":    "List weather stations",
					"parameters": pageParams,
					"responses":  schema{"200": response("Stations", listOf("WeatherStation"))},
				},
			},
			"/health": schema{
				"get": schema{
					"summary": "Health check including database reachability",
					"responses": schema{
						"200": response("Healthy", schema{"type": "object"}),
						"503": response("Database unreachable", schema{"type": "object"}),
					},
				},
			},
			"/metrics": schema{
				"get": schema{
					"summary": "Prometheus metrics",
					"responses": schema{
						"200": schema{
							"description": "Prometheus metrics in text format",
							"content":     schema{"text/plain": schema{"schema": schema{"type": "string"}}},
						},
					},
				},
			},
		},
		"components": schema{
			"schemas": schema{
				"ImportRequest": schema{
					"type":     "object",
					"required": []string{"type", "data"},
					"properties": schema{
						"type":   schema{"type": "string", "enum": importKindNames()},
						"data":   schema{"description": "List of records, or an object for nasa_weather and sample_weather"},
						"source": schema{"type": "string"},
					},
				},
				"ImportReport": schema{
					"type": "object",
					"properties": schema{
						"total":      schema{"type": "integer"},
						"successful": schema{"type": "integer"},
						"failed":     schema{"type": "integer"},
						"results": schema{"type": "array", "items": schema{
							"type": "object",
							"properties": schema{
								"index":   schema{"type": "integer"},
								"key":     schema{"type": "string"},
								"success": schema{"type": "boolean"},
								"id":      schema{"type": "string"},
								"reason":  schema{"type": "string", "enum": []string{"validation", "lookup", "persistence"}},
								"error":   schema{"type": "string"},
							},
						}},
					},
				},
				"ImportResponse": schema{
					"type": "object",
					"properties": schema{
						"success": schema{"type": "boolean"},
						"message": schema{"type": "string"},
						"result":  ref("ImportReport"),
						"source":  schema{"type": "string"},
					},
				},
				"ImportError": schema{
					"type": "object",
					"properties": schema{
						"error":   schema{"type": "string"},
						"details": schema{"type": "string"},
						"invalidData": schema{"type": "array", "items": schema{
							"type": "object",
							"properties": schema{
								"index":  schema{"type": "integer"},
								"record": schema{"type": "object", "properties": measurement},
								"issues": schema{"type": "array", "items": schema{"type": "string"}},
							},
						}},
						"result": ref("ImportReport"),
					},
				},
				"WeatherRecord": schema{"type": "object", "properties": measurement},
				"WeatherSummary": schema{
					"type": "object",
					"properties": schema{
						"station_code":            schema{"type": "string"},
						"observation_count":       schema{"type": "integer"},
						"avg_temperature_celsius": nullableNumber(),
						"min_temperature_celsius": nullableNumber(),
						"max_temperature_celsius": nullableNumber(),
						"avg_humidity_percent":    nullableNumber(),
						"total_rainfall_mm":       nullableNumber(),
						"max_wind_speed_kmh":      nullableNumber(),
						"first_observation":       schema{"type": "string", "format": "date-time", "nullable": true},
						"last_observation":        schema{"type": "string", "format": "date-time", "nullable": true},
					},
				},
				"Region": schema{
					"type": "object",
					"properties": schema{
						"id":          schema{"type": "string"},
						"name":        schema{"type": "string"},
						"county_code": schema{"type": "string"},
						"county_name": schema{"type": "string"},
						"latitude":    schema{"type": "number"},
						"longitude":   schema{"type": "number"},
						"population":  schema{"type": "integer", "nullable": true},
					},
				},
				"WeatherStation": schema{
					"type": "object",
					"properties": schema{
						"id":           schema{"type": "string"},
						"station_code": schema{"type": "string"},
						"station_name": schema{"type": "string"},
						"latitude":     schema{"type": "number"},
						"longitude":    schema{"type": "number"},
						"is_active":    schema{"type": "boolean"},
					},
				},
				"Error": schema{
					"type": "object",
					"properties": schema{
						"error":   schema{"type": "string"},
						"message": schema{"type": "string"},
						"code":    schema{"type": "integer"},
					},
				},
			},
		},
	}
}

// OpenAPISpec serves the OpenAPI document
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, OpenAPIDocument(), http.StatusOK)
}

package nasa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"climate-platform/internal/models"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

// DefaultBaseURL is the POWER daily point endpoint
const DefaultBaseURL = "https://power.larc.nasa.gov/api/temporal/daily/point"

// POWER parameter names requested from the API
const (
	ParamTemperature = "T2M"
	ParamHumidity    = "RH2M"
	ParamRainfall    = "PRECTOTCORR"
	ParamWindSpeed   = "WS2M"
)

// fillValue marks a day POWER has no data for
const fillValue = -999.0

const kelvinOffset = 273.15

var requestedParams = ParamTemperature + "," + ParamHumidity + "," + ParamRainfall + "," + ParamWindSpeed

// FetchError is returned when POWER data could not be retrieved or understood
type FetchError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("nasa power %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("nasa power %s failed: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether retrying later could succeed
func (e *FetchError) IsTransient() bool {
	if e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) || errors.Is(e.Err, context.DeadlineExceeded)
}

// Config holds client settings
type Config struct {
	BaseURL           string
	Community         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client fetches daily point data from NASA POWER
type Client struct {
	baseURL    string
	community  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewClient creates a POWER client. Zero config values fall back to defaults.
func NewClient(cfg Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Community == "" {
		cfg.Community = "RE"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		community: cfg.Community,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logger,
		metrics: metricsCollector,
	}
}

type powerResponse struct {
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
}

// FetchDaily retrieves daily observations for a point between start and end inclusive.
// Returned points carry no station code; they are ordered by date.
func (c *Client) FetchDaily(ctx context.Context, latitude, longitude float64, start, end models.Date) ([]models.WeatherDataPoint, error) {
	if end.Before(start.Time) {
		return nil, &FetchError{Op: "request", Err: fmt.Errorf("end date %s before start date %s", end, start)}
	}

	params := url.Values{}
	params.Add("parameters", requestedParams)
	params.Add("community", c.community)
	params.Add("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Add("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Add("start", start.Compact())
	params.Add("end", end.Compact())
	params.Add("format", "JSON")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.fail(ctx, "rate_limit", &FetchError{Op: "request", Err: err})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, c.fail(ctx, "request", &FetchError{Op: "request", Err: err})
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug(ctx, "[NASA_FETCH_START] Requesting POWER daily data", logging.Fields{
		"latitude":  latitude,
		"longitude": longitude,
		"start":     start.String(),
		"end":       end.String(),
	})

	timer := c.metrics.NewTimer(c.metrics.FetchDuration)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		timer.ObserveDuration()
		return nil, c.fail(ctx, "transport", &FetchError{Op: "request", Err: err})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	timer.ObserveDuration()
	if err != nil {
		return nil, c.fail(ctx, "transport", &FetchError{Op: "read", StatusCode: resp.StatusCode, Err: err})
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.fail(ctx, "status", &FetchError{
			Op:         "request",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", truncate(string(body), 200)),
		})
	}

	var parsed powerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, c.fail(ctx, "decode", &FetchError{Op: "decode", StatusCode: resp.StatusCode, Err: err})
	}

	if len(parsed.Properties.Parameter) == 0 {
		return nil, c.fail(ctx, "decode", &FetchError{
			Op:         "decode",
			StatusCode: resp.StatusCode,
			Err:        errors.New("response has no properties.parameter block"),
		})
	}

	points, err := toDataPoints(parsed.Properties.Parameter)
	if err != nil {
		return nil, c.fail(ctx, "decode", &FetchError{Op: "decode", StatusCode: resp.StatusCode, Err: err})
	}

	c.logger.Info(ctx, "[NASA_FETCH_COMPLETE] POWER daily data received", logging.Fields{
		"latitude":  latitude,
		"longitude": longitude,
		"days":      len(points),
	})

	return points, nil
}

func (c *Client) fail(ctx context.Context, errorType string, err *FetchError) error {
	c.metrics.RecordFetchError(errorType)
	c.logger.Error(ctx, "[NASA_FETCH_ERROR] POWER request failed", logging.Fields{
		"error_type":  errorType,
		"status_code": err.StatusCode,
	}, err)
	return err
}

// toDataPoints pivots the per-parameter date maps into one point per date
func toDataPoints(block map[string]map[string]float64) ([]models.WeatherDataPoint, error) {
	byDate := make(map[string]*models.WeatherDataPoint)

	get := func(day string) (*models.WeatherDataPoint, error) {
		if p, ok := byDate[day]; ok {
			return p, nil
		}
		date, err := time.Parse("20060102", day)
		if err != nil {
			return nil, fmt.Errorf("invalid date key %q: %w", day, err)
		}
		p := &models.WeatherDataPoint{
			Timestamp:   date.UTC(),
			DataQuality: models.DefaultDataQuality,
		}
		byDate[day] = p
		return p, nil
	}

	for param, series := range block {
		for day, raw := range series {
			p, err := get(day)
			if err != nil {
				return nil, err
			}
			if raw == fillValue {
				continue
			}
			switch param {
			case ParamTemperature:
				p.TemperatureCelsius = models.Float(round1(raw - kelvinOffset))
			case ParamHumidity:
				p.HumidityPercent = models.Float(round1(raw))
			case ParamRainfall:
				p.RainfallMM = models.Float(round1(raw))
			case ParamWindSpeed:
				p.WindSpeedKMH = models.Float(round1(raw * 3.6))
			}
		}
	}

	points := make([]models.WeatherDataPoint, 0, len(byDate))
	for _, p := range byDate {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })

	return points, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"climate-platform/internal/models"
)

var _ ClimateRepository = (*MemoryRepository)(nil)

type weatherKey struct {
	stationID string
	timestamp int64
}

type storedIndicator struct {
	ID       string
	RegionID string
	models.ClimateIndicator
}

// MemoryRepository is an in-process ClimateRepository with the same uniqueness
// rules as the Postgres schema. It backs the sample command and tests.
type MemoryRepository struct {
	mu sync.RWMutex

	stations       map[string]*models.WeatherStation // by station code
	regions        map[string]*models.Region         // by county code
	weather        map[weatherKey]*models.WeatherRecord
	indicators     []storedIndicator
	unavailableErr error
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		stations: make(map[string]*models.WeatherStation),
		regions:  make(map[string]*models.Region),
		weather:  make(map[weatherKey]*models.WeatherRecord),
	}
}

// AddStation registers a station and returns its id
func (m *MemoryRepository) AddStation(station models.WeatherStation) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if station.ID == "" {
		station.ID = uuid.New().String()
	}
	if station.CreatedAt.IsZero() {
		station.CreatedAt = time.Now().UTC()
	}
	m.stations[station.StationCode] = &station
	return station.ID
}

// SetUnavailable makes every subsequent call fail with err, simulating a lost database.
// Passing nil restores normal operation.
func (m *MemoryRepository) SetUnavailable(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailableErr = err
}

// WeatherCount returns the number of stored observations
func (m *MemoryRepository) WeatherCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.weather)
}

// RegionCount returns the number of stored regions
func (m *MemoryRepository) RegionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.regions)
}

// IndicatorCount returns the number of stored indicator rows
func (m *MemoryRepository) IndicatorCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.indicators)
}

// Region returns a copy of the region stored under countyCode
func (m *MemoryRepository) Region(countyCode string) (models.Region, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.regions[countyCode]
	if !ok {
		return models.Region{}, false
	}
	return *r, true
}

// FindStationIDByCode resolves a station code to the station's id
func (m *MemoryRepository) FindStationIDByCode(_ context.Context, stationCode string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.unavailableErr != nil {
		return "", m.unavailableErr
	}
	s, ok := m.stations[stationCode]
	if !ok {
		return "", &NotFoundError{Resource: "weather_station", ID: stationCode}
	}
	return s.ID, nil
}

func (m *MemoryRepository) sortedStations(activeOnly bool) []*models.WeatherStation {
	out := make([]*models.WeatherStation, 0, len(m.stations))
	for _, s := range m.stations {
		if activeOnly && !s.IsActive {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StationCode < out[j].StationCode })
	return out
}

// ListStations retrieves stations ordered by code
func (m *MemoryRepository) ListStations(_ context.Context, limit, offset int) ([]*models.WeatherStation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.unavailableErr != nil {
		return nil, m.unavailableErr
	}
	return paginate(m.sortedStations(false), limit, offset), nil
}

// ListActiveStations retrieves active stations ordered by code
func (m *MemoryRepository) ListActiveStations(_ context.Context) ([]*models.WeatherStation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.unavailableErr != nil {
		return nil, m.unavailableErr
	}
	return m.sortedStations(true), nil
}

// UpsertRegion inserts or overwrites the region with the same county code
func (m *MemoryRepository) UpsertRegion(_ context.Context, region *models.Region) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailableErr != nil {
		return "", m.unavailableErr
	}

	now := time.Now().UTC()
	stored := *region
	if existing, ok := m.regions[region.CountyCode]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.ID = uuid.New().String()
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	m.regions[region.CountyCode] = &stored
	return stored.ID, nil
}

// FindRegionIDByName resolves a region name to its id
func (m *MemoryRepository) FindRegionIDByName(_ context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.unavailableErr != nil {
		return "", m.unavailableErr
	}

	var match *models.Region
	for _, r := range m.regions {
		if r.Name != name {
			continue
		}
		if match == nil || r.CountyCode < match.CountyCode {
			match = r
		}
	}
	if match == nil {
		return "", &NotFoundError{Resource: "region", ID: name}
	}
	return match.ID, nil
}

// ListRegions retrieves regions ordered by county name
func (m *MemoryRepository) ListRegions(_ context.Context, filter RegionFilter) ([]*models.Region, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.unavailableErr != nil {
		return nil, m.unavailableErr
	}

	out := []*models.Region{}
	for _, r := range m.regions {
		if filter.CountyCode != nil && r.CountyCode != *filter.CountyCode {
			continue
		}
		if filter.CountyName != nil && !strings.Contains(strings.ToLower(r.CountyName), strings.ToLower(*filter.CountyName)) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CountyName < out[j].CountyName })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (m *MemoryRepository) stationByID(id string) *models.WeatherStation {
	for _, s := range m.stations {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// UpsertWeatherData stores an observation, overwriting an existing (station, timestamp) row
func (m *MemoryRepository) UpsertWeatherData(_ context.Context, stationID string, point *models.WeatherDataPoint) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailableErr != nil {
		return "", m.unavailableErr
	}

	station := m.stationByID(stationID)
	if station == nil {
		return "", &NotFoundError{Resource: "weather_station", ID: stationID}
	}

	key := weatherKey{stationID: stationID, timestamp: point.Timestamp.UTC().UnixNano()}
	id := uuid.New().String()
	if existing, ok := m.weather[key]; ok {
		id = existing.ID
	}

	m.weather[key] = &models.WeatherRecord{
		ID:                   id,
		StationID:            stationID,
		Timestamp:            point.Timestamp.UTC(),
		TemperatureCelsius:   point.TemperatureCelsius,
		HumidityPercent:      point.HumidityPercent,
		RainfallMM:           point.RainfallMM,
		WindSpeedKMH:         point.WindSpeedKMH,
		WindDirectionDegrees: point.WindDirectionDegrees,
		PressureHPA:          point.PressureHPA,
		SolarRadiationWM2:    point.SolarRadiationWM2,
		VisibilityKM:         point.VisibilityKM,
		CloudCoverPercent:    point.CloudCoverPercent,
		DataQuality:          point.Quality(),
		StationCode:          station.StationCode,
		StationName:          station.StationName,
		Latitude:             station.Latitude,
		Longitude:            station.Longitude,
	}
	return id, nil
}

func (m *MemoryRepository) matchingWeather(stationCode *string, start, end *time.Time) []*models.WeatherRecord {
	out := []*models.WeatherRecord{}
	for _, rec := range m.weather {
		if stationCode != nil && rec.StationCode != *stationCode {
			continue
		}
		if start != nil && rec.Timestamp.Before(*start) {
			continue
		}
		if end != nil && rec.Timestamp.After(*end) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out
}

// GetWeatherData retrieves observations newest first
func (m *MemoryRepository) GetWeatherData(_ context.Context, filter WeatherFilter) ([]*models.WeatherRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.unavailableErr != nil {
		return nil, m.unavailableErr
	}

	out := m.matchingWeather(filter.StationCode, filter.StartDate, filter.EndDate)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return paginate(out, filter.Limit, filter.Offset), nil
}

// GetWeatherSummary aggregates a station's observations within an optional window
func (m *MemoryRepository) GetWeatherSummary(_ context.Context, stationCode string, start, end *time.Time) (*models.WeatherSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.unavailableErr != nil {
		return nil, m.unavailableErr
	}
	if _, ok := m.stations[stationCode]; !ok {
		return nil, &NotFoundError{Resource: "weather_station", ID: stationCode}
	}

	summary := &models.WeatherSummary{StationCode: stationCode}
	var tempSum, humSum float64
	var tempN, humN int

	for _, rec := range m.matchingWeather(&stationCode, start, end) {
		summary.ObservationCount++
		ts := rec.Timestamp
		if summary.FirstObservation == nil || ts.Before(*summary.FirstObservation) {
			summary.FirstObservation = &ts
		}
		if summary.LastObservation == nil || ts.After(*summary.LastObservation) {
			summary.LastObservation = &ts
		}
		if v := rec.TemperatureCelsius; v != nil {
			tempSum += *v
			tempN++
			summary.MinTemperatureCelsius = minPtr(summary.MinTemperatureCelsius, *v)
			summary.MaxTemperatureCelsius = maxPtr(summary.MaxTemperatureCelsius, *v)
		}
		if v := rec.HumidityPercent; v != nil {
			humSum += *v
			humN++
		}
		if v := rec.RainfallMM; v != nil {
			total := *v
			if summary.TotalRainfallMM != nil {
				total += *summary.TotalRainfallMM
			}
			summary.TotalRainfallMM = &total
		}
		if v := rec.WindSpeedKMH; v != nil {
			summary.MaxWindSpeedKMH = maxPtr(summary.MaxWindSpeedKMH, *v)
		}
	}

	if tempN > 0 {
		summary.AvgTemperatureCelsius = models.Float(tempSum / float64(tempN))
	}
	if humN > 0 {
		summary.AvgHumidityPercent = models.Float(humSum / float64(humN))
	}

	return summary, nil
}

// InsertClimateIndicator appends a new indicator row
func (m *MemoryRepository) InsertClimateIndicator(_ context.Context, regionID string, indicator *models.ClimateIndicator) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailableErr != nil {
		return "", m.unavailableErr
	}

	id := uuid.New().String()
	m.indicators = append(m.indicators, storedIndicator{
		ID:               id,
		RegionID:         regionID,
		ClimateIndicator: *indicator,
	})
	return id, nil
}

// HealthCheck reports the simulated availability
func (m *MemoryRepository) HealthCheck(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.unavailableErr
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func minPtr(cur *float64, v float64) *float64 {
	if cur == nil || v < *cur {
		return models.Float(v)
	}
	return cur
}

func maxPtr(cur *float64, v float64) *float64 {
	if cur == nil || v > *cur {
		return models.Float(v)
	}
	return cur
}

package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-platform/internal/models"
)

func TestMemoryRepository_WeatherUpsertKeepsOneRow(t *testing.T) {
	repo := NewMemoryRepository()
	stationID := repo.AddStation(models.WeatherStation{StationCode: "WILSON", StationName: "Wilson Airport", IsActive: true})
	ctx := context.Background()

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first, err := repo.UpsertWeatherData(ctx, stationID, &models.WeatherDataPoint{
		StationCode:        "WILSON",
		Timestamp:          ts,
		TemperatureCelsius: models.Float(20),
	})
	require.NoError(t, err)

	// Same instant expressed in another zone hits the same row.
	second, err := repo.UpsertWeatherData(ctx, stationID, &models.WeatherDataPoint{
		StationCode:        "WILSON",
		Timestamp:          ts.In(time.FixedZone("EAT", 3*60*60)),
		TemperatureCelsius: models.Float(22),
	})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.WeatherCount())

	records, err := repo.GetWeatherData(ctx, WeatherFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 22.0, *records[0].TemperatureCelsius)
	assert.Equal(t, "Wilson Airport", records[0].StationName)
}

func TestMemoryRepository_UnknownStation(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.FindStationIDByCode(context.Background(), "NOWHERE")
	assert.True(t, IsNotFound(err))

	_, err = repo.UpsertWeatherData(context.Background(), "missing-id", &models.WeatherDataPoint{Timestamp: time.Now()})
	assert.True(t, IsNotFound(err))
}

func TestMemoryRepository_RegionUpsertByCountyCode(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first, err := repo.UpsertRegion(ctx, &models.Region{Name: "Nairobi", CountyCode: "047", CountyName: "Nairobi"})
	require.NoError(t, err)
	second, err := repo.UpsertRegion(ctx, &models.Region{Name: "Nairobi", CountyCode: "047", CountyName: "Nairobi City"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.RegionCount())

	stored, ok := repo.Region("047")
	require.True(t, ok)
	assert.Equal(t, "Nairobi City", stored.CountyName)

	id, err := repo.FindRegionIDByName(ctx, "Nairobi")
	require.NoError(t, err)
	assert.Equal(t, first, id)
}

func TestMemoryRepository_ListRegionsFilter(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	for _, r := range []models.Region{
		{Name: "Mombasa", CountyCode: "001", CountyName: "Mombasa"},
		{Name: "Kisumu", CountyCode: "042", CountyName: "Kisumu"},
		{Name: "Nairobi", CountyCode: "047", CountyName: "Nairobi City"},
	} {
		_, err := repo.UpsertRegion(ctx, &r)
		require.NoError(t, err)
	}

	name := "NAIROBI"
	regions, err := repo.ListRegions(ctx, RegionFilter{CountyName: &name, Limit: 10})
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "047", regions[0].CountyCode)

	all, err := repo.ListRegions(ctx, RegionFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Mombasa", all[0].CountyName)
	assert.Equal(t, "Nairobi City", all[1].CountyName)
}

func TestMemoryRepository_IndicatorsAppend(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	indicator := &models.ClimateIndicator{RegionName: "Nairobi", IndicatorName: "ndvi", Value: 0.4}
	first, err := repo.InsertClimateIndicator(ctx, "rg-1", indicator)
	require.NoError(t, err)
	second, err := repo.InsertClimateIndicator(ctx, "rg-1", indicator)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, repo.IndicatorCount())
}

func TestMemoryRepository_Summary(t *testing.T) {
	repo := NewMemoryRepository()
	stationID := repo.AddStation(models.WeatherStation{StationCode: "WILSON", IsActive: true})
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	temps := []float64{18, 24, 21}
	for i, temp := range temps {
		_, err := repo.UpsertWeatherData(ctx, stationID, &models.WeatherDataPoint{
			StationCode:        "WILSON",
			Timestamp:          base.AddDate(0, 0, i),
			TemperatureCelsius: models.Float(temp),
			RainfallMM:         models.Float(float64(i) * 2),
		})
		require.NoError(t, err)
	}

	summary, err := repo.GetWeatherSummary(ctx, "WILSON", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.ObservationCount)
	assert.InDelta(t, 21.0, *summary.AvgTemperatureCelsius, 0.001)
	assert.Equal(t, 18.0, *summary.MinTemperatureCelsius)
	assert.Equal(t, 24.0, *summary.MaxTemperatureCelsius)
	assert.Equal(t, 6.0, *summary.TotalRainfallMM)
	assert.Nil(t, summary.AvgHumidityPercent)
	assert.True(t, summary.FirstObservation.Equal(base))

	end := base
	windowed, err := repo.GetWeatherSummary(ctx, "WILSON", nil, &end)
	require.NoError(t, err)
	assert.Equal(t, 1, windowed.ObservationCount)

	_, err = repo.GetWeatherSummary(ctx, "NOWHERE", nil, nil)
	assert.True(t, IsNotFound(err))
}

func TestMemoryRepository_Unavailable(t *testing.T) {
	repo := NewMemoryRepository()
	repo.SetUnavailable(driver.ErrBadConn)

	_, err := repo.FindStationIDByCode(context.Background(), "WILSON")
	assert.ErrorIs(t, err, driver.ErrBadConn)
	assert.Error(t, repo.HealthCheck(context.Background()))

	repo.SetUnavailable(nil)
	assert.NoError(t, repo.HealthCheck(context.Background()))
}

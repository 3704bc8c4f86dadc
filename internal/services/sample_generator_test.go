package services

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleGenerator_Generate(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	gen := NewSampleGenerator(clockwork.NewFakeClockAt(now), rand.New(rand.NewSource(42)))

	points := gen.Generate("WILSON", 7)
	require.Len(t, points, 7)

	assert.True(t, points[6].Timestamp.Equal(now), "last point should be stamped now")
	assert.True(t, points[0].Timestamp.Equal(now.AddDate(0, 0, -6)))

	for i, p := range points {
		assert.Equal(t, "WILSON", p.StationCode)
		if i > 0 {
			assert.True(t, p.Timestamp.After(points[i-1].Timestamp), "timestamps must increase")
		}

		require.NotNil(t, p.TemperatureCelsius)
		assert.GreaterOrEqual(t, *p.TemperatureCelsius, -50.0)
		assert.LessOrEqual(t, *p.TemperatureCelsius, 60.0)

		require.NotNil(t, p.HumidityPercent)
		assert.GreaterOrEqual(t, *p.HumidityPercent, 0.0)
		assert.LessOrEqual(t, *p.HumidityPercent, 100.0)

		assert.GreaterOrEqual(t, *p.RainfallMM, 0.0)
		assert.LessOrEqual(t, *p.RainfallMM, 20.0)
		assert.GreaterOrEqual(t, *p.WindSpeedKMH, 5.0)
		assert.LessOrEqual(t, *p.WindSpeedKMH, 25.0)

		for name, v := range map[string]*float64{
			"wind speed":      p.WindSpeedKMH,
			"wind direction":  p.WindDirectionDegrees,
			"pressure":        p.PressureHPA,
			"solar radiation": p.SolarRadiationWM2,
			"cloud cover":     p.CloudCoverPercent,
		} {
			require.NotNil(t, v, name)
			assert.Equal(t, math.Round(*v), *v, "%s should be a whole number", name)
		}
		assert.GreaterOrEqual(t, *p.VisibilityKM, 5.0)
		assert.LessOrEqual(t, *p.VisibilityKM, 20.0)

		assert.True(t, ValidateWeatherData(p).IsValid, "generated data must pass validation: %v", ValidateWeatherData(p).Issues)
	}
}

func TestSampleGenerator_Deterministic(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	a := NewSampleGenerator(clockwork.NewFakeClockAt(now), rand.New(rand.NewSource(7))).Generate("JKIA", 10)
	b := NewSampleGenerator(clockwork.NewFakeClockAt(now), rand.New(rand.NewSource(7))).Generate("JKIA", 10)

	assert.Equal(t, a, b)
}

func TestSampleGenerator_RainfallDistribution(t *testing.T) {
	gen := NewSampleGenerator(clockwork.NewFakeClock(), rand.New(rand.NewSource(1)))

	points := gen.Generate("WILSON", 5000)
	require.Len(t, points, 5000)

	wet, light := 0, 0
	for _, p := range points {
		require.NotNil(t, p.RainfallMM)
		if *p.RainfallMM > 0 {
			wet++
			if *p.RainfallMM < 14 {
				light++
			}
		}
	}

	// About 30% of days are wet and wet-day amounts span the whole 0-20mm range
	share := float64(wet) / float64(len(points))
	assert.InDelta(t, 0.3, share, 0.05)
	assert.Greater(t, light, wet/2, "most wet days should see less than 14mm")
}

func TestSampleGenerator_NonPositiveDays(t *testing.T) {
	gen := NewSampleGenerator(nil, nil)

	assert.Empty(t, gen.Generate("WILSON", 0))
	assert.Empty(t, gen.Generate("WILSON", -3))
}

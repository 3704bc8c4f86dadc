package services

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"climate-platform/internal/models"
)

// SampleGenerator produces synthetic daily observations for demos and tests
type SampleGenerator struct {
	clock clockwork.Clock

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampleGenerator creates a generator. A nil clock uses the real clock and a
// nil rng is seeded from the current time.
func NewSampleGenerator(clock clockwork.Clock, rng *rand.Rand) *SampleGenerator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SampleGenerator{
		clock: clock,
		rng:   rng,
	}
}

// Generate returns days consecutive daily observations for stationCode,
// the last one stamped with the current time.
func (g *SampleGenerator) Generate(stationCode string, days int) []models.WeatherDataPoint {
	if days <= 0 {
		return []models.WeatherDataPoint{}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now().UTC()
	start := now.AddDate(0, 0, -(days - 1))
	points := make([]models.WeatherDataPoint, 0, days)

	for i := 0; i < days; i++ {
		fi := float64(i)

		temperature := 25 + math.Sin(fi*0.2)*5 + (g.rng.Float64()-0.5)*3
		humidity := 60 + math.Sin(fi*0.3)*20 + (g.rng.Float64()-0.5)*10

		rainfall := 0.0
		if g.rng.Float64() > 0.7 {
			rainfall = g.rng.Float64() * 20
		}

		points = append(points, models.WeatherDataPoint{
			StationCode:          stationCode,
			Timestamp:            start.AddDate(0, 0, i),
			TemperatureCelsius:   models.Float(round(temperature, 1)),
			HumidityPercent:      models.Float(clamp(math.Round(humidity), 0, 100)),
			RainfallMM:           models.Float(round(rainfall, 1)),
			WindSpeedKMH:         models.Float(math.Round(g.rng.Float64()*20 + 5)),
			WindDirectionDegrees: models.Float(math.Round(g.rng.Float64() * 360)),
			PressureHPA:          models.Float(math.Round(1013 + (g.rng.Float64()-0.5)*20)),
			SolarRadiationWM2:    models.Float(math.Round(g.rng.Float64()*800 + 200)),
			VisibilityKM:         models.Float(round(g.rng.Float64()*15+5, 1)),
			CloudCoverPercent:    models.Float(math.Round(g.rng.Float64() * 100)),
			DataQuality:          models.DefaultDataQuality,
		})
	}

	return points
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

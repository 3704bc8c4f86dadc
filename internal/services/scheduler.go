package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	"climate-platform/internal/models"
	"climate-platform/internal/repository"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

// SyncConfig configures the periodic NASA POWER sync
type SyncConfig struct {
	Spec         string
	LookbackDays int
	RunTimeout   time.Duration
}

// SyncResult summarizes one sync run
type SyncResult struct {
	Stations  int         `json:"stations"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Imported  int         `json:"imported"`
	StartDate models.Date `json:"start_date"`
	EndDate   models.Date `json:"end_date"`
}

// SyncScheduler periodically imports recent POWER data for every active station
type SyncScheduler struct {
	cfg      SyncConfig
	repo     repository.ClimateRepository
	importer *DataImportService
	clock    clockwork.Clock
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSyncScheduler validates the cron spec and prepares a stopped scheduler
func NewSyncScheduler(
	cfg SyncConfig,
	repo repository.ClimateRepository,
	importer *DataImportService,
	clock clockwork.Clock,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) (*SyncScheduler, error) {
	if cfg.LookbackDays < 1 {
		return nil, fmt.Errorf("lookback days must be at least 1, got %d", cfg.LookbackDays)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &SyncScheduler{
		cfg:      cfg,
		repo:     repo,
		importer: importer,
		clock:    clock,
		logger:   logger,
		metrics:  metricsCollector,
		ctx:      ctx,
		cancel:   cancel,
	}

	cl := cronLogger{logger: logger}
	s.cron = cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	if _, err := s.cron.AddFunc(cfg.Spec, s.scheduledRun); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid sync schedule %q: %w", cfg.Spec, err)
	}

	return s, nil
}

// Start begins running on the schedule
func (s *SyncScheduler) Start() {
	s.logger.Info(s.ctx, "[SYNC_SCHEDULER_START] Sync scheduler started", logging.Fields{
		"spec":          s.cfg.Spec,
		"lookback_days": s.cfg.LookbackDays,
	})
	s.cron.Start()
}

// Stop cancels any in-flight run and returns a context that is done once it has returned
func (s *SyncScheduler) Stop() context.Context {
	s.cancel()
	return s.cron.Stop()
}

func (s *SyncScheduler) scheduledRun() {
	if _, err := s.RunOnce(s.ctx); err != nil {
		s.logger.Error(s.ctx, "[SYNC_RUN_ERROR] Scheduled sync failed", logging.Fields{}, err)
	}
}

// Window returns the inclusive date range a run starting now would import:
// LookbackDays days ending yesterday.
func (s *SyncScheduler) Window() (models.Date, models.Date) {
	today := models.NewDate(s.clock.Now())
	end := models.NewDate(today.AddDate(0, 0, -1))
	start := models.NewDate(end.AddDate(0, 0, -(s.cfg.LookbackDays - 1)))
	return start, end
}

// RunOnce imports the lookback window for every active station, one at a time.
// A station's failure is logged and counted; the run continues with the next station.
func (s *SyncScheduler) RunOnce(ctx context.Context) (*SyncResult, error) {
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	started := s.clock.Now()
	start, end := s.Window()
	result := &SyncResult{StartDate: start, EndDate: end}

	stations, err := s.repo.ListActiveStations(ctx)
	if err != nil {
		s.metrics.RecordSyncRun("failed")
		return result, fmt.Errorf("failed to list active stations: %w", err)
	}
	result.Stations = len(stations)

	s.logger.Info(ctx, "[SYNC_RUN_START] Starting NASA POWER sync", logging.Fields{
		"stations":   len(stations),
		"start_date": start.String(),
		"end_date":   end.String(),
	})

	for _, station := range stations {
		if err := ctx.Err(); err != nil {
			s.metrics.RecordSyncRun("cancelled")
			return result, fmt.Errorf("sync interrupted after %d of %d stations: %w", result.Succeeded+result.Failed, result.Stations, err)
		}

		report, err := s.importer.ImportNASAWeather(ctx, NASAWeatherRequest{
			StationCode: station.StationCode,
			Latitude:    station.Latitude,
			Longitude:   station.Longitude,
			StartDate:   start,
			EndDate:     end,
		})
		if err != nil {
			result.Failed++
			s.logger.Warn(ctx, "[SYNC_STATION_FAILED] Station sync failed", logging.Fields{
				"station_code": station.StationCode,
				"error":        err.Error(),
			})
			continue
		}

		result.Succeeded++
		result.Imported += report.Successful
	}

	status := "success"
	if result.Failed > 0 {
		status = "partial"
	}
	s.metrics.RecordSyncRun(status)
	s.metrics.SyncRunDuration.Observe(s.clock.Since(started).Seconds())
	if result.Failed == 0 {
		s.metrics.SyncLastSuccess.Set(float64(s.clock.Now().Unix()))
	}

	s.logger.Info(ctx, "[SYNC_RUN_COMPLETE] NASA POWER sync completed", logging.Fields{
		"stations":  result.Stations,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"imported":  result.Imported,
		"status":    status,
	})

	return result, nil
}

// cronLogger adapts StructuredLogger to cron.Logger
type cronLogger struct {
	logger *logging.StructuredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(context.Background(), "[SYNC_CRON] "+msg, kvFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(context.Background(), "[SYNC_CRON_ERROR] "+msg, kvFields(keysAndValues), err)
}

func kvFields(keysAndValues []interface{}) logging.Fields {
	fields := logging.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

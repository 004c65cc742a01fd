// Package enrich refreshes the environmental record of every seeded city
// from the weather API.
package enrich

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/SourceM7/syrianzone/internal/climate"
	"github.com/SourceM7/syrianzone/internal/database"
	"github.com/SourceM7/syrianzone/internal/observability"
	"github.com/SourceM7/syrianzone/internal/weather"
)

// Store is the persistence the updater needs.
type Store interface {
	GetEnvironmentalLogs() ([]database.EnvironmentalLog, error)
	SaveEnvironmentalFields(cityID int64, f database.EnvironmentalFields) error
}

// WeatherSource fetches raw snapshots. Failures are reported as empty
// snapshots, not errors.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) weather.Snapshot
	Historical(ctx context.Context, lat, lon float64, now time.Time) weather.Snapshot
}

// Result holds the results of an enrichment run.
type Result struct {
	Total     int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Options configures an Updater. Zero values get defaults.
type Options struct {
	Delay    time.Duration
	Clock    clockwork.Clock
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Progress ProgressReporter
}

// Updater walks the city records sequentially, pausing between upstream calls.
type Updater struct {
	store    Store
	source   WeatherSource
	delay    time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	progress ProgressReporter
}

func NewUpdater(store Store, source WeatherSource, opts Options) *Updater {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Updater{
		store:    store,
		source:   source,
		delay:    opts.Delay,
		clock:    opts.Clock,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		progress: opts.Progress,
	}
}

// Run enriches every city once. A failing city is logged and counted; only a
// failure to list the cities or a canceled context ends the run early.
func (u *Updater) Run(ctx context.Context) (*Result, error) {
	started := u.clock.Now()
	result := &Result{}

	cities, err := u.store.GetEnvironmentalLogs()
	if err != nil {
		return nil, fmt.Errorf("listing cities: %w", err)
	}
	result.Total = len(cities)

	if len(cities) == 0 {
		u.logger.Warn("no cities found in environmental log")
		return result, nil
	}

	u.logger.Info("starting climate update", "cities", len(cities))

	for i, city := range cities {
		err := u.processCity(ctx, city)
		if ctx.Err() != nil {
			result.Duration = u.clock.Since(started)
			return result, ctx.Err()
		}

		ok := err == nil
		var pause error
		if ok {
			result.Succeeded++
			u.countCity("success")
			pause = u.sleep(ctx)
		} else {
			result.Failed++
			u.countCity("failure")
			u.logger.Error("failed to process city", "city", city.CityName, "city_id", city.ID, "error", err)
		}

		if u.progress != nil {
			u.progress.Report(Progress{Processed: i + 1, Total: len(cities), City: city.CityName, OK: ok})
		}

		if pause != nil {
			result.Duration = u.clock.Since(started)
			return result, pause
		}
	}

	result.Duration = u.clock.Since(started)
	u.recordRun(result)
	u.logger.Info("climate update complete",
		"succeeded", result.Succeeded, "failed", result.Failed, "duration", result.Duration)
	return result, nil
}

func (u *Updater) processCity(ctx context.Context, city database.EnvironmentalLog) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	current := u.source.Current(ctx, city.Lat, city.Lon)
	if current.Empty() {
		u.logger.Warn("no current weather data retrieved", "city", city.CityName)
	}
	if err := u.sleep(ctx); err != nil {
		return err
	}

	historical := u.source.Historical(ctx, city.Lat, city.Lon, u.clock.Now())
	if historical.Empty() {
		u.logger.Warn("no historical weather data retrieved", "city", city.CityName)
	}
	if err := u.sleep(ctx); err != nil {
		return err
	}

	fields, err := encodeFields(climate.Derive(current, historical), u.clock.Now())
	if err != nil {
		return err
	}
	if err := u.store.SaveEnvironmentalFields(city.ID, fields); err != nil {
		return err
	}

	u.logger.Info("updated environmental data", "city", city.CityName)
	return nil
}

func encodeFields(d climate.Derivations, now time.Time) (database.EnvironmentalFields, error) {
	f := database.EnvironmentalFields{LastUpdatedAt: now}
	var err error
	if f.CurrentConditions, err = climate.Encode(d.CurrentConditions); err != nil {
		return f, fmt.Errorf("encoding current conditions: %w", err)
	}
	if f.ForecastSummary, err = climate.Encode(d.ForecastSummary); err != nil {
		return f, fmt.Errorf("encoding forecast summary: %w", err)
	}
	if f.ClimateTrends, err = climate.Encode(d.ClimateTrends); err != nil {
		return f, fmt.Errorf("encoding climate trends: %w", err)
	}
	if f.AirQuality, err = climate.Encode(d.AirQuality); err != nil {
		return f, fmt.Errorf("encoding air quality: %w", err)
	}
	if f.DroughtRisk, err = climate.Encode(d.DroughtRisk); err != nil {
		return f, fmt.Errorf("encoding drought risk: %w", err)
	}
	if f.HistoricalSummary, err = climate.Encode(d.HistoricalSummary); err != nil {
		return f, fmt.Errorf("encoding historical summary: %w", err)
	}
	return f, nil
}

// sleep waits for the configured delay or until ctx is done.
func (u *Updater) sleep(ctx context.Context) error {
	if u.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-u.clock.After(u.delay):
		return nil
	}
}

func (u *Updater) countCity(outcome string) {
	if u.metrics != nil {
		u.metrics.CitiesProcessed.WithLabelValues(outcome).Inc()
	}
}

func (u *Updater) recordRun(r *Result) {
	if u.metrics == nil {
		return
	}
	u.metrics.RunDuration.Observe(r.Duration.Seconds())
	u.metrics.LastRunTimestamp.Set(float64(u.clock.Now().Unix()))
	u.metrics.LastRunFailures.Set(float64(r.Failed))
}

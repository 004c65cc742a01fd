// Package atlas builds the read API payloads from the persisted demographic,
// rainfall and environmental records.
package atlas

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/SourceM7/syrianzone/internal/database"
	"github.com/SourceM7/syrianzone/internal/observability"
)

// Cache keys.
const (
	MasterKey = "population_master"
	ReportKey = "population_env_report"
)

// DefaultTTL is how long payloads are served from the cache.
const DefaultTTL = time.Hour

// Store is the read-only persistence the payloads are built from.
type Store interface {
	GetAllDemographics() ([]database.Demographic, error)
	GetAllRainfall() ([]database.Rainfall, error)
	GetEnvironmentalLogs() ([]database.EnvironmentalLog, error)
	GetEnvironmentalCityNames() ([]string, error)
}

type Options struct {
	TTL     time.Duration
	Clock   clockwork.Clock
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Service serves the master and environmental report payloads.
type Service struct {
	store   Store
	cache   *Cache
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewService(store Store, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:   store,
		cache:   NewCache(opts.TTL, opts.Clock),
		clock:   opts.Clock,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Master returns the grouped demographic and rainfall payload.
func (s *Service) Master(ctx context.Context) (*Master, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, hit, err := remember(s.cache, MasterKey, func() (*Master, error) {
		demographics, err := s.store.GetAllDemographics()
		if err != nil {
			return nil, fmt.Errorf("loading demographics: %w", err)
		}
		rainfall, err := s.store.GetAllRainfall()
		if err != nil {
			return nil, fmt.Errorf("loading rainfall: %w", err)
		}
		cities, err := s.store.GetEnvironmentalCityNames()
		if err != nil {
			return nil, fmt.Errorf("loading environmental cities: %w", err)
		}
		return buildMaster(demographics, rainfall, cities), nil
	})
	s.observe(MasterKey, hit, err)
	return m, err
}

// EnvironmentalReport returns the per-city climate report.
func (s *Service) EnvironmentalReport(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, hit, err := remember(s.cache, ReportKey, func() (*Report, error) {
		logs, err := s.store.GetEnvironmentalLogs()
		if err != nil {
			return nil, fmt.Errorf("loading environmental logs: %w", err)
		}
		return buildReport(logs, s.clock.Now()), nil
	})
	s.observe(ReportKey, hit, err)
	return r, err
}

// Invalidate drops both cached payloads.
func (s *Service) Invalidate() {
	s.cache.Invalidate(MasterKey, ReportKey)
}

func (s *Service) observe(key string, hit bool, err error) {
	if err != nil {
		s.logger.Error("building payload failed", "payload", key, "error", err)
		return
	}
	if !hit {
		s.logger.Debug("payload rebuilt", "payload", key)
	}
	if s.metrics == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	s.metrics.PayloadCache.WithLabelValues(key, result).Inc()
}

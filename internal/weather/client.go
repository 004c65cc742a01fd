package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/SourceM7/syrianzone/internal/config"
	"github.com/SourceM7/syrianzone/internal/observability"
)

const (
	EndpointCurrent    = "current"
	EndpointHistorical = "historical"

	dateLayout   = "2006-01-02"
	maxBodyBytes = 32 << 20
	maxLogBody   = 2048
)

var (
	currentFields = []string{
		"temperature_2m", "relative_humidity_2m", "apparent_temperature", "is_day",
		"precipitation", "rain", "showers", "snowfall", "weather_code", "cloud_cover",
		"pressure_msl", "surface_pressure", "wind_speed_10m", "wind_direction_10m",
		"wind_gusts_10m",
	}
	forecastDailyFields = []string{
		"temperature_2m_max", "temperature_2m_min", "temperature_2m_mean",
		"apparent_temperature_max", "apparent_temperature_min", "sunrise", "sunset",
		"daylight_duration", "sunshine_duration", "precipitation_sum", "rain_sum",
		"precipitation_hours", "wind_speed_10m_max", "wind_gusts_10m_max",
		"wind_direction_10m_dominant",
	}
	archiveDailyFields = []string{
		"temperature_2m_max", "temperature_2m_min", "temperature_2m_mean",
		"precipitation_sum", "wind_speed_10m_max", "et0_fao_evapotranspiration",
		"surface_pressure_mean",
	}
)

// Client fetches current and historical weather from Open-Meteo. Failures are
// logged and degrade to an empty Snapshot; the client never returns an error.
type Client struct {
	forecastURL       string
	archiveURL        string
	currentTimeout    time.Duration
	historicalTimeout time.Duration
	historyYears      int

	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewClient creates a client from the weather section of the config.
// logger and metrics may be nil.
func NewClient(cfg config.Weather, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		forecastURL:       cfg.ForecastURL,
		archiveURL:        cfg.ArchiveURL,
		currentTimeout:    cfg.CurrentTimeout,
		historicalTimeout: cfg.HistoricalTimeout,
		historyYears:      cfg.HistoryYears,
		http:              &http.Client{},
		limiter:           rate.NewLimiter(limit, 1),
		logger:            logger,
		metrics:           metrics,
	}
}

// Current fetches the present conditions and the daily forecast.
func (c *Client) Current(ctx context.Context, lat, lon float64) Snapshot {
	params := url.Values{}
	params.Set("current", strings.Join(currentFields, ","))
	params.Set("daily", strings.Join(forecastDailyFields, ","))
	return c.fetch(ctx, EndpointCurrent, c.forecastURL, params, c.currentTimeout, lat, lon)
}

// Historical fetches daily aggregates for the window ending two days before
// now and reaching back the configured number of years.
func (c *Client) Historical(ctx context.Context, lat, lon float64, now time.Time) Snapshot {
	start, end := HistoricalWindow(now, c.historyYears)
	params := url.Values{}
	params.Set("start_date", start.Format(dateLayout))
	params.Set("end_date", end.Format(dateLayout))
	params.Set("daily", strings.Join(archiveDailyFields, ","))
	return c.fetch(ctx, EndpointHistorical, c.archiveURL, params, c.historicalTimeout, lat, lon)
}

// HistoricalWindow returns the archive date range for a run at now.
func HistoricalWindow(now time.Time, years int) (start, end time.Time) {
	end = now.AddDate(0, 0, -2)
	start = end.AddDate(-years, 0, 0)
	return start, end
}

func (c *Client) fetch(ctx context.Context, endpoint, baseURL string, params url.Values, timeout time.Duration, lat, lon float64) Snapshot {
	log := c.logger.With("endpoint", endpoint, "lat", lat, "lon", lon)

	if err := c.limiter.Wait(ctx); err != nil {
		log.Error("rate limit wait canceled", "error", err)
		c.observe(endpoint, "error", 0)
		return Snapshot{}
	}

	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("timezone", "auto")

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	snap, err := c.do(ctx, baseURL+"?"+params.Encode())
	elapsed := time.Since(started)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			log.Error("open-meteo request failed", "status", se.status, "body", se.body)
		} else {
			log.Error("open-meteo request failed", "error", err)
		}
		c.observe(endpoint, "error", elapsed)
		return Snapshot{}
	}

	c.observe(endpoint, "success", elapsed)
	return snap
}

// statusError carries a non-2xx response for logging.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

func (c *Client) do(ctx context.Context, rawURL string) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxLogBody {
			body = body[:maxLogBody]
		}
		return Snapshot{}, &statusError{status: resp.StatusCode, body: string(body)}
	}

	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decoding response: %w", err)
	}
	return snap, nil
}

func (c *Client) observe(endpoint, outcome string, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.WeatherRequests.WithLabelValues(endpoint, outcome).Inc()
	if elapsed > 0 {
		c.metrics.WeatherDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	}
}

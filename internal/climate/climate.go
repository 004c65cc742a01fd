// Package climate derives the per-city environmental summaries from raw
// Open-Meteo snapshots. Every function accepts an empty snapshot and returns
// nil when its inputs are missing; nil is persisted as an empty object.
package climate

import (
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/SourceM7/syrianzone/internal/weather"
)

const (
	dateLayout = "2006-01-02"

	// Average number of days per month, used to scale monthly daily averages.
	daysPerMonth = 30.44

	dryMonthThresholdMM = 20.0
)

// Derivations bundles the six summaries stored on a city record.
type Derivations struct {
	CurrentConditions *CurrentConditions
	ForecastSummary   *ForecastSummary
	ClimateTrends     *ClimateTrends
	AirQuality        *AirQuality
	DroughtRisk       *DroughtRisk
	HistoricalSummary *HistoricalSummary
}

// Derive runs every derivation over the current and historical snapshots.
func Derive(current, historical weather.Snapshot) Derivations {
	return Derivations{
		CurrentConditions: BuildCurrentConditions(current),
		ForecastSummary:   BuildForecastSummary(current),
		ClimateTrends:     CalculateClimateTrends(historical),
		AirQuality:        EstimateAirQuality(current),
		DroughtRisk:       AnalyzeDroughtRisk(historical),
		HistoricalSummary: BuildHistoricalSummary(historical),
	}
}

// Encode marshals a derived struct, writing "{}" for nil.
func Encode[T any](v *T) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

// round rounds half away from zero to the given number of decimal places.
// The scaled value is first cut to 15 significant digits so decimal halves
// such as 1.005 round up even when their binary form falls just below.
func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	scaled, err := strconv.ParseFloat(strconv.FormatFloat(x*p, 'g', 15, 64), 64)
	if err != nil {
		scaled = x * p
	}
	return math.Round(scaled) / p
}

func roundPtr(x float64, places int) *float64 {
	r := round(x, places)
	return &r
}

// at returns series[i] if present.
func at(series []*float64, i int) (float64, bool) {
	if i < 0 || i >= len(series) || series[i] == nil {
		return 0, false
	}
	return *series[i], true
}

func sum(series []*float64) (total float64, n int) {
	for _, v := range series {
		if v == nil {
			continue
		}
		total += *v
		n++
	}
	return total, n
}

func mean(series []*float64) (float64, bool) {
	total, n := sum(series)
	if n == 0 {
		return 0, false
	}
	return total / float64(n), true
}

func maximum(series []*float64) (float64, bool) {
	best, found := 0.0, false
	for _, v := range series {
		if v == nil {
			continue
		}
		if !found || *v > best {
			best, found = *v, true
		}
	}
	return best, found
}

func parseDay(s string) (time.Time, bool) {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

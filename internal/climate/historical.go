package climate

import (
	"slices"

	"github.com/SourceM7/syrianzone/internal/weather"
)

// Drought risk levels.
const (
	RiskVeryHigh = "Very High"
	RiskHigh     = "High"
	RiskModerate = "Moderate"
)

type ClimateTrends struct {
	TemperatureTrendCelsius      float64  `json:"temperature_trend_celsius"`
	TemperatureChangeRatePerYear float64  `json:"temperature_change_rate_per_year"`
	RainfallTrendMM              float64  `json:"rainfall_trend_mm"`
	AverageAnnualRainfallMM      float64  `json:"average_annual_rainfall_mm"`
	AvgSurfacePressureHPa        *float64 `json:"avg_surface_pressure_hpa,omitempty"`
}

type yearTotals struct {
	tempSum   float64
	tempCount int
	precipSum float64
}

// CalculateClimateTrends compares the first and last calendar years of the
// historical window. It needs at least two distinct years, and both extreme
// years must carry temperature readings.
func CalculateClimateTrends(s weather.Snapshot) *ClimateTrends {
	d := s.Daily
	if d == nil || d.Time == nil || d.Temperature2mMean == nil {
		return nil
	}

	years := make(map[int]*yearTotals)
	for i, day := range d.Time {
		t, ok := parseDay(day)
		if !ok {
			continue
		}
		y, ok := years[t.Year()]
		if !ok {
			y = &yearTotals{}
			years[t.Year()] = y
		}
		if v, ok := at(d.Temperature2mMean, i); ok {
			y.tempSum += v
			y.tempCount++
		}
		if v, ok := at(d.PrecipitationSum, i); ok {
			y.precipSum += v
		}
	}

	if len(years) < 2 {
		return nil
	}

	keys := make([]int, 0, len(years))
	for y := range years {
		keys = append(keys, y)
	}
	slices.Sort(keys)

	first, last := years[keys[0]], years[keys[len(keys)-1]]
	if first.tempCount == 0 || last.tempCount == 0 {
		return nil
	}

	tempChange := last.tempSum/float64(last.tempCount) - first.tempSum/float64(first.tempCount)

	var precipTotal float64
	for _, y := range years {
		precipTotal += y.precipSum
	}

	trends := &ClimateTrends{
		TemperatureTrendCelsius:      round(tempChange, 2),
		TemperatureChangeRatePerYear: round(tempChange/float64(len(keys)-1), 3),
		RainfallTrendMM:              round(last.precipSum-first.precipSum, 2),
		AverageAnnualRainfallMM:      round(precipTotal/float64(len(years)), 2),
	}
	if p, ok := mean(d.SurfacePressureMean); ok {
		trends.AvgSurfacePressureHPa = roundPtr(p, 1)
	}
	return trends
}

type DroughtRisk struct {
	DrySeasonMonths       []int   `json:"dry_season_months"`
	WetSeasonMonths       []int   `json:"wet_season_months"`
	AnnualPrecipitationMM float64 `json:"annual_precipitation_mm"`
	DroughtRisk           string  `json:"drought_risk"`
	Classification        string  `json:"classification"`
}

// HighRisk reports whether the risk level is High or Very High.
func (d *DroughtRisk) HighRisk() bool {
	return d != nil && (d.DroughtRisk == RiskHigh || d.DroughtRisk == RiskVeryHigh)
}

// AnalyzeDroughtRisk pools daily precipitation by calendar month across all
// years and classifies the estimated annual total.
func AnalyzeDroughtRisk(s weather.Snapshot) *DroughtRisk {
	d := s.Daily
	if d == nil || d.Time == nil || d.PrecipitationSum == nil {
		return nil
	}

	var sums [13]float64
	var counts [13]int
	for i, day := range d.Time {
		t, ok := parseDay(day)
		if !ok {
			continue
		}
		if v, ok := at(d.PrecipitationSum, i); ok {
			sums[t.Month()] += v
			counts[t.Month()]++
		}
	}

	risk := &DroughtRisk{
		DrySeasonMonths: []int{},
		WetSeasonMonths: []int{},
	}

	var monthlyTotal float64
	for m := 1; m <= 12; m++ {
		if counts[m] == 0 {
			continue
		}
		avg := sums[m] / float64(counts[m])
		monthlyTotal += avg
		if avg < dryMonthThresholdMM {
			risk.DrySeasonMonths = append(risk.DrySeasonMonths, m)
		} else {
			risk.WetSeasonMonths = append(risk.WetSeasonMonths, m)
		}
	}

	risk.AnnualPrecipitationMM = round(monthlyTotal*daysPerMonth, 2)
	risk.DroughtRisk, risk.Classification = classifyPrecipitation(risk.AnnualPrecipitationMM)
	return risk
}

func classifyPrecipitation(annualMM float64) (risk, classification string) {
	switch {
	case annualMM < 300:
		return RiskVeryHigh, "Arid/Semi-arid"
	case annualMM < 600:
		return RiskHigh, "Semi-arid"
	default:
		return RiskModerate, "Sub-humid"
	}
}

type HistoricalSummary struct {
	PeriodStart           *string  `json:"period_start,omitempty"`
	PeriodEnd             *string  `json:"period_end,omitempty"`
	AvgMaxTempC           *float64 `json:"avg_max_temp_c,omitempty"`
	AvgMinTempC           *float64 `json:"avg_min_temp_c,omitempty"`
	TotalPrecipitationMM  *float64 `json:"total_precipitation_mm,omitempty"`
	MaxWindSpeedKMH       *float64 `json:"max_wind_speed_kmh,omitempty"`
	AvgSurfacePressureHPa *float64 `json:"avg_surface_pressure_hpa,omitempty"`
}

// BuildHistoricalSummary aggregates the whole historical window. Each field
// is set only when its series has values.
func BuildHistoricalSummary(s weather.Snapshot) *HistoricalSummary {
	d := s.Daily
	if d == nil {
		return nil
	}

	h := &HistoricalSummary{}
	if n := len(d.Time); n > 0 {
		h.PeriodStart = &d.Time[0]
		h.PeriodEnd = &d.Time[n-1]
	}
	if v, ok := mean(d.Temperature2mMax); ok {
		h.AvgMaxTempC = roundPtr(v, 2)
	}
	if v, ok := mean(d.Temperature2mMin); ok {
		h.AvgMinTempC = roundPtr(v, 2)
	}
	if v, n := sum(d.PrecipitationSum); n > 0 {
		h.TotalPrecipitationMM = roundPtr(v, 2)
	}
	if v, ok := maximum(d.WindSpeed10mMax); ok {
		h.MaxWindSpeedKMH = roundPtr(v, 2)
	}
	if v, ok := mean(d.SurfacePressureMean); ok {
		h.AvgSurfacePressureHPa = roundPtr(v, 2)
	}
	return h
}

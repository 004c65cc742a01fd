package climate

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SourceM7/syrianzone/internal/weather"
)

func f(v float64) *float64 { return &v }

func series(vs ...float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = f(v)
	}
	return out
}

// dailyFixture builds one record per day from start to end inclusive.
func dailyFixture(start, end time.Time, value func(day time.Time) (temp, precip float64)) *weather.Daily {
	d := &weather.Daily{}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		temp, precip := value(day)
		d.Time = append(d.Time, day.Format(dateLayout))
		d.Temperature2mMean = append(d.Temperature2mMean, f(temp))
		d.PrecipitationSum = append(d.PrecipitationSum, f(precip))
	}
	return d
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.24, round(1.235, 2))
	assert.Equal(t, -1.24, round(-1.235, 2))
	assert.Equal(t, 0.5, round(0.45, 1))
	assert.Equal(t, 2.0, round(1.9999, 3))
	assert.Equal(t, 1.01, round(1.005, 2))
	assert.Equal(t, 0.29, round(0.285, 2))
	assert.Equal(t, 2.68, round(2.675, 2))
	assert.Equal(t, -1.01, round(-1.005, 2))
}

func TestWeatherDescription(t *testing.T) {
	assert.Equal(t, "Overcast", WeatherDescription(3))
	assert.Equal(t, "Thunderstorm with heavy hail", WeatherDescription(99))
	assert.Equal(t, "Unknown (code: 42)", WeatherDescription(42))
	assert.Len(t, weatherCodes, 21)
}

func TestBuildCurrentConditions(t *testing.T) {
	assert.Nil(t, BuildCurrentConditions(weather.Snapshot{}))

	code := 61
	cc := BuildCurrentConditions(weather.Snapshot{Current: &weather.Current{
		Temperature2m:      f(12.4),
		RelativeHumidity2m: f(61),
		WeatherCode:        &code,
		PressureMSL:        f(1018.2),
	}})
	require.NotNil(t, cc)
	assert.Equal(t, 12.4, *cc.TemperatureCelsius)
	assert.Equal(t, 0.0, cc.PrecipitationMM)
	assert.Equal(t, 0.0, cc.WindSpeedKMH)
	assert.Nil(t, cc.CloudCoverPercent)
	assert.Equal(t, "Slight rain", cc.WeatherDescription)

	out, err := Encode(cc)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"cloud_cover_percent":null`)
	assert.Contains(t, string(out), `"precipitation_mm":0`)
}

func TestBuildCurrentConditionsMissingCode(t *testing.T) {
	cc := BuildCurrentConditions(weather.Snapshot{Current: &weather.Current{}})
	require.NotNil(t, cc)
	assert.Equal(t, "Clear sky", cc.WeatherDescription)
}

func TestBuildForecastSummary(t *testing.T) {
	assert.Nil(t, BuildForecastSummary(weather.Snapshot{}))

	fs := BuildForecastSummary(weather.Snapshot{Daily: &weather.Daily{
		Time:             []string{"2026-01-17", "2026-01-18"},
		Temperature2mMax: series(14.1, 15.3),
		Temperature2mMin: series(5.2),
		PrecipitationSum: series(0, 2.4),
	}})
	require.NotNil(t, fs)
	assert.Equal(t, 15.3, *fs.TomorrowMaxTempC)
	assert.Nil(t, fs.TomorrowMinTempC, "single-entry series has no tomorrow")
	assert.Equal(t, 2.4, *fs.TomorrowPrecipitationMM)

	out, err := Encode(BuildForecastSummary(weather.Snapshot{Daily: &weather.Daily{}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(out))
}

func TestEstimateAirQualityScores(t *testing.T) {
	tests := []struct {
		wind     float64
		score    int
		category string
	}{
		{4.9, 100, "Poor (Low dispersion)"},
		{5.0, 70, "Moderate"},
		{9.9, 70, "Moderate"},
		{10.0, 40, "Good (Good dispersion)"},
		{15.0, 40, "Good (Good dispersion)"},
	}
	for _, tt := range tests {
		aq := EstimateAirQuality(weather.Snapshot{Current: &weather.Current{WindSpeed10m: f(tt.wind)}})
		require.NotNil(t, aq)
		assert.Equal(t, tt.score, aq.EstimatedAQI, "wind %.1f", tt.wind)
		assert.Equal(t, tt.category, aq.Category, "wind %.1f", tt.wind)
		assert.Equal(t, tt.wind, aq.Factors.WindSpeedMS)
	}
}

func TestEstimateAirQualityEmptySnapshot(t *testing.T) {
	aq := EstimateAirQuality(weather.Snapshot{})
	require.NotNil(t, aq)
	assert.True(t, aq.Estimated)
	assert.Equal(t, "Weather-based estimation", aq.Method)
	assert.Equal(t, 100, aq.EstimatedAQI)
	assert.Equal(t, 1013.0, aq.Factors.PressureMSLHPa)
	assert.Equal(t, 0.0, aq.Factors.HumidityPercent)
	assert.Equal(t, "Poor air quality. Everyone should limit prolonged outdoor exertion.", aq.HealthRecommendation)
}

func TestHealthRecommendationTiers(t *testing.T) {
	assert.Contains(t, healthRecommendation(40), "good")
	assert.Contains(t, healthRecommendation(50), "good")
	assert.Contains(t, healthRecommendation(70), "Moderate")
	assert.Contains(t, healthRecommendation(75), "Moderate")
	assert.Contains(t, healthRecommendation(100), "Poor")
}

func TestClimateTrendsRecoversWarming(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	daily := dailyFixture(start, end, func(day time.Time) (float64, float64) {
		years := day.Sub(start).Hours() / 24 / 365.25
		return 15 + 0.5*years, 1
	})
	daily.SurfacePressureMean = series(950.04, 950.16)

	trends := CalculateClimateTrends(weather.Snapshot{Daily: daily})
	require.NotNil(t, trends)
	assert.InDelta(t, 2.0, trends.TemperatureTrendCelsius, 0.05)
	assert.InDelta(t, trends.TemperatureTrendCelsius/4, trends.TemperatureChangeRatePerYear, 0.002)
	assert.Equal(t, 0.0, trends.RainfallTrendMM, "2020 and 2024 are both leap years")
	assert.Equal(t, 365.4, trends.AverageAnnualRainfallMM)
	require.NotNil(t, trends.AvgSurfacePressureHPa)
	assert.Equal(t, 950.1, *trends.AvgSurfacePressureHPa)
}

func TestClimateTrendsStepwise(t *testing.T) {
	daily := &weather.Daily{
		Time:              []string{"2021-06-01", "2021-06-02", "2022-06-01", "2023-06-01"},
		Temperature2mMean: []*float64{f(20), f(22), nil, f(24)},
		PrecipitationSum:  series(10, 5, 7, 3),
	}
	trends := CalculateClimateTrends(weather.Snapshot{Daily: daily})
	require.NotNil(t, trends)
	assert.Equal(t, 3.0, trends.TemperatureTrendCelsius)
	assert.Equal(t, 1.5, trends.TemperatureChangeRatePerYear)
	assert.Equal(t, -12.0, trends.RainfallTrendMM)
	assert.Equal(t, 8.33, trends.AverageAnnualRainfallMM)
	assert.Nil(t, trends.AvgSurfacePressureHPa)

	out, err := Encode(trends)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "avg_surface_pressure_hpa")
}

func TestClimateTrendsInsufficientData(t *testing.T) {
	tests := []struct {
		name string
		snap weather.Snapshot
	}{
		{"empty snapshot", weather.Snapshot{}},
		{"no time", weather.Snapshot{Daily: &weather.Daily{Temperature2mMean: series(1, 2)}}},
		{"no temperature", weather.Snapshot{Daily: &weather.Daily{Time: []string{"2020-01-01", "2021-01-01"}}}},
		{"single year", weather.Snapshot{Daily: &weather.Daily{
			Time:              []string{"2024-01-01", "2024-12-31"},
			Temperature2mMean: series(10, 12),
		}}},
		{"first year without temperatures", weather.Snapshot{Daily: &weather.Daily{
			Time:              []string{"2023-12-31", "2024-01-01"},
			Temperature2mMean: []*float64{nil, f(12)},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, CalculateClimateTrends(tt.snap))
		})
	}
}

func TestAnalyzeDroughtRiskMonths(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	daily := dailyFixture(start, end, func(day time.Time) (float64, float64) {
		if day.Month() == time.January {
			return 10, 25
		}
		return 20, 0.5
	})

	risk := AnalyzeDroughtRisk(weather.Snapshot{Daily: daily})
	require.NotNil(t, risk)
	assert.Equal(t, []int{1}, risk.WetSeasonMonths)
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, risk.DrySeasonMonths)
	assert.Equal(t, 928.42, risk.AnnualPrecipitationMM)
	assert.Equal(t, RiskModerate, risk.DroughtRisk)
	assert.Equal(t, "Sub-humid", risk.Classification)
	assert.False(t, risk.HighRisk())
}

func TestAnalyzeDroughtRiskArid(t *testing.T) {
	daily := &weather.Daily{
		Time:             []string{"2023-07-01", "2023-07-02", "2023-08-01"},
		PrecipitationSum: []*float64{f(0), nil, f(0.2)},
	}
	risk := AnalyzeDroughtRisk(weather.Snapshot{Daily: daily})
	require.NotNil(t, risk)
	assert.Equal(t, []int{7, 8}, risk.DrySeasonMonths)
	assert.Empty(t, risk.WetSeasonMonths)
	assert.Equal(t, 6.09, risk.AnnualPrecipitationMM)
	assert.Equal(t, RiskVeryHigh, risk.DroughtRisk)
	assert.True(t, risk.HighRisk())

	out, err := Encode(risk)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"wet_season_months":[]`)
}

func TestDroughtClassificationBoundaries(t *testing.T) {
	tests := []struct {
		mm             float64
		risk, classify string
	}{
		{0, RiskVeryHigh, "Arid/Semi-arid"},
		{299.99, RiskVeryHigh, "Arid/Semi-arid"},
		{300, RiskHigh, "Semi-arid"},
		{599.99, RiskHigh, "Semi-arid"},
		{600, RiskModerate, "Sub-humid"},
		{1200, RiskModerate, "Sub-humid"},
	}
	for _, tt := range tests {
		risk, classification := classifyPrecipitation(tt.mm)
		assert.Equal(t, tt.risk, risk, "%.2f mm", tt.mm)
		assert.Equal(t, tt.classify, classification, "%.2f mm", tt.mm)
	}
}

func TestAnalyzeDroughtRiskMissingSeries(t *testing.T) {
	assert.Nil(t, AnalyzeDroughtRisk(weather.Snapshot{}))
	assert.Nil(t, AnalyzeDroughtRisk(weather.Snapshot{Daily: &weather.Daily{Time: []string{"2024-01-01"}}}))
}

func TestBuildHistoricalSummary(t *testing.T) {
	assert.Nil(t, BuildHistoricalSummary(weather.Snapshot{}))

	h := BuildHistoricalSummary(weather.Snapshot{Daily: &weather.Daily{
		Time:                []string{"2021-01-15", "2021-01-16", "2021-01-17"},
		Temperature2mMax:    []*float64{f(10), nil, f(13.34)},
		Temperature2mMin:    series(1, 2, 3),
		PrecipitationSum:    series(0.111, 0.222, 0.333),
		WindSpeed10mMax:     series(12.5, 31.456, 8),
		SurfacePressureMean: nil,
	}})
	require.NotNil(t, h)
	assert.Equal(t, "2021-01-15", *h.PeriodStart)
	assert.Equal(t, "2021-01-17", *h.PeriodEnd)
	assert.Equal(t, 11.67, *h.AvgMaxTempC)
	assert.Equal(t, 2.0, *h.AvgMinTempC)
	assert.Equal(t, 0.67, *h.TotalPrecipitationMM)
	assert.Equal(t, 31.46, *h.MaxWindSpeedKMH)
	assert.Nil(t, h.AvgSurfacePressureHPa)
}

func TestDeriveEmptySnapshots(t *testing.T) {
	d := Derive(weather.Snapshot{}, weather.Snapshot{})
	assert.Nil(t, d.CurrentConditions)
	assert.Nil(t, d.ForecastSummary)
	assert.Nil(t, d.ClimateTrends)
	assert.Nil(t, d.DroughtRisk)
	assert.Nil(t, d.HistoricalSummary)
	require.NotNil(t, d.AirQuality)

	out, err := Encode(d.ClimateTrends)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestEncodeRoundTripsThroughStorage(t *testing.T) {
	risk := &DroughtRisk{DrySeasonMonths: []int{6}, WetSeasonMonths: []int{}, AnnualPrecipitationMM: 250, DroughtRisk: RiskVeryHigh}
	out, err := Encode(risk)
	require.NoError(t, err)

	var back DroughtRisk
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, back.HighRisk())
}

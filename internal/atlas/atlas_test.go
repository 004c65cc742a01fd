package atlas

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SourceM7/syrianzone/internal/database"
	"github.com/SourceM7/syrianzone/internal/observability"
)

var now = time.Date(2026, 1, 17, 12, 30, 0, 0, time.UTC)

func ptr(s string) *string { return &s }

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestService(t *testing.T, db *database.DB) (*Service, *clockwork.FakeClock, *observability.Metrics) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(now)
	metrics := observability.NewMetricsForTesting()
	return NewService(db, Options{Clock: clock, Metrics: metrics}), clock, metrics
}

func TestMasterGroupsSources(t *testing.T) {
	db := openTestDB(t)
	db.InsertDemographic(database.Demographic{DataType: "population", SourceID: 1, CityName: "Damascus", Value: 2103000, Date: ptr("2024-01-01"), Note: ptr("UN estimate")})
	db.InsertDemographic(database.Demographic{DataType: "population", SourceID: 1, CityName: "Aleppo", Value: 4118000, Note: ptr("ignored")})
	db.InsertDemographic(database.Demographic{DataType: "population", SourceID: 2, CityName: "Homs", Value: 1790000})
	db.InsertDemographic(database.Demographic{DataType: "idp", SourceID: 7, CityName: "Idlib", Value: 2800000})

	svc, _, _ := newTestService(t, db)
	m, err := svc.Master(context.Background())
	require.NoError(t, err)

	pop := m.Groups["population"]
	require.Len(t, pop, 2)
	assert.Equal(t, 1, pop[0].SourceID)
	assert.Equal(t, map[string]int64{"Damascus": 2103000, "Aleppo": 4118000}, pop[0].Cities)
	assert.Equal(t, "UN estimate", *pop[0].Note, "first row's metadata wins")
	assert.Equal(t, "2024-01-01", *pop[0].Date)
	assert.Equal(t, 2, pop[1].SourceID)

	require.Len(t, m.Groups["idp"], 1)
	assert.NotContains(t, m.Groups, environmentalDataType)
}

func TestMasterAddsEnvironmentalAvailability(t *testing.T) {
	db := openTestDB(t)
	db.UpsertEnvironmentalCity("Damascus", 33.51, 36.29, nil, now)
	db.UpsertEnvironmentalCity("Homs", 34.73, 36.72, nil, now)

	svc, _, _ := newTestService(t, db)
	m, err := svc.Master(context.Background())
	require.NoError(t, err)

	env := m.Groups[environmentalDataType]
	require.Len(t, env, 1)
	assert.Equal(t, 1, env[0].SourceID)
	assert.Equal(t, map[string]int64{"Damascus": 1, "Homs": 1}, env[0].Cities)

	out, err := json.Marshal(env[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"source_id":1,"cities":{"Damascus":1,"Homs":1}}`, string(out))
}

func TestMasterKeepsImportedEnvironmentalData(t *testing.T) {
	db := openTestDB(t)
	db.InsertDemographic(database.Demographic{DataType: "environmental", SourceID: 3, CityName: "Hama", Value: 42})
	db.UpsertEnvironmentalCity("Homs", 34.73, 36.72, nil, now)

	svc, _, _ := newTestService(t, db)
	m, err := svc.Master(context.Background())
	require.NoError(t, err)

	env := m.Groups[environmentalDataType]
	require.Len(t, env, 1)
	assert.Equal(t, 3, env[0].SourceID)
	assert.Equal(t, map[string]int64{"Hama": 42}, env[0].Cities)

	out, err := json.Marshal(env[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"source_id":3,"note":null,"date":null,"source_url":null,"cities":{"Hama":42}}`, string(out))
}

func TestMasterRainfall(t *testing.T) {
	db := openTestDB(t)
	db.InsertRainfall(database.Rainfall{PCode: "SY07", Year: 2022, Rainfall: 310.5, RainfallAvg: 295})
	db.InsertRainfall(database.Rainfall{PCode: "SY07", Year: 2020, Rainfall: 280, RainfallAvg: 295})
	db.InsertRainfall(database.Rainfall{PCode: "SY02", Year: 2021, Rainfall: 150, RainfallAvg: 160})

	svc, _, _ := newTestService(t, db)
	m, err := svc.Master(context.Background())
	require.NoError(t, err)

	require.Len(t, m.RainfallData["SY07"], 2)
	assert.Equal(t, RainfallRecord{Year: 2020, Rainfall: 280, RainfallAvg: 295}, m.RainfallData["SY07"][0])
	assert.Equal(t, 2022, m.RainfallData["SY07"][1].Year)
	assert.Len(t, m.RainfallData["SY02"], 1)
}

func TestMasterEmptyDatabase(t *testing.T) {
	db := openTestDB(t)
	svc, _, _ := newTestService(t, db)

	m, err := svc.Master(context.Background())
	require.NoError(t, err)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"groups":{},"rainfall_data":{}}`, string(out))
}

func TestMasterCachedForTTL(t *testing.T) {
	db := openTestDB(t)
	db.InsertDemographic(database.Demographic{DataType: "population", SourceID: 1, CityName: "Homs", Value: 1})

	svc, clock, metrics := newTestService(t, db)
	ctx := context.Background()

	first, err := svc.Master(ctx)
	require.NoError(t, err)

	db.InsertDemographic(database.Demographic{DataType: "population", SourceID: 1, CityName: "Hama", Value: 2})

	clock.Advance(59 * time.Minute)
	second, err := svc.Master(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, second.Groups["population"][0].Cities, 1)

	clock.Advance(time.Minute)
	third, err := svc.Master(ctx)
	require.NoError(t, err)
	assert.Len(t, third.Groups["population"][0].Cities, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PayloadCache.WithLabelValues(MasterKey, "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.PayloadCache.WithLabelValues(MasterKey, "miss")))
}

func TestInvalidate(t *testing.T) {
	db := openTestDB(t)
	svc, _, _ := newTestService(t, db)
	ctx := context.Background()

	r1, err := svc.EnvironmentalReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, r1.Metadata.CitiesAnalyzed)

	db.UpsertEnvironmentalCity("Raqqa", 35.95, 39.01, nil, now)
	svc.Invalidate()

	r2, err := svc.EnvironmentalReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, r2.Metadata.CitiesAnalyzed)
}

func saveCity(t *testing.T, db *database.DB, name string, population int64, drought, air string) {
	t.Helper()
	require.NoError(t, db.UpsertEnvironmentalCity(name, 35, 38, &population, now))
	l, err := db.GetEnvironmentalLog(name)
	require.NoError(t, err)
	require.NoError(t, db.SaveEnvironmentalFields(l.ID, database.EnvironmentalFields{
		CurrentConditions: []byte(`{"temperature_celsius":18.5,"weather_description":"Clear sky"}`),
		DroughtRisk:       []byte(drought),
		AirQuality:        []byte(air),
		LastUpdatedAt:     now,
	}))
}

func TestEnvironmentalReport(t *testing.T) {
	db := openTestDB(t)
	saveCity(t, db, "Deir ez-Zor", 1267000, `{"drought_risk":"Very High","annual_precipitation_mm":150}`, `{"estimated_aqi":100,"category":"Poor (Low dispersion)"}`)
	saveCity(t, db, "Homs", 1790000, `{"drought_risk":"High","annual_precipitation_mm":450}`, `{"estimated_aqi":70,"category":"Moderate"}`)
	saveCity(t, db, "Latakia", 1346000, `{"drought_risk":"Moderate","annual_precipitation_mm":800}`, `{"estimated_aqi":40,"category":"Good (Good dispersion)"}`)
	db.UpsertEnvironmentalCity("Quneitra", 33.08, 35.89, nil, now)

	svc, _, _ := newTestService(t, db)
	r, err := svc.EnvironmentalReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Syria", r.Metadata.Country)
	assert.Equal(t, "2026-01-17T12:30:00Z", r.Metadata.ReportDate)
	assert.Equal(t, 4, r.Metadata.CitiesAnalyzed)
	assert.Equal(t, []string{"Open-Meteo", "NASA POWER", "World Bank Climate API"}, r.Metadata.DataSources)

	assert.Equal(t, []string{
		"2/4 cities at high/very high drought risk",
		"1/4 cities with poor air quality conditions",
		"Generated by the atlas climate service at 2026-01-17 12:30:00",
	}, r.Summary.KeyFindings)
	assert.Len(t, r.Summary.Recommendations, 5)
	assert.Equal(t, 4, r.Summary.TotalCitiesAnalyzed)

	homs := r.Cities["Homs"]
	assert.Equal(t, int64(1790000), *homs.Population)
	assert.Equal(t, 35.0, homs.Coordinates.Latitude)
	assert.JSONEq(t, `{}`, string(homs.ClimateTrends))

	q := r.Cities["Quneitra"]
	assert.Nil(t, q.Population)
	assert.JSONEq(t, `{}`, string(q.AirQuality))

	assert.Equal(t, "Mostly semi-arid to arid", r.CountryLevel.ClimateContext.Classification)
	assert.Len(t, r.CountryLevel.ClimateContext.KeyWaterBasins, 5)
	assert.Len(t, r.CountryLevel.ClimateContext.MainClimateChallenges, 5)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.ElementsMatch(t, []string{"metadata", "cities", "country_level", "summary"}, keys(decoded))
	city := decoded["cities"].(map[string]any)["Homs"].(map[string]any)
	assert.Contains(t, city, "daily_forecast_summary")
	assert.Equal(t, "High", city["drought_risk"].(map[string]any)["drought_risk"])
}

func TestEnvironmentalReportEmpty(t *testing.T) {
	db := openTestDB(t)
	svc, _, _ := newTestService(t, db)

	r, err := svc.EnvironmentalReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0/0 cities at high/very high drought risk", r.Summary.KeyFindings[0])

	out, err := json.Marshal(r.Cities)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestBriefing(t *testing.T) {
	db := openTestDB(t)
	saveCity(t, db, "Homs", 1790000, `{"drought_risk":"High","annual_precipitation_mm":450}`, `{"estimated_aqi":70,"category":"Moderate"}`)
	db.UpsertEnvironmentalCity("Quneitra", 33.08, 35.89, nil, now)

	svc, _, _ := newTestService(t, db)
	r, err := svc.EnvironmentalReport(context.Background())
	require.NoError(t, err)

	md := Briefing(r)
	assert.Contains(t, md, "# Syria climate briefing")
	assert.Contains(t, md, "- 1/2 cities at high/very high drought risk")
	assert.Contains(t, md, "| Homs | 18.5 °C | High | 450 mm | Moderate |")
	assert.Contains(t, md, "| Quneitra | n/a | n/a | n/a | n/a |")
	assert.Contains(t, md, "5. Invest in renewable energy to reduce pollution")
}

func TestBriefingToleratesUndecodableFields(t *testing.T) {
	r := &Report{
		Metadata: ReportMetadata{Country: "Syria"},
		Cities: map[string]CityReport{
			"Idlib": {
				CurrentConditions: json.RawMessage(`not json`),
				DroughtRisk:       json.RawMessage(`[1,2]`),
				AirQuality:        json.RawMessage(`"text"`),
			},
		},
	}

	md := Briefing(r)
	assert.Contains(t, md, "| Idlib | n/a | n/a | n/a | n/a |")
}

func TestCacheExpiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(now)
	c := NewCache(time.Hour, clock)

	c.Set("k", 1)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	clock.Advance(time.Hour)
	_, ok = c.Get("k")
	assert.False(t, ok)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Invalidate()
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

package atlas

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/SourceM7/syrianzone/internal/climate"
	"github.com/SourceM7/syrianzone/internal/database"
)

const findingTimeLayout = "2006-01-02 15:04:05"

var dataSources = []string{"Open-Meteo", "NASA POWER", "World Bank Climate API"}

var recommendations = []string{
	"Implement water conservation and efficient irrigation systems",
	"Develop drought-resistant agricultural practices",
	"Monitor air quality in major urban centers",
	"Enhance early warning systems for extreme weather events",
	"Invest in renewable energy to reduce pollution",
}

// countryLevel is static reference data about Syria's climate.
var countryLevel = CountryLevel{
	WorldBankClimateData: map[string]string{
		"status": "Data available via the atlas climate service",
	},
	ClimateContext: ClimateContext{
		Classification: "Mostly semi-arid to arid",
		MainClimateChallenges: []string{
			"Water scarcity and declining groundwater levels",
			"Increasing drought frequency and severity",
			"Rising temperatures and heat waves",
			"Rainfall pattern changes affecting agriculture",
			"Air quality concerns in urban areas",
		},
		KeyWaterBasins: []string{
			"Euphrates River Basin",
			"Orontes River Basin",
			"Yarmouk River Basin",
			"Barada and Awaj Basin",
			"Coastal Basin",
		},
	},
}

// Report is the payload behind GET /population/env-report.
type Report struct {
	Metadata     ReportMetadata        `json:"metadata"`
	Cities       map[string]CityReport `json:"cities"`
	CountryLevel CountryLevel          `json:"country_level"`
	Summary      ReportSummary         `json:"summary"`
}

type ReportMetadata struct {
	Country        string   `json:"country"`
	ReportDate     string   `json:"report_date"`
	DataSources    []string `json:"data_sources"`
	CitiesAnalyzed int      `json:"cities_analyzed"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CityReport carries the stored derived objects verbatim.
type CityReport struct {
	Coordinates          Coordinates     `json:"coordinates"`
	Population           *int64          `json:"population"`
	CurrentConditions    json.RawMessage `json:"current_conditions"`
	DailyForecastSummary json.RawMessage `json:"daily_forecast_summary"`
	ClimateTrends        json.RawMessage `json:"climate_trends"`
	AirQuality           json.RawMessage `json:"air_quality"`
	DroughtRisk          json.RawMessage `json:"drought_risk"`
	HistoricalSummary    json.RawMessage `json:"historical_summary"`
}

type CountryLevel struct {
	WorldBankClimateData map[string]string `json:"world_bank_climate_data"`
	ClimateContext       ClimateContext    `json:"climate_context"`
}

type ClimateContext struct {
	Classification        string   `json:"classification"`
	MainClimateChallenges []string `json:"main_climate_challenges"`
	KeyWaterBasins        []string `json:"key_water_basins"`
}

type ReportSummary struct {
	TotalCitiesAnalyzed int      `json:"total_cities_analyzed"`
	DataCollectionDate  string   `json:"data_collection_date"`
	KeyFindings         []string `json:"key_findings"`
	Recommendations     []string `json:"recommendations"`
}

func buildReport(logs []database.EnvironmentalLog, now time.Time) *Report {
	r := &Report{
		Cities:       make(map[string]CityReport, len(logs)),
		CountryLevel: countryLevel,
	}

	var droughtHigh, airPoor int
	for _, l := range logs {
		r.Cities[l.CityName] = CityReport{
			Coordinates:          Coordinates{Latitude: l.Lat, Longitude: l.Lon},
			Population:           l.PopulationRef,
			CurrentConditions:    rawObject(l.CurrentConditions),
			DailyForecastSummary: rawObject(l.ForecastSummary),
			ClimateTrends:        rawObject(l.ClimateTrends),
			AirQuality:           rawObject(l.AirQuality),
			DroughtRisk:          rawObject(l.DroughtRisk),
			HistoricalSummary:    rawObject(l.HistoricalSummary),
		}

		var drought climate.DroughtRisk
		if json.Unmarshal(l.DroughtRisk, &drought) == nil && drought.HighRisk() {
			droughtHigh++
		}
		var aq climate.AirQuality
		if json.Unmarshal(l.AirQuality, &aq) == nil && aq.EstimatedAQI > climate.PoorAirQualityThreshold {
			airPoor++
		}
	}

	total := len(r.Cities)
	stamp := now.Format(time.RFC3339)

	r.Metadata = ReportMetadata{
		Country:        "Syria",
		ReportDate:     stamp,
		DataSources:    dataSources,
		CitiesAnalyzed: total,
	}
	r.Summary = ReportSummary{
		TotalCitiesAnalyzed: total,
		DataCollectionDate:  stamp,
		KeyFindings: []string{
			fmt.Sprintf("%d/%d cities at high/very high drought risk", droughtHigh, total),
			fmt.Sprintf("%d/%d cities with poor air quality conditions", airPoor, total),
			"Generated by the atlas climate service at " + now.Format(findingTimeLayout),
		},
		Recommendations: recommendations,
	}
	return r
}

// rawObject passes stored JSON through, replacing anything unusable with {}.
func rawObject(b []byte) json.RawMessage {
	if len(b) == 0 || !json.Valid(b) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(b)
}

package climate

import (
	"fmt"

	"github.com/SourceM7/syrianzone/internal/weather"
)

// weatherCodes maps WMO weather interpretation codes to descriptions.
var weatherCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// WeatherDescription returns the text for a WMO code.
func WeatherDescription(code int) string {
	if d, ok := weatherCodes[code]; ok {
		return d
	}
	return fmt.Sprintf("Unknown (code: %d)", code)
}

type CurrentConditions struct {
	TemperatureCelsius   *float64 `json:"temperature_celsius"`
	FeelsLikeCelsius     *float64 `json:"feels_like_celsius"`
	HumidityPercent      *float64 `json:"humidity_percent"`
	PrecipitationMM      float64  `json:"precipitation_mm"`
	WindSpeedKMH         float64  `json:"wind_speed_kmh"`
	WindDirectionDegrees *float64 `json:"wind_direction_degrees"`
	PressureMSLHPa       *float64 `json:"pressure_msl_hpa"`
	PressureSurfaceHPa   *float64 `json:"pressure_surface_hpa"`
	CloudCoverPercent    *float64 `json:"cloud_cover_percent"`
	WeatherDescription   string   `json:"weather_description"`
}

// BuildCurrentConditions maps the current readings to named fields.
func BuildCurrentConditions(s weather.Snapshot) *CurrentConditions {
	c := s.Current
	if c == nil {
		return nil
	}

	code := 0
	if c.WeatherCode != nil {
		code = *c.WeatherCode
	}

	return &CurrentConditions{
		TemperatureCelsius:   c.Temperature2m,
		FeelsLikeCelsius:     c.ApparentTemperature,
		HumidityPercent:      c.RelativeHumidity2m,
		PrecipitationMM:      valueOr(c.Precipitation, 0),
		WindSpeedKMH:         valueOr(c.WindSpeed10m, 0),
		WindDirectionDegrees: c.WindDirection10m,
		PressureMSLHPa:       c.PressureMSL,
		PressureSurfaceHPa:   c.SurfacePressure,
		CloudCoverPercent:    c.CloudCover,
		WeatherDescription:   WeatherDescription(code),
	}
}

type ForecastSummary struct {
	TomorrowMaxTempC        *float64 `json:"tomorrow_max_temp_c,omitempty"`
	TomorrowMinTempC        *float64 `json:"tomorrow_min_temp_c,omitempty"`
	TomorrowPrecipitationMM *float64 `json:"tomorrow_precipitation_mm,omitempty"`
}

// BuildForecastSummary extracts tomorrow's values from the daily forecast.
func BuildForecastSummary(s weather.Snapshot) *ForecastSummary {
	d := s.Daily
	if d == nil {
		return nil
	}

	tomorrow := func(series []*float64) *float64 {
		if v, ok := at(series, 1); ok {
			return &v
		}
		return nil
	}

	return &ForecastSummary{
		TomorrowMaxTempC:        tomorrow(d.Temperature2mMax),
		TomorrowMinTempC:        tomorrow(d.Temperature2mMin),
		TomorrowPrecipitationMM: tomorrow(d.PrecipitationSum),
	}
}

type AirQualityFactors struct {
	WindSpeedMS       float64 `json:"wind_speed_m_s"`
	HumidityPercent   float64 `json:"humidity_percent"`
	CloudCoverPercent float64 `json:"cloud_cover_percent"`
	PressureMSLHPa    float64 `json:"pressure_msl_hpa"`
}

// AirQuality is a dispersion heuristic based on wind speed alone. It is not
// derived from pollutant measurements.
type AirQuality struct {
	Estimated            bool              `json:"estimated"`
	Method               string            `json:"method"`
	Factors              AirQualityFactors `json:"factors"`
	EstimatedAQI         int               `json:"estimated_aqi"`
	Category             string            `json:"category"`
	HealthRecommendation string            `json:"health_recommendation"`
}

// PoorAirQualityThreshold is the score above which a city counts as having
// poor air quality.
const PoorAirQualityThreshold = 75

// EstimateAirQuality scores air quality from the current wind speed. It always
// returns a complete result; missing readings take their defaults.
func EstimateAirQuality(s weather.Snapshot) *AirQuality {
	c := s.Current
	if c == nil {
		c = &weather.Current{}
	}

	wind := valueOr(c.WindSpeed10m, 0)

	aq := &AirQuality{
		Estimated: true,
		Method:    "Weather-based estimation",
		Factors: AirQualityFactors{
			WindSpeedMS:       wind,
			HumidityPercent:   valueOr(c.RelativeHumidity2m, 0),
			CloudCoverPercent: valueOr(c.CloudCover, 0),
			PressureMSLHPa:    valueOr(c.PressureMSL, 1013),
		},
	}

	switch {
	case wind < 5:
		aq.EstimatedAQI, aq.Category = 100, "Poor (Low dispersion)"
	case wind < 10:
		aq.EstimatedAQI, aq.Category = 70, "Moderate"
	default:
		aq.EstimatedAQI, aq.Category = 40, "Good (Good dispersion)"
	}
	aq.HealthRecommendation = healthRecommendation(aq.EstimatedAQI)

	return aq
}

func healthRecommendation(score int) string {
	switch {
	case score <= 50:
		return "Air quality is good. Outdoor activities are safe."
	case score <= PoorAirQualityThreshold:
		return "Moderate air quality. Sensitive individuals should limit prolonged outdoor exertion."
	default:
		return "Poor air quality. Everyone should limit prolonged outdoor exertion."
	}
}

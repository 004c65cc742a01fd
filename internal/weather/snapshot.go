package weather

// Snapshot mirrors an Open-Meteo response. Sections the upstream omitted are
// nil; the zero Snapshot is the result of a failed request.
type Snapshot struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Timezone  string   `json:"timezone,omitempty"`
	Current   *Current `json:"current,omitempty"`
	Daily     *Daily   `json:"daily,omitempty"`
}

// Empty reports whether the snapshot carries no weather data.
func (s Snapshot) Empty() bool {
	return s.Current == nil && s.Daily == nil
}

// Current holds the present-moment readings of the forecast endpoint.
type Current struct {
	Time                string   `json:"time,omitempty"`
	Temperature2m       *float64 `json:"temperature_2m"`
	RelativeHumidity2m  *float64 `json:"relative_humidity_2m"`
	ApparentTemperature *float64 `json:"apparent_temperature"`
	IsDay               *float64 `json:"is_day"`
	Precipitation       *float64 `json:"precipitation"`
	Rain                *float64 `json:"rain"`
	Showers             *float64 `json:"showers"`
	Snowfall            *float64 `json:"snowfall"`
	WeatherCode         *int     `json:"weather_code"`
	CloudCover          *float64 `json:"cloud_cover"`
	PressureMSL         *float64 `json:"pressure_msl"`
	SurfacePressure     *float64 `json:"surface_pressure"`
	WindSpeed10m        *float64 `json:"wind_speed_10m"`
	WindDirection10m    *float64 `json:"wind_direction_10m"`
	WindGusts10m        *float64 `json:"wind_gusts_10m"`
}

// Daily holds parallel series indexed by Time. A nil series was not returned
// by the upstream; nil entries are days without a value.
type Daily struct {
	Time                     []string   `json:"time"`
	Temperature2mMax         []*float64 `json:"temperature_2m_max"`
	Temperature2mMin         []*float64 `json:"temperature_2m_min"`
	Temperature2mMean        []*float64 `json:"temperature_2m_mean"`
	ApparentTemperatureMax   []*float64 `json:"apparent_temperature_max"`
	ApparentTemperatureMin   []*float64 `json:"apparent_temperature_min"`
	Sunrise                  []string   `json:"sunrise"`
	Sunset                   []string   `json:"sunset"`
	DaylightDuration         []*float64 `json:"daylight_duration"`
	SunshineDuration         []*float64 `json:"sunshine_duration"`
	PrecipitationSum         []*float64 `json:"precipitation_sum"`
	RainSum                  []*float64 `json:"rain_sum"`
	PrecipitationHours       []*float64 `json:"precipitation_hours"`
	WindSpeed10mMax          []*float64 `json:"wind_speed_10m_max"`
	WindGusts10mMax          []*float64 `json:"wind_gusts_10m_max"`
	WindDirection10mDominant []*float64 `json:"wind_direction_10m_dominant"`
	ET0FAOEvapotranspiration []*float64 `json:"et0_fao_evapotranspiration"`
	SurfacePressureMean      []*float64 `json:"surface_pressure_mean"`
}

package database

import "time"

// Demographic is one city value from an imported population dataset.
type Demographic struct {
	ID        int64
	DataType  string
	SourceID  int
	CityName  string
	Value     int64
	SourceURL *string
	Date      *string // YYYY-MM-DD
	Note      *string
}

// Rainfall is one yearly rainfall figure for an administrative region.
type Rainfall struct {
	ID          int64
	PCode       string
	Year        int
	Rainfall    float64
	RainfallAvg float64
}

// EnvironmentalLog is the per-city record enriched by the climate job.
// The derived fields hold JSON objects; an empty derivation is "{}".
type EnvironmentalLog struct {
	ID            int64
	CityName      string
	Lat           float64
	Lon           float64
	PopulationRef *int64
	EnvironmentalFields
}

// EnvironmentalFields are the columns overwritten by each enrichment run.
type EnvironmentalFields struct {
	CurrentConditions []byte
	ForecastSummary   []byte
	ClimateTrends     []byte
	AirQuality        []byte
	DroughtRisk       []byte
	HistoricalSummary []byte
	LastUpdatedAt     time.Time
}

// Stats contains aggregate database statistics.
type Stats struct {
	Demographics       int
	DemographicSources int
	RainfallRecords    int
	RainfallRegions    int
	Cities             int
	CitiesEnriched     int
	LastUpdatedAt      *time.Time
}

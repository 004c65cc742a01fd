package database

import (
	"database/sql"
	"fmt"
	"time"
)

const emptyObject = "{}"

// UpsertEnvironmentalCity creates or resets a city record. Derived fields are
// cleared to "{}" and last_updated_at is set to seededAt.
func (db *DB) UpsertEnvironmentalCity(name string, lat, lon float64, population *int64, seededAt time.Time) error {
	_, err := db.conn.Exec(
		`INSERT INTO pop_environmental_log
			(city_name, lat, lon, population_ref, current_conditions, forecast_summary,
			 climate_trends, air_quality, drought_risk, historical_summary, last_updated_at)
		VALUES (?, ?, ?, ?, '{}', '{}', '{}', '{}', '{}', '{}', ?)
		ON CONFLICT(city_name) DO UPDATE SET
			lat = excluded.lat,
			lon = excluded.lon,
			population_ref = excluded.population_ref,
			current_conditions = '{}',
			forecast_summary = '{}',
			climate_trends = '{}',
			air_quality = '{}',
			drought_risk = '{}',
			historical_summary = '{}',
			last_updated_at = excluded.last_updated_at`,
		name, lat, lon, population, formatTime(seededAt),
	)
	if err != nil {
		return fmt.Errorf("upserting city %s: %w", name, err)
	}
	return nil
}

// GetEnvironmentalLogs returns every city record in insertion order.
func (db *DB) GetEnvironmentalLogs() ([]EnvironmentalLog, error) {
	rows, err := db.conn.Query(
		`SELECT id, city_name, lat, lon, population_ref, current_conditions, forecast_summary,
			climate_trends, air_quality, drought_risk, historical_summary, last_updated_at
		FROM pop_environmental_log ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []EnvironmentalLog
	for rows.Next() {
		l, err := scanEnvironmentalLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// GetEnvironmentalLog returns a single city record by name, or nil if absent.
func (db *DB) GetEnvironmentalLog(name string) (*EnvironmentalLog, error) {
	row := db.conn.QueryRow(
		`SELECT id, city_name, lat, lon, population_ref, current_conditions, forecast_summary,
			climate_trends, air_quality, drought_risk, historical_summary, last_updated_at
		FROM pop_environmental_log WHERE city_name = ?`, name,
	)
	l, err := scanEnvironmentalLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetEnvironmentalCityNames returns the city names of all environmental records.
func (db *DB) GetEnvironmentalCityNames() ([]string, error) {
	rows, err := db.conn.Query("SELECT city_name FROM pop_environmental_log ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SaveEnvironmentalFields overwrites the derived fields of a city record.
// Nil or empty JSON is stored as "{}".
func (db *DB) SaveEnvironmentalFields(cityID int64, f EnvironmentalFields) error {
	result, err := db.conn.Exec(
		`UPDATE pop_environmental_log SET
			current_conditions = ?, forecast_summary = ?, climate_trends = ?,
			air_quality = ?, drought_risk = ?, historical_summary = ?, last_updated_at = ?
		WHERE id = ?`,
		jsonText(f.CurrentConditions), jsonText(f.ForecastSummary), jsonText(f.ClimateTrends),
		jsonText(f.AirQuality), jsonText(f.DroughtRisk), jsonText(f.HistoricalSummary),
		formatTime(f.LastUpdatedAt), cityID,
	)
	if err != nil {
		return fmt.Errorf("saving city %d: %w", cityID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("saving city %d: %w", cityID, err)
	}
	if n == 0 {
		return fmt.Errorf("city %d not found", cityID)
	}
	return nil
}

func jsonText(b []byte) string {
	if len(b) == 0 {
		return emptyObject
	}
	return string(b)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnvironmentalLog(row rowScanner) (*EnvironmentalLog, error) {
	var l EnvironmentalLog
	var current, forecast, trends, air, drought, historical, updated string
	if err := row.Scan(&l.ID, &l.CityName, &l.Lat, &l.Lon, &l.PopulationRef,
		&current, &forecast, &trends, &air, &drought, &historical, &updated); err != nil {
		return nil, err
	}
	l.CurrentConditions = []byte(current)
	l.ForecastSummary = []byte(forecast)
	l.ClimateTrends = []byte(trends)
	l.AirQuality = []byte(air)
	l.DroughtRisk = []byte(drought)
	l.HistoricalSummary = []byte(historical)

	t, err := parseTime(updated)
	if err != nil {
		return nil, err
	}
	l.LastUpdatedAt = t
	return &l, nil
}

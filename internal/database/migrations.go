package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "population atlas tables",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS pop_demographics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    data_type TEXT NOT NULL,
    source_id INTEGER NOT NULL,
    city_name TEXT NOT NULL,
    value INTEGER NOT NULL,
    source_url TEXT,
    date TEXT,
    note TEXT,
    created_at TEXT DEFAULT (datetime('now')),
    UNIQUE (data_type, source_id, city_name)
);

CREATE TABLE IF NOT EXISTS pop_rainfall (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    pcode TEXT NOT NULL,
    year INTEGER NOT NULL,
    rainfall REAL NOT NULL,
    rainfall_avg REAL NOT NULL,
    created_at TEXT DEFAULT (datetime('now')),
    UNIQUE (pcode, year)
);

CREATE TABLE IF NOT EXISTS pop_environmental_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    city_name TEXT UNIQUE NOT NULL,
    lat REAL NOT NULL,
    lon REAL NOT NULL,
    population_ref INTEGER,
    current_conditions TEXT NOT NULL DEFAULT '{}',
    forecast_summary TEXT NOT NULL DEFAULT '{}',
    climate_trends TEXT NOT NULL DEFAULT '{}',
    air_quality TEXT NOT NULL DEFAULT '{}',
    drought_risk TEXT NOT NULL DEFAULT '{}',
    historical_summary TEXT NOT NULL DEFAULT '{}',
    last_updated_at TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_demographics_type ON pop_demographics(data_type);
CREATE INDEX IF NOT EXISTS idx_demographics_source ON pop_demographics(source_id);
CREATE INDEX IF NOT EXISTS idx_rainfall_pcode ON pop_rainfall(pcode);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

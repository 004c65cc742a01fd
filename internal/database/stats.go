package database

import "database/sql"

// GetStats returns aggregate counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM pop_demographics", &s.Demographics},
		{"SELECT COUNT(DISTINCT data_type || '/' || source_id) FROM pop_demographics", &s.DemographicSources},
		{"SELECT COUNT(*) FROM pop_rainfall", &s.RainfallRecords},
		{"SELECT COUNT(DISTINCT pcode) FROM pop_rainfall", &s.RainfallRegions},
		{"SELECT COUNT(*) FROM pop_environmental_log", &s.Cities},
		{"SELECT COUNT(*) FROM pop_environmental_log WHERE current_conditions != '{}' OR climate_trends != '{}'", &s.CitiesEnriched},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	var last sql.NullString
	if err := db.conn.QueryRow("SELECT MAX(last_updated_at) FROM pop_environmental_log").Scan(&last); err != nil {
		return nil, err
	}
	if last.Valid {
		t, err := parseTime(last.String)
		if err != nil {
			return nil, err
		}
		s.LastUpdatedAt = &t
	}

	return s, nil
}

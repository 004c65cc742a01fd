package database

import "fmt"

// InsertRainfall inserts a yearly rainfall figure. Returns false if the
// (pcode, year) pair already exists.
func (db *DB) InsertRainfall(r Rainfall) (bool, error) {
	result, err := db.conn.Exec(
		`INSERT OR IGNORE INTO pop_rainfall (pcode, year, rainfall, rainfall_avg)
		VALUES (?, ?, ?, ?)`,
		r.PCode, r.Year, r.Rainfall, r.RainfallAvg,
	)
	if err != nil {
		return false, fmt.Errorf("inserting rainfall %s/%d: %w", r.PCode, r.Year, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetAllRainfall returns all rainfall rows ordered by region code, then year.
func (db *DB) GetAllRainfall() ([]Rainfall, error) {
	rows, err := db.conn.Query(
		`SELECT id, pcode, year, rainfall, rainfall_avg
		FROM pop_rainfall ORDER BY pcode, year`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rainfall
	for rows.Next() {
		var r Rainfall
		if err := rows.Scan(&r.ID, &r.PCode, &r.Year, &r.Rainfall, &r.RainfallAvg); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

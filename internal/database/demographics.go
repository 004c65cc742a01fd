package database

import "fmt"

// InsertDemographic inserts a demographic value. An existing row with the same
// (data_type, source_id, city_name) is kept and false is returned.
func (db *DB) InsertDemographic(d Demographic) (bool, error) {
	result, err := db.conn.Exec(
		`INSERT OR IGNORE INTO pop_demographics
			(data_type, source_id, city_name, value, source_url, date, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.DataType, d.SourceID, d.CityName, d.Value, d.SourceURL, d.Date, d.Note,
	)
	if err != nil {
		return false, fmt.Errorf("inserting demographic %s/%d/%s: %w", d.DataType, d.SourceID, d.CityName, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetAllDemographics returns all demographic rows in import order.
func (db *DB) GetAllDemographics() ([]Demographic, error) {
	rows, err := db.conn.Query(
		`SELECT id, data_type, source_id, city_name, value, source_url, date, note
		FROM pop_demographics ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Demographic
	for rows.Next() {
		var d Demographic
		if err := rows.Scan(&d.ID, &d.DataType, &d.SourceID, &d.CityName, &d.Value,
			&d.SourceURL, &d.Date, &d.Note); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

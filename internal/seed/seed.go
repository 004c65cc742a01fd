// Package seed performs the one-time import of the atlas reference data.
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/SourceM7/syrianzone/internal/database"
)

// City is one of the fixed cities enriched by the climate job.
type City struct {
	Name       string
	Lat        float64
	Lon        float64
	Population int64
}

// FixedCities are the governorate centers tracked by the environmental log.
var FixedCities = []City{
	{"Damascus", 33.51, 36.29, 2103000},
	{"Aleppo", 36.20, 37.16, 4118000},
	{"Idlib", 35.933, 36.633, 1172000},
	{"Rif Dimashq", 33.5, 37.3833, 3372000},
	{"Homs", 34.73, 36.72, 1790000},
	{"Hama", 35.13, 36.76, 2147000},
	{"Daraa", 32.6264, 36.1033, 966000},
	{"Latakia", 35.53, 35.79, 1346000},
	{"Deir ez-Zor", 35.34, 40.14, 1267000},
	{"Quneitra", 33.0776, 35.8934, 124000},
	{"Raqqa", 35.95, 39.01, 940000},
	{"Al-Hasakah", 36.5079, 40.7463, 1865000},
	{"Tartus", 34.89, 35.89, 1172000},
	{"As-Suwayda", 32.709, 36.5695, 540000},
}

// Result holds the results of an import.
type Result struct {
	Inserted int
	Skipped  int
}

// Store is the persistence the importers write to.
type Store interface {
	InsertDemographic(d database.Demographic) (bool, error)
	InsertRainfall(r database.Rainfall) (bool, error)
	UpsertEnvironmentalCity(name string, lat, lon float64, population *int64, seededAt time.Time) error
}

var yearOnly = regexp.MustCompile(`^\d{4}$`)

var demographicColumns = []string{"data_type", "source_id", "source_url", "date", "note", "city_name", "population"}

// Demographics imports population rows from CSV. Rows whose
// (data_type, source_id, city_name) already exist are skipped.
func Demographics(store Store, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range demographicColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("CSV header missing column %q", name)
		}
	}

	result := &Result{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("reading CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)

		field := func(name string) string {
			return strings.TrimSpace(row[cols[name]])
		}

		sourceID, err := strconv.Atoi(field("source_id"))
		if err != nil {
			return result, fmt.Errorf("line %d: invalid source_id: %w", line, err)
		}
		value, err := parsePopulation(field("population"))
		if err != nil {
			return result, fmt.Errorf("line %d: invalid population: %w", line, err)
		}

		inserted, err := store.InsertDemographic(database.Demographic{
			DataType:  field("data_type"),
			SourceID:  sourceID,
			CityName:  field("city_name"),
			Value:     value,
			SourceURL: nullIfEmpty(field("source_url")),
			Date:      normalizeDate(field("date")),
			Note:      nullIfEmpty(field("note")),
		})
		if err != nil {
			return result, err
		}
		count(result, inserted)
	}
	return result, nil
}

type rainfallYear struct {
	Year        int     `json:"year"`
	Rainfall    float64 `json:"rainfall"`
	RainfallAvg float64 `json:"rainfall_avg"`
}

// Rainfall imports yearly rainfall keyed by region code:
// {"SY01": [{"year": 2020, "rainfall": 210.4, "rainfall_avg": 230.1}]}.
func Rainfall(store Store, r io.Reader) (*Result, error) {
	var data map[string][]rainfallYear
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding rainfall JSON: %w", err)
	}

	result := &Result{}
	for pcode, years := range data {
		for _, y := range years {
			inserted, err := store.InsertRainfall(database.Rainfall{
				PCode:       pcode,
				Year:        y.Year,
				Rainfall:    y.Rainfall,
				RainfallAvg: y.RainfallAvg,
			})
			if err != nil {
				return result, err
			}
			count(result, inserted)
		}
	}
	return result, nil
}

// Cities creates or resets the environmental record of every fixed city.
// Records are stamped one day before now so the first run is always newer.
func Cities(store Store, now time.Time) error {
	seededAt := now.Add(-24 * time.Hour)
	for _, c := range FixedCities {
		population := c.Population
		if err := store.UpsertEnvironmentalCity(c.Name, c.Lat, c.Lon, &population, seededAt); err != nil {
			return err
		}
	}
	return nil
}

// normalizeDate maps "unknown" and "" to NULL and a bare year to January 1st.
func normalizeDate(s string) *string {
	if s == "" || strings.EqualFold(s, "unknown") {
		return nil
	}
	if yearOnly.MatchString(s) {
		s += "-01-01"
	}
	return &s
}

func parsePopulation(s string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func count(r *Result, inserted bool) {
	if inserted {
		r.Inserted++
	} else {
		r.Skipped++
	}
}

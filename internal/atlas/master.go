package atlas

import (
	"github.com/goccy/go-json"

	"github.com/SourceM7/syrianzone/internal/database"
)

// environmentalDataType is the data type listing cities with climate records.
const environmentalDataType = "environmental"

// Master is the payload behind GET /population/master.
type Master struct {
	Groups       map[string][]Source         `json:"groups"`
	RainfallData map[string][]RainfallRecord `json:"rainfall_data"`
}

// Source is one dataset: a (data_type, source_id) pair with its city values.
type Source struct {
	SourceID  int              `json:"source_id"`
	Note      *string          `json:"note"`
	Date      *string          `json:"date"`
	SourceURL *string          `json:"source_url"`
	Cities    map[string]int64 `json:"cities"`

	// availability marks the synthetic environmental entry, which carries
	// no metadata keys at all.
	availability bool
}

func (s Source) MarshalJSON() ([]byte, error) {
	if s.availability {
		return json.Marshal(struct {
			SourceID int              `json:"source_id"`
			Cities   map[string]int64 `json:"cities"`
		}{s.SourceID, s.Cities})
	}
	type plain Source
	return json.Marshal(plain(s))
}

type RainfallRecord struct {
	Year        int     `json:"year"`
	Rainfall    float64 `json:"rainfall"`
	RainfallAvg float64 `json:"rainfall_avg"`
}

// buildMaster groups demographic rows by (data_type, source_id), keeping the
// first row's metadata and the order in which sources first appear. If cities
// have environmental records and no imported environmental dataset exists, a
// synthetic source marks each of them with the value 1.
func buildMaster(demographics []database.Demographic, rainfall []database.Rainfall, envCities []string) *Master {
	m := &Master{
		Groups:       make(map[string][]Source),
		RainfallData: make(map[string][]RainfallRecord),
	}

	type key struct {
		dataType string
		sourceID int
	}
	index := make(map[key]int)

	for _, d := range demographics {
		k := key{d.DataType, d.SourceID}
		i, ok := index[k]
		if !ok {
			m.Groups[d.DataType] = append(m.Groups[d.DataType], Source{
				SourceID:  d.SourceID,
				Note:      d.Note,
				Date:      d.Date,
				SourceURL: d.SourceURL,
				Cities:    make(map[string]int64),
			})
			i = len(m.Groups[d.DataType]) - 1
			index[k] = i
		}
		m.Groups[d.DataType][i].Cities[d.CityName] = d.Value
	}

	if _, exists := m.Groups[environmentalDataType]; !exists && len(envCities) > 0 {
		cities := make(map[string]int64, len(envCities))
		for _, name := range envCities {
			cities[name] = 1
		}
		m.Groups[environmentalDataType] = []Source{{SourceID: 1, Cities: cities, availability: true}}
	}

	for _, r := range rainfall {
		m.RainfallData[r.PCode] = append(m.RainfallData[r.PCode], RainfallRecord{
			Year:        r.Year,
			Rainfall:    r.Rainfall,
			RainfallAvg: r.RainfallAvg,
		})
	}

	return m
}

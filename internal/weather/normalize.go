package weather

import (
	"iter"
	"time"

	"github.com/i474232898/weather-telemetry/internal/common"
)

// CountryView is the public representation of a Country.
type CountryView struct {
	ID   string  `json:"id"`
	Name string  `json:"nume"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// CityView is the public representation of a City.
type CityView struct {
	ID        string  `json:"id"`
	CountryID string  `json:"idTara"`
	Name      string  `json:"nume"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
}

// ReadingView is the public representation of a Reading.
type ReadingView struct {
	ID        string  `json:"id"`
	Value     float64 `json:"valoare"`
	Timestamp string  `json:"timestamp"`
}

// CityReadingView is a Reading listed under its city; the value is omitted.
type CityReadingView struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
}

func countryView(c Country) CountryView {
	return CountryView{ID: c.ID.Hex(), Name: c.Name, Lat: c.Lat, Lon: c.Lon}
}

func cityView(c City) CityView {
	return CityView{ID: c.ID.Hex(), CountryID: c.CountryID.Hex(), Name: c.Name, Lat: c.Lat, Lon: c.Lon}
}

func readingView(r Reading) ReadingView {
	return ReadingView{ID: r.ID.Hex(), Value: r.Value, Timestamp: formatDate(r.Timestamp)}
}

func cityReadingView(r Reading) CityReadingView {
	return CityReadingView{ID: r.ID.Hex(), Timestamp: formatDate(r.Timestamp)}
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// normalize shapes every entity of seq and drops exact-duplicate shaped
// records, keeping store order otherwise. The result is never nil.
func normalize[T any, V comparable](seq iter.Seq2[T, error], shape func(T) V) ([]V, error) {
	out := []V{}
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, shape(v))
	}
	return common.Unique(out), nil
}

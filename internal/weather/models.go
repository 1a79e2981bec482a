package weather

import (
	"time"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

// Collection names. They match the collections of existing deployments.
const (
	CountriesCollection = "Tari"
	CitiesCollection    = "Orase"
	ReadingsCollection  = "Temperaturi"
)

// Stored field names.
const (
	fieldCountryName = "nume_tara"
	fieldCityName    = "nume_oras"
	fieldLat         = "latitudine"
	fieldLon         = "longitudine"
	fieldCountryID   = "id_tara"
	fieldCityID      = "id_oras"
	fieldValue       = "valoare"
	fieldTimestamp   = "timestamp"
)

// Country is a top-level geographic entity. Names are unique, compared
// case-sensitively.
type Country struct {
	ID   docstore.ID
	Name string
	Lat  float64
	Lon  float64
}

// City belongs to a Country by reference. Names are unique across all
// countries, compared case-insensitively.
type City struct {
	ID        docstore.ID
	CountryID docstore.ID
	Name      string
	Lat       float64
	Lon       float64
}

// Reading is one temperature sample for a City. Timestamp is assigned by
// the server at insertion and never changes.
type Reading struct {
	ID        docstore.ID
	CityID    docstore.ID
	Value     float64
	Timestamp time.Time // always UTC
}

// Indexes returns the indexes the collections should carry. Only the
// country name index is unique; the others serve the identifier-set and
// time-range lookups.
func Indexes() []docstore.IndexSpec {
	return []docstore.IndexSpec{
		{Collection: CountriesCollection, Fields: []string{fieldCountryName}, Unique: true},
		{Collection: CitiesCollection, Fields: []string{fieldCountryID}},
		{Collection: CitiesCollection, Fields: []string{fieldLat, fieldLon}},
		{Collection: ReadingsCollection, Fields: []string{fieldCityID, fieldTimestamp}},
	}
}

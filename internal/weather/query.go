package weather

import (
	"context"
	"time"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

// Scope narrows a reading query to some set of cities. The store has no
// joins, so a scope resolves the cities first and hands back a predicate on
// the readings' city reference.
type Scope interface {
	// readingPredicate returns the predicate to apply to readings, or false
	// if the scope does not restrict by city.
	readingPredicate(ctx context.Context, cities *entityStore[City]) (docstore.Predicate, bool, error)
}

// GeoScope selects cities whose coordinates equal Lat and/or Lon exactly.
// With neither set it selects every reading.
type GeoScope struct {
	Lat *float64
	Lon *float64
}

func (g GeoScope) readingPredicate(ctx context.Context, cities *entityStore[City]) (docstore.Predicate, bool, error) {
	var f docstore.Filter
	if g.Lat != nil {
		f = append(f, docstore.Eq(fieldLat, *g.Lat))
	}
	if g.Lon != nil {
		f = append(f, docstore.Eq(fieldLon, *g.Lon))
	}
	if len(f) == 0 {
		return docstore.Predicate{}, false, nil
	}

	ids, err := cities.FindIDs(ctx, f)
	if err != nil {
		return docstore.Predicate{}, false, err
	}
	if len(ids) == 0 {
		return docstore.Predicate{}, false, notFoundf("no city found with the provided latitude and/or longitude")
	}
	return docstore.In(fieldCityID, ids...), true, nil
}

// CountryScope selects the cities owned by a country. A country with no
// cities is NotFound.
type CountryScope struct {
	CountryID docstore.ID
}

func (c CountryScope) readingPredicate(ctx context.Context, cities *entityStore[City]) (docstore.Predicate, bool, error) {
	ids, err := cities.FindIDs(ctx, docstore.Filter{docstore.Eq(fieldCountryID, c.CountryID)})
	if err != nil {
		return docstore.Predicate{}, false, err
	}
	if len(ids) == 0 {
		return docstore.Predicate{}, false, notFoundf("no cities found for the provided country")
	}
	return docstore.In(fieldCityID, ids...), true, nil
}

// CityScope selects one city by identifier. The city is not looked up, so
// an unknown city yields no readings rather than an error.
type CityScope struct {
	CityID docstore.ID
}

func (c CityScope) readingPredicate(context.Context, *entityStore[City]) (docstore.Predicate, bool, error) {
	return docstore.Eq(fieldCityID, c.CityID), true, nil
}

// DateRange bounds reading timestamps. Both ends are inclusive and sit at
// midnight UTC of the given day, so Until excludes the rest of its own day.
type DateRange struct {
	From  *time.Time
	Until *time.Time
}

// ParseDateRange parses YYYY-MM-DD bounds. Empty strings leave a side open.
func ParseDateRange(from, until string) (DateRange, error) {
	var r DateRange
	if from != "" {
		t, err := time.ParseInLocation(time.DateOnly, from, time.UTC)
		if err != nil {
			return DateRange{}, validationf("invalid 'from' date format, use YYYY-MM-DD")
		}
		r.From = &t
	}
	if until != "" {
		t, err := time.ParseInLocation(time.DateOnly, until, time.UTC)
		if err != nil {
			return DateRange{}, validationf("invalid 'until' date format, use YYYY-MM-DD")
		}
		r.Until = &t
	}
	return r, nil
}

func (r DateRange) predicates() []docstore.Predicate {
	var ps []docstore.Predicate
	if r.From != nil {
		ps = append(ps, docstore.Gte(fieldTimestamp, *r.From))
	}
	if r.Until != nil {
		ps = append(ps, docstore.Lte(fieldTimestamp, *r.Until))
	}
	return ps
}

// Composer turns a scope and date bounds into one reading filter.
type Composer struct {
	cities *entityStore[City]
}

// Compose resolves the scope, then layers the date range. Scope failures
// take precedence over malformed dates.
func (c *Composer) Compose(ctx context.Context, scope Scope, from, until string) (docstore.Filter, error) {
	var f docstore.Filter
	if scope != nil {
		p, ok, err := scope.readingPredicate(ctx, c.cities)
		if err != nil {
			return nil, err
		}
		if ok {
			f = append(f, p)
		}
	}

	r, err := ParseDateRange(from, until)
	if err != nil {
		return nil, err
	}
	return append(f, r.predicates()...), nil
}

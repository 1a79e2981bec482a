package weather

import (
	"context"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

// AuditReport counts references left dangling by deletes. Deleting a
// country or city never cascades, so these grow over time; the audit only
// reports them.
type AuditReport struct {
	Countries      int
	Cities         int
	Readings       int
	OrphanCities   int // cities whose country no longer exists
	OrphanReadings int // readings whose city no longer exists
}

// Audit scans all three collections and counts orphaned children. It is a
// point-in-time view; concurrent writes may skew the counts.
func (s *Service) Audit(ctx context.Context) (AuditReport, error) {
	var rep AuditReport

	countryIDs, err := s.countries.FindIDs(ctx, nil)
	if err != nil {
		return rep, err
	}
	rep.Countries = len(countryIDs)
	countries := toSet(countryIDs)

	cityIDs, err := s.cities.FindIDs(ctx, nil)
	if err != nil {
		return rep, err
	}
	rep.Cities = len(cityIDs)
	cities := toSet(cityIDs)

	for c, err := range s.cities.FindAll(ctx, nil) {
		if err != nil {
			return rep, err
		}
		if _, ok := countries[c.CountryID]; !ok {
			rep.OrphanCities++
		}
	}

	for r, err := range s.readings.FindAll(ctx, nil) {
		if err != nil {
			return rep, err
		}
		rep.Readings++
		if _, ok := cities[r.CityID]; !ok {
			rep.OrphanReadings++
		}
	}
	return rep, nil
}

func toSet(ids []docstore.ID) map[docstore.ID]struct{} {
	set := make(map[docstore.ID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

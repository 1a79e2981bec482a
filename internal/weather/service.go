package weather

import (
	"context"
	"log/slog"
	"time"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

// Service exposes every country, city and reading operation. It holds no
// mutable state of its own; check-then-write sequences are not atomic, so
// two concurrent creations can both pass a uniqueness pre-check. The unique
// index on country names (when the backend enforces it) catches that case
// for countries only.
type Service struct {
	db        docstore.Database
	countries *entityStore[Country]
	cities    *entityStore[City]
	readings  *entityStore[Reading]
	validator *Validator
	composer  *Composer
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the clock used to stamp new readings.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service over db.
func NewService(db docstore.Database, opts ...Option) *Service {
	s := &Service{
		db:        db,
		countries: newCountryStore(db),
		cities:    newCityStore(db),
		readings:  newReadingStore(db),
		now:       time.Now,
	}
	s.validator = &Validator{countries: s.countries, cities: s.cities}
	s.composer = &Composer{cities: s.cities}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureIndexes creates the indexes returned by Indexes.
func (s *Service) EnsureIndexes(ctx context.Context) error {
	return s.db.EnsureIndexes(ctx, Indexes()...)
}

// Ping checks that the store answers.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// ----- countries -----

// CreateCountry validates f ({nume, lat, lon}) and inserts a country.
func (s *Service) CreateCountry(ctx context.Context, f Fields) (docstore.ID, error) {
	c, err := s.validator.NewCountry(ctx, f)
	if err != nil {
		return docstore.NilID, err
	}
	id, err := s.countries.Insert(ctx, c)
	if err != nil {
		return docstore.NilID, err
	}
	slog.Info("country created", "id", id.Hex(), "name", c.Name)
	return id, nil
}

// ListCountries returns every complete country document.
func (s *Service) ListCountries(ctx context.Context) ([]CountryView, error) {
	return normalize(s.countries.FindAll(ctx, nil), countryView)
}

// UpdateCountry replaces name, lat and lon of the country with id.
func (s *Service) UpdateCountry(ctx context.Context, id docstore.ID, f Fields) (docstore.ID, error) {
	c, err := s.validator.CountryUpdate(f)
	if err != nil {
		return docstore.NilID, err
	}
	found, err := s.countries.UpdateOne(ctx, id, countryFields(c))
	if err != nil {
		return docstore.NilID, err
	}
	if !found {
		return docstore.NilID, notFoundf("country does not exist")
	}
	return id, nil
}

// DeleteCountry removes a country. Its cities are left in place.
func (s *Service) DeleteCountry(ctx context.Context, id docstore.ID) error {
	n, err := s.countries.DeleteOne(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFoundf("country does not exist")
	}
	slog.Info("country deleted", "id", id.Hex())
	return nil
}

// ----- cities -----

// CreateCity validates f ({idTara, nume, lat, lon}) and inserts a city.
func (s *Service) CreateCity(ctx context.Context, f Fields) (docstore.ID, error) {
	c, err := s.validator.NewCity(ctx, f)
	if err != nil {
		return docstore.NilID, err
	}
	id, err := s.cities.Insert(ctx, c)
	if err != nil {
		return docstore.NilID, err
	}
	slog.Info("city created", "id", id.Hex(), "country_id", c.CountryID.Hex(), "name", c.Name)
	return id, nil
}

// ListCities returns all cities, or those of one country when countryID is set.
func (s *Service) ListCities(ctx context.Context, countryID *docstore.ID) ([]CityView, error) {
	var f docstore.Filter
	if countryID != nil {
		f = append(f, docstore.Eq(fieldCountryID, *countryID))
	}
	return normalize(s.cities.FindAll(ctx, f), cityView)
}

// UpdateCity replaces name, lat and lon of the city with id.
func (s *Service) UpdateCity(ctx context.Context, id docstore.ID, f Fields) (docstore.ID, error) {
	c, err := s.validator.CityUpdate(f)
	if err != nil {
		return docstore.NilID, err
	}
	found, err := s.cities.UpdateOne(ctx, id, cityFields(c))
	if err != nil {
		return docstore.NilID, err
	}
	if !found {
		return docstore.NilID, notFoundf("city does not exist")
	}
	return id, nil
}

// DeleteCity removes a city. Its readings are left in place.
func (s *Service) DeleteCity(ctx context.Context, id docstore.ID) error {
	n, err := s.cities.DeleteOne(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFoundf("city does not exist")
	}
	slog.Info("city deleted", "id", id.Hex())
	return nil
}

// ----- readings -----

// ReadingParams are the optional filters of the reading list.
type ReadingParams struct {
	Lat   *float64
	Lon   *float64
	From  string
	Until string
}

// CreateReading validates f ({idOras, valoare}) and inserts a reading
// stamped with the current time.
func (s *Service) CreateReading(ctx context.Context, f Fields) (docstore.ID, error) {
	r, err := s.validator.NewReading(f)
	if err != nil {
		return docstore.NilID, err
	}
	r.Timestamp = stamp(s.now())
	id, err := s.readings.Insert(ctx, r)
	if err != nil {
		return docstore.NilID, err
	}
	slog.Debug("reading created", "id", id.Hex(), "city_id", r.CityID.Hex())
	return id, nil
}

// ListReadings returns readings, optionally restricted to cities at the given
// coordinates and to a date range.
func (s *Service) ListReadings(ctx context.Context, p ReadingParams) ([]ReadingView, error) {
	f, err := s.composer.Compose(ctx, GeoScope{Lat: p.Lat, Lon: p.Lon}, p.From, p.Until)
	if err != nil {
		return nil, err
	}
	return normalize(s.readings.FindAll(ctx, f), readingView)
}

// ListCityReadings returns the readings of one city without their values.
func (s *Service) ListCityReadings(ctx context.Context, cityID docstore.ID, from, until string) ([]CityReadingView, error) {
	f, err := s.composer.Compose(ctx, CityScope{CityID: cityID}, from, until)
	if err != nil {
		return nil, err
	}
	return normalize(s.readings.FindAll(ctx, f), cityReadingView)
}

// ListCountryReadings returns the readings of every city of one country.
func (s *Service) ListCountryReadings(ctx context.Context, countryID docstore.ID, from, until string) ([]ReadingView, error) {
	f, err := s.composer.Compose(ctx, CountryScope{CountryID: countryID}, from, until)
	if err != nil {
		return nil, err
	}
	return normalize(s.readings.FindAll(ctx, f), readingView)
}

// UpdateReading replaces the value of a reading; its timestamp is unchanged.
func (s *Service) UpdateReading(ctx context.Context, id docstore.ID, f Fields) (docstore.ID, error) {
	v, err := s.validator.ReadingUpdate(f)
	if err != nil {
		return docstore.NilID, err
	}
	found, err := s.readings.UpdateOne(ctx, id, readingFields(v))
	if err != nil {
		return docstore.NilID, err
	}
	if !found {
		return docstore.NilID, notFoundf("temperature does not exist")
	}
	return id, nil
}

// DeleteReading removes a reading.
func (s *Service) DeleteReading(ctx context.Context, id docstore.ID) error {
	n, err := s.readings.DeleteOne(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFoundf("temperature does not exist")
	}
	return nil
}

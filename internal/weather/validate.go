package weather

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

// Fields is a decoded request body.
type Fields map[string]any

// lookup returns the first non-null value stored under any of keys.
func (f Fields) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := f[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// Drafts hold coerced request values before required/finite checks run.
type countryDraft struct {
	Name string   `json:"nume" validate:"required"`
	Lat  *float64 `json:"lat" validate:"required,finite"`
	Lon  *float64 `json:"lon" validate:"required,finite"`
}

type cityDraft struct {
	CountryID string   `json:"idTara" validate:"required"`
	Name      string   `json:"nume" validate:"required"`
	Lat       *float64 `json:"lat" validate:"required,finite"`
	Lon       *float64 `json:"lon" validate:"required,finite"`
}

type readingDraft struct {
	CityID string   `json:"idOras" validate:"required"`
	Value  *float64 `json:"valoare" validate:"required,finite"`
}

type valueDraft struct {
	Value *float64 `json:"valoare" validate:"required,finite"`
}

// Validator gates every mutation: it checks input shape and the
// cross-entity rules the store does not enforce.
type Validator struct {
	countries *entityStore[Country]
	cities    *entityStore[City]
}

// NewCountry validates a country creation request. The name must not be
// taken by another country (exact, case-sensitive match).
func (v *Validator) NewCountry(ctx context.Context, f Fields) (Country, error) {
	c, err := countryFromFields(f, []string{"nume"}, []string{"lat"}, []string{"lon"})
	if err != nil {
		return Country{}, err
	}

	taken, err := v.countries.Exists(ctx, docstore.Filter{docstore.Eq(fieldCountryName, c.Name)})
	if err != nil {
		return Country{}, err
	}
	if taken {
		return Country{}, conflictf("country %q already exists", c.Name)
	}
	return c, nil
}

// CountryUpdate validates the fields of a country update. Uniqueness is not
// re-checked on update.
func (v *Validator) CountryUpdate(f Fields) (Country, error) {
	return countryFromFields(f,
		[]string{fieldCountryName, "nume"},
		[]string{fieldLat, "lat"},
		[]string{fieldLon, "lon"},
	)
}

func countryFromFields(f Fields, nameKeys, latKeys, lonKeys []string) (Country, error) {
	var d countryDraft
	var err error
	if d.Name, err = stringField(f, "nume", nameKeys...); err != nil {
		return Country{}, err
	}
	if d.Lat, err = floatField(f, "lat", latKeys...); err != nil {
		return Country{}, err
	}
	if d.Lon, err = floatField(f, "lon", lonKeys...); err != nil {
		return Country{}, err
	}
	if err := check(d); err != nil {
		return Country{}, err
	}
	return Country{Name: d.Name, Lat: *d.Lat, Lon: *d.Lon}, nil
}

// NewCity validates a city creation request: the owning country must exist,
// no city anywhere may share the name (ignoring case), and the exact
// (name, country, lat, lon) tuple must not exist.
func (v *Validator) NewCity(ctx context.Context, f Fields) (City, error) {
	var d cityDraft
	var err error
	if d.Lat, err = floatField(f, "lat", "lat"); err != nil {
		return City{}, err
	}
	if d.Lon, err = floatField(f, "lon", "lon"); err != nil {
		return City{}, err
	}
	if d.Name, err = stringField(f, "nume", "nume"); err != nil {
		return City{}, err
	}
	if d.CountryID, err = idString(f, "idTara"); err != nil {
		return City{}, err
	}
	if err := check(d); err != nil {
		return City{}, err
	}

	countryID, err := docstore.ParseID(d.CountryID)
	if err != nil {
		return City{}, validationf("idTara must be a valid identifier")
	}
	city := City{CountryID: countryID, Name: d.Name, Lat: *d.Lat, Lon: *d.Lon}

	exists, err := v.countries.Exists(ctx, docstore.ByID(countryID))
	if err != nil {
		return City{}, err
	}
	if !exists {
		return City{}, conflictf("country with idTara %q does not exist", countryID.Hex())
	}

	taken, err := v.cities.Exists(ctx, docstore.Filter{docstore.EqFold(fieldCityName, city.Name)})
	if err != nil {
		return City{}, err
	}
	if taken {
		return City{}, conflictf("city %q already exists", city.Name)
	}

	dup, err := v.cities.Exists(ctx, docstore.Filter{
		docstore.Eq(fieldCityName, city.Name),
		docstore.Eq(fieldCountryID, city.CountryID),
		docstore.Eq(fieldLat, city.Lat),
		docstore.Eq(fieldLon, city.Lon),
	})
	if err != nil {
		return City{}, err
	}
	if dup {
		return City{}, conflictf("city %q with these coordinates already exists in this country", city.Name)
	}
	return city, nil
}

// CityUpdate validates the fields of a city update. The country reference
// is not updatable and neither existence nor uniqueness is re-checked.
func (v *Validator) CityUpdate(f Fields) (City, error) {
	var d countryDraft
	var err error
	if d.Name, err = stringField(f, "nume", fieldCityName, "nume"); err != nil {
		return City{}, err
	}
	if d.Lat, err = floatField(f, "lat", fieldLat, "lat"); err != nil {
		return City{}, err
	}
	if d.Lon, err = floatField(f, "lon", fieldLon, "lon"); err != nil {
		return City{}, err
	}
	if err := check(d); err != nil {
		return City{}, err
	}
	return City{Name: d.Name, Lat: *d.Lat, Lon: *d.Lon}, nil
}

// NewReading validates a reading creation request. The city identifier
// must be well-formed; whether the city exists is not checked.
func (v *Validator) NewReading(f Fields) (Reading, error) {
	var d readingDraft
	var err error
	if d.Value, err = floatField(f, "valoare", "valoare"); err != nil {
		return Reading{}, err
	}
	if d.CityID, err = idString(f, "idOras"); err != nil {
		return Reading{}, err
	}
	if err := check(d); err != nil {
		return Reading{}, err
	}
	cityID, err := docstore.ParseID(d.CityID)
	if err != nil {
		return Reading{}, validationf("idOras must be a valid identifier")
	}
	return Reading{CityID: cityID, Value: *d.Value}, nil
}

// ReadingUpdate validates the new value of a reading.
func (v *Validator) ReadingUpdate(f Fields) (float64, error) {
	var d valueDraft
	var err error
	if d.Value, err = floatField(f, "valoare", "valoare"); err != nil {
		return 0, err
	}
	if err := check(d); err != nil {
		return 0, err
	}
	return *d.Value, nil
}

func check(draft any) error {
	err := validate.Struct(draft)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Kind: KindValidation, Msg: "invalid request", Err: err}
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return validationf("%s is required", fe.Field())
	case "finite":
		return validationf("%s must be a finite number", fe.Field())
	}
	return validationf("%s is invalid", fe.Field())
}

// stringField reads the first present key as a string. Absent yields "".
func stringField(f Fields, label string, keys ...string) (string, error) {
	raw, ok := f.lookup(keys...)
	if !ok {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", validationf("%s must be a string", label)
	}
	return s, nil
}

// floatField reads the first present key as a number. JSON numbers and
// numeric strings are accepted. Absent yields nil.
func floatField(f Fields, label string, keys ...string) (*float64, error) {
	raw, ok := f.lookup(keys...)
	if !ok {
		return nil, nil
	}
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return nil, validationf("%s must be a number", label)
		}
		v = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, validationf("%s must be a number", label)
		}
		v = n
	default:
		return nil, validationf("%s must be a number", label)
	}
	return &v, nil
}

// idString reads an identifier field as text.
func idString(f Fields, key string) (string, error) {
	raw, ok := f.lookup(key)
	if !ok {
		return "", nil
	}
	switch x := raw.(type) {
	case string:
		return x, nil
	case docstore.ID:
		return x.Hex(), nil
	}
	return "", validationf("%s must be a valid identifier", key)
}

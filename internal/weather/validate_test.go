package weather

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestCountryUpdateFields(t *testing.T) {
	v := &Validator{}

	cases := []struct {
		name    string
		fields  Fields
		want    Country
		wantErr string
	}{
		{
			name:   "creation names",
			fields: Fields{"nume": "Romania", "lat": 45.9, "lon": 24.9},
			want:   Country{Name: "Romania", Lat: 45.9, Lon: 24.9},
		},
		{
			name:   "stored names",
			fields: Fields{"nume_tara": "Romania", "latitudine": 45.9, "longitudine": 24.9},
			want:   Country{Name: "Romania", Lat: 45.9, Lon: 24.9},
		},
		{
			name:   "numeric strings",
			fields: Fields{"nume": "Romania", "lat": " 45.9", "lon": json.Number("24.9")},
			want:   Country{Name: "Romania", Lat: 45.9, Lon: 24.9},
		},
		{
			name:   "zero coordinates",
			fields: Fields{"nume": "Null Island", "lat": 0.0, "lon": 0.0},
			want:   Country{Name: "Null Island"},
		},
		{name: "missing name", fields: Fields{"lat": 1.0, "lon": 1.0}, wantErr: "nume is required"},
		{name: "empty name", fields: Fields{"nume": "", "lat": 1.0, "lon": 1.0}, wantErr: "nume is required"},
		{name: "null lat", fields: Fields{"nume": "A", "lat": nil, "lon": 1.0}, wantErr: "lat is required"},
		{name: "text lat", fields: Fields{"nume": "A", "lat": "north", "lon": 1.0}, wantErr: "lat must be a number"},
		{name: "nan lon", fields: Fields{"nume": "A", "lat": 1.0, "lon": "NaN"}, wantErr: "lon must be a finite number"},
		{name: "numeric name", fields: Fields{"nume": 7.0, "lat": 1.0, "lon": 1.0}, wantErr: "nume must be a string"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := v.CountryUpdate(tc.fields)
			if tc.wantErr != "" {
				if !errors.Is(err, ErrValidation) || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected validation error %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestNewReadingFields(t *testing.T) {
	v := &Validator{}

	r, err := v.NewReading(Fields{"idOras": "65f1a0b2c3d4e5f6a7b8c9d0", "valoare": 0.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.CityID.Hex() != "65f1a0b2c3d4e5f6a7b8c9d0" || r.Value != 0 {
		t.Fatalf("unexpected reading %+v", r)
	}

	if _, err := v.NewReading(Fields{"valoare": 1.0}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing idOras, got %v", err)
	}
	if _, err := v.NewReading(Fields{"idOras": "xyz", "valoare": 1.0}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for malformed idOras, got %v", err)
	}
	if _, err := v.NewReading(Fields{"idOras": 12.0, "valoare": 1.0}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for numeric idOras, got %v", err)
	}
}

func TestReadingUpdateFields(t *testing.T) {
	v := &Validator{}

	got, err := v.ReadingUpdate(Fields{"valoare": "-4.5"})
	if err != nil || got != -4.5 {
		t.Fatalf("ReadingUpdate = %v, %v", got, err)
	}
	if _, err := v.ReadingUpdate(Fields{"idOras": "65f1a0b2c3d4e5f6a7b8c9d0"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := v.ReadingUpdate(Fields{"valoare": "+Inf"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for infinity, got %v", err)
	}
}

package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sitepulse/internal/geo"
)

func TestCountryName(t *testing.T) {
	assert.Equal(t, "United States", geo.CountryName("US"))
	assert.Equal(t, "Germany", geo.CountryName("DE"))
	assert.Equal(t, "", geo.CountryName(""))
	assert.Equal(t, "ZZ", geo.CountryName("zz"))
}

func TestLookupWithoutDatabase(t *testing.T) {
	// No GeoLite2 database is configured in tests; lookups must degrade to
	// an empty location, never error.
	assert.Equal(t, geo.Location{}, geo.Lookup("8.8.8.8"))
	assert.Equal(t, geo.Location{}, geo.Lookup("not-an-ip"))
	assert.Equal(t, geo.Location{}, geo.Lookup(""))
}

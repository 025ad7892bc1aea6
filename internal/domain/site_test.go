package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSiteID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := DeriveSiteID(51.5, -2.0, 40)
		b := DeriveSiteID(51.5, -2.0, 40)

		assert.Equal(t, a, b)
		assert.True(t, strings.HasPrefix(a, "site-"))
		assert.Len(t, a, len("site-")+12)
	})

	t.Run("sensitive to each coordinate", func(t *testing.T) {
		base := DeriveSiteID(51.5, -2.0, 40)

		assert.NotEqual(t, base, DeriveSiteID(51.500001, -2.0, 40))
		assert.NotEqual(t, base, DeriveSiteID(51.5, -2.000001, 40))
		assert.NotEqual(t, base, DeriveSiteID(51.5, -2.0, 40.1))
	})

	t.Run("insensitive below the rounding precision", func(t *testing.T) {
		// Coordinates agree to 6 decimal places, altitudes to 1.
		assert.Equal(t,
			DeriveSiteID(51.5000001, -2.0, 40.01),
			DeriveSiteID(51.5, -2.0, 40.04))
	})
}

func TestSitesFromLists(t *testing.T) {
	t.Run("parallel lists", func(t *testing.T) {
		sites, err := SitesFromLists(
			[]float64{51, 52, 53},
			[]float64{-2, -2, -2},
			[]float64{10, 20, 30},
		)
		require.NoError(t, err)
		require.Len(t, sites, 3)

		assert.Equal(t, 52.0, sites[1].Lat)
		assert.Equal(t, -2.0, sites[1].Lon)
		assert.Equal(t, 20.0, sites[1].Altitude)
		assert.Equal(t, DeriveSiteID(52, -2, 20), sites[1].ID)
		require.NoError(t, ValidateSites(sites))
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := SitesFromLists([]float64{51, 52}, []float64{-2}, []float64{10, 20})

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, err.Error(), "differ in length")
	})
}

func TestValidateSites(t *testing.T) {
	valid := func() []Site {
		return []Site{
			{ID: "a", Lat: 51, Lon: -2, Altitude: 10},
			{ID: "b", Lat: 52, Lon: -2, Altitude: 20},
		}
	}

	tests := []struct {
		name    string
		mutate  func([]Site) []Site
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(s []Site) []Site { return s },
		},
		{
			name:    "empty table",
			mutate:  func([]Site) []Site { return nil },
			wantErr: "site table is empty",
		},
		{
			name: "missing ID",
			mutate: func(s []Site) []Site {
				s[1].ID = ""
				return s
			},
			wantErr: "site 1 has no ID",
		},
		{
			name: "duplicate ID",
			mutate: func(s []Site) []Site {
				s[1].ID = s[0].ID
				return s
			},
			wantErr: "duplicate site ID",
		},
		{
			name: "latitude out of range",
			mutate: func(s []Site) []Site {
				s[0].Lat = 90.5
				return s
			},
			wantErr: "latitude",
		},
		{
			name: "longitude out of range",
			mutate: func(s []Site) []Site {
				s[0].Lon = -181
				return s
			},
			wantErr: "longitude",
		},
		{
			name: "wrapped longitude accepted",
			mutate: func(s []Site) []Site {
				s[0].Lon = 358
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSites(tt.mutate(valid()))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

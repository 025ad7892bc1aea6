package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Site is one spot location at which a forecast value is wanted.
type Site struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Altitude float64 `json:"altitude"` // metres
}

// DeriveSiteID produces a deterministic ID from a site's coordinates.
// Deterministic IDs keep output reproducible when sites are supplied as bare
// coordinate lists on the command line — replaying the same request yields
// the same IDs, so known-good-output comparison stays valid.
func DeriveSiteID(lat, lon, altitude float64) string {
	input := fmt.Sprintf("%.6f|%.6f|%.1f", lat, lon, altitude)
	hash := sha256.Sum256([]byte(input))
	return "site-" + hex.EncodeToString(hash[:6])
}

// SitesFromLists builds an ordered site table from parallel coordinate
// lists, deriving IDs. The lists must be equal length.
func SitesFromLists(lats, lons, altitudes []float64) ([]Site, error) {
	if len(lats) != len(lons) || len(lats) != len(altitudes) {
		return nil, Configurationf("site lists differ in length: %d latitudes, %d longitudes, %d altitudes",
			len(lats), len(lons), len(altitudes))
	}
	sites := make([]Site, len(lats))
	for i := range lats {
		sites[i] = Site{
			ID:       DeriveSiteID(lats[i], lons[i], altitudes[i]),
			Lat:      lats[i],
			Lon:      lons[i],
			Altitude: altitudes[i],
		}
	}
	return sites, nil
}

// ValidateSites checks that the table is non-empty, IDs are present and
// unique, and coordinates are in range for geographic use.
func ValidateSites(sites []Site) error {
	if len(sites) == 0 {
		return Configurationf("site table is empty")
	}
	seen := make(map[string]int, len(sites))
	for i, s := range sites {
		if s.ID == "" {
			return Configurationf("site %d has no ID", i)
		}
		if j, dup := seen[s.ID]; dup {
			return Configurationf("duplicate site ID %q at positions %d and %d", s.ID, j, i)
		}
		seen[s.ID] = i
		if s.Lat < -90 || s.Lat > 90 {
			return Configurationf("site %q latitude %g out of range", s.ID, s.Lat)
		}
		if s.Lon < -180 || s.Lon > 360 {
			return Configurationf("site %q longitude %g out of range", s.ID, s.Lon)
		}
	}
	return nil
}

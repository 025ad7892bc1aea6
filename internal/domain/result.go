package domain

import "time"

// NeighbourMatch records which grid cell was selected for a site, and how
// far away it is. Recomputed every run; persisted only as part of the
// result's provenance.
type NeighbourMatch struct {
	SiteID string `json:"site_id"`
	Cell   int    `json:"cell"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	// Distance from the site to the cell: great-circle metres for
	// geographic grids, planar metres for projected grids.
	Distance float64 `json:"distance"`
	// AltitudeDiff is site altitude minus the cell's surface altitude.
	// Zero when the grid carries no surface altitude.
	AltitudeDiff float64 `json:"altitude_diff"`
}

// SpotValue is the extracted (and possibly corrected) series for one site.
type SpotValue struct {
	Site Site `json:"site"`
	// Values holds one entry per validity time, in grid time order.
	Values []float64      `json:"values"`
	Match  NeighbourMatch `json:"match"`
	// Corrected is true when a lapse-rate adjustment was applied.
	Corrected bool `json:"corrected"`
}

// SiteFailure records why one site produced no value.
type SiteFailure struct {
	SiteID string `json:"site_id"`
	Reason string `json:"reason"`
	// Err keeps the typed error for errors.As; not serialized.
	Err error `json:"-"`
}

// SpotResult is the output of one extraction run for one diagnostic.
// Sites appear in input-table order; failed sites appear only in Failures.
// |Sites| + |Failures| always equals the input site count.
type SpotResult struct {
	Diagnostic    string        `json:"diagnostic"`
	Units         string        `json:"units"`
	ValidityTimes []time.Time   `json:"validity_times"`
	Sites         []SpotValue   `json:"sites"`
	Failures      []SiteFailure `json:"failures,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewSpotResult stamps a result with the package clock so tests can freeze
// creation time.
func NewSpotResult(diag *GridField) *SpotResult {
	return &SpotResult{
		Diagnostic:    diag.Name,
		Units:         diag.Units,
		ValidityTimes: diag.ValidityTimes,
		CreatedAt:     clock.Now().UTC(),
	}
}

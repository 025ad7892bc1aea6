// Package domain models gridded diagnostic fields and spot (site) forecasts.
//
// # Grids
//
// A [GridField] is one named diagnostic (e.g. screen temperature) on a 2-D
// model grid, optionally with a time dimension. Cell coordinates are stored
// per cell in row-major order, so regular lat/lon grids and irregular or
// projected grids share one representation. Ancillary per-cell arrays carry
// the land/sea mask and the model's surface altitude where available.
//
// Coordinate kinds:
//
//	Geographic — cell coordinates are WGS-84 degrees; distances between a
//	site and a cell are great-circle metres.
//	Projected — cell coordinates are already in a planar system (metres);
//	distances are Euclidean. The two kinds are never mixed in one field.
//
// A [LapseRateField] is a GridField whose values are the rate of change of
// its companion diagnostic per metre of altitude increase. For screen
// temperature in the standard atmosphere this is roughly -0.0065 K/m: the
// value decreases as altitude increases. The sign convention is a hard
// contract between the lapse-rate producer and the vertical corrector:
//
//	corrected = raw + lapse_rate × (site_altitude − grid_surface_altitude)
//
// # Sites
//
// A [Site] is a point location (id, lat, lon, altitude) distinct from any
// grid cell. Sites arrive as an ordered table and keep that order all the
// way into the output, so repeated runs over identical inputs produce
// byte-identical results for known-good-output comparison.
//
// Site IDs supplied as coordinate lists on the command line are derived
// deterministically from the coordinates (SHA-256, truncated), so replaying
// the same request yields the same IDs. See [DeriveSiteID].
//
// # Errors
//
// The error taxonomy separates fatal configuration problems from per-site
// extraction failures. [ConfigurationError] and [ShapeMismatchError] abort a
// run (or one diagnostic) before extraction; [NoNeighbourFoundError] and
// [CorrectionError] mark a single site as failed and are aggregated into the
// result's failure list rather than interrupting the batch.
package domain

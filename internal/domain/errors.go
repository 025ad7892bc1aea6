package domain

import "fmt"

// ConfigurationError reports malformed or inconsistent grid, site, or policy
// input. It is fatal: the run aborts before any extraction happens.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// Configurationf builds a ConfigurationError from a format string.
func Configurationf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// ShapeMismatchError reports that a lapse-rate field's coordinate system does
// not match its diagnostic grid. Fatal for that diagnostic.
type ShapeMismatchError struct {
	Diagnostic string
	WantNY     int
	WantNX     int
	GotNY      int
	GotNX      int
	Detail     string
}

func (e *ShapeMismatchError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("shape mismatch for %q: %s", e.Diagnostic, e.Detail)
	}
	return fmt.Sprintf("shape mismatch for %q: diagnostic grid is %dx%d, lapse-rate grid is %dx%d",
		e.Diagnostic, e.WantNY, e.WantNX, e.GotNY, e.GotNX)
}

// NoNeighbourFoundError reports that no grid cell satisfied the selection
// constraint or search radius for one site. Per-site: recorded in the
// failure list, never aborts the batch unless strict mode is on.
type NoNeighbourFoundError struct {
	SiteID string
	Reason string
}

func (e *NoNeighbourFoundError) Error() string {
	return fmt.Sprintf("no neighbour found for site %s: %s", e.SiteID, e.Reason)
}

// CorrectionError reports a corrupt lapse-rate value (NaN or Inf) at the
// matched cell. Per-site, same escalation rule as NoNeighbourFoundError.
type CorrectionError struct {
	SiteID string
	Cell   int
	Reason string
}

func (e *CorrectionError) Error() string {
	return fmt.Sprintf("correction failed for site %s at cell %d: %s", e.SiteID, e.Cell, e.Reason)
}

// Package corrector adjusts raw extracted values for the altitude gap
// between the model surface and the true site altitude.
package corrector

import (
	"math"

	"github.com/couchcryptid/spot-extract/internal/domain"
)

// Corrector applies a lapse-rate correction per (time, cell):
//
//	corrected = raw + lapse_rate_at_cell × altitude_diff
//
// where altitude_diff is site altitude minus the cell's surface altitude and
// the lapse rate carries the diagnostic's rate of change per metre of
// altitude increase. A nil lapse-rate field makes the corrector an explicit
// pass-through; that is a valid configuration, not an error.
type Corrector struct {
	lapse *domain.LapseRateField
}

// New checks the lapse-rate field against the diagnostic grid and returns a
// Corrector. A coordinate-system mismatch is a ShapeMismatchError, fatal for
// this diagnostic. Pass a nil lapse field for the pass-through corrector.
func New(lapse *domain.LapseRateField, diag *domain.GridField) (*Corrector, error) {
	if lapse == nil {
		return &Corrector{}, nil
	}
	if err := lapse.CheckAlignment(diag); err != nil {
		return nil, err
	}
	if len(lapse.Values) != 1 && len(lapse.Values) != len(diag.Values) {
		return nil, &domain.ShapeMismatchError{
			Diagnostic: diag.Name,
			Detail:     "lapse-rate field must carry one time slice or match the diagnostic's time dimension",
		}
	}
	return &Corrector{lapse: lapse}, nil
}

// Active reports whether a lapse-rate field is wired in.
func (c *Corrector) Active() bool { return c.lapse != nil }

// Correct adjusts one raw value. t indexes the diagnostic's time dimension;
// a single-slice lapse-rate field applies to every time. A NaN or Inf lapse
// rate at the matched cell is a per-site CorrectionError.
func (c *Corrector) Correct(raw float64, t, cell int, altitudeDiff float64, siteID string) (float64, error) {
	if c.lapse == nil {
		return raw, nil
	}
	lt := t
	if len(c.lapse.Values) == 1 {
		lt = 0
	}
	rate := c.lapse.Values[lt][cell]
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, &domain.CorrectionError{
			SiteID: siteID,
			Cell:   cell,
			Reason: "lapse rate is not finite",
		}
	}
	return raw + rate*altitudeDiff, nil
}

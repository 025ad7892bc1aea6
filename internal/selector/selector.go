// Package selector turns a site plus a selection policy into exactly one
// neighbouring grid cell.
package selector

import (
	"fmt"
	"math"

	"github.com/couchcryptid/spot-extract/internal/domain"
	"github.com/couchcryptid/spot-extract/internal/gridindex"
)

// DefaultK is the number of spatial candidates considered by the altitude
// tie-break when the policy does not say otherwise.
const DefaultK = 4

// TieBreak decides between spatial candidates for one site.
type TieBreak int

const (
	// TieBreakNearest picks the spatially nearest candidate.
	TieBreakNearest TieBreak = iota
	// TieBreakMinAltitudeDiff picks, among the K nearest candidates, the
	// one whose surface altitude is closest to the site's altitude.
	TieBreakMinAltitudeDiff
)

func (t TieBreak) String() string {
	if t == TieBreakMinAltitudeDiff {
		return "min_altitude_difference"
	}
	return "nearest"
}

// ParseTieBreak maps a policy string to a TieBreak.
func ParseTieBreak(s string) (TieBreak, error) {
	switch s {
	case "", "nearest":
		return TieBreakNearest, nil
	case "min_altitude_difference":
		return TieBreakMinAltitudeDiff, nil
	default:
		return TieBreakNearest, domain.Configurationf(
			"unknown tie_break %q (want nearest or min_altitude_difference)", s)
	}
}

// Policy holds the selection parameters for one diagnostic. The zero value
// is the plain nearest-cell policy.
type Policy struct {
	Constraint gridindex.Constraint
	TieBreak   TieBreak
	// K is how many spatial candidates the altitude tie-break considers.
	// Zero means DefaultK. Ignored by TieBreakNearest.
	K int
	// SearchRadius caps the distance to the selected cell in metres.
	// Zero means unlimited.
	SearchRadius float64
}

// Selector selects one grid cell per site under a fixed policy. Selection is
// a pure function of (site, grid, policy); a Selector is safe for concurrent
// use once built.
type Selector struct {
	grid   *domain.GridField
	index  *gridindex.Index
	policy Policy
}

// New validates the policy against the grid and returns a Selector.
// Constrained selection needs a land/sea mask; the altitude tie-break needs
// a surface-altitude ancillary. Missing either is a ConfigurationError.
func New(grid *domain.GridField, index *gridindex.Index, policy Policy) (*Selector, error) {
	if policy.K < 0 {
		return nil, domain.Configurationf("policy k must not be negative, got %d", policy.K)
	}
	if policy.K == 0 {
		policy.K = DefaultK
	}
	if policy.SearchRadius < 0 {
		return nil, domain.Configurationf("search radius must not be negative, got %g", policy.SearchRadius)
	}
	if policy.Constraint != gridindex.ConstraintNone && !index.HasMask() {
		return nil, domain.Configurationf(
			"policy requires constraint %q but grid %q has no land/sea mask",
			policy.Constraint, grid.Name)
	}
	if policy.TieBreak == TieBreakMinAltitudeDiff && grid.SurfaceAltitude == nil {
		return nil, domain.Configurationf(
			"policy requires the altitude tie-break but grid %q has no surface altitude", grid.Name)
	}
	return &Selector{grid: grid, index: index, policy: policy}, nil
}

// Select returns the NeighbourMatch for one site, or a NoNeighbourFoundError
// when no cell satisfies the constraint and search radius.
func (s *Selector) Select(site domain.Site) (domain.NeighbourMatch, error) {
	k := 1
	if s.policy.TieBreak == TieBreakMinAltitudeDiff {
		k = s.policy.K
	}

	cands := s.index.QueryK(site.Lat, site.Lon, k, s.policy.Constraint)
	if len(cands) == 0 {
		return domain.NeighbourMatch{}, &domain.NoNeighbourFoundError{
			SiteID: site.ID,
			Reason: fmt.Sprintf("no cell satisfies constraint %q", s.policy.Constraint),
		}
	}

	if r := s.policy.SearchRadius; r > 0 {
		within := cands[:0]
		for _, c := range cands {
			if c.Distance <= r {
				within = append(within, c)
			}
		}
		if len(within) == 0 {
			return domain.NeighbourMatch{}, &domain.NoNeighbourFoundError{
				SiteID: site.ID,
				Reason: fmt.Sprintf("nearest cell is %.1f m away, search radius is %.1f m",
					cands[0].Distance, r),
			}
		}
		cands = within
	}

	best := cands[0]
	if s.policy.TieBreak == TieBreakMinAltitudeDiff {
		// Candidates arrive ordered by (distance, cell index), so keeping
		// the first minimal score resolves score ties by smaller distance,
		// then by lowest cell index.
		bestScore := math.Abs(site.Altitude - s.grid.SurfaceAltitude[best.Cell])
		for _, c := range cands[1:] {
			score := math.Abs(site.Altitude - s.grid.SurfaceAltitude[c.Cell])
			if score < bestScore {
				best, bestScore = c, score
			}
		}
	}

	row, col := s.grid.CellRowCol(best.Cell)
	match := domain.NeighbourMatch{
		SiteID:   site.ID,
		Cell:     best.Cell,
		Row:      row,
		Col:      col,
		Distance: best.Distance,
	}
	if s.grid.SurfaceAltitude != nil {
		match.AltitudeDiff = site.Altitude - s.grid.SurfaceAltitude[best.Cell]
	}
	return match, nil
}

// Package gridindex answers nearest-neighbour queries from site coordinates
// to model grid cells.
//
// Geographic grids are embedded on the unit sphere (lat/lon → x,y,z) so that
// Euclidean nearest in the embedding is exactly great-circle nearest on the
// sphere; projected grids use their planar coordinates directly with z = 0.
// The two are never mixed within one index. Queries are served from a
// KD-tree and are safe for concurrent use: an Index is read-only after
// Build.
package gridindex

import (
	"math"

	"github.com/couchcryptid/spot-extract/internal/domain"
)

// earthRadius is the mean Earth radius in metres, matching the spherical
// datum used by the grid producer.
const earthRadius = 6371000.0

var inf = math.Inf(1)

// Constraint restricts which cells a query may return.
type Constraint int

const (
	ConstraintNone Constraint = iota
	ConstraintLand
	ConstraintSea
)

func (c Constraint) String() string {
	switch c {
	case ConstraintLand:
		return "land"
	case ConstraintSea:
		return "sea"
	default:
		return "none"
	}
}

// ParseConstraint maps a policy string to a Constraint.
func ParseConstraint(s string) (Constraint, error) {
	switch s {
	case "", "none":
		return ConstraintNone, nil
	case "land":
		return ConstraintLand, nil
	case "sea":
		return ConstraintSea, nil
	default:
		return ConstraintNone, domain.Configurationf("unknown constraint %q (want none, land, or sea)", s)
	}
}

// Candidate is one query result: a grid cell and the distance to it in
// metres (great-circle for geographic grids, planar for projected ones).
type Candidate struct {
	Cell     int
	Distance float64
}

type point [3]float64

// Index is a searchable spatial structure over one grid's cell coordinates.
// Immutable after Build; shareable across goroutines without locking.
type Index struct {
	kind domain.CoordKind
	mask []bool
	pts  []point
	root *kdNode
}

// Build constructs an Index from a grid's coordinate arrays and optional
// mask. It fails with a ConfigurationError if the grid has zero cells or
// inconsistent coordinate array shapes.
func Build(grid *domain.GridField) (*Index, error) {
	n := grid.NumCells()
	if n <= 0 {
		return nil, domain.Configurationf("grid %q has zero cells", grid.Name)
	}
	if len(grid.Lats) != n || len(grid.Lons) != n {
		return nil, domain.Configurationf("grid %q coordinate arrays have %d/%d entries, want %d",
			grid.Name, len(grid.Lats), len(grid.Lons), n)
	}
	if grid.Mask != nil && len(grid.Mask) != n {
		return nil, domain.Configurationf("grid %q mask has %d entries, want %d",
			grid.Name, len(grid.Mask), n)
	}

	ix := &Index{
		kind: grid.Kind,
		mask: grid.Mask,
		pts:  make([]point, n),
	}
	cells := make([]int, n)
	for c := range n {
		cells[c] = c
		ix.pts[c] = ix.embed(grid.Lats[c], grid.Lons[c])
	}
	ix.root = buildKDTree(ix.pts, cells, 0)
	return ix, nil
}

// HasMask reports whether the index can serve land/sea constrained queries.
func (ix *Index) HasMask() bool { return ix.mask != nil }

// NumCells returns the number of indexed cells.
func (ix *Index) NumCells() int { return len(ix.pts) }

// Query returns the best matching cell for (lat, lon) under the constraint.
// ok is false when the constraint eliminates every cell; that is a no-match,
// not an error — the caller decides how to handle it.
func (ix *Index) Query(lat, lon float64, constraint Constraint) (Candidate, bool) {
	cands := ix.QueryK(lat, lon, 1, constraint)
	if len(cands) == 0 {
		return Candidate{}, false
	}
	return cands[0], true
}

// QueryK returns up to k nearest cells under the constraint, ordered by
// distance then by lowest cell index. The ordering is a total order, so
// repeated queries over the same index return identical slices.
func (ix *Index) QueryK(lat, lon float64, k int, constraint Constraint) []Candidate {
	if k <= 0 {
		return nil
	}
	q := ix.embed(lat, lon)
	h := &neighbourHeap{k: k, conv: ix.toMetres}
	ix.root.search(ix.pts, q, 0, ix.acceptFunc(constraint), h)

	out := make([]Candidate, len(h.cands))
	for i, c := range h.cands {
		out[i] = Candidate{Cell: c.cell, Distance: c.dist}
	}
	return out
}

func (ix *Index) acceptFunc(constraint Constraint) func(cell int) bool {
	switch {
	case constraint == ConstraintNone:
		return nil
	case ix.mask == nil:
		// No mask: constrained queries cannot match anything.
		return func(int) bool { return false }
	case constraint == ConstraintLand:
		return func(cell int) bool { return ix.mask[cell] }
	default:
		return func(cell int) bool { return !ix.mask[cell] }
	}
}

// embed maps a coordinate pair into the index's search space.
func (ix *Index) embed(lat, lon float64) point {
	if ix.kind == domain.Projected {
		return point{lon, lat, 0}
	}
	latR := lat * math.Pi / 180
	lonR := lon * math.Pi / 180
	cosLat := math.Cos(latR)
	return point{cosLat * math.Cos(lonR), cosLat * math.Sin(lonR), math.Sin(latR)}
}

// toMetres converts a squared embedding distance to metres. For geographic
// grids the chord length on the unit sphere is converted back to arc length.
func (ix *Index) toMetres(dSq float64) float64 {
	d := math.Sqrt(dSq)
	if ix.kind == domain.Projected {
		return d
	}
	half := d / 2
	if half > 1 {
		half = 1
	}
	return earthRadius * 2 * math.Asin(half)
}

package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"
)

// CoordKind identifies the coordinate system of a grid's cell coordinates.
type CoordKind int

const (
	// Geographic means cell coordinates are latitude/longitude degrees and
	// distances are great-circle metres.
	Geographic CoordKind = iota
	// Projected means cell coordinates are planar (metres) and distances
	// are Euclidean.
	Projected
)

func (k CoordKind) String() string {
	if k == Projected {
		return "projected"
	}
	return "geographic"
}

// GridField is one diagnostic on a 2-D model grid, optionally with a time
// dimension. Cell arrays are row-major with NY*NX entries; Values holds one
// slice of NY*NX cell values per validity time. A GridField is immutable
// once loaded.
type GridField struct {
	Name  string
	Units string
	Kind  CoordKind

	NY, NX int

	// Per-cell coordinates, row-major, length NY*NX. For Geographic grids
	// these are degrees; for Projected grids Lats holds Y and Lons holds X
	// in metres.
	Lats []float64
	Lons []float64

	// Mask marks land cells (true = land). Optional; nil means unmasked.
	Mask []bool

	// SurfaceAltitude is the model's surface altitude per cell in metres.
	// Optional; required only by altitude-based tie-breaking and by the
	// vertical corrector.
	SurfaceAltitude []float64

	ValidityTimes []time.Time
	Values        [][]float64
}

// NumCells returns the number of grid cells.
func (g *GridField) NumCells() int { return g.NY * g.NX }

// CellRowCol converts a flattened cell index to (row, col).
func (g *GridField) CellRowCol(cell int) (int, int) {
	return cell / g.NX, cell % g.NX
}

// Validate checks internal consistency. It returns a ConfigurationError on
// the first problem found.
func (g *GridField) Validate() error {
	n := g.NumCells()
	switch {
	case g.Name == "":
		return Configurationf("grid has no diagnostic name")
	case g.NY <= 0 || g.NX <= 0:
		return Configurationf("grid %q has zero cells (%dx%d)", g.Name, g.NY, g.NX)
	case len(g.Lats) != n || len(g.Lons) != n:
		return Configurationf("grid %q coordinate arrays have %d/%d entries, want %d",
			g.Name, len(g.Lats), len(g.Lons), n)
	case g.Mask != nil && len(g.Mask) != n:
		return Configurationf("grid %q mask has %d entries, want %d", g.Name, len(g.Mask), n)
	case g.SurfaceAltitude != nil && len(g.SurfaceAltitude) != n:
		return Configurationf("grid %q surface altitude has %d entries, want %d",
			g.Name, len(g.SurfaceAltitude), n)
	case len(g.Values) == 0:
		return Configurationf("grid %q has no value slices", g.Name)
	case len(g.ValidityTimes) != len(g.Values):
		return Configurationf("grid %q has %d validity times for %d value slices",
			g.Name, len(g.ValidityTimes), len(g.Values))
	}
	for t, vals := range g.Values {
		if len(vals) != n {
			return Configurationf("grid %q time slice %d has %d values, want %d",
				g.Name, t, len(vals), n)
		}
	}
	return nil
}

// GeometryKey returns a stable fingerprint of the grid's coordinate system:
// kind, shape, and every cell coordinate. Grids with equal keys can share
// one spatial index. Deterministic across runs, like the rest of the output.
func (g *GridField) GeometryKey() string {
	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(g.Kind))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(g.NY))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(g.NX))
	h.Write(buf[:])
	for _, v := range g.Lats {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	for _, v := range g.Lons {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

// NewRegularGrid expands separable latitude/longitude axes into a per-cell
// GridField. Values must be row-major (lat outer, lon inner) per time slice.
func NewRegularGrid(name, units string, lats, lons []float64, times []time.Time, values [][]float64) *GridField {
	ny, nx := len(lats), len(lons)
	cellLats := make([]float64, 0, ny*nx)
	cellLons := make([]float64, 0, ny*nx)
	for _, la := range lats {
		for _, lo := range lons {
			cellLats = append(cellLats, la)
			cellLons = append(cellLons, lo)
		}
	}
	return &GridField{
		Name:          name,
		Units:         units,
		Kind:          Geographic,
		NY:            ny,
		NX:            nx,
		Lats:          cellLats,
		Lons:          cellLons,
		ValidityTimes: times,
		Values:        values,
	}
}

// LapseRateField is a GridField whose values are the rate of change of a
// companion diagnostic per metre of altitude increase.
type LapseRateField struct {
	GridField
}

// CheckAlignment verifies that the lapse-rate grid shares the diagnostic
// grid's coordinate system exactly: same kind, same shape, same cell
// coordinates. Any difference is a ShapeMismatchError.
func (l *LapseRateField) CheckAlignment(diag *GridField) error {
	if l.Kind != diag.Kind {
		return &ShapeMismatchError{
			Diagnostic: diag.Name,
			Detail:     "diagnostic grid is " + diag.Kind.String() + ", lapse-rate grid is " + l.Kind.String(),
		}
	}
	if l.NY != diag.NY || l.NX != diag.NX {
		return &ShapeMismatchError{
			Diagnostic: diag.Name,
			WantNY:     diag.NY, WantNX: diag.NX,
			GotNY: l.NY, GotNX: l.NX,
		}
	}
	for i := range diag.Lats {
		if l.Lats[i] != diag.Lats[i] || l.Lons[i] != diag.Lons[i] {
			return &ShapeMismatchError{
				Diagnostic: diag.Name,
				Detail:     "cell coordinates differ from the diagnostic grid",
			}
		}
	}
	return nil
}

package selector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/spot-extract/internal/domain"
	"github.com/couchcryptid/spot-extract/internal/gridindex"
)

// testGrid is a 3x3 geographic grid with a sea column in the west and a
// terrain profile rising eastwards.
func testGrid() *domain.GridField {
	g := domain.NewRegularGrid("air_temperature", "K",
		[]float64{51, 52, 53},
		[]float64{-3, -2, -1},
		[]time.Time{time.Date(2026, time.March, 12, 6, 0, 0, 0, time.UTC)},
		[][]float64{{280, 281, 282, 283, 284, 285, 286, 287, 288}},
	)
	g.Mask = []bool{
		false, true, true,
		false, true, true,
		false, true, true,
	}
	g.SurfaceAltitude = []float64{
		0, 100, 300,
		0, 120, 320,
		0, 140, 340,
	}
	return g
}

func buildIndex(t *testing.T, g *domain.GridField) *gridindex.Index {
	t.Helper()
	ix, err := gridindex.Build(g)
	require.NoError(t, err)
	return ix
}

func TestParseTieBreak(t *testing.T) {
	tests := []struct {
		in      string
		want    TieBreak
		wantErr bool
	}{
		{in: "", want: TieBreakNearest},
		{in: "nearest", want: TieBreakNearest},
		{in: "min_altitude_difference", want: TieBreakMinAltitudeDiff},
		{in: "closest", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("input "+tt.in, func(t *testing.T) {
			got, err := ParseTieBreak(tt.in)
			if tt.wantErr {
				var cfgErr *domain.ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPolicyValidation(t *testing.T) {
	g := testGrid()
	ix := buildIndex(t, g)

	t.Run("negative k", func(t *testing.T) {
		_, err := New(g, ix, Policy{K: -1})
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("negative search radius", func(t *testing.T) {
		_, err := New(g, ix, Policy{SearchRadius: -5})
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("constraint without mask", func(t *testing.T) {
		unmasked := testGrid()
		unmasked.Mask = nil
		_, err := New(unmasked, buildIndex(t, unmasked), Policy{Constraint: gridindex.ConstraintLand})
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, err.Error(), "no land/sea mask")
	})

	t.Run("altitude tie-break without surface altitude", func(t *testing.T) {
		flat := testGrid()
		flat.SurfaceAltitude = nil
		_, err := New(flat, buildIndex(t, flat), Policy{TieBreak: TieBreakMinAltitudeDiff})
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, err.Error(), "no surface altitude")
	})

	t.Run("zero policy is valid", func(t *testing.T) {
		_, err := New(g, ix, Policy{})
		assert.NoError(t, err)
	})
}

func TestSelectNearest(t *testing.T) {
	g := testGrid()
	sel, err := New(g, buildIndex(t, g), Policy{})
	require.NoError(t, err)

	t.Run("centre site", func(t *testing.T) {
		match, err := sel.Select(domain.Site{ID: "s1", Lat: 52.05, Lon: -2.04, Altitude: 150})
		require.NoError(t, err)

		assert.Equal(t, "s1", match.SiteID)
		assert.Equal(t, 4, match.Cell)
		assert.Equal(t, 1, match.Row)
		assert.Equal(t, 1, match.Col)
		assert.Greater(t, match.Distance, 0.0)
		assert.Equal(t, 150.0-120.0, match.AltitudeDiff)
	})

	t.Run("no surface altitude means zero diff", func(t *testing.T) {
		flat := testGrid()
		flat.SurfaceAltitude = nil
		flatSel, err := New(flat, buildIndex(t, flat), Policy{})
		require.NoError(t, err)

		match, err := flatSel.Select(domain.Site{ID: "s1", Lat: 52, Lon: -2, Altitude: 150})
		require.NoError(t, err)
		assert.Zero(t, match.AltitudeDiff)
	})
}

func TestSelectConstraint(t *testing.T) {
	g := testGrid()

	t.Run("land pushes off sea cells", func(t *testing.T) {
		sel, err := New(g, buildIndex(t, g), Policy{Constraint: gridindex.ConstraintLand})
		require.NoError(t, err)

		match, err := sel.Select(domain.Site{ID: "s1", Lat: 52, Lon: -3})
		require.NoError(t, err)
		assert.Equal(t, 4, match.Cell)
	})

	t.Run("all cells eliminated", func(t *testing.T) {
		land := testGrid()
		land.Mask = make([]bool, land.NumCells()) // everything sea
		for i := range land.Mask {
			land.Mask[i] = false
		}
		sel, err := New(land, buildIndex(t, land), Policy{Constraint: gridindex.ConstraintLand})
		require.NoError(t, err)

		_, err = sel.Select(domain.Site{ID: "s1", Lat: 52, Lon: -2})
		var noMatch *domain.NoNeighbourFoundError
		require.ErrorAs(t, err, &noMatch)
		assert.Equal(t, "s1", noMatch.SiteID)
	})
}

func TestSelectSearchRadius(t *testing.T) {
	g := testGrid()

	t.Run("within radius", func(t *testing.T) {
		sel, err := New(g, buildIndex(t, g), Policy{SearchRadius: 50_000})
		require.NoError(t, err)

		match, err := sel.Select(domain.Site{ID: "s1", Lat: 52.1, Lon: -2})
		require.NoError(t, err)
		assert.Equal(t, 4, match.Cell)
	})

	t.Run("outside radius", func(t *testing.T) {
		sel, err := New(g, buildIndex(t, g), Policy{SearchRadius: 1000})
		require.NoError(t, err)

		_, err = sel.Select(domain.Site{ID: "s1", Lat: 55, Lon: -2})
		var noMatch *domain.NoNeighbourFoundError
		require.ErrorAs(t, err, &noMatch)
		assert.Contains(t, noMatch.Reason, "search radius")
	})
}

func TestSelectAltitudeTieBreak(t *testing.T) {
	g := testGrid()
	sel, err := New(g, buildIndex(t, g), Policy{TieBreak: TieBreakMinAltitudeDiff, K: 4})
	require.NoError(t, err)

	t.Run("prefers closer surface altitude", func(t *testing.T) {
		// Site sits near cell 4 (alt 120) but its true altitude matches
		// cell 5 (alt 320) much better.
		match, err := sel.Select(domain.Site{ID: "s1", Lat: 52, Lon: -1.9, Altitude: 325})
		require.NoError(t, err)

		assert.Equal(t, 5, match.Cell)
		assert.Equal(t, 325.0-320.0, match.AltitudeDiff)
	})

	t.Run("falls back to nearest on equal scores", func(t *testing.T) {
		// All candidate altitudes equally far from the site's: the spatially
		// nearest candidate wins.
		flat := testGrid()
		for i := range flat.SurfaceAltitude {
			flat.SurfaceAltitude[i] = 100
		}
		flatSel, err := New(flat, buildIndex(t, flat), Policy{TieBreak: TieBreakMinAltitudeDiff, K: 4})
		require.NoError(t, err)

		match, err := flatSel.Select(domain.Site{ID: "s1", Lat: 52.01, Lon: -2, Altitude: 500})
		require.NoError(t, err)
		assert.Equal(t, 4, match.Cell)
	})

	t.Run("radius filters candidates before the tie-break", func(t *testing.T) {
		tight, err := New(g, buildIndex(t, g), Policy{
			TieBreak:     TieBreakMinAltitudeDiff,
			K:            4,
			SearchRadius: 30_000,
		})
		require.NoError(t, err)

		// Cell 5 would win on altitude but lies beyond the radius.
		match, err := tight.Select(domain.Site{ID: "s1", Lat: 52, Lon: -2.05, Altitude: 325})
		require.NoError(t, err)
		assert.NotEqual(t, 5, match.Cell)
	})
}

func TestSelectDeterministic(t *testing.T) {
	g := testGrid()
	sel, err := New(g, buildIndex(t, g), Policy{TieBreak: TieBreakMinAltitudeDiff, K: 4})
	require.NoError(t, err)

	site := domain.Site{ID: "s1", Lat: 52.2, Lon: -1.8, Altitude: 200}
	first, err := sel.Select(site)
	require.NoError(t, err)
	for range 20 {
		match, err := sel.Select(site)
		require.NoError(t, err)
		assert.Equal(t, first, match)
	}
}

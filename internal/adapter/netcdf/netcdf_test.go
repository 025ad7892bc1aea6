package netcdf

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/spot-extract/internal/domain"
)

var testTimes = []time.Time{
	time.Date(2026, time.March, 12, 6, 0, 0, 0, time.UTC),
	time.Date(2026, time.March, 12, 7, 0, 0, 0, time.UTC),
}

// writeTestGrid writes a 3x4 grid file with two timesteps, surface altitude,
// a land mask, and a timeless lapse-rate variable.
func writeTestGrid(t *testing.T) string {
	t.Helper()

	lats := []float64{51, 52, 53}
	lons := []float64{-4, -3, -2, -1}
	n := len(lats) * len(lons)

	temp := make([][]float64, 2)
	for ts := range temp {
		temp[ts] = make([]float64, n)
		for i := range temp[ts] {
			temp[ts][i] = 280 + float64(i) + 10*float64(ts)
		}
	}
	lapse := make([]float64, n)
	altitude := make([]float64, n)
	mask := make([]bool, n)
	for i := range n {
		lapse[i] = -0.0065
		altitude[i] = float64(20 * i)
		mask[i] = i%3 != 0
	}

	path := filepath.Join(t.TempDir(), "grid.nc")
	require.NoError(t, WriteGridFile(path, lats, lons, testTimes,
		[]GridVar{
			{Name: "air_temperature", Units: "K", Values: temp, TimeVarying: true},
			{Name: "air_temperature_lapse_rate", Units: "K m-1", Values: [][]float64{lapse}},
		},
		altitude, mask))
	return path
}

func TestReadGrid(t *testing.T) {
	path := writeTestGrid(t)

	grid, err := ReadGrid(path, "air_temperature")
	require.NoError(t, err)

	assert.Equal(t, "air_temperature", grid.Name)
	assert.Equal(t, "K", grid.Units)
	assert.Equal(t, domain.Geographic, grid.Kind)
	assert.Equal(t, 3, grid.NY)
	assert.Equal(t, 4, grid.NX)
	assert.Equal(t, 12, grid.NumCells())

	// Per-cell expansion of the separable axes.
	assert.Equal(t, 51.0, grid.Lats[0])
	assert.Equal(t, -4.0, grid.Lons[0])
	assert.Equal(t, 53.0, grid.Lats[11])
	assert.Equal(t, -1.0, grid.Lons[11])

	require.Len(t, grid.ValidityTimes, 2)
	assert.True(t, grid.ValidityTimes[0].Equal(testTimes[0]))
	assert.True(t, grid.ValidityTimes[1].Equal(testTimes[1]))

	require.Len(t, grid.Values, 2)
	assert.Equal(t, 280.0, grid.Values[0][0])
	assert.Equal(t, 301.0, grid.Values[1][11])

	require.NotNil(t, grid.SurfaceAltitude)
	assert.Equal(t, 220.0, grid.SurfaceAltitude[11])
	require.NotNil(t, grid.Mask)
	assert.False(t, grid.Mask[0])
	assert.True(t, grid.Mask[1])

	require.NoError(t, grid.Validate())
}

func TestReadGridTimeless(t *testing.T) {
	path := writeTestGrid(t)

	grid, err := ReadGrid(path, "air_temperature_lapse_rate")
	require.NoError(t, err)

	assert.Equal(t, "K m-1", grid.Units)
	require.Len(t, grid.Values, 1)
	assert.Equal(t, -0.0065, grid.Values[0][0])
}

func TestReadGridErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ReadGrid(filepath.Join(t.TempDir(), "nope.nc"), "air_temperature")
		assert.Error(t, err)
	})

	t.Run("missing variable", func(t *testing.T) {
		_, err := ReadGrid(writeTestGrid(t), "dew_point")
		assert.Error(t, err)
	})
}

func TestReadLapseRate(t *testing.T) {
	path := writeTestGrid(t)
	diag, err := ReadGrid(path, "air_temperature")
	require.NoError(t, err)

	t.Run("aligned", func(t *testing.T) {
		lapse, err := ReadLapseRate(path, "air_temperature_lapse_rate", diag)
		require.NoError(t, err)
		assert.Equal(t, -0.0065, lapse.Values[0][5])
	})

	t.Run("misaligned grid", func(t *testing.T) {
		otherPath := filepath.Join(t.TempDir(), "other.nc")
		lapse := make([]float64, 4)
		require.NoError(t, WriteGridFile(otherPath,
			[]float64{10, 11}, []float64{100, 101}, nil,
			[]GridVar{{Name: "air_temperature_lapse_rate", Units: "K m-1", Values: [][]float64{lapse}}},
			nil, nil))

		_, err := ReadLapseRate(otherPath, "air_temperature_lapse_rate", diag)
		var mismatch *domain.ShapeMismatchError
		require.ErrorAs(t, err, &mismatch)
	})
}

func TestSpotResultRoundTrip(t *testing.T) {
	result := &domain.SpotResult{
		Diagnostic:    "air_temperature",
		Units:         "K",
		ValidityTimes: testTimes,
		Sites: []domain.SpotValue{
			{
				Site:   domain.Site{ID: "site-a", Lat: 51.5, Lon: -2.25, Altitude: 40},
				Values: []float64{283.25, 282.75},
				Match:  domain.NeighbourMatch{SiteID: "site-a", Cell: 6, Row: 1, Col: 2, Distance: 812.5, AltitudeDiff: -12.5},
			},
			{
				Site:   domain.Site{ID: "site-b", Lat: 52.75, Lon: -1.5, Altitude: 120},
				Values: []float64{281.0, 280.5},
				Match:  domain.NeighbourMatch{SiteID: "site-b", Cell: 11, Row: 2, Col: 3, Distance: 431.25, AltitudeDiff: 30},
			},
		},
		CreatedAt: time.Date(2026, time.March, 12, 5, 30, 0, 0, time.UTC),
	}

	path := filepath.Join(t.TempDir(), "air_temperature_spot.nc")
	require.NoError(t, WriteSpotResult(path, result))

	sf, err := ReadSpotFile(path)
	require.NoError(t, err)

	assert.Equal(t, "air_temperature", sf.Diagnostic)
	assert.Equal(t, "K", sf.Units)
	assert.Equal(t, []string{"site-a", "site-b"}, sf.SiteIDs)
	assert.Empty(t, cmp.Diff([]float64{51.5, 52.75}, sf.Lats))
	assert.Empty(t, cmp.Diff([]float64{-2.25, -1.5}, sf.Lons))
	assert.Empty(t, cmp.Diff([]float64{40, 120}, sf.Altitudes))

	require.Len(t, sf.Times, 2)
	assert.True(t, sf.Times[0].Equal(testTimes[0]))
	assert.True(t, sf.Times[1].Equal(testTimes[1]))

	// Values are [time][site].
	assert.Empty(t, cmp.Diff([][]float64{{283.25, 281.0}, {282.75, 280.5}}, sf.Values))

	assert.Equal(t, []int64{6, 11}, sf.NeighbourCells)
	assert.Empty(t, cmp.Diff([]float64{812.5, 431.25}, sf.Distances))
	assert.Empty(t, cmp.Diff([]float64{-12.5, 30}, sf.AltitudeDiffs))
}

func TestSpotVarName(t *testing.T) {
	assert.Equal(t, "air_temperature", SpotVarName("air_temperature"))
	assert.Equal(t, "wind_speed_at_10m", SpotVarName("wind speed at 10m"))
	assert.Equal(t, "lwe_thickness_of_precipitation_amount", SpotVarName("lwe_thickness_of_precipitation_amount"))
}

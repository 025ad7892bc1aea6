package netcdf

import (
	"fmt"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
)

// GridVar is one variable destined for a grid file. Values are per-cell
// row-major slices, one per time slice; timeless variables carry a single
// slice and are written as [lat][lon].
type GridVar struct {
	Name        string
	Units       string
	Values      [][]float64
	TimeVarying bool
}

// WriteGridFile writes a regular lat/lon grid file in the layout ReadGrid
// expects. Used by the fixture generator and by tests; the extraction engine
// itself never writes grids.
func WriteGridFile(path string, lats, lons []float64, times []time.Time, fields []GridVar, surfaceAltitude []float64, mask []bool) error {
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("create grid file %s: %w", path, err)
	}

	ny, nx := len(lats), len(lons)

	addVar := func(name string, v api.Variable) {
		if err == nil {
			err = cw.AddVar(name, v)
		}
	}

	addVar(VarLatitude, api.Variable{Values: lats, Dimensions: []string{VarLatitude}})
	addVar(VarLongitude, api.Variable{Values: lons, Dimensions: []string{VarLongitude}})

	if len(times) > 0 {
		secs := make([]int64, len(times))
		for i, t := range times {
			secs[i] = t.Unix()
		}
		timeUnits, mapErr := util.NewOrderedMap(
			[]string{"units"},
			map[string]any{"units": "seconds since 1970-01-01 00:00:00"})
		if mapErr != nil {
			cw.Close()
			return fmt.Errorf("grid file attributes: %w", mapErr)
		}
		addVar(VarTime, api.Variable{Values: secs, Dimensions: []string{VarTime}, Attributes: timeUnits})
	}

	for _, f := range fields {
		attrs, mapErr := util.NewOrderedMap([]string{"units"}, map[string]any{"units": f.Units})
		if mapErr != nil {
			cw.Close()
			return fmt.Errorf("grid file attributes: %w", mapErr)
		}
		if f.TimeVarying {
			cube := make([][][]float64, len(f.Values))
			for t, flat := range f.Values {
				cube[t] = unflatten(flat, ny, nx)
			}
			addVar(f.Name, api.Variable{
				Values:     cube,
				Dimensions: []string{VarTime, VarLatitude, VarLongitude},
				Attributes: attrs,
			})
		} else {
			addVar(f.Name, api.Variable{
				Values:     unflatten(f.Values[0], ny, nx),
				Dimensions: []string{VarLatitude, VarLongitude},
				Attributes: attrs,
			})
		}
	}

	if surfaceAltitude != nil {
		addVar(VarSurfaceAltitude, api.Variable{
			Values:     unflatten(surfaceAltitude, ny, nx),
			Dimensions: []string{VarLatitude, VarLongitude},
		})
	}
	if mask != nil {
		flat := make([]float64, len(mask))
		for i, m := range mask {
			if m {
				flat[i] = 1
			}
		}
		maskInts := make([][]int8, ny)
		for r := range maskInts {
			maskInts[r] = make([]int8, nx)
			for c := range maskInts[r] {
				maskInts[r][c] = int8(flat[r*nx+c])
			}
		}
		addVar(VarLandMask, api.Variable{
			Values:     maskInts,
			Dimensions: []string{VarLatitude, VarLongitude},
		})
	}

	if err != nil {
		cw.Close()
		return fmt.Errorf("write grid file %s: %w", path, err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("close grid file %s: %w", path, err)
	}
	return nil
}

func unflatten(flat []float64, ny, nx int) [][]float64 {
	rows := make([][]float64, ny)
	for r := range rows {
		rows[r] = flat[r*nx : (r+1)*nx]
	}
	return rows
}

// Package netcdf reads gridded diagnostic files and writes site-indexed spot
// files using the CF-style layout the wider toolchain expects: 1-D latitude
// and longitude axes, an optional time dimension, and per-cell ancillaries
// named surface_altitude and land_binary_mask.
package netcdf

import (
	"fmt"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/couchcryptid/spot-extract/internal/domain"
)

// Ancillary variable names shared with the grid producer.
const (
	VarSurfaceAltitude = "surface_altitude"
	VarLandMask        = "land_binary_mask"
	VarTime            = "time"
	VarLatitude        = "latitude"
	VarLongitude       = "longitude"
)

// ReadGrid loads one named diagnostic from a NetCDF file as a GridField.
// The variable may be [ny][nx] or [time][ny][nx]; surface altitude and land
// mask are picked up when present.
func ReadGrid(path, varName string) (*domain.GridField, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grid file %s: %w", path, err)
	}
	defer nc.Close()

	return readGridFrom(nc, path, varName)
}

// ReadLapseRate loads a lapse-rate variable and verifies its alignment with
// the diagnostic grid it accompanies.
func ReadLapseRate(path, varName string, diag *domain.GridField) (*domain.LapseRateField, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lapse-rate file %s: %w", path, err)
	}
	defer nc.Close()

	grid, err := readGridFrom(nc, path, varName)
	if err != nil {
		return nil, err
	}
	lapse := &domain.LapseRateField{GridField: *grid}
	if err := lapse.CheckAlignment(diag); err != nil {
		return nil, err
	}
	return lapse, nil
}

func readGridFrom(nc api.Group, path, varName string) (*domain.GridField, error) {
	lats, err := axisValues(nc, VarLatitude)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	lons, err := axisValues(nc, VarLongitude)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	vr, err := nc.GetVariable(varName)
	if err != nil {
		return nil, fmt.Errorf("%s: variable %q: %w", path, varName, err)
	}

	var (
		values [][]float64
		ny, nx int
		times  []time.Time
	)
	switch len(vr.Dimensions) {
	case 2:
		flat, gotNY, gotNX, convErr := toFloat64s2D(vr.Values)
		if convErr != nil {
			return nil, fmt.Errorf("%s: variable %q: %w", path, varName, convErr)
		}
		values, ny, nx = [][]float64{flat}, gotNY, gotNX
		times = []time.Time{{}}
	case 3:
		slices, gotNY, gotNX, convErr := toFloat64s3D(vr.Values)
		if convErr != nil {
			return nil, fmt.Errorf("%s: variable %q: %w", path, varName, convErr)
		}
		values, ny, nx = slices, gotNY, gotNX
		times, err = timeValues(nc, len(slices))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	default:
		return nil, domain.Configurationf("variable %q in %s has %d dimensions, want 2 or 3",
			varName, path, len(vr.Dimensions))
	}

	if ny != len(lats) || nx != len(lons) {
		return nil, domain.Configurationf(
			"variable %q in %s is %dx%d but axes are %dx%d",
			varName, path, ny, nx, len(lats), len(lons))
	}

	grid := domain.NewRegularGrid(varName, attrString(vr.Attributes, "units"), lats, lons, times, values)

	if alt, ok, err := optional2D(nc, VarSurfaceAltitude); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	} else if ok {
		if len(alt) != grid.NumCells() {
			return nil, domain.Configurationf("%s in %s has %d cells, want %d",
				VarSurfaceAltitude, path, len(alt), grid.NumCells())
		}
		grid.SurfaceAltitude = alt
	}

	if maskVals, ok, err := optional2D(nc, VarLandMask); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	} else if ok {
		if len(maskVals) != grid.NumCells() {
			return nil, domain.Configurationf("%s in %s has %d cells, want %d",
				VarLandMask, path, len(maskVals), grid.NumCells())
		}
		mask := make([]bool, len(maskVals))
		for i, v := range maskVals {
			mask[i] = v != 0
		}
		grid.Mask = mask
	}

	if err := grid.Validate(); err != nil {
		return nil, err
	}
	return grid, nil
}

func axisValues(nc api.Group, name string) ([]float64, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("axis %q: %w", name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("axis %q: %w", name, err)
	}
	return toFloat64s(v)
}

// timeValues reads the time axis as Unix seconds. Missing time axis on a 3-D
// variable is a malformed file.
func timeValues(nc api.Group, want int) ([]time.Time, error) {
	vg, err := nc.GetVarGetter(VarTime)
	if err != nil {
		return nil, fmt.Errorf("time axis: %w", err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("time axis: %w", err)
	}
	secs, err := toInt64s(v)
	if err != nil {
		return nil, fmt.Errorf("time axis: %w", err)
	}
	if len(secs) != want {
		return nil, domain.Configurationf("time axis has %d entries, variable has %d time slices", len(secs), want)
	}
	times := make([]time.Time, len(secs))
	for i, s := range secs {
		times[i] = time.Unix(s, 0).UTC()
	}
	return times, nil
}

func optional2D(nc api.Group, name string) ([]float64, bool, error) {
	vr, err := nc.GetVariable(name)
	if err != nil {
		// Ancillaries are optional; absence is not an error.
		return nil, false, nil
	}
	flat, _, _, err := toFloat64s2D(vr.Values)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", name, err)
	}
	return flat, true, nil
}

func attrString(attrs api.AttributeMap, key string) string {
	if attrs == nil {
		return ""
	}
	v, ok := attrs.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

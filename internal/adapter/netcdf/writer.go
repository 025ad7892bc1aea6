package netcdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/couchcryptid/spot-extract/internal/domain"
)

// Spot file variable names.
const (
	VarSiteID            = "site_id"
	VarAltitude          = "altitude"
	VarNeighbourCell     = "neighbour_cell"
	VarNeighbourDistance = "neighbour_distance"
	VarAltitudeDiff      = "altitude_difference"
)

// WriteSpotResult serializes a SpotResult to a site-indexed NetCDF (classic
// CDF) file: an index dimension carrying the sites in input-table order with
// latitude/longitude/altitude auxiliaries, the diagnostic values on
// (time, index), and neighbour provenance per site.
func WriteSpotResult(path string, result *domain.SpotResult) error {
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("create spot file %s: %w", path, err)
	}

	n := len(result.Sites)
	indices := make([]int32, n)
	siteIDs := make([]string, n)
	lats := make([]float64, n)
	lons := make([]float64, n)
	alts := make([]float64, n)
	cells := make([]int32, n)
	distances := make([]float64, n)
	altDiffs := make([]float64, n)
	for i, sv := range result.Sites {
		indices[i] = int32(i)
		siteIDs[i] = sv.Site.ID
		lats[i] = sv.Site.Lat
		lons[i] = sv.Site.Lon
		alts[i] = sv.Site.Altitude
		cells[i] = int32(sv.Match.Cell)
		distances[i] = sv.Match.Distance
		altDiffs[i] = sv.Match.AltitudeDiff
	}

	nt := len(result.ValidityTimes)
	times := make([]int64, nt)
	for t, vt := range result.ValidityTimes {
		times[t] = vt.Unix()
	}
	values := make([][]float64, nt)
	for t := range values {
		values[t] = make([]float64, n)
		for i, sv := range result.Sites {
			values[t][i] = sv.Values[t]
		}
	}

	globals, err := util.NewOrderedMap(
		[]string{"diagnostic", "units", "created_at"},
		map[string]any{
			"diagnostic": result.Diagnostic,
			"units":      result.Units,
			"created_at": result.CreatedAt.Format(time.RFC3339),
		})
	if err != nil {
		return fmt.Errorf("spot file attributes: %w", err)
	}
	if err := cw.AddGlobalAttrs(globals); err != nil {
		return fmt.Errorf("spot file attributes: %w", err)
	}

	timeUnits, err := util.NewOrderedMap(
		[]string{"units"},
		map[string]any{"units": "seconds since 1970-01-01 00:00:00"})
	if err != nil {
		return fmt.Errorf("spot file attributes: %w", err)
	}

	vars := []struct {
		name string
		v    api.Variable
	}{
		{"index", api.Variable{Values: indices, Dimensions: []string{"index"}}},
		{VarSiteID, api.Variable{Values: siteIDs, Dimensions: []string{"index"}}},
		{VarLatitude, api.Variable{Values: lats, Dimensions: []string{"index"}}},
		{VarLongitude, api.Variable{Values: lons, Dimensions: []string{"index"}}},
		{VarAltitude, api.Variable{Values: alts, Dimensions: []string{"index"}}},
		{VarTime, api.Variable{Values: times, Dimensions: []string{"time"}, Attributes: timeUnits}},
		{SpotVarName(result.Diagnostic), api.Variable{Values: values, Dimensions: []string{"time", "index"}}},
		{VarNeighbourCell, api.Variable{Values: cells, Dimensions: []string{"index"}}},
		{VarNeighbourDistance, api.Variable{Values: distances, Dimensions: []string{"index"}}},
		{VarAltitudeDiff, api.Variable{Values: altDiffs, Dimensions: []string{"index"}}},
	}
	for _, nv := range vars {
		if err := cw.AddVar(nv.name, nv.v); err != nil {
			cw.Close()
			return fmt.Errorf("write %s to %s: %w", nv.name, path, err)
		}
	}

	if err := cw.Close(); err != nil {
		return fmt.Errorf("close spot file %s: %w", path, err)
	}
	return nil
}

// SpotFile is the in-memory form of a spot output file, used by the
// comparison tool and round-trip tests.
type SpotFile struct {
	Diagnostic string
	Units      string
	SiteIDs    []string
	Lats       []float64
	Lons       []float64
	Altitudes  []float64
	Times      []time.Time
	// Values is indexed [time][site].
	Values [][]float64

	NeighbourCells []int64
	Distances      []float64
	AltitudeDiffs  []float64
}

// ReadSpotFile loads a spot output file written by WriteSpotResult.
func ReadSpotFile(path string) (*SpotFile, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open spot file %s: %w", path, err)
	}
	defer nc.Close()

	sf := &SpotFile{
		Diagnostic: attrString(nc.Attributes(), "diagnostic"),
		Units:      attrString(nc.Attributes(), "units"),
	}
	if sf.Diagnostic == "" {
		return nil, fmt.Errorf("spot file %s has no diagnostic attribute", path)
	}

	ids, err := stringValues(nc, VarSiteID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sf.SiteIDs = ids

	for _, f := range []struct {
		name string
		dst  *[]float64
	}{
		{VarLatitude, &sf.Lats},
		{VarLongitude, &sf.Lons},
		{VarAltitude, &sf.Altitudes},
		{VarNeighbourDistance, &sf.Distances},
		{VarAltitudeDiff, &sf.AltitudeDiffs},
	} {
		vals, err := axisValues(nc, f.name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		*f.dst = vals
	}

	cellVals, err := axisValues(nc, VarNeighbourCell)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sf.NeighbourCells = make([]int64, len(cellVals))
	for i, v := range cellVals {
		sf.NeighbourCells[i] = int64(v)
	}

	sf.Times, err = timeValuesAny(nc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	vr, err := nc.GetVariable(SpotVarName(sf.Diagnostic))
	if err != nil {
		return nil, fmt.Errorf("%s: values variable: %w", path, err)
	}
	switch vals := vr.Values.(type) {
	case [][]float64:
		sf.Values = vals
	case [][]float32:
		sf.Values = make([][]float64, len(vals))
		for t, row := range vals {
			sf.Values[t] = make([]float64, len(row))
			for i, x := range row {
				sf.Values[t][i] = float64(x)
			}
		}
	default:
		return nil, fmt.Errorf("%s: unsupported values type %T", path, vr.Values)
	}

	return sf, nil
}

// SpotVarName maps a diagnostic name to a NetCDF-safe variable name.
func SpotVarName(diagnostic string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, diagnostic)
}

func stringValues(nc api.Group, name string) ([]string, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	ids, ok := v.([]string)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported type %T", name, v)
	}
	return ids, nil
}

func timeValuesAny(nc api.Group) ([]time.Time, error) {
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
	times := make([]time.Time, len(secs))
	for i, s := range secs {
		times[i] = time.Unix(s, 0).UTC()
	}
	return times, nil
}

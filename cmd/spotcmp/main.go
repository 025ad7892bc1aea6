// Command spotcmp compares a spot output file against a known-good
// reference within a numeric tolerance. It checks site structure, validity
// times, extracted values, and neighbour provenance, reporting each phase
// separately.
//
// Usage:
//
//	go run ./cmd/spotcmp -got out/air_temperature_spot.nc -want kgo/air_temperature_spot.nc
//
// Exit code 0 when the files match, 1 on any difference.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/spot-extract/internal/adapter/netcdf"
)

// phase tracks pass/fail for one comparison phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	got := flag.String("got", "", "spot file under test")
	want := flag.String("want", "", "known-good reference spot file")
	tolerance := flag.Float64("tolerance", 1e-6, "absolute tolerance for value comparison")
	flag.Parse()

	if *got == "" || *want == "" {
		flag.Usage()
		os.Exit(2)
	}

	if code := run(*got, *want, *tolerance); code != 0 {
		os.Exit(code)
	}
}

func run(gotPath, wantPath string, tolerance float64) int {
	gotFile, err := netcdf.ReadSpotFile(gotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read %s: %v\n", gotPath, err)
		return 1
	}
	wantFile, err := netcdf.ReadSpotFile(wantPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read %s: %v\n", wantPath, err)
		return 1
	}

	phases := []*phase{
		compareStructure(gotFile, wantFile),
		compareValues(gotFile, wantFile, tolerance),
		compareProvenance(gotFile, wantFile, tolerance),
	}

	allPassed := true
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		allPassed = false
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println("spot files match")
	return 0
}

func compareStructure(got, want *netcdf.SpotFile) *phase {
	p := &phase{name: "structure"}

	if got.Diagnostic != want.Diagnostic {
		p.errorf("diagnostic: got %q, want %q", got.Diagnostic, want.Diagnostic)
	}
	if got.Units != want.Units {
		p.errorf("units: got %q, want %q", got.Units, want.Units)
	}
	if len(got.SiteIDs) != len(want.SiteIDs) {
		p.errorf("site count: got %d, want %d", len(got.SiteIDs), len(want.SiteIDs))
		return p
	}
	for i := range want.SiteIDs {
		if got.SiteIDs[i] != want.SiteIDs[i] {
			p.errorf("site %d: got ID %q, want %q", i, got.SiteIDs[i], want.SiteIDs[i])
		}
	}
	if len(got.Times) != len(want.Times) {
		p.errorf("time count: got %d, want %d", len(got.Times), len(want.Times))
		return p
	}
	for t := range want.Times {
		if !got.Times[t].Equal(want.Times[t]) {
			p.errorf("time %d: got %s, want %s", t, got.Times[t], want.Times[t])
		}
	}
	return p
}

func compareValues(got, want *netcdf.SpotFile, tolerance float64) *phase {
	p := &phase{name: "values"}

	if len(got.Values) != len(want.Values) {
		p.errorf("value slices: got %d, want %d", len(got.Values), len(want.Values))
		return p
	}
	for t := range want.Values {
		if len(got.Values[t]) != len(want.Values[t]) {
			p.errorf("time %d: got %d values, want %d", t, len(got.Values[t]), len(want.Values[t]))
			continue
		}
		for i := range want.Values[t] {
			g, w := got.Values[t][i], want.Values[t][i]
			if !within(g, w, tolerance) {
				p.errorf("time %d site %d: got %g, want %g (diff %g)", t, i, g, w, math.Abs(g-w))
			}
		}
	}
	return p
}

func compareProvenance(got, want *netcdf.SpotFile, tolerance float64) *phase {
	p := &phase{name: "provenance"}

	if len(got.NeighbourCells) != len(want.NeighbourCells) {
		p.errorf("neighbour cells: got %d, want %d", len(got.NeighbourCells), len(want.NeighbourCells))
		return p
	}
	for i := range want.NeighbourCells {
		if got.NeighbourCells[i] != want.NeighbourCells[i] {
			p.errorf("site %d: got cell %d, want %d", i, got.NeighbourCells[i], want.NeighbourCells[i])
		}
		if !within(got.Distances[i], want.Distances[i], tolerance) {
			p.errorf("site %d: got distance %g, want %g", i, got.Distances[i], want.Distances[i])
		}
		if !within(got.AltitudeDiffs[i], want.AltitudeDiffs[i], tolerance) {
			p.errorf("site %d: got altitude diff %g, want %g", i, got.AltitudeDiffs[i], want.AltitudeDiffs[i])
		}
	}
	return p
}

// within reports |a-b| <= tolerance, treating NaN == NaN as a match so
// masked-out values compare equal.
func within(a, b, tolerance float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) <= tolerance
}

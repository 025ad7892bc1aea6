package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	t.Run("positionals then flags", func(t *testing.T) {
		opts, err := parseArgs([]string{
			"diags.json", "grid.nc", "out", "work",
			"--diagnostics", "air_temperature,visibility",
			"--latitudes", "51,52",
			"--longitudes", "-2,-2",
			"--altitudes", "10,20",
			"--strict", "--json",
		})
		require.NoError(t, err)

		assert.Equal(t, "diags.json", opts.diagnosticsConfig)
		assert.Equal(t, "grid.nc", opts.diagnosticFile)
		assert.Equal(t, "out", opts.outputDir)
		assert.Equal(t, "work", opts.workingDir)
		assert.Equal(t, []string{"air_temperature", "visibility"}, opts.diagnostics)
		assert.Equal(t, []float64{51, 52}, opts.latitudes)
		assert.Equal(t, []float64{-2, -2}, opts.longitudes)
		assert.Equal(t, []float64{10, 20}, opts.altitudes)
		assert.True(t, opts.strict)
		assert.True(t, opts.jsonOutput)
	})

	t.Run("working dir optional", func(t *testing.T) {
		opts, err := parseArgs([]string{
			"diags.json", "grid.nc", "out",
			"--diagnostics", "air_temperature",
			"--sites", "sites.csv",
		})
		require.NoError(t, err)
		assert.Empty(t, opts.workingDir)
		assert.Equal(t, "sites.csv", opts.sitesCSV)
	})

	t.Run("missing positionals", func(t *testing.T) {
		_, err := parseArgs([]string{"diags.json", "grid.nc"})
		assert.ErrorContains(t, err, "usage:")
	})

	t.Run("missing diagnostics flag", func(t *testing.T) {
		_, err := parseArgs([]string{
			"diags.json", "grid.nc", "out",
			"--latitudes", "51",
		})
		assert.ErrorContains(t, err, "--diagnostics is required")
	})

	t.Run("missing sites", func(t *testing.T) {
		_, err := parseArgs([]string{
			"diags.json", "grid.nc", "out",
			"--diagnostics", "air_temperature",
		})
		assert.ErrorContains(t, err, "--sites or the coordinate list")
	})

	t.Run("bad coordinate value", func(t *testing.T) {
		_, err := parseArgs([]string{
			"diags.json", "grid.nc", "out",
			"--diagnostics", "air_temperature",
			"--latitudes", "fifty-one",
		})
		assert.Error(t, err)
	})
}

func TestOutputPaths(t *testing.T) {
	o := &options{outputDir: "out/", workingDir: "work"}

	assert.Equal(t, filepath.Join("out", "air_temperature_spot.nc"),
		o.outputPath("air_temperature_spot.nc"))
	assert.Equal(t, filepath.Join("work", "air_temperature_report.json"),
		o.workingPath("air_temperature_report.json"))
}

// Command gengrid generates synthetic gridded fixtures for the spot-extract
// acceptance tests: a screen temperature field with a constant lapse-rate
// ancillary, surface altitude, and a land/sea mask on a UK-like regular
// grid. The fields are simple closed-form functions of latitude, longitude,
// and altitude, so expected spot values can be computed by hand.
//
// Usage:
//
//	go run ./cmd/gengrid -out testdata/uk_temperature.nc
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/couchcryptid/spot-extract/internal/adapter/netcdf"
)

// Standard-atmosphere temperature lapse rate, K per metre of ascent.
const lapseRate = -0.0065

var validityTime = time.Date(2026, time.March, 12, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the fixture grid file")
	ny := flag.Int("ny", 13, "latitude points")
	nx := flag.Int("nx", 9, "longitude points")
	steps := flag.Int("timesteps", 2, "number of validity times")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	lats := axis(49.0, 0.5, *ny)
	lons := axis(-6.0, 0.5, *nx)

	times := make([]time.Time, *steps)
	for i := range times {
		times[i] = validityTime.Add(time.Duration(i) * time.Hour)
	}

	n := *ny * *nx
	surfaceAltitude := make([]float64, n)
	mask := make([]bool, n)
	lapse := make([]float64, n)
	for r := range *ny {
		for c := range *nx {
			i := r**nx + c
			surfaceAltitude[i] = syntheticAltitude(lats[r], lons[c])
			// Western cells are sea, the rest land.
			mask[i] = lons[c] > -4.0
			lapse[i] = lapseRate
		}
	}

	temperature := make([][]float64, *steps)
	for t := range temperature {
		temperature[t] = make([]float64, n)
		for r := range *ny {
			for c := range *nx {
				i := r**nx + c
				temperature[t][i] = syntheticTemperature(lats[r], surfaceAltitude[i], t)
			}
		}
	}

	err := netcdf.WriteGridFile(*out, lats, lons, times,
		[]netcdf.GridVar{
			{Name: "air_temperature", Units: "K", Values: temperature, TimeVarying: true},
			{Name: "air_temperature_lapse_rate", Units: "K m-1", Values: [][]float64{lapse}},
		},
		surfaceAltitude, mask)
	if err != nil {
		return err
	}

	log.Printf("wrote %s: %dx%d grid, %d timesteps", *out, *ny, *nx, *steps)
	return nil
}

func axis(start, step float64, n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = start + float64(i)*step
	}
	return vals
}

// syntheticAltitude is a smooth positive terrain: higher inland, sea level
// in the west.
func syntheticAltitude(lat, lon float64) float64 {
	if lon <= -4.0 {
		return 0
	}
	return 120 + 80*math.Sin(lat/3) + 40*math.Cos(lon/2)
}

// syntheticTemperature applies the standard lapse rate to a sea-level
// baseline that cools northwards and per timestep.
func syntheticTemperature(lat, altitude float64, timestep int) float64 {
	seaLevel := 288.15 - 0.3*(lat-49.0) - 0.5*float64(timestep)
	return seaLevel + lapseRate*altitude
}

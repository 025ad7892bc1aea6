// Package sitetable reads ordered site tables from CSV files.
//
// Expected header: id,name,latitude,longitude,altitude. The name column may
// be empty; row order is preserved into the extraction output.
package sitetable

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/spot-extract/internal/domain"
)

// ReadFile loads a site table from a CSV file.
func ReadFile(path string) ([]domain.Site, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open site table %s: %w", path, err)
	}
	defer f.Close()

	sites, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("site table %s: %w", path, err)
	}
	return sites, nil
}

// Read parses a site table from r and validates it.
func Read(r io.Reader) ([]domain.Site, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"id", "latitude", "longitude", "altitude"} {
		if _, ok := col[required]; !ok {
			return nil, domain.Configurationf("site table missing %q column", required)
		}
	}

	var sites []domain.Site
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		site := domain.Site{ID: strings.TrimSpace(record[col["id"]])}
		if i, ok := col["name"]; ok {
			site.Name = strings.TrimSpace(record[i])
		}
		for _, f := range []struct {
			column string
			dst    *float64
		}{
			{"latitude", &site.Lat},
			{"longitude", &site.Lon},
			{"altitude", &site.Altitude},
		} {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col[f.column]]), 64)
			if err != nil {
				return nil, domain.Configurationf("line %d: bad %s %q", line, f.column, record[col[f.column]])
			}
			*f.dst = v
		}
		sites = append(sites, site)
	}

	if err := domain.ValidateSites(sites); err != nil {
		return nil, err
	}
	return sites, nil
}

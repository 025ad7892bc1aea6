package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/spot-extract/internal/domain"
)

// floatList parses comma-separated float flags like --latitudes 51,52,53.
type floatList struct {
	dst *[]float64
}

func newFloatList(dst *[]float64) *floatList {
	return &floatList{dst: dst}
}

func (f *floatList) String() string {
	if f.dst == nil || len(*f.dst) == 0 {
		return ""
	}
	parts := make([]string, len(*f.dst))
	for i, v := range *f.dst {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (f *floatList) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return fmt.Errorf("bad value %q: %w", part, err)
		}
		*f.dst = append(*f.dst, v)
	}
	return nil
}

func marshalResult(result *domain.SpotResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize spot result: %w", err)
	}
	return append(data, '\n'), nil
}

package netcdf

import "fmt"

// NetCDF variables arrive as typed nested slices; the engine works in
// float64. These conversions cover the numeric types the project's files
// actually carry (float64/float32 data, integer masks and times).

func toFloat64s(v any) ([]float64, error) {
	switch vals := v.(type) {
	case []float64:
		return vals, nil
	case []float32:
		out := make([]float64, len(vals))
		for i, x := range vals {
			out[i] = float64(x)
		}
		return out, nil
	case []int64:
		out := make([]float64, len(vals))
		for i, x := range vals {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(vals))
		for i, x := range vals {
			out[i] = float64(x)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(vals))
		for i, x := range vals {
			out[i] = float64(x)
		}
		return out, nil
	case []int8:
		out := make([]float64, len(vals))
		for i, x := range vals {
			out[i] = float64(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported 1-D value type %T", v)
	}
}

// toFloat64s2D flattens a [ny][nx] variable row-major.
func toFloat64s2D(v any) ([]float64, int, int, error) {
	switch vals := v.(type) {
	case [][]float64:
		return flatten(vals), len(vals), innerLen(vals), nil
	case [][]float32:
		return flatten(vals), len(vals), innerLen(vals), nil
	case [][]int32:
		return flatten(vals), len(vals), innerLen(vals), nil
	case [][]int16:
		return flatten(vals), len(vals), innerLen(vals), nil
	case [][]int8:
		return flatten(vals), len(vals), innerLen(vals), nil
	default:
		return nil, 0, 0, fmt.Errorf("unsupported 2-D value type %T", v)
	}
}

// toFloat64s3D flattens a [t][ny][nx] variable into per-time row-major
// slices.
func toFloat64s3D(v any) ([][]float64, int, int, error) {
	switch vals := v.(type) {
	case [][][]float64:
		return flattenSlices(vals)
	case [][][]float32:
		return flattenSlices(vals)
	case [][][]int32:
		return flattenSlices(vals)
	case [][][]int16:
		return flattenSlices(vals)
	default:
		return nil, 0, 0, fmt.Errorf("unsupported 3-D value type %T", v)
	}
}

func toInt64s(v any) ([]int64, error) {
	switch vals := v.(type) {
	case []int64:
		return vals, nil
	case []int32:
		out := make([]int64, len(vals))
		for i, x := range vals {
			out[i] = int64(x)
		}
		return out, nil
	case []float64:
		out := make([]int64, len(vals))
		for i, x := range vals {
			out[i] = int64(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported time value type %T", v)
	}
}

type number interface {
	~float64 | ~float32 | ~int64 | ~int32 | ~int16 | ~int8
}

func flatten[T number](rows [][]T) []float64 {
	out := make([]float64, 0, len(rows)*innerLen(rows))
	for _, row := range rows {
		for _, x := range row {
			out = append(out, float64(x))
		}
	}
	return out
}

func flattenSlices[T number](cube [][][]T) ([][]float64, int, int, error) {
	out := make([][]float64, len(cube))
	ny, nx := 0, 0
	for t, plane := range cube {
		out[t] = flatten(plane)
		if t == 0 {
			ny, nx = len(plane), innerLen(plane)
		}
	}
	return out, ny, nx, nil
}

func innerLen[T any](rows [][]T) int {
	if len(rows) == 0 {
		return 0
	}
	return len(rows[0])
}

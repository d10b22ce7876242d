package frame

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Reducer folds the values of one column within one group. Returning false
// drops the column from the aggregated result.
type Reducer interface {
	Name() string
	Reduce(values []any) (any, bool)
}

type numericReducer struct {
	name  string
	fn    func([]float64) float64
	empty float64
}

// NumericReducer applies fn to the numeric values of a group. Nil values are
// skipped; a column holding any non-numeric value is dropped.
func NumericReducer(name string, fn func([]float64) float64) Reducer {
	return numericReducer{name: name, fn: fn, empty: math.NaN()}
}

func (r numericReducer) Name() string { return r.name }

func (r numericReducer) Reduce(values []any) (any, bool) {
	xs, ok := Floats(values)
	if !ok {
		return nil, false
	}
	if len(xs) == 0 {
		return r.empty, true
	}
	return r.fn(xs), true
}

type funcReducer struct {
	name string
	fn   func([]any) (any, bool)
}

// ReduceFunc wraps a caller-supplied group function that sees raw values.
func ReduceFunc(name string, fn func(values []any) (any, bool)) Reducer {
	return funcReducer{name: name, fn: fn}
}

func (r funcReducer) Name() string                    { return r.name }
func (r funcReducer) Reduce(values []any) (any, bool) { return r.fn(values) }

var (
	Sum    Reducer = numericReducer{name: "sum", fn: floats.Sum}
	Mean           = NumericReducer("mean", func(x []float64) float64 { return stat.Mean(x, nil) })
	Min            = NumericReducer("min", floats.Min)
	Max            = NumericReducer("max", floats.Max)
	Median         = NumericReducer("median", median)
	StdDev         = NumericReducer("std", func(x []float64) float64 { return stat.StdDev(x, nil) })
	Count          = ReduceFunc("count", func(values []any) (any, bool) {
		n := 0
		for _, v := range values {
			if v != nil {
				n++
			}
		}
		return n, true
	})
)

// ReducerByName resolves the built-in reducers by their names.
func ReducerByName(name string) (Reducer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sum":
		return Sum, nil
	case "mean", "avg":
		return Mean, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	case "median":
		return Median, nil
	case "std", "stddev":
		return StdDev, nil
	case "count":
		return Count, nil
	default:
		return nil, fmt.Errorf("unknown reducer %q (want sum|mean|min|max|median|std|count)", name)
	}
}

func median(x []float64) float64 {
	s := slices.Clone(x)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Floats converts numeric values to float64, skipping nils. It reports false
// when any value is not numeric.
func Floats(values []any) ([]float64, bool) {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		f, ok := Float(v)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

// Float converts a single numeric value to float64.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

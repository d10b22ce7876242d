package ingest

import (
	"fmt"
	"math"
	"sort"

	"github.com/mohammed-shakir/h3-frame/pkg/frame"
	"github.com/mohammed-shakir/h3-frame/pkg/h3frame"
)

const countColumn = "count"

// Aggregate groups events by their cell at res. Count is the number of events
// per cell; every value name is folded with r. Messages come out in ascending
// cell order.
func Aggregate(events []PointEvent, res int, r frame.Reducer) ([]CellMessage, error) {
	if len(events) == 0 {
		return nil, nil
	}
	names := valueNames(events)

	lat := make([]any, len(events))
	lng := make([]any, len(events))
	ones := make([]any, len(events))
	vals := make([][]any, len(names))
	for j := range names {
		vals[j] = make([]any, len(events))
	}
	for i, ev := range events {
		lat[i], lng[i], ones[i] = *ev.Lat, *ev.Lng, 1
		for j, n := range names {
			if v, ok := ev.Values[n]; ok {
				vals[j][i] = v
			}
		}
	}

	cols := []frame.Column{{Name: "lat", Values: lat}, {Name: "lng", Values: lng}}
	counts, err := frame.New(append(cols, frame.Column{Name: countColumn, Values: ones})...)
	if err != nil {
		return nil, err
	}
	for j, n := range names {
		cols = append(cols, frame.Column{Name: n, Values: vals[j]})
	}
	values, err := frame.New(cols...)
	if err != nil {
		return nil, err
	}

	byCount, err := h3frame.Of(counts).GeoToCellAggregate(res, frame.Count)
	if err != nil {
		return nil, fmt.Errorf("count by cell: %w", err)
	}
	byValue, err := h3frame.Of(values).GeoToCellAggregate(res, r)
	if err != nil {
		return nil, fmt.Errorf("aggregate by cell: %w", err)
	}

	cells := byCount.Index().Strings()
	out := make([]CellMessage, len(cells))
	for i, c := range cells {
		out[i] = CellMessage{Cell: c, Res: res, Count: byCount.Value(i, countColumn).(int)}
		for _, n := range byValue.Columns() {
			f, ok := frame.Float(byValue.Value(i, n))
			if !ok || math.IsNaN(f) {
				continue
			}
			if out[i].Values == nil {
				out[i].Values = map[string]float64{}
			}
			out[i].Values[n] = f
		}
	}
	return out, nil
}

func valueNames(events []PointEvent) []string {
	seen := map[string]bool{}
	var names []string
	for _, ev := range events {
		for k := range ev.Values {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	return names
}

package h3frame

import (
	"sort"
	"testing"

	"github.com/ctessum/geom"

	"github.com/mohammed-shakir/h3-frame/pkg/frame"
)

// lat/lng pairs shared by the accessor tests.
func basicTable(t *testing.T) *frame.Table {
	t.Helper()
	tb, err := frame.New(
		frame.Column{Name: "lat", Values: []any{50.0, 51.0}},
		frame.Column{Name: "lng", Values: []any{14.0, 15.0}},
	)
	if err != nil {
		t.Fatalf("frame.New: %v", err)
	}
	return tb
}

func indexedTable(t *testing.T) *frame.Table {
	t.Helper()
	tb, err := frame.NewIndexed(frame.StringIndex("h3_09", "891e3097383ffff", "891e2659c2fffff"),
		frame.Column{Name: "lat", Values: []any{50.0, 51.0}},
		frame.Column{Name: "lng", Values: []any{14.0, 15.0}},
	)
	if err != nil {
		t.Fatalf("frame.NewIndexed: %v", err)
	}
	return tb
}

func valuesTable(t *testing.T) *frame.Table {
	t.Helper()
	tb, err := frame.NewIndexed(frame.StringIndex("", "891f1d48177ffff", "891f1d48167ffff", "891f1d4810fffff"),
		frame.Column{Name: "val", Values: []any{1, 2, 5}},
	)
	if err != nil {
		t.Fatalf("frame.NewIndexed: %v", err)
	}
	return tb
}

func hexGeoTable(t *testing.T) *frame.GeoTable {
	t.Helper()
	g, err := Of(valuesTable(t)).BoundaryFromCell()
	if err != nil {
		t.Fatalf("BoundaryFromCell: %v", err)
	}
	return g
}

func geoTable(t *testing.T, geoms ...geom.Geom) *frame.GeoTable {
	t.Helper()
	tb, err := frame.NewIndexed(frame.RangeIndex(len(geoms)))
	if err != nil {
		t.Fatalf("frame.NewIndexed: %v", err)
	}
	g, err := frame.NewGeo(tb, "", geoms, frame.WGS84())
	if err != nil {
		t.Fatalf("NewGeo: %v", err)
	}
	return g
}

func box(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}}
}

func column(t *testing.T, tb *frame.Table, name string) []any {
	t.Helper()
	v, err := tb.Column(name)
	if err != nil {
		t.Fatalf("column %q: %v", name, err)
	}
	return v
}

func strs(vals []any) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i], _ = v.(string)
	}
	return out
}

func sortedSet(vals []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, v := range vals {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

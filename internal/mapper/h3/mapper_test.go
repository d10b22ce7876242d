package h3mapper

import (
	"errors"
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/ctessum/geom"
	h3 "github.com/uber/h3-go/v4"
)

func TestCellForLatLng_KnownValues(t *testing.T) {
	m := New()
	cases := []struct {
		lat, lng float64
		res      int
		want     string
	}{
		{50, 14, 9, "891e3097383ffff"},
		{51, 15, 9, "891e2659c2fffff"},
		{50, 14, 1, "811e3ffffffffff"},
	}
	for _, c := range cases {
		got, err := m.CellForLatLng(c.lat, c.lng, c.res)
		if err != nil {
			t.Fatalf("CellForLatLng(%v,%v,%d): %v", c.lat, c.lng, c.res, err)
		}
		if got != c.want {
			t.Fatalf("CellForLatLng(%v,%v,%d)=%s want %s", c.lat, c.lng, c.res, got, c.want)
		}
	}
}

func TestCellForLatLng_InvalidInputs(t *testing.T) {
	m := New()
	for _, c := range []struct{ lat, lng float64 }{
		{200, 14},
		{-90.5, 0},
		{math.NaN(), 0},
		{0, math.Inf(1)},
	} {
		if _, err := m.CellForLatLng(c.lat, c.lng, 9); !errors.Is(err, ErrInvalidCoordinate) {
			t.Fatalf("(%v,%v): want ErrInvalidCoordinate, got %v", c.lat, c.lng, err)
		}
	}
	if _, err := m.CellForLatLng(50, 14, 16); !errors.Is(err, ErrInvalidResolution) {
		t.Fatalf("want ErrInvalidResolution, got %v", err)
	}
}

func TestParseCell_Forms(t *testing.T) {
	want, _ := h3.LatLngToCell(h3.LatLng{Lat: 50, Lng: 14}, 9)
	for _, v := range []any{"891e3097383ffff", want, int64(want), uint64(want)} {
		got, err := ParseCell(v)
		if err != nil {
			t.Fatalf("ParseCell(%T): %v", v, err)
		}
		if got != want {
			t.Fatalf("ParseCell(%T)=%s want %s", v, got, want)
		}
	}
	for _, v := range []any{"invalid", "", 3.5, nil} {
		if _, err := ParseCell(v); !errors.Is(err, ErrInvalidCell) {
			t.Fatalf("ParseCell(%v): want ErrInvalidCell, got %v", v, err)
		}
	}
}

func TestBoundary_ClosedRingContainsCenter(t *testing.T) {
	m := New()
	poly, err := m.Boundary("891e3097383ffff")
	if err != nil {
		t.Fatalf("Boundary: %v", err)
	}
	ring := poly[0]
	if len(ring) != 7 {
		t.Fatalf("ring has %d points want 7 (6 vertices + closing)", len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		t.Fatalf("ring must be closed")
	}
	// lng/lat order: x around 14, y around 50
	if math.Abs(ring[0].X-14) > 0.01 || math.Abs(ring[0].Y-50) > 0.01 {
		t.Fatalf("unexpected vertex order: %+v", ring[0])
	}
	c, err := m.Center("891e3097383ffff")
	if err != nil {
		t.Fatalf("Center: %v", err)
	}
	if c.Within(poly) != geom.Inside {
		t.Fatalf("center %+v not inside boundary", c)
	}
}

func TestPolygon_FillSortedUniqueDeterministic(t *testing.T) {
	m := New()
	poly := geom.Polygon{{
		{X: 18.00, Y: 59.32}, {X: 18.12, Y: 59.32}, {X: 18.12, Y: 59.38}, {X: 18.00, Y: 59.38}, {X: 18.00, Y: 59.32},
	}}
	res := 9
	cp, err := m.CellsForPolygon(poly, res)
	if err != nil {
		t.Fatalf("polygon: %v", err)
	}
	if len(cp) == 0 {
		t.Fatalf("expected non-empty polygon coverage")
	}
	if !sort.StringsAreSorted([]string(cp)) || hasDups(cp) {
		t.Fatalf("polygon cells must be sorted + unique")
	}
	cp2, err := m.CellsForPolygon(poly, res)
	if err != nil {
		t.Fatalf("polygon second call: %v", err)
	}
	if !reflect.DeepEqual(cp, cp2) {
		t.Fatalf("expected identical output for identical input")
	}
}

func TestPolygon_HoleSwallowsCoarseCell(t *testing.T) {
	m := New()
	outer := geom.Path{{X: 18, Y: 48}, {X: 18, Y: 49}, {X: 19, Y: 49}, {X: 19, Y: 48}}
	got, err := m.CellsForPolygon(geom.Polygon{outer}, 1)
	if err != nil {
		t.Fatalf("CellsForPolygon: %v", err)
	}
	if !reflect.DeepEqual([]string(got), []string{"811e3ffffffffff"}) {
		t.Fatalf("got %v want [811e3ffffffffff]", got)
	}

	hole := geom.Path{{X: 18.2, Y: 48.4}, {X: 18.6, Y: 48.4}, {X: 18.6, Y: 48.8}, {X: 18.2, Y: 48.8}}
	got, err = m.CellsForPolygon(geom.Polygon{outer, hole}, 1)
	if err != nil {
		t.Fatalf("CellsForPolygon with hole: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v want no cells", got)
	}

	other := geom.Path{{X: 11, Y: 54}, {X: 11, Y: 56}, {X: 12, Y: 56}, {X: 12, Y: 54}}
	multi, err := m.CellsForMultiPolygon(geom.MultiPolygon{{outer}, {other}}, 1)
	if err != nil {
		t.Fatalf("CellsForMultiPolygon: %v", err)
	}
	if !reflect.DeepEqual([]string(multi), []string{"811e3ffffffffff", "811f3ffffffffff"}) {
		t.Fatalf("multi=%v", multi)
	}
}

func TestPolygon_Degenerate(t *testing.T) {
	m := New()
	if _, err := m.CellsForPolygon(geom.Polygon{{{X: 1, Y: 1}, {X: 2, Y: 2}}}, 8); err == nil {
		t.Fatalf("expected error for degenerate polygon")
	}
	if _, err := m.CellsForPolygon(geom.Polygon{{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 2, Y: 1}}}, -1); err == nil {
		t.Fatalf("expected error for res=-1")
	}
	got, err := m.CellsForPolygon(nil, 8)
	if err != nil || len(got) != 0 {
		t.Fatalf("empty polygon: %v %v", got, err)
	}
}

func hasDups(s []string) bool {
	seen := map[string]struct{}{}
	for _, v := range s {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}

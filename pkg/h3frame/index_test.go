package h3frame

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/rs/zerolog"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/h3-frame/pkg/frame"
)

func TestIndexFromPoint_SetsIndex(t *testing.T) {
	in := basicTable(t)
	out, err := Of(in).IndexFromPoint(9)
	if err != nil {
		t.Fatalf("IndexFromPoint: %v", err)
	}
	ix := out.Index()
	if ix.Name != "h3_09" {
		t.Fatalf("index name=%q want h3_09", ix.Name)
	}
	want := []string{"891e3097383ffff", "891e2659c2fffff"}
	if !reflect.DeepEqual(ix.Strings(), want) {
		t.Fatalf("index=%v want %v", ix.Strings(), want)
	}
	if !reflect.DeepEqual(out.Columns(), []string{"lat", "lng"}) {
		t.Fatalf("columns=%v", out.Columns())
	}
	if in.Index().Name != "" || in.Has("h3_09") {
		t.Fatalf("receiver was modified")
	}
}

func TestIndexFromPoint_KeepColumnAndOptions(t *testing.T) {
	tb, _ := frame.New(
		frame.Column{Name: "y", Values: []any{"50", 51}},
		frame.Column{Name: "x", Values: []any{int64(14), float32(15)}},
	)
	_, err := Of(tb).IndexFromPoint(9)
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("want ErrUnknownColumn for default lat/lng, got %v", err)
	}

	out, err := Of(tb, LatLng("y", "x"), KeepColumn(), Output("cell")).IndexFromPoint(9)
	if !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("string latitude: want ErrInvalidCoordinate, got %v (out=%v)", err, out)
	}

	tb, _ = frame.New(
		frame.Column{Name: "y", Values: []any{50, 51}},
		frame.Column{Name: "x", Values: []any{int64(14), float32(15)}},
	)
	out, err = Of(tb, LatLng("y", "x"), KeepColumn(), Output("cell")).IndexFromPoint(9)
	if err != nil {
		t.Fatalf("IndexFromPoint: %v", err)
	}
	if out.Index().Name != "" {
		t.Fatalf("index should stay a range index, got %q", out.Index().Name)
	}
	got := strs(column(t, out, "cell"))
	if !reflect.DeepEqual(got, []string{"891e3097383ffff", "891e2659c2fffff"}) {
		t.Fatalf("cell column=%v", got)
	}
}

func TestIndexFromPoint_InvalidCoordinateNoOutput(t *testing.T) {
	tb, _ := frame.New(
		frame.Column{Name: "lat", Values: []any{50.0, 200.0}},
		frame.Column{Name: "lng", Values: []any{14.0, 14.0}},
	)
	out, err := Of(tb).IndexFromPoint(9)
	if !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("want ErrInvalidCoordinate, got %v", err)
	}
	if out != nil {
		t.Fatalf("expected no output table on failure, got %d rows", out.Len())
	}
	if !strings.Contains(err.Error(), "row 1") {
		t.Fatalf("error should name the failing row: %v", err)
	}
	if _, err := Of(basicTable(t)).IndexFromPoint(16); !errors.Is(err, ErrInvalidResolution) {
		t.Fatalf("want ErrInvalidResolution, got %v", err)
	}
}

func TestIndexFromPoint_GeoTableUsesPoints(t *testing.T) {
	g := geoTable(t, geom.Point{X: 14, Y: 50}, geom.Point{X: 15, Y: 51})
	out, err := Of(g).IndexFromPoint(9)
	if err != nil {
		t.Fatalf("IndexFromPoint: %v", err)
	}
	if !reflect.DeepEqual(out.Data().Index().Strings(), []string{"891e3097383ffff", "891e2659c2fffff"}) {
		t.Fatalf("index=%v", out.Data().Index().Strings())
	}
	if out.Len() != 2 || out.Geom(0) != (geom.Point{X: 14, Y: 50}) {
		t.Fatalf("geometry not preserved: %v", out.Geometry())
	}

	poly := geoTable(t, box(0, 0, 1, 1))
	if _, err := Of(poly).IndexFromPoint(9); !errors.Is(err, ErrUnsupportedGeometry) {
		t.Fatalf("want ErrUnsupportedGeometry, got %v", err)
	}
}

func TestBoundaryFromCell_ContainsIndexedPoint(t *testing.T) {
	points := []struct{ lat, lng float64 }{
		{50, 14},
		{-33.9249, 18.4241},
		{40.7128, -74.0060},
		{59.3293, 18.0686},
	}
	for res := 0; res <= 15; res++ {
		// the boundary joins vertices with planar edges while cells are
		// bounded by great-circle arcs; the gap matters only at coarse
		// resolutions and shrinks about sevenfold per level
		tol := 2 / math.Pow(7, float64(res))
		for _, p := range points {
			tb, _ := frame.New(
				frame.Column{Name: "lat", Values: []any{p.lat}},
				frame.Column{Name: "lng", Values: []any{p.lng}},
			)
			indexed, err := Of(tb).IndexFromPoint(res)
			if err != nil {
				t.Fatalf("IndexFromPoint(%d): %v", res, err)
			}
			g, err := Of(indexed).BoundaryFromCell()
			if err != nil {
				t.Fatalf("BoundaryFromCell: %v", err)
			}
			poly := g.Geom(0).(geom.Polygon)
			pt := geom.Point{X: p.lng, Y: p.lat}
			if pt.Within(poly) == geom.Outside && ringDistance(pt, poly[0]) > tol {
				t.Fatalf("res %d: point %+v outside its cell boundary", res, p)
			}
		}
	}
}

func ringDistance(p geom.Point, ring geom.Path) float64 {
	best := math.Inf(1)
	for i := 0; i+1 < len(ring); i++ {
		a, b := ring[i], ring[i+1]
		dx, dy := b.X-a.X, b.Y-a.Y
		u := 0.0
		if l := dx*dx + dy*dy; l > 0 {
			u = math.Max(0, math.Min(1, ((p.X-a.X)*dx+(p.Y-a.Y)*dy)/l))
		}
		best = math.Min(best, math.Hypot(p.X-a.X-u*dx, p.Y-a.Y-u*dy))
	}
	return best
}

func TestBoundaryFromCell_MixedResolutions(t *testing.T) {
	cells := []string{"8009fffffffffff"}
	for _, res := range []int{0, 5, 9, 15} {
		c, err := h3.LatLngToCell(h3.NewLatLng(50, 14), res)
		if err != nil {
			t.Fatalf("LatLngToCell(%d): %v", res, err)
		}
		cells = append(cells, c.String())
	}
	tb, err := frame.NewIndexed(frame.StringIndex("cell", cells...),
		frame.Column{Name: "n", Values: []any{0, 1, 2, 3, 4}},
	)
	if err != nil {
		t.Fatalf("frame.NewIndexed: %v", err)
	}
	g, err := Of(tb).BoundaryFromCell()
	if err != nil {
		t.Fatalf("BoundaryFromCell: %v", err)
	}
	if g.Len() != len(cells) {
		t.Fatalf("rows=%d want %d", g.Len(), len(cells))
	}
	for i, s := range cells {
		c := h3.Cell(h3.IndexFromString(s))
		want, err := h3.CellToBoundary(c)
		if err != nil {
			t.Fatalf("CellToBoundary(%s): %v", s, err)
		}
		ring := g.Geom(i).(geom.Polygon)[0]
		if len(ring) != len(want)+1 || ring[0] != ring[len(ring)-1] {
			t.Fatalf("%s (res %d): ring of %d points for %d vertices", s, c.Resolution(), len(ring), len(want))
		}
		for j, ll := range want {
			if ring[j] != (geom.Point{X: ll.Lng, Y: ll.Lat}) {
				t.Fatalf("%s vertex %d=%v want %v", s, j, ring[j], ll)
			}
		}
		if g.Data().Value(i, "n") != i {
			t.Fatalf("row %d out of order", i)
		}
	}
	if !h3.Cell(h3.IndexFromString(cells[0])).IsPentagon() {
		t.Fatalf("%s should be a pentagon", cells[0])
	}
}

func TestBoundaryFromCell_GeoTableAndIdempotence(t *testing.T) {
	in := indexedTable(t)
	a, err := Of(in).BoundaryFromCell()
	if err != nil {
		t.Fatalf("BoundaryFromCell: %v", err)
	}
	b, _ := Of(in).BoundaryFromCell()
	if !reflect.DeepEqual(a.Geometry(), b.Geometry()) {
		t.Fatalf("boundaries differ between calls")
	}
	if a.CRS() != frame.WGS84() || a.GeometryName() != "geometry" {
		t.Fatalf("crs=%v name=%q", a.CRS(), a.GeometryName())
	}
	if a.Data().Index().Name != "h3_09" || !reflect.DeepEqual(a.Data().Columns(), []string{"lat", "lng"}) {
		t.Fatalf("data not carried over: %v %v", a.Data().Index(), a.Data().Columns())
	}
	ring := a.Geom(0).(geom.Polygon)[0]
	if len(ring) != 7 || ring[0] != ring[6] {
		t.Fatalf("expected closed hexagon ring, got %v", ring)
	}
	// first vertex of 891e3097383ffff
	if d := ring[0].X - 13.997875502962215; d > 1e-6 || d < -1e-6 {
		t.Fatalf("vertex[0].X=%v", ring[0].X)
	}

	named, err := Of(in, GeometryName("hex")).BoundaryFromCell()
	if err != nil || named.GeometryName() != "hex" {
		t.Fatalf("GeometryName option ignored: %v %v", named, err)
	}
}

func TestBoundaryFromCell_InvalidCell(t *testing.T) {
	tb, _ := frame.NewIndexed(frame.StringIndex("h3_09", "891e3097383ffff", "invalid"))
	if _, err := Of(tb).BoundaryFromCell(); !errors.Is(err, ErrInvalidCell) {
		t.Fatalf("want ErrInvalidCell, got %v", err)
	}
}

func TestCenterFromCell_RoundTripWithinCell(t *testing.T) {
	for res := 0; res <= 15; res += 3 {
		tb := basicTable(t)
		indexed, err := Of(tb).IndexFromPoint(res)
		if err != nil {
			t.Fatalf("IndexFromPoint: %v", err)
		}
		centers, err := Of(indexed).CenterFromCell()
		if err != nil {
			t.Fatalf("CenterFromCell: %v", err)
		}
		bounds, _ := Of(indexed).BoundaryFromCell()
		for i := 0; i < centers.Len(); i++ {
			c := centers.Geom(i).(geom.Point)
			center := h3.LatLng{Lat: c.Y, Lng: c.X}
			var radius float64
			for _, v := range bounds.Geom(i).(geom.Polygon)[0] {
				if d := h3.GreatCircleDistanceKm(center, h3.LatLng{Lat: v.Y, Lng: v.X}); d > radius {
					radius = d
				}
			}
			lat, _ := frame.Float(tb.Value(i, "lat"))
			lng, _ := frame.Float(tb.Value(i, "lng"))
			if d := h3.GreatCircleDistanceKm(center, h3.LatLng{Lat: lat, Lng: lng}); d > radius {
				t.Fatalf("res %d row %d: center %.3f km from input, cell radius %.3f km", res, i, d, radius)
			}
		}
	}
}

func TestAccessor_LogsOperations(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).Level(zerolog.DebugLevel)
	if _, err := Of(indexedTable(t), WithLogger(l)).Resolution(); err != nil {
		t.Fatalf("Resolution: %v", err)
	}
	if !strings.Contains(buf.String(), `"op":"resolution"`) {
		t.Fatalf("expected a debug line for the operation, got %q", buf.String())
	}
}

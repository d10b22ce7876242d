package h3mapper

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/geom"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/h3-frame/internal/model"
)

var (
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrInvalidCell        = errors.New("invalid h3 cell")
	ErrInvalidResolution  = errors.New("invalid h3 resolution")
	ErrResolutionMismatch = errors.New("resolution mismatch")
	ErrInvalidArgument    = errors.New("invalid argument")
	// ErrUnsupportedGeometry covers geometry kinds and shapes the grid
	// cannot cover, such as rings with fewer than three vertices.
	ErrUnsupportedGeometry = errors.New("unsupported geometry")
)

type Mapper struct{}

func New() *Mapper { return &Mapper{} }

// ParseCell accepts a hex token, an h3.Cell or its integer form.
func ParseCell(v any) (h3.Cell, error) {
	var c h3.Cell
	switch t := v.(type) {
	case string:
		if err := c.UnmarshalText([]byte(t)); err != nil {
			return 0, fmt.Errorf("%w %q: %v", ErrInvalidCell, t, err)
		}
	case h3.Cell:
		c = t
	case int64:
		c = h3.Cell(t)
	case uint64:
		c = h3.Cell(t)
	default:
		return 0, fmt.Errorf("%w: value of type %T", ErrInvalidCell, v)
	}
	if !c.IsValid() {
		return 0, fmt.Errorf("%w %q", ErrInvalidCell, c.String())
	}
	return c, nil
}

// ValidateRes checks the 0..15 resolution range.
func ValidateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("%w %d (must be 0..15)", ErrInvalidResolution, res)
	}
	return nil
}

// ValidateLatLng rejects non-finite values and latitudes outside [-90,90].
func ValidateLatLng(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return fmt.Errorf("%w: non-finite lat/lng (%v, %v)", ErrInvalidCoordinate, lat, lng)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90,90]", ErrInvalidCoordinate, lat)
	}
	return nil
}

func (m *Mapper) CellForLatLng(lat, lng float64, res int) (string, error) {
	if err := ValidateRes(res); err != nil {
		return "", err
	}
	if err := ValidateLatLng(lat, lng); err != nil {
		return "", err
	}
	c, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lng}, res)
	if err != nil {
		return "", fmt.Errorf("%w: h3 index (%v, %v): %v", ErrInvalidCoordinate, lat, lng, err)
	}
	return c.String(), nil
}

// Boundary returns the cell outline as a closed ring in lng/lat order.
func (m *Mapper) Boundary(cell any) (geom.Polygon, error) {
	c, err := ParseCell(cell)
	if err != nil {
		return nil, err
	}
	b, err := h3.CellToBoundary(c)
	if err != nil {
		return nil, fmt.Errorf("h3 boundary %s: %w", c, err)
	}
	ring := make(geom.Path, 0, len(b)+1)
	for _, ll := range b {
		ring = append(ring, geom.Point{X: ll.Lng, Y: ll.Lat})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return geom.Polygon{ring}, nil
}

// Center returns the cell center as a lng/lat point.
func (m *Mapper) Center(cell any) (geom.Point, error) {
	c, err := ParseCell(cell)
	if err != nil {
		return geom.Point{}, err
	}
	ll, err := h3.CellToLatLng(c)
	if err != nil {
		return geom.Point{}, fmt.Errorf("h3 center %s: %w", c, err)
	}
	return geom.Point{X: ll.Lng, Y: ll.Lat}, nil
}

func (m *Mapper) CellsForPolygon(poly geom.Polygon, res int) (model.Cells, error) {
	if err := ValidateRes(res); err != nil {
		return nil, err
	}
	if len(poly) == 0 {
		return model.Cells{}, nil
	}
	outer := toLoop(poly[0])
	if len(outer) < 3 {
		return nil, fmt.Errorf("%w: outer ring has < 3 distinct vertices", ErrUnsupportedGeometry)
	}
	var holes []h3.GeoLoop
	for i := 1; i < len(poly); i++ {
		h := toLoop(poly[i])
		if len(h) < 3 {
			return nil, fmt.Errorf("%w: hole %d has < 3 distinct vertices", ErrUnsupportedGeometry, i-1)
		}
		holes = append(holes, h)
	}
	return polyfillOne(outer, holes, res)
}

func (m *Mapper) CellsForMultiPolygon(mp geom.MultiPolygon, res int) (model.Cells, error) {
	seen := make(map[string]struct{})
	var out []string
	for pi, p := range mp {
		cells, err := m.CellsForPolygon(p, res)
		if err != nil {
			return nil, fmt.Errorf("polygon %d: %w", pi, err)
		}
		for _, c := range cells {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// --- helpers ---

// Convert a lng/lat ring to an h3.GeoLoop.
// If the ring is explicitly closed (last == first), drop the trailing duplicate.
func toLoop(ring geom.Path) h3.GeoLoop {
	loop := make(h3.GeoLoop, 0, len(ring))
	for _, p := range ring {
		loop = append(loop, h3.LatLng{Lat: p.Y, Lng: p.X})
	}
	if len(loop) >= 2 {
		last := loop[len(loop)-1]
		first := loop[0]
		if last.Lat == first.Lat && last.Lng == first.Lng {
			loop = loop[:len(loop)-1]
		}
	}
	return loop
}

// polyfillOne computes unique cells and returns them sorted for determinism.
func polyfillOne(outer h3.GeoLoop, holes []h3.GeoLoop, res int) (model.Cells, error) {
	poly := h3.GeoPolygon{
		GeoLoop: outer,
		Holes:   holes,
	}

	indexes, err := h3.PolygonToCells(poly, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}

	out := make([]string, 0, len(indexes))
	seen := make(map[string]struct{}, len(indexes))
	for _, idx := range indexes {
		s := idx.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

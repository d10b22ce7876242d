package h3mapper

import (
	"fmt"
	"sort"

	"github.com/ctessum/geom"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/h3-frame/internal/model"
)

// Disk returns every cell within grid distance k of the origin, the origin
// included at distance 0, ordered by distance and then by token.
func (m *Mapper) Disk(cell any, k int) ([]model.Neighbor, error) {
	if k < 0 {
		return nil, fmt.Errorf("%w: k must be >= 0 (got %d)", ErrInvalidArgument, k)
	}
	c, err := ParseCell(cell)
	if err != nil {
		return nil, err
	}
	rings, err := h3.GridDiskDistances(c, k)
	if err != nil {
		return nil, fmt.Errorf("h3 grid disk: %w", err)
	}
	var out []model.Neighbor
	for d, ring := range rings {
		cells := make([]string, 0, len(ring))
		for _, rc := range ring {
			if rc == 0 {
				continue
			}
			cells = append(cells, rc.String())
		}
		sort.Strings(cells)
		for _, s := range cells {
			out = append(out, model.Neighbor{Cell: s, Distance: d})
		}
	}
	return out, nil
}

// Ring returns the cells at exactly grid distance k, sorted.
func (m *Mapper) Ring(cell any, k int) (model.Cells, error) {
	disk, err := m.Disk(cell, k)
	if err != nil {
		return nil, err
	}
	out := model.Cells{}
	for _, n := range disk {
		if n.Distance == k {
			out = append(out, n.Cell)
		}
	}
	return out, nil
}

func (m *Mapper) Area(cell any, unit model.AreaUnit) (float64, error) {
	c, err := ParseCell(cell)
	if err != nil {
		return 0, err
	}
	var a float64
	switch unit {
	case model.Km2, "":
		a, err = h3.CellAreaKm2(c)
	case model.M2:
		a, err = h3.CellAreaM2(c)
	case model.Rads2:
		a, err = h3.CellAreaRads2(c)
	default:
		return 0, fmt.Errorf("%w: unknown area unit %q (want km^2|m^2|rads^2)", ErrInvalidArgument, unit)
	}
	if err != nil {
		return 0, fmt.Errorf("h3 cell area: %w", err)
	}
	return a, nil
}

// Distance is the great-circle distance between two cell centers.
func (m *Mapper) Distance(a, b any, unit model.LengthUnit) (float64, error) {
	pa, err := m.Center(a)
	if err != nil {
		return 0, err
	}
	pb, err := m.Center(b)
	if err != nil {
		return 0, err
	}
	la := h3.LatLng{Lat: pa.Y, Lng: pa.X}
	lb := h3.LatLng{Lat: pb.Y, Lng: pb.X}
	switch unit {
	case model.Km, "":
		return h3.GreatCircleDistanceKm(la, lb), nil
	case model.M:
		return h3.GreatCircleDistanceM(la, lb), nil
	case model.Rads:
		return h3.GreatCircleDistanceRads(la, lb), nil
	default:
		return 0, fmt.Errorf("%w: unknown length unit %q (want km|m|rads)", ErrInvalidArgument, unit)
	}
}

// GridDistance counts grid steps between two cells of the same resolution.
func (m *Mapper) GridDistance(a, b any) (int, error) {
	ca, err := ParseCell(a)
	if err != nil {
		return 0, err
	}
	cb, err := ParseCell(b)
	if err != nil {
		return 0, err
	}
	if ca.Resolution() != cb.Resolution() {
		return 0, fmt.Errorf("%w: grid distance between resolutions %d and %d",
			ErrResolutionMismatch, ca.Resolution(), cb.Resolution())
	}
	d, err := h3.GridDistance(ca, cb)
	if err != nil {
		return 0, fmt.Errorf("h3 grid distance: %w", err)
	}
	return d, nil
}

// Linetrace follows a line vertex to vertex with grid paths. Consecutive
// duplicates are collapsed; a cell may reappear later where the line crosses
// itself.
func (m *Mapper) Linetrace(line geom.LineString, res int) (model.Cells, error) {
	if err := ValidateRes(res); err != nil {
		return nil, err
	}
	out := model.Cells{}
	for i := 0; i+1 < len(line); i++ {
		a, err := m.CellForLatLng(line[i].Y, line[i].X, res)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		b, err := m.CellForLatLng(line[i+1].Y, line[i+1].X, res)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i+1, err)
		}
		ca, _ := ParseCell(a)
		cb, _ := ParseCell(b)
		path, err := h3.GridPath(ca, cb)
		if err != nil {
			return nil, fmt.Errorf("h3 grid path %s -> %s: %w", a, b, err)
		}
		for _, p := range path {
			out = appendDistinct(out, p.String())
		}
	}
	return out, nil
}

func (m *Mapper) LinetraceMulti(lines geom.MultiLineString, res int) (model.Cells, error) {
	out := model.Cells{}
	for i, l := range lines {
		cells, err := m.Linetrace(l, res)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		for _, c := range cells {
			out = appendDistinct(out, c)
		}
	}
	return out, nil
}

func appendDistinct(cells model.Cells, c string) model.Cells {
	if n := len(cells); n > 0 && cells[n-1] == c {
		return cells
	}
	return append(cells, c)
}

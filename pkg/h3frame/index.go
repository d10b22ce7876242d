package h3frame

import (
	"fmt"
	"time"

	"github.com/ctessum/geom"

	h3mapper "github.com/mohammed-shakir/h3-frame/internal/mapper/h3"
	"github.com/mohammed-shakir/h3-frame/pkg/frame"
)

// IndexFromPoint indexes every row at res. The cell becomes the row index
// (named h3_%02d) unless KeepColumn is set.
func (a *Accessor[F]) IndexFromPoint(res int) (_ F, err error) {
	defer a.track("index_from_point", time.Now(), &err)
	var zero F

	if err := h3mapper.ValidateRes(res); err != nil {
		return zero, err
	}
	cells, err := a.pointCells(res)
	if err != nil {
		return zero, err
	}
	name := a.opt.name(ColumnName(res))
	d, err := a.f.Data().Assign(name, cells)
	if err != nil {
		return zero, err
	}
	if !a.opt.keep {
		if d, err = d.SetIndex(name); err != nil {
			return zero, err
		}
	}
	return a.f.Derive(d, nil)
}

// pointCells indexes each row's point. A GeoTable supplies its point
// geometry unless LatLng was given explicitly.
func (a *Accessor[F]) pointCells(res int) ([]any, error) {
	if g, ok := a.geoTable(); ok && !a.opt.latLngSet {
		out := make([]any, g.Len())
		for i := range out {
			p, err := asPoint(g.Geom(i))
			if err != nil {
				return nil, rowErr(i, err)
			}
			c, err := a.m.CellForLatLng(p.Y, p.X, res)
			if err != nil {
				return nil, rowErr(i, err)
			}
			out[i] = c
		}
		return out, nil
	}

	d := a.f.Data()
	if err := d.Require(a.opt.lat, a.opt.lng); err != nil {
		return nil, err
	}
	lats, _ := d.Column(a.opt.lat)
	lngs, _ := d.Column(a.opt.lng)
	out := make([]any, d.Len())
	for i := range out {
		lat, ok := frame.Float(lats[i])
		if !ok {
			return nil, fmt.Errorf("row %d: %w: latitude %v is not a number", i, ErrInvalidCoordinate, lats[i])
		}
		lng, ok := frame.Float(lngs[i])
		if !ok {
			return nil, fmt.Errorf("row %d: %w: longitude %v is not a number", i, ErrInvalidCoordinate, lngs[i])
		}
		c, err := a.m.CellForLatLng(lat, lng, res)
		if err != nil {
			return nil, rowErr(i, err)
		}
		out[i] = c
	}
	return out, nil
}

func asPoint(g geom.Geom) (geom.Point, error) {
	switch p := g.(type) {
	case geom.Point:
		return p, nil
	case *geom.Point:
		if p != nil {
			return *p, nil
		}
	}
	return geom.Point{}, fmt.Errorf("%w: %T is not a point", ErrUnsupportedGeometry, g)
}

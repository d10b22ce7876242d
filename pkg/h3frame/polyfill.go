package h3frame

import (
	"fmt"
	"time"

	"github.com/ctessum/geom"

	"github.com/mohammed-shakir/h3-frame/internal/model"
	"github.com/mohammed-shakir/h3-frame/pkg/frame"
)

// Polyfill adds the cells at res whose centers fall inside each row's polygon
// or multipolygon, in ascending order. Rows whose geometry covers no cell
// center get an empty list and are dropped when exploding. Only GeoTables
// with polygonal geometry are supported.
func (a *Accessor[F]) Polyfill(res int) (_ F, err error) {
	defer a.track("polyfill", time.Now(), &err)
	var zero F

	lists, err := a.polyfillLists(res)
	if err != nil {
		return zero, err
	}
	return a.assignLists([]string{a.opt.name(ColPolyfill)}, lists)
}

func (a *Accessor[F]) polyfillLists(res int) ([]any, error) {
	geoms, err := a.geometries()
	if err != nil {
		return nil, err
	}
	lists := make([]any, len(geoms))
	for i, g := range geoms {
		var cells model.Cells
		switch p := g.(type) {
		case geom.Polygon:
			cells, err = a.m.CellsForPolygon(p, res)
		case geom.MultiPolygon:
			cells, err = a.m.CellsForMultiPolygon(p, res)
		default:
			err = fmt.Errorf("%w: polyfill of %T", ErrUnsupportedGeometry, g)
		}
		if err != nil {
			return nil, rowErr(i, err)
		}
		if cells == nil {
			cells = model.Cells{}
		}
		lists[i] = []string(cells)
	}
	return lists, nil
}

// PolyfillResample turns every polygon row into one row per cell at res that
// it covers. The result is indexed by the cell (h3_polyfill); the previous
// index is kept as a leading column and the source geometry is dropped.
// Rows covering no cell are dropped and reported in the log.
func (a *Accessor[F]) PolyfillResample(res int) (_ *frame.Table, err error) {
	defer a.track("polyfill_resample", time.Now(), &err)
	return a.polyfillResample(res)
}

// PolyfillResampleGeo is PolyfillResample with the cell boundaries attached
// as geometry.
func (a *Accessor[F]) PolyfillResampleGeo(res int) (_ *frame.GeoTable, err error) {
	defer a.track("polyfill_resample", time.Now(), &err)

	t, err := a.polyfillResample(res)
	if err != nil {
		return nil, err
	}
	return a.withBoundaries(t, t.Index().Labels)
}

func (a *Accessor[F]) polyfillResample(res int) (*frame.Table, error) {
	lists, err := a.polyfillLists(res)
	if err != nil {
		return nil, err
	}
	uncovered := 0
	for _, l := range lists {
		if len(l.([]string)) == 0 {
			uncovered++
		}
	}
	if uncovered > 0 {
		a.opt.log.Warn().Int("rows", uncovered).Int("res", res).
			Msg("polyfill resample: rows cover no cell center and are dropped; consider a finer resolution")
	}

	name := a.opt.name(ColPolyfill)
	d, err := a.f.Data().Assign(name, lists)
	if err != nil {
		return nil, err
	}
	if d, _, err = d.Explode(name); err != nil {
		return nil, err
	}
	if d, err = d.ResetIndex(); err != nil {
		return nil, err
	}
	return d.SetIndex(name)
}

// Linetrace adds the cells at res crossed by each row's linestring or
// multilinestring, in path order. A cell repeats only where the line returns
// to it after leaving.
func (a *Accessor[F]) Linetrace(res int) (_ F, err error) {
	defer a.track("linetrace", time.Now(), &err)
	var zero F

	geoms, err := a.geometries()
	if err != nil {
		return zero, err
	}
	lists := make([]any, len(geoms))
	for i, g := range geoms {
		var cells model.Cells
		switch l := g.(type) {
		case geom.LineString:
			cells, err = a.m.Linetrace(l, res)
		case geom.MultiLineString:
			cells, err = a.m.LinetraceMulti(l, res)
		default:
			err = fmt.Errorf("%w: linetrace of %T", ErrUnsupportedGeometry, g)
		}
		if err != nil {
			return zero, rowErr(i, err)
		}
		lists[i] = []string(cells)
	}
	return a.assignLists([]string{a.opt.name(ColLinetrace)}, lists)
}

package h3frame

import (
	"time"

	"github.com/mohammed-shakir/h3-frame/pkg/frame"
)

// GeoToCellAggregate indexes every row at res and reduces the rows of each
// cell with r (Sum when nil). The result is indexed by h3_%02d in ascending
// cell order. The lat/lng columns and any geometry are not aggregated, and
// columns r cannot reduce are dropped.
func (a *Accessor[F]) GeoToCellAggregate(res int, r frame.Reducer) (_ *frame.Table, err error) {
	defer a.track("geo_to_cell_aggregate", time.Now(), &err)
	return a.geoToCellAggregate(res, r)
}

// GeoToCellAggregateGeo is GeoToCellAggregate with the cell boundaries
// attached as geometry.
func (a *Accessor[F]) GeoToCellAggregateGeo(res int, r frame.Reducer) (_ *frame.GeoTable, err error) {
	defer a.track("geo_to_cell_aggregate", time.Now(), &err)

	t, err := a.geoToCellAggregate(res, r)
	if err != nil {
		return nil, err
	}
	return a.withBoundaries(t, t.Index().Labels)
}

func (a *Accessor[F]) geoToCellAggregate(res int, r frame.Reducer) (*frame.Table, error) {
	cells, err := a.pointCells(res)
	if err != nil {
		return nil, err
	}
	d := a.f.Data().Drop(a.opt.lat, a.opt.lng)
	g, err := d.GroupBy(a.opt.name(ColumnName(res)), cells)
	if err != nil {
		return nil, err
	}
	return g.Agg(r)
}

// CellToParentAggregate groups rows by the ancestor of their cell at res and
// reduces each group with r (Sum when nil). The result is indexed by h3_%02d.
// A Cells column is not aggregated.
func (a *Accessor[F]) CellToParentAggregate(res int, r frame.Reducer) (_ *frame.Table, err error) {
	defer a.track("cell_to_parent_aggregate", time.Now(), &err)
	return a.cellToParentAggregate(res, r)
}

// CellToParentAggregateGeo is CellToParentAggregate with the parent
// boundaries attached as geometry.
func (a *Accessor[F]) CellToParentAggregateGeo(res int, r frame.Reducer) (_ *frame.GeoTable, err error) {
	defer a.track("cell_to_parent_aggregate", time.Now(), &err)

	t, err := a.cellToParentAggregate(res, r)
	if err != nil {
		return nil, err
	}
	return a.withBoundaries(t, t.Index().Labels)
}

func (a *Accessor[F]) cellToParentAggregate(res int, r frame.Reducer) (*frame.Table, error) {
	parents, err := a.perCell(func(c any) (any, error) { return a.m.ToParent(c, res) })
	if err != nil {
		return nil, err
	}
	d := a.f.Data()
	if a.opt.cells != "" {
		d = d.Drop(a.opt.cells)
	}
	g, err := d.GroupBy(a.opt.name(ColumnName(res)), parents)
	if err != nil {
		return nil, err
	}
	return g.Agg(r)
}

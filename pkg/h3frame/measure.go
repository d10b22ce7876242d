package h3frame

import (
	"time"
)

// CellArea adds the exact area of every cell in unit (km^2 when empty).
func (a *Accessor[F]) CellArea(unit AreaUnit) (_ F, err error) {
	defer a.track("cell_area", time.Now(), &err)
	var zero F

	vals, err := a.perCell(func(c any) (any, error) { return a.m.Area(c, unit) })
	if err != nil {
		return zero, err
	}
	return a.assign(a.opt.name(ColCellArea), vals)
}

// CellDistance adds the great-circle distance between the center of every
// row's cell and the center of the cell in column other.
func (a *Accessor[F]) CellDistance(unit LengthUnit, other string) (_ F, err error) {
	defer a.track("cell_distance", time.Now(), &err)
	var zero F

	others, err := a.f.Data().Column(other)
	if err != nil {
		return zero, err
	}
	cells, err := a.cellValues()
	if err != nil {
		return zero, err
	}
	vals := make([]any, len(cells))
	for i, c := range cells {
		d, err := a.m.Distance(c, others[i], unit)
		if err != nil {
			return zero, rowErr(i, err)
		}
		vals[i] = d
	}
	return a.assign(a.opt.name(ColDistance), vals)
}

// GridDistance adds the number of grid steps between every row's cell and
// the cell in column other. Both must have the same resolution.
func (a *Accessor[F]) GridDistance(other string) (_ F, err error) {
	defer a.track("grid_distance", time.Now(), &err)
	var zero F

	others, err := a.f.Data().Column(other)
	if err != nil {
		return zero, err
	}
	cells, err := a.cellValues()
	if err != nil {
		return zero, err
	}
	vals := make([]any, len(cells))
	for i, c := range cells {
		d, err := a.m.GridDistance(c, others[i])
		if err != nil {
			return zero, rowErr(i, err)
		}
		vals[i] = d
	}
	return a.assign(a.opt.name(ColGridDistance), vals)
}

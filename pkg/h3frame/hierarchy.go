package h3frame

import (
	"fmt"
	"time"

	h3mapper "github.com/mohammed-shakir/h3-frame/internal/mapper/h3"
)

// Parent adds the ancestor of every cell at res, which must be coarser than
// the cell.
func (a *Accessor[F]) Parent(res int) (_ F, err error) {
	defer a.track("parent", time.Now(), &err)
	var zero F

	vals, err := a.perCell(func(c any) (any, error) { return a.m.ToParent(c, res) })
	if err != nil {
		return zero, err
	}
	return a.assign(a.opt.name(ColumnName(res)), vals)
}

// DirectParent adds the parent one resolution up from every cell. Cells of
// resolution 0 have no parent.
func (a *Accessor[F]) DirectParent() (_ F, err error) {
	defer a.track("direct_parent", time.Now(), &err)
	var zero F

	vals, err := a.perCell(func(c any) (any, error) {
		cell, err := h3mapper.ParseCell(c)
		if err != nil {
			return nil, err
		}
		if cell.Resolution() == 0 {
			return nil, fmt.Errorf("%w: cell %s has resolution 0", ErrResolutionMismatch, cell)
		}
		return a.m.ToParent(cell, cell.Resolution()-1)
	})
	if err != nil {
		return zero, err
	}
	return a.assign(a.opt.name(ColParent), vals)
}

// ToChildren replaces every row with one row per child at res, children in
// ascending order. With NoExplode the children stay a []string per row.
func (a *Accessor[F]) ToChildren(res int) (_ F, err error) {
	defer a.track("to_children", time.Now(), &err)
	var zero F

	lists, err := a.perCell(func(c any) (any, error) {
		kids, err := a.m.ToChildren(c, res)
		return []string(kids), err
	})
	if err != nil {
		return zero, err
	}
	return a.assignLists([]string{a.opt.name(ColumnName(res))}, lists)
}

// CenterChild adds the child at res containing each cell's center.
func (a *Accessor[F]) CenterChild(res int) (_ F, err error) {
	defer a.track("center_child", time.Now(), &err)
	var zero F

	vals, err := a.perCell(func(c any) (any, error) { return a.m.CenterChild(c, res) })
	if err != nil {
		return zero, err
	}
	return a.assign(a.opt.name(ColCenterChild), vals)
}

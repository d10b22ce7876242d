package h3frame

import (
	"time"

	"github.com/mohammed-shakir/h3-frame/pkg/frame"
)

// Compact replaces complete sets of siblings among the table's cells by their
// parents. The result has no columns; its index (h3_compact) holds the
// compacted cells in ascending order. Duplicate input cells are an error.
func (a *Accessor[F]) Compact() (_ *frame.Table, err error) {
	defer a.track("compact", time.Now(), &err)

	cells, err := a.cellValues()
	if err != nil {
		return nil, err
	}
	out, err := a.m.Compact(cells)
	if err != nil {
		return nil, err
	}
	return frame.NewIndexed(frame.Index{Name: a.opt.name(ColCompact), Labels: stringsToAny(out)})
}

// Uncompact expands the table's cells to res. The result is indexed by
// h3_uncompact.
func (a *Accessor[F]) Uncompact(res int) (_ *frame.Table, err error) {
	defer a.track("uncompact", time.Now(), &err)

	cells, err := a.cellValues()
	if err != nil {
		return nil, err
	}
	out, err := a.m.Uncompact(cells, res)
	if err != nil {
		return nil, err
	}
	return frame.NewIndexed(frame.Index{Name: a.opt.name(ColUncompact), Labels: stringsToAny(out)})
}

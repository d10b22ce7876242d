package h3frame

import (
	"time"

	h3mapper "github.com/mohammed-shakir/h3-frame/internal/mapper/h3"
)

// Resolution adds each cell's resolution (0-15) as h3_resolution.
func (a *Accessor[F]) Resolution() (_ F, err error) {
	defer a.track("resolution", time.Now(), &err)
	var zero F

	vals, err := a.perCell(func(c any) (any, error) { return a.m.Resolution(c) })
	if err != nil {
		return zero, err
	}
	return a.assign(a.opt.name(ColResolution), vals)
}

// BaseCell adds the number (0-121) of the base cell each cell descends from.
func (a *Accessor[F]) BaseCell() (_ F, err error) {
	defer a.track("base_cell", time.Now(), &err)
	var zero F

	vals, err := a.perCell(func(c any) (any, error) { return a.m.BaseCell(c) })
	if err != nil {
		return zero, err
	}
	return a.assign(a.opt.name(ColBaseCell), vals)
}

// IsPentagon reports per row whether the cell is one of the twelve pentagons
// of its resolution. Invalid cells fail the call.
func (a *Accessor[F]) IsPentagon() (_ F, err error) {
	defer a.track("is_pentagon", time.Now(), &err)
	var zero F

	vals, err := a.perCell(func(c any) (any, error) { return a.m.IsPentagon(c) })
	if err != nil {
		return zero, err
	}
	return a.assign(a.opt.name(ColIsPentagon), vals)
}

// IsValid reports per row whether the cell is a valid cell id. It does not
// fail on malformed ids.
func (a *Accessor[F]) IsValid() (_ F, err error) {
	defer a.track("is_valid", time.Now(), &err)
	var zero F

	vals, err := a.perCell(func(c any) (any, error) {
		_, perr := h3mapper.ParseCell(c)
		return perr == nil, nil
	})
	if err != nil {
		return zero, err
	}
	return a.assign(a.opt.name(ColIsValid), vals)
}

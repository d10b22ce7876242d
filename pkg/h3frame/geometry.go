package h3frame

import (
	"time"

	"github.com/ctessum/geom"

	"github.com/mohammed-shakir/h3-frame/pkg/frame"
)

// BoundaryFromCell attaches each cell's hexagon (or pentagon) outline as the
// geometry column. An existing geometry is replaced.
func (a *Accessor[F]) BoundaryFromCell() (_ *frame.GeoTable, err error) {
	defer a.track("boundary_from_cell", time.Now(), &err)

	cells, err := a.cellValues()
	if err != nil {
		return nil, err
	}
	return a.withBoundaries(a.f.Data(), cells)
}

// CenterFromCell attaches each cell's center point as the geometry column.
func (a *Accessor[F]) CenterFromCell() (_ *frame.GeoTable, err error) {
	defer a.track("center_from_cell", time.Now(), &err)

	cells, err := a.cellValues()
	if err != nil {
		return nil, err
	}
	geoms := make([]geom.Geom, len(cells))
	for i, c := range cells {
		p, err := a.m.Center(c)
		if err != nil {
			return nil, rowErr(i, err)
		}
		geoms[i] = p
	}
	return frame.NewGeo(a.f.Data(), a.geometryName(), geoms, frame.WGS84())
}

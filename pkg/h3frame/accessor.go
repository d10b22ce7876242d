package h3frame

import (
	"fmt"
	"time"

	"github.com/ctessum/geom"

	h3mapper "github.com/mohammed-shakir/h3-frame/internal/mapper/h3"
	"github.com/mohammed-shakir/h3-frame/internal/observability"
	"github.com/mohammed-shakir/h3-frame/pkg/frame"
)

// Accessor applies grid operations to a table. It holds no state besides the
// wrapped table and its options; every operation returns a new table.
type Accessor[F frame.Frame[F]] struct {
	f   F
	opt options
	m   *h3mapper.Mapper
}

// Of wraps f. Cells are read from the index unless Cells names a column, and
// coordinates from lat and lng unless LatLng says otherwise.
func Of[F frame.Frame[F]](f F, opts ...Option) *Accessor[F] {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Accessor[F]{f: f, opt: o, m: h3mapper.New()}
}

// With returns an accessor over the same table with more options applied.
func (a *Accessor[F]) With(opts ...Option) *Accessor[F] {
	o := a.opt
	for _, fn := range opts {
		fn(&o)
	}
	return &Accessor[F]{f: a.f, opt: o, m: a.m}
}

func (a *Accessor[F]) Frame() F { return a.f }

func (a *Accessor[F]) track(op string, start time.Time, errp *error) {
	took := time.Since(start)
	rows := a.f.Data().Len()
	observability.ObserveOperation(op, rows, took, *errp)
	if *errp != nil {
		a.opt.log.Debug().Err(*errp).Str("op", op).Int("rows", rows).Dur("took", took).Msg("h3 operation failed")
		return
	}
	a.opt.log.Debug().Str("op", op).Int("rows", rows).Dur("took", took).Msg("h3 operation")
}

// cellValues returns the cell of every row, from the index or the Cells column.
func (a *Accessor[F]) cellValues() ([]any, error) {
	d := a.f.Data()
	if a.opt.cells == "" {
		return d.Index().Labels, nil
	}
	return d.Column(a.opt.cells)
}

func (a *Accessor[F]) perCell(fn func(cell any) (any, error)) ([]any, error) {
	cells, err := a.cellValues()
	if err != nil {
		return nil, err
	}
	out := make([]any, len(cells))
	for i, c := range cells {
		v, err := fn(c)
		if err != nil {
			return nil, rowErr(i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (a *Accessor[F]) assign(name string, vals []any) (F, error) {
	d, err := a.f.Data().Assign(name, vals)
	if err != nil {
		var zero F
		return zero, err
	}
	return a.f.Derive(d, nil)
}

// assignLists writes parallel list columns and explodes them unless NoExplode
// is set. In exploded output the index label of the source row is repeated.
func (a *Accessor[F]) assignLists(names []string, lists ...[]any) (F, error) {
	var zero F
	d := a.f.Data()
	for i, n := range names {
		var err error
		if d, err = d.Assign(n, lists[i]); err != nil {
			return zero, err
		}
	}
	if a.opt.noExplode {
		return a.f.Derive(d, nil)
	}
	out, rows, err := d.Explode(names...)
	if err != nil {
		return zero, err
	}
	return a.f.Derive(out, rows)
}

func (a *Accessor[F]) geoTable() (*frame.GeoTable, bool) {
	g, ok := any(a.f).(*frame.GeoTable)
	return g, ok
}

func (a *Accessor[F]) geometries() ([]geom.Geom, error) {
	g, ok := a.geoTable()
	if !ok {
		return nil, fmt.Errorf("%w: table has no geometry column", ErrUnsupportedGeometry)
	}
	return g.Geometry(), nil
}

func (a *Accessor[F]) geometryName() string {
	if g, ok := a.geoTable(); ok {
		return a.opt.geometryName(g.GeometryName())
	}
	return a.opt.geometryName("")
}

// withBoundaries attaches the boundary polygon of each cell in cells to d.
func (a *Accessor[F]) withBoundaries(d *frame.Table, cells []any) (*frame.GeoTable, error) {
	geoms := make([]geom.Geom, len(cells))
	for i, c := range cells {
		p, err := a.m.Boundary(c)
		if err != nil {
			return nil, rowErr(i, err)
		}
		geoms[i] = p
	}
	return frame.NewGeo(d, a.geometryName(), geoms, frame.WGS84())
}

func rowErr(i int, err error) error {
	return fmt.Errorf("row %d: %w", i, err)
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

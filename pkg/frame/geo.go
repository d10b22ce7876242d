package frame

import (
	"fmt"
	"slices"

	"github.com/ctessum/geom"
)

// DefaultGeometryName is the geometry column name used when none is given.
const DefaultGeometryName = "geometry"

// CRS identifies the coordinate reference system of a geometry column.
type CRS struct {
	Code int
	Name string
}

// WGS84 is geographic longitude/latitude in degrees (EPSG:4326).
func WGS84() CRS {
	return CRS{Code: 4326, Name: "WGS 84"}
}

func (c CRS) String() string {
	return fmt.Sprintf("EPSG:%d", c.Code)
}

// GeoTable is a table with a distinguished geometry column. Geometries are kept
// apart from the ordinary columns so that operations on the data never see them.
type GeoTable struct {
	data  *Table
	name  string
	geoms []geom.Geom
	crs   CRS
}

var _ Frame[*GeoTable] = (*GeoTable)(nil)

// NewGeo attaches geometries to data. An existing column with the geometry
// name is replaced.
func NewGeo(data *Table, name string, geoms []geom.Geom, crs CRS) (*GeoTable, error) {
	if name == "" {
		name = DefaultGeometryName
	}
	if len(geoms) != data.Len() {
		return nil, fmt.Errorf("%w: %d geometries for %d rows", ErrLengthMismatch, len(geoms), data.Len())
	}
	return &GeoTable{
		data:  data.Drop(name),
		name:  name,
		geoms: geoms,
		crs:   crs,
	}, nil
}

func (g *GeoTable) Data() *Table { return g.data }

func (g *GeoTable) Len() int { return g.data.Len() }

func (g *GeoTable) GeometryName() string { return g.name }

func (g *GeoTable) CRS() CRS { return g.crs }

// Geometry returns a copy of the geometry column.
func (g *GeoTable) Geometry() []geom.Geom { return slices.Clone(g.geoms) }

func (g *GeoTable) Geom(i int) geom.Geom { return g.geoms[i] }

// Derive carries the geometry over to data. rows maps output rows to source
// rows; nil keeps geometries one-to-one.
func (g *GeoTable) Derive(data *Table, rows []int) (*GeoTable, error) {
	geoms := g.geoms
	if rows != nil {
		geoms = make([]geom.Geom, len(rows))
		for i, r := range rows {
			geoms[i] = g.geoms[r]
		}
	}
	return NewGeo(data, g.name, geoms, g.crs)
}

// Flatten returns the data with the geometry appended as an ordinary column.
func (g *GeoTable) Flatten() *Table {
	vals := make([]any, len(g.geoms))
	for i, gg := range g.geoms {
		vals[i] = gg
	}
	out, _ := g.data.Assign(g.name, vals)
	return out
}

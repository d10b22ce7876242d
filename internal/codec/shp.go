package codec

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"

	"github.com/mohammed-shakir/h3-frame/pkg/frame"
)

// ReadShapefile decodes the shapes in path together with the named attribute
// fields and reprojects them to WGS84 longitude/latitude. A shapefile without
// a .prj is assumed to already be in longitude/latitude.
func ReadShapefile(path string, fields ...string) (*frame.GeoTable, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer d.Close()

	trans, err := toLongLat(d)
	if err != nil {
		return nil, err
	}

	var geoms []geom.Geom
	cols := make([]frame.Column, len(fields))
	for i, f := range fields {
		cols[i] = frame.Column{Name: f, Values: []any{}}
	}
	for row := 0; ; row++ {
		g, attrs, more := d.DecodeRowFields(fields...)
		if !more {
			break
		}
		if trans != nil && g != nil {
			if g, err = g.Transform(trans); err != nil {
				return nil, fmt.Errorf("shape %d: reproject: %w", row, err)
			}
		}
		geoms = append(geoms, g)
		for i, f := range fields {
			s, ok := attrs[f]
			if !ok {
				return nil, fmt.Errorf("shape %d: missing attribute %q", row, f)
			}
			cols[i].Values = append(cols[i].Values, parseCell(s))
		}
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("decode shapefile: %w", err)
	}
	if geoms == nil {
		geoms = []geom.Geom{}
	}

	t, err := frame.NewIndexed(frame.RangeIndex(len(geoms)), cols...)
	if err != nil {
		return nil, err
	}
	return frame.NewGeo(t, frame.DefaultGeometryName, geoms, frame.WGS84())
}

func toLongLat(d *shp.Decoder) (proj.Transformer, error) {
	src, err := d.SR()
	if err != nil || src == nil {
		return nil, nil
	}
	dst, err := proj.Parse("+proj=longlat +datum=WGS84")
	if err != nil {
		return nil, fmt.Errorf("parse WGS84: %w", err)
	}
	trans, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("shapefile projection: %w", err)
	}
	return trans, nil
}

package codec

import (
	"errors"
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/wkt"
)

var errEmptyPolygon = errors.New("empty polygon")

// WKT renders g as well-known text. Polygon rings are closed first.
func WKT(g geom.Geom) (string, error) {
	if l, ok := g.(geom.LineString); ok && len(l) == 0 {
		return "LINESTRING EMPTY", nil
	}
	g, err := normalize(g)
	if err != nil {
		return "", err
	}
	b, err := wkt.Encode(g)
	if err != nil {
		return "", fmt.Errorf("wkt: %w", err)
	}
	return string(b), nil
}

// normalize dereferences point pointers and closes polygon rings, which
// h3 boundaries leave open.
func normalize(g geom.Geom) (geom.Geom, error) {
	switch v := g.(type) {
	case *geom.Point:
		return *v, nil
	case geom.Polygon:
		return closeRings(v)
	case geom.MultiPolygon:
		if len(v) == 0 {
			return nil, errEmptyPolygon
		}
		out := make(geom.MultiPolygon, len(v))
		for i, p := range v {
			c, err := closeRings(p)
			if err != nil {
				return nil, fmt.Errorf("polygon %d: %w", i, err)
			}
			out[i] = c
		}
		return out, nil
	}
	return g, nil
}

func closeRings(p geom.Polygon) (geom.Polygon, error) {
	if len(p) == 0 {
		return nil, errEmptyPolygon
	}
	out := make(geom.Polygon, len(p))
	for i, ring := range p {
		if len(ring) < 3 {
			return nil, fmt.Errorf("polygon ring %d has %d points", i, len(ring))
		}
		if ring[0] != ring[len(ring)-1] {
			ring = append(ring[:len(ring):len(ring)], ring[0])
		}
		out[i] = ring
	}
	return out, nil
}

package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"

	"github.com/mohammed-shakir/h3-frame/pkg/frame"
)

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string            `json:"type"`
	ID         any               `json:"id,omitempty"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties map[string]any    `json:"properties"`
}

// WriteGeoJSON writes g as a FeatureCollection. A named index is written as
// the feature id and repeated in the properties.
func WriteGeoJSON(w io.Writer, g *frame.GeoTable) error {
	data := g.Data()
	ix := data.Index()
	cols := data.Columns()

	out := featureCollection{
		Type:     "FeatureCollection",
		Features: make([]feature, 0, g.Len()),
	}
	for i := 0; i < g.Len(); i++ {
		gj, err := toGeometry(g.Geom(i))
		if err != nil {
			return fmt.Errorf("feature %d: %w", i, err)
		}
		props := make(map[string]any, len(cols)+1)
		f := feature{Type: "Feature", Geometry: gj, Properties: props}
		if ix.Name != "" {
			f.ID = jsonValue(ix.Labels[i])
			props[ix.Name] = f.ID
		}
		for _, c := range cols {
			props[c] = jsonValue(data.Value(i, c))
		}
		out.Features = append(out.Features, f)
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("marshal FeatureCollection: %w", err)
	}
	return nil
}

// ReadGeoJSON reads a FeatureCollection into a GeoTable in WGS84. Property
// columns are sorted by name and missing properties are nil. If indexCol is
// set that property becomes the index.
func ReadGeoJSON(r io.Reader, indexCol string) (*frame.GeoTable, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry   json.RawMessage `json:"geometry"`
			Properties map[string]any  `json:"properties"`
		} `json:"features"`
	}
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("geojson: want FeatureCollection, got %q", fc.Type)
	}

	var names []string
	seen := map[string]bool{}
	for _, f := range fc.Features {
		for k := range f.Properties {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)

	geoms := make([]geom.Geom, len(fc.Features))
	cols := make([]frame.Column, len(names))
	for j, n := range names {
		cols[j] = frame.Column{Name: n, Values: make([]any, len(fc.Features))}
	}
	for i, f := range fc.Features {
		g, err := fromGeometry(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		geoms[i] = g
		for j, n := range names {
			cols[j].Values[i] = fromJSONValue(f.Properties[n])
		}
	}

	t, err := frame.NewIndexed(frame.RangeIndex(len(fc.Features)), cols...)
	if err != nil {
		return nil, err
	}
	if indexCol != "" {
		if t, err = t.SetIndex(indexCol); err != nil {
			return nil, err
		}
	}
	return frame.NewGeo(t, frame.DefaultGeometryName, geoms, frame.WGS84())
}

func toGeometry(g geom.Geom) (*geojson.Geometry, error) {
	if g == nil {
		return nil, nil
	}
	g, err := normalize(g)
	if err != nil {
		return nil, err
	}
	return geojson.ToGeoJSON(g)
}

func fromGeometry(raw json.RawMessage) (geom.Geom, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return geojson.Decode(raw)
}

func jsonValue(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	case geom.Geom:
		s, err := WKT(x)
		if err != nil {
			return nil
		}
		return s
	}
	return v
}

func fromJSONValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromJSONValue(e)
		}
		return out
	}
	return v
}

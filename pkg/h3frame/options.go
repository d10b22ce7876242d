package h3frame

import (
	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/h3-frame/pkg/frame"
)

type options struct {
	lat, lng  string
	latLngSet bool
	cells     string
	output    string
	keep      bool
	noExplode bool
	geomName  string
	log       zerolog.Logger
}

func defaultOptions() options {
	return options{
		lat: "lat",
		lng: "lng",
		log: zerolog.Nop(),
	}
}

type Option func(*options)

// LatLng names the latitude and longitude columns. On a GeoTable it also
// makes IndexFromPoint read the columns instead of the point geometry.
func LatLng(lat, lng string) Option {
	return func(o *options) {
		if lat != "" {
			o.lat = lat
		}
		if lng != "" {
			o.lng = lng
		}
		o.latLngSet = true
	}
}

// Cells names the column holding cell ids. By default the row index is used.
func Cells(col string) Option {
	return func(o *options) { o.cells = col }
}

// Output overrides the result column or index name.
func Output(name string) Option {
	return func(o *options) { o.output = name }
}

// KeepColumn leaves the IndexFromPoint result as a column instead of the index.
func KeepColumn() Option {
	return func(o *options) { o.keep = true }
}

// NoExplode keeps list results as one list per row.
func NoExplode() Option {
	return func(o *options) { o.noExplode = true }
}

// GeometryName names the geometry column of produced GeoTables.
func GeometryName(name string) Option {
	return func(o *options) { o.geomName = name }
}

// WithLogger receives a debug line per operation.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

func (o options) name(def string) string {
	if o.output != "" {
		return o.output
	}
	return def
}

func (o options) geometryName(current string) string {
	switch {
	case o.geomName != "":
		return o.geomName
	case current != "":
		return current
	default:
		return frame.DefaultGeometryName
	}
}

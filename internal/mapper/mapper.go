// Package mapper converts between coordinates, geometries and H3 cells.
package mapper

// Interface is the part of the grid mapper the streaming ingest path uses to
// screen events before they are batched.
type Interface interface {
	CellForLatLng(lat, lng float64, res int) (string, error)
}

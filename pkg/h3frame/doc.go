// Package h3frame binds the H3 hexagonal grid to frame tables.
//
// An Accessor wraps a *frame.Table or a *frame.GeoTable and applies grid
// operations row by row. Cells are read from the row index unless a column is
// named with Cells; coordinates are read from the lat/lng columns, or from the
// point geometry of a GeoTable. Results are written to a new column (or index)
// named after the operation, and the receiver is never modified.
//
//	t, _ := frame.New(
//		frame.Column{Name: "lat", Values: []any{50.0, 51.0}},
//		frame.Column{Name: "lng", Values: []any{14.0, 15.0}},
//	)
//	indexed, _ := h3frame.Of(t).IndexFromPoint(9)
//	hexes, _ := h3frame.Of(indexed).BoundaryFromCell()
//
// Operations that only add values return the same kind of table they were
// given. Operations that produce cell geometry always return a *frame.GeoTable.
package h3frame

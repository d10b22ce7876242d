// Package model defines the small value types shared by the grid mapper and its callers.
package model

// Cells is a list of cell tokens in canonical hex form.
type Cells []string

// Neighbor is a cell found in a grid disk together with its grid distance to the origin.
type Neighbor struct {
	Cell     string `json:"cell"`
	Distance int    `json:"distance"`
}

// AreaUnit selects the unit of cell areas.
type AreaUnit string

const (
	Km2   AreaUnit = "km^2"
	M2    AreaUnit = "m^2"
	Rads2 AreaUnit = "rads^2"
)

// LengthUnit selects the unit of great-circle distances.
type LengthUnit string

const (
	Km   LengthUnit = "km"
	M    LengthUnit = "m"
	Rads LengthUnit = "rads"
)

package h3frame

import (
	"fmt"

	"github.com/mohammed-shakir/h3-frame/internal/model"
)

// Default output names.
const (
	ColParent        = "h3_parent"
	ColCenterChild   = "h3_center_child"
	ColKRing         = "h3_k_ring"
	ColHexRing       = "h3_hex_ring"
	ColCompact       = "h3_compact"
	ColUncompact     = "h3_uncompact"
	ColPolyfill      = "h3_polyfill"
	ColLinetrace     = "h3_linetrace"
	ColCellArea      = "h3_cell_area"
	ColDistance      = "h3_distance"
	ColGridDistance  = "h3_grid_distance"
	ColResolution    = "h3_resolution"
	ColBaseCell      = "h3_base_cell"
	ColIsValid       = "h3_is_valid"
	ColIsPentagon    = "h3_is_pentagon"
	distanceSuffix   = "_distance"
	ColKRingDistance = ColKRing + distanceSuffix
)

// ColumnName is the column holding cells of resolution res, e.g. "h3_09".
func ColumnName(res int) string {
	return fmt.Sprintf("h3_%02d", res)
}

type (
	AreaUnit   = model.AreaUnit
	LengthUnit = model.LengthUnit
)

const (
	Km2   = model.Km2
	M2    = model.M2
	Rads2 = model.Rads2

	Km   = model.Km
	M    = model.M
	Rads = model.Rads
)

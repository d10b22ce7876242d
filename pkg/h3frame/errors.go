package h3frame

import (
	"errors"

	h3mapper "github.com/mohammed-shakir/h3-frame/internal/mapper/h3"
	"github.com/mohammed-shakir/h3-frame/pkg/frame"
)

// Errors returned by accessor operations. They are wrapped with row context,
// so compare with errors.Is.
var (
	ErrInvalidCoordinate   = h3mapper.ErrInvalidCoordinate
	ErrInvalidCell         = h3mapper.ErrInvalidCell
	ErrInvalidResolution   = h3mapper.ErrInvalidResolution
	ErrResolutionMismatch  = h3mapper.ErrResolutionMismatch
	ErrInvalidArgument     = h3mapper.ErrInvalidArgument
	ErrUnknownColumn       = frame.ErrUnknownColumn
	ErrUnsupportedGeometry = h3mapper.ErrUnsupportedGeometry
)

// IsInputError reports whether err was caused by the caller's data rather
// than by the grid library or the table model.
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrInvalidCoordinate,
		ErrInvalidCell,
		ErrInvalidResolution,
		ErrResolutionMismatch,
		ErrInvalidArgument,
		ErrUnknownColumn,
		ErrUnsupportedGeometry,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

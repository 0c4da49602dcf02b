package thermal

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the radiometric model.
var (
	// ErrZeroR2 reports a calibration with R2 == 0, which the forward
	// model divides by.
	ErrZeroR2 = errors.New("thermal: coefficient R2 must be nonzero")

	// ErrNaNCoefficient reports a calibration containing NaN.
	ErrNaNCoefficient = errors.New("thermal: coefficient is NaN")

	// ErrEmptyMatrix reports a zero-area matrix where nonzero
	// dimensions were expected. Raster dimensions come from metadata,
	// so an empty matrix always indicates an upstream decode failure.
	ErrEmptyMatrix = errors.New("thermal: empty matrix")

	// ErrDimensionMismatch reports a decoded raster whose dimensions
	// disagree with the dimensions recorded in metadata.
	ErrDimensionMismatch = errors.New("thermal: raster dimensions disagree with metadata")

	// ErrInvalidBitDepth reports an output bit depth other than 16,
	// 32 or 64.
	ErrInvalidBitDepth = errors.New("thermal: bit depth must be 16, 32 or 64")
)

// MissingCoefficientsError reports Planck calibration keys absent from
// an image's metadata. Conversion cannot proceed without all five of
// R1, R2, B, F and O; there is no defaulting.
type MissingCoefficientsError struct {
	// Missing lists the absent keys in sorted order.
	Missing []string
}

func (e *MissingCoefficientsError) Error() string {
	return fmt.Sprintf("thermal: missing Planck coefficients: %s",
		strings.Join(e.Missing, ", "))
}

// DomainError reports a matrix element where the radiometric transform
// is mathematically undefined. It is returned only in strict mode; the
// default policy lets NaN or infinity propagate through the element.
type DomainError struct {
	X, Y  int
	Value float64 // the offending log argument, denominator or temperature
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("thermal: model undefined at element (%d, %d): argument %g",
		e.X, e.Y, e.Value)
}

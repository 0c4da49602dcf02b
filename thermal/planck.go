// Package thermal implements the radiometric model used by FLIR-style
// thermal imagers: conversion between raw sensor counts and absolute
// temperature in Kelvin through per-camera Planck calibration
// coefficients.
//
// The forward model converts a raw count S to temperature:
//
//	T = B / ln(R1/(R2*(S+O)) + F)
//
// and the inverse model converts temperature back to raw counts:
//
//	S = R1/(R2*(exp(B/T) - F)) - O
//
// Both transforms operate element-wise in double precision regardless
// of the input integer width and carry no state, so they are safe to
// call concurrently and are parallelized internally across rows.
//
// By default, elements where the model is mathematically undefined
// (non-positive log argument, zero denominator) propagate IEEE NaN or
// infinity, matching the floating-point semantics of the reference
// model. ModelOptions.Strict switches to fail-fast behavior, returning
// a *DomainError identifying the first offending element.
package thermal

import "math"

// Coefficients holds the five Planck calibration constants describing
// one camera's radiometric response curve. They are parsed once per
// image from its embedded metadata and are immutable thereafter.
type Coefficients struct {
	R1 float64
	R2 float64
	B  float64
	F  float64
	O  float64
}

// Validate checks that the coefficients can drive the radiometric
// model. R2 must be nonzero because the forward transform divides by
// it, and no coefficient may be NaN.
func (c Coefficients) Validate() error {
	if c.R2 == 0 {
		return ErrZeroR2
	}
	if math.IsNaN(c.R1) || math.IsNaN(c.R2) || math.IsNaN(c.B) ||
		math.IsNaN(c.F) || math.IsNaN(c.O) {
		return ErrNaNCoefficient
	}
	return nil
}

// ModelOptions configures the behavior of the forward and inverse
// transforms. The zero value selects the default propagate policy.
type ModelOptions struct {
	// Strict makes the transforms fail with a *DomainError on the
	// first element where the model is undefined, instead of letting
	// NaN or infinity propagate through that element.
	Strict bool
}

// RawToKelvin converts a single raw sensor count to temperature in
// Kelvin. It performs no domain checking; out-of-domain inputs yield
// NaN or infinity per IEEE semantics.
func RawToKelvin(s float64, c Coefficients) float64 {
	return c.B / math.Log(c.R1/(c.R2*(s+c.O))+c.F)
}

// KelvinToRaw converts a temperature in Kelvin to an unquantized raw
// sensor count. It performs no domain checking.
func KelvinToRaw(t float64, c Coefficients) float64 {
	return c.R1/(c.R2*(math.Exp(c.B/t)-c.F)) - c.O
}

// RawToTemperature converts a raw sample matrix to a temperature
// matrix in Kelvin using the default propagate policy.
func RawToTemperature(raw *RawImage, c Coefficients) (*TempImage, error) {
	return RawToTemperatureOpts(raw, c, ModelOptions{})
}

// RawToTemperatureOpts converts a raw sample matrix to a temperature
// matrix in Kelvin. The output has the same dimensions as the input.
// An empty input matrix is rejected with ErrEmptyMatrix because raster
// dimensions come from metadata and are never legitimately zero.
func RawToTemperatureOpts(raw *RawImage, c Coefficients, opts ModelOptions) (*TempImage, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if raw == nil || len(raw.Pix) == 0 {
		return nil, ErrEmptyMatrix
	}

	out := NewTempImage(raw.Width, raw.Height)

	if opts.Strict {
		err := ParallelForWithError(raw.Height, func(y int) error {
			src := raw.Pix[y*raw.Width : (y+1)*raw.Width]
			dst := out.Pix[y*raw.Width : (y+1)*raw.Width]
			for x, s := range src {
				den := c.R2 * (float64(s) + c.O)
				if den == 0 {
					return &DomainError{X: x, Y: y, Value: den}
				}
				arg := c.R1/den + c.F
				if !(arg > 0) {
					return &DomainError{X: x, Y: y, Value: arg}
				}
				dst[x] = c.B / math.Log(arg)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	ParallelFor(raw.Height, func(y int) {
		src := raw.Pix[y*raw.Width : (y+1)*raw.Width]
		dst := out.Pix[y*raw.Width : (y+1)*raw.Width]
		for x, s := range src {
			dst[x] = c.B / math.Log(c.R1/(c.R2*(float64(s)+c.O))+c.F)
		}
	})
	return out, nil
}

// TemperatureToRaw converts a temperature matrix back to raw sensor
// counts using the default propagate policy. See TemperatureToRawOpts.
func TemperatureToRaw(tm *TempImage, c Coefficients) (*RawImage, bool, error) {
	return TemperatureToRawOpts(tm, c, ModelOptions{})
}

// TemperatureToRawOpts converts a temperature matrix back to raw
// sensor counts. Values are truncated toward zero, not rounded,
// matching the reference integer-cast behavior. Results outside
// [0, 65535] saturate to the nearest bound, and NaN quantizes to zero;
// the returned clipped flag reports whether any element saturated.
//
// In strict mode, a temperature of exactly zero or a zero denominator
// fails with a *DomainError instead of producing a saturated element.
func TemperatureToRawOpts(tm *TempImage, c Coefficients, opts ModelOptions) (*RawImage, bool, error) {
	if err := c.Validate(); err != nil {
		return nil, false, err
	}
	if tm == nil || len(tm.Pix) == 0 {
		return nil, false, ErrEmptyMatrix
	}

	out := NewRawImage(tm.Width, tm.Height)
	rowClipped := make([]bool, tm.Height)

	quantize := func(s float64, clipped *bool) uint16 {
		switch {
		case math.IsNaN(s):
			*clipped = true
			return 0
		case s < 0:
			*clipped = true
			return 0
		case s > 65535:
			*clipped = true
			return 65535
		default:
			return uint16(s)
		}
	}

	if opts.Strict {
		err := ParallelForWithError(tm.Height, func(y int) error {
			src := tm.Pix[y*tm.Width : (y+1)*tm.Width]
			dst := out.Pix[y*tm.Width : (y+1)*tm.Width]
			for x, t := range src {
				if t == 0 {
					return &DomainError{X: x, Y: y, Value: t}
				}
				den := c.R2 * (math.Exp(c.B/t) - c.F)
				if den == 0 {
					return &DomainError{X: x, Y: y, Value: den}
				}
				dst[x] = quantize(c.R1/den-c.O, &rowClipped[y])
			}
			return nil
		})
		if err != nil {
			return nil, false, err
		}
	} else {
		ParallelFor(tm.Height, func(y int) {
			src := tm.Pix[y*tm.Width : (y+1)*tm.Width]
			dst := out.Pix[y*tm.Width : (y+1)*tm.Width]
			for x, t := range src {
				dst[x] = quantize(c.R1/(c.R2*(math.Exp(c.B/t)-c.F))-c.O, &rowClipped[y])
			}
		})
	}

	clipped := false
	for _, rc := range rowClipped {
		if rc {
			clipped = true
			break
		}
	}
	return out, clipped, nil
}

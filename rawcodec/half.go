package rawcodec

import "math"

// IEEE 754 half-precision conversion for 16-bit floating-point TIFF
// samples. Conversion truncates the mantissa; values above the half
// range (about 65504) become infinity, which cannot occur for the
// Kelvin temperatures written here.

// float16Bits converts a float64 to half-precision bits.
func float16Bits(f float64) uint16 {
	b := math.Float32bits(float32(f))
	sign := uint16(b>>16) & 0x8000
	exp := int32(b>>23&0xff) - 127 + 15
	mant := b & 0x7fffff

	switch {
	case exp >= 31:
		if b&0x7fffffff > 0x7f800000 {
			return sign | 0x7e00 // NaN
		}
		return sign | 0x7c00 // Inf, or finite overflow
	case exp <= 0:
		if exp < -10 {
			return sign // underflows to signed zero
		}
		mant |= 0x800000
		return sign | uint16(mant>>uint32(14-exp))
	default:
		return sign | uint16(exp)<<10 | uint16(mant>>13)
	}
}

// float16Value converts half-precision bits to a float64.
func float16Value(h uint16) float64 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h >> 10 & 0x1f)
	mant := uint32(h & 0x3ff)

	switch {
	case exp == 0:
		if mant == 0 {
			return float64(math.Float32frombits(sign))
		}
		// Subnormal: mant * 2^-24
		v := float64(mant) * 0x1p-24
		if sign != 0 {
			v = -v
		}
		return v
	case exp == 31:
		if mant != 0 {
			return math.NaN()
		}
		if sign != 0 {
			return math.Inf(-1)
		}
		return math.Inf(1)
	default:
		return float64(math.Float32frombits(sign | (exp-15+127)<<23 | mant<<13))
	}
}

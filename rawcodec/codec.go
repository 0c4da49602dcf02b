// Package rawcodec reads and writes the raster containers FLIR cameras
// embed in their radiometric images.
//
// Embedded raw thermal rasters come in two containers, named by the
// RawThermalImageType metadata tag: 16-bit grayscale PNG and 16-bit
// grayscale TIFF. Output rasters are written as TIFF (raw counts or
// floating-point temperature at 16, 32 or 64 bits per sample) or PNG
// (raw counts only; PNG cannot carry floating-point samples).
//
// FLIR quirk: PNG rasters store their 16-bit samples least significant
// byte first, opposite to the network order the PNG specification
// mandates. The decoder and encoder in this package use the FLIR order
// so that decoded values are real sensor counts.
package rawcodec

import (
	"errors"
	"fmt"
	"io"

	"github.com/mrjoshuak/go-flir/thermal"
)

// Codec errors
var (
	// ErrUnknownFormat reports a raster format this package does not
	// implement.
	ErrUnknownFormat = errors.New("rawcodec: unknown raster format")

	// ErrFloatNeedsTIFF reports an attempt to write floating-point
	// samples into a PNG container.
	ErrFloatNeedsTIFF = errors.New("rawcodec: floating-point samples require TIFF output")

	// ErrEmptyRaster reports a zero-area raster handed to an encoder.
	ErrEmptyRaster = errors.New("rawcodec: empty raster")
)

// maxRasterPixels bounds decoded raster allocations. The largest FLIR
// sensors produce 1280x1024 frames; anything beyond this is a corrupt
// header, not a raster.
const maxRasterPixels = 1 << 26

// Codec implements thermal.Codec for the PNG and TIFF rasters FLIR
// cameras embed. The zero value is ready to use.
type Codec struct {
	// Deflate enables Deflate compression of written TIFF strips.
	// Written PNG data is always compressed, as the format requires.
	Deflate bool
}

// New returns a codec with default settings.
func New() *Codec {
	return &Codec{}
}

// DecodeRaw decodes an embedded raster blob into sensor counts.
func (c *Codec) DecodeRaw(data []byte, format thermal.RawFormat) (*thermal.RawImage, error) {
	switch format {
	case thermal.FormatPNG:
		return decodePNG(data)
	case thermal.FormatTIFF:
		return decodeTIFF(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// EncodeRaw writes sensor counts in the given container.
func (c *Codec) EncodeRaw(w io.Writer, img *thermal.RawImage, format thermal.RawFormat) error {
	if img == nil || len(img.Pix) == 0 {
		return ErrEmptyRaster
	}
	switch format {
	case thermal.FormatPNG:
		return encodePNG(w, img)
	case thermal.FormatTIFF:
		return encodeTIFFUint16(w, img, c.Deflate)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// EncodeTemperature writes a Kelvin field at the given bit depth.
// 16-bit output stores IEEE half-precision floats; 32 and 64 store
// float32 and float64.
func (c *Codec) EncodeTemperature(w io.Writer, img *thermal.TempImage, depth thermal.BitDepth, format thermal.RawFormat) error {
	if img == nil || len(img.Pix) == 0 {
		return ErrEmptyRaster
	}
	if format != thermal.FormatTIFF {
		return ErrFloatNeedsTIFF
	}
	if err := depth.Validate(); err != nil {
		return err
	}
	return encodeTIFFFloat(w, img, depth, c.Deflate)
}

package thermal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// RawFormat identifies the container of the raster embedded in a
// thermal image file, as recorded in its metadata.
type RawFormat string

// Raw raster containers used by FLIR cameras.
const (
	FormatPNG  RawFormat = "png"
	FormatTIFF RawFormat = "tiff"
)

// OutputKind selects which matrix Save writes.
type OutputKind int

const (
	// OutputRaw writes the raw sensor counts unchanged.
	OutputRaw OutputKind = iota
	// OutputTemperature writes the derived Kelvin temperature field.
	OutputTemperature
)

// String returns "raw" or "temperature".
func (k OutputKind) String() string {
	if k == OutputTemperature {
		return "temperature"
	}
	return "raw"
}

// BitDepth is the sample width of saved temperature data.
type BitDepth int

// Supported output bit depths. 16-bit output stores IEEE
// half-precision floats; 32 and 64 store float32 and float64.
const (
	Depth16 BitDepth = 16
	Depth32 BitDepth = 32
	Depth64 BitDepth = 64
)

// Validate rejects bit depths other than 16, 32 and 64.
func (d BitDepth) Validate() error {
	switch d {
	case Depth16, Depth32, Depth64:
		return nil
	default:
		return ErrInvalidBitDepth
	}
}

// MetadataSource supplies the camera metadata the model needs. The
// exiftool-backed implementation lives in package flirmeta; tests use
// in-memory fakes. Implementations block; callers own timeout and
// cancellation through the context.
type MetadataSource interface {
	// Coefficients returns the five Planck calibration constants, or a
	// *MissingCoefficientsError when any are absent.
	Coefficients(ctx context.Context, path string) (Coefficients, error)

	// Dimensions returns the raw raster width and height.
	Dimensions(ctx context.Context, path string) (width, height int, err error)

	// RawFormat returns the container of the embedded raw raster.
	RawFormat(ctx context.Context, path string) (RawFormat, error)

	// RawThermalBlob returns the embedded raw raster bytes.
	RawThermalBlob(ctx context.Context, path string) ([]byte, error)

	// CopyTags copies the full tag set of src onto dst.
	CopyTags(ctx context.Context, src, dst string) error
}

// Codec decodes embedded raw rasters and encodes output rasters. The
// FLIR-aware implementation lives in package rawcodec.
type Codec interface {
	// DecodeRaw decodes an embedded raster blob into sensor counts.
	DecodeRaw(data []byte, format RawFormat) (*RawImage, error)

	// EncodeRaw writes sensor counts in the given container.
	EncodeRaw(w io.Writer, img *RawImage, format RawFormat) error

	// EncodeTemperature writes a Kelvin field at the given bit depth.
	EncodeTemperature(w io.Writer, img *TempImage, depth BitDepth, format RawFormat) error
}

// LoadOptions configures a ThermalImage at load time. The zero value
// selects raw output, 16-bit depth, unit emissivity and transmissivity,
// no metadata passthrough, and the propagate domain policy.
type LoadOptions struct {
	// OutputKind selects the matrix Save writes.
	OutputKind OutputKind

	// BitDepth is the sample width of saved temperature data.
	// 0 means 16.
	BitDepth BitDepth

	// Emissivity is the surface emissivity scalar. 0 means 1.0.
	// Carried for forward compatibility; the model does not apply it.
	Emissivity float64

	// Transmissivity is the atmospheric transmissivity scalar.
	// 0 means 1.0. Carried for forward compatibility like Emissivity.
	Transmissivity float64

	// IncludeMetadataPassthrough copies the source file's full tag set
	// onto every saved output.
	IncludeMetadataPassthrough bool

	// Strict applies ModelOptions.Strict to the forward model.
	Strict bool
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.BitDepth == 0 {
		o.BitDepth = Depth16
	}
	if o.Emissivity == 0 {
		o.Emissivity = 1
	}
	if o.Transmissivity == 0 {
		o.Transmissivity = 1
	}
	return o
}

// Image is a loaded thermal image: the source file reference, its
// calibration, the decoded raw counts, the derived temperature field
// and its statistics. All fields are computed eagerly by Load and not
// mutated afterwards.
type Image struct {
	Path   string
	Coeffs Coefficients
	Raw    *RawImage
	Temp   *TempImage
	Stats  Stats
	RawFmt RawFormat

	opts  LoadOptions
	meta  MetadataSource
	codec Codec
}

// Load reads a thermal image file end to end: metadata, calibration,
// raw raster, forward model and statistics. Collaborator failures are
// surfaced untouched where they are self-describing (missing
// coefficients, decode errors) and wrapped with context otherwise.
func Load(ctx context.Context, path string, meta MetadataSource, codec Codec, opts *LoadOptions) (*Image, error) {
	var o LoadOptions
	if opts != nil {
		o = *opts
	}
	o = o.withDefaults()
	if err := o.BitDepth.Validate(); err != nil {
		return nil, err
	}

	coeffs, err := meta.Coefficients(ctx, path)
	if err != nil {
		return nil, err
	}

	width, height, err := meta.Dimensions(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading raster dimensions: %w", err)
	}

	format, err := meta.RawFormat(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading raw raster format: %w", err)
	}

	blob, err := meta.RawThermalBlob(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extracting raw raster: %w", err)
	}

	raw, err := codec.DecodeRaw(blob, format)
	if err != nil {
		return nil, err
	}
	if raw.Width != width || raw.Height != height {
		return nil, fmt.Errorf("%w: decoded %dx%d, metadata %dx%d",
			ErrDimensionMismatch, raw.Width, raw.Height, width, height)
	}

	temp, err := RawToTemperatureOpts(raw, coeffs, ModelOptions{Strict: o.Strict})
	if err != nil {
		return nil, err
	}

	stats, err := Summarize(temp)
	if err != nil {
		return nil, err
	}

	return &Image{
		Path:   path,
		Coeffs: coeffs,
		Raw:    raw,
		Temp:   temp,
		Stats:  stats,
		RawFmt: format,
		opts:   o,
		meta:   meta,
		codec:  codec,
	}, nil
}

// Options returns the load configuration with defaults applied.
func (im *Image) Options() LoadOptions {
	return im.opts
}

// OutputPath returns the conventional output name for the configured
// output kind: the source name with its extension replaced by the raw
// raster's extension, with a "_T" suffix for temperature output.
// Temperature data is always written as TIFF because PNG cannot carry
// floating-point samples.
func (im *Image) OutputPath() string {
	base := strings.TrimSuffix(im.Path, filepath.Ext(im.Path))
	if im.opts.OutputKind == OutputTemperature {
		return base + "_T.tiff"
	}
	return base + "." + string(im.RawFmt)
}

// Save encodes the configured matrix to path using the image's codec,
// then optionally copies the source metadata onto the output. An empty
// path selects OutputPath. A failed encode removes the partial output
// file before returning.
func (im *Image) Save(ctx context.Context, path string) error {
	if path == "" {
		path = im.OutputPath()
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	if im.opts.OutputKind == OutputTemperature {
		err = im.codec.EncodeTemperature(f, im.Temp, im.opts.BitDepth, FormatTIFF)
	} else {
		err = im.codec.EncodeRaw(f, im.Raw, im.RawFmt)
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("closing output file: %w", err)
	}

	if im.opts.IncludeMetadataPassthrough {
		if err := im.meta.CopyTags(ctx, im.Path, path); err != nil {
			return fmt.Errorf("copying metadata to output: %w", err)
		}
	}
	return nil
}

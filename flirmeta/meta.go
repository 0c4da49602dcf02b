// Package flirmeta extracts FLIR camera metadata through the exiftool
// command-line program.
//
// It implements thermal.MetadataSource: Planck calibration
// coefficients, raw raster dimensions and container format, the
// embedded raw raster bytes, GPS position, and metadata passthrough
// copying onto output files. All operations shell out to exiftool and
// block; callers own timeout and cancellation through the context.
package flirmeta

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/mrjoshuak/go-flir/thermal"
)

// Metadata tag names as exiftool reports them. Some containers qualify
// tags with a group prefix ("APP1:PlanckR1"); lookups match either
// form.
const (
	TagRawThermalImage       = "RawThermalImage"
	TagRawThermalImageType   = "RawThermalImageType"
	TagRawThermalImageWidth  = "RawThermalImageWidth"
	TagRawThermalImageHeight = "RawThermalImageHeight"
	TagGPSLatitude           = "GPSLatitude"
	TagGPSLongitude          = "GPSLongitude"
	TagGPSAltitude           = "GPSAltitude"
)

// Metadata errors
var (
	// ErrTagNotPresent reports a required tag absent from the file.
	ErrTagNotPresent = errors.New("flirmeta: tag not present")

	// ErrNoMetadata reports exiftool output with no metadata object.
	ErrNoMetadata = errors.New("flirmeta: no metadata in exiftool output")

	// ErrUnknownRawFormat reports a RawThermalImageType value naming a
	// container this library does not handle.
	ErrUnknownRawFormat = errors.New("flirmeta: unknown raw thermal image type")
)

// runner executes the external metadata tool. Tests substitute a fake.
type runner interface {
	run(ctx context.Context, args ...string) ([]byte, error)
}

type execRunner struct {
	tool string
}

func (r execRunner) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.tool, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("flirmeta: %s: %s: %w", r.tool, msg, err)
		}
		return nil, fmt.Errorf("flirmeta: %s: %w", r.tool, err)
	}
	return stdout.Bytes(), nil
}

// Options configures an ExifTool source.
type Options struct {
	// Tool is the executable to invoke. "" means "exiftool" from PATH.
	Tool string
}

// ExifTool is a thermal.MetadataSource backed by the exiftool program.
// The tag set of each file is read once and cached, so the accessors an
// image load performs in sequence cost a single tool invocation.
type ExifTool struct {
	r runner

	mu    sync.Mutex
	cache map[string]map[string]any
}

var _ thermal.MetadataSource = (*ExifTool)(nil)

// NewExifTool returns a metadata source that shells out to exiftool.
func NewExifTool(opts *Options) *ExifTool {
	tool := "exiftool"
	if opts != nil && opts.Tool != "" {
		tool = opts.Tool
	}
	return &ExifTool{r: execRunner{tool: tool}}
}

// Tags returns the full tag-name to value mapping for a file. Numeric
// tags are reported in machine form (exiftool -n). The mapping is
// cached per path for the lifetime of the ExifTool; failures are not
// cached.
func (et *ExifTool) Tags(ctx context.Context, path string) (map[string]any, error) {
	et.mu.Lock()
	tags, ok := et.cache[path]
	et.mu.Unlock()
	if ok {
		return tags, nil
	}

	out, err := et.r.run(ctx, "-json", "-n", path)
	if err != nil {
		return nil, err
	}
	var objs []map[string]any
	if err := json.Unmarshal(out, &objs); err != nil {
		return nil, fmt.Errorf("flirmeta: parsing exiftool output: %w", err)
	}
	if len(objs) == 0 {
		return nil, ErrNoMetadata
	}

	et.mu.Lock()
	if et.cache == nil {
		et.cache = make(map[string]map[string]any)
	}
	et.cache[path] = objs[0]
	et.mu.Unlock()
	return objs[0], nil
}

// Coefficients returns the five Planck calibration constants. Missing
// keys surface as a *thermal.MissingCoefficientsError naming every
// absent key; a present but non-numeric value is its own hard error.
func (et *ExifTool) Coefficients(ctx context.Context, path string) (thermal.Coefficients, error) {
	tags, err := et.Tags(ctx, path)
	if err != nil {
		return thermal.Coefficients{}, err
	}

	found := make(map[string]float64)
	for _, key := range thermal.RequiredCoefficientKeys() {
		f, err := numericTag(tags, key)
		if err != nil {
			if errors.Is(err, ErrTagNotPresent) {
				continue
			}
			return thermal.Coefficients{}, err
		}
		found[key] = f
	}
	return thermal.CoefficientsFromTags(found)
}

// Dimensions returns the raw raster width and height.
func (et *ExifTool) Dimensions(ctx context.Context, path string) (int, int, error) {
	tags, err := et.Tags(ctx, path)
	if err != nil {
		return 0, 0, err
	}
	w, err := numericTag(tags, TagRawThermalImageWidth)
	if err != nil {
		return 0, 0, err
	}
	h, err := numericTag(tags, TagRawThermalImageHeight)
	if err != nil {
		return 0, 0, err
	}
	return int(w), int(h), nil
}

// RawFormat returns the container of the embedded raw raster, as named
// by the RawThermalImageType tag (case-insensitive).
func (et *ExifTool) RawFormat(ctx context.Context, path string) (thermal.RawFormat, error) {
	tags, err := et.Tags(ctx, path)
	if err != nil {
		return "", err
	}
	v, ok := lookup(tags, TagRawThermalImageType)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTagNotPresent, TagRawThermalImageType)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %v", ErrUnknownRawFormat, v)
	}
	switch strings.ToLower(s) {
	case "png":
		return thermal.FormatPNG, nil
	case "tiff":
		return thermal.FormatTIFF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRawFormat, s)
	}
}

// RawThermalBlob returns the embedded raw raster bytes. The blob is
// captured from the tool's standard output, so no temporary file is
// created.
func (et *ExifTool) RawThermalBlob(ctx context.Context, path string) ([]byte, error) {
	out, err := et.r.run(ctx, "-b", "-"+TagRawThermalImage, path)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTagNotPresent, TagRawThermalImage)
	}
	return out, nil
}

// CopyTags copies the full tag set of src onto dst, overwriting dst in
// place without leaving a backup file behind.
func (et *ExifTool) CopyTags(ctx context.Context, src, dst string) error {
	_, err := et.r.run(ctx, "-tagsfromfile", src, "-all:all", "-overwrite_original", dst)
	return err
}

// GeoLocation is the GPS position recorded by the camera.
type GeoLocation struct {
	Latitude  float64 // degrees, negative south
	Longitude float64 // degrees, negative west
	Altitude  float64 // meters, 0 when not recorded
}

// GPS returns the recorded GPS position, or nil when the image carries
// no position. Latitude and longitude must both be present; altitude
// is optional.
func (et *ExifTool) GPS(ctx context.Context, path string) (*GeoLocation, error) {
	tags, err := et.Tags(ctx, path)
	if err != nil {
		return nil, err
	}
	lat, latErr := numericTag(tags, TagGPSLatitude)
	lon, lonErr := numericTag(tags, TagGPSLongitude)
	if errors.Is(latErr, ErrTagNotPresent) || errors.Is(lonErr, ErrTagNotPresent) {
		return nil, nil
	}
	if latErr != nil {
		return nil, latErr
	}
	if lonErr != nil {
		return nil, lonErr
	}
	loc := &GeoLocation{Latitude: lat, Longitude: lon}
	alt, altErr := numericTag(tags, TagGPSAltitude)
	if altErr != nil && !errors.Is(altErr, ErrTagNotPresent) {
		return nil, altErr
	}
	loc.Altitude = alt
	return loc, nil
}

// lookup finds a tag by exact name or by the trailing component of a
// group-qualified name.
func lookup(tags map[string]any, name string) (any, bool) {
	if v, ok := tags[name]; ok {
		return v, true
	}
	for k, v := range tags {
		if i := strings.LastIndexByte(k, ':'); i >= 0 && k[i+1:] == name {
			return v, true
		}
	}
	return nil, false
}

// numericTag returns a tag value as float64, accepting JSON numbers
// and numeric strings.
func numericTag(tags map[string]any, name string) (float64, error) {
	v, ok := lookup(tags, name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrTagNotPresent, name)
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("flirmeta: tag %s is not numeric: %q", name, t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("flirmeta: tag %s is not numeric (%T)", name, v)
	}
}

package rawcodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"

	"github.com/mrjoshuak/go-flir/thermal"
)

// TIFF codec errors
var (
	ErrTIFFCorrupt     = errors.New("rawcodec: corrupted TIFF data")
	ErrTIFFUnsupported = errors.New("rawcodec: unsupported TIFF layout (need single-plane 16-bit grayscale)")
)

// TIFF tag codes used by this codec.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagSampleFormat    = 339
)

// TIFF field types.
const (
	typeShort = 3
	typeLong  = 4
)

// TIFF compression schemes.
const (
	compressionNone       = 1
	compressionDeflate    = 8
	compressionOldDeflate = 32946
)

// Sample formats.
const (
	sampleFormatUint  = 1
	sampleFormatFloat = 3
)

type ifdEntry struct {
	tag   uint16
	ftype uint16
	count uint32
	value uint32  // scalar value, or offset when values do not fit inline
	raw   [4]byte // the entry's value field verbatim
}

// decodeTIFF decodes a 16-bit grayscale TIFF raster, uncompressed or
// Deflate-compressed, in either byte order.
func decodeTIFF(data []byte) (*thermal.RawImage, error) {
	if len(data) < 8 {
		return nil, ErrTIFFCorrupt
	}

	var order binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		order = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, ErrTIFFCorrupt
	}
	if order.Uint16(data[2:4]) != 42 {
		return nil, ErrTIFFCorrupt
	}

	// Offsets come from the blob, so all bounds arithmetic is done in
	// int64 where a hostile uint32 value cannot wrap.
	ifdOffset := order.Uint32(data[4:8])
	if int64(ifdOffset)+2 > int64(len(data)) {
		return nil, ErrTIFFCorrupt
	}
	numEntries := int(order.Uint16(data[ifdOffset : ifdOffset+2]))
	if int64(ifdOffset)+2+int64(numEntries)*12 > int64(len(data)) {
		return nil, ErrTIFFCorrupt
	}

	entries := make(map[uint16]ifdEntry, numEntries)
	for i := 0; i < numEntries; i++ {
		off := ifdOffset + 2 + uint32(i)*12
		e := ifdEntry{
			tag:   order.Uint16(data[off : off+2]),
			ftype: order.Uint16(data[off+2 : off+4]),
			count: order.Uint32(data[off+4 : off+8]),
		}
		copy(e.raw[:], data[off+8:off+12])
		// SHORT values pack into the leading bytes of the field.
		if e.ftype == typeShort && e.count == 1 {
			e.value = uint32(order.Uint16(e.raw[:2]))
		} else {
			e.value = order.Uint32(e.raw[:])
		}
		entries[e.tag] = e
	}

	// values returns the count values of an entry, following the
	// offset indirection when they do not fit inline.
	values := func(e ifdEntry) ([]uint32, error) {
		size := uint32(4)
		if e.ftype == typeShort {
			size = 2
		}
		src := e.raw[:]
		if total := int64(e.count) * int64(size); total > 4 {
			if int64(e.value)+total > int64(len(data)) {
				return nil, ErrTIFFCorrupt
			}
			src = data[e.value : int64(e.value)+total]
		}
		out := make([]uint32, e.count)
		for i := uint32(0); i < e.count; i++ {
			if e.ftype == typeShort {
				out[i] = uint32(order.Uint16(src[i*2 : i*2+2]))
			} else {
				out[i] = order.Uint32(src[i*4 : i*4+4])
			}
		}
		return out, nil
	}

	scalar := func(tag uint16, def uint32) uint32 {
		if e, ok := entries[tag]; ok {
			return e.value
		}
		return def
	}

	width := int(scalar(tagImageWidth, 0))
	height := int(scalar(tagImageLength, 0))
	if width <= 0 || height <= 0 || width > maxRasterPixels/height {
		return nil, ErrTIFFCorrupt
	}
	if scalar(tagBitsPerSample, 1) != 16 || scalar(tagSamplesPerPixel, 1) != 1 {
		return nil, ErrTIFFUnsupported
	}
	if scalar(tagSampleFormat, sampleFormatUint) != sampleFormatUint {
		return nil, ErrTIFFUnsupported
	}
	compression := scalar(tagCompression, compressionNone)
	switch compression {
	case compressionNone, compressionDeflate, compressionOldDeflate:
	default:
		return nil, ErrTIFFUnsupported
	}

	offsetsEntry, ok := entries[tagStripOffsets]
	if !ok {
		return nil, ErrTIFFCorrupt
	}
	countsEntry, ok := entries[tagStripByteCounts]
	if !ok {
		return nil, ErrTIFFCorrupt
	}
	offsets, err := values(offsetsEntry)
	if err != nil {
		return nil, err
	}
	counts, err := values(countsEntry)
	if err != nil {
		return nil, err
	}
	if len(offsets) != len(counts) || len(offsets) == 0 {
		return nil, ErrTIFFCorrupt
	}

	pixels := make([]byte, 0, width*height*2)
	for i := range offsets {
		off, cnt := offsets[i], counts[i]
		if int64(off)+int64(cnt) > int64(len(data)) {
			return nil, ErrTIFFCorrupt
		}
		strip := data[off : off+cnt]
		if compression != compressionNone {
			zr, err := zlib.NewReader(bytes.NewReader(strip))
			if err != nil {
				return nil, ErrTIFFCorrupt
			}
			expanded, err := io.ReadAll(zr)
			zr.Close()
			if err != nil {
				return nil, ErrTIFFCorrupt
			}
			strip = expanded
		}
		pixels = append(pixels, strip...)
	}
	if len(pixels) != width*height*2 {
		return nil, ErrTIFFCorrupt
	}

	img := thermal.NewRawImage(width, height)
	for i := range img.Pix {
		img.Pix[i] = order.Uint16(pixels[i*2 : i*2+2])
	}
	return img, nil
}

// encodeTIFFUint16 writes sensor counts as an uncompressed or
// Deflate-compressed little-endian 16-bit grayscale TIFF.
func encodeTIFFUint16(w io.Writer, img *thermal.RawImage, deflate bool) error {
	pixels := make([]byte, len(img.Pix)*2)
	for i, v := range img.Pix {
		binary.LittleEndian.PutUint16(pixels[i*2:], v)
	}
	return writeTIFF(w, img.Width, img.Height, 16, sampleFormatUint, pixels, deflate)
}

// encodeTIFFFloat writes a temperature field as a little-endian
// grayscale TIFF with IEEE floating-point samples at the given depth.
func encodeTIFFFloat(w io.Writer, img *thermal.TempImage, depth thermal.BitDepth, deflate bool) error {
	var pixels []byte
	switch depth {
	case thermal.Depth16:
		pixels = make([]byte, len(img.Pix)*2)
		for i, v := range img.Pix {
			binary.LittleEndian.PutUint16(pixels[i*2:], float16Bits(v))
		}
	case thermal.Depth32:
		pixels = make([]byte, len(img.Pix)*4)
		for i, v := range img.Pix {
			binary.LittleEndian.PutUint32(pixels[i*4:], math.Float32bits(float32(v)))
		}
	case thermal.Depth64:
		pixels = make([]byte, len(img.Pix)*8)
		for i, v := range img.Pix {
			binary.LittleEndian.PutUint64(pixels[i*8:], math.Float64bits(v))
		}
	default:
		return thermal.ErrInvalidBitDepth
	}
	return writeTIFF(w, img.Width, img.Height, int(depth), sampleFormatFloat, pixels, deflate)
}

// writeTIFF assembles a single-strip little-endian TIFF: 8-byte
// header, strip data, then the IFD.
func writeTIFF(w io.Writer, width, height, bits, sampleFormat int, pixels []byte, deflate bool) error {
	strip := pixels
	compression := uint32(compressionNone)
	if deflate {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(pixels); err != nil {
			zw.Close()
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		strip = buf.Bytes()
		compression = compressionDeflate
	}

	const headerSize = 8
	const stripOffset = headerSize
	dataEnd := stripOffset + len(strip)
	pad := dataEnd % 2 // IFD must start on a word boundary
	ifdOffset := dataEnd + pad

	entries := []ifdEntry{
		{tag: tagImageWidth, ftype: typeLong, count: 1, value: uint32(width)},
		{tag: tagImageLength, ftype: typeLong, count: 1, value: uint32(height)},
		{tag: tagBitsPerSample, ftype: typeShort, count: 1, value: uint32(bits)},
		{tag: tagCompression, ftype: typeShort, count: 1, value: compression},
		{tag: tagPhotometric, ftype: typeShort, count: 1, value: 1}, // BlackIsZero
		{tag: tagStripOffsets, ftype: typeLong, count: 1, value: stripOffset},
		{tag: tagSamplesPerPixel, ftype: typeShort, count: 1, value: 1},
		{tag: tagRowsPerStrip, ftype: typeLong, count: 1, value: uint32(height)},
		{tag: tagStripByteCounts, ftype: typeLong, count: 1, value: uint32(len(strip))},
		{tag: tagSampleFormat, ftype: typeShort, count: 1, value: uint32(sampleFormat)},
	}

	var out bytes.Buffer
	out.Grow(ifdOffset + 2 + len(entries)*12 + 4)
	out.WriteString("II")
	le := binary.LittleEndian

	var u16 [2]byte
	var u32 [4]byte
	le.PutUint16(u16[:], 42)
	out.Write(u16[:])
	le.PutUint32(u32[:], uint32(ifdOffset))
	out.Write(u32[:])

	out.Write(strip)
	if pad != 0 {
		out.WriteByte(0)
	}

	le.PutUint16(u16[:], uint16(len(entries)))
	out.Write(u16[:])
	for _, e := range entries {
		le.PutUint16(u16[:], e.tag)
		out.Write(u16[:])
		le.PutUint16(u16[:], e.ftype)
		out.Write(u16[:])
		le.PutUint32(u32[:], e.count)
		out.Write(u32[:])
		if e.ftype == typeShort {
			// SHORT values pack into the leading bytes of the field.
			le.PutUint16(u16[:], uint16(e.value))
			out.Write(u16[:])
			out.Write([]byte{0, 0})
		} else {
			le.PutUint32(u32[:], e.value)
			out.Write(u32[:])
		}
	}
	le.PutUint32(u32[:], 0) // no next IFD
	out.Write(u32[:])

	_, err := w.Write(out.Bytes())
	return err
}

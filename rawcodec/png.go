package rawcodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/mrjoshuak/go-flir/thermal"
)

// PNG codec errors
var (
	ErrPNGCorrupt     = errors.New("rawcodec: corrupted PNG data")
	ErrPNGUnsupported = errors.New("rawcodec: unsupported PNG layout (need 16-bit grayscale, no interlace)")
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// decodePNG decodes a FLIR raw thermal PNG: 16-bit grayscale, not
// interlaced, samples in FLIR byte order (least significant byte
// first).
func decodePNG(data []byte) (*thermal.RawImage, error) {
	if len(data) < len(pngSignature) || !bytes.Equal(data[:len(pngSignature)], pngSignature) {
		return nil, ErrPNGCorrupt
	}

	var (
		width, height int
		idat          []byte
		sawIHDR       bool
	)

	rest := data[len(pngSignature):]
	for len(rest) > 0 {
		if len(rest) < 12 {
			return nil, ErrPNGCorrupt
		}
		length := binary.BigEndian.Uint32(rest[:4])
		if uint32(len(rest)-12) < length {
			return nil, ErrPNGCorrupt
		}
		ctype := string(rest[4:8])
		body := rest[8 : 8+length]
		crc := binary.BigEndian.Uint32(rest[8+length : 12+length])
		if crc32.ChecksumIEEE(rest[4:8+length]) != crc {
			return nil, ErrPNGCorrupt
		}
		rest = rest[12+length:]

		switch ctype {
		case "IHDR":
			if len(body) != 13 {
				return nil, ErrPNGCorrupt
			}
			width = int(binary.BigEndian.Uint32(body[0:4]))
			height = int(binary.BigEndian.Uint32(body[4:8]))
			bitDepth := body[8]
			colorType := body[9]
			interlace := body[12]
			if bitDepth != 16 || colorType != 0 || interlace != 0 {
				return nil, ErrPNGUnsupported
			}
			sawIHDR = true
		case "IDAT":
			idat = append(idat, body...)
		case "IEND":
			rest = nil
		}
	}

	if !sawIHDR || width <= 0 || height <= 0 || len(idat) == 0 {
		return nil, ErrPNGCorrupt
	}
	if width > maxRasterPixels/height {
		return nil, ErrPNGCorrupt
	}

	zr, err := zlib.NewReader(bytes.NewReader(idat))
	if err != nil {
		return nil, ErrPNGCorrupt
	}
	defer zr.Close()

	const bpp = 2 // bytes per pixel for 16-bit grayscale
	stride := width * bpp
	raster := make([]byte, height*(1+stride))
	if _, err := io.ReadFull(zr, raster); err != nil {
		return nil, ErrPNGCorrupt
	}

	img := thermal.NewRawImage(width, height)
	prev := make([]byte, stride)
	for y := 0; y < height; y++ {
		line := raster[y*(1+stride) : (y+1)*(1+stride)]
		row := line[1:]
		if err := unfilterRow(line[0], row, prev, bpp); err != nil {
			return nil, err
		}
		for x := 0; x < width; x++ {
			// FLIR byte order, not the PNG network order.
			img.Pix[y*width+x] = uint16(row[x*2]) | uint16(row[x*2+1])<<8
		}
		copy(prev, row)
	}
	return img, nil
}

// unfilterRow reverses a PNG scanline filter in place.
func unfilterRow(filter byte, row, prev []byte, bpp int) error {
	switch filter {
	case 0: // None
	case 1: // Sub
		for i := bpp; i < len(row); i++ {
			row[i] += row[i-bpp]
		}
	case 2: // Up
		for i := range row {
			row[i] += prev[i]
		}
	case 3: // Average
		for i := range row {
			var left byte
			if i >= bpp {
				left = row[i-bpp]
			}
			row[i] += byte((int(left) + int(prev[i])) / 2)
		}
	case 4: // Paeth
		for i := range row {
			var left, upLeft byte
			if i >= bpp {
				left = row[i-bpp]
				upLeft = prev[i-bpp]
			}
			row[i] += paeth(left, prev[i], upLeft)
		}
	default:
		return ErrPNGCorrupt
	}
	return nil
}

// paeth is the PNG Paeth predictor.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// encodePNG writes sensor counts as a 16-bit grayscale PNG in FLIR
// byte order. Scanlines use the None filter.
func encodePNG(w io.Writer, img *thermal.RawImage) error {
	const bpp = 2
	stride := img.Width * bpp

	raster := make([]byte, img.Height*(1+stride))
	for y := 0; y < img.Height; y++ {
		line := raster[y*(1+stride) : (y+1)*(1+stride)]
		line[0] = 0 // None filter
		for x := 0; x < img.Width; x++ {
			v := img.Pix[y*img.Width+x]
			line[1+x*2] = byte(v)
			line[2+x*2] = byte(v >> 8)
		}
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(raster); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	if _, err := w.Write(pngSignature); err != nil {
		return err
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(img.Width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(img.Height))
	ihdr[8] = 16 // bit depth
	ihdr[9] = 0  // grayscale
	if err := writeChunk(w, "IHDR", ihdr); err != nil {
		return err
	}
	if err := writeChunk(w, "IDAT", compressed.Bytes()); err != nil {
		return err
	}
	return writeChunk(w, "IEND", nil)
}

func writeChunk(w io.Writer, ctype string, body []byte) error {
	var head [8]byte
	binary.BigEndian.PutUint32(head[:4], uint32(len(body)))
	copy(head[4:], ctype)
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	crc := crc32.NewIEEE()
	crc.Write(head[4:])
	crc.Write(body)
	var tail [4]byte
	binary.BigEndian.PutUint32(tail[:], crc.Sum32())
	_, err := w.Write(tail[:])
	return err
}

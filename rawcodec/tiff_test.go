package rawcodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mrjoshuak/go-flir/thermal"
)

func TestTIFFRoundTrip(t *testing.T) {
	for _, deflate := range []bool{false, true} {
		c := &Codec{Deflate: deflate}
		want := testImage(80, 60)

		var buf bytes.Buffer
		if err := c.EncodeRaw(&buf, want, thermal.FormatTIFF); err != nil {
			t.Fatalf("deflate=%v: EncodeRaw error: %v", deflate, err)
		}

		got, err := c.DecodeRaw(buf.Bytes(), thermal.FormatTIFF)
		if err != nil {
			t.Fatalf("deflate=%v: DecodeRaw error: %v", deflate, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("deflate=%v: roundtrip mismatch (-want +got):\n%s", deflate, diff)
		}
	}
}

func TestTIFFDecodeBigEndian(t *testing.T) {
	// Hand-built motorola-order TIFF: header, 2x1 strip, then the IFD.
	// Cameras write either byte order.
	want := []uint16{0x1234, 0xBEEF}

	be := binary.BigEndian
	var buf bytes.Buffer
	buf.WriteString("MM")
	var u16 [2]byte
	var u32 [4]byte
	be.PutUint16(u16[:], 42)
	buf.Write(u16[:])
	be.PutUint32(u32[:], 12) // IFD follows the strip
	buf.Write(u32[:])
	be.PutUint16(u16[:], want[0])
	buf.Write(u16[:])
	be.PutUint16(u16[:], want[1])
	buf.Write(u16[:])

	writeEntry := func(tag, ftype uint16, value uint32) {
		be.PutUint16(u16[:], tag)
		buf.Write(u16[:])
		be.PutUint16(u16[:], ftype)
		buf.Write(u16[:])
		be.PutUint32(u32[:], 1)
		buf.Write(u32[:])
		if ftype == typeShort {
			be.PutUint16(u16[:], uint16(value))
			buf.Write(u16[:])
			buf.Write([]byte{0, 0})
		} else {
			be.PutUint32(u32[:], value)
			buf.Write(u32[:])
		}
	}

	be.PutUint16(u16[:], 5)
	buf.Write(u16[:])
	writeEntry(tagImageWidth, typeLong, 2)
	writeEntry(tagImageLength, typeLong, 1)
	writeEntry(tagBitsPerSample, typeShort, 16)
	writeEntry(tagStripOffsets, typeLong, 8)
	writeEntry(tagStripByteCounts, typeLong, 4)
	be.PutUint32(u32[:], 0)
	buf.Write(u32[:])

	got, err := decodeTIFF(buf.Bytes())
	if err != nil {
		t.Fatalf("decodeTIFF error: %v", err)
	}
	if diff := cmp.Diff(want, got.Pix); diff != "" {
		t.Errorf("pixels mismatch (-want +got):\n%s", diff)
	}
}

func TestTIFFDecodeCorrupt(t *testing.T) {
	if _, err := decodeTIFF([]byte("II")); !errors.Is(err, ErrTIFFCorrupt) {
		t.Errorf("truncated header: %v, want ErrTIFFCorrupt", err)
	}
	if _, err := decodeTIFF([]byte("XX\x2a\x00\x08\x00\x00\x00")); !errors.Is(err, ErrTIFFCorrupt) {
		t.Errorf("bad byte order mark: %v, want ErrTIFFCorrupt", err)
	}
	// IFD offset near the top of the uint32 range must not wrap the
	// bounds check into a slice panic.
	if _, err := decodeTIFF([]byte{'I', 'I', 42, 0, 0xff, 0xff, 0xff, 0xff}); !errors.Is(err, ErrTIFFCorrupt) {
		t.Errorf("wrapping IFD offset: %v, want ErrTIFFCorrupt", err)
	}
}

func TestTIFFDecodeHostileOffsets(t *testing.T) {
	mutate := func(f func([]byte)) []byte {
		var buf bytes.Buffer
		if err := New().EncodeRaw(&buf, testImage(4, 4), thermal.FormatTIFF); err != nil {
			t.Fatal(err)
		}
		data := buf.Bytes()
		f(data)
		return data
	}

	le := binary.LittleEndian
	ifdOffset := le.Uint32(mutate(func([]byte) {})[4:8])
	entry := func(data []byte, i int) []byte {
		off := ifdOffset + 2 + uint32(i)*12
		return data[off : off+12]
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"strip offset wraps", mutate(func(data []byte) {
			// tagStripOffsets is the sixth entry written.
			le.PutUint32(entry(data, 5)[8:], 0xffffffff)
		})},
		{"strip count wraps", mutate(func(data []byte) {
			le.PutUint32(entry(data, 8)[8:], 0xffffffff)
		})},
		{"huge dimensions", mutate(func(data []byte) {
			le.PutUint32(entry(data, 0)[8:], 0xffffffff)
			le.PutUint32(entry(data, 1)[8:], 0xffffffff)
		})},
		{"offsets count overflows indirection", mutate(func(data []byte) {
			e := entry(data, 5)
			le.PutUint32(e[4:8], 0xffffffff) // count
		})},
	}
	for _, tt := range tests {
		if _, err := decodeTIFF(tt.data); !errors.Is(err, ErrTIFFCorrupt) {
			t.Errorf("%s: %v, want ErrTIFFCorrupt", tt.name, err)
		}
	}
}

func TestEncodeTemperature(t *testing.T) {
	tm := thermal.NewTempImage(2, 1)
	tm.Pix = []float64{295.15, 368.1}

	for _, depth := range []thermal.BitDepth{thermal.Depth16, thermal.Depth32, thermal.Depth64} {
		var buf bytes.Buffer
		if err := New().EncodeTemperature(&buf, tm, depth, thermal.FormatTIFF); err != nil {
			t.Fatalf("depth %d: EncodeTemperature error: %v", depth, err)
		}
		data := buf.Bytes()

		// Single strip at offset 8.
		le := binary.LittleEndian
		var got float64
		switch depth {
		case thermal.Depth16:
			got = float16Value(le.Uint16(data[8:10]))
		case thermal.Depth32:
			got = float64(math.Float32frombits(le.Uint32(data[8:12])))
		case thermal.Depth64:
			got = math.Float64frombits(le.Uint64(data[8:16]))
		}
		tol := map[thermal.BitDepth]float64{thermal.Depth16: 0.25, thermal.Depth32: 1e-4, thermal.Depth64: 0}[depth]
		if math.Abs(got-tm.Pix[0]) > tol {
			t.Errorf("depth %d: first sample = %v, want %v within %v", depth, got, tm.Pix[0], tol)
		}
	}
}

func TestFloatTIFFRejectedByRawDecoder(t *testing.T) {
	tm := thermal.NewTempImage(2, 2)
	for i := range tm.Pix {
		tm.Pix[i] = 300
	}

	var buf bytes.Buffer
	if err := New().EncodeTemperature(&buf, tm, thermal.Depth32, thermal.FormatTIFF); err != nil {
		t.Fatal(err)
	}
	if _, err := decodeTIFF(buf.Bytes()); !errors.Is(err, ErrTIFFUnsupported) {
		t.Errorf("error = %v, want ErrTIFFUnsupported", err)
	}
}

func TestEncodeTemperatureNeedsTIFF(t *testing.T) {
	tm := thermal.NewTempImage(1, 1)
	tm.Pix[0] = 300

	var buf bytes.Buffer
	err := New().EncodeTemperature(&buf, tm, thermal.Depth16, thermal.FormatPNG)
	if !errors.Is(err, ErrFloatNeedsTIFF) {
		t.Errorf("error = %v, want ErrFloatNeedsTIFF", err)
	}
	if err := New().EncodeTemperature(&buf, tm, 24, thermal.FormatTIFF); !errors.Is(err, thermal.ErrInvalidBitDepth) {
		t.Errorf("error = %v, want ErrInvalidBitDepth", err)
	}
}
